package ui

import (
	"context"
	"errors"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/vctt94/pokertable/pkg/protocol"
	"github.com/vctt94/pokertable/pkg/wire"
)

// Messages fed to the model. Only Forward produces eventMsg, replyMsg
// and closedMsg; errorMsg comes from failed sends.
type (
	eventMsg  struct{ ev protocol.Event }
	replyMsg  wire.Reply
	closedMsg struct{ err error }
	errorMsg  error
)

// Sender delivers requests to the server.
type Sender interface {
	Send(req wire.Request) error
}

// Forward decodes the messages returned by recv into out until recv
// fails, then reports the failure and closes out. io.EOF is a clean
// close.
func Forward(ctx context.Context, recv func() (*structpb.Struct, error), out chan<- tea.Msg) {
	defer close(out)
	deliver := func(msg tea.Msg) bool {
		select {
		case out <- msg:
			return true
		case <-ctx.Done():
			return false
		}
	}
	for {
		s, err := recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = nil
			}
			deliver(closedMsg{err: err})
			return
		}
		var msg tea.Msg
		if wire.TypeOf(s) == wire.ReplyType {
			reply, err := wire.DecodeReply(s)
			if err != nil {
				continue
			}
			msg = replyMsg(reply)
		} else {
			ev, err := wire.Decode(s)
			if err != nil {
				// Event types newer than this client are skipped.
				continue
			}
			msg = eventMsg{ev: ev}
		}
		if !deliver(msg) {
			return
		}
	}
}

// CommandDispatcher turns user intents into requests for one table.
type CommandDispatcher struct {
	gameID   int64
	sender   Sender
	incoming <-chan tea.Msg
}

func NewCommandDispatcher(gameID int64, sender Sender, incoming <-chan tea.Msg) *CommandDispatcher {
	return &CommandDispatcher{gameID: gameID, sender: sender, incoming: incoming}
}

// listen waits for the next message from the server.
func (d *CommandDispatcher) listen() tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-d.incoming
		if !ok {
			return closedMsg{}
		}
		return msg
	}
}

func (d *CommandDispatcher) request(req wire.Request) tea.Cmd {
	if req.GameID == 0 && req.Type != wire.ReqTables {
		req.GameID = d.gameID
	}
	return func() tea.Msg {
		if err := d.sender.Send(req); err != nil {
			return errorMsg(err)
		}
		return nil
	}
}

func (d *CommandDispatcher) simple(t wire.RequestType) tea.Cmd {
	return d.request(wire.Request{Type: t})
}

func (d *CommandDispatcher) joinCmd() tea.Cmd    { return d.simple(wire.ReqJoin) }
func (d *CommandDispatcher) tablesCmd() tea.Cmd  { return d.simple(wire.ReqTables) }
func (d *CommandDispatcher) playersCmd() tea.Cmd { return d.simple(wire.ReqListPlayers) }

func (d *CommandDispatcher) seatCmd() tea.Cmd {
	return d.request(wire.Request{Type: wire.ReqSeat, Seat: -1})
}

func (d *CommandDispatcher) amountCmd(t wire.RequestType, amount int64) tea.Cmd {
	return d.request(wire.Request{Type: t, Amount: amount})
}

func (d *CommandDispatcher) toggleCmd(t wire.RequestType, on bool) tea.Cmd {
	return d.request(wire.Request{Type: t, On: on})
}

func (d *CommandDispatcher) refillCmd(target string) tea.Cmd {
	return d.request(wire.Request{Type: wire.ReqAutoRefill, Target: target})
}

func (d *CommandDispatcher) chatCmd(text string) tea.Cmd {
	return d.request(wire.Request{Type: wire.ReqChat, Message: text})
}
