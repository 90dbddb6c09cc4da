// Package ui is a terminal client for one table. It rebuilds the table
// from the events the server sends into a replica view and renders it
// with bubbletea.
package ui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vctt94/pokertable/pkg/protocol"
	"github.com/vctt94/pokertable/pkg/replica"
	"github.com/vctt94/pokertable/pkg/wire"
)

// screenState is the mode of the keyboard.
type screenState int

const (
	stateTable screenState = iota
	stateAmountInput
	stateChatInput
)

// maxChatLines is the chat history kept on screen.
const maxChatLines = 5

// PokerUI holds the state of the client.
type PokerUI struct {
	name   string
	gameID int64
	view   *replica.View
	tables []protocol.Table
	// players is the last LIST_PLAYERS answer.
	players []wire.PlayerInfo

	state screenState
	// pending is the request the amount being typed is for.
	pending wire.RequestType
	input   string

	message string
	err     error
	closed  bool
	width   int

	dispatcher *CommandDispatcher
	inputs     *InputHandler
	renderer   *Renderer
}

// New creates the client of player name at table gameID. Requests go
// through sender; incoming carries what Forward decoded.
func New(name string, gameID int64, sender Sender, incoming <-chan tea.Msg) *PokerUI {
	ui := &PokerUI{
		name:       name,
		gameID:     gameID,
		view:       replica.New(gameID),
		dispatcher: NewCommandDispatcher(gameID, sender, incoming),
	}
	ui.inputs = &InputHandler{ui: ui}
	ui.renderer = &Renderer{ui: ui}
	return ui
}

func (ui *PokerUI) Init() tea.Cmd {
	return tea.Batch(ui.dispatcher.listen(), ui.dispatcher.joinCmd(), ui.dispatcher.tablesCmd())
}

func (ui *PokerUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return ui, ui.inputs.HandleKeyMsg(msg)

	case tea.WindowSizeMsg:
		ui.width = msg.Width
		return ui, nil

	case eventMsg:
		ui.view.Apply(msg.ev)
		switch ev := msg.ev.(type) {
		case *protocol.Error:
			ui.message = fmt.Sprintf("%s refused: %s", ev.OtherType, ev.Message)
		case *protocol.TableDestroy:
			ui.message = ev.Message
		case *protocol.Message:
			ui.message = ev.Message
		}
		return ui, ui.dispatcher.listen()

	case replyMsg:
		ui.handleReply(wire.Reply(msg))
		return ui, ui.dispatcher.listen()

	case closedMsg:
		ui.closed = true
		ui.err = msg.err
		return ui, nil

	case errorMsg:
		ui.err = msg
		return ui, nil
	}
	return ui, nil
}

func (ui *PokerUI) handleReply(r wire.Reply) {
	if r.Code != "" {
		ui.err = fmt.Errorf("%s: %s (%s)", r.Request, r.Error, r.Code)
		return
	}
	ui.err = nil
	switch r.Request {
	case wire.ReqTables:
		ui.tables = r.Tables
	case wire.ReqListPlayers:
		ui.players = r.Players
	case wire.ReqBuyIn, wire.ReqRebuy:
		ui.message = fmt.Sprintf("%s granted %d", r.Request, r.Amount)
	}
}

// me returns the seat of the player running the client.
func (ui *PokerUI) me() (replica.Player, bool) {
	for _, p := range ui.view.Players() {
		if p.Name == ui.name {
			return p, true
		}
	}
	return replica.Player{}, false
}

func (ui *PokerUI) View() string {
	return ui.renderer.Render()
}

// Run shows ui until the user quits or ctx ends.
func Run(ctx context.Context, ui *PokerUI) error {
	p := tea.NewProgram(ui, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
