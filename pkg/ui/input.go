package ui

import (
	"strconv"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vctt94/pokertable/pkg/wire"
)

// InputHandler maps keys to requests.
type InputHandler struct {
	ui *PokerUI
}

// HandleKeyMsg processes keyboard input based on current state
func (ih *InputHandler) HandleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	switch ih.ui.state {
	case stateAmountInput:
		return ih.handleAmountInput(msg)
	case stateChatInput:
		return ih.handleChatInput(msg)
	}
	return ih.handleTableInput(msg)
}

func (ih *InputHandler) prompt(t wire.RequestType) {
	ih.ui.state = stateAmountInput
	ih.ui.pending = t
	ih.ui.input = ""
}

func (ih *InputHandler) handleTableInput(msg tea.KeyMsg) tea.Cmd {
	d := ih.ui.dispatcher
	ih.ui.message = ""
	switch msg.String() {
	case "ctrl+c", "q":
		return tea.Quit
	case "f":
		return d.simple(wire.ReqFold)
	case "c":
		return d.simple(wire.ReqCheck)
	case "a":
		return d.simple(wire.ReqCall)
	case "r":
		ih.prompt(wire.ReqRaise)
	case "b":
		ih.prompt(wire.ReqBuyIn)
	case "B":
		ih.prompt(wire.ReqRebuy)
	case "s":
		return d.seatCmd()
	case "t":
		me, ok := ih.ui.me()
		if ok && me.Sit {
			return d.simple(wire.ReqSitOut)
		}
		return d.simple(wire.ReqSit)
	case "o":
		return d.toggleCmd(wire.ReqAutoBlindAnte, true)
	case "O":
		return d.toggleCmd(wire.ReqAutoBlindAnte, false)
	case "m":
		return d.simple(wire.ReqMuckAccept)
	case "M":
		return d.simple(wire.ReqMuckDeny)
	case "g":
		return d.refillCmd("best")
	case "G":
		return d.refillCmd("off")
	case "l":
		return d.simple(wire.ReqLeave)
	case "p":
		return d.playersCmd()
	case "T":
		return d.tablesCmd()
	case "enter":
		ih.ui.state = stateChatInput
		ih.ui.input = ""
	}
	return nil
}

func (ih *InputHandler) handleAmountInput(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		ih.ui.state = stateTable
		ih.ui.input = ""
		return nil
	case tea.KeyBackspace:
		if n := len(ih.ui.input); n > 0 {
			ih.ui.input = ih.ui.input[:n-1]
		}
		return nil
	case tea.KeyEnter:
		ih.ui.state = stateTable
		amount, err := strconv.ParseInt(ih.ui.input, 10, 64)
		ih.ui.input = ""
		if err != nil || amount < 0 {
			ih.ui.message = "Invalid amount"
			return nil
		}
		return ih.ui.dispatcher.amountCmd(ih.ui.pending, amount)
	case tea.KeyRunes:
		for _, r := range msg.Runes {
			if r >= '0' && r <= '9' {
				ih.ui.input += string(r)
			}
		}
	}
	return nil
}

func (ih *InputHandler) handleChatInput(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		ih.ui.state = stateTable
		ih.ui.input = ""
	case tea.KeyBackspace:
		if r := []rune(ih.ui.input); len(r) > 0 {
			ih.ui.input = string(r[:len(r)-1])
		}
	case tea.KeyEnter:
		text := ih.ui.input
		ih.ui.state = stateTable
		ih.ui.input = ""
		if text != "" {
			return ih.ui.dispatcher.chatCmd(text)
		}
	case tea.KeySpace:
		ih.ui.input += " "
	case tea.KeyRunes:
		ih.ui.input += string(msg.Runes)
	}
	return nil
}
