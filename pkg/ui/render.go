package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vctt94/pokertable/pkg/game"
	"github.com/vctt94/pokertable/pkg/replica"
	"github.com/vctt94/pokertable/pkg/wire"
)

const help = "f fold  c check  a call  r raise  s seat  b buy in  B rebuy  t sit/out  " +
	"o/O auto blinds  m/M muck  g/G refill  p players  T tables  l leave  enter chat  q quit"

// Renderer draws the model.
type Renderer struct {
	ui *PokerUI
}

// Render draws the whole screen.
func (r *Renderer) Render() string {
	var b strings.Builder
	b.WriteString(r.renderHeader() + "\n")
	if r.ui.view.Destroyed {
		b.WriteString(ErrorStyle.Render("The table is closed.") + "\n")
	}

	table := lipgloss.JoinVertical(lipgloss.Center,
		r.renderBoard(),
		r.renderPlayers(),
	)
	b.WriteString(tableStyle.Render(table) + "\n")

	if s := r.renderChat(); s != "" {
		b.WriteString(s + "\n")
	}
	if s := r.renderPlayerList(); s != "" {
		b.WriteString(s + "\n")
	}
	if s := r.renderTables(); s != "" {
		b.WriteString(s + "\n")
	}

	switch r.ui.state {
	case stateAmountInput:
		b.WriteString(focusedStyle.Render(fmt.Sprintf("%s amount: %s_", r.ui.pending, r.ui.input)) + "\n")
	case stateChatInput:
		b.WriteString(focusedStyle.Render("say: "+r.ui.input+"_") + "\n")
	}
	if r.ui.message != "" {
		b.WriteString(gameInfoStyle.Render(r.ui.message) + "\n")
	}
	if r.ui.err != nil {
		b.WriteString(ErrorStyle.Render("Error: "+r.ui.err.Error()) + "\n")
	}
	if r.ui.closed {
		b.WriteString(ErrorStyle.Render("Disconnected from the server.") + "\n")
	}
	b.WriteString(HelpStyle.Render(help))
	return b.String()
}

func (r *Renderer) renderHeader() string {
	v := r.ui.view
	name := v.Table.Name
	if name == "" {
		name = fmt.Sprintf("Table %d", r.ui.gameID)
	}
	title := TitleStyle.Render(name)
	info := []string{fmt.Sprintf("player %s", r.ui.name)}
	if v.Table.BettingStructure != "" {
		info = append(info, v.Table.BettingStructure)
	}
	if v.HandSerial != 0 {
		info = append(info, fmt.Sprintf("hand #%d", v.HandSerial))
	}
	if v.State != "" {
		info = append(info, v.State)
	}
	info = append(info, fmt.Sprintf("%d observing", v.Table.Observers))
	return title + "  " + blurredStyle.Render(strings.Join(info, " | "))
}

func (r *Renderer) renderBoard() string {
	v := r.ui.view
	cards := make([]string, 0, 5)
	for _, c := range v.Board {
		cards = append(cards, formatCard(c))
	}
	for len(cards) < 5 {
		cards = append(cards, formatCard(game.CardHidden))
	}
	pot := potStyle.Render(fmt.Sprintf("Pot %d", v.Pot))
	return lipgloss.JoinVertical(lipgloss.Center, lipgloss.JoinHorizontal(lipgloss.Top, cards...), pot)
}

func (r *Renderer) renderPlayers() string {
	v := r.ui.view
	players := v.Players()
	if len(players) == 0 {
		return blurredStyle.Render("Nobody is seated.")
	}
	boxes := make([]string, 0, len(players))
	for _, p := range players {
		boxes = append(boxes, r.formatPlayer(p))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, boxes...)
}

func (r *Renderer) formatPlayer(p replica.Player) string {
	v := r.ui.view
	lines := []string{
		fmt.Sprintf("%d. %s", p.Seat, p.Name),
		fmt.Sprintf("stack %d", p.Money),
	}
	if p.Bet > 0 {
		lines = append(lines, fmt.Sprintf("bet %d", p.Bet))
	}
	if len(p.Cards) > 0 {
		cards := make([]string, 0, len(p.Cards))
		for _, c := range p.Cards {
			cards = append(cards, string(c))
		}
		lines = append(lines, strings.Join(cards, " "))
	}
	var tags []string
	if v.Dealer == p.Seat && v.HandSerial != 0 {
		tags = append(tags, "D")
	}
	if !p.Sit {
		tags = append(tags, "out")
	}
	for _, serial := range v.Muckable {
		if serial == p.Serial {
			tags = append(tags, "muck?")
		}
	}
	if len(tags) > 0 {
		lines = append(lines, "["+strings.Join(tags, " ")+"]")
	}

	style := playerBoxStyle
	switch {
	case p.Serial == v.Position && v.HandSerial != 0:
		style = currentPlayerStyle
	case p.Name == r.ui.name:
		style = yourPlayerStyle
	case !p.Sit:
		style = sittingOutStyle
	}
	return style.Render(strings.Join(lines, "\n"))
}

func (r *Renderer) renderChat() string {
	chat := r.ui.view.Chat
	if len(chat) == 0 {
		return ""
	}
	if len(chat) > maxChatLines {
		chat = chat[len(chat)-maxChatLines:]
	}
	lines := make([]string, 0, len(chat))
	for _, c := range chat {
		who := fmt.Sprintf("#%d", c.Serial)
		if p, ok := r.ui.view.Player(c.Serial); ok {
			who = p.Name
		}
		lines = append(lines, fmt.Sprintf("%s: %s", who, c.Message))
	}
	return gameInfoStyle.Render(strings.Join(lines, "\n"))
}

func (r *Renderer) renderPlayerList() string {
	if len(r.ui.players) == 0 {
		return ""
	}
	lines := []string{"Players:"}
	for _, p := range r.ui.players {
		lines = append(lines, fmt.Sprintf("  %-12s %6d %s", p.Name, p.Money, sitLabel(p)))
	}
	return blurredStyle.Render(strings.Join(lines, "\n"))
}

func sitLabel(p wire.PlayerInfo) string {
	if p.Sit {
		return "playing"
	}
	return "sitting out"
}

func (r *Renderer) renderTables() string {
	if len(r.ui.tables) < 2 {
		return ""
	}
	lines := []string{"Tables:"}
	for _, t := range r.ui.tables {
		line := fmt.Sprintf("  %d %-12s %s %d/%d", t.ID, t.Name, t.BettingStructure, t.Players, t.Seats)
		if t.ID == r.ui.gameID {
			lines = append(lines, focusedStyle.Render("▶"+line[1:]))
			continue
		}
		lines = append(lines, blurredStyle.Render(line))
	}
	return strings.Join(lines, "\n")
}

// formatCard draws a card such as "Ah" with its suit symbol.
func formatCard(c game.Card) string {
	if c == game.CardHidden || len(c) != 2 {
		return hiddenCardStyle.Render("??")
	}
	rank, suit := string(c[0]), string(c[1])
	if rank == "T" {
		rank = "10"
	}
	text := rank + suitSymbol(suit)
	if suit == "h" || suit == "d" {
		return redCardStyle.Render(text)
	}
	return cardStyle.Render(text)
}

func suitSymbol(suit string) string {
	switch suit {
	case "h":
		return "♥"
	case "d":
		return "♦"
	case "c":
		return "♣"
	case "s":
		return "♠"
	}
	return suit
}
