package table

import (
	"errors"
	"fmt"

	"github.com/vctt94/pokertable/pkg/game"
	"github.com/vctt94/pokertable/pkg/protocol"
)

// HandReplay sends the stored hand handSerial to a alone. Every pocket
// is revealed, so all requesters receive the same events.
func (t *Table) HandReplay(a Avatar, handSerial int64) error {
	hist, err := t.svc.LoadHand(handSerial)
	if errors.Is(err, ErrHandNotFound) || (err == nil && len(hist) == 0) {
		t.log.Debugf("Hand %d requested by %d not found", handSerial, a.Serial())
		return ErrHandNotFound
	}
	if err != nil {
		return fmt.Errorf("load hand %d: %w", handSerial, err)
	}

	events, err := t.replayEvents(hist)
	if err != nil {
		return fmt.Errorf("replay hand %d: %w", handSerial, err)
	}
	for _, ev := range events {
		a.Send(ev)
	}
	return nil
}

func (t *Table) replayEvents(hist []game.Entry) ([]protocol.Event, error) {
	tr := Translation{GameID: t.cfg.ID, Reveal: true}
	var events []protocol.Event
	for i, e := range hist {
		translated, err := t.translator.Translate(&tr, e)
		if err != nil {
			return nil, fmt.Errorf("entry %d (%s): %w", i, e.Kind(), err)
		}
		events = append(events, translated...)

		g, ok := e.(game.Game)
		if !ok {
			continue
		}
		for i, serial := range g.Players {
			seat, ok := g.Seats[serial]
			if !ok {
				// Hands saved without seats replay in dealing order.
				seat = i
			}
			events = append(events,
				&protocol.PlayerArrive{
					GameID: t.cfg.ID,
					Serial: serial,
					Name:   t.svc.PlayerName(serial),
					Seat:   seat,
					Reason: "replay",
				},
				&protocol.PlayerChips{GameID: t.cfg.ID, Serial: serial, Money: g.Chips[serial]},
			)
		}
	}
	return events, nil
}
