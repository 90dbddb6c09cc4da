package replica

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vctt94/pokertable/pkg/game"
	"github.com/vctt94/pokertable/pkg/protocol"
)

func TestArriveLeaveChipsAreIdempotent(t *testing.T) {
	v := New(1)
	arrive := &protocol.PlayerArrive{GameID: 1, Serial: 7, Name: "seven", Seat: 2}
	chips := &protocol.PlayerChips{GameID: 1, Serial: 7, Money: 500}

	v.Apply(arrive)
	v.Apply(chips)
	v.Apply(arrive)
	v.Apply(chips)
	assert.Equal(t, map[game.Serial]int64{7: 500}, v.MoneyMap())

	leave := &protocol.PlayerLeave{GameID: 1, Serial: 7}
	v.Apply(leave)
	v.Apply(leave)
	assert.Empty(t, v.Serials())
}

func TestBetsMoveMoneyAndWinSettles(t *testing.T) {
	v := New(1)
	for _, s := range []game.Serial{1, 2} {
		v.Apply(&protocol.PlayerArrive{Serial: s, Seat: int(s)})
		v.Apply(&protocol.PlayerChips{Serial: s, Money: 1000})
	}
	v.Apply(&protocol.Start{HandSerial: 9})
	v.Apply(&protocol.Blind{Serial: 1, Amount: 10})
	v.Apply(&protocol.Blind{Serial: 2, Amount: 20, Dead: 5})
	v.Apply(&protocol.Call{Serial: 1, Amount: 10})
	v.Apply(&protocol.Canceled{Serial: 2, Amount: 5})

	assert.Equal(t, map[game.Serial]int64{1: 980, 2: 980}, v.MoneyMap())
	assert.EqualValues(t, 40, v.Pot)

	v.Apply(&protocol.Win{Serials: []game.Serial{2}, Money: map[game.Serial]int64{1: 980, 2: 1020}})
	assert.Equal(t, map[game.Serial]int64{1: 980, 2: 1020}, v.MoneyMap())
	assert.Zero(t, v.Pot)
}

func TestSnapshotRebuildsView(t *testing.T) {
	v := New(3)
	v.Apply(&protocol.PlayerArrive{GameID: 3, Serial: 4, Name: "four", Seat: 5, Sit: true})
	v.Apply(&protocol.PlayerChips{GameID: 3, Serial: 4, Money: 77})
	v.Apply(&protocol.PlayerArrive{GameID: 3, Serial: 2, Name: "two", Seat: 1})
	v.Apply(&protocol.PlayerChips{GameID: 3, Serial: 2, Money: 10})

	other := New(3)
	for _, ev := range v.Snapshot() {
		other.Apply(ev)
	}
	assert.Equal(t, v.MoneyMap(), other.MoneyMap())
	assert.Equal(t, v.Players(), other.Players())

	players := other.Players()
	require.Len(t, players, 2)
	assert.EqualValues(t, 2, players[0].Serial)
	assert.True(t, players[1].Sit)
}

func TestChipsForUnknownPlayerIgnored(t *testing.T) {
	v := New(1)
	v.Apply(&protocol.PlayerChips{Serial: 3, Money: 10})
	assert.False(t, v.Has(3))
}
