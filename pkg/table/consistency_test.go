package table

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vctt94/pokertable/pkg/game"
	"github.com/vctt94/pokertable/pkg/replica"
)

// requireReplicaMatchesEngine checks that a client view agrees with the
// engine on who sits where, sitting state and stacks.
func requireReplicaMatchesEngine(t *testing.T, eng *fakeEngine, view *replica.View, who string) {
	t.Helper()
	require.Equal(t, eng.Serials(), view.Serials(), "%s: seated serials", who)
	for _, serial := range eng.Serials() {
		p, _ := view.Player(serial)
		seat, _ := eng.SeatOf(serial)
		assert.Equal(t, seat, p.Seat, "%s: seat of %d", who, serial)
		assert.Equal(t, eng.IsSit(serial), p.Sit, "%s: sit of %d", who, serial)
		assert.Equal(t, eng.Money(serial), p.Money, "%s: money of %d", who, serial)
	}
}

func TestReplicasFollowEngineUnderChurn(t *testing.T) {
	h := newHarness(t, nil)
	a1 := h.seated(1)
	a2 := h.seated(2)
	a3 := h.seated(3)
	early := newAvatar(9)
	require.NoError(t, h.tbl.Join(early))

	check := func(step string, avatars ...*recordingAvatar) {
		t.Helper()
		requireReplicaMatchesEngine(t, h.eng, h.tbl.Announced(), step+"/announced")
		for _, a := range avatars {
			requireReplicaMatchesEngine(t, h.eng, a.view, step)
		}
	}
	check("seated", a1, a2, a3, early)

	h.clk.Advance(3 * time.Second)
	require.True(t, h.eng.IsRunning())
	require.Equal(t, game.Serial(1), h.eng.inPosition)

	require.NoError(t, h.tbl.Act(a1, game.ActionRaise, 40))
	h.eng.inPosition = 2
	require.NoError(t, h.tbl.Act(a2, game.ActionCall, 40))
	check("betting", a1, a2, a3, early)

	late := newAvatar(10)
	require.NoError(t, h.tbl.Join(late))
	check("late join", late)

	h.eng.inPosition = 3
	require.NoError(t, h.tbl.Act(a3, game.ActionFold, 0))
	_, err := h.tbl.Rebuy(3, 300)
	require.NoError(t, err)
	require.NoError(t, h.tbl.Leave(a2))
	require.NoError(t, h.tbl.SitOut(a3))
	check("mid-hand churn", a1, a2, a3, early, late)

	newcomer := newAvatar(4)
	require.NoError(t, h.tbl.Join(newcomer))
	require.NoError(t, h.tbl.Seat(newcomer, -1))
	_, err = h.tbl.BuyIn(newcomer, 200)
	require.NoError(t, err)
	check("seat mid-hand", a1, a2, a3, early, late, newcomer)

	h.eng.finishHand(1, 1, 80)
	h.update()
	check("hand over", a1, a2, a3, early, late, newcomer)
	assert.EqualValues(t, 800, h.eng.Money(3))
	assert.False(t, h.tbl.isSeated(2))

	assert.True(t, h.tbl.Disconnect(early))
	h.tbl.Kick(4)
	require.NoError(t, h.tbl.Sit(a3))
	check("after kick", a1, a2, a3, late, newcomer)

	reconnect := newAvatar(3)
	require.NoError(t, h.tbl.Join(reconnect))
	check("reconnect", reconnect)
}
