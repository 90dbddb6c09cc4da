package holdem

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vctt94/pokertable/pkg/game"
)

func TestReturnUncalled(t *testing.T) {
	pm := newPotManager()
	pm.add(1, 100)
	pm.add(2, 40)
	owner, amount := pm.returnUncalled()
	require.Equal(t, game.Serial(1), owner)
	require.Equal(t, int64(60), amount)
	require.Equal(t, int64(80), pm.sum())

	owner, amount = pm.returnUncalled()
	require.Zero(t, owner)
	require.Zero(t, amount)
}

func TestBuildSidePots(t *testing.T) {
	pm := newPotManager()
	pm.add(1, 100)
	pm.add(2, 50)
	pm.add(3, 100)
	pm.add(4, 20) // folded

	pots := pm.build([]game.Serial{1, 2, 3})
	require.Equal(t, []Pot{
		{Amount: 170, Eligible: []game.Serial{1, 2, 3}},
		{Amount: 100, Eligible: []game.Serial{1, 3}},
	}, pots)

	// Folded chips above every live contribution join the last pot.
	pm = newPotManager()
	pm.add(1, 30)
	pm.add(2, 30)
	pm.add(3, 80)
	pots = pm.build([]game.Serial{1, 2})
	require.Equal(t, []Pot{{Amount: 140, Eligible: []game.Serial{1, 2}}}, pots)
}

func TestDistribute(t *testing.T) {
	pots := []Pot{
		{Amount: 150, Eligible: []game.Serial{1, 2, 3}},
		{Amount: 100, Eligible: []game.Serial{1, 3}},
	}
	values := map[game.Serial]HandValue{
		1: {Score: 200},
		2: {Score: 100},
		3: {Score: 300},
	}
	shares := distribute(pots, values, []game.Serial{2, 3, 1})
	require.Equal(t, map[game.Serial]int64{2: 150, 1: 100}, shares)
}

func TestDistributeOddChip(t *testing.T) {
	pots := []Pot{{Amount: 15, Eligible: []game.Serial{1, 2}}}
	values := map[game.Serial]HandValue{1: {Score: 50}, 2: {Score: 50}}
	shares := distribute(pots, values, []game.Serial{2, 1})
	require.Equal(t, map[game.Serial]int64{2: 8, 1: 7}, shares)
}

func TestDistributeUncontested(t *testing.T) {
	pots := []Pot{{Amount: 40, Eligible: []game.Serial{3}}}
	shares := distribute(pots, nil, []game.Serial{1, 3})
	require.Equal(t, map[game.Serial]int64{3: 40}, shares)
}
