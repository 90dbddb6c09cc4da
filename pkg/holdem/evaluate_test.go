package holdem

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name   string
		pocket []string
		board  []string
		rank   HandRank
	}{
		{"royal flush", []string{"Ah", "Kh"}, []string{"Qh", "Jh", "Th", "2c", "3d"}, StraightFlush},
		{"quads", []string{"9s", "9h"}, []string{"9d", "9c", "2h", "5s", "Kd"}, FourOfAKind},
		{"full house", []string{"Ks", "Kh"}, []string{"Kd", "4c", "4h", "8s", "2d"}, FullHouse},
		{"flush", []string{"2s", "9s"}, []string{"Js", "4s", "Ks", "8h", "2d"}, Flush},
		{"wheel", []string{"As", "2h"}, []string{"3d", "4c", "5h", "Ks", "Kd"}, Straight},
		{"trips", []string{"7s", "7h"}, []string{"7d", "Ac", "2h", "9s", "Jd"}, ThreeOfAKind},
		{"two pair", []string{"Js", "Jh"}, []string{"3d", "3c", "Ah", "9s", "5d"}, TwoPair},
		{"pair", []string{"Ad", "Ac"}, []string{"3s", "8h", "9c", "Js", "4d"}, Pair},
		{"high card", []string{"2c", "7d"}, []string{"3s", "8h", "9c", "Js", "4d"}, HighCard},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			hv := Evaluate(cards(tc.pocket...), cards(tc.board...))
			require.Equal(t, tc.rank, hv.Rank)
			require.NotEmpty(t, hv.Description)
		})
	}
}

func TestCompare(t *testing.T) {
	board := cards("3s", "8h", "9c", "Js", "4d")
	aces := Evaluate(cards("Ah", "Ad"), board)
	kings := Evaluate(cards("Kh", "Kd"), board)
	otherKings := Evaluate(cards("Ks", "Kc"), board)

	require.Equal(t, 1, Compare(aces, kings))
	require.Equal(t, -1, Compare(kings, aces))
	require.Equal(t, 0, Compare(kings, otherKings))
	require.Equal(t, "Pair", aces.Rank.String())
	require.Equal(t, "Straight Flush", StraightFlush.String())
}
