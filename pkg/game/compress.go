package game

// Compress returns a copy of hist suitable for storage: every round
// whose board equals the board of the round before it in the same hand
// is marked Unchanged and loses its board.
func Compress(hist []Entry) []Entry {
	out := make([]Entry, len(hist))
	var prev []Card
	seen := false
	for i, e := range hist {
		switch v := e.(type) {
		case Game:
			prev, seen = nil, false
		case Round:
			if v.Unchanged {
				break
			}
			if seen && SameBoard(prev, v.Board) {
				out[i] = Round{Name: v.Name, Pockets: v.Pockets, Unchanged: true}
				continue
			}
			prev, seen = v.Board, true
		}
		out[i] = e
	}
	return out
}

// HandSerial returns the serial of the first Game entry in hist.
func HandSerial(hist []Entry) (int64, bool) {
	for _, e := range hist {
		if g, ok := e.(Game); ok {
			return g.HandSerial, true
		}
	}
	return 0, false
}
