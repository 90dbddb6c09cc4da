package game

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

type envelope struct {
	Kind Kind            `cbor:"k"`
	Body cbor.RawMessage `cbor:"v"`
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	opts := cbor.CoreDetEncOptions()
	opts.Time = cbor.TimeRFC3339Nano
	var err error
	if encMode, err = opts.EncMode(); err != nil {
		panic(fmt.Sprintf("game: cbor enc mode: %v", err))
	}
	if decMode, err = (cbor.DecOptions{}).DecMode(); err != nil {
		panic(fmt.Sprintf("game: cbor dec mode: %v", err))
	}
}

type decoder func(raw []byte) (Entry, error)

func decodeAs[T Entry](raw []byte) (Entry, error) {
	var v T
	if err := decMode.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

var decoders = map[Kind]decoder{
	KindWaitFor:      decodeAs[WaitFor],
	KindPlayerList:   decodeAs[PlayerList],
	KindGame:         decodeAs[Game],
	KindRound:        decodeAs[Round],
	KindShowdown:     decodeAs[Showdown],
	KindPosition:     decodeAs[Position],
	KindBlindRequest: decodeAs[BlindRequest],
	KindWaitBlind:    decodeAs[WaitBlind],
	KindBlind:        decodeAs[Blind],
	KindAnteRequest:  decodeAs[AnteRequest],
	KindAnte:         decodeAs[Ante],
	KindAllIn:        decodeAs[AllIn],
	KindCall:         decodeAs[Call],
	KindCheck:        decodeAs[Check],
	KindFold:         decodeAs[Fold],
	KindRaise:        decodeAs[Raise],
	KindCanceled:     decodeAs[Canceled],
	KindRake:         decodeAs[Rake],
	KindEnd:          decodeAs[End],
	KindSitOut:       decodeAs[SitOut],
	KindSit:          decodeAs[Sit],
	KindLeave:        decodeAs[Leave],
	KindFinish:       decodeAs[Finish],
	KindMuck:         decodeAs[Muck],
	KindRebuy:        decodeAs[Rebuy],
}

// Marshal encodes a hand history as CBOR.
func Marshal(hist []Entry) ([]byte, error) {
	envs := make([]envelope, 0, len(hist))
	for i, e := range hist {
		body, err := encMode.Marshal(e)
		if err != nil {
			return nil, fmt.Errorf("encode entry %d (%s): %w", i, e.Kind(), err)
		}
		envs = append(envs, envelope{Kind: e.Kind(), Body: body})
	}
	return encMode.Marshal(envs)
}

// Unmarshal decodes a hand history produced by Marshal.
func Unmarshal(data []byte) ([]Entry, error) {
	var envs []envelope
	if err := decMode.Unmarshal(data, &envs); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	hist := make([]Entry, 0, len(envs))
	for i, env := range envs {
		dec, ok := decoders[env.Kind]
		if !ok {
			return nil, fmt.Errorf("decode entry %d: unknown kind %q", i, env.Kind)
		}
		e, err := dec(env.Body)
		if err != nil {
			return nil, fmt.Errorf("decode entry %d (%s): %w", i, env.Kind, err)
		}
		hist = append(hist, e)
	}
	return hist, nil
}
