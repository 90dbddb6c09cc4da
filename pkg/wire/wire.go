// Package wire converts protocol events and client requests to and from
// protobuf Struct messages, the payload of both the gRPC service and the
// websocket gateway. Every message carries its kind in the "type" field.
package wire

import (
	"encoding/json"
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/vctt94/pokertable/pkg/protocol"
)

const typeField = "type"

var ErrUnknownType = errors.New("unknown message type")

// toStruct renders v through its JSON form.
func toStruct(v any, kind string) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	s := &structpb.Struct{}
	if err := protojson.Unmarshal(raw, s); err != nil {
		return nil, err
	}
	if s.Fields == nil {
		s.Fields = make(map[string]*structpb.Value)
	}
	s.Fields[typeField] = structpb.NewStringValue(kind)
	return s, nil
}

func fromStruct(s *structpb.Struct, v any) error {
	raw, err := protojson.Marshal(s)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

// TypeOf returns the type field of a message.
func TypeOf(s *structpb.Struct) string {
	return s.GetFields()[typeField].GetStringValue()
}

// Encode converts an outbound event.
func Encode(ev protocol.Event) (*structpb.Struct, error) {
	s, err := toStruct(ev, string(ev.Type()))
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", ev.Type(), err)
	}
	return s, nil
}

// Decode converts a message produced by Encode back into its event.
func Decode(s *structpb.Struct) (protocol.Event, error) {
	t := TypeOf(s)
	ev, ok := protocol.New(protocol.Type(t))
	if !ok {
		return nil, fmt.Errorf("event %q: %w", t, ErrUnknownType)
	}
	if err := fromStruct(s, ev); err != nil {
		return nil, fmt.Errorf("decode %s: %w", t, err)
	}
	return ev, nil
}

// MarshalEvent encodes an event as a JSON text frame.
func MarshalEvent(ev protocol.Event) ([]byte, error) {
	s, err := Encode(ev)
	if err != nil {
		return nil, err
	}
	return protojson.Marshal(s)
}

// UnmarshalEvent decodes a frame written by MarshalEvent.
func UnmarshalEvent(data []byte) (protocol.Event, error) {
	s := &structpb.Struct{}
	if err := protojson.Unmarshal(data, s); err != nil {
		return nil, err
	}
	return Decode(s)
}
