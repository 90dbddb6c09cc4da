package wire

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/vctt94/pokertable/pkg/protocol"
)

// RequestType names a client request.
type RequestType string

const (
	ReqJoin          RequestType = "JOIN"
	ReqLeave         RequestType = "LEAVE"
	ReqQuit          RequestType = "QUIT"
	ReqSeat          RequestType = "SEAT"
	ReqBuyIn         RequestType = "BUY_IN"
	ReqRebuy         RequestType = "REBUY"
	ReqSit           RequestType = "SIT"
	ReqSitOut        RequestType = "SIT_OUT"
	ReqAutoBlindAnte RequestType = "AUTO_BLIND_ANTE"
	ReqAutoRebuy     RequestType = "AUTO_REBUY"
	ReqAutoRefill    RequestType = "AUTO_REFILL"
	ReqFold          RequestType = "FOLD"
	ReqCheck         RequestType = "CHECK"
	ReqCall          RequestType = "CALL"
	ReqRaise         RequestType = "RAISE"
	ReqBlind         RequestType = "BLIND"
	ReqMuckAccept    RequestType = "MUCK_ACCEPT"
	ReqMuckDeny      RequestType = "MUCK_DENY"
	ReqChat          RequestType = "CHAT"
	ReqHandReplay    RequestType = "HAND_REPLAY"
	ReqMove          RequestType = "MOVE"
	ReqListPlayers   RequestType = "LIST_PLAYERS"
	ReqTables        RequestType = "TABLES"
)

var requestTypes = map[RequestType]bool{
	ReqJoin: true, ReqLeave: true, ReqQuit: true, ReqSeat: true,
	ReqBuyIn: true, ReqRebuy: true, ReqSit: true, ReqSitOut: true,
	ReqAutoBlindAnte: true, ReqAutoRebuy: true, ReqAutoRefill: true,
	ReqFold: true, ReqCheck: true, ReqCall: true, ReqRaise: true, ReqBlind: true,
	ReqMuckAccept: true, ReqMuckDeny: true, ReqChat: true,
	ReqHandReplay: true, ReqMove: true, ReqListPlayers: true, ReqTables: true,
}

// Request is a client message addressed to a table. Which fields are
// meaningful depends on Type.
type Request struct {
	Type   RequestType `json:"type"`
	GameID int64       `json:"game_id"`
	// Seat is the wanted seat of SEAT, -1 for any.
	Seat   int   `json:"seat"`
	Amount int64 `json:"amount,omitempty"`
	// Target is the stack of AUTO_REBUY and AUTO_REFILL: off, min, best
	// or max.
	Target     string `json:"target,omitempty"`
	On         bool   `json:"on,omitempty"`
	Message    string `json:"message,omitempty"`
	HandSerial int64  `json:"hand_serial,omitempty"`
	ToGameID   int64  `json:"to_game_id,omitempty"`
}

func EncodeRequest(r Request) (*structpb.Struct, error) {
	return toStruct(r, string(r.Type))
}

func DecodeRequest(s *structpb.Struct) (Request, error) {
	var r Request
	if err := fromStruct(s, &r); err != nil {
		return Request{}, fmt.Errorf("decode request: %w", err)
	}
	if !requestTypes[r.Type] {
		return Request{}, fmt.Errorf("request %q: %w", r.Type, ErrUnknownType)
	}
	return r, nil
}

// UnmarshalRequest decodes a JSON text frame.
func UnmarshalRequest(data []byte) (Request, error) {
	s := &structpb.Struct{}
	if err := protojson.Unmarshal(data, s); err != nil {
		return Request{}, err
	}
	return DecodeRequest(s)
}

// MarshalRequest encodes r as a JSON text frame.
func MarshalRequest(r Request) ([]byte, error) {
	s, err := EncodeRequest(r)
	if err != nil {
		return nil, err
	}
	return protojson.Marshal(s)
}

// ReplyType is the type field of replies.
const ReplyType = "REPLY"

// PlayerInfo is one line of a LIST_PLAYERS reply.
type PlayerInfo struct {
	Serial uint32 `json:"serial"`
	Name   string `json:"name"`
	Money  int64  `json:"money"`
	Sit    bool   `json:"sit"`
}

// Reply answers one request. Code and Error are set when the request
// failed.
type Reply struct {
	Request RequestType      `json:"request"`
	GameID  int64            `json:"game_id"`
	Code    string           `json:"code,omitempty"`
	Error   string           `json:"error,omitempty"`
	Amount  int64            `json:"amount,omitempty"`
	Players []PlayerInfo     `json:"players,omitempty"`
	Tables  []protocol.Table `json:"tables,omitempty"`
}

func EncodeReply(r Reply) (*structpb.Struct, error) {
	return toStruct(r, ReplyType)
}

func DecodeReply(s *structpb.Struct) (Reply, error) {
	if kind := TypeOf(s); kind != ReplyType {
		return Reply{}, fmt.Errorf("reply %q: %w", kind, ErrUnknownType)
	}
	var r Reply
	if err := fromStruct(s, &r); err != nil {
		return Reply{}, fmt.Errorf("decode reply: %w", err)
	}
	return r, nil
}
