package server

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/vctt94/pokertable/pkg/protocol"
	"github.com/vctt94/pokertable/pkg/rpc/tablerpc"
	"github.com/vctt94/pokertable/pkg/wire"
)

func dialBufnet(t *testing.T, h *harness) tablerpc.TableServiceClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	gs := grpc.NewServer()
	tablerpc.RegisterTableServiceServer(gs, h.srv)
	go gs.Serve(lis)
	t.Cleanup(gs.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return tablerpc.NewTableServiceClient(conn)
}

// untilReply collects events from recv until a reply arrives.
func untilReply(t *testing.T, recv func() (*structpb.Struct, error)) ([]protocol.Event, wire.Reply) {
	t.Helper()
	var events []protocol.Event
	for {
		msg, err := recv()
		require.NoError(t, err)
		if wire.TypeOf(msg) == wire.ReplyType {
			reply, err := wire.DecodeReply(msg)
			require.NoError(t, err)
			return events, reply
		}
		ev, err := wire.Decode(msg)
		require.NoError(t, err)
		events = append(events, ev)
	}
}

func TestGRPCPlay(t *testing.T) {
	h := newHarness(t, holdemTable)
	client := dialBufnet(t, h)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	msg, err := client.ListTables(ctx, &structpb.Struct{})
	require.NoError(t, err)
	listed, err := wire.DecodeReply(msg)
	require.NoError(t, err)
	require.Len(t, listed.Tables, 1)
	require.EqualValues(t, holdemTable.ID, listed.Tables[0].ID)

	anonymous, err := client.Play(ctx)
	require.NoError(t, err)
	_, err = anonymous.Recv()
	require.Equal(t, codes.Unauthenticated, status.Code(err))

	stream, err := client.Play(metadata.AppendToOutgoingContext(ctx, tablerpc.PlayerMetadataKey, "alice"))
	require.NoError(t, err)
	send := func(req wire.Request) {
		msg, err := wire.EncodeRequest(req)
		require.NoError(t, err)
		require.NoError(t, stream.Send(msg))
	}

	send(wire.Request{Type: wire.ReqJoin, GameID: holdemTable.ID})
	events, reply := untilReply(t, stream.Recv)
	require.Empty(t, reply.Code)
	require.Equal(t, wire.ReqJoin, reply.Request)
	require.NotEmpty(t, events)
	summary, ok := events[0].(*protocol.Table)
	require.True(t, ok, "join starts with %T", events[0])
	require.Equal(t, "join", summary.Reason)

	send(wire.Request{Type: wire.ReqSeat, GameID: 99, Seat: -1})
	_, reply = untilReply(t, stream.Recv)
	require.Equal(t, string(protocol.CodeNotFound), reply.Code)

	// An unknown request is refused without ending the stream.
	unknown, err := structpb.NewStruct(map[string]any{"type": "DANCE"})
	require.NoError(t, err)
	require.NoError(t, stream.Send(unknown))
	_, reply = untilReply(t, stream.Recv)
	require.Equal(t, string(protocol.CodeRefused), reply.Code)

	send(wire.Request{Type: wire.ReqSeat, GameID: holdemTable.ID, Seat: -1})
	_, reply = untilReply(t, stream.Recv)
	require.Empty(t, reply.Code)

	require.NoError(t, stream.CloseSend())
	for {
		if _, err = stream.Recv(); err != nil {
			break
		}
	}
	require.ErrorIs(t, err, io.EOF)

	// Closing the stream stood alice up.
	alice, _, err := h.store.RegisterPlayer(ctx, "alice")
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		seated := true
		err := h.srv.Do(ctx, func() error {
			_, seated = h.engines[holdemTable.ID].SeatOf(alice)
			return nil
		})
		return err == nil && !seated
	}, time.Second, 10*time.Millisecond)
}

func TestWebsocketGateway(t *testing.T) {
	h := newHarness(t, holdemTable)
	hs := httptest.NewServer(h.srv.Gateway())
	defer hs.Close()
	url := "ws" + strings.TrimPrefix(hs.URL, "http")

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(url+"?player=alice", nil)
	require.NoError(t, err)
	defer conn.Close()

	recv := func() (*structpb.Struct, error) {
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, data, err := conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		msg := &structpb.Struct{}
		return msg, protojson.Unmarshal(data, msg)
	}
	send := func(req wire.Request) {
		data, err := wire.MarshalRequest(req)
		require.NoError(t, err)
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))
	}

	send(wire.Request{Type: wire.ReqJoin, GameID: holdemTable.ID})
	events, reply := untilReply(t, recv)
	require.Empty(t, reply.Code)
	require.NotEmpty(t, events)
	require.Equal(t, protocol.TypeTable, events[0].Type())

	send(wire.Request{Type: wire.ReqChat, GameID: holdemTable.ID, Message: "hello"})
	events, reply = untilReply(t, recv)
	require.Empty(t, reply.Code)
	var said []string
	for _, ev := range events {
		if chat, ok := ev.(*protocol.Chat); ok {
			said = append(said, chat.Message)
		}
	}
	require.Equal(t, []string{"hello"}, said)

	send(wire.Request{Type: wire.ReqTables})
	_, reply = untilReply(t, recv)
	require.Len(t, reply.Tables, 1)
	require.Equal(t, 1, reply.Tables[0].Observers)

	// Server shutdown closes the socket with a going away frame.
	h.srv.Stop()
	for {
		if _, err = recv(); err != nil {
			break
		}
	}
	require.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
}
