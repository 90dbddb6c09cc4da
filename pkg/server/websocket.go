package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/decred/slog"
	"github.com/gorilla/websocket"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/vctt94/pokertable/pkg/logging"
	"github.com/vctt94/pokertable/pkg/protocol"
	"github.com/vctt94/pokertable/pkg/wire"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 30 * time.Second
	wsReadLimit  = 65536
)

// Gateway serves table sessions over websocket. Frames are JSON text
// messages: requests up, replies and events down.
type Gateway struct {
	srv      *Server
	log      slog.Logger
	upgrader websocket.Upgrader
}

// Gateway returns the websocket handler of s. The player name is taken
// from the "player" query parameter.
func (s *Server) Gateway() *Gateway {
	return &Gateway{
		srv: s,
		log: s.cfg.Logger(logging.SubsystemWire),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
	}
}

func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := g.log
	name := r.URL.Query().Get("player")
	if name == "" {
		http.Error(w, "missing player", http.StatusUnauthorized)
		return
	}
	sess, err := g.srv.Connect(r.Context(), name)
	if err != nil {
		log.Errorf("Websocket session for %s: %v", name, err)
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warnf("Websocket upgrade for %s: %v", name, err)
		g.srv.Disconnect(sess)
		return
	}
	log.Infof("Player %s (%d) opened a websocket session", name, sess.Serial())

	// The request context ends with the handler; the session outlives it.
	ctx, cancel := context.WithCancel(context.Background())
	replies := make(chan wire.Reply, 16)
	go g.writePump(ctx, conn, sess, replies)
	go g.readPump(ctx, cancel, conn, sess, replies)
}

func (g *Gateway) readPump(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn,
	sess *Session, replies chan<- wire.Reply) {

	defer func() {
		cancel()
		g.srv.Disconnect(sess)
		conn.Close()
	}()

	conn.SetReadLimit(wsReadLimit)
	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})

	err := g.srv.receive(ctx, sess, replies, func() (wire.Request, error) {
		for {
			kind, data, err := conn.ReadMessage()
			if err != nil {
				return wire.Request{}, err
			}
			if kind == websocket.TextMessage {
				return wire.UnmarshalRequest(data)
			}
		}
	})
	if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) &&
		!errors.Is(err, context.Canceled) {
		g.log.Warnf("Websocket session %s: %v", sess.ID(), err)
	}
}

func (g *Gateway) writePump(ctx context.Context, conn *websocket.Conn, sess *Session, replies <-chan wire.Reply) {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	write := func(msg *structpb.Struct) error {
		data, err := protojson.Marshal(msg)
		if err != nil {
			g.log.Errorf("Websocket session %s: %v", sess.ID(), err)
			return nil
		}
		conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		return conn.WriteMessage(websocket.TextMessage, data)
	}
	sendEvent := func(ev protocol.Event) error {
		msg, err := wire.Encode(ev)
		if err != nil {
			g.log.Errorf("Websocket session %s: %v", sess.ID(), err)
			return nil
		}
		return write(msg)
	}

	for {
		select {
		case ev := <-sess.Events():
			if err := sendEvent(ev); err != nil {
				return
			}
		case reply := <-replies:
			if err := flushEvents(sess, sendEvent); err != nil {
				return
			}
			msg, err := wire.EncodeReply(reply)
			if err != nil {
				g.log.Errorf("Websocket session %s: %v", sess.ID(), err)
				continue
			}
			if err := write(msg); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-sess.Done():
			closeMsg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
			if err := sess.Err(); err != nil {
				closeMsg = websocket.FormatCloseMessage(websocket.CloseTryAgainLater, err.Error())
			}
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			conn.WriteMessage(websocket.CloseMessage, closeMsg)
			return
		case <-ctx.Done():
			return
		}
	}
}
