package server

import (
	"context"
	"errors"
	"io"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/vctt94/pokertable/pkg/protocol"
	"github.com/vctt94/pokertable/pkg/rpc/tablerpc"
	"github.com/vctt94/pokertable/pkg/wire"
)

var _ tablerpc.TableServiceServer = (*Server)(nil)

// toStatus maps server errors to gRPC status errors.
func toStatus(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrShutdown), errors.Is(err, ErrLoopStopped):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	case errors.Is(err, ErrUnknownTable):
		return status.Error(codes.NotFound, err.Error())
	}
	return status.Error(codes.Internal, err.Error())
}

func playerFromContext(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if ids := md.Get(tablerpc.PlayerMetadataKey); len(ids) > 0 {
			return ids[0]
		}
	}
	return ""
}

// ListTables answers with a REPLY listing every table.
func (s *Server) ListTables(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	tables, err := s.Tables(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	out, err := wire.EncodeReply(wire.Reply{Request: wire.ReqTables, Tables: tables})
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

// Play runs one session for the player named in the metadata until the
// client closes its side or the server stops.
func (s *Server) Play(stream tablerpc.TableService_PlayServer) error {
	ctx := stream.Context()
	name := playerFromContext(ctx)
	if name == "" {
		return status.Error(codes.Unauthenticated, "missing "+tablerpc.PlayerMetadataKey+" metadata")
	}
	sess, err := s.Connect(ctx, name)
	if err != nil {
		return toStatus(err)
	}
	defer s.Disconnect(sess)
	s.log.Infof("Player %s (%d) opened a gRPC session", name, sess.Serial())

	replies := make(chan wire.Reply, 16)
	recvErr := make(chan error, 1)
	go func() {
		recvErr <- s.receive(ctx, sess, replies, func() (wire.Request, error) {
			msg, err := stream.Recv()
			if err != nil {
				return wire.Request{}, err
			}
			return wire.DecodeRequest(msg)
		})
	}()

	sendEvent := func(ev protocol.Event) error {
		msg, err := wire.Encode(ev)
		if err != nil {
			s.log.Errorf("Session %s: %v", sess.ID(), err)
			return nil
		}
		return stream.Send(msg)
	}
	for {
		select {
		case ev := <-sess.Events():
			if err := sendEvent(ev); err != nil {
				return err
			}
		case reply := <-replies:
			if err := flushEvents(sess, sendEvent); err != nil {
				return err
			}
			msg, err := wire.EncodeReply(reply)
			if err != nil {
				return status.Error(codes.Internal, err.Error())
			}
			if err := stream.Send(msg); err != nil {
				return err
			}
		case err := <-recvErr:
			if errors.Is(err, io.EOF) {
				return nil
			}
			return toStatus(err)
		case <-sess.Done():
			if err := sess.Err(); err != nil {
				return status.Error(codes.ResourceExhausted, err.Error())
			}
			return status.Error(codes.Unavailable, ErrShutdown.Error())
		case <-ctx.Done():
			return nil
		}
	}
}

// receive reads requests until the transport fails and queues a reply
// for each of them. Undecodable requests are answered with a REFUSED
// reply.
func (s *Server) receive(ctx context.Context, sess *Session, replies chan<- wire.Reply,
	next func() (wire.Request, error)) error {

	for {
		req, err := next()
		var reply wire.Reply
		switch {
		case errors.Is(err, wire.ErrUnknownType):
			reply = wire.Reply{Request: req.Type, Code: string(protocol.CodeRefused), Error: err.Error()}
		case err != nil:
			return err
		default:
			if reply, err = s.Handle(ctx, sess, req); err != nil {
				return err
			}
		}
		select {
		case replies <- reply:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// flushEvents sends the events already queued on sess so that they
// reach the client ahead of the reply that follows them.
func flushEvents(sess *Session, send func(protocol.Event) error) error {
	for {
		select {
		case ev := <-sess.Events():
			if err := send(ev); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}
