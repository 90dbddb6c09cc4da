// Package client connects to the TableService of a pokertabled server.
package client

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/decred/slog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/vctt94/pokertable/pkg/protocol"
	"github.com/vctt94/pokertable/pkg/rpc/tablerpc"
	"github.com/vctt94/pokertable/pkg/wire"
)

var ErrNoStream = errors.New("game stream not started")

// Config configures a PokerClient.
type Config struct {
	ServerAddr string
	// CertPath is the server certificate. Empty dials without TLS.
	CertPath string
	// GRPCHost overrides the server name checked against the
	// certificate.
	GRPCHost string
	Player   string
	Log      slog.Logger
}

// PokerClient is the session of one player.
type PokerClient struct {
	player string
	log    slog.Logger
	conn   *grpc.ClientConn
	rpc    tablerpc.TableServiceClient

	mu     sync.Mutex
	stream tablerpc.TableService_PlayClient
}

// SetupGRPCConnection dials serverAddr, over TLS when certPath is set.
func SetupGRPCConnection(serverAddr, certPath, grpcHost string) (*grpc.ClientConn, error) {
	creds := insecure.NewCredentials()
	if certPath != "" {
		pemServerCA, err := os.ReadFile(certPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read server certificate: %w", err)
		}
		certPool := x509.NewCertPool()
		if !certPool.AppendCertsFromPEM(pemServerCA) {
			return nil, errors.New("failed to add server certificate to pool")
		}
		creds = credentials.NewTLS(&tls.Config{
			RootCAs:    certPool,
			ServerName: grpcHost,
		})
	}
	conn, err := grpc.NewClient(serverAddr, grpc.WithTransportCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	return conn, nil
}

// New dials the server of cfg.
func New(cfg Config) (*PokerClient, error) {
	if cfg.Player == "" {
		return nil, errors.New("player name is required")
	}
	conn, err := SetupGRPCConnection(cfg.ServerAddr, cfg.CertPath, cfg.GRPCHost)
	if err != nil {
		return nil, err
	}
	return NewWithConn(conn, cfg.Player, cfg.Log), nil
}

// NewWithConn wraps an established connection. Close closes conn.
func NewWithConn(conn *grpc.ClientConn, player string, log slog.Logger) *PokerClient {
	if log == nil {
		log = slog.Disabled
	}
	return &PokerClient{
		player: player,
		log:    log,
		conn:   conn,
		rpc:    tablerpc.NewTableServiceClient(conn),
	}
}

func (pc *PokerClient) Player() string { return pc.player }

// GetTables lists the tables of the server.
func (pc *PokerClient) GetTables(ctx context.Context) ([]protocol.Table, error) {
	msg, err := pc.rpc.ListTables(ctx, &structpb.Struct{})
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	reply, err := wire.DecodeReply(msg)
	if err != nil {
		return nil, err
	}
	return reply.Tables, nil
}

// StartGameStream opens the session. It lasts until ctx ends or
// CloseSend is called.
func (pc *PokerClient) StartGameStream(ctx context.Context) error {
	ctx = metadata.AppendToOutgoingContext(ctx, tablerpc.PlayerMetadataKey, pc.player)
	stream, err := pc.rpc.Play(ctx)
	if err != nil {
		return fmt.Errorf("failed to open session: %w", err)
	}
	pc.mu.Lock()
	pc.stream = stream
	pc.mu.Unlock()
	pc.log.Infof("Session opened for %s", pc.player)
	return nil
}

func (pc *PokerClient) current() (tablerpc.TableService_PlayClient, error) {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	if pc.stream == nil {
		return nil, ErrNoStream
	}
	return pc.stream, nil
}

// Send writes a request on the session. It may be called from several
// goroutines.
func (pc *PokerClient) Send(req wire.Request) error {
	msg, err := wire.EncodeRequest(req)
	if err != nil {
		return err
	}
	pc.mu.Lock()
	defer pc.mu.Unlock()
	if pc.stream == nil {
		return ErrNoStream
	}
	return pc.stream.Send(msg)
}

// Recv returns the next event or reply of the session. Only one
// goroutine may call it.
func (pc *PokerClient) Recv() (*structpb.Struct, error) {
	stream, err := pc.current()
	if err != nil {
		return nil, err
	}
	return stream.Recv()
}

// CloseSend tells the server no more requests follow; it then ends the
// session.
func (pc *PokerClient) CloseSend() error {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	if pc.stream == nil {
		return nil
	}
	return pc.stream.CloseSend()
}

// Close tears the connection down.
func (pc *PokerClient) Close() error {
	return pc.conn.Close()
}
