package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"

	"github.com/vctt94/pokertable/pkg/client"
	"github.com/vctt94/pokertable/pkg/logging"
	"github.com/vctt94/pokertable/pkg/ui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "pokerwatch: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		cfg        client.Config
		gameID     int64
		logFile    string
		debugLevel string
	)
	flags := pflag.NewFlagSet("pokerwatch", pflag.ContinueOnError)
	flags.StringVarP(&cfg.ServerAddr, "server", "s", "127.0.0.1:19500", "gRPC address of pokertabled")
	flags.StringVar(&cfg.CertPath, "cert", "", "server certificate; plain text when empty")
	flags.StringVar(&cfg.GRPCHost, "grpchost", "", "server name in the certificate")
	flags.StringVarP(&cfg.Player, "player", "p", "", "player name")
	flags.Int64VarP(&gameID, "table", "t", 0, "table to join (default: the first one)")
	flags.StringVar(&logFile, "logfile", "", "log file; the terminal belongs to the UI")
	flags.StringVarP(&debugLevel, "debuglevel", "d", "info", "log level")
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	logs, err := logging.New(logging.Config{LogFile: logFile, DebugLevel: debugLevel, Stdout: io.Discard})
	if err != nil {
		return err
	}
	defer logs.Close()
	cfg.Log = logs.Logger(logging.SubsystemClient)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pc, err := client.New(cfg)
	if err != nil {
		return err
	}
	defer pc.Close()

	if gameID == 0 {
		tables, err := pc.GetTables(ctx)
		if err != nil {
			return err
		}
		if len(tables) == 0 {
			return errors.New("the server has no table")
		}
		gameID = tables[0].ID
	}

	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if err := pc.StartGameStream(streamCtx); err != nil {
		return err
	}
	incoming := make(chan tea.Msg, 64)
	go ui.Forward(streamCtx, pc.Recv, incoming)

	err = ui.Run(ctx, ui.New(pc.Player(), gameID, pc, incoming))
	pc.CloseSend()
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}
