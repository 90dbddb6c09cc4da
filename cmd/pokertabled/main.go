package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/vctt94/pokertable/pkg/config"
	"github.com/vctt94/pokertable/pkg/logging"
	"github.com/vctt94/pokertable/pkg/rpc/tablerpc"
	"github.com/vctt94/pokertable/pkg/server"
	"github.com/vctt94/pokertable/pkg/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "pokertabled: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath string
		grpcAddr   string
		wsAddr     string
		dbDriver   string
		dbDSN      string
		logFile    string
		debugLevel string
		seed       int64
	)
	flags := pflag.NewFlagSet("pokertabled", pflag.ContinueOnError)
	flags.StringVarP(&configPath, "config", "C", "", "path to the YAML configuration file")
	flags.StringVar(&grpcAddr, "grpc", "", "gRPC listen address")
	flags.StringVar(&wsAddr, "websocket", "", "websocket listen address")
	flags.StringVar(&dbDriver, "dbdriver", "", "database driver: sqlite3, sqlite or postgres")
	flags.StringVar(&dbDSN, "db", "", "database file or connection string")
	flags.StringVar(&logFile, "logfile", "", "rotated log file")
	flags.StringVarP(&debugLevel, "debuglevel", "d", "", "log level, such as info or debug,STOR=trace")
	flags.Int64Var(&seed, "seed", 0, "deterministic deck seed (0 = random)")
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return err
		}
	}
	// Flags override the file.
	flags.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "grpc":
			cfg.Listen.GRPC = grpcAddr
		case "websocket":
			cfg.Listen.WebSocket = wsAddr
		case "dbdriver":
			cfg.Database.Driver = dbDriver
		case "db":
			cfg.Database.DSN = dbDSN
		case "logfile":
			cfg.Log.File = logFile
		case "debuglevel":
			cfg.Log.Level = debugLevel
		case "seed":
			cfg.Settings.DealSeed = seed
		}
	})
	if err := cfg.Validate(); err != nil {
		return err
	}

	logs, err := logging.New(logging.Config{
		LogFile:     cfg.Log.File,
		MaxSizeKB:   cfg.Log.MaxSize,
		MaxLogFiles: cfg.Log.MaxFiles,
		DebugLevel:  cfg.Log.Level,
	})
	if err != nil {
		return err
	}
	defer logs.Close()
	log := logs.Logger(logging.SubsystemServer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, store.Config{
		Driver: cfg.Database.Driver,
		DSN:    cfg.Database.DSN,
		Log:    logs.Logger(logging.SubsystemStore),
	})
	if err != nil {
		return err
	}
	defer st.Close()

	settings, err := cfg.Settings.TableSettings()
	if err != nil {
		return err
	}
	temporary, err := cfg.Settings.TemporaryRegexp()
	if err != nil {
		return err
	}
	srv, err := server.New(server.Config{
		Store:           st,
		Settings:        settings,
		Temporary:       temporary,
		MaxJoined:       cfg.Settings.MaxJoined,
		StartingBalance: cfg.Settings.StartingBalance,
		DealSeed:        cfg.Settings.DealSeed,
		Logger:          logs.Logger,
	})
	if err != nil {
		return err
	}
	if err := srv.Start(ctx, cfg.Tables); err != nil {
		srv.Stop()
		return err
	}

	lis, err := net.Listen("tcp", cfg.Listen.GRPC)
	if err != nil {
		srv.Stop()
		return fmt.Errorf("failed to listen: %w", err)
	}
	grpcSrv := grpc.NewServer()
	tablerpc.RegisterTableServiceServer(grpcSrv, srv)

	var httpSrv *http.Server
	if cfg.Listen.WebSocket != "" {
		mux := http.NewServeMux()
		mux.Handle("/ws", srv.Gateway())
		httpSrv = &http.Server{
			Addr:              cfg.Listen.WebSocket,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Infof("gRPC listening on %s", lis.Addr())
		return grpcSrv.Serve(lis)
	})
	if httpSrv != nil {
		g.Go(func() error {
			log.Infof("Websocket gateway listening on %s", httpSrv.Addr)
			if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		log.Infof("Shutting down")
		// Stopping the server first ends the open sessions.
		srv.Stop()
		if httpSrv != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			httpSrv.Shutdown(shutdownCtx)
		}
		grpcSrv.GracefulStop()
		return nil
	})
	if err := g.Wait(); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}
