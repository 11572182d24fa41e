package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"

	"xdao.co/txkit/config"
	"xdao.co/txkit/storage"
	"xdao.co/txkit/storage/grpccas"
	"xdao.co/txkit/storage/localfs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stderr))
}

func run(ctx context.Context, args []string, errOut io.Writer) int {
	fs := flag.NewFlagSet("txkit-casd", flag.ContinueOnError)
	fs.SetOutput(errOut)
	listen := fs.String("listen", "127.0.0.1:7777", "listen address")
	dir := fs.String("dir", "", "serve a localfs store rooted at this directory")
	configPath := fs.String("config", "", "serve the CAS backends configured in txkit.json")
	maxMsg := fs.Int("max-msg-bytes", 0, "maximum gRPC message size (0 keeps the gRPC default)")
	debug := fs.Bool("debug", false, "log every request")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if (*dir == "") == (*configPath == "") {
		fmt.Fprintln(errOut, "exactly one of --dir or --config is required")
		return 2
	}

	level := zerolog.InfoLevel
	if *debug {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: errOut, NoColor: true}).
		Level(level).
		With().Timestamp().Str("component", "casd").
		Logger()

	cas, closeFn, err := openStore(ctx, *dir, *configPath)
	if err != nil {
		log.Error().Err(err).Msg("open store")
		return 2
	}
	defer func() {
		if err := closeFn(); err != nil {
			log.Warn().Err(err).Msg("close store")
		}
	}()

	lis, err := net.Listen("tcp", *listen)
	if err != nil {
		log.Error().Err(err).Msg("listen")
		return 1
	}
	return serve(ctx, lis, cas, *maxMsg, log)
}

func openStore(ctx context.Context, dir, configPath string) (storage.CAS, func() error, error) {
	if dir != "" {
		cas, err := localfs.New(dir)
		if err != nil {
			return nil, nil, err
		}
		return cas, func() error { return nil }, nil
	}
	cfg, err := config.LoadFile(configPath)
	if err != nil {
		return nil, nil, err
	}
	return cfg.OpenCAS(ctx)
}

// serve blocks until ctx is cancelled or the listener fails.
func serve(ctx context.Context, lis net.Listener, cas storage.CAS, maxMsg int, log zerolog.Logger) int {
	var opts []grpc.ServerOption
	if maxMsg > 0 {
		opts = append(opts, grpc.MaxRecvMsgSize(maxMsg), grpc.MaxSendMsgSize(maxMsg))
	}
	s := grpc.NewServer(opts...)
	grpccas.RegisterEnvelopeStoreServer(s, &grpccas.Server{CAS: cas, Log: log})

	errCh := make(chan error, 1)
	go func() { errCh <- s.Serve(lis) }()
	log.Info().Str("addr", lis.Addr().String()).Msg("listening")

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		s.GracefulStop()
		return 0
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("serve")
			return 1
		}
		return 0
	}
}
