package daemon

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.dedis.ch/rgbd"
	"go.dedis.ch/rgbd/bus"
	"go.dedis.ch/rgbd/bus/grpcbus"
	"go.dedis.ch/rgbd/bus/socket"
	"go.dedis.ch/rgbd/cli"
	"go.dedis.ch/rgbd/config"
	"go.dedis.ch/rgbd/fault"
	"go.dedis.ch/rgbd/node"
	"go.dedis.ch/rgbd/node/rpcsrv"
	"go.dedis.ch/rgbd/stash/kvstash"
	"golang.org/x/sync/errgroup"
	"golang.org/x/xerrors"
)

func (b *Builder) start(flags cli.Flags) error {
	if b.enableSignal {
		signal.Notify(b.sigs, interrupts()...)

		defer signal.Stop(b.sigs)
	}

	cfg, err := loadConfig(flags)
	if err != nil {
		return fault.ArgParseError(err.Error())
	}

	if flags.IsSet("grpc") {
		cfg.GRPC = flags.String("grpc")
	}

	if flags.IsSet("metrics") {
		cfg.Metrics = flags.String("metrics")
	}

	if flags.IsSet("log-level") {
		cfg.Log.Level = flags.String("log-level")
	}

	if flags.IsSet("log-file") {
		cfg.Log.File = flags.Path("log-file")
	}

	closer := cfg.Log.Apply()
	defer closer.Close()

	network, err := cfg.Chain()
	if err != nil {
		return fault.ArgParseError(err.Error())
	}

	sctx, err := cfg.Context()
	if err != nil {
		return fault.ArgParseError(err.Error())
	}

	err = os.MkdirAll(cfg.DataDir, 0o700)
	if err != nil {
		return fault.NewBootstrapError(fault.BootstrapIO,
			xerrors.Errorf("couldn't make data directory: %v", err))
	}

	s, err := kvstash.Open(cfg.StashPath())
	if err != nil {
		return fault.NewBootstrapError(fault.BootstrapIO,
			xerrors.Errorf("couldn't open stash: %v", err))
	}

	runtime := node.NewRuntime(network, s)
	defer runtime.Close()

	srv, err := rpcsrv.NewService(runtime, sctx, rpcsrv.WithMinClientVersion(cfg.MinClientVersion))
	if err != nil {
		return xerrors.Errorf("couldn't create bus service: %v", err)
	}

	listeners, err := openListeners(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	for _, l := range listeners {
		l := l

		g.Go(func() error {
			return srv.Serve(ctx, l)
		})
	}

	if cfg.Metrics != "" {
		err = serveMetrics(ctx, g, cfg.Metrics)
		if err != nil {
			cancel()
			g.Wait()

			return err
		}
	}

	rgbd.Logger.Info().
		Str("network", string(network)).
		Str("socket", cfg.SocketPath()).
		Msg("node started")

	b.notifyReady()

	g.Go(func() error {
		select {
		case <-b.sigs:
			rgbd.Logger.Info().Msg("interrupted")
		case <-ctx.Done():
		}

		cancel()

		return nil
	})

	err = g.Wait()
	if err != nil {
		return fault.NewBootstrapError(fault.Multithread, xerrors.Errorf("node failed: %v", err))
	}

	rgbd.Logger.Info().Msg("node stopped")

	return nil
}

// openListeners binds the socket of the bus and the gRPC bus if it is
// enabled. A stale socket left by a previous run is removed.
func openListeners(cfg config.Config) ([]bus.Listener, error) {
	path := cfg.SocketPath()

	info, err := os.Stat(path)
	if err == nil && info.Mode()&os.ModeSocket != 0 {
		os.Remove(path)
	}

	sl, err := socket.Listen("unix", path)
	if err != nil {
		return nil, fault.NewBootstrapError(fault.SocketSetup, fault.ReplySocketErr(path, err))
	}

	listeners := []bus.Listener{sl}

	if cfg.GRPC != "" {
		gl, err := grpcbus.Listen(cfg.GRPC)
		if err != nil {
			sl.Close()
			return nil, fault.NewBootstrapError(fault.SocketSetup, fault.ReplySocketErr(cfg.GRPC, err))
		}

		listeners = append(listeners, gl)
	}

	return listeners, nil
}

// serveMetrics exposes the collectors of the packages on the address until
// the context is done.
func serveMetrics(ctx context.Context, g *errgroup.Group, addr string) error {
	registry := prometheus.NewRegistry()

	for _, c := range rgbd.PromCollectors {
		err := registry.Register(c)
		if err != nil {
			return xerrors.Errorf("couldn't register collector: %v", err)
		}
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fault.NewBootstrapError(fault.MonitorSocket, err)
	}

	server := &http.Server{Handler: mux}

	g.Go(func() error {
		err := server.Serve(lis)
		if err != nil && err != http.ErrServerClosed {
			return xerrors.Errorf("metrics server failed: %v", err)
		}

		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		return server.Close()
	})

	rgbd.Logger.Info().Str("addr", lis.Addr().String()).Msg("metrics available")

	return nil
}
