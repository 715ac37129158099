// Package rpcsrv implements the bus service of the node. It accepts the
// connections of the peers, decodes their requests, calls the runtime and
// writes back the replies.
//
// A connection is served by its own goroutine and the requests of a
// connection are processed one after the other. Each request receives zero or
// more progress notifications followed by exactly one terminal reply.
package rpcsrv

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/xid"
	"github.com/rs/zerolog"
	"go.dedis.ch/rgbd"
	"go.dedis.ch/rgbd/bus"
	"go.dedis.ch/rgbd/contract"
	"go.dedis.ch/rgbd/fault"
	"go.dedis.ch/rgbd/node"
	"go.dedis.ch/rgbd/rpc"
	"go.dedis.ch/rgbd/serde"
	"go.dedis.ch/rgbd/stash"
	"golang.org/x/xerrors"
)

var (
	promRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rgbd_bus_requests_total",
		Help: "total number of requests received on the bus",
	}, []string{"type"})

	promFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rgbd_bus_failures_total",
		Help: "total number of failures replied on the bus",
	}, []string{"code"})

	promLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rgbd_bus_request_seconds",
		Help:    "time to process a request of the bus",
		Buckets: prometheus.DefBuckets,
	}, []string{"type"})

	promConns = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "rgbd_bus_connections",
		Help: "number of open connections on the bus",
	})
)

func init() {
	rgbd.PromCollectors = append(rgbd.PromCollectors,
		promRequests, promFailures, promLatency, promConns)
}

// Runtime is the set of operations of the node runtime used by the service.
type Runtime interface {
	Network() contract.Chain

	AcceptContract(c contract.Consignment, force bool, progress node.Progress) (node.ContractValidity, error)

	AcceptTransfer(c contract.Consignment, force bool, progress node.Progress) (node.ContractValidity, error)

	ListContracts() ([]contract.ContractID, error)

	GetContract(req rpc.ContractReq) (contract.Contract, error)

	GetContractState(id contract.ContractID) (contract.ContractState, error)
}

// Option is the type of option to set some fields of a service.
type Option func(*Service) error

// WithMinClientVersion sets the lowest version of the clients allowed to
// connect. The version is read from the user agent of the hello message,
// after the last slash. An empty version disables the check.
func WithMinClientVersion(version string) Option {
	return func(s *Service) error {
		if version == "" {
			s.constraint = nil
			s.minVersion = ""

			return nil
		}

		constraint, err := semver.NewConstraint(">= " + version)
		if err != nil {
			return xerrors.Errorf("invalid client version '%s': %v", version, err)
		}

		s.constraint = constraint
		s.minVersion = version

		return nil
	}
}

// WithLogger sets the logger of the service.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) error {
		s.logger = logger
		return nil
	}
}

// Service is the bus service of the node.
type Service struct {
	runtime    Runtime
	context    serde.Context
	factory    rpc.BusFactory
	constraint *semver.Constraints
	minVersion string
	logger     zerolog.Logger
}

// NewService returns a service that serves the runtime. The messages are
// encoded with the serde context.
func NewService(runtime Runtime, ctx serde.Context, opts ...Option) (*Service, error) {
	s := &Service{
		runtime: runtime,
		context: ctx,
		factory: rpc.NewBusFactory(),
		logger:  rgbd.Logger.With().Str("component", "rpcsrv").Logger(),
	}

	for _, opt := range opts {
		err := opt(s)
		if err != nil {
			return nil, xerrors.Errorf("option failed: %v", err)
		}
	}

	return s, nil
}

// Serve accepts the connections of the listener until the context is done.
// It closes the listener and the connections in progress before returning.
func (s *Service) Serve(ctx context.Context, l bus.Listener) error {
	var wg sync.WaitGroup

	defer wg.Wait()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	wg.Add(1)

	go func() {
		defer wg.Done()

		<-ctx.Done()
		l.Close()
	}()

	s.logger.Info().Str("addr", l.Addr()).Msg("bus service started")

	for {
		conn, err := l.Accept()
		if err != nil {
			if ctx.Err() != nil || xerrors.Is(err, bus.ErrClosed) {
				s.logger.Info().Str("addr", l.Addr()).Msg("bus service stopped")
				return nil
			}

			return xerrors.Errorf("couldn't accept: %v", err)
		}

		wg.Add(2)

		done := make(chan struct{})

		go func() {
			defer wg.Done()

			select {
			case <-ctx.Done():
			case <-done:
			}

			conn.Close()
		}()

		go func() {
			defer wg.Done()
			defer close(done)

			s.ServeConn(conn)
		}()
	}
}

// ServeConn processes the requests of the connection until it is closed.
func (s *Service) ServeConn(conn bus.Conn) {
	promConns.Inc()
	defer promConns.Dec()

	logger := s.logger.With().
		Str("conn", xid.New().String()).
		Str("remote", conn.RemoteAddr()).
		Logger()

	logger.Debug().Msg("connection opened")

	for {
		frame, err := conn.Recv()
		if err == io.EOF {
			logger.Debug().Msg("connection closed")
			return
		}

		if err != nil {
			logger.Debug().Err(err).Msg("connection interrupted")
			return
		}

		err = s.process(conn, frame, logger)
		if err != nil {
			routed := fault.Global(fault.ReplySocketErr(conn.RemoteAddr(), err))
			logger.Warn().Err(routed).Msg("couldn't reply")
			return
		}
	}
}

func (s *Service) process(conn bus.Conn, frame []byte, logger zerolog.Logger) error {
	var writeErr error

	send := func(msg rpc.Message) {
		if writeErr != nil {
			return
		}

		writeErr = s.send(conn, msg)
	}

	envelope, err := s.factory.BusMsgOf(s.context, frame)
	if err != nil {
		logger.Debug().Err(err).Msg("received invalid frame")

		reply := rpc.FromPresentation(err)
		countFailure(reply)
		send(reply)

		return writeErr
	}

	req := envelope.Msg
	typ := req.Type().String()

	promRequests.WithLabelValues(typ).Inc()
	start := time.Now()

	logger.Debug().Stringer("request", req).Msg("received request")

	reply := s.Handle(req, func(text string) {
		send(rpc.NewProgress(text))
	})

	promLatency.WithLabelValues(typ).Observe(time.Since(start).Seconds())

	if failure, ok := reply.(rpc.Failure); ok {
		countFailure(failure)
		logger.Debug().Stringer("request", req).Err(failure).Msg("request failed")
	}

	send(reply)

	return writeErr
}

func (s *Service) send(conn bus.Conn, msg rpc.Message) error {
	data, err := rpc.NewBusMsg(msg).Serialize(s.context)
	if err != nil {
		return xerrors.Errorf("couldn't serialize %v: %v", msg.Type(), err)
	}

	err = conn.Send(data)
	if err != nil {
		return xerrors.Errorf("couldn't send %v: %v", msg.Type(), err)
	}

	return nil
}

// Handle processes the request and returns its terminal reply. The progress
// of the acceptances is reported to the callback.
func (s *Service) Handle(req rpc.Message, progress node.Progress) rpc.Message {
	switch msg := req.(type) {
	case rpc.Hello:
		return s.hello(msg.HelloReq)
	case rpc.AcceptContract:
		validity, err := s.runtime.AcceptContract(msg.Consignment, msg.Force, progress)
		return s.fromValidity(validity, err)
	case rpc.AcceptTransfer:
		validity, err := s.runtime.AcceptTransfer(msg.Consignment, msg.Force, progress)
		return s.fromValidity(validity, err)
	case rpc.ListContracts:
		ids, err := s.runtime.ListContracts()
		if err != nil {
			return s.fromError(err)
		}

		return rpc.ContractIds{IDs: ids}
	case rpc.GetContract:
		c, err := s.runtime.GetContract(msg.ContractReq)
		if err != nil {
			return s.fromError(err)
		}

		return rpc.Contract{Contract: c}
	case rpc.GetContractState:
		state, err := s.runtime.GetContractState(msg.ContractID)
		if err != nil {
			return s.fromError(err)
		}

		return rpc.ContractState{State: state}
	case rpc.BlindUtxo, rpc.ConsignTransfer:
		return rpc.NewFailure(rpc.CodeUnsupported, "%v is not supported", req.Type())
	default:
		return rpc.Unexpected(req)
	}
}

func (s *Service) hello(req rpc.HelloReq) rpc.Message {
	network := s.runtime.Network()
	if req.Network != network {
		return rpc.NewFailure(rpc.CodeHandshake, "network mismatch: node on %s, client on %s",
			network, req.Network)
	}

	if s.constraint != nil {
		text := req.UserAgent[strings.LastIndex(req.UserAgent, "/")+1:]

		version, err := semver.NewVersion(text)
		if err != nil {
			return rpc.NewFailure(rpc.CodeHandshake, "invalid user agent '%s': %v", req.UserAgent, err)
		}

		if !s.constraint.Check(version) {
			return rpc.NewFailure(rpc.CodeHandshake, "client version %s is older than %s",
				version, s.minVersion)
		}
	}

	return rpc.SuccessWith("rgbd/" + rgbd.Version)
}

func (s *Service) fromValidity(validity node.ContractValidity, err error) rpc.Message {
	if err != nil {
		return s.fromError(err)
	}

	switch validity.Kind {
	case node.ContractValid:
		return rpc.Success()
	case node.ContractUnknownTxids:
		return rpc.UnresolvedTxids{Txids: validity.Txids}
	default:
		if validity.Status == nil {
			return rpc.NewFailure(rpc.CodeValidation, "invalid consignment")
		}

		return rpc.Invalid{Status: *validity.Status}
	}
}

func (s *Service) fromError(err error) rpc.Failure {
	if xerrors.Is(err, stash.ErrNotFound) {
		return rpc.NewFailure(rpc.CodeNotFound, "%v", err)
	}

	var nodeErr node.Error
	if xerrors.As(err, &nodeErr) {
		failure := rpc.FailureFromService(nodeErr.Service)
		failure.Info = err.Error()

		repr := nodeErr.Service.Represent()

		s.logger.Debug().
			Str("domain", repr.Domain).
			Str("service", repr.Service).
			Str("name", repr.Name).
			Interface("info", repr.Info).
			Msg("service error")

		return failure
	}

	return rpc.NewFailure(rpc.CodeUnknown, "%v", err)
}

func countFailure(failure rpc.Failure) {
	promFailures.WithLabelValues(failure.Code.String()).Inc()
}
