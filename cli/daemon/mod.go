// Package daemon implements the command line of the node. The start command
// runs the node in the foreground, and the other commands are clients of the
// bus of a running node, except the issuance which works on the stash
// directly.
//
//	rgbd --data-dir ~/.rgbd start --grpc :7777 --metrics :9090
//	rgbd contract list
//	rgbd contract get --id XX --outpoint TXID:VOUT
//	rgbd contract accept --file consignment.json
//	rgbd transfer accept --file transfer.json --force
//	rgbd issue --file issue.json
package daemon

import (
	"encoding/json"
	"io"
	"os"
	"syscall"
	"time"

	"go.dedis.ch/rgbd"
	"go.dedis.ch/rgbd/cli"
	"go.dedis.ch/rgbd/cli/ucli"
	"go.dedis.ch/rgbd/config"
	"golang.org/x/xerrors"
)

const defaultTimeout = 30 * time.Second

// Option is the type of the options of the builder.
type Option func(*Builder)

// WithSignals replaces the notification of the interrupt signals by the
// channel.
func WithSignals(sigs chan os.Signal) Option {
	return func(b *Builder) {
		b.sigs = sigs
		b.enableSignal = false
	}
}

// WithWriter sets the output of the commands.
func WithWriter(out io.Writer) Option {
	return func(b *Builder) {
		b.out = out
	}
}

// WithReady sets a channel that is closed when the node has started.
func WithReady(ready chan struct{}) Option {
	return func(b *Builder) {
		b.ready = ready
	}
}

// Builder builds the application of the node.
type Builder struct {
	sigs         chan os.Signal
	enableSignal bool
	out          io.Writer
	ready        chan struct{}
}

// NewBuilder returns a new builder of the application.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		sigs:         make(chan os.Signal, 1),
		enableSignal: true,
		out:          os.Stdout,
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Build returns the application.
func (b *Builder) Build() cli.Application {
	builder := ucli.NewBuilder("rgbd",
		ucli.WithUsage("RGB node"),
		ucli.WithVersion(rgbd.Version),
		ucli.WithFlags(
			cli.PathFlag{
				Name:  "config",
				Usage: "path to the configuration file (toml, yaml or json)",
			},
			cli.PathFlag{
				Name:  "data-dir",
				Usage: "path to the data directory",
				Value: config.DefaultDataDir,
			},
			cli.StringFlag{
				Name:  "network",
				Usage: "bitcoin network of the node",
				Value: string(config.Default().Network),
			},
			cli.PathFlag{
				Name:  "socket",
				Usage: "path to the socket of the bus",
			},
			cli.ChoiceFlag{
				Name:    "format",
				Usage:   "encoding of the bus messages",
				Value:   config.Default().Format,
				Choices: []string{"cbor", "json"},
			},
		),
	)

	cmd := builder.SetCommand("start")
	cmd.SetDescription("start the node")
	cmd.SetFlags(
		cli.StringFlag{
			Name:  "grpc",
			Usage: "address of the gRPC bus, disabled if empty",
		},
		cli.StringFlag{
			Name:  "metrics",
			Usage: "address of the prometheus endpoint, disabled if empty",
		},
		cli.ChoiceFlag{
			Name:    "log-level",
			Usage:   "level of the logs",
			Choices: []string{"trace", "debug", "info", "warn", "error", "none"},
		},
		cli.PathFlag{
			Name:  "log-file",
			Usage: "path to the log file, the console if empty",
		},
	)
	cmd.SetAction(b.start)

	b.setContractCommands(builder.SetCommand("contract"))
	b.setTransferCommands(builder.SetCommand("transfer"))

	cmd = builder.SetCommand("issue")
	cmd.SetDescription("issue a new asset, while the node is stopped")
	cmd.SetFlags(
		cli.PathFlag{
			Name:     "file",
			Usage:    "path to the JSON arguments of the issuance",
			Required: true,
		},
	)
	cmd.SetAction(b.issue)

	return builder.Build()
}

func (b *Builder) setContractCommands(cmd cli.CommandBuilder) {
	cmd.SetDescription("manage the contracts of the node")

	sub := cmd.SetSubCommand("list")
	sub.SetDescription("list the identifiers of the contracts")
	sub.SetFlags(timeoutFlag())
	sub.SetAction(b.listContracts)

	sub = cmd.SetSubCommand("get")
	sub.SetDescription("print the history of a contract")
	sub.SetFlags(
		idFlag(),
		cli.StringSliceFlag{
			Name:  "outpoint",
			Usage: "outpoint to disclose, every outpoint if none",
		},
		cli.StringSliceFlag{
			Name:  "include",
			Usage: "type of transition to include, every type if none",
		},
		timeoutFlag(),
	)
	sub.SetAction(b.getContract)

	sub = cmd.SetSubCommand("state")
	sub.SetDescription("print the state of a contract")
	sub.SetFlags(idFlag(), timeoutFlag())
	sub.SetAction(b.getContractState)

	sub = cmd.SetSubCommand("accept")
	sub.SetDescription("accept the consignment of a contract")
	sub.SetFlags(acceptFlags()...)
	sub.SetAction(b.acceptContract)
}

func (b *Builder) setTransferCommands(cmd cli.CommandBuilder) {
	cmd.SetDescription("manage the transfers of the node")

	sub := cmd.SetSubCommand("accept")
	sub.SetDescription("accept the consignment of a transfer")
	sub.SetFlags(acceptFlags()...)
	sub.SetAction(b.acceptTransfer)
}

// loadConfig returns the configuration of the file, if any, with the flags
// given on the command line applied on top.
func loadConfig(flags cli.Flags) (config.Config, error) {
	cfg := config.Default()

	path := flags.Path("config")
	if path != "" {
		var err error

		cfg, err = config.Load(path)
		if err != nil {
			return cfg, err
		}
	}

	if path == "" || flags.IsSet("data-dir") {
		cfg.DataDir = flags.Path("data-dir")
	}

	if path == "" || flags.IsSet("network") {
		cfg.Network = flags.String("network")
	}

	if path == "" || flags.IsSet("format") {
		cfg.Format = flags.String("format")
	}

	if flags.IsSet("socket") {
		cfg.Socket = flags.Path("socket")
	}

	err := cfg.Validate()
	if err != nil {
		return cfg, xerrors.Errorf("invalid config: %v", err)
	}

	return cfg, nil
}

func (b *Builder) print(v interface{}) error {
	enc := json.NewEncoder(b.out)
	enc.SetIndent("", "  ")

	err := enc.Encode(v)
	if err != nil {
		return xerrors.Errorf("couldn't print: %v", err)
	}

	return nil
}

func (b *Builder) notifyReady() {
	if b.ready != nil {
		close(b.ready)
	}
}

func interrupts() []os.Signal {
	return []os.Signal{syscall.SIGINT, syscall.SIGTERM}
}

func idFlag() cli.Flag {
	return cli.StringFlag{
		Name:     "id",
		Usage:    "identifier of the contract",
		Required: true,
	}
}

func timeoutFlag() cli.Flag {
	return cli.DurationFlag{
		Name:  "timeout",
		Usage: "maximum time to wait for the reply of the node",
		Value: defaultTimeout,
	}
}

func acceptFlags() []cli.Flag {
	return []cli.Flag{
		cli.PathFlag{
			Name:     "file",
			Usage:    "path to the JSON consignment",
			Required: true,
		},
		cli.BoolFlag{
			Name:  "force",
			Usage: "accept the consignment despite the warnings of the validation",
		},
		timeoutFlag(),
	}
}
