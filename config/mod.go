// Package config defines the configuration of the node and the ways to load
// it, from a TOML or YAML file for the daemon, or from a JSON document for the
// boundary entry points.
package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"go.dedis.ch/rgbd/contract"
	_ "go.dedis.ch/rgbd/rpc/cbor"
	_ "go.dedis.ch/rgbd/rpc/json"
	"go.dedis.ch/rgbd/serde"
	serdecbor "go.dedis.ch/rgbd/serde/cbor"
	serdejson "go.dedis.ch/rgbd/serde/json"
	"golang.org/x/xerrors"
	"gopkg.in/yaml.v2"
)

const (
	// DefaultDataDir is the directory of the node data when none is
	// configured.
	DefaultDataDir = ".rgbd"

	// SocketName is the name of the UNIX socket of the bus in the data
	// directory.
	SocketName = "rgbd.sock"

	// StashName is the name of the database of the stash in the data
	// directory.
	StashName = "stash.db"
)

// Log is the configuration of the logger. The file is rotated when it reaches
// the maximum size.
type Log struct {
	Level      string `toml:"level" yaml:"level" json:"level"`
	File       string `toml:"file" yaml:"file" json:"file"`
	MaxSizeMB  int    `toml:"max_size_mb" yaml:"max_size_mb" json:"max_size_mb"`
	MaxBackups int    `toml:"max_backups" yaml:"max_backups" json:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days" yaml:"max_age_days" json:"max_age_days"`
	Compress   bool   `toml:"compress" yaml:"compress" json:"compress"`
}

// Config is the configuration of the node.
type Config struct {
	// Network is the name of the Bitcoin network of the node.
	Network string `toml:"network" yaml:"network" json:"network"`

	// DataDir is the directory where the node keeps its data.
	DataDir string `toml:"data_dir" yaml:"data_dir" json:"data_dir"`

	// Socket is the path of the UNIX socket of the bus. It defaults to a
	// socket in the data directory.
	Socket string `toml:"socket" yaml:"socket" json:"socket"`

	// GRPC is the address of the gRPC bus, which is disabled if empty.
	GRPC string `toml:"grpc" yaml:"grpc" json:"grpc"`

	// Metrics is the address of the prometheus endpoint, which is disabled
	// if empty.
	Metrics string `toml:"metrics" yaml:"metrics" json:"metrics"`

	// Format is the encoding of the bus messages, either cbor or json.
	Format string `toml:"format" yaml:"format" json:"format"`

	// MinClientVersion is the lowest version of the clients allowed on the
	// bus. Any version is allowed if empty.
	MinClientVersion string `toml:"min_client_version" yaml:"min_client_version" json:"min_client_version"`

	Log Log `toml:"log" yaml:"log" json:"log"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Network: string(contract.Mainnet),
		DataDir: DefaultDataDir,
		Format:  "cbor",
		Log: Log{
			Level:      "info",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Load reads the configuration file. The format is selected by the extension
// of the file, and the missing keys keep their default value.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, xerrors.Errorf("couldn't read config: %v", err)
	}

	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".toml":
		err = decodeTOML(data, &cfg)
	case ".yaml", ".yml":
		err = yaml.UnmarshalStrict(data, &cfg)
	case ".json":
		cfg, err = FromJSON(data)
	default:
		return cfg, xerrors.Errorf("unsupported config format '%s'", ext)
	}

	if err != nil {
		return cfg, xerrors.Errorf("couldn't decode %s: %v", filepath.Base(path), err)
	}

	err = cfg.Validate()
	if err != nil {
		return cfg, xerrors.Errorf("invalid config: %v", err)
	}

	return cfg, nil
}

// FromJSON returns the configuration of the JSON document. The missing keys
// keep their default value and the unknown keys are refused. An empty
// document is the default configuration.
func FromJSON(data []byte) (Config, error) {
	cfg := Default()

	if len(bytes.TrimSpace(data)) == 0 {
		return cfg, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	err := dec.Decode(&cfg)
	if err != nil {
		return cfg, xerrors.Errorf("couldn't decode config: %v", err)
	}

	return cfg, nil
}

func decodeTOML(data []byte, cfg *Config) error {
	meta, err := toml.Decode(string(data), cfg)
	if err != nil {
		return err
	}

	undecoded := meta.Undecoded()
	if len(undecoded) > 0 {
		return xerrors.Errorf("unknown keys %v", undecoded)
	}

	return nil
}

// Validate returns an error if a value of the configuration is invalid.
func (c Config) Validate() error {
	_, err := c.Chain()
	if err != nil {
		return err
	}

	if c.DataDir == "" {
		return xerrors.New("data directory is empty")
	}

	_, err = c.Context()
	if err != nil {
		return err
	}

	return nil
}

// Chain returns the network of the node.
func (c Config) Chain() (contract.Chain, error) {
	return contract.ParseChain(c.Network)
}

// SocketPath returns the path of the UNIX socket of the bus.
func (c Config) SocketPath() string {
	if c.Socket != "" {
		return c.Socket
	}

	return filepath.Join(c.DataDir, SocketName)
}

// StashPath returns the path of the database of the stash.
func (c Config) StashPath() string {
	return filepath.Join(c.DataDir, StashName)
}

// Context returns the serde context of the bus messages.
func (c Config) Context() (serde.Context, error) {
	switch strings.ToLower(c.Format) {
	case "cbor":
		return serdecbor.NewContext(), nil
	case "json":
		return serdejson.NewContext(), nil
	default:
		return serde.Context{}, xerrors.Errorf("unknown format '%s'", c.Format)
	}
}
