package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/rgbd/contract"
	"go.dedis.ch/rgbd/rpc"
	"go.dedis.ch/rgbd/serde"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	network, err := cfg.Chain()
	require.NoError(t, err)
	require.Equal(t, contract.Mainnet, network)

	require.Equal(t, filepath.Join(DefaultDataDir, SocketName), cfg.SocketPath())
	require.Equal(t, filepath.Join(DefaultDataDir, StashName), cfg.StashPath())

	ctx, err := cfg.Context()
	require.NoError(t, err)
	require.Equal(t, serde.FormatCBOR, ctx.GetFormat())

	cfg.Socket = "/tmp/node.sock"
	require.Equal(t, "/tmp/node.sock", cfg.SocketPath())
}

func TestConfig_Context_BusMessages(t *testing.T) {
	factory := rpc.NewBusFactory()

	for _, format := range []string{"cbor", "json"} {
		cfg := Default()
		cfg.Format = format

		ctx, err := cfg.Context()
		require.NoError(t, err)

		data, err := rpc.NewBusMsg(rpc.ListContracts{}).Serialize(ctx)
		require.NoError(t, err, format)

		msg, err := factory.BusMsgOf(ctx, data)
		require.NoError(t, err, format)
		require.Equal(t, rpc.ListContracts{}, msg.Msg)
	}

	cfg := Default()
	cfg.Format = "xml"

	_, err := cfg.Context()
	require.EqualError(t, err, "unknown format 'xml'")
}

func TestLoad_TOML(t *testing.T) {
	path := writeFile(t, "rgbd.toml", `
network = "testnet"
data_dir = "/var/lib/rgbd"
grpc = "127.0.0.1:3000"
min_client_version = "0.8.0"

[log]
level = "debug"
file = "/var/log/rgbd.log"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "testnet", cfg.Network)
	require.Equal(t, "/var/lib/rgbd", cfg.DataDir)
	require.Equal(t, "127.0.0.1:3000", cfg.GRPC)
	require.Equal(t, "0.8.0", cfg.MinClientVersion)
	require.Equal(t, "cbor", cfg.Format)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, "/var/log/rgbd.log", cfg.Log.File)
	require.Equal(t, 100, cfg.Log.MaxSizeMB)

	path = writeFile(t, "bad.toml", `colour = "blue"`)
	_, err = Load(path)
	require.EqualError(t, err, "couldn't decode bad.toml: unknown keys [colour]")
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "rgbd.yml", `
network: signet
format: json
log:
  max_backups: 7
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "signet", cfg.Network)
	require.Equal(t, "json", cfg.Format)
	require.Equal(t, 7, cfg.Log.MaxBackups)
	require.Equal(t, DefaultDataDir, cfg.DataDir)

	ctx, err := cfg.Context()
	require.NoError(t, err)
	require.Equal(t, serde.FormatJSON, ctx.GetFormat())

	path = writeFile(t, "bad.yaml", "colour: blue\n")
	_, err = Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "couldn't decode bad.yaml: ")
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "none.toml"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "couldn't read config: ")

	path := writeFile(t, "rgbd.ini", "network=mainnet")
	_, err = Load(path)
	require.EqualError(t, err, "unsupported config format '.ini'")

	path = writeFile(t, "rgbd.toml", `network = "liquid"`)
	_, err = Load(path)
	require.EqualError(t, err, "invalid config: unknown network 'liquid'")

	path = writeFile(t, "rgbd.toml", `format = "xml"`)
	_, err = Load(path)
	require.EqualError(t, err, "invalid config: unknown format 'xml'")

	path = writeFile(t, "rgbd.toml", `data_dir = ""`)
	_, err = Load(path)
	require.EqualError(t, err, "invalid config: data directory is empty")
}

func TestFromJSON(t *testing.T) {
	cfg, err := FromJSON(nil)
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)

	cfg, err = FromJSON([]byte(`{"network":"regtest","data_dir":"/tmp/rgbd"}`))
	require.NoError(t, err)
	require.Equal(t, "regtest", cfg.Network)
	require.Equal(t, "/tmp/rgbd", cfg.DataDir)
	require.Equal(t, "info", cfg.Log.Level)

	path := writeFile(t, "rgbd.json", `{"network":"testnet"}`)
	cfg, err = Load(path)
	require.NoError(t, err)
	require.Equal(t, "testnet", cfg.Network)

	_, err = FromJSON([]byte(`{"colour":"blue"}`))
	require.EqualError(t, err, `couldn't decode config: json: unknown field "colour"`)
}

func TestLog_Writer(t *testing.T) {
	out, closer := Log{}.Writer()
	require.NotNil(t, out)
	require.NoError(t, closer.Close())

	path := filepath.Join(t.TempDir(), "rgbd.log")

	logger, closer := Log{Level: "debug", File: path, MaxSizeMB: 1}.Logger()
	logger.Debug().Msg("written to the file")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `"message":"written to the file"`)
}

// -----------------------------------------------------------------------------
// Utility functions

func writeFile(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)

	err := os.WriteFile(path, []byte(content), 0o600)
	require.NoError(t, err)

	return path
}
