package daemon

import (
	"bytes"
	"encoding/json"
	"os"

	"go.dedis.ch/rgbd/cli"
	"go.dedis.ch/rgbd/ffi"
	"go.dedis.ch/rgbd/node"
	"go.dedis.ch/rgbd/stash/kvstash"
	"golang.org/x/xerrors"
)

// issue creates the contract of a new asset in the stash of the data
// directory. The stash is locked by a running node.
func (b *Builder) issue(flags cli.Flags) error {
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(flags.Path("file"))
	if err != nil {
		return xerrors.Errorf("couldn't read arguments: %v", err)
	}

	var args ffi.IssueArgs

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	err = dec.Decode(&args)
	if err != nil {
		return xerrors.Errorf("couldn't decode arguments: %v", err)
	}

	req, err := args.Request()
	if err != nil {
		return err
	}

	network, err := cfg.Chain()
	if err != nil {
		return err
	}

	err = os.MkdirAll(cfg.DataDir, 0o700)
	if err != nil {
		return xerrors.Errorf("couldn't make data directory: %v", err)
	}

	s, err := kvstash.Open(cfg.StashPath())
	if err != nil {
		return xerrors.Errorf("couldn't open stash: %v", err)
	}

	runtime := node.NewRuntime(network, s)
	defer runtime.Close()

	c, err := runtime.Issue(req)
	if err != nil {
		return xerrors.Errorf("couldn't issue: %v", err)
	}

	return b.print(c)
}
