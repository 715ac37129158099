package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.dedis.ch/rgbd"
	"go.dedis.ch/rgbd/bus"
	"go.dedis.ch/rgbd/bus/socket"
	"go.dedis.ch/rgbd/cli"
	"go.dedis.ch/rgbd/contract"
	"go.dedis.ch/rgbd/rpc"
	"golang.org/x/xerrors"
)

// userAgent is the identity announced to the node by the commands.
var userAgent = "rgbd-cli/" + rgbd.Version

func (b *Builder) listContracts(flags cli.Flags) error {
	reply, err := b.request(flags, rpc.ListContracts{})
	if err != nil {
		return err
	}

	ids, ok := reply.(rpc.ContractIds)
	if !ok {
		return unexpectedReply(reply)
	}

	return b.print(ids.IDs)
}

func (b *Builder) getContract(flags cli.Flags) error {
	id, err := contract.ParseContractID(flags.String("id"))
	if err != nil {
		return xerrors.Errorf("invalid contract id: %v", err)
	}

	selection := rpc.AllOutpoints()

	outpoints := flags.StringSlice("outpoint")
	if len(outpoints) > 0 {
		list := make([]contract.OutPoint, len(outpoints))

		for i, text := range outpoints {
			list[i], err = contract.ParseOutPoint(text)
			if err != nil {
				return xerrors.Errorf("invalid outpoint: %v", err)
			}
		}

		selection = rpc.Spending(list...)
	}

	include, err := parseTransitionTypes(flags.StringSlice("include"))
	if err != nil {
		return err
	}

	req := rpc.GetContract{ContractReq: rpc.NewContractReq(id, include, selection)}

	reply, err := b.request(flags, req)
	if err != nil {
		return err
	}

	c, ok := reply.(rpc.Contract)
	if !ok {
		return unexpectedReply(reply)
	}

	return b.print(c.Contract)
}

func (b *Builder) getContractState(flags cli.Flags) error {
	id, err := contract.ParseContractID(flags.String("id"))
	if err != nil {
		return xerrors.Errorf("invalid contract id: %v", err)
	}

	reply, err := b.request(flags, rpc.GetContractState{ContractID: id})
	if err != nil {
		return err
	}

	state, ok := reply.(rpc.ContractState)
	if !ok {
		return unexpectedReply(reply)
	}

	return b.print(state.State)
}

func (b *Builder) acceptContract(flags cli.Flags) error {
	req, err := readAccept(flags)
	if err != nil {
		return err
	}

	return b.accept(flags, rpc.AcceptContract{AcceptReq: req})
}

func (b *Builder) acceptTransfer(flags cli.Flags) error {
	req, err := readAccept(flags)
	if err != nil {
		return err
	}

	return b.accept(flags, rpc.AcceptTransfer{AcceptReq: req})
}

func (b *Builder) accept(flags cli.Flags, req rpc.Message) error {
	reply, err := b.request(flags, req)
	if err != nil {
		return err
	}

	switch msg := reply.(type) {
	case rpc.SuccessMsg:
		fmt.Fprintln(b.out, "consignment accepted")

		return nil
	case rpc.Invalid:
		err = b.print(msg.Status)
		if err != nil {
			return err
		}

		return xerrors.New("consignment is invalid")
	case rpc.UnresolvedTxids:
		return xerrors.Errorf("unresolved transactions %v", msg.Txids)
	default:
		return unexpectedReply(reply)
	}
}

// request connects to the bus of the node, introduces the client and sends
// the request. A failure reply is returned as an error.
func (b *Builder) request(flags cli.Flags, req rpc.Message) (rpc.Message, error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}

	network, err := cfg.Chain()
	if err != nil {
		return nil, err
	}

	sctx, err := cfg.Context()
	if err != nil {
		return nil, err
	}

	timeout := flags.Duration("timeout")
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	client, err := bus.Dial(ctx, socket.NewDialer("unix"), cfg.SocketPath(), sctx)
	if err != nil {
		return nil, err
	}

	defer client.Close()

	hello := rpc.Hello{HelloReq: rpc.HelloReq{UserAgent: userAgent, Network: network}}

	reply, err := client.Request(ctx, hello, nil)
	if err != nil {
		return nil, xerrors.Errorf("couldn't say hello: %v", err)
	}

	failure, ok := reply.(rpc.Failure)
	if ok {
		return nil, xerrors.Errorf("node refused the client: %v", failure)
	}

	reply, err = client.Request(ctx, req, b.progress)
	if err != nil {
		return nil, xerrors.Errorf("couldn't request %v: %v", req, err)
	}

	failure, ok = reply.(rpc.Failure)
	if ok {
		return nil, failure
	}

	return reply, nil
}

func (b *Builder) progress(p rpc.Progress) {
	fmt.Fprintf(b.out, "... %s\n", p.Text)
}

func readAccept(flags cli.Flags) (rpc.AcceptReq, error) {
	data, err := os.ReadFile(flags.Path("file"))
	if err != nil {
		return rpc.AcceptReq{}, xerrors.Errorf("couldn't read consignment: %v", err)
	}

	var consignment contract.Consignment

	err = json.Unmarshal(data, &consignment)
	if err != nil {
		return rpc.AcceptReq{}, xerrors.Errorf("couldn't decode consignment: %v", err)
	}

	req := rpc.AcceptReq{
		Consignment: consignment,
		Force:       flags.Bool("force"),
	}

	return req, nil
}

// parseTransitionTypes accepts the names or the numbers of the types.
func parseTransitionTypes(list []string) ([]contract.TransitionType, error) {
	if len(list) == 0 {
		return nil, nil
	}

	types := make([]contract.TransitionType, len(list))

	for i, text := range list {
		text = strings.ToLower(strings.TrimSpace(text))

		switch text {
		case "transfer":
			types[i] = contract.TransitionTransfer
		case "reissue":
			types[i] = contract.TransitionReissue
		case "burn":
			types[i] = contract.TransitionBurn
		case "rename":
			types[i] = contract.TransitionRename
		default:
			num, err := strconv.ParseUint(text, 10, 16)
			if err != nil {
				return nil, xerrors.Errorf("unknown transition type '%s'", text)
			}

			types[i] = contract.TransitionType(num)
		}
	}

	return types, nil
}

func unexpectedReply(reply rpc.Message) error {
	return xerrors.Errorf("unexpected reply %v", reply)
}
