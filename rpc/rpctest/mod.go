// Package rpctest provides generators of random messages of the bus protocol
// for the tests of the format engines.
package rpctest

import (
	"math/rand"

	"go.dedis.ch/rgbd/contract"
	"go.dedis.ch/rgbd/rpc"
	"go.dedis.ch/rgbd/validation"
)

const letters = "abcdefghijklmnopqrstuvwxyz0123456789 -_"

var chains = []contract.Chain{contract.Mainnet, contract.Testnet, contract.Signet, contract.Regtest}

// Generator is a generator of random messages.
type Generator struct {
	rnd *rand.Rand
}

// NewGenerator returns a generator seeded with the value.
func NewGenerator(seed int64) Generator {
	return Generator{
		rnd: rand.New(rand.NewSource(seed)),
	}
}

// Messages returns one random message of every type, in the order of the
// discriminants.
func (g Generator) Messages() []rpc.Message {
	return []rpc.Message{
		rpc.Hello{HelloReq: rpc.HelloReq{UserAgent: g.String(), Network: g.Chain()}},
		rpc.AcceptContract{AcceptReq: g.AcceptReq(contract.ContractConsignment)},
		rpc.ListContracts{},
		rpc.GetContract{ContractReq: g.ContractReq()},
		rpc.GetContractState{ContractID: g.ContractID()},
		rpc.BlindUtxo{},
		rpc.ConsignTransfer{},
		rpc.AcceptTransfer{AcceptReq: g.AcceptReq(contract.TransferConsignment)},
		rpc.ContractIds{IDs: g.ContractIDs()},
		rpc.Contract{Contract: g.Contract()},
		rpc.ContractState{State: g.ContractState()},
		rpc.StateTransfer{Consignment: g.Consignment(contract.TransferConsignment)},
		rpc.NewProgress(g.String()),
		g.Success(),
		rpc.Failure{Code: rpc.FailureCode(g.rnd.Intn(0x110)), Info: g.String()},
		rpc.UnresolvedTxids{Txids: g.Txids()},
		rpc.Invalid{Status: g.Status()},
	}
}

// String returns a random string.
func (g Generator) String() string {
	buffer := make([]byte, g.rnd.Intn(24))
	for i := range buffer {
		buffer[i] = letters[g.rnd.Intn(len(letters))]
	}

	return string(buffer)
}

// Chain returns a random network.
func (g Generator) Chain() contract.Chain {
	return chains[g.rnd.Intn(len(chains))]
}

// Txid returns a random transaction identifier.
func (g Generator) Txid() contract.Txid {
	var txid contract.Txid
	g.rnd.Read(txid[:])

	return txid
}

// Txids returns nil or a non-empty list of random transaction identifiers.
func (g Generator) Txids() []contract.Txid {
	n := g.rnd.Intn(4)
	if n == 0 {
		return nil
	}

	txids := make([]contract.Txid, n)
	for i := range txids {
		txids[i] = g.Txid()
	}

	return txids
}

// ContractID returns a random contract identifier.
func (g Generator) ContractID() contract.ContractID {
	var id contract.ContractID
	g.rnd.Read(id[:])

	return id
}

// ContractIDs returns nil or a non-empty list of contract identifiers.
func (g Generator) ContractIDs() []contract.ContractID {
	n := g.rnd.Intn(4)
	if n == 0 {
		return nil
	}

	ids := make([]contract.ContractID, n)
	for i := range ids {
		ids[i] = g.ContractID()
	}

	return ids
}

// OutPoint returns a random outpoint.
func (g Generator) OutPoint() contract.OutPoint {
	return contract.NewOutPoint(g.Txid(), g.rnd.Uint32())
}

// OutPoints returns nil or a non-empty list of random outpoints.
func (g Generator) OutPoints() []contract.OutPoint {
	n := g.rnd.Intn(4)
	if n == 0 {
		return nil
	}

	ops := make([]contract.OutPoint, n)
	for i := range ops {
		ops[i] = g.OutPoint()
	}

	return ops
}

// Assignments returns nil or a non-empty list of random assignments.
func (g Generator) Assignments() []contract.Assignment {
	n := g.rnd.Intn(4)
	if n == 0 {
		return nil
	}

	list := make([]contract.Assignment, n)
	for i := range list {
		list[i] = contract.Assignment{Seal: g.OutPoint(), Amount: g.rnd.Uint64()}
	}

	return list
}

// SealSpec returns a random seal definition.
func (g Generator) SealSpec() contract.SealSpec {
	spec := contract.SealSpec{Vout: g.rnd.Uint32()}
	if g.rnd.Intn(2) == 0 {
		txid := g.Txid()
		spec.Txid = &txid
	}

	return spec
}

// IssueStructure returns a random issuance policy.
func (g Generator) IssueStructure() contract.IssueStructure {
	if g.rnd.Intn(2) == 0 {
		return contract.IssueStructure{Kind: contract.SingleIssue}
	}

	control := g.SealSpec()

	return contract.IssueStructure{
		Kind:           contract.MultipleIssues,
		MaxSupply:      float64(g.rnd.Intn(1_000_000)) / 4,
		ReissueControl: &control,
	}
}

// Genesis returns a random genesis.
func (g Generator) Genesis() contract.Genesis {
	genesis := contract.Genesis{
		Network:        g.Chain(),
		Ticker:         g.String(),
		Name:           g.String(),
		Description:    g.String(),
		Precision:      uint8(g.rnd.Intn(19)),
		IssueStructure: g.IssueStructure(),
		Assignments:    g.Assignments(),
		DustLimit:      uint64(g.rnd.Intn(1000)),
	}

	if g.rnd.Intn(2) == 0 {
		genesis.PruneSeals = []contract.SealSpec{g.SealSpec()}
	}

	return genesis
}

// Transition returns a random transition.
func (g Generator) Transition() contract.Transition {
	return contract.Transition{
		Type:    contract.TransitionType(g.rnd.Intn(5)),
		Inputs:  g.OutPoints(),
		Outputs: g.Assignments(),
		Witness: g.Txid(),
	}
}

// Contract returns a random contract.
func (g Generator) Contract() contract.Contract {
	c := contract.Contract{
		ID:      g.ContractID(),
		Genesis: g.Genesis(),
	}

	for i := g.rnd.Intn(3); i > 0; i-- {
		c.Transitions = append(c.Transitions, g.Transition())
	}

	return c
}

// Consignment returns a random consignment of the kind.
func (g Generator) Consignment(kind contract.ConsignmentKind) contract.Consignment {
	return contract.Consignment{
		Kind:      kind,
		Contract:  g.Contract(),
		Endpoints: g.OutPoints(),
	}
}

// AcceptReq returns a random acceptance request.
func (g Generator) AcceptReq(kind contract.ConsignmentKind) rpc.AcceptReq {
	return rpc.AcceptReq{
		Consignment: g.Consignment(kind),
		Force:       g.rnd.Intn(2) == 0,
	}
}

// ContractReq returns a random contract query.
func (g Generator) ContractReq() rpc.ContractReq {
	var include []contract.TransitionType
	for i := g.rnd.Intn(4); i > 0; i-- {
		include = append(include, contract.TransitionType(g.rnd.Intn(5)))
	}

	selection := rpc.AllOutpoints()
	if g.rnd.Intn(2) == 0 {
		selection = rpc.Spending(g.OutPoints()...)
	}

	return rpc.NewContractReq(g.ContractID(), include, selection)
}

// ContractState returns a random contract state.
func (g Generator) ContractState() contract.ContractState {
	state := contract.ContractState{
		ContractID: g.ContractID(),
		Ticker:     g.String(),
		Name:       g.String(),
		Precision:  uint8(g.rnd.Intn(19)),
		Issued:     g.rnd.Uint64(),
	}

	for i := g.rnd.Intn(3); i > 0; i-- {
		state.Owned = append(state.Owned, contract.OwnedState{
			Seal:       g.OutPoint(),
			Amount:     g.rnd.Uint64(),
			Transition: contract.TransitionType(g.rnd.Intn(5)),
		})
	}

	return state
}

// Success returns a random success with or without details.
func (g Generator) Success() rpc.SuccessMsg {
	if g.rnd.Intn(2) == 0 {
		return rpc.Success()
	}

	return rpc.SuccessWith(g.String())
}

// Status returns a random validation status.
func (g Generator) Status() validation.Status {
	var status validation.Status

	for i := g.rnd.Intn(3); i > 0; i-- {
		status.Failures = append(status.Failures,
			validation.NewFailure(validation.FailureKind(g.rnd.Intn(7)), g.String()))
	}

	for i := g.rnd.Intn(3); i > 0; i-- {
		status.Warnings = append(status.Warnings,
			validation.NewWarning(validation.WarningKind(g.rnd.Intn(4)), g.String()))
	}

	status.UnresolvedTxids = g.Txids()

	return status
}
