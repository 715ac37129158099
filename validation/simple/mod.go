// Package simple implements a validation engine that checks the structure of
// the history of a contract: the seals must be assigned before being closed,
// closed only once and the amounts must be balanced according to the type of
// the transition.
package simple

import (
	"go.dedis.ch/rgbd/contract"
	"go.dedis.ch/rgbd/validation"
	"golang.org/x/xerrors"
)

// Engine is a validation engine of the consignments.
//
// - implements validation.Engine
type Engine struct{}

// NewEngine returns a new validation engine.
func NewEngine() Engine {
	return Engine{}
}

// Validate implements validation.Engine. It walks through the history of the
// consignment in order and returns the status of the validation. An error is
// returned if the consignment is malformed or if the resolver fails.
func (e Engine) Validate(network contract.Chain, c contract.Consignment,
	r validation.TxResolver) (validation.Status, error) {

	err := checkStructure(c)
	if err != nil {
		return validation.Status{}, xerrors.Errorf("malformed consignment: %v", err)
	}

	genesis := c.Contract.Genesis

	state := newHistory(genesis)

	if genesis.Network != network {
		state.fail(validation.NetworkMismatch, "contract on %s, node on %s",
			genesis.Network, network)
	}

	for _, a := range genesis.Assignments {
		state.assign(a)
	}

	for i, t := range c.Contract.Transitions {
		state.apply(i, t)

		err := state.resolve(t.Witness, r)
		if err != nil {
			return validation.Status{}, err
		}
	}

	for _, endpoint := range c.Endpoints {
		if _, found := state.assigned[endpoint]; !found {
			state.warn(validation.UnknownEndpoint, "endpoint %v", endpoint)
		}
	}

	return state.status, nil
}

func checkStructure(c contract.Consignment) error {
	if c.Kind != contract.ContractConsignment && c.Kind != contract.TransferConsignment {
		return xerrors.Errorf("unknown kind %v", c.Kind)
	}

	if c.Kind == contract.TransferConsignment && len(c.Endpoints) == 0 {
		return xerrors.New("transfer without endpoints")
	}

	genesis := c.Contract.Genesis

	if genesis.Ticker == "" {
		return xerrors.New("genesis without ticker")
	}

	if len(genesis.Assignments) == 0 {
		return xerrors.New("genesis without assignment")
	}

	id, err := genesis.ContractID()
	if err != nil {
		return xerrors.Errorf("couldn't compute contract id: %v", err)
	}

	if id != c.Contract.ID {
		return xerrors.Errorf("contract id mismatch: %v != %v", c.Contract.ID, id)
	}

	return nil
}
