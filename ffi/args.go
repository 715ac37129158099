package ffi

import (
	"go.dedis.ch/rgbd/contract"
	"go.dedis.ch/rgbd/node"
	"go.dedis.ch/rgbd/rpc"
	"golang.org/x/xerrors"
)

// IssueArgs is the JSON argument of the issuance. The mandatory fields are
// pointers so that a missing field is reported instead of being silently
// zeroed.
type IssueArgs struct {
	Network        *contract.Chain          `json:"network"`
	Ticker         *string                  `json:"ticker"`
	Name           *string                  `json:"name"`
	Description    *string                  `json:"description"`
	IssueStructure *contract.IssueStructure `json:"issue_structure"`
	Allocations    []contract.Allocation    `json:"allocations"`
	Precision      *uint8                   `json:"precision"`
	PruneSeals     []contract.SealSpec      `json:"prune_seals"`
	DustLimit      *uint64                  `json:"dust_limit"`
}

// Request returns the issuance request of the arguments.
func (a IssueArgs) Request() (node.IssueRequest, error) {
	switch {
	case a.Network == nil:
		return node.IssueRequest{}, missingField("network")
	case a.Ticker == nil:
		return node.IssueRequest{}, missingField("ticker")
	case a.Name == nil:
		return node.IssueRequest{}, missingField("name")
	case a.IssueStructure == nil:
		return node.IssueRequest{}, missingField("issue_structure")
	case a.Precision == nil:
		return node.IssueRequest{}, missingField("precision")
	}

	req := node.IssueRequest{
		Network:        *a.Network,
		Ticker:         *a.Ticker,
		Name:           *a.Name,
		IssueStructure: *a.IssueStructure,
		Allocations:    a.Allocations,
		Precision:      *a.Precision,
		PruneSeals:     a.PruneSeals,
	}

	if a.Description != nil {
		req.Description = *a.Description
	}

	if a.DustLimit != nil {
		req.DustLimit = *a.DustLimit
	}

	return req, nil
}

// ContractArgs is the JSON argument of the queries of a contract. When no
// outpoint is given, the whole state is disclosed.
type ContractArgs struct {
	ContractID contract.ContractID       `json:"contract_id"`
	Include    []contract.TransitionType `json:"include"`
	Outpoints  []contract.OutPoint       `json:"outpoints"`
}

// Request returns the contract request of the arguments.
func (a ContractArgs) Request() rpc.ContractReq {
	selection := rpc.AllOutpoints()
	if len(a.Outpoints) > 0 {
		selection = rpc.Spending(a.Outpoints...)
	}

	return rpc.NewContractReq(a.ContractID, a.Include, selection)
}

// AcceptArgs is the JSON argument of the acceptances.
type AcceptArgs struct {
	Consignment contract.Consignment `json:"consignment"`
	Force       bool                 `json:"force"`
}

// ConsignArgs is the JSON argument of the transfer consignment.
type ConsignArgs struct {
	ContractID contract.ContractID `json:"contract_id"`
	Endpoints  []contract.OutPoint `json:"endpoints"`
}

func missingField(name string) error {
	return xerrors.Errorf("missing field `%s`", name)
}
