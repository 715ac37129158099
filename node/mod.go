// Package node implements the runtime of the node, which owns the stash and
// the validation engine and exposes the operations on the contracts.
//
// The runtime is shared by the bus service and the boundary entry points. It
// carries its own lock so that it can be called concurrently.
package node

import (
	"fmt"

	"go.dedis.ch/rgbd/contract"
	"go.dedis.ch/rgbd/fault"
	"go.dedis.ch/rgbd/validation"
)

// Progress is a callback to report the progress of an operation. It can be
// nil.
type Progress func(text string)

func (p Progress) report(format string, args ...interface{}) {
	if p != nil {
		p(fmt.Sprintf(format, args...))
	}
}

// IssueRequest is the set of parameters to issue a new asset.
type IssueRequest struct {
	Network        contract.Chain
	Ticker         string
	Name           string
	Description    string
	IssueStructure contract.IssueStructure
	Allocations    []contract.Allocation
	Precision      uint8
	PruneSeals     []contract.SealSpec
	DustLimit      uint64
}

// ValidityKind is the outcome of the acceptance of a consignment.
type ValidityKind uint8

const (
	// ContractValid means the consignment has been accepted.
	ContractValid ValidityKind = iota
	// ContractInvalid means the consignment has been refused by the
	// validation.
	ContractInvalid
	// ContractUnknownTxids means the consignment depends on transactions
	// that are not known yet.
	ContractUnknownTxids
)

// String implements fmt.Stringer.
func (k ValidityKind) String() string {
	switch k {
	case ContractValid:
		return "valid"
	case ContractInvalid:
		return "invalid"
	case ContractUnknownTxids:
		return "unknown txids"
	default:
		return fmt.Sprintf("validity(%d)", uint8(k))
	}
}

// ContractValidity is the result of the acceptance of a consignment. The
// status is set when the consignment is invalid, and the txids are set when
// some are unknown.
type ContractValidity struct {
	Kind   ValidityKind       `json:"kind"`
	Status *validation.Status `json:"status,omitempty"`
	Txids  []contract.Txid    `json:"txids,omitempty"`
}

// Valid returns the validity of an accepted consignment.
func Valid() ContractValidity {
	return ContractValidity{Kind: ContractValid}
}

// Invalid returns the validity of a refused consignment.
func Invalid(status validation.Status) ContractValidity {
	return ContractValidity{Kind: ContractInvalid, Status: &status}
}

// UnknownTxids returns the validity of a consignment with unknown
// transactions.
func UnknownTxids(txids []contract.Txid) ContractValidity {
	return ContractValidity{Kind: ContractUnknownTxids, Txids: txids}
}

// Error is an error of the runtime. It holds the service error it reduces to
// so that it can be reported across a boundary.
//
// - implements error
type Error struct {
	Service fault.ServiceError
	Err     error
}

// Error implements error.
func (e Error) Error() string {
	return e.Err.Error()
}

// Unwrap returns the service error.
func (e Error) Unwrap() error {
	return e.Service
}

func newError(domain fault.Domain, source fault.Source, err error) Error {
	return Error{
		Service: fault.NewServiceError(domain, source),
		Err:     err,
	}
}

func apiError(err fault.APIError) Error {
	return Error{
		Service: fault.FromAPI(err, fault.Broker()),
		Err:     err,
	}
}
