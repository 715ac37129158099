// Package validation defines the validation engine of the consignments
// received by the node.
//
// An engine returns an error only when the consignment is structurally
// malformed and cannot be validated at all. Otherwise it returns a status
// that lists the hard failures, the soft warnings and the witness
// transactions that could not be resolved, which is enough for the node to
// decide if a consignment is accepted.
package validation

import (
	"fmt"

	"go.dedis.ch/rgbd/contract"
)

// Validity is the summary of a validation status.
type Validity uint8

const (
	// Valid means that the consignment has no objection.
	Valid Validity = iota
	// Warned means that the consignment is valid but has warnings that
	// prevent its acceptance unless forced.
	Warned
	// UnresolvedTransactions means that some witness transactions are not
	// known yet.
	UnresolvedTransactions
	// Invalid means that the consignment has hard failures.
	Invalid
)

// String implements fmt.Stringer.
func (v Validity) String() string {
	switch v {
	case Valid:
		return "valid"
	case Warned:
		return "warned"
	case UnresolvedTransactions:
		return "unresolved transactions"
	case Invalid:
		return "invalid"
	default:
		return fmt.Sprintf("validity(%d)", uint8(v))
	}
}

// FailureKind is the kind of a hard failure.
type FailureKind uint16

const (
	// NetworkMismatch means the contract is defined on another network.
	NetworkMismatch FailureKind = iota + 1
	// UnknownTransition means a transition has a type outside of the schema.
	UnknownTransition
	// UnknownSeal means a transition spends a seal that is not assigned by
	// the history.
	UnknownSeal
	// DoubleSpend means a seal is closed by more than one transition.
	DoubleSpend
	// AmountMismatch means the inputs and the outputs of a transition are not
	// balanced.
	AmountMismatch
	// IssueViolation means a reissuance is not allowed by the issuance policy.
	IssueViolation
)

var failureNames = map[FailureKind]string{
	NetworkMismatch:   "network mismatch",
	UnknownTransition: "unknown transition",
	UnknownSeal:       "unknown seal",
	DoubleSpend:       "double spend",
	AmountMismatch:    "amount mismatch",
	IssueViolation:    "issue violation",
}

// String implements fmt.Stringer.
func (k FailureKind) String() string {
	name, found := failureNames[k]
	if !found {
		return fmt.Sprintf("failure(%d)", uint16(k))
	}

	return name
}

// Failure is a hard failure of a validation.
type Failure struct {
	_ struct{} `cbor:",toarray"`

	Kind   FailureKind `json:"kind"`
	Detail string      `json:"detail"`
}

// NewFailure returns a failure of the kind.
func NewFailure(kind FailureKind, format string, args ...interface{}) Failure {
	return Failure{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// String implements fmt.Stringer.
func (f Failure) String() string {
	return fmt.Sprintf("%v: %s", f.Kind, f.Detail)
}

// WarningKind is the kind of a soft objection.
type WarningKind uint16

const (
	// DustOutput means an assignment is below the dust limit of the
	// contract.
	DustOutput WarningKind = iota + 1
	// UnknownEndpoint means an endpoint of the consignment is not assigned
	// by the history.
	UnknownEndpoint
	// EmptyTransition means a transition assigns nothing.
	EmptyTransition
)

// String implements fmt.Stringer.
func (k WarningKind) String() string {
	switch k {
	case DustOutput:
		return "dust output"
	case UnknownEndpoint:
		return "unknown endpoint"
	case EmptyTransition:
		return "empty transition"
	default:
		return fmt.Sprintf("warning(%d)", uint16(k))
	}
}

// Warning is a soft objection of a validation.
type Warning struct {
	_ struct{} `cbor:",toarray"`

	Kind   WarningKind `json:"kind"`
	Detail string      `json:"detail"`
}

// NewWarning returns a warning of the kind.
func NewWarning(kind WarningKind, format string, args ...interface{}) Warning {
	return Warning{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// String implements fmt.Stringer.
func (w Warning) String() string {
	return fmt.Sprintf("%v: %s", w.Kind, w.Detail)
}

// Status is the outcome of the validation of a consignment.
type Status struct {
	_ struct{} `cbor:",toarray"`

	Failures        []Failure       `json:"failures,omitempty"`
	Warnings        []Warning       `json:"warnings,omitempty"`
	UnresolvedTxids []contract.Txid `json:"unresolved_txids,omitempty"`
}

// Validity returns the summary of the status. Hard failures take precedence
// over the unresolved transactions, which take precedence over the warnings.
func (s Status) Validity() Validity {
	switch {
	case len(s.Failures) > 0:
		return Invalid
	case len(s.UnresolvedTxids) > 0:
		return UnresolvedTransactions
	case len(s.Warnings) > 0:
		return Warned
	default:
		return Valid
	}
}

// String implements fmt.Stringer.
func (s Status) String() string {
	return fmt.Sprintf("%v (%d failures, %d warnings, %d unresolved)",
		s.Validity(), len(s.Failures), len(s.Warnings), len(s.UnresolvedTxids))
}

// TxResolver is the interface to implement to look up the witness
// transactions on the Bitcoin chain.
type TxResolver interface {
	// IsMined returns true if the transaction is known to be mined. It
	// returns an error if the resolver is not reachable.
	IsMined(txid contract.Txid) (bool, error)
}

// Engine is the interface of a consignment validation engine.
type Engine interface {
	// Validate returns the status of the consignment for the network, or an
	// error if the consignment is malformed.
	Validate(network contract.Chain, c contract.Consignment, r TxResolver) (Status, error)
}
