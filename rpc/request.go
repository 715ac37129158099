package rpc

import (
	"fmt"
	"sort"
	"strings"

	"go.dedis.ch/rgbd/contract"
)

// HelloReq identifies a client when it connects to the node.
type HelloReq struct {
	_ struct{} `cbor:",toarray"`

	UserAgent string
	Network   contract.Chain
}

// String implements fmt.Stringer.
func (r HelloReq) String() string {
	return fmt.Sprintf("hello(%s, %s)", r.Network, r.UserAgent)
}

// AcceptReq is a request to accept a consignment. When force is set, the
// warnings of the validation do not prevent the acceptance.
type AcceptReq struct {
	_ struct{} `cbor:",toarray"`

	Consignment contract.Consignment
	Force       bool
}

// String implements fmt.Stringer.
func (r AcceptReq) String() string {
	return fmt.Sprintf("accept(force: %t, ...)", r.Force)
}

// SelectionKind is the kind of an outpoint selection.
type SelectionKind uint8

const (
	// SelectAll selects every outpoint.
	SelectAll SelectionKind = iota
	// SelectSpending selects the outpoints of a set.
	SelectSpending
)

// OutpointSelection is a predicate over the outpoints. The zero value selects
// every outpoint.
type OutpointSelection struct {
	_ struct{} `cbor:",toarray"`

	Kind SelectionKind
	// Outpoints is sorted and without duplicates.
	Outpoints []contract.OutPoint
}

// AllOutpoints returns the selection of every outpoint.
func AllOutpoints() OutpointSelection {
	return OutpointSelection{Kind: SelectAll}
}

// Spending returns the selection of the given outpoints.
func Spending(outpoints ...contract.OutPoint) OutpointSelection {
	set := make([]contract.OutPoint, 0, len(outpoints))
	set = append(set, outpoints...)

	sort.Slice(set, func(i, j int) bool {
		return set[i].Compare(set[j]) < 0
	})

	unique := set[:0]
	for _, op := range set {
		if len(unique) == 0 || op != unique[len(unique)-1] {
			unique = append(unique, op)
		}
	}

	if len(unique) == 0 {
		unique = nil
	}

	return OutpointSelection{Kind: SelectSpending, Outpoints: unique}
}

// Includes returns true if the outpoint is selected.
func (s OutpointSelection) Includes(op contract.OutPoint) bool {
	if s.Kind == SelectAll {
		return true
	}

	i := sort.Search(len(s.Outpoints), func(i int) bool {
		return s.Outpoints[i].Compare(op) >= 0
	})

	return i < len(s.Outpoints) && s.Outpoints[i] == op
}

// Compare returns -1, 0 or 1 if the selection is lower, equal or greater than
// the other one. The selection of all outpoints is the lowest, and two sets
// are compared lexicographically.
func (s OutpointSelection) Compare(other OutpointSelection) int {
	if s.Kind != other.Kind {
		if s.Kind < other.Kind {
			return -1
		}

		return 1
	}

	for i := 0; i < len(s.Outpoints) && i < len(other.Outpoints); i++ {
		cmp := s.Outpoints[i].Compare(other.Outpoints[i])
		if cmp != 0 {
			return cmp
		}
	}

	switch {
	case len(s.Outpoints) < len(other.Outpoints):
		return -1
	case len(s.Outpoints) > len(other.Outpoints):
		return 1
	default:
		return 0
	}
}

// Key returns a string that uniquely identifies the selection, so that it can
// be used as a map key.
func (s OutpointSelection) Key() string {
	if s.Kind == SelectAll {
		return "all"
	}

	parts := make([]string, len(s.Outpoints))
	for i, op := range s.Outpoints {
		parts[i] = op.String()
	}

	return "spending[" + strings.Join(parts, ",") + "]"
}

// String implements fmt.Stringer.
func (s OutpointSelection) String() string {
	return s.Key()
}

// ContractReq is a query of the parts of the history of a contract. Only the
// transitions of the included types are returned, or all of them if the set
// is empty, and only the assignments to the selected outpoints are disclosed.
type ContractReq struct {
	_ struct{} `cbor:",toarray"`

	ContractID contract.ContractID
	// Include is sorted and without duplicates.
	Include   []contract.TransitionType
	Outpoints OutpointSelection
}

// NewContractReq returns a new contract query.
func NewContractReq(id contract.ContractID, include []contract.TransitionType,
	outpoints OutpointSelection) ContractReq {

	set := make([]contract.TransitionType, 0, len(include))
	set = append(set, include...)

	sort.Slice(set, func(i, j int) bool { return set[i] < set[j] })

	unique := set[:0]
	for _, typ := range set {
		if len(unique) == 0 || typ != unique[len(unique)-1] {
			unique = append(unique, typ)
		}
	}

	if len(unique) == 0 {
		unique = nil
	}

	return ContractReq{
		ContractID: id,
		Include:    unique,
		Outpoints:  outpoints,
	}
}

// Apply returns the parts of the contract selected by the query.
func (r ContractReq) Apply(c contract.Contract) contract.Contract {
	return c.Filter(r.Include, r.Outpoints.Includes)
}

// String implements fmt.Stringer.
func (r ContractReq) String() string {
	return fmt.Sprintf("get_contract(%v, ...)", r.ContractID)
}

// OptionDetails is the optional detail text of a success.
type OptionDetails struct {
	_ struct{} `cbor:",toarray"`

	Text  string
	Valid bool
}

// NoDetails returns empty details.
func NoDetails() OptionDetails {
	return OptionDetails{}
}

// DetailsWith returns the details made of the text.
func DetailsWith(text string) OptionDetails {
	return OptionDetails{Text: text, Valid: true}
}

// String implements fmt.Stringer. It returns an empty string when there is no
// detail.
func (d OptionDetails) String() string {
	if !d.Valid {
		return ""
	}

	return fmt.Sprintf("; \"%s\"", d.Text)
}
