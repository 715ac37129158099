package contract

import "fmt"

// ConsignmentKind is the kind of a consignment.
type ConsignmentKind uint8

const (
	// ContractConsignment is the consignment of a whole contract, sent by the
	// issuer to distribute it.
	ContractConsignment ConsignmentKind = iota
	// TransferConsignment is the consignment of the history leading to the
	// endpoints of a transfer.
	TransferConsignment
)

// String implements fmt.Stringer.
func (k ConsignmentKind) String() string {
	switch k {
	case ContractConsignment:
		return "contract"
	case TransferConsignment:
		return "transfer"
	default:
		return fmt.Sprintf("consignment(%d)", uint8(k))
	}
}

// Consignment is a self-contained bundle of the history of a contract that a
// party can validate independently. The endpoints are the seals of the
// consignment that are meant for the receiver.
type Consignment struct {
	_ struct{} `cbor:",toarray"`

	Kind      ConsignmentKind `json:"kind"`
	Contract  Contract        `json:"contract"`
	Endpoints []OutPoint      `json:"endpoints,omitempty"`
}

// NewContractConsignment returns the consignment of the whole contract.
func NewContractConsignment(c Contract) Consignment {
	return Consignment{
		Kind:     ContractConsignment,
		Contract: c,
	}
}

// NewTransferConsignment returns the consignment of the contract history
// leading to the endpoints.
func NewTransferConsignment(c Contract, endpoints []OutPoint) Consignment {
	return Consignment{
		Kind:      TransferConsignment,
		Contract:  c,
		Endpoints: endpoints,
	}
}

// Txids returns the witness transactions of the history, in order of
// appearance and without duplicates.
func (c Consignment) Txids() []Txid {
	seen := make(map[Txid]struct{})
	var txids []Txid

	for _, t := range c.Contract.Transitions {
		if _, found := seen[t.Witness]; found {
			continue
		}

		seen[t.Witness] = struct{}{}
		txids = append(txids, t.Witness)
	}

	return txids
}
