package validation

import (
	"sync"

	"go.dedis.ch/rgbd/contract"
)

// TrustingResolver is a resolver that considers every transaction as mined. It
// is used when the node is not connected to a Bitcoin indexer.
//
// - implements validation.TxResolver
type TrustingResolver struct{}

// IsMined implements validation.TxResolver. It always returns true.
func (TrustingResolver) IsMined(contract.Txid) (bool, error) {
	return true, nil
}

// SetResolver is a resolver backed by a set of known transactions.
//
// - implements validation.TxResolver
type SetResolver struct {
	sync.Mutex
	txids map[contract.Txid]struct{}
}

// NewSetResolver returns a resolver that knows the transactions.
func NewSetResolver(txids ...contract.Txid) *SetResolver {
	r := &SetResolver{
		txids: make(map[contract.Txid]struct{}),
	}

	r.Add(txids...)

	return r
}

// Add registers the transactions as mined.
func (r *SetResolver) Add(txids ...contract.Txid) {
	r.Lock()
	defer r.Unlock()

	for _, txid := range txids {
		r.txids[txid] = struct{}{}
	}
}

// IsMined implements validation.TxResolver. It returns true if the
// transaction has been added.
func (r *SetResolver) IsMined(txid contract.Txid) (bool, error) {
	r.Lock()
	defer r.Unlock()

	_, found := r.txids[txid]

	return found, nil
}

// ResolverError is the error returned when the resolver cannot tell if a
// transaction is mined.
//
// - implements error
type ResolverError struct {
	Txid contract.Txid
	Err  error
}

// Error implements error.
func (e ResolverError) Error() string {
	return "couldn't resolve " + e.Txid.String() + ": " + e.Err.Error()
}

// Unwrap returns the error of the resolver.
func (e ResolverError) Unwrap() error {
	return e.Err
}
