// Package stash defines the persistent storage of the contracts known by the
// node.
package stash

import (
	"go.dedis.ch/rgbd/contract"
	"golang.org/x/xerrors"
)

// ErrNotFound is the error returned when a contract is not in the stash.
var ErrNotFound = xerrors.New("contract not found")

// Stash is the interface of the storage of the contracts.
type Stash interface {
	// Store saves the contract. If the contract is already known, the new
	// transitions are merged into its history. It returns the number of new
	// transitions.
	Store(c contract.Contract) (int, error)

	// Get returns the contract of the identifier, or ErrNotFound.
	Get(id contract.ContractID) (contract.Contract, error)

	// Has returns true if the contract is known.
	Has(id contract.ContractID) (bool, error)

	// List returns the identifiers of the known contracts in ascending order.
	List() ([]contract.ContractID, error)

	// Close releases the resources of the stash.
	Close() error
}
