// Package contract defines the data model of the contracts handled by the
// node: the identifiers, the seals defined on Bitcoin outputs, the genesis and
// the state transitions of a contract and the consignments exchanged between
// the parties.
//
// The validation of the history is not part of this package, see the
// validation package.
package contract

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"go.dedis.ch/rgbd/fault"
	"golang.org/x/xerrors"
)

// HashSize is the size in bytes of the identifiers.
const HashSize = 32

// Txid is the identifier of a Bitcoin transaction.
type Txid [HashSize]byte

// ParseTxid returns the transaction identifier of the hexadecimal string.
func ParseTxid(text string) (Txid, error) {
	var txid Txid

	err := parseHash(text, txid[:])
	if err != nil {
		return txid, err
	}

	return txid, nil
}

// String implements fmt.Stringer. It returns the hexadecimal representation.
func (t Txid) String() string {
	return hex.EncodeToString(t[:])
}

// MarshalText implements encoding.TextMarshaler.
func (t Txid) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Txid) UnmarshalText(text []byte) error {
	return parseHash(string(text), t[:])
}

// ContractID is the identifier of a contract, computed from its genesis.
type ContractID [HashSize]byte

// ParseContractID returns the contract identifier of the hexadecimal string.
func ParseContractID(text string) (ContractID, error) {
	var id ContractID

	err := parseHash(text, id[:])
	if err != nil {
		return id, err
	}

	return id, nil
}

// String implements fmt.Stringer. It returns the hexadecimal representation.
func (id ContractID) String() string {
	return hex.EncodeToString(id[:])
}

// MarshalText implements encoding.TextMarshaler.
func (id ContractID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *ContractID) UnmarshalText(text []byte) error {
	return parseHash(string(text), id[:])
}

// Compare returns -1, 0 or 1 if the identifier is lower, equal or greater
// than the other one.
func (id ContractID) Compare(other ContractID) int {
	return bytes.Compare(id[:], other[:])
}

func parseHash(text string, out []byte) error {
	buffer, err := hex.DecodeString(text)
	if err != nil {
		return fault.NewParseError(err)
	}

	if len(buffer) != len(out) {
		return xerrors.Errorf("invalid length %d != %d", len(buffer), len(out))
	}

	copy(out, buffer)

	return nil
}

// OutPoint is a reference to an output of a Bitcoin transaction. It is the
// unit of ownership of a contract state.
type OutPoint struct {
	_ struct{} `cbor:",toarray"`

	Txid Txid
	Vout uint32
}

// NewOutPoint returns a new outpoint.
func NewOutPoint(txid Txid, vout uint32) OutPoint {
	return OutPoint{Txid: txid, Vout: vout}
}

// ParseOutPoint returns the outpoint of a "<txid>:<vout>" string.
func ParseOutPoint(text string) (OutPoint, error) {
	parts := strings.Split(text, ":")
	if len(parts) != 2 {
		return OutPoint{}, xerrors.Errorf("malformed outpoint '%s'", text)
	}

	txid, err := ParseTxid(parts[0])
	if err != nil {
		return OutPoint{}, xerrors.Errorf("invalid txid: %v", err)
	}

	vout, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return OutPoint{}, xerrors.Errorf("invalid vout: %v", fault.NewParseError(err))
	}

	return NewOutPoint(txid, uint32(vout)), nil
}

// Compare returns -1, 0 or 1 if the outpoint is lower, equal or greater than
// the other one. Outpoints are ordered by txid, then by vout.
func (o OutPoint) Compare(other OutPoint) int {
	cmp := bytes.Compare(o.Txid[:], other.Txid[:])
	if cmp != 0 {
		return cmp
	}

	switch {
	case o.Vout < other.Vout:
		return -1
	case o.Vout > other.Vout:
		return 1
	default:
		return 0
	}
}

// String implements fmt.Stringer.
func (o OutPoint) String() string {
	return fmt.Sprintf("%v:%d", o.Txid, o.Vout)
}

// MarshalText implements encoding.TextMarshaler.
func (o OutPoint) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *OutPoint) UnmarshalText(text []byte) error {
	out, err := ParseOutPoint(string(text))
	if err != nil {
		return err
	}

	*o = out

	return nil
}

// Chain is the Bitcoin network of a contract.
type Chain string

const (
	// Mainnet is the Bitcoin main network.
	Mainnet Chain = "mainnet"
	// Testnet is the Bitcoin test network.
	Testnet Chain = "testnet"
	// Signet is the Bitcoin signet network.
	Signet Chain = "signet"
	// Regtest is a Bitcoin regression test network.
	Regtest Chain = "regtest"
)

// ParseChain returns the chain of the name. It accepts the common aliases of
// the networks.
func ParseChain(name string) (Chain, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "mainnet", "bitcoin", "main":
		return Mainnet, nil
	case "testnet", "testnet3", "test":
		return Testnet, nil
	case "signet":
		return Signet, nil
	case "regtest":
		return Regtest, nil
	default:
		return "", xerrors.Errorf("unknown network '%s'", name)
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Chain) UnmarshalText(text []byte) error {
	chain, err := ParseChain(string(text))
	if err != nil {
		return err
	}

	*c = chain

	return nil
}

// TransitionType is the type of a state transition of a contract.
type TransitionType uint16

const (
	// TransitionTransfer moves the assets to new seals.
	TransitionTransfer TransitionType = iota + 1
	// TransitionReissue issues new assets under the reissue control.
	TransitionReissue
	// TransitionBurn destroys assets.
	TransitionBurn
	// TransitionRename changes the nomination of the asset.
	TransitionRename
)

// String implements fmt.Stringer.
func (t TransitionType) String() string {
	switch t {
	case TransitionTransfer:
		return "transfer"
	case TransitionReissue:
		return "reissue"
	case TransitionBurn:
		return "burn"
	case TransitionRename:
		return "rename"
	default:
		return fmt.Sprintf("transition(%d)", uint16(t))
	}
}

// Known returns true if the type is defined by the schema of the node.
func (t TransitionType) Known() bool {
	return t >= TransitionTransfer && t <= TransitionRename
}
