package contract

import (
	"bytes"
	"encoding/json"
	"math"

	"golang.org/x/xerrors"
)

// IssueKind is the kind of issuance policy of an asset.
type IssueKind uint8

const (
	// SingleIssue forbids any secondary issuance.
	SingleIssue IssueKind = iota
	// MultipleIssues allows secondary issuances up to a maximum supply, under
	// the control of a seal.
	MultipleIssues
)

// SealSpec is the definition of a seal. When the txid is missing, the seal is
// defined on the output of the witness transaction.
type SealSpec struct {
	_ struct{} `cbor:",toarray"`

	Vout uint32 `json:"vout"`
	Txid *Txid  `json:"txid,omitempty"`
}

// OutPoint returns the outpoint of the seal, using the witness transaction
// when the seal does not define one.
func (s SealSpec) OutPoint(witness Txid) OutPoint {
	if s.Txid != nil {
		return NewOutPoint(*s.Txid, s.Vout)
	}

	return NewOutPoint(witness, s.Vout)
}

// IssueStructure is the issuance policy of an asset. In JSON, it is either the
// string "SingleIssue" or an object {"MultipleIssues": {"max_supply": ...,
// "reissue_control": {...}}}.
type IssueStructure struct {
	_ struct{} `cbor:",toarray"`

	Kind           IssueKind
	MaxSupply      float64
	ReissueControl *SealSpec
}

type multipleIssuesJSON struct {
	MaxSupply      float64  `json:"max_supply"`
	ReissueControl SealSpec `json:"reissue_control"`
}

// MarshalJSON implements json.Marshaler.
func (s IssueStructure) MarshalJSON() ([]byte, error) {
	switch s.Kind {
	case SingleIssue:
		return json.Marshal("SingleIssue")
	case MultipleIssues:
		m := multipleIssuesJSON{MaxSupply: s.MaxSupply}
		if s.ReissueControl != nil {
			m.ReissueControl = *s.ReissueControl
		}

		return json.Marshal(map[string]multipleIssuesJSON{"MultipleIssues": m})
	default:
		return nil, xerrors.Errorf("unknown issue structure %d", s.Kind)
	}
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *IssueStructure) UnmarshalJSON(data []byte) error {
	var name string
	if json.Unmarshal(data, &name) == nil {
		if name != "SingleIssue" {
			return xerrors.Errorf("unknown issue structure '%s'", name)
		}

		*s = IssueStructure{Kind: SingleIssue}

		return nil
	}

	var m struct {
		MultipleIssues *multipleIssuesJSON
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	err := dec.Decode(&m)
	if err != nil {
		return xerrors.Errorf("invalid issue structure: %v", err)
	}

	if m.MultipleIssues == nil {
		return xerrors.New("invalid issue structure: missing variant")
	}

	control := m.MultipleIssues.ReissueControl

	*s = IssueStructure{
		Kind:           MultipleIssues,
		MaxSupply:      m.MultipleIssues.MaxSupply,
		ReissueControl: &control,
	}

	return nil
}

// Allocation is an amount of coins, in units of the asset, allocated to a
// seal at issuance.
type Allocation struct {
	Coins float64 `json:"coins"`
	Vout  uint32  `json:"vout"`
	Txid  *Txid   `json:"txid,omitempty"`
}

// Amount converts the amount of coins to atomic units given the precision.
func (a Allocation) Amount(precision uint8) (uint64, error) {
	return CoinsToAmount(a.Coins, precision)
}

// CoinsToAmount converts an amount of coins to atomic units given the
// precision. It fails if the amount is negative, not finite, too large or has
// more decimals than the precision.
func CoinsToAmount(coins float64, precision uint8) (uint64, error) {
	if math.IsNaN(coins) || math.IsInf(coins, 0) || coins < 0 {
		return 0, xerrors.Errorf("invalid amount of coins %v", coins)
	}

	if precision > 18 {
		return 0, xerrors.Errorf("precision %d is too large", precision)
	}

	scaled := coins * math.Pow10(int(precision))
	if scaled >= float64(1<<62) {
		return 0, xerrors.Errorf("amount of coins %v overflows", coins)
	}

	rounded := math.Round(scaled)
	if math.Abs(rounded-scaled) > 1e-6*math.Max(1, rounded) {
		return 0, xerrors.Errorf("amount of coins %v exceeds the precision %d", coins, precision)
	}

	return uint64(rounded), nil
}
