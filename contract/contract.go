package contract

import (
	"crypto/sha256"
	"math"
	"math/bits"
	"sort"

	"go.dedis.ch/rgbd/serde/cbor"
	"golang.org/x/xerrors"
)

// ErrAmountOverflow is returned when a sum of amounts does not fit in 64 bits.
var ErrAmountOverflow = xerrors.New("amount overflow")

// Assignment is an amount of the asset owned by a single-use seal.
type Assignment struct {
	_ struct{} `cbor:",toarray"`

	Seal   OutPoint `json:"seal"`
	Amount uint64   `json:"amount"`
}

// Transition is a state transition of a contract. It closes the seals of the
// inputs in the witness transaction and assigns the amounts to new seals.
type Transition struct {
	_ struct{} `cbor:",toarray"`

	Type    TransitionType `json:"type"`
	Inputs  []OutPoint     `json:"inputs"`
	Outputs []Assignment   `json:"outputs"`
	Witness Txid           `json:"witness"`
}

// Touches returns true if one of the inputs or the outputs of the transition
// satisfies the predicate.
func (t Transition) Touches(fn func(OutPoint) bool) bool {
	for _, input := range t.Inputs {
		if fn(input) {
			return true
		}
	}

	for _, output := range t.Outputs {
		if fn(output.Seal) {
			return true
		}
	}

	return false
}

// OutputAmount returns the sum of the amounts assigned by the transition. It
// saturates if the sum does not fit in 64 bits.
func (t Transition) OutputAmount() uint64 {
	return saturate(SumAssignments(t.Outputs))
}

// Genesis is the initial state of a contract. The contract identifier is
// derived from it.
type Genesis struct {
	_ struct{} `cbor:",toarray"`

	Network        Chain          `json:"network"`
	Ticker         string         `json:"ticker"`
	Name           string         `json:"name"`
	Description    string         `json:"description,omitempty"`
	Precision      uint8          `json:"precision"`
	IssueStructure IssueStructure `json:"issue_structure"`
	Assignments    []Assignment   `json:"assignments"`
	PruneSeals     []SealSpec     `json:"prune_seals,omitempty"`
	DustLimit      uint64         `json:"dust_limit,omitempty"`
}

// ContractID returns the identifier of the contract of the genesis, which is
// the hash of its canonical encoding.
func (g Genesis) ContractID() (ContractID, error) {
	data, err := cbor.Marshal(g)
	if err != nil {
		return ContractID{}, xerrors.Errorf("couldn't encode genesis: %v", err)
	}

	return ContractID(sha256.Sum256(data)), nil
}

// IssuedAmount returns the total amount assigned in the genesis. It saturates
// if the sum does not fit in 64 bits.
func (g Genesis) IssuedAmount() uint64 {
	return saturate(SumAssignments(g.Assignments))
}

// Contract is the genesis of a contract alongside the known history of state
// transitions.
type Contract struct {
	_ struct{} `cbor:",toarray"`

	ID          ContractID   `json:"id"`
	Genesis     Genesis      `json:"genesis"`
	Transitions []Transition `json:"transitions"`
}

// NewContract returns the contract of the genesis.
func NewContract(genesis Genesis) (Contract, error) {
	id, err := genesis.ContractID()
	if err != nil {
		return Contract{}, err
	}

	c := Contract{
		ID:      id,
		Genesis: genesis,
	}

	return c, nil
}

// Filter returns a copy of the contract where only the transitions of the
// included types are kept, if any type is provided. Only the assignments with
// a seal accepted by the predicate are disclosed, and the transitions without
// any disclosed assignment are dropped.
func (c Contract) Filter(include []TransitionType, selects func(OutPoint) bool) Contract {
	types := make(map[TransitionType]struct{}, len(include))
	for _, typ := range include {
		types[typ] = struct{}{}
	}

	res := Contract{
		ID:      c.ID,
		Genesis: c.Genesis,
	}

	res.Genesis.Assignments = filterAssignments(c.Genesis.Assignments, selects)

	for _, transition := range c.Transitions {
		if len(types) > 0 {
			_, found := types[transition.Type]
			if !found {
				continue
			}
		}

		outputs := filterAssignments(transition.Outputs, selects)
		if len(outputs) == 0 {
			continue
		}

		t := transition
		t.Outputs = outputs

		res.Transitions = append(res.Transitions, t)
	}

	return res
}

// Merge appends to the contract the transitions of the other history that are
// not known yet. It returns the number of new transitions.
func (c *Contract) Merge(transitions []Transition) int {
	known := make(map[Txid][]Transition)
	for _, t := range c.Transitions {
		known[t.Witness] = append(known[t.Witness], t)
	}

	added := 0

	for _, t := range transitions {
		if containsTransition(known[t.Witness], t) {
			continue
		}

		c.Transitions = append(c.Transitions, t)
		known[t.Witness] = append(known[t.Witness], t)
		added++
	}

	return added
}

// Assignments returns the index of every assignment of the history by seal.
func (c Contract) Assignments() map[OutPoint]OwnedState {
	index := make(map[OutPoint]OwnedState)

	for _, a := range c.Genesis.Assignments {
		index[a.Seal] = OwnedState{Seal: a.Seal, Amount: a.Amount}
	}

	for _, t := range c.Transitions {
		for _, a := range t.Outputs {
			index[a.Seal] = OwnedState{Seal: a.Seal, Amount: a.Amount, Transition: t.Type}
		}
	}

	return index
}

// State returns the state of the contract, made of the assignments whose
// seals have not been closed yet.
func (c Contract) State() ContractState {
	spent := make(map[OutPoint]struct{})
	for _, t := range c.Transitions {
		for _, input := range t.Inputs {
			spent[input] = struct{}{}
		}
	}

	state := ContractState{
		ContractID: c.ID,
		Ticker:     c.Genesis.Ticker,
		Name:       c.Genesis.Name,
		Precision:  c.Genesis.Precision,
		Issued:     c.Genesis.IssuedAmount(),
	}

	for seal, owned := range c.Assignments() {
		if _, found := spent[seal]; found {
			continue
		}

		state.Owned = append(state.Owned, owned)
	}

	sort.Slice(state.Owned, func(i, j int) bool {
		return state.Owned[i].Seal.Compare(state.Owned[j].Seal) < 0
	})

	return state
}

// OwnedState is an amount owned by a seal of a contract.
type OwnedState struct {
	_ struct{} `cbor:",toarray"`

	Seal   OutPoint `json:"seal"`
	Amount uint64   `json:"amount"`
	// Transition is the type of the transition that assigned the amount, or
	// zero for the genesis.
	Transition TransitionType `json:"transition,omitempty"`
}

// ContractState is the state of a contract that is not spent yet.
type ContractState struct {
	_ struct{} `cbor:",toarray"`

	ContractID ContractID   `json:"contract_id"`
	Ticker     string       `json:"ticker"`
	Name       string       `json:"name"`
	Precision  uint8        `json:"precision"`
	Issued     uint64       `json:"issued"`
	Owned      []OwnedState `json:"owned"`
}

// Balance returns the sum of the owned amounts. It saturates if the sum does
// not fit in 64 bits.
func (s ContractState) Balance() uint64 {
	sum := uint64(0)

	for _, owned := range s.Owned {
		var err error

		sum, err = AddAmount(sum, owned.Amount)
		if err != nil {
			return math.MaxUint64
		}
	}

	return sum
}

// AddAmount returns the sum of two amounts, or ErrAmountOverflow if it does not
// fit in 64 bits.
func AddAmount(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, ErrAmountOverflow
	}

	return sum, nil
}

// SumAssignments returns the sum of the amounts of the assignments, or
// ErrAmountOverflow if it does not fit in 64 bits.
func SumAssignments(list []Assignment) (uint64, error) {
	sum := uint64(0)

	for _, a := range list {
		var err error

		sum, err = AddAmount(sum, a.Amount)
		if err != nil {
			return 0, err
		}
	}

	return sum, nil
}

func saturate(sum uint64, err error) uint64 {
	if err != nil {
		return math.MaxUint64
	}

	return sum
}

func filterAssignments(list []Assignment, selects func(OutPoint) bool) []Assignment {
	var res []Assignment

	for _, a := range list {
		if selects == nil || selects(a.Seal) {
			res = append(res, a)
		}
	}

	return res
}

func containsTransition(list []Transition, t Transition) bool {
	for _, other := range list {
		if transitionEqual(other, t) {
			return true
		}
	}

	return false
}

func transitionEqual(a, b Transition) bool {
	if a.Type != b.Type || a.Witness != b.Witness ||
		len(a.Inputs) != len(b.Inputs) || len(a.Outputs) != len(b.Outputs) {
		return false
	}

	for i := range a.Inputs {
		if a.Inputs[i] != b.Inputs[i] {
			return false
		}
	}

	for i := range a.Outputs {
		if a.Outputs[i] != b.Outputs[i] {
			return false
		}
	}

	return true
}
