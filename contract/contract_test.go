package contract

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenesis_ContractID(t *testing.T) {
	genesis := makeGenesis()

	first, err := genesis.ContractID()
	require.NoError(t, err)

	second, err := genesis.ContractID()
	require.NoError(t, err)
	require.Equal(t, first, second)

	genesis.Ticker = "USDX"

	third, err := genesis.ContractID()
	require.NoError(t, err)
	require.NotEqual(t, first, third)
}

func TestContract_State(t *testing.T) {
	c := makeContract(t)

	state := c.State()
	require.Equal(t, c.ID, state.ContractID)
	require.Equal(t, uint64(150), state.Issued)
	require.Equal(t, uint64(150), state.Balance())
	require.Equal(t, []OwnedState{
		{Seal: NewOutPoint(Txid{1}, 1), Amount: 50},
		{Seal: NewOutPoint(Txid{9}, 0), Amount: 60, Transition: TransitionTransfer},
		{Seal: NewOutPoint(Txid{9}, 1), Amount: 40, Transition: TransitionTransfer},
	}, state.Owned)
}

func TestContract_Filter(t *testing.T) {
	c := makeContract(t)

	o1 := NewOutPoint(Txid{9}, 0)

	res := c.Filter(nil, func(op OutPoint) bool { return op == o1 })
	require.Empty(t, res.Genesis.Assignments)
	require.Len(t, res.Transitions, 1)
	require.Equal(t, []Assignment{{Seal: o1, Amount: 60}}, res.Transitions[0].Outputs)

	// The original contract is untouched.
	require.Len(t, c.Genesis.Assignments, 2)
	require.Len(t, c.Transitions[0].Outputs, 2)

	res = c.Filter([]TransitionType{TransitionBurn}, nil)
	require.Len(t, res.Genesis.Assignments, 2)
	require.Empty(t, res.Transitions)

	res = c.Filter([]TransitionType{TransitionTransfer}, nil)
	require.Len(t, res.Transitions, 1)
}

func TestContract_Merge(t *testing.T) {
	c := makeContract(t)

	transitions := append([]Transition{}, c.Transitions...)
	transitions = append(transitions, Transition{
		Type:    TransitionBurn,
		Inputs:  []OutPoint{NewOutPoint(Txid{9}, 1)},
		Witness: Txid{10},
	})

	added := c.Merge(transitions)
	require.Equal(t, 1, added)
	require.Len(t, c.Transitions, 2)

	require.Equal(t, 0, c.Merge(transitions))
	require.Equal(t, uint64(110), c.State().Balance())
}

func TestConsignment_Txids(t *testing.T) {
	c := makeContract(t)
	c.Transitions = append(c.Transitions, c.Transitions[0], Transition{Witness: Txid{3}})

	consignment := NewTransferConsignment(c, []OutPoint{NewOutPoint(Txid{9}, 0)})
	require.Equal(t, TransferConsignment, consignment.Kind)
	require.Equal(t, []Txid{{9}, {3}}, consignment.Txids())

	require.Equal(t, "contract", NewContractConsignment(c).Kind.String())
	require.Equal(t, "consignment(5)", ConsignmentKind(5).String())
}

func TestAmounts_Overflow(t *testing.T) {
	sum, err := AddAmount(math.MaxUint64-1, 1)
	require.NoError(t, err)
	require.Equal(t, uint64(math.MaxUint64), sum)

	_, err = AddAmount(math.MaxUint64, 1)
	require.ErrorIs(t, err, ErrAmountOverflow)

	list := []Assignment{{Amount: math.MaxUint64}, {Amount: 2}}

	_, err = SumAssignments(list)
	require.ErrorIs(t, err, ErrAmountOverflow)

	tr := Transition{Outputs: list}
	require.Equal(t, uint64(math.MaxUint64), tr.OutputAmount())

	genesis := Genesis{Assignments: list}
	require.Equal(t, uint64(math.MaxUint64), genesis.IssuedAmount())

	state := ContractState{Owned: []OwnedState{{Amount: math.MaxUint64}, {Amount: 1}}}
	require.Equal(t, uint64(math.MaxUint64), state.Balance())
}

// -----------------------------------------------------------------------------
// Utility functions

func makeGenesis() Genesis {
	return Genesis{
		Network:   Mainnet,
		Ticker:    "USDT",
		Name:      "Test",
		Precision: 2,
		Assignments: []Assignment{
			{Seal: NewOutPoint(Txid{1}, 0), Amount: 100},
			{Seal: NewOutPoint(Txid{1}, 1), Amount: 50},
		},
	}
}

func makeContract(t *testing.T) Contract {
	c, err := NewContract(makeGenesis())
	require.NoError(t, err)

	c.Transitions = []Transition{
		{
			Type:   TransitionTransfer,
			Inputs: []OutPoint{NewOutPoint(Txid{1}, 0)},
			Outputs: []Assignment{
				{Seal: NewOutPoint(Txid{9}, 0), Amount: 60},
				{Seal: NewOutPoint(Txid{9}, 1), Amount: 40},
			},
			Witness: Txid{9},
		},
	}

	return c
}
