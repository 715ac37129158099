package simple

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/rgbd/contract"
	"go.dedis.ch/rgbd/internal/testing/fake"
	"go.dedis.ch/rgbd/validation"
)

func TestEngine_Validate_Valid(t *testing.T) {
	engine := NewEngine()

	c := makeContract(t, contract.Transition{
		Type:    contract.TransitionTransfer,
		Inputs:  []contract.OutPoint{seal(1, 0)},
		Outputs: []contract.Assignment{{Seal: seal(2, 0), Amount: 100}},
		Witness: contract.Txid{2},
	})

	consignment := contract.NewTransferConsignment(c, []contract.OutPoint{seal(2, 0)})

	status, err := engine.Validate(contract.Mainnet, consignment, validation.TrustingResolver{})
	require.NoError(t, err)
	require.Equal(t, validation.Valid, status.Validity())
}

func TestEngine_Validate_Malformed(t *testing.T) {
	engine := NewEngine()
	resolver := validation.TrustingResolver{}

	c := makeContract(t)

	_, err := engine.Validate(contract.Mainnet, contract.Consignment{Kind: 9, Contract: c}, resolver)
	require.EqualError(t, err, "malformed consignment: unknown kind consignment(9)")

	_, err = engine.Validate(contract.Mainnet, contract.NewTransferConsignment(c, nil), resolver)
	require.EqualError(t, err, "malformed consignment: transfer without endpoints")

	bad := c
	bad.ID = contract.ContractID{1}
	_, err = engine.Validate(contract.Mainnet, contract.NewContractConsignment(bad), resolver)
	require.Error(t, err)
	require.Contains(t, err.Error(), "malformed consignment: contract id mismatch")

	bad = c
	bad.Genesis.Ticker = ""
	_, err = engine.Validate(contract.Mainnet, contract.NewContractConsignment(bad), resolver)
	require.EqualError(t, err, "malformed consignment: genesis without ticker")

	bad = c
	bad.Genesis.Assignments = nil
	_, err = engine.Validate(contract.Mainnet, contract.NewContractConsignment(bad), resolver)
	require.EqualError(t, err, "malformed consignment: genesis without assignment")
}

func TestEngine_Validate_Failures(t *testing.T) {
	engine := NewEngine()
	resolver := validation.TrustingResolver{}

	c := makeContract(t,
		contract.Transition{
			Type:    contract.TransitionTransfer,
			Inputs:  []contract.OutPoint{seal(1, 0)},
			Outputs: []contract.Assignment{{Seal: seal(2, 0), Amount: 90}},
			Witness: contract.Txid{2},
		},
		contract.Transition{
			Type:    contract.TransitionTransfer,
			Inputs:  []contract.OutPoint{seal(1, 0), seal(7, 7)},
			Outputs: []contract.Assignment{{Seal: seal(3, 0), Amount: 100}},
			Witness: contract.Txid{3},
		},
		contract.Transition{
			Type:    contract.TransitionType(42),
			Witness: contract.Txid{4},
		},
		contract.Transition{
			Type:    contract.TransitionReissue,
			Outputs: []contract.Assignment{{Seal: seal(5, 0), Amount: 1}},
			Witness: contract.Txid{5},
		},
	)

	status, err := engine.Validate(contract.Testnet, contract.NewContractConsignment(c), resolver)
	require.NoError(t, err)
	require.Equal(t, validation.Invalid, status.Validity())

	kinds := make([]validation.FailureKind, len(status.Failures))
	for i, f := range status.Failures {
		kinds[i] = f.Kind
	}

	require.Equal(t, []validation.FailureKind{
		validation.NetworkMismatch,
		validation.AmountMismatch,
		validation.DoubleSpend,
		validation.UnknownSeal,
		validation.UnknownTransition,
		validation.IssueViolation,
	}, kinds)
}

func TestEngine_Validate_Overflow(t *testing.T) {
	engine := NewEngine()
	resolver := validation.TrustingResolver{}

	// The outputs wrap around to the amount of the input.
	c := makeContract(t, contract.Transition{
		Type:   contract.TransitionTransfer,
		Inputs: []contract.OutPoint{seal(1, 0)},
		Outputs: []contract.Assignment{
			{Seal: seal(2, 0), Amount: math.MaxUint64},
			{Seal: seal(2, 1), Amount: 101},
		},
		Witness: contract.Txid{2},
	})

	consignment := contract.NewTransferConsignment(c, []contract.OutPoint{seal(2, 0)})

	status, err := engine.Validate(contract.Mainnet, consignment, resolver)
	require.NoError(t, err)
	require.Equal(t, validation.Invalid, status.Validity())
	require.Equal(t, []validation.Failure{
		validation.NewFailure(validation.AmountMismatch, "transition #0: amount overflow"),
	}, status.Failures)

	genesis := makeGenesis()
	genesis.Assignments = append(genesis.Assignments,
		contract.Assignment{Seal: seal(1, 1), Amount: math.MaxUint64})

	c, err = contract.NewContract(genesis)
	require.NoError(t, err)

	status, err = engine.Validate(contract.Mainnet, contract.NewContractConsignment(c), resolver)
	require.NoError(t, err)
	require.Equal(t, validation.Invalid, status.Validity())
	require.Equal(t, []validation.Failure{
		validation.NewFailure(validation.AmountMismatch, "genesis: amount overflow"),
	}, status.Failures)
}

func TestEngine_Validate_Warnings(t *testing.T) {
	engine := NewEngine()

	genesis := makeGenesis()
	genesis.DustLimit = 10

	c, err := contract.NewContract(genesis)
	require.NoError(t, err)

	c.Transitions = []contract.Transition{
		{
			Type:   contract.TransitionTransfer,
			Inputs: []contract.OutPoint{seal(1, 0)},
			Outputs: []contract.Assignment{
				{Seal: seal(2, 0), Amount: 95},
				{Seal: seal(2, 1), Amount: 5},
			},
			Witness: contract.Txid{2},
		},
	}

	consignment := contract.NewTransferConsignment(c, []contract.OutPoint{seal(8, 0)})

	status, err := engine.Validate(contract.Mainnet, consignment, validation.TrustingResolver{})
	require.NoError(t, err)
	require.Equal(t, validation.Warned, status.Validity())
	require.Len(t, status.Warnings, 2)
	require.Equal(t, validation.DustOutput, status.Warnings[0].Kind)
	require.Equal(t, validation.UnknownEndpoint, status.Warnings[1].Kind)
}

func TestEngine_Validate_Reissue(t *testing.T) {
	engine := NewEngine()

	control := contract.Txid{6}

	genesis := makeGenesis()
	genesis.IssueStructure = contract.IssueStructure{
		Kind:           contract.MultipleIssues,
		MaxSupply:      1.5,
		ReissueControl: &contract.SealSpec{Vout: 1, Txid: &control},
	}

	c, err := contract.NewContract(genesis)
	require.NoError(t, err)

	c.Transitions = []contract.Transition{
		{
			Type:    contract.TransitionReissue,
			Inputs:  []contract.OutPoint{contract.NewOutPoint(control, 1)},
			Outputs: []contract.Assignment{{Seal: seal(2, 0), Amount: 50}},
			Witness: contract.Txid{2},
		},
	}

	status, err := engine.Validate(contract.Mainnet, contract.NewContractConsignment(c), validation.TrustingResolver{})
	require.NoError(t, err)
	require.Equal(t, validation.Valid, status.Validity())

	c.Transitions[0].Outputs[0].Amount = 51

	status, err = engine.Validate(contract.Mainnet, contract.NewContractConsignment(c), validation.TrustingResolver{})
	require.NoError(t, err)
	require.Len(t, status.Failures, 1)
	require.Equal(t, "issue violation: issued 151 exceeds the max supply 150",
		status.Failures[0].String())
}

func TestEngine_Validate_Unresolved(t *testing.T) {
	engine := NewEngine()

	c := makeContract(t,
		contract.Transition{
			Type:    contract.TransitionTransfer,
			Inputs:  []contract.OutPoint{seal(1, 0)},
			Outputs: []contract.Assignment{{Seal: seal(2, 0), Amount: 100}},
			Witness: contract.Txid{2},
		},
		contract.Transition{
			Type:    contract.TransitionBurn,
			Inputs:  []contract.OutPoint{seal(2, 0)},
			Witness: contract.Txid{3},
		},
	)

	status, err := engine.Validate(contract.Mainnet, contract.NewContractConsignment(c),
		validation.NewSetResolver(contract.Txid{2}))
	require.NoError(t, err)
	require.Equal(t, validation.UnresolvedTransactions, status.Validity())
	require.Equal(t, []contract.Txid{{3}}, status.UnresolvedTxids)

	_, err = engine.Validate(contract.Mainnet, contract.NewContractConsignment(c),
		badResolver{})
	require.EqualError(t, err, "couldn't resolve "+contract.Txid{2}.String()+": fake error")
}

// -----------------------------------------------------------------------------
// Utility functions

func seal(txid byte, vout uint32) contract.OutPoint {
	return contract.NewOutPoint(contract.Txid{txid}, vout)
}

func makeGenesis() contract.Genesis {
	return contract.Genesis{
		Network:     contract.Mainnet,
		Ticker:      "USDT",
		Name:        "Test",
		Precision:   2,
		Assignments: []contract.Assignment{{Seal: seal(1, 0), Amount: 100}},
	}
}

func makeContract(t *testing.T, transitions ...contract.Transition) contract.Contract {
	c, err := contract.NewContract(makeGenesis())
	require.NoError(t, err)

	c.Transitions = transitions

	return c
}

type badResolver struct{}

func (badResolver) IsMined(contract.Txid) (bool, error) {
	return false, fake.GetError()
}
