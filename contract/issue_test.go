package contract

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIssueStructure_JSON(t *testing.T) {
	var single IssueStructure
	require.NoError(t, json.Unmarshal([]byte(`"SingleIssue"`), &single))
	require.Equal(t, SingleIssue, single.Kind)

	data, err := json.Marshal(single)
	require.NoError(t, err)
	require.Equal(t, `"SingleIssue"`, string(data))

	var multiple IssueStructure
	err = json.Unmarshal([]byte(`{"MultipleIssues":{"max_supply":1000,`+
		`"reissue_control":{"vout":1}}}`), &multiple)
	require.NoError(t, err)
	require.Equal(t, MultipleIssues, multiple.Kind)
	require.Equal(t, float64(1000), multiple.MaxSupply)
	require.Equal(t, uint32(1), multiple.ReissueControl.Vout)

	data, err = json.Marshal(multiple)
	require.NoError(t, err)
	require.Equal(t, `{"MultipleIssues":{"max_supply":1000,"reissue_control":{"vout":1}}}`,
		string(data))

	err = json.Unmarshal([]byte(`"Other"`), &single)
	require.EqualError(t, err, "unknown issue structure 'Other'")

	err = json.Unmarshal([]byte(`{}`), &single)
	require.EqualError(t, err, "invalid issue structure: missing variant")

	err = json.Unmarshal([]byte(`{"Unknown":{}}`), &single)
	require.Error(t, err)

	_, err = json.Marshal(IssueStructure{Kind: 5})
	require.Error(t, err)
}

func TestCoinsToAmount(t *testing.T) {
	amount, err := CoinsToAmount(12.34, 2)
	require.NoError(t, err)
	require.Equal(t, uint64(1234), amount)

	amount, err = Allocation{Coins: 7}.Amount(0)
	require.NoError(t, err)
	require.Equal(t, uint64(7), amount)

	_, err = CoinsToAmount(-1, 2)
	require.EqualError(t, err, "invalid amount of coins -1")

	_, err = CoinsToAmount(math.NaN(), 2)
	require.Error(t, err)

	_, err = CoinsToAmount(1.234, 2)
	require.EqualError(t, err, "amount of coins 1.234 exceeds the precision 2")

	_, err = CoinsToAmount(1, 19)
	require.EqualError(t, err, "precision 19 is too large")

	_, err = CoinsToAmount(1e30, 0)
	require.EqualError(t, err, "amount of coins 1e+30 overflows")
}

func TestSealSpec_OutPoint(t *testing.T) {
	txid := Txid{4}

	require.Equal(t, NewOutPoint(Txid{7}, 1), SealSpec{Vout: 1}.OutPoint(Txid{7}))
	require.Equal(t, NewOutPoint(txid, 2), SealSpec{Vout: 2, Txid: &txid}.OutPoint(Txid{7}))
}
