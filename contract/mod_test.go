package contract

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/rgbd/fault"
)

func TestTxid_Parse(t *testing.T) {
	txid, err := ParseTxid(strings.Repeat("ab", 32))
	require.NoError(t, err)
	require.Equal(t, byte(0xab), txid[31])
	require.Equal(t, strings.Repeat("ab", 32), txid.String())

	_, err = ParseTxid("zz")
	require.Equal(t, fault.ParseError{}, err)

	_, err = ParseTxid("abab")
	require.EqualError(t, err, "invalid length 2 != 32")
}

func TestContractID_Text(t *testing.T) {
	id := ContractID{1, 2, 3}

	data, err := json.Marshal(id)
	require.NoError(t, err)

	var decoded ContractID
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, id, decoded)
	require.Equal(t, 0, id.Compare(decoded))
	require.Equal(t, -1, ContractID{}.Compare(id))

	parsed, err := ParseContractID(id.String())
	require.NoError(t, err)
	require.Equal(t, id, parsed)

	_, err = ParseContractID("a")
	require.Equal(t, fault.ParseError{}, err)
}

func TestOutPoint_Parse(t *testing.T) {
	op := NewOutPoint(Txid{0xaa}, 3)

	parsed, err := ParseOutPoint(op.String())
	require.NoError(t, err)
	require.Equal(t, op, parsed)

	_, err = ParseOutPoint("abc")
	require.EqualError(t, err, "malformed outpoint 'abc'")

	_, err = ParseOutPoint("zz:1")
	require.EqualError(t, err, "invalid txid: failed to parse")

	_, err = ParseOutPoint(Txid{}.String() + ":x")
	require.EqualError(t, err, "invalid vout: failed to parse")

	var text OutPoint
	err = text.UnmarshalText([]byte(op.String()))
	require.NoError(t, err)
	require.Equal(t, op, text)
	require.Error(t, text.UnmarshalText([]byte("nope")))
}

func TestOutPoint_Compare(t *testing.T) {
	a := NewOutPoint(Txid{1}, 5)
	b := NewOutPoint(Txid{1}, 6)
	c := NewOutPoint(Txid{2}, 0)

	require.Equal(t, -1, a.Compare(b))
	require.Equal(t, 1, b.Compare(a))
	require.Equal(t, 0, a.Compare(a))
	require.Equal(t, -1, b.Compare(c))
}

func TestChain_Parse(t *testing.T) {
	for name, chain := range map[string]Chain{
		"mainnet":  Mainnet,
		"bitcoin":  Mainnet,
		"Testnet3": Testnet,
		"signet":   Signet,
		"regtest":  Regtest,
	} {
		parsed, err := ParseChain(name)
		require.NoError(t, err)
		require.Equal(t, chain, parsed)
	}

	_, err := ParseChain("liquid")
	require.EqualError(t, err, "unknown network 'liquid'")

	var chain Chain
	require.NoError(t, json.Unmarshal([]byte(`"bitcoin"`), &chain))
	require.Equal(t, Mainnet, chain)
	require.Error(t, json.Unmarshal([]byte(`"moon"`), &chain))
}

func TestTransitionType(t *testing.T) {
	require.Equal(t, "transfer", TransitionTransfer.String())
	require.Equal(t, "rename", TransitionRename.String())
	require.Equal(t, "transition(42)", TransitionType(42).String())
	require.True(t, TransitionBurn.Known())
	require.False(t, TransitionType(0).Known())
	require.False(t, TransitionType(42).Known())
}
