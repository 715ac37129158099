package ffi

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/rgbd/boundary"
	"go.dedis.ch/rgbd/contract"
	"go.dedis.ch/rgbd/internal/testing/fake"
	"go.dedis.ch/rgbd/node"
	"go.dedis.ch/rgbd/stash"
	"golang.org/x/xerrors"
)

const issuePayload = `{"network":"mainnet","ticker":"USDT","name":"Test",` +
	`"issue_structure":"SingleIssue","allocations":[],"precision":2}`

func TestExports_Start(t *testing.T) {
	e := NewExports(boundary.NewTable())

	rt := start(t, e)

	h, err := e.Table().Get(rt)
	require.NoError(t, err)

	session, err := boundary.Borrow[*Session](h)
	require.NoError(t, err)
	require.Equal(t, contract.Mainnet, (*session).Runtime.Network())

	res := e.Start(`{"network":"liquid"}`)
	requireErr(t, res, "invalid config: unknown network 'liquid'")

	res = e.Start(`{"colour":"blue"}`)
	requireErr(t, res, `couldn't decode config: json: unknown field "colour"`)

	e.openStash = badOpenStash
	res = e.Start(fmt.Sprintf(`{"data_dir":%q}`, t.TempDir()))
	requireErr(t, res, fake.Err("couldn't open stash"))
}

func TestExports_Issue(t *testing.T) {
	e := NewExports(boundary.NewTable())

	rt := start(t, e)

	res := e.Issue(rt, issuePayload)
	c, err := boundary.Value[contract.Contract](res)
	require.NoError(t, err)
	require.Equal(t, "USDT", c.Genesis.Ticker)
	require.Equal(t, "Test", c.Genesis.Name)
	require.Equal(t, uint8(2), c.Genesis.Precision)
	require.Equal(t, contract.SingleIssue, c.Genesis.IssueStructure.Kind)
	require.Empty(t, c.Genesis.Assignments)

	res = e.ListContracts(rt)
	ids, err := boundary.Value[[]contract.ContractID](res)
	require.NoError(t, err)
	require.Equal(t, []contract.ContractID{c.ID}, *ids)

	res = e.Issue(rt, `{"network":"mainnet","ticker":"USDT","name":"Test",`+
		`"issue_structure":{"MultipleIssues":{"max_supply":1000,"reissue_control":{"vout":1}}},`+
		`"allocations":[{"coins":10.5,"vout":0,"txid":"`+contract.Txid{1}.String()+`"}],`+
		`"precision":2,"description":"Tether","dust_limit":5}`)
	c, err = boundary.Value[contract.Contract](res)
	require.NoError(t, err)
	require.Equal(t, "Tether", c.Genesis.Description)
	require.Equal(t, uint64(5), c.Genesis.DustLimit)
	require.Equal(t, uint64(1050), c.Genesis.IssuedAmount())
	require.Equal(t, contract.MultipleIssues, c.Genesis.IssueStructure.Kind)
}

func TestExports_BadIssue(t *testing.T) {
	e := NewExports(boundary.NewTable())

	rt := start(t, e)

	res := e.Issue(rt, `{"network":"mainnet"}`)
	requireErr(t, res, "missing field `ticker`")

	res = e.Issue(rt, `{"network":"mainnet","ticker":"USDT","name":"Test","precision":2}`)
	requireErr(t, res, "missing field `issue_structure`")

	res = e.Issue(rt, `{"network":"mainnet","ticker":"USDT","name":"Test","issue_structure":"SingleIssue"}`)
	requireErr(t, res, "missing field `precision`")

	res = e.Issue(rt, `{"ticker":"USDT"}`)
	requireErr(t, res, "missing field `network`")

	res = e.Issue(rt, `{"colour":"blue"}`)
	requireErr(t, res, `couldn't decode arguments: json: unknown field "colour"`)

	res = e.Issue(rt, `{"network":"moon"}`)
	requireErr(t, res, "couldn't decode arguments: unknown network 'moon'")

	res = e.Issue(rt, `{"network":"testnet","ticker":"USDT","name":"Test",`+
		`"issue_structure":"SingleIssue","precision":2}`)
	requireErr(t, res, `MalformedArgument { request: "issue", argument: "network" }`)

	res = e.Issue(rt+100, issuePayload)
	requireErr(t, res, fmt.Sprintf("couldn't find runtime: handle %d not found", rt+100))

	other := e.Publish(boundary.Ok("not a runtime"))

	res = e.Issue(other.ID, issuePayload)
	require.False(t, res.IsOk())

	msg, err := res.Message()
	require.NoError(t, err)
	require.Contains(t, msg, "couldn't borrow runtime: type mismatch: ")
}

func TestExports_Queries(t *testing.T) {
	e := NewExports(boundary.NewTable())

	rt := start(t, e)

	txid := contract.Txid{1}
	payload := `{"network":"mainnet","ticker":"USDT","name":"Test","issue_structure":"SingleIssue",` +
		`"allocations":[{"coins":1,"vout":0,"txid":"` + txid.String() + `"},` +
		`{"coins":2,"vout":1,"txid":"` + txid.String() + `"}],"precision":0}`

	c, err := boundary.Value[contract.Contract](e.Issue(rt, payload))
	require.NoError(t, err)

	first := contract.NewOutPoint(txid, 0)

	res := e.GetContract(rt, fmt.Sprintf(`{"contract_id":"%v","outpoints":["%v"]}`, c.ID, first))
	filtered, err := boundary.Value[contract.Contract](res)
	require.NoError(t, err)
	require.Equal(t, []contract.Assignment{{Seal: first, Amount: 1}}, filtered.Genesis.Assignments)

	res = e.GetContract(rt, fmt.Sprintf(`{"contract_id":"%v"}`, c.ID))
	whole, err := boundary.Value[contract.Contract](res)
	require.NoError(t, err)
	require.Len(t, whole.Genesis.Assignments, 2)

	res = e.GetContractState(rt, fmt.Sprintf(`{"contract_id":"%v"}`, c.ID))
	state, err := boundary.Value[contract.ContractState](res)
	require.NoError(t, err)
	require.Equal(t, uint64(3), state.Balance())

	res = e.GetContractState(rt, fmt.Sprintf(`{"contract_id":"%v"}`, contract.ContractID{9}))
	requireErr(t, res, fmt.Sprintf("unknown contract %v: contract not found", contract.ContractID{9}))

	res = e.ConsignTransfer(rt, fmt.Sprintf(`{"contract_id":"%v","endpoints":["%v"]}`, c.ID, first))
	consignment, err := boundary.Value[contract.Consignment](res)
	require.NoError(t, err)
	require.Equal(t, contract.TransferConsignment, consignment.Kind)
	require.Equal(t, []contract.OutPoint{first}, consignment.Endpoints)
}

func TestExports_Accept(t *testing.T) {
	e := NewExports(boundary.NewTable())

	rt := start(t, e)

	c, err := contract.NewContract(contract.Genesis{
		Network:     contract.Mainnet,
		Ticker:      "USDT",
		Name:        "Test",
		Precision:   2,
		Assignments: []contract.Assignment{{Seal: contract.NewOutPoint(contract.Txid{1}, 0), Amount: 100}},
		DustLimit:   500,
	})
	require.NoError(t, err)

	data, err := json.Marshal(AcceptArgs{Consignment: contract.NewContractConsignment(c)})
	require.NoError(t, err)

	validity, err := boundary.Value[node.ContractValidity](e.AcceptContract(rt, string(data)))
	require.NoError(t, err)
	require.Equal(t, node.ContractInvalid, validity.Kind)

	data, err = json.Marshal(AcceptArgs{Consignment: contract.NewContractConsignment(c), Force: true})
	require.NoError(t, err)

	validity, err = boundary.Value[node.ContractValidity](e.AcceptContract(rt, string(data)))
	require.NoError(t, err)
	require.Equal(t, node.Valid(), *validity)

	transfer := contract.NewTransferConsignment(c, []contract.OutPoint{contract.NewOutPoint(contract.Txid{1}, 0)})

	data, err = json.Marshal(AcceptArgs{Consignment: transfer, Force: true})
	require.NoError(t, err)

	validity, err = boundary.Value[node.ContractValidity](e.AcceptTransfer(rt, string(data)))
	require.NoError(t, err)
	require.Equal(t, node.Valid(), *validity)

	requireErr(t, e.AcceptTransfer(rt, "{"), "couldn't decode arguments: unexpected EOF")
	requireErr(t, e.AcceptContract(rt, "[]"),
		"couldn't decode arguments: json: cannot unmarshal array into Go value of type ffi.AcceptArgs")
}

func TestExports_Render(t *testing.T) {
	e := NewExports(boundary.NewTable())

	rt := start(t, e)

	ref := e.Publish(e.ListContracts(rt))
	require.True(t, ref.Ok)

	text, err := e.Render(ref.ID)
	require.NoError(t, err)
	require.Equal(t, "[]", text)

	_, err = e.Render(ref.ID)
	require.EqualError(t, err, fmt.Sprintf("handle %d not found", ref.ID))

	ref = e.Publish(e.Issue(rt, "{}"))
	require.False(t, ref.Ok)

	text, err = e.Render(ref.ID)
	require.NoError(t, err)
	require.Equal(t, "missing field `network`", text)

	_, err = e.Render(rt)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported payload ")

	ref = e.Publish(boundary.Err(xerrors.New("bad\x00text")))
	text, err = e.Render(ref.ID)
	require.NoError(t, err)
	require.Equal(t, NulText, text)

	ref = e.Publish(boundary.Ok(42))
	require.NoError(t, e.Free(ref.ID))
	require.Error(t, e.Free(ref.ID))
}

func TestExports_Stop(t *testing.T) {
	table := boundary.NewTable()
	e := NewExports(table)

	ref := e.Publish(e.Start(fmt.Sprintf(`{"data_dir":%q}`, t.TempDir())))
	require.True(t, ref.Ok)

	other := e.Publish(boundary.Ok("abc"))

	res := e.Stop(other.ID)
	require.False(t, res.IsOk())

	_, err := table.Get(other.ID)
	require.NoError(t, err)

	res = e.Stop(ref.ID)
	require.True(t, res.IsOk())

	text, err := e.Render(e.Publish(res).ID)
	require.NoError(t, err)
	require.Equal(t, "{}", text)

	requireErr(t, e.Stop(ref.ID), fmt.Sprintf("couldn't find runtime: handle %d not found", ref.ID))
	requireErr(t, e.ListContracts(ref.ID), fmt.Sprintf("couldn't find runtime: handle %d not found", ref.ID))
}

// -----------------------------------------------------------------------------
// Utility functions

func start(t *testing.T, e *Exports) uintptr {
	res := e.Start(fmt.Sprintf(`{"data_dir":%q,"network":"mainnet"}`, t.TempDir()))
	require.True(t, res.IsOk())

	ref := e.Publish(res)

	t.Cleanup(func() { e.Stop(ref.ID) })

	return ref.ID
}

func requireErr(t *testing.T, res boundary.Result, expected string) {
	require.False(t, res.IsOk())

	msg, err := res.Message()
	require.NoError(t, err)
	require.Equal(t, expected, msg)
}

func badOpenStash(string) (stash.Stash, error) {
	return nil, fake.GetError()
}
