package rpc

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/rgbd/contract"
	"go.dedis.ch/rgbd/fault"
	"go.dedis.ch/rgbd/internal/testing/fake"
	"go.dedis.ch/rgbd/serde"
	"go.dedis.ch/rgbd/validation"
)

func init() {
	RegisterMessageFormat(fakeFormat, fake.Format{Msg: ListContracts{}})
	RegisterMessageFormat(badFormat, fake.NewBadFormat())
	RegisterMessageFormat(weirdFormat, fake.Format{Msg: fake.Message{}})
}

const (
	fakeFormat  serde.Format = "fake"
	badFormat   serde.Format = "bad"
	weirdFormat serde.Format = "weird"
)

func TestMsgType_String(t *testing.T) {
	require.Equal(t, "hello", MsgHello.String())
	require.Equal(t, "invalid", MsgInvalid.String())
	require.Equal(t, "message(17)", MsgType(17).String())

	require.True(t, MsgHello.IsRequest())
	require.True(t, MsgAcceptTransfer.IsRequest())
	require.False(t, MsgContractIds.IsRequest())
	require.False(t, MsgInvalid.IsRequest())
}

func TestMessages_Type(t *testing.T) {
	msgs := []Message{
		Hello{}, AcceptContract{}, ListContracts{}, GetContract{}, GetContractState{},
		BlindUtxo{}, ConsignTransfer{}, AcceptTransfer{}, ContractIds{}, Contract{},
		ContractState{}, StateTransfer{}, Progress{}, SuccessMsg{}, Failure{},
		UnresolvedTxids{}, Invalid{},
	}

	for i, msg := range msgs {
		require.Equal(t, MsgType(i), msg.Type())
	}
}

func TestMessages_String(t *testing.T) {
	id := contract.ContractID{0xaa}

	require.Equal(t, "hello(mainnet, rgb-cli/0.8.0)",
		Hello{HelloReq{UserAgent: "rgb-cli/0.8.0", Network: contract.Mainnet}}.String())
	require.Equal(t, "accept(force: true, ...)",
		AcceptContract{AcceptReq{Force: true}}.String())
	require.Equal(t, "list_contracts", ListContracts{}.String())
	require.Equal(t, "get_contract("+id.String()+", ...)",
		GetContract{NewContractReq(id, nil, AllOutpoints())}.String())
	require.Equal(t, "get_contract_state("+id.String()+")", GetContractState{id}.String())
	require.Equal(t, "blind_utxo", BlindUtxo{}.String())
	require.Equal(t, "consign_transfer", ConsignTransfer{}.String())
	require.Equal(t, "accept_transfer(...)", AcceptTransfer{}.String())
	require.Equal(t, "contract_ids(...)", ContractIds{}.String())
	require.Equal(t, "contract(...)", Contract{}.String())
	require.Equal(t, "contract_state(...)", ContractState{}.String())
	require.Equal(t, "state_transfer(...)", StateTransfer{}.String())
	require.Equal(t, `progress("validating")`, NewProgress("validating").String())
	require.Equal(t, "success", Success().String())
	require.Equal(t, `success; "done"`, SuccessWith("done").String())
	require.Equal(t, "failure(oops (error code not found))",
		NewFailure(CodeNotFound, "oops").String())
	require.Equal(t, "unresolved_txids(...)", UnresolvedTxids{}.String())
	require.Equal(t, "invalid(...)", Invalid{Status: validation.Status{}}.String())
}

func TestMessages_Serialize(t *testing.T) {
	data, err := Hello{}.Serialize(fake.NewContextWithFormat(fakeFormat))
	require.NoError(t, err)
	require.Equal(t, "fake format", string(data))

	_, err = Invalid{}.Serialize(fake.NewContextWithFormat(badFormat))
	require.EqualError(t, err, fake.Err("couldn't encode message"))
}

func TestMessageFactory_Deserialize(t *testing.T) {
	factory := NewMessageFactory()

	msg, err := factory.Deserialize(fake.NewContextWithFormat(fakeFormat), nil)
	require.NoError(t, err)
	require.Equal(t, ListContracts{}, msg)

	_, err = factory.Deserialize(fake.NewContextWithFormat(badFormat), nil)
	require.EqualError(t, err, fake.Err("couldn't decode message"))

	_, err = factory.Deserialize(fake.NewContextWithFormat(weirdFormat), nil)
	require.EqualError(t, err, "invalid message of type 'fake.Message'")
}

func TestOutpointSelection_Includes(t *testing.T) {
	o1 := contract.NewOutPoint(contract.Txid{1}, 0)
	o2 := contract.NewOutPoint(contract.Txid{2}, 0)
	o3 := contract.NewOutPoint(contract.Txid{1}, 1)

	all := AllOutpoints()
	for _, op := range []contract.OutPoint{o1, o2, o3, {}} {
		require.True(t, all.Includes(op))
	}

	spending := Spending(o3, o1, o1)
	require.Equal(t, []contract.OutPoint{o1, o3}, spending.Outpoints)
	require.True(t, spending.Includes(o1))
	require.True(t, spending.Includes(o3))
	require.False(t, spending.Includes(o2))

	empty := Spending()
	require.Nil(t, empty.Outpoints)
	require.False(t, empty.Includes(o1))

	require.True(t, OutpointSelection{}.Includes(o2))
}

func TestOutpointSelection_Compare(t *testing.T) {
	o1 := contract.NewOutPoint(contract.Txid{1}, 0)
	o2 := contract.NewOutPoint(contract.Txid{2}, 0)

	require.Equal(t, 0, AllOutpoints().Compare(AllOutpoints()))
	require.Equal(t, -1, AllOutpoints().Compare(Spending()))
	require.Equal(t, 1, Spending().Compare(AllOutpoints()))
	require.Equal(t, -1, Spending(o1).Compare(Spending(o2)))
	require.Equal(t, -1, Spending(o1).Compare(Spending(o1, o2)))
	require.Equal(t, 1, Spending(o1, o2).Compare(Spending(o1)))
	require.Equal(t, 0, Spending(o2, o1).Compare(Spending(o1, o2)))
}

func TestOutpointSelection_Key(t *testing.T) {
	o1 := contract.NewOutPoint(contract.Txid{1}, 0)
	o2 := contract.NewOutPoint(contract.Txid{2}, 3)

	require.Equal(t, "all", AllOutpoints().Key())
	require.Equal(t, "spending[]", Spending().Key())
	require.Equal(t, Spending(o1, o2).Key(), Spending(o2, o1, o2).Key())
	require.Equal(t, "spending["+o1.String()+","+o2.String()+"]", Spending(o2, o1).String())

	keys := map[string]struct{}{
		AllOutpoints().Key():   {},
		Spending().Key():       {},
		Spending(o1).Key():     {},
		Spending(o1, o2).Key(): {},
	}
	require.Len(t, keys, 4)
}

func TestContractReq_Apply(t *testing.T) {
	o1 := contract.NewOutPoint(contract.Txid{9}, 0)
	o2 := contract.NewOutPoint(contract.Txid{9}, 1)

	c := contract.Contract{
		Genesis: contract.Genesis{
			Assignments: []contract.Assignment{{Seal: contract.NewOutPoint(contract.Txid{1}, 0), Amount: 10}},
		},
		Transitions: []contract.Transition{
			{
				Type:   contract.TransitionTransfer,
				Inputs: []contract.OutPoint{contract.NewOutPoint(contract.Txid{1}, 0)},
				Outputs: []contract.Assignment{
					{Seal: o1, Amount: 4},
					{Seal: o2, Amount: 6},
				},
				Witness: contract.Txid{9},
			},
		},
	}

	req := NewContractReq(c.ID, nil, Spending(o1))

	res := req.Apply(c)
	require.Empty(t, res.Genesis.Assignments)
	require.Len(t, res.Transitions, 1)
	require.Equal(t, []contract.Assignment{{Seal: o1, Amount: 4}}, res.Transitions[0].Outputs)

	state := res.State()
	require.Len(t, state.Owned, 1)
	require.Equal(t, o1, state.Owned[0].Seal)

	req = NewContractReq(c.ID, []contract.TransitionType{contract.TransitionBurn}, AllOutpoints())
	require.Empty(t, req.Apply(c).Transitions)
}

func TestNewContractReq(t *testing.T) {
	req := NewContractReq(contract.ContractID{}, []contract.TransitionType{3, 1, 3}, AllOutpoints())
	require.Equal(t, []contract.TransitionType{1, 3}, req.Include)

	req = NewContractReq(contract.ContractID{}, []contract.TransitionType{}, AllOutpoints())
	require.Nil(t, req.Include)
}

func TestFailureCode(t *testing.T) {
	require.Equal(t, "shutdown", FailureShutdown.String())
	require.Equal(t, "presentation", FailurePresentation.String())
	require.Equal(t, "transport", FailureTransport.String())
	require.Equal(t, "unexpected", FailureUnexpected.String())
	require.Equal(t, "reserved(7)", FailureCode(7).String())
	require.Equal(t, "validation", Other(CodeValidation).String())
	require.Equal(t, "code(99)", Other(Code(99)).String())

	code, ok := Other(CodeStore).App()
	require.True(t, ok)
	require.Equal(t, CodeStore, code)

	_, ok = FailurePresentation.App()
	require.False(t, ok)
}

func TestFailure_Constructors(t *testing.T) {
	failure := NewFailure(CodeHandshake, "network %s", "testnet")
	require.Equal(t, Other(CodeHandshake), failure.Code)
	require.Equal(t, "network testnet (error code handshake)", failure.Error())

	failure = FromPresentation(fake.GetError())
	require.Equal(t, FailurePresentation, failure.Code)
	require.Equal(t, "fake error", failure.Info)

	failure = Unexpected(Success())
	require.Equal(t, FailureUnexpected, failure.Code)
	require.Equal(t, "unexpected message success", failure.Info)

	require.Equal(t, SuccessMsg{}, Success())
	require.Equal(t, SuccessMsg{Details: OptionDetails{Text: "a", Valid: true}}, SuccessWith("a"))
	require.Equal(t, Progress{Text: "b"}, NewProgress("b"))
	require.Equal(t, "", NoDetails().String())
}

func TestFailureFromService(t *testing.T) {
	cases := map[Code]fault.ServiceError{
		CodeStore:       fault.NewServiceError(fault.NewDomain(fault.DomainStorage), fault.Stash()),
		CodeValidation:  fault.ContractError(fault.NewDomain(fault.DomainSchema), "fungible"),
		CodeResolver:    fault.NewServiceError(fault.NewDomain(fault.DomainBitcoin), fault.Broker()),
		CodeEncoding:    fault.FromAPI(fault.NewMalformedRequest("get"), fault.Broker()),
		CodeUnsupported: fault.FromAPI(fault.NewUnknownCommand("blind"), fault.Broker()),
		CodeUnknown:     fault.NewServiceError(fault.NewDomain(fault.DomainInternal), fault.Broker()),
	}

	for code, err := range cases {
		failure := FailureFromService(err)
		require.Equal(t, Other(code), failure.Code, code.String())
		require.Equal(t, err.Error(), failure.Info)
	}
}

func TestBusMsg_Serialize(t *testing.T) {
	ctx := fake.NewContextWithFormat(fakeFormat)

	data, err := NewBusMsg(ListContracts{}).Serialize(ctx)
	require.NoError(t, err)
	require.Equal(t, append([]byte{0, 4}, "fake format"...), data)

	_, err = BusMsg{Type: 5, Msg: ListContracts{}}.Serialize(ctx)
	require.EqualError(t, err, "unknown bus type 5")

	_, err = BusMsg{Type: BusRPC}.Serialize(ctx)
	require.EqualError(t, err, "bus message is empty")

	_, err = NewBusMsg(ListContracts{}).Serialize(fake.NewContextWithFormat(badFormat))
	require.EqualError(t, err, fake.Err("couldn't encode message"))

	require.Equal(t, "list_contracts", NewBusMsg(ListContracts{}).String())
	require.Equal(t, "bus(4)", BusMsg{Type: BusRPC}.String())
}

func TestBusFactory_Deserialize(t *testing.T) {
	factory := NewBusFactory()
	ctx := fake.NewContextWithFormat(fakeFormat)

	msg, err := factory.Deserialize(ctx, []byte{0, 4})
	require.NoError(t, err)
	require.Equal(t, NewBusMsg(ListContracts{}), msg)

	_, err = factory.BusMsgOf(ctx, []byte{4})
	require.EqualError(t, err, "presentation error: frame too short: 1 bytes")

	_, err = factory.BusMsgOf(ctx, []byte{0, 7, 1})
	require.EqualError(t, err, "presentation error: unknown bus type 7")

	var presentation PresentationError
	require.ErrorAs(t, err, &presentation)
	require.Equal(t, FailurePresentation, FromPresentation(err).Code)

	_, err = factory.BusMsgOf(fake.NewContextWithFormat(badFormat), []byte{0, 4})
	require.EqualError(t, err, "presentation error: "+fake.Err("couldn't decode message"))
}
