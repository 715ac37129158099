// Package cbor implements the canonical CBOR format of the messages of the
// bus protocol. A message is encoded as an array made of its discriminant and
// its body, whose fields are encoded in the order of their declaration.
package cbor

import (
	"github.com/fxamacker/cbor/v2"
	"go.dedis.ch/rgbd/contract"
	"go.dedis.ch/rgbd/rpc"
	"go.dedis.ch/rgbd/serde"
	"go.dedis.ch/rgbd/validation"
	"golang.org/x/xerrors"
)

func init() {
	rpc.RegisterMessageFormat(serde.FormatCBOR, msgFormat{})
}

// envelope is the CBOR representation of a message.
type envelope struct {
	_ struct{} `cbor:",toarray"`

	Type rpc.MsgType
	Body cbor.RawMessage
}

// MsgFormat is the engine to encode and decode the messages in CBOR format.
//
// - implements serde.FormatEngine
type msgFormat struct{}

// Encode implements serde.FormatEngine. It returns the CBOR data of the
// message if appropriate, otherwise an error.
func (f msgFormat) Encode(ctx serde.Context, msg serde.Message) ([]byte, error) {
	m, ok := msg.(rpc.Message)
	if !ok {
		return nil, xerrors.Errorf("unsupported message '%T'", msg)
	}

	var body interface{}

	switch in := m.(type) {
	case rpc.Hello:
		body = in.HelloReq
	case rpc.AcceptContract:
		body = in.AcceptReq
	case rpc.GetContract:
		body = in.ContractReq
	case rpc.GetContractState:
		body = in.ContractID
	case rpc.ListContracts, rpc.BlindUtxo, rpc.ConsignTransfer:
		body = nil
	case rpc.AcceptTransfer:
		body = in.AcceptReq
	case rpc.ContractIds:
		body = in.IDs
	case rpc.Contract:
		body = in.Contract
	case rpc.ContractState:
		body = in.State
	case rpc.StateTransfer:
		body = in.Consignment
	case rpc.Progress:
		body = in.Text
	case rpc.SuccessMsg:
		body = in.Details
	case rpc.Failure:
		body = in
	case rpc.UnresolvedTxids:
		body = in.Txids
	case rpc.Invalid:
		body = in.Status
	default:
		return nil, xerrors.Errorf("unsupported message '%T'", msg)
	}

	raw, err := ctx.Marshal(body)
	if err != nil {
		return nil, xerrors.Errorf("couldn't marshal body: %v", err)
	}

	data, err := ctx.Marshal(envelope{Type: m.Type(), Body: raw})
	if err != nil {
		return nil, xerrors.Errorf("marshal failed: %v", err)
	}

	return data, nil
}

// Decode implements serde.FormatEngine. It returns the message of the CBOR
// data if appropriate, otherwise an error.
func (f msgFormat) Decode(ctx serde.Context, data []byte) (serde.Message, error) {
	var m envelope

	err := ctx.Unmarshal(data, &m)
	if err != nil {
		return nil, xerrors.Errorf("unmarshal failed: %v", err)
	}

	msg, err := decodeBody(ctx, m)
	if err != nil {
		return nil, xerrors.Errorf("couldn't decode %v: %v", m.Type, err)
	}

	return msg, nil
}

func decodeBody(ctx serde.Context, m envelope) (rpc.Message, error) {
	var err error

	switch m.Type {
	case rpc.MsgHello:
		var req rpc.HelloReq
		err = ctx.Unmarshal(m.Body, &req)
		return rpc.Hello{HelloReq: req}, err
	case rpc.MsgAcceptContract:
		var req rpc.AcceptReq
		err = ctx.Unmarshal(m.Body, &req)
		return rpc.AcceptContract{AcceptReq: req}, err
	case rpc.MsgListContracts:
		return rpc.ListContracts{}, nil
	case rpc.MsgGetContract:
		var req rpc.ContractReq
		err = ctx.Unmarshal(m.Body, &req)
		req = rpc.NewContractReq(req.ContractID, req.Include, normalize(req.Outpoints))
		return rpc.GetContract{ContractReq: req}, err
	case rpc.MsgGetContractState:
		var id contract.ContractID
		err = ctx.Unmarshal(m.Body, &id)
		return rpc.GetContractState{ContractID: id}, err
	case rpc.MsgBlindUtxo:
		return rpc.BlindUtxo{}, nil
	case rpc.MsgConsignTransfer:
		return rpc.ConsignTransfer{}, nil
	case rpc.MsgAcceptTransfer:
		var req rpc.AcceptReq
		err = ctx.Unmarshal(m.Body, &req)
		return rpc.AcceptTransfer{AcceptReq: req}, err
	case rpc.MsgContractIds:
		var ids []contract.ContractID
		err = ctx.Unmarshal(m.Body, &ids)
		return rpc.ContractIds{IDs: ids}, err
	case rpc.MsgContract:
		var c contract.Contract
		err = ctx.Unmarshal(m.Body, &c)
		return rpc.Contract{Contract: c}, err
	case rpc.MsgContractState:
		var state contract.ContractState
		err = ctx.Unmarshal(m.Body, &state)
		return rpc.ContractState{State: state}, err
	case rpc.MsgStateTransfer:
		var c contract.Consignment
		err = ctx.Unmarshal(m.Body, &c)
		return rpc.StateTransfer{Consignment: c}, err
	case rpc.MsgProgress:
		var text string
		err = ctx.Unmarshal(m.Body, &text)
		return rpc.NewProgress(text), err
	case rpc.MsgSuccess:
		var details rpc.OptionDetails
		err = ctx.Unmarshal(m.Body, &details)
		return rpc.SuccessMsg{Details: details}, err
	case rpc.MsgFailure:
		var failure rpc.Failure
		err = ctx.Unmarshal(m.Body, &failure)
		return failure, err
	case rpc.MsgUnresolvedTxids:
		var txids []contract.Txid
		err = ctx.Unmarshal(m.Body, &txids)
		return rpc.UnresolvedTxids{Txids: txids}, err
	case rpc.MsgInvalid:
		var status validation.Status
		err = ctx.Unmarshal(m.Body, &status)
		return rpc.Invalid{Status: status}, err
	default:
		return nil, xerrors.Errorf("unknown message type %d", uint16(m.Type))
	}
}

func normalize(s rpc.OutpointSelection) rpc.OutpointSelection {
	if s.Kind == rpc.SelectAll {
		return rpc.AllOutpoints()
	}

	return rpc.Spending(s.Outpoints...)
}
