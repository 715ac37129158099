// Package json implements the JSON format of the messages of the bus
// protocol. A message is an object with a single field named after the
// message.
package json

import (
	"go.dedis.ch/rgbd/contract"
	"go.dedis.ch/rgbd/rpc"
	"go.dedis.ch/rgbd/serde"
	"go.dedis.ch/rgbd/validation"
	"golang.org/x/xerrors"
)

func init() {
	rpc.RegisterMessageFormat(serde.FormatJSON, msgFormat{})
}

// HelloJSON is the JSON message of a hello.
type HelloJSON struct {
	UserAgent string
	Network   contract.Chain
}

// AcceptJSON is the JSON message of an acceptance request.
type AcceptJSON struct {
	Consignment contract.Consignment
	Force       bool
}

// SelectionJSON is the JSON representation of an outpoint selection.
type SelectionJSON struct {
	All      bool                `json:",omitempty"`
	Spending []contract.OutPoint `json:",omitempty"`
}

// ContractReqJSON is the JSON message of a contract query.
type ContractReqJSON struct {
	ContractID contract.ContractID
	Include    []contract.TransitionType `json:",omitempty"`
	Outpoints  SelectionJSON
}

// ContractIDJSON is the JSON message of a contract state query.
type ContractIDJSON struct {
	ContractID contract.ContractID
}

// UnitJSON is the JSON message of the messages without a field.
type UnitJSON struct{}

// ContractIdsJSON is the JSON message of a list of contracts.
type ContractIdsJSON struct {
	IDs []contract.ContractID
}

// ContractJSON is the JSON message of a contract.
type ContractJSON struct {
	Contract contract.Contract
}

// ContractStateJSON is the JSON message of a contract state.
type ContractStateJSON struct {
	State contract.ContractState
}

// StateTransferJSON is the JSON message of a transfer consignment.
type StateTransferJSON struct {
	Consignment contract.Consignment
}

// ProgressJSON is the JSON message of a progress notification.
type ProgressJSON struct {
	Text string
}

// SuccessJSON is the JSON message of a success.
type SuccessJSON struct {
	Details *string `json:",omitempty"`
}

// FailureJSON is the JSON message of a failure.
type FailureJSON struct {
	Code uint16
	Info string
}

// UnresolvedTxidsJSON is the JSON message of the unresolved transactions.
type UnresolvedTxidsJSON struct {
	Txids []contract.Txid
}

// InvalidJSON is the JSON message of a refused acceptance.
type InvalidJSON struct {
	Status validation.Status
}

// MessageJSON is the JSON representation of a message of the bus protocol.
type MessageJSON struct {
	Hello            *HelloJSON           `json:",omitempty"`
	AcceptContract   *AcceptJSON          `json:",omitempty"`
	ListContracts    *UnitJSON            `json:",omitempty"`
	GetContract      *ContractReqJSON     `json:",omitempty"`
	GetContractState *ContractIDJSON      `json:",omitempty"`
	BlindUtxo        *UnitJSON            `json:",omitempty"`
	ConsignTransfer  *UnitJSON            `json:",omitempty"`
	AcceptTransfer   *AcceptJSON          `json:",omitempty"`
	ContractIds      *ContractIdsJSON     `json:",omitempty"`
	Contract         *ContractJSON        `json:",omitempty"`
	ContractState    *ContractStateJSON   `json:",omitempty"`
	StateTransfer    *StateTransferJSON   `json:",omitempty"`
	Progress         *ProgressJSON        `json:",omitempty"`
	Success          *SuccessJSON         `json:",omitempty"`
	Failure          *FailureJSON         `json:",omitempty"`
	UnresolvedTxids  *UnresolvedTxidsJSON `json:",omitempty"`
	Invalid          *InvalidJSON         `json:",omitempty"`
}

// MsgFormat is the engine to encode and decode the messages in JSON format.
//
// - implements serde.FormatEngine
type msgFormat struct{}

// Encode implements serde.FormatEngine. It returns the JSON data of the
// message if appropriate, otherwise an error.
func (f msgFormat) Encode(ctx serde.Context, msg serde.Message) ([]byte, error) {
	var m MessageJSON

	switch in := msg.(type) {
	case rpc.Hello:
		m.Hello = &HelloJSON{UserAgent: in.UserAgent, Network: in.Network}
	case rpc.AcceptContract:
		m.AcceptContract = &AcceptJSON{Consignment: in.Consignment, Force: in.Force}
	case rpc.ListContracts:
		m.ListContracts = &UnitJSON{}
	case rpc.GetContract:
		m.GetContract = &ContractReqJSON{
			ContractID: in.ContractID,
			Include:    in.Include,
			Outpoints:  encodeSelection(in.Outpoints),
		}
	case rpc.GetContractState:
		m.GetContractState = &ContractIDJSON{ContractID: in.ContractID}
	case rpc.BlindUtxo:
		m.BlindUtxo = &UnitJSON{}
	case rpc.ConsignTransfer:
		m.ConsignTransfer = &UnitJSON{}
	case rpc.AcceptTransfer:
		m.AcceptTransfer = &AcceptJSON{Consignment: in.Consignment, Force: in.Force}
	case rpc.ContractIds:
		m.ContractIds = &ContractIdsJSON{IDs: in.IDs}
	case rpc.Contract:
		m.Contract = &ContractJSON{Contract: in.Contract}
	case rpc.ContractState:
		m.ContractState = &ContractStateJSON{State: in.State}
	case rpc.StateTransfer:
		m.StateTransfer = &StateTransferJSON{Consignment: in.Consignment}
	case rpc.Progress:
		m.Progress = &ProgressJSON{Text: in.Text}
	case rpc.SuccessMsg:
		s := SuccessJSON{}
		if in.Details.Valid {
			text := in.Details.Text
			s.Details = &text
		}

		m.Success = &s
	case rpc.Failure:
		m.Failure = &FailureJSON{Code: uint16(in.Code), Info: in.Info}
	case rpc.UnresolvedTxids:
		m.UnresolvedTxids = &UnresolvedTxidsJSON{Txids: in.Txids}
	case rpc.Invalid:
		m.Invalid = &InvalidJSON{Status: in.Status}
	default:
		return nil, xerrors.Errorf("unsupported message '%T'", msg)
	}

	data, err := ctx.Marshal(m)
	if err != nil {
		return nil, xerrors.Errorf("marshal failed: %v", err)
	}

	return data, nil
}

// Decode implements serde.FormatEngine. It returns the message of the JSON
// data if appropriate, otherwise an error.
func (f msgFormat) Decode(ctx serde.Context, data []byte) (serde.Message, error) {
	m := MessageJSON{}

	err := ctx.Unmarshal(data, &m)
	if err != nil {
		return nil, xerrors.Errorf("unmarshal failed: %v", err)
	}

	switch {
	case m.Hello != nil:
		req := rpc.HelloReq{UserAgent: m.Hello.UserAgent, Network: m.Hello.Network}
		return rpc.Hello{HelloReq: req}, nil
	case m.AcceptContract != nil:
		return rpc.AcceptContract{AcceptReq: decodeAccept(m.AcceptContract)}, nil
	case m.ListContracts != nil:
		return rpc.ListContracts{}, nil
	case m.GetContract != nil:
		req := rpc.NewContractReq(m.GetContract.ContractID, m.GetContract.Include,
			decodeSelection(m.GetContract.Outpoints))

		return rpc.GetContract{ContractReq: req}, nil
	case m.GetContractState != nil:
		return rpc.GetContractState{ContractID: m.GetContractState.ContractID}, nil
	case m.BlindUtxo != nil:
		return rpc.BlindUtxo{}, nil
	case m.ConsignTransfer != nil:
		return rpc.ConsignTransfer{}, nil
	case m.AcceptTransfer != nil:
		return rpc.AcceptTransfer{AcceptReq: decodeAccept(m.AcceptTransfer)}, nil
	case m.ContractIds != nil:
		return rpc.ContractIds{IDs: m.ContractIds.IDs}, nil
	case m.Contract != nil:
		return rpc.Contract{Contract: m.Contract.Contract}, nil
	case m.ContractState != nil:
		return rpc.ContractState{State: m.ContractState.State}, nil
	case m.StateTransfer != nil:
		return rpc.StateTransfer{Consignment: m.StateTransfer.Consignment}, nil
	case m.Progress != nil:
		return rpc.NewProgress(m.Progress.Text), nil
	case m.Success != nil:
		if m.Success.Details == nil {
			return rpc.Success(), nil
		}

		return rpc.SuccessWith(*m.Success.Details), nil
	case m.Failure != nil:
		return rpc.Failure{Code: rpc.FailureCode(m.Failure.Code), Info: m.Failure.Info}, nil
	case m.UnresolvedTxids != nil:
		return rpc.UnresolvedTxids{Txids: m.UnresolvedTxids.Txids}, nil
	case m.Invalid != nil:
		return rpc.Invalid{Status: m.Invalid.Status}, nil
	}

	return nil, xerrors.New("message is empty")
}

func decodeAccept(m *AcceptJSON) rpc.AcceptReq {
	return rpc.AcceptReq{Consignment: m.Consignment, Force: m.Force}
}

func encodeSelection(s rpc.OutpointSelection) SelectionJSON {
	if s.Kind == rpc.SelectAll {
		return SelectionJSON{All: true}
	}

	return SelectionJSON{Spending: s.Outpoints}
}

func decodeSelection(m SelectionJSON) rpc.OutpointSelection {
	if m.All {
		return rpc.AllOutpoints()
	}

	return rpc.Spending(m.Spending...)
}
