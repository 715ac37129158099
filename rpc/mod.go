// Package rpc defines the protocol of the message bus of the node.
//
// A client and the node exchange messages of one closed set over a single
// channel: the requests sent by the client and the responses and
// notifications sent by the node share the same wire type. Every request has
// exactly one terminal reply, optionally preceded by progress notifications.
//
// The messages are wrapped in a bus envelope tagged with the identifier of the
// protocol so that several protocols can share a transport.
package rpc

import (
	"fmt"

	"go.dedis.ch/rgbd/contract"
	"go.dedis.ch/rgbd/serde"
	"go.dedis.ch/rgbd/serde/registry"
	"go.dedis.ch/rgbd/validation"
	"golang.org/x/xerrors"
)

// MsgType is the discriminant of a message on the wire. The values follow the
// order of declaration, so new messages must be appended at the end.
type MsgType uint16

const (
	MsgHello MsgType = iota
	MsgAcceptContract
	MsgListContracts
	MsgGetContract
	MsgGetContractState
	MsgBlindUtxo
	MsgConsignTransfer
	MsgAcceptTransfer
	MsgContractIds
	MsgContract
	MsgContractState
	MsgStateTransfer
	MsgProgress
	MsgSuccess
	MsgFailure
	MsgUnresolvedTxids
	MsgInvalid
)

var msgTypeNames = [...]string{
	"hello",
	"accept_contract",
	"list_contracts",
	"get_contract",
	"get_contract_state",
	"blind_utxo",
	"consign_transfer",
	"accept_transfer",
	"contract_ids",
	"contract",
	"contract_state",
	"state_transfer",
	"progress",
	"success",
	"failure",
	"unresolved_txids",
	"invalid",
}

// String implements fmt.Stringer.
func (t MsgType) String() string {
	if int(t) < len(msgTypeNames) {
		return msgTypeNames[t]
	}

	return fmt.Sprintf("message(%d)", uint16(t))
}

// IsRequest returns true if the message is sent by a client.
func (t MsgType) IsRequest() bool {
	return t <= MsgAcceptTransfer
}

// Message is a message of the protocol. The set of messages is closed.
type Message interface {
	serde.Message
	fmt.Stringer

	// Type returns the discriminant of the message.
	Type() MsgType
}

var msgFormats = registry.NewSimpleRegistry()

// RegisterMessageFormat registers the engine for the provided format.
func RegisterMessageFormat(c serde.Format, f serde.FormatEngine) {
	msgFormats.Register(c, f)
}

func serialize(ctx serde.Context, m Message) ([]byte, error) {
	format := msgFormats.Get(ctx.GetFormat())

	data, err := format.Encode(ctx, m)
	if err != nil {
		return nil, xerrors.Errorf("couldn't encode message: %v", err)
	}

	return data, nil
}

// Hello is the message a client sends to identify itself.
//
// - implements rpc.Message
type Hello struct {
	HelloReq
}

// Type implements rpc.Message.
func (Hello) Type() MsgType { return MsgHello }

// Serialize implements serde.Message.
func (m Hello) Serialize(ctx serde.Context) ([]byte, error) { return serialize(ctx, m) }

// AcceptContract is the request to accept the consignment of a contract.
//
// - implements rpc.Message
type AcceptContract struct {
	AcceptReq
}

// Type implements rpc.Message.
func (AcceptContract) Type() MsgType { return MsgAcceptContract }

// Serialize implements serde.Message.
func (m AcceptContract) Serialize(ctx serde.Context) ([]byte, error) { return serialize(ctx, m) }

// ListContracts is the request of the identifiers of the known contracts.
//
// - implements rpc.Message
type ListContracts struct{}

// Type implements rpc.Message.
func (ListContracts) Type() MsgType { return MsgListContracts }

// Serialize implements serde.Message.
func (m ListContracts) Serialize(ctx serde.Context) ([]byte, error) { return serialize(ctx, m) }

// String implements fmt.Stringer.
func (ListContracts) String() string { return "list_contracts" }

// GetContract is the request of the history of a contract.
//
// - implements rpc.Message
type GetContract struct {
	ContractReq
}

// Type implements rpc.Message.
func (GetContract) Type() MsgType { return MsgGetContract }

// Serialize implements serde.Message.
func (m GetContract) Serialize(ctx serde.Context) ([]byte, error) { return serialize(ctx, m) }

// GetContractState is the request of the state of a contract.
//
// - implements rpc.Message
type GetContractState struct {
	ContractID contract.ContractID
}

// Type implements rpc.Message.
func (GetContractState) Type() MsgType { return MsgGetContractState }

// Serialize implements serde.Message.
func (m GetContractState) Serialize(ctx serde.Context) ([]byte, error) { return serialize(ctx, m) }

// String implements fmt.Stringer.
func (m GetContractState) String() string {
	return fmt.Sprintf("get_contract_state(%v)", m.ContractID)
}

// BlindUtxo is the request of a blinded outpoint.
//
// - implements rpc.Message
type BlindUtxo struct{}

// Type implements rpc.Message.
func (BlindUtxo) Type() MsgType { return MsgBlindUtxo }

// Serialize implements serde.Message.
func (m BlindUtxo) Serialize(ctx serde.Context) ([]byte, error) { return serialize(ctx, m) }

// String implements fmt.Stringer.
func (BlindUtxo) String() string { return "blind_utxo" }

// ConsignTransfer is the request of a transfer consignment.
//
// - implements rpc.Message
type ConsignTransfer struct{}

// Type implements rpc.Message.
func (ConsignTransfer) Type() MsgType { return MsgConsignTransfer }

// Serialize implements serde.Message.
func (m ConsignTransfer) Serialize(ctx serde.Context) ([]byte, error) { return serialize(ctx, m) }

// String implements fmt.Stringer.
func (ConsignTransfer) String() string { return "consign_transfer" }

// AcceptTransfer is the request to accept a transfer consignment.
//
// - implements rpc.Message
type AcceptTransfer struct {
	AcceptReq
}

// Type implements rpc.Message.
func (AcceptTransfer) Type() MsgType { return MsgAcceptTransfer }

// Serialize implements serde.Message.
func (m AcceptTransfer) Serialize(ctx serde.Context) ([]byte, error) { return serialize(ctx, m) }

// String implements fmt.Stringer.
func (AcceptTransfer) String() string { return "accept_transfer(...)" }

// ContractIds is the response with the identifiers of the known contracts, in
// ascending order.
//
// - implements rpc.Message
type ContractIds struct {
	IDs []contract.ContractID
}

// Type implements rpc.Message.
func (ContractIds) Type() MsgType { return MsgContractIds }

// Serialize implements serde.Message.
func (m ContractIds) Serialize(ctx serde.Context) ([]byte, error) { return serialize(ctx, m) }

// String implements fmt.Stringer.
func (ContractIds) String() string { return "contract_ids(...)" }

// Contract is the response with the history of a contract.
//
// - implements rpc.Message
type Contract struct {
	Contract contract.Contract
}

// Type implements rpc.Message.
func (Contract) Type() MsgType { return MsgContract }

// Serialize implements serde.Message.
func (m Contract) Serialize(ctx serde.Context) ([]byte, error) { return serialize(ctx, m) }

// String implements fmt.Stringer.
func (Contract) String() string { return "contract(...)" }

// ContractState is the response with the state of a contract.
//
// - implements rpc.Message
type ContractState struct {
	State contract.ContractState
}

// Type implements rpc.Message.
func (ContractState) Type() MsgType { return MsgContractState }

// Serialize implements serde.Message.
func (m ContractState) Serialize(ctx serde.Context) ([]byte, error) { return serialize(ctx, m) }

// String implements fmt.Stringer.
func (ContractState) String() string { return "contract_state(...)" }

// StateTransfer is the response with a transfer consignment.
//
// - implements rpc.Message
type StateTransfer struct {
	Consignment contract.Consignment
}

// Type implements rpc.Message.
func (StateTransfer) Type() MsgType { return MsgStateTransfer }

// Serialize implements serde.Message.
func (m StateTransfer) Serialize(ctx serde.Context) ([]byte, error) { return serialize(ctx, m) }

// String implements fmt.Stringer.
func (StateTransfer) String() string { return "state_transfer(...)" }

// Progress is the notification of the progress of a request.
//
// - implements rpc.Message
type Progress struct {
	Text string
}

// Type implements rpc.Message.
func (Progress) Type() MsgType { return MsgProgress }

// Serialize implements serde.Message.
func (m Progress) Serialize(ctx serde.Context) ([]byte, error) { return serialize(ctx, m) }

// String implements fmt.Stringer.
func (m Progress) String() string { return fmt.Sprintf("progress(\"%s\")", m.Text) }

// SuccessMsg is the terminal message of a request that succeeded. It must be
// created with Success or SuccessWith.
//
// - implements rpc.Message
type SuccessMsg struct {
	Details OptionDetails
}

// Type implements rpc.Message.
func (SuccessMsg) Type() MsgType { return MsgSuccess }

// Serialize implements serde.Message.
func (m SuccessMsg) Serialize(ctx serde.Context) ([]byte, error) { return serialize(ctx, m) }

// String implements fmt.Stringer.
func (m SuccessMsg) String() string { return "success" + m.Details.String() }

// UnresolvedTxids is the terminal message of an acceptance that requires
// witness transactions unknown to the node.
//
// - implements rpc.Message
type UnresolvedTxids struct {
	Txids []contract.Txid
}

// Type implements rpc.Message.
func (UnresolvedTxids) Type() MsgType { return MsgUnresolvedTxids }

// Serialize implements serde.Message.
func (m UnresolvedTxids) Serialize(ctx serde.Context) ([]byte, error) { return serialize(ctx, m) }

// String implements fmt.Stringer.
func (UnresolvedTxids) String() string { return "unresolved_txids(...)" }

// Invalid is the terminal message of an acceptance refused by the validation.
//
// - implements rpc.Message
type Invalid struct {
	Status validation.Status
}

// Type implements rpc.Message.
func (Invalid) Type() MsgType { return MsgInvalid }

// Serialize implements serde.Message.
func (m Invalid) Serialize(ctx serde.Context) ([]byte, error) { return serialize(ctx, m) }

// String implements fmt.Stringer.
func (Invalid) String() string { return "invalid(...)" }

// MessageFactory is the factory to deserialize the messages of the protocol.
//
// - implements serde.Factory
type MessageFactory struct{}

// NewMessageFactory returns a new message factory.
func NewMessageFactory() MessageFactory {
	return MessageFactory{}
}

// Deserialize implements serde.Factory. It returns the message of the data.
func (f MessageFactory) Deserialize(ctx serde.Context, data []byte) (serde.Message, error) {
	return f.MessageOf(ctx, data)
}

// MessageOf returns the protocol message of the data.
func (MessageFactory) MessageOf(ctx serde.Context, data []byte) (Message, error) {
	format := msgFormats.Get(ctx.GetFormat())

	msg, err := format.Decode(ctx, data)
	if err != nil {
		return nil, xerrors.Errorf("couldn't decode message: %v", err)
	}

	m, ok := msg.(Message)
	if !ok {
		return nil, xerrors.Errorf("invalid message of type '%T'", msg)
	}

	return m, nil
}
