package serde_test

import (
	"errors"
	"fmt"

	"go.dedis.ch/rgbd/serde"
	"go.dedis.ch/rgbd/serde/cbor"
	"go.dedis.ch/rgbd/serde/json"
	"go.dedis.ch/rgbd/serde/registry"
)

func ExampleMessage_Serialize() {
	asset := exampleAsset{ticker: "USDT", precision: 2}

	data, err := asset.Serialize(json.NewContext())
	if err != nil {
		panic("serialization failed: " + err.Error())
	}

	fmt.Println(string(data))

	// Only the JSON engine is registered for the assets.
	_, err = asset.Serialize(cbor.NewContext())
	fmt.Println(err)

	// Output: {"ticker":"USDT","precision":2}
	// format 'CBOR' is not implemented
}

func ExampleFactory_Deserialize() {
	factory := exampleAssetFactory{}

	msg, err := factory.Deserialize(json.NewContext(), []byte(`{"ticker":"EUR","precision":8}`))
	if err != nil {
		panic("deserialization failed: " + err.Error())
	}

	fmt.Printf("%+v", msg)

	// Output: {ticker:EUR precision:8}
}

var assetFormats = registry.NewSimpleRegistry()

func init() {
	assetFormats.Register(serde.FormatJSON, assetJSONFormat{})
}

// exampleAsset is the data model of an asset.
//
// - implements serde.Message
type exampleAsset struct {
	ticker    string
	precision uint8
}

// Serialize implements serde.Message.
func (a exampleAsset) Serialize(ctx serde.Context) ([]byte, error) {
	format := assetFormats.Get(ctx.GetFormat())

	return format.Encode(ctx, a)
}

// exampleAssetFactory is the factory of the assets.
//
// - implements serde.Factory
type exampleAssetFactory struct{}

// Deserialize implements serde.Factory.
func (exampleAssetFactory) Deserialize(ctx serde.Context, data []byte) (serde.Message, error) {
	format := assetFormats.Get(ctx.GetFormat())

	return format.Decode(ctx, data)
}

// assetJSON is the JSON message of an asset.
type assetJSON struct {
	Ticker    string `json:"ticker"`
	Precision uint8  `json:"precision"`
}

// assetJSONFormat is the JSON format engine of the assets.
//
// - implements serde.FormatEngine
type assetJSONFormat struct{}

// Encode implements serde.FormatEngine.
func (assetJSONFormat) Encode(ctx serde.Context, msg serde.Message) ([]byte, error) {
	asset, ok := msg.(exampleAsset)
	if !ok {
		return nil, errors.New("unsupported message")
	}

	m := assetJSON{
		Ticker:    asset.ticker,
		Precision: asset.precision,
	}

	return ctx.Marshal(m)
}

// Decode implements serde.FormatEngine.
func (assetJSONFormat) Decode(ctx serde.Context, data []byte) (serde.Message, error) {
	var m assetJSON

	err := ctx.Unmarshal(data, &m)
	if err != nil {
		return nil, err
	}

	return exampleAsset{ticker: m.Ticker, precision: m.Precision}, nil
}
