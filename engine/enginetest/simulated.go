package enginetest

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/blake2b"

	"xdao.co/txkit/engine"
	"xdao.co/txkit/model"
)

// Compiled payload tags. A simulated compiled payload is the tag followed by
// the request JSON, so it is deterministic and reversible.
const (
	tagIntent    byte = 0x01
	tagSigned    byte = 0x02
	tagNotarized byte = 0x03
)

// Entity bytes used by simulated addresses.
const (
	EntityPackage   byte = 0x00
	EntityResource  byte = 0x01
	EntityComponent byte = 0x02
	EntityAccount   byte = 0x03
)

var entities = map[byte]struct {
	prefix string
	typ    string
	kind   model.ValueKind
}{
	EntityPackage:   {"package", "Package", model.KindPackageAddress},
	EntityResource:  {"resource", "FungibleResource", model.KindResourceAddress},
	EntityComponent: {"component", "NormalComponent", model.KindComponentAddress},
	EntityAccount:   {"account", "AccountComponent", model.KindComponentAddress},
}

// Simulated returns a Fake whose handlers behave like the engine for every
// operation the bridge exposes.
func Simulated() *Fake {
	f := NewFake()
	f.Handle(engine.OpInformation, jsonHandler(func(engine.InformationRequest) (any, error) {
		return engine.InformationResponse{PackageVersion: "0.9.0-sim", LastCommitHash: "simulated"}, nil
	}))
	f.Handle(engine.OpConvertManifest, jsonHandler(func(req engine.ConvertManifestRequest) (any, error) {
		return convertManifest(req.Manifest, req.InstructionsOutputKind)
	}))
	f.Handle(engine.OpCompileTransactionIntent, compileHandler[model.TransactionIntent](tagIntent))
	f.Handle(engine.OpCompileSignedTransactionIntent, compileHandler[model.SignedTransactionIntent](tagSigned))
	f.Handle(engine.OpCompileNotarizedTransaction, compileHandler[model.NotarizedTransaction](tagNotarized))
	f.Handle(engine.OpDecompileTransactionIntent, jsonHandler(func(req engine.DecompileTransactionIntentRequest) (any, error) {
		var intent model.TransactionIntent
		if err := decompile(req.CompiledIntent, tagIntent, &intent); err != nil {
			return nil, err
		}
		m, err := convertManifest(intent.Manifest, req.InstructionsOutputKind)
		if err != nil {
			return nil, err
		}
		intent.Manifest = m
		return intent, nil
	}))
	f.Handle(engine.OpDecompileSignedTransactionIntent, jsonHandler(func(req engine.DecompileSignedTransactionIntentRequest) (any, error) {
		var signed model.SignedTransactionIntent
		if err := decompile(req.CompiledSignedIntent, tagSigned, &signed); err != nil {
			return nil, err
		}
		m, err := convertManifest(signed.Intent.Manifest, req.InstructionsOutputKind)
		if err != nil {
			return nil, err
		}
		signed.Intent.Manifest = m
		return signed, nil
	}))
	f.Handle(engine.OpDecompileNotarizedTransaction, jsonHandler(func(req engine.DecompileNotarizedTransactionRequest) (any, error) {
		var n model.NotarizedTransaction
		if err := decompile(req.CompiledNotarizedIntent, tagNotarized, &n); err != nil {
			return nil, err
		}
		m, err := convertManifest(n.SignedIntent.Intent.Manifest, req.InstructionsOutputKind)
		if err != nil {
			return nil, err
		}
		n.SignedIntent.Intent.Manifest = m
		return n, nil
	}))
	f.Handle(engine.OpDecodeAddress, jsonHandler(func(req engine.DecodeAddressRequest) (any, error) {
		return decodeAddress(req.Address)
	}))
	f.Handle(engine.OpEncodeAddress, jsonHandler(func(req engine.EncodeAddressRequest) (any, error) {
		return encodeAddress(req.NetworkID, req.AddressBytes)
	}))
	f.Handle(engine.OpDeriveVirtualAccountAddress, jsonHandler(func(req engine.DeriveVirtualAccountAddressRequest) (any, error) {
		addr := VirtualAccountAddress(req.NetworkID, req.PublicKey)
		return engine.DeriveVirtualAccountAddressResponse{VirtualAccountAddress: model.ComponentAddress{Address: string(addr)}}, nil
	}))
	f.Handle(engine.OpKnownEntityAddresses, jsonHandler(func(req engine.KnownEntityAddressesRequest) (any, error) {
		return knownEntityAddresses(req.NetworkID), nil
	}))
	return f
}

// nativeError is returned by handler bodies to answer with an engine error
// object instead of a response.
type nativeError struct {
	kind   engine.ErrorKind
	fields map[string]any
}

func (e *nativeError) Error() string { return string(e.kind) }

func parseError(format string, args ...any) error {
	return &nativeError{kind: engine.ErrParseError, fields: map[string]any{"message": fmt.Sprintf(format, args...)}}
}

func valueError(kind engine.ErrorKind, format string, args ...any) error {
	return &nativeError{kind: kind, fields: map[string]any{"value": fmt.Sprintf(format, args...)}}
}

func errorBody(err error) []byte {
	ne, ok := err.(*nativeError)
	if !ok {
		ne = &nativeError{kind: engine.ErrDeserializationError, fields: map[string]any{"value": err.Error()}}
	}
	body := map[string]any{"error": ne.kind}
	for k, v := range ne.fields {
		body[k] = v
	}
	b, _ := json.Marshal(body)
	return b
}

func jsonHandler[Req any](fn func(Req) (any, error)) Handler {
	return func(request []byte) []byte {
		var req Req
		if err := json.Unmarshal(request, &req); err != nil {
			return errorBody(err)
		}
		resp, err := fn(req)
		if err != nil {
			return errorBody(err)
		}
		b, err := json.Marshal(resp)
		if err != nil {
			return errorBody(err)
		}
		return b
	}
}

type validatable interface {
	Validate() error
}

func compileHandler[Req validatable](tag byte) Handler {
	return func(request []byte) []byte {
		var req Req
		if err := json.Unmarshal(request, &req); err != nil {
			return errorBody(err)
		}
		if err := req.Validate(); err != nil {
			return errorBody(valueError(engine.ErrTransactionCompileError, "%v", err))
		}
		// Re-encode so equal values compile to equal bytes.
		canonical, err := json.Marshal(req)
		if err != nil {
			return errorBody(err)
		}
		compiled := append([]byte{tag}, canonical...)
		b, _ := json.Marshal(engine.CompileResponse{CompiledIntent: compiled})
		return b
	}
}

func decompile(compiled []byte, tag byte, out any) error {
	if len(compiled) == 0 || compiled[0] != tag {
		return &nativeError{kind: engine.ErrUnrecognizedCompiledIntentFormat}
	}
	if err := json.Unmarshal(compiled[1:], out); err != nil {
		return valueError(engine.ErrTransactionDecompileError, "%v", err)
	}
	return nil
}

func convertManifest(m model.Manifest, kind model.InstructionsKind) (model.Manifest, error) {
	out := model.Manifest{Blobs: m.Blobs}
	switch kind {
	case model.InstructionsParsed:
		switch ins := m.Instructions.(type) {
		case model.ParsedInstructions:
			out.Instructions = ins
		case model.StringInstructions:
			parsed, err := ParseManifest(string(ins))
			if err != nil {
				return model.Manifest{}, err
			}
			out.Instructions = parsed
		}
	case model.InstructionsString:
		switch ins := m.Instructions.(type) {
		case model.StringInstructions:
			out.Instructions = ins
		case model.ParsedInstructions:
			text, err := RenderManifest(ins)
			if err != nil {
				return model.Manifest{}, err
			}
			out.Instructions = model.StringInstructions(text)
		}
	default:
		return model.Manifest{}, valueError(engine.ErrInvalidRequestString, "unknown instructions kind %q", kind)
	}
	if out.Instructions == nil {
		return model.Manifest{}, valueError(engine.ErrInvalidRequestString, "manifest has no instructions")
	}
	return out, nil
}

// VirtualAccountAddress derives the simulated account address of key.
func VirtualAccountAddress(network model.NetworkID, key model.PublicKey) model.AccountAddress {
	sum := blake2b.Sum256(key.Bytes)
	data := append([]byte{EntityAccount}, sum[:26]...)
	addr, _ := encodeAddress(network, data)
	return model.AccountAddress(addr.Address)
}

func hrp(prefix string, network model.NetworkID) string {
	return prefix + "_sim" + strconv.FormatUint(uint64(network), 10)
}

func encodeAddress(network model.NetworkID, data []byte) (model.EntityAddress, error) {
	if len(data) == 0 {
		return model.EntityAddress{}, valueError(engine.ErrAddressError, "empty address bytes")
	}
	ent, ok := entities[data[0]]
	if !ok {
		return model.EntityAddress{}, valueError(engine.ErrAddressError, "unknown entity byte 0x%02x", data[0])
	}
	return model.EntityAddress{Kind: ent.kind, Address: hrp(ent.prefix, network) + "x" + hex.EncodeToString(data)}, nil
}

func decodeAddress(address string) (engine.DecodeAddressResponse, error) {
	prefix, rest, ok := strings.Cut(address, "_sim")
	if !ok {
		return engine.DecodeAddressResponse{}, &nativeError{kind: engine.ErrUnrecognizedAddressFormat}
	}
	netText, hexData, ok := strings.Cut(rest, "x")
	if !ok {
		return engine.DecodeAddressResponse{}, &nativeError{kind: engine.ErrUnrecognizedAddressFormat}
	}
	network, err := strconv.ParseUint(netText, 10, 8)
	if err != nil {
		return engine.DecodeAddressResponse{}, valueError(engine.ErrAddressError, "bad network %q", netText)
	}
	data, err := hex.DecodeString(hexData)
	if err != nil || len(data) == 0 {
		return engine.DecodeAddressResponse{}, valueError(engine.ErrAddressError, "bad address data")
	}
	ent, ok := entities[data[0]]
	if !ok || ent.prefix != prefix {
		return engine.DecodeAddressResponse{}, valueError(engine.ErrAddressError, "entity byte does not match %q", prefix)
	}
	id := model.NetworkID(network)
	return engine.DecodeAddressResponse{
		NetworkID:   id,
		NetworkName: id.Name(),
		EntityType:  ent.typ,
		Data:        data,
		HRP:         hrp(prefix, id),
	}, nil
}

func knownAddress(network model.NetworkID, entity byte, seed string) string {
	sum := blake2b.Sum256([]byte(seed))
	addr, _ := encodeAddress(network, append([]byte{entity}, sum[:26]...))
	return addr.Address
}

func knownEntityAddresses(network model.NetworkID) engine.KnownEntityAddressesResponse {
	return engine.KnownEntityAddressesResponse{
		FaucetComponentAddress:             model.ComponentAddress{Address: knownAddress(network, EntityComponent, "faucet")},
		FaucetPackageAddress:               model.PackageAddress{Address: knownAddress(network, EntityPackage, "faucet")},
		AccountPackageAddress:              model.PackageAddress{Address: knownAddress(network, EntityPackage, "account")},
		XRDResourceAddress:                 model.ResourceAddress{Address: knownAddress(network, EntityResource, "xrd")},
		SystemTokenResourceAddress:         model.ResourceAddress{Address: knownAddress(network, EntityResource, "system")},
		EcdsaSecp256k1TokenResourceAddress: model.ResourceAddress{Address: knownAddress(network, EntityResource, "secp256k1")},
		EddsaEd25519TokenResourceAddress:   model.ResourceAddress{Address: knownAddress(network, EntityResource, "ed25519")},
		PackageTokenResourceAddress:        model.ResourceAddress{Address: knownAddress(network, EntityResource, "package")},
		EpochManagerSystemAddress:          model.ComponentAddress{Address: knownAddress(network, EntityComponent, "epoch_manager")},
	}
}

// CompiledPayload reports whether b is a simulated compiled payload of the
// given operation's kind.
func CompiledPayload(op engine.Operation, b []byte) bool {
	want := map[engine.Operation]byte{
		engine.OpCompileTransactionIntent:       tagIntent,
		engine.OpCompileSignedTransactionIntent: tagSigned,
		engine.OpCompileNotarizedTransaction:    tagNotarized,
	}[op]
	return len(b) > 1 && b[0] == want && bytes.HasPrefix(b[1:], []byte("{"))
}
