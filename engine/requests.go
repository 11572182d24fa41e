package engine

import (
	"errors"

	"xdao.co/txkit/model"
)

// InformationRequest asks for the library build information. It encodes as {}.
type InformationRequest struct{}

// InformationResponse describes the native library build.
type InformationResponse struct {
	PackageVersion string `json:"package_version"`
	LastCommitHash string `json:"last_commit_hash"`
}

// ConvertManifestRequest asks for m in another instructions representation.
type ConvertManifestRequest struct {
	NetworkID              model.NetworkID        `json:"network_id"`
	InstructionsOutputKind model.InstructionsKind `json:"instructions_output_kind"`
	Manifest               model.Manifest         `json:"manifest"`
}

// CompileResponse is the answer of every compile operation.
type CompileResponse struct {
	CompiledIntent model.HexBytes `json:"compiled_intent"`
}

func (r *CompileResponse) Validate() error {
	if len(r.CompiledIntent) == 0 {
		return errors.New("compile response: empty compiled_intent")
	}
	return nil
}

// DecompileTransactionIntentRequest carries compiled intent bytes to decode.
type DecompileTransactionIntentRequest struct {
	InstructionsOutputKind model.InstructionsKind `json:"instructions_output_kind"`
	CompiledIntent         model.HexBytes         `json:"compiled_intent"`
}

// DecompileSignedTransactionIntentRequest carries a compiled signed intent to decode.
type DecompileSignedTransactionIntentRequest struct {
	InstructionsOutputKind model.InstructionsKind `json:"instructions_output_kind"`
	CompiledSignedIntent   model.HexBytes         `json:"compiled_signed_intent"`
}

// DecompileNotarizedTransactionRequest carries a compiled notarized transaction to decode.
type DecompileNotarizedTransactionRequest struct {
	InstructionsOutputKind  model.InstructionsKind `json:"instructions_output_kind"`
	CompiledNotarizedIntent model.HexBytes         `json:"compiled_notarized_intent"`
}

// DecodeAddressRequest carries the address to decode.
type DecodeAddressRequest struct {
	Address string `json:"address"`
}

// DecodeAddressResponse is the decoded form of an address.
type DecodeAddressResponse struct {
	NetworkID   model.NetworkID `json:"network_id"`
	NetworkName string          `json:"network_name"`
	EntityType  string          `json:"entity_type"`
	Data        model.HexBytes  `json:"data"`
	HRP         string          `json:"hrp"`
}

func (r *DecodeAddressResponse) Validate() error {
	if r.EntityType == "" || len(r.Data) == 0 {
		return errors.New("decode address response: missing entity_type or data")
	}
	return nil
}

// EncodeAddressRequest carries raw address bytes and the target network.
type EncodeAddressRequest struct {
	AddressBytes model.HexBytes  `json:"address_bytes"`
	NetworkID    model.NetworkID `json:"network_id"`
}

// EncodeAddressResponse is the typed address produced from raw bytes.
type EncodeAddressResponse = model.EntityAddress

// DeriveVirtualAccountAddressRequest asks for the account controlled by a public key.
type DeriveVirtualAccountAddressRequest struct {
	NetworkID model.NetworkID `json:"network_id"`
	PublicKey model.PublicKey `json:"public_key"`
}

// DeriveVirtualAccountAddressResponse holds the derived account address.
type DeriveVirtualAccountAddressResponse struct {
	VirtualAccountAddress model.ComponentAddress `json:"virtual_account_address"`
}

// KnownEntityAddressesRequest selects the network whose addresses are listed.
type KnownEntityAddressesRequest struct {
	NetworkID model.NetworkID `json:"network_id"`
}

// KnownEntityAddressesResponse lists the system addresses of a network.
type KnownEntityAddressesResponse struct {
	FaucetComponentAddress             model.ComponentAddress `json:"faucet_component_address"`
	FaucetPackageAddress               model.PackageAddress   `json:"faucet_package_address"`
	AccountPackageAddress              model.PackageAddress   `json:"account_package_address"`
	XRDResourceAddress                 model.ResourceAddress  `json:"xrd_resource_address"`
	SystemTokenResourceAddress         model.ResourceAddress  `json:"system_token_resource_address"`
	EcdsaSecp256k1TokenResourceAddress model.ResourceAddress  `json:"ecdsa_secp256k1_token_resource_address"`
	EddsaEd25519TokenResourceAddress   model.ResourceAddress  `json:"eddsa_ed25519_token_resource_address"`
	PackageTokenResourceAddress        model.ResourceAddress  `json:"package_token_resource_address"`
	EpochManagerSystemAddress          model.ComponentAddress `json:"epoch_manager_system_address"`
}

func (r *KnownEntityAddressesResponse) Validate() error {
	if r.FaucetComponentAddress.Address == "" || r.XRDResourceAddress.Address == "" {
		return errors.New("known entity addresses response: missing addresses")
	}
	return nil
}
