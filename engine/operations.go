package engine

import "xdao.co/txkit/model"

// Information returns the engine build information. It is the cheapest call
// that exercises the whole bridge.
func (tk *Toolkit) Information() (InformationResponse, error) {
	return Call[InformationResponse](tk, OpInformation, InformationRequest{})
}

// ConvertManifest converts m into the requested instructions representation.
func (tk *Toolkit) ConvertManifest(network model.NetworkID, kind model.InstructionsKind, m model.Manifest) (model.Manifest, error) {
	return Call[model.Manifest](tk, OpConvertManifest, ConvertManifestRequest{
		NetworkID:              network,
		InstructionsOutputKind: kind,
		Manifest:               m,
	})
}

// CompileTransactionIntent returns the canonical compiled bytes of intent.
func (tk *Toolkit) CompileTransactionIntent(intent model.TransactionIntent) ([]byte, error) {
	resp, err := Call[CompileResponse](tk, OpCompileTransactionIntent, intent)
	if err != nil {
		return nil, err
	}
	return resp.CompiledIntent, nil
}

// DecompileTransactionIntent decodes compiled intent bytes, rendering the
// manifest in kind.
func (tk *Toolkit) DecompileTransactionIntent(compiled []byte, kind model.InstructionsKind) (model.TransactionIntent, error) {
	return Call[model.TransactionIntent](tk, OpDecompileTransactionIntent, DecompileTransactionIntentRequest{
		InstructionsOutputKind: kind,
		CompiledIntent:         compiled,
	})
}

// CompileSignedTransactionIntent returns the compiled signed intent, the
// payload a notary signs.
func (tk *Toolkit) CompileSignedTransactionIntent(signed model.SignedTransactionIntent) ([]byte, error) {
	resp, err := Call[CompileResponse](tk, OpCompileSignedTransactionIntent, signed)
	if err != nil {
		return nil, err
	}
	return resp.CompiledIntent, nil
}

// DecompileSignedTransactionIntent decodes a compiled signed intent.
func (tk *Toolkit) DecompileSignedTransactionIntent(compiled []byte, kind model.InstructionsKind) (model.SignedTransactionIntent, error) {
	return Call[model.SignedTransactionIntent](tk, OpDecompileSignedTransactionIntent, DecompileSignedTransactionIntentRequest{
		InstructionsOutputKind: kind,
		CompiledSignedIntent:   compiled,
	})
}

// CompileNotarizedTransaction returns the submittable compiled transaction.
func (tk *Toolkit) CompileNotarizedTransaction(notarized model.NotarizedTransaction) ([]byte, error) {
	resp, err := Call[CompileResponse](tk, OpCompileNotarizedTransaction, notarized)
	if err != nil {
		return nil, err
	}
	return resp.CompiledIntent, nil
}

// DecompileNotarizedTransaction decodes a compiled notarized transaction.
func (tk *Toolkit) DecompileNotarizedTransaction(compiled []byte, kind model.InstructionsKind) (model.NotarizedTransaction, error) {
	return Call[model.NotarizedTransaction](tk, OpDecompileNotarizedTransaction, DecompileNotarizedTransactionRequest{
		InstructionsOutputKind:  kind,
		CompiledNotarizedIntent: compiled,
	})
}

// DecodeAddress splits an address into its network, entity type and data.
func (tk *Toolkit) DecodeAddress(address string) (DecodeAddressResponse, error) {
	return Call[DecodeAddressResponse](tk, OpDecodeAddress, DecodeAddressRequest{Address: address})
}

// EncodeAddress renders raw address bytes as an address on network.
func (tk *Toolkit) EncodeAddress(network model.NetworkID, addressBytes []byte) (EncodeAddressResponse, error) {
	return Call[EncodeAddressResponse](tk, OpEncodeAddress, EncodeAddressRequest{
		AddressBytes: addressBytes,
		NetworkID:    network,
	})
}

// DeriveVirtualAccountAddress returns the account address controlled by key
// on network.
func (tk *Toolkit) DeriveVirtualAccountAddress(network model.NetworkID, key model.PublicKey) (model.AccountAddress, error) {
	resp, err := Call[DeriveVirtualAccountAddressResponse](tk, OpDeriveVirtualAccountAddress, DeriveVirtualAccountAddressRequest{
		NetworkID: network,
		PublicKey: key,
	})
	if err != nil {
		return "", err
	}
	return model.AccountAddress(resp.VirtualAccountAddress.Address), nil
}

// KnownEntityAddresses returns the well-known system addresses of network.
func (tk *Toolkit) KnownEntityAddresses(network model.NetworkID) (KnownEntityAddressesResponse, error) {
	return Call[KnownEntityAddressesResponse](tk, OpKnownEntityAddresses, KnownEntityAddressesRequest{NetworkID: network})
}
