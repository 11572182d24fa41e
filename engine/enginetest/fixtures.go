package enginetest

import (
	"bytes"

	"xdao.co/txkit/model"
)

// NotaryKey returns a syntactically valid Ed25519 public key filled with b.
func NotaryKey(b byte) model.PublicKey {
	return model.PublicKey{Curve: model.CurveEd25519, Bytes: bytes.Repeat([]byte{b}, 32)}
}

// Intent returns a valid intent on network carrying ins as a parsed manifest.
func Intent(network model.NetworkID, notary model.PublicKey, ins ...model.Instruction) model.TransactionIntent {
	return model.TransactionIntent{
		Header: model.TransactionHeader{
			Version:             model.TransactionVersion,
			NetworkID:           network,
			StartEpochInclusive: 10,
			EndEpochExclusive:   12,
			Nonce:               7,
			NotaryPublicKey:     notary,
			NotaryAsSignatory:   false,
			CostUnitLimit:       100_000_000,
			TipPercentage:       0,
		},
		Manifest: model.Manifest{Instructions: model.ParsedInstructions(ins)},
	}
}

// Account returns a simulated account address derived from a fixed seed.
func Account(network model.NetworkID, seed byte) model.AccountAddress {
	return VirtualAccountAddress(network, NotaryKey(seed))
}
