package model

import "fmt"

// TransactionVersion is the only header version the engine accepts.
const TransactionVersion Uint8 = 1

// TransactionHeader carries the replay and fee parameters of an intent.
// The epoch range is half-open: [StartEpochInclusive, EndEpochExclusive).
type TransactionHeader struct {
	Version             Uint8     `json:"version"`
	NetworkID           NetworkID `json:"network_id"`
	StartEpochInclusive Epoch     `json:"start_epoch_inclusive"`
	EndEpochExclusive   Epoch     `json:"end_epoch_exclusive"`
	Nonce               Nonce     `json:"nonce"`
	NotaryPublicKey     PublicKey `json:"notary_public_key"`
	NotaryAsSignatory   bool      `json:"notary_as_signatory"`
	CostUnitLimit       Uint32    `json:"cost_unit_limit"`
	TipPercentage       Uint32    `json:"tip_percentage"`
}

// Validate checks the header invariants that can be decided locally.
func (h TransactionHeader) Validate() error {
	if h.EndEpochExclusive <= h.StartEpochInclusive {
		return fmt.Errorf("header: empty epoch range [%d, %d)", h.StartEpochInclusive, h.EndEpochExclusive)
	}
	if err := h.NotaryPublicKey.Validate(); err != nil {
		return fmt.Errorf("header: notary public key: %w", err)
	}
	return nil
}
