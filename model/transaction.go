package model

import (
	"encoding/json"
	"fmt"
)

// TransactionIntent is a header plus the manifest it authorizes.
type TransactionIntent struct {
	Header   TransactionHeader `json:"header"`
	Manifest Manifest          `json:"manifest"`
}

// SignedTransactionIntent is an intent plus the signatures collected over its
// compiled form, in signing order.
type SignedTransactionIntent struct {
	Intent           TransactionIntent        `json:"intent"`
	IntentSignatures []SignatureWithPublicKey `json:"intent_signatures"`
}

type signedIntentWire SignedTransactionIntent

func (s SignedTransactionIntent) MarshalJSON() ([]byte, error) {
	w := signedIntentWire(s)
	if w.IntentSignatures == nil {
		w.IntentSignatures = []SignatureWithPublicKey{}
	}
	return json.Marshal(w)
}

func (s *SignedTransactionIntent) UnmarshalJSON(data []byte) error {
	var w signedIntentWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*s = SignedTransactionIntent(w)
	return nil
}

// NotarizedTransaction is a signed intent sealed by the notary.
//
// On the wire the notary signature carries no public key; it is the header's
// notary public key.
type NotarizedTransaction struct {
	SignedIntent    SignedTransactionIntent
	NotarySignature SignatureWithPublicKey
}

type notarizedWire struct {
	SignedIntent    SignedTransactionIntent `json:"signed_intent"`
	NotarySignature Signature               `json:"notary_signature"`
}

func (n NotarizedTransaction) MarshalJSON() ([]byte, error) {
	notary := n.SignedIntent.Intent.Header.NotaryPublicKey
	if !notary.Equal(n.NotarySignature.PublicKey) {
		return nil, fmt.Errorf("notarized transaction: notary signature key does not match header notary key")
	}
	return json.Marshal(notarizedWire{
		SignedIntent:    n.SignedIntent,
		NotarySignature: n.NotarySignature.Signature,
	})
}

func (n *NotarizedTransaction) UnmarshalJSON(data []byte) error {
	var w notarizedWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	sig, err := NewSignatureWithPublicKey(w.SignedIntent.Intent.Header.NotaryPublicKey, w.NotarySignature)
	if err != nil {
		return fmt.Errorf("notarized transaction: %w", err)
	}
	n.SignedIntent = w.SignedIntent
	n.NotarySignature = sig
	return nil
}

// Validate checks the invariants that can be decided without the engine.
func (i TransactionIntent) Validate() error {
	if err := i.Header.Validate(); err != nil {
		return err
	}
	if i.Manifest.Instructions == nil {
		return fmt.Errorf("intent: manifest has no instructions")
	}
	return nil
}

func (s SignedTransactionIntent) Validate() error {
	if err := s.Intent.Validate(); err != nil {
		return err
	}
	for i, sig := range s.IntentSignatures {
		if err := sig.Validate(); err != nil {
			return fmt.Errorf("intent signature %d: %w", i, err)
		}
	}
	return nil
}

func (n NotarizedTransaction) Validate() error {
	if err := n.SignedIntent.Validate(); err != nil {
		return err
	}
	if !n.SignedIntent.Intent.Header.NotaryPublicKey.Equal(n.NotarySignature.PublicKey) {
		return fmt.Errorf("notarized transaction: notary signature key does not match header notary key")
	}
	return n.NotarySignature.Validate()
}
