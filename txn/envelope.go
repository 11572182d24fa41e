package txn

import (
	"bytes"
	"encoding/json"
	"fmt"

	"xdao.co/txkit/model"
)

// EnvelopeVersion is the only envelope layout Restore accepts.
const EnvelopeVersion = 1

// Envelope is the portable form of a Context. It lets a partially signed
// transaction travel to another process or device for co-signing.
type Envelope struct {
	Version          int                            `json:"envelope_version"`
	State            State                          `json:"state"`
	Intent           model.TransactionIntent        `json:"intent"`
	CompiledIntent   model.HexBytes                 `json:"compiled_intent"`
	IntentHash       model.HashedData               `json:"intent_hash"`
	IntentSignatures []model.SignatureWithPublicKey `json:"intent_signatures"`
	NotarySignature  *model.Signature               `json:"notary_signature,omitempty"`
	NotarizedHash    *model.HashedData              `json:"notarized_hash,omitempty"`
}

// Envelope exports ctx.
func (ctx Context) Envelope() Envelope {
	env := Envelope{
		Version:          EnvelopeVersion,
		State:            ctx.state,
		Intent:           ctx.intent,
		CompiledIntent:   ctx.CompiledIntent(),
		IntentHash:       ctx.intentHash,
		IntentSignatures: ctx.Signatures(),
	}
	if env.IntentSignatures == nil {
		env.IntentSignatures = []model.SignatureWithPublicKey{}
	}
	if ctx.state == StateNotarized {
		sig := ctx.notarized.NotarySignature.Signature
		hash := ctx.notarizedHash
		env.NotarySignature = &sig
		env.NotarizedHash = &hash
	}
	return env
}

// MarshalEnvelope encodes ctx as indented JSON.
func MarshalEnvelope(ctx Context) ([]byte, error) {
	b, err := json.MarshalIndent(ctx.Envelope(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("txn: encode envelope: %w", err)
	}
	return append(b, '\n'), nil
}

// UnmarshalEnvelope decodes an envelope without verifying it; pass the result
// to Restore.
func UnmarshalEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&env); err != nil {
		return Envelope{}, fmt.Errorf("txn: decode envelope: %w", err)
	}
	return env, nil
}

// Restore rebuilds a Context from env. The intent is recompiled and must
// reproduce the recorded compiled bytes and hash, and every intent signature
// must verify against that hash. A notarized envelope must also reproduce its
// notarized hash and carry a notary signature over it.
func Restore(c Compiler, env Envelope) (Context, error) {
	if env.Version != EnvelopeVersion {
		return Context{}, fmt.Errorf("txn: unsupported envelope version %d", env.Version)
	}
	ctx, err := Compile(c, env.Intent)
	if err != nil {
		return Context{}, err
	}
	if !bytes.Equal(ctx.compiledIntent, env.CompiledIntent) {
		return Context{}, fmt.Errorf("%w: compiled intent differs", ErrEnvelopeMismatch)
	}
	if ctx.intentHash != env.IntentHash {
		return Context{}, fmt.Errorf("%w: intent hash %s, recorded %s", ErrEnvelopeMismatch, ctx.intentHash, env.IntentHash)
	}
	for i, sig := range env.IntentSignatures {
		if err := sig.Verify(ctx.intentHash); err != nil {
			return Context{}, fmt.Errorf("%w: intent signature %d: %w", ErrEnvelopeMismatch, i, err)
		}
	}

	switch env.State {
	case StateUnsigned:
		if len(env.IntentSignatures) > 0 || env.NotarySignature != nil {
			return Context{}, fmt.Errorf("%w: unsigned envelope carries signatures", ErrEnvelopeMismatch)
		}
		return ctx, nil
	case StatePartiallySigned:
		if env.NotarySignature != nil {
			return Context{}, fmt.Errorf("%w: partially signed envelope carries a notary signature", ErrEnvelopeMismatch)
		}
		ctx.state = StatePartiallySigned
		ctx.signatures = append([]model.SignatureWithPublicKey(nil), env.IntentSignatures...)
		return ctx, nil
	case StateNotarized:
		return restoreNotarized(c, ctx, env)
	default:
		return Context{}, fmt.Errorf("txn: unknown envelope state %q", env.State)
	}
}

func restoreNotarized(c Compiler, ctx Context, env Envelope) (Context, error) {
	if env.NotarySignature == nil || env.NotarizedHash == nil {
		return Context{}, fmt.Errorf("%w: notarized envelope lacks notary signature or hash", ErrEnvelopeMismatch)
	}
	notary, err := model.NewSignatureWithPublicKey(ctx.intent.Header.NotaryPublicKey, *env.NotarySignature)
	if err != nil {
		return Context{}, fmt.Errorf("txn: envelope notary signature: %w", err)
	}

	ctx.state = StatePartiallySigned
	ctx.signatures = append([]model.SignatureWithPublicKey(nil), env.IntentSignatures...)
	signed := ctx.SignedIntent()
	compiled, err := c.CompileSignedTransactionIntent(signed)
	if err != nil {
		return Context{}, fmt.Errorf("txn: compile signed intent: %w", err)
	}
	hash := model.HashOf(compiled)
	if hash != *env.NotarizedHash {
		return Context{}, fmt.Errorf("%w: notarized hash %s, recorded %s", ErrEnvelopeMismatch, hash, *env.NotarizedHash)
	}
	if err := notary.Verify(hash); err != nil {
		return Context{}, fmt.Errorf("%w: notary signature: %w", ErrEnvelopeMismatch, err)
	}

	ctx.state = StateNotarized
	ctx.compiledSignedIntent = compiled
	ctx.notarized = model.NotarizedTransaction{SignedIntent: signed, NotarySignature: notary}
	ctx.notarizedHash = *env.NotarizedHash
	return ctx, nil
}
