package txn

import (
	"fmt"

	"xdao.co/txkit/model"
)

// State is the stage a Context has reached.
type State string

const (
	StateUnsigned        State = "unsigned"
	StatePartiallySigned State = "partially_signed"
	StateNotarized       State = "notarized"
)

// Compiler produces the canonical compiled payloads of transaction values.
// *engine.Toolkit satisfies it.
type Compiler interface {
	CompileTransactionIntent(model.TransactionIntent) ([]byte, error)
	CompileSignedTransactionIntent(model.SignedTransactionIntent) ([]byte, error)
	CompileNotarizedTransaction(model.NotarizedTransaction) ([]byte, error)
}

// Signer is an opaque signing capability.
//
// Sign hashes msg with model.HashOf, signs the hash and returns both.
type Signer interface {
	PublicKey() model.PublicKey
	Sign(msg []byte) (model.HashedData, model.SignatureWithPublicKey, error)
}

// Context carries a transaction through compilation, signing and
// notarization. The zero value is not usable; start with Compile.
type Context struct {
	state          State
	intent         model.TransactionIntent
	compiledIntent []byte
	intentHash     model.HashedData
	signatures     []model.SignatureWithPublicKey

	compiledSignedIntent []byte
	notarized            model.NotarizedTransaction
	notarizedHash        model.HashedData
}

// Compile compiles intent and records its hash.
func Compile(c Compiler, intent model.TransactionIntent) (Context, error) {
	if c == nil {
		return Context{}, ErrMissingCompiler
	}
	if err := intent.Validate(); err != nil {
		return Context{}, fmt.Errorf("txn: compile: %w", err)
	}
	compiled, err := c.CompileTransactionIntent(intent)
	if err != nil {
		return Context{}, fmt.Errorf("txn: compile intent: %w", err)
	}
	return Context{
		state:          StateUnsigned,
		intent:         intent,
		compiledIntent: compiled,
		intentHash:     model.HashOf(compiled),
	}, nil
}

// SignIntent compiles intent and signs it with every signer.
func SignIntent(c Compiler, intent model.TransactionIntent, signers ...Signer) (Context, error) {
	ctx, err := Compile(c, intent)
	if err != nil {
		return Context{}, err
	}
	return ctx.Sign(signers...)
}

// NotarizeIntent notarizes intent with no intent signatures.
func NotarizeIntent(c Compiler, intent model.TransactionIntent, notary Signer) (Context, error) {
	ctx, err := SignIntent(c, intent)
	if err != nil {
		return Context{}, err
	}
	return ctx.Notarize(c, notary)
}

// Sign has each signer sign the compiled intent and appends the signatures
// in order. Signing with no signers is allowed and moves the context to
// StatePartiallySigned.
//
// Sign panics if a signer hashed different bytes than the compiled intent.
func (ctx Context) Sign(signers ...Signer) (Context, error) {
	switch ctx.state {
	case StateNotarized:
		return ctx, ErrAlreadyNotarized
	case StateUnsigned, StatePartiallySigned:
	default:
		return ctx, fmt.Errorf("txn: sign: context was not compiled")
	}

	sigs := make([]model.SignatureWithPublicKey, 0, len(ctx.signatures)+len(signers))
	sigs = append(sigs, ctx.signatures...)
	for i, s := range signers {
		if s == nil {
			return ctx, fmt.Errorf("%w: signer %d", ErrMissingSigner, i)
		}
		hash, sig, err := s.Sign(ctx.compiledIntent)
		if err != nil {
			return ctx, fmt.Errorf("txn: signer %d (%s): %w", i, s.PublicKey(), err)
		}
		if hash != ctx.intentHash {
			panic(fmt.Sprintf("txn: signer %d hashed %s, intent hash is %s", i, hash, ctx.intentHash))
		}
		if err := sig.Validate(); err != nil {
			return ctx, fmt.Errorf("txn: signer %d: %w", i, err)
		}
		sigs = append(sigs, sig)
	}

	next := ctx
	next.state = StatePartiallySigned
	next.signatures = sigs
	return next, nil
}

// Notarize compiles the signed intent and has notary sign that payload.
// The notary's key must be the header's notary public key.
func (ctx Context) Notarize(c Compiler, notary Signer) (Context, error) {
	if c == nil {
		return ctx, ErrMissingCompiler
	}
	if notary == nil {
		return ctx, fmt.Errorf("%w: notary", ErrMissingSigner)
	}
	switch ctx.state {
	case StateNotarized:
		return ctx, ErrAlreadyNotarized
	case StateUnsigned:
		var err error
		if ctx, err = ctx.Sign(); err != nil {
			return ctx, err
		}
	case StatePartiallySigned:
	default:
		return ctx, fmt.Errorf("txn: notarize: context was not compiled")
	}

	if want := ctx.intent.Header.NotaryPublicKey; !want.Equal(notary.PublicKey()) {
		return ctx, fmt.Errorf("txn: notary key %s does not match header notary key %s", notary.PublicKey(), want)
	}

	signed := ctx.SignedIntent()
	compiled, err := c.CompileSignedTransactionIntent(signed)
	if err != nil {
		return ctx, fmt.Errorf("txn: compile signed intent: %w", err)
	}
	signedHash := model.HashOf(compiled)

	hash, sig, err := notary.Sign(compiled)
	if err != nil {
		return ctx, fmt.Errorf("txn: notary (%s): %w", notary.PublicKey(), err)
	}
	if hash != signedHash {
		return ctx, fmt.Errorf("txn: notary hashed %s, signed intent hash is %s", hash, signedHash)
	}
	if err := sig.Validate(); err != nil {
		return ctx, fmt.Errorf("txn: notary: %w", err)
	}

	next := ctx
	next.state = StateNotarized
	next.compiledSignedIntent = compiled
	next.notarized = model.NotarizedTransaction{SignedIntent: signed, NotarySignature: sig}
	next.notarizedHash = signedHash
	return next, nil
}

// CompileNotarized returns the compiled notarized transaction, the payload a
// gateway accepts for submission.
func (ctx Context) CompileNotarized(c Compiler) ([]byte, error) {
	if c == nil {
		return nil, ErrMissingCompiler
	}
	if ctx.state != StateNotarized {
		return nil, ErrNotNotarized
	}
	compiled, err := c.CompileNotarizedTransaction(ctx.notarized)
	if err != nil {
		return nil, fmt.Errorf("txn: compile notarized transaction: %w", err)
	}
	return compiled, nil
}

func (ctx Context) State() State                    { return ctx.state }
func (ctx Context) Intent() model.TransactionIntent { return ctx.intent }
func (ctx Context) IntentHash() model.HashedData    { return ctx.intentHash }
func (ctx Context) CompiledIntent() []byte          { return append([]byte(nil), ctx.compiledIntent...) }
func (ctx Context) NotarizedHash() model.HashedData { return ctx.notarizedHash }
func (ctx Context) CompiledSignedIntent() []byte    { return append([]byte(nil), ctx.compiledSignedIntent...) }

// Signatures returns a copy of the intent signatures in signing order.
func (ctx Context) Signatures() []model.SignatureWithPublicKey {
	return append([]model.SignatureWithPublicKey(nil), ctx.signatures...)
}

// SignedIntent returns the intent together with the signatures collected so far.
func (ctx Context) SignedIntent() model.SignedTransactionIntent {
	return model.SignedTransactionIntent{Intent: ctx.intent, IntentSignatures: ctx.Signatures()}
}

// Notarized returns the notarized transaction once the context is notarized.
func (ctx Context) Notarized() (model.NotarizedTransaction, bool) {
	if ctx.state != StateNotarized {
		return model.NotarizedTransaction{}, false
	}
	n := ctx.notarized
	n.SignedIntent.IntentSignatures = append([]model.SignatureWithPublicKey(nil), n.SignedIntent.IntentSignatures...)
	return n, true
}
