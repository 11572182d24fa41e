package main

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ipfs/go-cid"

	"xdao.co/txkit/archive"
	"xdao.co/txkit/keys"
	"xdao.co/txkit/manifest"
	"xdao.co/txkit/model"
	"xdao.co/txkit/txn"
)

// readManifest loads manifest text, or a JSON manifest when the file starts
// with '{'.
func readManifest(path string) (model.Manifest, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return model.Manifest{}, err
	}
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var m model.Manifest
		if err := json.Unmarshal(trimmed, &m); err != nil {
			return model.Manifest{}, err
		}
		return m, nil
	}
	return model.Manifest{Instructions: model.StringInstructions(string(b))}, nil
}

// parseSignerRef splits "name" or "name:role".
func parseSignerRef(ref string) (name, role string, err error) {
	name, role, _ = strings.Cut(ref, ":")
	if err := keys.CheckKeyName(name); err != nil {
		return "", "", err
	}
	if role != "" {
		if err := keys.CheckRole(role); err != nil {
			return "", "", err
		}
	}
	return name, role, nil
}

func loadSigners(refs []string) ([]txn.Signer, error) {
	if len(refs) == 0 {
		return nil, nil
	}
	ks, err := keys.CreateKeyStore("")
	if err != nil {
		return nil, err
	}
	out := make([]txn.Signer, 0, len(refs))
	for _, ref := range refs {
		name, role, err := parseSignerRef(ref)
		if err != nil {
			return nil, fmt.Errorf("signer %q: %w", ref, err)
		}
		s, err := ks.Signer(name, role)
		if err != nil {
			return nil, fmt.Errorf("signer %q: %w", ref, err)
		}
		out = append(out, s)
	}
	return out, nil
}

func randomNonce() (model.Nonce, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, err
	}
	return model.Nonce(binary.BigEndian.Uint64(b[:])), nil
}

func cmdHash(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("hash", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var common commonFlags
	common.register(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: txkit hash <intent.json>")
		return 2
	}

	b, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(errOut, "read intent: %v\n", err)
		return 1
	}
	var intent model.TransactionIntent
	if err := json.Unmarshal(b, &intent); err != nil {
		fmt.Fprintf(errOut, "invalid intent: %v\n", err)
		return 1
	}
	s, err := openSession(common, errOut)
	if err != nil {
		fmt.Fprintf(errOut, "engine: %v\n", err)
		return 1
	}
	ctx, err := txn.Compile(s.tk, intent)
	if err != nil {
		fmt.Fprintf(errOut, "compile intent: %v\n", err)
		return 1
	}
	fmt.Fprintln(out, ctx.IntentHash().Hex())
	return 0
}

func cmdSigners(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("signers", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var common commonFlags
	var feePayers bool
	common.register(fs)
	fs.BoolVar(&feePayers, "fee-payers", false, "List accounts able to lock the fee instead of required signers")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: txkit signers [--fee-payers] <manifest>")
		return 2
	}

	m, err := readManifest(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(errOut, "read manifest: %v\n", err)
		return 1
	}
	s, err := openSession(common, errOut)
	if err != nil {
		fmt.Fprintf(errOut, "engine: %v\n", err)
		return 1
	}

	analyse := manifest.AccountsRequiredToSign
	if feePayers {
		analyse = manifest.AccountsSuitableToPayTXFee
	}
	set, err := analyse(s.tk, m, s.cfg.Network())
	if err != nil {
		fmt.Fprintf(errOut, "analyse manifest: %v\n", err)
		return 1
	}
	for _, a := range set.Sorted() {
		fmt.Fprintln(out, a)
	}
	return 0
}

func cmdBuild(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("build", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var common commonFlags
	var manifestPath string
	var notaryRef string
	var startEpoch uint64
	var nonce uint64
	var lockFee string
	var sign stringList
	var notarize bool
	var archived bool

	common.register(fs)
	fs.StringVar(&manifestPath, "manifest", "", "Manifest file")
	fs.StringVar(&notaryRef, "notary", "", "Notary key as name or name:role")
	fs.Uint64Var(&startEpoch, "start-epoch", 0, "First epoch the transaction is valid in")
	fs.Uint64Var(&nonce, "nonce", 0, "Intent nonce (random when 0)")
	fs.StringVar(&lockFee, "lock-fee", "", "Prepend a lock_fee call on this account")
	fs.Var(&sign, "sign", "Intent signer as name or name:role (repeatable)")
	fs.BoolVar(&notarize, "notarize", false, "Notarize after signing")
	fs.BoolVar(&archived, "archive", false, "Store the envelope in the configured CAS and print its CID")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if manifestPath == "" {
		fmt.Fprintln(errOut, "missing --manifest")
		return 2
	}
	if notaryRef == "" {
		fmt.Fprintln(errOut, "missing --notary")
		return 2
	}
	if startEpoch == 0 {
		fmt.Fprintln(errOut, "missing --start-epoch")
		return 2
	}
	notaryName, notaryRole, err := parseSignerRef(notaryRef)
	if err != nil {
		fmt.Fprintf(errOut, "invalid --notary: %v\n", err)
		return 2
	}

	m, err := readManifest(manifestPath)
	if err != nil {
		fmt.Fprintf(errOut, "read manifest: %v\n", err)
		return 1
	}
	s, err := openSession(common, errOut)
	if err != nil {
		fmt.Fprintf(errOut, "engine: %v\n", err)
		return 1
	}
	if lockFee != "" {
		m, err = manifest.PrependLockFee(s.tk, m, s.cfg.Network(), model.AccountAddress(lockFee), manifest.DefaultLockFee)
		if err != nil {
			fmt.Fprintf(errOut, "lock fee: %v\n", err)
			return 1
		}
	}

	ks, err := keys.CreateKeyStore("")
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return 1
	}
	notaryKey, err := ks.ExportKey(notaryName, notaryRole)
	if err != nil {
		fmt.Fprintf(errOut, "notary key: %v\n", err)
		return 1
	}
	signers, err := loadSigners(sign)
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return 1
	}

	if nonce == 0 {
		n, err := randomNonce()
		if err != nil {
			fmt.Fprintf(errOut, "rand: %v\n", err)
			return 1
		}
		nonce = uint64(n)
	}
	intent := model.TransactionIntent{
		Header:   s.cfg.NewHeader(model.Epoch(startEpoch), model.Nonce(nonce), notaryKey),
		Manifest: m,
	}

	tx, err := txn.SignIntent(s.tk, intent, signers...)
	if err != nil {
		fmt.Fprintf(errOut, "build: %v\n", err)
		return 1
	}
	s.log.Debug().Str("intent_hash", tx.IntentHash().Hex()).Int("signatures", len(tx.Signatures())).Msg("intent signed")

	if notarize {
		notary, err := ks.Signer(notaryName, notaryRole)
		if err != nil {
			fmt.Fprintf(errOut, "notary key: %v\n", err)
			return 1
		}
		if tx, err = tx.Notarize(s.tk, notary); err != nil {
			fmt.Fprintf(errOut, "notarize: %v\n", err)
			return 1
		}
	}
	return emitEnvelope(s, tx, archived, out, errOut)
}

func cmdCosign(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("cosign", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var common commonFlags
	var src envelopeSource
	var sign stringList
	var notarize bool
	var notaryRef string
	var archived bool

	common.register(fs)
	src.register(fs)
	fs.Var(&sign, "sign", "Intent signer as name or name:role (repeatable)")
	fs.BoolVar(&notarize, "notarize", false, "Notarize after signing")
	fs.StringVar(&notaryRef, "notary", "", "Notary key as name or name:role (with --notarize)")
	fs.BoolVar(&archived, "archive", false, "Store the envelope in the configured CAS and print its CID")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if err := src.check(); err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}
	if notarize && notaryRef == "" {
		fmt.Fprintln(errOut, "missing --notary")
		return 2
	}
	if !notarize && len(sign) == 0 {
		fmt.Fprintln(errOut, "nothing to do: pass --sign and/or --notarize")
		return 2
	}

	s, err := openSession(common, errOut)
	if err != nil {
		fmt.Fprintf(errOut, "engine: %v\n", err)
		return 1
	}
	tx, err := src.load(s)
	if err != nil {
		fmt.Fprintf(errOut, "load envelope: %v\n", err)
		return 1
	}

	signers, err := loadSigners(sign)
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return 1
	}
	if len(signers) > 0 {
		if tx, err = tx.Sign(signers...); err != nil {
			fmt.Fprintf(errOut, "sign: %v\n", err)
			return 1
		}
	}
	if notarize {
		notaries, err := loadSigners([]string{notaryRef})
		if err != nil {
			fmt.Fprintf(errOut, "keys: %v\n", err)
			return 1
		}
		if tx, err = tx.Notarize(s.tk, notaries[0]); err != nil {
			fmt.Fprintf(errOut, "notarize: %v\n", err)
			return 1
		}
	}
	return emitEnvelope(s, tx, archived, out, errOut)
}

func cmdPayload(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("payload", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var common commonFlags
	var src envelopeSource
	common.register(fs)
	src.register(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if err := src.check(); err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}

	s, err := openSession(common, errOut)
	if err != nil {
		fmt.Fprintf(errOut, "engine: %v\n", err)
		return 1
	}
	tx, err := src.load(s)
	if err != nil {
		fmt.Fprintf(errOut, "load envelope: %v\n", err)
		return 1
	}
	b, err := tx.CompileNotarized(s.tk)
	if err != nil {
		fmt.Fprintf(errOut, "payload: %v\n", err)
		return 1
	}
	fmt.Fprintln(out, hex.EncodeToString(b))
	return 0
}

// envelopeSource reads an envelope from a file or from the configured CAS.
type envelopeSource struct {
	path string
	id   string
}

func (e *envelopeSource) register(fs *flag.FlagSet) {
	fs.StringVar(&e.path, "in", "", "Envelope JSON file")
	fs.StringVar(&e.id, "cid", "", "Envelope CID in the configured CAS")
}

func (e *envelopeSource) check() error {
	switch {
	case e.path == "" && e.id == "":
		return errors.New("missing --in or --cid")
	case e.path != "" && e.id != "":
		return errors.New("--in and --cid are mutually exclusive")
	}
	return nil
}

func (e *envelopeSource) load(s *session) (txn.Context, error) {
	if e.path != "" {
		b, err := os.ReadFile(e.path)
		if err != nil {
			return txn.Context{}, err
		}
		env, err := txn.UnmarshalEnvelope(b)
		if err != nil {
			return txn.Context{}, err
		}
		return txn.Restore(s.tk, env)
	}

	id, err := cid.Decode(e.id)
	if err != nil {
		return txn.Context{}, fmt.Errorf("invalid --cid: %w", err)
	}
	ctx := context.Background()
	cas, closeFn, err := s.cfg.OpenCAS(ctx)
	if err != nil {
		return txn.Context{}, err
	}
	defer closeFn()
	return archive.Store{CAS: cas}.Restore(ctx, s.tk, id)
}

func emitEnvelope(s *session, tx txn.Context, archived bool, out io.Writer, errOut io.Writer) int {
	if !archived {
		b, err := txn.MarshalEnvelope(tx)
		if err != nil {
			fmt.Fprintf(errOut, "encode envelope: %v\n", err)
			return 1
		}
		_, _ = out.Write(b)
		return 0
	}

	ctx := context.Background()
	cas, closeFn, err := s.cfg.OpenCAS(ctx)
	if err != nil {
		fmt.Fprintf(errOut, "cas: %v\n", err)
		return 1
	}
	defer closeFn()
	id, err := archive.Store{CAS: cas}.Put(ctx, tx)
	if err != nil {
		fmt.Fprintf(errOut, "archive: %v\n", err)
		return 1
	}
	s.log.Info().Str("cid", id.String()).Str("state", string(tx.State())).Msg("envelope archived")
	fmt.Fprintln(out, id)
	return 0
}
