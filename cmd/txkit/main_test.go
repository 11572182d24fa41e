package main

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"xdao.co/txkit/engine"
	"xdao.co/txkit/engine/enginetest"
	"xdao.co/txkit/keys"
	"xdao.co/txkit/model"
	"xdao.co/txkit/txn"
)

// sandbox points the key store at a fresh home directory and binds the
// simulated engine.
func sandbox(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)

	prev := openLibrary
	openLibrary = func() (engine.Library, error) { return enginetest.Simulated(), nil }
	t.Cleanup(func() { openLibrary = prev })
	return home
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code := run(args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	code, out, errOut := runCLI(t, args...)
	if code != 0 {
		t.Fatalf("txkit %s: exit %d\nstderr:\n%s", strings.Join(args, " "), code, errOut)
	}
	return out
}

func seedHex(b byte) string { return strings.Repeat(fmt.Sprintf("%02x", b), keys.SeedSize) }

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func withdrawManifest(t *testing.T, dir string) string {
	t.Helper()
	from := enginetest.Account(model.NetworkSimulator, 2)
	to := enginetest.Account(model.NetworkSimulator, 3)
	return writeFile(t, dir, "transfer.rtm", fmt.Sprintf(`CALL_METHOD ComponentAddress("%s") "withdraw" ResourceAddress("resource_sim1") Decimal("5");
CALL_METHOD ComponentAddress("%s") "deposit_batch" Expression("ENTIRE_WORKTOP");
`, from, to))
}

func TestRun_Usage(t *testing.T) {
	if code, _, _ := runCLI(t); code != 2 {
		t.Fatalf("no args: expected exit 2, got %d", code)
	}
	if code, out, _ := runCLI(t, "help"); code != 0 || !strings.Contains(out, "txkit build") {
		t.Fatalf("help: exit %d\n%s", code, out)
	}
	if code, _, errOut := runCLI(t, "launch"); code != 2 || !strings.Contains(errOut, "unknown command") {
		t.Fatalf("unknown command: exit %d\n%s", code, errOut)
	}
}

func TestInfo(t *testing.T) {
	sandbox(t)
	out := mustRun(t, "info")
	if !strings.Contains(out, "package_version: 0.9.0-sim") || !strings.Contains(out, "network: simulator (242)") {
		t.Fatalf("unexpected info output:\n%s", out)
	}
}

func TestInfo_NativeUnavailable(t *testing.T) {
	sandbox(t)
	openLibrary = func() (engine.Library, error) { return nil, engine.ErrNativeUnavailable }
	code, _, errOut := runCLI(t, "info")
	if code != 1 || !strings.Contains(errOut, "native library not linked") {
		t.Fatalf("expected exit 1 with a linking hint, got %d\n%s", code, errOut)
	}
}

func TestKey_Lifecycle(t *testing.T) {
	sandbox(t)

	out := mustRun(t, "key", "init", "--name", "alice", "--seed-hex", seedHex(4))
	want, err := keys.NewSigner(model.CurveEd25519, bytes.Repeat([]byte{4}, keys.SeedSize))
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}
	if !strings.Contains(out, want.PublicKey().String()) {
		t.Fatalf("init output does not name the public key:\n%s", out)
	}

	if code, _, _ := runCLI(t, "key", "init", "--name", "alice", "--seed-hex", seedHex(5)); code != 1 {
		t.Fatalf("re-init without --force: expected exit 1, got %d", code)
	}

	mustRun(t, "key", "init", "--name", "bob", "--curve", "secp256k1", "--seed-hex", seedHex(6))
	mustRun(t, "key", "derive", "--from", "alice", "--role", "payer")

	list := mustRun(t, "key", "list")
	for _, line := range []string{"alice (EddsaEd25519)", "  - payer", "bob (EcdsaSecp256k1)"} {
		if !strings.Contains(list, line) {
			t.Fatalf("key list missing %q:\n%s", line, list)
		}
	}

	exported := strings.TrimSpace(mustRun(t, "key", "export", "--name", "alice"))
	if exported != want.PublicKey().String() {
		t.Fatalf("export: got %s want %s", exported, want.PublicKey())
	}
	if _, err := keys.ParsePublicKey(exported); err != nil {
		t.Fatalf("exported key does not parse: %v", err)
	}

	if code, _, _ := runCLI(t, "key", "derive", "--from", "alice"); code != 2 {
		t.Fatalf("derive without --role: expected exit 2, got %d", code)
	}
	if code, _, _ := runCLI(t, "key", "init", "--name", "../evil"); code != 2 {
		t.Fatalf("path traversal name: expected exit 2, got %d", code)
	}
}

func TestSigners(t *testing.T) {
	sandbox(t)
	path := withdrawManifest(t, t.TempDir())

	required := strings.Fields(mustRun(t, "signers", path))
	if len(required) != 1 || required[0] != string(enginetest.Account(model.NetworkSimulator, 2)) {
		t.Fatalf("unexpected required signers %v", required)
	}

	payers := strings.Fields(mustRun(t, "signers", "--fee-payers", path))
	if len(payers) != 2 {
		t.Fatalf("unexpected fee payers %v", payers)
	}

	bad := writeFile(t, t.TempDir(), "bad.rtm", `TELEPORT "x";`)
	if code, _, _ := runCLI(t, "signers", bad); code != 1 {
		t.Fatalf("unparseable manifest: expected exit 1, got %d", code)
	}
}

func initKeys(t *testing.T) {
	t.Helper()
	mustRun(t, "key", "init", "--name", "notary", "--seed-hex", seedHex(1))
	mustRun(t, "key", "init", "--name", "alice", "--seed-hex", seedHex(2))
	mustRun(t, "key", "init", "--name", "bob", "--curve", "secp256k1", "--seed-hex", seedHex(3))
}

func TestBuildCosignPayload(t *testing.T) {
	sandbox(t)
	initKeys(t)
	dir := t.TempDir()
	manifestPath := withdrawManifest(t, dir)
	feePayer := string(enginetest.Account(model.NetworkSimulator, 2))

	first := mustRun(t, "build",
		"--manifest", manifestPath,
		"--notary", "notary",
		"--start-epoch", "100",
		"--nonce", "9",
		"--lock-fee", feePayer,
		"--sign", "alice",
	)
	env, err := txn.UnmarshalEnvelope([]byte(first))
	if err != nil {
		t.Fatalf("UnmarshalEnvelope: %v", err)
	}
	if env.State != txn.StatePartiallySigned || len(env.IntentSignatures) != 1 {
		t.Fatalf("unexpected envelope state %q with %d signatures", env.State, len(env.IntentSignatures))
	}
	if env.Intent.Header.EndEpochExclusive != 110 || env.Intent.Header.Nonce != 9 {
		t.Fatalf("header defaults not applied: %+v", env.Intent.Header)
	}

	if code, _, _ := runCLI(t, "payload", "--in", writeFile(t, dir, "partial.json", first)); code != 1 {
		t.Fatalf("payload of an unnotarized envelope: expected exit 1, got %d", code)
	}

	done := mustRun(t, "cosign",
		"--in", writeFile(t, dir, "partial.json", first),
		"--sign", "bob",
		"--notarize", "--notary", "notary",
	)
	env, err = txn.UnmarshalEnvelope([]byte(done))
	if err != nil {
		t.Fatalf("UnmarshalEnvelope: %v", err)
	}
	if env.State != txn.StateNotarized || len(env.IntentSignatures) != 2 || env.NotarySignature == nil {
		t.Fatalf("unexpected notarized envelope:\n%s", done)
	}

	payload := strings.TrimSpace(mustRun(t, "payload", "--in", writeFile(t, dir, "done.json", done)))
	b, err := hex.DecodeString(payload)
	if err != nil || len(b) == 0 {
		t.Fatalf("payload is not hex: %v", err)
	}
	if !enginetest.CompiledPayload(engine.OpCompileNotarizedTransaction, b) {
		t.Fatalf("payload is not a compiled notarized transaction")
	}

	if code, _, _ := runCLI(t, "cosign", "--in", writeFile(t, dir, "done.json", done), "--sign", "alice"); code != 1 {
		t.Fatalf("signing a notarized envelope: expected exit 1, got %d", code)
	}
}

func TestBuild_WrongNotaryRejected(t *testing.T) {
	sandbox(t)
	initKeys(t)
	dir := t.TempDir()

	partial := mustRun(t, "build", "--manifest", withdrawManifest(t, dir), "--notary", "notary", "--start-epoch", "5")
	code, _, errOut := runCLI(t, "cosign", "--in", writeFile(t, dir, "p.json", partial), "--notarize", "--notary", "alice")
	if code != 1 || !strings.Contains(errOut, "notarize") {
		t.Fatalf("expected notarization with the wrong key to fail, got %d\n%s", code, errOut)
	}
}

func TestBuild_FlagErrors(t *testing.T) {
	sandbox(t)
	for _, args := range [][]string{
		{"build"},
		{"build", "--manifest", "m.rtm"},
		{"build", "--manifest", "m.rtm", "--notary", "n"},
		{"build", "--manifest", "m.rtm", "--notary", "../n", "--start-epoch", "1"},
		{"cosign", "--sign", "alice"},
		{"cosign", "--in", "a.json", "--cid", "x", "--sign", "alice"},
		{"cosign", "--in", "a.json"},
		{"cosign", "--in", "a.json", "--notarize"},
		{"payload"},
	} {
		if code, _, _ := runCLI(t, args...); code != 2 {
			t.Fatalf("%v: expected exit 2, got %d", args, code)
		}
	}
}

func TestArchiveRoundTrip(t *testing.T) {
	sandbox(t)
	initKeys(t)
	dir := t.TempDir()
	cfg := writeFile(t, dir, "txkit.json", fmt.Sprintf(`{
  "network_id": "simulator",
  "header": {"epoch_window": 3},
  "cas": {"backends": [{"name": "local", "type": "localfs", "dir": %q}]}
}`, filepath.Join(dir, "cas")))

	firstCID := strings.TrimSpace(mustRun(t, "build", "--config", cfg,
		"--manifest", withdrawManifest(t, dir),
		"--notary", "notary",
		"--start-epoch", "20",
		"--sign", "alice",
		"--archive",
	))
	doneCID := strings.TrimSpace(mustRun(t, "cosign", "--config", cfg,
		"--cid", firstCID,
		"--notarize", "--notary", "notary",
		"--archive",
	))
	if doneCID == firstCID {
		t.Fatalf("notarizing must produce a new envelope CID")
	}
	if payload := mustRun(t, "payload", "--config", cfg, "--cid", doneCID); strings.TrimSpace(payload) == "" {
		t.Fatalf("empty payload")
	}

	bundlePath := filepath.Join(dir, "handoff.tar")
	mustRun(t, "bundle", "export", "--config", cfg, "--out", bundlePath, firstCID, doneCID)
	other := writeFile(t, dir, "other.json", fmt.Sprintf(`{"cas": {"backends": [{"name": "other", "type": "localfs", "dir": %q}]}}`,
		filepath.Join(dir, "other-cas")))
	imported := strings.Fields(mustRun(t, "bundle", "import", "--config", other, bundlePath))
	if len(imported) != 2 {
		t.Fatalf("expected 2 imported envelopes, got %v", imported)
	}
	mustRun(t, "payload", "--config", other, "--cid", doneCID)

	if code, _, _ := runCLI(t, "cosign", "--cid", firstCID, "--sign", "bob"); code != 1 {
		t.Fatalf("--cid without a configured CAS: expected exit 1, got %d", code)
	}
}

func TestHash(t *testing.T) {
	sandbox(t)
	dir := t.TempDir()
	intent := enginetest.Intent(model.NetworkSimulator, enginetest.NotaryKey(1),
		model.CallMethod{
			ComponentAddress: model.ComponentAddress{Address: string(enginetest.Account(model.NetworkSimulator, 2))},
			MethodName:       "lock_fee",
			Arguments:        model.Values{model.Decimal("10")},
		},
	)
	b, err := json.Marshal(intent)
	if err != nil {
		t.Fatalf("marshal intent: %v", err)
	}
	got := strings.TrimSpace(mustRun(t, "hash", writeFile(t, dir, "intent.json", string(b))))

	ctx, err := txn.Compile(engine.New(enginetest.Simulated(), engine.Options{}), intent)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if got != ctx.IntentHash().Hex() {
		t.Fatalf("hash: got %s want %s", got, ctx.IntentHash().Hex())
	}
}
