package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"xdao.co/txkit/config"
	"xdao.co/txkit/engine"
)

// openLibrary binds the engine. Tests swap in the simulated engine.
var openLibrary = engine.OpenNative

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		printUsage(errOut)
		return 2
	}

	switch args[0] {
	case "info":
		return cmdInfo(args[1:], out, errOut)
	case "hash":
		return cmdHash(args[1:], out, errOut)
	case "signers":
		return cmdSigners(args[1:], out, errOut)
	case "build":
		return cmdBuild(args[1:], out, errOut)
	case "cosign":
		return cmdCosign(args[1:], out, errOut)
	case "payload":
		return cmdPayload(args[1:], out, errOut)
	case "bundle":
		return cmdBundle(args[1:], out, errOut)
	case "key":
		return cmdKey(args[1:], out, errOut)
	case "help", "-h", "--help":
		printUsage(out)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown command: %s\n\n", args[0])
		printUsage(errOut)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "txkit: build, sign and notarize ledger transactions")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  txkit info")
	fmt.Fprintln(w, "  txkit hash <intent.json>")
	fmt.Fprintln(w, "  txkit signers [--fee-payers] <manifest>")
	fmt.Fprintln(w, "  txkit build --manifest <file> --notary <name[:role]> --start-epoch <n> [--nonce <n>] [--lock-fee <account>] [--sign <name[:role]> ...] [--notarize] [--archive]")
	fmt.Fprintln(w, "  txkit cosign (--in <envelope.json> | --cid <CID>) [--sign <name[:role]> ...] [--notarize --notary <name[:role]>] [--archive]")
	fmt.Fprintln(w, "  txkit payload (--in <envelope.json> | --cid <CID>)")
	fmt.Fprintln(w, "  txkit bundle export --out <bundle.tar> <CID> [<CID> ...]")
	fmt.Fprintln(w, "  txkit bundle import <bundle.tar>")
	fmt.Fprintln(w, "  txkit key init --name <name> [--curve ed25519|secp256k1] [--seed-hex <64hex>] [--force]")
	fmt.Fprintln(w, "  txkit key derive --from <name> --role <role> [--force]")
	fmt.Fprintln(w, "  txkit key list")
	fmt.Fprintln(w, "  txkit key export --name <name> [--role <role>]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Common flags:")
	fmt.Fprintln(w, "  --config <txkit.json>  network, header defaults and CAS backends")
	fmt.Fprintln(w, "  --debug                log every engine request and response to stderr")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Notes:")
	fmt.Fprintln(w, "  - <manifest> is manifest text, or a JSON manifest when it starts with '{'")
	fmt.Fprintln(w, "  - build and cosign print the envelope JSON, or its CID with --archive")
	fmt.Fprintln(w, "  - bundles carry envelopes between CAS stores for offline co-signing")
	fmt.Fprintln(w, "  - payload prints the compiled notarized transaction as hex")
	fmt.Fprintln(w, "  - keys are stored under ~/.txkit/keys/<name> (0600 key files)")
}

type commonFlags struct {
	configPath string
	debug      bool
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configPath, "config", "", "Path to txkit.json")
	fs.BoolVar(&c.debug, "debug", false, "Log engine requests and responses")
}

// session is the per-invocation state shared by the transaction commands.
type session struct {
	cfg config.Config
	log zerolog.Logger
	tk  *engine.Toolkit
}

func openSession(flags commonFlags, errOut io.Writer) (*session, error) {
	cfg := config.Default()
	if flags.configPath != "" {
		var err error
		cfg, err = config.LoadFile(flags.configPath)
		if err != nil {
			return nil, err
		}
	}
	debug := flags.debug || cfg.Debug

	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: errOut, NoColor: true}).
		Level(level).
		With().Timestamp().Str("network", cfg.NetworkID).
		Logger()

	lib, err := openLibrary()
	if err != nil {
		return nil, err
	}
	tk := engine.New(lib, engine.Options{Debug: debug, Logger: &log})
	return &session{cfg: cfg, log: log, tk: tk}, nil
}

type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }
func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func cmdInfo(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("info", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var common commonFlags
	common.register(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(errOut, "usage: txkit info")
		return 2
	}

	s, err := openSession(common, errOut)
	if err != nil {
		fmt.Fprintf(errOut, "engine: %v\n", err)
		return 1
	}
	info, err := s.tk.Information()
	if err != nil {
		fmt.Fprintf(errOut, "information: %v\n", err)
		return 1
	}
	fmt.Fprintf(out, "package_version: %s\n", info.PackageVersion)
	fmt.Fprintf(out, "last_commit_hash: %s\n", info.LastCommitHash)
	fmt.Fprintf(out, "network: %s (%d)\n", s.cfg.Network().Name(), s.cfg.Network())
	return 0
}
