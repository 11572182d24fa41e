package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/ipfs/go-cid"

	"xdao.co/txkit/archive"
)

func cmdBundle(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(errOut, "usage: txkit bundle <subcommand> ...")
		fmt.Fprintln(errOut, "subcommands: export, import")
		return 2
	}
	switch args[0] {
	case "export":
		return cmdBundleExport(args[1:], out, errOut)
	case "import":
		return cmdBundleImport(args[1:], out, errOut)
	default:
		fmt.Fprintf(errOut, "unknown bundle subcommand: %s\n", args[0])
		return 2
	}
}

func cmdBundleExport(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("bundle export", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var common commonFlags
	var outPath string
	common.register(fs)
	fs.StringVar(&outPath, "out", "", "Bundle file to write")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if outPath == "" || fs.NArg() == 0 {
		fmt.Fprintln(errOut, "usage: txkit bundle export --out <bundle.tar> <CID> [<CID> ...]")
		return 2
	}
	ids := make([]cid.Cid, 0, fs.NArg())
	for _, arg := range fs.Args() {
		id, err := cid.Decode(arg)
		if err != nil {
			fmt.Fprintf(errOut, "invalid CID %q: %v\n", arg, err)
			return 2
		}
		ids = append(ids, id)
	}

	s, err := openSession(common, errOut)
	if err != nil {
		fmt.Fprintf(errOut, "engine: %v\n", err)
		return 1
	}
	ctx := context.Background()
	cas, closeFn, err := s.cfg.OpenCAS(ctx)
	if err != nil {
		fmt.Fprintf(errOut, "cas: %v\n", err)
		return 1
	}
	defer closeFn()

	f, err := os.Create(outPath)
	if err != nil {
		fmt.Fprintf(errOut, "create bundle: %v\n", err)
		return 1
	}
	if err := (archive.Store{CAS: cas}).ExportBundle(ctx, f, ids); err != nil {
		_ = f.Close()
		fmt.Fprintf(errOut, "export: %v\n", err)
		return 1
	}
	if err := f.Close(); err != nil {
		fmt.Fprintf(errOut, "write bundle: %v\n", err)
		return 1
	}
	s.log.Info().Int("envelopes", len(ids)).Str("file", outPath).Msg("bundle written")
	return 0
}

func cmdBundleImport(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("bundle import", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var common commonFlags
	common.register(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: txkit bundle import <bundle.tar>")
		return 2
	}

	s, err := openSession(common, errOut)
	if err != nil {
		fmt.Fprintf(errOut, "engine: %v\n", err)
		return 1
	}
	f, err := os.Open(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(errOut, "open bundle: %v\n", err)
		return 1
	}
	defer f.Close()

	ctx := context.Background()
	cas, closeFn, err := s.cfg.OpenCAS(ctx)
	if err != nil {
		fmt.Fprintf(errOut, "cas: %v\n", err)
		return 1
	}
	defer closeFn()

	ids, err := archive.Store{CAS: cas}.ImportBundle(ctx, f)
	if err != nil {
		fmt.Fprintf(errOut, "import: %v\n", err)
		return 1
	}
	for _, id := range ids {
		fmt.Fprintln(out, id)
	}
	return 0
}
