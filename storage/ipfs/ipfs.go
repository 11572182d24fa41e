// Package ipfs stores envelopes in a local IPFS repository through the Kubo
// "ipfs" CLI. It needs no daemon: every call runs the binary offline.
package ipfs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/ipfs/go-cid"

	"xdao.co/txkit/cidutil"
	"xdao.co/txkit/storage"
)

// CAS is a storage.CAS over the Kubo CLI. Blocks are written with the
// dag-json codec and a blake2b-256 multihash so the CIDs match cidutil.Sum.
type CAS struct {
	bin string
	env []string
}

var _ storage.CAS = (*CAS)(nil)

type Options struct {
	// Bin is the path to the ipfs binary. If empty, "ipfs" is used.
	Bin string
	// Env overrides the command environment (e.g. to set IPFS_PATH).
	// If nil, the process environment is used.
	Env []string
}

func New(opts Options) *CAS {
	bin := opts.Bin
	if bin == "" {
		bin = "ipfs"
	}
	return &CAS{bin: bin, env: opts.Env}
}

func (c *CAS) Put(ctx context.Context, data []byte) (cid.Cid, error) {
	id, err := cidutil.Sum(data)
	if err != nil {
		return cid.Undef, err
	}

	out, err := c.run(ctx, data,
		"block", "put",
		"--offline",
		"--quiet",
		"--cid-codec=dag-json",
		"--mhtype=blake2b-256",
		"--mhlen=32",
		"/dev/stdin",
	)
	if err != nil {
		return cid.Undef, err
	}

	got, err := cid.Decode(strings.TrimSpace(string(out)))
	if err != nil {
		return cid.Undef, fmt.Errorf("ipfs: unexpected block put output: %w", err)
	}
	if !got.Equals(id) {
		return cid.Undef, storage.ErrCIDMismatch
	}
	return id, nil
}

func (c *CAS) Get(ctx context.Context, id cid.Cid) ([]byte, error) {
	if !id.Defined() {
		return nil, storage.ErrInvalidCID
	}

	out, err := c.run(ctx, nil, "block", "get", "--offline", id.String())
	if err != nil {
		if isNotFound(err) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	if err := cidutil.Check(id, out); err != nil {
		return nil, storage.ErrCIDMismatch
	}
	return out, nil
}

func (c *CAS) Has(ctx context.Context, id cid.Cid) (bool, error) {
	if !id.Defined() {
		return false, nil
	}
	_, err := c.run(ctx, nil, "block", "stat", "--offline", id.String())
	switch {
	case err == nil:
		return true, nil
	case isNotFound(err):
		return false, nil
	default:
		return false, err
	}
}

func (c *CAS) run(ctx context.Context, stdin []byte, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, c.bin, args...)
	if c.env != nil {
		cmd.Env = c.env
	}
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}

	out, err := cmd.Output()
	if err == nil {
		return out, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	var ee *exec.ExitError
	if errors.As(err, &ee) {
		msg := strings.TrimSpace(string(ee.Stderr))
		if msg == "" {
			return nil, fmt.Errorf("ipfs: %w", err)
		}
		return nil, fmt.Errorf("ipfs: %s", msg)
	}
	return nil, err
}

func isNotFound(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "not found")
}
