// Package localfs stores envelopes as read-only files in a directory tree.
package localfs

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/ipfs/go-cid"

	"xdao.co/txkit/cidutil"
	"xdao.co/txkit/storage"
)

// CAS is a local filesystem-backed content-addressable store.
//
// Objects are written once, read-only, and keyed strictly by CID. The store
// never uses the network.
type CAS struct {
	root string
}

var _ storage.CAS = (*CAS)(nil)

// New constructs a filesystem CAS rooted at root. The directory will be created if needed.
func New(root string) (*CAS, error) {
	if root == "" {
		return nil, errors.New("localfs: root directory is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &CAS{root: root}, nil
}

func (c *CAS) Root() string { return c.root }

func (c *CAS) Put(ctx context.Context, data []byte) (cid.Cid, error) {
	if err := ctx.Err(); err != nil {
		return cid.Undef, err
	}
	id, err := cidutil.Sum(data)
	if err != nil {
		return cid.Undef, err
	}

	path := c.pathFor(id)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return cid.Undef, err
	}

	// Objects are linked into place from a synced temp file; a partial write
	// never appears under its CID.
	tmp, err := os.CreateTemp(filepath.Dir(path), ".put-*")
	if err != nil {
		return cid.Undef, err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return cid.Undef, err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return cid.Undef, err
	}
	if err := tmp.Close(); err != nil {
		return cid.Undef, err
	}
	if err := os.Chmod(tmp.Name(), 0o444); err != nil {
		return cid.Undef, err
	}

	if err := os.Link(tmp.Name(), path); err != nil {
		if !os.IsExist(err) {
			return cid.Undef, err
		}
		existing, rerr := os.ReadFile(path)
		if rerr != nil || !bytes.Equal(existing, data) {
			return cid.Undef, storage.ErrImmutable
		}
	}
	return id, nil
}

func (c *CAS) Get(ctx context.Context, id cid.Cid) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !id.Defined() {
		return nil, storage.ErrInvalidCID
	}
	b, err := os.ReadFile(c.pathFor(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	if err := cidutil.Check(id, b); err != nil {
		return nil, storage.ErrCIDMismatch
	}
	return b, nil
}

func (c *CAS) Has(ctx context.Context, id cid.Cid) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if !id.Defined() {
		return false, nil
	}
	_, err := os.Stat(c.pathFor(id))
	switch {
	case err == nil:
		return true, nil
	case os.IsNotExist(err):
		return false, nil
	default:
		return false, err
	}
}

// pathFor shards objects by the last two characters of the CID string.
func (c *CAS) pathFor(id cid.Cid) string {
	s := id.String()
	if len(s) < 2 {
		return filepath.Join(c.root, s)
	}
	return filepath.Join(c.root, s[len(s)-2:], s)
}
