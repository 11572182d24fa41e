// Package archive keeps transaction envelopes in a content-addressed store so
// co-signers can exchange them by CID.
package archive

import (
	"context"
	"errors"
	"fmt"

	"github.com/ipfs/go-cid"

	"xdao.co/txkit/storage"
	"xdao.co/txkit/txn"
)

var ErrNoStore = errors.New("archive: no CAS configured")

// Store archives envelopes in CAS.
type Store struct {
	CAS storage.CAS
}

// Put archives the envelope of ctx and returns its CID. Identical contexts
// archive to the same CID.
func (s Store) Put(ctx context.Context, tx txn.Context) (cid.Cid, error) {
	if s.CAS == nil {
		return cid.Undef, ErrNoStore
	}
	b, err := txn.MarshalEnvelope(tx)
	if err != nil {
		return cid.Undef, err
	}
	id, err := s.CAS.Put(ctx, b)
	if err != nil {
		return cid.Undef, fmt.Errorf("archive: put envelope: %w", err)
	}
	return id, nil
}

// Get loads and decodes the envelope stored under id without recompiling it.
func (s Store) Get(ctx context.Context, id cid.Cid) (txn.Envelope, error) {
	if s.CAS == nil {
		return txn.Envelope{}, ErrNoStore
	}
	b, err := s.CAS.Get(ctx, id)
	if err != nil {
		return txn.Envelope{}, fmt.Errorf("archive: get %s: %w", id, err)
	}
	env, err := txn.UnmarshalEnvelope(b)
	if err != nil {
		return txn.Envelope{}, fmt.Errorf("archive: decode %s: %w", id, err)
	}
	return env, nil
}

// Restore loads the envelope stored under id and rebuilds its context,
// recompiling through c.
func (s Store) Restore(ctx context.Context, c txn.Compiler, id cid.Cid) (txn.Context, error) {
	env, err := s.Get(ctx, id)
	if err != nil {
		return txn.Context{}, err
	}
	return txn.Restore(c, env)
}
