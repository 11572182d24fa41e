// Package storage defines the content-addressable store that archives
// transaction envelopes, plus in-memory and multi-backend implementations.
package storage

import (
	"context"

	"github.com/ipfs/go-cid"
)

// CAS is a content-addressable store keyed by cidutil.Sum of the stored bytes.
//
// Contract:
//   - Put MUST be idempotent.
//   - Stored objects MUST be immutable.
//   - Get MUST return ErrNotFound when the CID is absent, and MUST verify the
//     returned bytes against the CID.
//   - Has MUST report (false, nil) for an absent CID.
type CAS interface {
	Put(ctx context.Context, data []byte) (cid.Cid, error)
	Get(ctx context.Context, id cid.Cid) ([]byte, error)
	Has(ctx context.Context, id cid.Cid) (bool, error)
}
