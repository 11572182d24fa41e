// Package testkit holds the conformance suite every storage.CAS must pass.
package testkit

import (
	"bytes"
	"context"
	"testing"

	"github.com/ipfs/go-cid"

	"xdao.co/txkit/cidutil"
	"xdao.co/txkit/storage"
)

// NewCAS constructs a fresh, empty CAS instance for a test.
// The returned CAS MUST be isolated from other tests.
type NewCAS func(t *testing.T) storage.CAS

func RunCASConformance(t *testing.T, newCAS NewCAS) {
	t.Helper()
	ctx := context.Background()

	t.Run("PutGetRoundTrip", func(t *testing.T) {
		cas := newCAS(t)
		want := []byte(`{"envelope_version":1,"state":"unsigned"}`)

		id, err := cas.Put(ctx, want)
		if err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		wantID, err := cidutil.Sum(want)
		if err != nil {
			t.Fatalf("cidutil.Sum failed: %v", err)
		}
		if !id.Equals(wantID) {
			t.Fatalf("Put CID mismatch: got %s want %s", id, wantID)
		}

		got, err := cas.Get(ctx, id)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("Get bytes mismatch")
		}
		if err := cidutil.Check(id, got); err != nil {
			t.Fatalf("Get returned bytes not matching requested CID: %v", err)
		}
	})

	t.Run("PutIdempotent", func(t *testing.T) {
		cas := newCAS(t)
		b := []byte("same bytes")

		id1, err := cas.Put(ctx, b)
		if err != nil {
			t.Fatalf("Put(1) failed: %v", err)
		}
		id2, err := cas.Put(ctx, b)
		if err != nil {
			t.Fatalf("Put(2) failed: %v", err)
		}
		if !id1.Equals(id2) {
			t.Fatalf("Put not idempotent: %s vs %s", id1, id2)
		}
	})

	t.Run("HasAndNotFound", func(t *testing.T) {
		cas := newCAS(t)
		b := []byte("missing")
		id, err := cidutil.Sum(b)
		if err != nil {
			t.Fatalf("cidutil.Sum failed: %v", err)
		}

		if ok, err := cas.Has(ctx, id); err != nil || ok {
			t.Fatalf("Has for missing CID: got (%v, %v) want (false, nil)", ok, err)
		}
		if _, err := cas.Get(ctx, id); !storage.IsNotFound(err) {
			t.Fatalf("Get missing: got err=%v want ErrNotFound", err)
		}

		if _, err := cas.Put(ctx, b); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		if ok, err := cas.Has(ctx, id); err != nil || !ok {
			t.Fatalf("Has after Put: got (%v, %v) want (true, nil)", ok, err)
		}
	})

	t.Run("RejectUndefCID", func(t *testing.T) {
		cas := newCAS(t)
		if ok, _ := cas.Has(ctx, cid.Undef); ok {
			t.Fatalf("Has should be false for undefined CID")
		}
		if _, err := cas.Get(ctx, cid.Undef); err == nil {
			t.Fatalf("Get should fail for undefined CID")
		}
	})
}
