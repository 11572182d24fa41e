package storage_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ipfs/go-cid"

	"xdao.co/txkit/cidutil"
	"xdao.co/txkit/storage"
	"xdao.co/txkit/storage/testkit"
)

func TestMemory_Conformance(t *testing.T) {
	testkit.RunCASConformance(t, func(t *testing.T) storage.CAS { return storage.NewMemory() })
}

func TestMultiCAS_Conformance(t *testing.T) {
	for _, policy := range []storage.WritePolicy{storage.WriteFirst, storage.WriteAll} {
		t.Run(string(policy), func(t *testing.T) {
			testkit.RunCASConformance(t, func(t *testing.T) storage.CAS {
				return storage.MultiCAS{Policy: policy, Backends: []storage.NamedCAS{
					{Name: "a", CAS: storage.NewMemory()},
					{Name: "b", CAS: storage.NewMemory()},
				}}
			})
		})
	}
}

func TestMultiCAS_WritePolicies(t *testing.T) {
	ctx := context.Background()
	data := []byte("envelope")

	a, b := storage.NewMemory(), storage.NewMemory()
	first := storage.MultiCAS{Backends: []storage.NamedCAS{{Name: "a", CAS: a}, {Name: "b", CAS: b}}}
	id, err := first.Put(ctx, data)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if ok, _ := b.Has(ctx, id); ok {
		t.Fatalf("the default policy must write only to the first backend")
	}

	all := storage.MultiCAS{Policy: storage.WriteAll, Backends: first.Backends}
	_, per, err := all.PutAll(ctx, data)
	if err != nil {
		t.Fatalf("PutAll: %v", err)
	}
	if len(per) != 2 || !per["b"].Equals(id) {
		t.Fatalf("unexpected per-backend CIDs %v", per)
	}

	// Reads fall back in order.
	onlyB := storage.MultiCAS{Backends: []storage.NamedCAS{{Name: "empty", CAS: storage.NewMemory()}, {Name: "b", CAS: b}}}
	if got, err := onlyB.Get(ctx, id); err != nil || string(got) != string(data) {
		t.Fatalf("fallback Get: %q %v", got, err)
	}

	if _, err := (storage.MultiCAS{}).Put(ctx, data); !errors.Is(err, storage.ErrNoBackends) {
		t.Fatalf("expected ErrNoBackends, got %v", err)
	}
	if _, err := (storage.MultiCAS{Policy: "some", Backends: first.Backends}).Put(ctx, data); err == nil {
		t.Fatalf("expected invalid policy to be rejected")
	}
}

// lyingCAS reports a CID that does not match the bytes written.
type lyingCAS struct{ storage.CAS }

func (l lyingCAS) Put(ctx context.Context, data []byte) (cid.Cid, error) {
	return cidutil.Sum(append([]byte("x"), data...))
}

func TestMultiCAS_DetectsCIDMismatch(t *testing.T) {
	m := storage.MultiCAS{Policy: storage.WriteAll, Backends: []storage.NamedCAS{
		{Name: "good", CAS: storage.NewMemory()},
		{Name: "liar", CAS: lyingCAS{storage.NewMemory()}},
	}}
	if _, err := m.Put(context.Background(), []byte("data")); !errors.Is(err, storage.ErrCIDMismatch) {
		t.Fatalf("expected ErrCIDMismatch, got %v", err)
	}
}

func TestMemory_HonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := storage.NewMemory().Put(ctx, []byte("x")); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
