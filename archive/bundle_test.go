package archive_test

import (
	"archive/tar"
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ipfs/go-cid"

	"xdao.co/txkit/archive"
	"xdao.co/txkit/cidutil"
	"xdao.co/txkit/storage"
	"xdao.co/txkit/storage/localfs"
	"xdao.co/txkit/txn"
)

func archivedPair(t *testing.T, store archive.Store) (cid.Cid, cid.Cid) {
	t.Helper()
	tk, notary, intent := fixture(t)
	ctx := context.Background()

	compiled, err := txn.Compile(tk, intent)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	notarized, err := compiled.Notarize(tk, notary)
	if err != nil {
		t.Fatalf("Notarize: %v", err)
	}
	a, err := store.Put(ctx, compiled)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	b, err := store.Put(ctx, notarized)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	return a, b
}

func TestBundle_ExportIsDeterministic(t *testing.T) {
	cas, err := localfs.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	store := archive.Store{CAS: cas}
	a, b := archivedPair(t, store)
	ctx := context.Background()

	var outA, outB bytes.Buffer
	if err := store.ExportBundle(ctx, &outA, []cid.Cid{b, a, b}); err != nil {
		t.Fatal(err)
	}
	if err := store.ExportBundle(ctx, &outB, []cid.Cid{a, b}); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(outA.Bytes(), outB.Bytes()) {
		t.Fatalf("expected deterministic bundle bytes")
	}
}

func TestBundle_ImportRoundTrip(t *testing.T) {
	src := archive.Store{CAS: storage.NewMemory()}
	a, b := archivedPair(t, src)
	ctx := context.Background()

	var buf bytes.Buffer
	if err := src.ExportBundle(ctx, &buf, []cid.Cid{a, b}); err != nil {
		t.Fatal(err)
	}

	dst := archive.Store{CAS: storage.NewMemory()}
	ids, err := dst.ImportBundle(ctx, bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 imported envelopes, got %d", len(ids))
	}

	tk, _, _ := fixture(t)
	restored, err := dst.Restore(ctx, tk, b)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if restored.State() != txn.StateNotarized {
		t.Fatalf("unexpected state %q", restored.State())
	}
}

func TestBundle_ExportRejectsNonEnvelopes(t *testing.T) {
	store := archive.Store{CAS: storage.NewMemory()}
	id, err := store.CAS.Put(context.Background(), []byte("plain bytes"))
	if err != nil {
		t.Fatal(err)
	}
	if err := store.ExportBundle(context.Background(), &bytes.Buffer{}, []cid.Cid{id}); err == nil {
		t.Fatalf("expected exporting a non-envelope to fail")
	}
}

func TestBundle_ImportRejects(t *testing.T) {
	good := []byte(`{"envelope_version":1}`)
	goodCID, err := cidutil.Sum(good)
	if err != nil {
		t.Fatal(err)
	}
	otherCID, err := cidutil.Sum([]byte("other"))
	if err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name  string
		entry string
		body  []byte
		want  error
	}{
		{"cid mismatch", "envelopes/" + otherCID.String() + ".json", good, storage.ErrCIDMismatch},
		{"bad cid", "envelopes/not-a-cid.json", good, storage.ErrInvalidCID},
		{"unknown entry", "blocks/" + goodCID.String(), good, nil},
		{"path escape", "envelopes/../" + goodCID.String() + ".json", good, nil},
	}
	for _, tc := range cases {
		store := archive.Store{CAS: storage.NewMemory()}
		_, err := store.ImportBundle(context.Background(), bytes.NewReader(makeTar(t, tc.entry, tc.body)))
		if err == nil {
			t.Fatalf("%s: expected an error", tc.name)
		}
		if tc.want != nil && !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func makeTar(t *testing.T, name string, content []byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	h := &tar.Header{
		Name:     name,
		Mode:     0o644,
		Size:     int64(len(content)),
		ModTime:  time.Unix(0, 0).UTC(),
		Typeflag: tar.TypeReg,
	}
	if err := tw.WriteHeader(h); err != nil {
		t.Fatal(err)
	}
	if _, err := tw.Write(content); err != nil {
		t.Fatal(err)
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}
