package archive

import (
	"archive/tar"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/ipfs/go-cid"

	"xdao.co/txkit/cidutil"
	"xdao.co/txkit/storage"
	"xdao.co/txkit/txn"
)

// BundleVersion is the current bundle index schema version.
const BundleVersion = 1

const (
	envelopeDir = "envelopes/"
	indexName   = "index.json"
)

var tarEpoch = time.Unix(0, 0).UTC()

// ExportBundle writes a TAR bundle holding the envelopes stored under ids,
// for handing to a co-signer without shared storage.
//
// The bytes are deterministic: entries are sorted by CID and headers are
// normalized. Every envelope is checked against its CID and must decode.
func (s Store) ExportBundle(ctx context.Context, w io.Writer, ids []cid.Cid) error {
	if s.CAS == nil {
		return ErrNoStore
	}

	uniq := make(map[string]cid.Cid, len(ids))
	for _, id := range ids {
		if !id.Defined() {
			return storage.ErrInvalidCID
		}
		uniq[id.String()] = id
	}
	names := make([]string, 0, len(uniq))
	for name := range uniq {
		names = append(names, name)
	}
	sort.Strings(names)

	tw := tar.NewWriter(w)
	entries := make([]bundleEntry, 0, len(names))
	for _, name := range names {
		id := uniq[name]
		b, err := s.CAS.Get(ctx, id)
		if err != nil {
			_ = tw.Close()
			return fmt.Errorf("archive: export %s: %w", name, err)
		}
		if err := cidutil.Check(id, b); err != nil {
			_ = tw.Close()
			return storage.ErrCIDMismatch
		}
		env, err := txn.UnmarshalEnvelope(b)
		if err != nil {
			_ = tw.Close()
			return fmt.Errorf("archive: export %s: %w", name, err)
		}
		if err := writeEntry(tw, envelopeDir+name+".json", b); err != nil {
			_ = tw.Close()
			return err
		}
		entries = append(entries, bundleEntry{
			CID:        name,
			State:      env.State,
			IntentHash: env.IntentHash.Hex(),
			Signatures: len(env.IntentSignatures),
		})
	}

	idx, err := json.Marshal(bundleIndex{Version: BundleVersion, Envelopes: entries})
	if err != nil {
		_ = tw.Close()
		return err
	}
	if err := writeEntry(tw, indexName, append(idx, '\n')); err != nil {
		_ = tw.Close()
		return err
	}
	return tw.Close()
}

// ImportBundle stores every envelope of the bundle read from r and returns
// their CIDs in bundle order. Entries that are not envelopes, or whose bytes
// do not match their name, fail the import.
func (s Store) ImportBundle(ctx context.Context, r io.Reader) ([]cid.Cid, error) {
	if s.CAS == nil {
		return nil, ErrNoStore
	}

	tr := tar.NewReader(r)
	seen := map[string]struct{}{}
	var out []cid.Cid
	for {
		h, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		if h.Typeflag != tar.TypeReg {
			return out, fmt.Errorf("archive: unexpected tar entry type %v (%s)", h.Typeflag, h.Name)
		}
		if h.Name == indexName {
			// Informational only.
			if _, err := io.Copy(io.Discard, tr); err != nil {
				return out, err
			}
			continue
		}

		name, ok := strings.CutPrefix(h.Name, envelopeDir)
		if !ok {
			return out, fmt.Errorf("archive: unknown bundle entry %q", h.Name)
		}
		name, ok = strings.CutSuffix(name, ".json")
		if !ok || strings.Contains(name, "/") {
			return out, fmt.Errorf("archive: unknown bundle entry %q", h.Name)
		}
		id, err := cid.Decode(name)
		if err != nil || !id.Defined() {
			return out, storage.ErrInvalidCID
		}
		if _, dup := seen[name]; dup {
			return out, fmt.Errorf("archive: duplicate bundle entry %s", name)
		}
		seen[name] = struct{}{}

		b, err := io.ReadAll(tr)
		if err != nil {
			return out, err
		}
		if err := cidutil.Check(id, b); err != nil {
			return out, storage.ErrCIDMismatch
		}
		if _, err := txn.UnmarshalEnvelope(b); err != nil {
			return out, fmt.Errorf("archive: import %s: %w", name, err)
		}
		if _, err := s.CAS.Put(ctx, b); err != nil {
			return out, fmt.Errorf("archive: import %s: %w", name, err)
		}
		out = append(out, id)
	}
}

type bundleIndex struct {
	Version   int           `json:"version"`
	Envelopes []bundleEntry `json:"envelopes"`
}

type bundleEntry struct {
	CID        string    `json:"cid"`
	State      txn.State `json:"state"`
	IntentHash string    `json:"intent_hash"`
	Signatures int       `json:"signatures"`
}

func writeEntry(tw *tar.Writer, name string, content []byte) error {
	hdr := &tar.Header{
		Name:     name,
		Mode:     0o644,
		Size:     int64(len(content)),
		ModTime:  tarEpoch,
		Typeflag: tar.TypeReg,
		Format:   tar.FormatUSTAR,
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	_, err := tw.Write(content)
	return err
}
