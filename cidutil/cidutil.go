// Package cidutil derives the content identifiers under which transaction
// envelopes are stored.
package cidutil

import (
	"fmt"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// CodecDagJSON is the multicodec for JSON documents.
const CodecDagJSON = 0x0129

// Blake2b256 is the multihash code for blake2b with a 32-byte digest.
const Blake2b256 = multihash.BLAKE2B_MIN + 31

var prefix = cid.Prefix{
	Version:  1,
	Codec:    CodecDagJSON,
	MhType:   Blake2b256,
	MhLength: -1,
}

// Sum returns the CIDv1 (dag-json, blake2b-256) of data.
func Sum(data []byte) (cid.Cid, error) {
	return prefix.Sum(data)
}

// Check reports whether data hashes to id under the store's CID prefix.
func Check(id cid.Cid, data []byte) error {
	if !id.Defined() {
		return fmt.Errorf("cidutil: undefined cid")
	}
	if p := id.Prefix(); p.Version != prefix.Version || p.Codec != prefix.Codec || p.MhType != prefix.MhType {
		return fmt.Errorf("cidutil: unsupported cid prefix %v", p)
	}
	got, err := Sum(data)
	if err != nil {
		return err
	}
	if !got.Equals(id) {
		return fmt.Errorf("cidutil: content hashes to %s, not %s", got, id)
	}
	return nil
}
