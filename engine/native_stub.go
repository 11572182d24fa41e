//go:build !retlib || !cgo

package engine

// OpenNative reports ErrNativeUnavailable: this binary was built without the
// native engine.
func OpenNative() (Library, error) {
	return nil, ErrNativeUnavailable
}
