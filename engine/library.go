package engine

import (
	"errors"
	"unsafe"
)

// Operation names an exported engine function.
type Operation string

const (
	OpInformation                      Operation = "information"
	OpConvertManifest                  Operation = "convert_manifest"
	OpCompileTransactionIntent         Operation = "compile_transaction_intent"
	OpDecompileTransactionIntent       Operation = "decompile_transaction_intent"
	OpCompileSignedTransactionIntent   Operation = "compile_signed_transaction_intent"
	OpDecompileSignedTransactionIntent Operation = "decompile_signed_transaction_intent"
	OpCompileNotarizedTransaction      Operation = "compile_notarized_transaction"
	OpDecompileNotarizedTransaction    Operation = "decompile_notarized_transaction"
	OpDecodeAddress                    Operation = "decode_address"
	OpEncodeAddress                    Operation = "encode_address"
	OpDeriveVirtualAccountAddress      Operation = "derive_virtual_account_address"
	OpKnownEntityAddresses             Operation = "known_entity_addresses"
)

// Operations lists every operation the bridge exposes.
var Operations = []Operation{
	OpInformation,
	OpConvertManifest,
	OpCompileTransactionIntent,
	OpDecompileTransactionIntent,
	OpCompileSignedTransactionIntent,
	OpDecompileSignedTransactionIntent,
	OpCompileNotarizedTransaction,
	OpDecompileNotarizedTransaction,
	OpDecodeAddress,
	OpEncodeAddress,
	OpDeriveVirtualAccountAddress,
	OpKnownEntityAddresses,
}

// Function is an engine entry point: it takes a NUL-terminated JSON request
// and returns a NUL-terminated JSON response, or nil.
type Function func(request unsafe.Pointer) unsafe.Pointer

// Library is the native side of the bridge.
//
// Every buffer passed to a Function is obtained from Alloc, and every buffer
// the bridge holds (request or response) is returned through Free. Only one
// allocator may be in use.
type Library interface {
	Alloc(capacity uint) unsafe.Pointer
	Free(p unsafe.Pointer)
	Function(op Operation) (Function, bool)
}

// ErrNativeUnavailable is returned by OpenNative when the binary was built
// without the native engine.
var ErrNativeUnavailable = errors.New("engine: native library not linked (build with -tags retlib)")

func writeCString(dst unsafe.Pointer, src []byte) {
	buf := unsafe.Slice((*byte)(dst), len(src)+1)
	copy(buf, src)
	buf[len(src)] = 0
}

func readCString(p unsafe.Pointer) []byte {
	var n int
	for *(*byte)(unsafe.Add(p, n)) != 0 {
		n++
	}
	out := make([]byte, n)
	copy(out, unsafe.Slice((*byte)(p), n))
	return out
}
