//go:build retlib && cgo

package engine

/*
#cgo LDFLAGS: -lradix_engine_toolkit
#include <stdint.h>

char *toolkit_alloc(uintptr_t capacity);
void toolkit_free_c_string(char *pointer);

char *information(char *request);
char *convert_manifest(char *request);
char *compile_transaction_intent(char *request);
char *decompile_transaction_intent(char *request);
char *compile_signed_transaction_intent(char *request);
char *decompile_signed_transaction_intent(char *request);
char *compile_notarized_transaction(char *request);
char *decompile_notarized_transaction(char *request);
char *decode_address(char *request);
char *encode_address(char *request);
char *derive_virtual_account_address(char *request);
char *known_entity_addresses(char *request);
*/
import "C"

import "unsafe"

type nativeLibrary struct{}

// OpenNative returns the Library backed by the linked libradix_engine_toolkit.
func OpenNative() (Library, error) {
	return nativeLibrary{}, nil
}

func (nativeLibrary) Alloc(capacity uint) unsafe.Pointer {
	return unsafe.Pointer(C.toolkit_alloc(C.uintptr_t(capacity)))
}

func (nativeLibrary) Free(p unsafe.Pointer) {
	C.toolkit_free_c_string((*C.char)(p))
}

func (nativeLibrary) Function(op Operation) (Function, bool) {
	fn, ok := nativeFunctions[op]
	return fn, ok
}

func wrap(f func(*C.char) *C.char) Function {
	return func(request unsafe.Pointer) unsafe.Pointer {
		return unsafe.Pointer(f((*C.char)(request)))
	}
}

var nativeFunctions = map[Operation]Function{
	OpInformation:                      wrap(func(r *C.char) *C.char { return C.information(r) }),
	OpConvertManifest:                  wrap(func(r *C.char) *C.char { return C.convert_manifest(r) }),
	OpCompileTransactionIntent:         wrap(func(r *C.char) *C.char { return C.compile_transaction_intent(r) }),
	OpDecompileTransactionIntent:       wrap(func(r *C.char) *C.char { return C.decompile_transaction_intent(r) }),
	OpCompileSignedTransactionIntent:   wrap(func(r *C.char) *C.char { return C.compile_signed_transaction_intent(r) }),
	OpDecompileSignedTransactionIntent: wrap(func(r *C.char) *C.char { return C.decompile_signed_transaction_intent(r) }),
	OpCompileNotarizedTransaction:      wrap(func(r *C.char) *C.char { return C.compile_notarized_transaction(r) }),
	OpDecompileNotarizedTransaction:    wrap(func(r *C.char) *C.char { return C.decompile_notarized_transaction(r) }),
	OpDecodeAddress:                    wrap(func(r *C.char) *C.char { return C.decode_address(r) }),
	OpEncodeAddress:                    wrap(func(r *C.char) *C.char { return C.encode_address(r) }),
	OpDeriveVirtualAccountAddress:      wrap(func(r *C.char) *C.char { return C.derive_virtual_account_address(r) }),
	OpKnownEntityAddresses:             wrap(func(r *C.char) *C.char { return C.known_entity_addresses(r) }),
}
