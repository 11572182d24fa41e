package engine

import (
	"errors"
	"fmt"
)

// Kind is the stage of a bridge call that failed.
//
// Callers should branch on Kind/RuleID rather than matching error strings.
type Kind string

const (
	KindSerializeRequest    Kind = "SerializeRequestFailure"
	KindCallLibraryFunction Kind = "CallLibraryFunctionFailure"
	KindDeserializeResponse Kind = "DeserializeResponseFailure"
)

// Reason refines a Kind.
type Reason string

const (
	ReasonJSONEncodeRequestFailed Reason = "jsonEncodeRequestFailed"
	ReasonUTF8DecodingFailed      Reason = "utf8DecodingFailed"

	ReasonNoReturnedOutput Reason = "noReturnedOutput"
	ReasonAllocationFailed Reason = "allocationFailed"
	ReasonUnknownFunction  Reason = "unknownFunction"

	ReasonBeforeDecodingError Reason = "beforeDecodingError"
	ReasonErrorResponse       Reason = "errorResponse"
	ReasonUndecodable         Reason = "decodeResponseFailedAndCouldNotDecodeAsErrorResponseEither"
)

// Stable rule ids, one per Reason.
const (
	RuleJSONEncodeRequestFailed = "TXK-SER-001"
	RuleUTF8DecodingFailed      = "TXK-SER-002"
	RuleNoReturnedOutput        = "TXK-CALL-001"
	RuleAllocationFailed        = "TXK-CALL-002"
	RuleUnknownFunction         = "TXK-CALL-003"
	RuleBeforeDecodingError     = "TXK-DES-001"
	RuleErrorResponse           = "TXK-DES-101"
	RuleUndecodable             = "TXK-DES-201"
)

// Error is the bridge's structured error type.
//
// Response is set when the engine answered with a native error object.
// Diagnostic carries the decode failure of a response that was neither the
// expected type nor an error object.
type Error struct {
	Kind       Kind
	RuleID     string
	Reason     Reason
	Operation  Operation
	Message    string
	Response   *ErrorResponse
	Diagnostic string
	Cause      error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func newError(op Operation, kind Kind, reason Reason, ruleID string, cause error) *Error {
	msg := fmt.Sprintf("engine %s: %s: %s", op, kind, reason)
	if cause != nil {
		msg += ": " + cause.Error()
	}
	return &Error{Kind: kind, RuleID: ruleID, Reason: reason, Operation: op, Message: msg, Cause: cause}
}

// IsKind reports whether err is (or wraps) a *Error with the given Kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// RuleID returns the stable RuleID for a structured error, or "" if unknown.
func RuleID(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.RuleID
}

// AsErrorResponse returns the native error object carried by err, if any.
func AsErrorResponse(err error) (*ErrorResponse, bool) {
	var e *Error
	if !errors.As(err, &e) || e.Response == nil {
		return nil, false
	}
	return e.Response, true
}
