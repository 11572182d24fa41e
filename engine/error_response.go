package engine

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"xdao.co/txkit/model"
)

// ErrorKind names a native error object.
type ErrorKind string

const (
	ErrAddressError                     ErrorKind = "AddressError"
	ErrUnrecognizedAddressFormat        ErrorKind = "UnrecognizedAddressFormat"
	ErrSborDecodeError                  ErrorKind = "SborDecodeError"
	ErrSborEncodeError                  ErrorKind = "SborEncodeError"
	ErrDeserializationError             ErrorKind = "DeserializationError"
	ErrInvalidRequestString             ErrorKind = "InvalidRequestString"
	ErrUnexpectedContents               ErrorKind = "UnexpectedContents"
	ErrInvalidType                      ErrorKind = "InvalidType"
	ErrUnknownTypeID                    ErrorKind = "UnknownTypeId"
	ErrParseError                       ErrorKind = "ParseError"
	ErrTransactionCompileError          ErrorKind = "TransactionCompileError"
	ErrTransactionDecompileError        ErrorKind = "TransactionDecompileError"
	ErrUnsupportedTransactionVersion    ErrorKind = "UnsupportedTransactionVersion"
	ErrGeneratorError                   ErrorKind = "GeneratorError"
	ErrRequestResponseConversionError   ErrorKind = "RequestResponseConversionError"
	ErrUnrecognizedCompiledIntentFormat ErrorKind = "UnrecognizedCompiledIntentFormat"
	ErrTransactionValidationError       ErrorKind = "TransactionValidationError"
	ErrNetworkMismatchError             ErrorKind = "NetworkMismatchError"
)

var knownErrorKinds = map[ErrorKind]struct{}{
	ErrAddressError:                     {},
	ErrUnrecognizedAddressFormat:        {},
	ErrSborDecodeError:                  {},
	ErrSborEncodeError:                  {},
	ErrDeserializationError:             {},
	ErrInvalidRequestString:             {},
	ErrUnexpectedContents:               {},
	ErrInvalidType:                      {},
	ErrUnknownTypeID:                    {},
	ErrParseError:                       {},
	ErrTransactionCompileError:          {},
	ErrTransactionDecompileError:        {},
	ErrUnsupportedTransactionVersion:    {},
	ErrGeneratorError:                   {},
	ErrRequestResponseConversionError:   {},
	ErrUnrecognizedCompiledIntentFormat: {},
	ErrTransactionValidationError:       {},
	ErrNetworkMismatchError:             {},
}

const errorKey = "error"

// ErrorResponse is a semantic error reported by the engine, e.g.
// {"error":"ParseError","kind":"Decimal","message":"..."}.
type ErrorResponse struct {
	Kind    ErrorKind
	Value   json.RawMessage
	Details map[string]json.RawMessage
}

func (r *ErrorResponse) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	raw, ok := fields[errorKey]
	if !ok {
		return fmt.Errorf("error response: missing %q", errorKey)
	}
	var kind ErrorKind
	if err := json.Unmarshal(raw, &kind); err != nil {
		return fmt.Errorf("error response: %w", err)
	}
	if _, ok := knownErrorKinds[kind]; !ok {
		return fmt.Errorf("error response: unknown kind %q", kind)
	}
	delete(fields, errorKey)

	out := ErrorResponse{Kind: kind}
	if v, ok := fields["value"]; ok {
		out.Value = v
		delete(fields, "value")
	}
	if len(fields) > 0 {
		out.Details = fields
	}
	*r = out
	return nil
}

func (r ErrorResponse) MarshalJSON() ([]byte, error) {
	fields := make(map[string]json.RawMessage, len(r.Details)+2)
	for k, v := range r.Details {
		fields[k] = v
	}
	kind, err := json.Marshal(r.Kind)
	if err != nil {
		return nil, err
	}
	fields[errorKey] = kind
	if len(r.Value) > 0 {
		fields["value"] = r.Value
	}
	return json.Marshal(fields)
}

// Text returns the human readable payload of the error: its string value or
// its "message" detail.
func (r ErrorResponse) Text() string {
	var s string
	if len(r.Value) > 0 && json.Unmarshal(r.Value, &s) == nil {
		return s
	}
	if m, ok := r.Details["message"]; ok && json.Unmarshal(m, &s) == nil {
		return s
	}
	if len(r.Value) > 0 {
		return string(r.Value)
	}
	if len(r.Details) == 0 {
		return ""
	}
	keys := make([]string, 0, len(r.Details))
	for k := range r.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+string(r.Details[k]))
	}
	return strings.Join(parts, " ")
}

// NetworkMismatch decodes the value of a NetworkMismatchError.
func (r ErrorResponse) NetworkMismatch() (expected, found model.NetworkID, ok bool) {
	if r.Kind != ErrNetworkMismatchError {
		return 0, 0, false
	}
	var v struct {
		Expected model.NetworkID `json:"expected"`
		Found    model.NetworkID `json:"found"`
	}
	if err := json.Unmarshal(r.Value, &v); err != nil {
		return 0, 0, false
	}
	return v.Expected, v.Found, true
}

func (r ErrorResponse) String() string {
	if t := r.Text(); t != "" {
		return fmt.Sprintf("%s(%s)", r.Kind, t)
	}
	return string(r.Kind)
}
