package engine

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"unicode/utf8"
	"unsafe"

	"github.com/rs/zerolog"
)

// Options configures a Toolkit.
type Options struct {
	// Debug pretty prints every request and response at debug level.
	Debug bool
	// Logger receives debug output. Nil discards it.
	Logger *zerolog.Logger
}

// Toolkit calls engine operations through a Library.
//
// A Toolkit holds no per-call state; calls are synchronous and may be issued
// from several goroutines if the Library allows it.
type Toolkit struct {
	lib   Library
	debug bool
	log   zerolog.Logger
}

// New returns a Toolkit bound to lib.
func New(lib Library, opts Options) *Toolkit {
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}
	return &Toolkit{
		lib:   lib,
		debug: opts.Debug,
		log:   log.With().Str("component", "engine").Logger(),
	}
}

// callScope owns the native buffers of one call. release frees each buffer
// exactly once, whatever path the call took.
type callScope struct {
	lib      Library
	request  unsafe.Pointer
	response unsafe.Pointer
}

func (s *callScope) release() {
	if s.request != nil {
		s.lib.Free(s.request)
		s.request = nil
	}
	if s.response != nil {
		s.lib.Free(s.response)
		s.response = nil
	}
}

// Call sends req to op and decodes the answer into Resp.
//
// Request serialization, the native call and response decoding each fail
// with a *Error of the matching Kind. Native semantic errors are returned as
// KindDeserializeResponse with Response set.
func Call[Resp any](tk *Toolkit, op Operation, req any) (Resp, error) {
	var zero Resp

	payload, err := json.Marshal(req)
	if err != nil {
		return zero, newError(op, KindSerializeRequest, ReasonJSONEncodeRequestFailed, RuleJSONEncodeRequestFailed, err)
	}
	if !utf8.Valid(payload) {
		return zero, newError(op, KindSerializeRequest, ReasonUTF8DecodingFailed, RuleUTF8DecodingFailed, nil)
	}
	tk.debugJSON(op, "request", payload)

	raw, err := tk.invoke(op, payload)
	if err != nil {
		return zero, err
	}
	tk.debugJSON(op, "response", raw)

	return decodeResponse[Resp](op, raw)
}

func (tk *Toolkit) invoke(op Operation, payload []byte) ([]byte, error) {
	fn, ok := tk.lib.Function(op)
	if !ok || fn == nil {
		return nil, newError(op, KindCallLibraryFunction, ReasonUnknownFunction, RuleUnknownFunction, nil)
	}

	scope := &callScope{lib: tk.lib}
	defer scope.release()

	scope.request = tk.lib.Alloc(uint(len(payload) + 1))
	if scope.request == nil {
		return nil, newError(op, KindCallLibraryFunction, ReasonAllocationFailed, RuleAllocationFailed, nil)
	}
	writeCString(scope.request, payload)

	scope.response = fn(scope.request)
	if scope.response == nil {
		return nil, newError(op, KindCallLibraryFunction, ReasonNoReturnedOutput, RuleNoReturnedOutput, nil)
	}
	return readCString(scope.response), nil
}

// validator is implemented by responses whose decoder accepts objects it does
// not fully understand.
type validator interface {
	Validate() error
}

func decodeResponse[Resp any](op Operation, raw []byte) (Resp, error) {
	var resp Resp
	if !utf8.Valid(raw) {
		return resp, newError(op, KindDeserializeResponse, ReasonBeforeDecodingError, RuleBeforeDecodingError, nil)
	}

	firstErr := decodeStrict(raw, &resp)
	if firstErr == nil {
		if v, ok := any(&resp).(validator); ok {
			firstErr = v.Validate()
		}
	}
	if firstErr == nil {
		return resp, nil
	}

	var native ErrorResponse
	if err := json.Unmarshal(raw, &native); err == nil {
		e := newError(op, KindDeserializeResponse, ReasonErrorResponse, RuleErrorResponse, nil)
		e.Message = "engine " + string(op) + ": " + native.String()
		e.Response = &native
		var zero Resp
		return zero, e
	}

	e := newError(op, KindDeserializeResponse, ReasonUndecodable, RuleUndecodable, firstErr)
	e.Diagnostic = firstErr.Error()
	var zero Resp
	return zero, e
}

func decodeStrict(raw []byte, out any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("trailing data after response object")
	}
	return nil
}

func (tk *Toolkit) debugJSON(op Operation, label string, payload []byte) {
	if !tk.debug {
		return
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, payload, "", "  "); err != nil {
		tk.log.Debug().Str("op", string(op)).Str("kind", label).Bytes("raw", payload).Msg("engine payload (not JSON)")
		return
	}
	tk.log.Debug().Str("op", string(op)).Str("kind", label).Msg("\n" + pretty.String())
}
