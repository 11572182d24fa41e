// Package engine is the bridge to the native transaction engine.
//
// Each operation is a single synchronous call: the request is JSON encoded,
// copied NUL-terminated into a buffer obtained from the engine's allocator,
// handed to the exported function, and the NUL-terminated response is read
// back and decoded. Both buffers are returned to the engine's allocator on
// every path.
//
// Failures are reported as *Error with a stable Kind and RuleID. Semantic
// errors reported by the engine itself carry the decoded ErrorResponse.
package engine
