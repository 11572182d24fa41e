// Package txn builds transactions in three stages: compile the intent, collect
// intent signatures, then notarize the signed intent.
//
// A Context is an immutable value. Every step returns a new Context, so two
// notarizations may be derived from the same partially signed base without
// interfering with each other. Contexts can be exported as an Envelope and
// restored in another process to add further signatures.
package txn
