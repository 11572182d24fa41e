// Package model defines the JSON wire types exchanged with the transaction
// engine.
//
// Byte buffers travel as lowercase hex. Numeric header fields and network ids
// travel as decimal strings. Discriminated unions are closed sets: encoding
// writes the discriminator key first, decoding reads it first and dispatches
// on it.
package model
