// Package keys provides the signers used to sign and notarize transactions,
// plus a small filesystem key store for the CLI.
//
// API stability:
//
// Stable:
//   - Ed25519Signer and Secp256k1Signer, and deterministic role-seed derivation.
//
// Experimental:
//   - Filesystem-backed key storage (KeyStore and related functions).
//     These are local-first utilities and may change in minor releases.
package keys
