// Package manifest inspects transaction manifests to work out which accounts
// must sign them and which accounts could pay the transaction fee.
package manifest
