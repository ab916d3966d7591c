// Package threshold implements M-of-N spending conditions: the
// aggregation of multiple participant public keys into one
// deterministic address, and the verification of aggregate Schnorr
// signatures against it.
//
// # Addresses
//
// A [Spec] canonicalizes its participant key list (ascending encoded
// byte order) at construction, so the address digest is invariant
// under permutation of the input keys: two wallets independently
// assembling "the same" group always derive the same address.
//
// # Aggregate verification
//
// Because only Required of the N participants sign, the effective
// combined key depends on the signing subset. A [Signature] therefore
// names its signer subset; [VerifyAggregate] checks the subset against
// the spec, recomputes the coefficient-weighted combined key, and
// verifies the Schnorr equation s*G == R + c*X~ with the challenge
// bound to the spec's address and the message.
//
// The multi-round protocol that produces these signatures lives in the
// session package; this package is the pure verification side and is
// usable by parties holding no secrets at all.
package threshold
