// Package commit implements the confidential-amount arithmetic of a
// transaction: homomorphic Pedersen commitments, range proofs, and the
// balance invariant.
//
// # Commitments
//
// A commitment to value v with blinding r is v*G + r*H, where H is a
// second generator derived by hashing to the curve so that nobody
// knows its discrete log relative to G. Commitments add coordinate-wise
// to represent sums of values:
//
//	Commit(a, r) + Commit(b, s) == Commit(a+b, r+s)
//
// # The balance invariant
//
// For a transaction to conserve value without revealing amounts,
//
//	sum(input commitments) == sum(output commitments) + fee*G + excess*H
//
// must hold exactly, where the fee is public and the excess is the
// difference between input and output blindings. [Ledger.Balance]
// computes the excess from openings; [Ledger.VerifyBalance] re-checks
// the invariant from public points only, so any verifier can confirm a
// draft balances before accepting signatures.
//
// # Range proofs
//
// A homomorphic sum check is meaningless if an output can hide a
// negative value, so every output commitment carries a [RangeProof]
// attesting its value lies in [0, 2^bits). The proof is a per-bit
// Pedersen decomposition with two-branch sigma OR-proofs; verification
// needs no secret material.
package commit
