// Package bjgroup provides a Baby Jubjub elliptic curve implementation
// of the [group.Group] interface.
//
// Baby Jubjub is a twisted Edwards curve defined over the scalar field
// of BN254 (also known as alt_bn128). It is commonly used in
// zero-knowledge proof systems and privacy-preserving applications,
// which makes it a natural alternative group for confidential-amount
// commitments.
//
// This package wraps the Baby Jubjub implementation from gnark-crypto,
// providing a clean interface that satisfies [group.Group],
// [group.Scalar], and [group.Point].
//
// # Curve Parameters
//
// Baby Jubjub is defined by the equation:
//
//	a*x^2 + y^2 = 1 + d*x^2*y^2
//
// where a = 168700 and d = 168696 over the BN254 scalar field.
//
// # Usage
//
// Create a BJ group and use it anywhere a [group.Group] is required:
//
//	g := &bjgroup.BJ{}
//	ledger, err := commit.NewLedger(g)
//
// # Security
//
// This implementation relies on gnark-crypto for the underlying curve
// arithmetic. All scalar operations are performed modulo the curve's
// subgroup order, and HashToPoint clears the cofactor so derived
// points always lie in the prime-order subgroup.
package bjgroup
