// Package k256 provides a secp256k1 implementation of the
// [group.Group] interface. It is the default group for wallets
// targeting the chain, whose spending conditions and commitments are
// defined over secp256k1.
//
// The implementation wraps the decred secp256k1 library, which supplies
// constant-time scalar arithmetic (ModNScalar) and Jacobian point
// operations.
//
// # Encodings
//
// Scalars encode as 32-byte big-endian values. Points use the standard
// 33-byte compressed SEC encoding; the all-zero 33-byte string is
// reserved for the point at infinity, which has no SEC encoding.
//
// # Usage
//
//	g := &k256.K256{}
//	sk, _ := g.RandomScalar(rand.Reader)
//	pk := g.NewPoint().ScalarMult(sk, g.Generator())
package k256
