// Package wire implements the primitives of the fixed-width, versioned
// binary encoding used for every persisted and transmitted entity:
// commitments, range proofs, public points, spending conditions,
// signatures and transaction drafts.
//
// The format rules are deliberately rigid so that encodings round-trip
// byte-exactly across implementations:
//
//   - every top-level entity starts with a single format version byte
//   - multi-byte integers are little-endian, always full width
//   - byte fields are either fixed width (points, scalars, digests) or
//     carry an explicit uint32 length prefix (proofs, nested entities)
//   - decoders reject truncated input, trailing bytes and unknown
//     versions
//
// Entities implement their own Encode/Decode on top of [Writer] and
// [Reader]; this package knows nothing about the entities themselves.
package wire
