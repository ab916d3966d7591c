package k256

import (
	"errors"
	"io"

	secp "github.com/decred/dcrd/dcrec/secp256k1/v4"
	"golang.org/x/crypto/blake2b"

	"github.com/carsonaco/chain/group"
)

// PointLen is the length of a compressed secp256k1 point encoding.
// The all-zero encoding is reserved for the identity element.
const PointLen = 33

// Scalar represents an element of the secp256k1 scalar field.
// It implements [group.Scalar] by wrapping the constant-time
// ModNScalar type from the decred secp256k1 library.
type Scalar struct {
	inner secp.ModNScalar
}

// Add sets s to a + b (mod N) and returns s.
func (s *Scalar) Add(a, b group.Scalar) group.Scalar {
	aScalar := a.(*Scalar)
	bScalar := b.(*Scalar)
	s.inner.Add2(&aScalar.inner, &bScalar.inner)
	return s
}

// Sub sets s to a - b (mod N) and returns s.
func (s *Scalar) Sub(a, b group.Scalar) group.Scalar {
	aScalar := a.(*Scalar)
	bScalar := b.(*Scalar)
	var t secp.ModNScalar
	t.NegateVal(&bScalar.inner)
	t.Add(&aScalar.inner)
	s.inner.Set(&t)
	return s
}

// Mul sets s to a * b (mod N) and returns s.
func (s *Scalar) Mul(a, b group.Scalar) group.Scalar {
	aScalar := a.(*Scalar)
	bScalar := b.(*Scalar)
	s.inner.Mul2(&aScalar.inner, &bScalar.inner)
	return s
}

// Negate sets s to -a (mod N) and returns s.
func (s *Scalar) Negate(a group.Scalar) group.Scalar {
	aScalar := a.(*Scalar)
	s.inner.NegateVal(&aScalar.inner)
	return s
}

// Invert sets s to a^(-1) (mod N) and returns s.
// Returns an error if a is zero, as zero has no multiplicative inverse.
func (s *Scalar) Invert(a group.Scalar) (group.Scalar, error) {
	aScalar := a.(*Scalar)
	if aScalar.IsZero() {
		return nil, errors.New("k256: cannot invert zero scalar")
	}
	s.inner.InverseValNonConst(&aScalar.inner)
	return s, nil
}

// Set copies the value of a into s and returns s.
func (s *Scalar) Set(a group.Scalar) group.Scalar {
	aScalar := a.(*Scalar)
	s.inner.Set(&aScalar.inner)
	return s
}

// Bytes returns the scalar as a 32-byte big-endian representation.
func (s *Scalar) Bytes() []byte {
	b := s.inner.Bytes()
	return b[:]
}

// SetBytes sets s from a big-endian byte slice of at most 32 bytes and
// returns s. The value is reduced modulo the curve order.
func (s *Scalar) SetBytes(data []byte) (group.Scalar, error) {
	if len(data) > 32 {
		return nil, errors.New("k256: scalar encoding longer than 32 bytes")
	}
	s.inner.SetByteSlice(data)
	return s, nil
}

// Equal reports whether s and b represent the same scalar value.
func (s *Scalar) Equal(b group.Scalar) bool {
	bScalar := b.(*Scalar)
	return s.inner.Equals(&bScalar.inner)
}

// IsZero reports whether s is the zero scalar.
func (s *Scalar) IsZero() bool {
	return s.inner.IsZero()
}

// Zeroize overwrites the scalar's backing words with zeros and leaves
// the receiver as the zero scalar.
func (s *Scalar) Zeroize() {
	s.inner.Zero()
}

// Point represents a point on the secp256k1 curve. It implements
// [group.Point] by wrapping the library's Jacobian point type. The
// identity element is the point at infinity.
type Point struct {
	inner secp.JacobianPoint
}

// Add sets p to a + b and returns p.
func (p *Point) Add(a, b group.Point) group.Point {
	aPoint := a.(*Point)
	bPoint := b.(*Point)
	var r secp.JacobianPoint
	secp.AddNonConst(&aPoint.inner, &bPoint.inner, &r)
	p.inner.Set(&r)
	return p
}

// Sub sets p to a - b and returns p.
func (p *Point) Sub(a, b group.Point) group.Point {
	aPoint := a.(*Point)
	bPoint := b.(*Point)
	var negB secp.JacobianPoint
	negB.Set(&bPoint.inner)
	negB.Y.Negate(1)
	negB.Y.Normalize()
	var r secp.JacobianPoint
	secp.AddNonConst(&aPoint.inner, &negB, &r)
	p.inner.Set(&r)
	return p
}

// Negate sets p to -a and returns p.
func (p *Point) Negate(a group.Point) group.Point {
	aPoint := a.(*Point)
	p.inner.Set(&aPoint.inner)
	p.inner.Y.Negate(1)
	p.inner.Y.Normalize()
	return p
}

// ScalarMult sets p to s * q and returns p.
func (p *Point) ScalarMult(s group.Scalar, q group.Point) group.Point {
	scalar := s.(*Scalar)
	qPoint := q.(*Point)
	var r secp.JacobianPoint
	secp.ScalarMultNonConst(&scalar.inner, &qPoint.inner, &r)
	p.inner.Set(&r)
	return p
}

// Set copies the value of a into p and returns p.
func (p *Point) Set(a group.Point) group.Point {
	aPoint := a.(*Point)
	p.inner.Set(&aPoint.inner)
	return p
}

// Bytes returns the compressed point encoding as a 33-byte slice.
// The identity element encodes as 33 zero bytes.
func (p *Point) Bytes() []byte {
	if p.IsIdentity() {
		return make([]byte, PointLen)
	}
	var affine secp.JacobianPoint
	affine.Set(&p.inner)
	affine.ToAffine()
	pub := secp.NewPublicKey(&affine.X, &affine.Y)
	return pub.SerializeCompressed()
}

// SetBytes sets p from a 33-byte compressed encoding and returns p.
// Returns an error if the data does not represent a valid curve point.
func (p *Point) SetBytes(data []byte) (group.Point, error) {
	if len(data) != PointLen {
		return nil, errors.New("k256: point encoding must be 33 bytes")
	}
	if isAllZero(data) {
		p.inner = secp.JacobianPoint{}
		return p, nil
	}
	pub, err := secp.ParsePubKey(data)
	if err != nil {
		return nil, err
	}
	pub.AsJacobian(&p.inner)
	return p, nil
}

// Equal reports whether p and b represent the same curve point.
func (p *Point) Equal(b group.Point) bool {
	bPoint := b.(*Point)
	pInf := p.IsIdentity()
	bInf := bPoint.IsIdentity()
	if pInf || bInf {
		return pInf == bInf
	}
	var pa, ba secp.JacobianPoint
	pa.Set(&p.inner)
	pa.ToAffine()
	ba.Set(&bPoint.inner)
	ba.ToAffine()
	return pa.X.Equals(&ba.X) && pa.Y.Equals(&ba.Y)
}

// IsIdentity reports whether p is the point at infinity.
func (p *Point) IsIdentity() bool {
	var z secp.FieldVal
	z.Set(&p.inner.Z)
	z.Normalize()
	return z.IsZero()
}

func isAllZero(data []byte) bool {
	for _, b := range data {
		if b != 0 {
			return false
		}
	}
	return true
}

// K256 implements [group.Group] for the secp256k1 curve.
//
// K256 is a zero-sized type that provides access to secp256k1 curve
// operations. Create an instance with &K256{} or new(K256).
type K256 struct{}

// NewScalar returns a new scalar initialized to zero.
func (g *K256) NewScalar() group.Scalar {
	return &Scalar{}
}

// NewPoint returns a new point initialized to the point at infinity.
func (g *K256) NewPoint() group.Point {
	return &Point{}
}

// Generator returns the standard secp256k1 base point.
func (g *K256) Generator() group.Point {
	var one secp.ModNScalar
	one.SetInt(1)
	var p Point
	secp.ScalarBaseMultNonConst(&one, &p.inner)
	return &p
}

// RandomScalar generates a cryptographically random scalar using the
// provided random source.
func (g *K256) RandomScalar(r io.Reader) (group.Scalar, error) {
	var buf [32]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return nil, err
	}
	var s Scalar
	s.inner.SetBytes(&buf)
	return &s, nil
}

// HashToScalar hashes the provided data to a scalar using BLAKE2b-256.
// Multiple byte slices are concatenated before hashing.
func (g *K256) HashToScalar(data ...[]byte) (group.Scalar, error) {
	h, err := blake2b.New256(nil)
	if err != nil {
		return nil, err
	}
	for _, d := range data {
		h.Write(d)
	}
	var digest [32]byte
	copy(digest[:], h.Sum(nil))

	var s Scalar
	s.inner.SetBytes(&digest)
	return &s, nil
}

// HashToPoint derives a curve point whose discrete log relative to the
// base point is unknown. It hashes the input with an incrementing
// counter and interprets the digest as a compressed x coordinate until
// decompression succeeds.
func (g *K256) HashToPoint(data ...[]byte) (group.Point, error) {
	for ctr := byte(0); ctr < 255; ctr++ {
		h, err := blake2b.New256(nil)
		if err != nil {
			return nil, err
		}
		h.Write([]byte("chain/k256/h2p"))
		h.Write([]byte{ctr})
		for _, d := range data {
			h.Write(d)
		}
		digest := h.Sum(nil)

		enc := make([]byte, PointLen)
		enc[0] = 0x02
		copy(enc[1:], digest)

		pub, err := secp.ParsePubKey(enc)
		if err != nil {
			continue
		}
		var p Point
		pub.AsJacobian(&p.inner)
		if p.IsIdentity() || p.Equal(g.Generator()) {
			continue
		}
		return &p, nil
	}
	return nil, errors.New("k256: hash to point did not converge")
}

// Order returns the secp256k1 group order as a big-endian byte slice.
func (g *K256) Order() []byte {
	return secp.S256().N.Bytes()
}

// PointSize returns the compressed point encoding length.
func (g *K256) PointSize() int {
	return PointLen
}
