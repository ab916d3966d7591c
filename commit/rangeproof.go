package commit

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/carsonaco/chain/group"
	"github.com/carsonaco/chain/wire"
)

// MaxRangeBits is the widest supported proof range, [0, 2^64).
const MaxRangeBits = 64

// rangeproof challenge domain tag.
var rangeContext = []byte("chain/commit/rangeproof/v1")

// RangeProof attests that a commitment hides a value in [0, 2^bits)
// without revealing it. The proof decomposes the value into bits, each
// carried by its own Pedersen commitment, and proves with a two-branch
// sigma protocol that every bit commitment opens to 0 or 1. The
// weighted sum of the bit commitments re-forms the target commitment,
// binding the proof to it.
//
// A RangeProof is immutable once produced.
type RangeProof struct {
	bits []bitProof
}

// bitProof is the OR-proof for one bit commitment: either C = r*H
// (bit 0) or C - G = r*H (bit 1). The verifier recomputes both branch
// announcements from the responses and checks the challenge split.
type bitProof struct {
	c  group.Point
	e0 group.Scalar
	e1 group.Scalar
	s0 group.Scalar
	s1 group.Scalar
}

// Bits returns the proof's range width.
func (p *RangeProof) Bits() int {
	return len(p.bits)
}

// ProveRange proves that commitment Commit(value, blinding) hides a
// value in [0, 2^bits). Fails with ErrValueOutOfRange if the value does
// not fit the requested width.
func (l *Ledger) ProveRange(rng io.Reader, value uint64, blinding group.Scalar, bits int) (*RangeProof, error) {
	if bits <= 0 || bits > MaxRangeBits {
		return nil, fmt.Errorf("commit: unsupported range width %d", bits)
	}
	if bits < MaxRangeBits && value >= uint64(1)<<uint(bits) {
		return nil, ErrValueOutOfRange
	}

	target := l.commitRaw(value, blinding)

	// Per-bit blindings r_i with sum(2^i * r_i) == blinding, so that
	// sum(2^i * C_i) == target.
	blindings := make([]group.Scalar, bits)
	weighted := l.grp.NewScalar()
	pow := l.one()
	for i := 1; i < bits; i++ {
		pow = l.grp.NewScalar().Add(pow, pow)
		r, err := l.grp.RandomScalar(rng)
		if err != nil {
			return nil, err
		}
		blindings[i] = r
		term := l.grp.NewScalar().Mul(pow, r)
		weighted = l.grp.NewScalar().Add(weighted, term)
	}
	blindings[0] = l.grp.NewScalar().Sub(blinding, weighted)

	proof := &RangeProof{bits: make([]bitProof, bits)}
	for i := 0; i < bits; i++ {
		bit := (value >> uint(i)) & 1
		bp, err := l.proveBit(rng, target, i, bit, blindings[i])
		if err != nil {
			return nil, err
		}
		proof.bits[i] = bp
	}
	return proof, nil
}

// proveBit builds the OR-proof for a single bit commitment
// C = bit*G + r*H. The genuine branch is answered honestly; the other
// branch is simulated with a random challenge share and response.
func (l *Ledger) proveBit(rng io.Reader, target group.Point, idx int, bit uint64, r group.Scalar) (bitProof, error) {
	c := l.commitRaw(bit, r)

	// Branch statements: D0 = C (opens to 0), D1 = C - G (opens to 1).
	d0 := l.grp.NewPoint().Set(c)
	d1 := l.grp.NewPoint().Sub(c, l.grp.Generator())

	k, err := l.grp.RandomScalar(rng)
	if err != nil {
		return bitProof{}, err
	}
	eSim, err := l.grp.RandomScalar(rng)
	if err != nil {
		return bitProof{}, err
	}
	sSim, err := l.grp.RandomScalar(rng)
	if err != nil {
		return bitProof{}, err
	}

	// Real branch announcement k*H; simulated branch announcement
	// s*H - e*D for the branch we cannot open.
	aReal := l.grp.NewPoint().ScalarMult(k, l.h)
	var dSim group.Point
	if bit == 0 {
		dSim = d1
	} else {
		dSim = d0
	}
	aSim := l.grp.NewPoint().ScalarMult(sSim, l.h)
	eD := l.grp.NewPoint().ScalarMult(eSim, dSim)
	aSim = l.grp.NewPoint().Sub(aSim, eD)

	var a0, a1 group.Point
	if bit == 0 {
		a0, a1 = aReal, aSim
	} else {
		a0, a1 = aSim, aReal
	}

	e, err := l.bitChallenge(target, idx, c, a0, a1)
	if err != nil {
		return bitProof{}, err
	}
	eReal := l.grp.NewScalar().Sub(e, eSim)
	sReal := l.grp.NewScalar().Mul(eReal, r)
	sReal = l.grp.NewScalar().Add(k, sReal)

	bp := bitProof{c: c}
	if bit == 0 {
		bp.e0, bp.s0 = eReal, sReal
		bp.e1, bp.s1 = eSim, sSim
	} else {
		bp.e0, bp.s0 = eSim, sSim
		bp.e1, bp.s1 = eReal, sReal
	}
	return bp, nil
}

// VerifyRange checks a range proof against a commitment using public
// data only.
func (l *Ledger) VerifyRange(commitment group.Point, proof *RangeProof) bool {
	if proof == nil || len(proof.bits) == 0 || len(proof.bits) > MaxRangeBits {
		return false
	}

	// The weighted bit commitments must re-form the target commitment.
	sum := l.grp.NewPoint()
	pow := l.one()
	for i, bp := range proof.bits {
		if i > 0 {
			pow = l.grp.NewScalar().Add(pow, pow)
		}
		term := l.grp.NewPoint().ScalarMult(pow, bp.c)
		sum = l.grp.NewPoint().Add(sum, term)
	}
	if !sum.Equal(commitment) {
		return false
	}

	for i, bp := range proof.bits {
		if !l.verifyBit(commitment, i, bp) {
			return false
		}
	}
	return true
}

func (l *Ledger) verifyBit(target group.Point, idx int, bp bitProof) bool {
	d0 := bp.c
	d1 := l.grp.NewPoint().Sub(bp.c, l.grp.Generator())

	// A_j = s_j*H - e_j*D_j for both branches.
	a0 := l.grp.NewPoint().ScalarMult(bp.s0, l.h)
	a0 = l.grp.NewPoint().Sub(a0, l.grp.NewPoint().ScalarMult(bp.e0, d0))
	a1 := l.grp.NewPoint().ScalarMult(bp.s1, l.h)
	a1 = l.grp.NewPoint().Sub(a1, l.grp.NewPoint().ScalarMult(bp.e1, d1))

	e, err := l.bitChallenge(target, idx, bp.c, a0, a1)
	if err != nil {
		return false
	}
	split := l.grp.NewScalar().Add(bp.e0, bp.e1)
	return split.Equal(e)
}

func (l *Ledger) bitChallenge(target group.Point, idx int, c, a0, a1 group.Point) (group.Scalar, error) {
	var le [4]byte
	binary.LittleEndian.PutUint32(le[:], uint32(idx))
	return l.grp.HashToScalar(rangeContext, target.Bytes(), le[:], c.Bytes(), a0.Bytes(), a1.Bytes())
}

func (l *Ledger) one() group.Scalar {
	s, _ := l.grp.NewScalar().SetBytes([]byte{1})
	return s
}

// Encode serializes the proof in the versioned wire format.
func (p *RangeProof) Encode() []byte {
	w := wire.NewWriter()
	w.Uint16(uint16(len(p.bits)))
	for _, bp := range p.bits {
		w.Fixed(bp.c.Bytes())
		w.Fixed(bp.e0.Bytes())
		w.Fixed(bp.e1.Bytes())
		w.Fixed(bp.s0.Bytes())
		w.Fixed(bp.s1.Bytes())
	}
	return w.Finish()
}

// DecodeRangeProof parses a proof encoded by Encode. The decode is
// strict: wrong version, truncation or trailing bytes all fail.
func DecodeRangeProof(grp group.Group, data []byte) (*RangeProof, error) {
	r := wire.NewReader(data)
	n := int(r.Uint16())
	if err := r.Err(); err != nil {
		return nil, err
	}
	if n == 0 || n > MaxRangeBits {
		return nil, ErrValueOutOfRange
	}
	proof := &RangeProof{bits: make([]bitProof, n)}
	for i := 0; i < n; i++ {
		var bp bitProof
		var err error
		if bp.c, err = decodePoint(grp, r); err != nil {
			return nil, err
		}
		if bp.e0, err = decodeScalar(grp, r); err != nil {
			return nil, err
		}
		if bp.e1, err = decodeScalar(grp, r); err != nil {
			return nil, err
		}
		if bp.s0, err = decodeScalar(grp, r); err != nil {
			return nil, err
		}
		if bp.s1, err = decodeScalar(grp, r); err != nil {
			return nil, err
		}
		proof.bits[i] = bp
	}
	if err := r.Close(); err != nil {
		return nil, err
	}
	return proof, nil
}

func decodePoint(grp group.Group, r *wire.Reader) (group.Point, error) {
	raw := r.Fixed(grp.PointSize())
	if err := r.Err(); err != nil {
		return nil, err
	}
	return grp.NewPoint().SetBytes(raw)
}

func decodeScalar(grp group.Group, r *wire.Reader) (group.Scalar, error) {
	raw := r.Fixed(32)
	if err := r.Err(); err != nil {
		return nil, err
	}
	return grp.NewScalar().SetBytes(raw)
}
