package commit

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/carsonaco/chain/group"
)

var (
	// ErrWeakBlindingFactor indicates a zero blinding factor, which
	// would make the committed value trivially recoverable.
	ErrWeakBlindingFactor = errors.New("commit: weak (zero) blinding factor")

	// ErrValueOutOfRange indicates a value outside the supported proof
	// range.
	ErrValueOutOfRange = errors.New("commit: value out of range")

	// ErrUnbalancedValues indicates the plaintext values handed to
	// Balance do not sum: inputs != outputs + fee.
	ErrUnbalancedValues = errors.New("commit: input and output values do not balance")
)

// generator-H derivation context; changing it is a consensus break.
var hContext = []byte("chain/commit/generator-h/v1")

// Ledger produces and verifies the homomorphic Pedersen commitments of
// a transaction: value*G + blinding*H, where H is a second generator
// with unknown discrete log relative to G.
//
// A Ledger is immutable after construction and safe for concurrent use.
type Ledger struct {
	grp group.Group
	h   group.Point
}

// NewLedger derives the commitment generator H for grp and returns a
// ledger over it. The derivation is deterministic: every ledger over
// the same group commits against the same H.
func NewLedger(grp group.Group) (*Ledger, error) {
	h, err := grp.HashToPoint(hContext)
	if err != nil {
		return nil, fmt.Errorf("commit: deriving generator H: %w", err)
	}
	return &Ledger{grp: grp, h: h}, nil
}

// Group returns the ledger's group.
func (l *Ledger) Group() group.Group {
	return l.grp
}

// H returns a copy of the second generator.
func (l *Ledger) H() group.Point {
	return l.grp.NewPoint().Set(l.h)
}

// Commit computes value*G + blinding*H. A zero blinding is rejected
// with ErrWeakBlindingFactor: an unblinded output commitment hands an
// observer the committed value by exhaustion.
func (l *Ledger) Commit(value uint64, blinding group.Scalar) (group.Point, error) {
	if blinding.IsZero() {
		return nil, ErrWeakBlindingFactor
	}
	return l.commitRaw(value, blinding), nil
}

// commitRaw computes value*G + blinding*H without the zero-blinding
// guard; range proofs legitimately use zero bit blindings internally.
func (l *Ledger) commitRaw(value uint64, blinding group.Scalar) group.Point {
	vG := l.grp.NewPoint().ScalarMult(l.scalarFromUint64(value), l.grp.Generator())
	if blinding.IsZero() {
		return vG
	}
	rH := l.grp.NewPoint().ScalarMult(blinding, l.h)
	return vG.Add(vG, rH)
}

// Open is a commitment opening held by the owning wallet: the hidden
// value and its blinding factor. Openings are never transmitted.
type Open struct {
	Value    uint64
	Blinding group.Scalar
}

// Balance computes the excess blinding scalar such that
//
//	sum(input commitments) == sum(output commitments) + fee*G + excess*H
//
// holds exactly: excess = sum(input blindings) - sum(output blindings).
// The plaintext values must themselves balance (inputs == outputs +
// fee); a wallet computing an excess over unbalanced values is a
// programming error surfaced as ErrUnbalancedValues.
func (l *Ledger) Balance(inputs, outputs []Open, fee uint64) (group.Scalar, error) {
	var inSum, outSum uint64
	for _, in := range inputs {
		if inSum+in.Value < inSum {
			return nil, ErrValueOutOfRange
		}
		inSum += in.Value
	}
	for _, out := range outputs {
		if outSum+out.Value < outSum {
			return nil, ErrValueOutOfRange
		}
		outSum += out.Value
	}
	if outSum+fee < outSum || inSum != outSum+fee {
		return nil, ErrUnbalancedValues
	}

	excess := l.grp.NewScalar()
	for _, in := range inputs {
		excess = l.grp.NewScalar().Add(excess, in.Blinding)
	}
	for _, out := range outputs {
		excess = l.grp.NewScalar().Sub(excess, out.Blinding)
	}
	return excess, nil
}

// ExcessPoint returns the public form excess*H of a balance excess.
func (l *Ledger) ExcessPoint(excess group.Scalar) group.Point {
	return l.grp.NewPoint().ScalarMult(excess, l.h)
}

// VerifyBalance recomputes the commitment sum check from public data
// only: sum(inputs) == sum(outputs) + fee*G + excess. Any party can run
// this before accepting signatures.
func (l *Ledger) VerifyBalance(inputs, outputs []group.Point, fee uint64, excess group.Point) bool {
	lhs := l.grp.NewPoint()
	for _, in := range inputs {
		lhs = l.grp.NewPoint().Add(lhs, in)
	}

	rhs := l.grp.NewPoint()
	for _, out := range outputs {
		rhs = l.grp.NewPoint().Add(rhs, out)
	}
	feeG := l.grp.NewPoint().ScalarMult(l.scalarFromUint64(fee), l.grp.Generator())
	rhs = l.grp.NewPoint().Add(rhs, feeG)
	rhs = l.grp.NewPoint().Add(rhs, excess)

	return lhs.Equal(rhs)
}

func (l *Ledger) scalarFromUint64(v uint64) group.Scalar {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	s, _ := l.grp.NewScalar().SetBytes(buf[:])
	return s
}
