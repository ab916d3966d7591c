package bjgroup

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/carsonaco/chain/group"
)

func TestScalar(t *testing.T) {
	g := &BJ{}

	t.Run("AddSub", func(t *testing.T) {
		a, _ := g.RandomScalar(rand.Reader)
		b, _ := g.RandomScalar(rand.Reader)

		sum := g.NewScalar().Add(a, b)
		diff := g.NewScalar().Sub(sum, b)

		if !diff.Equal(a) {
			t.Error("(a+b)-b != a")
		}
	})

	t.Run("MulInvert", func(t *testing.T) {
		a, _ := g.RandomScalar(rand.Reader)
		aInv, err := g.NewScalar().Invert(a)
		if err != nil {
			t.Fatal(err)
		}

		product := g.NewScalar().Mul(a, aInv)

		// if product = 1, then product * b = b for any b
		b, _ := g.RandomScalar(rand.Reader)
		result := g.NewScalar().Mul(product, b)

		if !result.Equal(b) {
			t.Error("a*a^-1 != 1")
		}
	})

	t.Run("InvertZeroFails", func(t *testing.T) {
		zero := g.NewScalar()
		_, err := g.NewScalar().Invert(zero)
		if err == nil {
			t.Error("expected error inverting zero")
		}
	})

	t.Run("Negate", func(t *testing.T) {
		zero := g.NewScalar()
		a, _ := g.RandomScalar(rand.Reader)
		negA := g.NewScalar().Negate(a)

		result := g.NewScalar().Add(a, negA)

		if !result.Equal(zero) {
			t.Error("negating scalar failed")
		}
	})

	t.Run("BytesRoundtrip", func(t *testing.T) {
		a, _ := g.RandomScalar(rand.Reader)

		raw := a.Bytes()
		restored, err := g.NewScalar().SetBytes(raw)
		if err != nil {
			t.Fatal(err)
		}

		if !restored.Equal(a) {
			t.Error("scalar bytes roundtrip failed")
		}
	})

	t.Run("NewScalarIsZero", func(t *testing.T) {
		zero := g.NewScalar()
		if !zero.IsZero() {
			t.Error("new scalar should be zero")
		}
	})

	t.Run("Equal", func(t *testing.T) {
		var a group.Scalar
		for {
			// exclude a==0, where -a==a
			a, _ = g.RandomScalar(rand.Reader)
			if !a.IsZero() {
				break
			}
		}
		b := g.NewScalar().Set(a)
		if !a.Equal(b) {
			t.Error("copied scalar should equal original")
		}

		b = g.NewScalar().Negate(a)
		if a.Equal(b) {
			t.Error("a should not equal -a")
		}
	})

	t.Run("Zeroize", func(t *testing.T) {
		a, _ := g.RandomScalar(rand.Reader)
		a.Zeroize()
		if !a.IsZero() {
			t.Error("zeroized scalar should be zero")
		}
		if !bytes.Equal(a.Bytes(), make([]byte, 32)) {
			t.Error("zeroized scalar should encode to all zeros")
		}
	})
}

func TestPoint(t *testing.T) {
	g := &BJ{}

	t.Run("AddSub", func(t *testing.T) {
		s1, _ := g.RandomScalar(rand.Reader)
		s2, _ := g.RandomScalar(rand.Reader)
		P := g.NewPoint().ScalarMult(s1, g.Generator())
		Q := g.NewPoint().ScalarMult(s2, g.Generator())

		sum := g.NewPoint().Add(P, Q)
		diff := g.NewPoint().Sub(sum, Q)

		if !diff.Equal(P) {
			t.Error("(P+Q)-Q != P")
		}
	})

	t.Run("IdentityIsAdditiveIdentity", func(t *testing.T) {
		s, _ := g.RandomScalar(rand.Reader)
		P := g.NewPoint().ScalarMult(s, g.Generator())

		sum := g.NewPoint().Add(P, g.NewPoint())
		if !sum.Equal(P) {
			t.Error("P + identity != P")
		}
		if !g.NewPoint().IsIdentity() {
			t.Error("new point should be identity")
		}
	})

	t.Run("ScalarMultDistributes", func(t *testing.T) {
		a, _ := g.RandomScalar(rand.Reader)
		b, _ := g.RandomScalar(rand.Reader)
		sum := g.NewScalar().Add(a, b)

		left := g.NewPoint().ScalarMult(sum, g.Generator())
		aG := g.NewPoint().ScalarMult(a, g.Generator())
		bG := g.NewPoint().ScalarMult(b, g.Generator())
		right := g.NewPoint().Add(aG, bG)

		if !left.Equal(right) {
			t.Error("(a+b)*G != a*G + b*G")
		}
	})

	t.Run("BytesRoundtrip", func(t *testing.T) {
		s, _ := g.RandomScalar(rand.Reader)
		P := g.NewPoint().ScalarMult(s, g.Generator())

		raw := P.Bytes()
		if len(raw) != g.PointSize() {
			t.Fatalf("encoded point is %d bytes, want %d", len(raw), g.PointSize())
		}
		restored, err := g.NewPoint().SetBytes(raw)
		if err != nil {
			t.Fatal(err)
		}
		if !restored.Equal(P) {
			t.Error("point bytes roundtrip failed")
		}
	})
}

func TestHashToScalar(t *testing.T) {
	g := &BJ{}

	a, err := g.HashToScalar([]byte("domain"), []byte("payload"))
	if err != nil {
		t.Fatal(err)
	}
	b, err := g.HashToScalar([]byte("domain"), []byte("payload"))
	if err != nil {
		t.Fatal(err)
	}
	if !a.Equal(b) {
		t.Error("hash to scalar should be deterministic")
	}

	c, err := g.HashToScalar([]byte("domain"), []byte("other"))
	if err != nil {
		t.Fatal(err)
	}
	if a.Equal(c) {
		t.Error("different inputs should hash to different scalars")
	}
}

func TestHashToPoint(t *testing.T) {
	g := &BJ{}

	p1, err := g.HashToPoint([]byte("generator-h"))
	if err != nil {
		t.Fatal(err)
	}
	p2, err := g.HashToPoint([]byte("generator-h"))
	if err != nil {
		t.Fatal(err)
	}
	if !p1.Equal(p2) {
		t.Error("hash to point should be deterministic")
	}
	if p1.IsIdentity() {
		t.Error("hash to point must not yield the identity")
	}
	if p1.Equal(g.Generator()) {
		t.Error("hash to point must not yield the base point")
	}

	p3, err := g.HashToPoint([]byte("another-domain"))
	if err != nil {
		t.Fatal(err)
	}
	if p1.Equal(p3) {
		t.Error("different inputs should hash to different points")
	}
}

func TestHashToPointSubgroup(t *testing.T) {
	g := &BJ{}

	p, err := g.HashToPoint([]byte("subgroup-check"))
	if err != nil {
		t.Fatal(err)
	}

	// order * P == identity for points in the prime-order subgroup.
	inner := p.(*Point)
	var res Point
	res.inner.ScalarMultiplication(&inner.inner, curveOrder)
	if !res.IsIdentity() {
		t.Error("hashed point is not in the prime-order subgroup")
	}
}
