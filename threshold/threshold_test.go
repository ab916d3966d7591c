package threshold

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/carsonaco/chain/group"
	"github.com/carsonaco/chain/k256"
)

func keyPair(t *testing.T, g group.Group) (group.Scalar, group.Point) {
	t.Helper()
	sk, err := g.RandomScalar(rand.Reader)
	require.NoError(t, err)
	return sk, g.NewPoint().ScalarMult(sk, g.Generator())
}

func keySet(t *testing.T, g group.Group, n int) ([]group.Scalar, []group.Point) {
	t.Helper()
	sks := make([]group.Scalar, n)
	pks := make([]group.Point, n)
	for i := range sks {
		sks[i], pks[i] = keyPair(t, g)
	}
	return sks, pks
}

// signSubset produces an aggregate signature the direct way, without
// the interactive session machinery: one nonce per signer, summed.
func signSubset(t *testing.T, g group.Group, spec *Spec, sks []group.Scalar, pks []group.Point, message []byte) *Signature {
	t.Helper()

	subset := make([]group.Point, len(pks))
	copy(subset, pks)
	SortKeys(subset)

	// Re-pair secrets with the sorted keys.
	sorted := make([]group.Scalar, len(subset))
	for i, pk := range subset {
		for j, orig := range pks {
			if orig.Equal(pk) {
				sorted[i] = sks[j]
			}
		}
	}

	nonces := make([]group.Scalar, len(subset))
	aggR := g.NewPoint()
	for i := range subset {
		r, err := g.RandomScalar(rand.Reader)
		require.NoError(t, err)
		nonces[i] = r
		ri := g.NewPoint().ScalarMult(r, g.Generator())
		aggR = g.NewPoint().Add(aggR, ri)
	}

	eff, err := EffectiveKey(g, subset)
	require.NoError(t, err)
	c, err := Challenge(g, aggR, eff, spec.Address(), message)
	require.NoError(t, err)

	s := g.NewScalar()
	for i := range subset {
		a, err := Coefficient(g, subset, subset[i])
		require.NoError(t, err)
		term := g.NewScalar().Mul(c, a)
		term = g.NewScalar().Mul(term, sorted[i])
		term = g.NewScalar().Add(nonces[i], term)
		s = g.NewScalar().Add(s, term)
	}

	return &Signature{Signers: subset, R: aggR, S: s}
}

func TestNewSpecValidation(t *testing.T) {
	g := &k256.K256{}
	_, pks := keySet(t, g, 3)

	_, err := NewSpec(pks, 0)
	require.ErrorIs(t, err, ErrDegenerateThreshold)
	_, err = NewSpec(pks, 4)
	require.ErrorIs(t, err, ErrDegenerateThreshold)

	dup := []group.Point{pks[0], pks[1], pks[0]}
	_, err = NewSpec(dup, 2)
	require.ErrorIs(t, err, ErrDuplicateParticipant)

	spec, err := NewSpec(pks, 2)
	require.NoError(t, err)
	require.Equal(t, 2, spec.Required())
	require.Len(t, spec.Participants(), 3)
	require.True(t, spec.Contains(pks[0]))
}

func TestAddressPermutationInvariant(t *testing.T) {
	g := &k256.K256{}
	_, pks := keySet(t, g, 3)

	spec1, err := NewSpec([]group.Point{pks[0], pks[1], pks[2]}, 2)
	require.NoError(t, err)
	spec2, err := NewSpec([]group.Point{pks[2], pks[0], pks[1]}, 2)
	require.NoError(t, err)
	require.Equal(t, spec1.Address(), spec2.Address())

	// A different required count is a different address.
	spec3, err := NewSpec(pks, 3)
	require.NoError(t, err)
	require.NotEqual(t, spec1.Address(), spec3.Address())

	// A different key set is a different address.
	_, other := keySet(t, g, 3)
	spec4, err := NewSpec(other, 2)
	require.NoError(t, err)
	require.NotEqual(t, spec1.Address(), spec4.Address())
}

func TestVerifyAggregate(t *testing.T) {
	g := &k256.K256{}
	sks, pks := keySet(t, g, 3)
	spec, err := NewSpec(pks, 2)
	require.NoError(t, err)
	message := []byte("spend it")

	sig := signSubset(t, g, spec, sks[:2], pks[:2], message)
	require.True(t, VerifyAggregate(g, spec, message, sig))

	t.Run("WrongMessage", func(t *testing.T) {
		require.False(t, VerifyAggregate(g, spec, []byte("other"), sig))
	})

	t.Run("WrongSpec", func(t *testing.T) {
		// Same keys, different threshold: the address differs, so the
		// signature must not carry over.
		other, err := NewSpec(pks, 3)
		require.NoError(t, err)
		require.False(t, VerifyAggregate(g, other, message, sig))
	})

	t.Run("SubsetSizeMismatch", func(t *testing.T) {
		sig3 := signSubset(t, g, spec, sks, pks, message)
		require.False(t, VerifyAggregate(g, spec, message, sig3))
	})

	t.Run("ForeignSigner", func(t *testing.T) {
		_, stranger := keyPair(t, g)
		bad := &Signature{
			Signers: []group.Point{sig.Signers[0], stranger},
			R:       sig.R,
			S:       sig.S,
		}
		SortKeys(bad.Signers)
		require.False(t, VerifyAggregate(g, spec, message, bad))
	})

	t.Run("NonCanonicalOrder", func(t *testing.T) {
		bad := &Signature{
			Signers: []group.Point{sig.Signers[1], sig.Signers[0]},
			R:       sig.R,
			S:       sig.S,
		}
		require.False(t, VerifyAggregate(g, spec, message, bad))
	})

	t.Run("TamperedResponse", func(t *testing.T) {
		one, err := g.NewScalar().SetBytes([]byte{1})
		require.NoError(t, err)
		bad := &Signature{
			Signers: sig.Signers,
			R:       sig.R,
			S:       g.NewScalar().Add(sig.S, one),
		}
		require.False(t, VerifyAggregate(g, spec, message, bad))
	})

	t.Run("Nil", func(t *testing.T) {
		require.False(t, VerifyAggregate(g, spec, message, nil))
	})
}

func TestDifferentSubsetsBothVerify(t *testing.T) {
	g := &k256.K256{}
	sks, pks := keySet(t, g, 3)
	spec, err := NewSpec(pks, 2)
	require.NoError(t, err)
	message := []byte("either pair works")

	sigA := signSubset(t, g, spec, sks[:2], pks[:2], message)
	sigB := signSubset(t, g, spec, sks[1:], pks[1:], message)

	require.True(t, VerifyAggregate(g, spec, message, sigA))
	require.True(t, VerifyAggregate(g, spec, message, sigB))
}

func TestSpecEncodeDecode(t *testing.T) {
	g := &k256.K256{}
	_, pks := keySet(t, g, 3)
	spec, err := NewSpec(pks, 2)
	require.NoError(t, err)

	data := spec.Encode()
	decoded, err := DecodeSpec(g, data)
	require.NoError(t, err)
	require.Equal(t, spec.Address(), decoded.Address())
	require.Equal(t, spec.Required(), decoded.Required())

	_, err = DecodeSpec(g, data[:len(data)-1])
	require.Error(t, err)
	_, err = DecodeSpec(g, append(data, 0x00))
	require.Error(t, err)
}

func TestSignatureEncodeDecode(t *testing.T) {
	g := &k256.K256{}
	sks, pks := keySet(t, g, 2)
	spec, err := NewSpec(pks, 2)
	require.NoError(t, err)
	message := []byte("roundtrip")

	sig := signSubset(t, g, spec, sks, pks, message)
	data := sig.Encode()

	decoded, err := DecodeSignature(g, data)
	require.NoError(t, err)
	require.True(t, VerifyAggregate(g, spec, message, decoded))

	_, err = DecodeSignature(g, data[:len(data)-1])
	require.Error(t, err)
}
