package txbuild

import (
	"crypto/rand"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/carsonaco/chain/commit"
	"github.com/carsonaco/chain/group"
	"github.com/carsonaco/chain/k256"
	"github.com/carsonaco/chain/threshold"
	"github.com/carsonaco/chain/vault"
)

type harness struct {
	grp     group.Group
	ledger  *commit.Ledger
	builder *Builder
	spec    *threshold.Spec
	guards  []*vault.Guard
	keys    []group.Point
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	grp := &k256.K256{}
	ledger, err := commit.NewLedger(grp)
	require.NoError(t, err)

	params := Params{MinFeeBase: 1, MinFeePerInput: 1, MinFeePerOutput: 1, RangeBits: 16}
	builder := NewBuilder(ledger, params, zerolog.Nop())

	guards := make([]*vault.Guard, 3)
	keys := make([]group.Point, 3)
	for i := range guards {
		sk, err := grp.RandomScalar(rand.Reader)
		require.NoError(t, err)
		keys[i] = grp.NewPoint().ScalarMult(sk, grp.Generator())
		guards[i], err = vault.NewGuardFromScalar(sk)
		require.NoError(t, err)
		sk.Zeroize()
	}
	spec, err := threshold.NewSpec(keys, 2)
	require.NoError(t, err)

	return &harness{grp: grp, ledger: ledger, builder: builder, spec: spec, guards: guards, keys: keys}
}

// utxo mints an unspent output the harness wallet can spend.
func (h *harness) utxo(t *testing.T, value uint64) UnspentOutput {
	t.Helper()
	blinding, err := h.grp.RandomScalar(rand.Reader)
	require.NoError(t, err)
	c, err := h.ledger.Commit(value, blinding)
	require.NoError(t, err)

	var id OutputID
	_, err = rand.Read(id[:])
	require.NoError(t, err)

	return UnspentOutput{
		ID:         id,
		Commitment: c,
		Condition:  h.spec,
		Value:      value,
		Blinding:   blinding,
	}
}

func TestSelectInputs(t *testing.T) {
	h := newHarness(t)
	available := []UnspentOutput{h.utxo(t, 10), h.utxo(t, 50), h.utxo(t, 30)}

	t.Run("LargestFirst", func(t *testing.T) {
		selected, err := SelectInputs(available, 60, 5)
		require.NoError(t, err)
		require.Len(t, selected, 2)
		require.Equal(t, uint64(50), selected[0].Value)
		require.Equal(t, uint64(30), selected[1].Value)
	})

	t.Run("SingleCovers", func(t *testing.T) {
		selected, err := SelectInputs(available, 40, 5)
		require.NoError(t, err)
		require.Len(t, selected, 1)
		require.Equal(t, uint64(50), selected[0].Value)
	})

	t.Run("Insufficient", func(t *testing.T) {
		_, err := SelectInputs(available, 90, 5)
		require.ErrorIs(t, err, ErrInsufficientFunds)
	})

	t.Run("OverflowingTarget", func(t *testing.T) {
		_, err := SelectInputs(available, ^uint64(0), 1)
		require.ErrorIs(t, err, ErrInsufficientFunds)
	})

	t.Run("InputUnchanged", func(t *testing.T) {
		before := available[0].Value
		_, err := SelectInputs(available, 60, 5)
		require.NoError(t, err)
		require.Equal(t, before, available[0].Value)
	})
}

func TestBuildWithChange(t *testing.T) {
	h := newHarness(t)
	inputs := []UnspentOutput{h.utxo(t, 100)}
	desired := []Recipient{{Value: 70, Condition: h.spec}}

	draft, openings, err := h.builder.Build(rand.Reader, inputs, desired, h.spec, 5)
	require.NoError(t, err)
	defer draft.Discard()

	// 100 in, 70 out, 5 fee: change of 25 appended last.
	require.Len(t, draft.Outputs, 2)
	require.Len(t, openings, 2)
	require.Equal(t, uint64(70), openings[0].Value)
	require.Equal(t, uint64(25), openings[1].Value)

	// Every output carries a valid range proof.
	for i, out := range draft.Outputs {
		require.Truef(t, h.ledger.VerifyRange(out.Commitment, out.Proof), "output %d range proof", i)
	}

	// The published excess balances the commitment equation.
	var inC, outC []group.Point
	for _, in := range draft.Inputs {
		inC = append(inC, in.Commitment)
	}
	for _, out := range draft.Outputs {
		outC = append(outC, out.Commitment)
	}
	require.True(t, h.ledger.VerifyBalance(inC, outC, draft.Fee, draft.ExcessPoint))
	require.True(t, draft.Verify(h.ledger))

	// The guarded excess reproduces the public point.
	guard, err := draft.ExcessGuard()
	require.NoError(t, err)
	err = guard.WithScalar(h.grp, func(e group.Scalar) error {
		require.True(t, h.ledger.ExcessPoint(e).Equal(draft.ExcessPoint))
		return nil
	})
	require.NoError(t, err)
}

func TestBuildExactNoChange(t *testing.T) {
	h := newHarness(t)
	inputs := []UnspentOutput{h.utxo(t, 75)}
	desired := []Recipient{{Value: 70, Condition: h.spec}}

	draft, openings, err := h.builder.Build(rand.Reader, inputs, desired, h.spec, 5)
	require.NoError(t, err)
	defer draft.Discard()

	require.Len(t, draft.Outputs, 1)
	require.Len(t, openings, 1)
}

func TestBuildErrors(t *testing.T) {
	h := newHarness(t)

	t.Run("InsufficientFunds", func(t *testing.T) {
		inputs := []UnspentOutput{h.utxo(t, 50)}
		desired := []Recipient{{Value: 70, Condition: h.spec}}
		_, _, err := h.builder.Build(rand.Reader, inputs, desired, h.spec, 5)
		require.ErrorIs(t, err, ErrInsufficientFunds)
	})

	t.Run("NoInputs", func(t *testing.T) {
		_, _, err := h.builder.Build(rand.Reader, nil, []Recipient{{Value: 1, Condition: h.spec}}, h.spec, 5)
		require.ErrorIs(t, err, ErrInsufficientFunds)
	})

	t.Run("ZeroValueOutput", func(t *testing.T) {
		inputs := []UnspentOutput{h.utxo(t, 50)}
		desired := []Recipient{{Value: 0, Condition: h.spec}}
		_, _, err := h.builder.Build(rand.Reader, inputs, desired, h.spec, 5)
		require.ErrorIs(t, err, ErrZeroValueOutput)
	})

	t.Run("FeeTooLow", func(t *testing.T) {
		inputs := []UnspentOutput{h.utxo(t, 50)}
		desired := []Recipient{{Value: 10, Condition: h.spec}}
		// Floor is base(1) + 1 input + 2 outputs (desired + change) = 4.
		_, _, err := h.builder.Build(rand.Reader, inputs, desired, h.spec, 3)
		require.ErrorIs(t, err, ErrFeeTooLow)
	})

	t.Run("MissingCondition", func(t *testing.T) {
		inputs := []UnspentOutput{h.utxo(t, 50)}
		desired := []Recipient{{Value: 10, Condition: nil}}
		_, _, err := h.builder.Build(rand.Reader, inputs, desired, h.spec, 10)
		require.ErrorIs(t, err, ErrMissingCondition)
	})

	t.Run("MissingChangeCondition", func(t *testing.T) {
		inputs := []UnspentOutput{h.utxo(t, 50)}
		desired := []Recipient{{Value: 10, Condition: h.spec}}
		_, _, err := h.builder.Build(rand.Reader, inputs, desired, nil, 10)
		require.ErrorIs(t, err, ErrMissingCondition)
	})
}

func TestDigestStable(t *testing.T) {
	h := newHarness(t)
	inputs := []UnspentOutput{h.utxo(t, 100)}
	desired := []Recipient{{Value: 70, Condition: h.spec}}

	draft, _, err := h.builder.Build(rand.Reader, inputs, desired, h.spec, 5)
	require.NoError(t, err)
	defer draft.Discard()

	d1 := draft.Digest()
	d2 := draft.Digest()
	require.Equal(t, d1, d2)

	// A different draft has a different digest.
	other, _, err := h.builder.Build(rand.Reader, inputs, desired, h.spec, 5)
	require.NoError(t, err)
	defer other.Discard()
	require.NotEqual(t, d1, other.Digest())
}
