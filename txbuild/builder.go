package txbuild

import (
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/carsonaco/chain/commit"
	"github.com/carsonaco/chain/group"
	"github.com/carsonaco/chain/threshold"
	"github.com/carsonaco/chain/vault"
)

var (
	// ErrZeroValueOutput indicates a requested output of value zero.
	ErrZeroValueOutput = errors.New("txbuild: zero-value output")

	// ErrFeeTooLow indicates a fee below the configured floor for the
	// transaction's size.
	ErrFeeTooLow = errors.New("txbuild: fee below configured minimum")

	// ErrMissingCondition indicates an output with no spending condition.
	ErrMissingCondition = errors.New("txbuild: output has no spending condition")
)

// Params configures the builder's fee floor and range proof width.
type Params struct {
	// MinFeeBase is the flat fee floor per transaction.
	MinFeeBase uint64
	// MinFeePerInput and MinFeePerOutput scale the floor with the
	// transaction's size.
	MinFeePerInput  uint64
	MinFeePerOutput uint64
	// RangeBits is the width of output range proofs.
	RangeBits int
}

// DefaultParams returns the production defaults: a 64-bit proof range
// and a small size-scaled fee floor.
func DefaultParams() Params {
	return Params{
		MinFeeBase:      1,
		MinFeePerInput:  1,
		MinFeePerOutput: 1,
		RangeBits:       commit.MaxRangeBits,
	}
}

// minFee computes the fee floor for a transaction shape.
func (p Params) minFee(inputs, outputs int) uint64 {
	return p.MinFeeBase + p.MinFeePerInput*uint64(inputs) + p.MinFeePerOutput*uint64(outputs)
}

// Builder assembles unsigned confidential transactions. It selects
// nothing and mutates nothing outside the returned draft; marking
// inputs spent is the broadcaster/indexer's responsibility once the
// transaction confirms on-chain.
type Builder struct {
	ledger *commit.Ledger
	params Params
	log    zerolog.Logger
}

// NewBuilder returns a builder over the ledger's group.
func NewBuilder(ledger *commit.Ledger, params Params, log zerolog.Logger) *Builder {
	return &Builder{ledger: ledger, params: params, log: log}
}

// Build assembles an unsigned draft spending the given inputs into the
// desired outputs. A change output paying totalIn - totalOut - fee to
// changeCondition is appended when that difference is nonzero. Every
// output gets a fresh blinding and a range proof; the balance excess
// is computed through the ledger and carried on the draft.
//
// The returned openings parallel the draft's outputs. They are the
// wallet's to keep (the change opening is needed to spend the change
// later) and must never be transmitted.
func (b *Builder) Build(
	rng io.Reader,
	inputs []UnspentOutput,
	desired []Recipient,
	changeCondition *threshold.Spec,
	fee uint64,
) (*Draft, []commit.Open, error) {
	if len(inputs) == 0 {
		return nil, nil, ErrInsufficientFunds
	}
	for _, rcpt := range desired {
		if rcpt.Value == 0 {
			return nil, nil, ErrZeroValueOutput
		}
		if rcpt.Condition == nil {
			return nil, nil, ErrMissingCondition
		}
	}

	var totalIn, totalOut uint64
	for _, in := range inputs {
		if totalIn+in.Value < totalIn {
			return nil, nil, commit.ErrValueOutOfRange
		}
		totalIn += in.Value
	}
	for _, rcpt := range desired {
		if totalOut+rcpt.Value < totalOut {
			return nil, nil, commit.ErrValueOutOfRange
		}
		totalOut += rcpt.Value
	}

	// Fee floor is checked against the worst-case shape: all desired
	// outputs plus a change output.
	if fee < b.params.minFee(len(inputs), len(desired)+1) {
		return nil, nil, ErrFeeTooLow
	}
	if totalOut+fee < totalOut || totalIn < totalOut+fee {
		return nil, nil, ErrInsufficientFunds
	}

	recipients := make([]Recipient, len(desired))
	copy(recipients, desired)
	if change := totalIn - totalOut - fee; change > 0 {
		if changeCondition == nil {
			return nil, nil, ErrMissingCondition
		}
		recipients = append(recipients, Recipient{Value: change, Condition: changeCondition})
	}

	grp := b.ledger.Group()
	outputs := make([]Output, len(recipients))
	openings := make([]commit.Open, len(recipients))
	for i, rcpt := range recipients {
		blinding, err := b.freshBlinding(rng)
		if err != nil {
			return nil, nil, err
		}
		c, err := b.ledger.Commit(rcpt.Value, blinding)
		if err != nil {
			return nil, nil, err
		}
		proof, err := b.ledger.ProveRange(rng, rcpt.Value, blinding, b.params.RangeBits)
		if err != nil {
			return nil, nil, err
		}
		outputs[i] = Output{Commitment: c, Proof: proof, Condition: rcpt.Condition}
		openings[i] = commit.Open{Value: rcpt.Value, Blinding: blinding}
	}

	inOpens := make([]commit.Open, len(inputs))
	draftInputs := make([]Input, len(inputs))
	for i, in := range inputs {
		inOpens[i] = commit.Open{Value: in.Value, Blinding: in.Blinding}
		draftInputs[i] = Input{ID: in.ID, Commitment: in.Commitment, Condition: in.Condition}
	}

	excess, err := b.ledger.Balance(inOpens, openings, fee)
	if err != nil {
		return nil, nil, err
	}
	defer excess.Zeroize()
	if excess.IsZero() {
		// Astronomically unlikely with fresh blindings; a zero excess
		// would leave the balance equation unblinded.
		return nil, nil, commit.ErrWeakBlindingFactor
	}
	excessGuard, err := vault.NewGuardFromScalar(excess)
	if err != nil {
		return nil, nil, err
	}
	excessPoint := b.ledger.ExcessPoint(excess)

	draft := &Draft{
		grp:         grp,
		Inputs:      draftInputs,
		Outputs:     outputs,
		Fee:         fee,
		ExcessPoint: excessPoint,
		excess:      excessGuard,
	}

	b.log.Debug().
		Int("inputs", len(draft.Inputs)).
		Int("outputs", len(draft.Outputs)).
		Uint64("fee", fee).
		Hex("digest", digestBytes(draft)).
		Msg("assembled unsigned draft")

	return draft, openings, nil
}

// freshBlinding draws a nonzero random blinding.
func (b *Builder) freshBlinding(rng io.Reader) (group.Scalar, error) {
	grp := b.ledger.Group()
	for i := 0; i < 4; i++ {
		r, err := grp.RandomScalar(rng)
		if err != nil {
			return nil, err
		}
		if !r.IsZero() {
			return r, nil
		}
	}
	return nil, fmt.Errorf("txbuild: rng keeps returning zero scalars")
}

func digestBytes(d *Draft) []byte {
	digest := d.Digest()
	return digest[:]
}
