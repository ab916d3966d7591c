package txbuild

import (
	"github.com/carsonaco/chain/commit"
	"github.com/carsonaco/chain/group"
	"github.com/carsonaco/chain/threshold"
)

// OutputIDLen is the length of an unspent-output identifier.
const OutputIDLen = 32

// OutputID identifies an unspent output on the chain.
type OutputID [OutputIDLen]byte

// UnspentOutput is a spendable output as reported by the chain indexer,
// extended with the opening known only to the owning wallet. The
// opening (Value, Blinding) is never transmitted; the indexer supplies
// only the public fields.
//
// This library only reads unspent outputs. Marking them spent once a
// transaction confirms is the indexer's job.
type UnspentOutput struct {
	ID         OutputID
	Commitment group.Point
	Condition  *threshold.Spec

	// Opening held by the owning wallet.
	Value    uint64
	Blinding group.Scalar
}

// Recipient describes one desired payment output.
type Recipient struct {
	Value     uint64
	Condition *threshold.Spec
}

// Input is a spent output reference inside a draft, plus its witness
// slot. The witness stays nil until a signing session completes.
type Input struct {
	ID         OutputID
	Commitment group.Point
	Condition  *threshold.Spec
	Witness    *threshold.Signature
}

// Output is a created output inside a draft: the commitment hiding its
// value, the range proof for that commitment, and the spending
// condition of the new owner.
type Output struct {
	Commitment group.Point
	Proof      *commit.RangeProof
	Condition  *threshold.Spec
}
