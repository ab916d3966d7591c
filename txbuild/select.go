package txbuild

import (
	"bytes"
	"errors"
	"sort"
)

// ErrInsufficientFunds indicates the available outputs cannot cover the
// requested value plus fee.
var ErrInsufficientFunds = errors.New("txbuild: insufficient funds")

// SelectInputs picks a deterministic subset of the available outputs
// covering target+feeEstimate.
//
// Policy (fixed, documented): largest-first greedy. Outputs are sorted
// by value descending, with ascending output ID as the tie-break, and
// taken in order until the running sum covers the target. Largest-first
// minimizes the input count of the covering subset, and the total
// order makes wallet behavior reproducible across reimplementations.
func SelectInputs(available []UnspentOutput, target, feeEstimate uint64) ([]UnspentOutput, error) {
	need := target + feeEstimate
	if need < target {
		return nil, ErrInsufficientFunds
	}

	sorted := make([]UnspentOutput, len(available))
	copy(sorted, available)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Value != sorted[j].Value {
			return sorted[i].Value > sorted[j].Value
		}
		return bytes.Compare(sorted[i].ID[:], sorted[j].ID[:]) < 0
	})

	var sum uint64
	for i, out := range sorted {
		sum += out.Value
		if sum >= need {
			selected := make([]UnspentOutput, i+1)
			copy(selected, sorted[:i+1])
			return selected, nil
		}
	}
	return nil, ErrInsufficientFunds
}
