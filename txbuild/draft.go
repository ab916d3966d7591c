package txbuild

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/blake2b"

	"github.com/carsonaco/chain/commit"
	"github.com/carsonaco/chain/group"
	"github.com/carsonaco/chain/threshold"
	"github.com/carsonaco/chain/vault"
	"github.com/carsonaco/chain/wire"
)

var (
	// ErrInvalidWitness indicates a witness that does not verify against
	// its input's spending condition and the draft digest.
	ErrInvalidWitness = errors.New("txbuild: witness does not verify")

	// ErrNoExcessSecret indicates a draft that does not carry the secret
	// excess, such as one decoded from the wire.
	ErrNoExcessSecret = errors.New("txbuild: draft carries no excess secret")
)

// draft digest domain tag.
var digestContext = []byte("chain/txbuild/digest/v1")

// DigestLen is the length of a draft signing digest.
const DigestLen = 32

// Digest is the message every input witness signs.
type Digest [DigestLen]byte

// Draft is an in-progress transaction: inputs referencing spent
// outputs, confidential outputs with range proofs, the fee, and the
// public balance excess. Witnesses are attached one input at a time as
// signing sessions complete.
//
// The builder-side draft additionally guards the secret excess scalar;
// a draft decoded from the wire does not carry it.
type Draft struct {
	grp group.Group

	Inputs      []Input
	Outputs     []Output
	Fee         uint64
	ExcessPoint group.Point

	excess *vault.Guard
}

// Digest computes the signing digest: a BLAKE2b-256 hash over the
// draft skeleton. Witnesses are excluded, so the digest is stable
// across witness attachment and identical for every co-signer.
func (d *Draft) Digest() Digest {
	h, _ := blake2b.New256(nil)
	h.Write(digestContext)
	h.Write(d.encodeSkeleton())
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

// AttachWitness verifies sig against input i's spending condition and
// the draft digest, and stores it on success. An invalid signature is
// rejected with ErrInvalidWitness and the input stays unsigned.
func (d *Draft) AttachWitness(i int, sig *threshold.Signature) error {
	if i < 0 || i >= len(d.Inputs) {
		return fmt.Errorf("txbuild: input index %d out of range", i)
	}
	digest := d.Digest()
	if !threshold.VerifyAggregate(d.grp, d.Inputs[i].Condition, digest[:], sig) {
		return ErrInvalidWitness
	}
	d.Inputs[i].Witness = sig
	return nil
}

// Complete reports whether every input carries a witness.
func (d *Draft) Complete() bool {
	for _, in := range d.Inputs {
		if in.Witness == nil {
			return false
		}
	}
	return true
}

// ExcessGuard returns the guard over the secret excess scalar. Only
// builder-produced drafts carry it; drafts decoded from the wire fail
// with ErrNoExcessSecret.
func (d *Draft) ExcessGuard() (*vault.Guard, error) {
	if d.excess == nil {
		return nil, ErrNoExcessSecret
	}
	return d.excess, nil
}

// Discard releases the secret excess, if any. Call it once the draft
// is broadcast or abandoned.
func (d *Draft) Discard() {
	if d.excess != nil {
		d.excess.Release()
	}
}

// Verify checks the draft from public data only: the commitment sums
// balance against the fee and excess, every output range proof holds,
// and every attached witness verifies. Usable by parties holding no
// secrets before they contribute signatures.
func (d *Draft) Verify(ledger *commit.Ledger) bool {
	inC := make([]group.Point, len(d.Inputs))
	for i, in := range d.Inputs {
		inC[i] = in.Commitment
	}
	outC := make([]group.Point, len(d.Outputs))
	for i, out := range d.Outputs {
		outC[i] = out.Commitment
	}
	if !ledger.VerifyBalance(inC, outC, d.Fee, d.ExcessPoint) {
		return false
	}
	for _, out := range d.Outputs {
		if !ledger.VerifyRange(out.Commitment, out.Proof) {
			return false
		}
	}
	digest := d.Digest()
	for _, in := range d.Inputs {
		if in.Witness != nil && !threshold.VerifyAggregate(d.grp, in.Condition, digest[:], in.Witness) {
			return false
		}
	}
	return true
}

// encodeSkeleton encodes everything every signer must agree on:
// inputs without witnesses, outputs, fee and excess point.
func (d *Draft) encodeSkeleton() []byte {
	w := wire.NewBareWriter()
	w.Uint64(d.Fee)
	w.Fixed(d.ExcessPoint.Bytes())
	w.Uint16(uint16(len(d.Inputs)))
	for _, in := range d.Inputs {
		w.Fixed(in.ID[:])
		w.Fixed(in.Commitment.Bytes())
		w.Bytes(in.Condition.Encode())
	}
	w.Uint16(uint16(len(d.Outputs)))
	for _, out := range d.Outputs {
		w.Fixed(out.Commitment.Bytes())
		w.Bytes(out.Proof.Encode())
		w.Bytes(out.Condition.Encode())
	}
	return w.Finish()
}

// Encode serializes the draft in the versioned wire format: the
// skeleton followed by the attached witnesses. The secret excess is
// never serialized.
func (d *Draft) Encode() []byte {
	w := wire.NewWriter()
	w.Bytes(d.encodeSkeleton())
	for _, in := range d.Inputs {
		if in.Witness == nil {
			w.Byte(0)
			continue
		}
		w.Byte(1)
		w.Bytes(in.Witness.Encode())
	}
	return w.Finish()
}

// DecodeDraft parses a draft encoded by Encode. Attached witnesses are
// re-verified against the decoded digest; the result carries no secret
// excess.
func DecodeDraft(grp group.Group, data []byte) (*Draft, error) {
	r := wire.NewReader(data)
	skeleton := r.Bytes()
	if err := r.Err(); err != nil {
		return nil, err
	}

	d, err := decodeSkeleton(grp, skeleton)
	if err != nil {
		return nil, err
	}

	witnesses := make([][]byte, len(d.Inputs))
	for i := range d.Inputs {
		present := r.Byte()
		if present == 1 {
			witnesses[i] = r.Bytes()
		} else if present != 0 {
			return nil, fmt.Errorf("txbuild: invalid witness presence flag %d", present)
		}
	}
	if err := r.Close(); err != nil {
		return nil, err
	}

	for i, raw := range witnesses {
		if raw == nil {
			continue
		}
		sig, err := threshold.DecodeSignature(grp, raw)
		if err != nil {
			return nil, err
		}
		if err := d.AttachWitness(i, sig); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func decodeSkeleton(grp group.Group, data []byte) (*Draft, error) {
	r := wire.NewBareReader(data)
	d := &Draft{grp: grp}
	d.Fee = r.Uint64()

	rawExcess := r.Fixed(grp.PointSize())
	if err := r.Err(); err != nil {
		return nil, err
	}
	excess, err := grp.NewPoint().SetBytes(rawExcess)
	if err != nil {
		return nil, err
	}
	d.ExcessPoint = excess

	nIn := int(r.Uint16())
	if err := r.Err(); err != nil {
		return nil, err
	}
	d.Inputs = make([]Input, nIn)
	for i := 0; i < nIn; i++ {
		var in Input
		copy(in.ID[:], r.Fixed(OutputIDLen))
		rawC := r.Fixed(grp.PointSize())
		rawSpec := r.Bytes()
		if err := r.Err(); err != nil {
			return nil, err
		}
		if in.Commitment, err = grp.NewPoint().SetBytes(rawC); err != nil {
			return nil, err
		}
		if in.Condition, err = threshold.DecodeSpec(grp, rawSpec); err != nil {
			return nil, err
		}
		d.Inputs[i] = in
	}

	nOut := int(r.Uint16())
	if err := r.Err(); err != nil {
		return nil, err
	}
	d.Outputs = make([]Output, nOut)
	for i := 0; i < nOut; i++ {
		var out Output
		rawC := r.Fixed(grp.PointSize())
		rawProof := r.Bytes()
		rawSpec := r.Bytes()
		if err := r.Err(); err != nil {
			return nil, err
		}
		if out.Commitment, err = grp.NewPoint().SetBytes(rawC); err != nil {
			return nil, err
		}
		if out.Proof, err = commit.DecodeRangeProof(grp, rawProof); err != nil {
			return nil, err
		}
		if out.Condition, err = threshold.DecodeSpec(grp, rawSpec); err != nil {
			return nil, err
		}
		d.Outputs[i] = out
	}

	if err := r.Close(); err != nil {
		return nil, err
	}
	return d, nil
}
