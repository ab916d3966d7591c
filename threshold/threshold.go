package threshold

import (
	"bytes"
	"errors"
	"sort"

	"golang.org/x/crypto/blake2b"

	"github.com/carsonaco/chain/group"
	"github.com/carsonaco/chain/wire"
)

var (
	// ErrDegenerateThreshold indicates a required-signer count of zero
	// or one exceeding the participant count.
	ErrDegenerateThreshold = errors.New("threshold: degenerate required-signer count")

	// ErrDuplicateParticipant indicates the participant key list
	// contains repeats.
	ErrDuplicateParticipant = errors.New("threshold: duplicate participant key")
)

// Domain tags. Changing any of these changes every address and
// signature on the chain.
var (
	addressContext = []byte("chain/threshold/address/v1")
	coeffContext   = []byte("chain/threshold/keycoeff/v1")
	chalContext    = []byte("chain/threshold/challenge/v1")
)

// AddressLen is the length of a spending-condition address.
const AddressLen = 32

// Address is the deterministic identifier of a threshold spending
// condition.
type Address [AddressLen]byte

// Spec defines one threshold spending condition: an ordered set of
// participant public keys of which Required must co-sign a spend.
//
// The key list is canonicalized (ascending encoded-byte order) at
// construction, so two wallets independently assembling the same group
// derive the same address regardless of the order they learned the
// keys in.
type Spec struct {
	keys     []group.Point
	required int
}

// NewSpec builds a spending condition over the given participant keys.
// Fails with ErrDegenerateThreshold when required is zero or exceeds
// the participant count, and ErrDuplicateParticipant when the key list
// contains repeats.
func NewSpec(keys []group.Point, required int) (*Spec, error) {
	if required < 1 || required > len(keys) {
		return nil, ErrDegenerateThreshold
	}

	canonical := make([]group.Point, len(keys))
	copy(canonical, keys)
	sortKeys(canonical)
	for i := 1; i < len(canonical); i++ {
		if canonical[i].Equal(canonical[i-1]) {
			return nil, ErrDuplicateParticipant
		}
	}

	return &Spec{keys: canonical, required: required}, nil
}

// Required returns the number of co-signers a spend needs.
func (s *Spec) Required() int {
	return s.required
}

// Participants returns the canonical participant key list. The slice
// is a copy; the points are shared.
func (s *Spec) Participants() []group.Point {
	out := make([]group.Point, len(s.keys))
	copy(out, s.keys)
	return out
}

// Contains reports whether pk is one of the spec's participants.
func (s *Spec) Contains(pk group.Point) bool {
	for _, k := range s.keys {
		if k.Equal(pk) {
			return true
		}
	}
	return false
}

// Address computes the spending address: a BLAKE2b-256 digest over the
// domain tag, the required-signer count and the canonical key list.
// Pure and deterministic; permutations of the original key list yield
// the same address because the spec canonicalized at construction.
func (s *Spec) Address() Address {
	h, _ := blake2b.New256(nil)
	h.Write(addressContext)
	var le [4]byte
	le[0] = byte(s.required)
	le[1] = byte(s.required >> 8)
	le[2] = byte(len(s.keys))
	le[3] = byte(len(s.keys) >> 8)
	h.Write(le[:])
	for _, k := range s.keys {
		h.Write(k.Bytes())
	}
	var addr Address
	copy(addr[:], h.Sum(nil))
	return addr
}

// Signature is a completed aggregate Schnorr signature over a message,
// naming the subset of participants that produced it. The subset is
// part of the signature because the effective combined key depends on
// which Required participants signed.
type Signature struct {
	Signers []group.Point // canonical order, exactly Required members
	R       group.Point   // aggregate nonce point
	S       group.Scalar  // aggregate response
}

// SortKeys canonicalizes a key list in place: ascending byte order of
// the encoded points.
func SortKeys(keys []group.Point) {
	sortKeys(keys)
}

func sortKeys(keys []group.Point) {
	sort.Slice(keys, func(i, j int) bool {
		return bytes.Compare(keys[i].Bytes(), keys[j].Bytes()) < 0
	})
}

// keyList flattens a canonical signer list for hashing.
func keyList(signers []group.Point) []byte {
	var buf []byte
	for _, k := range signers {
		buf = append(buf, k.Bytes()...)
	}
	return buf
}

// Coefficient computes the aggregation coefficient of pk within the
// signer subset: a_i = H(tag, L, X_i) where L is the flattened
// canonical subset key list. Binding each coefficient to the whole
// subset defeats rogue-key attacks.
func Coefficient(g group.Group, signers []group.Point, pk group.Point) (group.Scalar, error) {
	return g.HashToScalar(coeffContext, keyList(signers), pk.Bytes())
}

// EffectiveKey computes the combined public key of a signer subset:
// the coefficient-weighted sum of the subset's keys. The signers slice
// must already be canonical.
func EffectiveKey(g group.Group, signers []group.Point) (group.Point, error) {
	eff := g.NewPoint()
	for _, pk := range signers {
		a, err := Coefficient(g, signers, pk)
		if err != nil {
			return nil, err
		}
		term := g.NewPoint().ScalarMult(a, pk)
		eff = g.NewPoint().Add(eff, term)
	}
	return eff, nil
}

// Challenge computes the Schnorr challenge binding the aggregate nonce,
// the effective key, the spending address and the message digest.
// Binding the address ties the signature to one spending condition; it
// cannot be replayed against another spec sharing the same keys.
func Challenge(g group.Group, r, effective group.Point, addr Address, message []byte) (group.Scalar, error) {
	return g.HashToScalar(chalContext, r.Bytes(), effective.Bytes(), addr[:], message)
}

// VerifyAggregate reports whether sig is a valid aggregate signature
// for message under the spending condition spec. This is the final
// gate before a transaction input is considered signed.
func VerifyAggregate(g group.Group, spec *Spec, message []byte, sig *Signature) bool {
	if sig == nil || sig.R == nil || sig.S == nil {
		return false
	}
	if len(sig.Signers) != spec.required {
		return false
	}
	for i, pk := range sig.Signers {
		if !spec.Contains(pk) {
			return false
		}
		// Canonical order doubles as the distinctness check.
		if i > 0 && bytes.Compare(sig.Signers[i-1].Bytes(), pk.Bytes()) >= 0 {
			return false
		}
	}

	eff, err := EffectiveKey(g, sig.Signers)
	if err != nil {
		return false
	}
	c, err := Challenge(g, sig.R, eff, spec.Address(), message)
	if err != nil {
		return false
	}

	// s*G == R + c*X~
	lhs := g.NewPoint().ScalarMult(sig.S, g.Generator())
	rhs := g.NewPoint().ScalarMult(c, eff)
	rhs = g.NewPoint().Add(sig.R, rhs)
	return lhs.Equal(rhs)
}

// Encode serializes the spec in the versioned wire format.
func (s *Spec) Encode() []byte {
	w := wire.NewWriter()
	w.Uint16(uint16(s.required))
	w.Uint16(uint16(len(s.keys)))
	for _, k := range s.keys {
		w.Fixed(k.Bytes())
	}
	return w.Finish()
}

// DecodeSpec parses a spec encoded by Encode.
func DecodeSpec(g group.Group, data []byte) (*Spec, error) {
	r := wire.NewReader(data)
	required := int(r.Uint16())
	n := int(r.Uint16())
	if err := r.Err(); err != nil {
		return nil, err
	}
	keys := make([]group.Point, n)
	for i := 0; i < n; i++ {
		raw := r.Fixed(g.PointSize())
		if err := r.Err(); err != nil {
			return nil, err
		}
		p, err := g.NewPoint().SetBytes(raw)
		if err != nil {
			return nil, err
		}
		keys[i] = p
	}
	if err := r.Close(); err != nil {
		return nil, err
	}
	return NewSpec(keys, required)
}

// Encode serializes the signature in the versioned wire format.
func (sig *Signature) Encode() []byte {
	w := wire.NewWriter()
	w.Uint16(uint16(len(sig.Signers)))
	for _, k := range sig.Signers {
		w.Fixed(k.Bytes())
	}
	w.Fixed(sig.R.Bytes())
	w.Fixed(sig.S.Bytes())
	return w.Finish()
}

// DecodeSignature parses a signature encoded by Encode.
func DecodeSignature(g group.Group, data []byte) (*Signature, error) {
	r := wire.NewReader(data)
	n := int(r.Uint16())
	if err := r.Err(); err != nil {
		return nil, err
	}
	sig := &Signature{Signers: make([]group.Point, n)}
	for i := 0; i < n; i++ {
		raw := r.Fixed(g.PointSize())
		if err := r.Err(); err != nil {
			return nil, err
		}
		p, err := g.NewPoint().SetBytes(raw)
		if err != nil {
			return nil, err
		}
		sig.Signers[i] = p
	}
	rawR := r.Fixed(g.PointSize())
	rawS := r.Fixed(32)
	if err := r.Close(); err != nil {
		return nil, err
	}
	var err error
	if sig.R, err = g.NewPoint().SetBytes(rawR); err != nil {
		return nil, err
	}
	if sig.S, err = g.NewScalar().SetBytes(rawS); err != nil {
		return nil, err
	}
	return sig, nil
}
