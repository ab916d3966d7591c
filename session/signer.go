package session

import (
	"errors"
	"io"
	"sync"

	"github.com/carsonaco/chain/group"
	"github.com/carsonaco/chain/threshold"
	"github.com/carsonaco/chain/vault"
)

var (
	// ErrNonceConsumed indicates a second partial request from a signer
	// whose nonce has already been spent. One nonce signs one message;
	// reusing it would leak the private key.
	ErrNonceConsumed = errors.New("session: signing nonce already consumed")

	// ErrSignerNotInSubset indicates a signer key outside the session's
	// signer subset.
	ErrSignerNotInSubset = errors.New("session: signer key not in subset")
)

// Signer is one participant's side of a signing session. It generates
// its nonce at construction and guards both the nonce and the private
// key; neither ever leaves the signer in plain form.
//
// A Signer is one-shot. Producing the partial signature consumes the
// nonce, and Abort erases it without signing.
type Signer struct {
	mu sync.Mutex

	grp     group.Group
	key     *vault.Guard
	pk      group.Point
	spec    *threshold.Spec
	signers []group.Point
	message []byte

	nonce      *vault.Guard
	noncePoint group.Point
	commitment [CommitmentLen]byte
}

// NewSigner prepares one participant for a session signing message
// under spec with the given signer subset. keyGuard holds the
// participant's private key; pk must be the matching public key and a
// member of the subset.
func NewSigner(
	grp group.Group,
	rng io.Reader,
	keyGuard *vault.Guard,
	pk group.Point,
	spec *threshold.Spec,
	signers []group.Point,
	message []byte,
) (*Signer, error) {
	if len(signers) != spec.Required() {
		return nil, ErrInvalidSignerSubset
	}
	canonical := make([]group.Point, len(signers))
	copy(canonical, signers)
	threshold.SortKeys(canonical)

	member := false
	for _, k := range canonical {
		if !spec.Contains(k) {
			return nil, ErrInvalidSignerSubset
		}
		if k.Equal(pk) {
			member = true
		}
	}
	if !member {
		return nil, ErrSignerNotInSubset
	}

	r, err := grp.RandomScalar(rng)
	if err != nil {
		return nil, err
	}
	defer r.Zeroize()
	noncePoint := grp.NewPoint().ScalarMult(r, grp.Generator())
	nonce, err := vault.NewGuardFromScalar(r)
	if err != nil {
		return nil, err
	}

	return &Signer{
		grp:        grp,
		key:        keyGuard,
		pk:         pk,
		spec:       spec,
		signers:    canonical,
		message:    append([]byte(nil), message...),
		nonce:      nonce,
		noncePoint: noncePoint,
		commitment: nonceCommitment(pk, noncePoint),
	}, nil
}

// PublicKey returns the signer's public key.
func (s *Signer) PublicKey() group.Point {
	return s.pk
}

// Commitment returns the hash commitment to the signer's nonce point,
// for the session's first round.
func (s *Signer) Commitment() [CommitmentLen]byte {
	return s.commitment
}

// Reveal returns the nonce point behind the commitment, for the
// session's second round.
func (s *Signer) Reveal() group.Point {
	return s.grp.NewPoint().Set(s.noncePoint)
}

// Partial computes the signer's partial signature over the session's
// aggregate nonce:
//
//	s_i = r_i + c*a_i*x_i
//
// The nonce is consumed; a second call fails with ErrNonceConsumed.
func (s *Signer) Partial(aggregateNonce group.Point) (group.Scalar, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.nonce == nil {
		return nil, ErrNonceConsumed
	}

	eff, err := threshold.EffectiveKey(s.grp, s.signers)
	if err != nil {
		return nil, err
	}
	c, err := threshold.Challenge(s.grp, aggregateNonce, eff, s.spec.Address(), s.message)
	if err != nil {
		return nil, err
	}
	a, err := threshold.Coefficient(s.grp, s.signers, s.pk)
	if err != nil {
		return nil, err
	}
	weight := s.grp.NewScalar().Mul(c, a)

	var partial group.Scalar
	err = s.nonce.WithScalar(s.grp, func(r group.Scalar) error {
		return s.key.WithScalar(s.grp, func(x group.Scalar) error {
			term := s.grp.NewScalar().Mul(weight, x)
			partial = s.grp.NewScalar().Add(r, term)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.nonce.Release()
	s.nonce = nil
	return partial, nil
}

// Abort erases the nonce without signing. Idempotent.
func (s *Signer) Abort() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.nonce != nil {
		s.nonce.Release()
		s.nonce = nil
	}
}

// Consumed reports whether the nonce has been spent or erased.
func (s *Signer) Consumed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nonce == nil
}
