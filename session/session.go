package session

import (
	"bytes"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/blake2b"

	"github.com/carsonaco/chain/group"
	"github.com/carsonaco/chain/threshold"
)

var (
	// ErrWrongRound indicates a submission that does not belong to the
	// session's current round.
	ErrWrongRound = errors.New("session: submission does not match current round")

	// ErrUnknownParticipant indicates a submission from a key outside
	// the session's signer subset.
	ErrUnknownParticipant = errors.New("session: unknown participant")

	// ErrDuplicateNonceCommitment indicates a second commitment from a
	// participant that already committed.
	ErrDuplicateNonceCommitment = errors.New("session: duplicate nonce commitment")

	// ErrDuplicateSubmission indicates a second reveal or partial from a
	// participant whose contribution was already accepted.
	ErrDuplicateSubmission = errors.New("session: contribution already accepted")

	// ErrNonceCommitmentMismatch indicates a revealed nonce point that
	// does not hash to the participant's earlier commitment. The session
	// aborts: a participant that equivocates on its nonce is adversarial.
	ErrNonceCommitmentMismatch = errors.New("session: revealed nonce does not match commitment")

	// ErrInvalidPartialSignature indicates a partial signature that does
	// not verify against the participant's nonce and key. The
	// contribution is rejected; the participant may resubmit.
	ErrInvalidPartialSignature = errors.New("session: invalid partial signature")

	// ErrAggregationInvariantViolated indicates that individually valid
	// partials summed to an aggregate that fails verification. This
	// cannot happen with a correct implementation on both sides; the
	// session aborts.
	ErrAggregationInvariantViolated = errors.New("session: aggregate of valid partials failed verification")

	// ErrSessionAborted indicates an operation on an aborted session.
	ErrSessionAborted = errors.New("session: session aborted")

	// ErrSessionComplete indicates a submission to a completed session.
	ErrSessionComplete = errors.New("session: session already complete")

	// ErrNotComplete indicates a signature request before completion.
	ErrNotComplete = errors.New("session: session not complete")

	// ErrInvalidSignerSubset indicates a signer subset that is not a
	// canonical Required-sized subset of the spending condition.
	ErrInvalidSignerSubset = errors.New("session: invalid signer subset")
)

// nonce commitment domain tag.
var commitContext = []byte("chain/session/noncecommit/v1")

// CommitmentLen is the length of a nonce commitment.
const CommitmentLen = 32

// Round identifies a session phase. Rounds only advance; Aborted is
// reachable from any non-terminal round and is terminal.
type Round int

const (
	// CollectingCommitments is the first round: every signer submits a
	// hash commitment to its nonce point.
	CollectingCommitments Round = iota
	// CollectingReveals is the second round: signers reveal the nonce
	// points behind their commitments.
	CollectingReveals
	// CollectingPartials is the third round: signers submit partial
	// signatures over the shared challenge.
	CollectingPartials
	// Complete means the aggregate signature is available.
	Complete
	// Aborted means the session failed and accepts nothing further.
	Aborted
)

func (r Round) String() string {
	switch r {
	case CollectingCommitments:
		return "collecting-commitments"
	case CollectingReveals:
		return "collecting-reveals"
	case CollectingPartials:
		return "collecting-partials"
	case Complete:
		return "complete"
	case Aborted:
		return "aborted"
	}
	return "unknown"
}

// nonceCommitment binds a nonce point to its owner.
func nonceCommitment(pk, r group.Point) [CommitmentLen]byte {
	h, _ := blake2b.New256(nil)
	h.Write(commitContext)
	h.Write(pk.Bytes())
	h.Write(r.Bytes())
	var out [CommitmentLen]byte
	copy(out[:], h.Sum(nil))
	return out
}

// participant is the coordinator's view of one signer's progress.
type participant struct {
	pk          group.Point
	commitment  [CommitmentLen]byte
	committed   bool
	noncePoint  group.Point
	partial     group.Scalar
	coefficient group.Scalar
}

// Session coordinates one aggregate signature over a fixed message by
// a fixed signer subset. It is one-shot: a completed or aborted
// session cannot be reused, and a fresh message needs a fresh session.
//
// The coordinator holds no secrets. Everything it receives is public
// protocol data, so a session can run on an untrusted machine; the
// worst a malicious coordinator can cause is an abort.
//
// Sessions are safe for concurrent use.
type Session struct {
	mu sync.Mutex

	id      uuid.UUID
	grp     group.Group
	spec    *threshold.Spec
	signers []group.Point
	message []byte
	log     zerolog.Logger

	round        Round
	participants []*participant
	pending      int

	aggregateNonce group.Point
	challenge      group.Scalar
	signature      *threshold.Signature
}

// New starts a session for the given spending condition, signer subset
// and message. The subset must contain exactly spec.Required() distinct
// members of the spec; it is canonicalized internally.
func New(grp group.Group, spec *threshold.Spec, signers []group.Point, message []byte, log zerolog.Logger) (*Session, error) {
	if len(signers) != spec.Required() {
		return nil, ErrInvalidSignerSubset
	}
	canonical := make([]group.Point, len(signers))
	copy(canonical, signers)
	threshold.SortKeys(canonical)
	for i, pk := range canonical {
		if !spec.Contains(pk) {
			return nil, ErrInvalidSignerSubset
		}
		if i > 0 && canonical[i-1].Equal(pk) {
			return nil, ErrInvalidSignerSubset
		}
	}

	s := &Session{
		id:      uuid.New(),
		grp:     grp,
		spec:    spec,
		signers: canonical,
		message: append([]byte(nil), message...),
		log:     log,
		round:   CollectingCommitments,
		pending: len(canonical),
	}
	s.participants = make([]*participant, len(canonical))
	for i, pk := range canonical {
		s.participants[i] = &participant{pk: pk}
	}

	s.log.Debug().
		Str("session", s.id.String()).
		Int("signers", len(canonical)).
		Msg("signing session started")
	return s, nil
}

// ID returns the session's unique identifier.
func (s *Session) ID() uuid.UUID {
	return s.id
}

// Round returns the current round.
func (s *Session) Round() Round {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.round
}

// lookup finds pk's participant slot. Callers hold the lock.
func (s *Session) lookup(pk group.Point) *participant {
	for _, p := range s.participants {
		if p.pk.Equal(pk) {
			return p
		}
	}
	return nil
}

// terminalErr maps terminal rounds to their sticky errors. Callers
// hold the lock.
func (s *Session) terminalErr() error {
	switch s.round {
	case Aborted:
		return ErrSessionAborted
	case Complete:
		return ErrSessionComplete
	}
	return nil
}

// SubmitCommitment records pk's nonce commitment. When the last
// commitment arrives the session advances to the reveal round.
func (s *Session) SubmitCommitment(pk group.Point, commitment [CommitmentLen]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.terminalErr(); err != nil {
		return err
	}
	if s.round != CollectingCommitments {
		return ErrWrongRound
	}
	p := s.lookup(pk)
	if p == nil {
		return ErrUnknownParticipant
	}
	if p.committed {
		return ErrDuplicateNonceCommitment
	}
	p.commitment = commitment
	p.committed = true
	s.pending--
	if s.pending == 0 {
		s.round = CollectingReveals
		s.pending = len(s.participants)
	}
	return nil
}

// SubmitReveal records pk's nonce point and checks it against the
// earlier commitment. A mismatch aborts the whole session. When the
// last reveal arrives the aggregate nonce and shared challenge are
// fixed and the session advances to the partial round.
func (s *Session) SubmitReveal(pk group.Point, noncePoint group.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.terminalErr(); err != nil {
		return err
	}
	if s.round != CollectingReveals {
		return ErrWrongRound
	}
	p := s.lookup(pk)
	if p == nil {
		return ErrUnknownParticipant
	}
	if p.noncePoint != nil {
		return ErrDuplicateSubmission
	}
	want := p.commitment
	got := nonceCommitment(pk, noncePoint)
	if !bytes.Equal(want[:], got[:]) {
		s.abortLocked("nonce commitment mismatch")
		return ErrNonceCommitmentMismatch
	}
	p.noncePoint = s.grp.NewPoint().Set(noncePoint)
	s.pending--
	if s.pending == 0 {
		if err := s.fixChallengeLocked(); err != nil {
			s.abortLocked("challenge derivation failed")
			return err
		}
		s.round = CollectingPartials
		s.pending = len(s.participants)
	}
	return nil
}

// fixChallengeLocked aggregates the revealed nonces and derives the
// shared challenge and per-signer coefficients.
func (s *Session) fixChallengeLocked() error {
	agg := s.grp.NewPoint()
	for _, p := range s.participants {
		agg = s.grp.NewPoint().Add(agg, p.noncePoint)
	}
	s.aggregateNonce = agg

	eff, err := threshold.EffectiveKey(s.grp, s.signers)
	if err != nil {
		return err
	}
	c, err := threshold.Challenge(s.grp, agg, eff, s.spec.Address(), s.message)
	if err != nil {
		return err
	}
	s.challenge = c

	for _, p := range s.participants {
		a, err := threshold.Coefficient(s.grp, s.signers, p.pk)
		if err != nil {
			return err
		}
		p.coefficient = a
	}
	return nil
}

// AggregateNonce returns the combined nonce point, available once the
// reveal round completed.
func (s *Session) AggregateNonce() (group.Point, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.aggregateNonce == nil {
		return nil, ErrWrongRound
	}
	return s.grp.NewPoint().Set(s.aggregateNonce), nil
}

// SubmitPartial records pk's partial signature after verifying it
// against the participant's revealed nonce and weighted key:
//
//	s_i*G == R_i + c*a_i*X_i
//
// An invalid partial rejects only that contribution; the participant
// may resubmit. When the last valid partial arrives the aggregate is
// assembled, verified, and the session completes.
func (s *Session) SubmitPartial(pk group.Point, partial group.Scalar) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.terminalErr(); err != nil {
		return err
	}
	if s.round != CollectingPartials {
		return ErrWrongRound
	}
	p := s.lookup(pk)
	if p == nil {
		return ErrUnknownParticipant
	}
	if p.partial != nil {
		return ErrDuplicateSubmission
	}

	lhs := s.grp.NewPoint().ScalarMult(partial, s.grp.Generator())
	weighted := s.grp.NewScalar().Mul(s.challenge, p.coefficient)
	rhs := s.grp.NewPoint().ScalarMult(weighted, p.pk)
	rhs = s.grp.NewPoint().Add(p.noncePoint, rhs)
	if !lhs.Equal(rhs) {
		s.log.Warn().
			Str("session", s.id.String()).
			Hex("participant", pk.Bytes()).
			Msg("rejected invalid partial signature")
		return ErrInvalidPartialSignature
	}

	p.partial = s.grp.NewScalar().Set(partial)
	s.pending--
	if s.pending == 0 {
		return s.finishLocked()
	}
	return nil
}

// finishLocked sums the partials into the aggregate signature and
// verifies it end to end before declaring the session complete.
func (s *Session) finishLocked() error {
	sum := s.grp.NewScalar()
	for _, p := range s.participants {
		sum = s.grp.NewScalar().Add(sum, p.partial)
	}
	sig := &threshold.Signature{
		Signers: append([]group.Point(nil), s.signers...),
		R:       s.aggregateNonce,
		S:       sum,
	}
	if !threshold.VerifyAggregate(s.grp, s.spec, s.message, sig) {
		s.log.Error().
			Str("session", s.id.String()).
			Msg("aggregate of individually valid partials failed verification")
		s.abortLocked("aggregation invariant violated")
		return ErrAggregationInvariantViolated
	}
	s.signature = sig
	s.round = Complete
	s.log.Debug().
		Str("session", s.id.String()).
		Msg("signing session complete")
	return nil
}

// Signature returns the completed aggregate signature.
func (s *Session) Signature() (*threshold.Signature, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.round == Aborted {
		return nil, ErrSessionAborted
	}
	if s.round != Complete {
		return nil, ErrNotComplete
	}
	return s.signature, nil
}

// Abort moves the session to the terminal Aborted round. Idempotent;
// a completed session stays complete.
func (s *Session) Abort() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.round == Complete || s.round == Aborted {
		return
	}
	s.abortLocked("aborted by caller")
}

func (s *Session) abortLocked(reason string) {
	s.round = Aborted
	s.signature = nil
	for _, p := range s.participants {
		p.noncePoint = nil
		p.partial = nil
	}
	s.log.Warn().
		Str("session", s.id.String()).
		Str("reason", reason).
		Msg("signing session aborted")
}
