package vault

import (
	"errors"
	"runtime"
	"sync"

	"github.com/carsonaco/chain/group"
)

// SecretLen is the required length of guarded secret material.
const SecretLen = 32

var (
	// ErrInvalidSecretMaterial indicates the secret bytes are malformed:
	// wrong length, or all zero where a secret is required.
	ErrInvalidSecretMaterial = errors.New("vault: invalid secret material")

	// ErrGuardReleased indicates an operation on a guard whose secret
	// has already been erased.
	ErrGuardReleased = errors.New("vault: guard already released")
)

// Guard is a capability-restricted holder for exactly one secret scalar
// encoding (private key, signing nonce, or blinding factor).
//
// The wrapped value is only ever exposed to short-lived operations via
// [Guard.WithScalar]; callers never receive a plain copy they can
// retain. On Release the backing memory is overwritten with zeros
// before being dropped. A finalizer releases guards that become
// unreachable without an explicit Release, but that is best effort:
// explicit Release is the contract.
//
// Guards are safe for concurrent use.
type Guard struct {
	mu       sync.Mutex
	buf      []byte
	released bool
}

// NewGuard copies the provided 32-byte secret into a fresh guard. The
// caller's slice is never aliased and should be zeroized by the caller
// once the guard exists. Returns ErrInvalidSecretMaterial if the input
// is not exactly 32 bytes or is all zero.
func NewGuard(data []byte) (*Guard, error) {
	if len(data) != SecretLen || allZero(data) {
		return nil, ErrInvalidSecretMaterial
	}
	buf := make([]byte, SecretLen)
	copy(buf, data)
	g := &Guard{buf: buf}
	runtime.SetFinalizer(g, (*Guard).Release)
	return g, nil
}

// NewGuardFromScalar captures the canonical encoding of s into a fresh
// guard and zeroizes the intermediate copy. The scalar itself is left
// untouched; callers owning a secret scalar should Zeroize it
// separately once guarded.
func NewGuardFromScalar(s group.Scalar) (*Guard, error) {
	enc := s.Bytes()
	defer zeroize(enc)
	return NewGuard(enc)
}

// WithScalar materializes the guarded secret as a scalar of grp for
// the duration of fn, then zeroizes the materialized copy. fn must not
// retain the scalar beyond its return; the value is zero afterwards
// regardless.
func (g *Guard) WithScalar(grp group.Group, fn func(group.Scalar) error) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.released {
		return ErrGuardReleased
	}
	s, err := grp.NewScalar().SetBytes(g.buf)
	if err != nil {
		return err
	}
	defer s.Zeroize()
	defer runtime.KeepAlive(g)
	return fn(s)
}

// PublicPoint computes the public point secret*G without handing the
// secret to the caller.
func (g *Guard) PublicPoint(grp group.Group) (group.Point, error) {
	var pub group.Point
	err := g.WithScalar(grp, func(s group.Scalar) error {
		pub = grp.NewPoint().ScalarMult(s, grp.Generator())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pub, nil
}

// Clone returns an independent guard over the same secret with its own
// erasure lifetime. The clone never aliases the original's memory.
func (g *Guard) Clone() (*Guard, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.released {
		return nil, ErrGuardReleased
	}
	return NewGuard(g.buf)
}

// Release erases the guarded secret by overwriting the backing memory
// with zeros. Release is idempotent; all later operations on the guard
// fail with ErrGuardReleased.
func (g *Guard) Release() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.released {
		return
	}
	zeroize(g.buf)
	g.buf = nil
	g.released = true
	runtime.SetFinalizer(g, nil)
}

// Released reports whether the guard's secret has been erased.
func (g *Guard) Released() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.released
}

// bytes returns a copy of the guarded secret for use inside the
// package. Callers must zeroize the copy.
func (g *Guard) bytes() ([]byte, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.released {
		return nil, ErrGuardReleased
	}
	out := make([]byte, len(g.buf))
	copy(out, g.buf)
	return out, nil
}

// zeroize overwrites buf with zeros. runtime.KeepAlive prevents the
// compiler from eliminating the dead stores.
func zeroize(buf []byte) {
	for i := range buf {
		buf[i] = 0
	}
	runtime.KeepAlive(buf)
}

func allZero(buf []byte) bool {
	var acc byte
	for _, b := range buf {
		acc |= b
	}
	return acc == 0
}
