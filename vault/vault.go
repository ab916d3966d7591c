package vault

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/chacha20poly1305"

	"github.com/carsonaco/chain/group"
)

var (
	// ErrInvalidDerivationPath indicates a malformed derivation path or
	// an out-of-range child index.
	ErrInvalidDerivationPath = errors.New("vault: invalid derivation path")

	// ErrVaultSealBroken indicates the sealed root blob failed to
	// authenticate: wrong passphrase or tampered storage.
	ErrVaultSealBroken = errors.New("vault: seal broken (wrong passphrase or corrupted blob)")
)

// storage key of the sealed root secret.
var rootBlobKey = []byte("vault/root")

const (
	sealVersion byte = 1
	saltLen          = 16

	// argon2id parameters for stretching the passphrase.
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
)

// maxChildIndex bounds derivation path indices to [0, 2^31).
const maxChildIndex = 1 << 31

// Vault manages the wallet's key hierarchy. The root secret lives in a
// [Guard]; derived signing keys are issued as guards on demand and the
// decrypted root never crosses the vault boundary unguarded.
//
// The vault holds no global state: callers pass the handle explicitly,
// so concurrent signing flows over different vaults cannot interfere.
type Vault struct {
	grp   group.Group
	store Store
	root  *Guard
}

// Open loads the vault root from store, creating and sealing a fresh
// root on first open. The passphrase protects the root at rest via
// argon2id and XChaCha20-Poly1305; only the sealed blob is ever given
// to the store.
func Open(grp group.Group, store Store, passphrase []byte, rng io.Reader) (*Vault, error) {
	blob, ok, err := store.Get(rootBlobKey)
	if err != nil {
		return nil, fmt.Errorf("vault: loading root blob: %w", err)
	}

	var root *Guard
	if ok {
		secret, err := unseal(blob, passphrase)
		if err != nil {
			return nil, err
		}
		root, err = NewGuard(secret)
		zeroize(secret)
		if err != nil {
			return nil, err
		}
	} else {
		secret := make([]byte, SecretLen)
		if _, err := io.ReadFull(rng, secret); err != nil {
			return nil, fmt.Errorf("vault: generating root secret: %w", err)
		}
		sealed, err := seal(secret, passphrase, rng)
		if err != nil {
			zeroize(secret)
			return nil, err
		}
		if err := store.Put(rootBlobKey, sealed); err != nil {
			zeroize(secret)
			return nil, fmt.Errorf("vault: persisting root blob: %w", err)
		}
		root, err = NewGuard(secret)
		zeroize(secret)
		if err != nil {
			return nil, err
		}
	}

	return &Vault{grp: grp, store: store, root: root}, nil
}

// Derive returns the key pair for a hierarchical derivation path. The
// same path always yields the same pair. The private half is returned
// inside a fresh guard owned by the caller.
//
// Path grammar: "m" optionally followed by "/<index>" segments, each
// index a decimal integer in [0, 2^31).
func (v *Vault) Derive(path string) (group.Point, *Guard, error) {
	indices, err := parsePath(path)
	if err != nil {
		return nil, nil, err
	}

	node, err := v.root.bytes()
	if err != nil {
		return nil, nil, err
	}
	defer zeroize(node)

	for _, idx := range indices {
		child, err := deriveChild(node, idx)
		if err != nil {
			return nil, nil, err
		}
		zeroize(node)
		node = child
	}

	// Reduce the node secret into the group's scalar field so the
	// guarded encoding is canonical for this group.
	s, err := v.grp.NewScalar().SetBytes(node)
	if err != nil {
		return nil, nil, err
	}
	defer s.Zeroize()
	if s.IsZero() {
		return nil, nil, ErrInvalidSecretMaterial
	}

	guard, err := NewGuardFromScalar(s)
	if err != nil {
		return nil, nil, err
	}
	pub := v.grp.NewPoint().ScalarMult(s, v.grp.Generator())
	return pub, guard, nil
}

// PublicKey returns only the public half for a derivation path. No
// guard is handed out and the transient secret is erased before
// returning.
func (v *Vault) PublicKey(path string) (group.Point, error) {
	pub, guard, err := v.Derive(path)
	if err != nil {
		return nil, err
	}
	guard.Release()
	return pub, nil
}

// Close erases the root secret. The vault is unusable afterwards; the
// sealed blob in the store is untouched.
func (v *Vault) Close() {
	v.root.Release()
}

// deriveChild computes one derivation step with keyed BLAKE2b.
func deriveChild(node []byte, idx uint32) ([]byte, error) {
	h, err := blake2b.New256(node)
	if err != nil {
		return nil, err
	}
	h.Write([]byte("chain/vault/derive"))
	var le [4]byte
	binary.LittleEndian.PutUint32(le[:], idx)
	h.Write(le[:])
	return h.Sum(nil), nil
}

func parsePath(path string) ([]uint32, error) {
	if path == "m" {
		return nil, nil
	}
	if !strings.HasPrefix(path, "m/") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDerivationPath, path)
	}
	segments := strings.Split(path[2:], "/")
	indices := make([]uint32, 0, len(segments))
	for _, seg := range segments {
		if seg == "" || (len(seg) > 1 && seg[0] == '0') {
			return nil, fmt.Errorf("%w: %q", ErrInvalidDerivationPath, path)
		}
		n, err := strconv.ParseUint(seg, 10, 32)
		if err != nil || n >= maxChildIndex {
			return nil, fmt.Errorf("%w: %q", ErrInvalidDerivationPath, path)
		}
		indices = append(indices, uint32(n))
	}
	return indices, nil
}

// seal encrypts the root secret under the passphrase.
// Layout: version | salt[16] | nonce[24] | box.
func seal(secret, passphrase []byte, rng io.Reader) ([]byte, error) {
	salt := make([]byte, saltLen)
	if _, err := io.ReadFull(rng, salt); err != nil {
		return nil, err
	}
	key := argon2.IDKey(passphrase, salt, argonTime, argonMemory, argonThreads, chacha20poly1305.KeySize)
	defer zeroize(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := io.ReadFull(rng, nonce); err != nil {
		return nil, err
	}

	out := make([]byte, 0, 1+saltLen+len(nonce)+len(secret)+aead.Overhead())
	out = append(out, sealVersion)
	out = append(out, salt...)
	out = append(out, nonce...)
	return aead.Seal(out, nonce, secret, nil), nil
}

// unseal decrypts a sealed root blob. The returned slice is owned by
// the caller, who must zeroize it.
func unseal(blob, passphrase []byte) ([]byte, error) {
	minLen := 1 + saltLen + chacha20poly1305.NonceSizeX
	if len(blob) < minLen || blob[0] != sealVersion {
		return nil, ErrVaultSealBroken
	}
	salt := blob[1 : 1+saltLen]
	nonce := blob[1+saltLen : minLen]
	box := blob[minLen:]

	key := argon2.IDKey(passphrase, salt, argonTime, argonMemory, argonThreads, chacha20poly1305.KeySize)
	defer zeroize(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	secret, err := aead.Open(nil, nonce, box, nil)
	if err != nil {
		return nil, ErrVaultSealBroken
	}
	return secret, nil
}
