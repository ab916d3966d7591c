// Package vault manages secret key material: the [Guard] erasure
// wrapper for individual secrets, the [Vault] key hierarchy, and the
// [Store] contract with the external key-value collaborator.
//
// # Guards
//
// Every secret scalar in this module (private keys, signing nonces,
// blinding excesses) lives inside a [Guard]. A guard exposes its value
// only to short-lived operations through [Guard.WithScalar] and erases
// the backing memory on [Guard.Release]. Cloning produces an
// independent copy with its own lifetime; releases never alias.
//
// # Key hierarchy
//
// [Vault] derives key pairs deterministically from a single root
// secret with keyed BLAKE2b, addressed by paths like "m/0/7". The root
// is persisted only in sealed form: argon2id stretches the passphrase
// and XChaCha20-Poly1305 authenticates the blob, so the Store
// collaborator only ever sees ciphertext.
//
// # Stores
//
// [MemoryStore] serves tests and throwaway wallets; [LevelStore]
// persists through goleveldb. Both satisfy the durable-after-Put
// contract the vault relies on.
package vault
