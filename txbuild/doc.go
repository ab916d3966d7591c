// Package txbuild assembles confidential transactions: input
// selection, output commitment and range proving, fee and change
// handling, and witness collection on the resulting draft.
//
// # Flow
//
//  1. [SelectInputs] picks a covering subset of the wallet's unspent
//     outputs (largest-first, deterministic).
//  2. [Builder.Build] turns inputs and recipients into a [Draft]:
//     every output gets a fresh blinding, a Pedersen commitment and a
//     range proof; change is appended automatically; the balance
//     excess is computed and its secret form guarded.
//  3. Each input's co-signers run a signing session over the draft's
//     [Draft.Digest] and the resulting aggregate signature is attached
//     with [Draft.AttachWitness], which verifies before accepting.
//  4. Once [Draft.Complete] reports true the draft's encoding is ready
//     for broadcast.
//
// Drafts persist across restarts through [DraftStore]; the wire
// encoding never contains secrets.
package txbuild
