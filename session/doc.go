// Package session runs the interactive protocol that produces the
// aggregate signatures verified by the threshold package.
//
// # Protocol
//
// One [Session] coordinates one signature over one message by a fixed
// signer subset, in three rounds:
//
//  1. Commit: every signer submits a hash commitment to its nonce
//     point. Committing before revealing prevents any signer from
//     choosing its nonce as a function of the others'.
//  2. Reveal: signers open their commitments. A reveal that does not
//     match its commitment aborts the whole session. When all reveals
//     are in, the aggregate nonce and the shared challenge are fixed.
//  3. Partial: signers submit partial signatures, each verified
//     individually before acceptance. An invalid partial is rejected
//     without killing the session; the signer may resubmit. When all
//     partials are in, the aggregate is assembled and verified end to
//     end.
//
// The coordinator holds no secret material and can run anywhere. Each
// participant's secrets live in a [Signer], which guards its private
// key and nonce and consumes the nonce on first use.
//
// Sessions are strictly one-shot: Complete and Aborted are terminal,
// and a new message requires a new session and fresh signer nonces.
package session
