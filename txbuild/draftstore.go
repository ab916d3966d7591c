package txbuild

import (
	"encoding/hex"

	"github.com/carsonaco/chain/group"
	"github.com/carsonaco/chain/vault"
)

// draftKeyspace prefixes every persisted draft key.
const draftKeyspace = "txbuild/draft/"

// DraftStore persists in-progress drafts keyed by their signing
// digest, so a wallet can resume witness collection across restarts.
// Secrets never reach the store: drafts are persisted in their wire
// encoding, which excludes the excess scalar.
type DraftStore struct {
	grp   group.Group
	store vault.Store
}

// NewDraftStore returns a draft store over the given backing store.
func NewDraftStore(grp group.Group, store vault.Store) *DraftStore {
	return &DraftStore{grp: grp, store: store}
}

func draftKey(digest Digest) []byte {
	return []byte(draftKeyspace + hex.EncodeToString(digest[:]))
}

// Put persists the draft under its current digest.
func (s *DraftStore) Put(d *Draft) error {
	return s.store.Put(draftKey(d.Digest()), d.Encode())
}

// Get loads the draft with the given digest. The second return is
// false when no such draft is stored.
func (s *DraftStore) Get(digest Digest) (*Draft, bool, error) {
	raw, ok, err := s.store.Get(draftKey(digest))
	if err != nil || !ok {
		return nil, ok, err
	}
	d, err := DecodeDraft(s.grp, raw)
	if err != nil {
		return nil, false, err
	}
	return d, true, nil
}
