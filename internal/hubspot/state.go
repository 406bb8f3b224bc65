// internal/hubspot/state.go
package hubspot

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
)

// stateRecord binds a random token to the identity that started the flow.
// The base64(JSON) form of the whole record travels as the OAuth "state"
// query parameter; the same record sits in the transient store and must
// still be there, with an identical token, when the callback arrives.
type stateRecord struct {
	State  string `json:"state"`
	UserID string `json:"user_id"`
	OrgID  string `json:"org_id"`
}

// issueState generates a fresh state record, persists it for the flow's
// lifetime and returns the opaque encoding for the redirect URL.
func (s *Service) issueState(ctx context.Context, userID, orgID string) (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	rec := stateRecord{
		State:  base64.RawURLEncoding.EncodeToString(raw),
		UserID: userID,
		OrgID:  orgID,
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return "", err
	}
	if err := s.store.Set(ctx, stateKey(orgID, userID), string(b), s.cfg.StateTTL); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// verifyState decodes the returned state and checks it against the stored
// record for that identity. Any decode failure, missing record or token
// difference collapses to ErrStateMismatch; the caller learns nothing
// beyond "does not match". Deleting the consumed record is the callback
// handler's job.
func (s *Service) verifyState(ctx context.Context, encoded string) (stateRecord, error) {
	b, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return stateRecord{}, ErrStateMismatch
	}
	var rec stateRecord
	if err := json.Unmarshal(b, &rec); err != nil || rec.State == "" {
		return stateRecord{}, ErrStateMismatch
	}
	stored, err := s.store.Get(ctx, stateKey(rec.OrgID, rec.UserID))
	if err != nil {
		return stateRecord{}, ErrStateMismatch
	}
	var prev stateRecord
	if err := json.Unmarshal([]byte(stored), &prev); err != nil {
		return stateRecord{}, ErrStateMismatch
	}
	if prev.State != rec.State {
		return stateRecord{}, ErrStateMismatch
	}
	return rec, nil
}
