// internal/hubspot/oauth.go
package hubspot

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"

	"hublink/pkg/kvstore"
)

// callbackHTML closes the popup that hosted the redirect, signalling the
// initiating page that the flow finished.
const callbackHTML = `<html><script>window.close();</script></html>`

// Authorize issues a state token for the identity and returns the provider
// authorization URL carrying client_id, redirect_uri, scope and state.
func (s *Service) Authorize(ctx context.Context, userID, orgID string) (string, error) {
	state, err := s.issueState(ctx, userID, orgID)
	if err != nil {
		return "", err
	}
	return s.oauth.AuthCodeURL(state), nil
}

// HandleCallback completes the authorization-code flow: it rejects
// provider-signalled errors, verifies the returned state, then exchanges
// the code and deletes the consumed state record concurrently before
// persisting the credential bundle for a one-shot pickup.
func (s *Service) HandleCallback(ctx context.Context, q url.Values) error {
	if msg := q.Get("error"); msg != "" {
		if desc := q.Get("error_description"); desc != "" {
			msg = msg + ": " + desc
		}
		return &ProviderError{Detail: msg}
	}
	code := q.Get("code")
	rec, err := s.verifyState(ctx, q.Get("state"))
	if err != nil {
		return err
	}

	var tok *oauth2.Token
	var g errgroup.Group
	g.Go(func() error {
		t, err := s.oauth.Exchange(ctx, code)
		if err != nil {
			var re *oauth2.RetrieveError
			if errors.As(err, &re) && re.Response != nil {
				return &UpstreamError{Op: "token exchange", Status: re.Response.StatusCode}
			}
			return err
		}
		tok = t
		return nil
	})
	g.Go(func() error {
		return s.store.Delete(ctx, stateKey(rec.OrgID, rec.UserID))
	})
	if err := g.Wait(); err != nil {
		return err
	}

	bundle, err := json.Marshal(tok)
	if err != nil {
		return err
	}
	return s.store.Set(ctx, credentialsKey(rec.OrgID, rec.UserID), string(bundle), s.cfg.StateTTL)
}

// Credentials returns the stored bundle for the identity and erases it.
// The bundle is a one-time handoff, not a cache: a second call fails with
// ErrCredentialsNotFound.
func (s *Service) Credentials(ctx context.Context, userID, orgID string) (json.RawMessage, error) {
	key := credentialsKey(orgID, userID)
	v, err := s.store.Get(ctx, key)
	if errors.Is(err, kvstore.ErrNotFound) {
		return nil, ErrCredentialsNotFound
	}
	if err != nil {
		return nil, err
	}
	trimmed := strings.TrimSpace(v)
	if trimmed == "" || trimmed == "null" || trimmed == "{}" {
		return nil, ErrCredentialsNotFound
	}
	if err := s.store.Delete(ctx, key); err != nil {
		return nil, err
	}
	return json.RawMessage(trimmed), nil
}
