package hubspot

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hublink/pkg/config"
	"hublink/pkg/kvstore"
)

// tokenStub imitates the provider token endpoint for the code exchange.
func tokenStub(t *testing.T, wantCode string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
		assert.Equal(t, "client-id", r.PostForm.Get("client_id"))
		assert.Equal(t, "client-secret", r.PostForm.Get("client_secret"))
		assert.Equal(t, wantCode, r.PostForm.Get("code"))
		assert.NotEmpty(t, r.PostForm.Get("redirect_uri"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"granted-token","token_type":"Bearer","expires_in":1800}`))
	}))
}

func TestAuthorizeBuildsRedirectURL(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t, nil)

	raw, err := svc.Authorize(ctx, "user-1", "org-1")
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "app.hubspot.com", u.Host)
	q := u.Query()
	assert.Equal(t, "client-id", q.Get("client_id"))
	assert.Equal(t, "http://localhost:8080/integrations/hubspot/oauth2callback", q.Get("redirect_uri"))
	assert.Equal(t, "oauth crm.objects.contacts.read", q.Get("scope"))
	require.NotEmpty(t, q.Get("state"))

	// The embedded state matches what was persisted for the identity.
	_, err = store.Get(ctx, stateKey("org-1", "user-1"))
	require.NoError(t, err)
	rec, err := svc.verifyState(ctx, q.Get("state"))
	require.NoError(t, err)
	assert.Equal(t, "user-1", rec.UserID)
	assert.Equal(t, "org-1", rec.OrgID)
}

func TestHandleCallbackStoresCredentialsAndConsumesState(t *testing.T) {
	ctx := context.Background()
	srv := tokenStub(t, "auth-code-1")
	defer srv.Close()

	svc, store := newTestService(t, func(c *config.Config) { c.TokenURL = srv.URL })

	raw, err := svc.Authorize(ctx, "user-1", "org-1")
	require.NoError(t, err)
	state := mustQueryParam(t, raw, "state")

	err = svc.HandleCallback(ctx, url.Values{"code": {"auth-code-1"}, "state": {state}})
	require.NoError(t, err)

	// State record is consumed.
	_, err = store.Get(ctx, stateKey("org-1", "user-1"))
	require.ErrorIs(t, err, kvstore.ErrNotFound)

	// Credential bundle is retrievable exactly once.
	creds, err := svc.Credentials(ctx, "user-1", "org-1")
	require.NoError(t, err)
	var tok struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(creds, &tok))
	assert.Equal(t, "granted-token", tok.AccessToken)

	_, err = svc.Credentials(ctx, "user-1", "org-1")
	require.ErrorIs(t, err, ErrCredentialsNotFound)
}

func TestHandleCallbackProviderError(t *testing.T) {
	svc, _ := newTestService(t, nil)

	err := svc.HandleCallback(context.Background(), url.Values{
		"error":             {"access_denied"},
		"error_description": {"user cancelled"},
	})
	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "access_denied: user cancelled", pe.Detail)
}

func TestHandleCallbackStateMismatch(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, nil)

	err := svc.HandleCallback(ctx, url.Values{"code": {"c"}, "state": {"bogus"}})
	require.ErrorIs(t, err, ErrStateMismatch)
}

func TestHandleCallbackExchangeFailure(t *testing.T) {
	ctx := context.Background()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
	}))
	defer srv.Close()

	svc, _ := newTestService(t, func(c *config.Config) { c.TokenURL = srv.URL })

	raw, err := svc.Authorize(ctx, "user-1", "org-1")
	require.NoError(t, err)
	state := mustQueryParam(t, raw, "state")

	err = svc.HandleCallback(ctx, url.Values{"code": {"c"}, "state": {state}})
	var ue *UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, http.StatusBadRequest, ue.Status)

	// No credentials were persisted for the failed exchange.
	_, err = svc.Credentials(ctx, "user-1", "org-1")
	require.ErrorIs(t, err, ErrCredentialsNotFound)
}

func TestCredentialsNotFoundWithoutFlow(t *testing.T) {
	svc, _ := newTestService(t, nil)
	_, err := svc.Credentials(context.Background(), "user-1", "org-1")
	require.ErrorIs(t, err, ErrCredentialsNotFound)
}

func TestCredentialsEmptyBundleRejected(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t, nil)

	for _, empty := range []string{"", "null", "{}", "  "} {
		require.NoError(t, store.Set(ctx, credentialsKey("org-1", "user-1"), empty, 0))
		_, err := svc.Credentials(ctx, "user-1", "org-1")
		require.ErrorIs(t, err, ErrCredentialsNotFound, "stored %q", empty)
	}
}

func mustQueryParam(t *testing.T, rawURL, key string) string {
	t.Helper()
	u, err := url.Parse(rawURL)
	require.NoError(t, err)
	v := u.Query().Get(key)
	require.NotEmpty(t, v)
	return v
}
