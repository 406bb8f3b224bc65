package hubspot

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"hublink/pkg/config"
	"hublink/pkg/kvstore"
)

func testConfig() config.Config {
	return config.Config{
		Env:          "test",
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURI:  "http://localhost:8080/integrations/hubspot/oauth2callback",
		Scopes:       []string{"oauth", "crm.objects.contacts.read"},
		AuthURL:      "https://app.hubspot.com/oauth/authorize",
		TokenURL:     "https://api.hubapi.com/oauth/v1/token",
		APIBaseURL:   "https://api.hubapi.com",
		StateTTL:     600 * time.Second,
	}
}

func newTestService(t *testing.T, mutate func(*config.Config)) (*Service, kvstore.Store) {
	t.Helper()
	cfg := testConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	store := kvstore.NewMemory()
	return New(cfg, zaptest.NewLogger(t).Sugar(), store), store
}

// crmStub serves /crm/v3/objects/{type} list pages from canned objects and
// records the offsets each collection was asked for.
type crmStub struct {
	t       *testing.T
	mu      sync.Mutex
	objects map[string][]rawObject
	fail    map[string]int           // objectType -> status to return
	delay   map[string]time.Duration // objectType -> artificial latency
	offsets map[string][]int
}

func newCRMStub(t *testing.T) *crmStub {
	return &crmStub{
		t:       t,
		objects: map[string][]rawObject{},
		fail:    map[string]int{},
		delay:   map[string]time.Duration{},
		offsets: map[string][]int{},
	}
}

func (c *crmStub) server() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		if len(parts) != 4 || parts[0] != "crm" || parts[1] != "v3" || parts[2] != "objects" {
			http.NotFound(w, r)
			return
		}
		objectType := parts[3]
		if r.Header.Get("Authorization") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.URL.Query().Get("archived") != "false" {
			c.t.Errorf("archived=false missing for %s", objectType)
		}
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

		c.mu.Lock()
		c.offsets[objectType] = append(c.offsets[objectType], offset)
		status := c.fail[objectType]
		objs := c.objects[objectType]
		delay := c.delay[objectType]
		c.mu.Unlock()

		if delay > 0 {
			time.Sleep(delay)
		}
		if status != 0 {
			w.WriteHeader(status)
			return
		}
		end := offset + limit
		if offset > len(objs) {
			offset = len(objs)
		}
		if end > len(objs) {
			end = len(objs)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(listResponse{Results: objs[offset:end]})
	}))
}

func (c *crmStub) recordedOffsets(objectType string) []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]int(nil), c.offsets[objectType]...)
}

func testCredentials() json.RawMessage {
	return json.RawMessage(`{"access_token":"test-token","token_type":"Bearer"}`)
}
