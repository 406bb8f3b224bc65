// pkg/config/config.go
package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env      string
	HTTPAddr string

	// HubSpot app registration (static per deployment)
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scopes       []string

	// Provider endpoints (overridable for local stubs)
	AuthURL    string
	TokenURL   string
	APIBaseURL string

	// Transient store
	RedisURL string
	StateTTL time.Duration
}

func Load() Config {
	_ = godotenv.Load()
	cfg := Config{
		Env:          env("HUBLINK_ENV", "dev"),
		HTTPAddr:     env("HUBLINK_HTTP_ADDR", ":8080"),
		ClientID:     env("HUBSPOT_CLIENT_ID", ""),
		ClientSecret: env("HUBSPOT_CLIENT_SECRET", ""),
		RedirectURI:  env("HUBSPOT_REDIRECT_URI", "http://localhost:8080/integrations/hubspot/oauth2callback"),
		Scopes:       envList("HUBSPOT_SCOPES", "oauth,crm.objects.contacts.read"),
		AuthURL:      env("HUBSPOT_AUTH_URL", "https://app.hubspot.com/oauth/authorize"),
		TokenURL:     env("HUBSPOT_TOKEN_URL", "https://api.hubapi.com/oauth/v1/token"),
		APIBaseURL:   env("HUBSPOT_API_BASE_URL", "https://api.hubapi.com"),
		RedisURL:     env("REDIS_URL", ""),
		StateTTL:     envDur("STATE_TTL_SEC", 600) * time.Second,
	}
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		log.Println("[WARN] HUBSPOT_CLIENT_ID / HUBSPOT_CLIENT_SECRET not set — OAuth flow will be rejected by the provider")
	}
	if cfg.RedisURL == "" {
		log.Println("[WARN] REDIS_URL not set — using in-memory transient store for dev")
	}
	return cfg
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
func envList(k, def string) []string {
	raw := env(k, def)
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
func envDur(k string, def int) time.Duration {
	if v := os.Getenv(k); v != "" {
		i, _ := strconv.Atoi(v)
		return time.Duration(i)
	}
	return time.Duration(def)
}
