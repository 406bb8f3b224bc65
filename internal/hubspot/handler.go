// internal/hubspot/handler.go
package hubspot

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"hublink/pkg/middleware"
	"hublink/pkg/openapi"
	"hublink/pkg/problems"
)

type identityRequest struct {
	UserID string `json:"user_id"`
	OrgID  string `json:"org_id"`
}

type loadRequest struct {
	Credentials json.RawMessage `json:"credentials"`
}

// Routes mounts the integration endpoints on the router.
func (s *Service) Routes(r chi.Router) {
	r.Route("/integrations/hubspot", func(ir chi.Router) {
		ir.Post("/authorize", s.handleAuthorize)
		ir.Get("/oauth2callback", s.handleCallback)
		ir.Post("/credentials", s.handleCredentials)
		ir.Post("/load", s.handleLoad)
	})
	r.Get("/.well-known/openapi.json", s.serveOpenAPI)
}

func (s *Service) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	var body identityRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		problems.Write(w, http.StatusBadRequest, "bad-request", "invalid JSON body", err.Error())
		return
	}
	if body.UserID == "" || body.OrgID == "" {
		problems.Write(w, http.StatusBadRequest, "bad-request", "missing fields", "user_id and org_id are required")
		return
	}
	authURL, err := s.Authorize(r.Context(), body.UserID, body.OrgID)
	if err != nil {
		s.log.Errorw("authorize", "err", err)
		problems.Write(w, http.StatusInternalServerError, "internal", "could not start authorization", "")
		return
	}
	writeJSON(w, map[string]any{"url": authURL}, http.StatusOK)
}

func (s *Service) handleCallback(w http.ResponseWriter, r *http.Request) {
	err := s.HandleCallback(r.Context(), r.URL.Query())
	if err == nil {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(callbackHTML))
		return
	}
	var pe *ProviderError
	var ue *UpstreamError
	switch {
	case errors.As(err, &pe):
		problems.Write(w, http.StatusBadGateway, "provider-error", "provider reported an error", pe.Detail)
	case errors.Is(err, ErrStateMismatch):
		problems.Write(w, http.StatusForbidden, "state-mismatch", ErrStateMismatch.Error(), "")
	case errors.As(err, &ue):
		problems.Write(w, http.StatusBadGateway, "upstream-error", "token exchange failed", ue.Error())
	default:
		s.log.Errorw("oauth2callback", "err", err, "request_id", middleware.RequestIDFrom(r.Context()))
		problems.Write(w, http.StatusInternalServerError, "internal", "callback failed", "")
	}
}

func (s *Service) handleCredentials(w http.ResponseWriter, r *http.Request) {
	var body identityRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.UserID == "" || body.OrgID == "" {
		problems.Write(w, http.StatusBadRequest, "bad-request", "missing fields", "user_id and org_id are required")
		return
	}
	creds, err := s.Credentials(r.Context(), body.UserID, body.OrgID)
	if errors.Is(err, ErrCredentialsNotFound) {
		problems.Write(w, http.StatusNotFound, "credentials-not-found", ErrCredentialsNotFound.Error(), "")
		return
	}
	if err != nil {
		s.log.Errorw("credentials", "err", err)
		problems.Write(w, http.StatusInternalServerError, "internal", "could not read credentials", "")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(creds)
}

func (s *Service) handleLoad(w http.ResponseWriter, r *http.Request) {
	var body loadRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body.Credentials) == 0 {
		problems.Write(w, http.StatusBadRequest, "bad-request", "missing fields", "credentials is required")
		return
	}
	items, err := s.FetchItems(r.Context(), body.Credentials)
	if err != nil {
		var ue *UpstreamError
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			problems.Write(w, http.StatusBadRequest, "invalid-credentials", ErrInvalidCredentials.Error(), "")
		case errors.As(err, &ue):
			problems.Write(w, http.StatusBadGateway, "upstream-error", "item fetch failed", ue.Error())
		default:
			s.log.Errorw("load", "err", err)
			problems.Write(w, http.StatusBadGateway, "upstream-error", "item fetch failed", "")
		}
		return
	}
	if items == nil {
		items = []IntegrationItem{}
	}
	writeJSON(w, map[string]any{"items": items}, http.StatusOK)
}

func (s *Service) serveOpenAPI(w http.ResponseWriter, _ *http.Request) {
	reg := openapi.NewRegistry()
	reg.Register(openapi.Operation{Method: "POST", Path: "/integrations/hubspot/authorize", Summary: "Start the HubSpot OAuth flow"})
	reg.Register(openapi.Operation{Method: "GET", Path: "/integrations/hubspot/oauth2callback", Summary: "OAuth redirect callback"})
	reg.Register(openapi.Operation{Method: "POST", Path: "/integrations/hubspot/credentials", Summary: "One-shot credential pickup"})
	reg.Register(openapi.Operation{Method: "POST", Path: "/integrations/hubspot/load", Summary: "Fetch and normalize CRM items"})
	writeJSON(w, reg.Build("integration-service", "v1"), http.StatusOK)
}

func writeJSON(w http.ResponseWriter, v any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
