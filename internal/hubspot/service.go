// internal/hubspot/service.go
package hubspot

import (
	"golang.org/x/oauth2"

	"hublink/pkg/config"
	"hublink/pkg/kvstore"
	"hublink/pkg/logger"
)

// Service implements the HubSpot OAuth2 authorization-code flow and the
// CRM object fetch. State tokens and credential bundles live in the
// transient store under keys namespaced by org and user, so concurrent
// flows for different identities never touch each other's keys.
type Service struct {
	cfg   config.Config
	log   logger.Sugared
	store kvstore.Store
	oauth *oauth2.Config
}

func New(cfg config.Config, log logger.Sugared, store kvstore.Store) *Service {
	return &Service{
		cfg:   cfg,
		log:   log,
		store: store,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.AuthURL,
				TokenURL: cfg.TokenURL,
				// HubSpot wants client_id/client_secret in the form body.
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
	}
}

func stateKey(orgID, userID string) string {
	return "hubspot_state:" + orgID + ":" + userID
}

func credentialsKey(orgID, userID string) string {
	return "hubspot_credentials:" + orgID + ":" + userID
}
