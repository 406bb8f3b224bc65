// internal/hubspot/items.go
package hubspot

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"
)

// Collections fetched by FetchItems, concatenated in this order.
var objectTypes = []string{"contacts", "companies", "deals"}

const (
	pageLimit  = 100
	timeLayout = "January 02, 2006 at 03:04 PM"
)

// IntegrationItem is the uniform representation of a remote CRM object,
// independent of its type-specific schema. Items are built per fetch and
// never persisted.
type IntegrationItem struct {
	ID               string `json:"id"`
	Type             string `json:"type"`
	Name             string `json:"name"`
	CreationTime     string `json:"creation_time,omitempty"`
	LastModifiedTime string `json:"last_modified_time,omitempty"`
}

type rawObject struct {
	ID         string            `json:"id"`
	Properties map[string]string `json:"properties"`
}

type listResponse struct {
	Results []rawObject `json:"results"`
}

// normalizeItem maps a raw CRM object into an IntegrationItem using the
// type-specific naming rule and the human-readable timestamp format.
func normalizeItem(obj rawObject, objectType string) IntegrationItem {
	p := obj.Properties
	var name string
	switch objectType {
	case "contacts":
		name = strings.TrimSpace(strings.TrimSpace(p["firstname"]) + " " + strings.TrimSpace(p["lastname"]))
		if name == "" {
			name = "Unnamed Contact"
		}
	case "deals":
		name = p["dealname"]
		if name == "" {
			name = "Unnamed Deal"
		}
	default:
		name = p["name"]
		if name == "" {
			name = "Unnamed"
		}
	}
	return IntegrationItem{
		ID:               obj.ID,
		Type:             objectType,
		Name:             name,
		CreationTime:     formatTimestamp(p["createdate"]),
		LastModifiedTime: formatTimestamp(p["hs_lastmodifieddate"]),
	}
}

// formatTimestamp renders an ISO-8601 provider timestamp as
// "May 01, 2023 at 10:00 AM". Absent or unparsable input yields "".
func formatTimestamp(raw string) string {
	if raw == "" {
		return ""
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return ""
	}
	return t.Format(timeLayout)
}

// fetchCollection pages through one CRM collection with offset/limit
// pagination, normalizing each page in order. A short page terminates the
// walk (an exactly-full final page costs one extra empty request).
func (s *Service) fetchCollection(ctx context.Context, client *http.Client, objectType string) ([]IntegrationItem, error) {
	base := strings.TrimRight(s.cfg.APIBaseURL, "/")
	var items []IntegrationItem
	for offset := 0; ; offset += pageLimit {
		u := fmt.Sprintf("%s/crm/v3/objects/%s?limit=%d&archived=false&offset=%d", base, objectType, pageLimit, offset)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", objectType, err)
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
			resp.Body.Close()
			return nil, &UpstreamError{Op: "list " + objectType, Status: resp.StatusCode}
		}
		var page listResponse
		err = json.NewDecoder(resp.Body).Decode(&page)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", objectType, err)
		}
		for _, obj := range page.Results {
			items = append(items, normalizeItem(obj, objectType))
		}
		if len(page.Results) < pageLimit {
			return items, nil
		}
	}
}

// FetchItems fetches contacts, companies and deals concurrently and
// concatenates the normalized results in that fixed order, regardless of
// which fetch finishes first. A single failure fails the whole call;
// in-flight siblings run to completion (no cross-branch cancellation).
func (s *Service) FetchItems(ctx context.Context, credentials json.RawMessage) ([]IntegrationItem, error) {
	var tok oauth2.Token
	if err := json.Unmarshal(credentials, &tok); err != nil || tok.AccessToken == "" {
		return nil, ErrInvalidCredentials
	}
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&tok))
	client.Timeout = 15 * time.Second

	results := make([][]IntegrationItem, len(objectTypes))
	var g errgroup.Group
	for i, objectType := range objectTypes {
		i, objectType := i, objectType
		g.Go(func() error {
			items, err := s.fetchCollection(ctx, client, objectType)
			if err != nil {
				return err
			}
			results[i] = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	var all []IntegrationItem
	for _, part := range results {
		all = append(all, part...)
	}
	s.log.Infow("hubspot items fetched", "count", len(all))
	return all, nil
}
