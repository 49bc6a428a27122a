package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	instagram "github.com/goliatone/go-instagram"
)

// DefaultBaseURL is the Graph API root, pinned to the version the
// discovery queries were written against.
const DefaultBaseURL = "https://graph.facebook.com/v21.0"

const (
	pageFields    = "id,name,access_token"
	linkageFields = "instagram_business_account,connected_instagram_account"
	profileFields = "id,username,name,profile_picture_url"
)

// Config holds Graph API client configuration.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     instagram.Logger
}

// Client performs the discovery queries against the Graph API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     instagram.Logger
}

// New creates a Graph API client.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = instagram.DefaultLogger()
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: client,
		logger:     logger,
	}
}

// ListPages fetches every Facebook Page the token's user manages, with
// Page-scoped access tokens where granted.
func (c *Client) ListPages(ctx context.Context, accessToken string) ([]Page, error) {
	var out pageListResponse
	if err := c.get(ctx, "/me/accounts", pageFields, accessToken, &out, &out.Error); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// PageLinkage fetches the Instagram linkage fields for a Page. A Page
// token works here; the user token is a valid fallback.
func (c *Client) PageLinkage(ctx context.Context, pageID, accessToken string) (*Linkage, error) {
	var out linkageResponse
	if err := c.get(ctx, "/"+url.PathEscape(pageID), linkageFields, accessToken, &out, &out.Error); err != nil {
		return nil, err
	}
	return &out.Linkage, nil
}

// AccountProfile fetches the profile of an Instagram professional account.
func (c *Client) AccountProfile(ctx context.Context, accountID, accessToken string) (*Profile, error) {
	var out profileResponse
	if err := c.get(ctx, "/"+url.PathEscape(accountID), profileFields, accessToken, &out, &out.Error); err != nil {
		return nil, err
	}
	return &out.Profile, nil
}

func (c *Client) get(ctx context.Context, path, fields, accessToken string, out any, apiErr **APIError) error {
	params := url.Values{
		"fields":       {fields},
		"access_token": {accessToken},
	}

	endpoint := c.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("graph request %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("graph response %s: %w", path, err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("graph decode %s (status %d): %w", path, resp.StatusCode, err)
	}

	if *apiErr != nil {
		(*apiErr).Status = resp.StatusCode
		c.logger.Debug("graph error path=%s status=%d code=%d subcode=%d trace=%s",
			path, resp.StatusCode, (*apiErr).Code, (*apiErr).Subcode, (*apiErr).TraceID)
		return *apiErr
	}

	if resp.StatusCode != http.StatusOK {
		return &APIError{
			Status:  resp.StatusCode,
			Message: http.StatusText(resp.StatusCode),
		}
	}

	return nil
}
