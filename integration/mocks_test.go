package integration

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"testing"

	instagram "github.com/goliatone/go-instagram"
	"github.com/goliatone/go-instagram/graph"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	_ "github.com/mattn/go-sqlite3"
)

const sqliteCreateBusinesses = `CREATE TABLE businesses (
    id TEXT NOT NULL PRIMARY KEY,
    owner_id TEXT NOT NULL,
    name TEXT,
    facebook_user_id TEXT,
    facebook_page_id TEXT,
    instagram_business_account_id TEXT,
    instagram_username TEXT,
    access_token TEXT,
    token_expires_at TIMESTAMP NULL,
    available_page_ids TEXT,
    selected_page_id TEXT,
    last_ig_account_id_seen TEXT,
    is_active BOOLEAN NOT NULL DEFAULT FALSE,
    last_connection_error TEXT,
    last_status_check_at TIMESTAMP NULL,
    connection_retry_at TIMESTAMP NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP,
    deleted_at TIMESTAMP NULL
);`

func setupRepo(t *testing.T) instagram.RepositoryManager {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	bunDB := bun.NewDB(db, sqlitedialect.New())

	_, err = bunDB.Exec("PRAGMA foreign_keys = ON;")
	require.NoError(t, err)

	_, err = bunDB.Exec(sqliteCreateBusinesses)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = bunDB.Close()
		_ = db.Close()
	})

	return instagram.NewRepositoryManager(bunDB)
}

// mockGraph implements GraphClient
type mockGraph struct {
	mock.Mock
}

func (m *mockGraph) ListPages(ctx context.Context, accessToken string) ([]graph.Page, error) {
	args := m.Called(ctx, accessToken)
	if pages := args.Get(0); pages != nil {
		return pages.([]graph.Page), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockGraph) PageLinkage(ctx context.Context, pageID, accessToken string) (*graph.Linkage, error) {
	args := m.Called(ctx, pageID, accessToken)
	if linkage := args.Get(0); linkage != nil {
		return linkage.(*graph.Linkage), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockGraph) AccountProfile(ctx context.Context, accountID, accessToken string) (*graph.Profile, error) {
	args := m.Called(ctx, accountID, accessToken)
	if profile := args.Get(0); profile != nil {
		return profile.(*graph.Profile), args.Error(1)
	}
	return nil, args.Error(1)
}

// testConfig implements instagram.Config
type testConfig struct{}

func (testConfig) GetAppID() string          { return "app-123" }
func (testConfig) GetAppSecret() string      { return "app-secret" }
func (testConfig) GetConfigID() string       { return "cfg-456" }
func (testConfig) GetAuthorizeURL() string   { return "" }
func (testConfig) GetRedirectURI() string    { return "https://example.com/instagram/callback" }
func (testConfig) GetScopes() []string       { return []string{"pages_show_list", "instagram_basic"} }
func (testConfig) GetGraphBaseURL() string   { return "" }
func (testConfig) GetBackendBaseURL() string { return "https://example.com" }
func (testConfig) GetCookieSecret() string   { return "cookie-secret" }
func (testConfig) GetSigningKey() string     { return "signing-key" }

// testIdentity implements instagram.Identity
type testIdentity struct {
	id    string
	email string
}

func (i testIdentity) ID() string    { return i.id }
func (i testIdentity) Email() string { return i.email }

func staticUserProvider(ownerID uuid.UUID) instagram.UserProvider {
	return instagram.UserProviderFunc(func(ctx context.Context, id string) (instagram.Identity, error) {
		if id != ownerID.String() {
			return nil, instagram.ErrIdentityNotFound
		}
		return testIdentity{id: id, email: "owner@example.com"}, nil
	})
}

func linkageTo(igID string) *graph.Linkage {
	return &graph.Linkage{
		InstagramBusinessAccount: &graph.AccountRef{ID: igID},
	}
}

func connectedLinkageTo(igID string) *graph.Linkage {
	return &graph.Linkage{
		ConnectedInstagramAccount: &graph.AccountRef{ID: igID},
	}
}

func encodeDeauthorizePayload(t *testing.T, secret, fbUserID, igAccountID string) string {
	t.Helper()

	body, err := json.Marshal(map[string]any{
		"user_id":                       fbUserID,
		"algorithm":                     "HMAC-SHA256",
		"issued_at":                     1724572800,
		"instagram_business_account_id": igAccountID,
	})
	require.NoError(t, err)

	encoded := base64.RawURLEncoding.EncodeToString(body)

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(encoded))

	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil)) + "." + encoded
}
