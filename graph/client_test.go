package graph

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return New(Config{BaseURL: srv.URL})
}

func TestListPages(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/me/accounts", r.URL.Path)
		assert.Equal(t, "id,name,access_token", r.URL.Query().Get("fields"))
		assert.Equal(t, "user-token", r.URL.Query().Get("access_token"))

		w.Write([]byte(`{"data":[
			{"id":"page-1","name":"First","access_token":"page-token-1"},
			{"id":"page-2","name":"Second"}
		]}`))
	})

	pages, err := client.ListPages(context.Background(), "user-token")
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Equal(t, "page-1", pages[0].ID)
	assert.Equal(t, "page-token-1", pages[0].AccessToken)
	assert.Empty(t, pages[1].AccessToken)
}

func TestListPagesEmpty(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[]}`))
	})

	pages, err := client.ListPages(context.Background(), "user-token")
	require.NoError(t, err)
	assert.Empty(t, pages)
}

func TestPageLinkageBusinessField(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/page-1", r.URL.Path)
		assert.Equal(t, "instagram_business_account,connected_instagram_account", r.URL.Query().Get("fields"))

		w.Write([]byte(`{"id":"page-1","instagram_business_account":{"id":"ig-1"}}`))
	})

	linkage, err := client.PageLinkage(context.Background(), "page-1", "page-token")
	require.NoError(t, err)

	id, ok := linkage.InstagramAccount()
	assert.True(t, ok)
	assert.Equal(t, "ig-1", id)
}

func TestPageLinkageConnectedFallback(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"page-1","connected_instagram_account":{"id":"ig-2"}}`))
	})

	linkage, err := client.PageLinkage(context.Background(), "page-1", "page-token")
	require.NoError(t, err)

	id, ok := linkage.InstagramAccount()
	assert.True(t, ok)
	assert.Equal(t, "ig-2", id)
}

func TestPageLinkageNone(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"page-1"}`))
	})

	linkage, err := client.PageLinkage(context.Background(), "page-1", "page-token")
	require.NoError(t, err)

	_, ok := linkage.InstagramAccount()
	assert.False(t, ok)
}

func TestAccountProfile(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ig-1", r.URL.Path)
		assert.Equal(t, "id,username,name,profile_picture_url", r.URL.Query().Get("fields"))

		w.Write([]byte(`{"id":"ig-1","username":"acme","name":"Acme Co","profile_picture_url":"https://cdn/pic.jpg"}`))
	})

	profile, err := client.AccountProfile(context.Background(), "ig-1", "page-token")
	require.NoError(t, err)
	assert.Equal(t, "acme", profile.Username)
	assert.Equal(t, "Acme Co", profile.Name)
}

func TestAPIErrorEnvelope(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"(#10) Permission denied","type":"OAuthException","code":10,"fbtrace_id":"AbCd"}}`))
	})

	_, err := client.ListPages(context.Background(), "user-token")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 10, apiErr.Code)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "AbCd", apiErr.TraceID)
	assert.True(t, IsMissingPermissions(err))
	assert.False(t, IsTokenExpired(err))
}

func TestTokenExpiredClassification(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"Error validating access token","type":"OAuthException","code":190}}`))
	})

	_, err := client.ListPages(context.Background(), "stale-token")
	assert.True(t, IsTokenExpired(err))
}

func TestAdminCooldownClassification(t *testing.T) {
	bySubcode := &APIError{Code: 368, Subcode: SubcodeAdminCooldown}
	assert.True(t, IsAdminCooldown(bySubcode))

	byMessage := &APIError{Code: 368, Message: "New Page admins must wait 7 days before messaging"}
	assert.True(t, IsAdminCooldown(byMessage))

	other := &APIError{Code: 368, Message: "Temporarily blocked"}
	assert.False(t, IsAdminCooldown(other))
}

func TestNonJSONErrorResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream unavailable"))
	})

	_, err := client.ListPages(context.Background(), "user-token")
	require.Error(t, err)

	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
}
