package instagram

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCoolingDownUntil(t *testing.T) {
	now := time.Now()
	biz := &Business{}

	_, cooling := biz.CoolingDownUntil(now)
	assert.False(t, cooling)

	future := now.Add(24 * time.Hour)
	biz.ConnectionRetryAt = &future

	until, cooling := biz.CoolingDownUntil(now)
	assert.True(t, cooling)
	assert.Equal(t, future, until)

	past := now.Add(-time.Minute)
	biz.ConnectionRetryAt = &past

	_, cooling = biz.CoolingDownUntil(now)
	assert.False(t, cooling)
}

func TestVerifiedWithin(t *testing.T) {
	now := time.Now()
	window := 5 * time.Minute
	recent := now.Add(-time.Minute)
	stale := now.Add(-10 * time.Minute)

	biz := &Business{
		IsActive:                   true,
		InstagramBusinessAccountID: "ig-1",
		LastStatusCheckAt:          &recent,
	}
	assert.True(t, biz.VerifiedWithin(window, now))

	biz.LastStatusCheckAt = &stale
	assert.False(t, biz.VerifiedWithin(window, now))

	biz.LastStatusCheckAt = &recent
	biz.LastConnectionError = ReasonAPIError
	assert.False(t, biz.VerifiedWithin(window, now))

	biz.LastConnectionError = ""
	biz.IsActive = false
	assert.False(t, biz.VerifiedWithin(window, now))

	biz.IsActive = true
	biz.InstagramBusinessAccountID = ""
	assert.False(t, biz.VerifiedWithin(window, now))
}

func TestMarkErrorAndVerified(t *testing.T) {
	now := time.Now()
	biz := &Business{IsActive: true}

	biz.MarkError(ReasonTokenExpired, now)
	assert.Equal(t, ReasonTokenExpired, biz.LastConnectionError)
	assert.Equal(t, now, *biz.LastStatusCheckAt)

	retryAt := now.Add(time.Hour)
	biz.ConnectionRetryAt = &retryAt

	biz.MarkVerified(now)
	assert.Empty(t, biz.LastConnectionError)
	assert.True(t, biz.IsActive)
	assert.Nil(t, biz.ConnectionRetryAt)
}

func TestPageIDsRoundTrip(t *testing.T) {
	biz := &Business{}
	assert.Nil(t, biz.PageIDs())

	biz.SetPageIDs([]string{"page-1", "page-2"})
	assert.Equal(t, []string{"page-1", "page-2"}, biz.PageIDs())
}

func TestTokenPreview(t *testing.T) {
	assert.Equal(t, "NONE", TokenPreview(""))
	assert.Equal(t, "...abc", TokenPreview("abc"))
	assert.Equal(t, "...567890", TokenPreview("1234567890"))
}
