package instagram

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Reason classifies why an integration is blocked or pending.
type Reason = string

const (
	// ReasonNoPagesFound the user manages no Facebook Pages
	ReasonNoPagesFound Reason = "NO_PAGES_FOUND"
	// ReasonIGNotLinkedToPage a Page exists but no Instagram account is linked
	ReasonIGNotLinkedToPage Reason = "IG_NOT_LINKED_TO_PAGE"
	// ReasonIGNotBusiness the Instagram account is personal, not business/creator
	ReasonIGNotBusiness Reason = "IG_NOT_BUSINESS"
	// ReasonOwnershipMismatch a previously linked account is no longer reachable
	ReasonOwnershipMismatch Reason = "OWNERSHIP_MISMATCH"
	// ReasonAdminCooldown Meta's 7-day wait after becoming a Page admin
	ReasonAdminCooldown Reason = "ADMIN_COOLDOWN"
	// ReasonMissingPermissions OAuth permissions were not granted
	ReasonMissingPermissions Reason = "MISSING_PERMISSIONS"
	// ReasonTokenExpired the stored access token is invalid or expired
	ReasonTokenExpired Reason = "TOKEN_EXPIRED"
	// ReasonAPIError unexpected provider error
	ReasonAPIError Reason = "API_ERROR"
)

// AdminCooldownPeriod is Meta's waiting period before a new Page admin can
// use the Instagram messaging APIs.
const AdminCooldownPeriod = 7 * 24 * time.Hour

// Business maps one tenant user to one Instagram Business Account plus the
// credential and discovery bookkeeping needed to keep the mapping verified.
type Business struct {
	bun.BaseModel `bun:"table:businesses,alias:biz"`

	ID      uuid.UUID `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	OwnerID uuid.UUID `bun:"owner_id,notnull,type:uuid" json:"owner_id,omitempty"`
	Name    string    `bun:"name" json:"name,omitempty"`

	FacebookUserID             string `bun:"facebook_user_id" json:"facebook_user_id,omitempty"`
	FacebookPageID             string `bun:"facebook_page_id" json:"facebook_page_id,omitempty"`
	InstagramBusinessAccountID string `bun:"instagram_business_account_id" json:"instagram_business_account_id,omitempty"`
	InstagramUsername          string `bun:"instagram_username" json:"instagram_username,omitempty"`

	AccessToken    string     `bun:"access_token" json:"-"`
	TokenExpiresAt *time.Time `bun:"token_expires_at" json:"token_expires_at,omitempty"`

	AvailablePageIDs    string `bun:"available_page_ids" json:"available_page_ids,omitempty"`
	SelectedPageID      string `bun:"selected_page_id" json:"selected_page_id,omitempty"`
	LastIGAccountIDSeen string `bun:"last_ig_account_id_seen" json:"last_ig_account_id_seen,omitempty"`

	IsActive            bool       `bun:"is_active" json:"is_active"`
	LastConnectionError string     `bun:"last_connection_error" json:"last_connection_error,omitempty"`
	LastStatusCheckAt   *time.Time `bun:"last_status_check_at" json:"last_status_check_at,omitempty"`
	ConnectionRetryAt   *time.Time `bun:"connection_retry_at" json:"connection_retry_at,omitempty"`

	CreatedAt *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// CoolingDownUntil reports the active cooldown expiry, if any.
func (b *Business) CoolingDownUntil(now time.Time) (time.Time, bool) {
	if b.ConnectionRetryAt == nil {
		return time.Time{}, false
	}
	if b.ConnectionRetryAt.After(now) {
		return *b.ConnectionRetryAt, true
	}
	return time.Time{}, false
}

// VerifiedWithin reports whether the record represents a healthy connection
// checked inside the freshness window, so a live call can be skipped.
func (b *Business) VerifiedWithin(window time.Duration, now time.Time) bool {
	if !b.IsActive {
		return false
	}
	if b.InstagramBusinessAccountID == "" {
		return false
	}
	if b.LastConnectionError != "" {
		return false
	}
	if b.LastStatusCheckAt == nil {
		return false
	}
	return b.LastStatusCheckAt.After(now.Add(-window))
}

// MarkError records a failed verification and stamps the check time.
func (b *Business) MarkError(reason Reason, now time.Time) {
	b.LastConnectionError = reason
	b.LastStatusCheckAt = &now
}

// MarkVerified records a successful verification. Any pending cooldown
// window is cleared along with the error.
func (b *Business) MarkVerified(now time.Time) {
	b.LastConnectionError = ""
	b.LastStatusCheckAt = &now
	b.ConnectionRetryAt = nil
	b.IsActive = true
}

// PageIDs splits the stored comma-joined Page id list.
func (b *Business) PageIDs() []string {
	if b.AvailablePageIDs == "" {
		return nil
	}
	return strings.Split(b.AvailablePageIDs, ",")
}

// SetPageIDs stores the discovered Page id list for drift detection.
func (b *Business) SetPageIDs(ids []string) {
	b.AvailablePageIDs = strings.Join(ids, ",")
}

// TokenPreview returns the last few characters of a credential for log
// correlation. Full tokens must never reach logs or responses.
func TokenPreview(token string) string {
	if token == "" {
		return "NONE"
	}
	if len(token) <= 6 {
		return "..." + token
	}
	return "..." + token[len(token)-6:]
}
