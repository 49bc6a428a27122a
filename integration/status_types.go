package integration

import (
	"time"

	instagram "github.com/goliatone/go-instagram"
)

// State is the coarse integration state exposed to clients.
type State = string

const (
	// StateNotConnected no connection has ever been attempted
	StateNotConnected State = "NOT_CONNECTED"
	// StateConnectedReady the connection is verified and usable
	StateConnectedReady State = "CONNECTED_READY"
	// StateBlocked the connection needs a user action or a wait to recover
	StateBlocked State = "BLOCKED"
	// StatePending a verification is underway and has no result yet
	StatePending State = "PENDING"
)

// NextAction is a concrete step the user can take to unblock the
// connection, rendered as a link by clients.
type NextAction struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// Meta destinations used to build recovery actions.
const (
	MetaCreatePageURL       = "https://www.facebook.com/pages/create"
	MetaBusinessSettingsURL = "https://business.facebook.com/settings"
	MetaBusinessSuiteURL    = "https://business.facebook.com/latest/home"
	InstagramLinkHelpURL    = "https://help.instagram.com/399237934150902"
)

// PageLinkedInstagramURL points at the Page setting where the Instagram
// link is managed.
func PageLinkedInstagramURL(pageID string) string {
	if pageID == "" {
		return MetaBusinessSettingsURL
	}
	return "https://www.facebook.com/" + pageID + "/settings/?tab=linked_instagram"
}

// Status is the full verification result for one user's connection.
// Message is a fixed user-facing string keyed by Reason; APIError carries
// the provider diagnostic and is never shown to end users.
type Status struct {
	State       State              `json:"state"`
	Reason      instagram.Reason   `json:"reason,omitempty"`
	Message     string             `json:"message,omitempty"`
	RetryAt     *time.Time         `json:"retry_at,omitempty"`
	Details     *ConnectionDetails `json:"details,omitempty"`
	NextActions []NextAction       `json:"next_actions,omitempty"`
	APIError    string             `json:"api_error,omitempty"`
}

// ConnectionDetails describes the verified account.
type ConnectionDetails struct {
	InstagramAccountID string `json:"instagram_account_id"`
	InstagramUsername  string `json:"instagram_username,omitempty"`
	FacebookPageID     string `json:"facebook_page_id,omitempty"`
	BusinessName       string `json:"business_name,omitempty"`
}

var reasonMessages = map[instagram.Reason]string{
	instagram.ReasonNoPagesFound:       "We couldn't find a Facebook Page on your account. Create a Page, link your Instagram professional account to it, then reconnect.",
	instagram.ReasonIGNotLinkedToPage:  "Your Facebook Page isn't linked to an Instagram professional account. Link them in your Page settings, then reconnect.",
	instagram.ReasonIGNotBusiness:      "Your Instagram account is a personal account. Switch it to a professional account in the Instagram app, then reconnect.",
	instagram.ReasonOwnershipMismatch:  "The Instagram account you connected is no longer reachable from your Facebook profile. Check that you still manage it, then reconnect.",
	instagram.ReasonAdminCooldown:      "Meta requires new Page admins to wait 7 days before connecting. We'll retry automatically once the waiting period ends.",
	instagram.ReasonMissingPermissions: "Some permissions were declined during connection. Reconnect and grant every requested permission.",
	instagram.ReasonTokenExpired:       "Your Facebook session expired. Reconnect your account to continue.",
	instagram.ReasonAPIError:           "We hit an unexpected error talking to Meta. Try again in a few minutes.",
}

// MessageFor returns the fixed user-facing message for a reason.
func MessageFor(reason instagram.Reason) string {
	if msg, ok := reasonMessages[reason]; ok {
		return msg
	}
	return reasonMessages[instagram.ReasonAPIError]
}

// ActionsFor returns the recovery steps for a reason. The page id refines
// deep links when known.
func ActionsFor(reason instagram.Reason, pageID string) []NextAction {
	switch reason {
	case instagram.ReasonNoPagesFound:
		return []NextAction{
			{Label: "Create a Facebook Page", URL: MetaCreatePageURL},
			{Label: "How linking works", URL: InstagramLinkHelpURL},
		}
	case instagram.ReasonIGNotLinkedToPage:
		return []NextAction{
			{Label: "Link Instagram to your Page", URL: PageLinkedInstagramURL(pageID)},
			{Label: "How linking works", URL: InstagramLinkHelpURL},
		}
	case instagram.ReasonIGNotBusiness:
		return []NextAction{
			{Label: "Switch to a professional account", URL: InstagramLinkHelpURL},
		}
	case instagram.ReasonOwnershipMismatch:
		return []NextAction{
			{Label: "Review Business settings", URL: MetaBusinessSettingsURL},
		}
	case instagram.ReasonAdminCooldown:
		return []NextAction{
			{Label: "Open Meta Business Suite", URL: MetaBusinessSuiteURL},
		}
	default:
		return nil
	}
}

// NotConnected builds the status for a user with no connection rows.
func NotConnected() Status {
	return Status{State: StateNotConnected}
}

// ConnectedReady builds the status for a verified connection.
func ConnectedReady(details *ConnectionDetails) Status {
	return Status{
		State:   StateConnectedReady,
		Details: details,
	}
}

// Blocked builds a status that needs a user action to recover.
func Blocked(reason instagram.Reason, pageID, apiError string) Status {
	return Status{
		State:       StateBlocked,
		Reason:      reason,
		Message:     MessageFor(reason),
		NextActions: ActionsFor(reason, pageID),
		APIError:    apiError,
	}
}

// Cooldown builds the blocked status for Meta's new-admin waiting period.
// The block lifts by itself once retryAt passes.
func Cooldown(retryAt time.Time) Status {
	return Status{
		State:       StateBlocked,
		Reason:      instagram.ReasonAdminCooldown,
		Message:     MessageFor(instagram.ReasonAdminCooldown),
		RetryAt:     &retryAt,
		NextActions: ActionsFor(instagram.ReasonAdminCooldown, ""),
	}
}

// Pending builds a transient status for a verification still in flight.
func Pending(message string) Status {
	return Status{
		State:   StatePending,
		Message: message,
	}
}
