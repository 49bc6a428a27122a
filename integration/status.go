package integration

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	instagram "github.com/goliatone/go-instagram"
	"github.com/goliatone/go-instagram/graph"
	"github.com/google/uuid"
)

// StatusFreshnessWindow is how long a successful verification is trusted
// before the next status request goes back to the provider.
const StatusFreshnessWindow = 5 * time.Minute

// StatusChecker verifies the health of a stored connection on demand.
type StatusChecker struct {
	repo   instagram.RepositoryManager
	graph  GraphClient
	logger instagram.Logger
	now    func() time.Time
}

// StatusOption configures a StatusChecker.
type StatusOption func(*StatusChecker)

// WithStatusLogger sets the checker logger.
func WithStatusLogger(logger instagram.Logger) StatusOption {
	return func(s *StatusChecker) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStatusClock overrides the time source, mostly for tests.
func WithStatusClock(now func() time.Time) StatusOption {
	return func(s *StatusChecker) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStatusChecker creates a status verification engine.
func NewStatusChecker(repo instagram.RepositoryManager, client GraphClient, opts ...StatusOption) *StatusChecker {
	s := &StatusChecker{
		repo:   repo,
		graph:  client,
		logger: instagram.DefaultLogger(),
		now:    time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	return s
}

// Check resolves the current integration status for a user. Cooldowns and
// fresh check results are answered from storage without touching the
// provider; everything else triggers a live discovery pass whose outcome
// is persisted before returning.
func (s *StatusChecker) Check(ctx context.Context, ownerID uuid.UUID) (Status, error) {
	records, err := s.repo.Businesses().FindByOwnerID(ctx, ownerID)
	if err != nil {
		return Status{}, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load connection")
	}

	if len(records) == 0 {
		return NotConnected(), nil
	}

	record := records[0]
	for _, r := range records {
		if r.IsActive {
			record = r
			break
		}
	}

	if record.AccessToken == "" {
		return NotConnected(), nil
	}

	now := s.now()

	if retryAt, cooling := record.CoolingDownUntil(now); cooling {
		return Cooldown(retryAt), nil
	}
	// an elapsed window is cleared by whichever write happens next
	record.ConnectionRetryAt = nil

	if record.VerifiedWithin(StatusFreshnessWindow, now) {
		return ConnectedReady(detailsFor(record)), nil
	}

	if record.LastConnectionError != "" && checkedWithin(record, StatusFreshnessWindow, now) {
		return Blocked(record.LastConnectionError, record.FacebookPageID, ""), nil
	}

	status := s.verify(ctx, record, now)

	if _, err := s.repo.Businesses().Save(ctx, record); err != nil {
		return Status{}, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist status check")
	}

	return status, nil
}

func checkedWithin(record *instagram.Business, window time.Duration, now time.Time) bool {
	return record.LastStatusCheckAt != nil && record.LastStatusCheckAt.After(now.Add(-window))
}

// verify runs the live discovery pass and mutates the record with the
// outcome. The caller persists it.
func (s *StatusChecker) verify(ctx context.Context, record *instagram.Business, now time.Time) Status {
	pages, err := s.graph.ListPages(ctx, record.AccessToken)
	if err != nil {
		return s.classify(record, err, now)
	}

	if len(pages) == 0 {
		record.MarkError(instagram.ReasonNoPagesFound, now)
		record.IsActive = false
		return Blocked(instagram.ReasonNoPagesFound, "", "")
	}

	pageIDs := make([]string, 0, len(pages))
	for _, page := range pages {
		pageIDs = append(pageIDs, page.ID)
	}
	record.SetPageIDs(pageIDs)

	for _, page := range pages {
		token := page.AccessToken
		if token == "" {
			token = record.AccessToken
		}

		linkage, err := s.graph.PageLinkage(ctx, page.ID, token)
		if err != nil {
			// the new-admin waiting period surfaces on the per-page call
			if graph.IsAdminCooldown(err) {
				return s.classify(record, err, now)
			}
			s.logger.Debug("linkage lookup failed page=%s: %v", page.ID, err)
			continue
		}

		igID, ok := linkage.InstagramAccount()
		if !ok {
			continue
		}

		record.FacebookPageID = page.ID
		record.SelectedPageID = page.ID
		record.InstagramBusinessAccountID = igID
		record.LastIGAccountIDSeen = igID
		record.Name = page.Name

		if profile, perr := s.graph.AccountProfile(ctx, igID, token); perr == nil {
			record.InstagramUsername = profile.Username
			if profile.Name != "" {
				record.Name = profile.Name
			}
		} else {
			s.logger.Debug("profile lookup failed account=%s: %v", igID, perr)
		}

		record.MarkVerified(now)

		return ConnectedReady(detailsFor(record))
	}

	record.IsActive = false

	if record.LastIGAccountIDSeen != "" {
		record.MarkError(instagram.ReasonOwnershipMismatch, now)
		return Blocked(instagram.ReasonOwnershipMismatch, record.FacebookPageID, "")
	}

	record.MarkError(instagram.ReasonIGNotLinkedToPage, now)
	return Blocked(instagram.ReasonIGNotLinkedToPage, record.FacebookPageID, "")
}

// classify maps a discovery failure to a status, persisting the cooldown
// window when Meta reports the new-admin waiting period.
func (s *StatusChecker) classify(record *instagram.Business, err error, now time.Time) Status {
	record.IsActive = false

	reason := reasonForFailure(err)
	if reason == instagram.ReasonAdminCooldown {
		retryAt := now.Add(instagram.AdminCooldownPeriod)
		record.ConnectionRetryAt = &retryAt
		record.MarkError(reason, now)
		return Cooldown(retryAt)
	}

	record.MarkError(reason, now)
	return Blocked(reason, record.FacebookPageID, err.Error())
}

// reasonForFailure maps a Graph API error to the blocked-reason taxonomy.
func reasonForFailure(err error) instagram.Reason {
	switch {
	case graph.IsAdminCooldown(err):
		return instagram.ReasonAdminCooldown
	case graph.IsTokenExpired(err):
		return instagram.ReasonTokenExpired
	case graph.IsMissingPermissions(err):
		return instagram.ReasonMissingPermissions
	default:
		return instagram.ReasonAPIError
	}
}

func detailsFor(record *instagram.Business) *ConnectionDetails {
	return &ConnectionDetails{
		InstagramAccountID: record.InstagramBusinessAccountID,
		InstagramUsername:  record.InstagramUsername,
		FacebookPageID:     record.FacebookPageID,
		BusinessName:       record.Name,
	}
}
