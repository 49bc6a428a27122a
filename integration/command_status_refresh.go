package integration

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	instagram "github.com/goliatone/go-instagram"
	"github.com/google/uuid"
)

// StatusRefreshMessage asks for a background re-verification of a user's
// connection, typically scheduled when a cooldown window elapses.
type StatusRefreshMessage struct {
	OwnerID    uuid.UUID `json:"owner_id" doc:"User whose connection should be re-verified."`
	OnResponse func(s Status)
}

func (m StatusRefreshMessage) Type() string {
	return "integration.status.refresh"
}

// StatusRefreshHandler executes status refresh messages.
type StatusRefreshHandler struct {
	checker *StatusChecker
	logger  instagram.Logger
}

// NewStatusRefreshHandler creates a handler bound to the checker.
func NewStatusRefreshHandler(checker *StatusChecker, logger instagram.Logger) *StatusRefreshHandler {
	if logger == nil {
		logger = instagram.DefaultLogger()
	}
	return &StatusRefreshHandler{
		checker: checker,
		logger:  logger,
	}
}

func (h *StatusRefreshHandler) Execute(ctx context.Context, event StatusRefreshMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during status refresh")
	default:
		return h.execute(ctx, event)
	}
}

func (h *StatusRefreshHandler) execute(ctx context.Context, event StatusRefreshMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*30)
	defer cancel()

	status, err := h.checker.Check(ctx, event.OwnerID)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to refresh connection status")
	}

	h.logger.Info("status refreshed owner=%s state=%s reason=%s", event.OwnerID, status.State, status.Reason)

	if event.OnResponse != nil {
		event.OnResponse(status)
	}

	return nil
}
