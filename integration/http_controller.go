package integration

import (
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	instagram "github.com/goliatone/go-instagram"
	"github.com/goliatone/go-router"
)

// RouteRegistrar captures the router methods used by the controller.
type RouteRegistrar interface {
	Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Post(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
}

// HTTPController exposes the connection and status flows over HTTP.
type HTTPController struct {
	connector *Connector
	checker   *StatusChecker
	logger    instagram.Logger
	config    HTTPConfig
}

// HTTPConfig configures the HTTP controller.
type HTTPConfig struct {
	// SessionContextKey is the router locals key holding the JWT (default: "user")
	SessionContextKey string

	// CookieName for the signed connection cookie (default: "ig_connect")
	CookieName string

	// CookieSecure sets the Secure flag on the connection cookie
	CookieSecure bool

	// CookieSameSite sets the SameSite attribute (default: "Lax")
	CookieSameSite string

	// ErrorHandler handles errors (optional)
	ErrorHandler func(ctx router.Context, err error) error
}

// NewHTTPController creates the integration HTTP controller.
func NewHTTPController(connector *Connector, checker *StatusChecker, cfg HTTPConfig, logger instagram.Logger) *HTTPController {
	if cfg.SessionContextKey == "" {
		cfg.SessionContextKey = "user"
	}
	if cfg.CookieName == "" {
		cfg.CookieName = "ig_connect"
	}
	if cfg.CookieSameSite == "" {
		cfg.CookieSameSite = "Lax"
	}
	if logger == nil {
		logger = instagram.DefaultLogger()
	}

	return &HTTPController{
		connector: connector,
		checker:   checker,
		logger:    logger,
		config:    cfg,
	}
}

// RegisterRoutes registers the integration routes.
func (c *HTTPController) RegisterRoutes(group RouteRegistrar) {
	group.Post("/connect", c.BeginConnect)
	group.Get("/connect/redeem", c.RedeemToken)
	group.Post("/connect/complete", c.CompleteConnect)
	group.Get("/status", c.Status)
	group.Post("/callbacks/deauthorize", c.Deauthorize)
}

// BeginConnect issues a one-time connection token for the current session.
func (c *HTTPController) BeginConnect(ctx router.Context) error {
	session, err := instagram.GetRouterSession(ctx, c.config.SessionContextKey)
	if err != nil {
		return ctx.JSON(router.StatusUnauthorized, map[string]string{
			"error": "authentication required",
		})
	}

	handoff, err := c.connector.BeginConnect(ctx.Context(), session)
	if err != nil {
		return c.handleError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, handoff)
}

// RedeemToken trades a one-time token for the signed connection cookie and
// redirects the browser to the provider login dialog.
func (c *HTTPController) RedeemToken(ctx router.Context) error {
	token := ctx.Query("token")
	if token == "" {
		return ctx.JSON(router.StatusBadRequest, map[string]string{
			"error": "missing token",
		})
	}

	redemption, err := c.connector.RedeemToken(ctx.Context(), token)
	if err != nil {
		return c.handleError(ctx, err)
	}

	ctx.Cookie(&router.Cookie{
		Name:     c.config.CookieName,
		Value:    redemption.Cookie,
		Path:     "/",
		Secure:   c.config.CookieSecure,
		HTTPOnly: true,
		SameSite: c.config.CookieSameSite,
	})

	return ctx.Redirect(redemption.AuthorizeURL, http.StatusTemporaryRedirect)
}

// CompleteConnectPayload carries the provider grant obtained by the
// host's OAuth exchange after the login dialog.
type CompleteConnectPayload struct {
	AccessToken    string `form:"access_token" json:"access_token"`
	FacebookUserID string `form:"facebook_user_id" json:"facebook_user_id"`
	ExpiresIn      int64  `form:"expires_in" json:"expires_in"`
}

// Validate will run validation rules
func (r CompleteConnectPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.AccessToken,
			validation.Required,
		),
	)
}

// CompleteConnect runs discovery with the provider token and stores the
// resulting connection.
func (c *HTTPController) CompleteConnect(ctx router.Context) error {
	payload := new(CompleteConnectPayload)

	if err := ctx.Bind(payload); err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]string{
			"error": "failed to parse body",
		})
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]string{
			"error": err.Error(),
		})
	}

	cookie := ctx.Cookies(c.config.CookieName)
	if cookie == "" {
		return c.handleError(ctx, ErrSessionExpired)
	}

	record, err := c.connector.CompleteConnect(ctx.Context(), cookie, Grant{
		AccessToken:    payload.AccessToken,
		FacebookUserID: payload.FacebookUserID,
		ExpiresIn:      payload.ExpiresIn,
	})
	if err != nil {
		return c.handleError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"connected":            record.IsActive,
		"instagram_account_id": record.InstagramBusinessAccountID,
		"instagram_username":   record.InstagramUsername,
		"facebook_page_id":     record.FacebookPageID,
		"reason":               record.LastConnectionError,
	})
}

// Status reports the verification state for the current session's user.
func (c *HTTPController) Status(ctx router.Context) error {
	session, err := instagram.GetRouterSession(ctx, c.config.SessionContextKey)
	if err != nil {
		return ctx.JSON(router.StatusUnauthorized, map[string]string{
			"error": "authentication required",
		})
	}

	ownerID, err := session.GetUserUUID()
	if err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]string{
			"error": "invalid user id",
		})
	}

	status, err := c.checker.Check(ctx.Context(), ownerID)
	if err != nil {
		return c.handleError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, status)
}

// DeauthorizePayload is Meta's signed callback body.
type DeauthorizePayload struct {
	SignedRequest string `form:"signed_request" json:"signed_request"`
}

// Validate will run validation rules
func (r DeauthorizePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.SignedRequest,
			validation.Required,
		),
	)
}

// Deauthorize handles the provider deauthorize callback.
func (c *HTTPController) Deauthorize(ctx router.Context) error {
	payload := new(DeauthorizePayload)

	if err := ctx.Bind(payload); err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]string{
			"error": "failed to parse body",
		})
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]string{
			"error": err.Error(),
		})
	}

	if err := c.connector.Deauthorize(ctx.Context(), payload.SignedRequest); err != nil {
		return c.handleError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]string{
		"status": "ok",
	})
}

func (c *HTTPController) handleError(ctx router.Context, err error) error {
	if c.config.ErrorHandler != nil {
		return c.config.ErrorHandler(ctx, err)
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		c.logger.Error("request failed text_code=%s: %s", richErr.TextCode, richErr.Message)

		status := richErr.Code
		if status == 0 {
			status = router.StatusInternalServerError
		}

		return ctx.JSON(status, map[string]string{
			"error":     richErr.Message,
			"text_code": richErr.TextCode,
		})
	}

	c.logger.Error("request failed: %v", err)
	return ctx.JSON(router.StatusInternalServerError, map[string]string{
		"error": "internal error",
	})
}
