package integration

import (
	"context"
	"net/url"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	instagram "github.com/goliatone/go-instagram"
	"github.com/goliatone/go-instagram/graph"
	"github.com/goliatone/go-instagram/handoff"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// DefaultAuthorizeURL is the Facebook login dialog the redemption
// redirect points at.
const DefaultAuthorizeURL = "https://www.facebook.com/v21.0/dialog/oauth"

// DefaultConnectPath is where the frontend sends users holding a fresh
// connection token.
const DefaultConnectPath = "/instagram/connect"

// GraphClient captures the discovery queries the connector needs.
type GraphClient interface {
	ListPages(ctx context.Context, accessToken string) ([]graph.Page, error)
	PageLinkage(ctx context.Context, pageID, accessToken string) (*graph.Linkage, error)
	AccountProfile(ctx context.Context, accountID, accessToken string) (*graph.Profile, error)
}

// Handoff is the result of starting a connection from an authenticated
// session.
type Handoff struct {
	Token        string `json:"token"`
	RedirectPath string `json:"redirect_path"`
	ExpiresIn    int    `json:"expires_in"`
}

// Redemption trades a one-time token for the browser-side connection
// artifacts: the signed identity cookie and the provider authorize URL.
type Redemption struct {
	Cookie       string `json:"-"`
	AuthorizeURL string `json:"authorize_url"`
}

// Grant is the provider credential the host's OAuth exchange hands over
// once the login dialog completes.
type Grant struct {
	AccessToken    string
	FacebookUserID string

	// ExpiresIn is the credential lifetime in seconds, zero when the
	// provider omitted it.
	ExpiresIn int64
}

// Connector orchestrates the connection flow from session handoff to the
// persisted Business row.
type Connector struct {
	repo   instagram.RepositoryManager
	users  instagram.UserProvider
	graph  GraphClient
	config instagram.Config
	codec  *handoff.Codec
	tokens handoff.TokenStore
	logger instagram.Logger
	now    func() time.Time
}

// ConnectorOption configures a Connector.
type ConnectorOption func(*Connector)

// WithLogger sets the connector logger.
func WithLogger(logger instagram.Logger) ConnectorOption {
	return func(c *Connector) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithCodec overrides the cookie codec.
func WithCodec(codec *handoff.Codec) ConnectorOption {
	return func(c *Connector) {
		if codec != nil {
			c.codec = codec
		}
	}
}

// WithTokenStore overrides the one-time token store.
func WithTokenStore(store handoff.TokenStore) ConnectorOption {
	return func(c *Connector) {
		if store != nil {
			c.tokens = store
		}
	}
}

// WithConnectorClock overrides the time source, mostly for tests.
func WithConnectorClock(now func() time.Time) ConnectorOption {
	return func(c *Connector) {
		if now != nil {
			c.now = now
		}
	}
}

// NewConnector creates a connection orchestrator.
func NewConnector(
	repo instagram.RepositoryManager,
	users instagram.UserProvider,
	client GraphClient,
	config instagram.Config,
	opts ...ConnectorOption,
) *Connector {
	c := &Connector{
		repo:   repo,
		users:  users,
		graph:  client,
		config: config,
		logger: instagram.DefaultLogger(),
		now:    time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	if c.codec == nil {
		c.codec = handoff.NewCodec([]byte(config.GetCookieSecret()))
	}
	if c.tokens == nil {
		c.tokens = handoff.NewMemoryStore()
	}

	return c
}

// BeginConnect issues a one-time token for the authenticated session so
// the browser can open the connection flow without carrying the session
// credential across origins.
func (c *Connector) BeginConnect(ctx context.Context, session instagram.Session) (*Handoff, error) {
	token, expiresIn, err := c.tokens.Issue(ctx, session.GetUserID())
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue connection token")
	}

	return &Handoff{
		Token:        token,
		RedirectPath: DefaultConnectPath + "?token=" + url.QueryEscape(token),
		ExpiresIn:    int(expiresIn.Seconds()),
	}, nil
}

// RedeemToken consumes a one-time token, mints the signed identity
// cookie, and builds the provider authorize URL the browser should visit.
func (c *Connector) RedeemToken(ctx context.Context, token string) (*Redemption, error) {
	userID, err := c.tokens.Consume(ctx, token)
	if err != nil {
		return nil, err
	}

	return &Redemption{
		Cookie:       c.codec.MintCookie(userID),
		AuthorizeURL: c.AuthorizeURL(),
	}, nil
}

// AuthorizeURL builds the Facebook login dialog URL from configuration.
func (c *Connector) AuthorizeURL() string {
	base := c.config.GetAuthorizeURL()
	if base == "" {
		base = DefaultAuthorizeURL
	}

	params := url.Values{
		"client_id":     {c.config.GetAppID()},
		"redirect_uri":  {c.config.GetRedirectURI()},
		"response_type": {"code"},
		"scope":         {strings.Join(c.config.GetScopes(), ",")},
	}

	if configID := c.config.GetConfigID(); configID != "" {
		params.Set("config_id", configID)
	}

	return base + "?" + params.Encode()
}

// CompleteConnect runs page and account discovery with the provider
// grant and replaces the user's connection rows with the outcome. The
// cookie must be the one minted during redemption. Prior rows and their
// credentials are removed before discovery; when discovery then fails, a
// placeholder error row is written so the user is never left with a
// silently deleted connection.
func (c *Connector) CompleteConnect(ctx context.Context, cookie string, grant Grant) (*instagram.Business, error) {
	userID, err := c.codec.VerifyCookie(cookie)
	if err != nil {
		c.logger.Debug("connection cookie rejected: %v", err)
		return nil, ErrSessionExpired
	}

	identity, err := c.users.FindIdentityByID(ctx, userID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	ownerID, err := uuid.Parse(identity.ID())
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "identity id is not a uuid")
	}

	err = c.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return c.repo.Businesses().DeleteByOwnerIDTx(ctx, tx, ownerID)
	})
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to remove previous connection")
	}

	record, discoverErr := c.discover(ctx, ownerID, grant)
	if discoverErr != nil {
		record = c.newRecord(ownerID, grant)
		c.markFailure(record, discoverErr)
	}

	if _, err := c.repo.Businesses().Save(ctx, record); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist connection")
	}

	if discoverErr != nil {
		return nil, goerrors.Wrap(discoverErr, goerrors.CategoryInternal, "failed to list managed pages")
	}

	c.logger.Info("connection stored owner=%s ig=%s active=%t reason=%s token=%s",
		ownerID, record.InstagramBusinessAccountID, record.IsActive,
		record.LastConnectionError, instagram.TokenPreview(record.AccessToken))

	return record, nil
}

// newRecord seeds a Business row with the grant's credential. The user
// token is what later status checks list Pages with, so it is stored even
// on placeholder rows.
func (c *Connector) newRecord(ownerID uuid.UUID, grant Grant) *instagram.Business {
	record := &instagram.Business{
		OwnerID:        ownerID,
		FacebookUserID: grant.FacebookUserID,
		AccessToken:    grant.AccessToken,
		IsActive:       false,
	}

	if grant.ExpiresIn > 0 {
		expiresAt := c.now().Add(time.Duration(grant.ExpiresIn) * time.Second)
		record.TokenExpiresAt = &expiresAt
	}

	return record
}

// markFailure classifies a discovery error onto the placeholder row,
// opening the cooldown window when Meta reports the new-admin wait.
func (c *Connector) markFailure(record *instagram.Business, err error) {
	now := c.now()

	reason := reasonForFailure(err)
	if reason == instagram.ReasonAdminCooldown {
		retryAt := now.Add(instagram.AdminCooldownPeriod)
		record.ConnectionRetryAt = &retryAt
	}

	record.MarkError(reason, now)
}

// discover walks the user's Pages looking for the first one with a linked
// Instagram professional account. Page tokens are preferred for the
// linkage lookup, falling back to the user token when Meta withholds one;
// the stored credential is always the user token.
func (c *Connector) discover(ctx context.Context, ownerID uuid.UUID, grant Grant) (*instagram.Business, error) {
	now := c.now()

	pages, err := c.graph.ListPages(ctx, grant.AccessToken)
	if err != nil {
		return nil, err
	}

	record := c.newRecord(ownerID, grant)

	pageIDs := make([]string, 0, len(pages))
	for _, page := range pages {
		pageIDs = append(pageIDs, page.ID)
	}
	record.SetPageIDs(pageIDs)

	if len(pages) == 0 {
		record.MarkError(instagram.ReasonNoPagesFound, now)
		return record, nil
	}

	for _, page := range pages {
		token := page.AccessToken
		if token == "" {
			token = grant.AccessToken
		}

		linkage, err := c.graph.PageLinkage(ctx, page.ID, token)
		if err != nil {
			c.logger.Debug("linkage lookup failed page=%s: %v", page.ID, err)
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

		if profile, err := c.graph.AccountProfile(ctx, igID, token); err == nil {
			record.InstagramUsername = profile.Username
			if profile.Name != "" {
				record.Name = profile.Name
			}
		} else {
			c.logger.Debug("profile lookup failed account=%s: %v", igID, err)
		}

		record.MarkVerified(now)
		return record, nil
	}

	record.FacebookPageID = pages[0].ID
	record.MarkError(instagram.ReasonIGNotLinkedToPage, now)
	return record, nil
}

// Deauthorize handles Meta's signed deauthorize callback by anonymizing
// every row mapped to the Instagram account named in the payload.
func (c *Connector) Deauthorize(ctx context.Context, signedRequest string) error {
	parser := handoff.NewSignedRequestParser(c.config.GetAppSecret())

	req, err := parser.Parse(signedRequest)
	if err != nil {
		return err
	}

	if req.InstagramBusinessAccountID == "" {
		c.logger.Info("deauthorize callback without account id user=%s", req.UserID)
		return nil
	}

	if err := c.repo.Businesses().AnonymizeByInstagramAccountID(ctx, req.InstagramBusinessAccountID); err != nil {
		if goerrors.IsNotFound(err) {
			return nil
		}
		return err
	}

	c.logger.Info("connection anonymized account=%s", req.InstagramBusinessAccountID)
	return nil
}
