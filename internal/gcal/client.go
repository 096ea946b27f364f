// Package gcal implements the external calendar capability on top of the
// Google Calendar API: freebusy reads and idempotent event creation.
package gcal

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// Client wraps the Google Calendar API client
type Client struct {
	service    *calendar.Service
	config     *oauth2.Config
	tokenFile  string
	token      *oauth2.Token
	calendarID string
}

// NewClient creates a new Google Calendar client for a single calendar. The
// OAuth redirect URL points at the HTTP server's callback route, so httpPort
// must be the port the server listens on.
func NewClient(credentialsFile, tokenFile, calendarID string, httpPort int) (*Client, error) {
	config, err := loadOAuthConfig(credentialsFile, httpPort)
	if err != nil {
		return nil, fmt.Errorf("failed to load OAuth config: %w", err)
	}

	if calendarID == "" {
		calendarID = "primary"
	}

	client := &Client{
		config:     config,
		tokenFile:  tokenFile,
		calendarID: calendarID,
	}

	token, err := loadToken(tokenFile)
	if err == nil {
		client.token = token
		if err := client.tryInitService(); err != nil {
			// Token might be expired; the operator will need to re-auth.
			slog.Warn("could not initialize calendar service with existing token", "error", err)
		}
	}

	return client, nil
}

// tryInitService attempts to initialize the service, refreshing the token if needed
func (c *Client) tryInitService() error {
	if c.token == nil {
		return fmt.Errorf("no token available")
	}

	ctx := context.Background()

	if !c.token.Valid() && c.token.RefreshToken != "" {
		tokenSource := c.config.TokenSource(ctx, c.token)
		newToken, err := tokenSource.Token()
		if err != nil {
			return fmt.Errorf("failed to refresh token: %w", err)
		}
		c.token = newToken
		if err := saveToken(c.tokenFile, newToken); err != nil {
			slog.Warn("could not save refreshed token", "error", err)
		}
	}

	return c.initService(ctx)
}

// IsAuthenticated returns true if the client is authenticated
func (c *Client) IsAuthenticated() bool {
	return c.service != nil
}

// GetAuthURL returns the OAuth authorization URL
func (c *Client) GetAuthURL() string {
	return c.config.AuthCodeURL("state-token", oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// initService initializes the Calendar service with the current token
func (c *Client) initService(ctx context.Context) error {
	if c.token == nil {
		return fmt.Errorf("no token available")
	}

	httpClient := c.config.Client(ctx, c.token)
	service, err := calendar.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return fmt.Errorf("failed to create calendar service: %w", err)
	}

	c.service = service
	return nil
}

// ExchangeCode exchanges an authorization code for a token and saves it
func (c *Client) ExchangeCode(ctx context.Context, code string) error {
	token, err := c.config.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to exchange code for token: %w", err)
	}

	c.token = token
	if err := saveToken(c.tokenFile, token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}

	return c.initService(ctx)
}
