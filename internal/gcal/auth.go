package gcal

import (
	"encoding/json"
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
)

// CallbackPath is the path the HTTP server serves the OAuth redirect on.
const CallbackPath = "/oauth/callback"

// getOAuthCallbackURL returns the OAuth callback URL, using BOOKWISE_BASE_URL
// if set and the server's own port otherwise.
func getOAuthCallbackURL(httpPort int) string {
	if baseURL := os.Getenv("BOOKWISE_BASE_URL"); baseURL != "" {
		return baseURL + CallbackPath
	}
	return fmt.Sprintf("http://localhost:%d%s", httpPort, CallbackPath)
}

// OAuthScopes contains only Calendar scopes
var OAuthScopes = []string{
	calendar.CalendarScope,
}

// loadOAuthConfig loads OAuth2 configuration from credentials file or environment variable
func loadOAuthConfig(credentialsFile string, httpPort int) (*oauth2.Config, error) {
	// Try environment variable first (useful for container deployments)
	if credJSON := os.Getenv("GOOGLE_CREDENTIALS_JSON"); credJSON != "" {
		config, err := google.ConfigFromJSON([]byte(credJSON), OAuthScopes...)
		if err == nil {
			config.RedirectURL = getOAuthCallbackURL(httpPort)
			return config, nil
		}
	}

	// Try specified file
	if credentialsFile != "" {
		if config, err := loadConfigFromFile(credentialsFile, httpPort); err == nil {
			return config, nil
		}
	}

	// Try default credentials.json in current directory
	if config, err := loadConfigFromFile("./credentials.json", httpPort); err == nil {
		return config, nil
	}

	return nil, fmt.Errorf("no credentials file found - please provide credentials.json or set GOOGLE_CREDENTIALS_JSON env var")
}

// loadConfigFromFile attempts to load OAuth config from a file
func loadConfigFromFile(path string, httpPort int) (*oauth2.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config, err := google.ConfigFromJSON(data, OAuthScopes...)
	if err != nil {
		return nil, err
	}

	config.RedirectURL = getOAuthCallbackURL(httpPort)
	return config, nil
}

// loadToken reads a saved OAuth token from disk.
func loadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("failed to parse token file: %w", err)
	}
	return &token, nil
}

// saveToken writes an OAuth token to disk with owner-only permissions.
func saveToken(path string, token *oauth2.Token) error {
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}
