package auth

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotorgate/rotorgate/internal/apperr"
	"github.com/rotorgate/rotorgate/internal/registry"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"
)

const (
	// refreshSkew is how close to expiry a token may get before a refresh
	// is attempted.
	refreshSkew = 60 * time.Second

	googleTokenURL = "https://oauth2.googleapis.com/token"

	antigravityClientID     = "1071006060591-tmhssin2h21lcre235vtolojh4g403ep.apps.googleusercontent.com"
	antigravityClientSecret = "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"

	codexVerifyURL = "https://chatgpt.com/backend-api/me"
)

// Lifecycle performs provider-specific credential refresh and persists the
// result through the store. Refresh is never retried here; one failed
// attempt is terminal for the call and surfaces to the gateway.
type Lifecycle struct {
	store  Store
	client *http.Client

	// overridable in tests
	tokenURL  string
	verifyURL string
}

// NewLifecycle creates a lifecycle manager backed by store.
func NewLifecycle(store Store, client *http.Client) *Lifecycle {
	if client == nil {
		client = http.DefaultClient
	}
	return &Lifecycle{
		store:     store,
		client:    client,
		tokenURL:  googleTokenURL,
		verifyURL: codexVerifyURL,
	}
}

// EnsureFresh refreshes the account when it expires within the skew window.
// The account is mutated in place and written back through the store. On
// failure the error is tagged AuthExpired and the account is left unusable
// until externally re-added.
func (l *Lifecycle) EnsureFresh(ctx context.Context, account *Account) error {
	if account == nil {
		return apperr.AuthExpired(fmt.Errorf("missing account"))
	}
	if !account.ExpiresWithin(refreshSkew) {
		return nil
	}
	var err error
	switch account.Provider {
	case registry.ProviderAntigravity:
		err = l.refreshGoogle(ctx, account)
	case registry.ProviderCodex:
		err = l.verifyCodex(ctx, account)
	default:
		err = fmt.Errorf("unknown provider %q", account.Provider)
	}
	if err != nil {
		return apperr.AuthExpired(err)
	}
	if errSave := l.store.Save(account); errSave != nil {
		log.Warnf("credential lifecycle: persist refreshed account %s failed: %v", account.ID, errSave)
	}
	return nil
}

// refreshGoogle exchanges the refresh token for a new access token.
func (l *Lifecycle) refreshGoogle(ctx context.Context, account *Account) error {
	refreshToken := account.Snapshot().RefreshToken
	if refreshToken == "" {
		return fmt.Errorf("missing refresh token")
	}
	conf := &oauth2.Config{
		ClientID:     antigravityClientID,
		ClientSecret: antigravityClientSecret,
		Endpoint:     oauth2.Endpoint{TokenURL: l.tokenURL},
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, l.client)
	token, err := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return fmt.Errorf("refresh token exchange: %w", err)
	}
	account.ApplyTokens(token.AccessToken, token.RefreshToken, token.Expiry.UnixMilli())
	log.Debugf("credential lifecycle: refreshed google token for %s, expires %s", account.ID, token.Expiry.Format(time.RFC3339))
	return nil
}

// verifyCodex probes the ChatGPT backend for liveness. There is no true
// refresh for this provider; a 2xx answer re-reads the current email and
// pushes the expiry horizon out, anything else is terminal.
func (l *Lifecycle) verifyCodex(ctx context.Context, account *Account) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.verifyURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+account.Snapshot().AccessToken)
	req.Header.Set("Accept", "application/json")

	resp, errDo := l.client.Do(req)
	if errDo != nil {
		return errDo
	}
	defer func() {
		if errClose := resp.Body.Close(); errClose != nil {
			log.Errorf("credential lifecycle: close verify body error: %v", errClose)
		}
	}()
	body, errRead := io.ReadAll(resp.Body)
	if errRead != nil {
		return errRead
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("verify call returned %d", resp.StatusCode)
	}
	account.ApplyVerification(gjson.GetBytes(body, "email").String(), time.Now().Add(12*time.Hour).UnixMilli())
	return nil
}

// RefreshAll ensures every near-expiry account is refreshed. Used once at
// process start when the pool is populated. Failures deactivate the account
// for this run rather than aborting startup.
func (l *Lifecycle) RefreshAll(ctx context.Context, accounts []*Account) {
	for _, account := range accounts {
		if account == nil || !account.Active {
			continue
		}
		if err := l.EnsureFresh(ctx, account); err != nil {
			log.Warnf("credential lifecycle: startup refresh for %s (%s) failed: %v", account.ID, account.Provider, err)
			account.Active = false
		}
	}
}
