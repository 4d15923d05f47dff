// Package auth locates the application credential and exchanges it for an
// access token through an interactive, browser-based consent flow.
package auth

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/Jaebeom-git/InferBiomechanics/internal/config"
	"github.com/Jaebeom-git/InferBiomechanics/internal/logging"
	"github.com/Jaebeom-git/InferBiomechanics/internal/remote"
)

// ErrCredentialsNotFound means no client secret file exists in the
// configured directory. Fatal; surfaced before any network call.
var ErrCredentialsNotFound = errors.New("no client secret file found")

// ErrAuthorizationDenied means the interactive consent was not completed.
var ErrAuthorizationDenied = errors.New("authorization not completed")

// FindClientSecret scans dir and returns the path of the first .json entry.
func FindClientSecret(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("%w: read %s: %v", ErrCredentialsNotFound, dir, err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), ".json") {
			return filepath.Join(dir, e.Name()), nil
		}
	}
	return "", fmt.Errorf("%w: no .json file in %s", ErrCredentialsNotFound, dir)
}

// Authenticator obtains an access token. The interactive flow implements
// it; tests substitute a double with a canned token.
type Authenticator interface {
	Token(ctx context.Context) (*oauth2.Token, error)
}

// ConsentFlow is the interactive Authenticator: it prints the consent URL,
// reads the authorization code from In, and exchanges it.
type ConsentFlow struct {
	Config *oauth2.Config
	In     io.Reader
	Out    io.Writer
}

// Token runs the consent flow. It blocks until the user pastes a code.
func (f *ConsentFlow) Token(ctx context.Context) (*oauth2.Token, error) {
	url := f.Config.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Fprintf(f.Out, "Open this link in your browser, authorize the app, and paste the code below:\n\n  %s\n\nCode: ", url)

	scanner := bufio.NewScanner(f.In)
	if !scanner.Scan() {
		return nil, ErrAuthorizationDenied
	}
	code := strings.TrimSpace(scanner.Text())
	if code == "" {
		return nil, ErrAuthorizationDenied
	}

	tok, err := f.Config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthorizationDenied, err)
	}
	return tok, nil
}

// Cached wraps an Authenticator with a token file: a valid saved token
// short-circuits the interactive flow, and a fresh token is saved after a
// successful exchange. No refresh is attempted — an expired saved token
// simply forces a new consent run.
type Cached struct {
	Store  TokenStore
	Source Authenticator
}

func (c Cached) Token(ctx context.Context) (*oauth2.Token, error) {
	if tok, err := c.Store.Load(); err == nil && tok.Valid() {
		logging.Debug("using saved token", logging.String("path", c.Store.Path))
		return tok, nil
	}

	tok, err := c.Source.Token(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.Store.Save(tok); err != nil {
		logging.Warn("failed to save token", logging.Err(err))
	}
	return tok, nil
}

// NewService locates the client secret, obtains a token, and returns the
// authenticated Drive handle reused for the whole session.
func NewService(ctx context.Context, cfg *config.Config) (*remote.DriveService, error) {
	secretPath, err := FindClientSecret(cfg.CredentialsDir)
	if err != nil {
		return nil, err
	}
	logging.Debug("using client secret", logging.String("path", secretPath))

	data, err := os.ReadFile(secretPath)
	if err != nil {
		return nil, fmt.Errorf("read client secret: %w", err)
	}

	oauthCfg, err := google.ConfigFromJSON(data, cfg.Scopes...)
	if err != nil {
		return nil, fmt.Errorf("parse client secret: %w", err)
	}

	authenticator := Cached{
		Store:  DefaultTokenStore(),
		Source: &ConsentFlow{Config: oauthCfg, In: os.Stdin, Out: os.Stdout},
	}
	tok, err := authenticator.Token(ctx)
	if err != nil {
		return nil, err
	}

	return remote.NewDrive(ctx, oauthCfg.Client(ctx, tok))
}
