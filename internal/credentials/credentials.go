// Package credentials resolves the Granola access token from the desktop
// app's credential file.
package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/starford/granola-sync/internal/storage"
)

// Reason classifies why a token could not be resolved.
type Reason string

const (
	ReasonPathNotConfigured Reason = "path_not_configured"
	ReasonPathAbsolute      Reason = "path_absolute"
	ReasonFileNotFound      Reason = "file_not_found"
	ReasonMalformedJSON     Reason = "malformed_json"
	ReasonTokenMissing      Reason = "token_missing"
	ReasonUnreachable       Reason = "unreachable"
)

// Error is returned by resolvers; callers inspect it with errors.As.
type Error struct {
	Reason Reason
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("credentials: %s: %v", e.Reason, e.Err)
	}
	return "credentials: " + string(e.Reason)
}

func (e *Error) Unwrap() error { return e.Err }

// Message returns a user-facing description of the failure.
func (e *Error) Message() string {
	switch e.Reason {
	case ReasonPathNotConfigured:
		return "No credentials file path is configured."
	case ReasonPathAbsolute:
		return "The credentials file path must be relative to the vault."
	case ReasonFileNotFound:
		return "The credentials file was not found."
	case ReasonMalformedJSON:
		return "The credentials file is not valid JSON."
	case ReasonTokenMissing:
		return "No access token found in credentials file. The token may have expired."
	case ReasonUnreachable:
		return "The credentials source could not be reached."
	default:
		return "Credentials could not be loaded."
	}
}

// Resolver yields the bearer token used for API calls.
type Resolver interface {
	Resolve(ctx context.Context) (string, error)
}

// FileResolver reads the credential file from the vault.
type FileResolver struct {
	Store storage.Provider
	// Path is relative to the vault root.
	Path string
}

// Resolve implements Resolver.
func (r *FileResolver) Resolve(_ context.Context) (string, error) {
	p := strings.TrimSpace(r.Path)
	if p == "" {
		return "", &Error{Reason: ReasonPathNotConfigured}
	}
	if filepath.IsAbs(p) || strings.HasPrefix(p, "/") {
		return "", &Error{Reason: ReasonPathAbsolute, Err: fmt.Errorf("path %q", p)}
	}
	ok, err := r.Store.Exists(p)
	if err != nil {
		return "", &Error{Reason: ReasonFileNotFound, Err: err}
	}
	if !ok {
		return "", &Error{Reason: ReasonFileNotFound, Err: fmt.Errorf("%s: %w", p, fs.ErrNotExist)}
	}
	data, err := r.Store.Read(p)
	if err != nil {
		return "", &Error{Reason: ReasonFileNotFound, Err: err}
	}
	return ParseToken(data)
}

// ParseToken extracts cognito_tokens.access_token from a credential file.
// cognito_tokens may be a JSON-encoded string or a nested object.
func ParseToken(data []byte) (string, error) {
	var file struct {
		CognitoTokens json.RawMessage `json:"cognito_tokens"`
	}
	if err := json.Unmarshal(data, &file); err != nil {
		return "", &Error{Reason: ReasonMalformedJSON, Err: err}
	}
	raw := file.CognitoTokens
	if len(raw) == 0 || string(raw) == "null" {
		return "", &Error{Reason: ReasonTokenMissing, Err: errors.New("cognito_tokens absent")}
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", &Error{Reason: ReasonMalformedJSON, Err: err}
		}
		raw = json.RawMessage(s)
	}
	var tokens struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(raw, &tokens); err != nil {
		return "", &Error{Reason: ReasonMalformedJSON, Err: fmt.Errorf("cognito_tokens: %w", err)}
	}
	if tokens.AccessToken == "" {
		return "", &Error{Reason: ReasonTokenMissing}
	}
	return tokens.AccessToken, nil
}
