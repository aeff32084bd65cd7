package xero

import (
	"fmt"
	"math"
	"time"

	"golang.org/x/oauth2"

	apperrors "github.com/jrsteele09/go-xero-service/internal/errors"
)

// TokenPayload is the validated response from Xero's token endpoint, for
// either grant type. ExpiresIn is the provider-supplied relative lifetime in
// seconds; zero means the provider omitted it and the store applies its
// default.
type TokenPayload struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
	Scope        string `json:"scope,omitempty"`
}

// ExchangeError is returned when the provider rejects a token request or the
// request fails in transport. Body carries the provider's response where one
// was received.
type ExchangeError struct {
	Op         string // "exchange_code" or "refresh"
	StatusCode int    // zero on transport failure
	Body       string
	Err        error
}

func (e *ExchangeError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("xero %s: provider returned %d: %s", e.Op, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("xero %s: %v", e.Op, e.Err)
}

func (e *ExchangeError) Unwrap() error {
	return e.Err
}

// Is matches ErrExchangeFailed so callers can test with errors.Is without
// needing the concrete type.
func (e *ExchangeError) Is(target error) bool {
	return target == apperrors.ErrExchangeFailed
}

func newExchangeError(op string, err error) *ExchangeError {
	exchErr := &ExchangeError{Op: op, Err: err}
	var retrieveErr *oauth2.RetrieveError
	if apperrors.As(err, &retrieveErr) {
		if retrieveErr.Response != nil {
			exchErr.StatusCode = retrieveErr.Response.StatusCode
		}
		exchErr.Body = string(retrieveErr.Body)
	}
	return exchErr
}

// payloadFromToken validates the provider response at the boundary. A
// response without an access token is rejected here rather than surfacing as
// a missing-field failure deeper in the request path.
func payloadFromToken(op string, tok *oauth2.Token) (TokenPayload, error) {
	if tok.AccessToken == "" {
		return TokenPayload{}, &ExchangeError{
			Op:  op,
			Err: fmt.Errorf("provider response contained no access_token"),
		}
	}

	expiresIn := tok.ExpiresIn
	if expiresIn == 0 && !tok.Expiry.IsZero() {
		expiresIn = int64(math.Round(time.Until(tok.Expiry).Seconds()))
	}

	scope, _ := tok.Extra("scope").(string)

	return TokenPayload{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresIn:    expiresIn,
		TokenType:    tok.Type(),
		Scope:        scope,
	}, nil
}
