// Package google verifies Google ID tokens and drives the OAuth2
// authorization-code flow against Google's OpenID Connect provider.
package google

import (
	"context"
	"errors"
	"fmt"

	"donorregistry/internal/app"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// Issuer is Google's OpenID Connect issuer URL.
const Issuer = "https://accounts.google.com"

// ErrNoIDToken is returned when a token exchange response carries no id_token.
var ErrNoIDToken = errors.New("no id_token in token response")

// Verifier checks Google ID tokens and extracts the identity claims.
type Verifier struct {
	verifier *oidc.IDTokenVerifier
}

var _ app.AssertionVerifier = (*Verifier)(nil)

// NewVerifier discovers Google's provider metadata and returns a verifier
// bound to clientID.
func NewVerifier(ctx context.Context, clientID string) (*Verifier, *oidc.Provider, error) {
	provider, err := oidc.NewProvider(ctx, Issuer)
	if err != nil {
		return nil, nil, fmt.Errorf("oidc provider: %w", err)
	}
	return NewVerifierFrom(provider.Verifier(&oidc.Config{ClientID: clientID})), provider, nil
}

// NewVerifierFrom wraps an existing go-oidc verifier.
func NewVerifierFrom(v *oidc.IDTokenVerifier) *Verifier {
	return &Verifier{verifier: v}
}

// Verify checks signature, issuer, audience and expiry of rawIDToken.
func (v *Verifier) Verify(ctx context.Context, rawIDToken string) (app.ExternalIdentity, error) {
	tok, err := v.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return app.ExternalIdentity{}, err
	}
	// email_verified has been sent both as a boolean and as "true"/"false".
	var claims struct {
		Sub           string `json:"sub"`
		Email         string `json:"email"`
		EmailVerified any    `json:"email_verified"`
		Name          string `json:"name"`
	}
	if err := tok.Claims(&claims); err != nil {
		return app.ExternalIdentity{}, fmt.Errorf("parse claims: %w", err)
	}
	return app.ExternalIdentity{
		Subject:       claims.Sub,
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified == true || claims.EmailVerified == "true",
		Name:          claims.Name,
	}, nil
}

// CodeFlow is the server-side authorization-code flow.
type CodeFlow struct {
	config oauth2.Config
}

// NewCodeFlow builds the flow from discovered provider metadata.
func NewCodeFlow(provider *oidc.Provider, clientID, clientSecret, redirectURL string) *CodeFlow {
	return NewCodeFlowWithEndpoint(provider.Endpoint(), clientID, clientSecret, redirectURL)
}

// NewCodeFlowWithEndpoint builds the flow against an explicit endpoint.
func NewCodeFlowWithEndpoint(endpoint oauth2.Endpoint, clientID, clientSecret, redirectURL string) *CodeFlow {
	return &CodeFlow{config: oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Endpoint:     endpoint,
		Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
	}}
}

// AuthCodeURL returns the consent page URL carrying state.
func (f *CodeFlow) AuthCodeURL(state string) string {
	return f.config.AuthCodeURL(state)
}

// Exchange trades an authorization code for the raw ID token.
func (f *CodeFlow) Exchange(ctx context.Context, code string) (string, error) {
	token, err := f.config.Exchange(ctx, code)
	if err != nil {
		return "", err
	}
	raw, ok := token.Extra("id_token").(string)
	if !ok || raw == "" {
		return "", ErrNoIDToken
	}
	return raw, nil
}
