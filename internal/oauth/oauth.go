// Package oauth simulates a provider handshake for linking suppliers. No provider is
// contacted: tokens are fabricated once the callback presents a valid state.
package oauth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrUnknownProvider  = errors.New("unsupported oauth provider")
	ErrProviderMismatch = errors.New("oauth state was issued for a different provider")
)

// Providers lists the supported provider names.
var Providers = []string{"google", "microsoft"}

func ValidProvider(provider string) bool {
	for _, p := range Providers {
		if p == provider {
			return true
		}
	}
	return false
}

// Tokens are the credentials written onto a linked supplier.
type Tokens struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

type Service struct {
	store    StateStore
	stateTTL time.Duration
	tokenTTL time.Duration
	now      func() time.Time
}

func NewService(store StateStore, stateTTL, tokenTTL time.Duration) *Service {
	return &Service{store: store, stateTTL: stateTTL, tokenTTL: tokenTTL, now: time.Now}
}

// Begin records a new state for the supplier and returns it.
func (s *Service) Begin(ctx context.Context, provider string, supplierID uint) (State, error) {
	if !ValidProvider(provider) {
		return State{}, ErrUnknownProvider
	}
	state := State{
		Value:      strings.ReplaceAll(uuid.NewString(), "-", ""),
		SupplierID: supplierID,
		Provider:   provider,
		ExpiresAt:  s.now().Add(s.stateTTL).UTC(),
	}
	if err := s.store.Save(ctx, state); err != nil {
		return State{}, err
	}
	return state, nil
}

// Complete consumes the state and issues tokens. The state is spent even when the
// provider does not match.
func (s *Service) Complete(ctx context.Context, provider, value string) (State, Tokens, error) {
	if !ValidProvider(provider) {
		return State{}, Tokens{}, ErrUnknownProvider
	}
	if strings.TrimSpace(value) == "" {
		return State{}, Tokens{}, ErrStateNotFound
	}

	state, err := s.store.Consume(ctx, value)
	if err != nil {
		return State{}, Tokens{}, err
	}
	if state.Provider != provider {
		return State{}, Tokens{}, ErrProviderMismatch
	}
	return state, s.issueTokens(provider), nil
}

func (s *Service) issueTokens(provider string) Tokens {
	return Tokens{
		AccessToken:  fmt.Sprintf("mock_%s_access_%s", provider, uuid.NewString()),
		RefreshToken: fmt.Sprintf("mock_%s_refresh_%s", provider, uuid.NewString()),
		ExpiresAt:    s.now().Add(s.tokenTTL).UTC(),
	}
}

// CallbackURL is the redirect target handed to the client for state.
func CallbackURL(provider, state string) string {
	q := url.Values{}
	q.Set("state", state)
	q.Set("code", "mock_code")
	return fmt.Sprintf("/api/auth/%s/callback?%s", url.PathEscape(provider), q.Encode())
}
