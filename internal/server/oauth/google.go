// Package oauth verifies external identity provider tokens.
package oauth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/api/idtoken"
)

var (
	// ErrMalformedToken means the credential is not even token-shaped.
	ErrMalformedToken = errors.New("malformed identity token")
	// ErrProviderRejected means the provider refused the token
	// (bad signature, wrong audience, expired).
	ErrProviderRejected = errors.New("identity provider rejected token")
)

// Identity is the subset of provider claims the auth flows need.
type Identity struct {
	Email string
}

// IDTokenVerifier validates a provider-issued identity token.
type IDTokenVerifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// GoogleVerifier validates Google ID tokens against a client ID audience.
type GoogleVerifier struct {
	clientID string
}

func NewGoogleVerifier(clientID string) *GoogleVerifier {
	return &GoogleVerifier{clientID: clientID}
}

// validate is a seam for tests.
var validate = idtoken.Validate

func (v *GoogleVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	if strings.Count(token, ".") != 2 {
		return nil, ErrMalformedToken
	}

	payload, err := validate(ctx, token, v.clientID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrProviderRejected, err)
	}

	email, _ := payload.Claims["email"].(string)
	if email == "" {
		return nil, fmt.Errorf("%w: token carries no email claim", ErrProviderRejected)
	}

	return &Identity{Email: email}, nil
}
