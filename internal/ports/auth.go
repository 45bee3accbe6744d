package ports

import "context"

type AuthClaims struct {
	UserID    string
	Role      string
	ProfileID string
	Valid     bool
}

type TokenVerifier interface {
	Verify(ctx context.Context, token string) (AuthClaims, error)
}
