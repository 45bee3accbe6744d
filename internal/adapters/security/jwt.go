package security

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/carelink/mission-service/internal/ports"
	"github.com/golang-jwt/jwt/v5"
)

// HMACVerifier validates HS256 bearer tokens issued by the identity service
// that fronts patients, caregivers, doctors and admins.
type HMACVerifier struct {
	secret []byte
	issuer string
	leeway time.Duration
}

func NewHMACVerifier(secret, issuer string) (*HMACVerifier, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	return &HMACVerifier{secret: []byte(secret), issuer: issuer, leeway: 30 * time.Second}, nil
}

type careClaims struct {
	UserID    string `json:"user_id"`
	Role      string `json:"role"`
	ProfileID string `json:"profile_id,omitempty"`
	jwt.RegisteredClaims
}

// Verify falls back to the subject claim when user_id is absent.
func (v *HMACVerifier) Verify(_ context.Context, raw string) (ports.AuthClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(v.leeway),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	parsed, err := jwt.ParseWithClaims(raw, &careClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	}, opts...)
	if err != nil {
		return ports.AuthClaims{}, err
	}
	claims, ok := parsed.Claims.(*careClaims)
	if !ok || !parsed.Valid {
		return ports.AuthClaims{}, errors.New("invalid token claims")
	}
	userID := claims.UserID
	if userID == "" {
		userID = claims.Subject
	}
	return ports.AuthClaims{
		UserID:    userID,
		Role:      claims.Role,
		ProfileID: claims.ProfileID,
		Valid:     true,
	}, nil
}

// Sign mints a token with the same claim layout. Used by operators and tests
// to obtain tokens against a shared secret.
func (v *HMACVerifier) Sign(claims ports.AuthClaims, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, careClaims{
		UserID:    claims.UserID,
		Role:      claims.Role,
		ProfileID: claims.ProfileID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   claims.UserID,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	return token.SignedString(v.secret)
}
