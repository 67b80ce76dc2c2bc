package utils // package utils provides helper functions for token creation and hashing

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// Token verification failure modes. Verification is stateless: it checks
// only the signature and the embedded expiry, never the session store.
var (
	ErrTokenInvalid = errors.New("token signature invalid")
	ErrTokenExpired = errors.New("token expired")
)

// TokenPair bundles a freshly signed access/refresh token pair with the
// expiry instants embedded in each token. Both expiries are computed from
// the single `now` passed to NewTokenPair, not from separate clock reads.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// NewTokenPair builds and signs two HS256 JWTs for a user. The payload
// carries only the user id plus the standard exp/iat claims. accessTTL and
// refreshTTL control the lifetimes (15 minutes and 7 days in production
// config).
func NewTokenPair(secret string, userID uint64, accessTTL, refreshTTL time.Duration, now time.Time) (TokenPair, error) {
	accessExp := now.Add(accessTTL)
	refreshExp := now.Add(refreshTTL)

	access, err := signToken(secret, userID, now, accessExp)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := signToken(secret, userID, now, refreshExp)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func signToken(secret string, userID uint64, iat, exp time.Time) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     exp.Unix(),
		"iat":     iat.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(secret))
}

// ParseUserIDSignatureOnly verifies only the signature and returns the
// user id, ignoring the embedded expiry. The refresh path uses it so that
// an expired refresh token still resolves to its session row, which is
// then deleted as a side effect of the expiry check there.
func ParseUserIDSignatureOnly(secret, raw string) (uint64, error) {
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	tok, err := parser.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		return 0, ErrTokenInvalid
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return 0, ErrTokenInvalid
	}
	switch v := claims["user_id"].(type) {
	case float64:
		return uint64(v), nil
	default:
		return 0, ErrTokenInvalid
	}
}

// ParseUserID verifies a token's signature and expiry and returns the user
// id from its payload. Expired tokens and tokens signed with a different
// secret or algorithm are reported as distinct errors so the auth layer can
// log them apart.
func ParseUserID(secret, raw string) (uint64, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, ErrTokenExpired
		}
		return 0, ErrTokenInvalid
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok || !tok.Valid {
		return 0, ErrTokenInvalid
	}
	switch v := claims["user_id"].(type) {
	case float64:
		return uint64(v), nil
	default:
		return 0, ErrTokenInvalid
	}
}
