package storage

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dkp-kub/bantuan-kub/internal/application/port"
)

const documentAudience = "document"

// ErrInvalidURLToken is returned when a retrieval token is malformed, tampered with or expired
var ErrInvalidURLToken = errors.New("invalid or expired document token")

type documentClaims struct {
	Path string `json:"path"`
	jwt.RegisteredClaims
}

// JWTURLSigner mints retrieval URLs carrying an HS256 token with the stored path and expiry
type JWTURLSigner struct {
	key     []byte
	baseURL string
	issuer  string
	now     func() time.Time
}

// NewJWTURLSigner creates a signer. baseURL is the public address of the file endpoint,
// e.g. "https://kub.example.go.id/files".
func NewJWTURLSigner(signingKey, baseURL, issuer string) *JWTURLSigner {
	return &JWTURLSigner{
		key:     []byte(signingKey),
		baseURL: baseURL,
		issuer:  issuer,
		now:     time.Now,
	}
}

// SignURL returns a URL for path valid for ttl, and its expiry time
func (s *JWTURLSigner) SignURL(path string, ttl time.Duration) (string, time.Time, error) {
	if path == "" {
		return "", time.Time{}, errors.New("empty document path")
	}
	if ttl <= 0 {
		return "", time.Time{}, fmt.Errorf("invalid url ttl %s", ttl)
	}

	now := s.now()
	expires := now.Add(ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, documentClaims{
		Path: path,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{documentAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	})

	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign document token: %w", err)
	}

	return s.baseURL + "?token=" + url.QueryEscape(signed), expires, nil
}

// Verify checks the token and returns the stored path it grants access to
func (s *JWTURLSigner) Verify(token string) (string, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(documentAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	var claims documentClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		return s.key, nil
	}, opts...)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURLToken, err)
	}
	if claims.Path == "" {
		return "", fmt.Errorf("%w: no path claim", ErrInvalidURLToken)
	}
	return claims.Path, nil
}

var _ port.URLSigner = (*JWTURLSigner)(nil)
