package artifacts

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const artifactAudience = "artifact"

// URLSigner mints and checks download tokens scoped to a single artifact key.
type URLSigner struct {
	secret  []byte
	baseURL string
	now     func() time.Time
}

// NewURLSigner creates a signer producing URLs under baseURL + "/artifacts/".
func NewURLSigner(secret, baseURL string) (*URLSigner, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("artifact signing secret is required")
	}

	return &URLSigner{
		secret:  []byte(secret),
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     time.Now,
	}, nil
}

// URL returns the signed download URL of key and the expiry embedded in its token.
func (s *URLSigner) URL(key string, ttl time.Duration) (string, time.Time, error) {
	if ttl <= 0 {
		ttl = DefaultURLTTL
	}

	now := s.now().UTC()
	expiresAt := now.Add(ttl).Truncate(time.Second)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   key,
		Audience:  jwt.ClaimStrings{artifactAudience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign artifact url: %w", err)
	}

	return s.baseURL + "/artifacts/" + key + "?token=" + url.QueryEscape(token), expiresAt, nil
}

// Verify returns ErrInvalidToken unless token was signed for key and has not expired.
func (s *URLSigner) Verify(key, token string) error {
	var claims jwt.RegisteredClaims

	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(artifactAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if claims.Subject != key {
		return ErrInvalidToken
	}

	return nil
}
