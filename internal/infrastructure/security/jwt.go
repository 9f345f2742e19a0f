package security

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the parts of an identity-provider session token the API uses.
type Claims struct {
	UserID   string
	Role     string
	Name     string
	Email    string
	ImageURL string
}

// TokenVerifier validates session tokens issued by the identity provider.
// HS256 tokens are checked against a shared secret, RS256 tokens against a
// PEM encoded public key.
type TokenVerifier struct {
	method jwt.SigningMethod
	key    interface{}
}

func NewTokenVerifier(alg, key string) (*TokenVerifier, error) {
	switch strings.ToUpper(alg) {
	case "HS256":
		return &TokenVerifier{method: jwt.SigningMethodHS256, key: []byte(key)}, nil
	case "RS256", "":
		pub, err := jwt.ParseRSAPublicKeyFromPEM([]byte(key))
		if err != nil {
			return nil, fmt.Errorf("parse session public key: %w", err)
		}
		return &TokenVerifier{method: jwt.SigningMethodRS256, key: pub}, nil
	default:
		return nil, fmt.Errorf("unsupported session token algorithm %q", alg)
	}
}

func (v *TokenVerifier) Verify(tokenStr string) (*Claims, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != v.method.Alg() {
			return nil, errors.New("unexpected signing method")
		}
		return v.key, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}

	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}

	sub, _ := mc["sub"].(string)
	if sub == "" {
		return nil, errors.New("token has no subject")
	}

	return &Claims{
		UserID:   sub,
		Role:     roleClaim(mc),
		Name:     stringClaim(mc, "name"),
		Email:    stringClaim(mc, "email"),
		ImageURL: stringClaim(mc, "image_url"),
	}, nil
}

// roleClaim reads "role" or the role stored in the provider's metadata.
func roleClaim(mc jwt.MapClaims) string {
	if r := stringClaim(mc, "role"); r != "" {
		return r
	}
	for _, k := range []string{"metadata", "public_metadata"} {
		if m, ok := mc[k].(map[string]interface{}); ok {
			if r, ok := m["role"].(string); ok {
				return r
			}
		}
	}
	return ""
}

func stringClaim(mc jwt.MapClaims, key string) string {
	s, _ := mc[key].(string)
	return s
}
