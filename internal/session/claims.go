package session

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the subset of token claims used to describe a user.
type Claims struct {
	ID   string
	Name string
	Role string
}

// Decoder extracts claims from a token. It is best effort: ok is false when
// the token cannot be read, and callers carry on without claims.
type Decoder interface {
	DecodeClaims(token string) (Claims, bool)
}

// DecoderFunc adapts a function to Decoder.
type DecoderFunc func(token string) (Claims, bool)

// DecodeClaims implements Decoder.
func (f DecoderFunc) DecodeClaims(token string) (Claims, bool) { return f(token) }

// NoClaims never decodes anything.
var NoClaims Decoder = DecoderFunc(func(string) (Claims, bool) { return Claims{}, false })

// JWTDecoder reads claims from a JWT payload. The signature is not checked:
// the server is the only party that can verify it and will reject a forged
// token on the next request anyway.
type JWTDecoder struct {
	parser *jwt.Parser
}

// NewJWTDecoder returns a decoder for the storefront's tokens.
func NewJWTDecoder() *JWTDecoder {
	return &JWTDecoder{parser: jwt.NewParser()}
}

var idClaimKeys = []string{"userId", "id", "_id", "sub"}

// DecodeClaims implements Decoder.
func (d *JWTDecoder) DecodeClaims(token string) (Claims, bool) {
	claims, err := d.mapClaims(token)
	if err != nil {
		return Claims{}, false
	}
	var out Claims
	for _, key := range idClaimKeys {
		if v := stringClaim(claims, key); v != "" {
			out.ID = v
			break
		}
	}
	out.Name = stringClaim(claims, "name")
	out.Role = stringClaim(claims, "role")
	return out, true
}

func (d *JWTDecoder) mapClaims(token string) (jwt.MapClaims, error) {
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("empty token")
	}
	parser := d.parser
	if parser == nil {
		parser = jwt.NewParser()
	}
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	return claims, nil
}

func stringClaim(claims jwt.MapClaims, key string) string {
	switch v := claims[key].(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	default:
		return ""
	}
}

// mergeClaims fills the user fields the API left out. An email without a
// name yields the email's local part as display name.
func mergeClaims(u User, c Claims) User {
	if u.ID == "" {
		u.ID = c.ID
	}
	if u.Name == "" {
		u.Name = c.Name
	}
	if u.Role == "" {
		u.Role = c.Role
	}
	if u.Name == "" && u.Email != "" {
		if local, _, ok := strings.Cut(u.Email, "@"); ok {
			u.Name = local
		}
	}
	return u
}
