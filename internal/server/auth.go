package server

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	svcErr "github.com/oggyb/anonchat/internal/errors"
)

const RoleAdmin = "admin"

// Claims carried by API tokens. Subject names the calling adapter.
type Claims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

type claimsKey struct{}

// ClaimsFrom returns the verified claims of the current call.
func ClaimsFrom(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(*Claims)
	return c, ok
}

// IssueToken signs an HS256 token for subject with role.
func IssueToken(secret, subject, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    "anonchat",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return s, nil
}

func parseToken(secret, raw string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// AuthInterceptor requires "authorization: Bearer <jwt>" on every call and
// the admin role on adminMethods.
func AuthInterceptor(secret string, adminMethods map[string]bool) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		md, _ := metadata.FromIncomingContext(ctx)
		values := md.Get("authorization")
		if len(values) == 0 {
			return nil, svcErr.Unauthenticated("missing bearer token")
		}
		raw, ok := strings.CutPrefix(values[0], "Bearer ")
		if !ok {
			return nil, svcErr.Unauthenticated("authorization must be a bearer token")
		}

		claims, err := parseToken(secret, strings.TrimSpace(raw))
		if err != nil {
			return nil, svcErr.Unauthenticated("invalid token")
		}
		if adminMethods[info.FullMethod] && claims.Role != RoleAdmin {
			return nil, svcErr.PermissionDenied("admin role required")
		}
		return handler(context.WithValue(ctx, claimsKey{}, claims), req)
	}
}
