package protect

import (
	"context"

	"github.com/golang-jwt/jwt/v5"
)

// LockContext scopes key derivation (and therefore decryption) to a
// caller's verified identity. A LockContext starts Unbound; Identify
// exchanges a session token for a Bound context carrying the identity's
// claim, after which it can be attached to an Operation via
// Operation.WithLockContext.
//
// A zero-value LockContext is a valid, permanently Unbound context:
// operations that don't call Identify simply derive keys without an
// identity claim folded in (see identifierInfo in kms.go).
type LockContext struct {
	bound bool
	claim string
}

// Bound reports whether Identify has successfully run on this context.
func (lc *LockContext) Bound() bool {
	return lc != nil && lc.bound
}

// IdentityService verifies a caller-supplied session token and extracts
// the identity claim LockContext binds to. JWTIdentityService is the
// shipped implementation; production deployments may implement this
// against whatever session/identity system issues their tokens.
type IdentityService interface {
	VerifyToken(ctx context.Context, token string) (claim string, err error)
}

// JWTIdentityService verifies HS256-signed JWTs and extracts a
// configurable claim (default "sub") as the bound identity.
type JWTIdentityService struct {
	secret    []byte
	claimName string
}

// NewJWTIdentityService builds a JWTIdentityService keyed by secret,
// binding to the "sub" claim by default.
func NewJWTIdentityService(secret []byte, claimName string) *JWTIdentityService {
	if claimName == "" {
		claimName = "sub"
	}
	return &JWTIdentityService{secret: secret, claimName: claimName}
}

// VerifyToken parses and validates token, returning the configured
// claim's string value.
func (s *JWTIdentityService) VerifyToken(ctx context.Context, token string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, newFailure(KindLockContextError, "unexpected signing method", nil)
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithExpirationRequired())
	if err != nil {
		return "", newFailure(KindLockContextError, "session token verification failed", err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return "", newFailure(KindLockContextError, "session token claims malformed", nil)
	}

	value, ok := claims[s.claimName].(string)
	if !ok || value == "" {
		return "", newFailure(KindLockContextError, "session token missing "+s.claimName+" claim", nil)
	}
	return value, nil
}

// Identify exchanges a session token for a Bound LockContext carrying
// the verified identity claim. The returned context is independent of
// lc: Identify never mutates its receiver, matching the teacher
// package's immutable-value style.
func (lc *LockContext) Identify(ctx context.Context, svc IdentityService, token string) (*LockContext, *Failure) {
	claim, err := svc.VerifyToken(ctx, token)
	if err != nil {
		if f, ok := err.(*Failure); ok {
			return nil, f
		}
		return nil, newFailure(KindLockContextError, "identity verification failed", err)
	}
	return &LockContext{bound: true, claim: claim}, nil
}

