package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/kottos/pkg/domain/types"
)

// AuthUseCaseInterface resolves the requester of an API call
type AuthUseCaseInterface interface {
	// Authenticate verifies a bearer token and returns the requester
	Authenticate(ctx context.Context, token string) (types.UserID, error)
	IsNoAuthn() bool
}

const (
	// DefaultUserClaim holds the requester's user ID
	DefaultUserClaim = "sub"

	keySetRefreshInterval = time.Hour
)

// AuthUseCase verifies JWTs signed by a key of a JWK set
type AuthUseCase struct {
	jwksURL   string
	audience  string
	issuer    string
	userClaim string
	cache     *authCache

	keyMu     sync.Mutex
	keySet    jwk.Set
	fetchedAt time.Time
	static    bool
}

// AuthOption is a functional option for AuthUseCase
type AuthOption func(*AuthUseCase)

// WithKeySet uses a fixed key set instead of fetching the JWKS URL
func WithKeySet(set jwk.Set) AuthOption {
	return func(uc *AuthUseCase) {
		uc.keySet = set
		uc.static = true
	}
}

// WithIssuer requires the iss claim to match
func WithIssuer(issuer string) AuthOption {
	return func(uc *AuthUseCase) {
		uc.issuer = issuer
	}
}

// WithUserClaim selects the claim that carries the user ID
func WithUserClaim(claim string) AuthOption {
	return func(uc *AuthUseCase) {
		uc.userClaim = claim
	}
}

// NewAuthUseCase creates an AuthUseCase that accepts tokens for audience
func NewAuthUseCase(jwksURL, audience string, options ...AuthOption) *AuthUseCase {
	uc := &AuthUseCase{
		jwksURL:   jwksURL,
		audience:  audience,
		userClaim: DefaultUserClaim,
		cache:     newAuthCache(),
	}

	for _, opt := range options {
		opt(uc)
	}

	return uc
}

// IsNoAuthn returns false for regular AuthUseCase
func (uc *AuthUseCase) IsNoAuthn() bool {
	return false
}

// Authenticate verifies signature, expiry, audience and issuer of token
func (uc *AuthUseCase) Authenticate(ctx context.Context, token string) (types.UserID, error) {
	if token == "" {
		return "", goerr.Wrap(ErrUnauthenticated, "missing token")
	}

	cacheKey := tokenDigest(token)
	if userID, ok := uc.cache.get(cacheKey); ok {
		return userID, nil
	}

	keySet, err := uc.getKeySet(ctx)
	if err != nil {
		return "", err
	}

	parseOpts := []jwt.ParseOption{
		jwt.WithKeySet(keySet),
		jwt.WithValidate(true),
		jwt.WithAudience(uc.audience),
		// Allow 10 seconds of clock skew to handle time synchronization differences
		jwt.WithAcceptableSkew(10 * time.Second),
	}
	if uc.issuer != "" {
		parseOpts = append(parseOpts, jwt.WithIssuer(uc.issuer))
	}

	parsed, err := jwt.Parse([]byte(token), parseOpts...)
	if err != nil {
		return "", goerr.Wrap(ErrUnauthenticated, "failed to parse or verify JWT token", goerr.V("cause", err.Error()))
	}

	claim, ok := parsed.Get(uc.userClaim)
	if !ok {
		return "", goerr.Wrap(ErrUnauthenticated, "user claim not found in token", goerr.V("claim", uc.userClaim))
	}
	sub, ok := claim.(string)
	if !ok || sub == "" {
		return "", goerr.Wrap(ErrUnauthenticated, "user claim is not a string", goerr.V("claim", uc.userClaim))
	}

	userID := types.UserID(sub)
	expiresAt := time.Now().Add(authCacheTTL)
	if exp := parsed.Expiration(); !exp.IsZero() && exp.Before(expiresAt) {
		expiresAt = exp
	}
	uc.cache.set(cacheKey, userID, expiresAt)

	return userID, nil
}

func (uc *AuthUseCase) getKeySet(ctx context.Context) (jwk.Set, error) {
	uc.keyMu.Lock()
	defer uc.keyMu.Unlock()

	if uc.static || (uc.keySet != nil && time.Since(uc.fetchedAt) < keySetRefreshInterval) {
		return uc.keySet, nil
	}

	keySet, err := jwk.Fetch(ctx, uc.jwksURL)
	if err != nil {
		if uc.keySet != nil {
			// Keep serving the previous keys until the endpoint recovers
			return uc.keySet, nil
		}
		return nil, goerr.Wrap(err, "failed to fetch public keys", goerr.V("jwks_uri", uc.jwksURL))
	}

	uc.keySet = keySet
	uc.fetchedAt = time.Now()
	return keySet, nil
}

func tokenDigest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
