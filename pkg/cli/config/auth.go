package config

import (
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/kottos/pkg/domain/types"
	"github.com/secmon-lab/kottos/pkg/usecase"
	"github.com/urfave/cli/v3"
)

// Auth holds the API authentication settings. Bearer tokens are JWTs
// verified against a JWKS endpoint.
type Auth struct {
	jwksURL   string
	audience  string
	issuer    string
	userClaim string
	noAuthUID string
}

func (x *Auth) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "auth-jwks-url",
			Usage:       "JWKS endpoint used to verify API bearer tokens",
			Category:    "Authentication",
			Sources:     cli.EnvVars("KOTTOS_AUTH_JWKS_URL"),
			Destination: &x.jwksURL,
		},
		&cli.StringFlag{
			Name:        "auth-audience",
			Usage:       "Expected audience of API bearer tokens",
			Category:    "Authentication",
			Sources:     cli.EnvVars("KOTTOS_AUTH_AUDIENCE"),
			Destination: &x.audience,
		},
		&cli.StringFlag{
			Name:        "auth-issuer",
			Usage:       "Expected issuer of API bearer tokens",
			Category:    "Authentication",
			Sources:     cli.EnvVars("KOTTOS_AUTH_ISSUER"),
			Destination: &x.issuer,
		},
		&cli.StringFlag{
			Name:        "auth-user-claim",
			Usage:       "Token claim holding the user ID",
			Category:    "Authentication",
			Value:       "sub",
			Sources:     cli.EnvVars("KOTTOS_AUTH_USER_CLAIM"),
			Destination: &x.userClaim,
		},
		&cli.StringFlag{
			Name:        "no-auth",
			Usage:       "Skip authentication and act as the given user ID (development only)",
			Category:    "Authentication",
			Sources:     cli.EnvVars("KOTTOS_NO_AUTH"),
			Destination: &x.noAuthUID,
		},
	}
}

func (x Auth) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("jwks_url", x.jwksURL),
		slog.String("audience", x.audience),
		slog.String("issuer", x.issuer),
		slog.Bool("no_auth", x.noAuthUID != ""),
	)
}

// IsNoAuthMode returns true if no-auth mode is enabled
func (x *Auth) IsNoAuthMode() bool {
	return x.noAuthUID != ""
}

// Configure returns the API authenticator. It returns nil when neither a
// JWKS endpoint nor no-auth mode is set; the API is then not served.
func (x *Auth) Configure() (usecase.AuthUseCaseInterface, error) {
	if x.noAuthUID != "" {
		if x.jwksURL != "" {
			slog.Warn("--no-auth is set, ignoring --auth-jwks-url")
		}
		return usecase.NewNoAuthnUseCase(types.UserID(x.noAuthUID)), nil
	}

	if x.jwksURL == "" {
		return nil, nil
	}
	if x.audience == "" {
		return nil, goerr.Wrap(ErrInvalidConfig, "--auth-audience is required with --auth-jwks-url")
	}

	var opts []usecase.AuthOption
	if x.issuer != "" {
		opts = append(opts, usecase.WithIssuer(x.issuer))
	}
	if x.userClaim != "" {
		opts = append(opts, usecase.WithUserClaim(x.userClaim))
	}
	return usecase.NewAuthUseCase(x.jwksURL, x.audience, opts...), nil
}
