package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/kottos/pkg/domain/types"
	"github.com/secmon-lab/kottos/pkg/usecase"
	"github.com/secmon-lab/kottos/pkg/utils/errutil"
	"github.com/secmon-lab/kottos/pkg/utils/logging"
)

type AuthUseCase = usecase.AuthUseCaseInterface

const requesterKey contextKey = "requester"

// ContextWithRequester binds the authenticated user to ctx
func ContextWithRequester(ctx context.Context, id types.UserID) context.Context {
	return context.WithValue(ctx, requesterKey, id)
}

// RequesterFrom returns the authenticated user, or "" if none
func RequesterFrom(ctx context.Context) types.UserID {
	id, _ := ctx.Value(requesterKey).(types.UserID)
	return id
}

// authMiddleware resolves the requester from the bearer token
func authMiddleware(authUC AuthUseCase) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			var token string
			if !authUC.IsNoAuthn() {
				var ok bool
				token, ok = strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
				if !ok || token == "" {
					writeError(ctx, w, goerr.Wrap(usecase.ErrUnauthenticated, "missing bearer token"))
					return
				}
			}

			requester, err := authUC.Authenticate(ctx, token)
			if err != nil {
				if !errors.Is(err, usecase.ErrUnauthenticated) {
					// Key fetch failures and the like are not the caller's fault
					errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to authenticate"), http.StatusInternalServerError)
					return
				}
				writeError(ctx, w, err)
				return
			}

			ctx = ContextWithRequester(ctx, requester)
			ctx = logging.With(ctx, logging.From(ctx).With("requester", requester))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
