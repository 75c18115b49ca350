package usecase

import (
	"context"

	"github.com/secmon-lab/kottos/pkg/domain/types"
)

// NoAuthnUseCase treats every request as coming from one user (for development/testing)
type NoAuthnUseCase struct {
	userID types.UserID
}

// NewNoAuthnUseCase creates a new NoAuthnUseCase instance for the given user
func NewNoAuthnUseCase(userID types.UserID) *NoAuthnUseCase {
	return &NoAuthnUseCase{userID: userID}
}

// Authenticate ignores the token and returns the configured user
func (uc *NoAuthnUseCase) Authenticate(ctx context.Context, token string) (types.UserID, error) {
	return uc.userID, nil
}

// IsNoAuthn returns true for NoAuthnUseCase
func (uc *NoAuthnUseCase) IsNoAuthn() bool {
	return true
}
