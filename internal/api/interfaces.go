package api

import (
	"context"

	"drawboard/internal/models"
)

// IdentityService is what the HTTP handlers need from the identity
// provider. Defined here, consumer-side; satisfied by identity.Service.
type IdentityService interface {
	Register(ctx context.Context, name, email, password string) (string, *models.User, error)
	Login(ctx context.Context, email, password string) (string, *models.User, error)
}
