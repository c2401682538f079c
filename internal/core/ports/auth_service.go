package ports

import (
	"context"

	"github.com/agencyhub/crm-api/internal/core/domain"
)

type AuthService interface {
	Register(ctx context.Context, name, email, password, role, agencyID string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
}
