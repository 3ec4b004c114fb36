package users

import (
	"context"

	"github.com/taskvault/taskvault/internal/server/models"
)

// Repository is the user persistence surface consumed by services.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
}
