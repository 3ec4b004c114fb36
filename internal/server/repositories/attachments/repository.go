package attachments

import (
	"context"

	"github.com/taskvault/taskvault/internal/server/models"
)

// Repository is the attachment persistence surface. Ownership is derived
// through the parent task; every operation takes the owner's user ID.
type Repository interface {
	Create(ctx context.Context, att *models.Attachment, userID int64) (*models.Attachment, error)
	GetByIDAndOwner(ctx context.Context, id, taskID, userID int64) (*models.Attachment, error)
	ListByTaskAndOwner(ctx context.Context, taskID, userID int64) ([]*models.Attachment, error)
}
