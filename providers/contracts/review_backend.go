package contracts

import (
	"context"

	"github.com/meysamhadeli/reviewmentor/providers/models"
)

// IReviewBackend runs a review of a project directory and reports only that
// it finished; results are read from the artifact the backend writes.
type IReviewBackend interface {
	RequestReview(ctx context.Context, request models.ReviewRequest) (models.Completion, error)
}
