package handlers

import "github.com/effectiveacceleration/marketplace/internal/db/models"

// getPaginationOptions returns a ListOptions struct with validated pagination parameters
func getPaginationOptions(page, limit int) *models.ListOptions {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = models.DefaultLimit
	}
	if limit > models.MaxLimit {
		limit = models.MaxLimit
	}
	return &models.ListOptions{
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
}
