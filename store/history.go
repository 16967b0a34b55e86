package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/cppla/docqa/models"
)

// History is the append-only question log.
type History struct {
	db *gorm.DB
}

func (s *History) Append(ctx context.Context, h *models.QAHistory) error {
	return s.db.WithContext(ctx).Create(h).Error
}

// ListByUser returns every entry of userID, newest first. Ties on created_at
// fall back to the id so the order is stable.
func (s *History) ListByUser(ctx context.Context, userID uint) ([]models.QAHistory, error) {
	items := make([]models.QAHistory, 0)
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
