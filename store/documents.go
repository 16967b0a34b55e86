package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/cppla/docqa/models"
)

// Documents holds uploaded file metadata and extracted text.
type Documents struct {
	db *gorm.DB
}

func (s *Documents) Create(ctx context.Context, d *models.Document) error {
	return s.db.WithContext(ctx).Create(d).Error
}

// FindOwned loads document id only if it belongs to userID. A document owned
// by someone else is reported as ErrNotFound, same as a missing one.
func (s *Documents) FindOwned(ctx context.Context, userID, id uint) (*models.Document, error) {
	var d models.Document
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Take(&d).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &d, nil
}
