package services

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/cppla/docqa/extract"
	"github.com/cppla/docqa/models"
	"github.com/cppla/docqa/storage"
	"github.com/cppla/docqa/utils"
)

// DocumentRepository persists document rows.
type DocumentRepository interface {
	Create(ctx context.Context, d *models.Document) error
	FindOwned(ctx context.Context, userID, id uint) (*models.Document, error)
}

// DocumentService validates uploads, extracts their text and stores them.
type DocumentService struct {
	docs      DocumentRepository
	objects   storage.ObjectStore
	extractor extract.Extractor
	maxBytes  int64
}

func NewDocumentService(docs DocumentRepository, objects storage.ObjectStore, extractor extract.Extractor, maxBytes int64) *DocumentService {
	return &DocumentService{docs: docs, objects: objects, extractor: extractor, maxBytes: maxBytes}
}

// MaxBytes is the largest accepted upload.
func (s *DocumentService) MaxBytes() int64 { return s.maxBytes }

// Upload checks size first, then the sniffed type, then extracts text. Bytes
// reach object storage only after extraction succeeded, and are removed again
// if the row cannot be written.
func (s *DocumentService) Upload(ctx context.Context, userID uint, filename string, data []byte) (*models.Document, error) {
	if int64(len(data)) > s.maxBytes {
		return nil, ErrFileTooLarge
	}
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}

	mimeType, err := extract.Sniff(data)
	if err != nil {
		return nil, ErrUnsupportedType.With(err)
	}

	text, err := s.extractor.Extract(ctx, data, mimeType)
	if err != nil {
		switch {
		case errors.Is(err, extract.ErrEncryptedPDF):
			return nil, ErrEncryptedPDF.With(err)
		case errors.Is(err, extract.ErrUnsupportedType):
			return nil, ErrUnsupportedType.With(err)
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return nil, ErrInternal.With(err)
		default:
			utils.Logger.Warn("text extraction failed", zap.Uint("user_id", userID), zap.String("mime_type", mimeType), zap.Error(err))
			return nil, ErrExtractionFailed.With(err)
		}
	}

	name := storage.BaseName(filename)
	location, err := s.objects.Save(ctx, storage.NewKey(name), mimeType, data)
	if err != nil {
		return nil, ErrInternal.With(err)
	}

	doc := &models.Document{
		UserID:        userID,
		Filename:      name,
		MimeType:      mimeType,
		FileSize:      int64(len(data)),
		StoragePath:   location,
		ExtractedText: text,
	}
	if err := s.docs.Create(ctx, doc); err != nil {
		// The request context may already be gone; cleanup must still run.
		if derr := s.objects.Delete(context.WithoutCancel(ctx), location); derr != nil {
			utils.Logger.Error("orphaned upload", zap.String("location", location), zap.Error(derr))
		}
		return nil, ErrInternal.With(err)
	}

	utils.Logger.Info("document uploaded",
		zap.Uint("user_id", userID),
		zap.Uint("document_id", doc.ID),
		zap.String("mime_type", mimeType),
		zap.Int64("file_size", doc.FileSize),
	)
	return doc, nil
}
