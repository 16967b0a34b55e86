package controllers

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cppla/docqa/middleware"
	"github.com/cppla/docqa/services"
	"github.com/cppla/docqa/utils"
)

// multipartOverhead is head room for boundaries and part headers on top of
// the file itself.
const multipartOverhead = 1 << 20

// DocumentController accepts uploads.
type DocumentController struct {
	docs *services.DocumentService
}

func NewDocumentController(docs *services.DocumentService) *DocumentController {
	return &DocumentController{docs: docs}
}

type uploadResponse struct {
	ID         uint      `json:"id"`
	Filename   string    `json:"filename"`
	MimeType   string    `json:"mime_type"`
	FileSize   int64     `json:"file_size"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Upload reads the multipart field "file" and stores it for the caller.
func (d *DocumentController) Upload(ctx *gin.Context) {
	user, ok := middleware.CurrentUser(ctx)
	if !ok {
		middleware.RespondError(ctx, services.ErrNotAuthenticated)
		return
	}

	maxSize := d.docs.MaxBytes()
	ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, maxSize+multipartOverhead)

	file, header, err := ctx.Request.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) || strings.Contains(err.Error(), "request body too large") {
			middleware.RespondError(ctx, services.ErrFileTooLarge.With(err))
			return
		}
		middleware.RespondError(ctx, services.Validation("file: field required", err))
		return
	}
	defer file.Close()

	if header.Size > maxSize {
		middleware.RespondError(ctx, services.ErrFileTooLarge)
		return
	}

	// One byte past the limit is enough to know it is too large.
	data, err := io.ReadAll(io.LimitReader(file, maxSize+1))
	if err != nil {
		middleware.RespondError(ctx, services.ErrInternal.With(err))
		return
	}

	doc, err := d.docs.Upload(ctx.Request.Context(), user.ID, header.Filename, data)
	if err != nil {
		middleware.RespondError(ctx, err)
		return
	}

	utils.Success(ctx, uploadResponse{
		ID:         doc.ID,
		Filename:   doc.Filename,
		MimeType:   doc.MimeType,
		FileSize:   doc.FileSize,
		UploadedAt: doc.UploadedAt,
	})
}
