package controllers

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cppla/docqa/middleware"
	"github.com/cppla/docqa/services"
	"github.com/cppla/docqa/utils"
)

// QAController serves questions and the history of answers.
type QAController struct {
	qa *services.QAService
}

func NewQAController(qa *services.QAService) *QAController {
	return &QAController{qa: qa}
}

type historyItem struct {
	ID         uint      `json:"id"`
	DocumentID uint      `json:"document_id"`
	Question   string    `json:"question"`
	Answer     string    `json:"answer"`
	CreatedAt  time.Time `json:"created_at"`
}

// Ask answers a question about one of the caller's documents.
func (q *QAController) Ask(ctx *gin.Context) {
	user, ok := middleware.CurrentUser(ctx)
	if !ok {
		middleware.RespondError(ctx, services.ErrNotAuthenticated)
		return
	}

	type request struct {
		DocumentID uint   `json:"document_id" binding:"required"`
		Question   string `json:"question" binding:"required,max=4000"`
	}
	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.RespondError(ctx, bindError(err))
		return
	}
	question := strings.TrimSpace(req.Question)
	if question == "" {
		middleware.RespondError(ctx, services.Validation("question: field required", nil))
		return
	}

	text, err := q.qa.Ask(ctx.Request.Context(), user.ID, req.DocumentID, question)
	if err != nil {
		middleware.RespondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"answer": text})
}

// History lists the caller's questions newest first.
func (q *QAController) History(ctx *gin.Context) {
	user, ok := middleware.CurrentUser(ctx)
	if !ok {
		middleware.RespondError(ctx, services.ErrNotAuthenticated)
		return
	}

	items, err := q.qa.History(ctx.Request.Context(), user.ID)
	if err != nil {
		middleware.RespondError(ctx, err)
		return
	}

	out := make([]historyItem, 0, len(items))
	for _, it := range items {
		out = append(out, historyItem{
			ID:         it.ID,
			DocumentID: it.DocumentID,
			Question:   it.Question,
			Answer:     it.Answer,
			CreatedAt:  it.CreatedAt,
		})
	}
	utils.Success(ctx, out)
}
