package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/cppla/docqa/answer"
	"github.com/cppla/docqa/models"
	"github.com/cppla/docqa/store"
	"github.com/cppla/docqa/utils"
)

// HistoryRepository is the append-only question log.
type HistoryRepository interface {
	Append(ctx context.Context, h *models.QAHistory) error
	ListByUser(ctx context.Context, userID uint) ([]models.QAHistory, error)
}

// QAService answers questions about a caller's documents and records them.
type QAService struct {
	docs         DocumentRepository
	history      HistoryRepository
	answerer     answer.Answerer
	contextChars int
	timeout      time.Duration
}

func NewQAService(docs DocumentRepository, history HistoryRepository, answerer answer.Answerer, contextChars int, timeout time.Duration) *QAService {
	return &QAService{
		docs:         docs,
		history:      history,
		answerer:     answerer,
		contextChars: contextChars,
		timeout:      timeout,
	}
}

// Ask answers question from the first contextChars characters of the
// document. Provider failures leave no history row.
func (s *QAService) Ask(ctx context.Context, userID, documentID uint, question string) (string, error) {
	doc, err := s.docs.FindOwned(ctx, userID, documentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrDocumentNotFound
		}
		return "", ErrInternal.With(err)
	}

	askCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		askCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	ans, err := s.answerer.Answer(askCtx, answer.Truncate(doc.ExtractedText, s.contextChars), question)
	latency := time.Since(start).Milliseconds()
	if err != nil {
		mapped := upstreamError(err)
		utils.Logger.Warn("answer generation failed",
			zap.Uint("user_id", userID),
			zap.Uint("document_id", documentID),
			zap.Int64("latency_ms", latency),
			zap.String("kind", mapped.Kind.String()),
			zap.Error(err),
		)
		return "", mapped
	}

	entry := &models.QAHistory{
		UserID:     userID,
		DocumentID: doc.ID,
		Question:   question,
		Answer:     ans.Text,
		TokensUsed: ans.TokensUsed,
		LatencyMS:  &latency,
	}
	if err := s.history.Append(ctx, entry); err != nil {
		return "", ErrInternal.With(err)
	}
	return ans.Text, nil
}

// History lists the caller's entries newest first.
func (s *QAService) History(ctx context.Context, userID uint) ([]models.QAHistory, error) {
	items, err := s.history.ListByUser(ctx, userID)
	if err != nil {
		return nil, ErrInternal.With(err)
	}
	return items, nil
}

func upstreamError(err error) *Error {
	switch {
	case errors.Is(err, answer.ErrNotConfigured):
		return &Error{Kind: KindNotConfigured, Detail: answer.DetailOf(err), Err: err}
	case errors.Is(err, answer.ErrQuota):
		return ErrUpstreamQuota.With(err)
	case errors.Is(err, answer.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return ErrUpstreamTimeout.With(err)
	case errors.Is(err, answer.ErrMalformed):
		return ErrUpstreamMalformed.With(err)
	default:
		return ErrUpstreamUnavailable.With(err)
	}
}
