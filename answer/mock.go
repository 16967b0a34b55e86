package answer

import (
	"context"
	"fmt"
)

// Mock answers deterministically without any network call.
type Mock struct{}

func (Mock) Answer(ctx context.Context, docContext, question string) (*Answer, error) {
	if err := ctx.Err(); err != nil {
		return nil, classify("mock", err)
	}
	text := fmt.Sprintf("[Mock answer based on '%s...']: %s", Truncate(docContext, 50), question)
	return &Answer{Text: text}, nil
}
