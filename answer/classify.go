package answer

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/google/generative-ai-go/genai"
	"github.com/googleapis/gax-go/v2/apierror"
	openai "github.com/meguminnnnnnnnn/go-openai"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// classify maps a provider SDK error onto one of the upstream failure classes.
func classify(provider string, err error) error {
	if err == nil {
		return nil
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return err
	}
	return &ProviderError{Provider: provider, Class: classOf(err), Err: err}
}

func classOf(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout
	}

	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		return ErrMalformed
	}

	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) {
		if code := apiErr.HTTPCode(); code > 0 {
			return classOfHTTP(code)
		}
		if st := apiErr.GRPCStatus(); st != nil {
			return classOfGRPC(st.Code())
		}
	}

	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return classOfHTTP(gErr.Code)
	}

	if st, ok := status.FromError(err); ok && st.Code() != codes.Unknown {
		return classOfGRPC(st.Code())
	}

	var oaErr *openai.APIError
	if errors.As(err, &oaErr) {
		return classOfHTTP(oaErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return classOfHTTP(reqErr.HTTPStatusCode)
	}

	return ErrUnavailable
}

func classOfHTTP(code int) error {
	switch code {
	case http.StatusTooManyRequests:
		return ErrQuota
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return ErrTimeout
	default:
		return ErrUnavailable
	}
}

func classOfGRPC(code codes.Code) error {
	switch code {
	case codes.ResourceExhausted:
		return ErrQuota
	case codes.DeadlineExceeded:
		return ErrTimeout
	default:
		return ErrUnavailable
	}
}
