package retry

import (
	"errors"

	"github.com/akolanti/GoDocQA/internal/domain/docErrors"
	"github.com/openai/openai-go"
	"google.golang.org/genai"
)

// FromGenAI converts an error returned by the genai client into an ApiError.
func FromGenAI(service, op string, err error) error {
	if err == nil {
		return nil
	}
	code := 0
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErr) {
		code = apiErr.Code
	} else if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		code = apiErrPtr.Code
	}
	return newApiError(service, op, code, err)
}

// FromOpenAI converts an error returned by the openai client into an ApiError.
func FromOpenAI(service, op string, err error) error {
	if err == nil {
		return nil
	}
	code := 0
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		code = apiErr.StatusCode
	}
	return newApiError(service, op, code, err)
}

func newApiError(service, op string, code int, err error) error {
	retryable := IsRetryable(err)
	if code != 0 {
		retryable = RetryableStatus(code)
	}
	return &docErrors.ApiError{
		Service:    service,
		Op:         op,
		StatusCode: code,
		Retryable:  retryable,
		Cause:      err,
	}
}
