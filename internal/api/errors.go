package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/jcouture/go-gameroom/internal/types"
)

type ApiError struct {
	StatusCode int    `json:"status_code"`
	Code       string `json:"code,omitempty"`
	Message    string `json:"message"`
	Err        error  `json:"-"`
}

func (e *ApiError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Message, e.Err.Error())
	}

	return e.Message
}

func (e *ApiError) Unwrap() error {
	return e.Err
}

func lower(s string) string {
	return strings.ToLower(s)
}

func NewBadRequestError() *ApiError {
	return &ApiError{
		StatusCode: http.StatusBadRequest,
		Code:       string(types.CodeValidation),
		Message:    lower(http.StatusText(http.StatusBadRequest)),
	}
}

func NewNotFoundError() *ApiError {
	return &ApiError{
		StatusCode: http.StatusNotFound,
		Code:       string(types.CodeNotFound),
		Message:    lower(http.StatusText(http.StatusNotFound)),
	}
}

func NewInternalServerError(err error) *ApiError {
	return &ApiError{
		StatusCode: http.StatusInternalServerError,
		Message:    lower(http.StatusText(http.StatusInternalServerError)),
		Err:        err,
	}
}

func NewUnauthorizedError() *ApiError {
	return &ApiError{
		StatusCode: http.StatusUnauthorized,
		Code:       string(types.CodeAuthorization),
		Message:    lower(http.StatusText(http.StatusUnauthorized)),
	}
}

func NewForbiddenError(reason string) *ApiError {
	if reason == "" {
		reason = lower(http.StatusText(http.StatusForbidden))
	}

	return &ApiError{
		StatusCode: http.StatusForbidden,
		Code:       string(types.CodeAuthorization),
		Message:    reason,
	}
}

func NewConflictError(reason string) *ApiError {
	return &ApiError{
		StatusCode: http.StatusConflict,
		Code:       string(types.CodeConflict),
		Message:    reason,
	}
}

func NewMethodNotAllowedError() *ApiError {
	return &ApiError{
		StatusCode: http.StatusMethodNotAllowed,
		Message:    lower(http.StatusText(http.StatusMethodNotAllowed)),
	}
}

var statusByCode = map[types.ErrorCode]int{
	types.CodeAuthorization: http.StatusForbidden,
	types.CodeNotFound:      http.StatusNotFound,
	types.CodeConflict:      http.StatusConflict,
	types.CodeValidation:    http.StatusBadRequest,
	types.CodeTransient:     http.StatusServiceUnavailable,
}

// fromTypedError maps the application error taxonomy onto an HTTP response,
// preserving the concrete reason for the client.
func fromTypedError(err *types.Error) *ApiError {
	status, ok := statusByCode[err.Code]
	if !ok {
		status = http.StatusInternalServerError
	}

	return &ApiError{
		StatusCode: status,
		Code:       string(err.Code),
		Message:    err.Message,
	}
}
