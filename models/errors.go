package models

import (
	"errors"
	"fmt"
)

// Error codes used in API responses and internal error handling.
const (
	ErrCodeElementNotFound = "ELEMENT_NOT_FOUND"
	ErrCodeNavigation      = "NAVIGATION_FAILED"
	ErrCodeBrowserCrash    = "BROWSER_CRASH"
	ErrCodeTimeout         = "SCRAPE_TIMEOUT"
	ErrCodeCanceled        = "CANCELED"
	ErrCodeInvalidInput    = "INVALID_INPUT"
	ErrCodeRateLimited     = "RATE_LIMITED"
	ErrCodeUnauthorized    = "UNAUTHORIZED"
	ErrCodeNotFound        = "NOT_FOUND"
	ErrCodeInternal        = "INTERNAL_ERROR"
)

// ErrorDetail is the structured error in API responses.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ScrapeError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type ScrapeError struct {
	Code    string
	Message string
	Err     error // wrapped cause
}

func (e *ScrapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// NewScrapeError creates a new ScrapeError.
func NewScrapeError(code, message string, err error) *ScrapeError {
	return &ScrapeError{Code: code, Message: message, Err: err}
}

// ElementNotFound reports that selector matched nothing on the current page.
func ElementNotFound(selector string) *ScrapeError {
	return &ScrapeError{
		Code:    ErrCodeElementNotFound,
		Message: fmt.Sprintf("no element matches %q", selector),
	}
}

// ToDetail converts an internal error to an API-facing ErrorDetail.
func (e *ScrapeError) ToDetail() *ErrorDetail {
	return &ErrorDetail{Code: e.Code, Message: e.Message}
}

// CodeOf returns the ScrapeError code anywhere in err's chain,
// or ErrCodeInternal when there is none.
func CodeOf(err error) string {
	var se *ScrapeError
	if errors.As(err, &se) {
		return se.Code
	}
	return ErrCodeInternal
}

// IsElementNotFound reports whether err is (or wraps) an ELEMENT_NOT_FOUND error.
func IsElementNotFound(err error) bool {
	var se *ScrapeError
	return errors.As(err, &se) && se.Code == ErrCodeElementNotFound
}
