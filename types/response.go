package types

import "time"

// ErrorDetail represents the error payload details
type ErrorDetail struct {
	Timestamp    string `json:"timestamp"`
	Path         string `json:"path"`
	ErrorMessage string `json:"error_message"`
	ErrorCode    int    `json:"error_code,omitempty"`
}

// NewErrorDetail builds an ErrorDetail stamped with the current time.
func NewErrorDetail(path, message string, code int) ErrorDetail {
	return ErrorDetail{
		Timestamp:    time.Now().Format(time.RFC3339),
		Path:         path,
		ErrorMessage: message,
		ErrorCode:    code,
	}
}

// ErrorResponse represents the standardized error response structure
type ErrorResponse struct {
	StatusCode int         `json:"status_code"`
	IsSuccess  bool        `json:"is_success"`
	Error      ErrorDetail `json:"error,omitempty"`
}

// SuccessResponse represents the standardized success response structure
type SuccessResponse[T any] struct {
	StatusCode int  `json:"status_code"`
	IsSuccess  bool `json:"is_success"`
	Data       T    `json:"data,omitempty"`
}
