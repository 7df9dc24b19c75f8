package dtos

// Response is the envelope for every REST payload, success or failure.
// RequestID echoes the X-Request-ID the middleware assigned so clients
// can correlate logs.
type Response[T any] struct {
	Message   string         `json:"message"`
	Data      T              `json:"data"`
	RequestID string         `json:"request_id,omitempty"`
	Errors    *ErrorResponse `json:"errors,omitempty"`
}

type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// ErrResponse wraps a failed request in the standard envelope.
func ErrResponse(code int, message, field, requestID string) Response[any] {
	return Response[any]{
		Message:   "Error occur",
		RequestID: requestID,
		Errors: &ErrorResponse{
			Code:    code,
			Message: message,
			Field:   field,
		},
	}
}
