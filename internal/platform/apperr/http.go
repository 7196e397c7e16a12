package apperr

import "errors"

// ErrorDTO is the JSON error envelope shared by all handlers.
type ErrorDTO struct {
	Error struct {
		Code    Code   `json:"code"`
		Reason  string `json:"reason,omitempty"`
		Message string `json:"message"`
	} `json:"error"`
}

func Body(code Code, reason, msg string) ErrorDTO {
	var e ErrorDTO
	e.Error.Code = code
	e.Error.Reason = reason
	e.Error.Message = msg
	return e
}

func FromError(err error) ErrorDTO {
	var api *APIError
	if errors.As(err, &api) {
		return Body(api.Code, api.Reason, api.Message)
	}
	return Body(CodeInternal, "", err.Error())
}
