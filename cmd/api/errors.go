package main

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/devphaseX/assoc-api/internal/fileobject"
	"github.com/devphaseX/assoc-api/internal/validator"
)

type ResponseErrorCode string

const (
	ErrorCodeBadRequest          ResponseErrorCode = "bad_request"
	ErrDuplicateEmailCode        ResponseErrorCode = "duplicate_email"
	ErrorCodeNotFound            ResponseErrorCode = "not_found"
	ErrorCodeMethodNotAllowed    ResponseErrorCode = "method_not_allowed"
	ErrorCodeConflict            ResponseErrorCode = "conflict"
	ErrorCodeEditConflict        ResponseErrorCode = "edit_conflict"
	ErrorTooManyRequest          ResponseErrorCode = "too_many_requests"
	ErrorCodePayloadTooLarge     ResponseErrorCode = "payload_too_large"
	ErrorCodeStorageUnauthorized ResponseErrorCode = "storage_unauthorized"
	ErrorCodeStorageRateLimited  ResponseErrorCode = "storage_rate_limited"
	ErrorCodeStorageRejected     ResponseErrorCode = "storage_rejected"
	ErrorCodeStorageTimeout      ResponseErrorCode = "storage_timeout"
	ErrorCodeStorageUnavailable  ResponseErrorCode = "storage_unavailable"
	ErrorCodeInternalServerError ResponseErrorCode = "internal_server_error"
)

func (app *application) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("bad request error", "method", r.Method, "path", r.URL.Path, "error", err)

	var validationErrors *validator.ValidationErrors

	if errors.As(err, &validationErrors) {
		app.errorResponse(w, http.StatusBadRequest, validationErrors.FieldErrors(), envelope{"code": ErrorCodeBadRequest})
		return
	}
	app.errorResponse(w, http.StatusBadRequest, err.Error(), envelope{"code": ErrorCodeBadRequest})
}

func (app *application) duplicateEmailResponse(w http.ResponseWriter, r *http.Request) {
	app.logger.Warnw("duplicate email", "method", r.Method, "path", r.URL.Path)

	app.errorResponse(w, http.StatusConflict, "the email address is already in use. Please use a different email", envelope{
		"code": ErrDuplicateEmailCode,
	})
}

func (app *application) rateLimitExceededResponse(w http.ResponseWriter, r *http.Request) {
	app.logger.Warnw("rate limit exceeded", "method", r.Method, "path", r.URL.Path, "remote_addr", r.RemoteAddr)

	message := "rate limit exceeded"
	app.errorResponse(w, http.StatusTooManyRequests, message, envelope{"code": ErrorTooManyRequest})
}

func (app *application) editConflictResponse(w http.ResponseWriter, r *http.Request) {
	app.logger.Warnw("edit conflict", "method", r.Method, "path", r.URL.Path)

	message := "unable to update the record due to an edit conflict, please try again"
	app.errorResponse(w, http.StatusConflict, message, envelope{"code": ErrorCodeEditConflict})
}

func (app *application) payloadTooLargeResponse(w http.ResponseWriter, r *http.Request, message string) {
	app.logger.Warnw("payload too large", "method", r.Method, "path", r.URL.Path, "error", message)

	app.errorResponse(w, http.StatusRequestEntityTooLarge, message, envelope{"code": ErrorCodePayloadTooLarge})
}

func (app *application) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Errorw("internal server error", "method", r.Method, "path", r.URL.Path, "error", err)

	message := "the server encountered a problem and could not process your request"
	app.errorResponse(w, http.StatusInternalServerError, message, envelope{"code": ErrorCodeInternalServerError})
}

func (app *application) notFoundResponse(w http.ResponseWriter, r *http.Request, details ...string) {
	app.logger.Infow("not found attempt",
		"method", r.Method,
		"path", r.URL.Path,
	)

	message := "the requested resource could not be found"
	if len(details) > 0 && details[0] != "" {
		message = details[0]
	}

	app.errorResponse(w, http.StatusNotFound, message, envelope{"code": ErrorCodeNotFound})
}

func (app *application) methodNotAllowedResponse(w http.ResponseWriter, r *http.Request) {
	message := fmt.Sprintf("the %s method is not supported for this resource", r.Method)
	app.errorResponse(w, http.StatusMethodNotAllowed, message, envelope{"code": ErrorCodeMethodNotAllowed})
}

// fileObjectErrorResponse translates storage failures into client facing
// responses. Provider credentials problems are ours, not the caller's, so
// they surface as a bad gateway.
func (app *application) fileObjectErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	var (
		status int
		code   ResponseErrorCode
	)

	switch {
	case errors.Is(err, fileobject.ErrEmptyFile):
		app.badRequestResponse(w, r, err)
		return
	case errors.Is(err, fileobject.ErrPayloadTooLarge):
		app.payloadTooLargeResponse(w, r, fileobject.ErrPayloadTooLarge.Error())
		return
	case errors.Is(err, fileobject.ErrAuth):
		status, code = http.StatusBadGateway, ErrorCodeStorageUnauthorized
	case errors.Is(err, fileobject.ErrRateLimited):
		status, code = http.StatusTooManyRequests, ErrorCodeStorageRateLimited
	case errors.Is(err, fileobject.ErrBadRequest), errors.Is(err, fileobject.ErrPrepareFailed):
		status, code = http.StatusBadGateway, ErrorCodeStorageRejected
	case errors.Is(err, fileobject.ErrTimeout):
		status, code = http.StatusGatewayTimeout, ErrorCodeStorageTimeout
	case errors.Is(err, fileobject.ErrUnreachable):
		status, code = http.StatusServiceUnavailable, ErrorCodeStorageUnavailable
	default:
		app.serverErrorResponse(w, r, err)
		return
	}

	app.logger.Errorw("file storage error", "method", r.Method, "path", r.URL.Path, "code", code, "error", err)
	app.errorResponse(w, status, err.Error(), envelope{"code": code})
}

func (app *application) errorResponse(w http.ResponseWriter, status int, message any, info ...envelope) {
	error := envelope{
		"message": message,
	}

	env := envelope{
		"status": "error",
		"error":  error,
	}

	if len(info) == 1 && len(info[0]) > 0 {
		for key, value := range info[0] {
			error[key] = value
		}
	}

	err := app.writeJSON(w, status, env, nil)
	if err != nil {
		app.logger.Errorw("failed to write JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func (app *application) successResponse(w http.ResponseWriter, status int, data any) {
	env := envelope{
		"status": "success",
		"data":   data,
	}

	err := app.writeJSON(w, status, env, nil)
	if err != nil {
		app.logger.Errorw("failed to write JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
	}
}
