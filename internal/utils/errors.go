package utils

import (
	"errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeNotFound        Code = "NOT_FOUND"
	CodeConflict        Code = "CONFLICT"
	CodeUnavailable     Code = "UNAVAILABLE"
	CodeTimeout         Code = "TIMEOUT"
	CodeInternal        Code = "INTERNAL"
	CodeTooLarge        Code = "PAYLOAD_TOO_LARGE"

	// capture
	CodePermissionDenied       Code = "PERMISSION_DENIED"
	CodeUnsupportedEnvironment Code = "UNSUPPORTED_ENVIRONMENT"
	CodeEmptyRecording         Code = "EMPTY_RECORDING"

	// codec / providers / post-processing
	CodeDecode            Code = "DECODE_ERROR"
	CodeMissingCredential Code = "MISSING_CREDENTIAL"
	CodeTranscription     Code = "TRANSCRIPTION_FAILED"
	CodeCorrection        Code = "CORRECTION_FAILED"
	CodeDegenerateInput   Code = "DEGENERATE_INPUT"
)

// AppError is the unified error contract across layers.
type AppError struct {
	Code    Code
	Op      string // operation name, ex: "TranscriptionService.Transcribe"
	Message string // safe message
	Err     error  // wrapped error
}

func (e *AppError) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch {
	case e.Op != "" && e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	case e.Op != "" && e.Message != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	default:
		return "error"
	}
}

func (e *AppError) Unwrap() error { return e.Err }

func E(code Code, op, msg string, err error) error {
	return &AppError{Code: code, Op: op, Message: msg, Err: err}
}

func IsCode(err error, code Code) bool {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code == code
	}
	return false
}

// CodeOf returns the outermost AppError code, or CodeInternal.
func CodeOf(err error) Code {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return CodeInternal
}

// Message returns the safe message of the outermost AppError.
func Message(err error) string {
	var ae *AppError
	if errors.As(err, &ae) && ae.Message != "" {
		return ae.Message
	}
	if err == nil {
		return ""
	}
	return http.StatusText(HTTPStatus(err))
}

func HTTPStatus(err error) int {
	var ae *AppError
	if errors.As(err, &ae) {
		switch ae.Code {
		case CodeInvalidArgument, CodeDecode, CodeEmptyRecording, CodeDegenerateInput:
			return http.StatusBadRequest
		case CodePermissionDenied:
			return http.StatusForbidden
		case CodeNotFound:
			return http.StatusNotFound
		case CodeConflict:
			return http.StatusConflict
		case CodeTooLarge:
			return http.StatusRequestEntityTooLarge
		case CodeUnsupportedEnvironment:
			return http.StatusNotImplemented
		case CodeTranscription, CodeCorrection:
			return http.StatusBadGateway
		case CodeUnavailable, CodeMissingCredential:
			return http.StatusServiceUnavailable
		case CodeTimeout:
			return http.StatusGatewayTimeout
		default:
			return http.StatusInternalServerError
		}
	}
	// fallback
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

var (
	ErrNotFound = errors.New("not found")
)
