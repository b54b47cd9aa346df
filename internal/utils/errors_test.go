package utils

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	base := errors.New("boom")

	assert.Equal(t, "Op: msg: boom", E(CodeInternal, "Op", "msg", base).Error())
	assert.Equal(t, "Op: msg", E(CodeInternal, "Op", "msg", nil).Error())
	assert.Equal(t, "Op: boom", E(CodeInternal, "Op", "", base).Error())
	assert.Equal(t, "msg", E(CodeInternal, "", "msg", nil).Error())
	assert.Equal(t, "error", E(CodeInternal, "", "", nil).Error())
}

func TestAppError_UnwrapAndCode(t *testing.T) {
	sentinel := errors.New("sentinel")
	err := fmt.Errorf("outer: %w", E(CodeTranscription, "Gemini.Transcribe", "no results", sentinel))

	assert.True(t, errors.Is(err, sentinel))
	assert.True(t, IsCode(err, CodeTranscription))
	assert.False(t, IsCode(err, CodeCorrection))
	assert.Equal(t, CodeTranscription, CodeOf(err))
	assert.Equal(t, "no results", Message(err))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("plain")))
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeInvalidArgument:        http.StatusBadRequest,
		CodeDecode:                 http.StatusBadRequest,
		CodeEmptyRecording:         http.StatusBadRequest,
		CodeDegenerateInput:        http.StatusBadRequest,
		CodePermissionDenied:       http.StatusForbidden,
		CodeTooLarge:               http.StatusRequestEntityTooLarge,
		CodeNotFound:               http.StatusNotFound,
		CodeConflict:               http.StatusConflict,
		CodeUnsupportedEnvironment: http.StatusNotImplemented,
		CodeTranscription:          http.StatusBadGateway,
		CodeCorrection:             http.StatusBadGateway,
		CodeMissingCredential:      http.StatusServiceUnavailable,
		CodeTimeout:                http.StatusGatewayTimeout,
		CodeInternal:               http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, HTTPStatus(E(code, "op", "m", nil)), string(code))
	}

	assert.Equal(t, http.StatusNotFound, HTTPStatus(ErrNotFound))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("x")))
}
