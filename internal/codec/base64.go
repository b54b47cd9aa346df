// Package codec turns recorded audio into the base64 text carried by the
// JSON transcription API, and back.
package codec

import (
	"encoding/base64"
	"io"
	"strings"

	"github.com/yoockh/voicememo/internal/models"
	"github.com/yoockh/voicememo/internal/utils"
)

const defaultMIMEType = "application/octet-stream"

// DataURL reads the artifact to completion and renders it as a data URL.
func DataURL(a models.AudioArtifact) (string, error) {
	const op = "codec.DataURL"

	raw, err := io.ReadAll(a.Reader())
	if err != nil {
		return "", utils.E(utils.CodeDecode, op, "failed to read audio payload", err)
	}

	mime := a.MIMEType()
	if mime == "" {
		mime = defaultMIMEType
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(raw), nil
}

// Encode returns the bare base64 payload of the artifact.
func Encode(a models.AudioArtifact) (string, error) {
	const op = "codec.Encode"

	url, err := DataURL(a)
	if err != nil {
		return "", err
	}
	payload := StripDataURLPrefix(url)
	if strings.TrimSpace(payload) == "" {
		return "", utils.E(utils.CodeDecode, op, "empty audio payload", nil)
	}
	return payload, nil
}

// Decode accepts bare base64 or a data URL.
func Decode(s string) ([]byte, error) {
	const op = "codec.Decode"

	payload := strings.TrimSpace(StripDataURLPrefix(s))
	if payload == "" {
		return nil, utils.E(utils.CodeDecode, op, "empty audio payload", nil)
	}
	b, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, utils.E(utils.CodeDecode, op, "invalid base64 audio payload", err)
	}
	if len(b) == 0 {
		return nil, utils.E(utils.CodeDecode, op, "empty audio payload", nil)
	}
	return b, nil
}

// StripDataURLPrefix drops a leading "data:...;base64," if present.
func StripDataURLPrefix(s string) string {
	if !strings.HasPrefix(s, "data:") {
		return s
	}
	if i := strings.Index(s, ","); i >= 0 {
		return s[i+1:]
	}
	return ""
}

// MIMETypeOfDataURL extracts the media type from a data URL, if any.
func MIMETypeOfDataURL(s string) string {
	if !strings.HasPrefix(s, "data:") {
		return ""
	}
	rest := strings.TrimPrefix(s, "data:")
	end := strings.IndexAny(rest, ";,")
	if end < 0 {
		return ""
	}
	return rest[:end]
}
