package codec

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoockh/voicememo/internal/models"
	"github.com/yoockh/voicememo/internal/utils"
)

func TestEncodeDecode_RoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for _, n := range []int{1, 2, 3, 250, 4096, 65537} {
		data := make([]byte, n)
		r.Read(data)
		a := models.NewAudioArtifact(data, "audio/webm")

		enc, err := Encode(a)
		require.NoError(t, err)
		assert.NotContains(t, enc, "data:")

		dec, err := Decode(enc)
		require.NoError(t, err)
		assert.True(t, bytes.Equal(data, dec), "size %d", n)
	}
}

func TestEncode_EmptyArtifact(t *testing.T) {
	_, err := Encode(models.NewAudioArtifact(nil, "audio/webm"))
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeDecode))
}

func TestDataURL(t *testing.T) {
	url, err := DataURL(models.NewAudioArtifact([]byte("hi"), "audio/ogg"))
	require.NoError(t, err)
	assert.Equal(t, "data:audio/ogg;base64,aGk=", url)
	assert.Equal(t, "audio/ogg", MIMETypeOfDataURL(url))

	url, err = DataURL(models.NewAudioArtifact([]byte("hi"), ""))
	require.NoError(t, err)
	assert.Equal(t, "data:application/octet-stream;base64,aGk=", url)
}

func TestDecode_AcceptsDataURL(t *testing.T) {
	b, err := Decode("data:audio/webm;codecs=opus;base64,aGk=")
	require.NoError(t, err)
	assert.Equal(t, []byte("hi"), b)
}

func TestDecode_Errors(t *testing.T) {
	for _, in := range []string{"", "   ", "data:audio/webm;base64,", "data:audio/webm", "%%%not-base64"} {
		_, err := Decode(in)
		require.Error(t, err, in)
		assert.True(t, utils.IsCode(err, utils.CodeDecode), in)
	}
}

func TestMIMETypeOfDataURL(t *testing.T) {
	assert.Equal(t, "", MIMETypeOfDataURL("aGk="))
	assert.Equal(t, "audio/webm", MIMETypeOfDataURL("data:audio/webm;codecs=opus;base64,xx"))
	assert.Equal(t, "", MIMETypeOfDataURL("data:audio/webm"))
}
