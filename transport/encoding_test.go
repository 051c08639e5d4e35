package transport

import (
	"bytes"
	"mime"
	"mime/multipart"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeBodyNil(t *testing.T) {
	ct, payload, err := EncodeBody(nil)
	require.NoError(t, err)
	assert.Empty(t, ct)
	assert.Nil(t, payload)
}

func TestEncodeBodyRaw(t *testing.T) {
	ct, payload, err := EncodeBody(&Body{Raw: []byte("raw data")})
	require.NoError(t, err)
	assert.Empty(t, ct)
	assert.Equal(t, "raw data", string(payload))
}

func TestEncodeBodyFormFields(t *testing.T) {
	ct, payload, err := EncodeBody(&Body{Fields: []Field{
		{Name: "b", Content: "2"},
		{Name: "a", Content: "x&y"},
		{Name: "a", Content: "z"},
	}})
	require.NoError(t, err)
	assert.Equal(t, formContentType, ct)
	assert.Equal(t, "a=x%26y&a=z&b=2", string(payload))
}

func TestEncodeBodyMultipart(t *testing.T) {
	ct, payload, err := EncodeBody(&Body{
		Fields:    []Field{{Name: "x", Content: "27"}, {Name: "name", Content: "pooled"}},
		Multipart: true,
	})
	require.NoError(t, err)

	mediaType, params, err := mime.ParseMediaType(ct)
	require.NoError(t, err)
	assert.Equal(t, "multipart/form-data", mediaType)
	require.NotEmpty(t, params["boundary"])

	form, err := multipart.NewReader(bytes.NewReader(payload), params["boundary"]).ReadForm(1 << 20)
	require.NoError(t, err)
	assert.Equal(t, []string{"27"}, form.Value["x"])
	assert.Equal(t, []string{"pooled"}, form.Value["name"])
}

func TestRequestContentType(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		implied string
		payload []byte
		want    string
	}{
		{name: "nothing to send", want: ""},
		{name: "raw payload falls back to form", payload: []byte("a"), want: formContentType},
		{name: "implied type", implied: formContentType, payload: []byte("a=1"), want: formContentType},
		{
			name:    "explicit header wins over implied",
			headers: map[string]string{"CONTENT-TYPE": "application/json"},
			implied: formContentType,
			payload: []byte("a=1"),
			want:    "application/json",
		},
		{
			name:    "multipart keeps its boundary",
			headers: map[string]string{"Content-Type": "text/plain"},
			implied: "multipart/form-data; boundary=abc",
			payload: []byte("--abc--"),
			want:    "multipart/form-data; boundary=abc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, requestContentType(tt.headers, tt.implied, tt.payload))
		})
	}
}

func TestVerbSendsBody(t *testing.T) {
	assert.True(t, VerbPost.SendsBody())
	assert.True(t, VerbPut.SendsBody())
	assert.False(t, VerbGet.SendsBody())
	assert.False(t, VerbHead.SendsBody())
	assert.False(t, VerbDelete.SendsBody())
}
