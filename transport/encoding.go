package transport

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/url"
	"strings"
)

const (
	contentTypeHeader = "Content-Type"
	formContentType   = "application/x-www-form-urlencoded"
)

// EncodeBody renders a Body into its wire payload and the content type it implies.
// Raw bodies carry no implied content type; callers fall back to form encoding.
func EncodeBody(body *Body) (contentType string, payload []byte, err error) {
	if body == nil {
		return "", nil, nil
	}

	if len(body.Fields) == 0 {
		return "", body.Raw, nil
	}

	if !body.Multipart {
		values := make(url.Values, len(body.Fields))
		for _, f := range body.Fields {
			values.Add(f.Name, f.Content)
		}
		return formContentType, []byte(values.Encode()), nil
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, f := range body.Fields {
		if err := w.WriteField(f.Name, f.Content); err != nil {
			return "", nil, fmt.Errorf("write multipart field %q: %w", f.Name, err)
		}
	}
	if err := w.Close(); err != nil {
		return "", nil, fmt.Errorf("close multipart writer: %w", err)
	}
	return w.FormDataContentType(), buf.Bytes(), nil
}

// requestContentType picks the Content-Type for a request. A multipart body always
// keeps its own type since it carries the boundary; otherwise an explicit header wins,
// then the encoding's own type, then form encoding for any non-empty raw body.
func requestContentType(headers map[string]string, implied string, payload []byte) string {
	if strings.HasPrefix(implied, "multipart/") {
		return implied
	}
	for k, v := range headers {
		if strings.EqualFold(k, contentTypeHeader) {
			return v
		}
	}
	if implied != "" {
		return implied
	}
	if len(payload) > 0 {
		return formContentType
	}
	return ""
}
