package client

import (
	"fmt"
	"io"
	"maps"
	"net/url"
	"slices"

	"github.com/gaborage/pooledhttp/transport"
)

// toPostBody converts POST data into a transport body. Mappings become a field
// list ordered by name; bytes, strings and readers pass through as the raw body.
func toPostBody(data any, multipart bool) (*transport.Body, error) {
	body := &transport.Body{Multipart: multipart}

	switch d := data.(type) {
	case nil:
	case []byte:
		body.Raw = d
	case string:
		body.Raw = []byte(d)
	case io.Reader:
		raw, err := io.ReadAll(d)
		if err != nil {
			return nil, fmt.Errorf("read post data: %w", err)
		}
		body.Raw = raw
	case []transport.Field:
		body.Fields = d
	case map[string]string:
		for _, k := range slices.Sorted(maps.Keys(d)) {
			body.Fields = append(body.Fields, transport.Field{Name: k, Content: d[k]})
		}
	case map[string]any:
		for _, k := range slices.Sorted(maps.Keys(d)) {
			body.Fields = append(body.Fields, transport.Field{Name: k, Content: fmt.Sprint(d[k])})
		}
	case url.Values:
		body.Fields = multiValueFields(d)
	case map[string][]string:
		body.Fields = multiValueFields(d)
	default:
		return nil, NewValidationError(fmt.Sprintf("unsupported post data type %T", data), "data")
	}

	return body, nil
}

func multiValueFields(values map[string][]string) []transport.Field {
	var fields []transport.Field
	for _, k := range slices.Sorted(maps.Keys(values)) {
		for _, v := range values[k] {
			fields = append(fields, transport.Field{Name: k, Content: v})
		}
	}
	return fields
}
