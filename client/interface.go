package client

import "context"

// Requester is the request surface of Client, for consumers that want to mock it.
type Requester interface {
	Head(ctx context.Context, url string, headers map[string]string) (*Response, error)
	Get(ctx context.Context, url string, headers map[string]string) (*Response, error)
	Post(ctx context.Context, url string, data any, headers map[string]string) (*Response, error)
	MultipartFormPost(ctx context.Context, url string, data any, headers map[string]string) (*Response, error)
	Put(ctx context.Context, url string, data []byte, headers map[string]string) (*Response, error)
	Delete(ctx context.Context, url string, headers map[string]string) (*Response, error)
}

var _ Requester = (*Client)(nil)
