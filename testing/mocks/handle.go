package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/gaborage/pooledhttp/transport"
)

// MockHandle provides a testify-based mock implementation of transport.Handle.
// It allows for testing the pool and client without touching the network.
//
// Example usage:
//
//	h := &mocks.MockHandle{}
//	h.ExpectConfigure()
//	h.ExpectResponse(200, "HTTP/1.1 200 OK\r\n\r\n", []byte("ok"))
//	h.ExpectClose(nil)
//
//	c := client.NewBuilder(nil).WithTransport(mocks.HandleFactory(h)).Build()
type MockHandle struct {
	mock.Mock
}

var _ transport.Handle = (*MockHandle)(nil)

// Configure implements transport.Handle
func (m *MockHandle) Configure(req transport.Request) {
	m.Called(req)
}

// Perform implements transport.Handle
func (m *MockHandle) Perform(ctx context.Context) error {
	arguments := m.Called(ctx)
	return arguments.Error(0)
}

// Status implements transport.Handle
func (m *MockHandle) Status() int {
	arguments := m.Called()
	return arguments.Int(0)
}

// HeaderBlock implements transport.Handle
func (m *MockHandle) HeaderBlock() string {
	arguments := m.Called()
	return arguments.String(0)
}

// Body implements transport.Handle
func (m *MockHandle) Body() []byte {
	arguments := m.Called()
	if b := arguments.Get(0); b != nil {
		return b.([]byte)
	}
	return nil
}

// Reset implements transport.Handle
func (m *MockHandle) Reset() {
	m.Called()
}

// Close implements transport.Handle
func (m *MockHandle) Close() error {
	arguments := m.Called()
	return arguments.Error(0)
}

// Helper methods for common testing scenarios

// ExpectConfigure accepts any request configuration.
func (m *MockHandle) ExpectConfigure() *mock.Call {
	return m.On("Configure", mock.Anything)
}

// ExpectResponse makes the next Perform succeed with the given status, header block and body.
func (m *MockHandle) ExpectResponse(status int, headerBlock string, body []byte) *mock.Call {
	m.On("Status").Return(status).Once()
	m.On("HeaderBlock").Return(headerBlock).Once()
	m.On("Body").Return(body).Once()
	return m.On("Perform", mock.Anything).Return(nil).Once()
}

// ExpectTransportError makes the next Perform fail with err; the handle expects a Reset afterwards.
func (m *MockHandle) ExpectTransportError(err error) *mock.Call {
	m.On("Reset").Return().Once()
	return m.On("Perform", mock.Anything).Return(err).Once()
}

// ExpectClose sets up a close expectation with the provided error
func (m *MockHandle) ExpectClose(err error) *mock.Call {
	return m.On("Close").Return(err)
}

// ConfiguredRequests returns every request passed to Configure, in call order.
func (m *MockHandle) ConfiguredRequests() []transport.Request {
	var reqs []transport.Request
	for _, call := range m.Calls {
		if call.Method == "Configure" {
			reqs = append(reqs, call.Arguments.Get(0).(transport.Request))
		}
	}
	return reqs
}

// HandleFactory returns a transport.Factory that hands out the given handles in order
// and fails once they are exhausted.
func HandleFactory(handles ...transport.Handle) transport.Factory {
	var (
		mu   sync.Mutex
		next int
	)
	return func(context.Context) (transport.Handle, error) {
		mu.Lock()
		defer mu.Unlock()
		if next >= len(handles) {
			return nil, fmt.Errorf("mock factory exhausted after %d handles", len(handles))
		}
		h := handles[next]
		next++
		return h, nil
	}
}

// FailingFactory returns a transport.Factory that always fails with err.
func FailingFactory(err error) transport.Factory {
	return func(context.Context) (transport.Handle, error) {
		return nil, err
	}
}
