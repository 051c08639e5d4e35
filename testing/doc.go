// Package testing provides testing utilities for applications built on pooledhttp.
//
// # Mocks
//
// The mocks subpackage provides testify-based mock implementations of the
// transport.Handle capability together with factories that feed them to a
// pool, so client behavior can be driven without a network:
//
//	h := &mocks.MockHandle{}
//	h.ExpectConfigure()
//	h.ExpectResponse(200, "HTTP/1.1 200 OK\r\n\r\n", nil)
//
//	c := client.NewBuilder(nil).WithTransport(mocks.HandleFactory(h)).Build()
//
// # Usage
//
// Import the specific subpackages you need:
//
//	import "github.com/gaborage/pooledhttp/testing/mocks"
package testing
