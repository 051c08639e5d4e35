package testutil

import (
	"bytes"
	"io"
	"mime"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

// EchoHeader is set on every response produced by the test server.
const EchoHeader = "X-Test-Server"

// EchoPayload is the JSON document returned by the /echo route.
type EchoPayload struct {
	Method      string              `json:"method"`
	Headers     map[string]string   `json:"headers"`
	Body        string              `json:"body"`
	ContentType string              `json:"content_type"`
	Form        map[string][]string `json:"form,omitempty"`
}

// Server is an echo application served by httptest.
//
// Routes:
//
//	ANY /echo           200 with an EchoPayload describing the request
//	ANY /status/:code   the given status code with body "status <code>"
//	ANY /sequence       status codes scripted with SetSequence; the last one repeats
//	GET /slow?delay=d   sleeps d (time.ParseDuration) then 200
//	GET /redirect       302 to /echo
type Server struct {
	*httptest.Server
	Echo *echo.Echo

	mu       sync.Mutex
	sequence []int
	calls    map[string]int
}

// NewServer starts the test server and registers its shutdown with t.Cleanup.
func NewServer(t *testing.T) *Server {
	t.Helper()

	s := &Server{calls: make(map[string]int)}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			s.record(c.Request().URL.Path)
			c.Response().Header().Set(EchoHeader, "1")
			return next(c)
		}
	})

	e.Any("/echo", s.handleEcho)
	e.Any("/status/:code", s.handleStatus)
	e.Any("/sequence", s.handleSequence)
	e.GET("/slow", s.handleSlow)
	e.GET("/redirect", func(c echo.Context) error {
		return c.Redirect(http.StatusFound, "/echo")
	})

	s.Echo = e
	s.Server = httptest.NewServer(e)
	t.Cleanup(s.Close)
	return s
}

// Endpoint returns the absolute URL of path on this server.
func (s *Server) Endpoint(path string) string {
	return s.URL + path
}

// SetSequence scripts the status codes returned by /sequence.
func (s *Server) SetSequence(codes ...int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sequence = append([]int(nil), codes...)
}

// Calls returns how many requests reached path.
func (s *Server) Calls(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[path]
}

func (s *Server) record(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[path]++
}

func (s *Server) handleEcho(c echo.Context) error {
	req := c.Request()

	raw, err := io.ReadAll(req.Body)
	if err != nil {
		return err
	}
	req.Body = io.NopCloser(bytes.NewReader(raw))

	payload := EchoPayload{
		Method:      req.Method,
		Headers:     make(map[string]string, len(req.Header)),
		Body:        string(raw),
		ContentType: req.Header.Get(echo.HeaderContentType),
	}
	for k := range req.Header {
		payload.Headers[k] = req.Header.Get(k)
	}

	mediaType, _, _ := mime.ParseMediaType(payload.ContentType)
	switch mediaType {
	case echo.MIMEApplicationForm:
		if err := req.ParseForm(); err == nil {
			payload.Form = req.PostForm
		}
	case echo.MIMEMultipartForm:
		if err := req.ParseMultipartForm(1 << 20); err == nil {
			payload.Form = req.MultipartForm.Value
		}
	}

	return c.JSON(http.StatusOK, payload)
}

func (s *Server) handleStatus(c echo.Context) error {
	code, err := strconv.Atoi(c.Param("code"))
	if err != nil || code < 100 || code > 599 {
		return c.String(http.StatusBadRequest, "invalid status")
	}
	return c.String(code, "status "+strconv.Itoa(code))
}

func (s *Server) handleSequence(c echo.Context) error {
	s.mu.Lock()
	code := http.StatusOK
	if len(s.sequence) > 0 {
		code = s.sequence[0]
		if len(s.sequence) > 1 {
			s.sequence = s.sequence[1:]
		}
	}
	s.mu.Unlock()

	return c.String(code, strings.ToLower(http.StatusText(code)))
}

func (s *Server) handleSlow(c echo.Context) error {
	delay, err := time.ParseDuration(c.QueryParam("delay"))
	if err != nil {
		delay = time.Second
	}
	select {
	case <-time.After(delay):
	case <-c.Request().Context().Done():
	}
	return c.String(http.StatusOK, "slow")
}
