// Package testkit drives an http.Handler in-process and decodes the JSON
// envelope it answers with.
//
//	api := testkit.New(t, handler)
//	api.As(token).Post("/api/orders", nil).AssertStatus(http.StatusCreated).Data(&order)
package testkit

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

// Client sends requests straight to a handler. The zero token sends no
// Authorization header.
type Client struct {
	t       testing.TB
	handler http.Handler
	token   string
	headers map[string]string
}

func New(t testing.TB, handler http.Handler) *Client {
	return &Client{t: t, handler: handler}
}

// As returns a copy that authenticates with a bearer token.
func (c *Client) As(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

// Header returns a copy that sets key on every request.
func (c *Client) Header(key, value string) *Client {
	cp := *c
	cp.headers = make(map[string]string, len(c.headers)+1)
	for k, v := range c.headers {
		cp.headers[k] = v
	}
	cp.headers[key] = value
	return &cp
}

func (c *Client) Get(path string) *Response { return c.Do(http.MethodGet, path, nil) }

func (c *Client) Post(path string, body any) *Response { return c.Do(http.MethodPost, path, body) }

func (c *Client) Put(path string, body any) *Response { return c.Do(http.MethodPut, path, body) }

func (c *Client) Patch(path string, body any) *Response { return c.Do(http.MethodPatch, path, body) }

func (c *Client) Delete(path string, body any) *Response {
	return c.Do(http.MethodDelete, path, body)
}

// Do sends one request. A string or []byte body is sent as is; anything
// else is encoded as JSON.
func (c *Client) Do(method, path string, body any) *Response {
	c.t.Helper()

	var reader io.Reader
	switch v := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(v)
	case []byte:
		reader = bytes.NewReader(v)
	default:
		raw, err := json.Marshal(v)
		require.NoError(c.t, err, "testkit: encode body")
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)

	return &Response{t: c.t, Code: rec.Code, Header: rec.Header(), Raw: rec.Body.Bytes(), method: method, path: path}
}
