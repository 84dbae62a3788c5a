package testkit

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Response is a recorded reply.
type Response struct {
	Code   int
	Header http.Header
	Raw    []byte

	t      testing.TB
	method string
	path   string
}

type envelope struct {
	Status  int               `json:"status"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Errors  map[string]string `json:"errors"`
}

func (r *Response) envelope() envelope {
	r.t.Helper()
	var env envelope
	require.NoError(r.t, json.Unmarshal(r.Raw, &env), "%s %s: body is not an envelope: %s", r.method, r.path, r.Raw)
	return env
}

// AssertStatus fails the test now when the status code differs, printing
// the body.
func (r *Response) AssertStatus(code int) *Response {
	r.t.Helper()
	require.Equal(r.t, code, r.Code, "%s %s: %s", r.method, r.path, r.Raw)
	return r
}

// Data decodes the envelope's data field into dest.
func (r *Response) Data(dest any) *Response {
	r.t.Helper()
	env := r.envelope()
	require.NoError(r.t, json.Unmarshal(env.Data, dest), "%s %s: decode data: %s", r.method, r.path, env.Data)
	return r
}

func (r *Response) Message() string {
	r.t.Helper()
	return r.envelope().Message
}

// Errors is the envelope's field error map.
func (r *Response) Errors() map[string]string {
	r.t.Helper()
	return r.envelope().Errors
}

// AssertError checks the status and that field carries a message.
func (r *Response) AssertError(code int, field string) *Response {
	r.t.Helper()
	r.AssertStatus(code)
	assert.Contains(r.t, r.Errors(), field, "%s %s: %s", r.method, r.path, r.Raw)
	return r
}
