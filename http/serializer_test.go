package http

import (
	"bufio"
	"bytes"
	"io"
	stdhttp "net/http"
	"testing"

	"github.com/brook-rpc/brook/chunk"
	"github.com/brook-rpc/brook/http/method"
	"github.com/brook-rpc/brook/http/status"
	"github.com/stretchr/testify/require"
)

func readRequest(t *testing.T, wire chunk.Chunk) *stdhttp.Request {
	req, err := stdhttp.ReadRequest(bufio.NewReader(bytes.NewReader(wire.Bytes())))
	require.NoError(t, err)
	return req
}

func readResponse(t *testing.T, wire chunk.Chunk) *stdhttp.Response {
	resp, err := stdhttp.ReadResponse(bufio.NewReader(bytes.NewReader(wire.Bytes())), nil)
	require.NoError(t, err)
	return resp
}

func TestSerializeRequest(t *testing.T) {
	t.Run("host injected from remote", func(t *testing.T) {
		h := NewHeader()
		h.Method = method.GET
		h.URI = "/status"

		wire := SerializeRequest(h, "203.0.113.7:8000", nil)
		req := readRequest(t, wire)
		require.Equal(t, "GET", req.Method)
		require.Equal(t, "/status", req.URL.Path)
		require.Equal(t, "203.0.113.7:8000", req.Host)
	})

	t.Run("existing host wins over remote", func(t *testing.T) {
		h := NewHeader()
		h.Method = method.GET
		h.URI = "/"
		h.Fields.Add("Host", "example.com")

		wire := SerializeRequest(h, "203.0.113.7:8000", nil)
		require.Equal(t, "example.com", readRequest(t, wire).Host)
		require.Equal(t, []string{"example.com"}, h.Fields.Values("Host"))
	})

	t.Run("no remote no host", func(t *testing.T) {
		h := NewHeader()
		h.Method = method.GET
		h.URI = "/"

		wire := SerializeRequest(h, "", nil)
		require.False(t, h.Fields.Has("Host"))
		require.NotContains(t, wire.String(), "Host:")
	})

	t.Run("content-length matches the content", func(t *testing.T) {
		h := NewHeader()
		h.Method = method.POST
		h.URI = "/upload"
		// a stale value must be corrected, not duplicated
		h.Fields.Add("Content-Length", "999")

		content := chunk.FromString("Hello, world!")
		wire := SerializeRequest(h, "example.com", &content)

		req := readRequest(t, wire)
		require.EqualValues(t, 13, req.ContentLength)
		body, err := io.ReadAll(req.Body)
		require.NoError(t, err)
		require.Equal(t, "Hello, world!", string(body))
		require.Equal(t, []string{"13"}, h.Fields.Values("Content-Length"))

		// the content is referenced, not consumed
		require.Equal(t, "Hello, world!", content.String())
	})

	t.Run("empty uri defaults to root", func(t *testing.T) {
		h := NewHeader()
		h.Method = method.GET

		wire := SerializeRequest(h, "example.com", nil)
		require.Equal(t, "/", readRequest(t, wire).URL.Path)
	})

	t.Run("field order is preserved", func(t *testing.T) {
		h := NewHeader()
		h.Method = method.GET
		h.URI = "/"
		h.Fields.
			Add("B-First", "1").
			Add("A-Second", "2").
			Add("B-First", "3")

		wire := SerializeRequest(h, "", nil).String()
		require.Contains(t, wire, "B-First: 1\r\nA-Second: 2\r\nB-First: 3\r\n")
	})

	t.Run("round trip through the parser", func(t *testing.T) {
		h := NewHeader()
		h.Method = method.POST
		h.URI = "/v1/echo"
		h.Fields.Add("Accept", "application/json")

		content := chunk.FromString(`{"greeting":"hi"}`)
		wire := SerializeRequest(h, "203.0.113.7:8000", &content)

		m := NewRequest(nil, false)
		n, err := m.ParseFromArray(wire.Bytes())
		require.NoError(t, err)
		require.Equal(t, wire.Len(), n)
		require.True(t, m.Completed())
		require.Equal(t, method.POST, m.Header().Method)
		require.Equal(t, "/v1/echo", m.Header().URI)
		require.Equal(t, "application/json", m.Header().Fields.Value("Accept"))
		require.Equal(t, "203.0.113.7:8000", m.Header().Fields.Value("Host"))
		require.Equal(t, `{"greeting":"hi"}`, m.Body().String())

		var model struct {
			Greeting string `json:"greeting"`
		}
		require.NoError(t, m.JSON(&model))
		require.Equal(t, "hi", model.Greeting)
	})
}

func TestSerializeResponse(t *testing.T) {
	t.Run("standard reason filled in", func(t *testing.T) {
		h := NewHeader()
		h.Code = status.NotFound

		wire := SerializeResponse(h, nil)
		resp := readResponse(t, wire)
		require.Equal(t, 404, resp.StatusCode)
		require.Equal(t, "404 Not Found", resp.Status)
	})

	t.Run("custom reason kept", func(t *testing.T) {
		h := NewHeader()
		h.Code = status.Teapot
		h.Reason = "I Said So"

		wire := SerializeResponse(h, nil)
		require.Equal(t, "418 I Said So", readResponse(t, wire).Status)
	})

	t.Run("content is moved", func(t *testing.T) {
		h := NewHeader()
		content := chunk.FromString("Hello, world!")

		wire := SerializeResponse(h, &content)
		require.True(t, content.Empty())
		require.Equal(t, "13", h.Fields.Value("Content-Length"))

		resp := readResponse(t, wire)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.Equal(t, "Hello, world!", string(body))
	})

	t.Run("round trip through the parser", func(t *testing.T) {
		h := NewHeader()
		h.Code = status.Created
		h.Fields.Add("Server", "brook")

		content := chunk.FromString("registered")
		wire := SerializeResponse(h, &content)

		m := NewResponse(nil, method.POST, false)
		n, err := m.ParseFromArray(wire.Bytes())
		require.NoError(t, err)
		require.Equal(t, wire.Len(), n)
		require.True(t, m.Completed())
		require.Equal(t, status.Created, m.Header().Code)
		require.Equal(t, "Created", m.Header().Reason)
		require.Equal(t, "brook", m.Header().Fields.Value("Server"))
		require.Equal(t, "registered", m.Body().String())
	})
}
