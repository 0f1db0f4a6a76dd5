package http

import (
	"strconv"

	"github.com/brook-rpc/brook/chunk"
	"github.com/brook-rpc/brook/http/status"
)

const (
	colonsp = ": "
	crlf    = "\r\n"
)

// SerializeRequest renders the header and the content into request wire
// bytes: request line, fields in their iteration order, a blank line and
// the body. A Host field derived from remote is injected only when the
// header has none; Content-Length is injected or overwritten to match the
// content whenever content is non-nil. The content itself is referenced,
// not copied.
//
// Field values are passed through verbatim: whatever garbage the header
// carries ends up on the wire.
func SerializeRequest(h *Header, remote string, content *chunk.Chunk) chunk.Chunk {
	if content != nil {
		h.Fields.Set("Content-Length", strconv.Itoa(content.Len()))
	}

	if remote != "" && !h.Fields.Has("Host") {
		h.Fields.Add("Host", remote)
	}

	uri := h.URI
	if uri == "" {
		uri = "/"
	}

	buff := make([]byte, 0, estimateHeaderSize(h))
	buff = append(buff, h.Method.String()...)
	buff = append(buff, ' ')
	buff = append(buff, uri...)
	buff = append(buff, ' ')
	buff = append(buff, h.Proto.String()...)
	buff = append(buff, crlf...)
	buff = renderFields(buff, h)
	buff = append(buff, crlf...)

	var wire chunk.Chunk
	wire.Append(buff)
	if content != nil {
		wire.AppendChunk(*content)
	}

	return wire
}

// SerializeResponse is the response-side counterpart, writing a status line
// instead of a request line. The content's ownership moves into the returned
// chunk: the source is cleared and must not be assumed populated afterwards.
func SerializeResponse(h *Header, content *chunk.Chunk) chunk.Chunk {
	if content != nil {
		h.Fields.Set("Content-Length", strconv.Itoa(content.Len()))
	}

	reason := h.Reason
	if reason == "" {
		reason = string(status.Text(h.Code))
	}

	buff := make([]byte, 0, estimateHeaderSize(h))
	buff = append(buff, h.Proto.String()...)
	buff = append(buff, ' ')
	buff = strconv.AppendInt(buff, int64(h.Code), 10)
	buff = append(buff, ' ')
	buff = append(buff, reason...)
	buff = append(buff, crlf...)
	buff = renderFields(buff, h)
	buff = append(buff, crlf...)

	var wire chunk.Chunk
	wire.Append(buff)
	if content != nil {
		wire.AppendChunk(*content)
		content.Clear()
	}

	return wire
}

func renderFields(buff []byte, h *Header) []byte {
	for _, pair := range h.Fields.Expose() {
		buff = append(buff, pair.Key...)
		buff = append(buff, colonsp...)
		buff = append(buff, pair.Value...)
		buff = append(buff, crlf...)
	}

	return buff
}

func estimateHeaderSize(h *Header) int {
	const lineOverhead = len(colonsp) + len(crlf)

	size := len(h.URI) + len(h.Reason) + 64
	for _, pair := range h.Fields.Expose() {
		size += len(pair.Key) + len(pair.Value) + lineOverhead
	}

	return size
}
