package http

import (
	"github.com/brook-rpc/brook/chunk"
	"github.com/brook-rpc/brook/config"
	"github.com/brook-rpc/brook/http/method"
	"github.com/brook-rpc/brook/http/proto"
	"github.com/brook-rpc/brook/http/status"
	"github.com/brook-rpc/brook/kv"
	json "github.com/json-iterator/go"
)

// Message frames a single request or response out of a byte stream arriving
// in arbitrary portions. Parsing is strictly single-producer: feeding the
// same message from two goroutines at once is a caller contract violation
// and is deliberately not locked against. The only concurrently accessible
// part is the progressive body delivery, which synchronizes on its own.
//
// Once the stage reaches StageComplete the message is immutable; a pipelined
// successor on the same stream needs a fresh Message.
type Message struct {
	header       *Header
	body         chunk.Chunk
	channel      bodyChannel
	parser       parser
	parsedLength int
	stage        Stage
	progressive  bool
}

func newMessage(cfg *config.Config, mode parserMode, requestMethod method.Method, progressive bool) *Message {
	if cfg == nil {
		cfg = config.Default()
	}

	m := &Message{
		header: &Header{
			Fields: kv.NewPrealloc(cfg.Headers.Number.Default),
			Proto:  proto.HTTP11,
			Code:   status.OK,
		},
		progressive: progressive,
	}
	m.parser = newParser(m, mode, requestMethod, cfg)

	return m
}

// NewRequest returns a message framing the request side of a stream. A nil
// cfg means config.Default(). If progressive is true, body bytes are not
// retained: they go through the reader installed via SetBodyReader instead.
func NewRequest(cfg *config.Config, progressive bool) *Message {
	return newMessage(cfg, parseRequest, method.Unknown, progressive)
}

// NewResponse returns a message framing the response side of a stream.
// requestMethod is the method of the request this response answers:
// responses to HEAD and CONNECT are defined to carry no body, which cannot
// be derived from the response bytes alone.
func NewResponse(cfg *config.Config, requestMethod method.Method, progressive bool) *Message {
	return newMessage(cfg, parseResponse, requestMethod, progressive)
}

func (m *Message) Header() *Header {
	return m.header
}

// Body returns the buffered body accumulator. In progressive mode it stays
// empty: the bytes go through the body reader instead.
func (m *Message) Body() *chunk.Chunk {
	return &m.body
}

func (m *Message) Stage() Stage {
	return m.stage
}

func (m *Message) Completed() bool {
	return m.stage == StageComplete
}

func (m *Message) Progressive() bool {
	return m.progressive
}

// ParsedLength is the total number of stream bytes this message has
// consumed. After completion it tells the caller where in the last portion
// the next pipelined message begins.
func (m *Message) ParsedLength() int {
	return m.parsedLength
}

// ParseFromArray feeds the next portion of the stream and reports how many
// of the given bytes were consumed. Zero length signals end-of-stream: a
// structurally incomplete message fails with status.ErrPrematureTermination.
// Body fragments are defensively copied, as the array may be reused by the
// caller; feed a chunk via ParseFromChunk to avoid the copies.
func (m *Message) ParseFromArray(data []byte) (n int, err error) {
	n, err = m.parser.parse(data, false)
	m.parsedLength += n

	return n, err
}

// ParseFromChunk feeds the next portion of the stream from a chunk whose
// segments stay stable, letting body fragments reference them in place of
// copying. An empty chunk is silently ignored, unlike a zero-length array.
func (m *Message) ParseFromChunk(c chunk.Chunk) (n int, err error) {
	for _, seg := range c.Segments() {
		consumed, err := m.parser.parse(seg, true)
		n += consumed
		m.parsedLength += consumed

		if err != nil {
			return n, err
		}

		if consumed < len(seg) {
			// the message completed mid-segment; the leftover belongs
			// to the next one
			break
		}
	}

	return n, nil
}

// SetBodyReader installs r as the streaming consumer of the body. Fragments
// parsed before the installation are delivered right away, in order; if the
// message already ended, the final notification follows them immediately.
// May be called from a different goroutine than the parsing one.
//
// Only progressive messages route their body through a reader.
func (m *Message) SetBodyReader(r ProgressiveReader) {
	if !m.progressive {
		panic("BUG: http: SetBodyReader on a non-progressive message")
	}

	m.channel.install(r)
}

// BodyReaderError reports status.ErrConsumerRejected if an installed body
// reader declined data. The rejection never aborts the parse itself, so the
// message still gets framed and pipelining stays intact.
func (m *Message) BodyReaderError() error {
	return m.channel.rejection()
}

// JSON unmarshals the buffered body into model. The body is taken as is,
// no content type negotiation happens at this layer.
func (m *Message) JSON(model any) error {
	iterator := json.ConfigDefault.BorrowIterator(m.body.Bytes())
	iterator.ReadVal(model)
	err := iterator.Error
	json.ConfigDefault.ReturnIterator(iterator)

	return err
}
