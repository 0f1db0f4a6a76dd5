package http

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/brook-rpc/brook/config"
	"github.com/brook-rpc/brook/http/method"
	"github.com/brook-rpc/brook/http/proto"
	"github.com/brook-rpc/brook/http/status"
	"github.com/indigo-web/chunkedbody"
	"github.com/indigo-web/utils/buffer"
	"github.com/indigo-web/utils/strcomp"
	"github.com/indigo-web/utils/uf"
)

type parserMode uint8

const (
	parseRequest parserMode = iota + 1
	parseResponse
)

type parserState uint8

const (
	eMethod parserState = iota + 1
	eRequestLine
	eProto
	eCode
	eReason
	eHeaderKey
	eHeaderValue
	eHeaderValueCRLFCR
	eBody
	eBodyChunked
	eBodyUntilEOF
	eDone
)

// parser is the stream tokenizer behind a Message. It never looks at more
// bytes than it was given and never blocks: whatever doesn't fit into the
// current call is accumulated in bounded buffers and parsing resumes from
// the exact same spot on the next call. The buffers are bounded by the
// config, so a hostile header section fails the parse instead of growing
// memory.
type parser struct {
	msg              *Message
	startLineBuff    *buffer.Buffer
	headerKeyBuff    *buffer.Buffer
	headerValueBuff  *buffer.Buffer
	chunkedParser    *chunkedbody.Parser
	headerKey        string
	err              error
	contentLength    int64
	bodyLeft         int64
	maxBodySize      uint64
	bodyBuffered     uint64
	headersNumber    int
	maxHeadersNumber int
	code             int
	requestMethod    method.Method
	mode             parserMode
	state            parserState
	chunked          bool
	hasTrailer       bool
}

func newParser(msg *Message, mode parserMode, requestMethod method.Method, cfg *config.Config) parser {
	settings := chunkedbody.DefaultSettings()
	settings.MaxChunkSize = cfg.Body.MaxChunkSize

	initial := eMethod
	if mode == parseResponse {
		initial = eProto
	}

	return parser{
		msg:              msg,
		mode:             mode,
		state:            initial,
		startLineBuff:    buffer.New(cfg.StartLine.Size.Default, cfg.StartLine.Size.Maximal),
		headerKeyBuff:    buffer.New(cfg.Headers.Space.Default, cfg.Headers.Space.Maximal),
		headerValueBuff:  buffer.New(cfg.Headers.Space.Default, cfg.Headers.Space.Maximal),
		maxHeadersNumber: cfg.Headers.Number.Maximal,
		contentLength:    -1,
		maxBodySize:      cfg.Body.MaxSize,
		chunkedParser:    chunkedbody.NewParser(settings),
		requestMethod:    requestMethod,
	}
}

// parse consumes the next portion of the stream and reports how many bytes
// it took. Zero-length data signals end-of-stream. alias tells whether data
// stays stable for the message's lifetime, in which case body fragments
// reference it directly instead of being copied.
func (p *parser) parse(data []byte, alias bool) (n int, err error) {
	if p.err != nil {
		return 0, p.err
	}

	if p.state == eDone {
		// the message is framed; whatever arrives next belongs to a
		// pipelined successor and is not ours to consume
		return 0, nil
	}

	if len(data) == 0 {
		return 0, p.eof()
	}

	rest, err := p.advance(data, alias)
	if err != nil {
		return len(data) - len(rest), p.fail(err)
	}

	return len(data) - len(rest), nil
}

func (p *parser) eof() error {
	switch p.state {
	case eBodyUntilEOF:
		p.complete()
		return nil
	case eMethod, eProto:
		if p.startLineBuff.SegmentLength() == 0 && p.msg.stage == StageBegin {
			// the peer closed between messages, no harm done
			return nil
		}
	}

	return p.fail(status.ErrPrematureTermination)
}

func (p *parser) fail(err error) error {
	p.err = err
	if p.msg.progressive {
		// a streaming consumer must always get its final notification,
		// even when the message it was reading never completes
		p.msg.channel.finish(err)
	}

	return err
}

func (p *parser) complete() {
	p.state = eDone
	p.msg.stage = StageComplete
	if p.msg.progressive {
		p.msg.channel.finish(nil)
	}
}

func (p *parser) advance(data []byte, alias bool) (rest []byte, err error) {
	msg := p.msg
	fields := msg.header.Fields

	if msg.stage == StageBegin {
		if p.mode == parseRequest {
			msg.stage = StageURL
		} else {
			msg.stage = StageStatus
		}
	}

	switch p.state {
	case eMethod:
		goto method
	case eRequestLine:
		goto requestLine
	case eProto:
		goto protocol
	case eCode:
		goto code
	case eReason:
		goto reason
	case eHeaderKey:
		goto headerKey
	case eHeaderValue:
		goto headerValue
	case eHeaderValueCRLFCR:
		goto headerValueCRLFCR
	case eBody:
		goto body
	case eBodyChunked:
		goto bodyChunked
	case eBodyUntilEOF:
		goto bodyUntilEOF
	default:
		panic(fmt.Sprintf("BUG: http: parser: unexpected state: %v", p.state))
	}

method:
	{
		sp := bytes.IndexByte(data, ' ')
		if sp == -1 {
			if !p.startLineBuff.Append(data) {
				return nil, status.ErrTooLongRequestLine
			}

			return nil, nil
		}

		var methodValue []byte
		if p.startLineBuff.SegmentLength() == 0 {
			methodValue = data[:sp]
		} else {
			if !p.startLineBuff.Append(data[:sp]) {
				return nil, status.ErrTooLongRequestLine
			}

			methodValue = p.startLineBuff.Finish()
		}

		if len(methodValue) == 0 {
			return nil, status.ErrBadRequest
		}

		msg.header.Method = method.Parse(uf.B2S(methodValue))
		if msg.header.Method == method.Unknown {
			return nil, status.ErrMethodNotImplemented
		}

		data = data[sp+1:]
		p.state = eRequestLine
		goto requestLine
	}

requestLine:
	{
		lf := bytes.IndexByte(data, '\n')
		if lf == -1 {
			if !p.startLineBuff.Append(data) {
				return nil, status.ErrURITooLong
			}

			return nil, nil
		}

		if !p.startLineBuff.Append(data[:lf]) {
			return nil, status.ErrURITooLong
		}

		uriAndProto := p.startLineBuff.Finish()
		sp := bytes.LastIndexByte(uriAndProto, ' ')
		if sp == -1 {
			return nil, status.ErrBadRequest
		}

		uri, protoValue := uriAndProto[:sp], uriAndProto[sp+1:]
		if len(protoValue) > 0 && protoValue[len(protoValue)-1] == '\r' {
			protoValue = protoValue[:len(protoValue)-1]
		}

		if len(uri) == 0 {
			return nil, status.ErrBadRequest
		}

		msg.header.URI = uf.B2S(uri)
		msg.header.Proto = proto.FromBytes(protoValue)
		if msg.header.Proto == proto.Unknown {
			return nil, status.ErrUnsupportedProtocol
		}

		data = data[lf+1:]
		p.state = eHeaderKey
		goto headerKey
	}

protocol:
	{
		sp := bytes.IndexByte(data, ' ')
		if sp == -1 {
			if !p.startLineBuff.Append(data) {
				return nil, status.ErrTooLongStatusLine
			}

			return nil, nil
		}

		var protoValue []byte
		if p.startLineBuff.SegmentLength() == 0 {
			protoValue = data[:sp]
		} else {
			if !p.startLineBuff.Append(data[:sp]) {
				return nil, status.ErrTooLongStatusLine
			}

			protoValue = p.startLineBuff.Finish()
		}

		msg.header.Proto = proto.FromBytes(protoValue)
		if msg.header.Proto == proto.Unknown {
			return nil, status.ErrUnsupportedProtocol
		}

		data = data[sp+1:]
		p.state = eCode
		goto code
	}

code:
	for i := 0; i < len(data); i++ {
		char := data[i]

		if char >= '0' && char <= '9' {
			p.code = p.code*10 + int(char-'0')
			if p.code > 999 {
				return nil, status.ErrBadStatusLine
			}

			continue
		}

		if char == ' ' {
			data = data[i+1:]
			p.state = eReason
			goto reason
		}

		if char == '\r' || char == '\n' {
			data = data[i:]
			p.state = eReason
			goto reason
		}

		return nil, status.ErrBadStatusLine
	}

	return nil, nil

reason:
	{
		lf := bytes.IndexByte(data, '\n')
		if lf == -1 {
			if !p.startLineBuff.Append(data) {
				return nil, status.ErrTooLongStatusLine
			}

			return nil, nil
		}

		if !p.startLineBuff.Append(data[:lf]) {
			return nil, status.ErrTooLongStatusLine
		}

		if p.code < 100 {
			return nil, status.ErrBadStatusLine
		}

		reasonValue := trimPrefixSpaces(p.startLineBuff.Finish())
		if len(reasonValue) > 0 && reasonValue[len(reasonValue)-1] == '\r' {
			reasonValue = reasonValue[:len(reasonValue)-1]
		}

		msg.header.Code = status.Code(p.code)
		msg.header.Reason = uf.B2S(reasonValue)

		data = data[lf+1:]
		p.state = eHeaderKey
		goto headerKey
	}

headerKey:
	{
		if len(data) == 0 {
			return nil, nil
		}

		switch data[0] {
		case '\n':
			if p.headerKeyBuff.SegmentLength() > 0 {
				return nil, status.ErrBadRequest
			}

			data = data[1:]
			goto headersComplete
		case '\r':
			if p.headerKeyBuff.SegmentLength() > 0 {
				return nil, status.ErrBadRequest
			}

			data = data[1:]
			p.state = eHeaderValueCRLFCR
			goto headerValueCRLFCR
		}

		msg.stage = StageHeaderField

		colon := bytes.IndexByte(data, ':')
		if lf := bytes.IndexByte(data, '\n'); lf != -1 && (colon == -1 || lf < colon) {
			// the field line ended without a colon
			return nil, status.ErrBadRequest
		}

		if colon == -1 {
			if !p.headerKeyBuff.Append(data) {
				return nil, status.ErrHeaderFieldsTooLarge
			}

			return nil, nil
		}

		if !p.headerKeyBuff.Append(data[:colon]) {
			return nil, status.ErrHeaderFieldsTooLarge
		}

		p.headerKey = uf.B2S(p.headerKeyBuff.Finish())
		data = data[colon+1:]

		if p.headersNumber++; p.headersNumber > p.maxHeadersNumber {
			return nil, status.ErrTooManyHeaders
		}

		p.state = eHeaderValue
		goto headerValue
	}

headerValue:
	{
		msg.stage = StageHeaderValue

		lf := bytes.IndexByte(data, '\n')
		if lf == -1 {
			if !p.headerValueBuff.Append(data) {
				return nil, status.ErrHeaderFieldsTooLarge
			}

			return nil, nil
		}

		if !p.headerValueBuff.Append(data[:lf]) {
			return nil, status.ErrHeaderFieldsTooLarge
		}

		data = data[lf+1:]
		value := uf.B2S(trimPrefixSpaces(p.headerValueBuff.Finish()))
		if len(value) > 0 && value[len(value)-1] == '\r' {
			value = value[:len(value)-1]
		}

		fields.Add(p.headerKey, value)

		switch {
		case strcomp.EqualFold(p.headerKey, "content-length"):
			length, ok := parseContentLength(value)
			if !ok {
				return nil, status.ErrBadRequest
			}

			p.contentLength = length
		case strcomp.EqualFold(p.headerKey, "transfer-encoding"):
			if hasChunkedToken(value) {
				p.chunked = true
			}
		case strcomp.EqualFold(p.headerKey, "trailer"):
			p.hasTrailer = true
		}

		p.state = eHeaderKey
		goto headerKey
	}

headerValueCRLFCR:
	if len(data) == 0 {
		return nil, nil
	}

	if data[0] != '\n' {
		return nil, status.ErrBadRequest
	}

	data = data[1:]
	goto headersComplete

headersComplete:
	msg.stage = StageHeadersComplete

	if p.skipBody() {
		p.complete()
		return data, nil
	}

	switch {
	case p.chunked:
		msg.stage = StageBody
		p.state = eBodyChunked
		goto bodyChunked
	case p.contentLength > 0:
		msg.stage = StageBody
		p.bodyLeft = p.contentLength
		p.state = eBody
		goto body
	case p.contentLength == 0:
		p.complete()
		return data, nil
	case p.mode == parseResponse:
		// nothing declared the body's extent: it spans to the end of
		// the stream
		msg.stage = StageBody
		p.state = eBodyUntilEOF
		goto bodyUntilEOF
	default:
		// a request without declared framing has no body
		p.complete()
		return data, nil
	}

body:
	{
		take := len(data)
		if int64(take) > p.bodyLeft {
			take = int(p.bodyLeft)
		}

		if take > 0 {
			if err = p.onBody(data[:take], alias); err != nil {
				return nil, err
			}

			data = data[take:]
			p.bodyLeft -= int64(take)
		}

		if p.bodyLeft == 0 {
			p.complete()
			return data, nil
		}

		return nil, nil
	}

bodyChunked:
	for len(data) > 0 {
		piece, extra, chunkErr := p.chunkedParser.Parse(data, p.hasTrailer)
		switch chunkErr {
		case nil, io.EOF:
		default:
			return nil, status.ErrBadChunk
		}

		if len(piece) > 0 {
			if err = p.onBody(piece, alias); err != nil {
				return nil, err
			}
		}

		if chunkErr == io.EOF {
			p.complete()
			return extra, nil
		}

		data = extra
	}

	return nil, nil

bodyUntilEOF:
	if err = p.onBody(data, alias); err != nil {
		return nil, err
	}

	return nil, nil
}

func (p *parser) skipBody() bool {
	if p.mode == parseRequest {
		return false
	}

	// responses to HEAD are headers-only by definition, 2xx to CONNECT
	// switches the connection to a tunnel
	if p.requestMethod == method.HEAD || p.requestMethod == method.CONNECT {
		return true
	}

	return (p.code >= 100 && p.code < 200) || p.code == 204 || p.code == 304
}

func (p *parser) onBody(piece []byte, alias bool) error {
	msg := p.msg

	if msg.progressive {
		msg.channel.push(piece, alias)
		return nil
	}

	p.bodyBuffered += uint64(len(piece))
	if p.bodyBuffered > p.maxBodySize {
		return status.ErrBodyTooLarge
	}

	if alias {
		msg.body.Append(piece)
	} else {
		msg.body.AppendCopy(piece)
	}

	return nil
}

func parseContentLength(value string) (length int64, ok bool) {
	seenDigit := false

	for i := 0; i < len(value); i++ {
		char := value[i]
		if char == ' ' {
			continue
		}

		if char < '0' || char > '9' {
			return 0, false
		}

		if length > (math.MaxInt64-9)/10 {
			// the accumulated value would overflow and wrap into a small
			// declared length, desyncing the framing
			return 0, false
		}

		length = length*10 + int64(char-'0')
		seenDigit = true
	}

	return length, seenDigit
}

func hasChunkedToken(value string) bool {
	for len(value) > 0 {
		var token string
		comma := strings.IndexByte(value, ',')
		if comma == -1 {
			token, value = value, ""
		} else {
			token, value = value[:comma], value[comma+1:]
		}

		if strcomp.EqualFold(strings.TrimSpace(token), "chunked") {
			return true
		}
	}

	return false
}

func trimPrefixSpaces(b []byte) []byte {
	for i, char := range b {
		if char != ' ' {
			return b[i:]
		}
	}

	return b[:0]
}
