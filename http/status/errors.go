package status

// HTTPError is an error carrying the status code it maps onto. All errors
// produced by the framing layer are connection-local: the current message
// (and usually the connection) is given up, the process never is.
type HTTPError struct {
	Message string
	Code    Code
}

func NewError(code Code, message string) error {
	return HTTPError{
		Code:    code,
		Message: message,
	}
}

func (h HTTPError) Error() string {
	return h.Message
}

var (
	// malformed input: the peer sent bytes that cannot form a message
	ErrBadRequest           = NewError(BadRequest, "bad request")
	ErrBadStatusLine        = NewError(BadRequest, "malformed status line")
	ErrMethodNotImplemented = NewError(NotImplemented, "request method is not supported")
	ErrUnsupportedProtocol  = NewError(HTTPVersionNotSupported, "protocol is not supported")
	ErrBadChunk             = NewError(BadRequest, "malformed chunked body")

	// configured limits exceeded: handled exactly as malformed input,
	// distinct codes help the glue layer to respond properly
	ErrTooLongRequestLine   = NewError(BadRequest, "request line is too long")
	ErrTooLongStatusLine    = NewError(BadRequest, "status line is too long")
	ErrURITooLong           = NewError(RequestURITooLong, "request URI too long")
	ErrHeaderFieldsTooLarge = NewError(HeaderFieldsTooLarge, "too large headers section")
	ErrTooManyHeaders       = NewError(HeaderFieldsTooLarge, "too many headers")
	ErrBodyTooLarge         = NewError(RequestEntityTooLarge, "message body is too large")

	// the stream ended while the message was structurally incomplete. Kept
	// separate from ErrBadRequest so callers can tell "peer closed early"
	// from "peer sent garbage"
	ErrPrematureTermination = NewError(BadRequest, "stream ended in the middle of a message")

	// a streaming body consumer declined data. Recorded on the message,
	// never aborts the underlying parse
	ErrConsumerRejected = NewError(InternalServerError, "body reader rejected data")
)
