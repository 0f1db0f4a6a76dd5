package http

import (
	"github.com/brook-rpc/brook/http/method"
	"github.com/brook-rpc/brook/http/proto"
	"github.com/brook-rpc/brook/http/status"
	"github.com/brook-rpc/brook/kv"
)

// Header carries the request/status line metadata and the field section of a
// single message. Fields keep their insertion order, and that order is
// exactly the order the serializer writes them in.
type Header struct {
	// Fields is the name-value section. Mutated by the parser until the
	// header section completes, and by the serializer when it injects
	// Host or Content-Length.
	Fields *kv.Storage

	// request line: relevant when the header describes a request
	Method method.Method
	URI    string

	// status line: relevant when the header describes a response. Empty
	// Reason means "use the standard phrase of Code"
	Code   status.Code
	Reason string

	Proto proto.Proto
}

func NewHeader() *Header {
	return &Header{
		Fields: kv.New(),
		Proto:  proto.HTTP11,
		Code:   status.OK,
	}
}
