package config

import "math"

type (
	StartLineSize struct {
		// Default is the initially allocated space, Maximal is the hard
		// boundary after which parsing fails
		Default, Maximal int
	}

	HeadersNumber struct {
		Default, Maximal int
	}

	HeadersSpace struct {
		Default, Maximal int
	}
)

type (
	// StartLine bounds the request line on the request side and the status
	// line on the response side.
	StartLine struct {
		Size StartLineSize
	}

	Headers struct {
		// Number limits how many header fields a single message may carry.
		Number HeadersNumber
		// Space limits the memory occupied by header keys and values.
		Space HeadersSpace
	}

	Body struct {
		// MaxSize limits the size of a buffered body. Progressive bodies
		// are not retained, so the limit does not apply to them.
		MaxSize uint64
		// MaxChunkSize limits a single chunk of a chunked-encoded body.
		MaxChunkSize int64
	}
)

// Config holds the restrictions and pre-allocation knobs of the framing
// layer. Always modify an instance returned by Default() instead of filling
// the struct from scratch, otherwise zero limits will fail every message.
type Config struct {
	StartLine StartLine
	Headers   Headers
	Body      Body
}

// Default returns the default config. The maximals are fairly permissive.
func Default() *Config {
	return &Config{
		StartLine: StartLine{
			Size: StartLineSize{
				Default: 2 * 1024,
				Maximal: 16 * 1024,
			},
		},
		Headers: Headers{
			Number: HeadersNumber{
				Default: 10,
				Maximal: 100,
			},
			Space: HeadersSpace{
				Default: 1 * 1024,
				Maximal: 64 * 1024,
			},
		},
		Body: Body{
			MaxSize:      math.MaxUint32,
			MaxChunkSize: 16 * 1024 * 1024,
		},
	}
}
