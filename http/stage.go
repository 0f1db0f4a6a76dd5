package http

// Stage tracks how far a message has been parsed. It only ever advances,
// except HeaderField and HeaderValue which alternate for every field until
// the header section ends.
type Stage uint8

const (
	StageBegin Stage = iota
	StageURL
	StageStatus
	StageHeaderField
	StageHeaderValue
	StageHeadersComplete
	StageBody
	StageComplete
)

func (s Stage) String() string {
	lut := [...]string{
		StageBegin:           "begin",
		StageURL:             "url",
		StageStatus:          "status",
		StageHeaderField:     "header field",
		StageHeaderValue:     "header value",
		StageHeadersComplete: "headers complete",
		StageBody:            "body",
		StageComplete:        "complete",
	}
	if int(s) >= len(lut) {
		return "unknown"
	}

	return lut[s]
}
