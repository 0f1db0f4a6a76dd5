package http

import (
	"sync"

	"github.com/brook-rpc/brook/chunk"
	"github.com/brook-rpc/brook/http/status"
)

// ProgressiveReader consumes a message body incrementally, as its fragments
// are parsed out of the stream. A non-nil error returned from
// OnDataAvailable rejects the data: the reader is retired, gets a final
// OnEndOfMessage with the returned error and is never called again.
//
// Every fragment is delivered exactly once and in arrival order, no matter
// whether the reader was installed before the first fragment, between
// fragments, or after the message completed. OnEndOfMessage is delivered
// exactly once, strictly after all fragments; a nil error means the message
// ended cleanly.
type ProgressiveReader interface {
	OnDataAvailable(data []byte) error
	OnEndOfMessage(err error)
}

// bodyChannel synchronizes the parsing producer with the consuming
// application. The parser and the reader-installing path run on independent
// schedules, possibly on different goroutines; the mutex here is the only
// synchronization point between them. The lock is held only for buffer
// appends and pointer swaps, never across a reader callback: a callback is
// free to block or to reach back into the channel without deadlocking.
type bodyChannel struct {
	mu      sync.Mutex
	reader  ProgressiveReader
	pending chunk.Chunk
	done    bool
	doneErr error
	// rejection record, exposed via Message.BodyReaderError
	failure error
	// retired is set once OnEndOfMessage has been delivered; nothing is
	// buffered or delivered past that point
	retired bool
}

// install hands buffered fragments to the reader and then either retires it
// (if the message already ended) or makes it the delivery target for future
// fragments. The reader reference is published only after the buffered
// backlog is drained, so a concurrently producing parser keeps buffering in
// the meantime and no fragment can overtake another.
func (c *bodyChannel) install(r ProgressiveReader) {
	c.mu.Lock()

	if c.retired {
		// the previous reader already got the final notification; give
		// this one its own so it isn't left waiting forever
		doneErr := c.doneErr
		c.mu.Unlock()
		r.OnEndOfMessage(doneErr)
		return
	}

	for !c.pending.Empty() {
		detached := c.pending
		c.pending = chunk.Chunk{}
		c.mu.Unlock()

		if err := deliver(r, detached); err != nil {
			c.reject(r, err)
			return
		}

		c.mu.Lock()
	}

	if c.done {
		c.retired = true
		doneErr := c.doneErr
		c.mu.Unlock()
		r.OnEndOfMessage(doneErr)
		return
	}

	c.reader = r
	c.mu.Unlock()
}

// push hands a body fragment over. alias tells whether data is stable for
// the message's lifetime and may be retained as is; otherwise it is copied
// before the lock is released, as the producer may reuse the array.
func (c *bodyChannel) push(data []byte, alias bool) {
	c.mu.Lock()

	if c.retired {
		// the reader rejected earlier data; framing goes on, fragments
		// are discarded
		c.mu.Unlock()
		return
	}

	r := c.reader
	if r == nil {
		if alias {
			c.pending.Append(data)
		} else {
			c.pending.AppendCopy(data)
		}
		c.mu.Unlock()
		return
	}

	// a reader is installed, so the backlog is empty and the parser is the
	// single producer: delivering outside the lock preserves order
	c.mu.Unlock()

	if err := r.OnDataAvailable(data); err != nil {
		c.reject(r, err)
	}
}

// finish records the end of the message. err is nil on clean completion and
// carries the parse failure otherwise. If no reader is installed yet, the
// notification is deferred until install.
func (c *bodyChannel) finish(err error) {
	c.mu.Lock()

	if c.retired || c.done {
		c.mu.Unlock()
		return
	}

	c.done, c.doneErr = true, err
	r := c.reader
	if r == nil {
		c.mu.Unlock()
		return
	}

	c.reader = nil
	c.retired = true
	c.mu.Unlock()
	r.OnEndOfMessage(err)
}

// reject retires a reader that declined data. Must be called without the
// lock held.
func (c *bodyChannel) reject(r ProgressiveReader, cause error) {
	c.mu.Lock()
	c.reader = nil
	c.failure = status.ErrConsumerRejected
	c.retired = true
	// record the cause as the terminal state, so a reader installed after
	// the retirement is not told the message ended cleanly
	c.done, c.doneErr = true, cause
	c.pending.Clear()
	c.mu.Unlock()

	r.OnEndOfMessage(cause)
}

func (c *bodyChannel) rejection() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.failure
}

func deliver(r ProgressiveReader, fragments chunk.Chunk) error {
	for _, seg := range fragments.Segments() {
		if err := r.OnDataAvailable(seg); err != nil {
			return err
		}
	}

	return nil
}
