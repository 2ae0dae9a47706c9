/*
 * MIT License
 *
 * Copyright (c) 2026 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package transport

import (
	"bytes"
	"net"
	"sync"
	"time"

	"github.com/nabbar/tlscached/plug"
)

// Selector multiplexes readiness across every registered connection onto a
// single channel, so a cooperative event loop can suspend in one select
// alongside its idle-floor ticker and accept channel instead of waking on a
// fixed timer regardless of whether any client actually has data waiting.
// Each registered connection gets one goroutine blocked in Conn.Read, which
// is where this actually waits on the Go runtime's network poller; Ready
// only fans those wakeups back into a single channel, standing in for a
// real epoll/kqueue readiness set without binding raw poll syscalls.
type Selector struct {
	ready chan struct{}

	mu      sync.Mutex
	sources map[*selSource]struct{}
}

// NewSelector returns an empty Selector.
func NewSelector() *Selector {
	return &Selector{
		ready:   make(chan struct{}, 1),
		sources: make(map[*selSource]struct{}),
	}
}

// Ready returns the channel that receives a value whenever at least one
// registered connection has unread bytes or has failed. A loop should drain
// it with a non-blocking select and then run its tick; Ready coalesces
// concurrent wakeups into a single pending send, so a receive means "check
// everything," not "exactly one connection changed."
func (s *Selector) Ready() <-chan struct{} {
	return s.ready
}

func (s *Selector) wake() {
	select {
	case s.ready <- struct{}{}:
	default:
	}
}

// Register starts reading conn in the background and returns a
// plug.ByteStream that serves bytes already read off it without blocking,
// returning plug.ErrWouldBlock when nothing has arrived yet and writes
// straight through conn using the same immediate-deadline translation as
// Stream. Closing the returned stream (ordinarily via Plug.Close, which a
// torn-down client already calls) stops the background goroutine and drops
// the connection from the Selector; no separate unregister call is needed.
func (s *Selector) Register(conn net.Conn) plug.ByteStream {
	src := &selSource{conn: conn, sel: s}

	s.mu.Lock()
	s.sources[src] = struct{}{}
	s.mu.Unlock()

	go src.pump()
	return src
}

// selSource is one registered connection: a background reader goroutine
// filling buf, and a plug.ByteStream surface a Plug drains non-blockingly.
type selSource struct {
	conn net.Conn
	sel  *Selector

	mu     sync.Mutex
	buf    bytes.Buffer
	err    error
	closed bool
}

// pump blocks in conn.Read — the one place in this module that genuinely
// waits on I/O rather than polling — and buffers whatever arrives for the
// next non-blocking Read, waking the Selector after each chunk.
func (src *selSource) pump() {
	scratch := make([]byte, 4096)
	for {
		n, err := src.conn.Read(scratch)

		src.mu.Lock()
		if n > 0 {
			src.buf.Write(scratch[:n])
		}
		if err != nil {
			src.err = err
		}
		done := err != nil
		src.mu.Unlock()

		src.sel.wake()
		if done {
			return
		}
	}
}

func (src *selSource) Read(p []byte) (int, error) {
	src.mu.Lock()
	defer src.mu.Unlock()

	if src.buf.Len() > 0 {
		return src.buf.Read(p)
	}
	if src.err != nil {
		return 0, src.err
	}
	return 0, plug.ErrWouldBlock
}

func (src *selSource) Write(p []byte) (int, error) {
	if err := src.conn.SetWriteDeadline(time.Now()); err != nil {
		return 0, err
	}
	n, err := src.conn.Write(p)
	if err == nil {
		return n, nil
	}
	if n > 0 {
		return n, nil
	}
	if ne, ok := err.(net.Error); ok && ne.Timeout() {
		return 0, plug.ErrWouldBlock
	}
	return 0, err
}

func (src *selSource) Close() error {
	src.mu.Lock()
	if src.closed {
		src.mu.Unlock()
		return nil
	}
	src.closed = true
	src.mu.Unlock()

	err := src.conn.Close()

	src.sel.mu.Lock()
	delete(src.sel.sources, src)
	src.sel.mu.Unlock()

	return err
}

var _ plug.ByteStream = (*selSource)(nil)
