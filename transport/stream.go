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
	"net"
	"time"

	"github.com/nabbar/tlscached/plug"
)

// Stream adapts a net.Conn to plug.ByteStream. Go's net.Conn has no true
// non-blocking mode, so each call arms an immediate read/write deadline and
// translates a resulting timeout into plug.ErrWouldBlock, giving the
// cooperative, never-block contract the plug's IO loop requires.
type Stream struct {
	conn net.Conn
}

// NewStream wraps conn as a plug.ByteStream.
func NewStream(conn net.Conn) *Stream {
	return &Stream{conn: conn}
}

// Conn returns the wrapped connection, for callers that need the address or
// file descriptor (e.g. to chown/chmod a freshly-accepted UNIX socket).
func (s *Stream) Conn() net.Conn {
	return s.conn
}

func (s *Stream) Read(p []byte) (int, error) {
	if err := s.conn.SetReadDeadline(time.Now()); err != nil {
		return 0, err
	}
	n, err := s.conn.Read(p)
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

func (s *Stream) Write(p []byte) (int, error) {
	if err := s.conn.SetWriteDeadline(time.Now()); err != nil {
		return 0, err
	}
	n, err := s.conn.Write(p)
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

func (s *Stream) Close() error {
	return s.conn.Close()
}

var _ plug.ByteStream = (*Stream)(nil)
