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

package plug

import "errors"

// ErrWouldBlock is returned by ByteStream.Read/Write when no bytes are
// currently available/acceptable. It is not a failure: the caller should
// simply try again on the next tick.
var ErrWouldBlock = errors.New("plug: would block")

// ByteStream is the external, non-blocking byte-stream abstraction a Plug is
// layered on top of. This is the collaborator named in spec section 1 as
// "connect/accept/read/write/readiness", specified here only via the
// interface a Plug consumes; transport.Stream and the streams returned by
// transport.Selector.Register are the production implementations over
// net.Conn.
type ByteStream interface {
	// Read copies as many bytes as are currently available into p and
	// returns that count. It returns (0, ErrWouldBlock) rather than
	// blocking when nothing is ready, and a non-nil, non-ErrWouldBlock
	// error on any other fault (including clean EOF).
	Read(p []byte) (int, error)

	// Write accepts as many leading bytes of p as the transport can take
	// right now and returns that count; a short write is not an error.
	// It returns (0, ErrWouldBlock) if the transport currently accepts
	// nothing.
	Write(p []byte) (int, error)

	// Close releases the underlying transport resource.
	Close() error
}
