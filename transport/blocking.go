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

import "net"

// BlockingStream wraps a net.Conn with its ordinary blocking semantics,
// undisturbed by any deadline. It backs the sessclient transaction driver,
// which is a synchronous shim that blocks a single call stack on I/O rather
// than cooperatively scheduling across many connections the way the
// non-blocking Stream under package plug does.
type BlockingStream struct {
	conn net.Conn
}

// NewBlockingStream wraps conn for blocking use.
func NewBlockingStream(conn net.Conn) *BlockingStream {
	return &BlockingStream{conn: conn}
}

// Conn returns the underlying connection.
func (b *BlockingStream) Conn() net.Conn { return b.conn }

func (b *BlockingStream) Read(p []byte) (int, error)  { return b.conn.Read(p) }
func (b *BlockingStream) Write(p []byte) (int, error) { return b.conn.Write(p) }
func (b *BlockingStream) Close() error                { return b.conn.Close() }
