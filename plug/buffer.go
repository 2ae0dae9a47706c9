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

const initialBufSize = 1024

// growBuf is a byte buffer that starts at initialBufSize, grows by 1.5x as
// needed, and never shrinks for the lifetime of the plug direction it backs.
// It underlies both the inbound reassembly payload and the raw send/receive
// staging buffers of a Plug.
type growBuf struct {
	buf []byte
	n   int
}

func newGrowBuf() *growBuf {
	return &growBuf{buf: make([]byte, initialBufSize)}
}

func (g *growBuf) Len() int { return g.n }

func (g *growBuf) Bytes() []byte { return g.buf[:g.n] }

func (g *growBuf) Reset() { g.n = 0 }

// Append grows the backing array (by 1.5x increments) as needed and appends
// p, returning the new length.
func (g *growBuf) Append(p []byte) int {
	need := g.n + len(p)
	if need > len(g.buf) {
		newCap := len(g.buf)
		if newCap == 0 {
			newCap = initialBufSize
		}
		for newCap < need {
			newCap = newCap + newCap/2
		}
		nb := make([]byte, newCap)
		copy(nb, g.buf[:g.n])
		g.buf = nb
	}
	copy(g.buf[g.n:], p)
	g.n += len(p)
	return g.n
}

// Consume discards the first n bytes of the buffer, shifting the remainder
// to the front. The backing array is not reallocated.
func (g *growBuf) Consume(n int) {
	if n <= 0 {
		return
	}
	if n >= g.n {
		g.n = 0
		return
	}
	copy(g.buf[0:], g.buf[n:g.n])
	g.n -= n
}
