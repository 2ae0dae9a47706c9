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

package wire

import "errors"

// ErrShortBuffer is returned by decode/encode helpers when the supplied
// buffer does not have enough room for the requested operation. The cursor
// is left untouched on this error.
var ErrShortBuffer = errors.New("wire: short buffer")

// Cursor walks a byte buffer for successive encode/decode operations. It is
// the shared primitive behind every Decode*/Encode* helper: the same
// traversal shape drives both directions, and a short buffer never advances
// the offset.
type Cursor struct {
	Buf []byte
	Off int
}

// NewCursor wraps buf for sequential encode/decode calls starting at offset 0.
func NewCursor(buf []byte) *Cursor {
	return &Cursor{Buf: buf}
}

// Remain returns the number of unread/unwritten bytes left in the cursor.
func (c *Cursor) Remain() int {
	return len(c.Buf) - c.Off
}

// DecodeU8 reads one byte and advances the cursor.
func (c *Cursor) DecodeU8() (uint8, error) {
	if c.Remain() < 1 {
		return 0, ErrShortBuffer
	}
	v := c.Buf[c.Off]
	c.Off++
	return v, nil
}

// EncodeU8 writes one byte and advances the cursor.
func (c *Cursor) EncodeU8(v uint8) error {
	if c.Remain() < 1 {
		return ErrShortBuffer
	}
	c.Buf[c.Off] = v
	c.Off++
	return nil
}

// DecodeU16 reads a big-endian uint16 and advances the cursor.
func (c *Cursor) DecodeU16() (uint16, error) {
	if c.Remain() < 2 {
		return 0, ErrShortBuffer
	}
	v := uint16(c.Buf[c.Off])<<8 | uint16(c.Buf[c.Off+1])
	c.Off += 2
	return v, nil
}

// EncodeU16 writes a big-endian uint16 and advances the cursor.
func (c *Cursor) EncodeU16(v uint16) error {
	if c.Remain() < 2 {
		return ErrShortBuffer
	}
	c.Buf[c.Off] = byte(v >> 8)
	c.Buf[c.Off+1] = byte(v)
	c.Off += 2
	return nil
}

// DecodeU32 reads a big-endian uint32 and advances the cursor.
func (c *Cursor) DecodeU32() (uint32, error) {
	if c.Remain() < 4 {
		return 0, ErrShortBuffer
	}
	v := uint32(c.Buf[c.Off])<<24 | uint32(c.Buf[c.Off+1])<<16 |
		uint32(c.Buf[c.Off+2])<<8 | uint32(c.Buf[c.Off+3])
	c.Off += 4
	return v, nil
}

// EncodeU32 writes a big-endian uint32 and advances the cursor.
func (c *Cursor) EncodeU32(v uint32) error {
	if c.Remain() < 4 {
		return ErrShortBuffer
	}
	c.Buf[c.Off] = byte(v >> 24)
	c.Buf[c.Off+1] = byte(v >> 16)
	c.Buf[c.Off+2] = byte(v >> 8)
	c.Buf[c.Off+3] = byte(v)
	c.Off += 4
	return nil
}

// DecodeBytes returns a view of the next n bytes and advances the cursor.
// The returned slice aliases the cursor's backing array; callers that need
// to retain it across further cursor use must copy it.
func (c *Cursor) DecodeBytes(n int) ([]byte, error) {
	if n < 0 || c.Remain() < n {
		return nil, ErrShortBuffer
	}
	v := c.Buf[c.Off : c.Off+n]
	c.Off += n
	return v, nil
}

// EncodeBytes copies src into the cursor and advances it by len(src).
func (c *Cursor) EncodeBytes(src []byte) error {
	if c.Remain() < len(src) {
		return ErrShortBuffer
	}
	copy(c.Buf[c.Off:], src)
	c.Off += len(src)
	return nil
}
