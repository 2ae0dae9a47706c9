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

package wire_test

import (
	"bytes"
	"testing"

	"github.com/nabbar/tlscached/wire"
)

func TestCursorU8U16U32RoundTrip(t *testing.T) {
	buf := make([]byte, 7)
	c := wire.NewCursor(buf)

	if err := c.EncodeU8(0xAB); err != nil {
		t.Fatal(err)
	}
	if err := c.EncodeU16(0x1234); err != nil {
		t.Fatal(err)
	}
	if err := c.EncodeU32(0xDEADBEEF); err != nil {
		t.Fatal(err)
	}

	d := wire.NewCursor(buf)
	u8, err := d.DecodeU8()
	if err != nil || u8 != 0xAB {
		t.Fatalf("u8 = %v, %v", u8, err)
	}
	u16, err := d.DecodeU16()
	if err != nil || u16 != 0x1234 {
		t.Fatalf("u16 = %v, %v", u16, err)
	}
	u32, err := d.DecodeU32()
	if err != nil || u32 != 0xDEADBEEF {
		t.Fatalf("u32 = %v, %v", u32, err)
	}
}

func TestCursorShortBufferDoesNotAdvance(t *testing.T) {
	c := wire.NewCursor(make([]byte, 1))
	if _, err := c.DecodeU32(); err != wire.ErrShortBuffer {
		t.Fatalf("expected ErrShortBuffer, got %v", err)
	}
	if c.Off != 0 {
		t.Fatalf("cursor advanced on short buffer: off=%d", c.Off)
	}
}

func TestCursorBytesRoundTrip(t *testing.T) {
	buf := make([]byte, 5)
	c := wire.NewCursor(buf)
	if err := c.EncodeBytes([]byte("hello")); err != nil {
		t.Fatal(err)
	}

	d := wire.NewCursor(buf)
	got, err := d.DecodeBytes(5)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, []byte("hello")) {
		t.Fatalf("got %q", got)
	}
}
