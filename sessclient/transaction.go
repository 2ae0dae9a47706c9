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

package sessclient

import (
	"bytes"

	"github.com/nabbar/tlscached/wire"
)

// transact sends one logical command and blocks for its matching response,
// applying Persistent|Retry (reconnect once, replay once) on I/O failure
// when the mode calls for it.
func (c *Client) transact(op wire.Operation, payload []byte) ([]byte, error) {
	uid := nextRequestUID()

	if err := c.ensureConnected(); err != nil {
		return nil, err
	}

	resp, err := roundTrip(c.stream, uid, op, payload)
	if err != nil && c.mode.persistent() && c.mode.retry() {
		_ = c.teardown()
		if connErr := c.connect(); connErr == nil {
			resp, err = roundTrip(c.stream, uid, op, payload)
		}
	}

	if err != nil {
		_ = c.teardown()
		return nil, err
	}
	if !c.mode.persistent() {
		_ = c.teardown()
	}
	return resp, nil
}

// roundTrip writes request (uid, op, payload) to rw and blocks until the
// matching response's full payload has been reassembled.
func roundTrip(rw Stream, uid uint32, op wire.Operation, payload []byte) ([]byte, error) {
	if err := writeCommand(rw, uid, op, payload); err != nil {
		return nil, err
	}
	return readCommand(rw, uid, op)
}

func writeCommand(w Stream, uid uint32, op wire.Operation, payload []byte) error {
	off := 0
	for {
		remain := len(payload) - off
		chunk := remain
		complete := true
		if chunk > wire.MsgMaxData {
			chunk = wire.MsgMaxData
			complete = false
		}

		f := &wire.Frame{
			IsResponse: false,
			RequestUID: uid,
			OpClass:    wire.OpClassUser,
			Operation:  op,
			Complete:   complete,
			Data:       payload[off : off+chunk],
		}
		buf := make([]byte, f.EncodedSize())
		if _, err := wire.Encode(f, buf); err != nil {
			return err
		}
		if _, err := w.Write(buf); err != nil {
			return err
		}

		off += chunk
		if complete {
			return nil
		}
	}
}

func readCommand(r Stream, uid uint32, op wire.Operation) ([]byte, error) {
	var raw bytes.Buffer
	var payload []byte
	scratch := make([]byte, 4096)

	for {
		switch wire.PreDecode(raw.Bytes()) {
		case wire.DecodeCorrupt:
			return nil, wire.ErrProtocol
		case wire.DecodeOK:
			f, n, err := wire.Decode(raw.Bytes())
			if err != nil {
				return nil, wire.ErrProtocol
			}
			raw.Next(n)

			if !f.IsResponse || f.RequestUID != uid || f.Operation != op {
				return nil, ErrMismatch
			}
			if len(payload)+len(f.Data) > wire.MaxTotalData {
				return nil, wire.ErrProtocol
			}
			payload = append(payload, f.Data...)
			if f.Complete {
				return payload, nil
			}
			continue
		}

		n, err := r.Read(scratch)
		if n > 0 {
			raw.Write(scratch[:n])
		}
		if err != nil {
			return nil, err
		}
	}
}
