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
	"encoding/binary"
	"errors"

	"github.com/nabbar/tlscached/wire"
)

// ErrNoRegetCache is returned by Reget when no Get has succeeded since the
// last non-Get call (or ever).
var ErrNoRegetCache = errors.New("sessclient: no cached get result to replay")

// ErrIDTooLong and ErrBlobTooLong guard the request-side length limits
// before a round trip is even attempted.
var (
	ErrIDTooLong   = errors.New("sessclient: session id exceeds the wire limit")
	ErrBlobTooLong = errors.New("sessclient: session blob exceeds the wire limit")
)

// Add stores blob under id for timeoutMS milliseconds. It reports whether
// the server accepted the entry; a false result with a nil error means the
// server rejected it for a command-specific reason (duplicate id, id or
// blob out of range, timeout out of range) rather than a transport failure.
func (c *Client) Add(id []byte, blob []byte, timeoutMS uint32) (bool, error) {
	c.invalidateReget()

	if len(id) > wire.MaxIDLen {
		return false, ErrIDTooLong
	}
	if len(blob) > wire.MaxDataLen {
		return false, ErrBlobTooLong
	}

	req := make([]byte, 8+len(id)+len(blob))
	binary.BigEndian.PutUint32(req[0:4], timeoutMS)
	binary.BigEndian.PutUint32(req[4:8], uint32(len(id)))
	copy(req[8:], id)
	copy(req[8+len(id):], blob)

	resp, err := c.transact(wire.OpAdd, req)
	if err != nil {
		return false, err
	}
	return len(resp) == 1 && wire.Status(resp[0]) == wire.StatusOK, nil
}

// Remove deletes id from the cache, reporting whether it had been present.
func (c *Client) Remove(id []byte) (bool, error) {
	c.invalidateReget()

	resp, err := c.transact(wire.OpRemove, id)
	if err != nil {
		return false, err
	}
	return len(resp) == 1 && wire.Status(resp[0]) == wire.StatusOK, nil
}

// Has reports whether id is currently present (and unexpired).
func (c *Client) Has(id []byte) (bool, error) {
	c.invalidateReget()

	resp, err := c.transact(wire.OpHave, id)
	if err != nil {
		return false, err
	}
	return len(resp) == 1 && wire.Status(resp[0]) == wire.StatusOK, nil
}

// Get fetches the blob stored under id. On a hit it caches (id, blob) for a
// subsequent Reget. On a miss it reports ok=false and clears the cache.
func (c *Client) Get(id []byte) (blob []byte, ok bool, err error) {
	resp, err := c.transact(wire.OpGet, id)
	if err != nil {
		c.invalidateReget()
		return nil, false, err
	}

	if len(resp) == 1 && wire.Status(resp[0]) == wire.StatusNotOK {
		c.invalidateReget()
		return nil, false, nil
	}

	c.regetID = append([]byte(nil), id...)
	c.regetBlob = append([]byte(nil), resp...)
	c.regetOK = true
	return resp, true, nil
}

// Reget replays the blob from the most recent successful Get without a
// network round trip, for a caller that needs to retry a too-small output
// buffer. It fails with ErrNoRegetCache if no Get has succeeded since the
// last non-Get call.
func (c *Client) Reget() (id []byte, blob []byte, err error) {
	if !c.regetOK {
		return nil, nil, ErrNoRegetCache
	}
	return c.regetID, c.regetBlob, nil
}
