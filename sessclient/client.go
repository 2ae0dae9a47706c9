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
	"errors"
	"io"
	"os"
)

// Stream is the blocking byte-stream contract a Client talks over; a plain
// *transport.BlockingStream wrapping a net.Conn satisfies it.
type Stream interface {
	io.Reader
	io.Writer
	io.Closer
}

// Dialer opens a fresh connection to the configured target.
type Dialer func() (Stream, error)

// ErrMismatch is returned when a response frame's (request_uid, operation)
// does not match the request that provoked it: the transaction driver
// treats this as a protocol violation and tears the connection down.
var ErrMismatch = errors.New("sessclient: response does not match request")

// Client is a DC_CTX handle: one configured target and connection-handling
// mode, reused across any number of Add/Remove/Get/Reget/Has calls.
type Client struct {
	dial Dialer
	mode Mode

	stream  Stream
	connPID int

	regetID   []byte
	regetBlob []byte
	regetOK   bool
}

// New constructs a Client. Under Persistent without Late it connects
// immediately, surfacing a connect failure to the caller up front rather
// than at the first operation.
func New(dial Dialer, mode Mode) (*Client, error) {
	c := &Client{dial: dial, mode: mode}
	if mode.persistent() && !mode.late() {
		if err := c.connect(); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Close releases any persistent connection the Client is holding. It is a
// no-op for a non-persistent Client, which never holds one between calls.
func (c *Client) Close() error {
	return c.teardown()
}

func (c *Client) connect() error {
	s, err := c.dial()
	if err != nil {
		return err
	}
	c.stream = s
	c.connPID = os.Getpid()
	return nil
}

func (c *Client) teardown() error {
	if c.stream == nil {
		return nil
	}
	err := c.stream.Close()
	c.stream = nil
	return err
}

// ensureConnected applies the mode-specific connection policy before an
// operation: non-persistent always dials fresh, persistent reuses the
// existing connection (reconnecting first under PIDCheck if the process
// has forked since connect, or lazily on the first call under Late).
func (c *Client) ensureConnected() error {
	if !c.mode.persistent() {
		return c.connect()
	}
	if c.stream != nil && c.mode.pidCheck() && os.Getpid() != c.connPID {
		_ = c.teardown()
	}
	if c.stream == nil {
		return c.connect()
	}
	return nil
}

// invalidateReget drops the cached last-get result. Add, Remove and Has call
// this (Reget does not), so Reget only ever serves a cache populated by the
// most recent Get.
func (c *Client) invalidateReget() {
	c.regetOK = false
	c.regetID = nil
	c.regetBlob = nil
}
