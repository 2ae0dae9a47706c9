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

package mux

import (
	"time"

	"github.com/nabbar/tlscached/plug"
)

// Dialer opens a fresh connection to the cache server. It is supplied by
// the caller (cmd/tlscachemux wires it to sel.Register(net.Dial(...)))
// so upstream is exercised the same way against a real socket or a test
// double.
type Dialer func() (plug.ByteStream, error)

// upstream tracks the single connection to the cache server, including its
// reconnect backoff. uid increments on every successful (re)connect; it
// tags every multiplex entry forwarded over that incarnation, so a stale
// response arriving after a reconnect can never be mistaken for a fresh one.
type upstream struct {
	dial  Dialer
	retry time.Duration

	plug     *plug.Plug
	uid      uint64
	lastFail time.Time
}

func newUpstream(dial Dialer, retry time.Duration) *upstream {
	return &upstream{dial: dial, retry: retry}
}

func (u *upstream) active() bool {
	return u.plug != nil
}

// shouldRetry reports whether enough time has passed since the last failure
// to attempt a reconnect.
func (u *upstream) shouldRetry(now time.Time) bool {
	return !u.active() && now.Sub(u.lastFail) >= u.retry
}

// connect attempts to dial and, on success, installs a fresh ToServer plug
// under a newly incremented uid.
func (u *upstream) connect() error {
	stream, err := u.dial()
	if err != nil {
		return err
	}
	u.uid++
	u.plug = plug.New(stream, plug.ToServer)
	return nil
}

// fail tears down the current connection (if any) and records the failure
// time so shouldRetry can pace the next attempt.
func (u *upstream) fail(now time.Time) {
	if u.plug != nil {
		_ = u.plug.Close()
	}
	u.plug = nil
	u.lastFail = now
}
