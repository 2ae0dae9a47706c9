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

// Mode is a bitset selecting one of the four connection-handling behaviors
// a Client may use. The zero value is non-persistent: every operation opens
// a transient connection, exchanges one request/response, and closes it.
type Mode int

const (
	// Persistent keeps a single connection open across operations instead
	// of reconnecting per call.
	Persistent Mode = 1 << iota

	// PIDCheck, meaningful only alongside Persistent, reconnects before an
	// operation if the process id has changed since the connection was
	// established, defeating accidental fd-sharing across fork.
	PIDCheck

	// Late, meaningful only alongside Persistent, defers the initial
	// connect until the first operation instead of connecting in New.
	Late

	// Retry, meaningful only alongside Persistent, reconnects once and
	// retries the in-flight operation exactly once on I/O failure.
	Retry
)

func (m Mode) persistent() bool { return m&Persistent != 0 }
func (m Mode) pidCheck() bool   { return m&PIDCheck != 0 }
func (m Mode) late() bool       { return m&Late != 0 }
func (m Mode) retry() bool      { return m&Retry != 0 }
