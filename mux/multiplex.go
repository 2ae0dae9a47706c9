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

// mplexState is the lifecycle state of one multiplex table entry.
type mplexState int

const (
	// mplexNormal is an in-flight request awaiting its upstream response.
	mplexNormal mplexState = iota

	// mplexClientDead marks an entry whose downstream client has already
	// disappeared; the eventual upstream response is discarded rather
	// than delivered.
	mplexClientDead

	// mplexServerDead marks an entry whose upstream incarnation has
	// already failed; the client is sent a synthetic ERR_DISCONNECTED and
	// the entry is deleted from the table in the same step.
	mplexServerDead
)

// mplexEntry is one row of the multiplex table: the mapping from a locally
// assigned m_uid back to the downstream client that issued the request, and
// the upstream incarnation it was forwarded over.
type mplexEntry struct {
	muid       uint32
	clientUID  uint64
	serverIncr uint64
	state      mplexState
}
