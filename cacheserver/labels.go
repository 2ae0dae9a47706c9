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

package cacheserver

import "github.com/nabbar/tlscached/wire"

// opName returns the metrics-label spelling of a wire operation.
func opName(op wire.Operation) string {
	switch op {
	case wire.OpAdd:
		return "add"
	case wire.OpGet:
		return "get"
	case wire.OpRemove:
		return "remove"
	case wire.OpHave:
		return "have"
	default:
		return "unknown"
	}
}

// statusLabel returns the metrics-label spelling of a dispatch outcome. GET
// success responds with the raw blob rather than a status byte, so it is
// labeled separately from the one-byte-status operations.
func statusLabel(op wire.Operation, body []byte) string {
	if op == wire.OpGet && (len(body) != 1 || wire.Status(body[0]) != wire.StatusNotOK) {
		return "ok"
	}
	if len(body) == 0 {
		return "unknown"
	}

	switch wire.Status(body[0]) {
	case wire.StatusOK:
		return "ok"
	case wire.StatusNotOK:
		return "not_ok"
	case wire.StatusAddCorrupt:
		return "add_corrupt"
	case wire.StatusAddMatchingSession:
		return "add_matching_session"
	case wire.StatusAddTimeoutRange:
		return "add_timeout_range"
	case wire.StatusAddIDRange:
		return "add_id_range"
	case wire.StatusAddDataRange:
		return "add_data_range"
	default:
		return "unknown"
	}
}
