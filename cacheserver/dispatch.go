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

import (
	"time"

	"github.com/nabbar/tlscached/cache"
	"github.com/nabbar/tlscached/wire"
)

// dispatch executes one command against store and returns the raw response
// body to frame back. GET is the one operation whose success body is not a
// status byte but the blob itself; every other operation, and every GET
// failure, responds with a single status byte.
func dispatch(store cache.Cache, now time.Time, op wire.Operation, payload []byte) []byte {
	switch op {
	case wire.OpAdd:
		return dispatchAdd(store, now, payload)
	case wire.OpGet:
		return dispatchGet(store, now, payload)
	case wire.OpRemove:
		return dispatchRemove(store, now, payload)
	case wire.OpHave:
		return dispatchHave(store, now, payload)
	default:
		return []byte{wire.StatusNotOK.Byte()}
	}
}

func dispatchAdd(store cache.Cache, now time.Time, payload []byte) []byte {
	if len(payload) < 8 {
		return []byte{wire.StatusAddCorrupt.Byte()}
	}

	timeoutMS := uint32(payload[0])<<24 | uint32(payload[1])<<16 | uint32(payload[2])<<8 | uint32(payload[3])
	idLen := uint32(payload[4])<<24 | uint32(payload[5])<<16 | uint32(payload[6])<<8 | uint32(payload[7])

	if timeoutMS > wire.MaxExpiryMS {
		return []byte{wire.StatusAddTimeoutRange.Byte()}
	}

	rest := len(payload) - 8
	if int(idLen) >= rest {
		return []byte{wire.StatusAddCorrupt.Byte()}
	}
	if idLen == 0 || int(idLen) > wire.MaxIDLen {
		return []byte{wire.StatusAddIDRange.Byte()}
	}

	id := string(payload[8 : 8+int(idLen)])
	blob := payload[8+int(idLen):]
	if len(blob) == 0 || len(blob) > wire.MaxDataLen {
		return []byte{wire.StatusAddDataRange.Byte()}
	}

	switch store.Add(now, int64(timeoutMS), id, blob) {
	case cache.AddOK:
		return []byte{wire.StatusOK.Byte()}
	case cache.AddDuplicate:
		return []byte{wire.StatusAddMatchingSession.Byte()}
	case cache.AddRangeTimeout:
		return []byte{wire.StatusAddTimeoutRange.Byte()}
	case cache.AddRangeID:
		return []byte{wire.StatusAddIDRange.Byte()}
	case cache.AddRangeData:
		return []byte{wire.StatusAddDataRange.Byte()}
	default:
		return []byte{wire.StatusAddCorrupt.Byte()}
	}
}

func dispatchGet(store cache.Cache, now time.Time, payload []byte) []byte {
	blob, ok := store.Get(now, string(payload))
	if !ok {
		return []byte{wire.StatusNotOK.Byte()}
	}
	return blob
}

func dispatchRemove(store cache.Cache, now time.Time, payload []byte) []byte {
	if store.Remove(now, string(payload)) == cache.RemoveOK {
		return []byte{wire.StatusOK.Byte()}
	}
	return []byte{wire.StatusNotOK.Byte()}
}

func dispatchHave(store cache.Cache, now time.Time, payload []byte) []byte {
	if store.Have(now, string(payload)) {
		return []byte{wire.StatusOK.Byte()}
	}
	return []byte{wire.StatusNotOK.Byte()}
}
