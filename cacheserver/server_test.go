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

package cacheserver_test

import (
	"bytes"
	"encoding/binary"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nabbar/tlscached/cache"
	"github.com/nabbar/tlscached/cacheserver"
	"github.com/nabbar/tlscached/plug"
	"github.com/nabbar/tlscached/wire"
)

func TestCacheServer(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "cacheserver suite")
}

// memPipe mirrors the helper in package plug's own tests; it is redefined
// here because that one is unexported.
type memPipe struct {
	out *bytes.Buffer
	in  *bytes.Buffer
}

func newMemPipePair() (a, b *memPipe) {
	ab := &bytes.Buffer{}
	ba := &bytes.Buffer{}
	return &memPipe{out: ab, in: ba}, &memPipe{out: ba, in: ab}
}

func (m *memPipe) Read(p []byte) (int, error) {
	if m.in.Len() == 0 {
		return 0, plug.ErrWouldBlock
	}
	return m.in.Read(p)
}

func (m *memPipe) Write(p []byte) (int, error) { return m.out.Write(p) }
func (m *memPipe) Close() error                { return nil }

func addPayload(timeoutMS uint32, id string, blob []byte) []byte {
	buf := make([]byte, 8+len(id)+len(blob))
	binary.BigEndian.PutUint32(buf[0:4], timeoutMS)
	binary.BigEndian.PutUint32(buf[4:8], uint32(len(id)))
	copy(buf[8:], id)
	copy(buf[8+len(id):], blob)
	return buf
}

var _ = Describe("Server", func() {
	var (
		base         time.Time
		store        *cache.Store
		srv          *cacheserver.Server
		clientStream *memPipe
		cl           *plug.Plug
	)

	BeforeEach(func() {
		base = time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)

		var err error
		store, err = cache.New(wire.CacheMinSize)
		Expect(err).NotTo(HaveOccurred())

		srv = cacheserver.New(store, nil, nil)

		var serverStream *memPipe
		clientStream, serverStream = newMemPipePair()
		cl = plug.New(clientStream, plug.ToServer)
		srv.AddClient(serverStream, base)
	})

	roundTrip := func(uid uint32, op wire.Operation, payload []byte) (wire.Operation, []byte) {
		Expect(cl.Write(false, uid, op, payload)).To(Succeed())
		Expect(cl.Commit()).To(Succeed())
		Expect(cl.IO()).To(Succeed())

		srv.Tick(base)

		Expect(cl.IO()).To(Succeed())
		_, gotOp, gotPayload, ok := cl.Read(false)
		Expect(ok).To(BeTrue())
		Expect(cl.Consume()).To(Succeed())
		return gotOp, gotPayload
	}

	It("adds and then gets a session", func() {
		_, resp := roundTrip(1, wire.OpAdd, addPayload(10_000, "sess-1", []byte("blob-1")))
		Expect(resp).To(Equal([]byte{wire.StatusOK.Byte()}))

		_, resp = roundTrip(2, wire.OpGet, []byte("sess-1"))
		Expect(resp).To(Equal([]byte("blob-1")))
	})

	It("responds NOTOK to GET of an absent id", func() {
		_, resp := roundTrip(1, wire.OpGet, []byte("no-such-id"))
		Expect(resp).To(Equal([]byte{wire.StatusNotOK.Byte()}))
	})

	It("rejects a duplicate ADD", func() {
		_, resp := roundTrip(1, wire.OpAdd, addPayload(10_000, "sess-1", []byte("a")))
		Expect(resp).To(Equal([]byte{wire.StatusOK.Byte()}))

		_, resp = roundTrip(2, wire.OpAdd, addPayload(10_000, "sess-1", []byte("b")))
		Expect(resp).To(Equal([]byte{wire.StatusAddMatchingSession.Byte()}))
	})

	It("rejects an ADD with a corrupt payload", func() {
		_, resp := roundTrip(1, wire.OpAdd, []byte{0, 0})
		Expect(resp).To(Equal([]byte{wire.StatusAddCorrupt.Byte()}))
	})

	It("rejects a zero-length id as ID_RANGE rather than CORRUPT", func() {
		_, resp := roundTrip(1, wire.OpAdd, addPayload(10_000, "", []byte("blob-1")))
		Expect(resp).To(Equal([]byte{wire.StatusAddIDRange.Byte()}))
	})

	It("rejects an id that consumes the whole payload as CORRUPT rather than DATA_RANGE", func() {
		_, resp := roundTrip(1, wire.OpAdd, addPayload(10_000, "sess-1", nil))
		Expect(resp).To(Equal([]byte{wire.StatusAddCorrupt.Byte()}))
	})

	It("removes a present session", func() {
		_, resp := roundTrip(1, wire.OpAdd, addPayload(10_000, "sess-1", []byte("a")))
		Expect(resp).To(Equal([]byte{wire.StatusOK.Byte()}))

		_, resp = roundTrip(2, wire.OpRemove, []byte("sess-1"))
		Expect(resp).To(Equal([]byte{wire.StatusOK.Byte()}))

		_, resp = roundTrip(3, wire.OpHave, []byte("sess-1"))
		Expect(resp).To(Equal([]byte{wire.StatusNotOK.Byte()}))
	})

	It("tears down a client whose frames are corrupt without killing the server", func() {
		Expect(srv.NumClients()).To(Equal(1))

		// Feed a structurally valid but direction-mismatched frame straight
		// into the byte stream the server reads from (the client's out
		// buffer): is_response=1 where the server plug expects requests.
		garbage := make([]byte, 10)
		garbage[0] = 1 // is_response
		garbage[6] = byte(wire.OpGet)
		garbage[7] = 1 // complete
		_, _ = clientStream.out.Write(garbage)

		srv.Tick(base)
		Expect(srv.NumClients()).To(Equal(0))
	})
})
