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

package sessclient_test

import (
	"bytes"
	"net"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nabbar/tlscached/sessclient"
	"github.com/nabbar/tlscached/transport"
	"github.com/nabbar/tlscached/wire"
)

func TestSessclient(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "sessclient suite")
}

// serveOne reads exactly one logical command off conn and writes the
// response respond computes for it. It reports false if the connection
// closed or a frame failed to decode before a full command arrived.
func serveOne(conn net.Conn, respond func(wire.Operation, []byte) []byte) bool {
	var raw bytes.Buffer
	var payload []byte
	var uid uint32
	var op wire.Operation
	scratch := make([]byte, 4096)

	for {
		switch wire.PreDecode(raw.Bytes()) {
		case wire.DecodeOK:
			f, n, err := wire.Decode(raw.Bytes())
			if err != nil {
				return false
			}
			raw.Next(n)
			uid, op = f.RequestUID, f.Operation
			payload = append(payload, f.Data...)
			if f.Complete {
				writeResponse(conn, uid, op, respond(op, payload))
				return true
			}
			continue
		case wire.DecodeCorrupt:
			return false
		}

		n, err := conn.Read(scratch)
		if n > 0 {
			raw.Write(scratch[:n])
		}
		if err != nil {
			return false
		}
	}
}

func serveMany(conn net.Conn, n int, respond func(wire.Operation, []byte) []byte) {
	defer conn.Close()
	for i := 0; i < n; i++ {
		if !serveOne(conn, respond) {
			return
		}
	}
}

func writeResponse(conn net.Conn, uid uint32, op wire.Operation, body []byte) {
	f := &wire.Frame{IsResponse: true, RequestUID: uid, OpClass: wire.OpClassUser, Operation: op, Complete: true, Data: body}
	buf := make([]byte, f.EncodedSize())
	_, _ = wire.Encode(f, buf)
	_, _ = conn.Write(buf)
}

// newTransientDialer returns a Dialer whose every call opens a fresh
// net.Pipe and spawns a one-shot server on the far end, modeling the
// non-persistent mode's per-operation connection.
func newTransientDialer(respond func(wire.Operation, []byte) []byte) sessclient.Dialer {
	return func() (sessclient.Stream, error) {
		clientSide, serverSide := net.Pipe()
		go serveMany(serverSide, 1, respond)
		return transport.NewBlockingStream(clientSide), nil
	}
}

var _ = Describe("Client", func() {
	It("performs a non-persistent add", func() {
		dial := newTransientDialer(func(op wire.Operation, _ []byte) []byte {
			Expect(op).To(Equal(wire.OpAdd))
			return []byte{wire.StatusOK.Byte()}
		})
		cl, err := sessclient.New(dial, 0)
		Expect(err).NotTo(HaveOccurred())

		ok, err := cl.Add([]byte("sess-1"), []byte("blob"), 60000)
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
	})

	It("caches a get result for reget and invalidates it on the next call", func() {
		dial := newTransientDialer(func(op wire.Operation, _ []byte) []byte {
			if op == wire.OpGet {
				return []byte("the-blob")
			}
			return []byte{wire.StatusOK.Byte()}
		})
		cl, err := sessclient.New(dial, 0)
		Expect(err).NotTo(HaveOccurred())

		blob, ok, err := cl.Get([]byte("sess-2"))
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
		Expect(blob).To(Equal([]byte("the-blob")))

		id, regetBlob, err := cl.Reget()
		Expect(err).NotTo(HaveOccurred())
		Expect(id).To(Equal([]byte("sess-2")))
		Expect(regetBlob).To(Equal([]byte("the-blob")))

		_, err = cl.Has([]byte("sess-2"))
		Expect(err).NotTo(HaveOccurred())

		_, _, err = cl.Reget()
		Expect(err).To(Equal(sessclient.ErrNoRegetCache))
	})

	It("reports a miss as ok=false with no error and no reget cache", func() {
		dial := newTransientDialer(func(wire.Operation, []byte) []byte {
			return []byte{wire.StatusNotOK.Byte()}
		})
		cl, err := sessclient.New(dial, 0)
		Expect(err).NotTo(HaveOccurred())

		blob, ok, err := cl.Get([]byte("missing"))
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeFalse())
		Expect(blob).To(BeNil())

		_, _, err = cl.Reget()
		Expect(err).To(Equal(sessclient.ErrNoRegetCache))
	})

	It("keeps one connection open across calls in persistent mode", func() {
		clientSide, serverSide := net.Pipe()
		dialCount := 0
		dial := func() (sessclient.Stream, error) {
			dialCount++
			return transport.NewBlockingStream(clientSide), nil
		}
		go serveMany(serverSide, 2, func(wire.Operation, []byte) []byte {
			return []byte{wire.StatusOK.Byte()}
		})

		cl, err := sessclient.New(dial, sessclient.Persistent)
		Expect(err).NotTo(HaveOccurred())
		Expect(dialCount).To(Equal(1))

		_, err = cl.Has([]byte("a"))
		Expect(err).NotTo(HaveOccurred())
		_, err = cl.Has([]byte("b"))
		Expect(err).NotTo(HaveOccurred())

		Expect(dialCount).To(Equal(1))
		Expect(cl.Close()).To(Succeed())
	})

	It("defers the initial connect under persistent+late", func() {
		dialCount := 0
		inner := newTransientDialer(func(wire.Operation, []byte) []byte {
			return []byte{wire.StatusOK.Byte()}
		})
		dial := func() (sessclient.Stream, error) {
			dialCount++
			return inner()
		}

		cl, err := sessclient.New(dial, sessclient.Persistent|sessclient.Late)
		Expect(err).NotTo(HaveOccurred())
		Expect(dialCount).To(Equal(0))

		_, err = cl.Has([]byte("a"))
		Expect(err).NotTo(HaveOccurred())
		Expect(dialCount).To(Equal(1))
	})
})
