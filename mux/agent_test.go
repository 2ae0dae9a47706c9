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

package mux_test

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nabbar/tlscached/mux"
	"github.com/nabbar/tlscached/plug"
	"github.com/nabbar/tlscached/wire"
)

func TestMux(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "mux suite")
}

// memPipe mirrors plug's own test double: one instance models one
// direction of bytes, a pair models a connected pair of plugs.
type memPipe struct {
	out *bytes.Buffer
	in  *bytes.Buffer
}

func newMemPipePair() (a, b *memPipe) {
	ab := &bytes.Buffer{}
	ba := &bytes.Buffer{}
	a = &memPipe{out: ab, in: ba}
	b = &memPipe{out: ba, in: ab}
	return a, b
}

func (m *memPipe) Read(p []byte) (int, error) {
	if m.in.Len() == 0 {
		return 0, plug.ErrWouldBlock
	}
	return m.in.Read(p)
}

func (m *memPipe) Write(p []byte) (int, error) { return m.out.Write(p) }
func (m *memPipe) Close() error                { return nil }

// peer is a hand-driven Plug sitting on the far end of one memPipe pair,
// used to stand in for either a test client or the cache server.
type peer struct {
	p *plug.Plug
}

func newPeer(side *memPipe, toServer bool) *peer {
	flags := 0
	if toServer {
		flags = plug.ToServer
	}
	return &peer{p: plug.New(side, flags)}
}

func (pr *peer) send(uid uint32, op wire.Operation, data []byte) {
	_ = pr.p.Write(false, uid, op, data)
	_ = pr.p.Commit()
	_ = pr.p.IO()
}

func (pr *peer) recv() (uint32, wire.Operation, []byte, bool) {
	_ = pr.p.IO()
	uid, op, data, ok := pr.p.Read(false)
	if ok {
		out := append([]byte(nil), data...)
		_ = pr.p.Consume()
		return uid, op, out, true
	}
	return 0, 0, nil, false
}

func addPayload(id string, blob string) []byte {
	buf := make([]byte, 8+len(id)+len(blob))
	binary.BigEndian.PutUint32(buf[0:4], 60000)
	binary.BigEndian.PutUint32(buf[4:8], uint32(len(id)))
	copy(buf[8:], id)
	copy(buf[8+len(id):], blob)
	return buf
}

var _ = Describe("Agent", func() {
	var (
		noDial = mux.Dialer(func() (plug.ByteStream, error) {
			return nil, errors.New("no upstream configured")
		})
		now = time.Unix(1_700_000_000, 0)
	)

	It("forwards a client request upstream and relays the response back", func() {
		upClientSide, upServerSide := newMemPipePair()
		dialed := false
		dial := mux.Dialer(func() (plug.ByteStream, error) {
			dialed = true
			return upClientSide, nil
		})
		a := mux.New(dial, time.Millisecond, 0, nil, nil)

		downClientSide, downAgentSide := newMemPipePair()
		client := newPeer(downClientSide, true)
		_, err := a.AddClient(downAgentSide, now)
		Expect(err).NotTo(HaveOccurred())

		client.send(1, wire.OpAdd, addPayload("sess-1", "blob"))

		a.Tick(now)
		Expect(dialed).To(BeTrue())
		Expect(a.UpstreamActive()).To(BeTrue())

		server := newPeer(upServerSide, false)
		muid, op, payload, ok := server.recv()
		Expect(ok).To(BeTrue())
		Expect(op).To(Equal(wire.OpAdd))
		Expect(payload).To(Equal(addPayload("sess-1", "blob")))

		server.send(muid, op, []byte{wire.StatusOK.Byte()})

		a.Tick(now)

		rUID, _, rBody, ok := client.recv()
		Expect(ok).To(BeTrue())
		Expect(rUID).To(Equal(uint32(1)))
		Expect(rBody).To(Equal([]byte{wire.StatusOK.Byte()}))
		Expect(a.MultiplexSize()).To(Equal(0))
	})

	It("synthesizes a disconnected response when no upstream is configured", func() {
		a := mux.New(noDial, time.Hour, 0, nil, nil)

		downClientSide, downAgentSide := newMemPipePair()
		client := newPeer(downClientSide, true)
		_, err := a.AddClient(downAgentSide, now)
		Expect(err).NotTo(HaveOccurred())

		client.send(9, wire.OpGet, []byte("sess-x"))
		a.Tick(now)

		rUID, _, rBody, ok := client.recv()
		Expect(ok).To(BeTrue())
		Expect(rUID).To(Equal(uint32(9)))
		Expect(rBody).To(Equal([]byte{wire.StatusDisconnected.Byte()}))
	})

	It("discards a multiplex entry whose client has already disappeared", func() {
		upClientSide, upServerSide := newMemPipePair()
		dial := mux.Dialer(func() (plug.ByteStream, error) { return upClientSide, nil })
		a := mux.New(dial, time.Millisecond, 0, nil, nil)

		downClientSide, downAgentSide := newMemPipePair()
		client := newPeer(downClientSide, true)
		uid, err := a.AddClient(downAgentSide, now)
		Expect(err).NotTo(HaveOccurred())

		client.send(3, wire.OpHave, []byte("sess-z"))
		a.Tick(now)
		Expect(a.MultiplexSize()).To(Equal(1))

		Expect(a.RemoveClient(uid)).To(Succeed())

		server := newPeer(upServerSide, false)
		muid, op, _, ok := server.recv()
		Expect(ok).To(BeTrue())
		server.send(muid, op, []byte{wire.StatusOK.Byte()})

		a.Tick(now)
		Expect(a.MultiplexSize()).To(Equal(0))
		Expect(a.NumClients()).To(Equal(0))
	})

	It("reaps a client that has been idle past the configured timeout", func() {
		a := mux.New(noDial, time.Hour, 100*time.Millisecond, nil, nil)

		_, downAgentSide := newMemPipePair()
		_, err := a.AddClient(downAgentSide, now)
		Expect(err).NotTo(HaveOccurred())
		Expect(a.NumClients()).To(Equal(1))

		a.Tick(now.Add(50 * time.Millisecond))
		Expect(a.NumClients()).To(Equal(1))

		a.Tick(now.Add(200 * time.Millisecond))
		Expect(a.NumClients()).To(Equal(0))
	})
})
