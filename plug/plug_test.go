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

package plug_test

import (
	"bytes"
	"testing"

	"github.com/nabbar/tlscached/plug"
	"github.com/nabbar/tlscached/wire"
)

// memPipe is a minimal non-blocking in-memory ByteStream used to exercise
// the plug state machine without a real socket. One memPipe instance models
// one direction of bytes; a pair of memPipes wired to each other models a
// connected pair of plugs.
type memPipe struct {
	out *bytes.Buffer // bytes this side has written, read by the peer
	in  *bytes.Buffer // bytes the peer has written, read by this side
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

func (m *memPipe) Write(p []byte) (int, error) {
	return m.out.Write(p)
}

func (m *memPipe) Close() error { return nil }

func TestPlugRoundTrip(t *testing.T) {
	clientStream, serverStream := newMemPipePair()
	client := plug.New(clientStream, plug.ToServer)
	server := plug.New(serverStream, 0)

	payload := []byte("hello cache")
	if err := client.Write(false, 7, wire.OpGet, payload); err != nil {
		t.Fatal(err)
	}
	if err := client.Commit(); err != nil {
		t.Fatal(err)
	}
	if err := client.IO(); err != nil {
		t.Fatal(err)
	}
	if err := server.IO(); err != nil {
		t.Fatal(err)
	}

	uid, op, got, ok := server.Read(false)
	if !ok {
		t.Fatal("server expected a reassembled command")
	}
	if uid != 7 || op != wire.OpGet || !bytes.Equal(got, payload) {
		t.Fatalf("got (%d, %v, %q)", uid, op, got)
	}

	if err := server.Consume(); err != nil {
		t.Fatal(err)
	}
	if _, _, _, ok := server.Read(false); ok {
		t.Fatal("expected no command after consume")
	}
}

func TestPlugFragmentedCommand(t *testing.T) {
	clientStream, serverStream := newMemPipePair()
	client := plug.New(clientStream, plug.ToServer)
	server := plug.New(serverStream, 0)

	payload := bytes.Repeat([]byte{0x5a}, wire.MsgMaxData*2+100)
	if err := client.Write(false, 3, wire.OpAdd, payload); err != nil {
		t.Fatal(err)
	}
	if err := client.Commit(); err != nil {
		t.Fatal(err)
	}
	if err := client.IO(); err != nil {
		t.Fatal(err)
	}
	if err := server.IO(); err != nil {
		t.Fatal(err)
	}

	_, _, got, ok := server.Read(false)
	if !ok {
		t.Fatal("expected reassembled command")
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("payload mismatch: got %d bytes want %d", len(got), len(payload))
	}
}

func TestPlugRollbackNeutrality(t *testing.T) {
	clientStream, _ := newMemPipePair()
	client := plug.New(clientStream, plug.ToServer)

	before := clientStream.out.Len()

	if err := client.Write(false, 1, wire.OpAdd, []byte("partial")); err != nil {
		t.Fatal(err)
	}
	if err := client.WriteMore([]byte("more")); err != nil {
		t.Fatal(err)
	}
	if err := client.Rollback(); err != nil {
		t.Fatal(err)
	}
	if err := client.IO(); err != nil {
		t.Fatal(err)
	}

	if clientStream.out.Len() != before {
		t.Fatalf("rollback left %d bytes in send buffer, want %d", clientStream.out.Len(), before)
	}
}

func TestPlugDirectionMismatchFails(t *testing.T) {
	clientStream, serverStream := newMemPipePair()
	client := plug.New(clientStream, 0) // misconfigured: same direction as server
	server := plug.New(serverStream, 0)

	_ = client.Write(false, 1, wire.OpGet, []byte("x"))
	_ = client.Commit()
	_ = client.IO()

	if err := server.IO(); err == nil {
		t.Fatal("expected protocol error on direction mismatch")
	}
}

func TestPlugWriteBusyWithoutResume(t *testing.T) {
	clientStream, _ := newMemPipePair()
	client := plug.New(clientStream, plug.ToServer)

	if err := client.Write(false, 1, wire.OpGet, nil); err != nil {
		t.Fatal(err)
	}
	if err := client.Write(false, 2, wire.OpGet, nil); err != plug.ErrWriteBusy {
		t.Fatalf("expected ErrWriteBusy, got %v", err)
	}
	if err := client.Write(true, 2, wire.OpGet, nil); err != nil {
		t.Fatalf("resume should succeed: %v", err)
	}
}
