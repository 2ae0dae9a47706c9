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

package transport_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nabbar/tlscached/transport"
)

func TestTransport(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "transport suite")
}

var _ = Describe("ParseAddress", func() {
	It("parses IP:<port>", func() {
		a, err := transport.ParseAddress("IP:8080")
		Expect(err).NotTo(HaveOccurred())
		Expect(a.Scheme).To(Equal(transport.NetworkIP))
		Expect(a.Host).To(BeEmpty())
		Expect(a.Port).To(Equal(8080))
		Expect(a.NetworkName()).To(Equal("tcp"))
		Expect(a.Endpoint()).To(Equal(":8080"))
	})

	It("parses IP:<host>:<port>", func() {
		a, err := transport.ParseAddress("IP:cache01:9500")
		Expect(err).NotTo(HaveOccurred())
		Expect(a.Scheme).To(Equal(transport.NetworkIP))
		Expect(a.Host).To(Equal("cache01"))
		Expect(a.Port).To(Equal(9500))
	})

	It("parses IPv4:<host>:<port>", func() {
		a, err := transport.ParseAddress("IPv4:127.0.0.1:9500")
		Expect(err).NotTo(HaveOccurred())
		Expect(a.Scheme).To(Equal(transport.NetworkIPv4))
		Expect(a.Host).To(Equal("127.0.0.1"))
		Expect(a.Port).To(Equal(9500))
		Expect(a.NetworkName()).To(Equal("tcp4"))
	})

	It("parses UNIX:<path>", func() {
		a, err := transport.ParseAddress("UNIX:/var/run/tlscached.sock")
		Expect(err).NotTo(HaveOccurred())
		Expect(a.Scheme).To(Equal(transport.NetworkUnix))
		Expect(a.Path).To(Equal("/var/run/tlscached.sock"))
		Expect(a.NetworkName()).To(Equal("unix"))
		Expect(a.Endpoint()).To(Equal("/var/run/tlscached.sock"))
	})

	It("rejects an unrecognized scheme", func() {
		_, err := transport.ParseAddress("FOO:bar")
		Expect(err).To(MatchError(transport.ErrInvalidAddress))
	})

	It("rejects IPv4 without a host", func() {
		_, err := transport.ParseAddress("IPv4:9500")
		Expect(err).To(MatchError(transport.ErrInvalidAddress))
	})

	It("rejects an empty UNIX path", func() {
		_, err := transport.ParseAddress("UNIX:")
		Expect(err).To(MatchError(transport.ErrInvalidAddress))
	})

	It("round-trips through String", func() {
		for _, raw := range []string{"IP:8080", "IP:cache01:9500", "IPv4:127.0.0.1:9500", "UNIX:/tmp/x.sock"} {
			a, err := transport.ParseAddress(raw)
			Expect(err).NotTo(HaveOccurred())
			Expect(a.String()).To(Equal(raw))
		}
	})
})
