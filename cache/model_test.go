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

package cache_test

import (
	"fmt"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nabbar/tlscached/cache"
	"github.com/nabbar/tlscached/wire"
)

func TestCache(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "cache suite")
}

var _ = Describe("Store", func() {
	var (
		base time.Time
		st   *cache.Store
	)

	BeforeEach(func() {
		base = time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	})

	It("rejects an out-of-range capacity", func() {
		_, err := cache.New(wire.CacheMinSize - 1)
		Expect(err).To(MatchError(cache.ErrCapacityRange))

		_, err = cache.New(wire.CacheMaxSize + 1)
		Expect(err).To(MatchError(cache.ErrCapacityRange))
	})

	Context("add then get", func() {
		BeforeEach(func() {
			var err error
			st, err = cache.New(wire.CacheMinSize)
			Expect(err).NotTo(HaveOccurred())
		})

		It("returns exactly what was added", func() {
			res := st.Add(base, 10_000, "sess-1", []byte("hello"))
			Expect(res).To(Equal(cache.AddOK))

			blob, ok := st.Get(base, "sess-1")
			Expect(ok).To(BeTrue())
			Expect(blob).To(Equal([]byte("hello")))
		})

		It("rejects a duplicate id", func() {
			Expect(st.Add(base, 10_000, "sess-1", []byte("a"))).To(Equal(cache.AddOK))
			Expect(st.Add(base, 10_000, "sess-1", []byte("b"))).To(Equal(cache.AddDuplicate))
		})

		It("rejects an id that is too long", func() {
			longID := ""
			for i := 0; i <= wire.MaxIDLen; i++ {
				longID += "a"
			}
			Expect(st.Add(base, 10_000, longID, []byte("a"))).To(Equal(cache.AddRangeID))
		})

		It("rejects a timeout beyond the max expiry window", func() {
			Expect(st.Add(base, wire.MaxExpiryMS+1, "sess-1", []byte("a"))).To(Equal(cache.AddRangeTimeout))
		})
	})

	Context("expiry", func() {
		BeforeEach(func() {
			var err error
			st, err = cache.New(wire.CacheMinSize)
			Expect(err).NotTo(HaveOccurred())
		})

		It("fires: a Get after the entry's expiry misses", func() {
			Expect(st.Add(base, 1_000, "sess-1", []byte("a"))).To(Equal(cache.AddOK))

			_, ok := st.Get(base.Add(1_001*time.Millisecond), "sess-1")
			Expect(ok).To(BeFalse())
		})

		It("keeps entries ordered so the count only ever includes live ones", func() {
			Expect(st.Add(base, 1_000, "sess-1", []byte("a"))).To(Equal(cache.AddOK))
			Expect(st.Add(base, 5_000, "sess-2", []byte("b"))).To(Equal(cache.AddOK))

			Expect(st.NumItems(base.Add(2_000 * time.Millisecond))).To(Equal(1))
			_, ok := st.Get(base.Add(2_000*time.Millisecond), "sess-2")
			Expect(ok).To(BeTrue())
		})
	})

	Context("remove and have", func() {
		BeforeEach(func() {
			var err error
			st, err = cache.New(wire.CacheMinSize)
			Expect(err).NotTo(HaveOccurred())
		})

		It("removes a present entry", func() {
			Expect(st.Add(base, 10_000, "sess-1", []byte("a"))).To(Equal(cache.AddOK))
			Expect(st.Remove(base, "sess-1")).To(Equal(cache.RemoveOK))
			Expect(st.Have(base, "sess-1")).To(BeFalse())
		})

		It("reports not-found removing an absent entry", func() {
			Expect(st.Remove(base, "no-such-id")).To(Equal(cache.RemoveNotFound))
		})
	})

	Context("forced eviction", func() {
		It("evicts the oldest-expiring entries once the store is full", func() {
			st, err := cache.New(wire.CacheMinSize)
			Expect(err).NotTo(HaveOccurred())

			for i := 0; i < wire.CacheMinSize; i++ {
				id := fmt.Sprintf("sess-%03d", i)
				timeout := int64(1_000 + i*1_000)
				Expect(st.Add(base, timeout, id, []byte("x"))).To(Equal(cache.AddOK))
			}
			Expect(st.NumItems(base)).To(Equal(wire.CacheMinSize))

			res := st.Add(base, 10_000_000, "sess-new", []byte("y"))
			Expect(res).To(Equal(cache.AddOK))

			Expect(st.Have(base, "sess-000")).To(BeFalse())
			Expect(st.Have(base, "sess-new")).To(BeTrue())
			Expect(st.NumItems(base)).To(BeNumerically("<=", wire.CacheMinSize))
		})
	})
})
