package idxcompact

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("mergeSpellings", func() {
	var dir, path string
	var w *SSTableWriter

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "idxcompact-merge-spellings")
		Expect(err).NotTo(HaveOccurred())
		path = filepath.Join(dir, "out")
		fh, err := OpenBufferedFile(path, false)
		Expect(err).NotTo(HaveOccurred())
		w = NewSSTableWriter(fh, nil)
	})

	AfterEach(func() { os.RemoveAll(dir) })

	commit := func() {
		Expect(w.FlushDB()).To(Succeed())
		var root RootInfo
		Expect(w.Commit(1, &root)).To(Succeed())
	}

	mc := func(cur LiveCursor) *MergeCursor {
		m, err := NewMergeCursor(cur)
		Expect(err).NotTo(HaveOccurred())
		return m
	}

	It("unions non-W word sets across sources", func() {
		key := []byte("Gcta")
		tagA := encodeWordSet([][]byte{[]byte("cat"), []byte("catalog")})
		tagB := encodeWordSet([][]byte{[]byte("cataract")})

		srcA := mc(newSliceCursor(kv(key, tagA)))
		srcB := mc(newSliceCursor(kv(key, tagB)))

		Expect(mergeSpellings(w, []*MergeCursor{srcA, srcB}, DefaultCompressor)).To(Succeed())
		commit()

		items := readAllItems(path)
		Expect(items).To(HaveLen(1))
		words, err := decodeWordSet(items[0][1])
		Expect(err).NotTo(HaveOccurred())
		var got []string
		for _, wd := range words {
			got = append(got, string(wd))
		}
		Expect(got).To(Equal([]string{"cat", "catalog", "cataract"}))
	})

	It("sums W-key frequencies across sources", func() {
		key := []byte("Wcat")
		tagA := appendUintLast(nil, 3)
		tagB := appendUintLast(nil, 4)

		srcA := mc(newSliceCursor(kv(key, tagA)))
		srcB := mc(newSliceCursor(kv(key, tagB)))

		Expect(mergeSpellings(w, []*MergeCursor{srcA, srcB}, DefaultCompressor)).To(Succeed())
		commit()

		items := readAllItems(path)
		Expect(items).To(HaveLen(1))
		freq, ok := unpackUintLast(items[0][1])
		Expect(ok).To(BeTrue())
		Expect(freq).To(Equal(uint64(7)))
	})

	It("rejects a corrupted zero W-key frequency", func() {
		key := []byte("Wcat")
		tagA := appendUintLast(nil, 0)
		tagB := appendUintLast(nil, 4)

		srcA := mc(newSliceCursor(kv(key, tagA)))
		srcB := mc(newSliceCursor(kv(key, tagB)))

		err := mergeSpellings(w, []*MergeCursor{srcA, srcB}, DefaultCompressor)
		Expect(err).To(HaveOccurred())
	})

	It("passes a single-source key through without touching the heap's grouping path", func() {
		key := []byte("Gzz")
		tag := encodeWordSet([][]byte{[]byte("zebra")})
		src := mc(newSliceCursor(kv(key, tag)))

		Expect(mergeSpellings(w, []*MergeCursor{src}, DefaultCompressor)).To(Succeed())
		commit()

		items := readAllItems(path)
		Expect(items).To(HaveLen(1))
		Expect(items[0][1]).To(Equal(tag))
	})
})
