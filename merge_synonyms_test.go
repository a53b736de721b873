package idxcompact

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("mergeSynonyms", func() {
	var dir, path string
	var w *SSTableWriter

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "idxcompact-merge-synonyms")
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

	It("unions synonym sets across sources, no W-key special case", func() {
		key := []byte("Zcar")
		tagA := encodeSynonymSet([][]byte{[]byte("automobile")})
		tagB := encodeSynonymSet([][]byte{[]byte("vehicle")})

		srcA := mc(newSliceCursor(kv(key, tagA)))
		srcB := mc(newSliceCursor(kv(key, tagB)))

		Expect(mergeSynonyms(w, []*MergeCursor{srcA, srcB}, DefaultCompressor)).To(Succeed())
		commit()

		items := readAllItems(path)
		Expect(items).To(HaveLen(1))
		words, err := decodeSynonymSet(items[0][1])
		Expect(err).NotTo(HaveOccurred())
		var got []string
		for _, wd := range words {
			got = append(got, string(wd))
		}
		Expect(got).To(Equal([]string{"automobile", "vehicle"}))
	})

	It("deduplicates identical words contributed by more than one source", func() {
		key := []byte("Zcar")
		tag := encodeSynonymSet([][]byte{[]byte("automobile")})

		srcA := mc(newSliceCursor(kv(key, tag)))
		srcB := mc(newSliceCursor(kv(key, tag)))

		Expect(mergeSynonyms(w, []*MergeCursor{srcA, srcB}, DefaultCompressor)).To(Succeed())
		commit()

		items := readAllItems(path)
		Expect(items).To(HaveLen(1))
		words, err := decodeSynonymSet(items[0][1])
		Expect(err).NotTo(HaveOccurred())
		Expect(words).To(HaveLen(1))
	})

	It("passes a key present in only one source through unchanged", func() {
		keyA := []byte("Zalpha")
		tagA := encodeSynonymSet([][]byte{[]byte("first")})
		keyB := []byte("Zbeta")
		tagB := encodeSynonymSet([][]byte{[]byte("second")})

		srcA := mc(newSliceCursor(kv(keyA, tagA)))
		srcB := mc(newSliceCursor(kv(keyB, tagB)))

		Expect(mergeSynonyms(w, []*MergeCursor{srcA, srcB}, DefaultCompressor)).To(Succeed())
		commit()

		items := readAllItems(path)
		Expect(items).To(HaveLen(2))
		Expect(string(items[0][0])).To(Equal("Zalpha"))
		Expect(string(items[1][0])).To(Equal("Zbeta"))
	})
})
