package idxcompact

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

// sliceCursor is a minimal LiveCursor over an in-memory, pre-sorted
// slice of records, used by the merge-level tests in this package to
// exercise the heap merges directly without a real Source.
type sliceCursor struct {
	keys, tags [][]byte
	i          int
}

func newSliceCursor(pairs ...[2][]byte) *sliceCursor {
	c := &sliceCursor{}
	for _, p := range pairs {
		c.keys = append(c.keys, p[0])
		c.tags = append(c.tags, p[1])
	}
	c.i = -1
	return c
}

func (c *sliceCursor) Next() (bool, error) {
	c.i++
	return c.i < len(c.keys), nil
}
func (c *sliceCursor) Key() []byte      { return c.keys[c.i] }
func (c *sliceCursor) Tag() []byte      { return c.tags[c.i] }
func (c *sliceCursor) Compressed() bool { return false }

func kv(k, v []byte) [2][]byte { return [2][]byte{k, v} }

func readAllItems(path string) [][2][]byte {
	fh, err := OpenBufferedFile(path, true)
	Expect(err).NotTo(HaveOccurred())
	r := NewSSTableReader(fh)
	var out [][2][]byte
	for {
		key, val, _, ok, err := r.ReadItem()
		Expect(err).NotTo(HaveOccurred())
		if !ok {
			break
		}
		out = append(out, kv(append([]byte(nil), key...), append([]byte(nil), val...)))
	}
	return out
}

var _ = Describe("mergePostlists", func() {
	var dir, path string
	var w *SSTableWriter

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "idxcompact-merge-postlists")
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

	It("passes a single source's postings through unchanged modulo docid offset", func() {
		term := []byte("cat")
		key, tag := EncodePostingInitialChunk(term, 2, 2, 0, true, []byte{0})
		src := newSliceCursor(kv(key, tag))
		pc := NewPostlistCursor(src, 100)

		Expect(mergePostlists(w, []*PostlistCursor{pc}, nil)).To(Succeed())
		commit()

		items := readAllItems(path)
		Expect(items).To(HaveLen(1))
		outTerm, n, ok := unpackPostlistTerm(items[0][0])
		Expect(ok).To(BeTrue())
		Expect(string(outTerm)).To(Equal("cat"))
		_ = n
	})

	It("sums tf/cf and reassembles chunks across two sources", func() {
		termA := []byte("dog")
		keyA, tagA := EncodePostingInitialChunk(termA, 3, 3, 0, true, []byte{0})
		srcA := NewPostlistCursor(newSliceCursor(kv(keyA, tagA)), 0)

		keyB, tagB := EncodePostingInitialChunk(termA, 5, 5, 0, true, []byte{0})
		srcB := NewPostlistCursor(newSliceCursor(kv(keyB, tagB)), 10)

		Expect(mergePostlists(w, []*PostlistCursor{srcA, srcB}, nil)).To(Succeed())
		commit()

		items := readAllItems(path)
		Expect(items).To(HaveLen(2))

		tag := items[0][1]
		tf, n1, ok := unpackUint(tag)
		Expect(ok).To(BeTrue())
		cf, n2, ok := unpackUint(tag[n1:])
		Expect(ok).To(BeTrue())
		Expect(tf).To(Equal(uint64(8)))
		Expect(cf).To(Equal(uint64(8)))
		_ = n2
	})

	It("folds valuestats freq and widens the lbound/ubound range", func() {
		keyA := ValueStatsKey(1)
		tagA := ValueStatsTag(3, []byte("b"), []byte("d"))
		srcA := NewPostlistCursor(newSliceCursor(kv(keyA, tagA)), 0)

		keyB := ValueStatsKey(1)
		tagB := ValueStatsTag(2, []byte("a"), []byte("c"))
		srcB := NewPostlistCursor(newSliceCursor(kv(keyB, tagB)), 0)

		Expect(mergePostlists(w, []*PostlistCursor{srcA, srcB}, nil)).To(Succeed())
		commit()

		items := readAllItems(path)
		Expect(items).To(HaveLen(1))
		freq, lbound, ubound, err := decodeValuestats(items[0][1])
		Expect(err).NotTo(HaveOccurred())
		Expect(freq).To(Equal(uint64(5)))
		Expect(string(lbound)).To(Equal("a"))
		Expect(string(ubound)).To(Equal("d"))
	})

	It("resolves colliding user metadata with a MetadataResolver", func() {
		name := []byte("lang")
		keyA := UserMetadataKey(name)
		srcA := NewPostlistCursor(newSliceCursor(kv(keyA, []byte("en"))), 0)
		keyB := UserMetadataKey(name)
		srcB := NewPostlistCursor(newSliceCursor(kv(keyB, []byte("fr"))), 0)

		var gotTags [][]byte
		resolve := func(key []byte, tags [][]byte) ([]byte, error) {
			gotTags = tags
			return tags[len(tags)-1], nil
		}

		Expect(mergePostlists(w, []*PostlistCursor{srcA, srcB}, resolve)).To(Succeed())
		commit()

		Expect(gotTags).To(HaveLen(2))
		items := readAllItems(path)
		Expect(items).To(HaveLen(1))
		Expect(string(items[0][1])).To(Equal("fr"))
	})

	It("defaults to the first source's metadata tag without a resolver", func() {
		name := []byte("lang")
		keyA := UserMetadataKey(name)
		srcA := NewPostlistCursor(newSliceCursor(kv(keyA, []byte("en"))), 0)
		keyB := UserMetadataKey(name)
		srcB := NewPostlistCursor(newSliceCursor(kv(keyB, []byte("fr"))), 0)

		Expect(mergePostlists(w, []*PostlistCursor{srcA, srcB}, nil)).To(Succeed())
		commit()

		items := readAllItems(path)
		Expect(items).To(HaveLen(1))
		Expect(string(items[0][1])).To(Equal("en"))
	})
})
