package idxcompact

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("SSTableWriter/Reader", func() {
	var dir string

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "idxcompact-sstable")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(dir)
	})

	openWriter := func(opts *WriterOptions) (*SSTableWriter, string) {
		path := filepath.Join(dir, "table")
		fh, err := OpenBufferedFile(path, false)
		Expect(err).NotTo(HaveOccurred())
		return NewSSTableWriter(fh, opts), path
	}

	It("round-trips keys and values in order", func() {
		w, path := openWriter(nil)
		records := []struct{ key, val string }{
			{"alpha", "1"},
			{"alphabet", "2"},
			{"beta", "3"},
			{"gamma", "4"},
		}
		for _, r := range records {
			Expect(w.Add([]byte(r.key), []byte(r.val), false)).To(Succeed())
		}
		Expect(w.FlushDB()).To(Succeed())

		var root RootInfo
		Expect(w.Commit(1, &root)).To(Succeed())
		Expect(root.NumEntries).To(Equal(uint64(len(records))))
		Expect(root.Sequential).To(BeTrue())

		fh, err := OpenBufferedFile(path, true)
		Expect(err).NotTo(HaveOccurred())
		r := NewSSTableReader(fh)

		for _, want := range records {
			key, val, compressed, ok, err := r.ReadItem()
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())
			Expect(string(key)).To(Equal(want.key))
			Expect(string(val)).To(Equal(want.val))
			Expect(compressed).To(BeFalse())
		}

		_, _, _, ok, err := r.ReadItem()
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeFalse())
	})

	It("rejects out-of-order keys", func() {
		w, _ := openWriter(nil)
		Expect(w.Add([]byte("beta"), []byte("1"), false)).To(Succeed())
		err := w.Add([]byte("alpha"), []byte("2"), false)
		Expect(err).To(HaveOccurred())
	})

	It("rejects duplicate keys", func() {
		w, _ := openWriter(nil)
		Expect(w.Add([]byte("beta"), []byte("1"), false)).To(Succeed())
		err := w.Add([]byte("beta"), []byte("2"), false)
		Expect(err).To(HaveOccurred())
	})

	It("rejects an empty key", func() {
		w, _ := openWriter(nil)
		err := w.Add([]byte(""), []byte("x"), false)
		Expect(err).To(HaveOccurred())
	})

	It("rejects an oversized key", func() {
		w, _ := openWriter(nil)
		big := make([]byte, 256)
		for i := range big {
			big[i] = byte('a' + i%26)
		}
		err := w.Add(big, []byte("x"), false)
		Expect(err).To(HaveOccurred())
	})

	It("carries the compressed flag through a round trip", func() {
		w, path := openWriter(nil)
		Expect(w.Add([]byte("k"), []byte("squeezed"), true)).To(Succeed())
		Expect(w.FlushDB()).To(Succeed())
		var root RootInfo
		Expect(w.Commit(1, &root)).To(Succeed())

		fh, err := OpenBufferedFile(path, true)
		Expect(err).NotTo(HaveOccurred())
		r := NewSSTableReader(fh)
		_, val, compressed, ok, err := r.ReadItem()
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
		Expect(compressed).To(BeTrue())
		Expect(string(val)).To(Equal("squeezed"))
	})

	It("builds a populated sparse index over many entries", func() {
		w, _ := openWriter(nil)
		for i := 0; i < 5000; i++ {
			key := appendUintSort(nil, uint64(i))
			Expect(w.Add(key, []byte("v"), false)).To(Succeed())
		}
		Expect(w.FlushDB()).To(Succeed())
		var root RootInfo
		Expect(w.Commit(1, &root)).To(Succeed())
		Expect(root.Root).To(BeNumerically(">", 0))
	})

	It("records a filter trailer offset when EnableFilter is set", func() {
		w, _ := openWriter(&WriterOptions{EnableFilter: true})
		Expect(w.Add([]byte("alpha"), []byte("1"), false)).To(Succeed())
		Expect(w.Add([]byte("beta"), []byte("2"), false)).To(Succeed())
		Expect(w.FlushDB()).To(Succeed())
		var root RootInfo
		Expect(w.Commit(1, &root)).To(Succeed())
		Expect(root.FilterOffset).To(BeNumerically(">", 0))
	})

	It("writes a verifiable checksum trailer when EnableChecksum is set", func() {
		w, path := openWriter(&WriterOptions{EnableChecksum: true})
		Expect(w.Add([]byte("alpha"), []byte("1"), false)).To(Succeed())
		Expect(w.FlushDB()).To(Succeed())
		var root RootInfo
		Expect(w.Commit(1, &root)).To(Succeed())

		ok, present, err := VerifyTableChecksum(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(present).To(BeTrue())
		Expect(ok).To(BeTrue())
	})

	It("flags table contents that no longer match their checksum trailer", func() {
		w, path := openWriter(&WriterOptions{EnableChecksum: true})
		Expect(w.Add([]byte("alpha"), []byte("1"), false)).To(Succeed())
		Expect(w.FlushDB()).To(Succeed())
		var root RootInfo
		Expect(w.Commit(1, &root)).To(Succeed())

		data, err := os.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())
		data[0] ^= 0xff
		Expect(os.WriteFile(path, data, 0644)).To(Succeed())

		ok, present, err := VerifyTableChecksum(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(present).To(BeTrue())
		Expect(ok).To(BeFalse())
	})
})
