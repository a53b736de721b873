package idxcompact

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

// drvTable is a minimal SourceTable backed by an in-memory, already
// sorted record list, for driver-level Compact() tests.
type drvTable struct {
	exists bool
	recs   []kvRec
}

type kvRec struct{ key, tag []byte }

func (t *drvTable) Empty() bool  { return len(t.recs) == 0 }
func (t *drvTable) Exists() bool { return t.exists }
func (t *drvTable) Path() string { return "drv" }
func (t *drvTable) Cursor() (LiveCursor, error) {
	pairs := make([][2][]byte, len(t.recs))
	for i, r := range t.recs {
		pairs[i] = kv(r.key, r.tag)
	}
	return newSliceCursor(pairs...), nil
}

var absentDrvTable = &drvTable{exists: false}

type drvSource struct {
	tables   map[TableKind]*drvTable
	maxDocid uint64
}

func (s *drvSource) Table(kind TableKind) SourceTable {
	if t, ok := s.tables[kind]; ok {
		return t
	}
	return absentDrvTable
}
func (s *drvSource) MaxDocid() uint64 { return s.maxDocid }

func docdataTable(dids ...uint64) *drvTable {
	t := &drvTable{exists: true}
	for _, d := range dids {
		t.recs = append(t.recs, kvRec{key: EncodeDocidKey(d), tag: []byte("doc")})
	}
	return t
}

var _ = Describe("Compact", func() {
	var dir string

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "idxcompact-driver")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() { os.RemoveAll(dir) })

	It("compacts docdata across sources honouring disjoint docid offsets", func() {
		srcA := &drvSource{maxDocid: 1, tables: map[TableKind]*drvTable{
			TableDocdata:  docdataTable(0, 1),
			TablePostlist: {exists: true},
		}}
		srcB := &drvSource{maxDocid: 1, tables: map[TableKind]*drvTable{
			TableDocdata:  docdataTable(0, 1),
			TablePostlist: {exists: true},
		}}

		dest := filepath.Join(dir, "out")
		opts := &Options{NoSync: true}
		err := Compact([]Source{srcA, srcB}, []uint64{0, 2}, 3, dest, opts)
		Expect(err).NotTo(HaveOccurred())

		items := readAllItems(filepath.Join(dest, "docdata.sst"))
		Expect(items).To(HaveLen(4))
		var dids []uint64
		for _, it := range items {
			d, ok := DecodeDocidKey(it[0])
			Expect(ok).To(BeTrue())
			dids = append(dids, d)
		}
		Expect(dids).To(Equal([]uint64{0, 1, 2, 3}))
	})

	It("suppresses termlist output when only some sources carry it", func() {
		srcA := &drvSource{tables: map[TableKind]*drvTable{
			TableDocdata:  docdataTable(0),
			TablePostlist: {exists: true},
			TableTermlist: docdataTable(0),
		}}
		srcB := &drvSource{tables: map[TableKind]*drvTable{
			TableDocdata:  docdataTable(0),
			TablePostlist: {exists: true},
			TableTermlist: absentDrvTable,
		}}

		dest := filepath.Join(dir, "out")
		opts := &Options{NoSync: true}
		Expect(Compact([]Source{srcA, srcB}, []uint64{0, 1}, 1, dest, opts)).To(Succeed())

		_, err := os.Stat(filepath.Join(dest, "termlist.sst"))
		Expect(os.IsNotExist(err)).To(BeTrue())
	})

	It("writes termlist output when every source carries it", func() {
		srcA := &drvSource{tables: map[TableKind]*drvTable{
			TableDocdata:  docdataTable(0),
			TablePostlist: {exists: true},
			TableTermlist: docdataTable(0),
		}}
		srcB := &drvSource{tables: map[TableKind]*drvTable{
			TableDocdata:  docdataTable(0),
			TablePostlist: {exists: true},
			TableTermlist: docdataTable(0),
		}}

		dest := filepath.Join(dir, "out")
		opts := &Options{NoSync: true}
		Expect(Compact([]Source{srcA, srcB}, []uint64{0, 1}, 1, dest, opts)).To(Succeed())

		_, err := os.Stat(filepath.Join(dest, "termlist.sst"))
		Expect(err).NotTo(HaveOccurred())
	})

	It("skips a lazy table absent from every source", func() {
		srcA := &drvSource{tables: map[TableKind]*drvTable{
			TableDocdata:  docdataTable(0),
			TablePostlist: {exists: true},
			TablePosition: absentDrvTable,
		}}

		dest := filepath.Join(dir, "out")
		opts := &Options{NoSync: true}
		Expect(Compact([]Source{srcA}, []uint64{0}, 0, dest, opts)).To(Succeed())

		_, err := os.Stat(filepath.Join(dest, "position.sst"))
		Expect(os.IsNotExist(err)).To(BeTrue())
	})

	It("is idempotent: compacting the same sources twice yields identical docdata output", func() {
		srcA := &drvSource{tables: map[TableKind]*drvTable{
			TableDocdata:  docdataTable(0, 1),
			TablePostlist: {exists: true},
		}}

		opts := &Options{NoSync: true}
		dest1 := filepath.Join(dir, "out1")
		dest2 := filepath.Join(dir, "out2")
		Expect(Compact([]Source{srcA}, []uint64{0}, 1, dest1, opts)).To(Succeed())
		Expect(Compact([]Source{srcA}, []uint64{0}, 1, dest2, opts)).To(Succeed())

		a := readAllItems(filepath.Join(dest1, "docdata.sst"))
		b := readAllItems(filepath.Join(dest2, "docdata.sst"))
		Expect(a).To(Equal(b))
	})

	It("rejects mismatched sources/offsets lengths", func() {
		srcA := &drvSource{tables: map[TableKind]*drvTable{
			TableDocdata:  docdataTable(0),
			TablePostlist: {exists: true},
		}}
		dest := filepath.Join(dir, "out")
		err := Compact([]Source{srcA}, []uint64{0, 1}, 0, dest, &Options{})
		Expect(err).To(HaveOccurred())
	})
})
