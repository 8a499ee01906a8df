package reflectdb

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/forestrie/go-reflectdb/cursor"
	"github.com/forestrie/go-reflectdb/dbtesting"
	"github.com/forestrie/go-reflectdb/export"
	"github.com/forestrie/go-reflectdb/format"
)

func newTestContext(t *testing.T) dbtesting.TestContext {
	return dbtesting.NewTestContext(t, dbtesting.TestConfig{
		Seed:            1234,
		TestLabelPrefix: "reflectdb",
	})
}

func mustExport(t *testing.T, g *export.Graph, opts ...export.Option) []byte {
	out, err := export.Export(g, opts...)
	require.NoError(t, err)
	return out.Stream
}

func mustLoad(t *testing.T, tc dbtesting.TestContext, stream []byte, opts ...Option) *Database {
	db := New(tc.Log, opts...)
	require.NoError(t, db.Load(bytes.NewReader(stream)))
	t.Cleanup(func() { db.Close() })
	return db
}

// sectionAt finds the payload of section s in stream, returning its stream
// offset and element count.
func sectionAt(t *testing.T, stream []byte, s format.Section) (int, int) {
	h, err := format.DecodeHeader(stream)
	require.NoError(t, err)
	c := cursor.Wrap(stream)
	require.NoError(t, c.SeekAbs(format.HeaderBytes))
	for i := uint32(0); i < h.SectionCount; i++ {
		sh, err := format.ReadSectionHeader(c)
		require.NoError(t, err)
		if sh.Section == s {
			return c.Position(), int(sh.Count)
		}
		require.NoError(t, c.SeekRel(int(sh.ByteLen)))
	}
	t.Fatalf("section %s not in stream", s)
	return 0, 0
}

// emptyClassGraph holds a single class with no members.
func emptyClassGraph() *export.Graph {
	g := export.NewGraph()
	g.Global.Classes = append(g.Global.Classes, &export.Class{Name: "Empty"})
	return g
}
