package graph

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func build(mods []string, edges ...[2]string) *Graph {
	g := New()
	for _, m := range mods {
		g.AddModule(Module{Path: m})
	}
	for _, e := range edges {
		g.AddEdge(e[0], e[1])
	}
	return g
}

func TestAddEdgeSetSemantics(t *testing.T) {
	g := build([]string{"app.a", "app.b"})

	assert.True(t, g.AddEdge("app.a", "app.b"))
	assert.False(t, g.AddEdge("app.a", "app.b"), "duplicate edge must collapse")
	assert.False(t, g.AddEdge("app.a", "app.a"), "self edge must be dropped")
	assert.False(t, g.AddEdge("app.a", "app.missing"), "edge to unknown module must be dropped")
	assert.Equal(t, 1, g.EdgeCount())
	assert.Equal(t, []string{"app.a"}, g.ImportedBy("app.b"))
}

func TestModulesSortedRegardlessOfInsertOrder(t *testing.T) {
	g := build([]string{"app.z", "app.a", "lib.m", "app.k"})
	assert.Equal(t, []string{"app.a", "app.k", "app.z", "lib.m"}, g.Paths())
	assert.Equal(t, []string{"app", "lib"}, g.Packages())

	m, ok := g.Module("lib.m")
	require.True(t, ok)
	assert.Equal(t, "lib", m.Package)
}

func TestEqualIgnoresInsertionOrder(t *testing.T) {
	a := build([]string{"x.a", "x.b", "x.c"}, [2]string{"x.a", "x.b"}, [2]string{"x.b", "x.c"})
	b := build([]string{"x.c", "x.b", "x.a"}, [2]string{"x.b", "x.c"}, [2]string{"x.a", "x.b"})
	assert.True(t, a.Equal(b))

	b.AddEdge("x.c", "x.a")
	assert.False(t, a.Equal(b))
}

func TestReach(t *testing.T) {
	t.Run("no edges reaches nothing", func(t *testing.T) {
		g := build([]string{"a.x", "a.y"})
		assert.Empty(t, g.Reach("a.x", func(string) bool { return true }, nil))
	})

	t.Run("shortest path wins", func(t *testing.T) {
		g := build([]string{"a.s", "a.m1", "a.m2", "a.d"},
			[2]string{"a.s", "a.m1"},
			[2]string{"a.m1", "a.m2"},
			[2]string{"a.m2", "a.d"},
			[2]string{"a.s", "a.m2"},
		)
		paths := g.Reach("a.s", func(p string) bool { return p == "a.d" }, nil)
		require.Len(t, paths, 1)
		if diff := cmp.Diff([]string{"a.s", "a.m2", "a.d"}, paths[0]); diff != "" {
			t.Errorf("path mismatch (-want +got):\n%s", diff)
		}
		assert.True(t, g.IsPath(paths[0]))
	})

	t.Run("ties broken by sorted order", func(t *testing.T) {
		g := build([]string{"a.s", "a.b", "a.c", "a.d"},
			[2]string{"a.s", "a.c"},
			[2]string{"a.s", "a.b"},
			[2]string{"a.c", "a.d"},
			[2]string{"a.b", "a.d"},
		)
		assert.Equal(t, []string{"a.s", "a.b", "a.d"}, g.ShortestPath("a.s", "a.d"))
	})

	t.Run("search stops at targets", func(t *testing.T) {
		g := build([]string{"a.s", "a.d1", "a.d2"},
			[2]string{"a.s", "a.d1"},
			[2]string{"a.d1", "a.d2"},
		)
		paths := g.Reach("a.s", func(p string) bool { return p != "a.s" }, nil)
		assert.Equal(t, [][]string{{"a.s", "a.d1"}}, paths)
	})

	t.Run("filtered edges are not followed", func(t *testing.T) {
		g := build([]string{"a.s", "a.d"}, [2]string{"a.s", "a.d"})
		skip := func(src, dst string) bool { return src == "a.s" && dst == "a.d" }
		assert.Empty(t, g.Reach("a.s", func(p string) bool { return p == "a.d" }, skip))
	})

	t.Run("unknown start", func(t *testing.T) {
		g := build([]string{"a.s"})
		assert.Nil(t, g.ShortestPath("a.nope", "a.s"))
	})
}

func TestCycles(t *testing.T) {
	g := build([]string{"p.a", "p.b", "p.c", "p.d"},
		[2]string{"p.a", "p.b"},
		[2]string{"p.b", "p.c"},
		[2]string{"p.c", "p.a"},
		[2]string{"p.c", "p.d"},
	)
	cycles := g.Cycles()
	require.Len(t, cycles, 1)
	assert.Equal(t, []string{"p.a", "p.b", "p.c", "p.a"}, cycles[0])

	acyclic := build([]string{"p.a", "p.b"}, [2]string{"p.a", "p.b"})
	assert.Empty(t, acyclic.Cycles())
}

func TestIsPath(t *testing.T) {
	g := build([]string{"a.x", "a.y", "a.z"}, [2]string{"a.x", "a.y"})
	assert.True(t, g.IsPath([]string{"a.x", "a.y"}))
	assert.False(t, g.IsPath([]string{"a.x", "a.y", "a.z"}))
	assert.False(t, g.IsPath([]string{"a.x"}))
	assert.Equal(t, "a.x -> a.y", FormatPath([]string{"a.x", "a.y"}))
}
