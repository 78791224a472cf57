package compose

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraph_BuildSerializesChainsInOrder(t *testing.T) {
	g := NewGraph(2)
	v0 := g.Pad("v")
	g.Add([]Label{Stream{Input: 0, Kind: "v"}}, []string{"scale=1080:1920", "setsar=1"}, v0)
	v1 := g.Pad("v")
	g.Add([]Label{Stream{Input: 1, Kind: "v"}}, []string{"setsar=1"}, v1)
	out := g.Named("outv")
	g.Add([]Label{v0, v1}, []string{"concat=n=2:v=1:a=0"}, out)
	g.Map(out)

	graph, err := g.Build()
	require.NoError(t, err)
	assert.Equal(t, "[0:v]scale=1080:1920,setsar=1[v0];[1:v]setsar=1[v1];[v0][v1]concat=n=2:v=1:a=0[outv]", graph)
	assert.Equal(t, []Pad{"outv"}, g.Outputs())
	assert.Len(t, g.Chains(), 3)
}

func TestGraph_PadCountersArePerPrefix(t *testing.T) {
	g := NewGraph(1)
	assert.Equal(t, Pad("v0"), g.Pad("v"))
	assert.Equal(t, Pad("a0"), g.Pad("a"))
	assert.Equal(t, Pad("v1"), g.Pad("v"))
	assert.Equal(t, Pad("a1"), g.Pad("a"))
}

func TestGraph_SourceChainWithoutInputs(t *testing.T) {
	g := NewGraph(0)
	a := g.Pad("a")
	g.Add(nil, []string{SilenceSource(), "atrim=0:2.000"}, a)
	g.Map(a)

	graph, err := g.Build()
	require.NoError(t, err)
	assert.Equal(t, "anullsrc=channel_layout=stereo:sample_rate=44100,atrim=0:2.000[a0]", graph)
}

func TestGraph_AssemblyErrors(t *testing.T) {
	tests := []struct {
		name    string
		build   func(g *Graph)
		problem string
	}{
		{
			name: "dangling output",
			build: func(g *Graph) {
				g.Add([]Label{Stream{Input: 0, Kind: "v"}}, []string{"null"}, g.Pad("v"))
			},
			problem: "declared but never used",
		},
		{
			name: "allocated never declared",
			build: func(g *Graph) {
				g.Pad("v")
			},
			problem: "allocated but never declared",
		},
		{
			name: "consumed before declared",
			build: func(g *Graph) {
				late := g.Pad("v")
				out := g.Named("outv")
				g.Add([]Label{late}, []string{"null"}, out)
				g.Map(out)
				g.Add([]Label{Stream{Input: 0, Kind: "v"}}, []string{"null"}, late)
			},
			problem: "referenced before it was declared",
		},
		{
			name: "declared twice",
			build: func(g *Graph) {
				v := g.Pad("v")
				g.Add([]Label{Stream{Input: 0, Kind: "v"}}, []string{"null"}, v)
				g.Add([]Label{Stream{Input: 0, Kind: "v"}}, []string{"null"}, v)
				g.Map(v)
			},
			problem: "declared more than once",
		},
		{
			name: "consumed twice",
			build: func(g *Graph) {
				v := g.Pad("v")
				g.Add([]Label{Stream{Input: 0, Kind: "v"}}, []string{"split"}, v)
				g.Map(v)
				g.Map(v)
			},
			problem: "consumed more than once",
		},
		{
			name: "unallocated pad",
			build: func(g *Graph) {
				g.Add([]Label{Stream{Input: 0, Kind: "v"}}, []string{"null"}, Pad("rogue"))
				g.Map(Pad("rogue"))
			},
			problem: "was not allocated",
		},
		{
			name: "missing input",
			build: func(g *Graph) {
				v := g.Pad("v")
				g.Add([]Label{Stream{Input: 3, Kind: "v"}}, []string{"null"}, v)
				g.Map(v)
			},
			problem: "references missing input",
		},
		{
			name: "empty chain",
			build: func(g *Graph) {
				v := g.Pad("v")
				g.Add([]Label{Stream{Input: 0, Kind: "v"}}, nil, v)
				g.Map(v)
			},
			problem: "has no filters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGraph(1)
			tt.build(g)

			graph, err := g.Build()
			assert.Empty(t, graph)
			var asmErr *GraphAssemblyError
			require.True(t, errors.As(err, &asmErr), "expected GraphAssemblyError, got %v", err)
			assert.True(t, containsProblem(asmErr.Problems, tt.problem), "problems: %v", asmErr.Problems)
		})
	}
}

func containsProblem(problems []string, want string) bool {
	for _, p := range problems {
		if strings.Contains(p, want) {
			return true
		}
	}
	return false
}
