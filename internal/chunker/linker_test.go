package chunker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/sqlchunker/pkg/types"
)

func linkedChunks() []*types.Chunk {
	chunks := []*types.Chunk{
		{ID: 1, DeclaredVariables: []string{"@a"}},
		{ID: 2, UsedVariables: []string{"@A"}},
		{ID: 3, UsedVariables: []string{"@b"}, DeclaredVariables: []string{"@b"}},
		{ID: 4, UsedVariables: []string{"@a", "@b"}, ContinuationFrom: 3},
		{ID: 5, UsedVariables: []string{"@unknown"}},
	}
	linkDependencies(chunks)
	return chunks
}

func TestLinkDependencies(t *testing.T) {
	chunks := linkedChunks()

	assert.Empty(t, chunks[0].Dependencies)
	assert.Equal(t, []int{1}, chunks[1].Dependencies)
	assert.Empty(t, chunks[2].Dependencies, "a chunk does not depend on itself")
	assert.Equal(t, []int{1, 3}, chunks[3].Dependencies)
	assert.Empty(t, chunks[4].Dependencies)

	for _, c := range chunks {
		for _, d := range c.Dependencies {
			assert.Less(t, d, c.ID)
		}
	}
}

func TestLinkDependencies_LaterDeclarationIgnored(t *testing.T) {
	chunks := []*types.Chunk{
		{ID: 1, UsedVariables: []string{"@x"}},
		{ID: 2, DeclaredVariables: []string{"@x"}},
	}

	linkDependencies(chunks)

	assert.Empty(t, chunks[0].Dependencies)
}

func TestLinkContinuations(t *testing.T) {
	parent := func(ordinal int) *types.SubdivisionInfo {
		return &types.SubdivisionInfo{ParentType: types.ChunkLoop, ParentStart: 5, ParentEnd: 300, Ordinal: ordinal, Total: 3}
	}
	chunks := []*types.Chunk{
		{ID: 1},
		{ID: 2, Subdivision: parent(1)},
		{ID: 3, Subdivision: parent(2)},
		{ID: 4, Subdivision: parent(3)},
		{ID: 5, Subdivision: &types.SubdivisionInfo{ParentType: types.ChunkLoop, ParentStart: 301, ParentEnd: 500, Ordinal: 1, Total: 2}},
	}

	linkContinuations(chunks)

	assert.Zero(t, chunks[0].ContinuationTo)
	assert.Zero(t, chunks[1].ContinuationFrom)
	assert.Equal(t, 3, chunks[1].ContinuationTo)
	assert.Equal(t, 2, chunks[2].ContinuationFrom)
	assert.Equal(t, 4, chunks[2].ContinuationTo)
	assert.Equal(t, 3, chunks[3].ContinuationFrom)
	assert.Zero(t, chunks[3].ContinuationTo)
	assert.Zero(t, chunks[4].ContinuationFrom)
}

func TestDependencyGraph(t *testing.T) {
	g, err := BuildGraph(linkedChunks())
	require.NoError(t, err)

	order, err := g.Order()
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{1, 2, 3, 4, 5}, order)
	assert.Equal(t, 1, order[0])

	dependents, err := g.Dependents(1)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 4}, dependents)

	deps, err := g.Dependencies(4)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, deps)

	impact, err := g.Impact(3)
	require.NoError(t, err)
	assert.Equal(t, []int{4}, impact)

	_, err = g.Dependents(42)
	assert.Error(t, err)
}

func TestDependencyGraph_OrderFollowsDependencies(t *testing.T) {
	chunks := []*types.Chunk{
		{ID: 1},
		{ID: 2},
		{ID: 3, Dependencies: []int{2}},
		{ID: 4, Dependencies: []int{1, 3}},
	}

	g, err := BuildGraph(chunks)
	require.NoError(t, err)

	order, err := g.Order()
	require.NoError(t, err)

	position := make(map[int]int)
	for i, id := range order {
		position[id] = i
	}
	for _, c := range chunks {
		for _, d := range c.Dependencies {
			assert.Less(t, position[d], position[c.ID])
		}
	}
}

func TestBuildGraph_RejectsCycles(t *testing.T) {
	chunks := []*types.Chunk{
		{ID: 1, Dependencies: []int{2}},
		{ID: 2, Dependencies: []int{1}},
	}

	_, err := BuildGraph(chunks)
	assert.Error(t, err)
}

func TestBuildGraph_UnknownDependency(t *testing.T) {
	chunks := []*types.Chunk{{ID: 1, Dependencies: []int{7}}}

	_, err := BuildGraph(chunks)
	assert.Error(t, err)
}

func TestBuildGraph_FromChunkedScript(t *testing.T) {
	chunks := Chunk(whileScript(300), DefaultConfig())

	g, err := BuildGraph(chunks)
	require.NoError(t, err)

	order, err := g.Order()
	require.NoError(t, err)
	assert.Len(t, order, len(chunks))

	impact, err := g.Impact(1)
	require.NoError(t, err)
	assert.Len(t, impact, len(chunks)-1, "every part follows the first through the continuation chain")
}
