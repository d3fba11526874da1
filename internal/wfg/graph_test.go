package wfg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectCycleEmptyGraph(t *testing.T) {
	g := New()
	assert.Nil(t, g.DetectCycle())
}

func TestDetectCycleNoCycle(t *testing.T) {
	g := New()
	g.AddEdges(1, []int{2})
	g.AddEdges(2, []int{3})
	assert.Nil(t, g.DetectCycle())
}

func TestDetectCycleSimple(t *testing.T) {
	g := New()
	g.AddEdges(1, []int{2})
	g.AddEdges(2, []int{1})
	assert.ElementsMatch(t, []int{1, 2}, g.DetectCycle())
}

func TestDetectCycleSkipsSelfLoop(t *testing.T) {
	g := New()
	g.AddEdges(1, []int{1})
	assert.Nil(t, g.DetectCycle())
}

func TestRemoveSourceClearsBothDirections(t *testing.T) {
	g := New()
	g.AddEdges(1, []int{2})
	g.AddEdges(2, []int{1})
	g.RemoveSource(1)
	assert.Nil(t, g.DetectCycle())
	assert.Empty(t, g.edges[2])
}

func TestDetectCycleLongerChain(t *testing.T) {
	g := New()
	g.AddEdges(1, []int{2})
	g.AddEdges(2, []int{3})
	g.AddEdges(3, []int{1})
	cycle := g.DetectCycle()
	assert.ElementsMatch(t, []int{1, 2, 3}, cycle)
}
