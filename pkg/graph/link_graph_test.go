package graph

import (
	"reflect"
	"testing"

	"github.com/ritzau/litgraph/pkg/model"
)

func links(pairs ...[2]int) []model.ResolvedLink {
	result := make([]model.ResolvedLink, len(pairs))
	for i, p := range pairs {
		result[i] = model.ResolvedLink{SourceIndex: p[0], TargetIndex: p[1]}
	}
	return result
}

func TestLinkedAndDegree(t *testing.T) {
	lg := NewLinkGraph(5, links([2]int{0, 1}, [2]int{2, 0}, [2]int{3, 4}, [2]int{1, 1}))

	if lg.Degree(1) != 1 {
		t.Errorf("Degree(1) = %d, want 1 (self link skipped)", lg.Degree(1))
	}
	if lg.Degree(9) != 0 {
		t.Errorf("Degree(9) = %d, want 0", lg.Degree(9))
	}

	if !lg.Linked(2, 0) || !lg.Linked(0, 2) {
		t.Error("Expected 0 and 2 linked in both directions")
	}
	if lg.Linked(0, 3) {
		t.Error("Did not expect 0 and 3 linked")
	}
	if lg.Degree(0) != 2 {
		t.Errorf("Degree(0) = %d, want 2", lg.Degree(0))
	}
}

func TestComponents(t *testing.T) {
	lg := NewLinkGraph(6, links([2]int{0, 1}, [2]int{1, 2}, [2]int{3, 4}))

	want := [][]int{{0, 1, 2}, {3, 4}, {5}}
	if got := lg.Components(); !reflect.DeepEqual(got, want) {
		t.Errorf("Components() = %v, want %v", got, want)
	}
}

func TestCycles(t *testing.T) {
	lg := NewLinkGraph(4, links([2]int{0, 1}, [2]int{1, 2}, [2]int{2, 0}, [2]int{2, 3}))

	want := [][]int{{0, 1, 2}}
	if got := lg.Cycles(); !reflect.DeepEqual(got, want) {
		t.Errorf("Cycles() = %v, want %v", got, want)
	}

	acyclic := NewLinkGraph(3, links([2]int{0, 1}, [2]int{1, 2}))
	if got := acyclic.Cycles(); len(got) != 0 {
		t.Errorf("Expected no cycles, got %v", got)
	}
}
