package constraint

import (
	"math"
	"testing"

	"pgregory.net/rapid"

	"github.com/ritzau/litgraph/pkg/model"
)

func TestClamp(t *testing.T) {
	nodes := []model.Node{
		{ID: "inside", X: 100, Y: 200},
		{ID: "left-top", X: -50, Y: 10},
		{ID: "right-bottom", X: 900, Y: 1000},
		{ID: "nan", X: math.NaN(), Y: math.Inf(1)},
	}
	nodes[1].Fix(-50, 10)

	Clamp(nodes, 800, 600, RadiusPadding)

	want := [][2]float64{{100, 200}, {45, 45}, {755, 555}, {400, 300}}
	for i, w := range want {
		if nodes[i].X != w[0] || nodes[i].Y != w[1] {
			t.Errorf("%s: got (%v,%v), want %v", nodes[i].ID, nodes[i].X, nodes[i].Y, w)
		}
	}
	if !nodes[1].Fixed() {
		t.Error("Clamp should not clear the fixed override")
	}
}

func TestClamp_NarrowViewport(t *testing.T) {
	nodes := []model.Node{{ID: "a", X: 5, Y: 70}}
	Clamp(nodes, 60, 600, RadiusPadding)
	if nodes[0].X != 30 || nodes[0].Y != 70 {
		t.Errorf("Expected (30,70), got (%v,%v)", nodes[0].X, nodes[0].Y)
	}
}

func TestClamp_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		width := rapid.Float64Range(100, 2000).Draw(t, "width")
		height := rapid.Float64Range(100, 2000).Draw(t, "height")
		n := rapid.IntRange(1, 20).Draw(t, "n")

		nodes := make([]model.Node, n)
		for i := range nodes {
			nodes[i].X = rapid.Float64Range(-5000, 5000).Draw(t, "x")
			nodes[i].Y = rapid.Float64Range(-5000, 5000).Draw(t, "y")
		}

		Clamp(nodes, width, height, RadiusPadding)
		if !Within(nodes, width, height, RadiusPadding) {
			t.Fatalf("Nodes outside bounds after clamp: %+v", nodes)
		}

		once := append([]model.Node(nil), nodes...)
		Clamp(nodes, width, height, RadiusPadding)
		for i := range nodes {
			if nodes[i].X != once[i].X || nodes[i].Y != once[i].Y {
				t.Fatalf("Clamp is not idempotent for node %d", i)
			}
		}
	})
}
