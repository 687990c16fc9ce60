package force

import (
	"math"
	"reflect"
	"testing"

	"pgregory.net/rapid"

	"github.com/ritzau/litgraph/pkg/model"
)

func TestConfigure_AlwaysInstalled(t *testing.T) {
	for _, a := range []model.Arrangement{model.ArrangementForce, model.ArrangementChronological, model.ArrangementThematic} {
		set := Configure(a, 800, 600)
		for _, name := range []string{NameCharge, NameCollision, NameCenter, NameLink} {
			if _, ok := set[name]; !ok {
				t.Errorf("%s: expected force %q", a, name)
			}
		}

		center := set[NameCenter].(*Center)
		if center.X != 400 || center.Y != 300 {
			t.Errorf("%s: expected center at (400,300), got (%v,%v)", a, center.X, center.Y)
		}
	}
}

func TestConfigure_ForceHasNoDirectionalForces(t *testing.T) {
	set := Configure(model.ArrangementForce, 800, 600)
	if _, ok := set[NameX]; ok {
		t.Error("Force arrangement should not install an x force")
	}
	if _, ok := set[NameY]; ok {
		t.Error("Force arrangement should not install a y force")
	}
}

func TestConfigure_ChronologicalTargets(t *testing.T) {
	nodes := []model.Node{
		{ID: "a", Year: 1880},
		{ID: "b", Year: 1915},
		{ID: "c", Year: 1950},
	}

	set := Configure(model.ArrangementChronological, 1000, 600)
	x := set[NameX].(*Position)
	x.Init(nodes, nil)

	targets := x.Targets()
	for i := 1; i < len(targets); i++ {
		if targets[i] <= targets[i-1] {
			t.Errorf("Expected x targets to increase with year, got %v", targets)
		}
	}
	for i, v := range targets {
		if v < 200 || v > 800 {
			t.Errorf("Target %d = %v outside [200, 800]", i, v)
		}
	}
	if targets[0] != 200 || targets[2] != 800 || targets[1] != 500 {
		t.Errorf("Expected targets [200 500 800], got %v", targets)
	}

	y := set[NameY].(*Position)
	y.Init(nodes, nil)
	for _, v := range y.Targets() {
		if v != 300 {
			t.Errorf("Expected y target 300, got %v", v)
		}
	}
	if y.Strength != AxisStrength || x.Strength != DirectedStrength {
		t.Errorf("Unexpected strengths x=%v y=%v", x.Strength, y.Strength)
	}
}

func TestConfigure_ThematicBands(t *testing.T) {
	nodes := []model.Node{
		{ID: "h", Themes: []string{"heroic"}},
		{ID: "n", Themes: []string{"natural", "heroic"}},
		{ID: "u", Themes: []string{"unranked"}},
		{ID: "e"},
	}

	set := Configure(model.ArrangementThematic, 800, 600)
	y := set[NameY].(*Position)
	y.Init(nodes, nil)

	want := []float64{100, 500, 300, 300}
	if !reflect.DeepEqual(y.Targets(), want) {
		t.Errorf("Expected y targets %v, got %v", want, y.Targets())
	}

	x := set[NameX].(*Position)
	x.Init(nodes, nil)
	for _, v := range x.Targets() {
		if v != 400 {
			t.Errorf("Expected x target 400, got %v", v)
		}
	}
}

func TestSetNames(t *testing.T) {
	set := Configure(model.ArrangementChronological, 800, 600)
	set["zz"] = &Center{}
	set["aa"] = &Center{}

	want := []string{NameCharge, NameCollision, NameCenter, NameX, NameY, NameLink, "aa", "zz"}
	if got := set.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
}

func TestManyBody_Repels(t *testing.T) {
	nodes := []model.Node{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 100, Y: 100}}
	m := NewManyBody(ChargeStrength)
	m.Init(nodes, nil)
	m.Apply(nodes, 1)

	if nodes[0].VX >= 0 {
		t.Errorf("Expected node 0 pushed left, got vx=%v", nodes[0].VX)
	}
	if nodes[1].VX <= 0 {
		t.Errorf("Expected node 1 pushed right, got vx=%v", nodes[1].VX)
	}
}

func TestManyBody_CoincidentNodes(t *testing.T) {
	nodes := []model.Node{{X: 5, Y: 5}, {X: 5, Y: 5}}
	m := NewManyBody(ChargeStrength)
	m.Init(nodes, nil)
	m.Apply(nodes, 1)

	for i, n := range nodes {
		if math.IsNaN(n.VX) || math.IsNaN(n.VY) || math.IsInf(n.VX, 0) || math.IsInf(n.VY, 0) {
			t.Errorf("Node %d has non-finite velocity (%v,%v)", i, n.VX, n.VY)
		}
	}
}

func TestManyBody_ExactMatchesApproximation(t *testing.T) {
	base := []model.Node{{X: 0, Y: 0}, {X: 30, Y: 5}, {X: -20, Y: 40}, {X: 60, Y: -35}}

	exact := append([]model.Node(nil), base...)
	m := NewManyBody(ChargeStrength)
	m.Theta = 0
	m.Init(exact, nil)
	m.Apply(exact, 1)

	approx := append([]model.Node(nil), base...)
	b := NewManyBody(ChargeStrength)
	b.Theta = 0.01 // tight enough to visit every leaf
	b.Init(approx, nil)
	b.Apply(approx, 1)

	for i := range base {
		if math.Abs(exact[i].VX-approx[i].VX) > 1e-6 || math.Abs(exact[i].VY-approx[i].VY) > 1e-6 {
			t.Errorf("Node %d: exact (%v,%v) != approx (%v,%v)", i, exact[i].VX, exact[i].VY, approx[i].VX, approx[i].VY)
		}
	}
}

func TestCollide_SeparatesOverlap(t *testing.T) {
	nodes := []model.Node{{X: 0, Y: 0}, {X: 10, Y: 0}}
	c := NewCollide(CollisionRadius)
	c.Init(nodes, nil)
	c.Apply(nodes, 1)

	if nodes[0].VX >= 0 || nodes[1].VX <= 0 {
		t.Errorf("Expected overlapping nodes pushed apart, got vx %v and %v", nodes[0].VX, nodes[1].VX)
	}
	if nodes[0].VX != -nodes[1].VX {
		t.Errorf("Expected symmetric correction, got %v and %v", nodes[0].VX, nodes[1].VX)
	}
}

func TestCollide_IgnoresDistantNodes(t *testing.T) {
	nodes := []model.Node{{X: 0, Y: 0}, {X: 500, Y: 0}}
	c := NewCollide(CollisionRadius)
	c.Init(nodes, nil)
	c.Apply(nodes, 1)

	if nodes[0].VX != 0 || nodes[1].VX != 0 {
		t.Errorf("Expected no correction, got %v and %v", nodes[0].VX, nodes[1].VX)
	}
}

func TestCollide_Cluster(t *testing.T) {
	// A is within reach of B and C; B and C are too far apart to touch
	nodes := []model.Node{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: -100, Y: 0}, {X: 1000, Y: 1000}}
	c := NewCollide(CollisionRadius)
	c.Init(nodes, nil)
	c.Apply(nodes, 1)

	if nodes[1].VX <= 0 || nodes[2].VX >= 0 {
		t.Errorf("Expected B and C pushed away from A, got vx %v and %v", nodes[1].VX, nodes[2].VX)
	}
	if math.Abs(nodes[0].VX) > 1e-9 {
		t.Errorf("Expected the pushes on A to cancel out, got vx %v", nodes[0].VX)
	}
	if nodes[3].VX != 0 || nodes[3].VY != 0 {
		t.Errorf("Expected the distant node untouched, got (%v,%v)", nodes[3].VX, nodes[3].VY)
	}
}

func TestCollide_ConservesMomentum(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 60).Draw(t, "nodes")
		nodes := make([]model.Node, n)
		for i := range nodes {
			nodes[i].X = rapid.Float64Range(0, 400).Draw(t, "x")
			nodes[i].Y = rapid.Float64Range(0, 400).Draw(t, "y")
		}

		c := NewCollide(CollisionRadius)
		c.Iterations = rapid.IntRange(1, 3).Draw(t, "iterations")
		c.Init(nodes, nil)
		c.Apply(nodes, 1)

		var vx, vy float64
		for _, node := range nodes {
			if math.IsNaN(node.VX) || math.IsInf(node.VX, 0) || math.IsNaN(node.VY) || math.IsInf(node.VY, 0) {
				t.Fatalf("Non-finite velocity (%v,%v)", node.VX, node.VY)
			}
			vx += node.VX
			vy += node.VY
		}
		if math.Abs(vx) > 1e-6 || math.Abs(vy) > 1e-6 {
			t.Fatalf("Collisions changed the total velocity to (%v,%v)", vx, vy)
		}
	})
}

func TestLink_PullsTowardDistance(t *testing.T) {
	nodes := []model.Node{{X: 0, Y: 0}, {X: 300, Y: 0}}
	links := []model.ResolvedLink{{SourceIndex: 0, TargetIndex: 1}}

	f := NewLink(LinkDistance, LinkStrength)
	f.Init(nodes, links)
	f.Apply(nodes, 1)

	if nodes[0].VX <= 0 || nodes[1].VX >= 0 {
		t.Errorf("Expected stretched link to pull endpoints together, got %v and %v", nodes[0].VX, nodes[1].VX)
	}
}

func TestCenter_ShiftsMean(t *testing.T) {
	nodes := []model.Node{{X: 0, Y: 0}, {X: 100, Y: 0}}
	c := &Center{X: 250, Y: 0, Strength: 1}
	c.Apply(nodes, 1)

	mean := (nodes[0].X + nodes[1].X) / 2
	if mean != 250 {
		t.Errorf("Expected mean 250 with full strength, got %v", mean)
	}
}

func TestLinearExtrapolates(t *testing.T) {
	s := YearScale(1000)
	if got := s.At(1985); got != 1100 {
		t.Errorf("Expected 1100 for 1985, got %v", got)
	}
}
