package replicate

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/OpenTraceLab/hierpcb/pkg/kicad/pcb"
)

const tol = 1e-9

func pose(x, y, a float64) Pose {
	return Pose{At: pcb.Position{X: x, Y: y}, Angle: pcb.Angle(a)}
}

func TestRigidTransform(t *testing.T) {
	tests := []struct {
		name      string
		from, to  Pose
		in        pcb.Position
		want      pcb.Position
		inAngle   pcb.Angle
		wantAngle pcb.Angle
	}{
		{
			name: "pure translation",
			from: pose(0, 0, 0), to: pose(100, 50, 0),
			in: pcb.Position{X: 10, Y: 10}, want: pcb.Position{X: 110, Y: 60},
		},
		{
			// +90 is counter-clockwise on screen, and Y points down.
			name: "rotation by 90",
			from: pose(0, 0, 0), to: pose(0, 0, 90),
			in: pcb.Position{X: 10, Y: 0}, want: pcb.Position{X: 0, Y: -10},
			inAngle: 0, wantAngle: 90,
		},
		{
			name: "rotation by -90",
			from: pose(0, 0, 0), to: pose(0, 0, -90),
			in: pcb.Position{X: 10, Y: 0}, want: pcb.Position{X: 0, Y: 10},
			inAngle: 45, wantAngle: -45,
		},
		{
			name: "anchor offset and rotation",
			from: pose(100, 100, 0), to: pose(50, 50, 90),
			in: pcb.Position{X: 105, Y: 100}, want: pcb.Position{X: 50, Y: 45},
			inAngle: 90, wantAngle: 180,
		},
		{
			name: "anchor maps onto anchor",
			from: pose(3, 4, 30), to: pose(-7, 2, 120),
			in: pcb.Position{X: 3, Y: 4}, want: pcb.Position{X: -7, Y: 2},
			inAngle: 30, wantAngle: 120,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewRigidTransform(tt.from, tt.to)
			got := tr.Translate(tt.in)
			assert.InDelta(t, tt.want.X, got.X, tol, "x")
			assert.InDelta(t, tt.want.Y, got.Y, tol, "y")
			assert.InDelta(t, float64(tt.wantAngle), float64(tr.Orient(tt.inAngle)), tol, "angle")
		})
	}
}

func TestRigidTransformSnapshotsAnchors(t *testing.T) {
	anchor := &pcb.Footprint{Layer: "F.Cu", At: pcb.PositionAngle{Position: pcb.Position{X: 1, Y: 1}}}
	tr := NewRigidTransform(pose(0, 0, 0), anchor)

	anchor.SetPosition(pcb.Position{X: 50, Y: 50})
	anchor.SetOrientation(90)

	assert.Equal(t, pcb.Position{X: 11, Y: 1}, tr.Translate(pcb.Position{X: 10, Y: 0}))
}

func TestPlacement(t *testing.T) {
	tr := NewRigidTransform(pose(0, 0, 0), pose(10, 0, 90))

	t.Run("absolute setter", func(t *testing.T) {
		d := &pcb.Drawing{Shape: pcb.ShapeText, Start: pcb.Position{X: 1, Y: 0}}
		require.NoError(t, tr.Place(d.Position(), d.Position()).Apply(d))
		assert.True(t, d.Start.ApproxEqual(pcb.Position{X: 10, Y: -1}, tol), "start %+v", d.Start)
		assert.Equal(t, pcb.Angle(90), d.Angle)
	})

	t.Run("relative move", func(t *testing.T) {
		z := &pcb.Zone{Outline: []pcb.Position{{X: 1, Y: 0}, {X: 2, Y: 0}}}
		pl := tr.Place(z.Position(), z.Position())
		assert.True(t, pl.Offset.ApproxEqual(pcb.Position{X: 9, Y: -1}, tol))
		require.NoError(t, pl.Apply(z))
		assert.True(t, z.Outline[0].ApproxEqual(pcb.Position{X: 10, Y: -1}, tol), "outline[0] %+v", z.Outline[0])
		assert.True(t, z.Outline[1].ApproxEqual(pcb.Position{X: 10, Y: -2}, tol), "outline[1] %+v", z.Outline[1])
	})

	t.Run("relative move fails without geometry", func(t *testing.T) {
		z := &pcb.Zone{}
		err := tr.Place(pcb.Position{}, z.Position()).Apply(z)
		assert.ErrorIs(t, err, pcb.ErrNoGeometry)
	})

	t.Run("unpositionable", func(t *testing.T) {
		assert.Error(t, tr.Place(pcb.Position{}, pcb.Position{}).Apply(struct{}{}))
	})
}

func TestRigidTransformRigidity(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		coord := rapid.Float64Range(-500, 500)
		angle := rapid.Float64Range(-360, 360)
		tr := NewRigidTransform(
			pose(coord.Draw(rt, "fx"), coord.Draw(rt, "fy"), angle.Draw(rt, "fa")),
			pose(coord.Draw(rt, "tx"), coord.Draw(rt, "ty"), angle.Draw(rt, "ta")),
		)
		a := pcb.Position{X: coord.Draw(rt, "ax"), Y: coord.Draw(rt, "ay")}
		b := pcb.Position{X: coord.Draw(rt, "bx"), Y: coord.Draw(rt, "by")}
		aa, ba := pcb.Angle(angle.Draw(rt, "aa")), pcb.Angle(angle.Draw(rt, "ba"))

		ta, tb := tr.Translate(a), tr.Translate(b)
		require.InDelta(rt, a.Distance(b), ta.Distance(tb), 1e-6, "distance between items changed")

		// The vector between the items turns by exactly the anchor delta.
		want := b.Sub(a)
		rad := -tr.Rotation().Radians()
		want = pcb.Position{
			X: want.X*math.Cos(rad) - want.Y*math.Sin(rad),
			Y: want.X*math.Sin(rad) + want.Y*math.Cos(rad),
		}
		require.True(rt, tb.Sub(ta).ApproxEqual(want, 1e-6), "vector %+v, want %+v", tb.Sub(ta), want)

		require.True(rt, (tr.Orient(ba)-tr.Orient(aa)).ApproxEqual(ba-aa, 1e-9), "relative angle changed")
	})
}

func TestRigidTransformInverse(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		coord := rapid.Float64Range(-500, 500)
		angle := rapid.Float64Range(-360, 360)
		tr := NewRigidTransform(
			pose(coord.Draw(rt, "fx"), coord.Draw(rt, "fy"), angle.Draw(rt, "fa")),
			pose(coord.Draw(rt, "tx"), coord.Draw(rt, "ty"), angle.Draw(rt, "ta")),
		)
		p := pcb.Position{X: coord.Draw(rt, "px"), Y: coord.Draw(rt, "py")}
		a := pcb.Angle(angle.Draw(rt, "a"))

		inv := tr.Inverse()
		back := inv.Translate(tr.Translate(p))
		require.True(rt, back.ApproxEqual(p, 1e-6), "round trip %+v -> %+v", p, back)
		require.InDelta(rt, float64(a), float64(inv.Orient(tr.Orient(a))), 1e-9)
	})
}
