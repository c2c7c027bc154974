package orientation

import (
	"io"
	"math"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"
)

func TestTiltFromAccel(t *testing.T) {
	pitch, roll := TiltFromAccel(Vec3{Z: 1})
	test.That(t, pitch, test.ShouldAlmostEqual, 0)
	test.That(t, roll, test.ShouldAlmostEqual, 0)

	s, c := math.Sincos(30 / RadToDeg)
	pitch, roll = TiltFromAccel(Vec3{Y: s, Z: c})
	test.That(t, pitch*RadToDeg, test.ShouldAlmostEqual, 30, 1e-9)
	test.That(t, roll, test.ShouldAlmostEqual, 0)

	_, roll = TiltFromAccel(Vec3{X: -1})
	test.That(t, roll*RadToDeg, test.ShouldAlmostEqual, 90, 1e-9)
}

func TestFilter(t *testing.T) {
	t.Run("first update seeds from accel", func(t *testing.T) {
		f := NewFilter(0.98)
		s, c := math.Sincos(20 / RadToDeg)
		out := f.Update(Vec3{Y: s, Z: c}, Vec3{X: 5}, nil, 0.005)
		test.That(t, out.Pitch*RadToDeg, test.ShouldAlmostEqual, 20, 1e-9)
		test.That(t, out.Yaw, test.ShouldEqual, 0)
	})

	t.Run("gyro integrates yaw without magnetometer", func(t *testing.T) {
		f := NewFilter(0.98)
		f.Update(Vec3{Z: 1}, Vec3{}, nil, 0)
		var out Sample
		for i := 0; i < 200; i++ {
			out = f.Update(Vec3{Z: 1}, Vec3{Z: 1}, nil, 0.005)
		}
		test.That(t, out.Yaw, test.ShouldAlmostEqual, 1, 1e-9)
		test.That(t, out.Pitch, test.ShouldAlmostEqual, 0, 1e-9)
	})

	t.Run("yaw wraps into ±π", func(t *testing.T) {
		f := NewFilter(0.98)
		f.Update(Vec3{Z: 1}, Vec3{}, nil, 0)
		var out Sample
		for i := 0; i < 400; i++ {
			out = f.Update(Vec3{Z: 1}, Vec3{Z: 2}, nil, 0.005)
		}
		test.That(t, out.Yaw, test.ShouldAlmostEqual, 4-2*math.Pi, 1e-9)
	})

	t.Run("accel pulls drifting pitch back", func(t *testing.T) {
		f := NewFilter(0.9)
		f.Update(Vec3{Z: 1}, Vec3{}, nil, 0)
		f.state.Pitch = 0.5
		var out Sample
		for i := 0; i < 200; i++ {
			out = f.Update(Vec3{Z: 1}, Vec3{}, nil, 0.005)
		}
		test.That(t, math.Abs(out.Pitch), test.ShouldBeLessThan, 1e-6)
	})

	t.Run("magnetometer sets heading", func(t *testing.T) {
		f := NewFilter(0.98)
		out := f.Update(Vec3{Z: 1}, Vec3{}, &Vec3{X: 0, Y: -1}, 0)
		test.That(t, out.Yaw, test.ShouldAlmostEqual, math.Pi/2, 1e-9)
	})

	t.Run("reset re-seeds", func(t *testing.T) {
		f := NewFilter(0)
		test.That(t, f.Alpha, test.ShouldEqual, DefaultAlpha)
		f.Update(Vec3{Z: 1}, Vec3{}, nil, 0)
		f.Update(Vec3{Z: 1}, Vec3{Z: 10}, nil, 0.1)
		f.Reset()
		out := f.Update(Vec3{Z: 1}, Vec3{}, nil, 0)
		test.That(t, out.Pitch, test.ShouldAlmostEqual, 0)
		test.That(t, out.Roll, test.ShouldAlmostEqual, 0)
		test.That(t, out.Yaw, test.ShouldAlmostEqual, 0)
	})
}

func TestRemap(t *testing.T) {
	up := Vec3{Z: 1}
	for _, o := range All {
		m := mountings[o]
		det := m[0][0]*(m[1][1]*m[2][2]-m[1][2]*m[2][1]) -
			m[0][1]*(m[1][0]*m[2][2]-m[1][2]*m[2][0]) +
			m[0][2]*(m[1][0]*m[2][1]-m[1][1]*m[2][0])
		test.That(t, det, test.ShouldEqual, 1)
	}

	test.That(t, Remap(ZUp, up), test.ShouldResemble, up)
	test.That(t, Remap(ZDown, Vec3{Z: -1}), test.ShouldResemble, up)
	test.That(t, Remap(XUp, Vec3{X: 1}), test.ShouldResemble, up)
	test.That(t, Remap(XDown, Vec3{X: -1}), test.ShouldResemble, up)
	test.That(t, Remap(YUp, Vec3{Y: 1}), test.ShouldResemble, up)
	test.That(t, Remap(YDown, Vec3{Y: -1}), test.ShouldResemble, up)
	test.That(t, Remap(XForward, Vec3{X: 1}), test.ShouldResemble, Vec3{Y: 1})
	test.That(t, Remap(XBack, Vec3{X: 1}), test.ShouldResemble, Vec3{Y: -1})
	test.That(t, Remap(Orientation(42), Vec3{X: 3}), test.ShouldResemble, Vec3{X: 3})
}

func TestSample(t *testing.T) {
	p, r, y := Sample{Pitch: 0.1, Roll: 0.2, Yaw: 0.3}.Degrees()
	test.That(t, p, test.ShouldAlmostEqual, 5.729577951308232)
	test.That(t, r, test.ShouldAlmostEqual, 11.459155902616464)
	test.That(t, y, test.ShouldAlmostEqual, 17.188733853924695)

	test.That(t, XUp.String(), test.ShouldEqual, "ORIENTATION_X_UP")
	test.That(t, Orientation(0).Valid(), test.ShouldBeFalse)
	test.That(t, Orientation(0).String(), test.ShouldEqual, "Orientation(0)")
}

func TestScriptedSource(t *testing.T) {
	src := NewScriptedSource(Sample{Pitch: 1}, Sample{Pitch: 2})
	s, err := src.Next()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, s.Pitch, test.ShouldEqual, 1)
	s, err = src.Next()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, s.Pitch, test.ShouldEqual, 2)
	_, err = src.Next()
	test.That(t, errors.Is(err, io.EOF), test.ShouldBeTrue)
}
