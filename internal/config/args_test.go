package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"

	"github.com/relabs-tech/attitude_stream/internal/orientation"
)

func isUsageError(err error) bool {
	var usageErr *UsageError
	return errors.As(err, &usageErr)
}

func TestValidateSampleRate(t *testing.T) {
	for r := -5; r <= 250; r++ {
		err := ValidateSampleRate(r)
		accepted := r >= 4 && r <= 200 && 200%r == 0
		if accepted {
			test.That(t, err, test.ShouldBeNil)
		} else {
			test.That(t, err, test.ShouldNotBeNil)
			test.That(t, isUsageError(err), test.ShouldBeTrue)
		}
	}

	var accepted []int
	for r := 4; r <= 200; r++ {
		if ValidateSampleRate(r) == nil {
			accepted = append(accepted, r)
		}
	}
	test.That(t, accepted, test.ShouldResemble, []int{4, 5, 8, 10, 20, 25, 40, 50, 100, 200})
}

func TestParseArgs(t *testing.T) {
	t.Run("rate enables output", func(t *testing.T) {
		var out bytes.Buffer
		cfg, err := ParseArgs([]string{"-r", "50"}, &out)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, cfg.SampleRate, test.ShouldEqual, 50)
		test.That(t, cfg.EnableMag, test.ShouldBeFalse)
		test.That(t, cfg.OrientationMenu, test.ShouldBeFalse)
		test.That(t, cfg.Orientation, test.ShouldEqual, orientation.ZUp)
		test.That(t, cfg.Sensor, test.ShouldEqual, SensorMPU)
		test.That(t, cfg.I2CBus, test.ShouldEqual, "2")
		test.That(t, cfg.InterruptPinName(), test.ShouldEqual, "GPIO117")
		test.That(t, out.Len(), test.ShouldEqual, 0)
	})

	t.Run("combined short options", func(t *testing.T) {
		cfg, err := ParseArgs([]string{"-mo", "-r100"}, &bytes.Buffer{})
		test.That(t, err, test.ShouldBeNil)
		test.That(t, cfg.SampleRate, test.ShouldEqual, 100)
		test.That(t, cfg.EnableMag, test.ShouldBeTrue)
		test.That(t, cfg.OrientationMenu, test.ShouldBeTrue)
	})

	t.Run("out of range rate", func(t *testing.T) {
		var out bytes.Buffer
		_, err := ParseArgs([]string{"-r", "300"}, &out)
		test.That(t, isUsageError(err), test.ShouldBeTrue)
		test.That(t, out.String(), test.ShouldContainSubstring, "sample_rate must be between 4 & 200")
		test.That(t, out.String(), test.ShouldContainSubstring, " Options")
	})

	t.Run("rate that does not divide 200", func(t *testing.T) {
		var out bytes.Buffer
		_, err := ParseArgs([]string{"-r", "30"}, &out)
		test.That(t, isUsageError(err), test.ShouldBeTrue)
		test.That(t, out.String(), test.ShouldContainSubstring, "sample_rate must be a divisor of 200")
	})

	t.Run("no action flag", func(t *testing.T) {
		var out bytes.Buffer
		_, err := ParseArgs([]string{"-m"}, &out)
		test.That(t, isUsageError(err), test.ShouldBeTrue)
		test.That(t, out.String(), test.ShouldContainSubstring, "please enable an option to print some data")
	})

	t.Run("no arguments at all", func(t *testing.T) {
		var out bytes.Buffer
		_, err := ParseArgs(nil, &out)
		test.That(t, isUsageError(err), test.ShouldBeTrue)
		test.That(t, out.String(), test.ShouldContainSubstring, "please enable an option to print some data")
	})

	t.Run("help", func(t *testing.T) {
		var out bytes.Buffer
		_, err := ParseArgs([]string{"-r", "50", "-h"}, &out)
		test.That(t, errors.Is(err, ErrHelp), test.ShouldBeTrue)
		test.That(t, out.String(), test.ShouldContainSubstring, "-h              Print this help message")
	})

	t.Run("unknown option echoes the character", func(t *testing.T) {
		var out bytes.Buffer
		_, err := ParseArgs([]string{"-x"}, &out)
		test.That(t, isUsageError(err), test.ShouldBeTrue)
		lines := strings.Split(out.String(), "\n")
		test.That(t, lines[0], test.ShouldEqual, "opt: x")
		test.That(t, lines[1], test.ShouldEqual, "invalid argument")
		test.That(t, out.String(), test.ShouldContainSubstring, " Options")
	})

	t.Run("non numeric rate", func(t *testing.T) {
		var out bytes.Buffer
		_, err := ParseArgs([]string{"-r", "fast"}, &out)
		test.That(t, isUsageError(err), test.ShouldBeTrue)
		test.That(t, out.String(), test.ShouldContainSubstring, "invalid argument")
	})

	t.Run("config file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "stream.conf")
		body := "# test\nSENSOR=mock\nMQTT_BROKER=tcp://localhost:1883\nWEB_SERVER_PORT=8080\n"
		test.That(t, os.WriteFile(path, []byte(body), 0o600), test.ShouldBeNil)

		cfg, err := ParseArgs([]string{"-c", path, "-r", "20"}, &bytes.Buffer{})
		test.That(t, err, test.ShouldBeNil)
		test.That(t, cfg.Sensor, test.ShouldEqual, SensorMock)
		test.That(t, cfg.MQTTBroker, test.ShouldEqual, "tcp://localhost:1883")
		test.That(t, cfg.MQTTTopic, test.ShouldEqual, "inertial/attitude")
		test.That(t, cfg.WebServerPort, test.ShouldEqual, 8080)
		test.That(t, cfg.SampleRate, test.ShouldEqual, 20)
	})

	t.Run("missing config file", func(t *testing.T) {
		_, err := ParseArgs([]string{"-c", filepath.Join(t.TempDir(), "nope"), "-r", "20"}, &bytes.Buffer{})
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, isUsageError(err), test.ShouldBeFalse)
	})
}

func TestBuild(t *testing.T) {
	t.Run("prompt runs with -o", func(t *testing.T) {
		var out bytes.Buffer
		cfg, err := Build([]string{"-o", "-r", "10"}, strings.NewReader("5"), &out)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, cfg.Orientation, test.ShouldEqual, orientation.YUp)
		test.That(t, out.String(), test.ShouldContainSubstring, "Please select")
	})

	t.Run("prompt skipped without -o", func(t *testing.T) {
		var out bytes.Buffer
		cfg, err := Build([]string{"-r", "10"}, strings.NewReader("5"), &out)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, cfg.Orientation, test.ShouldEqual, orientation.ZUp)
		test.That(t, out.Len(), test.ShouldEqual, 0)
	})

	t.Run("quit propagates", func(t *testing.T) {
		_, err := Build([]string{"-o", "-r", "10"}, strings.NewReader("q"), &bytes.Buffer{})
		test.That(t, errors.Is(err, orientation.ErrQuit), test.ShouldBeTrue)
	})

	t.Run("prompt not shown on usage error", func(t *testing.T) {
		var out bytes.Buffer
		_, err := Build([]string{"-o"}, strings.NewReader("5"), &out)
		test.That(t, isUsageError(err), test.ShouldBeTrue)
		test.That(t, out.String(), test.ShouldNotContainSubstring, "Please select")
	})
}
