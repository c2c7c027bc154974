// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"github.com/relabs-tech/attitude_stream/internal/orientation"
)

// Sample rate limits. The DMP produces fused samples at DMPRate and the
// output rate must divide it evenly.
const (
	MinSampleRate = 4
	MaxSampleRate = 200
	DMPRate       = 200
)

// UsageError is a bad, missing or unknown command line option. It is
// always reported with the usage text and a non-zero exit.
type UsageError struct {
	Reason string
}

func (e *UsageError) Error() string {
	return "usage: " + e.Reason
}

// ErrHelp is returned when -h was given.
var ErrHelp = &UsageError{Reason: "help requested"}

// ValidateSampleRate accepts r iff 4 <= r <= 200 and r divides 200.
func ValidateSampleRate(r int) error {
	if r < MinSampleRate || r > MaxSampleRate {
		return &UsageError{Reason: fmt.Sprintf("sample_rate must be between %d & %d", MinSampleRate, MaxSampleRate)}
	}
	if DMPRate%r != 0 {
		return &UsageError{Reason: fmt.Sprintf("sample_rate must be a divisor of %d", DMPRate)}
	}
	return nil
}

// PrintUsage writes the option summary.
func PrintUsage(out io.Writer) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, " Options")
	fmt.Fprintln(out, "-r {rate}       Set sample rate in HZ")
	fmt.Fprintf(out, "                Sample rate must be a divisor of %d\n", DMPRate)
	fmt.Fprintln(out, "-m              Enable Magnetometer")
	fmt.Fprintln(out, "-o              Show a menu to select IMU orientation")
	fmt.Fprintln(out, "-c {file}       Load settings from a KEY=VALUE config file")
	fmt.Fprintln(out, "-h              Print this help message")
	fmt.Fprintln(out)
}

// ParseArgs turns process arguments (without the program name) into a
// validated configuration. Diagnostics and usage go to out.
func ParseArgs(args []string, out io.Writer) (*Config, error) {
	fs := pflag.NewFlagSet("attitude_stream", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}

	rate := fs.IntP("rate", "r", 0, "sample rate in Hz")
	mag := fs.BoolP("mag", "m", false, "enable magnetometer")
	menu := fs.BoolP("orientation", "o", false, "select IMU orientation interactively")
	help := fs.BoolP("help", "h", false, "print help")
	configPath := fs.StringP("config", "c", "", "path to configuration file")

	if err := fs.Parse(args); err != nil {
		if opt, ok := unknownOption(err); ok {
			fmt.Fprintf(out, "opt: %s\n", opt)
		}
		fmt.Fprintln(out, "invalid argument")
		PrintUsage(out)
		return nil, &UsageError{Reason: err.Error()}
	}

	if *help {
		PrintUsage(out)
		return nil, ErrHelp
	}

	showSomething := fs.Changed("rate")
	if showSomething {
		if err := ValidateSampleRate(*rate); err != nil {
			var usageErr *UsageError
			if errors.As(err, &usageErr) {
				fmt.Fprintln(out, usageErr.Reason)
			}
			PrintUsage(out)
			return nil, err
		}
	}

	if !showSomething {
		PrintUsage(out)
		fmt.Fprintln(out, "please enable an option to print some data")
		return nil, &UsageError{Reason: "no output option given"}
	}

	cfg := Default()
	if *configPath != "" {
		loaded, err := Load(*configPath)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to load config from %s", *configPath)
		}
		cfg = loaded
	}

	cfg.SampleRate = *rate
	cfg.EnableMag = *mag
	cfg.OrientationMenu = *menu
	return cfg, nil
}

// Build parses args and, when -o was given, runs the orientation prompt
// on in. orientation.ErrQuit is returned unchanged if the user quit.
func Build(args []string, in io.Reader, out io.Writer) (*Config, error) {
	cfg, err := ParseArgs(args, out)
	if err != nil {
		return nil, err
	}
	if cfg.OrientationMenu {
		o, err := orientation.Prompt(in, out)
		if err != nil {
			return nil, err
		}
		cfg.Orientation = o
	}
	return cfg, nil
}

// unknownOption extracts the offending option from a pflag parse error.
func unknownOption(err error) (string, bool) {
	msg := err.Error()
	const shorthand = "unknown shorthand flag: '"
	if strings.HasPrefix(msg, shorthand) {
		rest := msg[len(shorthand):]
		if end := strings.IndexByte(rest, '\''); end > 0 {
			return rest[:end], true
		}
	}
	const long = "unknown flag: "
	if strings.HasPrefix(msg, long) {
		return strings.TrimPrefix(msg[len(long):], "--"), true
	}
	return "", false
}
