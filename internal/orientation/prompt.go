// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"bufio"
	"fmt"
	"io"

	"github.com/pkg/errors"
)

// ErrQuit is returned by Prompt when the user pressed 'q'. The caller is
// expected to exit the process with status 0 without starting the sensor.
var ErrQuit = errors.New("orientation selection quit")

type inputKind int

const (
	inputInvalid inputKind = iota
	inputSelect
	inputQuit
	inputIgnore
)

type transition struct {
	kind        inputKind
	orientation Orientation
}

// transitions classifies every accepted menu key. Keys not present are invalid.
var transitions = map[byte]transition{
	'1':  {kind: inputSelect, orientation: ZUp},
	'2':  {kind: inputSelect, orientation: ZDown},
	'3':  {kind: inputSelect, orientation: XUp},
	'4':  {kind: inputSelect, orientation: XDown},
	'5':  {kind: inputSelect, orientation: YUp},
	'6':  {kind: inputSelect, orientation: YDown},
	'7':  {kind: inputSelect, orientation: XForward},
	'8':  {kind: inputSelect, orientation: XBack},
	'q':  {kind: inputQuit},
	'\n': {kind: inputIgnore},
}

func classify(c byte) transition {
	if t, ok := transitions[c]; ok {
		return t
	}
	return transition{kind: inputInvalid}
}

// Prompt prints the orientation menu to out and reads single characters
// from in until one selects an orientation. End of input selects ZUp.
func Prompt(in io.Reader, out io.Writer) (Orientation, error) {
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Please select a number 1-%d corresponding to the\n", len(All))
	fmt.Fprintln(out, "orientation you wish to use. Press 'q' to exit.")
	fmt.Fprintln(out)
	for i, o := range All {
		fmt.Fprintf(out, " %d: %s\n", i+1, o)
	}

	r := bufio.NewReader(in)
	for {
		c, err := r.ReadByte()
		if err == io.EOF {
			return ZUp, nil
		}
		if err != nil {
			return 0, errors.Wrap(err, "read orientation selection")
		}

		t := classify(c)
		switch t.kind {
		case inputSelect:
			return t.orientation, nil
		case inputQuit:
			fmt.Fprintln(out, "Quitting")
			return 0, ErrQuit
		case inputIgnore:
		default:
			fmt.Fprintln(out, "invalid input")
		}
	}
}
