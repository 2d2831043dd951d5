package fxyt

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

// evalPixel parses and evaluates a program for one coordinate triple.
func evalPixel(t *testing.T, in *Interpreter, source string, x, y, tc int) (Color, error) {
	t.Helper()
	commands, err := Parse(source)
	if err != nil {
		t.Fatalf("Parse(%q) failed: %v", source, err)
	}
	return in.RenderPixel(commands, x, y, tc)
}

func mustEval(t *testing.T, source string, x, y, tc int) Color {
	t.Helper()
	color, err := evalPixel(t, New(nil), source, x, y, tc)
	if err != nil {
		t.Fatalf("Evaluating %q failed: %v", source, err)
	}
	return color
}

func TestCoordinateXor(t *testing.T) {
	// xor(5,5)=0 and a single stack entry leaves green and red at 0.
	color := mustEval(t, "XY^", 5, 5, 0)
	if color != (Color{0, 0, 0}) {
		t.Errorf("Expected black, got %v", color)
	}

	color = mustEval(t, "XY^", 12, 10, 0)
	if color != (Color{0, 0, 6}) {
		t.Errorf("Expected blue 6, got %v", color)
	}
}

func TestLeadingDigitsBuildZero(t *testing.T) {
	color := mustEval(t, "000", 0, 0, 0)
	if color != (Color{0, 0, 0}) {
		t.Errorf("Expected black, got %v", color)
	}
}

func TestMultiDigitLiteral(t *testing.T) {
	color := mustEval(t, "N255", 0, 0, 0)
	if color != (Color{0, 0, 255}) {
		t.Errorf("Expected blue 255, got %v", color)
	}
}

func TestThreeChannels(t *testing.T) {
	// Red is pushed earliest, blue latest.
	color := mustEval(t, "N10N20N30", 0, 0, 0)
	if color != (Color{R: 10, G: 20, B: 30}) {
		t.Errorf("Expected (10,20,30), got %v", color)
	}
}

func TestArithmetic(t *testing.T) {
	cases := []struct {
		source string
		want   int
	}{
		{"N7N5+", 12},
		{"N7N5-", 2},
		{"N7N5*", 35},
		{"N7N5/", 1},
		{"N7N5%", 2},
	}
	for _, c := range cases {
		color := mustEval(t, c.source, 0, 0, 0)
		if int(color.B) != c.want {
			t.Errorf("%q: expected %d, got %d", c.source, c.want, color.B)
		}
	}
}

func TestStackOverflowAtNinthPush(t *testing.T) {
	// Eight pushes fill the stack exactly.
	if _, err := evalPixel(t, New(nil), strings.Repeat("N", 8), 0, 0, 0); err != nil {
		t.Errorf("Eight pushes should succeed, got %v", err)
	}

	_, err := evalPixel(t, New(nil), strings.Repeat("N", 9), 0, 0, 0)
	if !errors.Is(err, ErrStackOverflow) {
		t.Errorf("Expected stack overflow on the 9th push, got %v", err)
	}
}

func TestStackOverflowInsideGroup(t *testing.T) {
	// The depth check applies at every nesting level.
	_, err := evalPixel(t, New(nil), "NNNN[NNNN[N]]", 0, 0, 0)
	if !errors.Is(err, ErrStackOverflow) {
		t.Errorf("Expected stack overflow inside nested group, got %v", err)
	}
}

func TestStackUnderflow(t *testing.T) {
	for _, source := range []string{"+", "P", "N1S", "N1N2R", "!"} {
		_, err := evalPixel(t, New(nil), source, 0, 0, 0)
		if !errors.Is(err, ErrStackEmpty) {
			t.Errorf("%q: expected stack empty error, got %v", source, err)
		}
	}
}

func TestDivideByZeroMode0(t *testing.T) {
	for _, source := range []string{"N5N0/", "N5N0%"} {
		_, err := evalPixel(t, New(nil), source, 0, 0, 0)
		if !errors.Is(err, ErrDivideByZero) {
			t.Errorf("%q: expected divide by zero error, got %v", source, err)
		}
	}
}

func TestDivideByZeroMode1ShortCircuits(t *testing.T) {
	// Mode 1 turns the division into an immediate black pixel and
	// skips everything after it.
	color := mustEval(t, "MN5N0/N255", 0, 0, 0)
	if color != (Color{0, 0, 0}) {
		t.Errorf("Expected black, got %v", color)
	}
}

func TestDivideByZeroMode2ShortCircuits(t *testing.T) {
	color := mustEval(t, "MMN5N0/", 0, 0, 0)
	if color != (Color{255, 0, 0}) {
		t.Errorf("Expected red, got %v", color)
	}
}

func TestShortCircuitCrossesGroupBoundaries(t *testing.T) {
	// The terminal color propagates out of nested groups past all
	// remaining commands at every level.
	color := mustEval(t, "M[[N5N0/]N255]N255", 0, 0, 0)
	if color != (Color{0, 0, 0}) {
		t.Errorf("Expected black from the nested short-circuit, got %v", color)
	}
}

func TestModeOutOfRange(t *testing.T) {
	if _, err := evalPixel(t, New(nil), "MM", 0, 0, 0); err != nil {
		t.Errorf("Mode 2 should be reachable, got %v", err)
	}

	_, err := evalPixel(t, New(nil), "MMM", 0, 0, 0)
	if !errors.Is(err, ErrModeOutOfRange) {
		t.Errorf("Expected mode out of range error, got %v", err)
	}
}

func TestComparisons(t *testing.T) {
	cases := []struct {
		source string
		x, y   int
		want   int
	}{
		{"XY<", 3, 5, 1},
		{"XY<", 5, 3, 0},
		{"XY>", 5, 3, 1},
		{"XY=", 4, 4, 1},
		{"XY=", 4, 5, 0},
	}
	for _, c := range cases {
		color := mustEval(t, c.source, c.x, c.y, 0)
		if int(color.B) != c.want {
			t.Errorf("%q with x=%d y=%d: expected %d, got %d", c.source, c.x, c.y, c.want, color.B)
		}
	}
}

func TestLogicalInvert(t *testing.T) {
	if color := mustEval(t, "N0!", 0, 0, 0); color.B != 1 {
		t.Errorf("!0 should be 1, got %d", color.B)
	}
	if color := mustEval(t, "N7!", 0, 0, 0); color.B != 0 {
		t.Errorf("!7 should be 0, got %d", color.B)
	}
}

func TestBitwise(t *testing.T) {
	cases := []struct {
		source string
		want   int
	}{
		{"N12N10^", 6},
		{"N12N10&", 8},
		{"N12N10|", 14},
	}
	for _, c := range cases {
		color := mustEval(t, c.source, 0, 0, 0)
		if int(color.B) != c.want {
			t.Errorf("%q: expected %d, got %d", c.source, c.want, color.B)
		}
	}
}

func TestClamp(t *testing.T) {
	// 300 clamps down to 255, 0-9 clamps up to 0.
	if color := mustEval(t, "N300C", 0, 0, 0); color.B != 255 {
		t.Errorf("Expected 255, got %d", color.B)
	}
	if color := mustEval(t, "N0N9-C", 0, 0, 0); color.B != 0 {
		t.Errorf("Expected 0, got %d", color.B)
	}
}

func TestStackOperations(t *testing.T) {
	// Duplicate: one value becomes green and blue.
	if color := mustEval(t, "N7D", 0, 0, 0); color != (Color{0, 7, 7}) {
		t.Errorf("Duplicate: expected (0,7,7), got %v", color)
	}
	// Pop discards the top.
	if color := mustEval(t, "N7N9P", 0, 0, 0); color != (Color{0, 0, 7}) {
		t.Errorf("Pop: expected (0,0,7), got %v", color)
	}
	// Swap exchanges the top two.
	if color := mustEval(t, "N7N9S", 0, 0, 0); color != (Color{0, 9, 7}) {
		t.Errorf("Swap: expected (0,9,7), got %v", color)
	}
}

func TestRotateThree(t *testing.T) {
	// [1,2,3] with 3 on top rotates to [2,3,1].
	color := mustEval(t, "N1N2N3R", 0, 0, 0)
	if color != (Color{R: 2, G: 3, B: 1}) {
		t.Errorf("Expected stack [2,3,1] giving color (2,3,1), got %v", color)
	}
}

func TestRGBOutOfRange(t *testing.T) {
	_, err := evalPixel(t, New(nil), "N256", 0, 0, 0)
	if !errors.Is(err, ErrRGBOutOfRange) {
		t.Errorf("Expected RGB out of range for 256, got %v", err)
	}

	_, err = evalPixel(t, New(nil), "N0N1-", 0, 0, 0)
	if !errors.Is(err, ErrRGBOutOfRange) {
		t.Errorf("Expected RGB out of range for -1, got %v", err)
	}
}

func TestGroupSharesStackAndMode(t *testing.T) {
	// Groups execute once against the enclosing stack.
	if color := mustEval(t, "[N2][N3]+", 0, 0, 0); color.B != 5 {
		t.Errorf("Expected 5, got %d", color.B)
	}

	// Mode set inside a group stays set outside it.
	color := mustEval(t, "[M]N5N0/", 0, 0, 0)
	if color != (Color{0, 0, 0}) {
		t.Errorf("Expected mode 1 short-circuit, got %v", color)
	}
}

func TestDebugHalt(t *testing.T) {
	in := New(nil)
	var buf bytes.Buffer
	in.Logger().SetOutput(&buf)

	_, err := evalPixel(t, in, "N1N2W", 3, 4, 0)
	if !errors.Is(err, ErrDebugHalt) {
		t.Fatalf("Expected debug halt error, got %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "x=3 y=4") {
		t.Errorf("Diagnostic output missing coordinate: %q", output)
	}
	if !strings.Contains(output, "[1 2]") {
		t.Errorf("Diagnostic output missing stack contents: %q", output)
	}
}
