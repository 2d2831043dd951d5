package fxyt

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Opcode identifies one FXYT command.
type Opcode int

const (
	OpPushX Opcode = iota // X: push the pixel's x coordinate
	OpPushY               // Y: push the pixel's y coordinate
	OpPushT               // T: push the current frame's time value
	OpLiteral             // N: start an integer literal (push 0)
	OpDigit               // 0-9: append a digit to the value on top
	OpAdd                 // +
	OpSub                 // -
	OpMul                 // *
	OpDiv                 // /
	OpMod                 // %
	OpMode                // M: increment the mode register
	OpEqual               // =
	OpLess                // <
	OpGreater             // >
	OpInvert              // !: logical NOT of the top value
	OpXor                 // ^
	OpAnd                 // &
	OpOr                  // |
	OpClamp               // C: clamp the top value to [0,255]
	OpDup                 // D: duplicate the top value
	OpPop                 // P: discard the top value
	OpSwap                // S: exchange the top two values
	OpRotate              // R: rotate the top three values
	OpGroup               // [...]: nested command group
	OpFrameInterval       // F: report a frame display interval
	OpDebug               // W: dump coordinate and stack, halt the render
)

// Command is one parsed unit of program behavior. For OpDigit the digit
// value is in Digit; for OpGroup the nested commands are in Body. Pos is
// the 0-based position of the command's character in the program text.
type Command struct {
	Op    Opcode
	Digit int
	Body  []Command
	Pos   int
}

// Color is one rendered pixel, three 8-bit channels.
type Color struct {
	R, G, B uint8
}

// Canvas dimensions and evaluation limits. The coordinate space, the
// stack bound and the nesting bound are all fixed by the language.
const (
	CanvasSize    = 256
	MaxStackDepth = 8
	MaxNesting    = 8
	MaxMode       = 2
)

// Frame is one rendered 256x256 image. Pix is row-major with row 0 at
// the top of the image; scanline y of the evaluation space (y grows
// upward) lands in row 255-y. Interval is the display duration hint for
// this frame, either Config.FrameInterval or the last value reported by
// an F command during the frame's evaluation.
type Frame struct {
	Pix      [CanvasSize][CanvasSize]Color
	Interval time.Duration
}

// Evaluation errors. Messages follow the language's documented error
// taxonomy.
var (
	ErrRGBOutOfRange  = errors.New("RGB value greater than 255 or less than 0")
	ErrStackOverflow  = errors.New("attempt to push more than 8 values to the stack")
	ErrStackEmpty     = errors.New("attempt to read from an empty stack")
	ErrLoopNesting    = errors.New("attempt to nest brackets more than 8 levels deep")
	ErrDivideByZero   = errors.New("attempt to divide by zero in mode 0")
	ErrModeOutOfRange = errors.New("attempt to increment mode beyond 2")
	ErrDebugHalt      = errors.New("debug halt requested")
)

// Parse error kinds, wrapped by ParseError.
var (
	ErrInvalidCharacter = errors.New("not a valid FXYT command")
	ErrBracketMismatch  = errors.New("bracket with no partner")
)

// ParseError reports a rejected program along with the 0-based position
// of the offending character.
type ParseError struct {
	Pos int
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%v at position %d", e.Err, e.Pos)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// PixelError wraps an evaluation error with the coordinate triple that
// produced it, so a failed render is actionable without re-running.
type PixelError struct {
	X, Y, T int
	Err     error
}

func (e *PixelError) Error() string {
	return fmt.Sprintf("%v (at x=%d y=%d t=%d)", e.Err, e.X, e.Y, e.T)
}

func (e *PixelError) Unwrap() error {
	return e.Err
}

// Config holds configuration for the interpreter.
type Config struct {
	// Debug enables trace/debug logging for the enabled categories.
	Debug bool
	// DebugCategories limits debug output to these subsystems. Empty
	// means all categories when Debug is set.
	DebugCategories []LogCategory
	// Lenient substitutes SentinelColor for pixels whose evaluation
	// fails instead of aborting the render. Debug halts still abort.
	Lenient bool
	// Workers is the number of scanline workers used while rendering.
	// Zero means one worker per CPU.
	Workers int
	// FrameInterval is the display interval assigned to frames whose
	// evaluation never executes an F command.
	FrameInterval time.Duration
}

// DefaultConfig returns default configuration.
func DefaultConfig() *Config {
	return &Config{
		Debug:         false,
		Lenient:       false,
		Workers:       0,
		FrameInterval: 100 * time.Millisecond,
	}
}

// SentinelColor marks failed pixels under the lenient error policy.
var SentinelColor = Color{R: 255, G: 0, B: 255}

// String renders the command back to its source character, with group
// bodies bracketed, so a parsed program prints as a program again.
func (c Command) String() string {
	switch c.Op {
	case OpPushX:
		return "X"
	case OpPushY:
		return "Y"
	case OpPushT:
		return "T"
	case OpLiteral:
		return "N"
	case OpDigit:
		return fmt.Sprintf("%d", c.Digit)
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpMod:
		return "%"
	case OpMode:
		return "M"
	case OpEqual:
		return "="
	case OpLess:
		return "<"
	case OpGreater:
		return ">"
	case OpInvert:
		return "!"
	case OpXor:
		return "^"
	case OpAnd:
		return "&"
	case OpOr:
		return "|"
	case OpClamp:
		return "C"
	case OpDup:
		return "D"
	case OpPop:
		return "P"
	case OpSwap:
		return "S"
	case OpRotate:
		return "R"
	case OpGroup:
		var sb strings.Builder
		sb.WriteByte('[')
		for _, child := range c.Body {
			sb.WriteString(child.String())
		}
		sb.WriteByte(']')
		return sb.String()
	case OpFrameInterval:
		return "F"
	case OpDebug:
		return "W"
	}
	return "?"
}
