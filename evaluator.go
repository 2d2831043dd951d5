package fxyt

import (
	"fmt"
	"time"
)

// evalResult is returned by command sequence execution and signals how
// the sequence finished: keep going against the shared stack, or stop
// the whole pixel with a terminal color. Terminal colors come from the
// divide-by-zero short-circuit in modes 1 and 2 and must propagate
// through every enclosing group, so each nested run call checks its
// result before continuing.
type evalResult interface {
	isEvalResult()
}

// continueResult means the sequence ran to completion.
type continueResult struct{}

func (continueResult) isEvalResult() {}

// terminalResult means evaluation ended early with this pixel color.
type terminalResult struct {
	color Color
}

func (terminalResult) isEvalResult() {}

// evaluator executes a command tree for a single coordinate triple.
// The stack and mode register are created fresh per pixel and shared
// across nested groups; nothing survives between pixels.
type evaluator struct {
	x, y, t int
	stack   []int
	mode    int
	logger  *Logger

	// interval is the frame display hint reported by the F command,
	// carried out-of-band from the color result.
	interval    time.Duration
	hasInterval bool
}

func newEvaluator(x, y, t int, logger *Logger) *evaluator {
	return &evaluator{
		x:      x,
		y:      y,
		t:      t,
		stack:  make([]int, 0, MaxStackDepth+1),
		logger: logger,
	}
}

// push adds a value to the stack, enforcing the depth bound. The bound
// is checked on every push so a command that pushes past 8 fails at
// that push, at any nesting level.
func (ev *evaluator) push(v int) error {
	ev.stack = append(ev.stack, v)
	if len(ev.stack) > MaxStackDepth {
		return ErrStackOverflow
	}
	return nil
}

// pop removes and returns the top value.
func (ev *evaluator) pop() (int, error) {
	if len(ev.stack) == 0 {
		return 0, ErrStackEmpty
	}
	v := ev.stack[len(ev.stack)-1]
	ev.stack = ev.stack[:len(ev.stack)-1]
	return v, nil
}

// popOrZero is the final color read: missing stack entries default to 0.
func (ev *evaluator) popOrZero() int {
	if len(ev.stack) == 0 {
		return 0
	}
	v := ev.stack[len(ev.stack)-1]
	ev.stack = ev.stack[:len(ev.stack)-1]
	return v
}

// run executes a command sequence against the shared stack and mode.
func (ev *evaluator) run(commands []Command) (evalResult, error) {
	for _, cmd := range commands {
		switch cmd.Op {
		case OpPushX:
			if err := ev.push(ev.x); err != nil {
				return nil, err
			}
		case OpPushY:
			if err := ev.push(ev.y); err != nil {
				return nil, err
			}
		case OpPushT:
			if err := ev.push(ev.t); err != nil {
				return nil, err
			}
		case OpLiteral:
			if err := ev.push(0); err != nil {
				return nil, err
			}
		case OpDigit:
			// A digit with nothing under it starts a fresh literal, so
			// a leading "7" and "N7" build the same value.
			top := ev.popOrZero()
			if err := ev.push(top*10 + cmd.Digit); err != nil {
				return nil, err
			}
		case OpAdd, OpSub, OpMul, OpDiv, OpMod:
			res, err := ev.arithmetic(cmd.Op)
			if err != nil {
				return nil, err
			}
			if res != nil {
				return res, nil
			}
		case OpMode:
			ev.mode++
			if ev.mode > MaxMode {
				return nil, ErrModeOutOfRange
			}
		case OpEqual, OpLess, OpGreater:
			right, err := ev.pop()
			if err != nil {
				return nil, err
			}
			left, err := ev.pop()
			if err != nil {
				return nil, err
			}
			truth := false
			switch cmd.Op {
			case OpEqual:
				truth = left == right
			case OpLess:
				truth = left < right
			case OpGreater:
				truth = left > right
			}
			if err := ev.push(boolToInt(truth)); err != nil {
				return nil, err
			}
		case OpInvert:
			v, err := ev.pop()
			if err != nil {
				return nil, err
			}
			if err := ev.push(boolToInt(v == 0)); err != nil {
				return nil, err
			}
		case OpXor, OpAnd, OpOr:
			right, err := ev.pop()
			if err != nil {
				return nil, err
			}
			left, err := ev.pop()
			if err != nil {
				return nil, err
			}
			var v int
			switch cmd.Op {
			case OpXor:
				v = left ^ right
			case OpAnd:
				v = left & right
			case OpOr:
				v = left | right
			}
			if err := ev.push(v); err != nil {
				return nil, err
			}
		case OpClamp:
			v, err := ev.pop()
			if err != nil {
				return nil, err
			}
			if v < 0 {
				v = 0
			} else if v > 255 {
				v = 255
			}
			if err := ev.push(v); err != nil {
				return nil, err
			}
		case OpDup:
			v, err := ev.pop()
			if err != nil {
				return nil, err
			}
			if err := ev.push(v); err != nil {
				return nil, err
			}
			if err := ev.push(v); err != nil {
				return nil, err
			}
		case OpPop:
			if _, err := ev.pop(); err != nil {
				return nil, err
			}
		case OpSwap:
			if len(ev.stack) < 2 {
				return nil, ErrStackEmpty
			}
			n := len(ev.stack)
			ev.stack[n-1], ev.stack[n-2] = ev.stack[n-2], ev.stack[n-1]
		case OpRotate:
			// ...,a,b,c (c on top) becomes ...,b,c,a
			if len(ev.stack) < 3 {
				return nil, ErrStackEmpty
			}
			n := len(ev.stack)
			a, b, c := ev.stack[n-3], ev.stack[n-2], ev.stack[n-1]
			ev.stack[n-3], ev.stack[n-2], ev.stack[n-1] = b, c, a
		case OpGroup:
			// Groups share the enclosing stack and mode; a terminal
			// color from inside skips everything at every level above.
			res, err := ev.run(cmd.Body)
			if err != nil {
				return nil, err
			}
			if _, terminal := res.(terminalResult); terminal {
				return res, nil
			}
		case OpFrameInterval:
			ms, err := ev.pop()
			if err != nil {
				return nil, err
			}
			if ms < 1 {
				ms = 1
			} else if ms > 65535 {
				ms = 65535
			}
			ev.interval = time.Duration(ms) * time.Millisecond
			ev.hasInterval = true
		case OpDebug:
			ev.logger.NoticeCat(CatDebug,
				"debug halt at x=%d y=%d t=%d: stack (bottom to top) %v, mode %d",
				ev.x, ev.y, ev.t, ev.stack, ev.mode)
			return nil, ErrDebugHalt
		default:
			return nil, fmt.Errorf("unknown opcode %d at position %d", cmd.Op, cmd.Pos)
		}
	}

	return continueResult{}, nil
}

// arithmetic executes one of + - * / %. A zero divisor follows the mode
// register's policy: mode 0 errors, mode 1 short-circuits to black,
// mode 2 short-circuits to red.
func (ev *evaluator) arithmetic(op Opcode) (evalResult, error) {
	right, err := ev.pop()
	if err != nil {
		return nil, err
	}
	left, err := ev.pop()
	if err != nil {
		return nil, err
	}

	if (op == OpDiv || op == OpMod) && right == 0 {
		switch ev.mode {
		case 0:
			return nil, ErrDivideByZero
		case 1:
			return terminalResult{color: Color{R: 0, G: 0, B: 0}}, nil
		default:
			return terminalResult{color: Color{R: 255, G: 0, B: 0}}, nil
		}
	}

	var v int
	switch op {
	case OpAdd:
		v = left + right
	case OpSub:
		v = left - right
	case OpMul:
		v = left * right
	case OpDiv:
		v = left / right
	case OpMod:
		v = left % right
	}
	if err := ev.push(v); err != nil {
		return nil, err
	}
	return nil, nil
}

// evaluate runs the whole program for this pixel and produces its
// color. An early terminal color wins outright; otherwise the color is
// read off the top of the stack as blue, green, red, with absent
// entries defaulting to 0 and out-of-range channels rejected.
func (ev *evaluator) evaluate(commands []Command) (Color, error) {
	res, err := ev.run(commands)
	if err != nil {
		return Color{}, err
	}
	if terminal, ok := res.(terminalResult); ok {
		return terminal.color, nil
	}

	blue := ev.popOrZero()
	green := ev.popOrZero()
	red := ev.popOrZero()

	if red < 0 || red > 255 || green < 0 || green > 255 || blue < 0 || blue > 255 {
		return Color{}, ErrRGBOutOfRange
	}

	return Color{R: uint8(red), G: uint8(green), B: uint8(blue)}, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
