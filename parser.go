package fxyt

// Parse compiles FXYT program text into a command tree. The scan is a
// single left-to-right pass: every character maps to exactly one
// command, commands are case-insensitive, and nothing is skipped - a
// byte outside the command set (whitespace included) or any non-ASCII
// byte fails with its 0-based position.
//
// Brackets recurse: the body between a matching [ and ] becomes one
// group command owning its children. A ] at the top level and a [ still
// open at end of input are both bracket-mismatch errors, the latter
// reported at the opening bracket's position. Nesting deeper than 8
// levels fails with the nesting error.
func Parse(source string) ([]Command, error) {
	commands, _, err := parseSequence(source, 0, 0)
	if err != nil {
		return nil, err
	}
	return commands, nil
}

// parseSequence parses commands starting at offset until end of input
// or, when nesting > 0, until the ] that closes the current group. It
// returns the parsed commands and how many bytes it consumed, so the
// caller can advance past a nested region without re-scanning.
func parseSequence(source string, offset, nesting int) ([]Command, int, error) {
	commands := make([]Command, 0, len(source)-offset)

	i := offset
	for i < len(source) {
		c := source[i]
		if c >= 0x80 {
			return nil, 0, &ParseError{Pos: i, Err: ErrInvalidCharacter}
		}

		var next Command
		next.Pos = i

		switch upper(c) {
		case 'X':
			next.Op = OpPushX
		case 'Y':
			next.Op = OpPushY
		case 'T':
			next.Op = OpPushT
		case 'N':
			next.Op = OpLiteral
		case '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
			next.Op = OpDigit
			next.Digit = int(c - '0')
		case '+':
			next.Op = OpAdd
		case '-':
			next.Op = OpSub
		case '*':
			next.Op = OpMul
		case '/':
			next.Op = OpDiv
		case '%':
			next.Op = OpMod
		case 'M':
			next.Op = OpMode
		case '=':
			next.Op = OpEqual
		case '<':
			next.Op = OpLess
		case '>':
			next.Op = OpGreater
		case '!':
			next.Op = OpInvert
		case '^':
			next.Op = OpXor
		case '&':
			next.Op = OpAnd
		case '|':
			next.Op = OpOr
		case 'C':
			next.Op = OpClamp
		case 'D':
			next.Op = OpDup
		case 'P':
			next.Op = OpPop
		case 'S':
			next.Op = OpSwap
		case 'R':
			next.Op = OpRotate
		case '[':
			if nesting >= MaxNesting {
				return nil, 0, &ParseError{Pos: i, Err: ErrLoopNesting}
			}
			body, end, err := parseSequence(source, i+1, nesting+1)
			if err != nil {
				return nil, 0, err
			}
			if end >= len(source) || source[end] != ']' {
				// Ran off the end of input with the group still open.
				return nil, 0, &ParseError{Pos: i, Err: ErrBracketMismatch}
			}
			next.Op = OpGroup
			next.Body = body
			commands = append(commands, next)
			i = end + 1
			continue
		case ']':
			if nesting == 0 {
				return nil, 0, &ParseError{Pos: i, Err: ErrBracketMismatch}
			}
			// Leave the ] for the enclosing parseSequence to verify.
			return commands, i, nil
		case 'F':
			next.Op = OpFrameInterval
		case 'W':
			next.Op = OpDebug
		default:
			return nil, 0, &ParseError{Pos: i, Err: ErrInvalidCharacter}
		}

		commands = append(commands, next)
		i++
	}

	return commands, i, nil
}

// upper folds ASCII lowercase letters for the case-insensitive command set.
func upper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - ('a' - 'A')
	}
	return c
}

// UsesTime reports whether any command in the tree pushes the T
// coordinate. Programs that never reference T render a single frame.
func UsesTime(commands []Command) bool {
	for _, cmd := range commands {
		if cmd.Op == OpPushT {
			return true
		}
		if cmd.Op == OpGroup && UsesTime(cmd.Body) {
			return true
		}
	}
	return false
}
