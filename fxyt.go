// Package fxyt provides an interpreter for the FXYT pixel-shading
// language. A program is a string of single-character stack commands
// compiled once into a command tree and evaluated independently for
// every pixel of a 256x256 canvas, optionally across 256 time steps,
// producing raster frames for a downstream encoder.
//
// Basic usage:
//
//	in := fxyt.New(nil)
//	frames, err := in.Render("XY^")
//	if err != nil {
//		// parse or evaluation failure
//	}
//	img := frames[0].Image()
package fxyt

import "errors"

// Interpreter is the main FXYT interpreter instance. The zero config
// renders strictly (first evaluation error aborts) with one worker per
// CPU.
type Interpreter struct {
	config *Config
	logger *Logger
}

// New creates a new interpreter with the given configuration. A nil
// config uses DefaultConfig.
func New(config *Config) *Interpreter {
	if config == nil {
		config = DefaultConfig()
	}

	logger := NewLogger(config.Debug)
	if config.Debug {
		if len(config.DebugCategories) == 0 {
			logger.EnableAllCategories()
		} else {
			for _, cat := range config.DebugCategories {
				logger.EnableCategory(cat)
			}
		}
	}

	return &Interpreter{
		config: config,
		logger: logger,
	}
}

// Logger exposes the interpreter's logger so front ends can redirect
// diagnostic output.
func (in *Interpreter) Logger() *Logger {
	return in.logger
}

// Parse compiles program text into a command tree without rendering.
// The tree is immutable and may be shared across concurrent renders.
func (in *Interpreter) Parse(source string) ([]Command, error) {
	commands, err := Parse(source)
	if err != nil {
		var parseErr *ParseError
		if errors.As(err, &parseErr) {
			in.logger.ParseErrorLog(parseErr, source)
		}
		return nil, err
	}
	in.logger.DebugCat(CatParse, "parsed %d top-level command(s)", len(commands))
	return commands, nil
}

// Render parses and renders a program. Programs that reference the T
// axis produce 256 frames, others one.
func (in *Interpreter) Render(source string) ([]Frame, error) {
	commands, err := in.Parse(source)
	if err != nil {
		return nil, err
	}
	return in.RenderCommands(commands)
}

// RenderCommands renders an already-parsed command tree.
func (in *Interpreter) RenderCommands(commands []Command) ([]Frame, error) {
	frames, err := in.renderFrames(commands)
	if err != nil {
		in.logger.ErrorCat(CatRender, "render failed: %v", err)
		return nil, err
	}
	return frames, nil
}

// RenderPixel evaluates the command tree for a single coordinate
// triple. Exposed for tools and tests; Render is the bulk path.
func (in *Interpreter) RenderPixel(commands []Command, x, y, t int) (Color, error) {
	ev := newEvaluator(x, y, t, in.logger)
	return ev.evaluate(commands)
}
