// fxyt - render an FXYT program to an animated GIF.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"io"
	"os"
	"time"

	"github.com/mademast/fxyt"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

var version = "dev" // set via -ldflags at build time

// ANSI color codes for terminal output
const (
	colorYellow = "\x1b[93m" // Bright yellow foreground
	colorReset  = "\x1b[0m"  // Reset to default
)

// Options holds render settings loadable from a YAML file via -config.
// Explicit command line flags override the file.
type Options struct {
	Lenient         bool   `yaml:"lenient"`
	Workers         int    `yaml:"workers"`
	FrameIntervalMs int    `yaml:"frame_interval_ms"`
	Output          string `yaml:"output"`
}

func defaultOptions() Options {
	return Options{
		Lenient:         false,
		Workers:         0,
		FrameIntervalMs: 100,
		Output:          "output.gif",
	}
}

// loadOptions reads the YAML options file, leaving defaults in place
// for any key the file omits.
func loadOptions(path string, opts *Options) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(content, opts); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

// stderrSupportsColor checks if stderr is a terminal that supports color output
func stderrSupportsColor() bool {
	stderrInfo, err := os.Stderr.Stat()
	if err != nil {
		return false
	}
	// ModeCharDevice indicates a terminal
	if (stderrInfo.Mode() & os.ModeCharDevice) == 0 {
		return false
	}
	if _, exists := os.LookupEnv("NO_COLOR"); exists {
		return false
	}
	if term := os.Getenv("TERM"); term == "dumb" {
		return false
	}
	return true
}

// errorPrintf prints an error message to stderr, using color if supported
func errorPrintf(format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	if stderrSupportsColor() {
		fmt.Fprintf(os.Stderr, "%s%s%s", colorYellow, message, colorReset)
	} else {
		fmt.Fprint(os.Stderr, message)
	}
}

func showUsage() {
	fmt.Fprintf(os.Stderr, "fxyt %s - FXYT pixel shader renderer\n\n", version)
	fmt.Fprintln(os.Stderr, "Usage: fxyt [flags] \"PROGRAM\"")
	fmt.Fprintln(os.Stderr, "       fxyt [flags] -f program.fxyt")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "For example: `fxyt \"XY^\"`.")
	fmt.Fprintln(os.Stderr, "To run the empty program and produce a pure black image, run `fxyt \"\"`.")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Flags:")
	flag.PrintDefaults()
}

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug output")
	flag.BoolVar(debugFlag, "d", false, "Enable debug output (short)")
	fileFlag := flag.String("f", "", "Read the program from a file instead of the command line")
	outputFlag := flag.String("o", "", "Output GIF path (\"-\" for stdout, default output.gif)")
	lenientFlag := flag.Bool("lenient", false, "Paint failed pixels magenta instead of aborting")
	workersFlag := flag.Int("workers", 0, "Scanline workers (0 = one per CPU)")
	configFlag := flag.String("config", "", "YAML file with render options")
	versionFlag := flag.Bool("version", false, "Show version")

	flag.Usage = showUsage
	flag.Parse()

	if *versionFlag {
		fmt.Printf("fxyt %s\n", version)
		return
	}

	opts := defaultOptions()
	if *configFlag != "" {
		if err := loadOptions(*configFlag, &opts); err != nil {
			errorPrintf("Error: %v\n", err)
			os.Exit(1)
		}
	}

	// Explicit flags win over the options file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "o":
			opts.Output = *outputFlag
		case "lenient":
			opts.Lenient = *lenientFlag
		case "workers":
			opts.Workers = *workersFlag
		}
	})

	var program string
	switch {
	case *fileFlag != "":
		content, err := os.ReadFile(*fileFlag)
		if err != nil {
			errorPrintf("Error reading program: %v\n", err)
			os.Exit(1)
		}
		program = string(content)
	case flag.NArg() >= 1:
		program = flag.Arg(0)
	default:
		errorPrintf("Error: please pass the FXYT program as a command line argument.\n")
		errorPrintf("For example: `fxyt \"XY^\"`.\n")
		errorPrintf("To run the empty program and produce a pure black image, run `fxyt \"\"`.\n")
		os.Exit(1)
	}

	config := fxyt.DefaultConfig()
	config.Debug = *debugFlag
	config.Lenient = opts.Lenient
	config.Workers = opts.Workers
	config.FrameInterval = time.Duration(opts.FrameIntervalMs) * time.Millisecond

	in := fxyt.New(config)
	frames, err := in.Render(program)
	if err != nil {
		errorPrintf("Error: %v\n", err)
		os.Exit(1)
	}

	var out io.Writer
	if opts.Output == "-" {
		// Refuse to dump GIF bytes onto an interactive terminal.
		if term.IsTerminal(int(os.Stdout.Fd())) {
			errorPrintf("Error: refusing to write GIF data to a terminal; redirect stdout or use -o.\n")
			os.Exit(1)
		}
		out = os.Stdout
	} else {
		f, err := os.Create(opts.Output)
		if err != nil {
			errorPrintf("Error creating %s: %v\n", opts.Output, err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}

	if err := encodeGIF(out, frames); err != nil {
		errorPrintf("Error encoding GIF: %v\n", err)
		os.Exit(1)
	}
}

// encodeGIF writes the rendered frames as an animated GIF, converting
// each frame's display interval to the format's 10ms delay units.
func encodeGIF(out io.Writer, frames []fxyt.Frame) error {
	anim := &gif.GIF{
		Image:     make([]*image.Paletted, 0, len(frames)),
		Delay:     make([]int, 0, len(frames)),
		LoopCount: 0,
	}

	for i := range frames {
		anim.Image = append(anim.Image, palettize(&frames[i]))
		delay := int(frames[i].Interval.Milliseconds() / 10)
		if delay < 1 {
			delay = 1
		}
		anim.Delay = append(anim.Delay, delay)
	}

	return gif.EncodeAll(out, anim)
}

// palettize converts a frame to a paletted image. Frames with at most
// 256 distinct colors keep them exactly; anything richer is dithered
// onto the standard Plan 9 palette.
func palettize(frame *fxyt.Frame) *image.Paletted {
	bounds := image.Rect(0, 0, fxyt.CanvasSize, fxyt.CanvasSize)

	seen := make(map[fxyt.Color]bool)
	exact := true
	for row := 0; row < fxyt.CanvasSize && exact; row++ {
		for x := 0; x < fxyt.CanvasSize; x++ {
			seen[frame.Pix[row][x]] = true
			if len(seen) > 256 {
				exact = false
				break
			}
		}
	}

	if !exact {
		paletted := image.NewPaletted(bounds, palette.Plan9)
		draw.FloydSteinberg.Draw(paletted, bounds, frame.Image(), image.Point{})
		return paletted
	}

	pal := make(color.Palette, 0, len(seen))
	index := make(map[fxyt.Color]uint8, len(seen))
	for c := range seen {
		index[c] = uint8(len(pal))
		pal = append(pal, color.NRGBA{R: c.R, G: c.G, B: c.B, A: 0xff})
	}

	paletted := image.NewPaletted(bounds, pal)
	for row := 0; row < fxyt.CanvasSize; row++ {
		for x := 0; x < fxyt.CanvasSize; x++ {
			paletted.SetColorIndex(x, row, index[frame.Pix[row][x]])
		}
	}
	return paletted
}
