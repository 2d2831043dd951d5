// fxyt-view - render an FXYT program and play it in a window.
package main

import (
	"flag"
	"fmt"
	"image"
	"os"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"github.com/mademast/fxyt"
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug output")
	flag.BoolVar(debugFlag, "d", false, "Enable debug output (short)")
	lenientFlag := flag.Bool("lenient", false, "Paint failed pixels magenta instead of aborting")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: fxyt-view [-d] [-lenient] \"PROGRAM\"")
		os.Exit(1)
	}
	program := flag.Arg(0)

	config := fxyt.DefaultConfig()
	config.Debug = *debugFlag
	config.Lenient = *lenientFlag

	in := fxyt.New(config)
	frames, err := in.Render(program)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Convert once up front; the animation loop only swaps resources.
	images := make([]*image.NRGBA, len(frames))
	for i := range frames {
		images[i] = frames[i].Image()
	}

	fyneApp := app.New()
	window := fyneApp.NewWindow("FXYT - " + program)

	view := canvas.NewImageFromImage(images[0])
	view.FillMode = canvas.ImageFillContain
	view.ScaleMode = canvas.ImageScalePixels
	view.SetMinSize(fyne.NewSize(fxyt.CanvasSize*2, fxyt.CanvasSize*2))
	window.SetContent(view)

	if len(frames) > 1 {
		go func() {
			current := 0
			for {
				time.Sleep(frames[current].Interval)
				current = (current + 1) % len(frames)
				next := images[current]
				fyne.Do(func() {
					view.Image = next
					view.Refresh()
				})
			}
		}()
	}

	window.ShowAndRun()
}
