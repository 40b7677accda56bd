// Command aspen-render runs the compositor headlessly against the
// software backend and writes the composited frames to PNG files. It
// exists to exercise the full draw pipeline without a window system and
// to produce reference images.
package main

import (
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/op/go-logging"
	"github.com/urfave/cli"

	"github.com/phanxgames/aspen"
)

var logger = logging.MustGetLogger("aspen-render")

func setupLogging(ctx *cli.Context) {
	level := logging.WARNING
	if ctx.GlobalBool("v") {
		level = logging.INFO
	}
	if ctx.GlobalBool("vv") {
		level = logging.DEBUG
	}
	logging.SetLevel(level, "")
}

// nullWindowSystem satisfies the compositor without a real windowing
// layer; pixmap lookups fail and window management is a no-op.
type nullWindowSystem struct{}

func (nullWindowSystem) PixmapGeometry(pixmap aspen.PixmapID) (int, int, int, error) {
	return 0, 0, 0, fmt.Errorf("no window system to look up pixmap %d", pixmap)
}
func (nullWindowSystem) ResizeWindow(window aspen.WindowID, width, height int) error { return nil }
func (nullWindowSystem) DestroyWindow(window aspen.WindowID) error                   { return nil }

// frameDumper wraps the software visitor to write each completed frame
// to disk and stop the loop after the requested count.
type frameDumper struct {
	*aspen.SoftwareVisitor
	loop      *aspen.EventLoop
	outDir    string
	frame     int
	maxFrames int
}

func (d *frameDumper) EndFrame() {
	d.SoftwareVisitor.EndFrame()

	path := filepath.Join(d.outDir, fmt.Sprintf("frame-%03d.png", d.frame))
	if err := writePNG(path, d); err != nil {
		logger.Errorf("unable to write %s: %v", path, err)
		d.loop.Exit()
		return
	}
	logger.Infof("wrote %s", path)

	d.frame++
	if d.frame >= d.maxFrames {
		d.loop.Exit()
	}
}

func writePNG(path string, d *frameDumper) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, d.Image())
}

func render(ctx *cli.Context) error {
	setupLogging(ctx)

	width := ctx.Int("width")
	height := ctx.Int("height")
	outDir := ctx.String("out")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}

	loop := aspen.NewEventLoop()
	comp := aspen.NewCompositor(loop, aspen.SystemClock{}, nullWindowSystem{}, 1, width, height)
	defer comp.Close()
	comp.SetTickInterval(ctx.Duration("interval"))

	dumper := &frameDumper{
		SoftwareVisitor: aspen.NewSoftwareVisitor(width, height),
		loop:            loop,
		outDir:          outDir,
		maxFrames:       ctx.Int("frames"),
	}
	comp.SetDrawVisitor(dumper)

	buildDemoScene(ctx, comp, width, height)

	loop.Run()
	return nil
}

// buildDemoScene sets up an animated scene: a dimmed backdrop, two
// crossing boxes, and any images named on the command line.
func buildDemoScene(ctx *cli.Context, comp *aspen.Compositor, width, height int) {
	stage := comp.Stage()
	stage.SetStageColor(aspen.Color{R: 0.1, G: 0.1, B: 0.15})

	animTime := ctx.Duration("interval") * time.Duration(ctx.Int("frames"))

	backdrop := comp.CreateColoredBox(width, height, aspen.Color{R: 0.2, G: 0.3, B: 0.4})
	backdrop.SetName("backdrop")
	stage.AddActor(backdrop)
	backdrop.ShowDimmed(true, animTime)

	left := comp.CreateColoredBox(width/4, height/4, aspen.Color{R: 0.9, G: 0.3, B: 0.2})
	left.SetName("left box")
	stage.AddActor(left)
	left.Move(0, height/4, 0)
	left.Move(3*width/4, height/4, animTime)
	left.SetOpacity(0.5, animTime)

	right := comp.CreateColoredBox(width/4, height/4, aspen.Color{R: 0.2, G: 0.8, B: 0.3})
	right.SetName("right box")
	stage.AddActor(right)
	right.Move(3*width/4, height/2, 0)
	right.Move(0, height/2, animTime)
	right.SetTilt(0.5, animTime)

	for i, path := range ctx.Args() {
		img, err := comp.CreateImageFromFile(path)
		if err != nil {
			logger.Errorf("unable to load %s: %v", path, err)
			continue
		}
		img.SetName(filepath.Base(path))
		stage.AddActor(img)
		img.Move(i*width/8, i*height/8, 0)
	}
}

func main() {
	app := cli.NewApp()
	app.Name = "aspen-render"
	app.Usage = "composite an animated actor scene to PNG frames"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "render",
			Usage: "render the demo scene headlessly",
			Description: `
Run the compositor with the software backend and write each composited
frame to a numbered PNG file. Image files given as arguments are added
to the scene as image actors.`,
			ArgsUsage: "[image1.png image2.jpg ...]",
			Flags: []cli.Flag{
				cli.IntFlag{
					Name:  "width",
					Value: 640,
					Usage: "stage width in pixels",
				},
				cli.IntFlag{
					Name:  "height",
					Value: 480,
					Usage: "stage height in pixels",
				},
				cli.IntFlag{
					Name:  "frames",
					Value: 30,
					Usage: "number of frames to composite",
				},
				cli.DurationFlag{
					Name:  "interval",
					Value: aspen.DefaultTickInterval,
					Usage: "time between frames",
				},
				cli.StringFlag{
					Name:  "out, o",
					Value: ".",
					Usage: "directory for the rendered frames",
				},
			},
			Action: render,
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Fatal(err)
	}
}
