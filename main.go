package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/df07/go-sphere-tracer/pkg/log"
	"github.com/df07/go-sphere-tracer/pkg/renderer"
	"github.com/df07/go-sphere-tracer/pkg/scene"
	"github.com/df07/go-sphere-tracer/web/server"
	"github.com/fogleman/gg"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

var logger = log.New("sphere-tracer")

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		logger.Error(err)
		os.Exit(1)
	}
}

// newApp builds the command line application; stdout receives image data
// written to "-" and command listings
func newApp(stdout io.Writer) *cli.App {
	// The default "version, v" flag would clash with the global -v
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "sphere-tracer"
	app.Usage = "render sphere scenes with a progressive Monte-Carlo path tracer"
	app.Version = "0.1.0"
	app.Writer = stdout
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
			Usage: "render a scene to a PPM or PNG image",
			Description: `
Render a built-in scene (see the scenes command) or a JSON scene file in
progressive passes. Flags left at zero keep the scene's own settings.

Without --out the image is written to output/<scene>/render_<timestamp>.<format>;
--out - writes a PPM to stdout.`,
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "scene, s",
					Value: scene.DefaultSceneName,
					Usage: "built-in scene name or path to a .json scene file",
				},
				cli.IntFlag{
					Name:  "width",
					Usage: "image width (0 = scene default)",
				},
				cli.IntFlag{
					Name:  "height",
					Usage: "image height (0 = scene default)",
				},
				cli.IntFlag{
					Name:  "spp",
					Usage: "samples per pixel (0 = scene default)",
				},
				cli.IntFlag{
					Name:  "depth",
					Usage: "maximum ray bounces (0 = scene default)",
				},
				cli.IntFlag{
					Name:  "passes",
					Value: renderer.DefaultProgressiveConfig().MaxPasses,
					Usage: "number of progressive passes",
				},
				cli.IntFlag{
					Name:  "workers",
					Usage: "number of render workers (0 = one per CPU)",
				},
				cli.Int64Flag{
					Name:  "seed",
					Value: renderer.DefaultProgressiveConfig().Seed,
					Usage: "seed for random scenes and sampling",
				},
				cli.IntFlag{
					Name:  "tile",
					Value: renderer.DefaultProgressiveConfig().TileSize,
					Usage: "tile edge in pixels",
				},
				cli.StringFlag{
					Name:  "out, o",
					Usage: "output file, - for stdout",
				},
				cli.StringFlag{
					Name:  "format, f",
					Value: "ppm",
					Usage: "output format: ppm or png",
				},
			},
			Action: renderScene,
		},
		{
			Name:   "scenes",
			Usage:  "list built-in scenes",
			Action: listScenes,
		},
		{
			Name:      "export",
			Usage:     "write a built-in scene as JSON",
			ArgsUsage: "scene_name",
			Flags: []cli.Flag{
				cli.Int64Flag{
					Name:  "seed",
					Value: renderer.DefaultProgressiveConfig().Seed,
					Usage: "seed for random scenes",
				},
				cli.StringFlag{
					Name:  "out, o",
					Value: "-",
					Usage: "output file, - for stdout",
				},
			},
			Action: exportScene,
		},
		{
			Name:  "serve",
			Usage: "stream progressive renders over HTTP",
			Flags: []cli.Flag{
				cli.IntFlag{
					Name:  "port",
					Value: 8080,
					Usage: "port to serve on",
				},
			},
			Action: serve,
		},
	}
	return app
}

func setupLogging(ctx *cli.Context) {
	if ctx.GlobalBool("v") {
		log.SetLevel(log.Info)
	}

	if ctx.GlobalBool("vv") {
		log.SetLevel(log.Debug)
	}
}

// createScene builds a built-in scene or loads a JSON scene file
func createScene(name string, seed int64) (*scene.Scene, error) {
	if name == "" {
		return nil, errors.New("missing scene name")
	}

	if strings.HasSuffix(strings.ToLower(name), ".json") {
		d, err := scene.Load(name)
		if err != nil {
			return nil, err
		}
		return d.Build()
	}

	return scene.Create(name, seed)
}

// createOutputPath creates <baseDir>/<scene> and returns a timestamped file name in it
func createOutputPath(baseDir, sceneName, format string, now time.Time) (string, error) {
	sceneName = strings.TrimSuffix(filepath.Base(sceneName), filepath.Ext(sceneName))
	if sceneName == "" || sceneName == "." {
		sceneName = "scene"
	}

	outputDir := filepath.Join(baseDir, sceneName)
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	return filepath.Join(outputDir, fmt.Sprintf("render_%s.%s", now.Format("20060102_150405"), format)), nil
}

// Render a scene.
func renderScene(ctx *cli.Context) error {
	setupLogging(ctx)

	format := strings.ToLower(ctx.String("format"))
	if format != "ppm" && format != "png" {
		return fmt.Errorf("unsupported output format %q", format)
	}
	out := ctx.String("out")
	if out == "-" && format != "ppm" {
		return errors.New("only ppm output can be written to stdout")
	}

	sceneObj, err := createScene(ctx.String("scene"), ctx.Int64("seed"))
	if err != nil {
		return err
	}
	sceneObj.SetSampling(scene.MergeSamplingConfig(sceneObj.SamplingConfig, scene.SamplingConfig{
		Width:           ctx.Int("width"),
		Height:          ctx.Int("height"),
		SamplesPerPixel: ctx.Int("spp"),
		MaxDepth:        ctx.Int("depth"),
	}))

	if out == "" {
		if out, err = createOutputPath("output", sceneObj.Name, format, time.Now()); err != nil {
			return err
		}
	}

	config := renderer.DefaultProgressiveConfig()
	config.TileSize = ctx.Int("tile")
	config.MaxPasses = ctx.Int("passes")
	config.NumWorkers = ctx.Int("workers")
	config.Seed = ctx.Int64("seed")

	raytracer, err := sceneObj.NewProgressiveRaytracer(config, log.Printer{Logger: logger})
	if err != nil {
		return err
	}

	logger.Noticef("rendering scene %q (%d objects) at %dx%d, %d spp, depth %d",
		sceneObj.Name, sceneObj.GetPrimitiveCount(), sceneObj.SamplingConfig.Width,
		sceneObj.SamplingConfig.Height, sceneObj.SamplingConfig.SamplesPerPixel, sceneObj.SamplingConfig.MaxDepth)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	img, stats, err := raytracer.Render(runCtx, func(result renderer.PassResult) {
		logger.Infof("pass %d done: %.1f samples/pixel", result.PassNumber, result.Stats.AverageSamples)
	})
	if err != nil {
		return err
	}

	if err := writeImage(ctx.App.Writer, out, format, img); err != nil {
		return err
	}
	if out != "-" {
		logger.Noticef("render saved as %s", out)
	}

	displayRenderStats(stats)
	return nil
}

// writeImage writes img to path in the given format; path "-" writes a PPM to stdout
func writeImage(stdout io.Writer, path, format string, img *renderer.Image) error {
	if path == "-" {
		return img.WritePPM(stdout)
	}

	if format == "png" {
		if err := gg.SavePNG(path, img.ToRGBA()); err != nil {
			return fmt.Errorf("save png: %w", err)
		}
		return nil
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	if err := img.WritePPM(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close output file: %w", err)
	}
	return nil
}

func displayRenderStats(stats renderer.RenderStats) {
	var buf bytes.Buffer
	stats.WriteTable(&buf)
	logger.Noticef("render statistics\n%s", buf.String())
}

// List the built-in scenes.
func listScenes(ctx *cli.Context) error {
	setupLogging(ctx)

	table := tablewriter.NewWriter(ctx.App.Writer)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Scene", "Seeded", "Description"})
	for _, info := range scene.Builtins() {
		table.Append([]string{info.ID, fmt.Sprintf("%t", info.Seeded), info.Description})
	}
	table.Render()
	return nil
}

// Export a built-in scene as JSON.
func exportScene(ctx *cli.Context) error {
	setupLogging(ctx)

	if ctx.NArg() != 1 {
		return errors.New("missing scene name argument")
	}

	d, err := scene.Builtin(ctx.Args().First(), ctx.Int64("seed"))
	if err != nil {
		return err
	}

	out := ctx.String("out")
	if out == "-" {
		return d.Encode(ctx.App.Writer)
	}
	if err := scene.Save(out, d); err != nil {
		return err
	}
	logger.Noticef("scene %q exported to %s", d.Name, out)
	return nil
}

// Serve the progressive render API.
func serve(ctx *cli.Context) error {
	setupLogging(ctx)

	return server.NewServer(ctx.Int("port"), log.New("server")).Start()
}
