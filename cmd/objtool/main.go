// objtool is a CLI utility for inspecting Wavefront OBJ models and converting them to glTF.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/wavefront/internal/config"
	"github.com/Faultbox/wavefront/internal/loader"
	"github.com/Faultbox/wavefront/internal/logger"
	"github.com/Faultbox/wavefront/pkg/gltfexport"
	"github.com/Faultbox/wavefront/pkg/obj"
)

// errValidation signals that validate found violations; they are already printed.
var errValidation = errors.New("validation failed")

type command struct {
	usage string
	run   func(ctx context.Context, app *app, args []string) error
}

var commands = map[string]command{
	"info":      {"info <model.obj>", cmdInfo},
	"groups":    {"groups <model.obj>", cmdGroups},
	"materials": {"materials <model.obj>", cmdMaterials},
	"validate":  {"validate <model.obj>", cmdValidate},
	"export":    {"export <model.obj> [out.glb]", cmdExport},
	"config":    {"config init [path]", cmdConfig},
}

type app struct {
	cfg    *config.Config
	loader *loader.Loader
	out    io.Writer
	log    *zap.Logger
}

func main() {
	config.ParseFlags()
	args := config.Args()

	if len(args) < 1 {
		printUsage(os.Stderr)
		os.Exit(1)
	}

	name := args[0]
	if name == "help" || name == "-h" || name == "--help" {
		printUsage(os.Stdout)
		return
	}

	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", name)
		printUsage(os.Stderr)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	a, err := newApp(cfg, os.Stdout, logger.Named("objtool"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if len(args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: objtool %s\n", cmd.usage)
		os.Exit(1)
	}

	if err := cmd.run(ctx, a, args[1:]); err != nil {
		if !errors.Is(err, errValidation) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		logger.Sync()
		os.Exit(1)
	}
}

func newApp(cfg *config.Config, out io.Writer, log *zap.Logger) (*app, error) {
	l, err := loader.NewDefault(cfg.Loader, log.Named("loader"))
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, loader: l, out: out, log: log}, nil
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `objtool - Wavefront OBJ/MTL utility

Usage:
  objtool [flags] <command> [arguments]

Commands:
  info <model.obj>                 Show counts, bounds and material libraries
  groups <model.obj>               List face groups
  materials <model.obj>            List materials with colours and textures
  validate <model.obj>             Check mesh invariants (exit code 1 on violations)
  export <model.obj> [out.glb]     Convert to binary glTF
  config init [path]               Write a default config file

Flags:
  -config <path>       Config file (default ./objtool.yaml or the user config dir)
  -debug               Enable debug logging
  -strict              Fail when a material library cannot be loaded
  -encoding <name>     Encoding of names in model files (e.g. euc-kr)
  -objects-as-groups   Treat 'o' directives as groups
  -log <path>          Write logs to this file

Models may be local paths or http(s) URLs.

Examples:
  objtool info models/house.obj
  objtool -encoding euc-kr materials data/model/prontera.obj
  objtool export https://example.com/cube.obj cube.glb`)
}

func (a *app) load(ctx context.Context, model string) (*loader.Result, error) {
	res, err := a.loader.Load(ctx, model)
	if err != nil {
		return nil, err
	}
	for _, w := range multierr.Errors(res.Warnings) {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", w)
	}
	return res, nil
}

func cmdInfo(ctx context.Context, a *app, args []string) error {
	res, err := a.load(ctx, args[0])
	if err != nil {
		return err
	}
	defer res.Mesh.Destroy()

	printInfo(a.out, args[0], res)
	return nil
}

func printInfo(w io.Writer, model string, res *loader.Result) {
	m := res.Mesh
	lo, hi := m.Bounds()

	triangles := 0
	for _, n := range m.FaceVertices {
		if n >= 3 {
			triangles += int(n) - 2
		}
	}

	fmt.Fprintf(w, "Model:     %s\n", model)
	fmt.Fprintf(w, "Positions: %d\n", m.PositionCount()-1)
	fmt.Fprintf(w, "Texcoords: %d\n", m.TexcoordCount()-1)
	fmt.Fprintf(w, "Normals:   %d\n", m.NormalCount()-1)
	fmt.Fprintf(w, "Faces:     %d (%d triangles)\n", m.FaceCount(), triangles)
	fmt.Fprintf(w, "Groups:    %d\n", m.GroupCount())
	fmt.Fprintf(w, "Materials: %d\n", m.MaterialCount())
	fmt.Fprintf(w, "Bounds:    (%.4g, %.4g, %.4g) - (%.4g, %.4g, %.4g)\n", lo[0], lo[1], lo[2], hi[0], hi[1], hi[2])

	if len(res.Libraries) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Material libraries:")
		for _, lib := range res.Libraries {
			fmt.Fprintf(w, "  %s\n", lib)
		}
	}

	if warnings := multierr.Errors(res.Warnings); len(warnings) > 0 {
		fmt.Fprintf(w, "\nWarnings: %d\n", len(warnings))
	}
}

func cmdGroups(ctx context.Context, a *app, args []string) error {
	res, err := a.load(ctx, args[0])
	if err != nil {
		return err
	}
	defer res.Mesh.Destroy()

	printGroups(a.out, res.Mesh)
	return nil
}

func printGroups(w io.Writer, m *obj.Mesh) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tFACES\tFACE OFFSET\tINDEX OFFSET")
	for _, g := range m.Groups {
		name := g.Name
		if name == "" {
			name = "(default)"
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\n", name, g.FaceCount, g.FaceOffset, g.IndexOffset)
	}
	tw.Flush()
}

func cmdMaterials(ctx context.Context, a *app, args []string) error {
	res, err := a.load(ctx, args[0])
	if err != nil {
		return err
	}
	defer res.Mesh.Destroy()

	printMaterials(a.out, res.Mesh)
	return nil
}

func printMaterials(w io.Writer, m *obj.Mesh) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tKD\tKS\tNS\tD\tILLUM\tTEXTURES")
	for i := range m.Materials {
		mat := &m.Materials[i]

		var maps []string
		textures := mat.Textures()
		for _, key := range textureKeys {
			if tex := textures[key]; tex.IsSet() {
				maps = append(maps, key+"="+tex.Name)
			}
		}

		fmt.Fprintf(tw, "%s\t%s\t%s\t%g\t%g\t%d\t%s\n",
			mat.Name, formatColor(mat.Kd), formatColor(mat.Ks), mat.Ns, mat.D, mat.Illum, strings.Join(maps, " "))
	}
	tw.Flush()
}

var textureKeys = []string{"map_Ka", "map_Kd", "map_Ks", "map_Ke", "map_Kt", "map_Ns", "map_Ni", "map_d", "map_Bump"}

func formatColor(c [3]float32) string {
	return fmt.Sprintf("%.3g,%.3g,%.3g", c[0], c[1], c[2])
}

func cmdValidate(ctx context.Context, a *app, args []string) error {
	res, err := a.load(ctx, args[0])
	if err != nil {
		return err
	}
	defer res.Mesh.Destroy()

	return printValidation(a.out, args[0], res.Mesh)
}

func printValidation(w io.Writer, model string, m *obj.Mesh) error {
	violations := multierr.Errors(m.Validate())
	if len(violations) == 0 {
		fmt.Fprintf(w, "%s: ok\n", model)
		return nil
	}

	for _, v := range violations {
		fmt.Fprintf(w, "%s: %v\n", model, v)
	}
	fmt.Fprintf(w, "%d violation(s)\n", len(violations))
	return errValidation
}

func cmdExport(ctx context.Context, a *app, args []string) error {
	model := args[0]

	res, err := a.load(ctx, model)
	if err != nil {
		return err
	}
	defer res.Mesh.Destroy()

	doc, err := gltfexport.Build(res.Mesh, gltfexport.Options{KeepTexcoordV: a.cfg.Export.KeepTexcoordV})
	if err != nil {
		return fmt.Errorf("converting %s: %w", model, err)
	}

	out := ""
	if len(args) > 1 {
		out = args[1]
	}
	out = outputPath(model, out, a.cfg.Export.OutputDir)

	if dir := filepath.Dir(out); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	if err := gltfexport.SaveBinary(doc, out); err != nil {
		return err
	}

	a.log.Info("exported model",
		zap.String("model", model),
		zap.String("output", out),
		zap.Int("meshes", len(doc.Meshes)),
		zap.Int("materials", len(doc.Materials)),
	)
	fmt.Fprintf(a.out, "Wrote %s (%d meshes, %d materials)\n", out, len(doc.Meshes), len(doc.Materials))
	return nil
}

// outputPath picks the .glb destination. An explicit output wins; otherwise
// the model's base name is placed in outputDir, or next to a local model.
func outputPath(model, explicit, outputDir string) string {
	if explicit != "" {
		return explicit
	}

	base := model
	if strings.HasPrefix(model, "http://") || strings.HasPrefix(model, "https://") {
		base = path.Base(model)
		if i := strings.IndexAny(base, "?#"); i >= 0 {
			base = base[:i]
		}
	}
	base = strings.TrimSuffix(base, filepath.Ext(base)) + ".glb"

	if outputDir != "" {
		return filepath.Join(outputDir, filepath.Base(base))
	}
	return base
}

func cmdConfig(ctx context.Context, a *app, args []string) error {
	if args[0] != "init" {
		return fmt.Errorf("unknown config subcommand %q", args[0])
	}

	target := config.UserPath()
	if len(args) > 1 {
		target = args[1]
	}
	if _, err := os.Stat(target); err == nil {
		return fmt.Errorf("%s already exists", target)
	}

	cfg := config.Default()
	if len(args) > 1 {
		if err := cfg.SaveTo(target); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}
	} else if err := cfg.Save(); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Fprintf(a.out, "Wrote %s\n", target)
	return nil
}
