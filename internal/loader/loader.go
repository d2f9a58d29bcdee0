// Package loader fetches OBJ models together with their material libraries.
package loader

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/wavefront/internal/config"
	"github.com/Faultbox/wavefront/internal/logger"
	"github.com/Faultbox/wavefront/internal/textenc"
	"github.com/Faultbox/wavefront/pkg/obj"
)

// Result is a loaded model.
type Result struct {
	Mesh *obj.Mesh

	// Libraries lists the resolved location of each mtllib, in mtllib order.
	Libraries []string

	// Warnings collects material libraries that could not be loaded when
	// StrictMaterials is off. Use multierr.Errors to list them.
	Warnings error
}

// Loader loads models through a Fetcher.
type Loader struct {
	fetcher Fetcher
	log     *zap.Logger
	cfg     config.LoaderConfig
	decoder textenc.Decoder
}

// New creates a loader. A nil logger disables logging.
func New(fetcher Fetcher, cfg config.LoaderConfig, log *zap.Logger) (*Loader, error) {
	if log == nil {
		log = logger.Nop()
	}

	dec, err := textenc.Lookup(cfg.NameEncoding)
	if err != nil {
		return nil, err
	}

	return &Loader{
		fetcher: fetcher,
		log:     log,
		cfg:     cfg,
		decoder: dec,
	}, nil
}

// NewDefault creates a loader that reads files and HTTP(S) URLs.
func NewDefault(cfg config.LoaderConfig, log *zap.Logger) (*Loader, error) {
	return New(AutoFetcher{HTTP: NewHTTPFetcher(cfg.HTTPTimeout)}, cfg, log)
}

func (l *Loader) options() obj.Options {
	return obj.Options{
		MaxElements:     l.cfg.MaxElements,
		ObjectsAsGroups: l.cfg.ObjectsAsGroups,
	}
}

// Load fetches and parses the model at path, then fetches every material
// library it references and applies them in mtllib order.
func (l *Loader) Load(ctx context.Context, path string) (*Result, error) {
	start := time.Now()

	data, err := l.fetcher.Fetch(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}

	mesh, err := obj.ParseWithOptions(EnsureNewline(trimBOM(data)), l.options())
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	l.log.Debug("parsed model",
		zap.String("path", path),
		zap.Int("bytes", len(data)),
		zap.Int("positions", mesh.PositionCount()-1),
		zap.Int("faces", mesh.FaceCount()),
		zap.Int("groups", mesh.GroupCount()),
		zap.Int("mtllibs", len(mesh.MtlLibs)),
	)

	result := &Result{Mesh: mesh}
	for _, lib := range mesh.MtlLibs {
		result.Libraries = append(result.Libraries, resolve(path, lib))
	}

	if err := l.loadLibraries(ctx, result); err != nil {
		mesh.Destroy()
		return nil, err
	}

	textenc.TranscodeMesh(mesh, l.decoder)

	l.log.Info("loaded model",
		zap.String("model", displayName(path)),
		zap.Int("faces", mesh.FaceCount()),
		zap.Int("materials", mesh.MaterialCount()),
		zap.Int("warnings", len(multierr.Errors(result.Warnings))),
		zap.Duration("elapsed", time.Since(start)),
	)

	return result, nil
}

// loadLibraries fetches all material libraries concurrently and parses them
// one at a time, in mtllib order, into the mesh.
func (l *Loader) loadLibraries(ctx context.Context, result *Result) error {
	if len(result.Libraries) == 0 {
		return nil
	}

	buffers := make([][]byte, len(result.Libraries))
	fetchErrs := make([]error, len(result.Libraries))

	g, gctx := errgroup.WithContext(ctx)
	if l.cfg.MaxConcurrentFetches > 0 {
		g.SetLimit(l.cfg.MaxConcurrentFetches)
	}

	for i, lib := range result.Libraries {
		i, lib := i, lib
		g.Go(func() error {
			data, err := l.fetcher.Fetch(gctx, lib)
			if err != nil {
				if l.cfg.StrictMaterials {
					return fmt.Errorf("loading material library %s: %w", lib, err)
				}
				fetchErrs[i] = err
				return nil
			}
			buffers[i] = data
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	opts := l.options()
	for i, lib := range result.Libraries {
		if fetchErrs[i] != nil {
			l.warn(result, lib, fetchErrs[i])
			continue
		}

		before := result.Mesh.MaterialCount()
		if err := obj.ParseMTLWithOptions(result.Mesh, EnsureNewline(trimBOM(buffers[i])), opts); err != nil {
			if l.cfg.StrictMaterials {
				return fmt.Errorf("parsing material library %s: %w", lib, err)
			}
			l.warn(result, lib, err)
			continue
		}

		l.log.Debug("applied material library",
			zap.String("path", lib),
			zap.Int("new_materials", result.Mesh.MaterialCount()-before),
		)
	}

	return nil
}

func (l *Loader) warn(result *Result, lib string, err error) {
	l.log.Warn("skipping material library", zap.String("path", lib), zap.Error(err))
	result.Warnings = multierr.Append(result.Warnings, fmt.Errorf("%s: %w", lib, err))
}
