package driver

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strconv"

	"golang.org/x/sync/errgroup"

	"relink/internal/config"
	"relink/internal/diag"
	"relink/internal/meta"
	"relink/internal/metaio"
	"relink/internal/resolve"
	"relink/internal/trace"
)

// ErrMissingTargetLibrary is returned when the replacement library cannot be
// loaded. Nothing has been modified at that point.
var ErrMissingTargetLibrary = errors.New("replacement library cannot be loaded")

// LoadLibraries reads the replacement library and, when configured, the
// secondary replacement library concurrently. A secondary library that
// cannot be read only disables secondary retargeting.
func LoadLibraries(ctx context.Context, cfg config.Config, r diag.Reporter) (resolve.Libraries, error) {
	if r == nil {
		r = diag.NopReporter{}
	}
	var (
		libs         resolve.Libraries
		targetErr    error
		secondaryErr error
	)
	targetPath := cfg.Resolve(cfg.Target.Library)
	secondaryPath := cfg.Resolve(cfg.Secondary.Library)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		libs.Target, targetErr = readLibrary(gctx, targetPath)
		return targetErr
	})
	if secondaryPath != "" {
		g.Go(func() error {
			libs.Secondary, secondaryErr = readLibrary(gctx, secondaryPath)
			// never cancels the target load
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // both results are inspected below

	if targetErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return resolve.Libraries{}, ctxErr
		}
		diag.ReportError(r, diag.IOMissingTargetLibrary, targetPath, targetErr.Error()).
			WithNote("", "no module has been modified").
			Emit()
		return resolve.Libraries{}, fmt.Errorf("%s: %w: %w", targetPath, ErrMissingTargetLibrary, targetErr)
	}
	if secondaryErr != nil {
		libs.Secondary = nil
		msg := "not loaded, references into " + cfg.Secondary.Assembly + " are left unchanged"
		b := diag.ReportInfo(r, diag.IOMissingSecondaryLibrary, secondaryPath, msg)
		if !errors.Is(secondaryErr, fs.ErrNotExist) {
			b.WithNote("", secondaryErr.Error())
		}
		b.Emit()
	}
	return libs, nil
}

func readLibrary(ctx context.Context, path string) (*meta.Module, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	span, _ := trace.Start(ctx, trace.ScopePass, "library:"+filepath.Base(path), "")
	m, err := metaio.ReadFile(path)
	if m != nil {
		span.WithExtra("types", strconv.Itoa(len(m.Types)))
	}
	span.End(errDetail(err))
	return m, err
}
