// Package fifo implements the external composer-driver protocol (spec
// §4.5): a directory is watched for filenames of two shapes, `op-<N>`
// and `check`, each of which a single step of the interpreter answers by
// writing a result back into the same file and closing it.
package fifo

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/jepsengo/jepsen/check"
)

var opFilenamePattern = regexp.MustCompile(`^op-(\d+)$`)

// DispatchFunc runs one op from the main generator and returns its
// printed completion representation, ready to be written verbatim to
// the triggering FIFO file.
type DispatchFunc func(ctx context.Context) (string, error)

// CheckFunc runs the final generator + checkers once the main phase has
// ended.
type CheckFunc func(ctx context.Context) (check.Result, error)

// Driver watches Dir for op-<N>/check filename events and drives a
// single interpreter run externally, per file.
type Driver struct {
	Dir     string
	Phase   *PhaseFlag
	Dispatch DispatchFunc
	Check    CheckFunc
	Log      zerolog.Logger
}

// New prepares dir: created if absent, emptied if it already exists, as
// required by the protocol ("directory is created if absent and
// emptied at interpreter startup").
func New(dir string, dispatch DispatchFunc, checkFn CheckFunc, log zerolog.Logger) (*Driver, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("fifo: mkdir: %w", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("fifo: read dir: %w", err)
	}
	for _, e := range entries {
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
			return nil, fmt.Errorf("fifo: clean %s: %w", e.Name(), err)
		}
	}

	return &Driver{Dir: dir, Phase: &PhaseFlag{}, Dispatch: dispatch, Check: checkFn, Log: log}, nil
}

// Run watches Dir until ctx is canceled or a fatal protocol violation
// occurs (an unrecognized filename, or a watcher overflow).
func (d *Driver) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fifo: new watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(d.Dir); err != nil {
		return fmt.Errorf("fifo: watch %s: %w", d.Dir, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("fifo: watcher closed")
			}
			// Only a file's appearance triggers a step; the reply written
			// back into it must not trigger another.
			if ev.Op&fsnotify.Create == 0 {
				continue
			}
			if err := d.handle(ctx, ev.Name); err != nil {
				return err
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("fifo: watcher errors channel closed")
			}
			return fmt.Errorf("fifo: watcher overflow: %w", err)
		}
	}
}

func (d *Driver) handle(ctx context.Context, path string) error {
	name := filepath.Base(path)

	switch {
	case opFilenamePattern.MatchString(name):
		completion, err := d.Dispatch(ctx)
		if err != nil {
			return fmt.Errorf("fifo: dispatch %s: %w", name, err)
		}
		return writeAndClose(path, completion)

	case name == "check":
		d.Phase.FlipToFinal()
		result, err := d.Check(ctx)
		if err != nil {
			return fmt.Errorf("fifo: check: %w", err)
		}
		d.Log.Info().Interface("result", result).Msg("final check complete")
		return writeAndClose(path, "checked")

	default:
		return fmt.Errorf("fifo: unrecognized event filename %q", name)
	}
}

func writeAndClose(path, content string) error {
	f, err := os.OpenFile(path, os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("fifo: open %s for reply: %w", path, err)
	}
	defer f.Close()
	if _, err := f.WriteString(content); err != nil {
		return fmt.Errorf("fifo: write reply to %s: %w", path, err)
	}
	return nil
}
