package setup

import (
	"errors"
	"io/fs"
	"os"

	"github.com/embrace-io/embrace-wizard/internal/pbxproj"
	"github.com/embrace-io/embrace-wizard/internal/textpatch"
)

// persister writes edits to disk, or prints them as diffs on a dry run.
type persister struct {
	dryRun bool
	out    Output
}

func (p persister) file(f *textpatch.File) error {
	if !f.Modified() {
		return nil
	}
	if p.dryRun {
		p.out.Diff(f.Diff())
		f.Baseline()
		return nil
	}
	return f.Patch()
}

// project writes the graph. Callers only pass projects their step changed,
// so an unchanged project is never reserialized.
func (p persister) project(x *pbxproj.Project) error {
	if p.dryRun {
		if d := x.Diff(); d != "" {
			p.out.Diff(d)
		}
		x.Baseline()
		return nil
	}
	return x.Patch()
}

// remove deletes path, reporting whether it existed.
func (p persister) remove(path string) (bool, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if p.dryRun {
		p.out.Info("Would delete " + path)
		return true, nil
	}
	return true, os.Remove(path)
}
