package archive

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/gantryci/gantry/internal/config"
	"github.com/gantryci/gantry/internal/logger"
	gantryerrors "github.com/gantryci/gantry/pkg/errors"
)

// Artifact records a single copied file.
type Artifact struct {
	Source string
	Dest   string
	Size   int64
}

// Report aggregates the outcome of archiving one run. Missing holds the
// patterns of required specs that matched nothing; it does not fail the run.
type Report struct {
	RunID     string
	Artifacts []Artifact
	Missing   []string
}

// Complete reports whether every required spec matched at least one file.
func (r *Report) Complete() bool {
	return len(r.Missing) == 0
}

// Archiver copies matched artifacts into a run-scoped directory under Root.
type Archiver struct {
	Root string
	Log  *logger.Logger
}

// Archive expands each spec's glob against baseDir and copies the matches
// into <Root>/<runID>/, preserving relative paths and file modes. Source
// files are never mutated. A required spec with zero matches is recorded in
// the report and processing continues; an I/O failure aborts with an
// ArchiveError.
func (a *Archiver) Archive(runID, baseDir string, specs []config.ArchiveSpec) (*Report, error) {
	report := &Report{RunID: runID}
	destRoot := filepath.Join(a.Root, runID)

	for _, spec := range specs {
		matches, err := doublestar.FilepathGlob(filepath.Join(baseDir, spec.Pattern))
		if err != nil {
			return report, gantryerrors.NewArchiveError(spec.Pattern, err)
		}

		copied := 0
		for _, match := range matches {
			info, err := os.Stat(match)
			if err != nil {
				return report, gantryerrors.NewArchiveError(spec.Pattern, err)
			}
			if info.IsDir() {
				continue
			}

			rel, err := filepath.Rel(baseDir, match)
			if err != nil {
				return report, gantryerrors.NewArchiveError(spec.Pattern, err)
			}

			dest := filepath.Join(destRoot, rel)
			size, err := copyFile(match, dest, info.Mode())
			if err != nil {
				return report, gantryerrors.NewArchiveError(spec.Pattern, err)
			}

			report.Artifacts = append(report.Artifacts, Artifact{Source: match, Dest: dest, Size: size})
			copied++
		}

		if copied == 0 && spec.Required {
			a.Log.Warn(nil, fmt.Sprintf("required artifact pattern %q matched nothing", spec.Pattern))
			report.Missing = append(report.Missing, spec.Pattern)
			continue
		}

		a.Log.WithField("pattern", spec.Pattern).Debug(fmt.Sprintf("archived %d artifact(s)", copied))
	}

	return report, nil
}

func copyFile(src, dest string, mode os.FileMode) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return 0, err
	}

	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode.Perm())
	if err != nil {
		return 0, err
	}

	size, err := io.Copy(out, in)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return 0, err
	}

	return size, nil
}
