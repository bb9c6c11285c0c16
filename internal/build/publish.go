package build

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	cp "github.com/otiai10/copy"

	lberrs "github.com/jdholdren/liveboat/internal/errors"
	"github.com/jdholdren/liveboat/internal/output"
	"github.com/jdholdren/liveboat/internal/template"
)

const (
	indexFile     = "index.html"
	buildTimeFile = "build_time.txt"
)

// published lists the staged files and directories copied into the build
// directory. Directories replace their previous copy wholesale.
var published = []struct {
	name string
	dir  bool
}{
	{output.FeedsDir, true},
	{output.ChannelsDir, true},
	{output.RSSFile, false},
	{output.OPMLFile, false},
	{indexFile, false},
	{buildTimeFile, false},
}

func (b *Builder) createStaging() error {
	dir := filepath.Join(os.TempDir(), "liveboat-"+uuid.NewString())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return lberrs.E(lberrs.KindOutput, fmt.Errorf("error creating staging directory: %w", err))
	}
	b.staging = dir
	return nil
}

func (b *Builder) writeStaging(name string, data []byte) error {
	if err := os.WriteFile(filepath.Join(b.staging, name), data, 0o644); err != nil {
		return lberrs.E(lberrs.KindOutput, fmt.Errorf("error writing %s: %w", name, err))
	}
	return nil
}

// publish moves the staged build into the build directory. Static files from
// the template's include directory are copied first so generated files win.
func (b *Builder) publish(ctx context.Context) error {
	dst := b.opts.BuildDir
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return lberrs.E(lberrs.KindOutput, fmt.Errorf("error creating build directory: %w", err))
	}

	include := filepath.Join(b.opts.TemplateDir, template.IncludeDir)
	if _, err := os.Stat(include); err == nil {
		if err := cp.Copy(include, dst); err != nil {
			return lberrs.E(lberrs.KindOutput, fmt.Errorf("error copying template includes: %w", err))
		}
	}

	for _, p := range published {
		src := filepath.Join(b.staging, p.name)
		target := filepath.Join(dst, p.name)
		if !p.dir {
			if err := cp.Copy(src, target); err != nil {
				return lberrs.E(lberrs.KindOutput, fmt.Errorf("error publishing %s: %w", p.name, err))
			}
			continue
		}

		if err := os.RemoveAll(target); err != nil {
			return lberrs.E(lberrs.KindOutput, fmt.Errorf("error removing old %s: %w", p.name, err))
		}
		if _, err := os.Stat(src); os.IsNotExist(err) {
			continue
		}
		if err := cp.Copy(src, target); err != nil {
			return lberrs.E(lberrs.KindOutput, fmt.Errorf("error publishing %s: %w", p.name, err))
		}
	}

	slog.InfoContext(ctx, "published build")
	return nil
}

func (b *Builder) cleanup(ctx context.Context) {
	if b.staging == "" {
		return
	}
	if err := os.RemoveAll(b.staging); err != nil {
		slog.WarnContext(ctx, "error removing staging directory", "dir", b.staging, "error", err)
	}
}
