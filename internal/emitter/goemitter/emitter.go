// Package goemitter writes a compiled client package to disk.
package goemitter

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/hiranya911/rest-coder/internal/compiler"
	"github.com/hiranya911/rest-coder/internal/spec"
)

// Options controls how the Go emitter renders a client package.
type Options struct {
	OutDir       string // required; target directory of the generated package
	Package      string // package name; derived from the API name when empty
	Deserializer string // preferred response media kind
	Force        bool   // overwrite existing files
	DryRun       bool   // don't write, only plan
	Logger       zerolog.Logger
}

// PlannedFile describes a file the emitter intends to write.
type PlannedFile struct {
	RelPath string
	Size    int
	Mode    os.FileMode
}

// Result returns the planned files and the generated inventory.
type Result struct {
	Package string
	Planned []PlannedFile
	Output  *compiler.Output
}

// Emit compiles api and writes client.go and api.json into opts.OutDir.
func Emit(ctx context.Context, api *spec.API, opts Options) (*Result, error) {
	if api == nil {
		return nil, fmt.Errorf("goemitter: nil API")
	}
	if strings.TrimSpace(opts.OutDir) == "" {
		return nil, fmt.Errorf("goemitter: OutDir is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out, err := compiler.Compile(api, compiler.Options{
		Package:      strings.TrimSpace(opts.Package),
		Deserializer: opts.Deserializer,
		Logger:       opts.Logger,
	})
	if err != nil {
		return nil, err
	}
	src, err := out.Render()
	if err != nil {
		return nil, err
	}
	// api.json keeps the validated description next to the client
	model, err := json.MarshalIndent(api, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal api.json: %w", err)
	}

	files := map[string][]byte{
		"client.go": src,
		"api.json":  append(model, '\n'),
	}

	// Plan in deterministic order
	rels := make([]string, 0, len(files))
	for p := range files {
		rels = append(rels, filepath.ToSlash(p))
	}
	sort.Strings(rels)
	planned := make([]PlannedFile, 0, len(rels))
	for _, rel := range rels {
		planned = append(planned, PlannedFile{RelPath: rel, Size: len(files[rel]), Mode: 0o644})
	}

	if !opts.DryRun {
		if err := writeFiles(opts.OutDir, files, opts.Force); err != nil {
			return nil, err
		}
		opts.Logger.Debug().Str("dir", opts.OutDir).Int("files", len(files)).Msg("wrote client package")
	}
	return &Result{Package: out.Package, Planned: planned, Output: out}, nil
}

func writeFiles(outDir string, files map[string][]byte, force bool) error {
	abs, err := filepath.Abs(outDir)
	if err != nil {
		return fmt.Errorf("resolve out dir: %w", err)
	}
	// Refuse to mix with an existing package unless forced.
	if st, err := os.Stat(abs); err == nil && st.IsDir() && !force {
		entries, rerr := os.ReadDir(abs)
		if rerr == nil && len(entries) > 0 {
			return fmt.Errorf("goemitter: output directory %q is not empty (use --force to overwrite)", abs)
		}
	}
	for rel, content := range files {
		p := filepath.Join(abs, rel)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return fmt.Errorf("mkdir: %w", err)
		}
		// atomic write via temp file + rename
		tmp := p + ".tmp-" + time.Now().Format("20060102150405")
		if err := os.WriteFile(tmp, content, 0o644); err != nil {
			return fmt.Errorf("write temp %s: %w", rel, err)
		}
		if err := os.Rename(tmp, p); err != nil {
			_ = os.Remove(tmp)
			return fmt.Errorf("rename %s: %w", rel, err)
		}
	}
	return nil
}
