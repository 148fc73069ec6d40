package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

const defaultConfigFile = "restcoder.yaml"

// InitConfig captures the options for the init command.
type InitConfig struct {
	OutputPath string
	Force      bool
	Verbose    bool

	streams
}

var initRunner = runInit

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold a sample restcoder configuration file",
		Long:  "Scaffold a commented restcoder configuration file that documents available options.",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := cmd.Flags().GetString("out")
			if err != nil {
				return err
			}
			force, err := cmd.Flags().GetBool("force")
			if err != nil {
				return err
			}
			verbose, err := cmd.Flags().GetBool("verbose")
			if err != nil {
				return err
			}
			return initRunner(cmd.Context(), &InitConfig{
				OutputPath: out,
				Force:      force,
				Verbose:    verbose,
				streams:    streamsOf(cmd),
			})
		},
	}

	cmd.Flags().String("out", defaultConfigFile, "Where to write the sample config file")
	cmd.Flags().Bool("force", false, "Overwrite the target file if it already exists")

	return cmd
}

func runInit(_ context.Context, cfg *InitConfig) error {
	log := newLogger(cfg.errOut(), cfg.Verbose)

	out := strings.TrimSpace(cfg.OutputPath)
	if out == "" {
		out = defaultConfigFile
	}
	absPath, err := filepath.Abs(out)
	if err != nil {
		return fmt.Errorf("init: resolve output path: %w", err)
	}

	if st, err := os.Stat(absPath); err == nil && !cfg.Force && st.Mode().IsRegular() {
		return newUsageError(fmt.Sprintf("init: %q already exists (use --force to overwrite)", absPath))
	}

	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return newUsageError(fmt.Sprintf("init: cannot create parent directory: %v", err))
	}

	content := strings.TrimSpace(sampleConfigYAML) + "\n"

	// Atomic write via temp + rename
	tmp := absPath + ".tmp"
	if err := os.WriteFile(tmp, []byte(content), 0o644); err != nil {
		return newUsageError(fmt.Sprintf("init: cannot write temp file: %v\nHint: choose a different --out or check directory permissions.", err))
	}
	if err := os.Rename(tmp, absPath); err != nil {
		_ = os.Remove(tmp)
		return newUsageError(fmt.Sprintf("init: cannot place file at %s: %v", absPath, err))
	}
	log.Debug().Str("path", absPath).Int("bytes", len(content)).Msg("wrote sample config")
	fmt.Fprintf(cfg.out(), "Wrote sample config to %s\n", absPath)
	return nil
}

// sampleConfigYAML documents every key the generate and validate commands read.
const sampleConfigYAML = `# restcoder configuration (YAML)
# All fields are optional. Command-line flags override config values.

# Path or URL of the API description (native IDL, OpenAPI 3 or Swagger 2).
# input: ./petstore.yaml

# HTTP method used to fetch a URL input. Self-describing services answer OPTIONS.
# method: OPTIONS

# Output directory. When omitted, derived from the package or API name.
# out: ./petstore

# Generated package name. Derived from the API name when omitted.
# package: petstore

# Preferred response media kind (json|form|_any_). When omitted, each operation
# decodes with its first declared output content type.
# deserializer: form

# OpenAPI only: include operations with these tags (comma-separated or list).
# includeTags: [public,read]

# OpenAPI only: exclude operations with these tags (comma-separated or list).
# excludeTags: [internal]

# Preview planned outputs without writing files.
# dryRun: false

# Overwrite a non-empty output directory.
# force: false

# Regenerate whenever the input file changes.
# watch: false

# Enable verbose logging.
# verbose: false
`
