package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/hiranya911/rest-coder/internal/codegen"
	"github.com/hiranya911/rest-coder/internal/compiler"
	"github.com/hiranya911/rest-coder/internal/emitter/goemitter"
	"github.com/hiranya911/rest-coder/internal/spec"
)

// GenerateConfig captures all inputs that influence the generate command after
// merging defaults, config file values, and CLI overrides.
type GenerateConfig struct {
	Input        string
	Method       string
	Out          string
	Package      string
	Deserializer string
	IncludeTags  []string
	ExcludeTags  []string
	ConfigPath   string
	DryRun       bool
	Force        bool
	Watch        bool
	Verbose      bool

	streams
}

func defaultGenerateConfig() GenerateConfig {
	return GenerateConfig{Method: http.MethodOptions}
}

var generateRunner = runGenerate

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a Go client package from an API description",
		Long: "Generate a Go client package from an API description. " +
			"Options can be provided via flags, config files, or defaults.",
		Example: strings.TrimSpace(`  restcoder generate --input petstore.yaml --out ./petstore
  restcoder generate --input http://localhost:8080/petstore --method OPTIONS --out ./petstore
  restcoder --config restcoder.yaml generate --force --dry-run`),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveGenerateConfig(cmd)
			if err != nil {
				return err
			}
			return generateRunner(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	addInputFlags(flags)
	flags.String("out", "", "Output directory (derived from the API name when omitted)")
	flags.String("package", "", "Override the generated package name")
	flags.String("deserializer", "", "Preferred response media kind (json|form|_any_); defaults to the first declared output content type")
	flags.Bool("dry-run", false, "Preview planned outputs without writing files")
	flags.Bool("force", false, "Overwrite existing output when set")
	flags.Bool("watch", false, "Regenerate whenever the input file changes")

	return cmd
}

// addInputFlags registers the flags shared by every command that loads a
// description.
func addInputFlags(flags *pflag.FlagSet) {
	flags.String("input", "", "Path or URL of the API description")
	flags.String("method", "", "HTTP method used to fetch a URL input; defaults to OPTIONS")
	flags.StringSlice("include-tags", nil, "Only include OpenAPI operations with these tags")
	flags.StringSlice("exclude-tags", nil, "Exclude OpenAPI operations with these tags")
}

func resolveGenerateConfig(cmd *cobra.Command) (*GenerateConfig, error) {
	cfg := defaultGenerateConfig()
	cfg.streams = streamsOf(cmd)

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	configPath = strings.TrimSpace(configPath)
	if configPath != "" {
		cfg.ConfigPath = configPath
		if err := applyGenerateConfigFromFile(&cfg, configPath); err != nil {
			return nil, err
		}
	}

	if err := applyGenerateFlagOverrides(cmd.Flags(), &cfg); err != nil {
		return nil, err
	}

	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyGenerateFlagOverrides copies every flag set on the command line into
// cfg. Flags a command does not define are never reported as changed.
func applyGenerateFlagOverrides(flags *pflag.FlagSet, cfg *GenerateConfig) error {
	strs := []struct {
		name string
		dst  *string
	}{
		{"input", &cfg.Input},
		{"method", &cfg.Method},
		{"out", &cfg.Out},
		{"package", &cfg.Package},
		{"deserializer", &cfg.Deserializer},
	}
	for _, s := range strs {
		if !flags.Changed(s.name) {
			continue
		}
		value, err := flags.GetString(s.name)
		if err != nil {
			return err
		}
		*s.dst = strings.TrimSpace(value)
	}

	lists := []struct {
		name string
		dst  *[]string
	}{
		{"include-tags", &cfg.IncludeTags},
		{"exclude-tags", &cfg.ExcludeTags},
	}
	for _, l := range lists {
		if !flags.Changed(l.name) {
			continue
		}
		value, err := flags.GetStringSlice(l.name)
		if err != nil {
			return err
		}
		*l.dst = sanitizeTags(value)
	}

	bools := []struct {
		name string
		dst  *bool
	}{
		{"dry-run", &cfg.DryRun},
		{"force", &cfg.Force},
		{"watch", &cfg.Watch},
		{"verbose", &cfg.Verbose},
	}
	for _, b := range bools {
		if !flags.Changed(b.name) {
			continue
		}
		value, err := flags.GetBool(b.name)
		if err != nil {
			return err
		}
		*b.dst = value
	}
	return nil
}

func (c *GenerateConfig) normalize() {
	c.Input = strings.TrimSpace(c.Input)
	c.Method = strings.ToUpper(strings.TrimSpace(c.Method))
	c.Out = strings.TrimSpace(c.Out)
	c.Package = strings.TrimSpace(c.Package)
	c.Deserializer = strings.ToLower(strings.TrimSpace(c.Deserializer))
	c.IncludeTags = sanitizeTags(c.IncludeTags)
	c.ExcludeTags = sanitizeTags(c.ExcludeTags)
}

func (c *GenerateConfig) validate() error {
	if c.Input == "" {
		return newUsageError("generate: --input is required (set via flag or config file)")
	}

	switch c.Method {
	case "":
		c.Method = http.MethodOptions
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete,
		http.MethodPatch, http.MethodHead, http.MethodOptions:
	default:
		return newUsageError(fmt.Sprintf("generate: unsupported --method %q", c.Method))
	}

	switch c.Deserializer {
	case "", compiler.MediaJSON, compiler.MediaForm, compiler.MediaAny:
	default:
		return newUsageError(fmt.Sprintf("generate: unsupported --deserializer %q (allowed: json, form, _any_)", c.Deserializer))
	}

	if c.Package != "" && codegen.Sanitize(c.Package, codegen.FuncScope) != c.Package {
		return newUsageError(fmt.Sprintf("generate: --package %q is not a valid Go package name", c.Package))
	}

	overlap := intersect(c.IncludeTags, c.ExcludeTags)
	if len(overlap) > 0 {
		return newUsageError(fmt.Sprintf("generate: include/exclude tags overlap: %s", strings.Join(overlap, ", ")))
	}

	if c.Watch && isRemote(c.Input) {
		return newUsageError("generate: --watch requires a local file input")
	}

	return nil
}

func isRemote(input string) bool {
	u, err := url.Parse(input)
	return err == nil && u.Scheme != "" && u.Host != ""
}

func runGenerate(ctx context.Context, cfg *GenerateConfig) error {
	log := newLogger(cfg.errOut(), cfg.Verbose)
	if err := generateOnce(ctx, cfg, log); err != nil {
		return err
	}
	if !cfg.Watch {
		return nil
	}

	w, err := newInputWatcher(cfg.Input)
	if err != nil {
		return err
	}
	defer w.Close()
	log.Info().Str("input", w.path).Msg("watching for changes")

	// The first run populated the output directory.
	again := *cfg
	again.Force = true
	return w.Run(ctx, log, func() error { return generateOnce(ctx, &again, log) })
}

// loadAPI reads the description named by cfg.
func loadAPI(ctx context.Context, cfg *GenerateConfig, log zerolog.Logger) (*spec.API, error) {
	api, err := spec.Load(ctx, cfg.Input,
		spec.WithLogger(log),
		spec.WithMethod(cfg.Method),
		spec.WithImportOptions(
			spec.WithIncludeTags(cfg.IncludeTags),
			spec.WithExcludeTags(cfg.ExcludeTags),
		),
	)
	if err != nil {
		return nil, specUsageError(err)
	}
	return api, nil
}

func generateOnce(ctx context.Context, cfg *GenerateConfig, log zerolog.Logger) error {
	api, err := loadAPI(ctx, cfg, log)
	if err != nil {
		return err
	}

	outDir := cfg.Out
	if outDir == "" {
		outDir = compiler.PackageName(api.Name)
		if cfg.Package != "" {
			outDir = cfg.Package
		}
	}
	// Absolute only for display; the emitter handles creation and writes
	absOut := outDir
	if ap, err := filepath.Abs(outDir); err == nil {
		absOut = ap
	}

	res, err := goemitter.Emit(ctx, api, goemitter.Options{
		OutDir:       outDir,
		Package:      cfg.Package,
		Deserializer: cfg.Deserializer,
		Force:        cfg.Force,
		DryRun:       cfg.DryRun,
		Logger:       log,
	})
	if err != nil {
		var conflict *codegen.ConflictError
		if errors.As(err, &conflict) {
			return fmt.Errorf("generate: %w", err)
		}
		return wrapOutputError(specUsageError(err), absOut)
	}

	paths := make([]string, 0, len(res.Planned))
	for _, p := range res.Planned {
		paths = append(paths, p.RelPath)
	}
	if cfg.DryRun {
		printPlan(cfg.out(), absOut, len(res.Planned), paths)
		return nil
	}
	log.Info().
		Str("package", res.Package).
		Int("types", len(res.Output.Types)).
		Int("clients", len(res.Output.Clients)).
		Int("functions", len(res.Output.Functions)).
		Msg("generated client")
	fmt.Fprintf(cfg.out(), "Wrote package %s to %s (%d files)\n", res.Package, absOut, len(paths))
	return nil
}

func printPlan(w io.Writer, outDir string, count int, relPaths []string) {
	fmt.Fprintf(w, "Planned writes to %s (%d files):\n", outDir, count)
	for _, p := range relPaths {
		fmt.Fprintf(w, "- %s\n", p)
	}
}

func wrapOutputError(err error, outDir string) error {
	if errors.Is(err, ErrUsage) {
		return err
	}
	// Provide clearer guidance for common FS failures.
	msg := err.Error()
	lower := strings.ToLower(msg)
	if strings.Contains(lower, "permission") || strings.Contains(lower, "read-only") || strings.Contains(lower, "mkdir") || strings.Contains(lower, "rename") || strings.Contains(lower, "output directory") {
		return newUsageError(fmt.Sprintf("output error for %s: %s\nHint: choose a different --out or use --force when appropriate.", outDir, msg))
	}
	return err
}

func sanitizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	result := make([]string, 0, len(tags))
	for _, tag := range tags {
		trimmed := strings.TrimSpace(tag)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

func intersect(a, b []string) []string {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(a))
	for _, item := range a {
		set[item] = struct{}{}
	}
	var result []string
	for _, item := range b {
		if _, ok := set[item]; ok {
			result = append(result, item)
		}
	}
	return result
}

func applyGenerateConfigFromFile(cfg *GenerateConfig, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return newUsageError(fmt.Sprintf("read config file %q: %v", path, err))
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return newUsageError(fmt.Sprintf("parse config file %q: %v", path, err))
	}

	strs := map[string]*string{
		"input":        &cfg.Input,
		"method":       &cfg.Method,
		"out":          &cfg.Out,
		"package":      &cfg.Package,
		"packagename":  &cfg.Package,
		"deserializer": &cfg.Deserializer,
	}
	lists := map[string]*[]string{
		"includetags": &cfg.IncludeTags,
		"excludetags": &cfg.ExcludeTags,
	}
	bools := map[string]*bool{
		"dryrun":  &cfg.DryRun,
		"force":   &cfg.Force,
		"watch":   &cfg.Watch,
		"verbose": &cfg.Verbose,
	}

	for key, value := range raw {
		normalized := normalizeKey(key)
		if dst, ok := strs[normalized]; ok {
			str, err := valueAsString(value)
			if err != nil {
				return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
			}
			*dst = str
			continue
		}
		if dst, ok := lists[normalized]; ok {
			list, err := valueAsStringSlice(value)
			if err != nil {
				return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
			}
			*dst = sanitizeTags(list)
			continue
		}
		if dst, ok := bools[normalized]; ok {
			val, err := valueAsBool(value)
			if err != nil {
				return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
			}
			*dst = val
			continue
		}
		return newUsageError(fmt.Sprintf("config file %q: unknown field %q", path, key))
	}

	return nil
}

func normalizeKey(raw string) string {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	lowered = strings.ReplaceAll(lowered, "-", "")
	lowered = strings.ReplaceAll(lowered, "_", "")
	return lowered
}

func valueAsString(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val), nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("expected string, got %T", v)
	}
}

func valueAsStringSlice(v any) ([]string, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case string:
		if strings.TrimSpace(val) == "" {
			return nil, nil
		}
		return splitAndTrim(val), nil
	case []any:
		items := make([]string, 0, len(val))
		for idx, elem := range val {
			str, err := valueAsString(elem)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", idx, err)
			}
			if str != "" {
				items = append(items, str)
			}
		}
		return items, nil
	default:
		return nil, fmt.Errorf("expected string or list, got %T", v)
	}
}

func valueAsBool(v any) (bool, error) {
	switch val := v.(type) {
	case bool:
		return val, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "true", "t", "1", "yes", "y":
			return true, nil
		case "false", "f", "0", "no", "n", "":
			return false, nil
		default:
			return false, fmt.Errorf("invalid boolean value %q", val)
		}
	case nil:
		return false, nil
	default:
		return false, fmt.Errorf("expected boolean, got %T", v)
	}
}

func splitAndTrim(csv string) []string {
	parts := strings.Split(csv, ",")
	cleaned := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	return cleaned
}
