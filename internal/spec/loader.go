package spec

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	openapi2 "github.com/getkin/kin-openapi/openapi2"
	"github.com/getkin/kin-openapi/openapi2conv"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Settings configures loader behavior.
type Settings struct {
	// HTTPTimeout bounds each HTTP request.
	HTTPTimeout time.Duration
	// MaxRetries for transient HTTP failures (>=500, 429, or network errors).
	MaxRetries int
	// BackoffBase is the base delay for exponential backoff.
	BackoffBase time.Duration
	// Method is the HTTP method used to fetch a description from a URL.
	// Services that self-describe answer OPTIONS on their base path.
	Method string
	// AllowFileRefs controls whether file:// refs are allowed in OpenAPI
	// documents. Local roots always allow them.
	AllowFileRefs bool
	Logger        zerolog.Logger
	Import        []ImportOption
}

// DefaultSettings returns recommended defaults.
func DefaultSettings() Settings {
	return Settings{
		HTTPTimeout: 10 * time.Second,
		MaxRetries:  3,
		BackoffBase: 200 * time.Millisecond,
		Method:      http.MethodOptions,
		Logger:      zerolog.Nop(),
	}
}

// Option mutates Settings.
type Option func(*Settings)

func WithHTTPTimeout(d time.Duration) Option { return func(s *Settings) { s.HTTPTimeout = d } }
func WithMaxRetries(n int) Option { return func(s *Settings) { s.MaxRetries = n } }
func WithBackoffBase(d time.Duration) Option { return func(s *Settings) { s.BackoffBase = d } }
func WithAllowFileRefs(allow bool) Option { return func(s *Settings) { s.AllowFileRefs = allow } }
func WithLogger(l zerolog.Logger) Option { return func(s *Settings) { s.Logger = l } }
func WithImportOptions(o ...ImportOption) Option {
	return func(s *Settings) { s.Import = append(s.Import, o...) }
}

// WithMethod sets the HTTP method used to fetch URL inputs.
func WithMethod(m string) Option {
	return func(s *Settings) {
		if m = strings.ToUpper(strings.TrimSpace(m)); m != "" {
			s.Method = m
		}
	}
}

// Load reads and validates an API description from a filesystem path or an
// http/https URL. Native descriptions are parsed directly; OpenAPI v3 and
// Swagger v2 documents are imported with kin-openapi. file:// URLs are blocked.
func Load(ctx context.Context, input string, opts ...Option) (*API, error) {
	if strings.TrimSpace(input) == "" {
		return nil, &SpecError{Code: InputError, Message: "spec: input is empty"}
	}

	settings := DefaultSettings()
	for _, opt := range opts {
		opt(&settings)
	}
	log := settings.Logger.With().Str("input", input).Logger()

	var (
		raw      []byte
		location string
		loader   *openapi3.Loader
		readDoc  func() (*openapi3.T, error)
	)
	u, uerr := url.Parse(input)
	if uerr == nil && u.Scheme != "" && u.Host != "" {
		scheme := strings.ToLower(u.Scheme)
		if scheme == "file" {
			return nil, &SpecError{Code: InputError, Message: "spec: file:// URLs are blocked by default", Location: input}
		}
		if scheme != "http" && scheme != "https" {
			return nil, &SpecError{Code: InputError, Message: fmt.Sprintf("spec: unsupported URL scheme %q (only http/https allowed)", scheme), Location: input}
		}
		body, err := fetchWithRetry(ctx, input, settings)
		if err != nil {
			return nil, &SpecError{Code: NetworkError, Message: fmt.Sprintf("fetch %s: %v", input, err), Location: input, Cause: err}
		}
		raw, location = body, input
		loader = newLoader(settings, false)
		readDoc = func() (*openapi3.T, error) { return loader.LoadFromDataWithPath(raw, u) }
	} else if uerr == nil && u.Scheme == "file" {
		return nil, &SpecError{Code: InputError, Message: "spec: file:// URLs are blocked by default", Location: input}
	} else {
		abs, err := filepath.Abs(input)
		if err != nil {
			return nil, &SpecError{Code: InputError, Message: fmt.Sprintf("resolve path: %v", err), Location: input, Cause: err}
		}
		body, err := os.ReadFile(abs)
		if err != nil {
			return nil, &SpecError{Code: InputError, Message: fmt.Sprintf("read file %s: %v", abs, err), Location: abs, Cause: err}
		}
		raw, location = body, abs
		loader = newLoader(settings, true)
		readDoc = func() (*openapi3.T, error) { return loader.LoadFromFile(abs) }
	}

	format, err := detectFormat(raw)
	if err != nil {
		return nil, &SpecError{Code: ParseError, Message: err.Error(), Location: location, Cause: err}
	}
	log.Debug().Str("format", format.String()).Msg("loading description")

	var api *API
	switch format {
	case formatOpenAPI3:
		doc, err := readDoc()
		if err != nil {
			return nil, mapValidateOrParseErr(err, location)
		}
		if err := doc.Validate(ctx); err != nil {
			if !canProceedDespiteValidation(err) {
				return nil, mapValidateOrParseErr(err, location)
			}
			log.Warn().Err(err).Msg("proceeding despite OpenAPI validation errors")
		}
		api, err = FromOpenAPI(doc, settings.Import...)
		if err != nil {
			return nil, withLocation(err, location)
		}
	case formatSwagger2:
		if fixed, changed, err := repairSwagger2(raw); err == nil && changed {
			log.Debug().Msg("rewrote swagger 2 body parameters")
			raw = fixed
		}
		doc, err := convertV2ToV3(raw)
		if err != nil {
			return nil, &SpecError{Code: ConversionError, Message: fmt.Sprintf("convert v2→v3: %v", err), Location: location, Cause: err}
		}
		if err := loader.ResolveRefsIn(doc, nil); err != nil {
			log.Warn().Err(err).Msg("failed to resolve refs after conversion")
		}
		if err := doc.Validate(ctx); err != nil {
			if !canProceedDespiteValidation(err) {
				return nil, mapValidateOrParseErr(err, location)
			}
			log.Warn().Err(err).Msg("proceeding despite OpenAPI validation errors")
		}
		api, err = FromOpenAPI(doc, settings.Import...)
		if err != nil {
			return nil, withLocation(err, location)
		}
	default:
		api, err = Parse(raw)
		if err != nil {
			return nil, withLocation(err, location)
		}
	}
	api.Location = location
	log.Debug().Str("api", api.Name).Int("resources", len(api.Resources)).Int("types", len(api.DataTypes)).Msg("description loaded")
	return api, nil
}

func withLocation(err error, location string) error {
	var se *SpecError
	if errors.As(err, &se) && se.Location == "" {
		se.Location = location
	}
	return err
}

type docFormat int

const (
	formatNative docFormat = iota
	formatOpenAPI3
	formatSwagger2
)

func (f docFormat) String() string {
	switch f {
	case formatOpenAPI3:
		return "openapi3"
	case formatSwagger2:
		return "swagger2"
	}
	return "native"
}

// detectFormat sniffs the document root: "openapi: 3.x" and "swagger: 2.x"
// select the OpenAPI importer, anything else is a native description.
func detectFormat(data []byte) (docFormat, error) {
	var root map[string]any
	if err := yaml.Unmarshal(data, &root); err != nil {
		return formatNative, fmt.Errorf("parse description: %w", err)
	}
	if v, ok := root["openapi"]; ok {
		if s, _ := v.(string); strings.HasPrefix(strings.TrimSpace(s), "3.") {
			return formatOpenAPI3, nil
		}
		return formatNative, fmt.Errorf("spec: unsupported OpenAPI version %v (expected 3.x)", v)
	}
	if v, ok := root["swagger"]; ok {
		if s, _ := v.(string); strings.HasPrefix(strings.TrimSpace(s), "2.") {
			return formatSwagger2, nil
		}
		return formatNative, fmt.Errorf("spec: unsupported Swagger version %v (expected 2.0)", v)
	}
	return formatNative, nil
}

func newLoader(settings Settings, rootIsFile bool) *openapi3.Loader {
	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = true
	client := &http.Client{Timeout: settings.HTTPTimeout}
	allowFile := settings.AllowFileRefs || rootIsFile
	loader.ReadFromURIFunc = func(l *openapi3.Loader, uri *url.URL) ([]byte, error) {
		switch strings.ToLower(uri.Scheme) {
		case "", "file":
			if !allowFile {
				return nil, fmt.Errorf("blocked file ref: %s", uri.String())
			}
			path := uri.Path
			if path == "" {
				path = uri.Opaque
			}
			return os.ReadFile(path)
		case "http", "https":
			resp, err := client.Get(uri.String())
			if err != nil {
				return nil, err
			}
			defer resp.Body.Close()
			if resp.StatusCode >= 400 {
				return nil, fmt.Errorf("http %d: %s", resp.StatusCode, uri.String())
			}
			return io.ReadAll(resp.Body)
		default:
			return nil, fmt.Errorf("unsupported ref scheme: %s", uri.Scheme)
		}
	}
	return loader
}

func convertV2ToV3(data []byte) (*openapi3.T, error) {
	var v2 openapi2.T
	if err := yaml.Unmarshal(data, &v2); err != nil {
		return nil, err
	}
	return openapi2conv.ToV3(&v2)
}

// fetchWithRetry retrieves the description with the configured method,
// retrying transient failures with exponential backoff.
func fetchWithRetry(ctx context.Context, rawURL string, settings Settings) ([]byte, error) {
	client := &http.Client{Timeout: settings.HTTPTimeout}
	var lastErr error
	backoff := settings.BackoffBase
	if backoff <= 0 {
		backoff = 200 * time.Millisecond
	}
	attempts := settings.MaxRetries
	if attempts <= 0 {
		attempts = 1
	}
	method := settings.Method
	if method == "" {
		method = http.MethodOptions
	}
	for i := 0; i < attempts; i++ {
		body, retry, err := fetchOnce(ctx, client, method, rawURL)
		if err == nil {
			return body, nil
		}
		if !retry {
			return nil, err
		}
		lastErr = err
		settings.Logger.Debug().Err(err).Int("attempt", i+1).Str("url", rawURL).Msg("fetch failed, retrying")
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	if lastErr == nil {
		lastErr = errors.New("fetch failed")
	}
	return nil, lastErr
}

func fetchOnce(ctx context.Context, client *http.Client, method, rawURL string) (body []byte, retry bool, err error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, false, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, true, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 300 {
		body, err := io.ReadAll(resp.Body)
		return body, false, err
	}
	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return nil, true, fmt.Errorf("transient http error %d", resp.StatusCode)
	}
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	return nil, false, fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
}

func mapValidateOrParseErr(err error, location string) error {
	pointer := extractJSONPointer(err)
	code := ValidationError
	lower := strings.ToLower(err.Error())
	if strings.Contains(lower, "parse") || strings.Contains(lower, "invalid character") {
		code = ParseError
	}
	return &SpecError{Code: code, Message: err.Error(), Location: location, JSONPointer: pointer, Cause: err}
}

var jsonPtrRe = regexp.MustCompile(`#/[^\s'\"]+`)

func extractJSONPointer(err error) string {
	if err == nil {
		return ""
	}
	if me, ok := err.(openapi3.MultiError); ok {
		if len(me) > 0 {
			return extractJSONPointer(me[0])
		}
	}
	var se *openapi3.SchemaError
	if errors.As(err, &se) {
		if parts := se.JSONPointer(); len(parts) > 0 {
			return "#/" + strings.Join(parts, "/")
		}
		if se.SchemaField != "" {
			return se.SchemaField
		}
	}
	if m := jsonPtrRe.FindString(err.Error()); m != "" {
		return m
	}
	return ""
}

// canProceedDespiteValidation returns true for validation errors where a
// best-effort import can still proceed, e.g. unresolved $ref entries.
func canProceedDespiteValidation(err error) bool {
	if err == nil {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "unresolved ref") || strings.Contains(s, "found unresolved ref")
}
