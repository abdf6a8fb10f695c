package config

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	lua "github.com/yuin/gopher-lua"

	"github.com/ZebulonRouseFrantzich/jrelaunch/internal/platform"
)

//go:embed default.json
var defaultDocument []byte

// luaGlobal is the table a Lua config must define.
const luaGlobal = "jrelaunch"

// Parser reads configuration documents. The detector is only consulted for
// Lua configs, which see the platform table.
type Parser struct {
	detector platform.Detector
}

// NewParser creates a new config parser with the given platform detector.
func NewParser(detector platform.Detector) *Parser {
	return &Parser{detector: detector}
}

// ParseError represents a config parsing error with friendly message.
type ParseError struct {
	Message string // User-friendly message
	Detail  string // Technical details
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Message, e.Detail)
}

// Default returns the compiled-in configuration.
func Default() (*Config, error) {
	cfg, err := ParseJSON(defaultDocument)
	if err != nil {
		return nil, fmt.Errorf("default config: %w", err)
	}
	return cfg, nil
}

// ParseFile reads path and parses it according to its extension: ".lua" is
// evaluated in the sandbox, ".json" and ".jsonc" are parsed as JSON with
// comments.
func (p *Parser) ParseFile(ctx context.Context, path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg *Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".lua":
		cfg, err = p.ParseString(ctx, string(data))
	case ".json", ".jsonc":
		cfg, err = ParseJSON(data)
	default:
		return nil, &ParseError{
			Message: "unsupported config format",
			Detail:  fmt.Sprintf("%s (expected .lua, .json or .jsonc)", path),
		}
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ParseJSON strips comments and trailing commas, then decodes and
// validates the document. Unknown fields are rejected.
func ParseJSON(data []byte) (*Config, error) {
	stripped := jsonc.ToJSON(data)

	decoder := json.NewDecoder(bytes.NewReader(stripped))
	decoder.DisallowUnknownFields()

	cfg := &Config{}
	if err := decoder.Decode(cfg); err != nil {
		return nil, &ParseError{
			Message: "invalid JSON config",
			Detail:  err.Error(),
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, &ParseError{
			Message: "config validation failed",
			Detail:  err.Error(),
		}
	}
	return cfg, nil
}

// ParseString evaluates a Lua config in a sandboxed VM.
func (p *Parser) ParseString(ctx context.Context, luaCode string) (*Config, error) {
	L := newSandboxedVM()
	defer L.Close()
	L.SetContext(ctx)

	if p.detector != nil {
		d, err := p.detector.Detect(ctx)
		if err != nil {
			return nil, fmt.Errorf("platform detection failed: %w", err)
		}
		if err := platform.InjectPlatformTable(L, d); err != nil {
			return nil, fmt.Errorf("inject platform table: %w", err)
		}
	}

	if err := L.DoString(luaCode); err != nil {
		return nil, &ParseError{
			Message: "Lua syntax error",
			Detail:  err.Error(),
		}
	}

	return extractConfig(L)
}

// extractConfig reads the global jrelaunch table.
func extractConfig(L *lua.LState) (*Config, error) {
	root := L.GetGlobal(luaGlobal)
	if root.Type() != lua.LTTable {
		return nil, &ParseError{
			Message: fmt.Sprintf("missing or invalid '%s' table", luaGlobal),
			Detail:  fmt.Sprintf("expected table, got %s", root.Type()),
		}
	}
	table := root.(*lua.LTable)

	cfg := &Config{}
	if projectVal := table.RawGetString("project"); projectVal.Type() == lua.LTTable {
		cfg.Project = extractProject(projectVal.(*lua.LTable))
	}
	if windowVal := table.RawGetString("window"); windowVal.Type() == lua.LTTable {
		cfg.Window = extractWindow(windowVal.(*lua.LTable))
	}

	if err := cfg.Validate(); err != nil {
		return nil, &ParseError{
			Message: "config validation failed",
			Detail:  err.Error(),
		}
	}
	return cfg, nil
}

func extractProject(table *lua.LTable) Project {
	return Project{
		Name:                  luaString(table, "name"),
		JREVersion:            luaString(table, "jre_version"),
		LauncherURL:           luaString(table, "launcher_url"),
		CheckJRE:              luaBool(table, "check_jre"),
		UserAgent:             luaString(table, "user_agent"),
		LauncherSignatureURL:  luaString(table, "launcher_signature_url"),
		LauncherPublicKey:     luaString(table, "launcher_public_key"),
		MaxAttempts:           luaInt(table, "max_attempts"),
		RequestTimeoutSeconds: luaInt(table, "request_timeout_seconds"),
	}
}

func extractWindow(table *lua.LTable) Window {
	return Window{
		Title:                 luaString(table, "title"),
		TextColor:             luaString(table, "text_color"),
		ProgressBarColor:      luaString(table, "progress_bar_color"),
		ProgressBarBackground: luaString(table, "progress_bar_background"),
	}
}

func luaString(table *lua.LTable, field string) string {
	if v := table.RawGetString(field); v.Type() == lua.LTString {
		return v.String()
	}
	return ""
}

func luaBool(table *lua.LTable, field string) bool {
	if v := table.RawGetString(field); v.Type() == lua.LTBool {
		return bool(v.(lua.LBool))
	}
	return false
}

func luaInt(table *lua.LTable, field string) int {
	if v := table.RawGetString(field); v.Type() == lua.LTNumber {
		return int(lua.LVAsNumber(v))
	}
	return 0
}

// FormatError formats a ParseError for user display.
// In verbose mode, show the raw detail. Otherwise, trim Lua stack traces.
func FormatError(err error, verbose bool) string {
	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		if verbose {
			return fmt.Sprintf("%s\n\nDetails:\n%s", parseErr.Message, parseErr.Detail)
		}
		detail := parseErr.Detail
		if idx := strings.Index(detail, "stack traceback"); idx > 0 {
			detail = strings.TrimSpace(detail[:idx])
		}
		return fmt.Sprintf("%s: %s", parseErr.Message, detail)
	}
	return err.Error()
}
