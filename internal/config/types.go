// Package config loads the jrelaunch configuration document.
//
// A configuration names the project, the runtime version to provision, the
// application package to launch and how the progress window looks. It can be
// written as a sandboxed Lua file (with the platform table available) or as
// JSON with comments. A default document is compiled into the binary.
package config

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// DefaultMaxAttempts is the per-run retry budget when none is configured.
const DefaultMaxAttempts = 5

// Config represents the complete jrelaunch configuration.
type Config struct {
	Project Project `json:"project"`
	Window  Window  `json:"window"`
}

// Project describes what to provision and launch.
type Project struct {
	// Name selects the install directory.
	Name string `json:"name"`

	// JREVersion is the runtime release to query, e.g. "8u292+10".
	JREVersion string `json:"jre_version"`

	// LauncherURL is where the application package is downloaded from.
	LauncherURL string `json:"launcher_url"`

	// CheckJRE prefers a pre-installed runtime when one qualifies.
	CheckJRE bool `json:"check_jre"`

	// UserAgent overrides the User-Agent sent for the application package.
	UserAgent string `json:"user_agent,omitempty"`

	// LauncherSignatureURL points at a detached PGP or minisign signature
	// for the application package. Requires LauncherPublicKey.
	LauncherSignatureURL string `json:"launcher_signature_url,omitempty"`

	// LauncherPublicKey is an armored PGP public key or a minisign public key.
	LauncherPublicKey string `json:"launcher_public_key,omitempty"`

	// MaxAttempts bounds failed attempts across the whole run.
	MaxAttempts int `json:"max_attempts,omitempty"`

	// RequestTimeoutSeconds bounds each HTTP request. Zero means no deadline.
	RequestTimeoutSeconds int `json:"request_timeout_seconds,omitempty"`
}

// Window holds progress display styling.
type Window struct {
	Title                 string `json:"title,omitempty"`
	TextColor             string `json:"text_color,omitempty"`
	ProgressBarColor      string `json:"progress_bar_color,omitempty"`
	ProgressBarBackground string `json:"progress_bar_background,omitempty"`
}

// Attempts returns the configured retry budget or the default.
func (p Project) Attempts() int {
	if p.MaxAttempts <= 0 {
		return DefaultMaxAttempts
	}
	return p.MaxAttempts
}

// RequestTimeout returns the per-request deadline, zero for none.
func (p Project) RequestTimeout() time.Duration {
	return time.Duration(p.RequestTimeoutSeconds) * time.Second
}

// Validate performs basic validation on a Config.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Project.Name) == "" {
		return &ValidationError{Field: "project.name", Message: "cannot be empty"}
	}
	if strings.ContainsAny(c.Project.Name, `/\`) || c.Project.Name == ".." {
		return &ValidationError{Field: "project.name", Message: fmt.Sprintf("invalid project name %q", c.Project.Name)}
	}

	if strings.TrimSpace(c.Project.JREVersion) == "" {
		return &ValidationError{Field: "project.jre_version", Message: "cannot be empty"}
	}

	if err := validateHTTPURL(c.Project.LauncherURL); err != nil {
		return &ValidationError{Field: "project.launcher_url", Message: err.Error()}
	}

	if c.Project.LauncherSignatureURL != "" {
		if err := validateHTTPURL(c.Project.LauncherSignatureURL); err != nil {
			return &ValidationError{Field: "project.launcher_signature_url", Message: err.Error()}
		}
		if strings.TrimSpace(c.Project.LauncherPublicKey) == "" {
			return &ValidationError{Field: "project.launcher_public_key", Message: "required when launcher_signature_url is set"}
		}
	}

	if c.Project.MaxAttempts < 0 {
		return &ValidationError{Field: "project.max_attempts", Message: "must be positive"}
	}
	if c.Project.RequestTimeoutSeconds < 0 {
		return &ValidationError{Field: "project.request_timeout_seconds", Message: "cannot be negative"}
	}

	colors := map[string]string{
		"window.text_color":              c.Window.TextColor,
		"window.progress_bar_color":      c.Window.ProgressBarColor,
		"window.progress_bar_background": c.Window.ProgressBarBackground,
	}
	for field, value := range colors {
		if value != "" && !hexColorPattern.MatchString(value) {
			return &ValidationError{Field: field, Message: fmt.Sprintf("invalid color %q (expected #rrggbb)", value)}
		}
	}

	return nil
}

// ValidationError represents a config validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return "config validation failed for " + e.Field + ": " + e.Message
	}
	return "config validation failed: " + e.Message
}

var hexColorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

func validateHTTPURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return fmt.Errorf("cannot be empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return fmt.Errorf("URL must use https:// or http:// scheme (got: %s)", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL has no host")
	}
	return nil
}
