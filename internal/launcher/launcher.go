// Package launcher downloads, verifies and starts the application package
// (Launcher.jar) on a provisioned runtime.
package launcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ZebulonRouseFrantzich/jrelaunch/internal/archive"
	"github.com/ZebulonRouseFrantzich/jrelaunch/internal/fetch"
	"github.com/ZebulonRouseFrantzich/jrelaunch/internal/logging"
	"github.com/ZebulonRouseFrantzich/jrelaunch/internal/platform"
	"github.com/ZebulonRouseFrantzich/jrelaunch/internal/process"
	"github.com/ZebulonRouseFrantzich/jrelaunch/internal/signature"
)

// LaunchError reports a runtime executable that is missing or could not be
// started.
type LaunchError struct {
	Path string
	Err  error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("launch %s: %v", e.Path, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

// VerifyError reports an application package that failed verification.
type VerifyError struct {
	Path string
	Err  error
}

func (e *VerifyError) Error() string {
	return fmt.Sprintf("verify %s: %v", e.Path, e.Err)
}

func (e *VerifyError) Unwrap() error { return e.Err }

// Application is the package-side contract the provisioning loop drives.
type Application interface {
	Download(ctx context.Context, dest string) error
	Verify(ctx context.Context, path string) error
	Run(pkg, runtimeDir string) (int, error)
}

// Launcher implements Application for a jar served over HTTP.
type Launcher struct {
	url          string
	userAgent    string
	signatureURL string
	verifier     *signature.Verifier
	platform     *platform.Descriptor
	downloader   *fetch.Downloader
	spawner      process.Spawner
	logger       logging.Logger
}

var _ Application = (*Launcher)(nil)

// Option configures a Launcher.
type Option func(*Launcher)

// WithUserAgent sends userAgent when downloading the package.
func WithUserAgent(userAgent string) Option {
	return func(l *Launcher) {
		l.userAgent = userAgent
	}
}

// WithSignature requires a detached signature, fetched from sigURL, that
// verifier accepts.
func WithSignature(sigURL string, verifier *signature.Verifier) Option {
	return func(l *Launcher) {
		l.signatureURL = sigURL
		l.verifier = verifier
	}
}

// WithDownloader substitutes the HTTP downloader.
func WithDownloader(d *fetch.Downloader) Option {
	return func(l *Launcher) {
		if d != nil {
			l.downloader = d
		}
	}
}

// WithSpawner substitutes the process starter.
func WithSpawner(s process.Spawner) Option {
	return func(l *Launcher) {
		if s != nil {
			l.spawner = s
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger logging.Logger) Option {
	return func(l *Launcher) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// New creates a Launcher for the package at url.
func New(url string, desc *platform.Descriptor, opts ...Option) *Launcher {
	l := &Launcher{
		url:        url,
		platform:   desc,
		downloader: fetch.NewDownloader(),
		spawner:    process.Starter{},
		logger:     logging.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Download fetches the package to dest.
func (l *Launcher) Download(ctx context.Context, dest string) error {
	l.logger.Info("downloading application package", "url", l.url, "dest", dest)
	return l.downloader.DownloadToFile(ctx, l.url, dest, fetch.RequestOptions{UserAgent: l.userAgent})
}

// Verify checks that path is an intact jar and, when a signature is
// configured, that the signature over it verifies. A rejected package is a
// *VerifyError. Failing to fetch the signature is a *fetch.RemoteLookupError
// and says nothing about the package.
func (l *Launcher) Verify(ctx context.Context, path string) error {
	if err := archive.VerifyIntegrity(path); err != nil {
		return &VerifyError{Path: path, Err: err}
	}

	if l.verifier == nil {
		return nil
	}

	sig, err := l.downloader.FetchText(ctx, l.signatureURL, fetch.RequestOptions{UserAgent: l.userAgent})
	if err != nil {
		return fmt.Errorf("fetch signature: %w", err)
	}

	format, err := l.verifier.VerifyFile(path, []byte(sig))
	if err != nil {
		return &VerifyError{Path: path, Err: err}
	}

	l.logger.Debug("application package signature verified", "format", string(format))
	return nil
}

// Run starts "<runtimeDir>/bin/java -jar pkg" and returns the child's pid.
// On Windows the child is detached from the console.
func (l *Launcher) Run(pkg, runtimeDir string) (int, error) {
	javaPath := filepath.Join(runtimeDir, "bin", l.platform.JavaExecutable())

	info, err := os.Stat(javaPath)
	if err != nil {
		return 0, &LaunchError{Path: javaPath, Err: err}
	}
	if info.IsDir() {
		return 0, &LaunchError{Path: javaPath, Err: fmt.Errorf("is a directory")}
	}

	spec := process.Spec{
		Path:     javaPath,
		Args:     []string{"-jar", pkg},
		Detached: l.platform.IsWindows(),
	}

	pid, err := l.spawner.Spawn(spec)
	if err != nil {
		return 0, &LaunchError{Path: javaPath, Err: err}
	}

	l.logger.Info("application started", "pid", pid, "java", javaPath)
	return pid, nil
}
