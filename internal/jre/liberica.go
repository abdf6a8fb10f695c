package jre

import (
	"context"
	"crypto/sha1" //nolint:gosec // the release index publishes SHA-1 digests only
	"encoding/hex"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/ZebulonRouseFrantzich/jrelaunch/internal/archive"
	"github.com/ZebulonRouseFrantzich/jrelaunch/internal/fetch"
	"github.com/ZebulonRouseFrantzich/jrelaunch/internal/logging"
	"github.com/ZebulonRouseFrantzich/jrelaunch/internal/platform"
)

// DefaultReleasesURL is the Liberica release index.
const DefaultReleasesURL = "https://api.bell-sw.com/v1/liberica/releases"

// Release index fields
const (
	fieldSHA1        = "sha1"
	fieldDownloadURL = "downloadUrl"
)

// Liberica provisions the JavaFX-enabled Liberica JRE 8.
type Liberica struct {
	platform    *platform.Descriptor
	version     string
	releasesURL string
	downloader  *fetch.Downloader
	extractor   *archive.Extractor
	logger      logging.Logger

	// fetched is the metadata the last download used. VerifyArchive checks
	// against it so the digest belongs to the archive actually fetched.
	fetched *ArtifactRef
}

var _ Provider = (*Liberica)(nil)

// LibericaOption configures a Liberica provider.
type LibericaOption func(*Liberica)

// WithReleasesURL points the provider at another release index. Tests use
// this to substitute an httptest server.
func WithReleasesURL(u string) LibericaOption {
	return func(l *Liberica) {
		if u != "" {
			l.releasesURL = u
		}
	}
}

// WithDownloader substitutes the HTTP downloader.
func WithDownloader(d *fetch.Downloader) LibericaOption {
	return func(l *Liberica) {
		if d != nil {
			l.downloader = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger logging.Logger) LibericaOption {
	return func(l *Liberica) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLiberica creates a provider for version (for example "8u292+10") on
// the given platform.
func NewLiberica(desc *platform.Descriptor, version string, opts ...LibericaOption) *Liberica {
	l := &Liberica{
		platform:    desc,
		version:     version,
		releasesURL: DefaultReleasesURL,
		downloader:  fetch.NewDownloader(),
		extractor:   archive.NewExtractor(),
		logger:      logging.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// QueryURL returns the release index query for one field. Parameters are
// kept in the order the index documents them.
func (l *Liberica) QueryURL(field string) string {
	params := [][2]string{
		{"version", l.version},
		{"version-feature", "8"},
		{"fx", "true"},
		{"bitness", strconv.Itoa(l.platform.Bitness())},
		{"os", l.platform.OSName()},
		{"arch", "x86"},
		{"installation-type", "archive"},
		{"bundle-type", "jre"},
		{"output", "text"},
		{"fields", field},
	}

	var b strings.Builder
	b.WriteString(l.releasesURL)
	for i, p := range params {
		if i == 0 {
			b.WriteByte('?')
		} else {
			b.WriteByte('&')
		}
		b.WriteString(p[0])
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p[1]))
	}
	return b.String()
}

// FetchMetadata implements Provider.
func (l *Liberica) FetchMetadata(ctx context.Context) (*ArtifactRef, error) {
	downloadURL, err := l.lookup(ctx, fieldDownloadURL)
	if err != nil {
		return nil, err
	}
	digest, err := l.lookup(ctx, fieldSHA1)
	if err != nil {
		return nil, err
	}
	return &ArtifactRef{
		Version:     l.version,
		DownloadURL: downloadURL,
		SHA1:        strings.ToLower(digest),
	}, nil
}

// DownloadArchive implements Provider. It resolves fresh metadata and
// downloads the archive it names.
func (l *Liberica) DownloadArchive(ctx context.Context, dest string) error {
	ref, err := l.FetchMetadata(ctx)
	if err != nil {
		return err
	}

	l.logger.Info("downloading runtime archive", "version", ref.Version, "url", ref.DownloadURL, "dest", dest)
	if err := l.downloader.DownloadToFile(ctx, ref.DownloadURL, dest, fetch.RequestOptions{}); err != nil {
		return err
	}
	l.fetched = ref
	return nil
}

// VerifyArchive implements Provider. An archive left by an earlier process
// is checked against a freshly looked up digest.
func (l *Liberica) VerifyArchive(ctx context.Context, path string) error {
	var expected string
	if l.fetched != nil {
		expected = l.fetched.SHA1
	} else {
		digest, err := l.lookup(ctx, fieldSHA1)
		if err != nil {
			return err
		}
		expected = strings.ToLower(digest)
	}

	actual, err := fileSHA1(path)
	if err != nil {
		return fmt.Errorf("hash runtime archive: %w", err)
	}

	// Compare checksums (case-insensitive)
	if !strings.EqualFold(actual, expected) {
		return &ChecksumMismatchError{Path: path, Expected: expected, Actual: actual}
	}

	l.logger.Debug("runtime archive digest verified", "sha1", actual)
	return nil
}

// Extract implements Provider.
func (l *Liberica) Extract(archivePath, runtimeDir string) error {
	return l.extractor.Extract(archivePath, runtimeDir)
}

// VerifyExtracted implements Provider.
func (l *Liberica) VerifyExtracted(runtimeDir, archivePath string) error {
	return archive.VerifyTree(runtimeDir, archivePath)
}

// lookup queries one field. The index answers with one value per matching
// release; anything but exactly one value means the version or platform
// does not identify a single archive.
func (l *Liberica) lookup(ctx context.Context, field string) (string, error) {
	queryURL := l.QueryURL(field)

	body, err := l.downloader.FetchText(ctx, queryURL, fetch.RequestOptions{})
	if err != nil {
		return "", err
	}

	var values []string
	for _, line := range strings.Split(body, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			values = append(values, line)
		}
	}
	if len(values) != 1 {
		return "", &fetch.RemoteLookupError{
			URL: queryURL,
			Err: fmt.Errorf("expected exactly one %s value, got %d", field, len(values)),
		}
	}

	value := values[0]
	if field == fieldSHA1 && !isHexDigest(value, sha1.Size) {
		return "", &fetch.RemoteLookupError{URL: queryURL, Err: fmt.Errorf("malformed sha1 %q", value)}
	}
	return value, nil
}

func isHexDigest(s string, size int) bool {
	if len(s) != size*2 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

func fileSHA1(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hasher := sha1.New() //nolint:gosec // see import
	if _, err := io.Copy(hasher, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}
