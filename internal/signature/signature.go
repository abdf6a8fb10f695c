// Package signature checks detached signatures over the application
// package. The signature format is detected from its content: armored
// OpenPGP or minisign.
package signature

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ProtonMail/go-crypto/openpgp" //nolint:staticcheck // Using ProtonMail's maintained fork
	"github.com/jedisct1/go-minisign"
)

// Format identifies a detached signature encoding.
type Format string

const (
	FormatPGP      Format = "pgp"
	FormatMinisign Format = "minisign"
)

const (
	pgpSignatureHeader = "-----BEGIN PGP SIGNATURE-----"
	minisignComment    = "untrusted comment:"
)

// ErrUnsupportedFormat is returned when a signature is neither armored
// OpenPGP nor minisign.
var ErrUnsupportedFormat = errors.New("unsupported signature format")

// VerificationError reports a signature that did not verify.
type VerificationError struct {
	Format Format
	Err    error
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("%s signature verification failed: %v", e.Format, e.Err)
}

func (e *VerificationError) Unwrap() error { return e.Err }

// DetectFormat inspects the leading line of a signature.
func DetectFormat(sig []byte) (Format, error) {
	trimmed := strings.TrimSpace(string(sig))
	switch {
	case strings.HasPrefix(trimmed, pgpSignatureHeader):
		return FormatPGP, nil
	case strings.HasPrefix(trimmed, minisignComment):
		return FormatMinisign, nil
	default:
		return "", ErrUnsupportedFormat
	}
}

// Verifier checks signatures against one trusted public key. The key is an
// OpenPGP keyring (armored or binary) for PGP signatures, or a minisign
// public key (bare base64 line or the full .pub file) for minisign ones.
type Verifier struct {
	publicKey []byte
}

// NewVerifier creates a verifier for publicKey.
func NewVerifier(publicKey []byte) (*Verifier, error) {
	if len(bytes.TrimSpace(publicKey)) == 0 {
		return nil, fmt.Errorf("public key is empty")
	}
	return &Verifier{publicKey: publicKey}, nil
}

// VerifyFile checks sig over the file at path and returns the detected
// format.
func (v *Verifier) VerifyFile(path string, sig []byte) (Format, error) {
	format, err := DetectFormat(sig)
	if err != nil {
		return "", err
	}

	file, err := os.Open(path)
	if err != nil {
		return format, fmt.Errorf("open signed file: %w", err)
	}
	defer file.Close()

	switch format {
	case FormatPGP:
		err = v.verifyPGP(file, sig)
	case FormatMinisign:
		err = v.verifyMinisign(file, sig)
	}
	if err != nil {
		return format, &VerificationError{Format: format, Err: err}
	}
	return format, nil
}

func (v *Verifier) verifyPGP(signed io.Reader, sig []byte) error {
	keyring, err := openpgp.ReadArmoredKeyRing(bytes.NewReader(v.publicKey))
	if err != nil {
		// Try reading as non-armored keyring
		keyring, err = openpgp.ReadKeyRing(bytes.NewReader(v.publicKey))
		if err != nil {
			return fmt.Errorf("read keyring: %w", err)
		}
	}
	if len(keyring) == 0 {
		return fmt.Errorf("keyring is empty")
	}

	if _, err := openpgp.CheckArmoredDetachedSignature(keyring, signed, bytes.NewReader(sig), nil); err != nil {
		return err
	}
	return nil
}

func (v *Verifier) verifyMinisign(signed io.Reader, sig []byte) error {
	pubKey, err := minisign.NewPublicKey(minisignKeyLine(string(v.publicKey)))
	if err != nil {
		return fmt.Errorf("read minisign pubkey: %w", err)
	}

	normalized := strings.TrimSpace(strings.ReplaceAll(string(sig), "\r\n", "\n"))
	signature, err := minisign.DecodeSignature(normalized)
	if err != nil {
		return fmt.Errorf("read minisign signature: %w", err)
	}

	content, err := io.ReadAll(signed)
	if err != nil {
		return fmt.Errorf("read signed file: %w", err)
	}

	valid, err := pubKey.Verify(content, signature)
	if err != nil {
		return err
	}
	if !valid {
		return fmt.Errorf("signature does not match")
	}
	return nil
}

// minisignKeyLine returns the base64 key line of a minisign public key,
// skipping the optional comment line of a .pub file.
func minisignKeyLine(key string) string {
	for _, line := range strings.Split(key, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, minisignComment) {
			continue
		}
		return line
	}
	return ""
}
