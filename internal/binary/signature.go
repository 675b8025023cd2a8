package binary

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/ProtonMail/go-crypto/openpgp" //nolint:staticcheck // Using ProtonMail's maintained fork
	"github.com/jedisct1/go-minisign"
)

// Signature methods reported in InstallResult.Verified.
const (
	MethodSHA256   = "sha256"
	MethodPGP      = "pgp"
	MethodMinisign = "minisign"
)

// SignatureOptions configures detached signature verification. Signature is a
// local path or an http(s) URL; exactly one key must accompany it.
type SignatureOptions struct {
	Signature   string
	PGPKey      string
	MinisignKey string
}

// Enabled reports whether a signature check was requested.
func (o SignatureOptions) Enabled() bool {
	return o.Signature != "" || o.PGPKey != "" || o.MinisignKey != ""
}

// IsRemote reports whether the signature must be downloaded.
func (o SignatureOptions) IsRemote() bool {
	return strings.HasPrefix(o.Signature, "http://") || strings.HasPrefix(o.Signature, "https://")
}

// Method returns MethodPGP or MethodMinisign.
func (o SignatureOptions) Method() string {
	if o.MinisignKey != "" {
		return MethodMinisign
	}
	return MethodPGP
}

// Validate rejects half-configured or ambiguous options.
func (o SignatureOptions) Validate() error {
	if !o.Enabled() {
		return nil
	}
	if o.Signature == "" {
		return fmt.Errorf("%w: a signature key was given without a signature", ErrConfiguration)
	}
	switch {
	case o.PGPKey == "" && o.MinisignKey == "":
		return fmt.Errorf("%w: signature %s needs a PGP or minisign public key", ErrConfiguration, o.Signature)
	case o.PGPKey != "" && o.MinisignKey != "":
		return fmt.Errorf("%w: give either a PGP key or a minisign key, not both", ErrConfiguration)
	}
	return nil
}

// VerifySignature checks sig over data using the configured key and returns
// the method used.
func VerifySignature(data, sig []byte, opts SignatureOptions) (string, error) {
	if err := opts.Validate(); err != nil {
		return "", err
	}
	if opts.MinisignKey != "" {
		return MethodMinisign, verifyMinisign(data, sig, opts.MinisignKey)
	}
	return MethodPGP, verifyPGP(data, sig, opts.PGPKey)
}

func verifyPGP(data, sig []byte, keyPath string) error {
	keyring, err := loadKeyring(keyPath)
	if err != nil {
		return err
	}

	// Armored first, then binary.
	_, err = openpgp.CheckArmoredDetachedSignature(keyring, bytes.NewReader(data), bytes.NewReader(sig), nil)
	if err != nil {
		_, err = openpgp.CheckDetachedSignature(keyring, bytes.NewReader(data), bytes.NewReader(sig), nil)
	}
	if err != nil {
		return fmt.Errorf("%w: PGP signature: %v", ErrIntegrityMismatch, err)
	}
	return nil
}

func loadKeyring(keyPath string) (openpgp.EntityList, error) {
	raw, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("%w: read PGP key: %v", ErrConfiguration, err)
	}

	keyring, err := openpgp.ReadArmoredKeyRing(bytes.NewReader(raw))
	if err != nil {
		keyring, err = openpgp.ReadKeyRing(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("%w: read PGP keyring %s: %v", ErrConfiguration, keyPath, err)
		}
	}
	if len(keyring) == 0 {
		return nil, fmt.Errorf("%w: PGP keyring %s is empty", ErrConfiguration, keyPath)
	}
	return keyring, nil
}

func verifyMinisign(data, sig []byte, keyPath string) error {
	pubKey, err := minisign.NewPublicKeyFromFile(keyPath)
	if err != nil {
		return fmt.Errorf("%w: read minisign key %s: %v", ErrConfiguration, keyPath, err)
	}

	signature, err := minisign.DecodeSignature(string(sig))
	if err != nil {
		return fmt.Errorf("%w: minisign signature: %v", ErrIntegrityMismatch, err)
	}

	valid, err := pubKey.Verify(data, signature)
	if err != nil {
		return fmt.Errorf("%w: minisign: %v", ErrIntegrityMismatch, err)
	}
	if !valid {
		return fmt.Errorf("%w: minisign signature verification failed", ErrIntegrityMismatch)
	}
	return nil
}
