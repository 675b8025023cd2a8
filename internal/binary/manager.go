package binary

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ZebulonRouseFrantzich/jas/internal/platform"
	"github.com/ZebulonRouseFrantzich/jas/internal/transaction"
)

// Manager orchestrates asset selection, download, verification and
// installation.
type Manager struct {
	dir        string
	fp         platform.Fingerprint
	env        Environment
	downloader *Downloader
	extractor  *Extractor
	installer  *Installer
	log        zerolog.Logger
}

// Config holds configuration for the manager.
type Config struct {
	// Dir is the install directory. A leading ~/ is expanded with
	// Environment.Home.
	Dir string
	// Fingerprint is the platform being installed onto.
	Fingerprint platform.Fingerprint
	// Environment replaces direct reads of HOME, PATH and SHELL.
	Environment Environment
	// Downloader defaults to NewDownloader().
	Downloader *Downloader
	// Logger defaults to zerolog.Nop().
	Logger *zerolog.Logger
}

// NewManager creates a new manager.
func NewManager(config Config) (*Manager, error) {
	if config.Dir == "" {
		return nil, fmt.Errorf("%w: install directory is required", ErrConfiguration)
	}
	if config.Fingerprint == (platform.Fingerprint{}) {
		return nil, fmt.Errorf("%w: platform fingerprint is required", ErrConfiguration)
	}

	dir, err := ExpandHome(config.Dir, config.Environment.Home)
	if err != nil {
		return nil, err
	}

	log := zerolog.Nop()
	if config.Logger != nil {
		log = *config.Logger
	}

	downloader := config.Downloader
	if downloader == nil {
		downloader = NewDownloader(WithLogger(log))
	}

	return &Manager{
		dir:        dir,
		fp:         config.Fingerprint,
		env:        config.Environment,
		downloader: downloader,
		extractor:  NewExtractor(log),
		installer:  NewInstaller(dir, config.Fingerprint, config.Environment, log),
		log:        log,
	}, nil
}

// Dir returns the expanded install directory.
func (m *Manager) Dir() string {
	return m.dir
}

// Install runs the whole pipeline for one request.
func (m *Manager) Install(ctx context.Context, req Request) (*InstallResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	downloadURL, assetName, err := m.resolve(req)
	if err != nil {
		return nil, err
	}
	result := &InstallResult{URL: downloadURL, AssetName: assetName}

	m.log.Info().Msgf("Downloading %s", downloadURL)
	payload, err := m.downloader.Fetch(ctx, downloadURL)
	if err != nil {
		return nil, err
	}
	if assetName != "" {
		payload.Name = assetName
	}

	if err := VerifySHA256(payload.Name, payload.Data, req.SHA256); err != nil {
		return nil, err
	}
	if req.SHA256 != "" {
		m.log.Debug().Msg("SHA-256 digest matches")
		result.Verified = append(result.Verified, MethodSHA256)
	} else {
		m.log.Debug().Msg("No SHA-256 digest given, skipping verification")
	}

	if req.Signature.Enabled() {
		method, err := m.verifySignature(ctx, payload, req.Signature)
		if err != nil {
			return nil, err
		}
		m.log.Debug().Msgf("%s signature is valid", method)
		result.Verified = append(result.Verified, method)
	}

	lock, err := transaction.AcquireLock(ctx, m.dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFilesystem, err)
	}
	defer func() {
		if err := lock.Release(); err != nil {
			m.log.Warn().Err(err).Msg("Failed to release install lock")
		}
	}()

	if DetectFormat(payload.Name) == FormatRaw {
		file, err := m.installer.PlaceBytes(payload, rawOutputName(req))
		if err != nil {
			return nil, err
		}
		result.Files = []InstalledFile{file}
	} else {
		files, err := m.installArchive(payload, req.Executables())
		if err != nil {
			return nil, err
		}
		result.Files = files
	}

	result.OnPath = m.installer.CheckOnPath()
	return result, nil
}

// resolve returns the download URL and, for release assets, the asset name.
func (m *Manager) resolve(req Request) (string, string, error) {
	if req.URL != "" {
		return req.URL, "", nil
	}

	asset, err := SelectAsset(req.Assets, m.fp, req.AssetName)
	if err != nil {
		return "", "", err
	}
	m.log.Debug().Msgf("Selected asset %s for %s", asset.Name, m.fp)
	if asset.URL == "" {
		return "", "", fmt.Errorf("%w: asset %s has no download URL", ErrAssetNotFound, asset.Name)
	}
	return asset.URL, asset.Name, nil
}

func (m *Manager) verifySignature(ctx context.Context, payload *Payload, opts SignatureOptions) (string, error) {
	var (
		sig []byte
		err error
	)
	if opts.IsRemote() {
		var p *Payload
		p, err = m.downloader.Fetch(ctx, opts.Signature)
		if err == nil {
			sig = p.Data
		}
	} else {
		var sigPath string
		sigPath, err = ExpandHome(opts.Signature, m.env.Home)
		if err == nil {
			sig, err = os.ReadFile(sigPath)
			if err != nil {
				err = fmt.Errorf("%w: read signature: %v", ErrConfiguration, err)
			}
		}
	}
	if err != nil {
		return "", err
	}

	if opts.PGPKey, err = ExpandHome(opts.PGPKey, m.env.Home); err != nil {
		return "", err
	}
	if opts.MinisignKey, err = ExpandHome(opts.MinisignKey, m.env.Home); err != nil {
		return "", err
	}
	return VerifySignature(payload.Data, sig, opts)
}

// installArchive extracts payload and places the requested executables. The
// extraction directory is removed afterwards whatever the outcome.
func (m *Manager) installArchive(payload *Payload, exe ExecutableRequest) ([]InstalledFile, error) {
	staged := false
	extractDir, err := m.extractor.Extract(payload, m.dir)
	defer func() {
		if staged {
			return
		}
		dir := ExtractionDir(m.dir, payload.Name)
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			m.log.Warn().Err(rmErr).Msgf("Failed to remove %s", dir)
		}
	}()
	if err != nil {
		return nil, err
	}

	entries, err := WalkArchive(extractDir)
	if err != nil {
		return nil, err
	}
	m.log.Debug().Int("entries", len(entries)).Msgf("Walked %s", extractDir)

	var todo []placement

	if len(exe.ArchiveFiles) > 0 {
		found, err := LocateExplicit(entries, exe.ArchiveFiles, m.fp)
		if err != nil {
			return nil, err
		}
		for i, e := range found {
			name := e.Base()
			if len(exe.OutputNames) > 0 {
				name = exe.OutputNames[i]
			}
			todo = append(todo, placement{e, name})
		}
	} else {
		e, err := GuessExecutable(entries, exe.Target)
		if err != nil {
			return nil, err
		}
		name := exe.Target
		if len(exe.OutputNames) == 1 {
			name = exe.OutputNames[0]
		}
		todo = append(todo, placement{e, withSourceExtension(name, e.Base())})
	}

	for _, p := range todo {
		if strings.EqualFold(p.name, filepath.Base(extractDir)) {
			staged = true
			return m.placeStaged(extractDir, todo...)
		}
	}

	files := make([]InstalledFile, 0, len(todo))
	for _, p := range todo {
		src := filepath.Join(extractDir, filepath.FromSlash(p.entry.Path))
		file, err := m.installer.Place(src, p.name)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, nil
}

type placement struct {
	entry Entry
	name  string
}

// placeStaged handles an output name equal to the extraction directory's
// name: the files are read into memory and the directory removed before
// anything is written.
func (m *Manager) placeStaged(extractDir string, todo ...placement) ([]InstalledFile, error) {
	data := make([][]byte, len(todo))
	for i, p := range todo {
		src := filepath.Join(extractDir, filepath.FromSlash(p.entry.Path))
		b, err := os.ReadFile(src)
		if err != nil {
			return nil, fmt.Errorf("%w: read %s: %v", ErrFilesystem, src, err)
		}
		data[i] = b
	}
	if err := os.RemoveAll(extractDir); err != nil {
		return nil, fmt.Errorf("%w: remove %s: %v", ErrFilesystem, extractDir, err)
	}

	files := make([]InstalledFile, 0, len(todo))
	for i, p := range todo {
		src := filepath.Join(extractDir, filepath.FromSlash(p.entry.Path))
		file, err := m.installer.PlaceData(data[i], src, p.name)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, nil
}

// withSourceExtension keeps a located file's .exe when name has no
// extension of its own.
func withSourceExtension(name, source string) string {
	if path.Ext(name) == "" && strings.EqualFold(path.Ext(source), ".exe") {
		return name + path.Ext(source)
	}
	return name
}

func rawOutputName(req Request) string {
	switch {
	case len(req.OutputNames) > 0:
		return req.OutputNames[0]
	case req.Target != "":
		return req.Target
	default:
		return req.ArchiveFiles[0]
	}
}

// ExpandHome replaces a leading ~ or ~/ with home.
func ExpandHome(p, home string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") && !strings.HasPrefix(p, `~\`) {
		return p, nil
	}
	if home == "" {
		return "", fmt.Errorf("%w: cannot expand %s: home directory is not set", ErrConfiguration, p)
	}
	if p == "~" {
		return home, nil
	}
	return filepath.Join(home, p[2:]), nil
}

// GuessName derives an executable name from a download URL: the last path
// segment up to the first '-', without archive or .exe suffixes.
func GuessName(rawURL string) string {
	name := rawURL
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	name = strings.TrimRight(name, "/")
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	name = TrimArchiveSuffix(name)
	if i := strings.Index(name, "-"); i > 0 {
		name = name[:i]
	}
	if strings.EqualFold(path.Ext(name), ".exe") {
		name = name[:len(name)-4]
	}
	return name
}
