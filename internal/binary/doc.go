// Package binary resolves, downloads, verifies and installs prebuilt release
// executables.
//
// # Pipeline
//
// A single install runs these stages in order, each blocking until complete:
//
//  1. MatchAsset picks the release asset for the running platform (or honours
//     an explicit asset name).
//  2. Downloader fetches the bytes into memory, retrying on timeouts only and
//     refusing payloads larger than MaxPayloadSize.
//  3. VerifySHA256 compares an optional expected digest; a detached PGP or
//     minisign signature is checked when configured.
//  4. Extractor unpacks .tar.gz, .tgz, .tar.xz and .zip archives into
//     <install_dir>/<archive name without suffix>. Anything else is treated as
//     a single raw executable.
//  5. WalkArchive flattens the extracted tree, descending through a single
//     wrapping directory or a bin directory.
//  6. LocateExplicit or GuessExecutable selects the file(s) to install.
//  7. Installer copies them into the install directory, marks them executable
//     and warns when the directory is not on PATH.
//
// # Errors
//
// Every failure wraps one of the sentinel errors below so the caller can use
// errors.Is. Only warnings (PATH, permission bits) are non-fatal.
//
// # Usage
//
//	mgr, err := binary.NewManager(binary.Config{
//	    Dir:         "/home/user/.jas/bin",
//	    Fingerprint: fp,
//	    Environment: binary.Environment{Home: home, Path: os.Getenv("PATH")},
//	})
//	if err != nil {
//	    return err
//	}
//
//	res, err := mgr.Install(ctx, binary.Request{
//	    Assets: assets,
//	    Target: "typos",
//	})
package binary
