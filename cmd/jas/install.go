package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ZebulonRouseFrantzich/jas/internal/binary"
	"github.com/ZebulonRouseFrantzich/jas/internal/release"
)

// DefaultDir is used when neither --dir nor the config file set one.
const DefaultDir = "~/.jas/bin"

type installFlags struct {
	gh        string
	url       string
	sha       string
	dir       string
	assetName string

	binaryFilenames  []string
	archiveFilenames []string

	sig         string
	pgpKey      string
	minisignKey string
}

func newInstallCmd(a *app) *cobra.Command {
	var f installFlags

	cmd := &cobra.Command{
		Use:   "install",
		Short: "Install a binary from a GitHub release or a URL",
		Example: `  jas install --gh crate-ci/typos@v1.31.1 --sha <digest>
  jas install --url https://example.com/tool-linux-amd64.tar.gz --archive-filename tool
  jas install --gh jgm/pandoc@3.6.4 --archive-filename pandoc,pandoc-lua --binary-filename pandoc,pandoc-lua`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInstall(cmd, a, f)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.gh, "gh", "", "GitHub repository as owner/repo[@tag] (latest release without a tag)")
	flags.StringVar(&f.url, "url", "", "URL to download")
	flags.StringVar(&f.sha, "sha", "", "expected SHA-256 of the download (default: no verification)")
	flags.StringVar(&f.dir, "dir", "", "install directory (default: "+DefaultDir+")")
	flags.StringVar(&f.assetName, "asset-name", "", "release asset to install instead of guessing one for this platform")
	flags.StringSliceVar(&f.binaryFilenames, "binary-filename", nil, "name(s) of the installed binaries (default: the repo name or guessed from the URL)")
	flags.StringSliceVar(&f.archiveFilenames, "archive-filename", nil, "name(s) of the binaries inside the archive (default: guessed)")
	flags.StringVar(&f.sig, "sig", "", "detached signature file or URL")
	flags.StringVar(&f.pgpKey, "pgp-key", "", "PGP public key file to check --sig against")
	flags.StringVar(&f.minisignKey, "minisign-key", "", "minisign public key file to check --sig against")

	cmd.MarkFlagsMutuallyExclusive("gh", "url")
	cmd.MarkFlagsOneRequired("gh", "url")
	cmd.MarkFlagsMutuallyExclusive("pgp-key", "minisign-key")

	return cmd
}

func runInstall(cmd *cobra.Command, a *app, f installFlags) error {
	ctx := cmd.Context()

	fp, err := a.fingerprint()
	if err != nil {
		return err
	}

	req := binary.Request{
		SHA256:       f.sha,
		ArchiveFiles: f.archiveFilenames,
		OutputNames:  f.binaryFilenames,
		Signature: binary.SignatureOptions{
			Signature:   f.sig,
			PGPKey:      f.pgpKey,
			MinisignKey: f.minisignKey,
		},
	}

	if f.gh != "" {
		spec, err := release.ParseRepoSpec(f.gh)
		if err != nil {
			return err
		}
		req.Target = spec.Repo
		req.AssetName = f.assetName
		if req.AssetName == "" {
			req.AssetName = a.cfg.AssetFor(spec.Owner + "/" + spec.Repo)
		}
		if err := req.ValidateOptions(); err != nil {
			return err
		}
		if req.Assets, err = a.releaseClient().Assets(ctx, spec); err != nil {
			return err
		}
	} else {
		if f.assetName != "" {
			return fmt.Errorf("%w: --asset-name needs --gh", binary.ErrConfiguration)
		}
		req.URL = f.url
		req.Target = binary.GuessName(f.url)
	}

	dir := f.dir
	if dir == "" {
		dir = a.cfg.Dir
	}
	if dir == "" {
		dir = DefaultDir
	}

	mgr, err := binary.NewManager(binary.Config{
		Dir:         dir,
		Fingerprint: fp,
		Environment: a.env,
		Downloader:  a.downloader(),
		Logger:      &a.log,
	})
	if err != nil {
		return err
	}
	a.log.Debug().Msgf("Installing into %s", mgr.Dir())

	result, err := mgr.Install(ctx, req)
	if err != nil {
		return err
	}

	green := color.New(color.FgGreen, color.Bold).SprintFunc()
	for _, file := range result.Files {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", green("Installed"), file.Destination)
	}
	if len(result.Verified) > 0 {
		a.log.Debug().Strs("verified", result.Verified).Msg("Verification passed")
	}
	return nil
}
