package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ZebulonRouseFrantzich/jas/internal/binary"
	"github.com/ZebulonRouseFrantzich/jas/internal/release"
)

func newShaCmd(a *app) *cobra.Command {
	var path, url, gh, assetName string

	cmd := &cobra.Command{
		Use:   "sha",
		Short: "Print the SHA-256 of a file, a URL or a release asset",
		Long: `Print the lowercase hex SHA-256 digest to pass to "jas install --sha".

With --gh the asset is chosen the same way "jas install --gh" chooses it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var (
				digest string
				err    error
			)
			switch {
			case path != "":
				digest, err = a.shaOfPath(path)
			case url != "":
				digest, err = a.shaOfURL(cmd, binary.NormalizeURL(url))
			default:
				digest, err = a.shaOfRelease(cmd, gh, assetName)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), digest)
			return nil
		},
	}

	cmd.Flags().StringVar(&path, "path", "", "file to hash")
	cmd.Flags().StringVar(&url, "url", "", "URL to download and hash")
	cmd.Flags().StringVar(&gh, "gh", "", "GitHub repository as owner/repo[@tag]")
	cmd.Flags().StringVar(&assetName, "asset-name", "", "release asset to hash instead of guessing one for this platform")
	cmd.MarkFlagsMutuallyExclusive("path", "url", "gh")
	cmd.MarkFlagsOneRequired("path", "url", "gh")

	return cmd
}

func (a *app) shaOfPath(path string) (string, error) {
	expanded, err := binary.ExpandHome(path, a.env.Home)
	if err != nil {
		return "", err
	}
	return binary.HashFile(expanded)
}

func (a *app) shaOfURL(cmd *cobra.Command, url string) (string, error) {
	payload, err := a.downloader().Fetch(cmd.Context(), url)
	if err != nil {
		return "", err
	}
	return binary.HashBytes(payload.Data), nil
}

func (a *app) shaOfRelease(cmd *cobra.Command, gh, assetName string) (string, error) {
	fp, err := a.fingerprint()
	if err != nil {
		return "", err
	}
	spec, err := release.ParseRepoSpec(gh)
	if err != nil {
		return "", err
	}
	assets, err := a.releaseClient().Assets(cmd.Context(), spec)
	if err != nil {
		return "", err
	}
	if assetName == "" {
		assetName = a.cfg.AssetFor(spec.Owner + "/" + spec.Repo)
	}
	asset, err := binary.SelectAsset(assets, fp, assetName)
	if err != nil {
		return "", err
	}
	a.log.Info().Msgf("Hashing %s", asset.Name)
	return a.shaOfURL(cmd, asset.URL)
}
