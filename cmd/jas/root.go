package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ZebulonRouseFrantzich/jas/internal/binary"
	"github.com/ZebulonRouseFrantzich/jas/internal/config"
	"github.com/ZebulonRouseFrantzich/jas/internal/platform"
	"github.com/ZebulonRouseFrantzich/jas/internal/release"
)

// rootOptions carries everything the commands would otherwise read from the
// process, so tests can run them in isolation.
type rootOptions struct {
	Version   string
	LookupEnv func(string) (string, bool)
	Stdout    io.Writer
	Stderr    io.Writer

	// Detector defaults to platform.NewDetector().
	Detector platform.Detector
	// APIBaseURL defaults to release.DefaultBaseURL.
	APIBaseURL string
}

// app is the state shared by subcommands once the root has run its
// PersistentPreRunE.
type app struct {
	opts rootOptions

	verbose    bool
	ansi       bool
	configPath string

	env         binary.Environment
	platform    *platform.Info
	platformErr error
	cfg         *config.Config
	log      zerolog.Logger
}

func (a *app) getenv(key string) string {
	v, _ := a.opts.LookupEnv(key)
	return v
}

// environment reads HOME, PATH and SHELL once.
func (a *app) environment() binary.Environment {
	home := a.getenv("HOME")
	if home == "" {
		home = a.getenv("USERPROFILE")
	}
	return binary.Environment{Home: home, Path: a.getenv("PATH"), Shell: a.getenv("SHELL")}
}

func (a *app) userAgent() string {
	return "jas/" + a.opts.Version
}

func (a *app) downloader() *binary.Downloader {
	return binary.NewDownloader(
		binary.WithLogger(a.log),
		binary.WithUserAgent(a.userAgent()),
		binary.WithToken(a.getenv("GITHUB_TOKEN")),
	)
}

func (a *app) releaseClient() *release.Client {
	c := release.NewClient()
	if a.opts.APIBaseURL != "" {
		c.BaseURL = a.opts.APIBaseURL
	}
	c.Token = a.getenv("GITHUB_TOKEN")
	c.UserAgent = a.userAgent()
	c.Log = a.log
	return c
}

// setup loads the config file and builds the logger. Flags win over the
// config file, which wins over defaults.
func (a *app) setup(cmd *cobra.Command) error {
	a.env = a.environment()

	detector := a.opts.Detector
	if detector == nil {
		detector = platform.NewDetector()
	}
	// A failed detection only matters to commands that need the fingerprint.
	var parserDetector platform.Detector
	if info, err := detector.Detect(cmd.Context()); err != nil {
		a.platformErr = err
	} else {
		a.platform = info
		parserDetector = platform.StaticDetector{Info: info}
	}

	loaded, err := config.Load(cmd.Context(), config.NewParser(parserDetector), config.Lookup{
		Explicit:      a.configPath,
		XDGConfigHome: a.getenv("XDG_CONFIG_HOME"),
		Home:          a.env.Home,
	})
	if err != nil {
		return fmt.Errorf("%w: %s", binary.ErrConfiguration, config.FormatError(err, a.verbose))
	}
	a.cfg = loaded.Config

	flags := cmd.Flags()
	if !flags.Changed("verbose") && a.cfg.Verbose != nil {
		a.verbose = *a.cfg.Verbose
	}
	if !flags.Changed("ansi") {
		switch {
		case a.cfg.ANSI != nil:
			a.ansi = *a.cfg.ANSI
		default:
			a.ansi = isTerminal(a.opts.Stderr)
		}
	}
	color.NoColor = !a.ansi

	a.log = config.NewLogger(a.opts.Stderr, config.LogOptions{Verbose: a.verbose, ANSI: a.ansi})
	if loaded.Path != "" {
		a.log.Debug().Msgf("Loaded config from %s", loaded.Path)
	}
	if len(loaded.Findings) > 0 {
		a.log.Warn().Msg(config.FormatSensitiveDataWarning(loaded.Path, loaded.Findings))
	}
	if a.platformErr != nil {
		a.log.Debug().Err(a.platformErr).Msg("Platform detection failed")
	} else {
		a.log.Debug().Msgf("Platform: %s", a.platform.Fingerprint)
	}
	return nil
}

// fingerprint returns the detected platform or the detection error.
func (a *app) fingerprint() (platform.Fingerprint, error) {
	if a.platformErr != nil {
		return platform.Fingerprint{}, a.platformErr
	}
	return a.platform.Fingerprint, nil
}

// isTerminal checks if w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func newRootCmd(opts rootOptions) *cobra.Command {
	if opts.LookupEnv == nil {
		opts.LookupEnv = func(string) (string, bool) { return "", false }
	}
	a := &app{opts: opts}

	cmd := &cobra.Command{
		Use:           "jas",
		Short:         "Install prebuilt binaries from GitHub releases or URLs",
		Version:       opts.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
	}
	cmd.SetOut(opts.Stdout)
	cmd.SetErr(opts.Stderr)

	cmd.PersistentFlags().BoolVar(&a.verbose, "verbose", false, "print debug output")
	cmd.PersistentFlags().BoolVar(&a.ansi, "ansi", true, "use ANSI colours (default: when stderr is a terminal)")
	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/jas/config.lua)")

	cmd.AddCommand(newInstallCmd(a), newShaCmd(a))
	return cmd
}
