// Package config loads the knobs stackcore's core actually consumes:
// the remote name, additional trunk branch names, the forge token, and
// the optimistic-concurrency retry bound. A forge base URL is loaded as
// well, but nothing reads it. It follows the
// teacher's internal/config.Load shape — a package-level struct
// populated by viper from a config file, then overridden by environment
// variables — generalized from GitHub-PR-only settings to this module's
// repository-reasoning scope.
package config

import (
	"os"

	"github.com/spf13/viper"

	"github.com/aviator-co/stackcore/internal/coreerrors"
)

// GitHub holds forge credentials and an endpoint setting. BaseURL is
// loaded but not used: internal/forge/githubforge always talks to
// https://api.github.com.
type GitHub struct {
	Token   string
	BaseURL string
}

// Repository holds per-repository knobs that aren't discoverable from
// the repository itself.
type Repository struct {
	// RemoteName is the git remote the forge adapter and Fetch/Push
	// operations target. Defaults to "origin".
	RemoteName string

	// AdditionalTrunkBranches supplements the canonical trunk-detection
	// rule (local checkout, or a canonical name mirrored locally) with
	// names the source repository treats as trunks but that wouldn't
	// otherwise be recognized (e.g. a long-lived "release" branch).
	AdditionalTrunkBranches []string
}

// Retry bounds the optimistic-concurrency retry loop over the session
// store (update_with_retry).
type Retry struct {
	MaxAttempts int
}

// Core is the package-level configuration value every component reads
// from, populated by Load. It carries defaults so a caller that never
// calls Load still gets sane behavior.
var Core = struct {
	Repository Repository
	GitHub     GitHub
	Retry      Retry
}{
	Repository: Repository{
		RemoteName: "origin",
	},
	GitHub: GitHub{
		BaseURL: "https://github.com",
	},
	Retry: Retry{
		MaxAttempts: 5,
	},
}

// Load reads configuration from the usual places (XDG config dir,
// $HOME/.config/stackcore, $HOME/.stackcore, and any additional paths
// the caller supplies — typically the repository's .git directory) and
// then applies environment variable overrides. It returns whether a
// config file was found and any error encountered reading or decoding
// one; a missing config file is not itself an error.
func Load(paths []string) (bool, error) {
	found, err := loadFromFile(paths)
	loadFromEnv()
	return found, err
}

func loadFromFile(paths []string) (bool, error) {
	v := viper.New()
	v.SetConfigName("config")

	v.AddConfigPath("$XDG_CONFIG_HOME/stackcore")
	v.AddConfigPath("$HOME/.config/stackcore")
	v.AddConfigPath("$HOME/.stackcore")
	v.AddConfigPath("$STACKCORE_HOME")
	for _, path := range paths {
		v.AddConfigPath(path)
	}

	if err := v.ReadInConfig(); err != nil {
		if coreerrors.As(err, &viper.ConfigFileNotFoundError{}) {
			return false, nil
		}
		return false, err
	}

	if err := v.Unmarshal(&Core); err != nil {
		return true, coreerrors.Wrap(err, "failed to decode stackcore config")
	}

	return true, nil
}

func loadFromEnv() {
	if token := os.Getenv("STACKCORE_GITHUB_TOKEN"); token != "" {
		Core.GitHub.Token = token
	} else if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		Core.GitHub.Token = token
	}
	if baseURL := os.Getenv("STACKCORE_GITHUB_BASE_URL"); baseURL != "" {
		Core.GitHub.BaseURL = baseURL
	}
	if remote := os.Getenv("STACKCORE_REMOTE_NAME"); remote != "" {
		Core.Repository.RemoteName = remote
	}
}
