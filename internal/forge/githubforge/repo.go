package githubforge

import (
	"strings"

	giturls "github.com/chainguard-dev/git-urls"

	"github.com/aviator-co/stackcore/internal/coreerrors"
)

// DeriveOwnerRepo parses a remote URL (SSH or HTTPS), such as the output
// of `git remote get-url origin`, into the owner/repo pair NewClient needs.
func DeriveOwnerRepo(remoteURL string) (owner, repo string, err error) {
	u, err := giturls.Parse(remoteURL)
	if err != nil {
		return "", "", coreerrors.WrapIff(err, "failed to parse remote url %q", remoteURL)
	}
	slug := strings.TrimSuffix(u.Path, ".git")
	slug = strings.TrimPrefix(slug, "/")
	parts := strings.SplitN(slug, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", coreerrors.Errorf("remote url %q does not look like a GitHub owner/repo", remoteURL)
	}
	return parts[0], parts[1], nil
}
