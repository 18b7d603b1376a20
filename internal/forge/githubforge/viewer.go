package githubforge

import (
	"context"

	"github.com/shurcooL/graphql"

	"github.com/aviator-co/stackcore/internal/coreerrors"
)

// ViewerLogin queries the authenticated user's login, the same way the
// teacher's internal/avgql.ViewerSubquery checks that a token is live
// before trusting it for real work.
func (c *Client) ViewerLogin(ctx context.Context) (string, error) {
	var query struct {
		Viewer struct {
			Login graphql.String
		}
	}
	if err := c.query(ctx, &query, nil); err != nil {
		return "", classify(err)
	}
	if query.Viewer.Login == "" {
		return "", coreerrors.New("GitHub did not return a viewer login; is the token valid?")
	}
	return string(query.Viewer.Login), nil
}
