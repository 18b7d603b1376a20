// Package githubforge implements forge.Forge against GitHub's GraphQL v4
// API: an oauth2-backed httpClient/githubv4.Client pair, with query/mutate
// wrappers that log timing and outcome.
package githubforge

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/shurcooL/githubv4"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/aviator-co/stackcore/internal/coreerrors"
	"github.com/aviator-co/stackcore/internal/utils/logutils"
)

const githubAPIBaseURL = "https://api.github.com"

// graphQLClient is the subset of *githubv4.Client this package calls,
// narrowed to an interface so tests can substitute a fake without standing
// up an HTTP server.
type graphQLClient interface {
	Query(ctx context.Context, q interface{}, variables map[string]interface{}) error
	Mutate(ctx context.Context, m interface{}, input githubv4.Input, variables map[string]interface{}) error
}

// Client implements forge.Forge for a single GitHub repository.
type Client struct {
	httpClient *http.Client
	gh         graphQLClient
	owner      string
	repo       string
}

// NewClient builds a Client authenticated with a personal access token
// (or fine-grained/app token), scoped to one owner/repo pair.
func NewClient(token, owner, repo string) (*Client, error) {
	if token == "" {
		return nil, coreerrors.Errorf("no GitHub token provided (do you need to configure one?)")
	}
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := oauth2.NewClient(context.Background(), src)
	return &Client{httpClient: httpClient, gh: githubv4.NewClient(httpClient), owner: owner, repo: repo}, nil
}

func (c *Client) query(ctx context.Context, query any, variables map[string]any) (reterr error) {
	log := logrus.WithField("variables", logutils.Format("%#+v", variables))
	log.Debug("executing GitHub API query...")
	start := time.Now()
	defer func() {
		log := log.WithField("elapsed", time.Since(start))
		if reterr != nil {
			log.WithError(reterr).Debug("GitHub API query failed")
		} else {
			log.Debug("GitHub API query succeeded")
		}
	}()
	return c.gh.Query(ctx, query, variables)
}

func (c *Client) mutate(ctx context.Context, mutation any, input githubv4.Input, variables map[string]any) (reterr error) {
	log := logrus.WithField("input", logutils.Format("%#+v", input))
	log.Debug("executing GitHub API mutation...")
	start := time.Now()
	defer func() {
		log := log.WithField("elapsed", time.Since(start))
		if reterr != nil {
			log.WithError(reterr).Debug("GitHub API mutation failed")
		} else {
			log.Debug("GitHub API mutation succeeded")
		}
	}()
	return c.gh.Mutate(ctx, mutation, input, variables)
}

// restRequest executes a REST call against endpoint (e.g.
// /repos/:owner/:repo/git/refs/heads/foo) and unmarshals the response into
// result, unless result is nil or the request has no body to read.
func (c *Client) restRequest(ctx context.Context, method, endpoint string, body, result any) error {
	if endpoint[0] != '/' {
		logrus.WithField("endpoint", endpoint).Panicf("malformed REST endpoint")
	}
	start := time.Now()
	url := githubAPIBaseURL + endpoint
	log := logrus.WithFields(logrus.Fields{"url": url, "method": method})

	var bodyReader io.Reader
	if body != nil {
		bodyJSON, err := json.Marshal(body)
		if err != nil {
			return coreerrors.Wrap(err, "failed to marshal request body to JSON")
		}
		bodyReader = bytes.NewBuffer(bodyJSON)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return coreerrors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	log.Debug("executing GitHub API request...")
	res, err := c.httpClient.Do(req)
	if err != nil {
		return coreerrors.Wrap(err, "failed to make API request")
	}
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return coreerrors.Wrap(err, "failed to read response body")
	}
	log.WithField("elapsed", time.Since(start)).Debug("GitHub API request completed")

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		log.WithFields(logrus.Fields{"status": res.StatusCode, "body": string(resBody)}).Debug("GitHub API request failed")
		return classifyHTTPStatus(res.StatusCode, endpoint, string(resBody))
	}
	if result == nil || len(resBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(resBody, result); err != nil {
		return coreerrors.Wrap(err, "failed to unmarshal response body")
	}
	return nil
}

func (c *Client) restDelete(ctx context.Context, endpoint string) error {
	return c.restRequest(ctx, http.MethodDelete, endpoint, nil, nil)
}

// ptr returns a pointer to v; convenient for GraphQL input structs whose
// optional fields are expressed as pointers.
func ptr[T any](v T) *T { return &v }

// nullable returns a pointer to v unless it's the zero value, in which case
// it returns nil — Go has no unset/zero distinction but GraphQL does.
func nullable[T comparable](v T) *T {
	var zero T
	if v == zero {
		return nil
	}
	return &v
}
