package github

import (
	"context"
	"fmt"
	"iter"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/kottos/pkg/domain/types"
	"github.com/secmon-lab/kottos/pkg/service/tracker"
	"github.com/shurcooL/githubv4"
)

const searchPageSize = 50

// Client is a GitHub issue tracker backed by a GitHub App installation
type Client struct {
	gql   *githubv4.Client
	scope string
	users map[string]types.UserID
}

var _ tracker.Client = &Client{}

type Option func(*Client)

// WithUserMapping maps GitHub logins to organization user IDs. Unmapped
// logins are used as user IDs verbatim.
func WithUserMapping(users map[string]types.UserID) Option {
	return func(c *Client) {
		c.users = users
	}
}

// New creates a GitHub tracker client using GitHub App authentication.
// privateKey can be a PEM string or a file path to a PEM file. scope is a
// search qualifier such as "org:secmon-lab" or "repo:owner/name".
func New(appID, installationID int64, privateKey, scope string, opts ...Option) (*Client, error) {
	var key []byte

	// #nosec G304 -- path comes from CLI flag, not user input
	if data, err := os.ReadFile(privateKey); err == nil {
		key = data
	} else {
		key = []byte(privateKey)
	}

	tr, err := ghinstallation.New(http.DefaultTransport, appID, installationID, key)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create GitHub App transport")
	}

	c := &Client{
		gql:   githubv4.NewClient(&http.Client{Transport: tr}),
		scope: scope,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) Source() types.ExternalSource {
	return types.ExternalSourceGitHub
}

// SearchAssigned searches issues (not pull requests) in the client's scope.
// One search runs per assignee; with no assignees a single search runs and
// unassigned issues are skipped.
func (c *Client) SearchAssigned(ctx context.Context, q tracker.Query) iter.Seq2[*tracker.Issue, error] {
	return func(yield func(*tracker.Issue, error) bool) {
		assignees := q.Assignees
		if len(assignees) == 0 {
			assignees = []string{""}
		}

		yielded := 0
		seen := make(map[string]struct{})
		for _, assignee := range assignees {
			for issue, err := range c.search(ctx, buildSearchQuery(c.scope, assignee, q.UpdatedSince)) {
				if err != nil {
					yield(nil, err)
					return
				}
				if issue.AssigneeID == "" {
					continue
				}
				if _, dup := seen[issue.ID]; dup {
					continue
				}
				seen[issue.ID] = struct{}{}

				if !yield(issue, nil) {
					return
				}
				yielded++
				if q.Limit > 0 && yielded >= q.Limit {
					return
				}
			}
		}
	}
}

func buildSearchQuery(scope, assignee string, since time.Time) string {
	parts := []string{"is:issue"}
	if scope != "" {
		parts = append(parts, scope)
	}
	if assignee != "" {
		parts = append(parts, "assignee:"+assignee)
	}
	if !since.IsZero() {
		parts = append(parts, "updated:>="+since.UTC().Format("2006-01-02T15:04:05Z"))
	}
	parts = append(parts, "sort:updated-asc")
	return strings.Join(parts, " ")
}

func (c *Client) search(ctx context.Context, query string) iter.Seq2[*tracker.Issue, error] {
	return func(yield func(*tracker.Issue, error) bool) {
		var cursor *githubv4.String

		for {
			var q searchIssueQuery
			variables := map[string]interface{}{
				"query":  githubv4.String(query),
				"first":  githubv4.Int(searchPageSize),
				"cursor": cursor,
			}

			if err := c.gql.Query(ctx, &q, variables); err != nil {
				yield(nil, goerr.Wrap(err, "failed to search issues", goerr.V("query", query)))
				return
			}

			for _, edge := range q.Search.Edges {
				if !yield(convertIssue(edge.Node.Issue, c.users), nil) {
					return
				}
			}

			if !q.Search.PageInfo.HasNextPage {
				return
			}
			cursor = &q.Search.PageInfo.EndCursor
		}
	}
}

// GraphQL query types

type searchIssueQuery struct {
	Search struct {
		Edges []struct {
			Node struct {
				Issue issueNode `graphql:"... on Issue"`
			}
		}
		PageInfo pageInfo
	} `graphql:"search(query: $query, type: ISSUE, first: $first, after: $cursor)"`
}

type issueNode struct {
	ID          githubv4.ID
	Number      githubv4.Int
	Title       githubv4.String
	Body        githubv4.String
	State       githubv4.String
	StateReason githubv4.String
	URL         githubv4.String
	UpdatedAt   githubv4.DateTime
	Repository  struct {
		NameWithOwner githubv4.String
	}
	Author struct {
		Login githubv4.String
	}
	Assignees struct {
		Nodes []struct {
			Login githubv4.String
		}
	} `graphql:"assignees(first: 10)"`
	Labels struct {
		Nodes []struct {
			Name githubv4.String
		}
	} `graphql:"labels(first: 30)"`
	Milestone struct {
		Title githubv4.String
	}
}

type pageInfo struct {
	HasNextPage bool
	EndCursor   githubv4.String
}

func resolveLogin(login string, users map[string]types.UserID) types.UserID {
	if login == "" {
		return ""
	}
	if id, ok := users[login]; ok {
		return id
	}
	return types.UserID(login)
}

func convertIssue(node issueNode, users map[string]types.UserID) *tracker.Issue {
	var labels []string
	for _, l := range node.Labels.Nodes {
		labels = append(labels, string(l.Name))
	}

	var assignee types.UserID
	if len(node.Assignees.Nodes) > 0 {
		assignee = resolveLogin(string(node.Assignees.Nodes[0].Login), users)
	}

	ann := parseLabels(labels)

	return &tracker.Issue{
		Source:      types.ExternalSourceGitHub,
		ID:          fmt.Sprint(node.ID),
		Key:         fmt.Sprintf("%s#%d", node.Repository.NameWithOwner, node.Number),
		Title:       string(node.Title),
		Body:        string(node.Body),
		URL:         string(node.URL),
		Status:      issueStatus(string(node.State), string(node.StateReason), ann.workflow),
		Priority:    ann.priority,
		Labels:      labels,
		Sprint:      string(node.Milestone.Title),
		StoryPoints: ann.storyPoints,
		AssigneeID:  assignee,
		ReporterID:  resolveLogin(string(node.Author.Login), users),
		UpdatedAt:   node.UpdatedAt.Time,
	}
}
