package github

import (
	"github.com/secmon-lab/kottos/pkg/domain/types"
	"github.com/secmon-lab/kottos/pkg/service/tracker"
	"github.com/shurcooL/githubv4"
)

var BuildSearchQuery = buildSearchQuery

// IssueNodeForTest builds the GraphQL node fields used by conversion
type IssueNodeForTest struct {
	ID          string
	Number      int
	Repo        string
	Title       string
	State       string
	StateReason string
	Assignees   []string
	Author      string
	Labels      []string
	Milestone   string
}

func ConvertIssueForTest(in IssueNodeForTest, users map[string]types.UserID) *tracker.Issue {
	var node issueNode
	node.ID = githubv4.ID(in.ID)
	node.Number = githubv4.Int(in.Number)
	node.Repository.NameWithOwner = githubv4.String(in.Repo)
	node.Title = githubv4.String(in.Title)
	node.State = githubv4.String(in.State)
	node.StateReason = githubv4.String(in.StateReason)
	node.Author.Login = githubv4.String(in.Author)
	node.Milestone.Title = githubv4.String(in.Milestone)
	for _, a := range in.Assignees {
		node.Assignees.Nodes = append(node.Assignees.Nodes, struct {
			Login githubv4.String
		}{Login: githubv4.String(a)})
	}
	for _, l := range in.Labels {
		node.Labels.Nodes = append(node.Labels.Nodes, struct {
			Name githubv4.String
		}{Name: githubv4.String(l)})
	}
	return convertIssue(node, users)
}
