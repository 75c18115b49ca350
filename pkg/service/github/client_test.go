package github_test

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/kottos/pkg/domain/types"
	"github.com/secmon-lab/kottos/pkg/service/github"
	"github.com/secmon-lab/kottos/pkg/service/tracker"
)

func TestBuildSearchQuery(t *testing.T) {
	since := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	gt.Value(t, github.BuildSearchQuery("org:secmon-lab", "octocat", since)).
		Equal("is:issue org:secmon-lab assignee:octocat updated:>=2026-01-02T03:04:05Z sort:updated-asc")
	gt.Value(t, github.BuildSearchQuery("", "", time.Time{})).
		Equal("is:issue sort:updated-asc")
}

func TestConvertIssue(t *testing.T) {
	users := map[string]types.UserID{"octocat": "user_alice"}

	testCases := []struct {
		name        string
		in          github.IssueNodeForTest
		status      string
		priority    string
		storyPoints float64
	}{
		{
			name:   "open issue",
			in:     github.IssueNodeForTest{State: "OPEN"},
			status: "Open",
		},
		{
			name:     "in progress label with priority label",
			in:       github.IssueNodeForTest{State: "OPEN", Labels: []string{"bug", "In Progress", "priority: high", "sp: 3"}},
			status:   "In Progress",
			priority: "high",

			storyPoints: 3,
		},
		{
			name:     "closed as completed",
			in:       github.IssueNodeForTest{State: "CLOSED", StateReason: "COMPLETED", Labels: []string{"in progress", "P0"}},
			status:   "Closed",
			priority: "p0",
		},
		{
			name:   "closed as not planned",
			in:     github.IssueNodeForTest{State: "CLOSED", StateReason: "NOT_PLANNED"},
			status: "Not planned",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			in := tc.in
			in.ID = "I_kwDO123"
			in.Number = 42
			in.Repo = "secmon-lab/kottos"
			in.Title = "Fix crash"
			in.Assignees = []string{"octocat", "hubot"}
			in.Author = "hubot"
			in.Milestone = "Sprint 7"

			issue := github.ConvertIssueForTest(in, users)
			gt.Value(t, issue.Source).Equal(types.ExternalSourceGitHub)
			gt.Value(t, issue.ID).Equal("I_kwDO123")
			gt.Value(t, issue.Key).Equal("secmon-lab/kottos#42")
			gt.Value(t, issue.Status).Equal(tc.status)
			gt.Value(t, issue.Priority).Equal(tc.priority)
			gt.Value(t, issue.StoryPoints).Equal(tc.storyPoints)
			gt.Value(t, issue.Sprint).Equal("Sprint 7")
			gt.Value(t, issue.AssigneeID).Equal(types.UserID("user_alice"))
			gt.Value(t, issue.ReporterID).Equal(types.UserID("hubot"))
		})
	}
}

func TestSearchAssigned(t *testing.T) {
	appID := os.Getenv("TEST_GITHUB_APP_ID")
	installationID := os.Getenv("TEST_GITHUB_INSTALLATION_ID")
	privateKey := os.Getenv("TEST_GITHUB_PRIVATE_KEY")
	scope := os.Getenv("TEST_GITHUB_SEARCH_SCOPE")
	if appID == "" || installationID == "" || privateKey == "" || scope == "" {
		t.Skip("TEST_GITHUB_APP_ID, TEST_GITHUB_INSTALLATION_ID, TEST_GITHUB_PRIVATE_KEY or TEST_GITHUB_SEARCH_SCOPE not set")
	}

	aid, err := strconv.ParseInt(appID, 10, 64)
	gt.NoError(t, err).Required()
	iid, err := strconv.ParseInt(installationID, 10, 64)
	gt.NoError(t, err).Required()

	client, err := github.New(aid, iid, privateKey, scope)
	gt.NoError(t, err).Required()

	for issue, err := range client.SearchAssigned(context.Background(), tracker.Query{Limit: 5}) {
		gt.NoError(t, err).Required()
		gt.Value(t, issue.ID).NotEqual("")
		gt.Value(t, issue.AssigneeID).NotEqual(types.UserID(""))
	}
}
