package notion_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jomei/notionapi"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/kottos/pkg/domain/types"
	"github.com/secmon-lab/kottos/pkg/service/notion"
	"github.com/secmon-lab/kottos/pkg/service/tracker"
)

func richText(s string) []notionapi.RichText {
	return []notionapi.RichText{{PlainText: s}}
}

func TestConvertPage(t *testing.T) {
	edited := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	page := &notionapi.Page{
		ID:             "page-1",
		URL:            "https://www.notion.so/page-1",
		LastEditedTime: edited,
		CreatedBy:      notionapi.User{ID: "notion-bob"},
		Properties: notionapi.Properties{
			"Name":        &notionapi.TitleProperty{Title: richText("Prepare Q3 forecast")},
			"Description": &notionapi.RichTextProperty{RichText: richText("numbers for the board")},
			"Status":      &notionapi.StatusProperty{Status: notionapi.Status{Name: "In progress"}},
			"Priority":    &notionapi.SelectProperty{Select: notionapi.Option{Name: "High"}},
			"Tags":        &notionapi.MultiSelectProperty{MultiSelect: []notionapi.Option{{Name: "finance"}}},
			"Sprint":      &notionapi.SelectProperty{Select: notionapi.Option{Name: "Sprint 9"}},
			"Points":      &notionapi.NumberProperty{Number: 2},
			"Assignee": &notionapi.PeopleProperty{People: []notionapi.User{
				{ID: "notion-alice", Person: &notionapi.Person{Email: "Alice@example.com"}},
			}},
		},
	}

	users := map[string]types.UserID{"alice@example.com": "user_alice"}
	issue := notion.ConvertPage(page, notion.DefaultSchema(), users)

	gt.Value(t, issue.Source).Equal(types.ExternalSourceNotion)
	gt.Value(t, issue.ID).Equal("page-1")
	gt.Value(t, issue.Title).Equal("Prepare Q3 forecast")
	gt.Value(t, issue.Body).Equal("numbers for the board")
	gt.Value(t, issue.Status).Equal("In progress")
	gt.Value(t, issue.Priority).Equal("High")
	gt.Value(t, issue.Labels).Equal([]string{"finance"})
	gt.Value(t, issue.Sprint).Equal("Sprint 9")
	gt.Value(t, issue.StoryPoints).Equal(float64(2))
	gt.Value(t, issue.AssigneeID).Equal(types.UserID("user_alice"))
	gt.Value(t, issue.ReporterID).Equal(types.UserID("notion-bob"))
	gt.Bool(t, issue.UpdatedAt.Equal(edited)).True()

	status, known := tracker.MapStatus(issue.Status)
	gt.Bool(t, known).True()
	gt.Value(t, status).Equal(types.TaskStatusInProgress)
}

func TestConvertPageMissingProperties(t *testing.T) {
	issue := notion.ConvertPage(&notionapi.Page{ID: "page-2"}, notion.DefaultSchema(), nil)
	gt.Value(t, issue.Title).Equal("")
	gt.Value(t, issue.AssigneeID).Equal(types.UserID(""))
	gt.Array(t, issue.Labels).Length(0)
}

func TestNewRequiresParameters(t *testing.T) {
	_, err := notion.New("", "db")
	gt.Error(t, err)
	_, err = notion.New("token", "")
	gt.Error(t, err)
}

func TestSearchAssigned(t *testing.T) {
	token := os.Getenv("TEST_NOTION_API_TOKEN")
	dbID := os.Getenv("TEST_NOTION_DATABASE_ID")
	if token == "" || dbID == "" {
		t.Skip("TEST_NOTION_API_TOKEN or TEST_NOTION_DATABASE_ID not set")
	}

	client, err := notion.New(token, dbID)
	gt.NoError(t, err).Required()

	since := time.Now().Add(-30 * 24 * time.Hour)
	for issue, err := range client.SearchAssigned(context.Background(), tracker.Query{UpdatedSince: since, Limit: 5}) {
		gt.NoError(t, err).Required()
		gt.Value(t, issue.ID).NotEqual("")
	}
}
