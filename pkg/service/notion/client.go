package notion

import (
	"context"
	"iter"
	"time"

	"github.com/jomei/notionapi"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/kottos/pkg/domain/types"
	"github.com/secmon-lab/kottos/pkg/service/tracker"
)

// Client is a Notion task database used as an issue tracker
type Client struct {
	api    *notionapi.Client
	dbID   string
	schema Schema
	users  map[string]types.UserID
}

var _ tracker.Client = &Client{}

type Option func(*Client)

// WithSchema overrides DefaultSchema
func WithSchema(schema Schema) Option {
	return func(c *Client) {
		c.schema = schema
	}
}

// WithUserMapping maps Notion user IDs or e-mail addresses to organization
// user IDs
func WithUserMapping(users map[string]types.UserID) Option {
	return func(c *Client) {
		c.users = users
	}
}

// New creates a Notion tracker client for the database dbID
func New(token, dbID string, opts ...Option) (*Client, error) {
	if token == "" {
		return nil, goerr.New("Notion API token is required")
	}
	if dbID == "" {
		return nil, goerr.New("Notion database ID is required")
	}

	c := &Client{
		api: notionapi.NewClient(
			notionapi.Token(token),
			notionapi.WithRetry(3), // Retry up to 3 times on rate limit (HTTP 429)
		),
		dbID:   dbID,
		schema: DefaultSchema(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) Source() types.ExternalSource {
	return types.ExternalSourceNotion
}

// SearchAssigned queries the database for pages with an assignee
func (c *Client) SearchAssigned(ctx context.Context, q tracker.Query) iter.Seq2[*tracker.Issue, error] {
	return func(yield func(*tracker.Issue, error) bool) {
		var cursor notionapi.Cursor
		yielded := 0
		filter := c.buildFilter(q)

		for {
			resp, err := c.api.Database.Query(ctx, notionapi.DatabaseID(c.dbID), &notionapi.DatabaseQueryRequest{
				Filter:      filter,
				StartCursor: cursor,
				PageSize:    100,
			})
			if err != nil {
				yield(nil, goerr.Wrap(err, "failed to query database", goerr.V("dbID", c.dbID)))
				return
			}

			for _, page := range resp.Results {
				issue := convertPage(&page, c.schema, c.users)
				if issue.AssigneeID == "" {
					continue
				}
				if !yield(issue, nil) {
					return
				}
				yielded++
				if q.Limit > 0 && yielded >= q.Limit {
					return
				}
			}

			if !resp.HasMore {
				return
			}
			cursor = resp.NextCursor
		}
	}
}

func (c *Client) buildFilter(q tracker.Query) notionapi.Filter {
	var filters notionapi.AndCompoundFilter

	if len(q.Assignees) > 0 {
		var either notionapi.OrCompoundFilter
		for _, a := range q.Assignees {
			either = append(either, notionapi.PropertyFilter{
				Property: c.schema.Assignee,
				People:   &notionapi.PeopleFilterCondition{Contains: a},
			})
		}
		filters = append(filters, either)
	} else {
		filters = append(filters, notionapi.PropertyFilter{
			Property: c.schema.Assignee,
			People:   &notionapi.PeopleFilterCondition{IsNotEmpty: true},
		})
	}

	if !q.UpdatedSince.IsZero() {
		onOrAfter := notionapi.Date(q.UpdatedSince)
		filters = append(filters, notionapi.TimestampFilter{
			Timestamp: "last_edited_time",
			LastEditedTime: &notionapi.DateFilterCondition{
				OnOrAfter: &onOrAfter,
			},
		})
	}

	return filters
}

func convertPage(page *notionapi.Page, schema Schema, users map[string]types.UserID) *tracker.Issue {
	props := page.Properties

	issue := &tracker.Issue{
		Source:      types.ExternalSourceNotion,
		ID:          page.ID.String(),
		Key:         page.ID.String(),
		Title:       titleOf(props[schema.Title]),
		Body:        textOf(props[schema.Description]),
		URL:         page.URL,
		Status:      optionOf(props[schema.Status]),
		Priority:    optionOf(props[schema.Priority]),
		Labels:      multiOf(props[schema.Tags]),
		Sprint:      optionOf(props[schema.Sprint]),
		StoryPoints: numberOf(props[schema.StoryPoints]),
		UpdatedAt:   time.Time(page.LastEditedTime),
	}

	if people := peopleOf(props[schema.Assignee]); len(people) > 0 {
		issue.AssigneeID = resolveUser(people[0], users)
	}
	issue.ReporterID = resolveUser(page.CreatedBy, users)

	return issue
}
