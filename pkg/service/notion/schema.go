package notion

import (
	"strings"

	"github.com/jomei/notionapi"
	"github.com/secmon-lab/kottos/pkg/domain/types"
)

// Schema names the database properties read for each issue field
type Schema struct {
	Title       string
	Description string
	Status      string
	Priority    string
	Assignee    string
	Tags        string
	Sprint      string
	StoryPoints string
}

// DefaultSchema matches Notion's task database template
func DefaultSchema() Schema {
	return Schema{
		Title:       "Name",
		Description: "Description",
		Status:      "Status",
		Priority:    "Priority",
		Assignee:    "Assignee",
		Tags:        "Tags",
		Sprint:      "Sprint",
		StoryPoints: "Points",
	}
}

func plainText(rt []notionapi.RichText) string {
	var sb strings.Builder
	for _, t := range rt {
		sb.WriteString(t.PlainText)
	}
	return sb.String()
}

func titleOf(p notionapi.Property) string {
	switch v := p.(type) {
	case *notionapi.TitleProperty:
		return plainText(v.Title)
	case *notionapi.RichTextProperty:
		return plainText(v.RichText)
	}
	return ""
}

func textOf(p notionapi.Property) string {
	switch v := p.(type) {
	case *notionapi.RichTextProperty:
		return plainText(v.RichText)
	case *notionapi.TitleProperty:
		return plainText(v.Title)
	}
	return ""
}

// optionOf reads status, select and plain text properties
func optionOf(p notionapi.Property) string {
	switch v := p.(type) {
	case *notionapi.StatusProperty:
		return v.Status.Name
	case *notionapi.SelectProperty:
		return v.Select.Name
	case *notionapi.RichTextProperty:
		return plainText(v.RichText)
	}
	return ""
}

func multiOf(p notionapi.Property) []string {
	v, ok := p.(*notionapi.MultiSelectProperty)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(v.MultiSelect))
	for _, o := range v.MultiSelect {
		out = append(out, o.Name)
	}
	return out
}

func numberOf(p notionapi.Property) float64 {
	if v, ok := p.(*notionapi.NumberProperty); ok {
		return v.Number
	}
	return 0
}

func peopleOf(p notionapi.Property) []notionapi.User {
	if v, ok := p.(*notionapi.PeopleProperty); ok {
		return v.People
	}
	return nil
}

// resolveUser maps a Notion user by ID, then by e-mail. Unmapped users keep
// their Notion ID.
func resolveUser(u notionapi.User, users map[string]types.UserID) types.UserID {
	if u.ID == "" {
		return ""
	}
	if id, ok := users[u.ID.String()]; ok {
		return id
	}
	if u.Person != nil && u.Person.Email != "" {
		if id, ok := users[strings.ToLower(u.Person.Email)]; ok {
			return id
		}
	}
	return types.UserID(u.ID.String())
}
