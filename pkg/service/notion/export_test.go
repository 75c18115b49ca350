package notion

import (
	"github.com/jomei/notionapi"
	"github.com/secmon-lab/kottos/pkg/domain/types"
	"github.com/secmon-lab/kottos/pkg/service/tracker"
)

func ConvertPage(page *notionapi.Page, schema Schema, users map[string]types.UserID) *tracker.Issue {
	return convertPage(page, schema, users)
}
