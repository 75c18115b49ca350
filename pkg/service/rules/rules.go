// Package rules holds the ordered keyword rule table shared by the detector
// and the assignment extractor. A message is scanned once by Evaluate and
// both consumers read the resulting MatchSet.
package rules

import (
	"regexp"
	"slices"
	"strings"

	"github.com/secmon-lab/kottos/pkg/domain/types"
)

// Category is the label a rule attaches to a message when it matches
type Category string

const (
	// Detector categories; each one matched adds to the confidence score
	CategoryDirectRequest Category = "direct_request"
	CategoryUrgency       Category = "urgency"
	CategoryActionVerb    Category = "action_verb"

	// CategoryAssignment is the extractor's narrower assignment language
	CategoryAssignment Category = "assignment"

	// Reported for explanation only; they never change urgency
	CategoryImportance Category = "importance"
	CategoryLowUrgency Category = "low_urgency"

	// Work type buckets
	CategoryCalendar Category = "calendar"
	CategoryOutreach Category = "outreach"
	CategoryCoding   Category = "coding"
	CategoryDesign   Category = "design"
	CategoryAnalysis Category = "analysis"
	CategorySupport  Category = "support"

	CategoryEffortLarge Category = "effort_large"
	CategoryEffortQuick Category = "effort_quick"
)

// ConfidenceCategories are the categories counted by the confidence score
var ConfidenceCategories = []Category{
	CategoryDirectRequest,
	CategoryUrgency,
	CategoryActionVerb,
}

// Rule maps a pattern to a category
type Rule struct {
	Category Category
	Pattern  *regexp.Regexp
}

func rule(c Category, pattern string) Rule {
	return Rule{Category: c, Pattern: regexp.MustCompile(`(?i)` + pattern)}
}

// Table is an ordered rule table. Order only affects the order categories
// are reported in.
type Table []Rule

// DefaultTable is the built-in rule table
var DefaultTable = Table{
	rule(CategoryDirectRequest, `\b(can|could|would|will) you\b|\bplease\b|\bpls\b|\bneed you to\b|\bi need\b|\bwe need\b`),
	rule(CategoryUrgency, `\b(urgent|urgently|asap|emergency|immediately|right away|critical|blocker)\b`),
	rule(CategoryActionVerb, `\b(implement|fix|review|deploy|schedule|email|reach out|send|prepare|write|update|create|build|draft|investigate|analy[sz]e|set up|follow up|book|call)\b`),

	rule(CategoryAssignment, `\b(can|could) you\b|\bplease\b|\bneed you to\b`),

	rule(CategoryImportance, `\b(important|high priority|soon|by tomorrow)\b`),
	rule(CategoryLowUrgency, `\b(no rush|whenever|low priority|when you get a chance|no hurry)\b`),

	rule(CategoryCalendar, `\b(schedule|reschedule|meeting|calendar|invite|sync|standup|stand-up|1:1|book a)\b`),
	rule(CategoryOutreach, `\b(email|e-mail|reach out|outreach|newsletter|pitch|cold call|contact the|send (a|the) (note|message|proposal))\b`),
	rule(CategoryCoding, `\b(fix|bug|deploy|code|pull request|pr|merge|implement|api|endpoint|refactor|test|build|release|crash)\b`),
	rule(CategoryDesign, `\b(design|mockup|mock-up|figma|wireframe|ui|ux|logo|layout)\b`),
	rule(CategoryAnalysis, `\b(analy[sz]e|analysis|report|dashboard|metrics|forecast|spreadsheet|numbers|kpi)\b`),
	rule(CategorySupport, `\b(customer|ticket|support|complaint|outage|helpdesk|escalation)\b`),

	rule(CategoryEffortLarge, `\b(migrate|migration|redesign|refactor|overhaul|rewrite|re-architect)\b|\bimplement\b.*\bsystem\b`),
	rule(CategoryEffortQuick, `\b(quick|quickly|small|typo|just|minor|tiny)\b`),
}

var (
	// <@U123> or <@U123|name>
	slackMentionPattern = regexp.MustCompile(`<@([A-Za-z0-9._-]+)(?:\|[^>]*)?>`)
	// @handle not preceded by a word character or '<'
	handleMentionPattern = regexp.MustCompile(`(?:^|[^\w<])@([A-Za-z0-9][A-Za-z0-9._-]*)`)
)

// MatchSet is the result of evaluating a rule table against one message
type MatchSet struct {
	text     string
	words    int
	matched  []Category
	userIDs  []types.UserID
	handles  []types.UserID
	keywords map[Category][]string
}

// Evaluate evaluates the default table against text
func Evaluate(text string) MatchSet {
	return DefaultTable.Evaluate(text)
}

// Evaluate scans text once with every rule in the table
func (t Table) Evaluate(text string) MatchSet {
	ms := MatchSet{
		text:     text,
		words:    len(strings.Fields(text)),
		keywords: make(map[Category][]string),
	}
	if strings.TrimSpace(text) == "" {
		return ms
	}

	for _, r := range t {
		hits := r.Pattern.FindAllString(text, -1)
		if len(hits) == 0 {
			continue
		}
		if _, seen := ms.keywords[r.Category]; !seen {
			ms.matched = append(ms.matched, r.Category)
		}
		for _, h := range hits {
			ms.keywords[r.Category] = append(ms.keywords[r.Category], strings.ToLower(strings.TrimSpace(h)))
		}
	}

	for _, m := range slackMentionPattern.FindAllStringSubmatch(text, -1) {
		ms.userIDs = appendUnique(ms.userIDs, types.UserID(m[1]))
	}
	for _, m := range handleMentionPattern.FindAllStringSubmatch(text, -1) {
		ms.handles = appendUnique(ms.handles, types.UserID(strings.TrimRight(m[1], "._-")))
	}

	return ms
}

func appendUnique(ids []types.UserID, id types.UserID) []types.UserID {
	if id == "" || slices.Contains(ids, id) {
		return ids
	}
	return append(ids, id)
}

// Text returns the evaluated message body
func (m MatchSet) Text() string { return m.text }

// Empty is true when the message had no content
func (m MatchSet) Empty() bool { return strings.TrimSpace(m.text) == "" }

// WordCount returns the number of whitespace separated words
func (m MatchSet) WordCount() int { return m.words }

// Has reports whether any rule of category c matched
func (m MatchSet) Has(c Category) bool {
	_, ok := m.keywords[c]
	return ok
}

// Categories returns matched categories in table order
func (m MatchSet) Categories() []Category {
	return slices.Clone(m.matched)
}

// Keywords returns the lower-cased text fragments that matched c
func (m MatchSet) Keywords(c Category) []string {
	return slices.Clone(m.keywords[c])
}

// CountOf returns how many of the given categories matched
func (m MatchSet) CountOf(categories ...Category) int {
	n := 0
	for _, c := range categories {
		if m.Has(c) {
			n++
		}
	}
	return n
}

// UserMentions returns the IDs of <@ID> tokens in order of first appearance
func (m MatchSet) UserMentions() []types.UserID {
	return slices.Clone(m.userIDs)
}

// HandleMentions returns plain @handle tokens in order of first appearance
func (m MatchSet) HandleMentions() []types.UserID {
	return slices.Clone(m.handles)
}
