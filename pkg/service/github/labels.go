package github

import (
	"strconv"
	"strings"
)

// GitHub issues only have open/closed states. Finer workflow states,
// priority and story points are read from labels.

var workflowLabels = map[string]string{
	"in progress": "In Progress",
	"in-progress": "In Progress",
	"wip":         "In Progress",
	"in review":   "In Review",
	"in-review":   "In Review",
	"backlog":     "Backlog",
}

type labelAnnotations struct {
	workflow    string
	priority    string
	storyPoints float64
}

func parseLabels(labels []string) labelAnnotations {
	var ann labelAnnotations
	for _, label := range labels {
		l := strings.ToLower(strings.TrimSpace(label))

		if w, ok := workflowLabels[l]; ok && ann.workflow == "" {
			ann.workflow = w
			continue
		}

		if key, value, ok := cutLabel(l); ok {
			switch key {
			case "priority", "prio":
				if ann.priority == "" {
					ann.priority = value
				}
			case "sp", "points", "story points", "estimate":
				if n, err := strconv.ParseFloat(value, 64); err == nil && ann.storyPoints == 0 {
					ann.storyPoints = n
				}
			}
			continue
		}

		switch l {
		case "p0", "p1", "p2", "p3", "urgent", "critical":
			if ann.priority == "" {
				ann.priority = l
			}
		}
	}
	return ann
}

// cutLabel splits "key: value" or "key/value"
func cutLabel(label string) (key, value string, ok bool) {
	for _, sep := range []string{":", "/"} {
		if k, v, found := strings.Cut(label, sep); found {
			return strings.TrimSpace(k), strings.TrimSpace(v), true
		}
	}
	return "", "", false
}

// issueStatus renders a GitHub state in the shared tracker vocabulary
func issueStatus(state, stateReason, workflow string) string {
	if strings.EqualFold(state, "CLOSED") {
		if strings.EqualFold(stateReason, "NOT_PLANNED") {
			return "Not planned"
		}
		return "Closed"
	}
	if workflow != "" {
		return workflow
	}
	return "Open"
}
