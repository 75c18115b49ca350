package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/kottos/pkg/cli/config"
	"github.com/secmon-lab/kottos/pkg/domain/model"
	"github.com/secmon-lab/kottos/pkg/domain/types"
	"github.com/secmon-lab/kottos/pkg/repository/memory"
	"github.com/secmon-lab/kottos/pkg/service/rules"
	"github.com/secmon-lab/kottos/pkg/usecase"
	"github.com/urfave/cli/v3"
)

// classifyOutput is the JSON form of a classification
type classifyOutput struct {
	IsWorkRequest     bool           `json:"is_work_request"`
	Confidence        float64        `json:"confidence"`
	Urgency           types.Urgency  `json:"urgency"`
	WorkType          types.WorkType `json:"work_type"`
	EstimatedEffort   types.Effort   `json:"estimated_effort"`
	MatchedCategories []string       `json:"matched_categories"`
	AssignorID        types.UserID   `json:"assignor_id"`
	AssigneeID        types.UserID   `json:"assignee_id,omitempty"`
	MentionedUserIDs  []types.UserID `json:"mentioned_user_ids"`
	IsAssignment      bool           `json:"is_assignment"`
	ShouldCreate      bool           `json:"should_create"`
	RouteTo           types.Route    `json:"route_to,omitempty"`
	DualRoute         bool           `json:"dual_route"`
	Title             string         `json:"title,omitempty"`
	Priority          types.Priority `json:"priority,omitempty"`
}

func cmdClassify() *cli.Command {
	var sender string
	var source string
	var route string
	var mentions []string
	var jsonOutput bool
	var orgCfg config.Org
	var engineCfg config.Engine

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "sender",
			Usage:       "User ID of the message author",
			Value:       "U000",
			Destination: &sender,
		},
		&cli.StringFlag{
			Name:        "source",
			Usage:       "Message source (chat or email)",
			Value:       string(types.SourceChat),
			Destination: &source,
		},
		&cli.StringFlag{
			Name:        "route",
			Usage:       "Default route of the sender (sales or developer); taken from the organization file when empty",
			Destination: &route,
		},
		&cli.StringSliceFlag{
			Name:        "mention",
			Usage:       "User ID already resolved as a mention by the source adapter (repeatable)",
			Destination: &mentions,
		},
		&cli.BoolFlag{
			Name:        "json",
			Usage:       "Print the result as JSON",
			Destination: &jsonOutput,
		},
	}
	flags = append(flags, orgCfg.Flags()...)
	flags = append(flags, engineCfg.Flags()...)

	return &cli.Command{
		Name:      "classify",
		Aliases:   []string{"c"},
		Usage:     "Classify a message without storing anything and explain the decision",
		ArgsUsage: "MESSAGE...",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			text := strings.Join(c.Args().Slice(), " ")
			if strings.TrimSpace(text) == "" {
				return goerr.New("message text is required")
			}

			src := types.Source(source)
			if !src.IsValid() || src == types.SourceTracker {
				return goerr.New("source must be chat or email", goerr.V("source", source))
			}

			org, err := orgCfg.Configure()
			if err != nil {
				return err
			}
			engine, err := engineCfg.Configure()
			if err != nil {
				return err
			}

			defaultRoute := org.DefaultRoutes().For(types.UserID(sender))
			if route != "" {
				defaultRoute, err = types.ParseRoute(route)
				if err != nil {
					return goerr.Wrap(err, "invalid route", goerr.V("route", route))
				}
			}

			ids := make([]types.UserID, len(mentions))
			for i, m := range mentions {
				ids[i] = types.UserID(m)
			}
			msg := model.NewInboundMessage(model.InboundMessageParams{
				Source:    src,
				SenderID:  types.UserID(sender),
				ChannelID: "cli",
				Text:      text,
				Timestamp: time.Now().UTC(),
				Mentions:  ids,
			})

			uc := usecase.New(memory.New(), usecase.WithEngineConfig(engine))
			result, err := uc.Routing.Classify(ctx, msg, defaultRoute)
			if err != nil {
				return goerr.Wrap(err, "failed to classify message")
			}

			w := writerOf(c)
			if jsonOutput {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				if err := enc.Encode(toClassifyOutput(result)); err != nil {
					return goerr.Wrap(err, "failed to encode result")
				}
				return nil
			}

			printClassification(w, rules.Evaluate(text), result)
			return nil
		},
	}
}

func toClassifyOutput(r *usecase.ProcessResult) classifyOutput {
	out := classifyOutput{
		IsWorkRequest:     r.Analysis.IsWorkRequest,
		Confidence:        r.Analysis.Confidence,
		Urgency:           r.Analysis.Urgency,
		WorkType:          r.Analysis.WorkType,
		EstimatedEffort:   r.Analysis.EstimatedEffort,
		MatchedCategories: r.Analysis.MatchedCategories,
		AssignorID:        r.Assignment.AssignorID,
		AssigneeID:        r.Assignment.AssigneeID,
		MentionedUserIDs:  r.Assignment.MentionedUserIDs,
		IsAssignment:      r.Assignment.IsAssignment,
		ShouldCreate:      r.ShouldCreate,
	}
	if out.MatchedCategories == nil {
		out.MatchedCategories = []string{}
	}
	if out.MentionedUserIDs == nil {
		out.MentionedUserIDs = []types.UserID{}
	}
	if r.ShouldCreate {
		out.RouteTo = r.Decision.RouteTo
		out.DualRoute = r.Decision.DualRoute
		out.Title = r.Decision.Title
		out.Priority = r.Decision.Priority
	}
	return out
}

func printClassification(w io.Writer, ms rules.MatchSet, r *usecase.ProcessResult) {
	head := color.New(color.Bold).SprintFunc()
	yes := color.New(color.FgGreen).SprintFunc()
	no := color.New(color.FgRed).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	flag := func(b bool) string {
		if b {
			return yes("yes")
		}
		return no("no")
	}

	_, _ = fmt.Fprintln(w, head("Detection"))
	_, _ = fmt.Fprintf(w, "  work request: %s (confidence %.2f)\n", flag(r.Analysis.IsWorkRequest), r.Analysis.Confidence)
	_, _ = fmt.Fprintf(w, "  urgency:      %s\n", r.Analysis.Urgency)
	_, _ = fmt.Fprintf(w, "  work type:    %s\n", r.Analysis.WorkType)
	_, _ = fmt.Fprintf(w, "  effort:       %s\n", r.Analysis.EstimatedEffort)
	_, _ = fmt.Fprintf(w, "  words:        %d\n", ms.WordCount())

	_, _ = fmt.Fprintln(w, head("Matched rules"))
	if len(ms.Categories()) == 0 {
		_, _ = fmt.Fprintln(w, dim("  (none)"))
	}
	for _, cat := range ms.Categories() {
		_, _ = fmt.Fprintf(w, "  %-16s %s\n", cat, dim(strings.Join(ms.Keywords(cat), ", ")))
	}

	_, _ = fmt.Fprintln(w, head("Assignment"))
	_, _ = fmt.Fprintf(w, "  assignor:     %s\n", r.Assignment.AssignorID)
	assignee := string(r.Assignment.AssigneeID)
	if assignee == "" {
		assignee = dim("(none)")
	}
	_, _ = fmt.Fprintf(w, "  assignee:     %s\n", assignee)
	_, _ = fmt.Fprintf(w, "  mentions:     %v\n", r.Assignment.MentionedUserIDs)
	_, _ = fmt.Fprintf(w, "  assignment:   %s\n", flag(r.Assignment.IsAssignment))

	_, _ = fmt.Fprintln(w, head("Routing"))
	_, _ = fmt.Fprintf(w, "  create task:  %s\n", flag(r.ShouldCreate))
	if !r.ShouldCreate {
		return
	}
	_, _ = fmt.Fprintf(w, "  title:        %s\n", r.Decision.Title)
	_, _ = fmt.Fprintf(w, "  priority:     %s\n", r.Decision.Priority)
	_, _ = fmt.Fprintf(w, "  views:        %v\n", r.Decision.Views())
	if r.Decision.DualRoute {
		_, _ = fmt.Fprintln(w, dim("  shown in both views: few people are involved"))
	}
}
