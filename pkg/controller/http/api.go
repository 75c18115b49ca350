package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/kottos/pkg/domain/interfaces"
	"github.com/secmon-lab/kottos/pkg/domain/model"
	"github.com/secmon-lab/kottos/pkg/domain/types"
	"github.com/secmon-lab/kottos/pkg/usecase"
	"github.com/secmon-lab/kottos/pkg/utils/errutil"
	"github.com/secmon-lab/kottos/pkg/utils/logging"
)

type errorResponse struct {
	Error string `json:"error"`
}

type taskDetailResponse struct {
	Kind        model.DetailKind `json:"kind"`
	Urgency     types.Urgency    `json:"urgency,omitempty"`
	Effort      types.Effort     `json:"effort,omitempty"`
	Attendees   []types.UserID   `json:"attendees,omitempty"`
	Recipients  []types.UserID   `json:"recipients,omitempty"`
	DualRoute   bool             `json:"dual_route,omitempty"`
	URL         string           `json:"url,omitempty"`
	Status      string           `json:"tracker_status,omitempty"`
	Sprint      string           `json:"sprint,omitempty"`
	StoryPoints float64          `json:"story_points,omitempty"`
	Labels      []string         `json:"labels,omitempty"`
}

type taskResponse struct {
	ID               model.TaskID         `json:"id"`
	Title            string               `json:"title"`
	Description      string               `json:"description"`
	Priority         types.Priority       `json:"priority"`
	Status           types.TaskStatus     `json:"status"`
	Tags             []string             `json:"tags"`
	AssignorID       types.UserID         `json:"assignor_id"`
	AssigneeID       types.UserID         `json:"assignee_id,omitempty"`
	MentionedUserIDs []types.UserID       `json:"mentioned_user_ids"`
	WorkType         types.WorkType       `json:"work_type"`
	RouteTo          types.Route          `json:"route_to"`
	DualRoute        bool                 `json:"dual_route"`
	ExternalSource   types.ExternalSource `json:"external_source,omitempty"`
	ExternalID       string               `json:"external_id,omitempty"`
	ExternalKey      string               `json:"external_key,omitempty"`
	Detail           *taskDetailResponse  `json:"detail,omitempty"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
	CompletedAt      *time.Time           `json:"completed_at,omitempty"`
}

type taskListResponse struct {
	Tasks []taskResponse `json:"tasks"`
}

type scopeResponse struct {
	UserID               types.UserID    `json:"user_id"`
	Role                 types.Role      `json:"role"`
	DataScope            types.DataScope `json:"data_scope"`
	CanViewAllUsers      bool            `json:"can_view_all_users"`
	CanViewTeamAnalytics bool            `json:"can_view_team_analytics"`
	AccessibleUserIDs    []types.UserID  `json:"accessible_user_ids"`
}

type updateStatusRequest struct {
	Status types.TaskStatus `json:"status"`
}

func toTaskResponse(t *model.Task) taskResponse {
	resp := taskResponse{
		ID:               t.ID,
		Title:            t.Title,
		Description:      t.Description,
		Priority:         t.Priority,
		Status:           t.Status,
		Tags:             t.Tags,
		AssignorID:       t.AssignorID,
		AssigneeID:       t.AssigneeID,
		MentionedUserIDs: t.MentionedUserIDs,
		WorkType:         t.WorkType,
		RouteTo:          t.RouteTo,
		DualRoute:        t.DualRoute,
		ExternalSource:   t.ExternalSource,
		ExternalID:       t.ExternalID,
		ExternalKey:      t.ExternalKey,
		Detail:           toDetailResponse(t.Detail),
		CreatedAt:        t.CreatedAt,
		UpdatedAt:        t.UpdatedAt,
		CompletedAt:      t.CompletedAt,
	}
	if resp.Tags == nil {
		resp.Tags = []string{}
	}
	if resp.MentionedUserIDs == nil {
		resp.MentionedUserIDs = []types.UserID{}
	}
	return resp
}

func toDetailResponse(d model.TaskDetail) *taskDetailResponse {
	switch v := d.(type) {
	case model.GenericDetail:
		return &taskDetailResponse{Kind: v.Kind(), Urgency: v.Urgency, Effort: v.Effort}
	case model.CalendarDetail:
		return &taskDetailResponse{Kind: v.Kind(), Attendees: v.Attendees, DualRoute: v.DualRoute}
	case model.OutreachDetail:
		return &taskDetailResponse{Kind: v.Kind(), Recipients: v.Recipients, DualRoute: v.DualRoute}
	case model.TrackerDetail:
		return &taskDetailResponse{
			Kind:        v.Kind(),
			URL:         v.URL,
			Status:      v.TrackerStatus,
			Sprint:      v.Sprint,
			StoryPoints: v.StoryPoints,
			Labels:      v.Labels,
		}
	default:
		return nil
	}
}

func toTaskListResponse(tasks []*model.Task) taskListResponse {
	resp := taskListResponse{Tasks: make([]taskResponse, len(tasks))}
	for i, t := range tasks {
		resp.Tasks[i] = toTaskResponse(t)
	}
	return resp
}

// writeJSON writes data as a JSON response
func writeJSON(ctx context.Context, w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		_ = errutil.Handle(ctx, err, "failed to encode JSON response")
	}
}

// writeError maps use case errors to a status code. 4xx responses carry a
// short public message; 5xx details stay in the log.
func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	var status int
	var msg string
	switch {
	case errors.Is(err, usecase.ErrAccessDenied):
		status, msg = http.StatusForbidden, "access denied"
	case errors.Is(err, usecase.ErrTaskNotFound):
		status, msg = http.StatusNotFound, "task not found"
	case errors.Is(err, usecase.ErrInvalidTransition):
		status, msg = http.StatusConflict, "invalid status transition"
	case errors.Is(err, usecase.ErrUnauthenticated):
		status, msg = http.StatusUnauthorized, "authentication required"
	case errors.Is(err, errBadRequest):
		status, msg = http.StatusBadRequest, err.Error()
	default:
		errutil.HandleHTTP(ctx, w, err, http.StatusInternalServerError)
		return
	}

	logging.From(ctx).Warn("request rejected", "status", status, "error", err.Error())
	writeJSON(ctx, w, status, errorResponse{Error: msg})
}

var errBadRequest = errors.New("bad request")

func badRequest(msg string, values ...goerr.Option) error {
	return goerr.Wrap(errBadRequest, msg, values...)
}

// parseListOptions reads status and limit query parameters
func parseListOptions(r *http.Request) ([]interfaces.ListTaskOption, error) {
	var opts []interfaces.ListTaskOption
	q := r.URL.Query()

	if s := q.Get("status"); s != "" {
		status, err := types.ParseTaskStatus(s)
		if err != nil {
			return nil, badRequest("invalid status", goerr.V("status", s))
		}
		opts = append(opts, interfaces.WithStatus(status))
	}

	if s := q.Get("limit"); s != "" {
		limit, err := strconv.Atoi(s)
		if err != nil || limit < 0 {
			return nil, badRequest("invalid limit", goerr.V("limit", s))
		}
		opts = append(opts, interfaces.WithLimit(limit))
	}

	return opts, nil
}

// meHandler returns the requester's access scope
func meHandler(access *usecase.AccessUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requester := RequesterFrom(r.Context())
		scope := access.Scope(requester)
		writeJSON(r.Context(), w, http.StatusOK, scopeResponse{
			UserID:               requester,
			Role:                 scope.Role,
			DataScope:            scope.DataScope,
			CanViewAllUsers:      scope.CanViewAllUsers,
			CanViewTeamAnalytics: scope.CanViewTeamAnalytics,
			AccessibleUserIDs:    scope.SortedUserIDs(),
		})
	}
}

// listTasksHandler lists tasks of a role view (?view=sales|developer) or,
// without a view, every task of users the requester may access
func listTasksHandler(taskUC *usecase.TaskUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requester := RequesterFrom(ctx)

		opts, err := parseListOptions(r)
		if err != nil {
			writeError(ctx, w, err)
			return
		}

		var tasks []*model.Task
		if view := r.URL.Query().Get("view"); view != "" {
			route, err := types.ParseRoute(view)
			if err != nil {
				writeError(ctx, w, badRequest("invalid view", goerr.V("view", view)))
				return
			}
			tasks, err = taskUC.ListViewForRequester(ctx, requester, route, opts...)
			if err != nil {
				writeError(ctx, w, err)
				return
			}
		} else {
			tasks, err = taskUC.ListForRequester(ctx, requester, opts...)
			if err != nil {
				writeError(ctx, w, err)
				return
			}
		}

		writeJSON(ctx, w, http.StatusOK, toTaskListResponse(tasks))
	}
}

func getTaskHandler(taskUC *usecase.TaskUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		task, err := taskUC.GetTask(ctx, RequesterFrom(ctx), model.TaskID(chi.URLParam(r, "taskID")))
		if err != nil {
			writeError(ctx, w, err)
			return
		}
		writeJSON(ctx, w, http.StatusOK, toTaskResponse(task))
	}
}

func updateTaskStatusHandler(taskUC *usecase.TaskUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req updateStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(ctx, w, badRequest("invalid request body"))
			return
		}
		if !req.Status.IsValid() {
			writeError(ctx, w, badRequest("invalid status", goerr.V("status", req.Status)))
			return
		}

		task, err := taskUC.UpdateStatus(ctx, RequesterFrom(ctx), model.TaskID(chi.URLParam(r, "taskID")), req.Status)
		if err != nil {
			writeError(ctx, w, err)
			return
		}
		writeJSON(ctx, w, http.StatusOK, toTaskResponse(task))
	}
}

func dismissTaskHandler(taskUC *usecase.TaskUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		task, err := taskUC.Dismiss(ctx, RequesterFrom(ctx), model.TaskID(chi.URLParam(r, "taskID")))
		if err != nil {
			writeError(ctx, w, err)
			return
		}
		writeJSON(ctx, w, http.StatusOK, toTaskResponse(task))
	}
}

func userAnalyticsHandler(analyticsUC *usecase.AnalyticsUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		target := types.UserID(chi.URLParam(r, "userID"))
		result, err := analyticsUC.UserAnalytics(ctx, RequesterFrom(ctx), target)
		if err != nil {
			writeError(ctx, w, err)
			return
		}
		writeJSON(ctx, w, http.StatusOK, result)
	}
}

func teamAnalyticsHandler(analyticsUC *usecase.AnalyticsUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		result, err := analyticsUC.TeamAnalytics(ctx, RequesterFrom(ctx))
		if err != nil {
			writeError(ctx, w, err)
			return
		}
		writeJSON(ctx, w, http.StatusOK, result)
	}
}
