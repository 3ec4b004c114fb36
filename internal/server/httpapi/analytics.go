package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/taskvault/taskvault/internal/common"
	"github.com/taskvault/taskvault/internal/server/models"
	"github.com/taskvault/taskvault/internal/server/services"
)

type taskStatResponse struct {
	IsCompleted bool  `json:"isCompleted"`
	Count       int64 `json:"count"`
}

type taskOverviewResponse struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	IsCompleted bool      `json:"isCompleted"`
	Priority    string    `json:"priority"`
	CreatedAt   time.Time `json:"createdAt"`
	OwnerName   string    `json:"ownerName"`
}

type dailyCountResponse struct {
	Day   time.Time `json:"day"`
	Count int64     `json:"count"`
}

type userReportResponse struct {
	TaskStats      []taskStatResponse     `json:"taskStats"`
	RecentTasks    []taskOverviewResponse `json:"recentTasks"`
	WeeklyProgress []dailyCountResponse   `json:"weeklyProgress"`
}

type userSummaryResponse struct {
	ID            int64     `json:"id"`
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	CreatedAt     time.Time `json:"createdAt"`
	TaskCount     int64     `json:"taskCount"`
	OpenTaskCount int64     `json:"openTaskCount"`
	OpenTaskIDs   []int64   `json:"openTaskIds"`
}

type paginationResponse struct {
	Page    int   `json:"page"`
	Limit   int   `json:"limit"`
	Total   int64 `json:"total"`
	Pages   int64 `json:"pages"`
	HasNext bool  `json:"hasNext"`
	HasPrev bool  `json:"hasPrev"`
}

type usersWithStatsResponse struct {
	Users      []userSummaryResponse `json:"users"`
	Pagination paginationResponse    `json:"pagination"`
}

type taskSearchResponse struct {
	Results []taskOverviewResponse `json:"results"`
	Query   string                 `json:"query"`
	Count   int                    `json:"count"`
}

func toOverviewResponses(ts []*models.TaskOverview) []taskOverviewResponse {
	out := make([]taskOverviewResponse, 0, len(ts))
	for _, t := range ts {
		out = append(out, taskOverviewResponse{
			ID:          t.ID,
			Title:       t.Title,
			IsCompleted: t.IsCompleted,
			Priority:    t.Priority,
			CreatedAt:   t.CreatedAt,
			OwnerName:   t.OwnerName,
		})
	}
	return out
}

func (s *HTTPServer) handleAnalyticsUserReport(w http.ResponseWriter, r *http.Request) {
	userID, ok := parsePathID(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "Invalid user ID"})
		return
	}

	report, err := s.analytics.UserReport(r.Context(), userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse{Message: "User not found"})
			return
		}
		s.logger.Error(r.Context(), "user report failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "internal server error"})
		return
	}

	stats := make([]taskStatResponse, 0, len(report.TaskStats))
	for _, st := range report.TaskStats {
		stats = append(stats, taskStatResponse{IsCompleted: st.IsCompleted, Count: st.Count})
	}
	weekly := make([]dailyCountResponse, 0, len(report.WeeklyProgress))
	for _, d := range report.WeeklyProgress {
		weekly = append(weekly, dailyCountResponse{Day: d.Day, Count: d.Count})
	}

	writeJSON(w, http.StatusOK, userReportResponse{
		TaskStats:      stats,
		RecentTasks:    toOverviewResponses(report.RecentTasks),
		WeeklyProgress: weekly,
	})
}

// queryInt parses an integer query parameter, falling back to def when the
// parameter is absent.
func queryInt(r *http.Request, name string, def int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

func (s *HTTPServer) handleAnalyticsUsers(w http.ResponseWriter, r *http.Request) {
	page, ok := queryInt(r, "page", 1)
	if !ok || page < 1 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "page must be >= 1"})
		return
	}
	limit, ok := queryInt(r, "limit", 10)
	if !ok || limit < 1 || limit > 100 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "limit must be between 1 and 100"})
		return
	}

	summaries, pagination, err := s.analytics.UsersWithStats(r.Context(), page, limit)
	if err != nil {
		s.logger.Error(r.Context(), "users with stats failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "internal server error"})
		return
	}

	users := make([]userSummaryResponse, 0, len(summaries))
	for _, u := range summaries {
		openIDs := u.OpenTaskIDs
		if openIDs == nil {
			openIDs = []int64{}
		}
		users = append(users, userSummaryResponse{
			ID:            u.ID,
			Email:         u.Email,
			Name:          u.Name,
			CreatedAt:     u.CreatedAt,
			TaskCount:     u.TaskCount,
			OpenTaskCount: u.OpenTaskCount,
			OpenTaskIDs:   openIDs,
		})
	}

	writeJSON(w, http.StatusOK, usersWithStatsResponse{
		Users:      users,
		Pagination: toPaginationResponse(pagination),
	})
}

func toPaginationResponse(p *services.Pagination) paginationResponse {
	return paginationResponse{
		Page:    p.Page,
		Limit:   p.Limit,
		Total:   p.Total,
		Pages:   p.Pages,
		HasNext: p.HasNext,
		HasPrev: p.HasPrev,
	}
}

func (s *HTTPServer) handleAnalyticsTaskSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if len(query) < 2 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "Search query must be at least 2 characters long"})
		return
	}

	limit, ok := queryInt(r, "limit", 20)
	if !ok || limit < 1 || limit > 100 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "limit must be between 1 and 100"})
		return
	}

	results, err := s.analytics.SearchTasks(r.Context(), query, limit)
	if err != nil {
		s.logger.Error(r.Context(), "task search failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, taskSearchResponse{
		Results: toOverviewResponses(results),
		Query:   query,
		Count:   len(results),
	})
}
