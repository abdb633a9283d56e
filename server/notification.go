package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ronniejay22/Knot-APP-sub003/store"
)

// NotificationHandler serves the notification history feed. Read-through
// only; delivery state is owned by the worker.
type NotificationHandler struct {
	Store *store.Store
}

func (h *NotificationHandler) Register(g *echo.Group) {
	g.GET("/notifications/history", h.History)
}

type notificationHistoryItem struct {
	ID                  int32  `json:"id"`
	Status              string `json:"status"`
	LeadDays            int32  `json:"leadDays"`
	OccurrenceDate      string `json:"occurrenceDate"`
	ScheduledTs         int64  `json:"scheduledTs"`
	SentTs              *int64 `json:"sentTs"`
	MilestoneName       string `json:"milestoneName"`
	MilestoneType       string `json:"milestoneType"`
	MilestoneDate       string `json:"milestoneDate"`
	RecommendationCount int32  `json:"recommendationCount"`
}

func (h *NotificationHandler) History(c echo.Context) error {
	ctx := c.Request().Context()
	userID, err := queryInt32(c, "user")
	if err != nil {
		return err
	}
	limit := queryLimit(c, 50, 200)

	entries, err := h.Store.ListNotificationHistory(ctx, userID, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list notification history")
	}

	items := make([]notificationHistoryItem, 0, len(entries))
	for _, entry := range entries {
		items = append(items, notificationHistoryItem{
			ID:                  entry.Notification.ID,
			Status:              string(entry.Notification.Status),
			LeadDays:            entry.Notification.LeadDays,
			OccurrenceDate:      entry.Notification.OccurrenceDate,
			ScheduledTs:         entry.Notification.ScheduledTs,
			SentTs:              entry.Notification.SentTs,
			MilestoneName:       entry.MilestoneName,
			MilestoneType:       string(entry.MilestoneType),
			MilestoneDate:       entry.MilestoneDate,
			RecommendationCount: entry.RecommendationCount,
		})
	}
	return c.JSON(http.StatusOK, items)
}
