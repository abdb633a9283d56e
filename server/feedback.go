package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ronniejay22/Knot-APP-sub003/store"
)

// FeedbackHandler appends feedback events. No synchronous effect on
// scoring; the weight learner folds events in on its next batch run.
type FeedbackHandler struct {
	Store *store.Store
}

func (h *FeedbackHandler) Register(g *echo.Group) {
	g.POST("/feedback", h.CreateFeedback)
}

type createFeedbackRequest struct {
	UserID           int32  `json:"userId"`
	RecommendationID int32  `json:"recommendationId"`
	Action           string `json:"action"`
	Rating           *int32 `json:"rating"`
}

func (h *FeedbackHandler) CreateFeedback(c echo.Context) error {
	ctx := c.Request().Context()
	var req createFeedbackRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}

	create := &store.CreateFeedback{
		UserID:           req.UserID,
		RecommendationID: req.RecommendationID,
		Action:           store.FeedbackAction(req.Action),
		Rating:           req.Rating,
	}
	if err := create.Validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	feedback, err := h.Store.CreateFeedback(ctx, create)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to record feedback")
	}
	return c.JSON(http.StatusCreated, feedback)
}
