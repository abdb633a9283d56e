package server

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ronniejay22/Knot-APP-sub003/notify"
	"github.com/ronniejay22/Knot-APP-sub003/store"
)

// MilestoneHandler handles milestone CRUD. Creating or changing a
// milestone recomputes its notification schedule; deleting one cancels
// everything still pending.
type MilestoneHandler struct {
	Store     *store.Store
	Scheduler *notify.Scheduler
}

func (h *MilestoneHandler) Register(g *echo.Group) {
	g.POST("/milestones", h.CreateMilestone)
	g.GET("/milestones", h.ListMilestones)
	g.PATCH("/milestones/:id", h.UpdateMilestone)
	g.DELETE("/milestones/:id", h.DeleteMilestone)
}

type createMilestoneRequest struct {
	VaultID    int32  `json:"vaultId"`
	Type       string `json:"type"`
	Name       string `json:"name"`
	Date       string `json:"date"`
	Recurrence string `json:"recurrence"`
	BudgetTier string `json:"budgetTier"`
}

func (h *MilestoneHandler) CreateMilestone(c echo.Context) error {
	ctx := c.Request().Context()
	var req createMilestoneRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}

	create := &store.CreateMilestone{
		VaultID:    req.VaultID,
		Type:       store.MilestoneType(req.Type),
		Name:       req.Name,
		Date:       req.Date,
		Recurrence: store.Recurrence(req.Recurrence),
		BudgetTier: store.BudgetTier(req.BudgetTier),
	}
	if err := create.Validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	vault, err := h.Store.GetVault(ctx, &store.FindVault{ID: &req.VaultID})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load vault")
	}
	if vault == nil {
		return echo.NewHTTPError(http.StatusNotFound, "vault not found")
	}

	milestone, err := h.Store.CreateMilestone(ctx, create)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create milestone")
	}

	// The milestone exists either way; the next recompute pass picks up a
	// scheduling failure.
	if err := h.Scheduler.ScheduleFor(ctx, milestone, vault.UserID); err != nil {
		slog.Warn("failed to schedule notifications for milestone", "milestone", milestone.ID, "error", err)
	}
	return c.JSON(http.StatusCreated, milestone)
}

func (h *MilestoneHandler) ListMilestones(c echo.Context) error {
	ctx := c.Request().Context()
	vaultID, err := queryInt32(c, "vault")
	if err != nil {
		return err
	}

	milestones, err := h.Store.ListMilestones(ctx, &store.FindMilestone{VaultID: &vaultID})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list milestones")
	}
	return c.JSON(http.StatusOK, milestones)
}

type updateMilestoneRequest struct {
	Name       *string `json:"name"`
	Date       *string `json:"date"`
	Recurrence *string `json:"recurrence"`
	BudgetTier *string `json:"budgetTier"`
}

func (h *MilestoneHandler) UpdateMilestone(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req updateMilestoneRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}

	update := &store.UpdateMilestone{ID: id, Name: req.Name, Date: req.Date}
	if req.Recurrence != nil {
		r := store.Recurrence(*req.Recurrence)
		update.Recurrence = &r
	}
	if req.BudgetTier != nil {
		t := store.BudgetTier(*req.BudgetTier)
		update.BudgetTier = &t
	}
	if err := update.Validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	existing, err := h.Store.GetMilestone(ctx, &store.FindMilestone{ID: &id})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load milestone")
	}
	if existing == nil {
		return echo.NewHTTPError(http.StatusNotFound, "milestone not found")
	}

	milestone, err := h.Store.UpdateMilestone(ctx, update)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to update milestone")
	}

	// A date or recurrence change invalidates the pending schedule: cancel
	// and recompute. Terminal rows stay as history.
	if req.Date != nil || req.Recurrence != nil {
		vault, err := h.Store.GetVault(ctx, &store.FindVault{ID: &milestone.VaultID})
		if err == nil && vault != nil {
			if err := h.Scheduler.CancelFor(ctx, milestone.ID); err != nil {
				slog.Warn("failed to cancel notifications for milestone", "milestone", milestone.ID, "error", err)
			} else if err := h.Scheduler.ScheduleFor(ctx, milestone, vault.UserID); err != nil {
				slog.Warn("failed to reschedule notifications for milestone", "milestone", milestone.ID, "error", err)
			}
		}
	}
	return c.JSON(http.StatusOK, milestone)
}

func (h *MilestoneHandler) DeleteMilestone(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := pathID(c)
	if err != nil {
		return err
	}

	milestone, err := h.Store.GetMilestone(ctx, &store.FindMilestone{ID: &id})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load milestone")
	}
	if milestone == nil {
		return echo.NewHTTPError(http.StatusNotFound, "milestone not found")
	}

	// The driver cancels still-live notifications in the same transaction.
	if err := h.Store.DeleteMilestone(ctx, id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete milestone")
	}
	return c.NoContent(http.StatusNoContent)
}
