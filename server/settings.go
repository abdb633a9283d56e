package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ronniejay22/Knot-APP-sub003/store"
)

// SettingsHandler handles per-user notification settings: device token,
// timezone and quiet hours.
type SettingsHandler struct {
	Store *store.Store
}

func (h *SettingsHandler) Register(g *echo.Group) {
	g.GET("/users/:id/notification-settings", h.GetSettings)
	g.PUT("/users/:id/notification-settings", h.UpsertSettings)
}

func (h *SettingsHandler) GetSettings(c echo.Context) error {
	ctx := c.Request().Context()
	userID, err := pathID(c)
	if err != nil {
		return err
	}

	settings, err := h.Store.GetNotificationSettings(ctx, &store.FindNotificationSettings{UserID: userID})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load notification settings")
	}
	if settings == nil {
		return echo.NewHTTPError(http.StatusNotFound, "no notification settings for user")
	}
	return c.JSON(http.StatusOK, settings)
}

type upsertSettingsRequest struct {
	DeviceToken string `json:"deviceToken"`
	Platform    string `json:"platform"`
	Timezone    string `json:"timezone"`
	QuietStart  int32  `json:"quietStart"`
	QuietEnd    int32  `json:"quietEnd"`
	Enabled     bool   `json:"enabled"`
}

func (h *SettingsHandler) UpsertSettings(c echo.Context) error {
	ctx := c.Request().Context()
	userID, err := pathID(c)
	if err != nil {
		return err
	}
	var req upsertSettingsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}

	upsert := &store.UpsertNotificationSettings{
		UserID:      userID,
		DeviceToken: req.DeviceToken,
		Platform:    req.Platform,
		Timezone:    req.Timezone,
		QuietStart:  req.QuietStart,
		QuietEnd:    req.QuietEnd,
		Enabled:     req.Enabled,
	}
	if err := upsert.Validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	settings, err := h.Store.UpsertNotificationSettings(ctx, upsert)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to save notification settings")
	}
	return c.JSON(http.StatusOK, settings)
}
