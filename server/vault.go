package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ronniejay22/Knot-APP-sub003/store"
)

// VaultHandler handles vault CRUD. One vault exists per user; the unique
// constraint on user_id surfaces as a conflict here.
type VaultHandler struct {
	Store *store.Store
}

func (h *VaultHandler) Register(g *echo.Group) {
	g.POST("/vaults", h.CreateVault)
	g.GET("/vaults", h.GetVault)
	g.PATCH("/vaults/:id", h.UpdateVault)
	g.DELETE("/vaults/:id", h.DeleteVault)
}

type createVaultRequest struct {
	UserID            int32  `json:"userId"`
	PartnerName       string `json:"partnerName"`
	RelationshipStart string `json:"relationshipStart"`
	Cohabiting        bool   `json:"cohabiting"`
	Location          string `json:"location"`
}

func (h *VaultHandler) CreateVault(c echo.Context) error {
	ctx := c.Request().Context()
	var req createVaultRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}

	create := &store.CreateVault{
		UserID:            req.UserID,
		PartnerName:       req.PartnerName,
		RelationshipStart: req.RelationshipStart,
		Cohabiting:        req.Cohabiting,
		Location:          req.Location,
	}
	if err := create.Validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	existing, err := h.Store.GetVault(ctx, &store.FindVault{UserID: &req.UserID})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to check existing vault")
	}
	if existing != nil {
		return echo.NewHTTPError(http.StatusConflict, "vault already exists for user")
	}

	vault, err := h.Store.CreateVault(ctx, create)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create vault")
	}
	return c.JSON(http.StatusCreated, vault)
}

func (h *VaultHandler) GetVault(c echo.Context) error {
	ctx := c.Request().Context()
	userID, err := queryInt32(c, "user")
	if err != nil {
		return err
	}

	vault, err := h.Store.GetVault(ctx, &store.FindVault{UserID: &userID})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load vault")
	}
	if vault == nil {
		return echo.NewHTTPError(http.StatusNotFound, "vault not found")
	}
	return c.JSON(http.StatusOK, vault)
}

type updateVaultRequest struct {
	PartnerName       *string `json:"partnerName"`
	RelationshipStart *string `json:"relationshipStart"`
	Cohabiting        *bool   `json:"cohabiting"`
	Location          *string `json:"location"`
}

func (h *VaultHandler) UpdateVault(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req updateVaultRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if req.RelationshipStart != nil {
		if _, err := store.ParseDate(*req.RelationshipStart); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}

	vault, err := h.Store.UpdateVault(ctx, &store.UpdateVault{
		ID:                id,
		PartnerName:       req.PartnerName,
		RelationshipStart: req.RelationshipStart,
		Cohabiting:        req.Cohabiting,
		Location:          req.Location,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to update vault")
	}
	return c.JSON(http.StatusOK, vault)
}

func (h *VaultHandler) DeleteVault(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := pathID(c)
	if err != nil {
		return err
	}

	vault, err := h.Store.GetVault(ctx, &store.FindVault{ID: &id})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load vault")
	}
	if vault == nil {
		return echo.NewHTTPError(http.StatusNotFound, "vault not found")
	}

	// Cascades to preference facts, milestones, hints and recommendations,
	// and cancels still-live notifications.
	if err := h.Store.DeleteVault(ctx, id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete vault")
	}
	return c.NoContent(http.StatusNoContent)
}
