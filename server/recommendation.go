package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ronniejay22/Knot-APP-sub003/engine/scoring"
	"github.com/ronniejay22/Knot-APP-sub003/store"
)

// RecommendationHandler ranks externally generated candidates against a
// vault's preferences and persists the scored results. Candidate
// generation itself happens outside the core.
type RecommendationHandler struct {
	Store  *store.Store
	Scorer *scoring.Scorer
}

func (h *RecommendationHandler) Register(g *echo.Group) {
	g.POST("/recommendations/rank", h.RankCandidates)
	g.GET("/recommendations", h.ListRecommendations)
	g.POST("/recommendations/:id/select", h.SelectRecommendation)
}

type rankCandidateRequest struct {
	UID           string    `json:"uid"`
	Kind          string    `json:"kind"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Interests     []string  `json:"interests"`
	Vibes         []string  `json:"vibes"`
	LoveLanguages []string  `json:"loveLanguages"`
	Embedding     []float32 `json:"embedding"`
}

type rankRequest struct {
	VaultID      int32                  `json:"vaultId"`
	MilestoneID  *int32                 `json:"milestoneId"`
	VibeOverride []string               `json:"vibeOverride"`
	Candidates   []rankCandidateRequest `json:"candidates"`
}

func (h *RecommendationHandler) RankCandidates(c echo.Context) error {
	ctx := c.Request().Context()
	var req rankRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if len(req.Candidates) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "no candidates given")
	}

	vault, err := h.Store.GetVault(ctx, &store.FindVault{ID: &req.VaultID})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load vault")
	}
	if vault == nil {
		return echo.NewHTTPError(http.StatusNotFound, "vault not found")
	}

	candidates := make([]*scoring.Candidate, 0, len(req.Candidates))
	for _, cr := range req.Candidates {
		candidates = append(candidates, &scoring.Candidate{
			UID:           cr.UID,
			Kind:          store.RecommendationKind(cr.Kind),
			Title:         cr.Title,
			Description:   cr.Description,
			Interests:     cr.Interests,
			Vibes:         cr.Vibes,
			LoveLanguages: cr.LoveLanguages,
			Embedding:     cr.Embedding,
		})
	}
	opts := &scoring.RankOptions{}
	for _, v := range req.VibeOverride {
		opts.VibeOverride = append(opts.VibeOverride, store.VibeTagValue(v))
	}

	scored, err := h.Scorer.Rank(ctx, req.VaultID, candidates, opts)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to rank candidates")
	}

	recommendations := make([]*store.Recommendation, 0, len(scored))
	for _, sc := range scored {
		create := &store.CreateRecommendation{
			UID:               sc.Candidate.UID,
			VaultID:           req.VaultID,
			MilestoneID:       req.MilestoneID,
			Kind:              sc.Candidate.Kind,
			Title:             sc.Candidate.Title,
			Description:       sc.Candidate.Description,
			Interests:         sc.Candidate.Interests,
			Vibes:             sc.Candidate.Vibes,
			LoveLanguages:     sc.Candidate.LoveLanguages,
			InterestScore:     sc.InterestScore,
			VibeScore:         sc.VibeScore,
			LoveLanguageScore: sc.LoveLanguageScore,
			CompositeScore:    sc.CompositeScore,
			HintIDs:           sc.HintIDs,
			Embedding:         sc.Candidate.Embedding,
		}
		if err := create.Validate(); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		rec, err := h.Store.CreateRecommendation(ctx, create)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to persist recommendation")
		}
		recommendations = append(recommendations, rec)
	}
	return c.JSON(http.StatusCreated, recommendations)
}

func (h *RecommendationHandler) ListRecommendations(c echo.Context) error {
	ctx := c.Request().Context()
	vaultID, err := queryInt32(c, "vault")
	if err != nil {
		return err
	}

	recommendations, err := h.Store.ListRecommendations(ctx, &store.FindRecommendation{
		VaultID: &vaultID,
		Limit:   queryLimit(c, 20, 100),
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list recommendations")
	}
	return c.JSON(http.StatusOK, recommendations)
}

// SelectRecommendation records a confirmed selection: the boosting hints
// are consumed and a selected feedback event is appended for the learner.
func (h *RecommendationHandler) SelectRecommendation(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := pathID(c)
	if err != nil {
		return err
	}

	list, err := h.Store.ListRecommendations(ctx, &store.FindRecommendation{ID: &id})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load recommendation")
	}
	if len(list) == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "recommendation not found")
	}
	rec := list[0]

	vault, err := h.Store.GetVault(ctx, &store.FindVault{ID: &rec.VaultID})
	if err != nil || vault == nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load vault")
	}

	if err := h.Scorer.ConfirmSelection(ctx, rec); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to consume hints")
	}

	feedback, err := h.Store.CreateFeedback(ctx, &store.CreateFeedback{
		UserID:           vault.UserID,
		RecommendationID: rec.ID,
		Action:           store.ActionSelected,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to record selection")
	}
	return c.JSON(http.StatusOK, feedback)
}
