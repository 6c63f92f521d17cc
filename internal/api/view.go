package api

import (
	"net/http"

	"placement-portal/internal/model"
	"placement-portal/internal/viewmodel"

	"github.com/gin-gonic/gin"
)

type viewResponse struct {
	View          []model.CompanyGroup    `json:"view"`
	Query         string                  `json:"query"`
	SortKey       viewmodel.SortField     `json:"sort_key"`
	SortDirection viewmodel.SortDirection `json:"sort_direction"`
	Empty         bool                    `json:"empty"`
	Groups        int                     `json:"groups"`
	Listings      int                     `json:"listings"`
}

func newViewResponse(s viewmodel.State) viewResponse {
	view := s.View
	if view == nil {
		view = []model.CompanyGroup{}
	}
	return viewResponse{
		View:          view,
		Query:         s.Query,
		SortKey:       s.SortKey,
		SortDirection: s.SortDirection,
		Empty:         s.Empty(),
		Groups:        len(s.View),
		Listings:      s.ListingCount(),
	}
}

func (h *Handler) session(c *gin.Context) *viewmodel.Model {
	return h.registry.Get(c.GetString(ctxToken))
}

// LoadView refetches every listing into the session's view. A failed
// fetch answers 502 with the previous view left intact.
func (h *Handler) LoadView(c *gin.Context) {
	state, err := h.session(c).Refresh(c.Request.Context(), h.svc.Records)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load listings")
		c.JSON(statusFor(err), gin.H{
			"error": err.Error(),
			"view":  newViewResponse(state),
		})
		return
	}

	c.JSON(http.StatusOK, newViewResponse(state))
}

func (h *Handler) GetView(c *gin.Context) {
	c.JSON(http.StatusOK, newViewResponse(h.session(c).Snapshot()))
}

func (h *Handler) SetQuery(c *gin.Context) {
	var req model.QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	c.JSON(http.StatusOK, newViewResponse(h.session(c).SetQuery(req.Query)))
}

func (h *Handler) ToggleSort(c *gin.Context) {
	var req model.SortRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	field, err := viewmodel.ParseSortField(req.Field)
	if err != nil {
		h.fail(c, err, "Unknown sort field")
		return
	}

	c.JSON(http.StatusOK, newViewResponse(h.session(c).ToggleSort(field)))
}
