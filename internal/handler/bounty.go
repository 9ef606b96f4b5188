package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/openclaw/bountyboard/internal/model"
	"github.com/openclaw/bountyboard/internal/service"
)

// BountyHandler bundles dependencies for the bounty endpoints.
type BountyHandler struct {
	Bounties *service.BountyService
}

func NewBountyHandler(b *service.BountyService) *BountyHandler {
	return &BountyHandler{Bounties: b}
}

type acceptReq struct {
	AcceptedID string `json:"acceptedId"`
}

// applyReq mirrors the wire shape the frontend sends: the full listed
// array with the applicant appended; only the last element is consumed.
type applyReq struct {
	ListedUsers []string `json:"listedUsers"`
}

// Detail returns the enriched bounty view for a requester.
func (h *BountyHandler) Detail(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	d, err := h.Bounties.Detail(ctx, c.Param("bountyId"), c.Param("id"))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, d)
}

// List returns one organization-scoped page of bounties.
func (h *BountyHandler) List(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	res, err := h.Bounties.ListVisible(ctx, c.Param("userId"), page, limit)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// Create posts a new bounty for the creator in the path.
func (h *BountyHandler) Create(c echo.Context) error {
	var in service.CreateBountyInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	res, err := h.Bounties.Create(ctx, c.Param("id"), in)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusCreated, res)
}

// Accept marks a listed applicant as the accepted one.
func (h *BountyHandler) Accept(c echo.Context) error {
	var req acceptReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	b, err := h.Bounties.Accept(ctx, c.Param("id"), req.AcceptedID)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

// Apply adds the applicant (last element of the submitted list) to the
// bounty. A duplicate application reports a conflict and leaves the
// applicant set unchanged.
func (h *BountyHandler) Apply(c echo.Context) error {
	var req applyReq
	if err := c.Bind(&req); err != nil || len(req.ListedUsers) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "listedUsers required"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	applicant := req.ListedUsers[len(req.ListedUsers)-1]
	b, err := h.Bounties.Apply(ctx, c.Param("id"), applicant)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

// Separate splits the user's bounties into created / listed / accepted.
func (h *BountyHandler) Separate(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	created, listed, accepted, err := h.Bounties.ByRelation(ctx, c.Param("userId"))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, [3][]model.Bounty{created, listed, accepted})
}

// Filter runs the organization-scoped bounty search.
func (h *BountyHandler) Filter(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	data, err := h.Bounties.FilterBounties(ctx,
		c.QueryParam("userId"), c.QueryParam("days"), c.QueryParam("loot"), c.QueryParam("keywords"))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": data})
}
