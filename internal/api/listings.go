package api

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"placement-portal/internal/listing"
	"placement-portal/internal/model"
	"placement-portal/pkg/errors"

	"github.com/gin-gonic/gin"
)

const screenshotField = "screenshot"

func (h *Handler) SubmitListing(c *gin.Context) {
	req, shot, cleanup, err := h.bindListing(c)
	if err != nil {
		h.fail(c, err, "Invalid listing form")
		return
	}
	defer cleanup()

	created, err := h.svc.Listings.Submit(c.Request.Context(), c.GetString(ctxEmail), req, shot)
	if err != nil {
		h.fail(c, err, "Failed to submit listing")
		return
	}

	c.JSON(http.StatusCreated, created)
}

func (h *Handler) EditListing(c *gin.Context) {
	req, shot, cleanup, err := h.bindListing(c)
	if err != nil {
		h.fail(c, err, "Invalid listing form")
		return
	}
	defer cleanup()

	updated, err := h.svc.Listings.Edit(c.Request.Context(), c.GetString(ctxEmail), c.Param("id"), req, shot)
	if err != nil {
		h.fail(c, err, "Failed to edit listing")
		return
	}

	c.JSON(http.StatusOK, updated)
}

func (h *Handler) MyListings(c *gin.Context) {
	listings, err := h.svc.Listings.Mine(c.Request.Context(), c.GetString(ctxEmail))
	if err != nil {
		h.fail(c, err, "Failed to fetch listings")
		return
	}
	if listings == nil {
		listings = []model.Listing{}
	}

	c.JSON(http.StatusOK, gin.H{"listings": listings})
}

func (h *Handler) GetListing(c *gin.Context) {
	l, err := h.svc.Listings.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err, "Failed to fetch listing")
		return
	}

	c.JSON(http.StatusOK, l)
}

// bindListing reads a listing form. Multipart bodies may carry a
// screenshot file; JSON bodies may not. The returned cleanup closes the
// uploaded file.
func (h *Handler) bindListing(c *gin.Context) (model.ListingRequest, *listing.Screenshot, func(), error) {
	noop := func() {}

	if strings.HasPrefix(c.ContentType(), gin.MIMEJSON) {
		var req model.ListingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			return req, nil, noop, fmt.Errorf("%w: %v", errors.ErrSchemaValidation, err)
		}
		return req, nil, noop, nil
	}

	req := model.ListingRequest{
		CompanyName: c.PostForm("company_name"),
		Institute:   c.PostForm("institute"),
		JobType:     model.JobType(c.PostForm("job_type")),
		Stipend:     c.PostForm("stipend"),
		Role:        c.PostForm("role"),
		HRDetails:   c.PostForm("hr_details"),
		PPTDate:     c.PostForm("ppt_date"),
		OADate:      c.PostForm("oa_date"),
	}
	for _, v := range c.PostFormArray("eligibility") {
		req.Eligibility = append(req.Eligibility, model.ParseEligibility(v)...)
	}

	if raw := strings.TrimSpace(c.PostForm("final_hiring_number")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return req, nil, noop, errors.ValidationError{
				Field:   "final_hiring_number",
				Value:   raw,
				Message: "must be a whole number",
			}
		}
		req.FinalHiringNumber = &n
	}

	header, err := c.FormFile(screenshotField)
	if stderrors.Is(err, http.ErrMissingFile) || stderrors.Is(err, http.ErrNotMultipart) {
		return req, nil, noop, nil
	}
	if err != nil {
		return req, nil, noop, fmt.Errorf("%w: %v", errors.ErrInvalidFileFormat, err)
	}
	if header.Size > h.cfg.Server.MaxUploadBytes {
		return req, nil, noop, fmt.Errorf("%w: screenshot exceeds %d bytes", errors.ErrInvalidFileFormat, h.cfg.Server.MaxUploadBytes)
	}

	file, err := header.Open()
	if err != nil {
		return req, nil, noop, err
	}

	shot := &listing.Screenshot{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        file,
	}
	return req, shot, func() { _ = file.Close() }, nil
}
