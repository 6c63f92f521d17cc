package api

import (
	"fmt"
	"net/http"
	"path"
	"strings"

	"placement-portal/internal/excel"
	"placement-portal/internal/model"
	"placement-portal/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const importPrefix = "imports/"

// UploadImport stores an xlsx workbook and queues it for the import worker.
func (h *Handler) UploadImport(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing file"})
		return
	}
	if !strings.EqualFold(path.Ext(header.Filename), ".xlsx") {
		h.fail(c, fmt.Errorf("%w: expected an .xlsx workbook", errors.ErrInvalidFileFormat), "Rejected import upload")
		return
	}
	if header.Size > h.cfg.Server.MaxUploadBytes {
		h.fail(c, fmt.Errorf("%w: file exceeds %d bytes", errors.ErrInvalidFileFormat, h.cfg.Server.MaxUploadBytes), "Rejected import upload")
		return
	}

	src, err := header.Open()
	if err != nil {
		h.fail(c, err, "Failed to open upload")
		return
	}
	defer src.Close()

	ctx := c.Request.Context()
	email := c.GetString(ctxEmail)
	file := &model.ImportFile{
		ID:        uuid.NewString(),
		CreatedBy: email,
	}
	file.S3Path = importPrefix + file.ID + ".xlsx"

	if err := h.svc.Storage.Upload(ctx, file.S3Path, excel.ContentType, src); err != nil {
		h.fail(c, err, "Failed to store import file")
		return
	}
	if err := h.svc.Imports.CreateImportFile(ctx, file); err != nil {
		h.fail(c, err, "Failed to record import file")
		return
	}

	job := model.ImportJob{FileID: file.ID, S3Path: file.S3Path, CreatedBy: email}
	if err := h.svc.Queue.EnqueueImportJob(ctx, job); err != nil {
		h.log.Error().Err(err).Str("file_id", file.ID).Msg("Failed to enqueue import job")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to queue import job"})
		return
	}

	h.log.Info().
		Str("file_id", file.ID).
		Str("s3_path", file.S3Path).
		Str("created_by", email).
		Msg("Import job enqueued")

	c.JSON(http.StatusAccepted, file)
}

func (h *Handler) GetImport(c *gin.Context) {
	file, err := h.svc.Imports.GetImportFile(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err, "Failed to fetch import")
		return
	}
	if file.CreatedBy != c.GetString(ctxEmail) {
		h.fail(c, errors.ErrNotOwner, "Import belongs to another user")
		return
	}

	c.JSON(http.StatusOK, file)
}

// Backfill mirrors every stored listing to the spreadsheet.
func (h *Handler) Backfill(c *gin.Context) {
	res, err := h.svc.Mirror.Backfill(c.Request.Context())
	if err != nil {
		h.fail(c, err, "Backfill failed")
		return
	}

	c.JSON(http.StatusOK, res)
}
