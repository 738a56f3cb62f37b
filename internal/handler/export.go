package handler

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yuxishi/zvm-license-report/internal/model"
	"github.com/yuxishi/zvm-license-report/internal/report"
)

func (h *Handler) ExportHTML(c *gin.Context) {
	h.export(c, "html", "text/html; charset=utf-8", report.WriteHTML)
}

func (h *Handler) ExportCSV(c *gin.Context) {
	h.export(c, "csv", "text/csv; charset=utf-8", report.WriteCSV)
}

func (h *Handler) ExportJSON(c *gin.Context) {
	h.export(c, "json", "application/json; charset=utf-8", report.WriteJSON)
}

// export renders into a buffer first so a template failure still yields a clean 500.
func (h *Handler) export(c *gin.Context, ext, contentType string, write func(io.Writer, *model.ZertoData) error) {
	data, _, err := h.report(c.Request.Context())
	if err != nil {
		c.String(http.StatusBadGateway, "No data available: %v", err)
		return
	}

	var buf bytes.Buffer
	if err := write(&buf, data); err != nil {
		h.log.WithError(err).WithField("format", ext).Error("export failed")
		c.String(http.StatusInternalServerError, "Export failed")
		return
	}

	filename := fmt.Sprintf("zvm-license-report-%s.%s", time.Now().Format("2006-01-02"), ext)
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, contentType, buf.Bytes())
}
