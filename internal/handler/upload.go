package handler

import (
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/openclaw/bountyboard/internal/storage"
)

// UploadHandler serves the two stateless I/O collaborators: presigned
// upload URL issuance and the remote image proxy.
type UploadHandler struct {
	Presigner *storage.Presigner // nil when S3 is not configured
	client    *http.Client
}

func NewUploadHandler(p *storage.Presigner) *UploadHandler {
	return &UploadHandler{Presigner: p, client: &http.Client{Timeout: 15 * time.Second}}
}

// FetchUploadURL hands out a time-limited presigned PUT URL.
func (h *UploadHandler) FetchUploadURL(c echo.Context) error {
	if h.Presigner == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"message": "uploads not configured"})
	}
	ctx := c.Request().Context()
	uploadURL, err := h.Presigner.UploadURL(ctx)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"uploadURL": uploadURL})
}

// ProxyImage fetches a remote image and relays its bytes with the
// upstream content type, so the frontend can render images from hosts
// that refuse cross-origin requests.
func (h *UploadHandler) ProxyImage(c echo.Context) error {
	target := c.QueryParam("url")
	if target == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "url query parameter required"})
	}
	req, err := http.NewRequestWithContext(c.Request().Context(), http.MethodGet, target, nil)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid url"})
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return c.JSON(http.StatusBadGateway, echo.Map{"message": "failed to fetch image"})
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return c.JSON(http.StatusBadGateway, echo.Map{"message": "upstream returned an error"})
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return c.Stream(http.StatusOK, contentType, io.LimitReader(resp.Body, 32<<20))
}
