package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	apperrors "animehome/backend/pkg/errors"
	"animehome/backend/pkg/logger"
	"animehome/backend/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/go-resty/resty/v2"
)

const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

var errImageTooLarge = errors.New("image exceeds size limit")

// ImageProxyHandler fetches remote images server-side so the browser avoids hotlink protection
type ImageProxyHandler struct {
	client   *resty.Client
	maxBytes int64
}

func NewImageProxyHandler(timeout time.Duration, maxBytes int64) *ImageProxyHandler {
	client := resty.New().
		SetHeader("User-Agent", browserUserAgent).
		SetTimeout(timeout)

	return &ImageProxyHandler{client: client, maxBytes: maxBytes}
}

func (h *ImageProxyHandler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/proxy/image", h.ProxyImage)
}

func (h *ImageProxyHandler) ProxyImage(c *gin.Context) {
	raw := c.Query("url")
	if raw == "" {
		metrics.ImageProxyRequests.WithLabelValues("rejected").Inc()
		c.Error(apperrors.NewBadRequestError("MISSING_URL", "Missing URL parameter"))
		return
	}
	target, err := url.Parse(raw)
	if err != nil || (target.Scheme != "http" && target.Scheme != "https") || target.Host == "" {
		metrics.ImageProxyRequests.WithLabelValues("rejected").Inc()
		c.Error(apperrors.NewBadRequestError("INVALID_URL", "URL must be an absolute http(s) URL"))
		return
	}

	resp, err := h.client.R().
		SetContext(c.Request.Context()).
		SetHeader("Referer", raw).
		SetDoNotParseResponse(true).
		Get(raw)
	if err != nil {
		metrics.ImageProxyRequests.WithLabelValues("error").Inc()
		logger.FromContext(c).Warn("image fetch failed", "url", raw, "error", err.Error())
		c.Error(apperrors.NewInternalServerError("INTERNAL_ERROR", "Internal Server Error"))
		return
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.StatusCode() != http.StatusOK {
		metrics.ImageProxyRequests.WithLabelValues("upstream_status").Inc()
		status := resp.StatusCode()
		if status < http.StatusBadRequest {
			status = http.StatusBadGateway
		}
		c.Error(apperrors.NewError(status, "IMAGE_FETCH_FAILED", "Failed to fetch image"))
		return
	}

	data, err := h.readBody(body)
	if err != nil {
		metrics.ImageProxyRequests.WithLabelValues("error").Inc()
		logger.FromContext(c).Warn("image read failed", "url", raw, "error", err.Error())
		c.Error(apperrors.NewInternalServerError("INTERNAL_ERROR", "Internal Server Error"))
		return
	}

	contentType := resp.Header().Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	metrics.ImageProxyRequests.WithLabelValues("ok").Inc()
	c.Data(http.StatusOK, contentType, data)
}

func (h *ImageProxyHandler) readBody(body io.Reader) ([]byte, error) {
	if h.maxBytes <= 0 {
		return io.ReadAll(body)
	}
	data, err := io.ReadAll(io.LimitReader(body, h.maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > h.maxBytes {
		return nil, fmt.Errorf("%w: %d bytes", errImageTooLarge, h.maxBytes)
	}
	return data, nil
}
