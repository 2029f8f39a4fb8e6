package pending

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/leighmacdonald/ipreview/internal/log"
)

type pendingHandler struct {
	source *Source
}

func NewHandler(engine *gin.Engine, source *Source) {
	handler := pendingHandler{source: source}

	engine.GET("/get_ips", handler.onAPIGetIPs())
}

type IPsResponse struct {
	IPs []string `json:"ips"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func (h pendingHandler) onAPIGetIPs() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ips, errFetch := h.source.Fetch(ctx)
		if errFetch != nil {
			slog.Error("Failed to fetch pending ips", log.ErrAttr(errFetch))
			ctx.JSON(http.StatusInternalServerError, ErrorResponse{Error: errorMessage(errFetch)})

			return
		}

		ctx.JSON(http.StatusOK, IPsResponse{IPs: ips})
	}
}

// errorMessage maps a fetch failure to a message which is safe to show to the client.
func errorMessage(err error) string {
	switch {
	case errors.Is(err, ErrConfiguration):
		return "App is not configured with QRadar credentials."
	case errors.Is(err, ErrUpstreamDecode):
		return "An unexpected error occurred"
	default:
		return "Failed to retrieve IP list from QRadar"
	}
}
