package blocklist

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/leighmacdonald/ipreview/internal/httphelper"
	"github.com/leighmacdonald/ipreview/internal/log"
)

type blocklistHandler struct {
	store *Store
}

func NewHandler(engine *gin.Engine, store *Store) {
	handler := blocklistHandler{store: store}

	engine.POST("/block", handler.onAPIBlock())
	engine.GET("/blocklist.txt", handler.onBlocklistText())
	engine.GET("/blocklist/contains", handler.onAPIContains())
}

type BlockRequest struct {
	Subnet string `json:"subnet" binding:"required,cidr_prefix"`
}

// onAPIBlock responds with plain text rather than JSON, the browser client shows the
// message as-is.
func (b *blocklistHandler) onAPIBlock() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		var req BlockRequest
		if errBind := ctx.ShouldBindJSON(&req); errBind != nil {
			var validationErrs validator.ValidationErrors
			if errors.As(errBind, &validationErrs) && validationErrs[0].Tag() == "cidr_prefix" {
				ctx.String(http.StatusBadRequest, "Invalid subnet: %s", req.Subnet)

				return
			}

			ctx.String(http.StatusBadRequest, "Missing 'subnet' in request body")

			return
		}

		result, errAdd := b.store.Add(ctx, req.Subnet)
		if errAdd != nil {
			slog.Error("Failed to write blocklist", log.ErrAttr(errAdd), slog.String("subnet", req.Subnet))
			ctx.String(http.StatusInternalServerError, "Error writing to blocklist file.")

			return
		}

		if result == AlreadyPresent {
			ctx.String(http.StatusOK, "%s is already in the blocklist.", req.Subnet)

			return
		}

		ctx.String(http.StatusOK, "Successfully added %s", req.Subnet)
	}
}

func (b *blocklistHandler) onBlocklistText() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		body, errRead := b.store.ReadAll(ctx)
		if errRead != nil {
			httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusInternalServerError, errors.Join(errRead, ErrStorage)))

			return
		}

		ctx.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(body))
	}
}

type ContainsQuery struct {
	Subnet string `form:"subnet" url:"subnet" binding:"required,cidr_prefix"`
}

type ContainsResponse struct {
	Subnet   string `json:"subnet"`
	Contains bool   `json:"contains"`
}

func (b *blocklistHandler) onAPIContains() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		var query ContainsQuery
		if errBind := ctx.ShouldBindQuery(&query); errBind != nil {
			httphelper.SetError(ctx, httphelper.NewAPIErrorf(http.StatusBadRequest, errors.Join(errBind, httphelper.ErrBadRequest),
				"Invalid subnet: %s", ctx.Query("subnet")))

			return
		}

		found, errContains := b.store.Contains(ctx, query.Subnet)
		if errContains != nil {
			httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusInternalServerError, errors.Join(errContains, ErrStorage)))

			return
		}

		ctx.JSON(http.StatusOK, ContainsResponse{Subnet: query.Subnet, Contains: found})
	}
}
