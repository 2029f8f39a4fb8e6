package triage

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/leighmacdonald/ipreview/internal/httphelper"
)

type triageHandler struct {
	processor *Processor
}

func NewHandler(engine *gin.Engine, processor *Processor) {
	handler := triageHandler{processor: processor}

	engine.POST("/process_list", handler.onAPIProcessList())
	engine.POST("/block_owner", handler.onAPIBlockOwner())
}

type ProcessRequest struct {
	IPs []string `json:"ips"`
}

type BlockOwnerRequest struct {
	Owner string   `json:"owner"`
	IPs   []string `json:"ips"`
}

func (h triageHandler) onAPIProcessList() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		req, ok := httphelper.BindJSON[ProcessRequest](ctx)
		if !ok {
			return
		}

		ctx.JSON(http.StatusOK, h.processor.Process(ctx, req.IPs))
	}
}

func (h triageHandler) onAPIBlockOwner() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		req, ok := httphelper.BindJSON[BlockOwnerRequest](ctx)
		if !ok {
			return
		}

		ctx.JSON(http.StatusOK, h.processor.BlockOwner(ctx, req.Owner, req.IPs))
	}
}
