package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"gridscape/internal/ai/cascade"
	"gridscape/internal/ai/prompt"
	"gridscape/internal/model"
	"gridscape/internal/observability"
	"gridscape/internal/service"
)

// SessionHeader 客户端会话标识，和 nodeId 一起用于取消过期请求
const SessionHeader = "X-Session-ID"

// StatusClientClosedRequest 客户端在响应前断开
const StatusClientClosedRequest = 499

// 固定的错误文案，前端依赖这些字符串
const (
	msgAPIKeyMissing  = "Server API Key missing"
	msgAllModelFailed = "All models failed"
	msgInvalidBody    = "Invalid request body"
)

// RewriteHandler 改写处理器
type RewriteHandler struct {
	rewriteSvc *service.RewriteService
}

// NewRewriteHandler 创建改写处理器
func NewRewriteHandler(rewriteSvc *service.RewriteService) *RewriteHandler {
	return &RewriteHandler{
		rewriteSvc: rewriteSvc,
	}
}

// Upgrade 改写/释义接口
// @Summary      改写或释义一段文本
// @Description  按 mode 改写文本（sophisticate/simplify/emotional/custom），task=define 时返回单词释义。依次尝试配置的模型，返回第一个合法 JSON。
// @Tags         rewrite
// @Accept       json
// @Produce      json
// @Param        request          body      model.UpgradeRequest  true   "改写请求"
// @Param        Idempotency-Key  header    string                false  "重复提交时重放首次成功结果"
// @Param        X-Session-ID     header    string                false  "客户端会话，用于取消同一节点的过期请求"
// @Success      200  {object}  model.ChatCompletion  "choices[0].message.content 为 JSON 字符串"
// @Failure      400  {object}  model.ErrorResponse   "请求参数错误"
// @Failure      405  {object}  model.ErrorResponse   "方法不允许"
// @Failure      409  {object}  model.ErrorResponse   "被同一节点的新请求取代"
// @Failure      500  {object}  model.ErrorResponse   "服务器配置或内部错误"
// @Failure      502  {object}  model.ErrorResponse   "所有模型都失败"
// @Router       /api/upgrade [post]
func (h *RewriteHandler) Upgrade(c *gin.Context) {
	if c.Request.Method != http.MethodPost {
		c.JSON(http.StatusMethodNotAllowed, model.ErrorResponse{Error: "Method Not Allowed"})
		return
	}

	// 凭证检查在解析请求体之前
	if !h.rewriteSvc.Ready() {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: msgAPIKeyMissing})
		return
	}

	var req model.UpgradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: msgInvalidBody, Details: err.Error()})
		return
	}

	scope := c.ClientIP() + "|" + c.GetHeader(SessionHeader)
	resp, err := h.rewriteSvc.Rewrite(c.Request.Context(), &req, scope)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// writeError 把服务层错误映射为 HTTP 响应
func (h *RewriteHandler) writeError(c *gin.Context, err error) {
	var (
		verr      *prompt.ValidationError
		exhausted *cascade.ExhaustionError
	)

	switch {
	case errors.Is(err, cascade.ErrConfiguration):
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: msgAPIKeyMissing})
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: verr.Error()})
	case errors.As(err, &exhausted):
		observability.CaptureError(c.Request.Context(), err)
		c.JSON(http.StatusBadGateway, model.ErrorResponse{Error: msgAllModelFailed, Details: exhausted.Details()})
	case errors.Is(err, service.ErrSuperseded):
		c.JSON(http.StatusConflict, model.ErrorResponse{Error: err.Error()})
	case errors.Is(err, context.Canceled):
		log.Info().Str("request_id", c.GetString("request_id")).Msg("client closed request")
		c.AbortWithStatus(StatusClientClosedRequest)
	default:
		observability.CaptureError(c.Request.Context(), err)
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: err.Error()})
	}
}
