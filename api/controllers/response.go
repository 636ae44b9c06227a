package controllers

import (
	"net/http"

	"github.com/go-chi/render"

	"datawrangle-service/service/models"
)

// APIResponse 统一API响应结构
type APIResponse struct {
	Status int         `json:"status" example:"0"`
	Msg    string      `json:"msg" example:"操作成功"`
	Data   interface{} `json:"data,omitempty"`
}

// SuccessResponse 构造成功响应
func SuccessResponse(msg string, data interface{}) *APIResponse {
	return &APIResponse{
		Status: 0,
		Msg:    msg,
		Data:   data,
	}
}

// ErrorResponse 构造错误响应
func ErrorResponse(status int, msg string, err error) *APIResponse {
	response := &APIResponse{
		Status: status,
		Msg:    msg,
	}
	if err != nil {
		response.Data = err.Error()
	}
	return response
}

// RenderError 按错误类别映射HTTP状态码并渲染统一错误响应
func RenderError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	msg := "内部错误"

	switch {
	case models.IsValidationError(err):
		status = http.StatusBadRequest
		msg = "数据校验失败"
	case models.IsConfigurationError(err):
		status = http.StatusBadRequest
		msg = "操作配置错误"
	case models.IsNotFoundError(err):
		status = http.StatusNotFound
		msg = "资源不存在"
	case models.IsConflictError(err):
		status = http.StatusConflict
		msg = "保存冲突"
	case models.IsTimeoutError(err):
		status = http.StatusGatewayTimeout
		msg = "操作超时"
	}

	render.Status(r, status)
	render.JSON(w, r, ErrorResponse(status, msg, err))
}
