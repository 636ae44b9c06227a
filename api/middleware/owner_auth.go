/*
 * @module api/middleware/owner_auth
 * @description 属主识别中间件，从 X-Owner-ID 请求头提取调用方身份并注入上下文
 * @architecture 中间件模式 - HTTP请求拦截
 * @documentReference dev_docs/backend_requirements.md 属主与权限一节
 * @stateFlow 请求头提取 -> 上下文注入 -> 下一个处理器
 * @rules 未携带属主头的请求以匿名身份继续；属主归属校验由业务层完成
 * @dependencies net/http, context
 * @refs api/routes.go, api/controllers/dataset_controller.go
 */

package middleware

import (
	"context"
	"net/http"
	"strings"
)

// ContextKey 上下文键类型
type ContextKey string

// OwnerKey 属主在上下文中的键
const OwnerKey ContextKey = "owner"

// OwnerHeader 承载属主标识的请求头
const OwnerHeader = "X-Owner-ID"

// OwnerAuth 属主识别中间件
// 从请求头提取属主标识注入上下文，供数据集创建和搜索过滤使用
func OwnerAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		owner := strings.TrimSpace(r.Header.Get(OwnerHeader))
		if owner != "" {
			ctx := context.WithValue(r.Context(), OwnerKey, owner)
			r = r.WithContext(ctx)
		}
		next.ServeHTTP(w, r)
	})
}

// GetOwnerFromContext 从上下文中获取属主标识
func GetOwnerFromContext(ctx context.Context) (string, bool) {
	owner, ok := ctx.Value(OwnerKey).(string)
	return owner, ok
}
