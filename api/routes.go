/*
 * @module api/routes
 * @description API路由配置模块，负责初始化和配置所有HTTP路由
 * @architecture RESTful API架构
 * @documentReference dev_docs/backend_requirements.md
 * @stateFlow 无状态HTTP请求处理
 * @rules 遵循RESTful API设计规范，统一错误处理和响应格式
 * @dependencies github.com/go-chi/chi/v5, github.com/go-chi/cors, github.com/go-chi/render
 * @refs dev_docs/model.md
 */

package api

import (
	"datawrangle-service/api/controllers"
	custommiddleware "datawrangle-service/api/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
)

// InitRoute 初始化所有API路由
func InitRoute(r *chi.Mux) {
	// 基础中间件
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.Use(custommiddleware.OwnerAuth)

	// CORS配置
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Owner-ID"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// 健康检查
	healthController := controllers.NewHealthController()
	r.Get("/health", healthController.Health)
	r.Get("/ready", healthController.Ready)

	// 数据集目录
	r.Route("/datasets", func(r chi.Router) {
		datasetController := controllers.NewDatasetController()
		pipelineController := controllers.NewPipelineController()
		exportController := controllers.NewExportController()

		// 接入并登记数据集
		r.Post("/", datasetController.CreateDataset)

		// 按文本/标签/属主搜索
		r.Get("/", datasetController.SearchDatasets)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", datasetController.GetDataset)
			r.Delete("/", datasetController.DeleteDataset)

			// 处理历史（仅追加日志）
			r.Get("/history", datasetController.GetDatasetHistory)

			// 对已登记数据集执行清洗流水线并保存结果
			r.Post("/pipeline", pipelineController.RunPipeline)

			// 导出当前载荷
			r.Get("/export", exportController.ExportDataset)
		})
	})

	// 流水线无副作用接口
	r.Route("/pipeline", func(r chi.Router) {
		pipelineController := controllers.NewPipelineController()

		// 对请求表格执行流水线，不持久化
		r.Post("/preview", pipelineController.PreviewPipeline)

		// 列类型推断与统计
		r.Post("/infer-types", pipelineController.InferTypes)
	})
}
