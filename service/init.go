/*
 * @module service/init
 * @description 服务初始化模块，负责数据库连接、迁移和各业务服务的装配
 * @architecture 分层架构 - 服务层
 * @documentReference dev_docs/backend_requirements.md
 * @stateFlow 应用启动时执行初始化流程
 * @rules 确保所有依赖服务正常启动后才提供API服务
 * @dependencies gorm.io/gorm, service/database, service/catalog, service/pipeline
 * @refs dev_docs/model.md
 */

package service

import (
	"log"
	"os"

	"gorm.io/gorm"

	"datawrangle-service/service/catalog"
	"datawrangle-service/service/cleanup"
	"datawrangle-service/service/database"
	"datawrangle-service/service/distributed_lock"
	"datawrangle-service/service/events"
	"datawrangle-service/service/pipeline"
)

var (
	DB                   *gorm.DB
	GlobalCatalogService *catalog.Service
	GlobalOrchestrator   *pipeline.Orchestrator
	GlobalEventPublisher events.Publisher
	GlobalCleanupService *cleanup.OrphanCleanupService
)

func init() {
	initDatabase()
	runMigrations()
	initServices()
}

// initDatabase 初始化数据库连接
func initDatabase() {
	var err error
	DB, err = database.Open()
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}
}

// runMigrations 运行数据库迁移
func runMigrations() {
	if err := database.AutoMigrate(DB); err != nil {
		log.Fatalf("数据库迁移失败: %v", err)
	}
}

// initServices 初始化服务
func initServices() {
	GlobalCatalogService = catalog.NewService(DB)

	// 多实例部署时通过Redis锁串行化同一数据集的保存
	if os.Getenv("REDIS_HOST") != "" {
		lock, err := distributed_lock.NewRedisLock()
		if err != nil {
			log.Printf("Redis保存锁初始化失败，仅使用进程内锁: %v", err)
		} else {
			GlobalCatalogService.WithDistributedLock(lock)
		}
	}

	GlobalOrchestrator = pipeline.NewOrchestrator()
	GlobalEventPublisher = events.NewPublisherFromEnv()

	GlobalCleanupService = cleanup.NewOrphanCleanupService(DB)
	if err := GlobalCleanupService.StartScheduledCleanup(); err != nil {
		log.Printf("启动孤儿数据清理调度器失败: %v", err)
	}

	log.Println("服务初始化完成")
}
