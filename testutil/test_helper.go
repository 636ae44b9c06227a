/*
 * @module testutil/test_helper
 * @description 测试工具和辅助函数
 * @architecture 测试基础设施 - 提供测试通用工具和数据工厂
 * @documentReference .specify/memory/test_plan.md
 * @stateFlow 测试环境初始化 -> 测试数据创建 -> 测试执行 -> 清理资源
 * @rules 提供可重用的测试工具，确保测试环境的一致性
 * @dependencies gorm, sqlite, testify, time
 * @refs service/models
 */

package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"datawrangle-service/service/models"
)

// TestDB 测试数据库配置
type TestDB struct {
	DB *gorm.DB
}

// NewTestDB 创建测试数据库
func NewTestDB() *TestDB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		panic(fmt.Sprintf("failed to connect test database: %v", err))
	}

	// 自动迁移所有模型
	err = db.AutoMigrate(
		&models.Dataset{},
		&models.DatasetTag{},
		&models.ProcessingStep{},
		&models.DatasetPayload{},
		&models.SearchToken{},
	)
	if err != nil {
		panic(fmt.Sprintf("failed to migrate test database: %v", err))
	}

	return &TestDB{DB: db}
}

// CleanDB 清理数据库
func (tdb *TestDB) CleanDB() {
	// 清空所有表的数据
	tables := []string{
		"processing_steps",
		"dataset_tags",
		"search_tokens",
		"datasets",
		"dataset_payloads",
	}

	for _, table := range tables {
		tdb.DB.Exec(fmt.Sprintf("DELETE FROM %s", table))
	}
}

// Close 关闭数据库连接
func (tdb *TestDB) Close() {
	if db, err := tdb.DB.DB(); err == nil {
		db.Close()
	}
}

// NewSampleTable 构造带类型标注的样例表格
// 三列：数值年龄、文本城市、分类部门，含空值
func NewSampleTable() *models.DataTable {
	return &models.DataTable{
		Name: "employees",
		Columns: []models.Column{
			{
				Name:   "age",
				Type:   models.ColumnTypeNumeric,
				Values: []interface{}{float64(25), float64(31), nil, float64(25), float64(40)},
			},
			{
				Name:   "city",
				Type:   models.ColumnTypeText,
				Values: []interface{}{"北京", "上海", "北京", "北京", nil},
			},
			{
				Name:   "dept",
				Type:   models.ColumnTypeText,
				Values: []interface{}{"销售", "研发", "销售", "销售", "研发"},
			},
		},
	}
}

// NewNumericTable 构造单数值列表格
func NewNumericTable(name string, values []interface{}) *models.DataTable {
	return &models.DataTable{
		Name: "numbers",
		Columns: []models.Column{
			{Name: name, Type: models.ColumnTypeNumeric, Values: values},
		},
	}
}

// NewSaveRequest 构造数据集保存请求
func NewSaveRequest(name string, tags ...string) models.SaveRequest {
	return models.SaveRequest{
		Name:        name,
		Description: "测试数据集 " + name,
		Tags:        tags,
		Owner:       "tester",
	}
}

// 辅助函数
func GenerateSuffix() string {
	return fmt.Sprintf("%d", time.Now().UnixNano()%100000)
}

// HTTPTestHelper HTTP测试辅助工具
type HTTPTestHelper struct{}

// NewHTTPTestHelper 创建HTTP测试辅助工具
func NewHTTPTestHelper() *HTTPTestHelper {
	return &HTTPTestHelper{}
}

// CreateJSONRequest 创建JSON请求
func (h *HTTPTestHelper) CreateJSONRequest(method, url string, body interface{}) (*http.Request, error) {
	var reqBody io.Reader

	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return nil, err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return req, nil
}

// AssertJSONResponse 断言JSON响应
func (h *HTTPTestHelper) AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedBody interface{}) {
	assert.Equal(t, expectedStatus, w.Code)

	if expectedBody != nil {
		var actualBody interface{}
		err := json.Unmarshal(w.Body.Bytes(), &actualBody)
		assert.NoError(t, err)

		expectedJSON, _ := json.Marshal(expectedBody)
		actualJSON, _ := json.Marshal(actualBody)

		assert.JSONEq(t, string(expectedJSON), string(actualJSON))
	}
}
