/*
 * @module api/controllers/dataset_controller_test
 * @description 数据集控制器测试，覆盖创建/查询/删除/导出接口、属主中间件和错误到状态码的映射
 * @architecture 测试层
 * @documentReference .specify/memory/test_plan.md
 * @stateFlow 构造路由 -> httptest请求 -> 响应断言
 * @rules 控制器依赖通过内存数据库注入，不触碰全局服务
 * @dependencies testing, net/http/httptest, testify
 * @refs api/controllers/dataset_controller.go, api/controllers/export_controller.go
 */

package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datawrangle-service/api/middleware"
	"datawrangle-service/service/catalog"
	"datawrangle-service/service/events"
	"datawrangle-service/service/models"
	"datawrangle-service/testutil"
)

// newTestRouter 以内存数据库装配控制器和路由
func newTestRouter() (*testutil.TestDB, *chi.Mux) {
	testDB := testutil.NewTestDB()
	catalogService := catalog.NewService(testDB.DB)

	datasetController := &DatasetController{catalog: catalogService, publisher: events.NoopPublisher{}}
	exportController := &ExportController{catalog: catalogService}

	r := chi.NewRouter()
	r.Use(middleware.OwnerAuth)
	r.Post("/datasets", datasetController.CreateDataset)
	r.Get("/datasets", datasetController.SearchDatasets)
	r.Get("/datasets/{id}", datasetController.GetDataset)
	r.Delete("/datasets/{id}", datasetController.DeleteDataset)
	r.Get("/datasets/{id}/history", datasetController.GetDatasetHistory)
	r.Get("/datasets/{id}/export", exportController.ExportDataset)
	return testDB, r
}

// createDataset 通过HTTP接口创建数据集并返回记录
func createDataset(t *testing.T, router *chi.Mux, name, owner string) models.Dataset {
	helper := testutil.NewHTTPTestHelper()
	req, err := helper.CreateJSONRequest("POST", "/datasets", CreateDatasetRequest{
		Name:  name,
		Tags:  []string{"demo"},
		Table: testutil.NewSampleTable(),
	})
	require.NoError(t, err)
	if owner != "" {
		req.Header.Set("X-Owner-ID", owner)
	}

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp struct {
		Status int            `json:"status"`
		Data   models.Dataset `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Zero(t, resp.Status)
	require.NotEmpty(t, resp.Data.ID)
	return resp.Data
}

func TestCreateDatasetOwnerFromHeader(t *testing.T) {
	testDB, router := newTestRouter()
	defer testDB.Close()

	// 请求头中的属主覆盖请求体
	created := createDataset(t, router, "员工数据", "alice")
	assert.Equal(t, "alice", created.Owner)
	assert.Equal(t, 5, created.RowCount)
	assert.Equal(t, []string{"demo"}, created.TagNames())
}

func TestCreateDatasetValidation(t *testing.T) {
	testDB, router := newTestRouter()
	defer testDB.Close()
	helper := testutil.NewHTTPTestHelper()

	testCases := []struct {
		name    string
		request CreateDatasetRequest
	}{
		{
			name:    "缺少表格数据",
			request: CreateDatasetRequest{Name: "无表格"},
		},
		{
			name: "列名重复",
			request: CreateDatasetRequest{
				Name: "坏表",
				Table: &models.DataTable{Name: "t", Columns: []models.Column{
					{Name: "a", Type: models.ColumnTypeText, Values: []interface{}{"x"}},
					{Name: "a", Type: models.ColumnTypeText, Values: []interface{}{"y"}},
				}},
			},
		},
		{
			name: "不支持的字符编码",
			request: CreateDatasetRequest{
				Name:       "编码错误",
				SourceMeta: models.JSONB{"encoding": "big5"},
				Table:      testutil.NewSampleTable(),
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req, err := helper.CreateJSONRequest("POST", "/datasets", tc.request)
			require.NoError(t, err)

			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
		})
	}
}

func TestGetDatasetWithDataReturnsStats(t *testing.T) {
	testDB, router := newTestRouter()
	defer testDB.Close()

	created := createDataset(t, router, "统计数据", "alice")

	req := httptest.NewRequest("GET", "/datasets/"+created.ID+"?include_data=true", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Data struct {
			Dataset models.Dataset   `json:"dataset"`
			Table   models.DataTable `json:"table"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, created.ID, resp.Data.Dataset.ID)

	// 持久化往返后统计信息重新计算，不允许归零
	require.Len(t, resp.Data.Table.Columns, 3)
	age := resp.Data.Table.Columns[0]
	assert.Equal(t, 4, age.Stats.Count)
	assert.Equal(t, 1, age.Stats.NullCount)
	require.NotNil(t, age.Stats.Mean)
	assert.InDelta(t, 30.25, *age.Stats.Mean, 1e-9)
}

func TestGetDatasetNotFound(t *testing.T) {
	testDB, router := newTestRouter()
	defer testDB.Close()

	req := httptest.NewRequest("GET", "/datasets/missing-id", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	var resp APIResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, http.StatusNotFound, resp.Status)
	assert.Equal(t, "资源不存在", resp.Msg)
}

func TestGetDatasetHistoryNotFound(t *testing.T) {
	testDB, router := newTestRouter()
	defer testDB.Close()

	req := httptest.NewRequest("GET", "/datasets/missing-id/history", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestDeleteDatasetIdempotent(t *testing.T) {
	testDB, router := newTestRouter()
	defer testDB.Close()

	created := createDataset(t, router, "待删除", "alice")

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest("DELETE", "/datasets/"+created.ID, nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code, "第 %d 次删除", i+1)
	}

	req := httptest.NewRequest("GET", "/datasets/"+created.ID, nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestSearchDatasetsByOwner(t *testing.T) {
	testDB, router := newTestRouter()
	defer testDB.Close()

	createDataset(t, router, "Sales Report", "alice")
	createDataset(t, router, "HR Headcount", "bob")

	req := httptest.NewRequest("GET", "/datasets?owner=alice", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Data []models.DatasetSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "Sales Report", resp.Data[0].Name)
	assert.Equal(t, "alice", resp.Data[0].Owner)
}

func TestExportDatasetEndpoint(t *testing.T) {
	testDB, router := newTestRouter()
	defer testDB.Close()

	created := createDataset(t, router, "导出数据", "alice")

	req := httptest.NewRequest("GET", "/datasets/"+created.ID+"/export?format=csv", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "attachment; filename=")
	assert.True(t, strings.HasPrefix(rr.Body.String(), "age,city,dept\n"))

	// 不支持的格式
	req = httptest.NewRequest("GET", "/datasets/"+created.ID+"/export?format=parquet", nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	// 数据集不存在
	req = httptest.NewRequest("GET", "/datasets/missing-id/export", nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestDecodeTableText(t *testing.T) {
	// GBK编码的"北京"
	gbk := string([]byte{0xB1, 0xB1, 0xBE, 0xA9})
	table := &models.DataTable{
		Name: "t",
		Columns: []models.Column{
			{Name: "city", Values: []interface{}{gbk, nil, float64(1)}},
		},
	}

	err := decodeTableText(table, models.JSONB{"encoding": "gbk"})
	require.NoError(t, err)
	assert.Equal(t, "北京", table.Columns[0].Values[0])
	assert.Nil(t, table.Columns[0].Values[1])
	assert.Equal(t, float64(1), table.Columns[0].Values[2])

	// 未声明编码时不做转换
	untouched := &models.DataTable{
		Name:    "t",
		Columns: []models.Column{{Name: "city", Values: []interface{}{gbk}}},
	}
	require.NoError(t, decodeTableText(untouched, nil))
	assert.Equal(t, gbk, untouched.Columns[0].Values[0])

	// 不支持的编码报数据校验失败
	err = decodeTableText(table, models.JSONB{"encoding": "big5"})
	assert.True(t, models.IsValidationError(err))
}

func TestRenderErrorStatusMapping(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "数据校验失败", err: &models.ValidationError{Operation: "op", Message: "m"}, expected: http.StatusBadRequest},
		{name: "操作配置错误", err: &models.ConfigurationError{Operation: "op", Message: "m"}, expected: http.StatusBadRequest},
		{name: "资源不存在", err: &models.NotFoundError{Resource: "数据集", ID: "x"}, expected: http.StatusNotFound},
		{name: "保存冲突", err: &models.ConflictError{DatasetID: "x", Message: "m"}, expected: http.StatusConflict},
		{name: "操作超时", err: &models.TimeoutError{Operation: "op"}, expected: http.StatusGatewayTimeout},
		{name: "内部错误", err: fmt.Errorf("boom"), expected: http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			rr := httptest.NewRecorder()
			RenderError(rr, req, tc.err)

			assert.Equal(t, tc.expected, rr.Code)

			var resp APIResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.Equal(t, tc.expected, resp.Status)
		})
	}
}
