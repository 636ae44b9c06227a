/*
 * @module service/catalog/service_test
 * @description 数据集目录服务测试，覆盖保存/加载往返、历史追加、并发检查冲突、幂等删除和搜索
 * @architecture 测试层
 * @documentReference .specify/memory/test_plan.md
 * @stateFlow 内存SQLite建库 -> 执行目录操作 -> 断言持久化状态
 * @rules 处理历史仅追加；陈旧updated_at写入报冲突；删除幂等
 * @dependencies testing, testify, gorm, sqlite
 * @refs service.go
 */

package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"datawrangle-service/service/models"
	"datawrangle-service/testutil"
)

// CatalogServiceTestSuite 目录服务测试套件
type CatalogServiceTestSuite struct {
	suite.Suite
	testDB  *testutil.TestDB
	service *Service
	ctx     context.Context
}

// SetupSuite 设置测试套件
func (suite *CatalogServiceTestSuite) SetupSuite() {
	suite.testDB = testutil.NewTestDB()
	suite.service = NewService(suite.testDB.DB)
	suite.ctx = context.Background()
}

// TearDownSuite 清理测试套件
func (suite *CatalogServiceTestSuite) TearDownSuite() {
	suite.testDB.Close()
}

// SetupTest 设置每个测试
func (suite *CatalogServiceTestSuite) SetupTest() {
	suite.testDB.CleanDB()
}

func (suite *CatalogServiceTestSuite) TestSaveAndLoadRoundTrip() {
	table := testutil.NewSampleTable()
	req := testutil.NewSaveRequest("员工数据", "HR", "Demo")

	saved, err := suite.service.Save(suite.ctx, table, req, nil)
	suite.Require().NoError(err)
	suite.NotEmpty(saved.ID)
	suite.Equal(5, saved.RowCount)
	suite.Equal(3, saved.ColumnCount)
	// 标签小写化
	suite.Equal([]string{"hr", "demo"}, saved.TagNames())

	loaded, loadedTable, err := suite.service.LoadTable(suite.ctx, saved.ID)
	suite.Require().NoError(err)
	suite.Equal(saved.ID, loaded.ID)
	suite.Equal(table.ColumnNames(), loadedTable.ColumnNames())
	suite.Equal(table.Columns[0].Values, loadedTable.Columns[0].Values)
	suite.Nil(loadedTable.Columns[1].Values[4], "空值往返后保持为空")
}

func (suite *CatalogServiceTestSuite) TestSaveAppendsHistory() {
	table := testutil.NewSampleTable()
	saved, err := suite.service.Save(suite.ctx, table, testutil.NewSaveRequest("历史数据集"), []models.ProcessingStep{
		{Operation: "remove_duplicates", AppliedAt: time.Now(), RowsBefore: 5, RowsAfter: 5, Summary: "未发现重复行"},
	})
	suite.Require().NoError(err)

	updatedAt := saved.UpdatedAt
	_, err = suite.service.Save(suite.ctx, table, models.SaveRequest{
		ID:                saved.ID,
		Name:              saved.Name,
		Owner:             saved.Owner,
		ExpectedUpdatedAt: &updatedAt,
	}, []models.ProcessingStep{
		{Operation: "standardize_text", AppliedAt: time.Now(), RowsBefore: 5, RowsAfter: 5, Summary: "标准化了 2 个文本取值"},
	})
	suite.Require().NoError(err)

	steps, err := suite.service.History(suite.ctx, saved.ID)
	suite.Require().NoError(err)
	suite.Require().Len(steps, 2)
	// 历史仅追加，step_index 严格递增
	suite.Equal(0, steps[0].StepIndex)
	suite.Equal(1, steps[1].StepIndex)
	suite.Equal("remove_duplicates", steps[0].Operation)
	suite.Equal("standardize_text", steps[1].Operation)
}

func (suite *CatalogServiceTestSuite) TestSaveStaleUpdatedAtConflicts() {
	table := testutil.NewSampleTable()
	saved, err := suite.service.Save(suite.ctx, table, testutil.NewSaveRequest("并发数据集"), nil)
	suite.Require().NoError(err)

	stale := saved.UpdatedAt

	// 第一次更新成功并刷新 updated_at
	_, err = suite.service.Save(suite.ctx, table, models.SaveRequest{
		ID: saved.ID, Name: saved.Name, Owner: saved.Owner, ExpectedUpdatedAt: &stale,
	}, nil)
	suite.Require().NoError(err)

	// 携带陈旧 updated_at 的写入报冲突，不发生静默覆盖
	_, err = suite.service.Save(suite.ctx, table, models.SaveRequest{
		ID: saved.ID, Name: "被覆盖的名字", Owner: saved.Owner, ExpectedUpdatedAt: &stale,
	}, nil)
	suite.True(models.IsConflictError(err))

	current, err := suite.service.Load(suite.ctx, saved.ID)
	suite.Require().NoError(err)
	suite.Equal(saved.Name, current.Name)
}

func (suite *CatalogServiceTestSuite) TestSaveUnknownIDNotFound() {
	_, err := suite.service.Save(suite.ctx, testutil.NewSampleTable(), models.SaveRequest{
		ID: "missing-id", Name: "x",
	}, nil)
	suite.True(models.IsNotFoundError(err))
}

func (suite *CatalogServiceTestSuite) TestDeleteIsIdempotent() {
	saved, err := suite.service.Save(suite.ctx, testutil.NewSampleTable(), testutil.NewSaveRequest("待删除"), nil)
	suite.Require().NoError(err)

	suite.Require().NoError(suite.service.Delete(suite.ctx, saved.ID))

	_, err = suite.service.Load(suite.ctx, saved.ID)
	suite.True(models.IsNotFoundError(err))

	// 载荷、标签和历史随之清理
	var payloads, tags, steps int64
	suite.testDB.DB.Model(&models.DatasetPayload{}).Count(&payloads)
	suite.testDB.DB.Model(&models.DatasetTag{}).Count(&tags)
	suite.testDB.DB.Model(&models.ProcessingStep{}).Count(&steps)
	suite.Zero(payloads)
	suite.Zero(tags)
	suite.Zero(steps)

	// 重复删除不报错
	suite.NoError(suite.service.Delete(suite.ctx, saved.ID))
}

func (suite *CatalogServiceTestSuite) TestSharedPayloadSurvivesDelete() {
	table := testutil.NewSampleTable()
	first, err := suite.service.Save(suite.ctx, table, testutil.NewSaveRequest("副本一"), nil)
	suite.Require().NoError(err)
	second, err := suite.service.Save(suite.ctx, table, testutil.NewSaveRequest("副本二"), nil)
	suite.Require().NoError(err)
	suite.Equal(first.StorageRef, second.StorageRef, "相同内容共享载荷")

	suite.Require().NoError(suite.service.Delete(suite.ctx, first.ID))

	// 仍被副本二引用的载荷不被删除
	var payloads int64
	suite.testDB.DB.Model(&models.DatasetPayload{}).Count(&payloads)
	suite.Equal(int64(1), payloads)

	_, loadedTable, err := suite.service.LoadTable(suite.ctx, second.ID)
	suite.Require().NoError(err)
	suite.Equal(5, loadedTable.RowCount())
}

func (suite *CatalogServiceTestSuite) TestLoadTableRecomputesStats() {
	saved, err := suite.service.Save(suite.ctx, testutil.NewSampleTable(), testutil.NewSaveRequest("统计数据集"), nil)
	suite.Require().NoError(err)

	_, table, err := suite.service.LoadTable(suite.ctx, saved.ID)
	suite.Require().NoError(err)

	// 载荷只存取值，统计在加载时重算
	age := table.Columns[0]
	suite.Equal(4, age.Stats.Count)
	suite.Equal(1, age.Stats.NullCount)
	suite.Equal(3, age.Stats.DistinctCount)
	suite.Require().NotNil(age.Stats.Mean)
	suite.InDelta(30.25, *age.Stats.Mean, 1e-9)

	city := table.Columns[1]
	suite.Equal(4, city.Stats.Count)
	suite.Equal(1, city.Stats.NullCount)
}

func (suite *CatalogServiceTestSuite) TestExpiredContextReportsTimeout() {
	saved, err := suite.service.Save(suite.ctx, testutil.NewSampleTable(), testutil.NewSaveRequest("限时数据集"), nil)
	suite.Require().NoError(err)

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	_, err = suite.service.Load(ctx, saved.ID)
	suite.True(models.IsTimeoutError(err))

	_, err = suite.service.Search(ctx, models.SearchQuery{Text: "限时"})
	suite.True(models.IsTimeoutError(err))
}

func (suite *CatalogServiceTestSuite) TestHistoryUnknownDataset() {
	_, err := suite.service.History(suite.ctx, "missing-id")
	suite.True(models.IsNotFoundError(err))
}

func (suite *CatalogServiceTestSuite) TestSearch() {
	table := testutil.NewSampleTable()
	sales, err := suite.service.Save(suite.ctx, table, models.SaveRequest{
		Name: "Sales Report 2024", Description: "季度销售报表", Tags: []string{"Sales", "quarterly"}, Owner: "alice",
	}, nil)
	suite.Require().NoError(err)

	_, err = suite.service.Save(suite.ctx, table, models.SaveRequest{
		Name: "HR Headcount", Description: "人员编制", Tags: []string{"hr"}, Owner: "bob",
	}, nil)
	suite.Require().NoError(err)

	// 文本搜索大小写不敏感，词条前缀匹配
	results, err := suite.service.Search(suite.ctx, models.SearchQuery{Text: "SALES"})
	suite.Require().NoError(err)
	suite.Require().Len(results, 1)
	suite.Equal(sales.ID, results[0].ID)

	// 多词条取交集
	results, err = suite.service.Search(suite.ctx, models.SearchQuery{Text: "sales hr"})
	suite.Require().NoError(err)
	suite.Empty(results)

	// 标签要求全部命中
	results, err = suite.service.Search(suite.ctx, models.SearchQuery{Tags: []string{"sales", "quarterly"}})
	suite.Require().NoError(err)
	suite.Require().Len(results, 1)
	suite.Equal(sales.ID, results[0].ID)

	results, err = suite.service.Search(suite.ctx, models.SearchQuery{Tags: []string{"sales", "hr"}})
	suite.Require().NoError(err)
	suite.Empty(results)

	// 属主过滤
	results, err = suite.service.Search(suite.ctx, models.SearchQuery{Owner: "bob"})
	suite.Require().NoError(err)
	suite.Require().Len(results, 1)
	suite.Equal("HR Headcount", results[0].Name)

	// 无条件返回全部，按更新时间倒序
	results, err = suite.service.Search(suite.ctx, models.SearchQuery{})
	suite.Require().NoError(err)
	suite.Require().Len(results, 2)
	suite.Equal("HR Headcount", results[0].Name)
}

func (suite *CatalogServiceTestSuite) TestSaveRejectsInvalidTable() {
	bad := &models.DataTable{
		Name: "t",
		Columns: []models.Column{
			{Name: "a", Type: models.ColumnTypeText, Values: []interface{}{"x"}},
			{Name: "a", Type: models.ColumnTypeText, Values: []interface{}{"y"}},
		},
	}
	_, err := suite.service.Save(suite.ctx, bad, testutil.NewSaveRequest("坏表"), nil)
	suite.True(models.IsValidationError(err))

	untyped := &models.DataTable{
		Name:    "t",
		Columns: []models.Column{{Name: "a", Values: []interface{}{"x"}}},
	}
	_, err = suite.service.Save(suite.ctx, untyped, testutil.NewSaveRequest("未标注"), nil)
	suite.True(models.IsValidationError(err), "缺少类型标注的表格不允许入目录")
}

func TestCatalogServiceTestSuite(t *testing.T) {
	suite.Run(t, new(CatalogServiceTestSuite))
}
