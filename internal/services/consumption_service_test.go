package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/javajoker/ustock-backend/internal/database/dbtest"
	"github.com/javajoker/ustock-backend/internal/models"
)

type ConsumptionServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	svc     *ConsumptionService
	owner   models.Principal
	other   models.Principal
	product *models.Product
}

func (suite *ConsumptionServiceTestSuite) SetupTest() {
	suite.db = dbtest.New(suite.T())
	suite.svc = NewConsumptionService(suite.db)
	suite.owner = dbtest.Principal(dbtest.CreateUser(suite.T(), suite.db, "alice"))
	suite.other = dbtest.Principal(dbtest.CreateUser(suite.T(), suite.db, "bob"))
	suite.product = dbtest.CreateProduct(suite.T(), suite.db, "3017620422003")
}

func (suite *ConsumptionServiceTestSuite) TestListHistoryNewestFirst() {
	base := time.Date(2025, time.March, 1, 8, 0, 0, 0, time.UTC)
	oldest := recordEvent(suite.T(), suite.db, suite.owner, suite.product, 1, models.ConsumptionStatusConsumed, base)
	newest := recordEvent(suite.T(), suite.db, suite.owner, suite.product, 2, models.ConsumptionStatusWasted, base.Add(48*time.Hour))
	middle := recordEvent(suite.T(), suite.db, suite.owner, suite.product, 3, models.ConsumptionStatusConsumed, base.Add(24*time.Hour))
	recordEvent(suite.T(), suite.db, suite.other, suite.product, 1, models.ConsumptionStatusConsumed, base)

	events, err := suite.svc.ListHistory(context.Background(), suite.owner, nil)
	suite.Require().NoError(err)
	suite.Require().Len(events, 3)
	suite.Equal(newest.ID, events[0].ID)
	suite.Equal(middle.ID, events[1].ID)
	suite.Equal(oldest.ID, events[2].ID)
	suite.Equal(suite.product.Barcode, events[0].Product.Barcode)
}

func (suite *ConsumptionServiceTestSuite) TestListHistoryFiltersByStatus() {
	at := time.Date(2025, time.March, 1, 8, 0, 0, 0, time.UTC)
	recordEvent(suite.T(), suite.db, suite.owner, suite.product, 1, models.ConsumptionStatusConsumed, at)
	wasted := recordEvent(suite.T(), suite.db, suite.owner, suite.product, 1, models.ConsumptionStatusWasted, at)

	status := models.ConsumptionStatusWasted
	events, err := suite.svc.ListHistory(context.Background(), suite.owner, &status)
	suite.Require().NoError(err)
	suite.Require().Len(events, 1)
	suite.Equal(wasted.ID, events[0].ID)

	bad := models.ConsumptionStatus("eaten")
	_, err = suite.svc.ListHistory(context.Background(), suite.owner, &bad)
	suite.ErrorIs(err, ErrInvalidInput)
}

func (suite *ConsumptionServiceTestSuite) TestHistoryOutlivesStockEntry() {
	stock := NewStockService(suite.db, LotPolicyMerge)
	entry, err := stock.AddStock(context.Background(), suite.owner, suite.product.ID, 1, nil)
	suite.Require().NoError(err)

	_, err = stock.Consume(context.Background(), suite.owner, entry.ID, 1, models.ConsumptionStatusConsumed)
	suite.Require().NoError(err)

	events, err := suite.svc.ListHistory(context.Background(), suite.owner, nil)
	suite.Require().NoError(err)
	suite.Require().Len(events, 1)
	suite.Require().NotNil(events[0].StockID)
	suite.Equal(entry.ID, *events[0].StockID)
	suite.Equal(int64(0), dbtest.Count(suite.T(), suite.db, &models.StockEntry{}, "id = ?", entry.ID))
}

func TestConsumptionServiceSuite(t *testing.T) {
	suite.Run(t, new(ConsumptionServiceTestSuite))
}
