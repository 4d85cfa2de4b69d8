package catalog_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"ms-vouchers/internal/catalog"
	"ms-vouchers/internal/models"
)

// MockCatalogDB is a mock implementation of the CatalogDBLayer interface
type MockCatalogDB struct {
	mock.Mock
}

func (m *MockCatalogDB) CreateEvent(ctx context.Context, event models.Event) error {
	args := m.Called(event)
	return args.Error(0)
}

func (m *MockCatalogDB) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

func (m *MockCatalogDB) ListEvents(ctx context.Context) ([]models.Event, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Event), args.Error(1)
}

func (m *MockCatalogDB) DeleteEvent(ctx context.Context, id string) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockCatalogDB) CreateVoucherType(ctx context.Context, voucher models.VoucherType) error {
	args := m.Called(voucher)
	return args.Error(0)
}

func (m *MockCatalogDB) GetVoucherType(ctx context.Context, eventID, voucherTypeID string) (*models.VoucherType, error) {
	args := m.Called(eventID, voucherTypeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.VoucherType), args.Error(1)
}

func (m *MockCatalogDB) ListVoucherTypes(ctx context.Context, eventID string) ([]models.VoucherType, error) {
	args := m.Called(eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.VoucherType), args.Error(1)
}

func (m *MockCatalogDB) DeleteVoucherType(ctx context.Context, id string) error {
	args := m.Called(id)
	return args.Error(0)
}

func TestCreateEventRequiresName(t *testing.T) {
	db := new(MockCatalogDB)
	svc := catalog.NewService(db, nil)

	_, err := svc.CreateEvent(context.Background(), models.CreateEventRequest{Name: ""})
	assert.ErrorIs(t, err, catalog.ErrInvalidEvent)
	db.AssertNotCalled(t, "CreateEvent", mock.Anything)
}

func TestCreateEventAssignsID(t *testing.T) {
	db := new(MockCatalogDB)
	svc := catalog.NewService(db, nil)

	db.On("CreateEvent", mock.MatchedBy(func(e models.Event) bool {
		return e.Name == "Summer Party" && e.ID != ""
	})).Return(nil)

	event, err := svc.CreateEvent(context.Background(), models.CreateEventRequest{
		Name: "Summer Party", Date: "2026-07-01",
	})
	assert.NoError(t, err)
	assert.NotEmpty(t, event.ID)
	db.AssertExpectations(t)
}

func TestCreateVoucherTypeDefaultsMaxUses(t *testing.T) {
	db := new(MockCatalogDB)
	svc := catalog.NewService(db, nil)

	db.On("GetEvent", "e1").Return(&models.Event{ID: "e1", Name: "Party"}, nil)
	db.On("CreateVoucherType", mock.MatchedBy(func(v models.VoucherType) bool {
		return v.MaxUses == 1
	})).Return(nil)

	// Omitted max_uses defaults to one use per member.
	voucher, err := svc.CreateVoucherType(context.Background(), models.CreateVoucherTypeRequest{
		EventID: "e1", Name: "drink",
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, voucher.MaxUses)
}

func TestCreateVoucherTypeRejectsNegativeMaxUses(t *testing.T) {
	db := new(MockCatalogDB)
	svc := catalog.NewService(db, nil)

	_, err := svc.CreateVoucherType(context.Background(), models.CreateVoucherTypeRequest{
		EventID: "e1", Name: "drink", MaxUses: -2,
	})
	assert.ErrorIs(t, err, catalog.ErrInvalidVoucher)
	db.AssertNotCalled(t, "CreateVoucherType", mock.Anything)
}

func TestCreateVoucherTypeRequiresExistingEvent(t *testing.T) {
	db := new(MockCatalogDB)
	svc := catalog.NewService(db, nil)

	db.On("GetEvent", "ghost").Return(nil, sql.ErrNoRows)

	_, err := svc.CreateVoucherType(context.Background(), models.CreateVoucherTypeRequest{
		EventID: "ghost", Name: "drink", MaxUses: 1,
	})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	db.AssertNotCalled(t, "CreateVoucherType", mock.Anything)
}
