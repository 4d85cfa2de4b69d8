package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"ms-vouchers/internal/logger"
	"ms-vouchers/internal/models"
)

var (
	ErrInvalidEvent   = errors.New("event name is required")
	ErrInvalidVoucher = errors.New("voucher type needs an event, a name and max_uses >= 1")
)

type CatalogDBLayer interface {
	CreateEvent(ctx context.Context, event models.Event) error
	GetEvent(ctx context.Context, id string) (*models.Event, error)
	ListEvents(ctx context.Context) ([]models.Event, error)
	DeleteEvent(ctx context.Context, id string) error
	CreateVoucherType(ctx context.Context, voucher models.VoucherType) error
	GetVoucherType(ctx context.Context, eventID, voucherTypeID string) (*models.VoucherType, error)
	ListVoucherTypes(ctx context.Context, eventID string) ([]models.VoucherType, error)
	DeleteVoucherType(ctx context.Context, id string) error
}

type Service struct {
	DB     CatalogDBLayer
	Logger *logger.Logger
}

func NewService(db CatalogDBLayer, log *logger.Logger) *Service {
	return &Service{DB: db, Logger: log}
}

func (s *Service) CreateEvent(ctx context.Context, req models.CreateEventRequest) (*models.Event, error) {
	if req.Name == "" {
		return nil, ErrInvalidEvent
	}
	event := models.Event{
		ID:   uuid.NewString(),
		Name: req.Name,
		Date: req.Date,
	}
	if err := s.DB.CreateEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}
	if s.Logger != nil {
		s.Logger.LogStore("INSERT", "events", fmt.Sprintf("event %s (%s) created", event.ID, event.Name))
	}
	return &event, nil
}

// GetEvent satisfies the redemption engine's CatalogLookup.
func (s *Service) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	return s.DB.GetEvent(ctx, id)
}

func (s *Service) ListEvents(ctx context.Context) ([]models.Event, error) {
	return s.DB.ListEvents(ctx)
}

// DeleteEvent cascades to the event's voucher types and ledger entries.
func (s *Service) DeleteEvent(ctx context.Context, id string) error {
	if err := s.DB.DeleteEvent(ctx, id); err != nil {
		return err
	}
	if s.Logger != nil {
		s.Logger.LogStore("DELETE", "events", fmt.Sprintf("event %s removed with cascade", id))
	}
	return nil
}

// CreateVoucherType enforces the max_uses >= 1 invariant at the service
// boundary; a quota of zero would make the voucher unredeemable and a
// negative one is nonsense.
func (s *Service) CreateVoucherType(ctx context.Context, req models.CreateVoucherTypeRequest) (*models.VoucherType, error) {
	if req.MaxUses == 0 {
		req.MaxUses = 1
	}
	if req.EventID == "" || req.Name == "" || req.MaxUses < 1 {
		return nil, ErrInvalidVoucher
	}
	if _, err := s.DB.GetEvent(ctx, req.EventID); err != nil {
		return nil, fmt.Errorf("owning event %s not found: %w", req.EventID, err)
	}

	voucher := models.VoucherType{
		ID:      uuid.NewString(),
		EventID: req.EventID,
		Name:    req.Name,
		MaxUses: req.MaxUses,
	}
	if err := s.DB.CreateVoucherType(ctx, voucher); err != nil {
		return nil, fmt.Errorf("failed to create voucher type: %w", err)
	}
	return &voucher, nil
}

// GetVoucherType satisfies the redemption engine's CatalogLookup.
func (s *Service) GetVoucherType(ctx context.Context, eventID, voucherTypeID string) (*models.VoucherType, error) {
	return s.DB.GetVoucherType(ctx, eventID, voucherTypeID)
}

func (s *Service) ListVoucherTypes(ctx context.Context, eventID string) ([]models.VoucherType, error) {
	return s.DB.ListVoucherTypes(ctx, eventID)
}

func (s *Service) DeleteVoucherType(ctx context.Context, id string) error {
	return s.DB.DeleteVoucherType(ctx, id)
}
