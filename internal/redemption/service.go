package redemption

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ms-vouchers/internal/logger"
	"ms-vouchers/internal/models"
)

// MemberLookup resolves a scanned token to a member record.
type MemberLookup interface {
	GetMemberByToken(ctx context.Context, token string) (*models.Member, error)
}

// CatalogLookup resolves events and their voucher types.
type CatalogLookup interface {
	GetEvent(ctx context.Context, eventID string) (*models.Event, error)
	GetVoucherType(ctx context.Context, eventID, voucherTypeID string) (*models.VoucherType, error)
}

// LedgerDBLayer is the append-only redemption ledger.
type LedgerDBLayer interface {
	AppendWithQuota(ctx context.Context, rec models.Redemption, maxUses int) error
	LastRedemption(ctx context.Context, memberID, eventID, voucherTypeID string) (*models.Redemption, error)
	ListRedemptions(ctx context.Context, eventID string) ([]models.LedgerEntry, error)
	DeleteRedemption(ctx context.Context, id string) error
}

// GrantPublisher streams granted redemptions for downstream consumers.
// Publishing is best effort; a broker outage never blocks a grant.
type GrantPublisher interface {
	PublishRedemptionGranted(rec models.Redemption) error
}

// Service is the redemption engine: it validates a scanned token against
// membership state and atomically enforces the per-triple quota.
type Service struct {
	Members  MemberLookup
	Catalog  CatalogLookup
	Ledger   LedgerDBLayer
	Producer GrantPublisher
	Logger   *logger.Logger
}

func NewService(members MemberLookup, catalog CatalogLookup, ledger LedgerDBLayer, producer GrantPublisher, log *logger.Logger) *Service {
	return &Service{Members: members, Catalog: catalog, Ledger: ledger, Producer: producer, Logger: log}
}

// Redeem grants one use of a voucher type to the member behind token, or
// returns one of the taxonomy errors from errors.go. An empty
// VoucherTypeID degenerates to "one redemption per member per event":
// the event itself acts as a single implicit voucher type with max_uses=1.
func (s *Service) Redeem(ctx context.Context, req models.RedeemRequest) (*models.RedeemResult, error) {
	member, err := s.Members.GetMemberByToken(ctx, req.Token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUnknownToken
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if expired, validUntil := s.membershipExpired(member); expired {
		return nil, &MembershipExpiredError{ValidUntil: validUntil}
	}
	if !member.Active {
		return nil, ErrMembershipInactive
	}

	event, err := s.Catalog.GetEvent(ctx, req.EventID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUnknownEvent
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	voucher, err := s.resolveVoucherType(ctx, event, req.VoucherTypeID)
	if err != nil {
		return nil, err
	}

	rec := models.Redemption{
		ID:            uuid.NewString(),
		MemberID:      member.ID,
		EventID:       event.ID,
		VoucherTypeID: voucher.ID,
		RedeemedBy:    req.Operator,
		RedeemedAt:    time.Now().UTC(),
	}

	if err := s.Ledger.AppendWithQuota(ctx, rec, voucher.MaxUses); err != nil {
		if errors.Is(err, ErrQuotaExceeded) {
			return nil, s.quotaDenial(ctx, rec, voucher.MaxUses)
		}
		return nil, err
	}

	if s.Logger != nil {
		s.Logger.LogRedeem("GRANTED", member.ID, voucher.ID, fmt.Sprintf("by %s", req.Operator))
	}
	if s.Producer != nil {
		if err := s.Producer.PublishRedemptionGranted(rec); err != nil && s.Logger != nil {
			s.Logger.Error("KAFKA", fmt.Sprintf("failed to publish redemption %s: %v", rec.ID, err))
		}
	}

	return &models.RedeemResult{
		MemberName:  member.Name,
		VoucherName: voucher.Name,
		RedeemedAt:  rec.RedeemedAt,
	}, nil
}

// ListRedemptions returns the audit trail, most recent first.
func (s *Service) ListRedemptions(ctx context.Context, eventID string) ([]models.LedgerEntry, error) {
	entries, err := s.Ledger.ListRedemptions(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return entries, nil
}

// DeleteRedemption is the admin-only correction path for an operator
// mistake. It frees one quota unit; the engine never calls it.
func (s *Service) DeleteRedemption(ctx context.Context, id string) error {
	err := s.Ledger.DeleteRedemption(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return err
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if s.Logger != nil {
		s.Logger.Warn("REDEEM", fmt.Sprintf("redemption %s deleted by admin", id))
	}
	return nil
}

func (s *Service) resolveVoucherType(ctx context.Context, event *models.Event, voucherTypeID string) (*models.VoucherType, error) {
	if voucherTypeID == "" {
		// Degenerate mode: one redemption per member per event. The ledger
		// keys these rows with an empty voucher_type_id, which the unique
		// index treats like any other triple.
		return &models.VoucherType{ID: "", EventID: event.ID, Name: event.Name, MaxUses: 1}, nil
	}
	voucher, err := s.Catalog.GetVoucherType(ctx, event.ID, voucherTypeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUnknownVoucherType
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return voucher, nil
}

// membershipExpired compares calendar dates in server-local time: a
// membership valid through today still works today. A malformed stored
// date is treated as "no expiry" and logged so an admin can fix the row;
// a scan must never fail closed on bad data without a trace.
func (s *Service) membershipExpired(member *models.Member) (bool, string) {
	if member.ValidUntil == "" {
		return false, ""
	}
	validDate, err := time.ParseInLocation("2006-01-02", member.ValidUntil, time.Local)
	if err != nil {
		if s.Logger != nil {
			s.Logger.Warn("REDEEM", fmt.Sprintf("member %s has malformed valid_until %q, treating as no expiry", member.ID, member.ValidUntil))
		}
		return false, ""
	}
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)
	return today.After(validDate), member.ValidUntil
}

// quotaDenial builds the QuotaExceeded detail from the most recent prior
// redemption. Denials read but never write, so repeated denials always
// report the same operator and timestamp.
func (s *Service) quotaDenial(ctx context.Context, rec models.Redemption, maxUses int) error {
	denial := &QuotaExceededError{MaxUses: maxUses}
	last, err := s.Ledger.LastRedemption(ctx, rec.MemberID, rec.EventID, rec.VoucherTypeID)
	if err == nil && last != nil {
		denial.LastOperator = last.RedeemedBy
		denial.LastRedeemedAt = last.RedeemedAt
	} else if s.Logger != nil {
		s.Logger.Error("REDEEM", fmt.Sprintf("quota hit for member %s but last redemption lookup failed: %v", rec.MemberID, err))
	}
	if s.Logger != nil {
		s.Logger.LogRedeem("DENIED", rec.MemberID, rec.VoucherTypeID, denial.Error())
	}
	return denial
}
