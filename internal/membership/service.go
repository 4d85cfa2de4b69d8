package membership

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"

	"ms-vouchers/internal/logger"
	"ms-vouchers/internal/models"
	"ms-vouchers/internal/utils"
)

// tokenRetries bounds regeneration attempts on the astronomically
// unlikely token collision.
const tokenRetries = 5

var ErrInvalidMember = errors.New("member name is required")

type MemberDBLayer interface {
	CreateMember(ctx context.Context, member models.Member) error
	GetMemberByID(ctx context.Context, id string) (*models.Member, error)
	GetMemberByToken(ctx context.Context, token string) (*models.Member, error)
	ListMembers(ctx context.Context) ([]models.Member, error)
	UpdateValidUntil(ctx context.Context, id, validUntil string) error
	SetActive(ctx context.Context, id string, active bool) error
	DeleteMember(ctx context.Context, id string) error
}

// TokenCache is the optional redis read-through for token lookups.
type TokenCache interface {
	GetMember(ctx context.Context, token string) (*models.Member, error)
	SetMember(ctx context.Context, member *models.Member)
	Invalidate(ctx context.Context, token string)
}

// MemberEventPublisher streams membership lifecycle events.
type MemberEventPublisher interface {
	PublishMemberCreated(member models.Member) error
	PublishMemberDeleted(member models.Member) error
}

// CollisionChecker lets the service distinguish a token collision from
// other insert failures; the db package implements it.
type CollisionChecker func(error) bool

type Service struct {
	DB          MemberDBLayer
	Cache       TokenCache
	Producer    MemberEventPublisher
	Logger      *logger.Logger
	IsCollision CollisionChecker
}

func NewService(db MemberDBLayer, cache TokenCache, producer MemberEventPublisher, isCollision CollisionChecker, log *logger.Logger) *Service {
	return &Service{DB: db, Cache: cache, Producer: producer, IsCollision: isCollision, Logger: log}
}

// CreateMember registers a member and mints their secret token. On a
// unique-token collision the token is regenerated, never reused.
func (s *Service) CreateMember(ctx context.Context, req models.CreateMemberRequest) (*models.Member, error) {
	if req.Name == "" {
		return nil, ErrInvalidMember
	}

	member := models.Member{
		ID:         uuid.NewString(),
		Name:       req.Name,
		Email:      req.Email,
		ValidUntil: req.ValidUntil,
		Active:     true,
	}

	var err error
	for attempt := 0; attempt < tokenRetries; attempt++ {
		member.Token = utils.GenerateToken()
		err = s.DB.CreateMember(ctx, member)
		if err == nil {
			break
		}
		if s.IsCollision != nil && s.IsCollision(err) {
			if s.Logger != nil {
				s.Logger.Warn("MEMBER", fmt.Sprintf("token collision on attempt %d, regenerating", attempt+1))
			}
			continue
		}
		return nil, fmt.Errorf("failed to create member: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create member after %d token attempts: %w", tokenRetries, err)
	}

	if s.Logger != nil {
		s.Logger.LogStore("INSERT", "members", fmt.Sprintf("member %s created", member.ID))
	}
	if s.Producer != nil {
		if err := s.Producer.PublishMemberCreated(member); err != nil && s.Logger != nil {
			s.Logger.Error("KAFKA", fmt.Sprintf("failed to publish member created: %v", err))
		}
	}
	return &member, nil
}

// GetMemberByToken satisfies the redemption engine's MemberLookup,
// reading through the cache when one is configured.
func (s *Service) GetMemberByToken(ctx context.Context, token string) (*models.Member, error) {
	if s.Cache != nil {
		if member, err := s.Cache.GetMember(ctx, token); err == nil && member != nil {
			return member, nil
		}
	}

	member, err := s.DB.GetMemberByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if s.Cache != nil {
		s.Cache.SetMember(ctx, member)
	}
	return member, nil
}

func (s *Service) ListMembers(ctx context.Context) ([]models.Member, error) {
	return s.DB.ListMembers(ctx)
}

// ExtendValidity overwrites valid_until with no retroactive effect on
// past redemptions.
func (s *Service) ExtendValidity(ctx context.Context, id, validUntil string) error {
	if err := s.DB.UpdateValidUntil(ctx, id, validUntil); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *Service) Deactivate(ctx context.Context, id string) error {
	if err := s.DB.SetActive(ctx, id, false); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

// DeleteMember removes the member and, through the store's cascade, all
// of their redemption records.
func (s *Service) DeleteMember(ctx context.Context, id string) error {
	member, err := s.DB.GetMemberByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.DB.DeleteMember(ctx, id); err != nil {
		return err
	}
	if s.Cache != nil {
		s.Cache.Invalidate(ctx, member.Token)
	}
	if s.Producer != nil {
		if err := s.Producer.PublishMemberDeleted(*member); err != nil && s.Logger != nil {
			s.Logger.Error("KAFKA", fmt.Sprintf("failed to publish member deleted: %v", err))
		}
	}
	return nil
}

// ExportCSV writes the member roll the way the admin spreadsheet expects
// it: name, email, validity.
func (s *Service) ExportCSV(ctx context.Context, w io.Writer) error {
	members, err := s.DB.ListMembers(ctx)
	if err != nil {
		return fmt.Errorf("failed to list members for export: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Name", "Email", "Valid_until"}); err != nil {
		return err
	}
	for _, m := range members {
		if err := cw.Write([]string{m.Name, m.Email, m.ValidUntil}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func (s *Service) invalidate(ctx context.Context, id string) {
	if s.Cache == nil {
		return
	}
	member, err := s.DB.GetMemberByID(ctx, id)
	if err != nil {
		return
	}
	s.Cache.Invalidate(ctx, member.Token)
}
