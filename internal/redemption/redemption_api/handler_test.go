package redemption_api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"ms-vouchers/internal/logger"
	"ms-vouchers/internal/models"
	"ms-vouchers/internal/redemption"
)

// stubLookups drive the service with canned data; the handler tests only
// care about the status code and body each outcome maps to.
type stubMembers struct {
	member *models.Member
	err    error
}

func (s *stubMembers) GetMemberByToken(ctx context.Context, token string) (*models.Member, error) {
	return s.member, s.err
}

type stubCatalog struct {
	event   *models.Event
	voucher *models.VoucherType
}

func (s *stubCatalog) GetEvent(ctx context.Context, eventID string) (*models.Event, error) {
	if s.event == nil {
		return nil, sql.ErrNoRows
	}
	return s.event, nil
}

func (s *stubCatalog) GetVoucherType(ctx context.Context, eventID, voucherTypeID string) (*models.VoucherType, error) {
	if s.voucher == nil {
		return nil, sql.ErrNoRows
	}
	return s.voucher, nil
}

type stubLedger struct {
	appendErr error
	last      *models.Redemption
}

func (s *stubLedger) AppendWithQuota(ctx context.Context, rec models.Redemption, maxUses int) error {
	return s.appendErr
}

func (s *stubLedger) LastRedemption(ctx context.Context, memberID, eventID, voucherTypeID string) (*models.Redemption, error) {
	if s.last == nil {
		return nil, sql.ErrNoRows
	}
	return s.last, nil
}

func (s *stubLedger) ListRedemptions(ctx context.Context, eventID string) ([]models.LedgerEntry, error) {
	return []models.LedgerEntry{}, nil
}

func (s *stubLedger) DeleteRedemption(ctx context.Context, id string) error {
	return sql.ErrNoRows
}

func newHandler(members *stubMembers, catalog *stubCatalog, ledger *stubLedger) *Handler {
	svc := redemption.NewService(members, catalog, ledger, nil, nil)
	return &Handler{Service: svc, Logger: &logger.Logger{}}
}

func postRedeem(t *testing.T, h *Handler, body map[string]string) *httptest.ResponseRecorder {
	payload, err := json.Marshal(body)
	assert.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/redeem", bytes.NewReader(payload))
	rr := httptest.NewRecorder()
	h.Redeem(rr, req)
	return rr
}

func validScan() map[string]string {
	return map[string]string{
		"token":           "tok-1",
		"event_id":        "e1",
		"voucher_type_id": "vt1",
		"volunteer":       "Alice",
	}
}

func TestRedeemEndpointGranted(t *testing.T) {
	h := newHandler(
		&stubMembers{member: &models.Member{ID: "m1", Name: "Alice Martin", Token: "tok-1", Active: true}},
		&stubCatalog{
			event:   &models.Event{ID: "e1", Name: "Party"},
			voucher: &models.VoucherType{ID: "vt1", EventID: "e1", Name: "drink", MaxUses: 1},
		},
		&stubLedger{},
	)

	rr := postRedeem(t, h, validScan())
	assert.Equal(t, http.StatusOK, rr.Code)

	var resp redeemResponse
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "Alice Martin", resp.Member.MemberName)
	assert.Equal(t, "drink", resp.Member.VoucherName)
}

func TestRedeemEndpointMissingFields(t *testing.T) {
	h := newHandler(&stubMembers{}, &stubCatalog{}, &stubLedger{})

	for _, field := range []string{"token", "event_id", "volunteer"} {
		body := validScan()
		delete(body, field)
		rr := postRedeem(t, h, body)
		assert.Equal(t, http.StatusBadRequest, rr.Code, "missing %s", field)
	}
}

func TestRedeemEndpointUnknownToken(t *testing.T) {
	h := newHandler(&stubMembers{err: sql.ErrNoRows}, &stubCatalog{}, &stubLedger{})

	rr := postRedeem(t, h, validScan())
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRedeemEndpointExpiredMembership(t *testing.T) {
	h := newHandler(
		&stubMembers{member: &models.Member{ID: "m1", Name: "Alice", Token: "tok-1", ValidUntil: "2020-01-01", Active: true}},
		&stubCatalog{},
		&stubLedger{},
	)

	rr := postRedeem(t, h, validScan())
	assert.Equal(t, http.StatusForbidden, rr.Code)

	var resp redeemResponse
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, "2020-01-01")
}

func TestRedeemEndpointQuotaConflict(t *testing.T) {
	lastAt := time.Date(2026, 8, 30, 20, 15, 0, 0, time.UTC)
	h := newHandler(
		&stubMembers{member: &models.Member{ID: "m1", Name: "Alice", Token: "tok-1", Active: true}},
		&stubCatalog{
			event:   &models.Event{ID: "e1", Name: "Party"},
			voucher: &models.VoucherType{ID: "vt1", EventID: "e1", Name: "drink", MaxUses: 1},
		},
		&stubLedger{
			appendErr: redemption.ErrQuotaExceeded,
			last:      &models.Redemption{RedeemedBy: "Bob", RedeemedAt: lastAt},
		},
	)

	rr := postRedeem(t, h, validScan())
	assert.Equal(t, http.StatusConflict, rr.Code)

	var resp redeemResponse
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "Bob", resp.RedeemedBy)
	assert.Equal(t, lastAt.Format(time.RFC3339), resp.RedeemedAt)
}

func TestRedeemEndpointStoreUnavailable(t *testing.T) {
	h := newHandler(
		&stubMembers{member: &models.Member{ID: "m1", Name: "Alice", Token: "tok-1", Active: true}},
		&stubCatalog{
			event:   &models.Event{ID: "e1", Name: "Party"},
			voucher: &models.VoucherType{ID: "vt1", EventID: "e1", Name: "drink", MaxUses: 1},
		},
		&stubLedger{appendErr: redemption.ErrStoreUnavailable},
	)

	rr := postRedeem(t, h, validScan())
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestDeleteRedemptionEndpointNotFound(t *testing.T) {
	h := newHandler(&stubMembers{}, &stubCatalog{}, &stubLedger{})

	r := chi.NewRouter()
	r.Delete("/api/redemptions/{redemptionId}", h.DeleteRedemption)

	req := httptest.NewRequest(http.MethodDelete, "/api/redemptions/no-such-id", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
