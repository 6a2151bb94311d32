package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"printshop/internal/apperror"
	"printshop/internal/models"

	"github.com/google/uuid"
)

type stubDiscountService struct {
	code    *models.DiscountCode
	codes   []*models.DiscountCode
	err     error
	gotCode string
}

func (s *stubDiscountService) CreateDiscountCode(ctx context.Context, req *models.CreateDiscountCodeRequest) (*models.DiscountCode, error) {
	return s.code, s.err
}
func (s *stubDiscountService) DeleteDiscountCode(ctx context.Context, codeID uuid.UUID) (*models.DiscountCode, error) {
	return s.code, s.err
}
func (s *stubDiscountService) ListDiscountCodes(ctx context.Context, limit, offset int) ([]*models.DiscountCode, error) {
	return s.codes, s.err
}
func (s *stubDiscountService) ResolveDiscount(ctx context.Context, code string) (*models.DiscountCode, error) {
	s.gotCode = code
	return s.code, s.err
}

func TestDiscountHandler_LookupDiscount(t *testing.T) {
	code := &models.DiscountCode{
		ID:            uuid.New(),
		Code:          "SUMMER10",
		DiscountType:  models.DiscountTypePercent,
		DiscountValue: 10,
		Active:        true,
	}
	svc := &stubDiscountService{code: code}
	handler := NewDiscountHandler(svc, &stubProducer{}, newHandlerLogger())

	rr := httptest.NewRecorder()
	handler.LookupDiscount(rr, httptest.NewRequest(http.MethodGet, "/api/discount/SUMMER10", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if svc.gotCode != "SUMMER10" {
		t.Fatalf("expected code forwarded, got %q", svc.gotCode)
	}

	var got map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got["code"] != "SUMMER10" || got["discount_type"] != "percent" {
		t.Fatalf("unexpected response: %+v", got)
	}
}

func TestDiscountHandler_LookupDiscount_Unusable(t *testing.T) {
	svc := &stubDiscountService{err: apperror.NotFound("discount code not found", nil)}
	handler := NewDiscountHandler(svc, &stubProducer{}, newHandlerLogger())

	rr := httptest.NewRecorder()
	handler.LookupDiscount(rr, httptest.NewRequest(http.MethodGet, "/api/discount/EXPIRED", nil))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestDiscountHandler_LookupDiscount_InvalidPath(t *testing.T) {
	handler := NewDiscountHandler(&stubDiscountService{}, &stubProducer{}, newHandlerLogger())

	for _, path := range []string{"/api/discount/", "/api/discount/a/b"} {
		rr := httptest.NewRecorder()
		handler.LookupDiscount(rr, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("path %s: expected 400, got %d", path, rr.Code)
		}
	}
}

func TestDiscountHandler_CreateDiscountCode(t *testing.T) {
	code := &models.DiscountCode{
		ID:            uuid.New(),
		Code:          "FLAT5",
		DiscountType:  models.DiscountTypeFixed,
		DiscountValue: 5,
		Active:        true,
	}
	producer := &stubProducer{}
	handler := NewDiscountHandler(&stubDiscountService{code: code}, producer, newHandlerLogger())

	body, _ := json.Marshal(models.CreateDiscountCodeRequest{
		Code:          "FLAT5",
		DiscountType:  models.DiscountTypeFixed,
		DiscountValue: 5,
	})
	rr := httptest.NewRecorder()
	handler.CreateDiscountCode(rr, httptest.NewRequest(http.MethodPost, "/admin/discounts", bytes.NewReader(body)))

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if !producer.discountCreated {
		t.Fatalf("expected discount created event published")
	}
}

func TestDiscountHandler_CreateDiscountCode_Duplicate(t *testing.T) {
	svc := &stubDiscountService{err: apperror.Conflict("discount code already exists", nil)}
	producer := &stubProducer{}
	handler := NewDiscountHandler(svc, producer, newHandlerLogger())

	body, _ := json.Marshal(models.CreateDiscountCodeRequest{Code: "FLAT5"})
	rr := httptest.NewRecorder()
	handler.CreateDiscountCode(rr, httptest.NewRequest(http.MethodPost, "/admin/discounts", bytes.NewReader(body)))

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}
	if producer.discountCreated {
		t.Fatalf("event must not be published on failure")
	}
}

func TestDiscountHandler_ListDiscountCodes(t *testing.T) {
	svc := &stubDiscountService{codes: []*models.DiscountCode{{ID: uuid.New()}, {ID: uuid.New()}}}
	handler := NewDiscountHandler(svc, &stubProducer{}, newHandlerLogger())

	rr := httptest.NewRecorder()
	handler.ListDiscountCodes(rr, httptest.NewRequest(http.MethodGet, "/admin/discounts?limit=10", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var codes []*models.DiscountCode
	if err := json.Unmarshal(rr.Body.Bytes(), &codes); err != nil {
		t.Fatalf("failed to decode codes: %v", err)
	}
	if len(codes) != 2 {
		t.Fatalf("expected 2 codes, got %d", len(codes))
	}
}

func TestDiscountHandler_DeleteDiscountCode(t *testing.T) {
	code := &models.DiscountCode{ID: uuid.New(), Code: "FLAT5"}
	producer := &stubProducer{}
	handler := NewDiscountHandler(&stubDiscountService{code: code}, producer, newHandlerLogger())

	rr := httptest.NewRecorder()
	handler.DeleteDiscountCode(rr, httptest.NewRequest(http.MethodDelete, "/admin/discounts/"+code.ID.String(), nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !producer.discountDeleted {
		t.Fatalf("expected discount deleted event published")
	}
}

func TestDiscountHandler_DeleteDiscountCode_NotFound(t *testing.T) {
	svc := &stubDiscountService{err: apperror.NotFound("discount code not found", nil)}
	handler := NewDiscountHandler(svc, &stubProducer{}, newHandlerLogger())

	rr := httptest.NewRecorder()
	handler.DeleteDiscountCode(rr, httptest.NewRequest(http.MethodDelete, "/admin/discounts/"+uuid.New().String(), nil))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}
