package notification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clinic/clinic/internal/platform/auth"
	"github.com/clinic/clinic/internal/platform/notify"
)

func newTestHandler(repo Repository) *Handler {
	engine := notify.NewTemplateEngine()
	svc := NewService(repo, &mockParties{}, engine, notify.NewDispatcher(nil, nil, engine), zerolog.Nop())
	return NewHandler(svc)
}

func requestAs(method, target string, accountID uuid.UUID) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, nil)
	ctx := context.WithValue(req.Context(), auth.UserIDKey, accountID.String())
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestListReturnsOwnNotifications(t *testing.T) {
	repo := newMockRepo()
	alice := uuid.New()
	if err := repo.Create(context.Background(), &Notification{
		AccountID: alice, Type: TypeAppointmentCreated, Title: "t", Body: "b",
	}); err != nil {
		t.Fatal(err)
	}

	h := newTestHandler(repo)
	c, rec := requestAs(http.MethodGet, "/api/v1/notifications", alice)
	if err := h.List(c); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp struct {
		Data  []*Notification `json:"data"`
		Total int             `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Total != 1 || len(resp.Data) != 1 {
		t.Errorf("total = %d, data = %d, want 1 each", resp.Total, len(resp.Data))
	}
}

func TestMarkReadUnknownIDReturns404(t *testing.T) {
	h := newTestHandler(newMockRepo())
	c, _ := requestAs(http.MethodPost, "/api/v1/notifications/x/read", uuid.New())
	c.SetParamNames("id")
	c.SetParamValues(uuid.New().String())

	err := h.MarkRead(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Fatalf("err = %v, want 404 HTTPError", err)
	}
}

func TestMarkReadRejectsMalformedID(t *testing.T) {
	h := newTestHandler(newMockRepo())
	c, _ := requestAs(http.MethodPost, "/api/v1/notifications/nope/read", uuid.New())
	c.SetParamNames("id")
	c.SetParamValues("nope")

	err := h.MarkRead(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("err = %v, want 400 HTTPError", err)
	}
}

func TestMissingIdentityIsUnauthorized(t *testing.T) {
	h := newTestHandler(newMockRepo())
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/notifications", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.List(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Fatalf("err = %v, want 401 HTTPError", err)
	}
}

func TestMarkAllReadReportsCount(t *testing.T) {
	repo := newMockRepo()
	alice := uuid.New()
	for i := 0; i < 2; i++ {
		if err := repo.Create(context.Background(), &Notification{
			AccountID: alice, Type: TypeAppointmentReminder, Title: "t", Body: "b",
		}); err != nil {
			t.Fatal(err)
		}
	}

	h := newTestHandler(repo)
	c, rec := requestAs(http.MethodPost, "/api/v1/notifications/read-all", alice)
	if err := h.MarkAllRead(c); err != nil {
		t.Fatal(err)
	}

	var resp map[string]int
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp["updated"] != 2 {
		t.Errorf("updated = %d, want 2", resp["updated"])
	}
}
