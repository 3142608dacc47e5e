package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/ApexDigital-Tech/Coonecta-consultores/services/agenda-service/internal/booking"
	"github.com/ApexDigital-Tech/Coonecta-consultores/services/agenda-service/internal/cache"
	"github.com/ApexDigital-Tech/Coonecta-consultores/services/agenda-service/internal/model"
	"github.com/ApexDigital-Tech/Coonecta-consultores/services/agenda-service/internal/session"
	"github.com/ApexDigital-Tech/Coonecta-consultores/services/agenda-service/internal/storage"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type memRepo struct {
	records  []model.Appointment
	nextID   int
	fetchErr error
}

func (m *memRepo) FetchAppointments(context.Context) ([]model.Appointment, error) {
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	return m.records, nil
}

func (m *memRepo) CreateAppointment(_ context.Context, appt model.Appointment) (model.Appointment, error) {
	m.nextID++
	appt.ID = fmt.Sprintf("id-%d", m.nextID)
	appt.CreatedAt = time.Now()
	m.records = append(m.records, appt)
	return appt, nil
}

func (m *memRepo) UpdateStatus(_ context.Context, id string, status model.Status) error {
	for i := range m.records {
		if m.records[i].ID == id {
			m.records[i].Status = status
			return nil
		}
	}
	return storage.ErrNotFound
}

func (m *memRepo) UpdateNotes(_ context.Context, id, notes string) error {
	for i := range m.records {
		if m.records[i].ID == id {
			m.records[i].Notes = notes
			return nil
		}
	}
	return storage.ErrNotFound
}

func (m *memRepo) DeleteAppointment(_ context.Context, id string) error {
	for i := range m.records {
		if m.records[i].ID == id {
			m.records = append(m.records[:i], m.records[i+1:]...)
			return nil
		}
	}
	return storage.ErrNotFound
}

type testEnv struct {
	repo  *memRepo
	mux   *http.ServeMux
	token string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	repo := &memRepo{}
	logger := discardLogger()
	writer := booking.NewWriter(repo, nil, logger, time.UTC, false)

	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	sessions := session.NewService(session.Config{
		LocalSecret: "test-secret",
		AdminEmail:  "admin@example.com",
		AdminHash:   string(hash),
	})
	token, err := sessions.Login(context.Background(), "admin@example.com", "secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	mux := http.NewServeMux()
	authed := session.RequireAuth(sessions)
	NewPublicHandler(writer, logger).Register(mux)
	NewAuthHandler(sessions, logger).Register(mux)
	NewAdminHandler(repo, writer, logger).Register(mux, authed)
	NewCalendarHandler(repo, nil, logger, time.UTC).Register(mux, authed)

	return &testEnv{repo: repo, mux: mux, token: token}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, authed bool) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if authed {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}
	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}

func TestWidgetCreateAppliesDefaults(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/public/appointments", map[string]any{
		"clientName":        "Ana",
		"email":             "ana@example.com",
		"preferredDateTime": "2026-02-11T15:00",
	}, false)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var got model.Appointment
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID == "" || got.Consultant != booking.ConsultantChat || got.Status != model.StatusScheduled {
		t.Fatalf("stored = %+v", got)
	}
}

func TestWidgetCreateRequiresDate(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/api/v1/public/appointments", map[string]any{
		"clientName": "Ana",
	}, false)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestVoiceCreate(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/api/v1/public/voice/appointments", map[string]any{
		"client_name": "Luis",
		"date_time":   "2026-02-11 09:00",
	}, false)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if len(env.repo.records) != 1 {
		t.Fatalf("records = %d", len(env.repo.records))
	}
}

func TestNeedTypes(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/v1/public/need-types", nil, false)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		NeedTypes []string `json:"needTypes"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.NeedTypes) == 0 {
		t.Fatal("need types must not be empty")
	}
}

func TestAdminListRequiresAuth(t *testing.T) {
	env := newTestEnv(t)
	if rec := env.do(t, http.MethodGet, "/api/v1/appointments", nil, false); rec.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated status = %d, want 401", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/api/v1/appointments", nil, true); rec.Code != http.StatusOK {
		t.Fatalf("authenticated status = %d, want 200", rec.Code)
	}
}

func TestAdminListDegradesToEmptyOnFetchFailure(t *testing.T) {
	env := newTestEnv(t)
	env.repo.fetchErr = fmt.Errorf("persistence down")

	rec := env.do(t, http.MethodGet, "/api/v1/appointments", nil, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body struct {
		Appointments []model.Appointment `json:"appointments"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Appointments) != 0 {
		t.Fatalf("appointments = %d, want 0", len(body.Appointments))
	}
}

func TestAdminBookSlot(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/appointments", bookSlotRequest{
		Year:        2026,
		Month:       2,
		Day:         11,
		Slot:        "10:00",
		Appointment: model.Appointment{ClientName: "Ana"},
	}, true)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var got model.Appointment
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.PreferredDateTime != "2026-02-11 10:00" || got.Consultant != booking.ConsultantAdmin {
		t.Fatalf("stored = %+v", got)
	}
}

func TestAdminBookSlotRejectsBadInput(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/appointments", bookSlotRequest{
		Year: 2026, Month: 2, Day: 11, Slot: "13:00",
		Appointment: model.Appointment{ClientName: "Ana"},
	}, true)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown slot: status = %d, want 400", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/api/v1/appointments", bookSlotRequest{
		Year: 2026, Month: 13, Day: 11, Slot: "10:00",
	}, true)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad month: status = %d, want 400", rec.Code)
	}
}

func TestAdminStatusAndNotes(t *testing.T) {
	env := newTestEnv(t)
	env.repo.records = []model.Appointment{{ID: "a1", ClientName: "Ana", Status: model.StatusNew}}

	rec := env.do(t, http.MethodPost, "/api/v1/appointments/status", statusRequest{ID: "a1", Status: model.StatusContacted}, true)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status update = %d, body %s", rec.Code, rec.Body.String())
	}
	if env.repo.records[0].Status != model.StatusContacted {
		t.Fatalf("status = %q", env.repo.records[0].Status)
	}

	rec = env.do(t, http.MethodPost, "/api/v1/appointments/status", statusRequest{ID: "a1", Status: "bogus"}, true)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad status = %d, want 400", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/api/v1/appointments/status", statusRequest{ID: "missing", Status: model.StatusClosed}, true)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing id = %d, want 404", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/api/v1/appointments/notes", notesRequest{ID: "a1", Notes: "confirmado"}, true)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("notes update = %d", rec.Code)
	}
	if env.repo.records[0].Notes != "confirmado" {
		t.Fatalf("notes = %q", env.repo.records[0].Notes)
	}
}

func TestAdminDelete(t *testing.T) {
	env := newTestEnv(t)
	env.repo.records = []model.Appointment{{ID: "a1"}}

	rec := env.do(t, http.MethodPost, "/api/v1/appointments/delete", deleteRequest{ID: "a1"}, true)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete = %d", rec.Code)
	}
	if len(env.repo.records) != 0 {
		t.Fatal("record not deleted")
	}
}

func TestAdminStats(t *testing.T) {
	env := newTestEnv(t)
	env.repo.records = []model.Appointment{
		{ID: "a1", Status: model.StatusNew},
		{ID: "a2", Status: ""},
		{ID: "a3", Status: model.StatusScheduled},
		{ID: "a4", Status: model.StatusClosed},
	}

	rec := env.do(t, http.MethodGet, "/api/v1/appointments/stats", nil, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var stats map[string]int
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stats["total"] != 4 || stats["new"] != 2 || stats["scheduled"] != 1 || stats["closed"] != 1 {
		t.Fatalf("stats = %v", stats)
	}
}

func TestCalendarMonth(t *testing.T) {
	env := newTestEnv(t)
	env.repo.records = []model.Appointment{
		{ID: "a1", PreferredDateTime: "2026-02-11T09:00:00", Status: model.StatusScheduled},
		{ID: "a2", PreferredDateTime: "2026-02-11 10:00", Status: model.StatusNew},
		{ID: "a3", PreferredDateTime: "2026-02-20T15:00:00", Status: model.StatusClosed},
	}

	rec := env.do(t, http.MethodGet, "/api/v1/calendar?year=2026&month=2", nil, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Year   int         `json:"year"`
		Month  int         `json:"month"`
		Cells  []int       `json:"cells"`
		Counts map[int]int `json:"counts"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Counts[11] != 2 {
		t.Fatalf("counts[11] = %d, want 2", body.Counts[11])
	}
	if body.Counts[20] != 0 {
		t.Fatalf("counts[20] = %d, want 0 (closed excluded)", body.Counts[20])
	}
	if len(body.Cells) != 28 {
		t.Fatalf("cells = %d, want 28", len(body.Cells))
	}

	if rec := env.do(t, http.MethodGet, "/api/v1/calendar?year=2026&month=13", nil, true); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad month = %d, want 400", rec.Code)
	}
}

func TestCalendarMonthDoesNotCacheFailedFetch(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	months := cache.NewMonthCounts(rdb, time.Minute, discardLogger())

	repo := &memRepo{
		records:  []model.Appointment{{ID: "a1", PreferredDateTime: "2026-02-11T09:00:00", Status: model.StatusScheduled}},
		fetchErr: fmt.Errorf("persistence down"),
	}
	mux := http.NewServeMux()
	NewCalendarHandler(repo, months, discardLogger(), time.UTC).Register(mux, func(next http.Handler) http.Handler { return next })

	counts := func() map[int]int {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/calendar?year=2026&month=2", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}
		var body struct {
			Counts map[int]int `json:"counts"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return body.Counts
	}

	// During the outage the month renders empty for this cycle only.
	if got := counts(); got[11] != 0 {
		t.Fatalf("counts[11] during outage = %d, want 0", got[11])
	}

	// Once the store recovers the next render must see the real data; the
	// empty render above must not have been cached.
	repo.fetchErr = nil
	if got := counts(); got[11] != 1 {
		t.Fatalf("counts[11] after recovery = %d, want 1", got[11])
	}
}

func TestCalendarDayOffSlotRecord(t *testing.T) {
	env := newTestEnv(t)
	env.repo.records = []model.Appointment{
		{ID: "a1", PreferredDateTime: "2026-02-11T20:00:00", Status: model.StatusScheduled},
	}

	rec := env.do(t, http.MethodGet, "/api/v1/calendar/day?year=2026&month=2&day=11", nil, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Slots []slotView `json:"slots"`
		Count int        `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	// The 20:00 record occupies the day but no slot.
	if body.Count != 1 {
		t.Fatalf("count = %d, want 1", body.Count)
	}
	for _, sv := range body.Slots {
		if sv.Appointment != nil {
			t.Fatalf("slot %s bound to %+v, want all free", sv.Slot, sv.Appointment)
		}
	}
	if len(body.Slots) != 9 {
		t.Fatalf("slots = %d, want 9", len(body.Slots))
	}
}

func TestLoginEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/auth/login", loginRequest{Email: "admin@example.com", Password: "secret"}, false)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["token"] == "" {
		t.Fatal("expected a token")
	}

	rec = env.do(t, http.MethodPost, "/api/v1/auth/login", loginRequest{Email: "admin@example.com", Password: "nope"}, false)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad password = %d, want 401", rec.Code)
	}
}
