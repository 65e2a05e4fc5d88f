package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/inauto/garage-booking/internal/auth"
	"github.com/inauto/garage-booking/internal/booking"
	"github.com/inauto/garage-booking/internal/chatbot"
	"github.com/inauto/garage-booking/internal/logging"
	"github.com/inauto/garage-booking/internal/payment"
	"github.com/inauto/garage-booking/internal/profile"
	"github.com/inauto/garage-booking/internal/relay"
)

// stubAppointments backs the router with an in-memory booking store. It also
// serves as the payment flow's appointment store.
type stubAppointments struct {
	mu    sync.Mutex
	items map[uuid.UUID]booking.Appointment
}

func newStubAppointments() *stubAppointments {
	return &stubAppointments{items: make(map[uuid.UUID]booking.Appointment)}
}

func (r *stubAppointments) CountActiveForSlot(ctx context.Context, date, heure string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for _, a := range r.items {
		if a.Status == booking.StatusCancelled {
			continue
		}
		if d, h, ok := a.Slot(); ok && d == date && h == heure {
			count++
		}
	}
	return count, nil
}

func (r *stubAppointments) Create(ctx context.Context, a *booking.Appointment) (*booking.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	saved := *a
	saved.ID = uuid.New()
	saved.CreatedAt = time.Now()
	saved.UpdatedAt = saved.CreatedAt
	r.items[saved.ID] = saved
	return &saved, nil
}

func (r *stubAppointments) GetByID(ctx context.Context, id uuid.UUID) (*booking.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.items[id]
	if !ok {
		return nil, booking.ErrNotFound
	}
	return &a, nil
}

func (r *stubAppointments) List(ctx context.Context, filter booking.ListFilter) ([]booking.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []booking.Appointment
	for _, a := range r.items {
		if filter.Status != nil && a.Status != *filter.Status {
			continue
		}
		result = append(result, a)
	}
	return result, nil
}

func (r *stubAppointments) Update(ctx context.Context, id uuid.UUID, patch booking.Patch) (*booking.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.items[id]
	if !ok {
		return nil, booking.ErrNotFound
	}
	if patch.Nom != nil {
		a.Nom = *patch.Nom
	}
	if patch.Date != nil {
		a.Date = patch.Date
	}
	if patch.Heure != nil {
		a.Heure = patch.Heure
	}
	if patch.Status != nil {
		a.Status = *patch.Status
	}
	if patch.PaymentStatus != nil {
		a.PaymentStatus = *patch.PaymentStatus
	}
	a.UpdatedAt = time.Now()
	r.items[id] = a
	return &a, nil
}

func (r *stubAppointments) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return booking.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

type mutexLocker struct {
	mu sync.Mutex
}

func (l *mutexLocker) WithSlotLock(ctx context.Context, date, heure string, fn func(ctx context.Context) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return fn(ctx)
}

// memPayments mirrors the Postgres payment repository's CAS semantics.
type memPayments struct {
	mu    sync.Mutex
	items map[uuid.UUID]payment.Payment

	createErr error
}

func newMemPayments() *memPayments {
	return &memPayments{items: make(map[uuid.UUID]payment.Payment)}
}

func (r *memPayments) Create(ctx context.Context, p *payment.Payment) (*payment.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.createErr != nil {
		return nil, r.createErr
	}

	saved := *p
	saved.ID = uuid.New()
	saved.CreatedAt = time.Now()
	saved.UpdatedAt = saved.CreatedAt
	r.items[saved.ID] = saved
	return &saved, nil
}

func (r *memPayments) GetByID(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.items[id]
	if !ok {
		return nil, payment.ErrNotFound
	}
	return &p, nil
}

func (r *memPayments) ListByAppointment(ctx context.Context, appointmentID uuid.UUID) ([]payment.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []payment.Payment
	for _, p := range r.items {
		if p.AppointmentID != nil && *p.AppointmentID == appointmentID {
			result = append(result, p)
		}
	}
	return result, nil
}

func (r *memPayments) UpdateStatus(ctx context.Context, id uuid.UUID, from, to payment.Status, transactionID *string) (*payment.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.items[id]
	if !ok {
		return nil, payment.ErrNotFound
	}
	if p.Status != from {
		return nil, payment.ErrInvalidTransition
	}
	p.Status = to
	if transactionID != nil {
		p.TransactionID = transactionID
	}
	p.UpdatedAt = time.Now()
	r.items[id] = p
	return &p, nil
}

func (r *memPayments) FindStalePending(ctx context.Context, cutoff time.Time) ([]payment.Payment, error) {
	return nil, nil
}

type memProfiles struct {
	mu    sync.Mutex
	items map[uuid.UUID]profile.Profile
}

func newMemProfiles() *memProfiles {
	return &memProfiles{items: make(map[uuid.UUID]profile.Profile)}
}

func (r *memProfiles) Ensure(ctx context.Context, p *profile.Profile) (*profile.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	saved := *p
	if existing, ok := r.items[p.ID]; ok {
		saved.CreatedAt = existing.CreatedAt
	} else {
		saved.CreatedAt = time.Now()
	}
	r.items[saved.ID] = saved
	return &saved, nil
}

func (r *memProfiles) GetByID(ctx context.Context, id uuid.UUID) (*profile.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.items[id]
	if !ok {
		return nil, profile.ErrNotFound
	}
	return &p, nil
}

type testServer struct {
	handler http.Handler
	appts   *stubAppointments
	payRepo *memPayments
}

func newTestServer(t *testing.T, successRate float64) *testServer {
	appts := newStubAppointments()
	logger := logging.New("error")

	bookings := booking.NewService(appts, &mutexLocker{}, 3, logger)
	gateway := payment.NewSimulatedGateway(successRate, 0, 7, logger)
	payRepo := newMemPayments()
	payments := payment.NewService(payRepo, appts, gateway, "XAF", 30*time.Minute, logger)

	hash, err := bcrypt.GenerateFromPassword([]byte("garage2025"), bcrypt.MinCost)
	require.NoError(t, err)

	handler := NewRouter(RouterConfig{
		Bookings: bookings,
		Payments: payments,
		Chatbot:  chatbot.NewResponder(),
		Profiles: newMemProfiles(),
		Admin:    auth.NewAdmin(string(hash), "test-secret", time.Hour),
		Hub:      relay.NewHub(),
		Logger:   logger,
		Env:      "test",
		Version:  "test",
	})

	return &testServer{handler: handler, appts: appts, payRepo: payRepo}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) login(t *testing.T) string {
	rec := s.do(t, http.MethodPost, "/admin/login", "", LoginRequest{Password: "garage2025"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Token
}

func bookingBody(nom, date, heure string) map[string]any {
	return map[string]any{
		"nom":       nom,
		"telephone": "+237699000001",
		"service":   "Vidange",
		"date":      date,
		"heure":     heure,
	}
}

func TestCreateAppointmentUsesDomainFieldNames(t *testing.T) {
	srv := newTestServer(t, 1.0)

	rec := srv.do(t, http.MethodPost, "/appointments", "", bookingBody("Mme Ngo", "2025-06-01", "10:00"))
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, "Mme Ngo", resp["nom"])
	assert.Equal(t, "new", resp["statut"])
	assert.Equal(t, "pending", resp["statut_paiement"])
	assert.NotContains(t, resp, "name")
	assert.NotContains(t, resp, "status")
	assert.NotContains(t, resp, "payment_status")
}

func TestCreateAppointmentSlotFull(t *testing.T) {
	srv := newTestServer(t, 1.0)

	for i := 0; i < 3; i++ {
		rec := srv.do(t, http.MethodPost, "/appointments", "", bookingBody("Client", "2025-06-01", "10:00"))
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := srv.do(t, http.MethodPost, "/appointments", "", bookingBody("Client", "2025-06-01", "10:00"))
	require.Equal(t, http.StatusConflict, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "slot_full", resp.Error)
	assert.Contains(t, resp.Details, "10:00")
}

func TestCreateAppointmentValidation(t *testing.T) {
	srv := newTestServer(t, 1.0)

	rec := srv.do(t, http.MethodPost, "/appointments", "", map[string]any{"nom": "Sans téléphone", "service": "Vidange"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "validation_error", resp.Error)
}

func TestCreateAppointmentBadJSON(t *testing.T) {
	srv := newTestServer(t, 1.0)

	req := httptest.NewRequest(http.MethodPost, "/appointments", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	srv.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminSurfaceRequiresToken(t *testing.T) {
	srv := newTestServer(t, 1.0)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/appointments"},
		{http.MethodGet, "/appointments/" + uuid.NewString()},
		{http.MethodPatch, "/appointments/" + uuid.NewString()},
		{http.MethodDelete, "/appointments/" + uuid.NewString()},
		{http.MethodPost, "/payments/" + uuid.NewString() + "/refund"},
	} {
		rec := srv.do(t, tc.method, tc.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", tc.method, tc.path)
	}
}

func TestAdminAppointmentLifecycle(t *testing.T) {
	srv := newTestServer(t, 1.0)
	token := srv.login(t)

	created := srv.do(t, http.MethodPost, "/appointments", "", bookingBody("Mme Ngo", "2025-06-01", "10:00"))
	require.Equal(t, http.StatusCreated, created.Code)

	var appt AppointmentResponse
	require.NoError(t, json.Unmarshal(created.Body.Bytes(), &appt))

	list := srv.do(t, http.MethodGet, "/appointments?statut=new", token, nil)
	require.Equal(t, http.StatusOK, list.Code)
	var items []AppointmentResponse
	require.NoError(t, json.Unmarshal(list.Body.Bytes(), &items))
	require.Len(t, items, 1)

	confirmed := "confirmed"
	patched := srv.do(t, http.MethodPatch, "/appointments/"+appt.ID.String(), token, UpdateAppointmentRequest{Status: &confirmed})
	require.Equal(t, http.StatusOK, patched.Code)
	var after AppointmentResponse
	require.NoError(t, json.Unmarshal(patched.Body.Bytes(), &after))
	assert.Equal(t, "confirmed", after.Status)

	deleted := srv.do(t, http.MethodDelete, "/appointments/"+appt.ID.String(), token, nil)
	require.Equal(t, http.StatusNoContent, deleted.Code)

	missing := srv.do(t, http.MethodGet, "/appointments/"+appt.ID.String(), token, nil)
	assert.Equal(t, http.StatusNotFound, missing.Code)
}

func TestListAppointmentsRejectsUnknownStatut(t *testing.T) {
	srv := newTestServer(t, 1.0)
	token := srv.login(t)

	rec := srv.do(t, http.MethodGet, "/appointments?statut=archived", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckoutSettlesAndSyncsAppointment(t *testing.T) {
	srv := newTestServer(t, 1.0)

	created := srv.do(t, http.MethodPost, "/appointments", "", bookingBody("Mme Ngo", "2025-06-01", "10:00"))
	require.Equal(t, http.StatusCreated, created.Code)
	var appt AppointmentResponse
	require.NoError(t, json.Unmarshal(created.Body.Bytes(), &appt))

	rec := srv.do(t, http.MethodPost, "/payments/checkout", "", CheckoutRequest{
		AppointmentID: appt.ID,
		Method:        "orange_money",
		AmountCents:   25000,
		PhoneNumber:   "+237699000001",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var p PaymentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, "paid", p.Status)
	require.NotNil(t, p.TransactionID)

	stored, err := srv.appts.GetByID(context.Background(), appt.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.PaymentPaid, stored.PaymentStatus)

	fetched := srv.do(t, http.MethodGet, "/payments/"+p.ID.String(), "", nil)
	assert.Equal(t, http.StatusOK, fetched.Code)
}

func TestDeleteAppointmentWithPaymentHistory(t *testing.T) {
	srv := newTestServer(t, 1.0)
	token := srv.login(t)

	created := srv.do(t, http.MethodPost, "/appointments", "", bookingBody("Mme Ngo", "2025-06-01", "10:00"))
	require.Equal(t, http.StatusCreated, created.Code)
	var appt AppointmentResponse
	require.NoError(t, json.Unmarshal(created.Body.Bytes(), &appt))

	paid := srv.do(t, http.MethodPost, "/payments/checkout", "", CheckoutRequest{
		AppointmentID: appt.ID,
		Method:        "orange_money",
		AmountCents:   25000,
		PhoneNumber:   "+237699000001",
	})
	require.Equal(t, http.StatusCreated, paid.Code)
	var p PaymentResponse
	require.NoError(t, json.Unmarshal(paid.Body.Bytes(), &p))

	// An appointment with payment history must still be deletable; the
	// payment row stays behind with its reference detached.
	deleted := srv.do(t, http.MethodDelete, "/appointments/"+appt.ID.String(), token, nil)
	require.Equal(t, http.StatusNoContent, deleted.Code)

	fetched := srv.do(t, http.MethodGet, "/payments/"+p.ID.String(), "", nil)
	assert.Equal(t, http.StatusOK, fetched.Code)
}

func TestCheckoutDeclinedIsPaymentRequired(t *testing.T) {
	srv := newTestServer(t, 0.0)

	created := srv.do(t, http.MethodPost, "/appointments", "", bookingBody("Mme Ngo", "2025-06-01", "10:00"))
	require.Equal(t, http.StatusCreated, created.Code)
	var appt AppointmentResponse
	require.NoError(t, json.Unmarshal(created.Body.Bytes(), &appt))

	rec := srv.do(t, http.MethodPost, "/payments/checkout", "", CheckoutRequest{
		AppointmentID: appt.ID,
		Method:        "mtn_momo",
		AmountCents:   25000,
		PhoneNumber:   "+237699000001",
	})
	require.Equal(t, http.StatusPaymentRequired, rec.Code)

	var p PaymentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, "failed", p.Status)
}

func TestCheckoutStoreOutageIs503WithoutDriverDetails(t *testing.T) {
	srv := newTestServer(t, 1.0)
	srv.payRepo.createErr = &payment.StoreError{Op: "create payment", Err: errors.New("dial tcp 10.0.0.5:5432: connection refused")}

	created := srv.do(t, http.MethodPost, "/appointments", "", bookingBody("Mme Ngo", "2025-06-01", "10:00"))
	require.Equal(t, http.StatusCreated, created.Code)
	var appt AppointmentResponse
	require.NoError(t, json.Unmarshal(created.Body.Bytes(), &appt))

	rec := srv.do(t, http.MethodPost, "/payments/checkout", "", CheckoutRequest{
		AppointmentID: appt.ID,
		Method:        "orange_money",
		AmountCents:   25000,
		PhoneNumber:   "+237699000001",
	})
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "store_unavailable", resp.Error)
	assert.NotContains(t, resp.Details, "connection refused")
	assert.NotContains(t, resp.Details, "10.0.0.5")
}

func TestRefundUnknownPaymentIs404(t *testing.T) {
	srv := newTestServer(t, 1.0)
	token := srv.login(t)

	rec := srv.do(t, http.MethodPost, "/payments/"+uuid.NewString()+"/refund", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCheckoutUnknownAppointmentIs404(t *testing.T) {
	srv := newTestServer(t, 1.0)

	rec := srv.do(t, http.MethodPost, "/payments/checkout", "", CheckoutRequest{
		AppointmentID: uuid.New(),
		Method:        "orange_money",
		AmountCents:   25000,
		PhoneNumber:   "+237699000001",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestChatAnswersInFrench(t *testing.T) {
	srv := newTestServer(t, 1.0)

	rec := srv.do(t, http.MethodPost, "/chat", "", ChatRequest{Message: "je veux prendre rendez-vous"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "booking", resp.Intent)
	assert.NotEmpty(t, resp.Reply)
}

func TestProfileUpsertIsIdempotent(t *testing.T) {
	srv := newTestServer(t, 1.0)
	token := srv.login(t)
	id := uuid.NewString()

	first := srv.do(t, http.MethodPut, "/profiles/"+id, "", ProfileRequest{Nom: "Mme Ngo"})
	require.Equal(t, http.StatusOK, first.Code)

	phone := "+237699000001"
	second := srv.do(t, http.MethodPut, "/profiles/"+id, "", ProfileRequest{Nom: "Mme Ngo Epse Essomba", Telephone: &phone})
	require.Equal(t, http.StatusOK, second.Code)

	fetched := srv.do(t, http.MethodGet, "/profiles/"+id, token, nil)
	require.Equal(t, http.StatusOK, fetched.Code)

	var resp ProfileResponse
	require.NoError(t, json.Unmarshal(fetched.Body.Bytes(), &resp))
	assert.Equal(t, "Mme Ngo Epse Essomba", resp.Nom)
	require.NotNil(t, resp.Telephone)
	assert.Equal(t, phone, *resp.Telephone)
}

func TestProfileUpsertRequiresNom(t *testing.T) {
	srv := newTestServer(t, 1.0)

	rec := srv.do(t, http.MethodPut, "/profiles/"+uuid.NewString(), "", ProfileRequest{})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestProfileReadIsAdminOnly(t *testing.T) {
	srv := newTestServer(t, 1.0)

	rec := srv.do(t, http.MethodGet, "/profiles/"+uuid.NewString(), "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token := srv.login(t)
	rec = srv.do(t, http.MethodGet, "/profiles/"+uuid.NewString(), token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminLoginWrongPassword(t *testing.T) {
	srv := newTestServer(t, 1.0)

	rec := srv.do(t, http.MethodPost, "/admin/login", "", LoginRequest{Password: "nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLivenessEndpoint(t *testing.T) {
	srv := newTestServer(t, 1.0)

	rec := srv.do(t, http.MethodGet, "/health/live", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp LivenessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
}
