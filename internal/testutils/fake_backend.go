package testutils

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// FakeBasePath is the prefix under which the fake backend mounts its routes.
const FakeBasePath = "/api/v1"

// MedicalRecord is the medical history document held by the fake backend.
type MedicalRecord struct {
	ChronicCondition  string `json:"chronic_condition"`
	Allergy           string `json:"allergy"`
	CurrentMedication string `json:"current_medication"`
}

// MedicalUpdate is one received update call.
type MedicalUpdate struct {
	Subject string
	Record  MedicalRecord
}

type fakeUser struct {
	password string
	fullName string
}

type subjectKey struct{}

// FakeBackend is an in-process stand-in for the auth and medical API.
// Access tokens are real HS256 JWTs signed with TestJWTSecret.
type FakeBackend struct {
	server *httptest.Server

	mu             sync.Mutex
	users          map[string]fakeUser
	medical        map[string]MedicalRecord
	revoked        map[string]bool
	failures       map[string][]int
	calls          map[string]int
	updates        []MedicalUpdate
	hold           chan struct{}
	returnFullName bool
}

// NewFakeBackend starts a fake backend that is shut down when t finishes.
func NewFakeBackend(t *testing.T) *FakeBackend {
	t.Helper()

	b := &FakeBackend{
		users:    make(map[string]fakeUser),
		medical:  make(map[string]MedicalRecord),
		revoked:  make(map[string]bool),
		failures: make(map[string][]int),
		calls:    make(map[string]int),
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(b.countCalls)
	r.Use(b.injectFailures)

	r.Route(FakeBasePath, func(r chi.Router) {
		r.Post("/auth/login", b.login)
		r.Post("/auth/register", b.register)

		r.Group(func(r chi.Router) {
			r.Use(b.authenticate)
			r.Post("/auth/logout", b.logout)
			r.Get("/med/infoget", b.getMedical)
			r.Post("/med/infoupdate", b.updateMedical)
		})
	})

	b.server = httptest.NewServer(r)
	t.Cleanup(func() {
		b.releaseHold()
		b.server.Close()
	})
	return b
}

// URL returns the base URL clients should be configured with.
func (b *FakeBackend) URL() string {
	return b.server.URL + FakeBasePath
}

// AddUser registers an account directly.
func (b *FakeBackend) AddUser(email, password, fullName string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.users[email] = fakeUser{password: password, fullName: fullName}
}

// SetMedical stores a medical record for email.
func (b *FakeBackend) SetMedical(email string, rec MedicalRecord) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.medical[email] = rec
}

// Medical returns the stored record for email.
func (b *FakeBackend) Medical(email string) (MedicalRecord, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	rec, ok := b.medical[email]
	return rec, ok
}

// ReturnFullName makes login include the account's full_name.
func (b *FakeBackend) ReturnFullName(on bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.returnFullName = on
}

// FailNext makes the next request to path (relative, e.g. "/auth/logout")
// respond with status. Calls queue up.
func (b *FakeBackend) FailNext(path string, status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[path] = append(b.failures[path], status)
}

// Calls reports how many requests reached path.
func (b *FakeBackend) Calls(path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[path]
}

// Updates returns the medical updates received, in arrival order.
func (b *FakeBackend) Updates() []MedicalUpdate {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]MedicalUpdate, len(b.updates))
	copy(out, b.updates)
	return out
}

// HoldMedicalGets blocks medical history reads until the returned function
// is called.
func (b *FakeBackend) HoldMedicalGets() (release func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hold = make(chan struct{})
	return b.releaseHold
}

func (b *FakeBackend) releaseHold() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.hold != nil {
		close(b.hold)
		b.hold = nil
	}
}

func (b *FakeBackend) relPath(r *http.Request) string {
	return strings.TrimPrefix(r.URL.Path, FakeBasePath)
}

func (b *FakeBackend) countCalls(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.calls[b.relPath(r)]++
		b.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (b *FakeBackend) injectFailures(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := b.relPath(r)
		b.mu.Lock()
		var status int
		if q := b.failures[path]; len(q) > 0 {
			status, b.failures[path] = q[0], q[1:]
		}
		b.mu.Unlock()

		if status != 0 {
			writeDetail(w, status, "injected failure")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (b *FakeBackend) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeDetail(w, http.StatusUnauthorized, "Not authenticated")
			return
		}

		subject, err := parseToken(token)
		b.mu.Lock()
		_, known := b.users[subject]
		revoked := b.revoked[token]
		b.mu.Unlock()
		if err != nil || !known || revoked {
			writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}

		ctx := context.WithValue(r.Context(), subjectKey{}, subject)
		ctx = context.WithValue(ctx, tokenKey{}, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type tokenKey struct{}

func (b *FakeBackend) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}

	b.mu.Lock()
	u, ok := b.users[req.Email]
	withName := b.returnFullName
	b.mu.Unlock()
	if !ok || u.password != req.Password {
		writeDetail(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := IssueToken(req.Email, TestTokenLifetime)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := map[string]string{"access_token": token, "token_type": "bearer"}
	if withName && u.fullName != "" {
		resp["full_name"] = u.fullName
	}
	writeJSON(w, http.StatusOK, resp)
}

func (b *FakeBackend) register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		FullName string `json:"full_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Password == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.users[req.Email]; exists {
		writeDetail(w, http.StatusConflict, "Email already registered")
		return
	}
	b.users[req.Email] = fakeUser{password: req.Password, fullName: req.FullName}
	writeJSON(w, http.StatusCreated, map[string]string{"email": req.Email})
}

func (b *FakeBackend) logout(w http.ResponseWriter, r *http.Request) {
	token, _ := r.Context().Value(tokenKey{}).(string)
	b.mu.Lock()
	b.revoked[token] = true
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"result": "logged out"})
}

func (b *FakeBackend) getMedical(w http.ResponseWriter, r *http.Request) {
	subject, _ := r.Context().Value(subjectKey{}).(string)

	b.mu.Lock()
	hold := b.hold
	b.mu.Unlock()
	if hold != nil {
		select {
		case <-hold:
		case <-r.Context().Done():
			return
		}
	}

	b.mu.Lock()
	rec, ok := b.medical[subject]
	b.mu.Unlock()
	if !ok {
		writeDetail(w, http.StatusNotFound, "Medical report not found")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (b *FakeBackend) updateMedical(w http.ResponseWriter, r *http.Request) {
	subject, _ := r.Context().Value(subjectKey{}).(string)

	var req struct {
		ChronicCondition  *string `json:"chronic_condition"`
		Allergy           *string `json:"allergy"`
		CurrentMedication *string `json:"current_medication"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	rec := b.medical[subject]
	if req.ChronicCondition != nil {
		rec.ChronicCondition = *req.ChronicCondition
	}
	if req.Allergy != nil {
		rec.Allergy = *req.Allergy
	}
	if req.CurrentMedication != nil {
		rec.CurrentMedication = *req.CurrentMedication
	}
	b.medical[subject] = rec
	b.updates = append(b.updates, MedicalUpdate{Subject: subject, Record: rec})

	writeJSON(w, http.StatusOK, map[string]string{"result": "updated medical info"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
