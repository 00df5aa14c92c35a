package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/pathway/internal/app/system/auth"
	"github.com/dalemusser/pathway/internal/domain/models"
	"github.com/google/uuid"
)

// TestUser represents user data for testing HTTP handlers.
type TestUser struct {
	ID    string
	Name  string
	Email string
}

// LeaderUser returns a TestUser with a fresh UUID.
func LeaderUser() TestUser {
	return TestUser{ID: uuid.NewString(), Name: "Test Leader", Email: "leader@test.com"}
}

// LearnerUser returns a TestUser with a fresh UUID.
func LearnerUser() TestUser {
	return TestUser{ID: uuid.NewString(), Name: "Test Learner", Email: "learner@test.com"}
}

// AsUser returns the TestUser for a stored profile.
func AsUser(p models.Profile) TestUser {
	return TestUser{ID: p.ID, Name: p.FullName, Email: p.Email}
}

// WithUser adds a user to the request context for testing authenticated
// handlers. This bypasses token verification.
func WithUser(r *http.Request, user TestUser) *http.Request {
	u := &auth.SessionUser{ID: user.ID, Name: user.Name, Email: user.Email}
	return r.WithContext(auth.WithUser(r.Context(), u))
}

// NewJSONRequest creates a request with body encoded as JSON. A nil body
// sends no body.
func NewJSONRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encoding request body: %v", err)
		}
		rd = strings.NewReader(string(b))
	}
	req := httptest.NewRequest(method, target, rd)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// NewAuthenticatedRequest is NewJSONRequest with user in context.
func NewAuthenticatedRequest(t *testing.T, method, target string, body any, user TestUser) *http.Request {
	t.Helper()
	return WithUser(NewJSONRequest(t, method, target, body), user)
}

// ResponseRecorder wraps httptest.ResponseRecorder with helper methods.
type ResponseRecorder struct {
	*httptest.ResponseRecorder
}

// NewRecorder creates a new ResponseRecorder.
func NewRecorder() *ResponseRecorder {
	return &ResponseRecorder{httptest.NewRecorder()}
}

// AssertStatus checks the response status code.
func (r *ResponseRecorder) AssertStatus(t interface{ Errorf(string, ...any) }, expected int) {
	if r.Code != expected {
		t.Errorf("status code: got %d, want %d (body: %s)", r.Code, expected, r.Body.String())
	}
}

// AssertContains checks if the response body contains the expected string.
func (r *ResponseRecorder) AssertContains(t interface{ Errorf(string, ...any) }, expected string) {
	if !strings.Contains(r.Body.String(), expected) {
		t.Errorf("response body does not contain %q", expected)
	}
}

// DecodeJSON decodes the response body into v.
func (r *ResponseRecorder) DecodeJSON(t *testing.T, v any) {
	t.Helper()
	if err := json.Unmarshal(r.Body.Bytes(), v); err != nil {
		t.Fatalf("decoding response %q: %v", r.Body.String(), err)
	}
}
