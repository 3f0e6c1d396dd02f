package httputil

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

func TestParseJSON(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"acme"}`))

	var dest struct {
		Name string `json:"name"`
	}
	if err := ParseJSON(r, &dest); err != nil {
		t.Fatalf("ParseJSON() error = %v", err)
	}
	if dest.Name != "acme" {
		t.Errorf("Name = %q, want acme", dest.Name)
	}
}

func TestParseJSONOrErrorWritesBadRequest(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader("not json"))
	rec := httptest.NewRecorder()

	var dest struct{}
	if ParseJSONOrError(rec, r, &dest) {
		t.Fatal("ParseJSONOrError() = true, want false")
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestPathParam(t *testing.T) {
	router := mux.NewRouter()
	var got string
	var gotErr error
	router.HandleFunc("/things/{id}", func(w http.ResponseWriter, r *http.Request) {
		got, gotErr = PathParam(r, "id")
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/things/abc", nil))

	if gotErr != nil {
		t.Fatalf("PathParam() error = %v", gotErr)
	}
	if got != "abc" {
		t.Errorf("PathParam() = %q, want abc", got)
	}
}

func TestParsePathUUID(t *testing.T) {
	want := uuid.New()
	router := mux.NewRouter()
	var got uuid.UUID
	var gotErr error
	router.HandleFunc("/users/{user_id}", func(w http.ResponseWriter, r *http.Request) {
		got, gotErr = ParsePathUUID(r, "user_id")
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/users/"+want.String(), nil))
	if gotErr != nil {
		t.Fatalf("ParsePathUUID() error = %v", gotErr)
	}
	if got != want {
		t.Errorf("ParsePathUUID() = %v, want %v", got, want)
	}

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/users/not-a-uuid", nil))
	if gotErr == nil {
		t.Error("ParsePathUUID() error = nil for garbage input")
	}
}
