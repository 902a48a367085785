package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"complaint-service/internal/model"
)

func testClient(url string, retries int) *HTTPClient {
	return NewHTTPClient(url, 5*time.Second, retries, zerolog.Nop())
}

func TestAnalyzeComplaint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/analyze/complaint" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{
			"is_valid": true,
			"data": [{
				"category": "Water leakage",
				"severity": "High",
				"suggested_tools": ["pipe wrench"],
				"safety_equipment": ["gloves"]
			}]
		}`))
	}))
	defer server.Close()

	result, err := testClient(server.URL, 1).AnalyzeComplaint(context.Background(), AnalyzeRequest{
		Image: []byte("jpeg-bytes"),
		Area:  "Indiranagar",
	})
	if err != nil {
		t.Fatalf("AnalyzeComplaint: %v", err)
	}
	if !result.Valid {
		t.Fatal("expected valid result")
	}
	if len(result.Issues) != 1 {
		t.Fatalf("expected 1 issue, got %d", len(result.Issues))
	}
	// Department was omitted upstream; the category mapping must fill it in.
	if result.Issues[0].Department != model.DepartmentWater {
		t.Fatalf("expected water department, got %q", result.Issues[0].Department)
	}
}

func TestAnalyzeComplaintInvalidPhoto(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"is_valid": false, "data": [], "error": "photo shows an indoor scene"}`))
	}))
	defer server.Close()

	result, err := testClient(server.URL, 1).AnalyzeComplaint(context.Background(), AnalyzeRequest{Image: []byte("x")})
	if err != nil {
		t.Fatalf("AnalyzeComplaint: %v", err)
	}
	if result.Valid {
		t.Fatal("expected invalid result")
	}
	if result.Reason != "photo shows an indoor scene" {
		t.Fatalf("unexpected reason %q", result.Reason)
	}
}

func TestPostJSONRetriesServerErrors(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"is_completed": true}`))
	}))
	defer server.Close()

	result, err := testClient(server.URL, 3).VerifyCompletion(context.Background(), VerifyRequest{
		BeforeImage: []byte("a"),
		AfterImage:  []byte("b"),
		Category:    "Water leakage",
	})
	if err != nil {
		t.Fatalf("VerifyCompletion: %v", err)
	}
	if !result.Completed {
		t.Fatal("expected completed result")
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestPostJSONExhaustsRetries(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := testClient(server.URL, 2).VerifyCompletion(context.Background(), VerifyRequest{})
	if err == nil {
		t.Fatal("expected error after exhausted retries")
	}
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", attempts)
	}
}

func TestPostJSONDoesNotRetryClientErrors(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	_, err := testClient(server.URL, 3).VerifyCompletion(context.Background(), VerifyRequest{})
	if err == nil {
		t.Fatal("expected error for 422 response")
	}
	if attempts != 1 {
		t.Fatalf("4xx must not be retried, got %d attempts", attempts)
	}
}

func TestDecodeLenientFencedJSON(t *testing.T) {
	var out struct {
		IsCompleted bool `json:"is_completed"`
	}
	body := "```json\n{\"is_completed\": true}\n```"
	if err := decodeLenient([]byte(body), &out); err != nil {
		t.Fatalf("decodeLenient: %v", err)
	}
	if !out.IsCompleted {
		t.Fatal("expected is_completed true")
	}
}

func TestDecodeLenientEmbeddedJSON(t *testing.T) {
	var out struct {
		IsValid bool `json:"is_valid"`
	}
	body := `Sure, here is the result: {"is_valid": true} Let me know if you need more.`
	if err := decodeLenient([]byte(body), &out); err != nil {
		t.Fatalf("decodeLenient: %v", err)
	}
	if !out.IsValid {
		t.Fatal("expected is_valid true")
	}
}

func TestDecodeLenientRejectsGarbage(t *testing.T) {
	var out struct{}
	if err := decodeLenient([]byte("no json here at all"), &out); err == nil {
		t.Fatal("expected error for non-JSON body")
	}
}

func TestMockAdapterDeterministic(t *testing.T) {
	mock := MockAdapter{}
	image := []byte("the same photo bytes")

	first, err := mock.AnalyzeComplaint(context.Background(), AnalyzeRequest{Image: image})
	if err != nil {
		t.Fatalf("AnalyzeComplaint: %v", err)
	}
	second, err := mock.AnalyzeComplaint(context.Background(), AnalyzeRequest{Image: image})
	if err != nil {
		t.Fatalf("AnalyzeComplaint: %v", err)
	}
	if len(first.Issues) != len(second.Issues) {
		t.Fatal("mock classification must be deterministic for identical input")
	}
	for i := range first.Issues {
		if first.Issues[i].Category != second.Issues[i].Category {
			t.Fatalf("issue %d differs between runs", i)
		}
	}
}

func TestMockAdapterNeverVerifies(t *testing.T) {
	result, err := MockAdapter{}.VerifyCompletion(context.Background(), VerifyRequest{AfterImage: []byte("x")})
	if err != nil {
		t.Fatalf("VerifyCompletion: %v", err)
	}
	if result.Completed {
		t.Fatal("mock verifier must leave completions for manual review")
	}
	if !strings.Contains(result.Message, "manual review") {
		t.Fatalf("unexpected message %q", result.Message)
	}
}
