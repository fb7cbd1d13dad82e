package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/supportops/triage-pipeline/agent/agents/pipeline"
	contractx "github.com/supportops/triage-pipeline/agent/contract"
	statex "github.com/supportops/triage-pipeline/agent/state"
)

type fakePipeline struct {
	out      statex.Conversation
	err      error
	lastText string
	lastID   *int64
}

func (f *fakePipeline) HandleRequest(ctx context.Context, text string, customerID *int64) (statex.Conversation, error) {
	f.lastText = text
	f.lastID = customerID
	return f.out, f.err
}

func TestHandleSupport(t *testing.T) {
	t.Parallel()

	out := statex.New("I need help with my account, customer ID 5", nil)
	out.Intent = contractx.IntentSimpleLookup
	out.Urgency = contractx.UrgencyLow
	out.Route = contractx.RouteDataThenSupport
	out.Response = "Customer 5: Eve Park"
	out = out.WithAudit("[router] intent=simple_lookup")

	fp := &fakePipeline{out: out}
	srv := httptest.NewServer(NewRouter(NewHandler(fp)))
	defer srv.Close()

	body := `{"message":"I need help with my account, customer ID 5"}`
	resp, err := http.Post(srv.URL+"/v1/support", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST /v1/support error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var got supportResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Intent != "simple_lookup" || got.Response != "Customer 5: Eve Park" {
		t.Fatalf("response = %+v", got)
	}
	if len(got.Transcript) != 2 {
		t.Fatalf("transcript length = %d, want 2", len(got.Transcript))
	}
	if fp.lastText != "I need help with my account, customer ID 5" {
		t.Fatalf("pipeline received %q", fp.lastText)
	}
}

func TestHandleSupportPassesKnownCustomerID(t *testing.T) {
	t.Parallel()

	fp := &fakePipeline{out: statex.Conversation{Response: "ok"}}
	srv := httptest.NewServer(NewRouter(NewHandler(fp)))
	defer srv.Close()

	body := `{"message":"upgrade please","customer_id":7}`
	resp, err := http.Post(srv.URL+"/v1/support", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST /v1/support error = %v", err)
	}
	resp.Body.Close()

	if fp.lastID == nil || *fp.lastID != 7 {
		t.Fatalf("pipeline customer id = %v, want 7", fp.lastID)
	}
}

func TestHandleSupportBadJSON(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(NewRouter(NewHandler(&fakePipeline{})))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/v1/support", "application/json", strings.NewReader("{nope"))
	if err != nil {
		t.Fatalf("POST /v1/support error = %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestHandleSupportEmptyMessage(t *testing.T) {
	t.Parallel()

	fp := &fakePipeline{err: pipeline.ErrEmptyMessage}
	srv := httptest.NewServer(NewRouter(NewHandler(fp)))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/v1/support", "application/json", strings.NewReader(`{"message":""}`))
	if err != nil {
		t.Fatalf("POST /v1/support error = %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestHandleSupportPipelineFailure(t *testing.T) {
	t.Parallel()

	fp := &fakePipeline{err: errors.New("directory down")}
	srv := httptest.NewServer(NewRouter(NewHandler(fp)))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/v1/support", "application/json", strings.NewReader(`{"message":"refund"}`))
	if err != nil {
		t.Fatalf("POST /v1/support error = %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", resp.StatusCode)
	}
}

func TestPing(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(NewRouter(NewHandler(&fakePipeline{})))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/ping")
	if err != nil {
		t.Fatalf("GET /ping error = %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}
