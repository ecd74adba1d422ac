package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/prahasith1996/video-player/internal/report"
)

func TestSignPayload(t *testing.T) {
	secret := "test-secret"
	payload := []byte(`{"event":"interactions.report","data":{}}`)

	signature := SignPayload(secret, payload)

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := "sha256=" + hex.EncodeToString(mac.Sum(nil))

	if signature != expected {
		t.Errorf("expected signature %s, got %s", expected, signature)
	}
}

func TestSignPayloadDifferentSecrets(t *testing.T) {
	payload := []byte(`{"event":"interactions.report"}`)

	if SignPayload("secret-one", payload) == SignPayload("secret-two", payload) {
		t.Error("different secrets should produce different signatures")
	}
}

func TestReportEvent(t *testing.T) {
	generated := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	r := report.Report{
		SessionID:   "s-1",
		VideoID:     "intro",
		Profile:     "logged",
		Reason:      report.ReasonEnded,
		GeneratedAt: generated,
		Rows:        []report.Row{{Index: 1, DurationSeconds: 2.5}},
		Viewer:      &report.Viewer{Country: "DE"},
	}

	event := ReportEvent(r)

	if event.Name != EventReportReady {
		t.Errorf("expected event %q, got %q", EventReportReady, event.Name)
	}
	if !event.Timestamp.Equal(generated) {
		t.Errorf("expected timestamp %v, got %v", generated, event.Timestamp)
	}
	if event.Data["videoId"] != "intro" || event.Data["reason"] != report.ReasonEnded {
		t.Errorf("unexpected data %v", event.Data)
	}
	if _, ok := event.Data["viewer"]; !ok {
		t.Error("expected viewer in event data")
	}
}

func expectDeliveryLog(mock pgxmock.PgxPoolIface, eventName string, attempt int) {
	mock.ExpectExec("INSERT INTO report_deliveries").
		WithArgs("session-1", eventName, pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), attempt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
}

func testEvent() Event {
	return Event{
		Name:      EventReportReady,
		Timestamp: time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC),
		Data:      map[string]any{"videoId": "abc123"},
	}
}

func TestDispatchSuccess(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()

	var receivedSignature string
	var receivedBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedSignature = r.Header.Get("X-Webhook-Signature")
		receivedBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	event := testEvent()
	eventJSON, _ := json.Marshal(event)
	expectedSignature := SignPayload("my-secret", eventJSON)

	expectDeliveryLog(mock, EventReportReady, 1)

	client := New(mock, server.URL, "my-secret")
	client.retryDelays = []time.Duration{1 * time.Millisecond, 1 * time.Millisecond}

	if err := client.Dispatch(context.Background(), "session-1", event); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if receivedSignature != expectedSignature {
		t.Errorf("expected signature %s, got %s", expectedSignature, receivedSignature)
	}

	var receivedEvent Event
	if err := json.Unmarshal(receivedBody, &receivedEvent); err != nil {
		t.Fatalf("failed to unmarshal received body: %v", err)
	}
	if receivedEvent.Name != EventReportReady {
		t.Errorf("expected event name %s, got %s", EventReportReady, receivedEvent.Name)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet mock expectations: %v", err)
	}
}

func TestDispatchRetryOnServerError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()

	var attemptCount atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attemptCount.Add(1) <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	expectDeliveryLog(mock, EventReportReady, 1)
	expectDeliveryLog(mock, EventReportReady, 2)
	expectDeliveryLog(mock, EventReportReady, 3)

	client := New(mock, server.URL, "secret")
	client.retryDelays = []time.Duration{1 * time.Millisecond, 1 * time.Millisecond}

	if err := client.Dispatch(context.Background(), "session-1", testEvent()); err != nil {
		t.Fatalf("expected no error after successful retry, got %v", err)
	}
	if attemptCount.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", attemptCount.Load())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet mock expectations: %v", err)
	}
}

func TestDispatchAllRetriesFail(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()

	var attemptCount atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attemptCount.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	expectDeliveryLog(mock, EventReportReady, 1)
	expectDeliveryLog(mock, EventReportReady, 2)
	expectDeliveryLog(mock, EventReportReady, 3)

	client := New(mock, server.URL, "secret")
	client.retryDelays = []time.Duration{1 * time.Millisecond, 1 * time.Millisecond}

	err = client.Dispatch(context.Background(), "session-1", testEvent())
	if err == nil {
		t.Fatal("expected error after all retries failed, got nil")
	}
	if !strings.Contains(err.Error(), "502") {
		t.Errorf("expected error to mention status 502, got: %s", err.Error())
	}
	if attemptCount.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", attemptCount.Load())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet mock expectations: %v", err)
	}
}

func TestDispatchConnectionErrorWithoutDatabase(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	unreachableURL := server.URL
	server.Close()

	client := New(nil, unreachableURL, "secret")
	client.retryDelays = []time.Duration{1 * time.Millisecond, 1 * time.Millisecond}

	if err := client.Dispatch(context.Background(), "session-1", testEvent()); err == nil {
		t.Fatal("expected error for unreachable URL, got nil")
	}
}

func TestDispatchCancelledDuringRetry(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := New(nil, server.URL, "secret")
	client.retryDelays = []time.Duration{time.Hour, time.Hour}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := client.Dispatch(ctx, "session-1", testEvent()); err != context.DeadlineExceeded {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestResponseBodyTruncation(t *testing.T) {
	longBody := strings.Repeat("x", 2000)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(longBody))
	}))
	defer server.Close()

	client := New(nil, server.URL, "secret")

	statusCode, respBody, err := client.doPost(context.Background(), []byte("{}"), "sha256=test")
	if err != nil {
		t.Fatalf("doPost error: %v", err)
	}
	if statusCode == nil || *statusCode != 200 {
		t.Fatalf("expected status 200, got %v", statusCode)
	}
	if len(respBody) != maxResponseBodyBytes {
		t.Errorf("expected response body truncated to %d bytes, got %d bytes", maxResponseBodyBytes, len(respBody))
	}
}
