package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ronbot/internal/a2a"
	"ronbot/internal/remind"
	logx "ronbot/pkg/logx"
)

func newTestAPI(t *testing.T, now time.Time) (*Service, *remind.Store) {
	t.Helper()
	store := remind.NewStore()
	s := New(Config{}, Deps{Store: store}, logx.Nop())
	s.now = func() time.Time { return now }
	return s, store
}

func sendRequest(t *testing.T, s *Service, text, callbackURL string) (*httptest.ResponseRecorder, a2a.Response) {
	t.Helper()
	req := a2a.Request{
		JSONRPC: a2a.Version,
		ID:      "req-1",
		Method:  a2a.MethodSend,
		Params: a2a.Params{
			ContextID: "ctx-1",
			Message: a2a.Message{
				Role:  a2a.RoleUser,
				Parts: []a2a.MessagePart{{Kind: a2a.KindText, Text: text}},
			},
		},
	}
	if callbackURL != "" {
		req.Params.Configuration.PushNotificationConfig = &a2a.PushNotificationConfig{URL: callbackURL}
	}
	body, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/a2a/ron", bytes.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	s.router().ServeHTTP(w, r)

	var resp a2a.Response
	if w.Code == http.StatusOK {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshal response: %v", err)
		}
	}
	return w, resp
}

func TestScheduleInMinutes(t *testing.T) {
	t.Parallel()
	now := time.Date(2024, 10, 31, 9, 5, 0, 0, time.Local)
	s, store := newTestAPI(t, now)

	w, resp := sendRequest(t, s, `/remindme "call mom" in 10 minutes`, "http://callback.test/push")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if resp.ID != "req-1" || resp.Result.ContextID != "ctx-1" {
		t.Fatalf("unexpected envelope: %+v", resp)
	}
	if resp.Result.Status != a2a.StatusCompleted {
		t.Fatalf("status = %q", resp.Result.Status)
	}
	reply := resp.Result.Message.FirstText()
	if !strings.Contains(reply, "call mom") {
		t.Fatalf("reply = %q, want confirmation echoing the message", reply)
	}

	due := store.ExtractDue(now.Add(10 * time.Minute))
	if len(due) != 1 {
		t.Fatalf("stored reminders = %d, want 1", len(due))
	}
	if !due[0].FireAt.Equal(now.Add(10 * time.Minute)) {
		t.Fatalf("FireAt = %v, want now+10m", due[0].FireAt)
	}
	if due[0].CallbackURL != "http://callback.test/push" || due[0].ContextID != "ctx-1" {
		t.Fatalf("unexpected reminder: %+v", due[0])
	}
}

func TestScheduleAtClockRollsToTomorrow(t *testing.T) {
	t.Parallel()
	// Local 09:05 asking for 09:00.
	now := time.Date(2024, 10, 31, 9, 5, 0, 0, time.Local)
	s, store := newTestAPI(t, now)

	w, _ := sendRequest(t, s, `/remindme "standup" at 09:00`, "http://callback.test/push")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	tomorrow := time.Date(2024, 11, 1, 9, 0, 0, 0, time.Local)
	due := store.ExtractDue(tomorrow)
	if len(due) != 1 {
		t.Fatalf("stored reminders = %d, want 1", len(due))
	}
	if !due[0].FireAt.Equal(tomorrow) {
		t.Fatalf("FireAt = %v, want tomorrow 09:00", due[0].FireAt)
	}
}

func TestUnrecognizedTextGetsUsageHelp(t *testing.T) {
	t.Parallel()
	s, store := newTestAPI(t, time.Now())

	w, resp := sendRequest(t, s, "hello there", "http://callback.test/push")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if got := resp.Result.Message.FirstText(); got != usageHelp {
		t.Fatalf("reply = %q, want fixed usage help", got)
	}
	if store.Pending() != 0 {
		t.Fatalf("pending = %d, want 0", store.Pending())
	}
}

func TestMissingCallbackURLCreatesNothing(t *testing.T) {
	t.Parallel()
	s, store := newTestAPI(t, time.Now())

	w, resp := sendRequest(t, s, `/remindme "call mom" in 10 minutes`, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if got := resp.Result.Message.FirstText(); got != missingCallbackReply {
		t.Fatalf("reply = %q, want missing-callback explanation", got)
	}
	if store.Pending() != 0 {
		t.Fatalf("pending = %d, want 0", store.Pending())
	}
}

func TestSchemaViolationsRejected(t *testing.T) {
	t.Parallel()
	s, _ := newTestAPI(t, time.Now())
	router := s.router()

	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: "not json"},
		{name: "wrong version", body: `{"jsonrpc":"1.0","id":"x","method":"message/send","params":{"contextId":"c","message":{"role":"user","parts":[{"kind":"text","text":"hi"}]}}}`},
		{name: "unknown method", body: `{"jsonrpc":"2.0","id":"x","method":"message/delete","params":{"contextId":"c","message":{"role":"user","parts":[{"kind":"text","text":"hi"}]}}}`},
		{name: "missing id", body: `{"jsonrpc":"2.0","method":"message/send","params":{"contextId":"c","message":{"role":"user","parts":[{"kind":"text","text":"hi"}]}}}`},
		{name: "no parts", body: `{"jsonrpc":"2.0","id":"x","method":"message/send","params":{"contextId":"c","message":{"role":"user","parts":[]}}}`},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPost, "/a2a/ron", strings.NewReader(tt.body))
			r.Header.Set("Content-Type", "application/json")
			router.ServeHTTP(w, r)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", w.Code)
			}
		})
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()
	s, _ := newTestAPI(t, time.Now())

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/health", nil)
	s.router().ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var got map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got["status"] != "healthy" || got["agent"] != "Ron the Reminder" {
		t.Fatalf("payload = %v", got)
	}
}

func TestStatusReportsPending(t *testing.T) {
	t.Parallel()
	s, store := newTestAPI(t, time.Now())
	for i := 0; i < 3; i++ {
		store.Insert(remind.Reminder{FireAt: time.Now().Add(time.Hour), Text: fmt.Sprintf("r%d", i)})
	}

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/status", nil)
	s.router().ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var got struct {
		Pending int `json:"pending"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Pending != 3 {
		t.Fatalf("pending = %d, want 3", got.Pending)
	}
}
