package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"creatorpulse/internal/delivery"
	"creatorpulse/internal/dispatch"
	"creatorpulse/internal/ideas"
	"creatorpulse/internal/models"
	"creatorpulse/shared/config"
	"creatorpulse/shared/store"

	"github.com/rs/zerolog"
)

type stubCompleter struct{}

func (stubCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	return "", errors.New("completion not available in tests")
}

type stubSender struct{}

func (stubSender) Send(to, subject, htmlBody string) (string, error) {
	return "<id@test>", nil
}

func newTestServer(t *testing.T) (*Server, *store.BadgerStore) {
	t.Helper()

	st, err := store.OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	t.Cleanup(func() { st.Close() })

	queue := dispatch.NewQueue(4, zerolog.Nop())
	t.Cleanup(func() { queue.Close() })

	cfg := &config.ServerConfig{
		Port:              8080,
		TickToken:         "tick-secret",
		UnsubscribeSecret: "unsub-secret",
		BaseURL:           "https://example.com",
	}

	d := dispatch.New(st, queue, zerolog.Nop())
	w := delivery.NewWorker(st, ideas.NewSynthesizer(stubCompleter{}, zerolog.Nop()),
		ideas.SubstringFilter{}, stubSender{}, queue,
		func(userID string) string { return UnsubscribeURL(cfg.BaseURL, userID, cfg.UnsubscribeSecret) },
		zerolog.Nop())

	return NewServer(cfg, st, d, w, zerolog.Nop()), st
}

func seedConfig(t *testing.T, st *store.BadgerStore, userID string) {
	t.Helper()
	cfg := models.UserScheduleConfig{
		UserID:       userID,
		Email:        userID + "@example.com",
		EmailEnabled: true,
		Cadence:      models.CadenceWeekly,
		Weekday:      1,
		TimeOfDay:    "09:00",
		Timezone:     "UTC",
		IdeaCount:    5,
	}
	if err := st.PutScheduleConfig(context.Background(), &cfg); err != nil {
		t.Fatalf("PutScheduleConfig() error = %v", err)
	}
}

func TestTokenRoundTrip(t *testing.T) {
	token := SignUnsubscribeToken("u1", "secret")
	if !VerifyUnsubscribeToken("u1", "secret", token) {
		t.Error("valid token rejected")
	}
	if VerifyUnsubscribeToken("u2", "secret", token) {
		t.Error("token accepted for the wrong user")
	}
	if VerifyUnsubscribeToken("u1", "other-secret", token) {
		t.Error("token accepted under the wrong secret")
	}
	if VerifyUnsubscribeToken("u1", "secret", "") {
		t.Error("empty token accepted")
	}
}

func TestTickRequiresToken(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.Router()

	req := httptest.NewRequest(http.MethodPost, "/internal/tick", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated tick status = %d, want 401", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/internal/tick", nil)
	req.Header.Set("Authorization", "Bearer tick-secret")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("authenticated tick status = %d, want 200", rec.Code)
	}
}

func TestUnsubscribe(t *testing.T) {
	srv, st := newTestServer(t)
	router := srv.Router()
	seedConfig(t, st, "u1")

	// A bad token must not flip the flag.
	req := httptest.NewRequest(http.MethodGet, "/unsubscribe?uid=u1&token=forged", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("forged token status = %d, want 400", rec.Code)
	}
	cfg, _ := st.GetScheduleConfig(context.Background(), "u1")
	if !cfg.EmailEnabled {
		t.Fatal("forged token disabled email")
	}

	url := UnsubscribeURL("", "u1", "unsub-secret")
	req = httptest.NewRequest(http.MethodGet, url, nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("valid unsubscribe status = %d, want 200", rec.Code)
	}
	cfg, _ = st.GetScheduleConfig(context.Background(), "u1")
	if cfg.EmailEnabled {
		t.Error("valid unsubscribe did not disable email")
	}
}

func TestPutSettingsValidation(t *testing.T) {
	srv, st := newTestServer(t)
	router := srv.Router()

	tests := []struct {
		name string
		body string
		want int
	}{
		{
			name: "valid",
			body: `{"email":"a@b.com","email_enabled":true,"cadence":"weekly","weekday":1,"time_of_day":"09:00","timezone":"America/New_York","idea_count":5}`,
			want: http.StatusOK,
		},
		{
			name: "bad cadence",
			body: `{"email":"a@b.com","cadence":"daily","weekday":1,"time_of_day":"09:00","timezone":"UTC","idea_count":5}`,
			want: http.StatusBadRequest,
		},
		{
			name: "bad time of day",
			body: `{"email":"a@b.com","cadence":"weekly","weekday":1,"time_of_day":"9am","timezone":"UTC","idea_count":5}`,
			want: http.StatusBadRequest,
		},
		{
			name: "bad timezone",
			body: `{"email":"a@b.com","cadence":"weekly","weekday":1,"time_of_day":"09:00","timezone":"Mars/Olympus","idea_count":5}`,
			want: http.StatusBadRequest,
		},
		{
			name: "bad idea count",
			body: `{"email":"a@b.com","cadence":"weekly","weekday":1,"time_of_day":"09:00","timezone":"UTC","idea_count":7}`,
			want: http.StatusBadRequest,
		},
		{
			name: "bad weekday",
			body: `{"email":"a@b.com","cadence":"weekly","weekday":9,"time_of_day":"09:00","timezone":"UTC","idea_count":5}`,
			want: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPut, "/users/u-new/settings", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}

	// The invalid payloads above must never have been persisted over the
	// valid one.
	cfg, err := st.GetScheduleConfig(context.Background(), "u-new")
	if err != nil {
		t.Fatalf("GetScheduleConfig() error = %v", err)
	}
	if cfg.Cadence != models.CadenceWeekly || cfg.Timezone != "America/New_York" {
		t.Errorf("persisted config was clobbered by an invalid update: %+v", cfg)
	}
}

func TestPutSettingsNormalizesPreferences(t *testing.T) {
	srv, st := newTestServer(t)
	router := srv.Router()

	body := `{"email":"a@b.com","cadence":"weekly","weekday":1,"time_of_day":"09:00","timezone":"UTC","idea_count":3,
		"preferences":{"avoid_topics":["  Politics ","politics","","drama"]}}`
	req := httptest.NewRequest(http.MethodPut, "/users/u1/settings", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	cfg, err := st.GetScheduleConfig(context.Background(), "u1")
	if err != nil {
		t.Fatalf("GetScheduleConfig() error = %v", err)
	}
	want := []string{"Politics", "drama"}
	if len(cfg.Preferences.AvoidTopics) != len(want) {
		t.Fatalf("AvoidTopics = %v, want %v", cfg.Preferences.AvoidTopics, want)
	}
	for i := range want {
		if cfg.Preferences.AvoidTopics[i] != want[i] {
			t.Errorf("AvoidTopics[%d] = %q, want %q", i, cfg.Preferences.AvoidTopics[i], want[i])
		}
	}
}

func TestGetSettingsUnknownUser(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.Router()

	req := httptest.NewRequest(http.MethodGet, "/users/nobody/settings", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestSendNowReportsFailureReason(t *testing.T) {
	srv, st := newTestServer(t)
	router := srv.Router()
	seedConfig(t, st, "u1")
	// No videos seeded: generation cannot start and the reason comes back
	// synchronously.

	req := httptest.NewRequest(http.MethodPost, "/users/u1/send", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["reason"] != delivery.ReasonNoVideos {
		t.Errorf("reason = %q, want %q", body["reason"], delivery.ReasonNoVideos)
	}
}
