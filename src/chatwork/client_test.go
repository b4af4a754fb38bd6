package chatwork

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSendMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/rooms/12345/messages" {
			t.Errorf("path = %s, want /rooms/12345/messages", r.URL.Path)
		}
		if got := r.Header.Get("X-ChatWorkToken"); got != "tok" {
			t.Errorf("X-ChatWorkToken = %q, want %q", got, "tok")
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("ParseForm() error = %v", err)
		}
		if got := r.PostForm.Get("body"); got != "[info]hello[/info]" {
			t.Errorf("body = %q, want %q", got, "[info]hello[/info]")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message_id":"1234567890"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "tok", time.Second)
	id, err := client.SendMessage(context.Background(), "12345", "[info]hello[/info]")
	if err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
	if id != "1234567890" {
		t.Errorf("SendMessage() id = %q, want %q", id, "1234567890")
	}
}

func TestSendMessage_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, wantErr: ErrAuthFailed},
		{name: "forbidden", status: http.StatusForbidden, wantErr: ErrAuthFailed},
		{name: "not found", status: http.StatusNotFound, wantErr: ErrRoomNotFound},
		{name: "rate limited", status: http.StatusTooManyRequests, body: `{"errors":["Rate limit"]}`},
		{name: "bad json", status: http.StatusOK, body: `not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := NewClient(server.URL, "tok", time.Second).SendMessage(context.Background(), "1", "x")
			if err == nil {
				t.Fatal("SendMessage() expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("SendMessage() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient("", "tok", 0)
	if c.baseURL != DefaultBaseURL {
		t.Errorf("baseURL = %q, want %q", c.baseURL, DefaultBaseURL)
	}
	if c.httpClient.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", c.httpClient.Timeout)
	}

	c = NewClient("http://example.test/v2", "tok", 0)
	if c.baseURL != "http://example.test/v2/" {
		t.Errorf("baseURL = %q, want trailing slash", c.baseURL)
	}
}
