package middleware

import (
	"context"
	"reflect"
	"testing"
	"time"
)

func TestMemoryLimiterWindow(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	l := NewMemoryLimiter(2, time.Minute)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i, want := range []bool{true, true, false} {
		if got, _ := l.Allow(ctx, "otp:1.2.3.4"); got != want {
			t.Errorf("hit %d: allowed = %v", i+1, got)
		}
	}
	if got, _ := l.Allow(ctx, "otp:5.6.7.8"); !got {
		t.Error("keys must not share a window")
	}
	now = now.Add(time.Minute)
	if got, _ := l.Allow(ctx, "otp:1.2.3.4"); !got {
		t.Error("window did not reset")
	}
}

func TestParsePath(t *testing.T) {
	cases := map[string][]string{
		"/v1/candidates/:id/accept-terms": {"candidates", "accept-terms"},
		"/v1/login":                       {"login"},
		"/v1/candidates/:id":              {"candidates"},
		"":                                nil,
	}
	for path, want := range cases {
		if got := parsePath(path); len(want) > 0 && !reflect.DeepEqual(got, want) || len(want) == 0 && len(got) != 0 {
			t.Errorf("parsePath(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestMatchRoute(t *testing.T) {
	am := NewActionManager(nil)
	action, ok := am.MatchRoute("POST", "/v1/candidates/:id/accept-terms")
	if !ok || action.String() != "anonymous answered the job terms" {
		t.Errorf("action = %v, %v", action, ok)
	}
	action, ok = am.MatchRoute("GET", "/v1/interview-slots")
	if ok || action.String() != "anonymous viewed interview-slots" {
		t.Errorf("default action = %v, %v", action, ok)
	}
	action.username = "root"
	if action.String() != "user root viewed interview-slots" {
		t.Errorf("action with user = %v", action)
	}
}
