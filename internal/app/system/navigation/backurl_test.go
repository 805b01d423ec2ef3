package navigation

import (
	"net/http/httptest"
	"testing"
)

func TestSafeBackURL_AfterSignIn(t *testing.T) {
	tests := []struct {
		name   string
		target string
		want   string
	}{
		{"no return", "/login", "/dashboard"},
		{"local return", "/login?return=/dashboard", "/dashboard"},
		{"external return rejected", "/login?return=https://evil.example/x", "/dashboard"},
		{"auth page rejected", "/login?return=/logout", "/dashboard"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", tt.target, nil)
			if got := SafeBackURL(r, AfterSignIn); got != tt.want {
				t.Errorf("SafeBackURL = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSafeBackURL_PreservesParam(t *testing.T) {
	opts := BackURLOptions{Fallback: "/dashboard", PreserveQueryParam: "status"}

	r := httptest.NewRequest("GET", "/login?status=In+Progress", nil)
	if got := SafeBackURL(r, opts); got != "/dashboard?status=In+Progress" {
		t.Errorf("SafeBackURL = %q", got)
	}

	r = httptest.NewRequest("GET", "/login?status=All", nil)
	if got := SafeBackURL(r, opts); got != "/dashboard" {
		t.Errorf("SafeBackURL with All = %q, want /dashboard", got)
	}
}

func TestSafeBackURL_AllowedPrefix(t *testing.T) {
	opts := BackURLOptions{AllowedPrefix: "/dashboard", Fallback: "/dashboard"}
	r := httptest.NewRequest("GET", "/x?return=/health", nil)
	if got := SafeBackURL(r, opts); got != "/dashboard" {
		t.Errorf("SafeBackURL = %q, want fallback", got)
	}
}
