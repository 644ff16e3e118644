package app

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"

	"github.com/mhollis/quizdeck/internal/logger"
)

var testPages = fstest.MapFS{
	"control.html": {Data: []byte("<html>control</html>")},
	"display.html": {Data: []byte("<html>display</html>")},
}

func createTestApp(t *testing.T) *App {
	t.Helper()
	a, err := New(logger.New(), ":memory:", testPages)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(a.Close)
	return a
}

func TestNew_InitializesApp(t *testing.T) {
	a := createTestApp(t)
	if a.handlers == nil || a.repo == nil || a.timer == nil {
		t.Errorf("app not fully wired: %+v", a)
	}
}

func TestNew_FailsWithBadDBPath(t *testing.T) {
	_, err := New(logger.New(), "/nonexistent/dir/quiz.db", testPages)
	if err == nil {
		t.Errorf("expected error for unwritable database path")
	}
}

func TestApp_Router_ServesRequests(t *testing.T) {
	a := createTestApp(t)
	srv := httptest.NewServer(a.Router())
	defer srv.Close()

	res, err := http.Get(srv.URL + "/api/sessions")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", res.StatusCode)
	}
}

func TestApp_Close_Idempotent(t *testing.T) {
	a, err := New(logger.New(), ":memory:", testPages)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	a.Close()
	a.Close()
}

func TestSetDefaultBaseURL(t *testing.T) {
	a := createTestApp(t)
	ctx := context.Background()

	a.setDefaultBaseURL("http://192.168.1.20:8080")
	got, err := a.repo.GetSetting(ctx, "base_url")
	if err != nil || got != "http://192.168.1.20:8080" {
		t.Errorf("expected default set, got %q, %v", got, err)
	}

	// A configured non-localhost value is left alone.
	a.setDefaultBaseURL("http://192.168.1.99:8080")
	got, _ = a.repo.GetSetting(ctx, "base_url")
	if got != "http://192.168.1.20:8080" {
		t.Errorf("configured value should be kept, got %q", got)
	}

	// A localhost value is replaced: useless for QR codes.
	if err := a.repo.SetSetting(ctx, "base_url", "http://localhost:8080"); err != nil {
		t.Fatalf("SetSetting failed: %v", err)
	}
	a.setDefaultBaseURL("http://10.0.0.7:8080")
	got, _ = a.repo.GetSetting(ctx, "base_url")
	if got != "http://10.0.0.7:8080" {
		t.Errorf("localhost value should be replaced, got %q", got)
	}
}

// mockInterface implements networkInterface for testing
type mockInterface struct {
	flags net.Flags
	addrs []net.Addr
	err   error
}

func (m mockInterface) Flags() net.Flags { return m.flags }

func (m mockInterface) Addrs() ([]net.Addr, error) { return m.addrs, m.err }

// mockNetworkProvider implements networkProvider for testing
type mockNetworkProvider struct {
	interfaces []networkInterface
	err        error
}

func (m mockNetworkProvider) Interfaces() ([]networkInterface, error) {
	return m.interfaces, m.err
}

func ipNet(ip string, bits int) net.Addr {
	return &net.IPNet{IP: net.ParseIP(ip), Mask: net.CIDRMask(bits, 32)}
}

func TestGetPreferredIP_PrefersPrivateAddresses(t *testing.T) {
	provider := mockNetworkProvider{
		interfaces: []networkInterface{
			mockInterface{
				flags: net.FlagUp,
				addrs: []net.Addr{ipNet("8.8.8.8", 24), ipNet("192.168.1.42", 24)},
			},
		},
	}
	if got := getPreferredIP(provider); got != "192.168.1.42" {
		t.Errorf("expected private address preferred, got %s", got)
	}
}

func TestGetPreferredIP_FallsBackToPublic(t *testing.T) {
	provider := mockNetworkProvider{
		interfaces: []networkInterface{
			mockInterface{flags: net.FlagUp, addrs: []net.Addr{ipNet("8.8.8.8", 24)}},
		},
	}
	if got := getPreferredIP(provider); got != "8.8.8.8" {
		t.Errorf("expected public fallback, got %s", got)
	}
}

func TestGetPreferredIP_SkipsDownAndLoopback(t *testing.T) {
	provider := mockNetworkProvider{
		interfaces: []networkInterface{
			mockInterface{flags: 0, addrs: []net.Addr{ipNet("192.168.1.1", 24)}},
			mockInterface{flags: net.FlagUp | net.FlagLoopback, addrs: []net.Addr{ipNet("127.0.0.1", 8)}},
		},
	}
	if got := getPreferredIP(provider); got != "localhost" {
		t.Errorf("expected localhost fallback, got %s", got)
	}
}

func TestGetPreferredIP_NetworkError(t *testing.T) {
	provider := mockNetworkProvider{err: net.ErrClosed}
	if got := getPreferredIP(provider); got != "localhost" {
		t.Errorf("expected localhost on error, got %s", got)
	}
}

func TestIsPrivate172(t *testing.T) {
	tests := []struct {
		ip       string
		expected bool
	}{
		{"172.16.0.1", true},
		{"172.31.255.255", true},
		{"172.15.0.1", false},
		{"172.32.0.1", false},
		{"192.168.1.1", false},
	}

	for _, tt := range tests {
		t.Run(tt.ip, func(t *testing.T) {
			if got := isPrivate172(net.ParseIP(tt.ip)); got != tt.expected {
				t.Errorf("isPrivate172(%s) = %v, want %v", tt.ip, got, tt.expected)
			}
		})
	}
	if isPrivate172(nil) {
		t.Errorf("nil IP should not be private")
	}
}
