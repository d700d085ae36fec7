package update

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNeedsUpdate(t *testing.T) {
	tests := []struct {
		latest, current string
		want            bool
	}{
		{"1.2.0", "1.1.9", true},
		{"1.10.0", "1.9.0", true},
		{"1.2.0", "1.2.0", false},
		{"1.2.0", "1.3.0", false},
		{"1.2.0", "1.2.0-rc.1", true},
		{"garbage", "1.0.0", false},
	}
	for _, tt := range tests {
		r := &Result{Latest: tt.latest, Current: tt.current}
		if got := r.NeedsUpdate(); got != tt.want {
			t.Errorf("NeedsUpdate(%s > %s) = %v, want %v", tt.latest, tt.current, got, tt.want)
		}
	}
	var nilResult *Result
	if nilResult.NeedsUpdate() {
		t.Error("nil result needs no update")
	}
}

func TestLatest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/"+Repository+"/releases/latest" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"tag_name":"v0.3.0","html_url":"https://example.test/r/0.3.0"}`))
	}))
	defer srv.Close()

	c := &Checker{Client: srv.Client(), BaseURL: srv.URL}
	r := c.Latest(context.Background(), "v0.2.1")
	if r == nil {
		t.Fatal("Latest returned nil")
	}
	if r.Latest != "0.3.0" || r.Current != "0.2.1" || r.UpdateURL != "https://example.test/r/0.3.0" {
		t.Errorf("result = %+v", r)
	}
	if !r.NeedsUpdate() {
		t.Error("expected update")
	}
}

func TestLatestFailuresReturnNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := &Checker{Client: srv.Client(), BaseURL: srv.URL}
	if r := c.Latest(context.Background(), "0.1.0"); r != nil {
		t.Errorf("expected nil, got %+v", r)
	}
}
