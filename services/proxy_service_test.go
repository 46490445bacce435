package services

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestProxyServiceForward(t *testing.T) {
	var gotURL, gotAuth, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotURL = r.URL.String()
		gotAuth = r.Header.Get("Authorization")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte("nope"))
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"count": 3})
	}))
	defer srv.Close()

	proxy := NewProxyService(srv.URL+"/", srv.Client(), testLogger())
	headers := http.Header{"Authorization": {"Bearer op"}}

	resp, err := proxy.Forward(context.Background(), http.MethodPost, "/auth/api/stats", "range=7d", headers, []byte(`{"a":1}`))
	if err != nil {
		t.Fatal(err)
	}
	if !resp.OK() || string(resp.Body) != "{\"count\":3}\n" {
		t.Errorf("resp = %d %s", resp.StatusCode, resp.Body)
	}
	if gotURL != "/auth/api/stats?range=7d" || gotAuth != "Bearer op" || gotBody != `{"a":1}` {
		t.Errorf("upstream saw %s %q %s", gotURL, gotAuth, gotBody)
	}

	resp, err = proxy.Forward(context.Background(), http.MethodGet, "missing", "", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if resp.OK() || resp.StatusCode != http.StatusNotFound || resp.Body != nil {
		t.Errorf("resp = %d %s", resp.StatusCode, resp.Body)
	}
}
