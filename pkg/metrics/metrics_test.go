package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordDirective(t *testing.T) {
	m := NewManager()

	m.RecordDirective("serve", false, 5*time.Millisecond)
	m.RecordDirective("serve", false, 5*time.Millisecond)
	m.RecordDirective("observe", true, 0)

	if got := testutil.ToFloat64(m.directivesTotal.WithLabelValues("serve", "false")); got != 2 {
		t.Errorf("serve directives = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.directivesTotal.WithLabelValues("observe", "true")); got != 1 {
		t.Errorf("refused directives = %v, want 1", got)
	}
}

func TestHTTPMetricsAndHandler(t *testing.T) {
	m := NewManager()

	m.RecordHTTPRequest("GET", "/api/v1/sessions", 200, 3*time.Millisecond)
	m.SetSessionsLive(2)
	m.SetMemoryRecords("s1", 7)

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)

	body := rec.Body.String()
	for _, want := range []string{
		"engram_http_requests_total",
		"engram_sessions_live 2",
		`engram_memory_records{session="s1"} 7`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("scrape output missing %q", want)
		}
	}
}

func TestDropSession(t *testing.T) {
	m := NewManager()
	m.SetMemoryRecords("gone", 3)
	m.DropSession("gone")

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)

	if strings.Contains(rec.Body.String(), `session="gone"`) {
		t.Error("dropped session series still exported")
	}
}
