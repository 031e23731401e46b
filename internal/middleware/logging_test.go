package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func TestRequestLogRecordsStatus(t *testing.T) {
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)

	failing := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	RequestLog(log)(failing).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/chat", nil))

	entry := hook.LastEntry()
	if entry == nil {
		t.Fatalf("expected a log entry")
	}
	if entry.Level != logrus.WarnLevel || entry.Data["status"] != http.StatusServiceUnavailable {
		t.Fatalf("unexpected entry: level=%v data=%v", entry.Level, entry.Data)
	}

	hook.Reset()
	RequestLog(log)(okHandler).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	if entry := hook.LastEntry(); entry == nil || entry.Level != logrus.DebugLevel || entry.Data["path"] != "/health" {
		t.Fatalf("unexpected entry for ok request: %+v", entry)
	}
}
