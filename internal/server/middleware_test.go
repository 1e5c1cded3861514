package server

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/mohit83k/radius-bridge/internal/logger"
)

// --- Mocks ---

type mockLogger struct {
	mu       sync.Mutex
	infos    []string
	warns    []string
	errs     []error
	lastData map[string]any
}

func (l *mockLogger) Info(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infos = append(l.infos, msg)
}

func (l *mockLogger) Warn(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, msg)
}

func (l *mockLogger) Error(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errs = append(l.errs, err)
}

func (l *mockLogger) WithFields(fields map[string]any) logger.Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lastData = fields
	return l
}

// --- Tests ---

func newEngine(log logger.Logger, handlers ...gin.HandlerFunc) *gin.Engine {
	engine := gin.New()
	engine.Use(RequestID(), AccessLog(log))
	engine.GET("/t", handlers...)
	return engine
}

func TestAccessLog_Levels(t *testing.T) {
	tests := []struct {
		status    int
		wantInfo  int
		wantWarn  int
		wantError int
	}{
		{http.StatusOK, 1, 0, 0},
		{http.StatusNotFound, 0, 1, 0},
		{http.StatusInternalServerError, 0, 0, 1},
	}

	for _, tt := range tests {
		log := &mockLogger{}
		engine := newEngine(log, func(c *gin.Context) { c.Status(tt.status) })

		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/t", nil))

		if len(log.infos) != tt.wantInfo || len(log.warns) != tt.wantWarn || len(log.errs) != tt.wantError {
			t.Errorf("status %d: got info=%d warn=%d error=%d", tt.status, len(log.infos), len(log.warns), len(log.errs))
		}
		if log.lastData["status"] != tt.status || log.lastData["path"] != "/t" {
			t.Errorf("status %d: unexpected fields %v", tt.status, log.lastData)
		}
		if log.lastData["request_id"] != w.Header().Get(requestIDHeader) {
			t.Errorf("expected request id in access log, got %v", log.lastData["request_id"])
		}
	}
}

func TestRecovery_LogsAndFallsBack(t *testing.T) {
	log := &mockLogger{}
	engine := newEngine(log,
		Recovery(log, noContent),
		func(*gin.Context) { panic("boom") },
	)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/t", nil))

	if w.Code != http.StatusNoContent {
		t.Errorf("expected fallback 204, got %d", w.Code)
	}
	if len(log.errs) != 1 || log.errs[0].Error() != "panic recovered: boom" {
		t.Errorf("expected the panic logged, got %v", log.errs)
	}
}
