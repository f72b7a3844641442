package echoapi

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/ekklesia/core"
	"github.com/trezcool/ekklesia/core/song"
	logsvc "github.com/trezcool/ekklesia/services/logger"
)

func Test_appHTTPErrorHandler(t *testing.T) {
	_, translator := core.NewValidator()
	logger := logsvc.NewRollbarLogger(io.Discard, testConfig())

	tests := []struct {
		name         string
		err          error
		wantCode     int
		wantShutdown bool
	}{
		{name: "permission denied", err: core.ErrPermissionDenied, wantCode: http.StatusForbidden},
		{name: "not found", err: errors.Wrap(song.ErrNotFound, "getting song"), wantCode: http.StatusNotFound},
		{name: "server error", err: errors.New("boom"), wantCode: http.StatusInternalServerError},
		{
			name:         "database unreachable",
			err:          errors.Wrap(core.NewShutdownError("database unreachable: sql: database is closed"), "querying songs"),
			wantCode:     http.StatusInternalServerError,
			wantShutdown: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var shutdown bool
			handler := newAppHTTPErrorHandler(logger, translator, func() { shutdown = true })

			e := echo.New()
			rec := httptest.NewRecorder()
			ctx := e.NewContext(httptest.NewRequest(http.MethodGet, "/v1/songs", nil), rec)
			handler(tt.err, ctx)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantShutdown, shutdown)
		})
	}
}

func TestServer_signalShutdown(t *testing.T) {
	env := setup(t)
	env.srv.signalShutdown()
	select {
	case <-env.srv.ShutdownSignal():
	default:
		t.Fatal("no shutdown signal sent")
	}
}
