package api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mautops/office-gin/internal/api"
	"github.com/mautops/office-gin/internal/config"
	"github.com/mautops/office-gin/internal/database"
	"github.com/mautops/office-gin/internal/repository"
	"github.com/mautops/office-gin/internal/service"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// testServer 挂载全部路由的测试服务
type testServer struct {
	t      *testing.T
	db     *gorm.DB
	router *gin.Engine
	now    time.Time
}

func setupTestDBForAPI(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), database.GormConfig())
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	return db
}

func newTestServer(t *testing.T, mutate ...func(*config.Config)) *testServer {
	gin.SetMode(gin.TestMode)
	db := setupTestDBForAPI(t)

	cfg := config.Default()
	cfg.RateLimit.Enabled = false
	for _, m := range mutate {
		m(cfg)
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	s := &testServer{t: t, db: db, now: time.Date(2024, 3, 5, 9, 0, 0, 0, time.Local)}
	clock := func() time.Time { return s.now }
	auditLog := service.NewAuditLogService(repository.NewAuditLogRepository(db), service.WithClock(clock))
	opts := []service.Option{service.WithClock(clock), service.WithLogger(logger), service.WithAuditLog(auditLog)}

	stats := service.NewStatisticsService(db, opts...)
	s.router = api.SetupRoutes(&api.RouterDeps{
		Config:        cfg,
		DB:            db,
		Logger:        logger,
		Attendance:    service.NewAttendanceService(db, opts...),
		DailyTasks:    service.NewDailyTaskService(db, opts...),
		EditorSheets:  service.NewEditorSheetService(db, opts...),
		Statistics:    stats,
		Reports:       service.NewReportService(db, stats, opts...),
		BackupService: service.NewBackupService(db, t.TempDir(), opts...),
		AuditLog:      auditLog,
	})
	return s
}

func (s *testServer) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = bytes.NewBufferString(b)
		default:
			data, err := json.Marshal(b)
			require.NoError(s.t, err)
			reader = bytes.NewBuffer(data)
		}
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// decode 解析成功响应中的 data
func decode(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	var resp struct {
		Code    int             `json:"code"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	require.Equal(t, 0, resp.Code, w.Body.String())
	if out != nil {
		require.NoError(t, json.Unmarshal(resp.Data, out))
	}
}

// decodeError 解析错误响应
func decodeError(t *testing.T, w *httptest.ResponseRecorder) api.ErrorResponse {
	var resp api.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	require.Equal(t, w.Code, resp.Code)
	return resp
}

func assertStatus(t *testing.T, w *httptest.ResponseRecorder, status int) {
	t.Helper()
	require.Equal(t, status, w.Code, w.Body.String())
}
