package routes

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/clubdev/clubdev/config"
	"github.com/clubdev/clubdev/models"
	"github.com/clubdev/clubdev/realtime"
	"github.com/clubdev/clubdev/utils"
)

func TestMain(m *testing.M) {
	os.Setenv("JWT_SECRET", "test-secret")
	os.Setenv("GIN_MODE", "test")
	os.Setenv("GIN_PATH", filepath.Join(os.TempDir(), "router_test_gin.log"))
	os.Setenv("LOG_PATH", filepath.Join(os.TempDir(), "router_test_app.log"))
	config.Load()
	gin.SetMode(gin.TestMode)
	utils.Sugar = zap.NewNop().Sugar()
	os.Exit(m.Run())
}

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:router_test?mode=memory&cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(
		&models.User{}, &models.Entry{}, &models.Tag{}, &models.Category{},
		&models.Like{}, &models.Comment{}, &models.Follow{}, &models.Notification{},
		&models.Flag{}, &models.MindMap{}, &models.Badge{}, &models.Reputation{},
		&models.PageView{}, &models.UploadedFile{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return SetupRouter(db, realtime.NewHub(utils.Sugar), nil)
}

// Registration must not panic: the route table mixes static segments and
// parameters under the same prefixes (/users/me/... beside /users/:id/...,
// /entries/recent beside /entries/:id).
func TestSetupRouterRegistersAllRoutes(t *testing.T) {
	r := newRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d, want 200", w.Code)
	}
}

func TestStaticSegmentsWinOverParams(t *testing.T) {
	r := newRouter(t)

	// /users/me/entries must hit the authenticated static route (401
	// without a token), not the public /users/:id/entries handler (200).
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/users/me/entries", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("GET /api/users/me/entries = %d, want 401", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/users/1/entries", nil))
	if w.Code != http.StatusOK {
		t.Errorf("GET /api/users/1/entries = %d, want 200", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/entries/recent", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("GET /api/entries/recent = %d, want 401", w.Code)
	}
}
