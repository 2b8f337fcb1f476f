package controllers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"os"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/clubdev/clubdev/config"
	"github.com/clubdev/clubdev/middleware"
	"github.com/clubdev/clubdev/models"
	"github.com/clubdev/clubdev/realtime"
	"github.com/clubdev/clubdev/utils"
)

func TestMain(m *testing.M) {
	os.Setenv("JWT_SECRET", "test-secret")
	os.Setenv("ADMIN_USERNAMES", "admin")
	config.Load()
	gin.SetMode(gin.TestMode)
	utils.Sugar = zap.NewNop().Sugar()
	os.Exit(m.Run())
}

var testDBCounter int
var testDBMu sync.Mutex

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	testDBMu.Lock()
	testDBCounter++
	dsn := fmt.Sprintf("file:ctrl_test_%d?mode=memory&cache=shared", testDBCounter)
	testDBMu.Unlock()

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&models.User{}, &models.Entry{}, &models.Tag{}, &models.Category{},
		&models.Like{}, &models.Comment{}, &models.Follow{}, &models.Notification{},
		&models.Flag{}, &models.MindMap{}, &models.Badge{}, &models.Reputation{},
		&models.PageView{}, &models.UploadedFile{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

// recordingHub captures broadcasts so tests can assert on room and payload.
type recordingHub struct {
	mu     sync.Mutex
	events []recordedEvent
}

type recordedEvent struct {
	Room  string
	Event realtime.Event
}

func (r *recordingHub) Broadcast(room string, ev realtime.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{Room: room, Event: ev})
}

func (r *recordingHub) named(name string) []recordedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []recordedEvent
	for _, e := range r.events {
		if e.Event.Name == name {
			out = append(out, e)
		}
	}
	return out
}

func (r *recordingHub) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// testContext builds a request-bound gin context for calling a handler
// directly. userID zero leaves the context unauthenticated.
func testContext(t *testing.T, method string, body any, userID uint, username string, params ...gin.Param) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	return testContextURL(t, method, "/", body, userID, username, params...)
}

// testContextURL is testContext with an explicit request target, for handlers
// that read query parameters.
func testContextURL(t *testing.T, method, target string, body any, userID uint, username string, params ...gin.Param) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	w := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(w)

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	ctx.Request = req
	ctx.Params = params

	if userID != 0 {
		ctx.Set(middleware.ContextUserIDKey, userID)
		ctx.Set(middleware.ContextUsernameKey, username)
	}
	return ctx, w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return out
}

func mustCreate(t *testing.T, db *gorm.DB, value any) {
	t.Helper()
	if err := db.Create(value).Error; err != nil {
		t.Fatalf("create %T: %v", value, err)
	}
}

func seedUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	u := &models.User{Username: username, Email: username + "@example.com"}
	mustCreate(t, db, u)
	return u
}

func seedEntry(t *testing.T, db *gorm.DB, userID uint, title string) *models.Entry {
	t.Helper()
	e := &models.Entry{UserID: userID, Title: title, Content: "content of " + title}
	mustCreate(t, db, e)
	return e
}

func wantStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("status = %d, want %d, body %s", w.Code, want, w.Body.String())
	}
}
