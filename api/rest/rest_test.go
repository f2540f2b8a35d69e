package rest_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/ghostai/api/rest"
	"github.com/kasuganosora/ghostai/audit"
	"github.com/kasuganosora/ghostai/cache"
	"github.com/kasuganosora/ghostai/game/world"
	"github.com/kasuganosora/ghostai/resource"
	"github.com/kasuganosora/ghostai/scheduler"
	"github.com/kasuganosora/ghostai/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testKey = "test-key"

var corridor = []string{
	"#######",
	"#P...B#",
	"#######",
}

var openRoom = []string{
	"#######",
	"#.....#",
	"#..P..#",
	"#B...K#",
	"#######",
}

type testEnv struct {
	r       *gin.Engine
	wm      *world.WorldManager
	db      *gorm.DB
	cache   cache.Cache
	sched   *scheduler.Scheduler
	journal *audit.Service
}

func newTestEnv(t *testing.T, adminKey string, opts world.Options) *testEnv {
	t.Helper()
	logger := zap.NewNop()

	loader := resource.NewLoader(t.TempDir())
	require.NoError(t, loader.Add("corridor", corridor))
	require.NoError(t, loader.Add("open", openRoom))

	db := testutil.SetupTestDB(t)
	c, ps := testutil.SetupTestCache(t)
	sched := scheduler.New(logger)
	t.Cleanup(sched.Stop)
	journal := audit.New(db, logger)
	t.Cleanup(func() { journal.Stop(context.Background()) })

	if opts.TickInterval == 0 {
		opts.TickInterval = time.Hour // tests tick rooms by hand
	}
	opts.JournalMoves = true
	wm := world.NewWorldManager(loader, sched, opts, db, journal, c, ps, logger)
	t.Cleanup(wm.StopAll)

	rooms := rest.NewRoomHandler(wm, db, c, "corridor", logger)
	admin := rest.NewAdminHandler(wm, sched, journal, "local", logger)

	r := gin.New()
	rest.Register(r, rooms, admin, rest.AdminAuth(adminKey))
	return &testEnv{r: r, wm: wm, db: db, cache: c, sched: sched, journal: journal}
}

func (e *testEnv) do(method, path, key, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if key != "" {
		req.Header.Set("X-Admin-Key", key)
	}
	w := httptest.NewRecorder()
	e.r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

// createRoom opens a room through the API and returns its id.
func (e *testEnv) createRoom(t *testing.T, body string) string {
	t.Helper()
	w := e.do(http.MethodPost, "/api/rooms", testKey, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	room := decode(t, w)["room"].(map[string]interface{})
	return room["id"].(string)
}
