package FiberConfig

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"Dashspect/Models"
	"Dashspect/TaskEngine"
	"Dashspect/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeJobs struct {
	ran []string
}

func (f *fakeJobs) RunNow(ctx context.Context, job string) (interface{}, error) {
	if job != "digest" {
		return nil, fmt.Errorf("unknown job %q", job)
	}
	f.ran = append(f.ran, job)
	return nil, nil
}

func TestRoutes(t *testing.T) {
	db, err := Models.Open("sqlite", "file:routes_test?mode=memory&cache=shared")
	require.NoError(t, err)
	require.NoError(t, Models.Migrate(db))
	Models.DB = db

	password, err := bcrypt.GenerateFromPassword([]byte("password1"), bcrypt.MinCost)
	require.NoError(t, err)
	admin := Models.User{Name: "Dina", Email: "dina@example.com", Password: password, Permission: Models.PermissionAdmin, IsActive: true}
	require.NoError(t, db.Create(&admin).Error)

	jobs := &fakeJobs{}
	app := NewApp(db, Server{
		Location:  time.UTC,
		Pipeline:  TaskEngine.NewPipeline(TaskEngine.DefaultGraceWindow),
		Jobs:      jobs,
		LogFormat: "text",
		LogFile:   filepath.Join(t.TempDir(), "requests.log"),
		Templates: "../Templates",
	})

	token, _, err := middleware.IssueToken(admin, time.Now())
	require.NoError(t, err)
	request := func(method, path string, auth bool) int {
		req := httptest.NewRequest(method, path, nil)
		if auth {
			req.AddCookie(&http.Cookie{Name: middleware.CookieName, Value: token})
		}
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		return resp.StatusCode
	}

	assert.Equal(t, fiber.StatusOK, request(fiber.MethodGet, "/health", false))
	assert.Equal(t, fiber.StatusUnauthorized, request(fiber.MethodGet, "/api/occurrences", false))
	assert.Equal(t, fiber.StatusOK, request(fiber.MethodGet, "/api/occurrences", true))
	assert.Equal(t, fiber.StatusOK, request(fiber.MethodGet, "/api/tasks", true))
	assert.Equal(t, fiber.StatusOK, request(fiber.MethodGet, "/api/logs/stats", true))

	assert.Equal(t, fiber.StatusOK, request(fiber.MethodPost, "/api/jobs/digest/run", true))
	assert.Equal(t, fiber.StatusBadRequest, request(fiber.MethodPost, "/api/jobs/backup/run", true))
	assert.Equal(t, []string{"digest"}, jobs.ran)
}

func TestFiberConfig_StopsWhenContextEnds(t *testing.T) {
	db, err := Models.Open("sqlite", "file:serve_test?mode=memory&cache=shared")
	require.NoError(t, err)
	require.NoError(t, Models.Migrate(db))
	Models.DB = db

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := strconv.Itoa(ln.Addr().(*net.TCPAddr).Port)
	require.NoError(t, ln.Close())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- FiberConfig(ctx, Server{
			Port:      port,
			Location:  time.UTC,
			Pipeline:  TaskEngine.NewPipeline(TaskEngine.DefaultGraceWindow),
			LogFile:   filepath.Join(t.TempDir(), "requests.log"),
			Templates: "../Templates",
		})
	}()

	url := "http://127.0.0.1:" + port + "/health"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == fiber.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}

	_, err = http.Get(url)
	assert.Error(t, err)
}
