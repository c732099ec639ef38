package engine

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewHTTPServer builds the internal control API the DOMAIN STACK wires
// echo for: a liveness probe, a task listing, and a cancel endpoint, so
// an operator (or the public streaming front-end this module otherwise
// has no HTTP surface for) can inspect and interrupt in-flight work
// without going through the chat transport.
func (e *Engine) NewHTTPServer() *echo.Echo {
	srv := echo.New()
	srv.HideBanner = true
	srv.Use(middleware.Recover())

	srv.GET("/healthz", e.handleHealthz)
	srv.GET("/tasks", e.handleListTasks)
	srv.POST("/tasks/:id/cancel", e.handleCancelTask)
	srv.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return srv
}

func (e *Engine) handleHealthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// taskSummary is the wire shape /tasks reports, deliberately narrower
// than task.Task: callers outside the process have no use for work_dir
// paths or child-process handles.
type taskSummary struct {
	ID    string `json:"id"`
	Owner int64  `json:"owner"`
	Kind  string `json:"kind"`
	Stage string `json:"stage"`
}

func (e *Engine) handleListTasks(c echo.Context) error {
	tasks := e.Registry.Iter()
	out := make([]taskSummary, len(tasks))
	for i, t := range tasks {
		out[i] = taskSummary{ID: t.ID, Owner: t.Owner, Kind: string(t.Kind), Stage: string(t.Stage())}
	}
	return c.JSON(http.StatusOK, out)
}

func (e *Engine) handleCancelTask(c echo.Context) error {
	id := c.Param("id")
	t := e.Registry.Get(id)
	if t == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "task not found"})
	}
	if !t.IsCancellable() {
		return c.JSON(http.StatusConflict, map[string]string{"error": "task is no longer cancellable", "stage": string(t.Stage())})
	}
	t.Cancel()
	return c.JSON(http.StatusOK, map[string]string{"status": "cancelled"})
}
