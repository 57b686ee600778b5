package api

import (
	"errors"
	"io"
	"net/http"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/valter-silva-au/taskboard/internal/core"
	"github.com/valter-silva-au/taskboard/internal/observability"
	"github.com/valter-silva-au/taskboard/pkg/models"
)

// maxBodySize caps request bodies read by the JSON decoders.
const maxBodySize = 64 << 10

// Register wires up all API routes on the provided Echo instance. Open
// streams end when e.Server shuts down.
func Register(e *echo.Echo, board core.Board, alerts observability.AlertEngine, logger *log.Logger) {
	shutdown := make(chan struct{})
	e.Server.RegisterOnShutdown(sync.OnceFunc(func() { close(shutdown) }))

	e.GET("/api/board", getBoard(board))
	e.GET("/api/stats", getStats(board))
	e.GET("/api/alerts", getAlerts(alerts))
	e.GET("/api/stream", streamBoard(board, shutdown, logger))
	e.POST("/api/tasks", postTask(board))
	e.GET("/api/tasks/:id", getTask(board))
	e.PATCH("/api/tasks/:id", patchTask(board))
	e.DELETE("/api/tasks/:id", deleteTask(board))
	e.POST("/api/tasks/:id/move", moveTask(board))
	e.GET("/healthz", healthz())
}

type statsResponse struct {
	models.BoardStats
	Completed string `json:"completed"`
}

type boardResponse struct {
	models.BoardSnapshot
	Stats statsResponse `json:"stats"`
}

type taskResponse struct {
	Task   models.Task   `json:"task"`
	Column models.Column `json:"column"`
	Index  int           `json:"index"`
}

type moveRequest struct {
	To models.Column `json:"to"`
}

type alertsResponse struct {
	Alerts []observability.Alert `json:"alerts"`
	Count  int                   `json:"count"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func healthz() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}
}

func getBoard(board core.Board) echo.HandlerFunc {
	return func(c echo.Context) error {
		snap := board.Snapshot()
		return c.JSON(http.StatusOK, boardResponse{
			BoardSnapshot: snap,
			Stats:         toStats(snap.Stats()),
		})
	}
}

func getStats(board core.Board) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, toStats(board.Stats()))
	}
}

func getAlerts(alerts observability.AlertEngine) echo.HandlerFunc {
	return func(c echo.Context) error {
		resp := alertsResponse{Alerts: []observability.Alert{}}
		if alerts != nil {
			if found := alerts.Evaluate(); found != nil {
				resp.Alerts = found
			}
		}
		resp.Count = len(resp.Alerts)
		return c.JSON(http.StatusOK, resp)
	}
}

func postTask(board core.Board) echo.HandlerFunc {
	return func(c echo.Context) error {
		var fields models.TaskFields
		if err := decodeBody(c, &fields); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
		}
		task, err := board.Add(fields)
		if err != nil {
			return writeError(c, err)
		}
		return respondTask(c, board, http.StatusCreated, task)
	}
}

func getTask(board core.Board) echo.HandlerFunc {
	return func(c echo.Context) error {
		task, col, idx, err := board.Get(c.Param("id"))
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, taskResponse{Task: task, Column: col, Index: idx})
	}
}

func patchTask(board core.Board) echo.HandlerFunc {
	return func(c echo.Context) error {
		var patch models.TaskPatch
		if err := decodeBody(c, &patch); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
		}
		task, err := board.Edit(c.Param("id"), patch)
		if err != nil {
			return writeError(c, err)
		}
		return respondTask(c, board, http.StatusOK, task)
	}
}

func deleteTask(board core.Board) echo.HandlerFunc {
	return func(c echo.Context) error {
		task, col, idx, err := board.Remove(c.Param("id"))
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, taskResponse{Task: task, Column: col, Index: idx})
	}
}

func moveTask(board core.Board) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req moveRequest
		if err := decodeBody(c, &req); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
		}
		task, err := board.Move(c.Param("id"), req.To)
		if err != nil {
			return writeError(c, err)
		}
		return respondTask(c, board, http.StatusOK, task)
	}
}

// streamBoard pushes a fresh snapshot as a server-sent event on connect and
// after every board change, until the client leaves or shutdown is closed.
func streamBoard(board core.Board, shutdown <-chan struct{}, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		flusher, ok := c.Response().Writer.(http.Flusher)
		if !ok {
			return c.String(http.StatusInternalServerError, "stream unsupported")
		}
		c.Response().Header().Set(echo.HeaderContentType, "text/event-stream")
		c.Response().Header().Set(echo.HeaderCacheControl, "no-cache")
		c.Response().Header().Set(echo.HeaderConnection, "keep-alive")
		c.Response().Header().Set("X-Accel-Buffering", "no")
		c.Response().WriteHeader(http.StatusOK)

		updates := make(chan struct{}, 1)
		unsubscribe := board.Subscribe(func(models.Change) {
			select {
			case updates <- struct{}{}:
			default:
			}
		})
		defer unsubscribe()

		ctx := c.Request().Context()
		for {
			data, err := sonic.ConfigStd.Marshal(board.Snapshot())
			if err != nil {
				logger.WithError(err).Error("encoding board snapshot")
				return err
			}
			if _, err := c.Response().Write(append(append([]byte("data: "), data...), '\n', '\n')); err != nil {
				logger.WithError(err).Debug("stream client gone")
				return nil
			}
			flusher.Flush()

			select {
			case <-ctx.Done():
				return nil
			case <-shutdown:
				return nil
			case <-updates:
			}
		}
	}
}

// decodeBody decodes a JSON body with sonic, rejecting unknown fields.
func decodeBody(c echo.Context, v any) error {
	dec := sonic.ConfigStd.NewDecoder(io.LimitReader(c.Request().Body, maxBodySize))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// respondTask writes task with its current position.
func respondTask(c echo.Context, board core.Board, status int, task models.Task) error {
	current, col, idx, err := board.Get(task.ID)
	if err != nil {
		return c.JSON(status, taskResponse{Task: task, Index: -1})
	}
	return c.JSON(status, taskResponse{Task: current, Column: col, Index: idx})
}

// writeError maps board errors onto HTTP status codes.
func writeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, core.ErrTaskNotFound):
		return c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, core.ErrEmptyTitle),
		errors.Is(err, core.ErrUnknownColumn),
		errors.Is(err, core.ErrIndexOutOfRange):
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}
	c.Logger().Error(err)
	return c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
}

func toStats(st models.BoardStats) statsResponse {
	return statsResponse{BoardStats: st, Completed: st.Completed()}
}
