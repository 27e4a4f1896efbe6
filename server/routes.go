package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

var upgrader = websocket.Upgrader{
	HandshakeTimeout: 5 * time.Second,
}

// New returns the HTTP API for mgr.
//
//	POST /api/convert  start a conversion, JSON Request body
//	POST /api/cancel   cancel the running conversion
//	GET  /api/state    current State
//	GET  /api/client   websocket receiving state and progress events
func New(mgr *Manager) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Recover())

	api := e.Group("/api")

	api.GET("/client", func(c echo.Context) error {
		ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
		if err != nil {
			return err
		}
		defer ws.Close()

		mgr.HandleConn(ws)
		return nil
	})

	api.GET("/state", func(c echo.Context) error {
		state := mgr.State()
		return c.JSON(http.StatusOK, &state)
	})

	api.POST("/convert", func(c echo.Context) error {
		var req Request
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}

		if err := mgr.Start(req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}

		state := mgr.State()
		return c.JSON(http.StatusAccepted, &state)
	})

	api.POST("/cancel", func(c echo.Context) error {
		state, err := mgr.Cancel()
		if err != nil {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}

		return c.JSON(http.StatusOK, &state)
	})

	return e
}
