package server

import (
	"net/http"
	"time"

	"openinverter2mqtt/internal/core/domain"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type readingsResponse struct {
	Date     string             `json:"date"`
	Readings map[string]float64 `json:"readings"`
}

func (s *Server) RegisterRoutes() http.Handler {
	e := echo.New()
	if s.httpLog {
		e.Use(middleware.Logger())
	}
	e.Use(middleware.Recover())

	e.GET("/healthcheck", s.HealthCheckHandler)
	e.GET("/readings", s.ReadingsHandler)

	return e
}

func (s *Server) HealthCheckHandler(c echo.Context) error {
	res, err := s.rootContext.RequestFuture(s.masterActor, domain.ActorHealthRequest{}, 10*time.Second).Result()
	if err != nil {
		return c.String(http.StatusServiceUnavailable, "health_check: FAIL")
	}
	if response, ok := res.(domain.ActorHealthResponse); ok && response.Healthy {
		return c.String(http.StatusOK, "health_check: OK")
	}
	return c.String(http.StatusServiceUnavailable, "health_check: FAIL")
}

func (s *Server) ReadingsHandler(c echo.Context) error {
	res, err := s.rootContext.RequestFuture(s.masterActor, domain.GetTelemetrySnapshotRequest{}, 10*time.Second).Result()
	if err != nil {
		return c.String(http.StatusServiceUnavailable, "readings: FAIL")
	}
	snapshot, ok := res.(domain.GetTelemetrySnapshotResponse)
	if !ok || !snapshot.HasData {
		return c.String(http.StatusServiceUnavailable, "readings: no data")
	}
	return c.JSON(http.StatusOK, readingsResponse{
		Date:     snapshot.Date.String(),
		Readings: snapshot.Readings,
	})
}
