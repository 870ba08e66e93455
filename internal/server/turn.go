package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/projectflow-ai/projectflow/internal/engine"
	"github.com/projectflow-ai/projectflow/models"
)

// handleTurn runs one mentoring turn. A request naming only a group resolves
// its active session first, minting one for a group's very first message.
func (s *Server) handleTurn(c echo.Context) error {
	var req engine.TurnRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.UserText == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user_text is required")
	}
	if req.SessionID == "" {
		if req.GroupID == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "session_id or group_id is required")
		}
		sid, err := s.groups.EnsureSession(req.GroupID)
		if errors.Is(err, models.ErrGroupNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "group not found")
		}
		if err != nil {
			return err
		}
		req.SessionID = sid
	}

	res, err := s.engine.Turn(c.Request().Context(), req)
	if err != nil {
		// The caller may retry the same turn.
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return c.JSON(http.StatusOK, res)
}
