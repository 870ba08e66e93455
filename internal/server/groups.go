package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/projectflow-ai/projectflow/models"
)

type groupRequest struct {
	GroupID   string   `json:"group_id"`
	GroupName string   `json:"group_name"`
	Students  []string `json:"students"`
}

func (s *Server) handleCreateGroup(c echo.Context) error {
	var req groupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.GroupName == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "group_name is required")
	}
	var (
		g   *models.Group
		err error
	)
	if req.GroupID != "" {
		g, err = s.groups.CreateWithID(req.GroupID, req.GroupName, req.Students)
	} else {
		g, err = s.groups.Create(req.GroupName, req.Students)
	}
	if errors.Is(err, models.ErrGroupExists) {
		return echo.NewHTTPError(http.StatusConflict, "group already exists")
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, g)
}

func (s *Server) handleListGroups(c echo.Context) error {
	return c.JSON(http.StatusOK, s.groups.List())
}

func (s *Server) handleGetGroup(c echo.Context) error {
	g, err := s.groups.Get(c.Param("id"))
	if errors.Is(err, models.ErrGroupNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "group not found")
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, g)
}

func (s *Server) handleUpdateGroup(c echo.Context) error {
	var req groupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	g, err := s.groups.Update(c.Param("id"), req.GroupName, req.Students)
	if errors.Is(err, models.ErrGroupNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "group not found")
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, g)
}

func (s *Server) handleDeleteGroup(c echo.Context) error {
	err := s.groups.Delete(c.Param("id"))
	if errors.Is(err, models.ErrGroupNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "group not found")
	}
	if err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleRotateSession(c echo.Context) error {
	sid, err := s.groups.RotateSession(c.Param("id"))
	if errors.Is(err, models.ErrGroupNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "group not found")
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"session_id": sid})
}

func (s *Server) handleGroupProgress(c echo.Context) error {
	p, err := s.groups.Progress(c.Request().Context(), c.Param("id"))
	if errors.Is(err, models.ErrGroupNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "group not found")
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (s *Server) handleAllProgress(c echo.Context) error {
	return c.JSON(http.StatusOK, s.groups.AllProgress(c.Request().Context()))
}

func (s *Server) handleGroupAnalysis(c echo.Context) error {
	id := c.Param("id")
	g, err := s.groups.Get(id)
	if errors.Is(err, models.ErrGroupNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "group not found")
	}
	if err != nil {
		return err
	}
	rec, err := s.groups.Record(c.Request().Context(), id)
	if err != nil {
		return err
	}
	res, err := s.analyzer.Analyze(c.Request().Context(), g, rec)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return c.JSON(http.StatusOK, res)
}
