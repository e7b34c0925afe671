package server

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/liao/course-rag/internal/rag"
)

type ragSystem interface {
	Query(ctx context.Context, query, sessionID string) (string, []rag.Source, string, error)
	Analytics(ctx context.Context) (int, []string, error)
	ClearSession(id string)
}

type Server struct {
	sys  ragSystem
	echo *echo.Echo
}

// New builds the HTTP API. frontendDir, when non-empty, is served as
// static files at the root path.
func New(sys ragSystem, frontendDir string) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	s := &Server{sys: sys, echo: e}

	e.POST("/api/query", s.handleQuery)
	e.GET("/api/courses", s.handleCourses)
	e.DELETE("/api/sessions/:id", s.handleClearSession)

	if frontendDir != "" {
		e.Static("/", frontendDir)
	}
	return s
}

func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

type queryRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id"`
}

type queryResponse struct {
	Answer    string       `json:"answer"`
	Sources   []rag.Source `json:"sources"`
	SessionID string       `json:"session_id"`
}

func (s *Server) handleQuery(c echo.Context) error {
	var req queryRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if strings.TrimSpace(req.Query) == "" {
		return c.JSON(http.StatusUnprocessableEntity, map[string]string{"error": "query is required"})
	}

	answer, sources, sessionID, err := s.sys.Query(c.Request().Context(), req.Query, req.SessionID)
	if err != nil {
		slog.Error("query failed", "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to generate answer"})
	}
	if sources == nil {
		sources = []rag.Source{}
	}
	return c.JSON(http.StatusOK, queryResponse{Answer: answer, Sources: sources, SessionID: sessionID})
}

type coursesResponse struct {
	CourseCount  int      `json:"course_count"`
	CourseTitles []string `json:"course_titles"`
}

func (s *Server) handleCourses(c echo.Context) error {
	count, titles, err := s.sys.Analytics(c.Request().Context())
	if err != nil {
		slog.Error("course analytics failed", "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to list courses"})
	}
	if titles == nil {
		titles = []string{}
	}
	return c.JSON(http.StatusOK, coursesResponse{CourseCount: count, CourseTitles: titles})
}

func (s *Server) handleClearSession(c echo.Context) error {
	s.sys.ClearSession(c.Param("id"))
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
