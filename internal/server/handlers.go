package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dshills/evidentia/internal/analysis"
	"github.com/dshills/evidentia/internal/taxonomy"
)

type errorBody struct {
	Error string `json:"error"`
}

type flagsCategory struct {
	ID    string          `json:"id"`
	Flags []taxonomy.Flag `json:"flags"`
}

type flagsResponse struct {
	Name               string          `json:"name"`
	TotalPossibleScore int             `json:"total_possible_score"`
	Categories         []flagsCategory `json:"categories"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) flags(c *gin.Context) {
	reg := s.svc.Registry()
	resp := flagsResponse{
		Name:               reg.Name(),
		TotalPossibleScore: reg.TotalPossibleScore(),
	}
	for _, cat := range reg.Categories() {
		resp.Categories = append(resp.Categories, flagsCategory{ID: cat, Flags: reg.FlagsIn(cat)})
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) analyze(c *gin.Context) {
	var req analysis.AnalyzeRequest
	if !s.bind(c, &req) {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), s.timeout)
	defer cancel()

	r, err := s.svc.Analyze(ctx, req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (s *Server) compare(c *gin.Context) {
	var req analysis.CompareRequest
	if !s.bind(c, &req) {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), s.timeout)
	defer cancel()

	res, err := s.svc.Compare(ctx, req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// bind decodes a size-limited JSON body, answering 400 or 413 on failure.
func (s *Server) bind(c *gin.Context, dst any) bool {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxBody)
	if err := c.ShouldBindJSON(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, errorBody{Error: "request body too large"})
			return false
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, errorBody{Error: "invalid JSON body: " + err.Error()})
		return false
	}
	return true
}

func (s *Server) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, analysis.ErrEmptyText):
		c.AbortWithStatusJSON(http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	case errors.Is(err, context.DeadlineExceeded):
		c.AbortWithStatusJSON(http.StatusGatewayTimeout, errorBody{Error: "analysis timed out"})
		return
	}
	s.logger.Error("request failed", "path", c.Request.URL.Path, "request_id", c.GetString(requestIDKey), "error", err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, errorBody{Error: "analysis failed"})
}
