package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"evalgo.org/stackyard/internal/reconcile"
	"evalgo.org/stackyard/models"
)

// parseTarget resolves the :target path parameter.
func parseTarget(c echo.Context) (models.Target, *APIError) {
	target, err := models.ParseTarget(c.Param("target"))
	if err != nil {
		return models.Target{}, BadRequestError("Invalid target", err.Error())
	}
	return target, nil
}

// getConfig returns the current compose document for a target.
func (s *Server) getConfig(c echo.Context) error {
	target, apiErr := parseTarget(c)
	if apiErr != nil {
		return apiErr
	}

	doc, err := s.storage.Load(target)
	if err != nil {
		return NotFoundError("configuration", target.String())
	}

	return c.JSON(http.StatusOK, doc)
}

// rawSaveRequest is the body of the manual-edit save path.
type rawSaveRequest struct {
	// Content is the full compose document text
	Content string `json:"content"`

	// Author is the operator identity for the audit trail
	Author string `json:"author"`
}

// saveRawConfig stores an operator-pasted document as a new version.
// This path bypasses planning and patching entirely; the only check is
// non-emptiness. A YAML lint result is attached to the response as
// advisory information, never as a gate.
func (s *Server) saveRawConfig(c echo.Context) error {
	target, apiErr := parseTarget(c)
	if apiErr != nil {
		return apiErr
	}

	var req rawSaveRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestError("Invalid request body", err.Error())
	}

	if strings.TrimSpace(req.Content) == "" {
		return BadRequestError("Empty document", "configuration content must not be empty")
	}

	version, err := s.storage.Save(target, req.Content, req.Author)
	if err != nil {
		return engineError(err)
	}

	s.debugLog("DEBUG: raw save of %s produced version %d", target, version)

	return c.JSON(http.StatusOK, map[string]interface{}{
		"target":  target.String(),
		"version": version,
		"lint":    s.validator.LintCompose(req.Content),
	})
}

// getHistory lists archived versions for a target, newest first.
func (s *Server) getHistory(c echo.Context) error {
	target, apiErr := parseTarget(c)
	if apiErr != nil {
		return apiErr
	}

	limit := 20
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return BadRequestError("Invalid limit", "limit must be a positive integer")
		}
		limit = parsed
	}

	docs, err := s.storage.History(target, limit)
	if err != nil {
		return engineError(err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"target":   target.String(),
		"count":    len(docs),
		"versions": docs,
	})
}

// getRuns lists reconciliation audit records for a target.
func (s *Server) getRuns(c echo.Context) error {
	target, apiErr := parseTarget(c)
	if apiErr != nil {
		return apiErr
	}

	limit := 20
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return BadRequestError("Invalid limit", "limit must be a positive integer")
		}
		limit = parsed
	}

	runs, err := s.storage.ListRuns(target, limit)
	if err != nil {
		return engineError(err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"target": target.String(),
		"count":  len(runs),
		"runs":   runs,
	})
}

// reconcileRequest is the body of the reconcile endpoint.
type reconcileRequest struct {
	// ServiceName is the service whose routing is reconciled
	ServiceName string `json:"serviceName"`

	// Intent is the desired routing exposure
	Intent models.RoutingIntent `json:"intent"`

	// Author is the operator or automation identity
	Author string `json:"author"`

	// AutoRestart restarts the affected stack after a successful apply
	AutoRestart bool `json:"autoRestart"`
}

// reconcileConfig runs the reconciliation pipeline for a target.
func (s *Server) reconcileConfig(c echo.Context) error {
	target, apiErr := parseTarget(c)
	if apiErr != nil {
		return apiErr
	}

	var req reconcileRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestError("Invalid request body", err.Error())
	}

	if req.ServiceName == "" {
		req.ServiceName = req.Intent.ServiceName
	}
	if req.Intent.ServiceName == "" {
		req.Intent.ServiceName = req.ServiceName
	}

	result, err := s.pipeline.Reconcile(c.Request().Context(), reconcile.Request{
		Target:      target,
		ServiceName: req.ServiceName,
		Intent:      req.Intent,
		Author:      req.Author,
		AutoRestart: req.AutoRestart,
	})
	if err != nil {
		return engineError(err)
	}

	return c.JSON(http.StatusOK, result)
}

// materializeConfig rewrites the on-disk artifact from the stored current
// version. Used to retry after a failed materialize step.
func (s *Server) materializeConfig(c echo.Context) error {
	target, apiErr := parseTarget(c)
	if apiErr != nil {
		return apiErr
	}

	path, err := s.pipeline.MaterializeCurrent(target)
	if err != nil {
		return engineError(err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"target":       target.String(),
		"artifactPath": path,
	})
}

// lintRequest is the body of the compose validation endpoint.
type lintRequest struct {
	Content string `json:"content"`
}

// validateCompose lints a compose document without storing it.
func (s *Server) validateCompose(c echo.Context) error {
	var req lintRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestError("Invalid request body", err.Error())
	}

	return c.JSON(http.StatusOK, s.validator.LintCompose(req.Content))
}

// getStackStatus reports the runtime state of a stack's containers.
func (s *Server) getStackStatus(c echo.Context) error {
	if s.controller == nil {
		return NewAPIError(http.StatusServiceUnavailable, "Docker runtime unavailable",
			"the server was started without a reachable Docker runtime")
	}

	stack := c.Param("stack")
	states, err := s.controller.Status(c.Request().Context(), stack)
	if err != nil {
		return InternalError("Failed to inspect stack", err.Error())
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"stack":      stack,
		"count":      len(states),
		"containers": states,
	})
}
