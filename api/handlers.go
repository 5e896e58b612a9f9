package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/LuisVasquezBSC/flor-language-adaptation/internal/store"
	"github.com/LuisVasquezBSC/flor-language-adaptation/internal/task"
)

type taskDetail struct {
	Name     string `json:"name"`
	Language string `json:"language"`
	Dataset  string `json:"dataset"`
	Template string `json:"template"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleListTasks(c *gin.Context) {
	if s == nil || s.tasks == nil {
		respondError(c, http.StatusInternalServerError, errors.New("server not initialized"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": s.tasks.Names()})
}

func (s *Server) handleGetTask(c *gin.Context) {
	if s == nil || s.tasks == nil {
		respondError(c, http.StatusInternalServerError, errors.New("server not initialized"))
		return
	}

	name := strings.TrimSpace(c.Param("name"))
	lang, ok := s.tasks.Get(name)
	if !ok {
		respondError(c, http.StatusNotFound, fmt.Errorf("task %q not found", name))
		return
	}

	c.JSON(http.StatusOK, taskDetail{
		Name:     fmt.Sprintf("%s_%s", task.BenchmarkName, lang.Code),
		Language: lang.Code,
		Dataset:  lang.Dataset,
		Template: lang.Template().Name,
	})
}

func (s *Server) handleListRuns(c *gin.Context) {
	if s == nil || s.store == nil {
		respondError(c, http.StatusInternalServerError, errors.New("server not initialized"))
		return
	}

	limit, err := parseLimitParam(c.Query("limit"), 20)
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	filter := store.RunFilter{
		Task:  strings.TrimSpace(c.Query("task")),
		Model: strings.TrimSpace(c.Query("model")),
		Limit: limit,
	}

	runs, err := s.store.ListRuns(c.Request.Context(), filter)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, runs)
}

func (s *Server) handleGetRun(c *gin.Context) {
	if s == nil || s.store == nil {
		respondError(c, http.StatusInternalServerError, errors.New("server not initialized"))
		return
	}

	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		respondError(c, http.StatusBadRequest, errors.New("missing run id"))
		return
	}

	run, err := s.store.GetRun(c.Request.Context(), id)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			respondError(c, http.StatusNotFound, err)
			return
		}
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, run)
}

func (s *Server) handleGetRunExamples(c *gin.Context) {
	if s == nil || s.store == nil {
		respondError(c, http.StatusInternalServerError, errors.New("server not initialized"))
		return
	}

	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		respondError(c, http.StatusBadRequest, errors.New("missing run id"))
		return
	}

	if _, err := s.store.GetRun(c.Request.Context(), id); err != nil {
		if strings.Contains(err.Error(), "not found") {
			respondError(c, http.StatusNotFound, err)
			return
		}
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	examples, err := s.store.GetExamples(c.Request.Context(), id)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, examples)
}

func (s *Server) handleGetLeaderboard(c *gin.Context) {
	if s == nil || s.store == nil {
		respondError(c, http.StatusInternalServerError, errors.New("server not initialized"))
		return
	}

	taskName := strings.TrimSpace(c.Query("task"))
	if taskName == "" {
		respondError(c, http.StatusBadRequest, errors.New("missing task parameter"))
		return
	}
	if s.tasks != nil {
		if _, ok := s.tasks.Get(taskName); !ok {
			respondError(c, http.StatusNotFound, fmt.Errorf("task %q not found", taskName))
			return
		}
	}

	metric := strings.TrimSpace(c.Query("metric"))
	if metric == "" {
		metric = "rouge1_fmeasure"
	}

	limit, err := parseLimitParam(c.Query("limit"), 20)
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	entries, err := s.store.Leaderboard(c.Request.Context(), taskName, metric, limit)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"task":    taskName,
		"metric":  metric,
		"entries": entries,
	})
}

func respondError(c *gin.Context, status int, err error) {
	if err == nil {
		c.Status(status)
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func parseLimitParam(raw string, fallback int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid limit %q", raw)
	}
	if v <= 0 {
		return 0, fmt.Errorf("limit must be > 0")
	}
	return v, nil
}
