package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/Starship01-akaSniper/youtube-shorts-automation/internal/jobs"
	"github.com/Starship01-akaSniper/youtube-shorts-automation/internal/persistence"
	"github.com/Starship01-akaSniper/youtube-shorts-automation/internal/service"
)

type createVideoRequest struct {
	Script      string `json:"script"`
	Title       string `json:"title"`
	Description string `json:"description"`
	AutoUpload  bool   `json:"auto_upload"`
}

func (s *Server) handleCreateVideo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req createVideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	videoID, jobID, err := s.automation.Submit(r.Context(), req.Script, req.Title, req.Description, req.AutoUpload)
	if err != nil {
		if errors.Is(err, service.ErrEmptyScript) || errors.Is(err, service.ErrScriptTooLong) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"video_id": videoID,
		"job_id":   jobID,
	})
}

func (s *Server) handleListVideos(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	videos, err := s.automation.ListVideos(r.Context(), jobs.Status(r.URL.Query().Get("status")), queryLimit(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, videos)
}

func (s *Server) handleVideoByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	// /api/videos/{id} or /api/videos/{id}/download
	rest := strings.TrimPrefix(r.URL.Path, "/api/videos/")
	download := false
	if strings.HasSuffix(rest, "/download") {
		download = true
		rest = strings.TrimSuffix(rest, "/download")
	}
	id, err := strconv.ParseInt(strings.TrimSuffix(rest, "/"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid video id")
		return
	}

	video, err := s.automation.GetVideo(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if video == nil {
		writeError(w, http.StatusNotFound, "video not found")
		return
	}

	if download {
		if video.VideoPath == "" {
			writeError(w, http.StatusNotFound, "video file not ready")
			return
		}
		if _, err := os.Stat(video.VideoPath); err != nil {
			writeError(w, http.StatusNotFound, "video file not found")
			return
		}
		w.Header().Set("Content-Disposition", `attachment; filename="video_`+strconv.FormatInt(video.ID, 10)+`.mp4"`)
		http.ServeFile(w, r, video.VideoPath)
		return
	}

	writeJSON(w, http.StatusOK, video)
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	jobList, err := s.automation.ListJobs(r.Context(), jobs.Status(r.URL.Query().Get("status")), queryLimit(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, jobList)
}

func (s *Server) handleJobByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	id, err := strconv.ParseInt(strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/api/jobs/"), "/"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid job id")
		return
	}

	job, err := s.automation.GetJob(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if job == nil {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleQueueStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	status, err := s.queue.Status(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, status)
}

type configSaveRequest struct {
	Credentials map[string]string `json:"credentials"`
}

// handleConfigSave stores API credentials. Values are encrypted before they
// touch the database and are never echoed back.
func (s *Server) handleConfigSave(w http.ResponseWriter, r *http.Request) {
	if s.creds == nil {
		writeError(w, http.StatusNotImplemented, "credential store is not configured")
		return
	}
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req configSaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if len(req.Credentials) == 0 {
		writeError(w, http.StatusBadRequest, "credentials are required")
		return
	}

	if err := s.creds.SaveAll(r.Context(), req.Credentials); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"saved": true})
}

func (s *Server) handleConfigStatus(w http.ResponseWriter, r *http.Request) {
	if s.creds == nil {
		writeError(w, http.StatusNotImplemented, "credential store is not configured")
		return
	}
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	records, err := s.creds.Configured(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	configured := make([]string, 0, len(records))
	for _, record := range records {
		configured = append(configured, record.Service)
	}

	ready, err := s.creds.Satisfied(r.Context(), s.requiredServices)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"configured": configured,
		"required":   s.requiredServices,
		"ready":      ready,
	})
}

type createScheduleRequest struct {
	Name         string `json:"name"`
	Frequency    string `json:"frequency"`
	TimeOfDay    string `json:"time_of_day"`
	Days         string `json:"days"`
	ScriptSource string `json:"script_source"`
	AutoUpload   bool   `json:"auto_upload"`
	Active       *bool  `json:"active"`
}

func (s *Server) handleSchedules(w http.ResponseWriter, r *http.Request) {
	if s.schedules == nil {
		writeError(w, http.StatusNotImplemented, "schedule store is not configured")
		return
	}

	switch r.Method {
	case http.MethodGet:
		schedules, err := s.schedules.ListSchedules(r.Context(), false)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, schedules)
	case http.MethodPost:
		var req createScheduleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json body")
			return
		}
		if req.Name == "" || req.Frequency == "" {
			writeError(w, http.StatusBadRequest, "name and frequency are required")
			return
		}

		active := true
		if req.Active != nil {
			active = *req.Active
		}
		id, err := s.schedules.CreateSchedule(r.Context(), persistence.Schedule{
			Name:         req.Name,
			Frequency:    req.Frequency,
			TimeOfDay:    req.TimeOfDay,
			Days:         req.Days,
			ScriptSource: req.ScriptSource,
			AutoUpload:   req.AutoUpload,
			Active:       active,
		})
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"id": id})
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	stats, err := s.automation.Stats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// handleHealth reports worker liveness and database connectivity. A failing
// database check degrades the response to 503.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	queueRunning := false
	if status, err := s.queue.Status(r.Context()); err == nil {
		queueRunning = status.Running
	}

	database := "ok"
	code := http.StatusOK
	if s.db != nil {
		if err := s.db.Ping(r.Context()); err != nil {
			database = "error"
			code = http.StatusServiceUnavailable
		}
	}

	status := "ok"
	if code != http.StatusOK {
		status = "degraded"
	}
	writeJSON(w, code, map[string]any{
		"status":        status,
		"queue_running": queueRunning,
		"database":      database,
	})
}

func queryLimit(r *http.Request) int {
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			return n
		}
	}
	return 0
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"error": msg,
	})
}
