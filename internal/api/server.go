package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"memoflow/internal/config"
	"memoflow/internal/models"
	"memoflow/internal/storage"
	"memoflow/internal/store"
	"memoflow/internal/util"
	"memoflow/internal/workflows"

	"github.com/google/uuid"
	enumspb "go.temporal.io/api/enums/v1"
	tclient "go.temporal.io/sdk/client"
)

type Server struct {
	cfg         config.Config
	db          *storage.DB
	projectRepo *storage.ProjectRepo
	runRepo     *storage.RunRepo
	layout      store.Layout
	temporal    tclient.Client
}

func NewServer(cfg config.Config, docs store.DocumentStore) *Server {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	db, err := storage.NewDB(ctx, cfg.PostgresURL)
	if err != nil {
		panic(err)
	}
	tc, err := tclient.Dial(tclient.Options{HostPort: cfg.TemporalAddress})
	if err != nil {
		panic(err)
	}
	return &Server{
		cfg:         cfg,
		db:          db,
		projectRepo: storage.NewProjectRepo(db),
		runRepo:     storage.NewRunRepo(db),
		layout:      store.Layout{Store: docs},
		temporal:    tc,
	}
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/projects", s.handleProjects)
	mux.HandleFunc("/projects/", s.handleProjectScoped)
	mux.HandleFunc("/runs/", s.handleRuns)
	return withCORS(mux)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleProjects(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		projects, err := s.layout.ListProjects(r.Context())
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		names := make([]string, 0, len(projects))
		for _, p := range projects {
			names = append(names, p.Name)
		}
		writeJSON(w, http.StatusOK, map[string]any{"projects": names})
	case http.MethodPost:
		var req struct {
			Name string `json:"name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
			return
		}
		req.Name = util.CleanFolderName(strings.TrimSpace(req.Name))
		if req.Name == "" {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("name is required"))
			return
		}
		folder, err := s.layout.ProjectFolder(r.Context(), req.Name)
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		if _, err := s.layout.PliegosFolder(r.Context(), req.Name); err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		if err := s.projectRepo.UpsertProject(r.Context(), models.Project{
			ProjectID: uuid.NewString(),
			Name:      req.Name,
			FolderID:  folder.ID,
		}); err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"name": req.Name, "folder_id": folder.ID})
	default:
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
	}
}

func (s *Server) handleProjectScoped(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/projects/"), "/"), "/")
	if len(parts) < 2 || parts[0] == "" {
		writeErr(w, http.StatusNotFound, fmt.Errorf("not found"))
		return
	}
	project := parts[0]

	switch parts[1] {
	case "upload":
		s.handleUpload(w, r, project)
	case "lots":
		s.handleLots(w, r, project)
	case "index":
		s.handleIndex(w, r, project)
	case "guiones":
		s.handleBatch(w, r, project, models.PhaseGuiones)
	case "plans":
		s.handleBatch(w, r, project, models.PhasePlans)
	case "assembly":
		s.handleAssembly(w, r, project)
	default:
		writeErr(w, http.StatusNotFound, fmt.Errorf("not found"))
	}
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request, project string) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	if err := r.ParseMultipartForm(128 << 20); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("parse multipart: %w", err))
		return
	}
	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		if single, ok := firstSingleFile(r.MultipartForm.File); ok {
			files = append(files, single)
		}
	}
	if len(files) == 0 {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("no files provided"))
		return
	}

	pliegos, err := s.layout.PliegosFolder(r.Context(), project)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}

	type uploadResult struct {
		Filename string `json:"filename"`
		FileID   string `json:"file_id"`
		SHA256   string `json:"sha256"`
	}
	out := make([]uploadResult, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		name := util.CleanFolderName(fh.Filename)
		entry, err := store.ReplaceFile(r.Context(), s.layout.Store, pliegos.ID, name, data)
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		out = append(out, uploadResult{Filename: name, FileID: entry.ID, SHA256: util.SHA256Hex(data)})
	}
	writeJSON(w, http.StatusOK, map[string]any{"uploaded": out})
}

func (s *Server) handleLots(w http.ResponseWriter, r *http.Request, project string) {
	switch r.Method {
	case http.MethodPost:
		s.startWorkflow(w, r, "lots-"+sanitizeWorkflowID(project), workflows.LotAnalysisWorkflow, workflows.LotAnalysisInput{
			Project: project,
		})
	case http.MethodGet:
		folder, err := s.layout.ProjectFolder(r.Context(), project)
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		entry, err := s.layout.Store.FindFile(r.Context(), folder.ID, store.LotAnalysisFile)
		if err != nil {
			if errors.Is(err, util.ErrNotFound) {
				writeErr(w, http.StatusNotFound, fmt.Errorf("lot analysis not available"))
				return
			}
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		data, err := s.layout.Store.Download(r.Context(), entry.ID)
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		var analysis models.LotAnalysis
		if err := json.Unmarshal(data, &analysis); err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, analysis)
	default:
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request, project string) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	var req struct {
		Lot      string `json:"lot"`
		Feedback string `json:"feedback,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
		return
	}
	if req.Lot == "" {
		req.Lot = models.GeneralLot
	}
	s.startWorkflow(w, r, "index-"+sanitizeWorkflowID(project+"-"+req.Lot), workflows.IndexWorkflow, workflows.IndexInput{
		Project:     project,
		Lot:         req.Lot,
		Feedback:    req.Feedback,
		Retry:       s.retrySettings(),
		Calibration: s.calibrationSettings(),
	})
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request, project, phase string) {
	switch r.Method {
	case http.MethodPost:
		var req struct {
			Lot          string   `json:"lot"`
			Subapartados []string `json:"subapartados,omitempty"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
			return
		}
		if req.Lot == "" {
			req.Lot = models.GeneralLot
		}
		wfID := phase + "-" + sanitizeWorkflowID(project+"-"+req.Lot)
		if phase == models.PhaseGuiones {
			s.startWorkflow(w, r, wfID, workflows.GuionBatchWorkflow, workflows.GuionBatchInput{
				Project:               project,
				Lot:                   req.Lot,
				Subapartados:          req.Subapartados,
				MaxConcurrentChildren: s.cfg.BatchMaxChildren,
				Retry:                 s.retrySettings(),
				Calibration:           s.calibrationSettings(),
			})
			return
		}
		s.startWorkflow(w, r, wfID, workflows.PlanBatchWorkflow, workflows.PlanBatchInput{
			Project:               project,
			Lot:                   req.Lot,
			Subapartados:          req.Subapartados,
			MaxConcurrentChildren: s.cfg.BatchMaxChildren,
			Retry:                 s.retrySettings(),
			Calibration:           s.calibrationSettings(),
		})
	case http.MethodGet:
		lot := r.URL.Query().Get("lot")
		if lot == "" {
			lot = models.GeneralLot
		}
		wfID := phase + "-" + sanitizeWorkflowID(project+"-"+lot)
		var prog workflows.BatchProgress
		resp, err := s.temporal.QueryWorkflow(r.Context(), wfID, "", workflows.QueryGetBatchProgress)
		if err != nil {
			writeErr(w, http.StatusNotFound, err)
			return
		}
		if err := resp.Get(&prog); err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, prog)
	default:
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
	}
}

func (s *Server) handleAssembly(w http.ResponseWriter, r *http.Request, project string) {
	switch r.Method {
	case http.MethodPost:
		var req struct {
			Lot    string `json:"lot"`
			Resume bool   `json:"resume,omitempty"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
			return
		}
		if req.Lot == "" {
			req.Lot = models.GeneralLot
		}
		s.startWorkflow(w, r, "assembly-"+sanitizeWorkflowID(project+"-"+req.Lot), workflows.AssemblyWorkflow, workflows.AssemblyInput{
			Project:     project,
			Lot:         req.Lot,
			Resume:      req.Resume,
			Retry:       s.retrySettings(),
			Calibration: s.calibrationSettings(),
		})
	case http.MethodGet:
		lot := r.URL.Query().Get("lot")
		if lot == "" {
			lot = models.GeneralLot
		}
		wfID := "assembly-" + sanitizeWorkflowID(project+"-"+lot)
		var prog workflows.AssemblyProgress
		resp, err := s.temporal.QueryWorkflow(r.Context(), wfID, "", workflows.QueryGetAssemblyProgress)
		if err != nil {
			writeErr(w, http.StatusNotFound, err)
			return
		}
		if err := resp.Get(&prog); err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, prog)
	default:
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
	}
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	runID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/runs/"), "/")
	if runID == "" {
		writeErr(w, http.StatusNotFound, fmt.Errorf("not found"))
		return
	}
	run, err := s.runRepo.GetRun(r.Context(), runID)
	if err != nil {
		writeErr(w, http.StatusNotFound, err)
		return
	}
	items, err := s.runRepo.ListItems(r.Context(), runID)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"run": run, "items": items})
}

func (s *Server) startWorkflow(w http.ResponseWriter, r *http.Request, wfID string, wf any, input any) {
	we, err := s.temporal.ExecuteWorkflow(r.Context(), tclient.StartWorkflowOptions{
		ID:                                       wfID,
		TaskQueue:                                s.cfg.TemporalTaskQueue,
		WorkflowIDReusePolicy:                    enumspb.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE,
		WorkflowExecutionErrorWhenAlreadyStarted: true,
	}, wf, input)
	if err != nil {
		writeErr(w, http.StatusConflict, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"workflow_id": we.GetID(), "run_id": we.GetRunID()})
}

func (s *Server) retrySettings() workflows.RetrySettings {
	return workflows.RetrySettings{
		MaxAttempts:  s.cfg.RetryMaxAttempts,
		DelaySeconds: s.cfg.RetryFixedDelaySecs,
		Exponential:  s.cfg.RetryExponential,
	}
}

func (s *Server) calibrationSettings() workflows.CalibrationSettings {
	return workflows.CalibrationSettings{
		SafetyFactor:    s.cfg.SafetyMarginFactor,
		MinCharsPerPage: s.cfg.MinCharsPerPage,
		MaxCharsPerPage: s.cfg.MaxCharsPerPage,
	}
}

func firstSingleFile(m map[string][]*multipart.FileHeader) (*multipart.FileHeader, bool) {
	for _, fhs := range m {
		if len(fhs) > 0 {
			return fhs[0], true
		}
	}
	return nil, false
}

func sanitizeWorkflowID(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, " ", "-")
	s = strings.ReplaceAll(s, "_", "-")
	s = strings.ReplaceAll(s, "/", "-")
	return s
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, err error) {
	apiErr := toAPIError(code, err)
	writeJSON(w, code, map[string]any{
		"error": map[string]any{
			"code":    apiErr.Code,
			"message": apiErr.Message,
		},
	})
}

type apiError struct {
	Code    string
	Message string
}

func toAPIError(status int, err error) apiError {
	msg := "Request failed."
	code := "MF-API-4000"
	raw := ""
	if err != nil {
		raw = strings.ToLower(err.Error())
	}

	switch {
	case status >= 500:
		switch {
		case strings.Contains(raw, "relation") && strings.Contains(raw, "does not exist"):
			return apiError{
				Code:    "MF-DB-5001",
				Message: "Database schema is not initialized. Run migrations and retry.",
			}
		case strings.Contains(raw, "connect"), strings.Contains(raw, "dial tcp"), strings.Contains(raw, "connection refused"):
			return apiError{
				Code:    "MF-DB-5002",
				Message: "Database connection is unavailable. Check local services and retry.",
			}
		default:
			return apiError{
				Code:    "MF-API-5000",
				Message: "Internal server error. Please retry or check service logs.",
			}
		}
	case status == http.StatusBadRequest:
		code = "MF-API-4001"
		msg = "Invalid request. Check inputs and retry."
	case status == http.StatusNotFound:
		code = "MF-API-4004"
		msg = "Requested resource was not found."
	case status == http.StatusConflict:
		code = "MF-API-4009"
		msg = "Operation conflicts with current state. Retry after checking status."
	case status == http.StatusMethodNotAllowed:
		code = "MF-API-4005"
		msg = "This endpoint does not support the requested method."
	}

	if status >= 400 && status < 500 && err != nil {
		low := strings.ToLower(err.Error())
		switch {
		case strings.Contains(low, "name is required"):
			msg = "Project name is required."
		case strings.Contains(low, "no files provided"):
			msg = "No files were provided."
		case strings.Contains(low, "invalid json"):
			msg = "Malformed JSON request body."
		}
	}

	return apiError{Code: code, Message: msg}
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
