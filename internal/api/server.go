package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"civic-assist/internal/auth"
	"civic-assist/internal/config"
	"civic-assist/internal/embeddings"
	apperrors "civic-assist/internal/errors"
	"civic-assist/internal/models"
	"civic-assist/internal/storage"

	"github.com/google/uuid"
	"github.com/ory/herodot"
)

// Interfaces for dependency injection

// ReportStore is the persistence surface the handlers need.
type ReportStore interface {
	Add(r *models.Report) error
	Get(id uuid.UUID) (*models.Report, error)
	List() ([]models.Report, error)
	AppendUpdate(id uuid.UUID, upd models.ReportUpdate) error
	SimilarReports(embedding []float32, topK int, exclude uuid.UUID) ([]models.Report, error)
}

// Searcher runs the candidate cascade.
type Searcher interface {
	Search(ctx context.Context, query, userID string, maxResults int) []models.Candidate
}

// UserScoper resolves a user's own reports.
type UserScoper interface {
	UserReports(userID string) ([]models.Report, error)
}

// LLMClient generates the final answer.
type LLMClient interface {
	Generate(ctx context.Context, question string, sources []models.Candidate) (string, error)
}

// similarLimit is how many possible-duplicate reports a submission
// response carries.
const similarLimit = 3

type Server struct {
	mux      *http.ServeMux
	cfg      *config.Config
	embedder embeddings.Embedder
	reports  ReportStore
	scope    UserScoper
	searcher Searcher
	llm      LLMClient
	writer   *herodot.JSONWriter
	errs     *apperrors.Handler
	limiters *clientLimiters
}

func NewServer(cfg *config.Config, embedder embeddings.Embedder, reports ReportStore,
	scope UserScoper, searcher Searcher, llm LLMClient) *Server {
	s := &Server{
		mux:      http.NewServeMux(),
		cfg:      cfg,
		embedder: embedder,
		reports:  reports,
		scope:    scope,
		searcher: searcher,
		llm:      llm,
		writer:   herodot.NewJSONWriter(nil),
		errs:     apperrors.NewHandler(cfg),
		limiters: newClientLimiters(cfg.Security.RateLimitRPS, cfg.Security.RateLimitBurst),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	authed := auth.Middleware(s.errs)
	s.mux.Handle("/reports", authed(http.HandlerFunc(s.handleReports)))
	s.mux.Handle("/reports/", authed(http.HandlerFunc(s.handleReportUpdates)))
	s.mux.Handle("/assist", authed(http.HandlerFunc(s.handleAssist)))
	s.mux.HandleFunc("/health", s.healthCheck)
}

func (s *Server) Run(addr string) error {
	log.Printf("Server starting on %s", addr)
	handler := loggingMiddleware(s.rateLimitMiddleware(s.mux))

	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  time.Duration(s.cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.cfg.Server.WriteTimeout) * time.Second,
		TLSConfig:    s.cfg.GetTLSConfig(),
	}

	if s.cfg.Server.TLS.Enabled {
		return srv.ListenAndServeTLS(s.cfg.Server.TLS.CertFile, s.cfg.Server.TLS.KeyFile)
	}
	return srv.ListenAndServe()
}

func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.submitReport(w, r)
	case http.MethodGet:
		s.listReports(w, r)
	default:
		http.Error(w, `{"error": "Method not allowed"}`, http.StatusMethodNotAllowed)
	}
}

func (s *Server) submitReport(w http.ResponseWriter, r *http.Request) {
	var report models.Report
	if err := json.NewDecoder(r.Body).Decode(&report); err != nil {
		s.writer.WriteError(w, r, herodot.ErrBadRequest.WithReason("Invalid request body"))
		return
	}
	if report.Title == "" || report.Description == "" {
		s.writer.WriteError(w, r, herodot.ErrBadRequest.WithReason("Title and description are required"))
		return
	}

	username := auth.GetUserFromContext(r.Context())
	report.ID = uuid.Nil
	report.CreatedBy = username // canonical ownership field for new writes
	// The legacy ownership fields only exist for drifted historical
	// records; client-supplied values must never reach the store, or a
	// submission could plant records in another user's scope.
	report.UserID = ""
	report.SubmittedBy = ""
	report.User = nil
	report.CreatedAt = time.Now().UTC()
	if report.Status == "" {
		report.Status = models.StatusNew
	}
	if report.Priority == "" {
		report.Priority = models.PriorityMedium
	}

	embedding, err := s.embedder.Embed(r.Context(), report.Title+" "+report.Description+" "+report.Location)
	if err != nil {
		// Submission must not fail on a degraded embedder; the report
		// just won't participate in similarity lookups.
		log.Printf("Warning: embedding failed for new report: %v", err)
	} else {
		report.Embedding = embedding
	}

	if err := s.reports.Add(&report); err != nil {
		s.writer.WriteError(w, r, herodot.ErrInternalServerError.WithReason("Failed to store report"))
		return
	}

	response := &models.ReportResponse{
		ID:      report.ID.String(),
		Message: "Report submitted successfully",
	}

	if len(report.Embedding) > 0 {
		similar, err := s.reports.SimilarReports(report.Embedding, similarLimit, report.ID)
		if err != nil {
			log.Printf("Warning: similar report lookup failed: %v", err)
		}
		for i := range similar {
			response.Similar = append(response.Similar, models.CandidateFromReport(&similar[i]))
		}
	}

	s.writer.WriteCreated(w, r, "/reports/"+response.ID, response)
}

func (s *Server) listReports(w http.ResponseWriter, r *http.Request) {
	username := auth.GetUserFromContext(r.Context())

	var (
		reports []models.Report
		err     error
	)
	if r.URL.Query().Get("all") == "true" {
		// Triage view: every report, newest first.
		reports, err = s.reports.List()
	} else {
		reports, err = s.scope.UserReports(username)
	}
	if err != nil {
		s.writer.WriteError(w, r, herodot.ErrInternalServerError.WithReason("Failed to list reports"))
		return
	}

	response := &models.ReportListResponse{
		Reports: reports,
		Count:   len(reports),
		User:    username,
	}
	s.writer.Write(w, r, response)
}

// handleReportUpdates handles POST /reports/{id}/updates.
func (s *Server) handleReportUpdates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, `{"error": "Method not allowed"}`, http.StatusMethodNotAllowed)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/reports/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[1] != "updates" {
		s.errs.HandleNotFoundError(w, r, r.URL.Path, uuid.New().String())
		return
	}

	reportID, err := uuid.Parse(parts[0])
	if err != nil {
		s.writer.WriteError(w, r, herodot.ErrBadRequest.WithReason("Invalid report id"))
		return
	}

	var req models.UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writer.WriteError(w, r, herodot.ErrBadRequest.WithReason("Invalid request body"))
		return
	}
	if req.Status == "" {
		s.writer.WriteError(w, r, herodot.ErrBadRequest.WithReason("Status is required"))
		return
	}

	if _, err := s.reports.Get(reportID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.errs.HandleNotFoundError(w, r, "report "+reportID.String(), uuid.New().String())
			return
		}
		s.writer.WriteError(w, r, herodot.ErrInternalServerError.WithReason("Failed to load report"))
		return
	}

	now := time.Now().UTC()
	update := models.ReportUpdate{
		Date:    now.Format("2006-01-02"),
		Time:    now.Format("15:04:05"),
		Status:  req.Status,
		Comment: req.Comment,
		By:      auth.GetUserFromContext(r.Context()),
	}

	if err := s.reports.AppendUpdate(reportID, update); err != nil {
		s.writer.WriteError(w, r, herodot.ErrInternalServerError.WithReason("Failed to record update"))
		return
	}

	response := &models.ReportResponse{
		ID:      reportID.String(),
		Message: "Update recorded",
	}
	s.writer.Write(w, r, response)
}

func (s *Server) handleAssist(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, `{"error": "Method not allowed"}`, http.StatusMethodNotAllowed)
		return
	}

	var req models.AssistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writer.WriteError(w, r, herodot.ErrBadRequest.WithReason("Invalid request body"))
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		s.writer.WriteError(w, r, herodot.ErrBadRequest.WithReason("Question is required"))
		return
	}

	userID := ""
	if req.UserScope {
		userID = auth.GetUserFromContext(r.Context())
	}

	sources := s.searcher.Search(r.Context(), req.Question, userID, req.MaxResults)

	answer, err := s.llm.Generate(r.Context(), req.Question, sources)
	if err != nil {
		s.writer.WriteError(w, r, herodot.ErrInternalServerError.WithReason("Failed to generate answer"))
		return
	}

	response := &models.AssistResponse{
		Answer:  answer,
		Sources: sources,
	}
	s.writer.Write(w, r, response)
}

func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, `{"error": "Method not allowed"}`, http.StatusMethodNotAllowed)
		return
	}

	response := &models.HealthResponse{Status: "healthy"}
	s.writer.Write(w, r, response)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("%s %s %s", r.Method, r.RequestURI, r.RemoteAddr)
		next.ServeHTTP(w, r)
	})
}
