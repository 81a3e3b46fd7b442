package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pep299/meeting-summarizer/internal/cache"
	"github.com/pep299/meeting-summarizer/internal/pdf"
	"github.com/pep299/meeting-summarizer/internal/report"
	"github.com/pep299/meeting-summarizer/internal/summary"
)

const maxJSONBodyBytes = 5 << 20

// summarizeRequest is the body of POST /api/summarize-meeting
type summarizeRequest struct {
	Text         string `json:"text"`
	SendToSlack  bool   `json:"send_to_slack,omitempty"`
	SlackChannel string `json:"slack_channel,omitempty"`
}

// rootHandler reports that the backend is up
func (s *Server) rootHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "backend is running"})
}

// healthHandler provides health check endpoint
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Unix(),
		"version":   s.version,
		"provider":  s.config.LLMProvider,
	})
}

// summarizeMeetingHandler summarizes a transcript sent as JSON
func (s *Server) summarizeMeetingHandler(w http.ResponseWriter, r *http.Request) {
	var req summarizeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "Text cannot be empty.")
		return
	}

	s.summarizeAndRespond(w, r, req.Text, "", req.SendToSlack, req.SlackChannel)
}

// uploadPDFHandler extracts text from an uploaded PDF and summarizes it
func (s *Server) uploadPDFHandler(w http.ResponseWriter, r *http.Request) {
	maxBytes := int64(s.config.MaxUploadMB) << 20
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "File is too large.")
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "A PDF file is required in the 'file' field.")
		return
	}
	defer file.Close()

	if !pdf.IsPDFName(header.Filename) {
		writeError(w, http.StatusBadRequest, "Only PDF files are supported.")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Could not read uploaded file.")
		return
	}

	text, err := pdf.ExtractText(data)
	if err != nil {
		if errors.Is(err, pdf.ErrNotPDF) {
			writeError(w, http.StatusBadRequest, "Uploaded file is not a valid PDF.")
			return
		}
		s.logger.WithError(err).WithField("filename", header.Filename).Error("PDF extraction failed")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if strings.TrimSpace(text) == "" {
		writeError(w, http.StatusBadRequest, "PDF text extraction returned empty content.")
		return
	}

	notify, _ := strconv.ParseBool(r.FormValue("send_to_slack"))
	s.summarizeAndRespond(w, r, text, header.Filename, notify, r.FormValue("slack_channel"))
}

// summarizeAndRespond runs the summarizer, consulting the cache first
func (s *Server) summarizeAndRespond(w http.ResponseWriter, r *http.Request, text, source string, notify bool, channel string) {
	ctx := r.Context()

	env, cached, err := s.summarize(ctx, text)
	if err != nil {
		if errors.Is(err, summary.ErrEmptyInput) {
			writeError(w, http.StatusBadRequest, "Text cannot be empty.")
			return
		}
		s.logger.WithError(err).Error("summary generation failed")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if cached {
		w.Header().Set("X-Cache", "HIT")
	} else if s.cacheManager.Enabled() {
		w.Header().Set("X-Cache", "MISS")
	}

	if notify {
		s.notifySlack(ctx, env, source, channel)
	}

	writeJSON(w, http.StatusOK, env)
}

func (s *Server) summarize(ctx context.Context, text string) (*summary.Envelope, bool, error) {
	if env, err := s.cacheManager.GetEnvelope(ctx, text); err == nil {
		return env, true, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.WithError(err).Warn("cache lookup failed")
	}

	env, err := s.summarizer.GenerateSummary(ctx, text)
	if err != nil {
		return nil, false, err
	}

	if err := s.cacheManager.SetEnvelope(ctx, text, env); err != nil {
		s.logger.WithError(err).Warn("caching summary failed")
	}
	return env, false, nil
}

// notifySlack posts the summary; failures are logged and never fail the request
func (s *Server) notifySlack(ctx context.Context, env *summary.Envelope, source, channel string) {
	if !s.slackClient.Configured() {
		s.logger.Warn("slack notification requested but slack is not configured")
		return
	}
	if err := s.slackClient.SendSummary(ctx, env, source, channel); err != nil {
		s.logger.WithError(err).Error("sending summary to slack failed")
		return
	}
	s.logger.WithFields(logrus.Fields{"source": source, "channel": channel}).Info("summary sent to slack")
}

// summarySchemaHandler returns the JSON Schema of a summary
func (s *Server) summarySchemaHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, summary.JSONSchema())
}

// renderHandler renders a summary, or an envelope holding one, as Markdown or HTML
func (s *Server) renderHandler(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if inner, ok := body["summary"].(map[string]any); ok {
		body = inner
	}
	sum := summary.Sanitize(body)

	switch format := r.URL.Query().Get("format"); format {
	case "", "markdown", "md":
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		_, _ = io.WriteString(w, report.Markdown(sum))
	case "html":
		out, err := report.HTML(sum)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, out)
	default:
		writeError(w, http.StatusBadRequest, "format must be markdown or html")
	}
}

// cacheStatsHandler returns cache statistics
func (s *Server) cacheStatsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := s.cacheManager.GetStats(r.Context())
	if err != nil {
		if errors.Is(err, cache.ErrCacheDisabled) {
			writeError(w, http.StatusNotFound, "Cache is disabled")
			return
		}
		writeError(w, http.StatusInternalServerError, "Error getting cache stats: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// cacheClearHandler clears the cache
func (s *Server) cacheClearHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.cacheManager.Clear(r.Context()); err != nil {
		if errors.Is(err, cache.ErrCacheDisabled) {
			writeError(w, http.StatusNotFound, "Cache is disabled")
			return
		}
		writeError(w, http.StatusInternalServerError, "Error clearing cache: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "Cache cleared successfully",
	})
}

// configHandler returns configuration without credentials
func (s *Server) configHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.config)
}
