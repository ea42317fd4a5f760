package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/contextman/contextman/internal/agent"
	"github.com/contextman/contextman/internal/llm"
)

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, pingResponse{
		Status:  "ok",
		Message: fmt.Sprintf("ContextMAN server is running on Groq with model: %s", s.cfg.Model),
	})
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	var req parseRequest
	if status, err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, status, "invalid request body: "+err.Error())
		return
	}

	if err := validateURL(req.URL); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.logger.Info("parse request", "url", req.URL)

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.ExtractTimeout)
	defer cancel()

	content, err := s.extractor.Extract(ctx, req.URL)
	switch {
	case errors.Is(err, agent.ErrNoContent):
		s.logger.Error("agent produced no content", "url", req.URL)
		s.writeError(w, http.StatusInternalServerError,
			"The browser agent failed to extract content. Check server logs.")
		return
	case err != nil:
		s.logger.Error("parse failed", "url", req.URL, "error", err)
		s.writeError(w, http.StatusInternalServerError,
			"Failed to parse URL: "+err.Error())
		return
	case strings.TrimSpace(content) == "":
		// The extractor contract forbids this, but a 200 with empty content
		// must never leave the service.
		s.logger.Error("extractor returned empty content without error", "url", req.URL)
		s.writeError(w, http.StatusInternalServerError,
			"The browser agent failed to extract content. Check server logs.")
		return
	}

	s.writeJSON(w, http.StatusOK, parseResponse{ParsedContent: content})
}

func (s *Server) handleSynthesize(w http.ResponseWriter, r *http.Request) {
	var req synthesizeRequest
	if status, err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, status, "invalid request body: "+err.Error())
		return
	}

	if strings.TrimSpace(req.Purpose) == "" {
		s.writeError(w, http.StatusBadRequest, "purpose must not be empty")
		return
	}

	s.logger.Info("synthesize request", "purpose", req.Purpose)

	var userCode string
	if req.UserCode != nil {
		userCode = *req.UserCode
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.SynthesizeTimeout)
	defer cancel()

	prompt, err := s.synthesizer.Synthesize(ctx, llm.SynthesisInput{
		Purpose:       req.Purpose,
		ParsedContext: req.ParsedContext,
		UserCode:      userCode,
	})
	if err != nil {
		s.logger.Error("synthesis failed", "purpose", req.Purpose, "error", err)
		s.writeError(w, http.StatusInternalServerError,
			"Failed to synthesize context: "+err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, synthesizeResponse{SynthesizedPrompt: prompt})
}

// validateURL accepts only absolute http(s) URLs with a host.
func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("url is not a valid URL: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url must be an absolute http or https URL")
	}
	if u.Host == "" {
		return fmt.Errorf("url must include a host")
	}
	return nil
}
