package server

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/roguegoose-dev/goose-guidance/internal/dialogue"
	"github.com/roguegoose-dev/goose-guidance/internal/failure"
	"github.com/roguegoose-dev/goose-guidance/internal/jobs"
	"github.com/roguegoose-dev/goose-guidance/internal/logger"
	"github.com/roguegoose-dev/goose-guidance/internal/persona"
)

type chatTurn struct {
	Role    string `json:"role" validate:"required,oneof=user assistant"`
	Persona string `json:"persona" validate:"max=64"`
	Message string `json:"message" validate:"max=8000"`
}

type chatRequest struct {
	Persona string     `json:"persona" validate:"required,max=64"`
	Message string     `json:"message" validate:"required,max=4000"`
	History []chatTurn `json:"history" validate:"max=200,dive"`
}

type speechStatus struct {
	Status   dialogue.SpeechStatus `json:"status"`
	Voice    string                `json:"voice,omitempty"`
	FellBack bool                  `json:"fellBack"`
}

type chatResponse struct {
	Persona     string       `json:"persona"`
	ReplyText   string       `json:"replyText"`
	AudioBase64 *string      `json:"audioBase64"`
	Speech      speechStatus `json:"speech"`
	Risk        string       `json:"risk"`
}

type ocrRequest struct {
	ImageBase64 string `json:"imageBase64"`
}

type ocrResponse struct {
	ExtractedText string `json:"extractedText"`
}

type providerReport struct {
	Source jobs.Source `json:"source"`
	Count  int         `json:"count"`
	Error  string      `json:"error,omitempty"`
}

type jobsResponse struct {
	Jobs      []jobs.Listing   `json:"jobs"`
	Providers []providerReport `json:"providers"`
}

type errorBody struct {
	Error           string `json:"error"`
	FallbackMessage string `json:"fallbackMessage,omitempty"`
	// Detail carries the provider error for upstream and timeout failures.
	Detail string `json:"detail,omitempty"`
}

// handleChat runs one dialogue turn.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, r, failure.Invalid("body", "invalid request body"), ChatFallbackMessage)
		return
	}
	if err := s.validator.Struct(req); err != nil {
		s.errorResponse(w, r, extractValidationErrors(err), ChatFallbackMessage)
		return
	}

	history := make([]persona.Turn, 0, len(req.History))
	for _, turn := range req.History {
		history = append(history, persona.Turn{
			Role:      persona.Role(turn.Role),
			PersonaID: persona.ID(strings.TrimSpace(turn.Persona)),
			Text:      turn.Message,
		})
	}

	reply, err := s.deps.Dialogue.GenerateReply(r.Context(), dialogue.Request{
		PersonaID: persona.ID(strings.TrimSpace(req.Persona)),
		Message:   req.Message,
		History:   history,
	})
	if err != nil {
		s.errorResponse(w, r, err, ChatFallbackMessage)
		return
	}

	resp := chatResponse{
		Persona:   string(reply.Persona.ID),
		ReplyText: reply.Text,
		Speech: speechStatus{
			Status:   reply.Speech.Status,
			Voice:    reply.Speech.Voice,
			FellBack: reply.Speech.FellBack,
		},
		Risk: string(reply.Risk),
	}
	if reply.Speech.HasAudio() {
		audio := base64.StdEncoding.EncodeToString(reply.Speech.Audio)
		resp.AudioBase64 = &audio
	}

	s.jsonResponse(w, http.StatusOK, resp)
}

// handleOCR extracts text from an uploaded image.
func (s *Server) handleOCR(w http.ResponseWriter, r *http.Request) {
	if s.deps.OCR == nil {
		s.jsonResponse(w, http.StatusServiceUnavailable, errorBody{
			Error:           "ocr is not configured",
			FallbackMessage: OCRFallbackMessage,
		})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	image, err := s.readImage(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.jsonResponse(w, http.StatusRequestEntityTooLarge, errorBody{
				Error:           "image is too large",
				FallbackMessage: OCRFallbackMessage,
			})
			return
		}
		s.errorResponse(w, r, failure.Invalid("image", noImageMessage), OCRFallbackMessage)
		return
	}

	mimeType := http.DetectContentType(image)
	if !strings.HasPrefix(mimeType, "image/") {
		s.errorResponse(w, r, failure.Invalid("image", noImageMessage), OCRFallbackMessage)
		return
	}

	text, err := s.deps.OCR.ExtractText(r.Context(), image, mimeType)
	if err != nil {
		s.errorResponse(w, r, err, OCRFallbackMessage)
		return
	}

	s.jsonResponse(w, http.StatusOK, ocrResponse{ExtractedText: text})
}

// readImage accepts a multipart "image" field or a JSON body with a base64
// image, optionally prefixed as a data URL.
func (s *Server) readImage(r *http.Request) ([]byte, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
			return nil, err
		}
		file, _, err := r.FormFile("image")
		if err != nil {
			return nil, err
		}
		defer file.Close()

		image, err := io.ReadAll(file)
		if err != nil {
			return nil, err
		}
		if len(image) == 0 {
			return nil, errors.New("empty image")
		}
		return image, nil
	}

	var req ocrRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, err
	}
	return decodeImageBase64(req.ImageBase64)
}

func decodeImageBase64(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "data:") {
		_, payload, ok := strings.Cut(s, ",")
		if !ok {
			return nil, errors.New("malformed data url")
		}
		s = payload
	}
	if s == "" {
		return nil, errors.New("empty image")
	}

	image, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, err
	}
	if len(image) == 0 {
		return nil, errors.New("empty image")
	}
	return image, nil
}

// handleJobs runs an aggregated job search.
func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	source := jobs.Source(strings.ToLower(strings.TrimSpace(params.Get("source"))))
	if source == "" {
		source = jobs.SourceAll
	}

	result, err := s.deps.Jobs.Search(r.Context(), jobs.Query{
		Keywords: strings.TrimSpace(params.Get("keywords")),
		Location: strings.TrimSpace(params.Get("location")),
		Category: jobs.ParseCategory(params.Get("category")),
		Sort:     jobs.ParseSort(params.Get("sort")),
		Source:   source,
	})
	if err != nil {
		fallback := JobsFailureMessage
		if failure.IsInvalidArgument(err) {
			fallback = JobsFallbackMessage
		}
		s.errorResponse(w, r, err, fallback)
		return
	}

	resp := jobsResponse{
		Jobs:      result.Listings,
		Providers: make([]providerReport, 0, len(result.Outcomes)),
	}
	if resp.Jobs == nil {
		resp.Jobs = []jobs.Listing{}
	}
	for _, o := range result.Outcomes {
		report := providerReport{Source: o.Source, Count: len(o.Listings)}
		if !o.OK() {
			report.Error = o.Err.Error()
		}
		resp.Providers = append(resp.Providers, report)
	}

	s.jsonResponse(w, http.StatusOK, resp)
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok", "version": s.cfg.Version})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("encode response", zap.Error(err))
	}
}

// errorResponse maps err to a status and writes it with the fallback
// message. Provider failures also carry the error text; internal errors
// stay in the log only.
func (s *Server) errorResponse(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status := HTTPStatus(err)

	body := errorBody{Error: http.StatusText(status), FallbackMessage: fallback}
	switch status {
	case http.StatusBadRequest:
		var invalid *failure.InvalidArgument
		if errors.As(err, &invalid) {
			body.Error = invalid.Message
		}
	case http.StatusBadGateway, http.StatusGatewayTimeout:
		body.Detail = err.Error()
	}

	log := s.logger.With(
		zap.String(logger.FieldRequestID, RequestIDFrom(r.Context())),
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
		zap.Error(err),
	)
	if status >= http.StatusInternalServerError {
		log.Error("request failed")
	} else {
		log.Debug("request rejected")
	}

	s.jsonResponse(w, status, body)
}
