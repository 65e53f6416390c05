package api

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/five82/courier/internal/dbus"
)

// messageRequest is the "json" part of a POST /message upload.
type messageRequest struct {
	Content string `json:"content"`
	Number  string `json:"number,omitempty"`
	Group   string `json:"group,omitempty"`
}

// integrationRequest is the body of POST /v1/send.
type integrationRequest struct {
	Message          string   `json:"message"`
	Number           string   `json:"number,omitempty"`
	Recipients       []string `json:"recipients"`
	Base64Attachment string   `json:"base64_attachment,omitempty"`
}

func (s *Server) handleGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := s.bridge.ListGroups(r.Context())
	if err != nil {
		s.fail(w, r, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, groups)
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.fail(w, r, http.StatusBadRequest, fmt.Errorf("parse multipart: %w", err))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	req, err := decodeMessagePart(r)
	if err != nil {
		s.fail(w, r, http.StatusBadRequest, err)
		return
	}
	if req.Number == "" && req.Group == "" {
		s.fail(w, r, http.StatusBadRequest, errors.New("number or group required"))
		return
	}

	attachment := ""
	if file, header, err := r.FormFile("file"); err == nil {
		path, cleanup, stageErr := stageAttachment(s.tempDir, header.Filename, file)
		_ = file.Close()
		if stageErr != nil {
			s.fail(w, r, http.StatusInternalServerError, stageErr)
			return
		}
		defer cleanup()
		attachment = path
	} else if !errors.Is(err, http.ErrMissingFile) {
		s.fail(w, r, http.StatusBadRequest, fmt.Errorf("read file part: %w", err))
		return
	}

	if req.Number != "" {
		if err := s.bridge.SendToNumber(r.Context(), req.Number, req.Content, attachment); err != nil {
			s.fail(w, r, sendStatus(err), err)
			return
		}
	}
	if req.Group != "" {
		if err := s.bridge.SendToGroup(r.Context(), req.Group, req.Content, attachment); err != nil {
			s.fail(w, r, sendStatus(err), err)
			return
		}
	}
	writeOK(w)
}

func (s *Server) handleIntegrationSend(w http.ResponseWriter, r *http.Request) {
	var req integrationRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxUploadBytes)).Decode(&req); err != nil {
		s.fail(w, r, http.StatusBadRequest, fmt.Errorf("decode body: %w", err))
		return
	}
	if len(req.Recipients) == 0 {
		s.fail(w, r, http.StatusBadRequest, errors.New("recipients required"))
		return
	}

	attachment := ""
	if req.Base64Attachment != "" {
		data, err := base64.StdEncoding.DecodeString(req.Base64Attachment)
		if err != nil {
			s.fail(w, r, http.StatusBadRequest, fmt.Errorf("decode base64_attachment: %w", err))
			return
		}
		path, cleanup, err := stageAttachment(s.tempDir, "attachment", bytes.NewReader(data))
		if err != nil {
			s.fail(w, r, http.StatusInternalServerError, err)
			return
		}
		defer cleanup()
		attachment = path
	}

	for _, recipient := range req.Recipients {
		var err error
		if strings.HasPrefix(recipient, "+") {
			err = s.bridge.SendToNumber(r.Context(), recipient, req.Message, attachment)
		} else {
			err = s.bridge.SendToGroup(r.Context(), recipient, req.Message, attachment)
		}
		if err != nil {
			s.fail(w, r, sendStatus(err), err)
			return
		}
	}
	writeOK(w)
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.bridge.Status())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	if !s.bridge.Status().Running {
		http.Error(w, "signal-cli not running", http.StatusServiceUnavailable)
		return
	}
	writeOK(w)
}

// decodeMessagePart reads the "json" part, sent either as a file part (the
// original client) or as a plain form field.
func decodeMessagePart(r *http.Request) (messageRequest, error) {
	var raw []byte
	if file, _, err := r.FormFile("json"); err == nil {
		defer file.Close()
		raw, err = io.ReadAll(file)
		if err != nil {
			return messageRequest{}, fmt.Errorf("read json part: %w", err)
		}
	} else if v := r.FormValue("json"); v != "" {
		raw = []byte(v)
	} else {
		return messageRequest{}, errors.New("missing json part")
	}

	var req messageRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return messageRequest{}, fmt.Errorf("decode json part: %w", err)
	}
	return req, nil
}

// sendStatus maps a send error to an HTTP status: malformed ids are the
// caller's fault, everything else is an upstream failure.
func sendStatus(err error) int {
	var encErr *dbus.EncodingError
	if errors.As(err, &encErr) {
		return http.StatusBadRequest
	}
	return http.StatusBadGateway
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, status int, err error) {
	s.logger.Warn("request failed",
		"id", requestIDFrom(r.Context()),
		"path", r.URL.Path,
		"status", status,
		"error", err,
	)
	http.Error(w, err.Error(), status)
}

func writeOK(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, "ok")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
