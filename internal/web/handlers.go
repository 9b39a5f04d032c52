package web

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/abdul-hamid-achik/tally/internal/apperror"
	"github.com/abdul-hamid-achik/tally/internal/chat"
	"github.com/abdul-hamid-achik/tally/internal/logger"
	"github.com/abdul-hamid-achik/tally/internal/report"
)

type handlers struct {
	cfg *Config
}

type uploadResponse struct {
	FileID  string `json:"file_id"`
	Message string `json:"message,omitempty"`
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatState struct {
	DatasetID string         `json:"dataset_id"`
	Busy      bool           `json:"busy"`
	Messages  []chat.Message `json:"messages"`
}

type chatReply struct {
	Reply    chat.Message   `json:"reply"`
	Messages []chat.Message `json:"messages"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *handlers) getView(w http.ResponseWriter, r *http.Request) {
	view := h.cfg.Shell.View()
	if view == nil {
		apperror.WriteJSON(w, r, apperror.ErrNoDataset)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *handlers) refresh(w http.ResponseWriter, r *http.Request) {
	if h.cfg.Shell.DatasetID() == "" {
		apperror.WriteJSON(w, r, apperror.ErrNoDataset)
		return
	}
	ctx := logger.WithDatasetID(r.Context(), h.cfg.Shell.DatasetID())
	writeJSON(w, http.StatusOK, h.cfg.Shell.Refresh(ctx))
}

func (h *handlers) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadSize)
	if err := r.ParseMultipartForm(h.cfg.MaxUploadSize); err != nil {
		apperror.WriteJSON(w, r, apperror.WithMessage(apperror.ErrBadRequest, "Expected a multipart form with a file field", err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		apperror.WriteJSON(w, r, apperror.ErrInvalidFile)
		return
	}
	defer file.Close()

	resp, err := h.cfg.Shell.UploadReader(r.Context(), file, header.Filename)
	if err != nil {
		apperror.WriteJSON(w, r, err)
		return
	}

	if h.cfg.Chat != nil {
		if err := h.cfg.Chat.Open(r.Context(), resp.FileID); err != nil {
			logger.FromContext(r.Context()).Warn("chat history unavailable",
				"dataset_id", resp.FileID,
				"error", err.Error(),
			)
		}
	}
	writeJSON(w, http.StatusCreated, uploadResponse{FileID: resp.FileID, Message: resp.Message})
}

func (h *handlers) getChat(w http.ResponseWriter, r *http.Request) {
	s := h.cfg.Chat
	writeJSON(w, http.StatusOK, chatState{
		DatasetID: s.DatasetID(),
		Busy:      s.Busy(),
		Messages:  s.Messages(),
	})
}

func (h *handlers) sendChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperror.WriteJSON(w, r, apperror.WithMessage(apperror.ErrBadRequest, "Invalid JSON body", err))
		return
	}

	reply, err := h.cfg.Chat.Send(r.Context(), req.Message)
	if err != nil {
		apperror.WriteJSON(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, chatReply{Reply: reply, Messages: h.cfg.Chat.Messages()})
}

func (h *handlers) clearChat(w http.ResponseWriter, r *http.Request) {
	confirmed, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))

	cleared, err := h.cfg.Chat.Clear(r.Context(), func() bool { return confirmed })
	if err != nil {
		apperror.WriteJSON(w, r, err)
		return
	}
	if !cleared {
		apperror.WriteJSON(w, r, apperror.ErrConfirmationRequired)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) report(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	data := report.Data{
		View:        h.cfg.Shell.View(),
		GeneratedAt: now,
		DatasetID:   h.cfg.Shell.DatasetID(),
	}
	if h.cfg.Chat != nil {
		data.Transcript = h.cfg.Chat.Messages()
	}

	charts := h.cfg.Charts
	if v := r.URL.Query().Get("charts"); v != "" {
		charts, _ = strconv.ParseBool(v)
	}

	var buf bytes.Buffer
	err := report.Render(&buf, data, report.WithFormatter(h.cfg.Formatter), report.WithCharts(charts))
	if err != nil {
		apperror.WriteJSON(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+report.Filename(now)+`"`)
	_, _ = w.Write(buf.Bytes())
}
