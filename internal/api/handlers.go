package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/mindhaven/companion/internal/auth"
	"github.com/mindhaven/companion/internal/core"
	"github.com/mindhaven/companion/internal/report"
	"github.com/mindhaven/companion/internal/store"
)

type APIHandler struct {
	manager *core.Manager
	dbStore *store.SQLiteStore
}

func NewAPIHandler(manager *core.Manager, dbStore *store.SQLiteStore) *APIHandler {
	return &APIHandler{manager: manager, dbStore: dbStore}
}

func (h *APIHandler) SessionAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Authorization header is required", http.StatusUnauthorized)
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		sessionID, err := auth.ValidateSessionToken(tokenString)
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		if _, ok := h.manager.Session(sessionID); !ok {
			http.Error(w, "Session not found", http.StatusNotFound)
			return
		}

		ctx := context.WithValue(r.Context(), "sessionID", sessionID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type CreateSessionResponse struct {
	SessionID string `json:"session_id"`
	Token     string `json:"token"`
}

func (h *APIHandler) CreateSessionHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := h.manager.CreateSession()

	token, err := auth.GenerateSessionToken(sessionID)
	if err != nil {
		log.Printf("Error generating token for session %s: %v", sessionID, err)
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(CreateSessionResponse{SessionID: sessionID, Token: token})
}

func (h *APIHandler) SessionStateHandler(w http.ResponseWriter, r *http.Request) {
	o, ok := h.session(w, r)
	if !ok {
		return
	}
	json.NewEncoder(w).Encode(o.State())
}

type PostMessageRequest struct {
	Content string `json:"content"`
}

func (h *APIHandler) PostMessageHandler(w http.ResponseWriter, r *http.Request) {
	o, ok := h.session(w, r)
	if !ok {
		return
	}

	var req PostMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	botMessage, err := o.SendMessage(r.Context(), req.Content)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrEmptyMessage):
			http.Error(w, "Message content cannot be empty", http.StatusBadRequest)
		case errors.Is(err, core.ErrBusy):
			http.Error(w, "A reply is still being generated", http.StatusConflict)
		default:
			log.Printf("Error posting message for session %s: %v", sessionID(r), err)
			http.Error(w, "Failed to post message", http.StatusInternalServerError)
		}
		return
	}
	json.NewEncoder(w).Encode(botMessage)
}

func (h *APIHandler) GenerateReportHandler(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r)

	rep, err := h.manager.GenerateReport(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrBusy):
			http.Error(w, "A report is still being generated", http.StatusConflict)
		case errors.Is(err, core.ErrSessionNotFound):
			http.Error(w, "Session not found", http.StatusNotFound)
		default:
			log.Printf("Error generating report for session %s: %v", id, err)
			http.Error(w, "Failed to generate report", http.StatusInternalServerError)
		}
		return
	}
	json.NewEncoder(w).Encode(rep)
}

func (h *APIHandler) DownloadReportHandler(w http.ResponseWriter, r *http.Request) {
	o, ok := h.session(w, r)
	if !ok {
		return
	}

	rep, err := o.CurrentReport()
	if err != nil {
		http.Error(w, "No report has been generated yet", http.StatusNotFound)
		return
	}

	doc := report.Format(rep)
	filename := report.Filename(rep.GeneratedAt())

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Write([]byte(doc))
}

func (h *APIHandler) ListReportsHandler(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r)

	records, err := h.dbStore.ListReportsBySession(id)
	if err != nil {
		log.Printf("Error listing reports for session %s: %v", id, err)
		http.Error(w, "Failed to list reports", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(records)
}

func (h *APIHandler) ClearErrorHandler(w http.ResponseWriter, r *http.Request) {
	o, ok := h.session(w, r)
	if !ok {
		return
	}
	o.ClearError()
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) session(w http.ResponseWriter, r *http.Request) (*core.Orchestrator, bool) {
	o, ok := h.manager.Session(sessionID(r))
	if !ok {
		http.Error(w, "Session not found", http.StatusNotFound)
		return nil, false
	}
	return o, true
}

func sessionID(r *http.Request) string {
	id, _ := r.Context().Value("sessionID").(string)
	return id
}
