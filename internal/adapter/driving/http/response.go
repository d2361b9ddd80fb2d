package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/complykit/supascope/internal/application"
	"github.com/complykit/supascope/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type integrationResponse struct {
	Integrated bool `json:"integrated"`
}

type integrateRequest struct {
	Token string `json:"token"`
}

type projectResponse struct {
	ID          string `json:"id"`
	RemoteID    string `json:"remote_id"`
	Name        string `json:"name"`
	PITREnabled bool   `json:"pitr_enabled"`
}

func toProjectResponse(p model.Project) projectResponse {
	return projectResponse{
		ID:          p.ID,
		RemoteID:    p.RemoteID,
		Name:        p.Name,
		PITREnabled: p.PITREnabled,
	}
}

type userResponse struct {
	ID          string `json:"id"`
	RemoteID    string `json:"remote_id"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	MFAEnabled  bool   `json:"mfa_enabled"`
	ProjectName string `json:"project_name"`
}

func toUserResponse(u model.User) userResponse {
	return userResponse{
		ID:          u.ID,
		RemoteID:    u.RemoteID,
		Email:       u.Email,
		Phone:       u.Phone,
		MFAEnabled:  u.MFAEnabled,
		ProjectName: u.ProjectName,
	}
}

type tableResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	RLSEnabled  bool   `json:"rls_enabled"`
	ProjectName string `json:"project_name"`
}

func toTableResponse(t model.Table) tableResponse {
	return tableResponse{
		ID:          t.ID,
		Name:        t.Name,
		RLSEnabled:  t.RLSEnabled,
		ProjectName: t.ProjectName,
	}
}

type evidenceResponse struct {
	Snapshot   model.Snapshot `json:"snapshot"`
	Timestamps []string       `json:"timestamps"`
	Timestamp  string         `json:"timestamp"`
}

func toEvidenceResponse(result *application.EvidenceResult) evidenceResponse {
	timestamps := make([]string, 0, len(result.Timestamps))
	for _, ts := range result.Timestamps {
		timestamps = append(timestamps, ts.UTC().Format(time.RFC3339Nano))
	}

	return evidenceResponse{
		Snapshot:   result.Snapshot,
		Timestamps: timestamps,
		Timestamp:  result.Timestamp.UTC().Format(time.RFC3339Nano),
	}
}
