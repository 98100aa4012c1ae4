package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/and161185/sealvault/internal/access"
	"github.com/and161185/sealvault/internal/errs"
	"github.com/and161185/sealvault/internal/model"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error         string   `json:"error"`
	Reason        string   `json:"reason,omitempty"`
	RequiredRoles []string `json:"requiredRoles,omitempty"`
}

// writeError maps layer errors onto the API's status codes. Denials carry
// the reason and, for role-based files, the satisfying role set.
func writeError(w http.ResponseWriter, err error) {
	var denied *access.DeniedError
	switch {
	case errors.As(err, &denied):
		writeJSON(w, http.StatusForbidden, errorBody{
			Error:         denied.Error(),
			Reason:        string(denied.Reason),
			RequiredRoles: denied.RequiredRoles,
		})
	case errors.Is(err, errs.ErrValidation):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	case errors.Is(err, errs.ErrAuthRequired):
		writeJSON(w, http.StatusUnauthorized, errorBody{
			Error: "authentication required: connect a wallet to access this file",
		})
	case errors.Is(err, errs.ErrUnauthorized), errors.Is(err, errs.ErrForbidden):
		writeJSON(w, http.StatusForbidden, errorBody{Error: err.Error()})
	case errors.Is(err, errs.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
	case errors.Is(err, errs.ErrAlreadyExists):
		writeJSON(w, http.StatusConflict, errorBody{Error: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

// fileRecordJSON is the wire form of a ledger record. Field names follow the
// external API contract, not Go conventions.
type fileRecordJSON struct {
	FileID           string    `json:"fileId"`
	OwnerAddress     string    `json:"ownerAddress"`
	ReceiverAddress  string    `json:"receiverAddress,omitempty"`
	IsPublic         bool      `json:"isPublic"`
	AccessType       string    `json:"accessType"`
	AllowedRoles     []string  `json:"allowedRoles,omitempty"`
	ContentHash      string    `json:"fileHash"`
	ImageHash        string    `json:"imageHash,omitempty"`
	AnchorTxHash     string    `json:"blockchainTxHash,omitempty"`
	OriginalFilename string    `json:"originalFilename"`
	FileSize         int64     `json:"fileSize"`
	MimeType         string    `json:"mimeType,omitempty"`
	Label            string    `json:"label,omitempty"`
	DocumentType     string    `json:"documentType,omitempty"`
	Description      string    `json:"description,omitempty"`
	UploadedAt       time.Time `json:"uploadedAt"`
}

func toFileJSON(rec *model.FileRecord) fileRecordJSON {
	return fileRecordJSON{
		FileID:           rec.FileID,
		OwnerAddress:     rec.OwnerAddress,
		ReceiverAddress:  rec.ReceiverAddress,
		IsPublic:         rec.IsPublic,
		AccessType:       string(rec.AccessType),
		AllowedRoles:     rec.AllowedRoles,
		ContentHash:      rec.ContentHash,
		ImageHash:        rec.ImageHash,
		AnchorTxHash:     rec.AnchorTxHash,
		OriginalFilename: rec.OriginalFilename,
		FileSize:         rec.FileSize,
		MimeType:         rec.MimeType,
		Label:            rec.Label,
		DocumentType:     rec.DocumentType,
		Description:      rec.Description,
		UploadedAt:       rec.UploadedAt,
	}
}

func toFileListJSON(recs []model.FileRecord) []fileRecordJSON {
	out := make([]fileRecordJSON, 0, len(recs))
	for i := range recs {
		out = append(out, toFileJSON(&recs[i]))
	}
	return out
}

type accessLogJSON struct {
	ID          int64     `json:"id"`
	FileID      string    `json:"fileId"`
	AccessedBy  string    `json:"accessedBy"`
	AccessKind  string    `json:"accessType"`
	ContentHash string    `json:"fileHash"`
	RemoteAddr  string    `json:"ipAddress,omitempty"`
	UserAgent   string    `json:"userAgent,omitempty"`
	Success     bool      `json:"success"`
	AccessedAt  time.Time `json:"accessTime"`
}

func toLogListJSON(entries []model.AccessLogEntry) []accessLogJSON {
	out := make([]accessLogJSON, 0, len(entries))
	for _, e := range entries {
		out = append(out, accessLogJSON{
			ID:          e.ID,
			FileID:      e.FileID,
			AccessedBy:  e.AccessedBy,
			AccessKind:  string(e.AccessKind),
			ContentHash: e.ContentHash,
			RemoteAddr:  e.RemoteAddr,
			UserAgent:   e.UserAgent,
			Success:     e.Success,
			AccessedAt:  e.AccessedAt,
		})
	}
	return out
}
