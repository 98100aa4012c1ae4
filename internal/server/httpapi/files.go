package httpapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/and161185/sealvault/internal/errs"
	"github.com/and161185/sealvault/internal/model"
	"github.com/and161185/sealvault/internal/service"
)

// requesterAddress extracts the caller identity from the address query
// parameter or the X-Wallet-Address header. Empty means anonymous.
func requesterAddress(r *http.Request) string {
	if addr := r.URL.Query().Get("address"); addr != "" {
		return addr
	}
	return r.Header.Get("X-Wallet-Address")
}

func requestMeta(r *http.Request) service.RequestMeta {
	return service.RequestMeta{
		RemoteAddr: r.RemoteAddr,
		UserAgent:  r.UserAgent(),
	}
}

// storeFile handles multipart uploads: the file part plus policy and
// descriptive metadata fields.
func (h *Handler) storeFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		writeError(w, fmt.Errorf("%w: bad multipart form: %v", errs.ErrValidation, err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, fmt.Errorf("%w: no file uploaded", errs.ErrValidation))
		return
	}
	defer func() { _ = file.Close() }()
	content, err := io.ReadAll(file)
	if err != nil {
		writeError(w, err)
		return
	}

	owner := r.FormValue("ownerAddress")
	if sender := r.FormValue("senderAddress"); sender != "" {
		owner = sender
	}

	in := service.StoreInput{
		FileID:           r.FormValue("fileId"),
		Content:          content,
		OwnerAddress:     owner,
		ReceiverAddress:  r.FormValue("receiverAddress"),
		AccessType:       model.AccessType(r.FormValue("accessType")),
		IsPublic:         parseBool(r.FormValue("isPublic")),
		AllowedRoles:     parseRoles(r.FormValue("allowedRoles")),
		ImageHash:        r.FormValue("imageHash"),
		OriginalFilename: header.Filename,
		MimeType:         header.Header.Get("Content-Type"),
		Label:            r.FormValue("label"),
		DocumentType:     r.FormValue("documentType"),
		Description:      r.FormValue("description"),
	}

	res, err := h.files.Store(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"success":  true,
		"fileId":   res.FileID,
		"fileHash": res.ContentHash,
		"metadata": toFileJSON(&res.Record),
	})
}

func (h *Handler) getFile(w http.ResponseWriter, r *http.Request) {
	rec, err := h.files.GetRecord(r.Context(), chi.URLParam(r, "fileID"), requesterAddress(r), requestMeta(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toFileJSON(rec))
}

func (h *Handler) downloadFile(w http.ResponseWriter, r *http.Request) {
	dl, err := h.files.Retrieve(r.Context(), chi.URLParam(r, "fileID"), requesterAddress(r), requestMeta(r))
	if err != nil {
		writeError(w, err)
		return
	}

	mime := dl.MimeType
	if mime == "" {
		mime = "application/octet-stream"
	}
	w.Header().Set("Content-Type", mime)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", dl.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(dl.Content)))
	w.Header().Set("X-Content-Hash", dl.ContentHash)
	_, _ = w.Write(dl.Content)
}

type verifyRequest struct {
	FileHash string `json:"fileHash"`
}

func (h *Handler) verifyFile(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: bad request body", errs.ErrValidation))
		return
	}
	res, err := h.files.Verify(r.Context(), chi.URLParam(r, "fileID"), req.FileHash, requesterAddress(r), requestMeta(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"fileId":       res.FileID,
		"isValid":      res.IsValid,
		"storedHash":   res.StoredHash,
		"providedHash": res.ProvidedHash,
	})
}

func (h *Handler) deleteFile(w http.ResponseWriter, r *http.Request) {
	if err := h.files.Delete(r.Context(), chi.URLParam(r, "fileID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listAccessible(w http.ResponseWriter, r *http.Request) {
	recs, err := h.files.ListAccessible(r.Context(), chi.URLParam(r, "address"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toFileListJSON(recs))
}

func (h *Handler) listPublic(w http.ResponseWriter, r *http.Request) {
	recs, err := h.files.ListPublic(r.Context(), "")
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toFileListJSON(recs))
}

func (h *Handler) listPublicByOwner(w http.ResponseWriter, r *http.Request) {
	recs, err := h.files.ListPublic(r.Context(), chi.URLParam(r, "address"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toFileListJSON(recs))
}

func (h *Handler) listByUser(w http.ResponseWriter, r *http.Request) {
	recs, err := h.files.ListByUser(r.Context(), chi.URLParam(r, "address"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toFileListJSON(recs))
}

func (h *Handler) logsByFile(w http.ResponseWriter, r *http.Request) {
	entries, err := h.files.LogsForFile(r.Context(), chi.URLParam(r, "fileID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toLogListJSON(entries))
}

func (h *Handler) logsByAccessor(w http.ResponseWriter, r *http.Request) {
	entries, err := h.files.LogsForAccessor(r.Context(), chi.URLParam(r, "address"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toLogListJSON(entries))
}

func parseBool(v string) bool {
	b, _ := strconv.ParseBool(v)
	return b
}

// parseRoles accepts either a JSON array string or a comma separated list,
// matching what upload forms actually send.
func parseRoles(v string) []string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	if strings.HasPrefix(v, "[") {
		var roles []string
		if err := json.Unmarshal([]byte(v), &roles); err == nil {
			return roles
		}
	}
	return strings.Split(v, ",")
}
