package transport

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/driveline/driveline/internal/models"
)

type loginRequest struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	RememberMe bool   `json:"remember_me"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, models.ErrInvalidCredentials)
		return
	}

	token, user, err := s.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if req.RememberMe {
		http.SetCookie(w, &http.Cookie{
			Name:     "jwt",
			Value:    token,
			MaxAge:   7 * 24 * 60 * 60,
			HttpOnly: true,
			Path:     "/",
		})
	}

	s.writeJSON(w, http.StatusOK, loginResponse{Token: token, User: user})
}

// parentIDParam reads the optional parentId query or form value.
func parentIDParam(value string) (*int64, error) {
	if value == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid parent id %q: %w", value, models.ErrNodeNotFound)
	}
	return &id, nil
}

func nodeIDParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, models.ErrNodeNotFound
	}
	return id, nil
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())

	parentID, err := parentIDParam(r.URL.Query().Get("parentId"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	nodes, err := s.drive.List(r.Context(), identity.UserID, parentID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if nodes == nil {
		nodes = []*models.Node{}
	}
	s.writeJSON(w, http.StatusOK, nodes)
}

func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	nodes, err := s.drive.Recent(r.Context(), identity.UserID, limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if nodes == nil {
		nodes = []*models.Node{}
	}
	s.writeJSON(w, http.StatusOK, nodes)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, r, models.ErrInvalidName)
		return
	}
	defer file.Close()

	parentID, err := parentIDParam(r.FormValue("parentId"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	node, err := s.drive.Upload(r.Context(), identity.UserID, file, header.Size,
		header.Filename, header.Header.Get("Content-Type"), parentID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, node)
}

type createFolderRequest struct {
	Name     string `json:"name"`
	ParentID *int64 `json:"parent_id"`
}

func (s *Server) handleCreateFolder(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())

	var req createFolderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, models.ErrInvalidName)
		return
	}

	folder, err := s.drive.CreateFolder(r.Context(), identity.UserID, req.Name, req.ParentID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, folder)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	s.serveFile(w, r, "attachment")
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	s.serveFile(w, r, "inline")
}

func (s *Server) serveFile(w http.ResponseWriter, r *http.Request, disposition string) {
	identity, _ := IdentityFrom(r.Context())

	id, err := nodeIDParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	node, rc, err := s.drive.Download(r.Context(), identity.UserID, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer rc.Close()

	mimeType := "application/octet-stream"
	if node.File != nil && node.File.MIMEType != "" {
		mimeType = node.File.MIMEType
	}

	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, node.Name))
	if node.File != nil {
		w.Header().Set("Content-Length", strconv.FormatInt(node.File.SizeBytes, 10))
	}

	if _, err := io.Copy(w, rc); err != nil {
		s.logger.WithError(err).WithField("id", id).Warn("Download interrupted")
	}
}

func (s *Server) handleDownloadZip(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())

	id, err := nodeIDParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	// Resolve the folder first so errors still map to a status; once the
	// archive headers go out the status line is committed.
	folder, err := s.drive.Get(r.Context(), identity.UserID, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !folder.IsFolder() {
		s.writeError(w, r, models.ErrNotAFolder)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", folder.Name+".zip"))

	if err := s.drive.ZipFolder(r.Context(), identity.UserID, id, w); err != nil {
		s.logger.WithError(err).WithField("id", id).Error("Archive streaming failed")
	}
}

type renameRequest struct {
	NewName string `json:"new_name"`
}

func (s *Server) handleRename(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())

	id, err := nodeIDParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var req renameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, models.ErrInvalidName)
		return
	}

	node, err := s.drive.Rename(r.Context(), identity.UserID, id, req.NewName)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, node)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())

	id, err := nodeIDParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.drive.Delete(r.Context(), identity.UserID, id); err != nil {
		s.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleQuota(w http.ResponseWriter, r *http.Request) {
	quota, err := s.drive.Quota(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, quota)
}

func (s *Server) handlePathChain(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())

	id, err := nodeIDParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	chain, err := s.drive.PathChain(r.Context(), identity.UserID, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if chain == nil {
		chain = []*models.Node{}
	}
	s.writeJSON(w, http.StatusOK, chain)
}
