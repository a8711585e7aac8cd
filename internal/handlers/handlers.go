// Package handlers provides HTTP handlers for the document stamping API.
//
// This package contains the HTTP endpoints for session management,
// document and seal upload, stamping, image insertion, and download.
//
// Example usage:
//
//	h := handlers.NewAPIHandler(sessionManager, uploadDir, outputDir, engine)
//	r := chi.NewRouter()
//	r.Post("/api/sessions/", h.CreateSession)
//
// All handlers are designed to be used with the chi router.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"go-stamppdf/internal/pdf"
	"go-stamppdf/internal/session"
	"go-stamppdf/internal/stamp"
	"go-stamppdf/internal/utils"

	"github.com/go-chi/chi/v5"
)

const (
	maxDocumentSize = 25 * 1024 * 1024
	maxImageSize    = 5 * 1024 * 1024 // 5MB max for seal images
)

// magic bytes expected at the start of each accepted document type
var documentMagic = map[string]string{
	".pdf":  "%PDF-",
	".docx": "PK\x03\x04",
	".odt":  "PK\x03\x04",
	".doc":  "\xD0\xCF\x11\xE0",
	".rtf":  "{\\rtf",
}

// Engine is what the handlers need to run stamping jobs.
type Engine struct {
	// Defaults are applied before per-request stamp parameters.
	Defaults []stamp.Option
	// Processing configures every stamp.Processor the handlers create.
	Processing []stamp.ProcessorOption
	Opener     pdf.Opener
}

type APIHandler struct {
	SessionManager *session.SessionManager
	UploadDir      string
	OutputDir      string
	Engine         Engine
	inserter       *stamp.Inserter
}

func NewAPIHandler(sm *session.SessionManager, uploadDir, outputDir string, engine Engine) *APIHandler {
	if engine.Opener == nil {
		engine.Opener = pdf.Backend{Optimize: true}
	}
	return &APIHandler{
		SessionManager: sm,
		UploadDir:      uploadDir,
		OutputDir:      outputDir,
		Engine:         engine,
		inserter:       stamp.NewInserter(engine.Opener, nil),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error writing response: %v", err)
	}
}

// statusFor maps stamping errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, stamp.ErrConfigValidation),
		errors.Is(err, stamp.ErrInvalidArgument),
		errors.Is(err, stamp.ErrUnsupportedStampType):
		return http.StatusBadRequest
	case errors.Is(err, stamp.ErrInputNotFound):
		return http.StatusNotFound
	case errors.Is(err, stamp.ErrConversion):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// sessionFile resolves a filename sent by the client to an upload owned by
// the session.
func (h *APIHandler) sessionFile(s *session.Session, name string) (string, bool) {
	if name == "" || name != filepath.Base(name) {
		return "", false
	}
	path := filepath.Join(h.UploadDir, name)
	return path, s.HasFile(path)
}

// CreateSession godoc
// @Summary      Create a new session
// @Description  Creates a new stamping session and returns a session ID
// @Tags         sessions
// @Produce      json
// @Success      200  {object}  map[string]string  "{ sessionId: string }"
// @Router       /api/sessions/ [post]
func (h *APIHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	session := h.SessionManager.CreateSession()
	writeJSON(w, http.StatusOK, map[string]string{"sessionId": session.ID})
}

// UploadFile godoc
// @Summary      Upload a document
// @Description  Uploads a PDF or Word document to the session
// @Tags         files
// @Accept       multipart/form-data
// @Produce      json
// @Param        sessionID  path      string  true  "Session ID"
// @Param        document   formData  file    true  "PDF, DOC, DOCX, ODT or RTF file"
// @Success      200  {object}  map[string]interface{}  "{ filename: string, size: int }"
// @Failure      400  {string}  string  "Bad request"
// @Failure      404  {string}  string  "Session not found"
// @Router       /api/sessions/{sessionID}/files [post]
func (h *APIHandler) UploadFile(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	session, exists := h.SessionManager.GetSession(sessionID)
	if !exists {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxDocumentSize)
	if err := r.ParseMultipartForm(maxDocumentSize); err != nil {
		http.Error(w, "File too large", http.StatusBadRequest)
		return
	}

	file, handler, err := r.FormFile("document")
	if err != nil {
		http.Error(w, "Error retrieving file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(handler.Filename))
	magic, ok := documentMagic[ext]
	if !ok {
		http.Error(w, "Only PDF and Word documents are allowed", http.StatusBadRequest)
		return
	}

	header := make([]byte, len(magic))
	if _, err := io.ReadFull(file, header); err != nil || string(header) != magic {
		http.Error(w, fmt.Sprintf("Uploaded file is not a valid %s document", strings.TrimPrefix(ext, ".")), http.StatusBadRequest)
		return
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		http.Error(w, "Failed to process file", http.StatusInternalServerError)
		return
	}

	filename := utils.StoredName("doc", handler.Filename)
	if err := h.store(file, filename); err != nil {
		log.Printf("Error storing upload: %v", err)
		http.Error(w, "Failed to save file", http.StatusInternalServerError)
		return
	}

	session.AddFile(filepath.Join(h.UploadDir, filename))
	writeJSON(w, http.StatusOK, map[string]any{"filename": filename, "size": handler.Size})
}

// UploadSeal godoc
// @Summary      Upload a seal image
// @Description  Uploads a seal image (PNG/JPEG) to the session
// @Tags         seal
// @Accept       multipart/form-data
// @Produce      json
// @Param        sessionID  path      string  true  "Session ID"
// @Param        seal       formData  file    true  "Seal image file (PNG/JPEG)"
// @Success      200  {object}  map[string]interface{}  "{ filename: string, size: int }"
// @Failure      400  {string}  string  "Bad request - invalid image format"
// @Failure      404  {string}  string  "Session not found"
// @Router       /api/sessions/{sessionID}/seal [post]
func (h *APIHandler) UploadSeal(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	session, exists := h.SessionManager.GetSession(sessionID)
	if !exists {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxImageSize)
	if err := r.ParseMultipartForm(maxImageSize); err != nil {
		http.Error(w, "File too large", http.StatusBadRequest)
		return
	}

	file, handler, err := r.FormFile("seal")
	if err != nil {
		http.Error(w, "Error retrieving file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	// Read first few bytes to verify it's an image
	header := make([]byte, 512)
	n, err := file.Read(header)
	if err != nil && err != io.EOF {
		http.Error(w, "Failed to read file", http.StatusBadRequest)
		return
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		http.Error(w, "Failed to process file", http.StatusInternalServerError)
		return
	}

	// Extension must match the detected content type
	validExtensions := map[string][]string{
		"image/jpeg": {".jpg", ".jpeg"},
		"image/png":  {".png"},
	}
	contentType := http.DetectContentType(header[:n])
	extensions, ok := validExtensions[contentType]
	if !ok {
		http.Error(w, "Invalid image format. Only PNG and JPEG images are allowed", http.StatusBadRequest)
		return
	}
	if !slices.Contains(extensions, strings.ToLower(filepath.Ext(handler.Filename))) {
		http.Error(w, "File extension doesn't match content type", http.StatusBadRequest)
		return
	}

	filename := utils.StoredName("seal", handler.Filename)
	if err := h.store(file, filename); err != nil {
		log.Printf("Error storing seal: %v", err)
		http.Error(w, "Failed to save file", http.StatusInternalServerError)
		return
	}

	session.AddFile(filepath.Join(h.UploadDir, filename))
	writeJSON(w, http.StatusOK, map[string]any{"filename": filename, "size": handler.Size})
}

func (h *APIHandler) store(src io.Reader, filename string) error {
	dst, err := os.Create(filepath.Join(h.UploadDir, filename))
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}

type stampRequest struct {
	Document       string   `json:"document"`
	Seal           string   `json:"seal"`
	StampType      string   `json:"stampType"`
	StampSizeMm    *float64 `json:"stampSizeMm,omitempty"`
	MarginRightMm  *float64 `json:"marginRightMm,omitempty"`
	MarginBottomMm *float64 `json:"marginBottomMm,omitempty"`
	SealCount      *int     `json:"sealCount,omitempty"`
	PagesPerSeal   *int     `json:"pagesPerSeal,omitempty"`
}

func (req stampRequest) config(defaults []stamp.Option) (stamp.Config, error) {
	opts := slices.Clone(defaults)
	if req.StampSizeMm != nil {
		opts = append(opts, stamp.WithStampSize(*req.StampSizeMm))
	}
	if req.MarginRightMm != nil || req.MarginBottomMm != nil {
		base, err := stamp.NewConfig(defaults...)
		if err != nil {
			return stamp.Config{}, err
		}
		right, bottom := base.MarginRightMm(), base.MarginBottomMm()
		if req.MarginRightMm != nil {
			right = *req.MarginRightMm
		}
		if req.MarginBottomMm != nil {
			bottom = *req.MarginBottomMm
		}
		opts = append(opts, stamp.WithMargins(right, bottom))
	}
	if req.SealCount != nil {
		opts = append(opts, stamp.WithSealCount(*req.SealCount))
	}
	if req.PagesPerSeal != nil {
		opts = append(opts, stamp.WithPagesPerSeal(*req.PagesPerSeal))
	}
	return stamp.NewConfig(opts...)
}

// Stamp godoc
// @Summary      Stamp a document
// @Description  Applies the corner stamp, the straddle seal, or both to an uploaded document
// @Tags         stamp
// @Accept       json
// @Produce      json
// @Param        sessionID  path    string  true   "Session ID"
// @Param        request    body    object  true   "Stamp request"
// @Success      200  {object}  map[string]string  "{ downloadUrl: string }"
// @Failure      400  {string}  string  "Bad request"
// @Failure      404  {string}  string  "Session or file not found"
// @Failure      409  {string}  string  "Job already running"
// @Failure      422  {string}  string  "Document conversion failed"
// @Router       /api/sessions/{sessionID}/stamp [post]
func (h *APIHandler) Stamp(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	session, exists := h.SessionManager.GetSession(sessionID)
	if !exists {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}

	var req stampRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON format", http.StatusBadRequest)
		return
	}
	if req.StampType == "" {
		req.StampType = stamp.KindBoth.String()
	}
	kind, err := stamp.ParseKind(req.StampType)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	cfg, err := req.config(h.Engine.Defaults)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	docPath, ok := h.sessionFile(session, req.Document)
	if !ok {
		http.Error(w, "Document not found in session", http.StatusNotFound)
		return
	}
	sealPath, ok := h.sessionFile(session, req.Seal)
	if !ok {
		http.Error(w, "Seal file not found in session", http.StatusNotFound)
		return
	}

	if !session.TryStart() {
		http.Error(w, "A job is already running for this session", http.StatusConflict)
		return
	}
	outputFilename := utils.TempName("stamped", ".pdf")
	outputPath := filepath.Join(h.OutputDir, outputFilename)

	processor := stamp.NewProcessor(cfg, h.Engine.Processing...)
	if err := processor.Process(r.Context(), docPath, sealPath, outputPath, kind); err != nil {
		session.Finish("")
		os.Remove(outputPath)
		log.Printf("Error stamping %s: %v", req.Document, err)
		http.Error(w, fmt.Sprintf("Failed to stamp document: %v", err), statusFor(err))
		return
	}
	session.Finish(outputPath)

	downloadURL := fmt.Sprintf("/api/sessions/%s/files/%s", sessionID, outputFilename)
	writeJSON(w, http.StatusOK, map[string]string{"downloadUrl": downloadURL})
}

type insertRequest struct {
	Document       string   `json:"document"`
	Image          string   `json:"image"`
	Page           int      `json:"page"` // 1-based
	XMm            *float64 `json:"xMm,omitempty"`
	YMm            *float64 `json:"yMm,omitempty"`
	MarginRightMm  *float64 `json:"marginRightMm,omitempty"`
	MarginBottomMm *float64 `json:"marginBottomMm,omitempty"`
	SizeMm         *float64 `json:"sizeMm,omitempty"`
	WidthMm        *float64 `json:"widthMm,omitempty"`
	HeightMm       *float64 `json:"heightMm,omitempty"`
}

func (req insertRequest) placement() (stamp.Placement, error) {
	p := stamp.Placement{
		Page:           req.Page - 1,
		MarginRightMm:  req.MarginRightMm,
		MarginBottomMm: req.MarginBottomMm,
	}
	if req.XMm != nil || req.YMm != nil {
		if req.XMm == nil || req.YMm == nil {
			return p, fmt.Errorf("%w: xMm and yMm must be given together", stamp.ErrInvalidArgument)
		}
		p.Position = &stamp.Point{XMm: *req.XMm, YMm: *req.YMm}
	}
	switch {
	case req.SizeMm != nil && (req.WidthMm != nil || req.HeightMm != nil):
		return p, fmt.Errorf("%w: sizeMm and widthMm/heightMm are mutually exclusive", stamp.ErrInvalidArgument)
	case req.SizeMm != nil:
		p.Size = stamp.UniformSize(*req.SizeMm)
	case req.WidthMm != nil && req.HeightMm != nil:
		p.Size = stamp.ExactSize(*req.WidthMm, *req.HeightMm)
	case req.WidthMm != nil || req.HeightMm != nil:
		return p, fmt.Errorf("%w: widthMm and heightMm must be given together", stamp.ErrInvalidArgument)
	}
	return p, nil
}

// InsertImage godoc
// @Summary      Insert an image
// @Description  Places an uploaded image on one page of an uploaded PDF, either at an absolute position or anchored to the bottom-right margins
// @Tags         stamp
// @Accept       json
// @Produce      json
// @Param        sessionID  path    string  true   "Session ID"
// @Param        request    body    object  true   "Insert request"
// @Success      200  {object}  map[string]string  "{ downloadUrl: string }"
// @Failure      400  {string}  string  "Bad request"
// @Failure      404  {string}  string  "Session or file not found"
// @Failure      409  {string}  string  "Job already running"
// @Router       /api/sessions/{sessionID}/images [post]
func (h *APIHandler) InsertImage(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	session, exists := h.SessionManager.GetSession(sessionID)
	if !exists {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}

	var req insertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON format", http.StatusBadRequest)
		return
	}
	if req.Page < 1 {
		http.Error(w, "Missing required fields", http.StatusBadRequest)
		return
	}
	placement, err := req.placement()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	docPath, ok := h.sessionFile(session, req.Document)
	if !ok || strings.ToLower(filepath.Ext(docPath)) != ".pdf" {
		http.Error(w, "PDF not found in session", http.StatusNotFound)
		return
	}
	imgPath, ok := h.sessionFile(session, req.Image)
	if !ok {
		http.Error(w, "Image file not found in session", http.StatusNotFound)
		return
	}

	if !session.TryStart() {
		http.Error(w, "A job is already running for this session", http.StatusConflict)
		return
	}
	outputFilename := utils.TempName("inserted", ".pdf")
	outputPath := filepath.Join(h.OutputDir, outputFilename)

	if err := h.inserter.Insert(docPath, imgPath, outputPath, placement); err != nil {
		session.Finish("")
		os.Remove(outputPath)
		log.Printf("Error inserting image into %s: %v", req.Document, err)
		http.Error(w, fmt.Sprintf("Failed to insert image: %v", err), statusFor(err))
		return
	}
	session.Finish(outputPath)

	downloadURL := fmt.Sprintf("/api/sessions/%s/files/%s", sessionID, outputFilename)
	writeJSON(w, http.StatusOK, map[string]string{"downloadUrl": downloadURL})
}

// DownloadFile godoc
// @Summary      Download the stamped PDF
// @Description  Downloads the latest output of the session; the session is removed afterwards
// @Tags         files
// @Produce      application/pdf
// @Param        sessionID  path      string  true  "Session ID"
// @Param        filename   path      string  true  "Output PDF filename"
// @Success      200  {file}  file  "PDF file download"
// @Failure      403  {string}  string  "Unauthorized access to file"
// @Failure      404  {string}  string  "Session or file not found"
// @Router       /api/sessions/{sessionID}/files/{filename} [get]
func (h *APIHandler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	filename := chi.URLParam(r, "filename")
	session, exists := h.SessionManager.GetSession(sessionID)
	if !exists {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}
	path := filepath.Join(h.OutputDir, filename)
	if session.Output() != path {
		http.Error(w, "Unauthorized access to file", http.StatusForbidden)
		return
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Disposition", "attachment; filename=\"stamped.pdf\"")
	w.Header().Set("Content-Type", "application/pdf")
	http.ServeFile(w, r, path)
	go func() {
		time.Sleep(1 * time.Second)
		session.Cleanup()
		h.SessionManager.DeleteSession(sessionID)
	}()
}
