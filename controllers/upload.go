package controllers

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/dcode-github/real_estate_listing/logger"
	"github.com/dcode-github/real_estate_listing/uploads"
	"go.uber.org/zap"
)

const MaxImagesPerUpload = 5

type UploadResponse struct {
	Message  string `json:"message"`
	FilePath string `json:"filePath"`
}

type MultiUploadResponse struct {
	Message   string   `json:"message"`
	FilePaths []string `json:"filePaths"`
}

// UploadSingle stores the multipart field "image".
func UploadSingle(storage uploads.Storage, maxBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form, ok := parseForm(w, r, maxBytes)
		if !ok {
			return
		}
		files := form.File["image"]
		if len(files) == 0 {
			writeError(w, http.StatusBadRequest, "No file uploaded")
			return
		}

		path, err := storage.Save(files[0])
		if err != nil {
			writeUploadError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, UploadResponse{Message: "File uploaded successfully", FilePath: path})
	}
}

// UploadMultiple stores up to MaxImagesPerUpload files from the field "images".
func UploadMultiple(storage uploads.Storage, maxBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form, ok := parseForm(w, r, maxBytes*MaxImagesPerUpload)
		if !ok {
			return
		}
		files := form.File["images"]
		if len(files) == 0 {
			writeError(w, http.StatusBadRequest, "No files uploaded")
			return
		}
		if len(files) > MaxImagesPerUpload {
			writeError(w, http.StatusBadRequest, "Too many files, at most 5 images are allowed")
			return
		}

		paths := make([]string, 0, len(files))
		for _, fh := range files {
			path, err := storage.Save(fh)
			if err != nil {
				discardUploads(r, storage, paths)
				writeUploadError(w, r, err)
				return
			}
			paths = append(paths, path)
		}
		writeJSON(w, http.StatusOK, MultiUploadResponse{Message: "Files uploaded successfully", FilePaths: paths})
	}
}

// discardUploads removes files already stored for a request that failed part way.
func discardUploads(r *http.Request, storage uploads.Storage, paths []string) {
	for _, path := range paths {
		if err := storage.Remove(path); err != nil {
			logger.FromContext(r.Context()).Warn("Failed to remove partial upload", zap.String("path", path), zap.Error(err))
		}
	}
}

func parseForm(w http.ResponseWriter, r *http.Request, limit int64) (*multipart.Form, bool) {
	if limit > 0 {
		// leave room for multipart framing around the file bodies
		r.Body = http.MaxBytesReader(w, r.Body, limit+1<<20)
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, "File too large")
			return nil, false
		}
		writeError(w, http.StatusBadRequest, "Invalid multipart form")
		return nil, false
	}
	return r.MultipartForm, true
}

func writeUploadError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, uploads.ErrTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "File too large")
	case errors.Is(err, uploads.ErrUnsupportedType):
		writeError(w, http.StatusBadRequest, "Images only!")
	case errors.Is(err, uploads.ErrEmptyFile):
		writeError(w, http.StatusBadRequest, "Uploaded file is empty")
	default:
		logger.FromContext(r.Context()).Error("Failed to store upload", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to upload file")
	}
}
