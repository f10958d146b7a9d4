package main

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// sanitizeFilename keeps only the base name and strips characters that
// could alter the storage path.
func sanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return -1
		}
		return r
	}, name)
	return strings.TrimSpace(name)
}

func handleFileUpload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		jsonErr(w, "no file part in the request", 400)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if filename == "" || filename == "." || filename == ".." {
		jsonErr(w, "no selected file", 400)
		return
	}

	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		logger.Error("creating upload directory", zap.Error(err))
		jsonErr(w, "failed to save file", 500)
		return
	}

	dstPath := filepath.Join(uploadDir, filename)
	dst, err := os.Create(dstPath)
	if err != nil {
		logger.Error("creating upload file", zap.String("path", dstPath), zap.Error(err))
		jsonErr(w, "failed to save file", 500)
		return
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		logger.Error("writing upload file", zap.String("path", dstPath), zap.Error(err))
		jsonErr(w, "failed to save file", 500)
		return
	}

	jsonResp(w, map[string]string{
		"message":  "File successfully uploaded",
		"filename": filename,
		"path":     dstPath,
	})
}

// handleFileDownload serves files out of the upload directory. The name
// comes from the URL path after the /download/ prefix.
func handleFileDownload(w http.ResponseWriter, r *http.Request, filename string) {
	clean := sanitizeFilename(filename)
	if clean == "" || clean != filename {
		jsonErr(w, "invalid filename", 400)
		return
	}

	path := filepath.Join(uploadDir, clean)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		jsonErr(w, "file '"+clean+"' not found on server", 404)
		return
	}

	w.Header().Set("Content-Disposition", `attachment; filename="`+clean+`"`)
	http.ServeFile(w, r, path)
}
