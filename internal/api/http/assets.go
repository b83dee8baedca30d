package http

import (
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/learnloop/learnloop-lms/internal/storage"
)

// MountAssets wires image upload and retrieval onto the given router.
// Two upload namespaces exist: "tasks" for entry-task proof screenshots
// (learners) and "questions" for illustrations attached to questions
// (admins). The returned key is what callers store in task_image /
// question image fields.
func MountAssets(r chi.Router, bs storage.BlobStore) {
	upload := func(prefix string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			f, hdr, err := r.FormFile("file")
			if err != nil {
				http.Error(w, "file required", http.StatusBadRequest)
				return
			}
			defer f.Close()

			ext := strings.ToLower(path.Ext(hdr.Filename))
			switch ext {
			case ".png", ".jpg", ".jpeg", ".gif", ".webp":
			default:
				http.Error(w, "unsupported image type", http.StatusBadRequest)
				return
			}
			key := prefix + "/" + uuid.NewString() + ext
			if _, err := bs.Put(key, f); err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]string{"key": key})
		}
	}

	r.Post("/tasks", upload("tasks"))
	r.Post("/questions", upload("questions"))

	// GET /assets/* -> the blob at whatever follows /assets/
	r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
		rc, err := bs.Get(key)
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		defer rc.Close()
		w.Header().Set("Content-Type", contentTypeForKey(key))
		_, _ = io.Copy(w, rc)
	})
}

func contentTypeForKey(key string) string {
	switch strings.ToLower(path.Ext(key)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}
