// internal/api/http/assets.go
package http

import (
	"bytes"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mind-engage/mindengage-quiz/internal/apperr"
	"github.com/mind-engage/mindengage-quiz/internal/content"
	"github.com/mind-engage/mindengage-quiz/internal/storage"
)

var imageExt = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// MountAssets serves stored blobs under the router it is mounted on.
func MountAssets(r chi.Router, bs storage.BlobStore) {
	// GET /assets/*   -> returns the blob at whatever follows /assets/
	r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
		rc, err := bs.Get(key)
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, r, apperr.New(apperr.NotFound, "asset not found"))
			return
		}
		if err != nil {
			writeError(w, r, err)
			return
		}
		defer rc.Close()
		head := make([]byte, 512)
		n, _ := io.ReadFull(rc, head)
		w.Header().Set("Content-Type", http.DetectContentType(head[:n]))
		w.Header().Set("Cache-Control", "public, max-age=86400")
		_, _ = w.Write(head[:n])
		_, _ = io.Copy(w, rc)
	})
}

// dropBlob removes the blob behind a previously stored image URL. Failures
// are logged only; the question row is already updated.
func dropBlob(bs storage.BlobStore, prev *string) {
	if prev == nil {
		return
	}
	if key, ok := storage.KeyFromURL(*prev); ok {
		if err := bs.Delete(key); err != nil {
			log.Printf("delete blob %s: %v", key, err)
		}
	}
}

// POST /questions/{questionId}/image  (multipart "image")
func UploadQuestionImageHandler(cs *content.Service, bs storage.BlobStore, maxBytes int64) http.HandlerFunc {
	return withUserAndID("questionId", func(w http.ResponseWriter, r *http.Request, uid, qid int64) {
		// ownership first, so nothing is written for foreign questions
		if _, err := cs.GetQuestion(r.Context(), uid, qid); err != nil {
			writeError(w, r, err)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			badRequest(w, r, "image too large or invalid upload")
			return
		}
		f, _, err := r.FormFile("image")
		if err != nil {
			badRequest(w, r, "please upload an image")
			return
		}
		defer f.Close()

		head := make([]byte, 512)
		n, _ := io.ReadFull(f, head)
		ext, ok := imageExt[http.DetectContentType(head[:n])]
		if !ok {
			badRequest(w, r, "only jpeg, png, gif and webp images are allowed")
			return
		}
		key, err := bs.Put("questions/"+uuid.NewString()+ext, io.MultiReader(bytes.NewReader(head[:n]), f))
		if err != nil {
			writeError(w, r, err)
			return
		}
		url := bs.URL(key)
		prev, err := cs.SetImage(r.Context(), uid, qid, &url)
		if err != nil {
			_ = bs.Delete(key)
			writeError(w, r, err)
			return
		}
		dropBlob(bs, prev)
		writeOK(w, map[string]string{"imageUrl": url})
	})
}

// DELETE /questions/{questionId}/image
func DeleteQuestionImageHandler(cs *content.Service, bs storage.BlobStore) http.HandlerFunc {
	return withUserAndID("questionId", func(w http.ResponseWriter, r *http.Request, uid, qid int64) {
		prev, err := cs.SetImage(r.Context(), uid, qid, nil)
		if err != nil {
			writeError(w, r, err)
			return
		}
		dropBlob(bs, prev)
		writeMessage(w, "image deleted")
	})
}
