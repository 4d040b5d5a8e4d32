package http

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mind-engage/mindengage-quiz/internal/apperr"
	"github.com/mind-engage/mindengage-quiz/internal/transfer"
)

const (
	contentTypeJSON = "application/json"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// attachment sets a download filename; the UTF-8 form keeps non-ASCII titles.
func attachment(w http.ResponseWriter, title, ext string) {
	name := fmt.Sprintf("%s_%s.%s", title, time.Now().UTC().Format("20060102"), ext)
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="quiz.%s"; filename*=UTF-8''%s`, ext, url.PathEscape(name)))
}

// GET /quiz-sets/{setId}/export/json
func ExportJSONHandler(ts *transfer.Service) http.HandlerFunc {
	return withUserAndID("setId", func(w http.ResponseWriter, r *http.Request, uid, setID int64) {
		b, err := ts.Export(r.Context(), uid, setID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		var buf bytes.Buffer
		if err := transfer.EncodeJSON(&buf, b); err != nil {
			writeError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", contentTypeJSON)
		attachment(w, b.QuizSet.Title, "json")
		_, _ = w.Write(buf.Bytes())
	})
}

// GET /quiz-sets/{setId}/export/excel
func ExportExcelHandler(ts *transfer.Service) http.HandlerFunc {
	return withUserAndID("setId", func(w http.ResponseWriter, r *http.Request, uid, setID int64) {
		b, err := ts.Export(r.Context(), uid, setID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		var buf bytes.Buffer
		if err := transfer.EncodeXLSX(&buf, b); err != nil {
			writeError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", contentTypeXLSX)
		attachment(w, b.QuizSet.Title, "xlsx")
		_, _ = w.Write(buf.Bytes())
	})
}

// uploadedFile returns the multipart "file" part, or the raw body when the
// request is not multipart and allowRaw is set.
func uploadedFile(w http.ResponseWriter, r *http.Request, maxBytes int64, allowRaw bool) (io.ReadCloser, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		if allowRaw {
			return r.Body, nil
		}
		return nil, apperr.New(apperr.InvalidArgument, "please upload a file")
	}
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		return nil, apperr.Wrap(apperr.InvalidArgument, "invalid upload", err)
	}
	f, _, err := r.FormFile("file")
	if err != nil {
		return nil, apperr.New(apperr.InvalidArgument, "please upload a file")
	}
	return f, nil
}

func importHandler(ts *transfer.Service, maxBytes int64, allowRaw bool, decode func(io.Reader) (transfer.Bank, error)) http.HandlerFunc {
	return withUserAndID("setId", func(w http.ResponseWriter, r *http.Request, uid, setID int64) {
		f, err := uploadedFile(w, r, maxBytes, allowRaw)
		if err != nil {
			writeError(w, r, err)
			return
		}
		defer f.Close()
		b, err := decode(f)
		if err != nil {
			writeError(w, r, err)
			return
		}
		res, err := ts.Import(r.Context(), uid, setID, b)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeOK(w, res)
	})
}

// POST /quiz-sets/{setId}/import/json  (multipart "file" or a JSON body)
func ImportJSONHandler(ts *transfer.Service, maxBytes int64) http.HandlerFunc {
	return importHandler(ts, maxBytes, true, transfer.DecodeJSON)
}

// POST /quiz-sets/{setId}/import/excel  (multipart "file")
func ImportExcelHandler(ts *transfer.Service, maxBytes int64) http.HandlerFunc {
	return importHandler(ts, maxBytes, false, transfer.DecodeXLSX)
}
