package http

import (
	"net/http"
	"strconv"

	"github.com/mind-engage/mindengage-quiz/internal/wrongbook"
)

func includeMastered(r *http.Request) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get("includeMastered"))
	return v
}

// GET /wrong-questions?includeMastered=true
func ListWrongQuestionsHandler(l *wrongbook.Ledger) http.HandlerFunc {
	return withUser(func(w http.ResponseWriter, r *http.Request, uid int64) {
		list, err := l.List(r.Context(), uid, wrongbook.ListOptions{IncludeMastered: includeMastered(r)})
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeOK(w, list)
	})
}

// GET /wrong-questions/quiz-set/{setId}
func ListWrongQuestionsBySetHandler(l *wrongbook.Ledger) http.HandlerFunc {
	return withUserAndID("setId", func(w http.ResponseWriter, r *http.Request, uid, setID int64) {
		list, err := l.List(r.Context(), uid, wrongbook.ListOptions{QuizSetID: setID, IncludeMastered: includeMastered(r)})
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeOK(w, list)
	})
}

// GET /wrong-questions/stats
func WrongQuestionStatsHandler(l *wrongbook.Ledger) http.HandlerFunc {
	return withUser(func(w http.ResponseWriter, r *http.Request, uid int64) {
		st, err := l.Stats(r.Context(), uid)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeOK(w, st)
	})
}

// POST /wrong-questions/{questionId}
func AddWrongQuestionHandler(l *wrongbook.Ledger) http.HandlerFunc {
	return withUserAndID("questionId", func(w http.ResponseWriter, r *http.Request, uid, qid int64) {
		e, err := l.Add(r.Context(), uid, qid)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeOK(w, e)
	})
}

// PUT /wrong-questions/{id}/master
func MasterWrongQuestionHandler(l *wrongbook.Ledger) http.HandlerFunc {
	return withUserAndID("id", func(w http.ResponseWriter, r *http.Request, uid, id int64) {
		if err := l.Master(r.Context(), uid, id); err != nil {
			writeError(w, r, err)
			return
		}
		writeMessage(w, "marked as mastered")
	})
}

// DELETE /wrong-questions/{id}
func RemoveWrongQuestionHandler(l *wrongbook.Ledger) http.HandlerFunc {
	return withUserAndID("id", func(w http.ResponseWriter, r *http.Request, uid, id int64) {
		if err := l.Remove(r.Context(), uid, id); err != nil {
			writeError(w, r, err)
			return
		}
		writeMessage(w, "removed from wrong questions")
	})
}
