package http

import (
	"net/http"

	"github.com/mind-engage/mindengage-quiz/internal/content"
)

// ---- quiz sets ----

// POST /quiz-sets
func CreateQuizSetHandler(cs *content.Service) http.HandlerFunc {
	return withUser(func(w http.ResponseWriter, r *http.Request, uid int64) {
		var in content.QuizSetInput
		if err := decodeJSON(r, &in); err != nil {
			writeError(w, r, err)
			return
		}
		set, err := cs.CreateQuizSet(r.Context(), uid, in)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeCreated(w, set)
	})
}

// GET /quiz-sets
func ListQuizSetsHandler(cs *content.Service) http.HandlerFunc {
	return withUser(func(w http.ResponseWriter, r *http.Request, uid int64) {
		sets, err := cs.ListQuizSets(r.Context(), uid)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeOK(w, sets)
	})
}

// GET /quiz-sets/{setId}
func GetQuizSetHandler(cs *content.Service) http.HandlerFunc {
	return withUserAndID("setId", func(w http.ResponseWriter, r *http.Request, uid, setID int64) {
		set, err := cs.GetQuizSet(r.Context(), uid, setID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeOK(w, set)
	})
}

// PUT /quiz-sets/{setId}
func UpdateQuizSetHandler(cs *content.Service) http.HandlerFunc {
	return withUserAndID("setId", func(w http.ResponseWriter, r *http.Request, uid, setID int64) {
		var in content.QuizSetInput
		if err := decodeJSON(r, &in); err != nil {
			writeError(w, r, err)
			return
		}
		set, err := cs.UpdateQuizSet(r.Context(), uid, setID, in)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeOK(w, set)
	})
}

// DELETE /quiz-sets/{setId}
func DeleteQuizSetHandler(cs *content.Service) http.HandlerFunc {
	return withUserAndID("setId", func(w http.ResponseWriter, r *http.Request, uid, setID int64) {
		if err := cs.DeleteQuizSet(r.Context(), uid, setID); err != nil {
			writeError(w, r, err)
			return
		}
		writeMessage(w, "quiz set deleted")
	})
}

// ---- questions ----

// GET /quiz-sets/{setId}/questions?q=&category=&difficulty=&tag=
func ListQuestionsHandler(cs *content.Service) http.HandlerFunc {
	return withUserAndID("setId", func(w http.ResponseWriter, r *http.Request, uid, setID int64) {
		q := r.URL.Query()
		f := content.QuestionFilter{
			Query:      q.Get("q"),
			Category:   q.Get("category"),
			Difficulty: q.Get("difficulty"),
			Tag:        q.Get("tag"),
		}
		qs, err := cs.ListQuestions(r.Context(), uid, setID, f)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeOK(w, qs)
	})
}

// POST /quiz-sets/{setId}/questions
func CreateQuestionHandler(cs *content.Service) http.HandlerFunc {
	return withUserAndID("setId", func(w http.ResponseWriter, r *http.Request, uid, setID int64) {
		var in content.QuestionInput
		if err := decodeJSON(r, &in); err != nil {
			writeError(w, r, err)
			return
		}
		q, err := cs.CreateQuestion(r.Context(), uid, setID, in)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeCreated(w, q)
	})
}

// GET /questions/{questionId}
func GetQuestionHandler(cs *content.Service) http.HandlerFunc {
	return withUserAndID("questionId", func(w http.ResponseWriter, r *http.Request, uid, qid int64) {
		q, err := cs.GetQuestion(r.Context(), uid, qid)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeOK(w, q)
	})
}

// PUT /questions/{questionId}
func UpdateQuestionHandler(cs *content.Service) http.HandlerFunc {
	return withUserAndID("questionId", func(w http.ResponseWriter, r *http.Request, uid, qid int64) {
		var in content.QuestionInput
		if err := decodeJSON(r, &in); err != nil {
			writeError(w, r, err)
			return
		}
		q, err := cs.UpdateQuestion(r.Context(), uid, qid, in)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeOK(w, q)
	})
}

// DELETE /questions/{questionId}
func DeleteQuestionHandler(cs *content.Service) http.HandlerFunc {
	return withUserAndID("questionId", func(w http.ResponseWriter, r *http.Request, uid, qid int64) {
		if err := cs.DeleteQuestion(r.Context(), uid, qid); err != nil {
			writeError(w, r, err)
			return
		}
		writeMessage(w, "question deleted")
	})
}

// ---- tags ----

// GET /tags
func ListTagsHandler(cs *content.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tags, err := cs.ListTags(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeOK(w, tags)
	}
}

// POST /questions/{questionId}/tags  {"tags":["..."]}
func AddTagsHandler(cs *content.Service) http.HandlerFunc {
	return withUserAndID("questionId", func(w http.ResponseWriter, r *http.Request, uid, qid int64) {
		var req struct {
			Tags []string `json:"tags"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		q, err := cs.AddTags(r.Context(), uid, qid, req.Tags)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeOK(w, q)
	})
}

// GET /quiz-sets/{setId}/stats
func QuizSetStatsHandler(cs *content.Service) http.HandlerFunc {
	return withUserAndID("setId", func(w http.ResponseWriter, r *http.Request, uid, setID int64) {
		st, err := cs.Stats(r.Context(), uid, setID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeOK(w, st)
	})
}
