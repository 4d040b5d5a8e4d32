package http

import (
	"net/http"

	"github.com/mind-engage/mindengage-quiz/internal/exam"
	"github.com/mind-engage/mindengage-quiz/internal/practice"
	"github.com/mind-engage/mindengage-quiz/internal/rbac"
)

// POST /quiz-sets/{setId}/exams
func CreateExamHandler(es *exam.Service) http.HandlerFunc {
	return withUserAndID("setId", func(w http.ResponseWriter, r *http.Request, uid, setID int64) {
		var in exam.CreateInput
		if err := decodeJSON(r, &in); err != nil {
			writeError(w, r, err)
			return
		}
		e, err := es.Create(r.Context(), uid, setID, in)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeCreated(w, e)
	})
}

// POST /exams/{examId}/start
func StartExamHandler(es *exam.Service) http.HandlerFunc {
	return withUserAndID("examId", func(w http.ResponseWriter, r *http.Request, uid, examID int64) {
		res, err := es.Start(r.Context(), uid, examID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeOK(w, res)
	})
}

type submitExamRequest struct {
	Answers []exam.Answer `json:"answers"`
}

// POST /exams/{examId}/submit
func SubmitExamHandler(es *exam.Service) http.HandlerFunc {
	return withUserAndID("examId", func(w http.ResponseWriter, r *http.Request, uid, examID int64) {
		var req submitExamRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		res, err := es.Submit(r.Context(), uid, examID, req.Answers)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeOK(w, res)
	})
}

// GET /exams/{examId}/results
func ExamResultsHandler(es *exam.Service) http.HandlerFunc {
	return withUserAndID("examId", func(w http.ResponseWriter, r *http.Request, uid, examID int64) {
		var (
			res exam.Results
			err error
		)
		if rbac.Allowed(r.Context(), "exam:view-all") {
			res, err = es.ResultsAny(r.Context(), examID)
		} else {
			res, err = es.Results(r.Context(), uid, examID)
		}
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeOK(w, res)
	})
}

// GET /exams
func ListExamsHandler(es *exam.Service) http.HandlerFunc {
	return withUser(func(w http.ResponseWriter, r *http.Request, uid int64) {
		list, err := es.List(r.Context(), uid)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeOK(w, list)
	})
}

// GET /admin/exams/overdue
func OverdueExamsHandler(es *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := es.Overdue(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeOK(w, list)
	}
}

// POST /questions/{questionId}/submit  {"selectedOptions":[...]}
func PracticeSubmitHandler(ps *practice.Service) http.HandlerFunc {
	return withUserAndID("questionId", func(w http.ResponseWriter, r *http.Request, uid, qid int64) {
		var req struct {
			SelectedOptions []int64 `json:"selectedOptions"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		res, err := ps.Submit(r.Context(), uid, qid, req.SelectedOptions)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeOK(w, res)
	})
}
