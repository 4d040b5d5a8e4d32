package exam

import "time"

type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// Exam is a timed attempt at a sample of a quiz set. StartedAt is set once on
// start; EndedAt and Score only once the exam is completed.
type Exam struct {
	ID              int64      `json:"id"`
	QuizSetID       int64      `json:"quizSetId"`
	QuizSetTitle    string     `json:"quizSetTitle,omitempty"`
	UserID          int64      `json:"userId"`
	Title           string     `json:"title"`
	DurationMinutes int        `json:"durationMinutes"`
	TotalQuestions  int        `json:"totalQuestions"`
	StartedAt       *time.Time `json:"startedAt"`
	EndedAt         *time.Time `json:"endedAt"`
	Score           *float64   `json:"score"`
	Status          Status     `json:"status"`
	CreatedAt       time.Time  `json:"createdAt"`
}

type CreateInput struct {
	Title           string `json:"title"`
	DurationMinutes int    `json:"durationMinutes"`
	QuestionCount   int    `json:"questionCount"`
}

// Answer is one submitted response. An empty selection is an unanswered
// question and scores as incorrect.
type Answer struct {
	QuestionID      int64   `json:"questionId"`
	SelectedOptions []int64 `json:"selectedOptions"`
}

// OptionView is an option as shown during an attempt: no correctness flag.
type OptionView struct {
	ID   int64  `json:"id"`
	Text string `json:"text"`
}

type QuestionView struct {
	ID           int64        `json:"id"`
	QuestionText string       `json:"questionText"`
	QuestionType string       `json:"questionType"`
	ImageURL     *string      `json:"imageUrl"`
	Options      []OptionView `json:"options"`
}

type StartResult struct {
	ExamID          int64          `json:"examId"`
	Title           string         `json:"title"`
	DurationMinutes int            `json:"durationMinutes"`
	StartedAt       time.Time      `json:"startedAt"`
	Questions       []QuestionView `json:"questions"`
}

type SubmitResult struct {
	ExamID         int64     `json:"examId"`
	TotalQuestions int       `json:"totalQuestions"`
	CorrectCount   int       `json:"correctCount"`
	Score          float64   `json:"score"`
	CompletedAt    time.Time `json:"completedAt"`
}

type ResultOption struct {
	ID        int64  `json:"id"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"isCorrect"`
}

type AnswerDetail struct {
	QuestionID      int64          `json:"questionId"`
	QuestionText    string         `json:"questionText"`
	Explanation     string         `json:"explanation"`
	SelectedOptions []int64        `json:"selectedOptions"`
	IsCorrect       bool           `json:"isCorrect"`
	Options         []ResultOption `json:"options"`
}

type Results struct {
	Exam    Exam           `json:"exam"`
	Answers []AnswerDetail `json:"answers"`
}

// answerRecord is an ExamAnswer row.
type answerRecord struct {
	QuestionID int64
	Selected   []int64
	IsCorrect  bool
}
