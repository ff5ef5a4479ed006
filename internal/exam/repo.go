package exam

import "context"

// BankSearchOpts filters a teacher's question bank. TeacherID is mandatory;
// the rest narrow the result.
type BankSearchOpts struct {
	TeacherID  string
	Term       string // matches question text or tags
	Difficulty string
	CourseID   string
}

// Store is the persistence boundary for the exam core. Implementations must
// back the three composite uniqueness constraints — attempts(exam, student),
// exam_students(exam, student), answers(attempt, question) — and cascade
// deletes from exam to questions/attempts/assignments and from attempt to
// answers. Those constraints are the only concurrency-correctness mechanism;
// no method takes application-level locks.
type Store interface {
	// Exams
	PutExam(ctx context.Context, e Exam) error
	UpdateExam(ctx context.Context, e Exam) error
	GetExam(ctx context.Context, id string) (Exam, error)
	DeleteExam(ctx context.Context, id string) error
	ListExamsByTeacher(ctx context.Context, teacherID string) ([]Exam, error)
	ListExamsByCourse(ctx context.Context, courseID string) ([]Exam, error)
	// Active: assigned, inside [start,end], not yet completed by the student.
	// Upcoming: assigned, start still in the future, not completed.
	ListActiveExamsForStudent(ctx context.Context, studentID string, now int64) ([]Exam, error)
	ListUpcomingExamsForStudent(ctx context.Context, studentID string, now int64) ([]Exam, error)
	// CourseTeacher resolves the owning teacher of a course, ErrNotFound when
	// the course does not exist.
	CourseTeacher(ctx context.Context, courseID string) (string, error)

	// Questions
	PutQuestion(ctx context.Context, q Question) error
	PutQuestions(ctx context.Context, qs []Question) error // single transaction
	UpdateQuestion(ctx context.Context, q Question) error
	GetQuestion(ctx context.Context, id string) (Question, error)
	DeleteQuestion(ctx context.Context, id string) error
	ListQuestions(ctx context.Context, examID string) ([]Question, error)
	ListQuestionsByCourse(ctx context.Context, courseID string) ([]Question, error)
	CountQuestions(ctx context.Context, examID string) (int, error)

	// Question bank
	PutBankQuestion(ctx context.Context, b BankQuestion) error
	UpdateBankQuestion(ctx context.Context, b BankQuestion) error
	GetBankQuestion(ctx context.Context, id string) (BankQuestion, error)
	DeleteBankQuestion(ctx context.Context, id string) error
	SearchBank(ctx context.Context, opts BankSearchOpts) ([]BankQuestion, error)

	// Exam assignments
	IsAssigned(ctx context.Context, examID, studentID string) (bool, error)
	// ReplaceAssignments swaps the whole roster in one transaction.
	ReplaceAssignments(ctx context.Context, examID string, studentIDs []string, at int64) error
	ListAssignments(ctx context.Context, examID string) ([]Assignment, error)

	// Attempts
	GetAttempt(ctx context.Context, id string) (Attempt, error)
	GetAttemptForStudent(ctx context.Context, examID, studentID string) (Attempt, error)
	// StartAttempt creates the (exam, student) attempt or, when it already
	// exists, re-enters it. With preserveStart the original started_at is
	// kept across resumes; otherwise it is overwritten. Concurrent calls
	// resolve through the unique constraint as an update, never an error.
	StartAttempt(ctx context.Context, a Attempt, preserveStart bool) (Attempt, error)
	FinishAttempt(ctx context.Context, id string, finishedAt int64, score int) error
	ListAttemptsByExam(ctx context.Context, examID string) ([]Attempt, error)
	ListAttemptsByStudent(ctx context.Context, studentID string) ([]Attempt, error)
	// ListExpiredAttempts returns started, uncompleted attempts whose exam
	// end time has passed. Consumed by the sweeper.
	ListExpiredAttempts(ctx context.Context, now int64) ([]Attempt, error)

	// Answers
	UpsertAnswer(ctx context.Context, a Answer) error
	ListAnswers(ctx context.Context, attemptID string) ([]Answer, error)
	CountCorrect(ctx context.Context, attemptID string) (int, error)
}
