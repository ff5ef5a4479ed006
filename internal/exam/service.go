package exam

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ResumePolicy decides what happens to started_at when a student re-enters an
// attempt that is already started.
type ResumePolicy int

const (
	// ResumeResets overwrites started_at on every start call.
	ResumeResets ResumePolicy = iota
	// ResumePreserves keeps the first started_at across resumes, so elapsed
	// time is measured from the original start.
	ResumePreserves
)

// Service is the exam lifecycle engine. It gatekeeps every student and
// teacher transition against the exam's time window, the assignment graph and
// ownership, and owns score computation.
type Service struct {
	store  Store
	now    func() time.Time
	log    *logrus.Entry
	resume ResumePolicy
}

func NewService(store Store, now func() time.Time, log *logrus.Entry, resume ResumePolicy) *Service {
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Service{store: store, now: now, log: log, resume: resume}
}

/* ---------------- Student lifecycle ---------------- */

// CanStudentTakeExam is the eligibility predicate: the exam exists, now is
// inside [start, end] (both inclusive), the student is assigned, and the
// student has no completed attempt. Callers get a bare boolean; the failed
// clause is only logged.
func (s *Service) CanStudentTakeExam(ctx context.Context, examID, studentID string) (bool, error) {
	deny := func(clause string) (bool, error) {
		s.log.WithFields(logrus.Fields{
			"exam_id":    examID,
			"student_id": studentID,
			"clause":     clause,
		}).Debug("exam eligibility denied")
		return false, nil
	}

	e, err := s.store.GetExam(ctx, examID)
	if err == ErrNotFound {
		return deny("exam_missing")
	}
	if err != nil {
		return false, err
	}

	now := s.now().Unix()
	if now < e.StartTime || now > e.EndTime {
		return deny("outside_window")
	}

	assigned, err := s.store.IsAssigned(ctx, examID, studentID)
	if err != nil {
		return false, err
	}
	if !assigned {
		return deny("not_assigned")
	}

	a, err := s.store.GetAttemptForStudent(ctx, examID, studentID)
	if err != nil && err != ErrNotFound {
		return false, err
	}
	if err == nil && a.Completed {
		return deny("already_completed")
	}
	return true, nil
}

// StartExam creates or re-enters the student's attempt and returns the exam
// with its questions, correct options stripped. Ineligible students get
// ErrNotEligible with no further detail.
func (s *Service) StartExam(ctx context.Context, examID, studentID string) (*ExamWithQuestions, error) {
	ok, err := s.CanStudentTakeExam(ctx, examID, studentID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotEligible
	}

	a, err := s.store.StartAttempt(ctx, Attempt{
		ExamID:    examID,
		StudentID: studentID,
		StartedAt: s.now().Unix(),
	}, s.resume == ResumePreserves)
	if err != nil {
		return nil, err
	}

	e, err := s.store.GetExam(ctx, examID)
	if err != nil {
		return nil, err
	}
	qs, err := s.store.ListQuestions(ctx, examID)
	if err != nil {
		return nil, err
	}
	for i := range qs {
		qs[i] = stripKey(qs[i])
	}
	return &ExamWithQuestions{Exam: e, Attempt: a, Questions: qs}, nil
}

// SaveAnswer records the student's selected option for one question,
// overwriting any previous selection. Correctness is derived here, at write
// time; scoring waits for submission.
func (s *Service) SaveAnswer(ctx context.Context, attemptID, studentID, questionID, selected string) error {
	a, err := s.store.GetAttempt(ctx, attemptID)
	if err != nil {
		return err
	}
	if a.StudentID != studentID {
		return ErrForbidden
	}
	if a.Completed {
		return ErrAlreadySubmitted
	}
	q, err := s.store.GetQuestion(ctx, questionID)
	if err != nil {
		return err
	}
	// A question from another exam does not exist as far as this attempt is
	// concerned; letting it through would inflate CountCorrect past the
	// exam's own question count.
	if q.ExamID != a.ExamID {
		return ErrNotFound
	}
	if !ValidOption(selected, q.OptionCount) {
		return ErrInvalidOption
	}
	return s.store.UpsertAnswer(ctx, Answer{
		AttemptID:  attemptID,
		QuestionID: questionID,
		Selected:   selected,
		IsCorrect:  selected == q.CorrectOption,
	})
}

// Submit finalizes the attempt: completed, finished_at, and the score as a
// rounded percentage of correct answers over the exam's live question count.
// Submitting a completed attempt is a no-op returning the stored result.
func (s *Service) Submit(ctx context.Context, attemptID, studentID string) (*Attempt, error) {
	a, err := s.store.GetAttempt(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if a.StudentID != studentID {
		return nil, ErrForbidden
	}
	if a.Completed {
		return &a, nil
	}

	score, err := s.computeScore(ctx, a)
	if err != nil {
		return nil, err
	}
	if err := s.store.FinishAttempt(ctx, a.ID, s.now().Unix(), score); err != nil {
		return nil, err
	}
	done, err := s.store.GetAttempt(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	return &done, nil
}

func (s *Service) computeScore(ctx context.Context, a Attempt) (int, error) {
	total, err := s.store.CountQuestions(ctx, a.ExamID)
	if err != nil {
		return 0, err
	}
	if total == 0 {
		return 0, nil
	}
	correct, err := s.store.CountCorrect(ctx, a.ID)
	if err != nil {
		return 0, err
	}
	return int(math.Round(float64(correct) / float64(total) * 100)), nil
}

/* ---------------- Teacher-side lifecycle ---------------- */

// ownedExam loads the exam and enforces ownership.
func (s *Service) ownedExam(ctx context.Context, examID, teacherID string) (Exam, error) {
	e, err := s.store.GetExam(ctx, examID)
	if err != nil {
		return Exam{}, err
	}
	if e.TeacherID != teacherID {
		return Exam{}, ErrForbidden
	}
	return e, nil
}

// mutableExam additionally enforces the pre-start freeze: once the window
// opens the exam's structure is immutable.
func (s *Service) mutableExam(ctx context.Context, examID, teacherID string) (Exam, error) {
	e, err := s.ownedExam(ctx, examID, teacherID)
	if err != nil {
		return Exam{}, err
	}
	if s.now().Unix() >= e.StartTime {
		return Exam{}, ErrExamLocked
	}
	return e, nil
}

func (s *Service) CreateExam(ctx context.Context, e Exam) (Exam, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.EndTime <= e.StartTime {
		return Exam{}, ErrInvalidExam
	}
	owner, err := s.store.CourseTeacher(ctx, e.CourseID)
	if err != nil {
		return Exam{}, err
	}
	if owner != e.TeacherID {
		return Exam{}, ErrForbidden
	}
	e.CreatedAt = s.now().Unix()
	if err := s.store.PutExam(ctx, e); err != nil {
		return Exam{}, err
	}
	return e, nil
}

func (s *Service) UpdateExam(ctx context.Context, teacherID string, e Exam) (Exam, error) {
	cur, err := s.mutableExam(ctx, e.ID, teacherID)
	if err != nil {
		return Exam{}, err
	}
	if e.EndTime <= e.StartTime {
		return Exam{}, ErrInvalidExam
	}
	// course and teacher bindings are fixed at creation
	e.CourseID = cur.CourseID
	e.TeacherID = cur.TeacherID
	e.CreatedAt = cur.CreatedAt
	if err := s.store.UpdateExam(ctx, e); err != nil {
		return Exam{}, err
	}
	return e, nil
}

// DeleteExam is permitted strictly before start: a finished exam is history,
// an in-progress one has live attempts. Questions, attempts and assignments
// go with it via cascade.
func (s *Service) DeleteExam(ctx context.Context, examID, teacherID string) error {
	e, err := s.ownedExam(ctx, examID, teacherID)
	if err != nil {
		return err
	}
	now := s.now().Unix()
	if now > e.EndTime || now >= e.StartTime {
		return ErrExamLocked
	}
	return s.store.DeleteExam(ctx, examID)
}

func validateQuestion(q Question) error {
	if q.OptionCount < MinOptionCount || q.OptionCount > MaxOptionCount {
		return fmt.Errorf("%w: option count must be %d or %d", ErrInvalidQuestion, MinOptionCount, MaxOptionCount)
	}
	if !ValidOption(q.CorrectOption, q.OptionCount) {
		return ErrInvalidQuestion
	}
	return nil
}

func (s *Service) AddQuestion(ctx context.Context, teacherID string, q Question) (Question, error) {
	e, err := s.mutableExam(ctx, q.ExamID, teacherID)
	if err != nil {
		return Question{}, err
	}
	if err := validateQuestion(q); err != nil {
		return Question{}, err
	}
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	q.CourseID = e.CourseID
	if err := s.store.PutQuestion(ctx, q); err != nil {
		return Question{}, err
	}
	return q, nil
}

func (s *Service) UpdateQuestion(ctx context.Context, teacherID string, q Question) (Question, error) {
	cur, err := s.store.GetQuestion(ctx, q.ID)
	if err != nil {
		return Question{}, err
	}
	if _, err := s.mutableExam(ctx, cur.ExamID, teacherID); err != nil {
		return Question{}, err
	}
	if err := validateQuestion(q); err != nil {
		return Question{}, err
	}
	q.ExamID = cur.ExamID
	q.CourseID = cur.CourseID
	if err := s.store.UpdateQuestion(ctx, q); err != nil {
		return Question{}, err
	}
	return q, nil
}

// SetQuestionImage records a stored image key on a question and returns the
// key it replaced, so the caller can release the old blob.
func (s *Service) SetQuestionImage(ctx context.Context, questionID, teacherID, imagePath string) (string, error) {
	cur, err := s.store.GetQuestion(ctx, questionID)
	if err != nil {
		return "", err
	}
	if _, err := s.mutableExam(ctx, cur.ExamID, teacherID); err != nil {
		return "", err
	}
	old := cur.ImagePath
	cur.ImagePath = imagePath
	if err := s.store.UpdateQuestion(ctx, cur); err != nil {
		return "", err
	}
	return old, nil
}

func (s *Service) DeleteQuestion(ctx context.Context, questionID, teacherID string) error {
	q, err := s.store.GetQuestion(ctx, questionID)
	if err != nil {
		return err
	}
	if _, err := s.mutableExam(ctx, q.ExamID, teacherID); err != nil {
		return err
	}
	return s.store.DeleteQuestion(ctx, questionID)
}

/* ---------------- Reads for collaborators ---------------- */

func (s *Service) GetExam(ctx context.Context, examID string) (Exam, error) {
	return s.store.GetExam(ctx, examID)
}

func (s *Service) ExamsForTeacher(ctx context.Context, teacherID string) ([]Exam, error) {
	return s.store.ListExamsByTeacher(ctx, teacherID)
}

func (s *Service) ExamsForCourse(ctx context.Context, courseID string) ([]Exam, error) {
	return s.store.ListExamsByCourse(ctx, courseID)
}

func (s *Service) ActiveExamsFor(ctx context.Context, studentID string) ([]Exam, error) {
	return s.store.ListActiveExamsForStudent(ctx, studentID, s.now().Unix())
}

func (s *Service) UpcomingExamsFor(ctx context.Context, studentID string) ([]Exam, error) {
	return s.store.ListUpcomingExamsForStudent(ctx, studentID, s.now().Unix())
}

// ExamQuestions returns the full question rows including correct options; the
// caller is a teacher/export surface, not a student.
func (s *Service) ExamQuestions(ctx context.Context, examID, teacherID string) ([]Question, error) {
	if _, err := s.ownedExam(ctx, examID, teacherID); err != nil {
		return nil, err
	}
	return s.store.ListQuestions(ctx, examID)
}

// ExamResults lists every attempt against the exam, for the teacher's result
// view and the spreadsheet exporter.
func (s *Service) ExamResults(ctx context.Context, examID, teacherID string) ([]Attempt, error) {
	if _, err := s.ownedExam(ctx, examID, teacherID); err != nil {
		return nil, err
	}
	return s.store.ListAttemptsByExam(ctx, examID)
}

// StudentResult returns one student's attempt for an exam, if any.
func (s *Service) StudentResult(ctx context.Context, examID, studentID string) (Attempt, error) {
	return s.store.GetAttemptForStudent(ctx, examID, studentID)
}

func (s *Service) ResultsForStudent(ctx context.Context, studentID string) ([]Attempt, error) {
	return s.store.ListAttemptsByStudent(ctx, studentID)
}

// AttemptAnswers returns the answer ledger for an attempt. Students may only
// read their own; the attempt's exam owner may read any.
func (s *Service) AttemptAnswers(ctx context.Context, attemptID, callerID string) ([]Answer, error) {
	a, err := s.store.GetAttempt(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if a.StudentID != callerID {
		e, err := s.store.GetExam(ctx, a.ExamID)
		if err != nil {
			return nil, err
		}
		if e.TeacherID != callerID {
			return nil, ErrForbidden
		}
	}
	return s.store.ListAnswers(ctx, attemptID)
}

/* ---------------- Assignment ---------------- */

// ReplaceAssignments swaps the exam's roster for the given student set in one
// transaction, so a partial failure cannot leave a mixed roster. Like the
// other structural mutations it is only allowed before the window opens;
// swapping the roster mid-window would strip assignments from students with
// attempts in flight.
func (s *Service) ReplaceAssignments(ctx context.Context, examID, teacherID string, studentIDs []string) error {
	if _, err := s.mutableExam(ctx, examID, teacherID); err != nil {
		return err
	}
	return s.store.ReplaceAssignments(ctx, examID, studentIDs, s.now().Unix())
}

func (s *Service) AssignedStudents(ctx context.Context, examID, teacherID string) ([]Assignment, error) {
	if _, err := s.ownedExam(ctx, examID, teacherID); err != nil {
		return nil, err
	}
	return s.store.ListAssignments(ctx, examID)
}
