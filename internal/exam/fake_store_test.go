package exam

import (
	"context"
	"sort"
	"strconv"
	"strings"
)

// fakeStore is an in-memory Store for service tests. It mirrors the composite
// uniqueness rules: attempts keyed by (exam, student), answers by
// (attempt, question), assignments by (exam, student).
type fakeStore struct {
	exams       map[string]Exam
	courses     map[string]string // courseID -> owning teacherID
	questions   map[string]Question
	bank        map[string]BankQuestion
	assignments map[string]map[string]int64 // examID -> studentID -> assignedAt
	attempts    map[string]Attempt          // by attempt ID
	answers     map[string]map[string]Answer

	nextAttemptID int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		exams:       map[string]Exam{},
		courses:     map[string]string{},
		questions:   map[string]Question{},
		bank:        map[string]BankQuestion{},
		assignments: map[string]map[string]int64{},
		attempts:    map[string]Attempt{},
		answers:     map[string]map[string]Answer{},
	}
}

func (f *fakeStore) PutExam(_ context.Context, e Exam) error {
	f.exams[e.ID] = e
	return nil
}

func (f *fakeStore) CourseTeacher(_ context.Context, courseID string) (string, error) {
	owner, ok := f.courses[courseID]
	if !ok {
		return "", ErrNotFound
	}
	return owner, nil
}

func (f *fakeStore) UpdateExam(_ context.Context, e Exam) error {
	if _, ok := f.exams[e.ID]; !ok {
		return ErrNotFound
	}
	f.exams[e.ID] = e
	return nil
}

func (f *fakeStore) GetExam(_ context.Context, id string) (Exam, error) {
	e, ok := f.exams[id]
	if !ok {
		return Exam{}, ErrNotFound
	}
	return e, nil
}

func (f *fakeStore) DeleteExam(_ context.Context, id string) error {
	if _, ok := f.exams[id]; !ok {
		return ErrNotFound
	}
	delete(f.exams, id)
	for qid, q := range f.questions {
		if q.ExamID == id {
			delete(f.questions, qid)
		}
	}
	delete(f.assignments, id)
	for aid, a := range f.attempts {
		if a.ExamID == id {
			delete(f.attempts, aid)
			delete(f.answers, aid)
		}
	}
	return nil
}

func (f *fakeStore) ListExamsByTeacher(_ context.Context, teacherID string) ([]Exam, error) {
	var out []Exam
	for _, e := range f.exams {
		if e.TeacherID == teacherID {
			out = append(out, e)
		}
	}
	sortExams(out)
	return out, nil
}

func (f *fakeStore) ListExamsByCourse(_ context.Context, courseID string) ([]Exam, error) {
	var out []Exam
	for _, e := range f.exams {
		if e.CourseID == courseID {
			out = append(out, e)
		}
	}
	sortExams(out)
	return out, nil
}

func (f *fakeStore) ListActiveExamsForStudent(_ context.Context, studentID string, now int64) ([]Exam, error) {
	var out []Exam
	for _, e := range f.exams {
		if f.assignments[e.ID][studentID] == 0 {
			continue
		}
		if now < e.StartTime || now > e.EndTime {
			continue
		}
		if a, ok := f.attemptFor(e.ID, studentID); ok && a.Completed {
			continue
		}
		out = append(out, e)
	}
	sortExams(out)
	return out, nil
}

func (f *fakeStore) ListUpcomingExamsForStudent(_ context.Context, studentID string, now int64) ([]Exam, error) {
	var out []Exam
	for _, e := range f.exams {
		if f.assignments[e.ID][studentID] == 0 {
			continue
		}
		if e.StartTime <= now {
			continue
		}
		out = append(out, e)
	}
	sortExams(out)
	return out, nil
}

func (f *fakeStore) PutQuestion(_ context.Context, q Question) error {
	f.questions[q.ID] = q
	return nil
}

func (f *fakeStore) PutQuestions(_ context.Context, qs []Question) error {
	for _, q := range qs {
		f.questions[q.ID] = q
	}
	return nil
}

func (f *fakeStore) UpdateQuestion(_ context.Context, q Question) error {
	if _, ok := f.questions[q.ID]; !ok {
		return ErrNotFound
	}
	f.questions[q.ID] = q
	return nil
}

func (f *fakeStore) GetQuestion(_ context.Context, id string) (Question, error) {
	q, ok := f.questions[id]
	if !ok {
		return Question{}, ErrNotFound
	}
	return q, nil
}

func (f *fakeStore) DeleteQuestion(_ context.Context, id string) error {
	if _, ok := f.questions[id]; !ok {
		return ErrNotFound
	}
	delete(f.questions, id)
	return nil
}

func (f *fakeStore) ListQuestions(_ context.Context, examID string) ([]Question, error) {
	var out []Question
	for _, q := range f.questions {
		if q.ExamID == examID {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) ListQuestionsByCourse(_ context.Context, courseID string) ([]Question, error) {
	var out []Question
	for _, q := range f.questions {
		if q.CourseID == courseID {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) CountQuestions(_ context.Context, examID string) (int, error) {
	n := 0
	for _, q := range f.questions {
		if q.ExamID == examID {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) PutBankQuestion(_ context.Context, b BankQuestion) error {
	f.bank[b.ID] = b
	return nil
}

func (f *fakeStore) UpdateBankQuestion(_ context.Context, b BankQuestion) error {
	if _, ok := f.bank[b.ID]; !ok {
		return ErrNotFound
	}
	f.bank[b.ID] = b
	return nil
}

func (f *fakeStore) GetBankQuestion(_ context.Context, id string) (BankQuestion, error) {
	b, ok := f.bank[id]
	if !ok {
		return BankQuestion{}, ErrNotFound
	}
	return b, nil
}

func (f *fakeStore) DeleteBankQuestion(_ context.Context, id string) error {
	if _, ok := f.bank[id]; !ok {
		return ErrNotFound
	}
	delete(f.bank, id)
	return nil
}

func (f *fakeStore) SearchBank(_ context.Context, opts BankSearchOpts) ([]BankQuestion, error) {
	var out []BankQuestion
	for _, b := range f.bank {
		if b.TeacherID != opts.TeacherID {
			continue
		}
		if opts.CourseID != "" && b.CourseID != opts.CourseID {
			continue
		}
		if opts.Difficulty != "" && b.Difficulty != opts.Difficulty {
			continue
		}
		if opts.Term != "" && !strings.Contains(b.Text, opts.Term) && !strings.Contains(b.Tags, opts.Term) {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) IsAssigned(_ context.Context, examID, studentID string) (bool, error) {
	return f.assignments[examID][studentID] != 0, nil
}

func (f *fakeStore) ReplaceAssignments(_ context.Context, examID string, studentIDs []string, at int64) error {
	m := map[string]int64{}
	for _, id := range studentIDs {
		m[id] = at
	}
	f.assignments[examID] = m
	return nil
}

func (f *fakeStore) ListAssignments(_ context.Context, examID string) ([]Assignment, error) {
	var out []Assignment
	for sid, at := range f.assignments[examID] {
		out = append(out, Assignment{ExamID: examID, StudentID: sid, AssignedAt: at})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StudentID < out[j].StudentID })
	return out, nil
}

func (f *fakeStore) attemptFor(examID, studentID string) (Attempt, bool) {
	for _, a := range f.attempts {
		if a.ExamID == examID && a.StudentID == studentID {
			return a, true
		}
	}
	return Attempt{}, false
}

func (f *fakeStore) GetAttempt(_ context.Context, id string) (Attempt, error) {
	a, ok := f.attempts[id]
	if !ok {
		return Attempt{}, ErrNotFound
	}
	return a, nil
}

func (f *fakeStore) GetAttemptForStudent(_ context.Context, examID, studentID string) (Attempt, error) {
	if a, ok := f.attemptFor(examID, studentID); ok {
		return a, nil
	}
	return Attempt{}, ErrNotFound
}

func (f *fakeStore) StartAttempt(_ context.Context, a Attempt, preserveStart bool) (Attempt, error) {
	if cur, ok := f.attemptFor(a.ExamID, a.StudentID); ok {
		if !preserveStart {
			cur.StartedAt = a.StartedAt
			f.attempts[cur.ID] = cur
		}
		return f.attempts[cur.ID], nil
	}
	f.nextAttemptID++
	a.ID = "att-" + strconv.Itoa(f.nextAttemptID)
	f.attempts[a.ID] = a
	return a, nil
}

func (f *fakeStore) FinishAttempt(_ context.Context, id string, finishedAt int64, score int) error {
	a, ok := f.attempts[id]
	if !ok {
		return ErrNotFound
	}
	a.Completed = true
	a.FinishedAt = finishedAt
	a.Score = score
	f.attempts[id] = a
	return nil
}

func (f *fakeStore) ListAttemptsByExam(_ context.Context, examID string) ([]Attempt, error) {
	var out []Attempt
	for _, a := range f.attempts {
		if a.ExamID == examID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) ListAttemptsByStudent(_ context.Context, studentID string) ([]Attempt, error) {
	var out []Attempt
	for _, a := range f.attempts {
		if a.StudentID == studentID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) ListExpiredAttempts(_ context.Context, now int64) ([]Attempt, error) {
	var out []Attempt
	for _, a := range f.attempts {
		if a.Completed {
			continue
		}
		if e, ok := f.exams[a.ExamID]; ok && e.EndTime < now {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) UpsertAnswer(_ context.Context, a Answer) error {
	m, ok := f.answers[a.AttemptID]
	if !ok {
		m = map[string]Answer{}
		f.answers[a.AttemptID] = m
	}
	if cur, ok := m[a.QuestionID]; ok {
		a.ID = cur.ID
	} else if a.ID == "" {
		a.ID = a.AttemptID + "/" + a.QuestionID
	}
	m[a.QuestionID] = a
	return nil
}

func (f *fakeStore) ListAnswers(_ context.Context, attemptID string) ([]Answer, error) {
	var out []Answer
	for _, a := range f.answers[attemptID] {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuestionID < out[j].QuestionID })
	return out, nil
}

func (f *fakeStore) CountCorrect(_ context.Context, attemptID string) (int, error) {
	n := 0
	for _, a := range f.answers[attemptID] {
		if a.IsCorrect {
			n++
		}
	}
	return n, nil
}

func sortExams(es []Exam) {
	sort.Slice(es, func(i, j int) bool { return es[i].ID < es[j].ID })
}
