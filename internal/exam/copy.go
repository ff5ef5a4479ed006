package exam

import (
	"context"

	"github.com/google/uuid"
)

// The copy engine duplicates question content between live exams and the
// question bank. Every copy creates a new row; nothing is shared by
// reference.

const defaultBankPoints = 1

// SaveToBank clones an exam question into the requesting teacher's bank,
// tagged with the exam's course. The teacher must own the exam the question
// belongs to.
func (s *Service) SaveToBank(ctx context.Context, questionID, teacherID string) (BankQuestion, error) {
	q, err := s.store.GetQuestion(ctx, questionID)
	if err != nil {
		return BankQuestion{}, err
	}
	e, err := s.store.GetExam(ctx, q.ExamID)
	if err != nil {
		return BankQuestion{}, err
	}
	if e.TeacherID != teacherID {
		return BankQuestion{}, ErrForbidden
	}
	b := BankQuestion{
		ID:            uuid.NewString(),
		TeacherID:     teacherID,
		CourseID:      e.CourseID,
		Text:          q.Text,
		ImagePath:     q.ImagePath,
		OptionCount:   q.OptionCount,
		OptionA:       q.OptionA,
		OptionB:       q.OptionB,
		OptionC:       q.OptionC,
		OptionD:       q.OptionD,
		OptionE:       q.OptionE,
		CorrectOption: q.CorrectOption,
		Points:        defaultBankPoints,
		CreatedAt:     s.now().Unix(),
	}
	if err := s.store.PutBankQuestion(ctx, b); err != nil {
		return BankQuestion{}, err
	}
	return b, nil
}

func cloneFromBank(b BankQuestion, examID, courseID string) Question {
	return Question{
		ID:            uuid.NewString(),
		ExamID:        examID,
		Text:          b.Text,
		ImagePath:     b.ImagePath,
		OptionCount:   b.OptionCount,
		OptionA:       b.OptionA,
		OptionB:       b.OptionB,
		OptionC:       b.OptionC,
		OptionD:       b.OptionD,
		OptionE:       b.OptionE,
		CorrectOption: b.CorrectOption,
		CourseID:      courseID,
	}
}

// AddFromBank clones one bank entry into an exam the teacher owns. The exam
// must not have started yet, same as any structural mutation.
func (s *Service) AddFromBank(ctx context.Context, bankID, examID, teacherID string) (Question, error) {
	e, err := s.mutableExam(ctx, examID, teacherID)
	if err != nil {
		return Question{}, err
	}
	b, err := s.store.GetBankQuestion(ctx, bankID)
	if err != nil {
		return Question{}, err
	}
	q := cloneFromBank(b, examID, e.CourseID)
	if err := s.store.PutQuestion(ctx, q); err != nil {
		return Question{}, err
	}
	return q, nil
}

// AddFromBankBulk clones a set of bank entries into an exam, skipping entries
// whose text already exists there. All inserts land in one transaction.
func (s *Service) AddFromBankBulk(ctx context.Context, bankIDs []string, examID, teacherID string) (CopyResult, error) {
	e, err := s.mutableExam(ctx, examID, teacherID)
	if err != nil {
		return CopyResult{}, err
	}
	existing, err := s.existingTexts(ctx, examID)
	if err != nil {
		return CopyResult{}, err
	}

	var res CopyResult
	var batch []Question
	for _, id := range bankIDs {
		b, err := s.store.GetBankQuestion(ctx, id)
		if err == ErrNotFound {
			continue
		}
		if err != nil {
			return CopyResult{}, err
		}
		if existing[b.Text] {
			res.Skipped++
			continue
		}
		batch = append(batch, cloneFromBank(b, examID, e.CourseID))
		existing[b.Text] = true
		res.Added++
	}
	if err := s.store.PutQuestions(ctx, batch); err != nil {
		return CopyResult{}, err
	}
	return res, nil
}

// CopyQuestions reuses previously authored exam questions (not bank entries)
// in a destination exam, de-duplicated by exact text match. Returns how many
// were added and how many skipped as duplicates.
func (s *Service) CopyQuestions(ctx context.Context, destExamID, teacherID string, questionIDs []string) (CopyResult, error) {
	e, err := s.mutableExam(ctx, destExamID, teacherID)
	if err != nil {
		return CopyResult{}, err
	}
	existing, err := s.existingTexts(ctx, destExamID)
	if err != nil {
		return CopyResult{}, err
	}

	var res CopyResult
	var batch []Question
	for _, id := range questionIDs {
		src, err := s.store.GetQuestion(ctx, id)
		if err == ErrNotFound {
			continue
		}
		if err != nil {
			return CopyResult{}, err
		}
		if existing[src.Text] {
			res.Skipped++
			continue
		}
		dup := src
		dup.ID = uuid.NewString()
		dup.ExamID = destExamID
		dup.CourseID = e.CourseID
		batch = append(batch, dup)
		existing[src.Text] = true
		res.Added++
	}
	if err := s.store.PutQuestions(ctx, batch); err != nil {
		return CopyResult{}, err
	}
	return res, nil
}

// ReusableQuestions lists questions previously authored in the exam's course,
// the source pool for CopyQuestions.
func (s *Service) ReusableQuestions(ctx context.Context, courseID string) ([]Question, error) {
	return s.store.ListQuestionsByCourse(ctx, courseID)
}

func (s *Service) existingTexts(ctx context.Context, examID string) (map[string]bool, error) {
	qs, err := s.store.ListQuestions(ctx, examID)
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(qs))
	for _, q := range qs {
		set[q.Text] = true
	}
	return set, nil
}

/* ---------------- Bank CRUD ---------------- */

func (s *Service) CreateBankQuestion(ctx context.Context, b BankQuestion) (BankQuestion, error) {
	if !ValidOption(b.CorrectOption, b.OptionCount) {
		return BankQuestion{}, ErrInvalidQuestion
	}
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.Points <= 0 {
		b.Points = defaultBankPoints
	}
	b.CreatedAt = s.now().Unix()
	if err := s.store.PutBankQuestion(ctx, b); err != nil {
		return BankQuestion{}, err
	}
	return b, nil
}

func (s *Service) UpdateBankQuestion(ctx context.Context, teacherID string, b BankQuestion) (BankQuestion, error) {
	cur, err := s.store.GetBankQuestion(ctx, b.ID)
	if err != nil {
		return BankQuestion{}, err
	}
	if cur.TeacherID != teacherID {
		return BankQuestion{}, ErrForbidden
	}
	if !ValidOption(b.CorrectOption, b.OptionCount) {
		return BankQuestion{}, ErrInvalidQuestion
	}
	b.TeacherID = cur.TeacherID
	b.CourseID = cur.CourseID
	b.CreatedAt = cur.CreatedAt
	if err := s.store.UpdateBankQuestion(ctx, b); err != nil {
		return BankQuestion{}, err
	}
	return b, nil
}

func (s *Service) DeleteBankQuestion(ctx context.Context, bankID, teacherID string) error {
	cur, err := s.store.GetBankQuestion(ctx, bankID)
	if err != nil {
		return err
	}
	if cur.TeacherID != teacherID {
		return ErrForbidden
	}
	return s.store.DeleteBankQuestion(ctx, bankID)
}

func (s *Service) SearchBank(ctx context.Context, opts BankSearchOpts) ([]BankQuestion, error) {
	return s.store.SearchBank(ctx, opts)
}
