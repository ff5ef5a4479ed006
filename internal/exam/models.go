package exam

// Option letters are single uppercase characters "A".."E". A question declares
// either 4 or 5 options; "E" is only valid when OptionCount is 5.
const (
	MinOptionCount = 4
	MaxOptionCount = 5
)

var optionLetters = []string{"A", "B", "C", "D", "E"}

// ValidOption reports whether letter addresses one of the question's declared
// options.
func ValidOption(letter string, optionCount int) bool {
	if optionCount < MinOptionCount || optionCount > MaxOptionCount {
		return false
	}
	for i := 0; i < optionCount; i++ {
		if optionLetters[i] == letter {
			return true
		}
	}
	return false
}

type Exam struct {
	ID                  string `json:"id"`
	Title               string `json:"title" validate:"required,max=200"`
	CourseID            string `json:"course_id" validate:"required"`
	TeacherID           string `json:"teacher_id"`
	StartTime           int64  `json:"start_time"` // unix seconds
	EndTime             int64  `json:"end_time"`
	ExamType            string `json:"exam_type,omitempty" validate:"max=50"` // free text, e.g. "Midterm"
	AllowBackNavigation bool   `json:"allow_back_navigation"`
	CreatedAt           int64  `json:"created_at,omitempty"`
}

type Question struct {
	ID            string `json:"id"`
	ExamID        string `json:"exam_id"`
	Text          string `json:"text" validate:"required"`
	ImagePath     string `json:"image_path,omitempty"`
	OptionCount   int    `json:"option_count" validate:"min=4,max=5"`
	OptionA       string `json:"option_a" validate:"required,max=300"`
	OptionB       string `json:"option_b" validate:"required,max=300"`
	OptionC       string `json:"option_c" validate:"required,max=300"`
	OptionD       string `json:"option_d" validate:"required,max=300"`
	OptionE       string `json:"option_e,omitempty" validate:"max=300"`
	CorrectOption string `json:"correct_option,omitempty"` // stripped in student views
	CourseID      string `json:"course_id,omitempty"`      // originating course, for cross-exam reuse
}

// BankQuestion is a teacher-owned, course-scoped template. Copies between the
// bank and live exams are always by value; a bank row never references a
// Question after creation.
type BankQuestion struct {
	ID            string `json:"id"`
	TeacherID     string `json:"teacher_id"`
	CourseID      string `json:"course_id" validate:"required"`
	Text          string `json:"text" validate:"required"`
	ImagePath     string `json:"image_path,omitempty"`
	OptionCount   int    `json:"option_count" validate:"min=4,max=5"`
	OptionA       string `json:"option_a" validate:"required,max=300"`
	OptionB       string `json:"option_b" validate:"required,max=300"`
	OptionC       string `json:"option_c" validate:"required,max=300"`
	OptionD       string `json:"option_d" validate:"required,max=300"`
	OptionE       string `json:"option_e,omitempty" validate:"max=300"`
	CorrectOption string `json:"correct_option"`
	Points        int    `json:"points"`
	Difficulty    string `json:"difficulty,omitempty" validate:"max=20"`
	Tags          string `json:"tags,omitempty" validate:"max=200"`
	CreatedAt     int64  `json:"created_at,omitempty"`
}

// Attempt is one student's engagement with one exam; unique per
// (exam, student). Completed implies FinishedAt and Score are set.
type Attempt struct {
	ID         string `json:"id"`
	ExamID     string `json:"exam_id"`
	StudentID  string `json:"student_id"`
	StartedAt  int64  `json:"started_at"`
	FinishedAt int64  `json:"finished_at,omitempty"`
	Completed  bool   `json:"completed"`
	Score      int    `json:"score"` // integer percentage 0..100, meaningful once Completed
}

// Answer is the per-attempt, per-question selected option; unique per
// (attempt, question). IsCorrect is derived at write time.
type Answer struct {
	ID         string `json:"id"`
	AttemptID  string `json:"attempt_id"`
	QuestionID string `json:"question_id"`
	Selected   string `json:"selected"`
	IsCorrect  bool   `json:"is_correct"`
}

// Assignment grants a student eligibility for one exam; unique per
// (exam, student). Presence is necessary but not sufficient to start.
type Assignment struct {
	ExamID     string `json:"exam_id"`
	StudentID  string `json:"student_id"`
	AssignedAt int64  `json:"assigned_at"`
}

// ExamWithQuestions is the aggregate returned to a student on start/resume.
type ExamWithQuestions struct {
	Exam      Exam       `json:"exam"`
	Attempt   Attempt    `json:"attempt"`
	Questions []Question `json:"questions"`
}

// CopyResult reports the outcome of a bulk copy: how many rows were created
// and how many were skipped as duplicates of existing question text.
type CopyResult struct {
	Added   int `json:"added"`
	Skipped int `json:"skipped"`
}

// stripKey clears grading fields from a question served to a student.
func stripKey(q Question) Question {
	q.CorrectOption = ""
	return q
}
