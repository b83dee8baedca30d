package course

import "time"

// AssessmentKind discriminates the three graded activity collections a
// lesson carries. Entry assessments gate content; trainings and exams are
// mirrored into the reporting store.
type AssessmentKind string

const (
	KindTraining AssessmentKind = "training"
	KindExam     AssessmentKind = "exam"
	KindEntry    AssessmentKind = "entry"
)

// EntryKind discriminates the entry-requirement variant.
type EntryKind string

const (
	EntryMCQ  EntryKind = "mcq"
	EntryTask EntryKind = "task"
)

type Question struct {
	Text          string   `json:"text"`
	Options       []string `json:"options"` // 2..4 choices
	CorrectAnswer int      `json:"correct_answer"`
	Explanation   string   `json:"explanation,omitempty"`
	Image         string   `json:"image,omitempty"` // opaque asset key
}

type Assessment struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	TimeLimitMinutes int        `json:"time_limit_minutes"`
	OpenDate         *time.Time `json:"open_date,omitempty"`
	CloseDate        *time.Time `json:"close_date,omitempty"`
	Questions        []Question `json:"questions"`
}

// EntryRequirement is a tagged union: exactly one of MCQ or Task is set,
// selected by Kind. Resolvers must switch on Kind exhaustively rather than
// probing optional fields.
type EntryRequirement struct {
	Kind    EntryKind   `json:"kind"`
	Enabled bool        `json:"enabled"`
	MCQ     *Assessment `json:"mcq,omitempty"`
	Task    *TaskSpec   `json:"task,omitempty"`
}

// TaskSpec describes a free-form entry task: the learner submits a link
// and/or an image, and an admin reviews it.
type TaskSpec struct {
	Description string `json:"description"`
	Image       string `json:"image,omitempty"`
}

type ContentItem struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"` // opaque asset key or external URL
}

type Lesson struct {
	ID        string            `json:"id"`
	Title     string            `json:"title"`
	Videos    []ContentItem     `json:"videos,omitempty"`
	Documents []ContentItem     `json:"documents,omitempty"`
	Exams     []Assessment      `json:"exams,omitempty"`
	Trainings []Assessment      `json:"trainings,omitempty"`
	Entry     *EntryRequirement `json:"entry,omitempty"`
}

type Unit struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Lessons []Lesson `json:"lessons"`
}

// Course is the aggregate root. Units and direct lessons are owned
// exclusively by the course; structure is mutated only through authoring
// writes. Attempt history is NOT embedded here — appends go to the attempts
// table so that two concurrent submissions can never clobber each other via
// a stale read-modify-write of the aggregate.
type Course struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Units     []Unit    `json:"units,omitempty"`
	Lessons   []Lesson  `json:"lessons,omitempty"` // direct lessons, not under any unit
	CreatedBy string    `json:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
