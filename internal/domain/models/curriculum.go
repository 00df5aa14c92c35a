// internal/domain/models/curriculum.go
package models

// AssignmentType classifies a curriculum assignment.
type AssignmentType string

const (
	AssignmentReading    AssignmentType = "reading"
	AssignmentReflection AssignmentType = "reflection"
	AssignmentAction     AssignmentType = "action"
	AssignmentDiscussion AssignmentType = "discussion"
	AssignmentPrayer     AssignmentType = "prayer"
)

// Valid reports whether t is a known assignment type.
func (t AssignmentType) Valid() bool {
	switch t {
	case AssignmentReading, AssignmentReflection, AssignmentAction, AssignmentDiscussion, AssignmentPrayer:
		return true
	}
	return false
}

// Week is the content shown at the top of a curriculum week.
type Week struct {
	WeekNumber         int    `bson:"week_number" json:"week_number" yaml:"week"`
	Title              string `bson:"title" json:"title" yaml:"title"`
	Description        string `bson:"description,omitempty" json:"description,omitempty" yaml:"description"`
	ScriptureReference string `bson:"scripture_reference,omitempty" json:"scripture_reference,omitempty" yaml:"scripture"`
	VideoURL           string `bson:"video_url,omitempty" json:"video_url,omitempty" yaml:"video_url"`
}

// Assignment is one catalog item. Assignments are seeded at startup and
// never modified by request handling.
type Assignment struct {
	ID          string         `bson:"_id" json:"id" yaml:"id"`
	WeekNumber  int            `bson:"week_number" json:"week_number" yaml:"-"`
	Title       string         `bson:"title" json:"title" yaml:"title"`
	Description string         `bson:"description,omitempty" json:"description,omitempty" yaml:"description"`
	Type        AssignmentType `bson:"assignment_type" json:"assignment_type" yaml:"type"`
	OrderIndex  int            `bson:"order_index" json:"order_index" yaml:"-"`
}
