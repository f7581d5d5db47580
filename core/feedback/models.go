package feedback

import (
	"strings"
	"time"
)

// Page formats a block can be added to.
const (
	FormatAdmin      = "admin"
	FormatSiteIndex  = "site-index"
	FormatCourseView = "course-view"
	FormatMod        = "mod"
	FormatMy         = "my"
)

// Assessment types, as recorded by the platform's assessment type plugin.
const (
	AssessFormative = 0
	AssessSummative = 1
)

// WorkflowReleased is the marking workflow state in which grades are visible to learners.
const WorkflowReleased = "released"

// User is a platform user.
type User struct {
	ID        int64  `json:"id" db:"id"`
	Username  string `json:"username" db:"username"`
	FirstName string `json:"firstname" db:"firstname"`
	LastName  string `json:"lastname" db:"lastname"`
	Email     string `json:"email" db:"email"`
	Picture   int64  `json:"-" db:"picture"` // file revision of the profile picture, 0 if none
	Deleted   bool   `json:"-" db:"deleted"`
	Suspended bool   `json:"-" db:"suspended"`
}

func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (u User) IsActive() bool {
	return !u.Deleted && !u.Suspended
}

// Course is a platform course.
type Course struct {
	ID        int64  `json:"id" db:"id"`
	FullName  string `json:"fullname" db:"fullname"`
	ShortName string `json:"shortname" db:"shortname"`
	Visible   bool   `json:"visible" db:"visible"`
	StartDate int64  `json:"startdate" db:"startdate"`
	EndDate   int64  `json:"enddate" db:"enddate"` // unix; 0 = open-ended
}

// EndedBefore reports whether the course has an end date earlier than t.
func (c Course) EndedBefore(t time.Time) bool {
	return c.EndDate > 0 && c.EndDate < t.Unix()
}

// Submission is a graded submission of a learner, as returned by the platform's gradebook.
type Submission struct {
	GradeID      int64  `json:"gradeid" db:"gradeid"`
	UserID       int64  `json:"userid" db:"userid"`
	Grader       int64  `json:"grader" db:"grader"`
	LastModified int64  `json:"lastmodified" db:"lastmodified"`
	ItemID       int64  `json:"itemid" db:"itemid"`
	CourseID     int64  `json:"course" db:"course"`
	CourseName   string `json:"coursename" db:"coursename"`
	ModName      string `json:"modname" db:"modname"`
	Instance     int64  `json:"instance" db:"instance"`
	CMID         int64  `json:"cmid" db:"cmid"`
	Name         string `json:"name" db:"name"`
	HideGrader   bool   `json:"hidegrader" db:"-"`
}

// SubmissionFilter narrows down QuerySubmissions. Since and Until are inclusive.
type SubmissionFilter struct {
	UserID   int64
	ModNames []string
	Since    time.Time
	Until    time.Time
	Limit    int
}

// Assessment is a course module registered as an assessment.
type Assessment struct {
	CMID     int64  `json:"cmid" db:"cmid"`
	CourseID int64  `json:"course" db:"course"`
	ModName  string `json:"modname" db:"modname"`
	Instance int64  `json:"instance" db:"instance"`
	Name     string `json:"name" db:"name"`
	Type     int    `json:"type" db:"type"`
}

// Feedback is a feedback item shown to a learner.
type Feedback struct {
	ID           int64  `json:"id"`
	Date         string `json:"date"`
	ActivityName string `json:"activityname"`
	Link         string `json:"link"`
	CourseName   string `json:"coursename"`
	TutorName    string `json:"tutorname,omitempty"`
	TutorIcon    string `json:"tutoricon,omitempty"`
}

// Marking is an assessment a marker still needs to mark.
type Marking struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	CourseName string    `json:"coursename"`
	DueDate    string    `json:"duedate"`
	Due        time.Time `json:"due"`
	Required   int       `json:"required"`
	Link       string    `json:"link"`
	Icon       string    `json:"icon,omitempty"`
}

// Content is the data the block template renders.
type Content struct {
	Title          string     `json:"title"`
	ShowFeedback   bool       `json:"showfeedback"`
	Feedback       []Feedback `json:"feedback"`
	NoFeedback     bool       `json:"nofeedback"`
	ShowMarking    bool       `json:"showmarking"`
	Marking        []Marking  `json:"marking"`
	NoMarking      bool       `json:"nomarking"`
	AllFeedbackURL string     `json:"allfeedbackurl"`
}
