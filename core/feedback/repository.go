package feedback

import (
	"context"
	"errors"
	"time"
)

var (
	// errors
	ErrUserNotFound        = errors.New("user not found")
	ErrUnknownModule       = errors.New("unknown module")
	ErrFormatNotApplicable = errors.New("block cannot be added to this page")
)

type (
	// Repository reads learners' grades from the platform's gradebook.
	Repository interface {
		GetUser(ctx context.Context, id int64) (User, error)
		// QuerySubmissions returns the filtered graded submissions, newest first.
		QuerySubmissions(ctx context.Context, filter SubmissionFilter) ([]Submission, error)
	}

	// Platform gives access to the host platform services the block relies on.
	Platform interface {
		// MarkerCourses returns the courses in which the user holds any of the given roles.
		MarkerCourses(ctx context.Context, userID int64, roles []string) ([]Course, error)
		// SummativeAssessments returns the visible summative assessments of a course
		// implemented by one of the given module kinds.
		SummativeAssessments(ctx context.Context, courseID int64, modNames []string) ([]Assessment, error)
		UserPictureURL(ctx context.Context, usr User) (string, error)
		// CourseImageURL returns the URL of the course overview image, "" if it has none.
		CourseImageURL(ctx context.Context, courseID int64) (string, error)
	}

	// Assessor implements the module specific semantics of an assessment kind.
	Assessor interface {
		// DueDate returns the due date of the module instance; zero if it has none.
		DueDate(ctx context.Context, instance int64) (time.Time, error)
		// MarkingRequired returns the number of submissions awaiting marking.
		MarkingRequired(ctx context.Context, instance int64) (int, error)
		// GradingURL returns the page where markers grade the module.
		GradingURL(cmid int64) string
	}

	// Assessors maps module names (assign, quiz..) to their Assessor.
	Assessors map[string]Assessor
)

func (as Assessors) Get(modName string) (Assessor, error) {
	if a, ok := as[modName]; ok {
		return a, nil
	}
	return nil, ErrUnknownModule
}
