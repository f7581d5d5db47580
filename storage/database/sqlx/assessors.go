package sqlxrepos

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/myfeedback/core/feedback"
)

// NewAssessors returns the assessors of the supported module kinds.
func NewAssessors(db *DB, wwwroot string) feedback.Assessors {
	wwwroot = strings.TrimRight(wwwroot, "/")
	return feedback.Assessors{
		"assign":          &assignAssessor{db: db, wwwroot: wwwroot},
		"quiz":            &quizAssessor{db: db, wwwroot: wwwroot},
		"turnitintooltwo": &turnitinAssessor{db: db, wwwroot: wwwroot},
	}
}

func unixTime(ts int64) time.Time {
	if ts <= 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0)
}

// assignment
type assignAssessor struct {
	db      *DB
	wwwroot string
}

func (as *assignAssessor) DueDate(ctx context.Context, instance int64) (time.Time, error) {
	var due int64
	if err := as.db.getContext(ctx, &due, `SELECT duedate FROM {assign} WHERE id = ?`, instance); err != nil {
		return time.Time{}, errors.Wrapf(err, "getting due date of assign %d", instance)
	}
	return unixTime(due), nil
}

// MarkingRequired counts the latest submitted attempts that are ungraded or were resubmitted after grading.
func (as *assignAssessor) MarkingRequired(ctx context.Context, instance int64) (int, error) {
	const q = `
		SELECT COUNT(DISTINCT s.userid)
		  FROM {assign_submission} s
	 LEFT JOIN {assign_grades} g ON g.assignment = s.assignment AND g.userid = s.userid
		 WHERE s.assignment = ? AND s.latest = 1 AND s.status = 'submitted'
		   AND (g.id IS NULL OR g.grade IS NULL OR g.grade < 0 OR g.timemodified < s.timemodified)`
	var n int
	if err := as.db.getContext(ctx, &n, q, instance); err != nil {
		return 0, errors.Wrapf(err, "counting submissions of assign %d", instance)
	}
	return n, nil
}

func (as *assignAssessor) GradingURL(cmid int64) string {
	return fmt.Sprintf("%s/mod/assign/view.php?id=%d&action=grading", as.wwwroot, cmid)
}

// quiz
type quizAssessor struct {
	db      *DB
	wwwroot string
}

func (as *quizAssessor) DueDate(ctx context.Context, instance int64) (time.Time, error) {
	var due int64
	if err := as.db.getContext(ctx, &due, `SELECT timeclose FROM {quiz} WHERE id = ?`, instance); err != nil {
		return time.Time{}, errors.Wrapf(err, "getting close time of quiz %d", instance)
	}
	return unixTime(due), nil
}

// MarkingRequired counts the finished attempts still holding manually graded questions.
func (as *quizAssessor) MarkingRequired(ctx context.Context, instance int64) (int, error) {
	const q = `SELECT COUNT(id) FROM {quiz_attempts} WHERE quiz = ? AND state = 'finished' AND sumgrades IS NULL`
	var n int
	if err := as.db.getContext(ctx, &n, q, instance); err != nil {
		return 0, errors.Wrapf(err, "counting attempts of quiz %d", instance)
	}
	return n, nil
}

func (as *quizAssessor) GradingURL(cmid int64) string {
	return fmt.Sprintf("%s/mod/quiz/report.php?id=%d&mode=grading", as.wwwroot, cmid)
}

// plagiarism detection tool; an instance has one or more parts, each with its own due date
type turnitinAssessor struct {
	db      *DB
	wwwroot string
}

func (as *turnitinAssessor) DueDate(ctx context.Context, instance int64) (time.Time, error) {
	const q = `SELECT COALESCE(MAX(dtdue), 0) FROM {turnitintooltwo_parts} WHERE turnitintooltwoid = ?`
	var due int64
	if err := as.db.getContext(ctx, &due, q, instance); err != nil {
		return time.Time{}, errors.Wrapf(err, "getting due date of turnitintooltwo %d", instance)
	}
	return unixTime(due), nil
}

func (as *turnitinAssessor) MarkingRequired(ctx context.Context, instance int64) (int, error) {
	const q = `
		SELECT COUNT(id) FROM {turnitintooltwo_submissions}
		 WHERE turnitintooltwoid = ? AND submission_objectid IS NOT NULL AND submission_grade IS NULL`
	var n int
	if err := as.db.getContext(ctx, &n, q, instance); err != nil {
		return 0, errors.Wrapf(err, "counting submissions of turnitintooltwo %d", instance)
	}
	return n, nil
}

func (as *turnitinAssessor) GradingURL(cmid int64) string {
	return fmt.Sprintf("%s/mod/turnitintooltwo/view.php?id=%d&do=submissions", as.wwwroot, cmid)
}
