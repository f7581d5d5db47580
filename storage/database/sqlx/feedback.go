package sqlxrepos

import (
	"context"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/myfeedback/core/feedback"
)

const (
	userColumns   = `u.id, u.username, u.firstname, u.lastname, u.email, u.picture, u.deleted, u.suspended`
	courseColumns = `c.id, c.fullname, c.shortname, c.visible, c.startdate, c.enddate`

	// grades of module grade items, with the activity name taken from the module instance
	submissionsQuery = `
		SELECT gg.id AS gradeid, gg.userid, gg.usermodified AS grader, gg.timemodified AS lastmodified,
		       gi.id AS itemid, c.id AS course, c.fullname AS coursename, gi.itemmodule AS modname,
		       gi.iteminstance AS instance, cm.id AS cmid,
		       COALESCE(a.name, q.name, t.name, gi.itemname, '') AS name,
		       a.hidegrader
		  FROM {grade_grades} gg
		  JOIN {grade_items} gi ON gi.id = gg.itemid AND gi.itemtype = 'mod'
		  JOIN {modules} md ON md.name = gi.itemmodule
		  JOIN {course_modules} cm ON cm.module = md.id AND cm.instance = gi.iteminstance AND cm.course = gi.courseid
		  JOIN {course} c ON c.id = gi.courseid
	 LEFT JOIN {assign} a ON gi.itemmodule = 'assign' AND a.id = gi.iteminstance
	 LEFT JOIN {assign_user_flags} uf ON uf.assignment = a.id AND uf.userid = gg.userid
	 LEFT JOIN {quiz} q ON gi.itemmodule = 'quiz' AND q.id = gi.iteminstance
	 LEFT JOIN {turnitintooltwo} t ON gi.itemmodule = 'turnitintooltwo' AND t.id = gi.iteminstance
		 WHERE gg.userid = ? AND gi.itemmodule IN (?)
		   AND gg.usermodified > 0 AND (gg.finalgrade IS NOT NULL OR gg.feedback IS NOT NULL)
		   AND (gi.hidden = 0 OR (gi.hidden > 1 AND gi.hidden <= ?))
		   AND (gg.hidden = 0 OR (gg.hidden > 1 AND gg.hidden <= ?))
		   AND cm.visible = 1 AND cm.deletioninprogress = 0 AND c.visible = 1
		   AND (a.id IS NULL OR a.markingworkflow = 0 OR uf.workflowstate = ?)
		   AND gg.timemodified >= ? AND gg.timemodified <= ?
	  ORDER BY gg.timemodified DESC, gg.id DESC`
)

type feedbackRepository struct {
	db *DB
}

var _ feedback.Repository = (*feedbackRepository)(nil)

func NewFeedbackRepository(db *DB) feedback.Repository {
	return &feedbackRepository{db: db}
}

func (repo *feedbackRepository) GetUser(ctx context.Context, id int64) (feedback.User, error) {
	var usr feedback.User
	err := repo.db.getContext(ctx, &usr, `SELECT `+userColumns+` FROM {user} u WHERE u.id = ?`, id)
	if isNoRows(err) {
		return feedback.User{}, feedback.ErrUserNotFound
	}
	if err != nil {
		return feedback.User{}, errors.Wrapf(err, "getting user %d", id)
	}
	return usr, nil
}

type submissionRow struct {
	feedback.Submission
	HideGrader null.Bool `db:"hidegrader"`
}

func (repo *feedbackRepository) QuerySubmissions(ctx context.Context, filter feedback.SubmissionFilter) ([]feedback.Submission, error) {
	if len(filter.ModNames) == 0 {
		return []feedback.Submission{}, nil
	}

	now := filter.Until.Unix()
	query := submissionsQuery
	args := []interface{}{
		filter.UserID, filter.ModNames,
		now, now,
		feedback.WorkflowReleased,
		filter.Since.Unix(), filter.Until.Unix(),
	}
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	var rows []submissionRow
	if err := repo.db.selectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "selecting submissions")
	}

	subs := make([]feedback.Submission, 0, len(rows))
	for _, row := range rows {
		sub := row.Submission
		sub.HideGrader = row.HideGrader.Bool
		subs = append(subs, sub)
	}
	return subs, nil
}
