package sqlxrepos

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/myfeedback/core/feedback"
)

const (
	markerCoursesQuery = `
		SELECT DISTINCT ` + courseColumns + `
		  FROM {course} c
		  JOIN {context} ctx ON ctx.instanceid = c.id AND ctx.contextlevel = ?
		  JOIN {role_assignments} ra ON ra.contextid = ctx.id
		  JOIN {role} r ON r.id = ra.roleid
		 WHERE ra.userid = ? AND r.shortname IN (?)
	  ORDER BY c.id`

	summativeAssessmentsQuery = `
		SELECT cm.id AS cmid, cm.course, md.name AS modname, cm.instance,
		       COALESCE(a.name, q.name, t.name, '') AS name, lat.type
		  FROM {local_assess_type} lat
		  JOIN {course_modules} cm ON cm.id = lat.cmid AND cm.course = lat.courseid
		  JOIN {modules} md ON md.id = cm.module
	 LEFT JOIN {assign} a ON md.name = 'assign' AND a.id = cm.instance
	 LEFT JOIN {quiz} q ON md.name = 'quiz' AND q.id = cm.instance
	 LEFT JOIN {turnitintooltwo} t ON md.name = 'turnitintooltwo' AND t.id = cm.instance
		 WHERE lat.courseid = ? AND lat.type = ? AND md.name IN (?)
		   AND cm.visible = 1 AND cm.deletioninprogress = 0
	  ORDER BY cm.id`

	userContextQuery = `
		SELECT ctx.id
		  FROM {user} u
	 LEFT JOIN {context} ctx ON ctx.instanceid = u.id AND ctx.contextlevel = ?
		 WHERE u.id = ?`

	courseImageQuery = `
		SELECT f.contextid, f.component, f.filearea, f.filepath, f.filename
		  FROM {files} f
		  JOIN {context} ctx ON ctx.id = f.contextid AND ctx.contextlevel = ?
		 WHERE ctx.instanceid = ? AND f.component = 'course' AND f.filearea = 'overviewfiles'
		   AND f.filename <> '.'
	  ORDER BY f.id`
)

// user pictures are rendered in the platform's default theme at size f1 (100px)
const (
	pictureTheme = "boost"
	pictureSize  = "f1"
)

type platform struct {
	db      *DB
	wwwroot string
}

var _ feedback.Platform = (*platform)(nil)

func NewPlatform(db *DB, wwwroot string) feedback.Platform {
	return &platform{db: db, wwwroot: strings.TrimRight(wwwroot, "/")}
}

func (p *platform) MarkerCourses(ctx context.Context, userID int64, roles []string) ([]feedback.Course, error) {
	courses := make([]feedback.Course, 0)
	if len(roles) == 0 {
		return courses, nil
	}
	if err := p.db.selectContext(ctx, &courses, markerCoursesQuery, contextCourse, userID, roles); err != nil {
		return nil, errors.Wrap(err, "selecting marker courses")
	}
	return courses, nil
}

func (p *platform) SummativeAssessments(ctx context.Context, courseID int64, modNames []string) ([]feedback.Assessment, error) {
	assessments := make([]feedback.Assessment, 0)
	if len(modNames) == 0 {
		return assessments, nil
	}
	err := p.db.selectContext(ctx, &assessments, summativeAssessmentsQuery, courseID, feedback.AssessSummative, modNames)
	if err != nil {
		return nil, errors.Wrap(err, "selecting summative assessments")
	}
	return assessments, nil
}

func (p *platform) defaultPictureURL() string {
	return fmt.Sprintf("%s/theme/image.php/%s/core/1/u/%s", p.wwwroot, pictureTheme, pictureSize)
}

func (p *platform) UserPictureURL(ctx context.Context, usr feedback.User) (string, error) {
	if usr.Picture <= 0 || usr.Deleted {
		return p.defaultPictureURL(), nil
	}

	var ctxID null.Int64
	err := p.db.getContext(ctx, &ctxID, userContextQuery, contextUser, usr.ID)
	if isNoRows(err) {
		return "", feedback.ErrUserNotFound
	}
	if err != nil {
		return "", errors.Wrapf(err, "getting context of user %d", usr.ID)
	}
	if !ctxID.Valid {
		return p.defaultPictureURL(), nil
	}
	return fmt.Sprintf("%s/pluginfile.php/%d/user/icon/%s/%s?rev=%d",
		p.wwwroot, ctxID.Int64, pictureTheme, pictureSize, usr.Picture), nil
}

type storedFile struct {
	ContextID int64       `db:"contextid"`
	Component string      `db:"component"`
	FileArea  string      `db:"filearea"`
	FilePath  null.String `db:"filepath"`
	FileName  string      `db:"filename"`
}

// url encodes every path segment the way the platform's file server expects them.
func (f storedFile) url(wwwroot string) string {
	segments := []string{fmt.Sprint(f.ContextID), f.Component, f.FileArea}
	for _, s := range strings.Split(strings.Trim(f.FilePath.String, "/"), "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}
	segments = append(segments, f.FileName)

	var b strings.Builder
	b.WriteString(wwwroot + "/pluginfile.php")
	for _, s := range segments {
		b.WriteString("/" + url.PathEscape(s))
	}
	return b.String()
}

func (p *platform) CourseImageURL(ctx context.Context, courseID int64) (string, error) {
	var files []storedFile
	if err := p.db.selectContext(ctx, &files, courseImageQuery, contextCourse, courseID); err != nil {
		return "", errors.Wrapf(err, "selecting overview files of course %d", courseID)
	}
	if len(files) == 0 {
		return "", nil
	}
	return files[len(files)-1].url(p.wwwroot), nil
}
