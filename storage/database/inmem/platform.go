package inmemdb

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/trezcool/myfeedback/core/feedback"
)

type platform struct {
	user       *userTable
	course     *courseTable
	assessment *assessmentTable
	wwwroot    string
}

var _ feedback.Platform = (*platform)(nil)

func NewPlatform(db *DB, wwwroot string) feedback.Platform {
	return &platform{user: db.user, course: db.course, assessment: db.assessment, wwwroot: wwwroot}
}

func (p *platform) MarkerCourses(_ context.Context, userID int64, roles []string) ([]feedback.Course, error) {
	p.course.mutex.RLock()
	defer p.course.mutex.RUnlock()

	wanted := make(map[string]bool, len(roles))
	for _, r := range roles {
		wanted[r] = true
	}

	courses := make([]feedback.Course, 0)
	for courseID, role := range p.course.roles[userID] {
		if course, ok := p.course.table[courseID]; ok && wanted[role] {
			courses = append(courses, *course)
		}
	}
	sort.Slice(courses, func(i, j int) bool { return courses[i].ID < courses[j].ID })
	return courses, nil
}

func (p *platform) SummativeAssessments(_ context.Context, courseID int64, modNames []string) ([]feedback.Assessment, error) {
	p.assessment.mutex.RLock()
	defer p.assessment.mutex.RUnlock()

	mods := make(map[string]bool, len(modNames))
	for _, m := range modNames {
		mods[m] = true
	}

	assessments := make([]feedback.Assessment, 0)
	for _, as := range p.assessment.table[courseID] {
		if mods[as.ModName] {
			assessments = append(assessments, as)
		}
	}
	return assessments, nil
}

func (p *platform) UserPictureURL(_ context.Context, usr feedback.User) (string, error) {
	p.user.mutex.RLock()
	defer p.user.mutex.RUnlock()

	if pic, ok := p.user.pictures[usr.ID]; ok {
		return pic, nil
	}
	return p.wwwroot + "/theme/image.php/boost/core/1/u/f1", nil
}

func (p *platform) CourseImageURL(_ context.Context, courseID int64) (string, error) {
	p.course.mutex.RLock()
	defer p.course.mutex.RUnlock()
	return p.course.images[courseID], nil
}

type assessor struct {
	table   *assessmentTable
	modName string
	wwwroot string
}

// NewAssessors returns assessors answering from the assessments added with DB.AddAssessment.
func NewAssessors(db *DB, wwwroot string, modNames ...string) feedback.Assessors {
	if len(modNames) == 0 {
		modNames = []string{"assign", "quiz", "turnitintooltwo"}
	}
	assessors := make(feedback.Assessors, len(modNames))
	for _, m := range modNames {
		assessors[m] = &assessor{table: db.assessment, modName: m, wwwroot: wwwroot}
	}
	return assessors
}

func (as *assessor) DueDate(_ context.Context, instance int64) (time.Time, error) {
	as.table.mutex.RLock()
	defer as.table.mutex.RUnlock()

	key := assessmentKey{as.modName, instance}
	if err := as.table.failures[key]; err != nil {
		return time.Time{}, err
	}
	return as.table.due[key], nil
}

func (as *assessor) MarkingRequired(_ context.Context, instance int64) (int, error) {
	as.table.mutex.RLock()
	defer as.table.mutex.RUnlock()

	key := assessmentKey{as.modName, instance}
	if err := as.table.failures[key]; err != nil {
		return 0, err
	}
	return as.table.required[key], nil
}

func (as *assessor) GradingURL(cmid int64) string {
	return fmt.Sprintf("%s/mod/%s/view.php?id=%d", as.wwwroot, as.modName, cmid)
}
