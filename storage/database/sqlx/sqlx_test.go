package sqlxrepos_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/myfeedback/core/feedback"
	sqlxrepos "github.com/trezcool/myfeedback/storage/database/sqlx"
	"github.com/trezcool/myfeedback/tests"
)

type env struct {
	fx        *testutil.Fixtures
	repo      feedback.Repository
	platform  feedback.Platform
	assessors feedback.Assessors
}

func setup(t *testing.T) env {
	conf := testutil.NewConfig()
	db := testutil.PrepareDB(t, conf)
	pdb := sqlxrepos.NewDB(db, conf.Database.Prefix)
	return env{
		fx:        testutil.NewFixtures(t, db),
		repo:      sqlxrepos.NewFeedbackRepository(pdb),
		platform:  sqlxrepos.NewPlatform(pdb, conf.Platform.WWWRoot),
		assessors: sqlxrepos.NewAssessors(pdb, conf.Platform.WWWRoot),
	}
}

func filter(usr feedback.User, now time.Time) feedback.SubmissionFilter {
	return feedback.SubmissionFilter{
		UserID:   usr.ID,
		ModNames: []string{"assign", "quiz", "turnitintooltwo"},
		Since:    now.Add(-2160 * time.Hour),
		Until:    now,
		Limit:    5,
	}
}

func TestFeedbackRepository_QuerySubmissions(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	now := time.Now()
	week := 7 * 24 * time.Hour
	day := 24 * time.Hour

	course := e.fx.CreateCourse("Test course 1")
	student1 := e.fx.CreateUser("Student", "One")
	student2 := e.fx.CreateUser("Student", "Two")
	teacher := e.fx.CreateUser("Teacher", "One")
	e.fx.Enrol(student1.ID, course.ID, "student")
	e.fx.Enrol(student2.ID, course.ID, "student")
	e.fx.Enrol(teacher.ID, course.ID, "teacher")

	grades := []struct {
		modName  string
		name     string
		itemName string
		user     feedback.User
		grade    float64
		age      time.Duration
	}{
		{"assign", "Assign 1", "Grade assign item 1", student1, 80, week},
		{"quiz", "Quiz 1", "Grade quiz item 1", student1, 50, 2 * week},
		{"turnitintooltwo", "TurnitinToolTwo 1", "TurnitinToolTwo item 1", student1, 90, 2 * week},
		{"quiz", "Quiz 2", "Grade quiz item 2", student1, 55, 15 * day},
		{"assign", "Assign 2", "Grade assign item 2", student1, 69, 16 * day},
		{"quiz", "Quiz 3", "Grade quiz item 3", student1, 65, 16 * day},
		{"quiz", "Quiz 4", "Grade quiz item 4", student1, 75, 17 * day},
		{"quiz", "Quiz 5", "Grade quiz item 5", student1, 75, 18 * day},
		{"quiz", "Quiz by another user", "Another user quiz item 1", student2, 77, week},
		{"quiz", "Old Quiz 1", "Old grade quiz item 1", student2, 70, 15 * week}, // too old
	}
	for _, g := range grades {
		mod := e.fx.CreateModule(course.ID, g.modName, g.name)
		item := e.fx.CreateGradeItem(mod, g.itemName)
		e.fx.CreateGradeGrade(item, g.user.ID, teacher.ID, g.grade, now.Add(-g.age))
	}

	t.Run("student 1", func(t *testing.T) {
		subs, err := e.repo.QuerySubmissions(ctx, filter(student1, now))
		require.NoError(t, err)
		require.Len(t, subs, 5)

		names := make([]string, 0, len(subs))
		for _, sub := range subs {
			assert.Equal(t, student1.ID, sub.UserID)
			assert.Equal(t, teacher.ID, sub.Grader)
			assert.Equal(t, course.ID, sub.CourseID)
			assert.Equal(t, "Test course 1", sub.CourseName)
			assert.Contains(t, []string{"assign", "quiz", "turnitintooltwo"}, sub.ModName)
			assert.GreaterOrEqual(t, sub.LastModified, now.AddDate(0, -3, 0).Unix())
			assert.NotZero(t, sub.CMID)
			names = append(names, sub.Name)
		}
		// newest first, most recently created first on ties
		assert.Equal(t, []string{"Assign 1", "TurnitinToolTwo 1", "Quiz 1", "Quiz 2", "Quiz 3"}, names)
	})

	t.Run("student 2", func(t *testing.T) {
		subs, err := e.repo.QuerySubmissions(ctx, filter(student2, now))
		require.NoError(t, err)
		require.Len(t, subs, 1)
		assert.Equal(t, "Quiz by another user", subs[0].Name)
		assert.Equal(t, student2.ID, subs[0].UserID)
	})

	t.Run("teacher", func(t *testing.T) {
		subs, err := e.repo.QuerySubmissions(ctx, filter(teacher, now))
		require.NoError(t, err)
		assert.Empty(t, subs)
	})

	t.Run("module filter", func(t *testing.T) {
		f := filter(student1, now)
		f.ModNames = []string{"turnitintooltwo"}
		subs, err := e.repo.QuerySubmissions(ctx, f)
		require.NoError(t, err)
		require.Len(t, subs, 1)
		assert.Equal(t, "turnitintooltwo", subs[0].ModName)

		f.ModNames = nil
		subs, err = e.repo.QuerySubmissions(ctx, f)
		require.NoError(t, err)
		assert.Empty(t, subs)
	})

	t.Run("no limit", func(t *testing.T) {
		f := filter(student1, now)
		f.Limit = 0
		subs, err := e.repo.QuerySubmissions(ctx, f)
		require.NoError(t, err)
		assert.Len(t, subs, 8)
	})
}

func TestFeedbackRepository_QuerySubmissions_visibility(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	now := time.Now()
	modified := now.Add(-24 * time.Hour)

	course := e.fx.CreateCourse("Visibility")
	student := e.fx.CreateUser("Vera", "Student")
	teacher := e.fx.CreateUser("Tom", "Teacher")

	grade := func(modName, name string, cols ...map[string]interface{}) (testutil.Module, int64, int64) {
		mod := e.fx.CreateModule(course.ID, modName, name, cols...)
		item := e.fx.CreateGradeItem(mod, name)
		gg := e.fx.CreateGradeGrade(item, student.ID, teacher.ID, 60, modified)
		return mod, item, gg
	}

	_, hiddenItem, _ := grade("quiz", "hidden item")
	e.fx.Exec(`UPDATE {grade_items} SET hidden = 1 WHERE id = ?`, hiddenItem)

	_, untilItem, _ := grade("quiz", "hidden until tomorrow")
	e.fx.Exec(`UPDATE {grade_items} SET hidden = ? WHERE id = ?`, now.Add(24*time.Hour).Unix(), untilItem)

	_, revealedItem, _ := grade("quiz", "hidden until yesterday")
	e.fx.Exec(`UPDATE {grade_items} SET hidden = ? WHERE id = ?`, now.Add(-24*time.Hour).Unix(), revealedItem)

	_, _, hiddenGrade := grade("quiz", "hidden grade")
	e.fx.Exec(`UPDATE {grade_grades} SET hidden = 1 WHERE id = ?`, hiddenGrade)

	_, _, ungraded := grade("quiz", "not graded")
	e.fx.Exec(`UPDATE {grade_grades} SET usermodified = 0 WHERE id = ?`, ungraded)

	_, _, empty := grade("quiz", "no grade nor feedback")
	e.fx.Exec(`UPDATE {grade_grades} SET finalgrade = NULL WHERE id = ?`, empty)

	_, _, commented := grade("quiz", "feedback only")
	e.fx.Exec(`UPDATE {grade_grades} SET finalgrade = NULL, feedback = 'Well done' WHERE id = ?`, commented)

	hiddenMod, _, _ := grade("quiz", "hidden module")
	e.fx.Exec(`UPDATE {course_modules} SET visible = 0 WHERE id = ?`, hiddenMod.CMID)

	deletedMod, _, _ := grade("quiz", "module being deleted")
	e.fx.Exec(`UPDATE {course_modules} SET deletioninprogress = 1 WHERE id = ?`, deletedMod.CMID)

	wfMod, _, _ := grade("assign", "workflow not released", map[string]interface{}{"markingworkflow": 1})
	e.fx.Insert("assign_user_flags", map[string]interface{}{
		"userid": student.ID, "assignment": wfMod.Instance, "workflowstate": "inmarking",
	})

	released, _, _ := grade("assign", "workflow released", map[string]interface{}{"markingworkflow": 1})
	e.fx.Insert("assign_user_flags", map[string]interface{}{
		"userid": student.ID, "assignment": released.Instance, "workflowstate": feedback.WorkflowReleased,
	})

	grade("assign", "workflow without flags", map[string]interface{}{"markingworkflow": 1})
	grade("assign", "anonymous grader", map[string]interface{}{"hidegrader": 1})

	f := filter(student, now)
	f.Limit = 0
	subs, err := e.repo.QuerySubmissions(ctx, f)
	require.NoError(t, err)

	got := make(map[string]feedback.Submission, len(subs))
	for _, sub := range subs {
		got[sub.Name] = sub
	}
	assert.Len(t, got, 4)
	for _, name := range []string{"hidden until yesterday", "feedback only", "workflow released", "anonymous grader"} {
		assert.Contains(t, got, name)
	}
	assert.True(t, got["anonymous grader"].HideGrader)
	assert.False(t, got["workflow released"].HideGrader)

	t.Run("hidden course", func(t *testing.T) {
		e.fx.Exec(`UPDATE {course} SET visible = 0 WHERE id = ?`, course.ID)
		subs, err := e.repo.QuerySubmissions(ctx, f)
		require.NoError(t, err)
		assert.Empty(t, subs)
	})
}

func TestFeedbackRepository_GetUser(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	usr := e.fx.CreateUser("Ada", "Lovelace")

	got, err := e.repo.GetUser(ctx, usr.ID)
	require.NoError(t, err)
	assert.Equal(t, usr, got)
	assert.Equal(t, "Ada Lovelace", got.FullName())
	assert.True(t, got.IsActive())

	e.fx.Exec(`UPDATE {user} SET suspended = 1 WHERE id = ?`, usr.ID)
	got, err = e.repo.GetUser(ctx, usr.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive())

	_, err = e.repo.GetUser(ctx, 9999)
	assert.Equal(t, feedback.ErrUserNotFound, err)
}

func TestPlatform_MarkerCourses(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	roles := []string{"editingteacher", "teacher"}

	c1 := e.fx.CreateCourse("Course 1")
	c2 := e.fx.CreateCourse("Course 2")
	c3 := e.fx.CreateCourse("Course 3")
	marker := e.fx.CreateUser("Mark", "Er")
	student := e.fx.CreateUser("Stu", "Dent")
	e.fx.Enrol(marker.ID, c1.ID, "teacher")
	e.fx.Enrol(marker.ID, c2.ID, "editingteacher")
	e.fx.Enrol(marker.ID, c2.ID, "teacher")
	e.fx.Enrol(marker.ID, c3.ID, "student")
	e.fx.Enrol(student.ID, c1.ID, "student")

	courses, err := e.platform.MarkerCourses(ctx, marker.ID, roles)
	require.NoError(t, err)
	assert.Equal(t, []feedback.Course{c1, c2}, courses)

	courses, err = e.platform.MarkerCourses(ctx, student.ID, roles)
	require.NoError(t, err)
	assert.Empty(t, courses)

	courses, err = e.platform.MarkerCourses(ctx, marker.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, courses)
}

func TestPlatform_SummativeAssessments(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	course := e.fx.CreateCourse("Course")
	other := e.fx.CreateCourse("Other")
	essay := e.fx.CreateModule(course.ID, "assign", "Essay")
	test := e.fx.CreateModule(course.ID, "quiz", "Test")
	formative := e.fx.CreateModule(course.ID, "quiz", "Practice")
	hidden := e.fx.CreateModule(course.ID, "turnitintooltwo", "Hidden paper")
	deleted := e.fx.CreateModule(course.ID, "assign", "Deleted essay")
	elsewhere := e.fx.CreateModule(other.ID, "assign", "Elsewhere")

	e.fx.MarkSummative(essay)
	e.fx.MarkSummative(test)
	e.fx.MarkSummative(hidden)
	e.fx.MarkSummative(deleted)
	e.fx.MarkSummative(elsewhere)
	e.fx.Insert("local_assess_type", map[string]interface{}{
		"type": feedback.AssessFormative, "cmid": formative.CMID, "courseid": course.ID,
	})
	e.fx.Exec(`UPDATE {course_modules} SET visible = 0 WHERE id = ?`, hidden.CMID)
	e.fx.Exec(`UPDATE {course_modules} SET deletioninprogress = 1 WHERE id = ?`, deleted.CMID)

	got, err := e.platform.SummativeAssessments(ctx, course.ID, []string{"assign", "quiz", "turnitintooltwo"})
	require.NoError(t, err)
	assert.Equal(t, []feedback.Assessment{
		{CMID: essay.CMID, CourseID: course.ID, ModName: "assign", Instance: essay.Instance, Name: "Essay", Type: feedback.AssessSummative},
		{CMID: test.CMID, CourseID: course.ID, ModName: "quiz", Instance: test.Instance, Name: "Test", Type: feedback.AssessSummative},
	}, got)

	got, err = e.platform.SummativeAssessments(ctx, course.ID, []string{"quiz"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, test.CMID, got[0].CMID)
}

func TestPlatform_UserPictureURL(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	usr := e.fx.CreateUser("Pic", "Ture")

	url, err := e.platform.UserPictureURL(ctx, usr)
	require.NoError(t, err)
	assert.Equal(t, testutil.WWWRoot+"/theme/image.php/boost/core/1/u/f1", url)

	e.fx.Exec(`UPDATE {user} SET picture = 42 WHERE id = ?`, usr.ID)
	usr, err = e.repo.GetUser(ctx, usr.ID)
	require.NoError(t, err)
	url, err = e.platform.UserPictureURL(ctx, usr)
	require.NoError(t, err)
	assert.Regexp(t, `^`+testutil.WWWRoot+`/pluginfile\.php/\d+/user/icon/boost/f1\?rev=42$`, url)

	_, err = e.platform.UserPictureURL(ctx, feedback.User{ID: 9999, Picture: 1})
	assert.Equal(t, feedback.ErrUserNotFound, err)
}

func TestPlatform_CourseImageURL(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	course := e.fx.CreateCourse("Course")

	url, err := e.platform.CourseImageURL(ctx, course.ID)
	require.NoError(t, err)
	assert.Empty(t, url)

	e.fx.AddCourseImage(course.ID, "my image.png")
	url, err = e.platform.CourseImageURL(ctx, course.ID)
	require.NoError(t, err)
	assert.Regexp(t, `^`+testutil.WWWRoot+`/pluginfile\.php/\d+/course/overviewfiles/my%20image\.png$`, url)
}

func TestAssessors(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	now := time.Now().Truncate(time.Second)
	due := now.Add(48 * time.Hour)

	course := e.fx.CreateCourse("Course")
	s1 := e.fx.CreateUser("S", "One")
	s2 := e.fx.CreateUser("S", "Two")
	s3 := e.fx.CreateUser("S", "Three")
	s4 := e.fx.CreateUser("S", "Four")

	t.Run("assign", func(t *testing.T) {
		mod := e.fx.CreateModule(course.ID, "assign", "Essay", map[string]interface{}{"duedate": due.Unix()})
		submit := func(usr feedback.User, status string, modified time.Time) {
			e.fx.Insert("assign_submission", map[string]interface{}{
				"assignment": mod.Instance, "userid": usr.ID, "status": status, "latest": 1, "timemodified": modified.Unix(),
			})
		}
		gradeAt := func(usr feedback.User, grade interface{}, modified time.Time) {
			e.fx.Insert("assign_grades", map[string]interface{}{
				"assignment": mod.Instance, "userid": usr.ID, "grade": grade, "timemodified": modified.Unix(),
			})
		}
		submit(s1, "submitted", now.Add(-time.Hour)) // ungraded
		submit(s2, "submitted", now.Add(-time.Hour))
		gradeAt(s2, 70, now) // graded
		submit(s3, "submitted", now.Add(-time.Hour))
		gradeAt(s3, 70, now.Add(-2*time.Hour)) // resubmitted after grading
		submit(s4, "draft", now.Add(-time.Hour))

		as, err := e.assessors.Get("assign")
		require.NoError(t, err)

		got, err := as.DueDate(ctx, mod.Instance)
		require.NoError(t, err)
		assert.True(t, due.Equal(got))

		n, err := as.MarkingRequired(ctx, mod.Instance)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		assert.Equal(t, testutil.WWWRoot+"/mod/assign/view.php?id=12&action=grading", as.GradingURL(12))

		_, err = as.DueDate(ctx, 9999)
		assert.Error(t, err)
	})

	t.Run("quiz", func(t *testing.T) {
		mod := e.fx.CreateModule(course.ID, "quiz", "Test")
		for _, a := range []struct {
			state     string
			sumgrades interface{}
		}{{"finished", nil}, {"finished", 5.5}, {"inprogress", nil}, {"finished", nil}} {
			e.fx.Insert("quiz_attempts", map[string]interface{}{
				"quiz": mod.Instance, "userid": s1.ID, "state": a.state, "sumgrades": a.sumgrades,
			})
		}

		as, err := e.assessors.Get("quiz")
		require.NoError(t, err)

		got, err := as.DueDate(ctx, mod.Instance)
		require.NoError(t, err)
		assert.True(t, got.IsZero())

		n, err := as.MarkingRequired(ctx, mod.Instance)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})

	t.Run("turnitintooltwo", func(t *testing.T) {
		mod := e.fx.CreateModule(course.ID, "turnitintooltwo", "Paper")
		e.fx.Insert("turnitintooltwo_parts", map[string]interface{}{"turnitintooltwoid": mod.Instance, "dtdue": now.Unix()})
		e.fx.Insert("turnitintooltwo_parts", map[string]interface{}{"turnitintooltwoid": mod.Instance, "dtdue": due.Unix()})
		e.fx.Insert("turnitintooltwo_submissions", map[string]interface{}{
			"turnitintooltwoid": mod.Instance, "userid": s1.ID, "submission_objectid": 100,
		})
		e.fx.Insert("turnitintooltwo_submissions", map[string]interface{}{
			"turnitintooltwoid": mod.Instance, "userid": s2.ID, "submission_objectid": 101, "submission_grade": 80,
		})

		as, err := e.assessors.Get("turnitintooltwo")
		require.NoError(t, err)

		got, err := as.DueDate(ctx, mod.Instance)
		require.NoError(t, err)
		assert.True(t, due.Equal(got))

		n, err := as.MarkingRequired(ctx, mod.Instance)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	_, err := e.assessors.Get("forum")
	assert.Equal(t, feedback.ErrUnknownModule, err)
}
