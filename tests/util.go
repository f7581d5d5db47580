package testutil

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/trezcool/myfeedback/core"
	"github.com/trezcool/myfeedback/core/feedback"
	logsvc "github.com/trezcool/myfeedback/services/logger"
	"github.com/trezcool/myfeedback/storage/database"
)

const (
	Prefix  = "mdl_"
	WWWRoot = "https://platform.test"
)

// NewConfig returns a test configuration backed by an in-memory SQLite database.
func NewConfig() *core.Config {
	return &core.Config{
		Env:       "TEST",
		Debug:     true,
		TestMode:  true,
		AppName:   "My Feedback",
		Build:     "test",
		SecretKey: "test-secret",
		Server: core.ServerConfig{
			Host:               ":0",
			ShutdownTimeout:    time.Second,
			JWTExpirationDelta: time.Hour,
		},
		Database: core.DatabaseConfig{
			Engine: database.SQLite,
			Name:   ":memory:",
			Prefix: Prefix,
		},
		Platform: core.PlatformConfig{
			WWWRoot:            WWWRoot,
			Timezone:           "UTC",
			FeedbackReportPath: "/report/myfeedback/index.php",
		},
		Block: core.BlockConfig{
			MaxItems:       5,
			FeedbackWindow: 2160 * time.Hour,
			MarkingPast:    60 * 24 * time.Hour,
			MarkingAhead:   30 * 24 * time.Hour,
			CourseGrace:    30 * 24 * time.Hour,
			MarkerRoles:    []string{"editingteacher", "teacher"},
			ModuleNames:    []string{"assign", "quiz", "turnitintooltwo"},
		},
	}
}

// PrepareDB opens a migrated in-memory database, closed when the test ends.
func PrepareDB(t *testing.T, conf *core.Config) *sqlx.DB {
	t.Helper()
	db, err := database.Open(conf)
	if err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err = database.Migrate(context.Background(), db, conf.Database.Prefix); err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	return db
}

// Module is a course module created by Fixtures.CreateModule.
type Module struct {
	CMID     int64
	CourseID int64
	ModName  string
	Instance int64
	Name     string
}

// Fixtures inserts platform records. IDs are allocated sequentially.
type Fixtures struct {
	t       *testing.T
	db      *sqlx.DB
	seq     int64
	roles   map[string]int64
	modules map[string]int64
}

func NewFixtures(t *testing.T, db *sqlx.DB) *Fixtures {
	return &Fixtures{
		t:       t,
		db:      db,
		roles:   make(map[string]int64),
		modules: make(map[string]int64),
	}
}

func (f *Fixtures) Exec(query string, args ...interface{}) {
	f.t.Helper()
	if _, err := f.db.Exec(f.db.Rebind(core.Tables(Prefix).Expand(query)), args...); err != nil {
		f.t.Fatalf("Exec(%s) failed: %v", query, err)
	}
}

// Insert adds a row to table and returns its id.
func (f *Fixtures) Insert(table string, cols map[string]interface{}) int64 {
	f.t.Helper()
	f.seq++
	id := f.seq

	names := make([]string, 0, len(cols)+1)
	for name := range cols {
		names = append(names, name)
	}
	sort.Strings(names)

	args := make([]interface{}, 0, len(names)+1)
	args = append(args, id)
	for _, name := range names {
		args = append(args, cols[name])
	}
	names = append([]string{"id"}, names...)

	q := fmt.Sprintf("INSERT INTO {%s} (%s) VALUES (?%s)",
		table, strings.Join(names, ", "), strings.Repeat(", ?", len(names)-1))
	f.Exec(q, args...)
	return id
}

func (f *Fixtures) CreateUser(firstName, lastName string) feedback.User {
	f.t.Helper()
	usr := feedback.User{
		Username:  strings.ToLower(firstName + lastName),
		FirstName: firstName,
		LastName:  lastName,
		Email:     strings.ToLower(firstName+"."+lastName) + "@example.com",
	}
	usr.ID = f.Insert("user", map[string]interface{}{
		"username":  usr.Username,
		"firstname": usr.FirstName,
		"lastname":  usr.LastName,
		"email":     usr.Email,
	})
	f.Insert("context", map[string]interface{}{"contextlevel": 30, "instanceid": usr.ID})
	return usr
}

func (f *Fixtures) CreateCourse(fullName string, endDate ...time.Time) feedback.Course {
	f.t.Helper()
	course := feedback.Course{
		FullName:  fullName,
		ShortName: strings.ToLower(strings.ReplaceAll(fullName, " ", "")),
		Visible:   true,
		StartDate: time.Now().AddDate(0, -6, 0).Unix(),
	}
	if len(endDate) > 0 {
		course.EndDate = endDate[0].Unix()
	}
	course.ID = f.Insert("course", map[string]interface{}{
		"fullname":  course.FullName,
		"shortname": course.ShortName,
		"visible":   1,
		"startdate": course.StartDate,
		"enddate":   course.EndDate,
	})
	f.Insert("context", map[string]interface{}{"contextlevel": 50, "instanceid": course.ID})
	return course
}

func (f *Fixtures) courseContext(courseID int64) int64 {
	f.t.Helper()
	var id int64
	q := f.db.Rebind(`SELECT id FROM mdl_context WHERE contextlevel = 50 AND instanceid = ?`)
	if err := f.db.Get(&id, q, courseID); err != nil {
		f.t.Fatalf("courseContext(%d) failed: %v", courseID, err)
	}
	return id
}

// Enrol gives the user a role (student, teacher, editingteacher..) in the course.
func (f *Fixtures) Enrol(userID, courseID int64, role string) {
	f.t.Helper()
	roleID, ok := f.roles[role]
	if !ok {
		roleID = f.Insert("role", map[string]interface{}{"shortname": role})
		f.roles[role] = roleID
	}
	f.Insert("role_assignments", map[string]interface{}{
		"roleid":    roleID,
		"contextid": f.courseContext(courseID),
		"userid":    userID,
	})
}

// CreateModule adds a module instance (assign, quiz, turnitintooltwo) and its course module.
// Extra columns of the instance table may be given in cols.
func (f *Fixtures) CreateModule(courseID int64, modName, name string, cols ...map[string]interface{}) Module {
	f.t.Helper()
	moduleID, ok := f.modules[modName]
	if !ok {
		moduleID = f.Insert("modules", map[string]interface{}{"name": modName})
		f.modules[modName] = moduleID
	}

	instCols := map[string]interface{}{"course": courseID, "name": name}
	for _, c := range cols {
		for k, v := range c {
			instCols[k] = v
		}
	}
	mod := Module{CourseID: courseID, ModName: modName, Name: name}
	mod.Instance = f.Insert(modName, instCols)
	mod.CMID = f.Insert("course_modules", map[string]interface{}{
		"course":   courseID,
		"module":   moduleID,
		"instance": mod.Instance,
	})
	return mod
}

func (f *Fixtures) CreateGradeItem(mod Module, itemName string) int64 {
	f.t.Helper()
	return f.Insert("grade_items", map[string]interface{}{
		"courseid":     mod.CourseID,
		"itemtype":     "mod",
		"itemmodule":   mod.ModName,
		"iteminstance": mod.Instance,
		"itemname":     itemName,
	})
}

func (f *Fixtures) CreateGradeGrade(itemID, userID, graderID int64, grade float64, modified time.Time) int64 {
	f.t.Helper()
	return f.Insert("grade_grades", map[string]interface{}{
		"itemid":       itemID,
		"userid":       userID,
		"usermodified": graderID,
		"finalgrade":   grade,
		"timemodified": modified.Unix(),
	})
}

// MarkSummative registers the course module as a summative assessment.
func (f *Fixtures) MarkSummative(mod Module) {
	f.t.Helper()
	f.Insert("local_assess_type", map[string]interface{}{
		"type":     feedback.AssessSummative,
		"cmid":     mod.CMID,
		"courseid": mod.CourseID,
	})
}

// AddCourseImage stores an overview image for the course.
func (f *Fixtures) AddCourseImage(courseID int64, filename string) {
	f.t.Helper()
	f.Insert("files", map[string]interface{}{
		"contextid": f.courseContext(courseID),
		"component": "course",
		"filearea":  "overviewfiles",
		"filepath":  "/",
		"filename":  filename,
	})
}

// NewLogger returns a logger discarding everything.
func NewLogger(conf *core.Config) core.Logger {
	return logsvc.NewRollbarLogger(zap.NewNop(), conf)
}
