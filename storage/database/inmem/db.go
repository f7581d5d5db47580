package inmemdb

import (
	"sync"
	"time"

	"github.com/trezcool/myfeedback/core/feedback"
)

type (
	// DB holds platform records in memory.
	DB struct {
		user       *userTable
		course     *courseTable
		submission *submissionTable
		assessment *assessmentTable
	}

	userTable struct {
		table    map[int64]*feedback.User
		pictures map[int64]string
		mutex    sync.RWMutex
	}

	courseTable struct {
		table  map[int64]*feedback.Course
		roles  map[int64]map[int64]string // {userID: {courseID: role}}
		images map[int64]string
		mutex  sync.RWMutex
	}

	submissionTable struct {
		table []feedback.Submission
		mutex sync.RWMutex
	}

	assessmentKey struct {
		modName  string
		instance int64
	}

	assessmentTable struct {
		table    map[int64][]feedback.Assessment // {courseID: assessments}
		due      map[assessmentKey]time.Time
		required map[assessmentKey]int
		failures map[assessmentKey]error
		mutex    sync.RWMutex
	}
)

func Open() *DB {
	return &DB{
		user: &userTable{
			table:    make(map[int64]*feedback.User),
			pictures: make(map[int64]string),
		},
		course: &courseTable{
			table:  make(map[int64]*feedback.Course),
			roles:  make(map[int64]map[int64]string),
			images: make(map[int64]string),
		},
		submission: &submissionTable{},
		assessment: &assessmentTable{
			table:    make(map[int64][]feedback.Assessment),
			due:      make(map[assessmentKey]time.Time),
			required: make(map[assessmentKey]int),
			failures: make(map[assessmentKey]error),
		},
	}
}

func (db *DB) AddUser(usr feedback.User, pictureURL string) {
	db.user.mutex.Lock()
	defer db.user.mutex.Unlock()
	db.user.table[usr.ID] = &usr
	if pictureURL != "" {
		db.user.pictures[usr.ID] = pictureURL
	}
}

func (db *DB) AddCourse(course feedback.Course, imageURL string) {
	db.course.mutex.Lock()
	defer db.course.mutex.Unlock()
	db.course.table[course.ID] = &course
	if imageURL != "" {
		db.course.images[course.ID] = imageURL
	}
}

// Enrol gives the user a role in the course.
func (db *DB) Enrol(userID, courseID int64, role string) {
	db.course.mutex.Lock()
	defer db.course.mutex.Unlock()
	if _, ok := db.course.roles[userID]; !ok {
		db.course.roles[userID] = make(map[int64]string)
	}
	db.course.roles[userID][courseID] = role
}

func (db *DB) AddSubmission(subs ...feedback.Submission) {
	db.submission.mutex.Lock()
	defer db.submission.mutex.Unlock()
	db.submission.table = append(db.submission.table, subs...)
}

// AddAssessment registers a summative assessment due at due with required submissions to mark.
func (db *DB) AddAssessment(as feedback.Assessment, due time.Time, required int) {
	db.assessment.mutex.Lock()
	defer db.assessment.mutex.Unlock()
	as.Type = feedback.AssessSummative
	db.assessment.table[as.CourseID] = append(db.assessment.table[as.CourseID], as)
	key := assessmentKey{as.ModName, as.Instance}
	db.assessment.due[key] = due
	db.assessment.required[key] = required
}

// FailAssessment makes the assessor of the module instance return err.
func (db *DB) FailAssessment(modName string, instance int64, err error) {
	db.assessment.mutex.Lock()
	defer db.assessment.mutex.Unlock()
	db.assessment.failures[assessmentKey{modName, instance}] = err
}
