package feedback

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/myfeedback/core"
)

var NowFunc = time.Now // mockable

type (
	Options struct {
		WWWRoot            string
		FeedbackReportPath string
		Location           *time.Location
		Block              core.BlockConfig
	}

	Service interface {
		GetUser(ctx context.Context, id int64) (User, error)
		// GetSubmissions returns the user's most recent graded submissions within the feedback window.
		GetSubmissions(ctx context.Context, usr User) ([]Submission, error)
		// FetchFeedback returns the user's most recent feedback, newest first.
		FetchFeedback(ctx context.Context, usr User) ([]Feedback, error)
		// IsMarker reports whether the user marks in any course.
		IsMarker(ctx context.Context, usr User) (bool, error)
		// FetchMarking returns the assessments the user needs to mark, soonest due first.
		FetchMarking(ctx context.Context, usr User) ([]Marking, error)
		NewBlock(usr User) *Block
	}

	service struct {
		repo      Repository
		platform  Platform
		assessors Assessors
		logger    core.Logger
		opts      Options
	}
)

var _ Service = (*service)(nil) // interface compliance check

func NewService(repo Repository, platform Platform, assessors Assessors, logger core.Logger, opts Options) Service {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &service{
		repo:      repo,
		platform:  platform,
		assessors: assessors,
		logger:    logger,
		opts:      opts,
	}
}

// NewOptions builds the service Options out of the app configuration.
func NewOptions(conf *core.Config) Options {
	return Options{
		WWWRoot:            conf.Platform.WWWRoot,
		FeedbackReportPath: conf.Platform.FeedbackReportPath,
		Location:           conf.Platform.Location(),
		Block:              conf.Block,
	}
}

func (svc *service) GetUser(ctx context.Context, id int64) (User, error) {
	return svc.repo.GetUser(ctx, id)
}

func (svc *service) GetSubmissions(ctx context.Context, usr User) ([]Submission, error) {
	now := NowFunc()
	subs, err := svc.repo.QuerySubmissions(ctx, SubmissionFilter{
		UserID:   usr.ID,
		ModNames: svc.opts.Block.ModuleNames,
		Since:    now.Add(-svc.opts.Block.FeedbackWindow),
		Until:    now,
		Limit:    svc.opts.Block.MaxItems,
	})
	if err != nil {
		return nil, errors.Wrap(err, "querying submissions")
	}
	return subs, nil
}

func (svc *service) FetchFeedback(ctx context.Context, usr User) ([]Feedback, error) {
	subs, err := svc.GetSubmissions(ctx, usr)
	if err != nil {
		return nil, err
	}

	items := make([]Feedback, 0, len(subs))
	for _, sub := range subs {
		fb := Feedback{
			ID:           sub.GradeID,
			Date:         FormatDay(time.Unix(sub.LastModified, 0).In(svc.opts.Location)),
			ActivityName: core.FormatString(sub.Name),
			Link:         svc.moduleURL(sub.ModName, sub.CMID),
			CourseName:   core.FormatString(sub.CourseName),
		}
		if err := svc.setTutor(ctx, &fb, sub, usr); err != nil {
			return nil, err
		}
		items = append(items, fb)
	}
	return items, nil
}

// setTutor sets the marker details on fb; the course image stands in for the marker
// when the grader identity is hidden from learners.
func (svc *service) setTutor(ctx context.Context, fb *Feedback, sub Submission, usr User) error {
	if !sub.HideGrader {
		grader, err := svc.repo.GetUser(ctx, sub.Grader)
		switch errors.Cause(err) {
		case nil:
			fb.TutorName = core.FormatString(grader.FullName())
			icon, err := svc.platform.UserPictureURL(ctx, grader)
			if err != nil {
				svc.logger.Warn(fmt.Sprintf("getting picture of user %d: %v", grader.ID, err), err, usr)
			}
			fb.TutorIcon = icon
			return nil
		case ErrUserNotFound: // fall back to the course image
		default:
			return errors.Wrap(err, "finding grader")
		}
	}
	fb.TutorIcon = svc.courseImage(ctx, sub.CourseID, usr)
	return nil
}

func (svc *service) courseImage(ctx context.Context, courseID int64, usr User) string {
	icon, err := svc.platform.CourseImageURL(ctx, courseID)
	if err != nil {
		svc.logger.Warn(fmt.Sprintf("getting image of course %d: %v", courseID, err), err, usr)
		return ""
	}
	return icon
}

func (svc *service) moduleURL(modName string, cmid int64) string {
	return fmt.Sprintf("%s/mod/%s/view.php?id=%d", svc.opts.WWWRoot, modName, cmid)
}

func (svc *service) IsMarker(ctx context.Context, usr User) (bool, error) {
	courses, err := svc.platform.MarkerCourses(ctx, usr.ID, svc.opts.Block.MarkerRoles)
	if err != nil {
		return false, errors.Wrap(err, "querying marker courses")
	}
	return len(courses) > 0, nil
}

func (svc *service) FetchMarking(ctx context.Context, usr User) ([]Marking, error) {
	courses, err := svc.platform.MarkerCourses(ctx, usr.ID, svc.opts.Block.MarkerRoles)
	if err != nil {
		return nil, errors.Wrap(err, "querying marker courses")
	}

	now := NowFunc()
	dueFrom := now.Add(-svc.opts.Block.MarkingPast)
	dueTo := now.Add(svc.opts.Block.MarkingAhead)
	endedBefore := now.Add(-svc.opts.Block.CourseGrace)

	items := make([]Marking, 0)
	for _, course := range courses {
		if course.EndedBefore(endedBefore) {
			continue
		}
		assessments, err := svc.platform.SummativeAssessments(ctx, course.ID, svc.opts.Block.ModuleNames)
		if err != nil {
			return nil, errors.Wrapf(err, "querying assessments of course %d", course.ID)
		}

		var icon *string
		for _, as := range assessments {
			item, ok := svc.markingItem(ctx, as, usr, dueFrom, dueTo)
			if !ok {
				continue
			}
			if icon == nil {
				img := svc.courseImage(ctx, course.ID, usr)
				icon = &img
			}
			item.CourseName = core.FormatString(course.FullName)
			item.Icon = *icon
			items = append(items, item)
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].Due.Equal(items[j].Due) {
			return items[i].Due.Before(items[j].Due)
		}
		return items[i].ID < items[j].ID
	})
	if limit := svc.opts.Block.MaxItems; limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// markingItem asks the module's assessor whether the assessment is due within [dueFrom, dueTo]
// and still needs marking. Assessor failures are reported and the assessment skipped.
func (svc *service) markingItem(ctx context.Context, as Assessment, usr User, dueFrom, dueTo time.Time) (Marking, bool) {
	assessor, err := svc.assessors.Get(as.ModName)
	if err != nil {
		svc.logger.Warn(fmt.Sprintf("no assessor for module %q (cmid %d)", as.ModName, as.CMID), err, usr)
		return Marking{}, false
	}

	due, err := assessor.DueDate(ctx, as.Instance)
	if err != nil {
		svc.logger.Error(fmt.Sprintf("getting due date of %s %d: %v", as.ModName, as.Instance, err), err, usr)
		return Marking{}, false
	}
	if due.IsZero() || due.Before(dueFrom) || due.After(dueTo) {
		return Marking{}, false
	}

	required, err := assessor.MarkingRequired(ctx, as.Instance)
	if err != nil {
		svc.logger.Error(fmt.Sprintf("counting marking required for %s %d: %v", as.ModName, as.Instance, err), err, usr)
		return Marking{}, false
	}
	if required <= 0 {
		return Marking{}, false
	}

	return Marking{
		ID:       as.CMID,
		Name:     core.FormatString(as.Name),
		DueDate:  FormatDay(due.In(svc.opts.Location)),
		Due:      due,
		Required: required,
		Link:     assessor.GradingURL(as.CMID),
	}, true
}
