package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/myfeedback/core/feedback"
)

type feedbackRepository struct {
	user       *userTable
	submission *submissionTable
}

var _ feedback.Repository = (*feedbackRepository)(nil)

func NewFeedbackRepository(db *DB) feedback.Repository {
	return &feedbackRepository{user: db.user, submission: db.submission}
}

func (repo *feedbackRepository) GetUser(_ context.Context, id int64) (feedback.User, error) {
	repo.user.mutex.RLock()
	defer repo.user.mutex.RUnlock()

	if usr, ok := repo.user.table[id]; ok {
		return *usr, nil
	}
	return feedback.User{}, feedback.ErrUserNotFound
}

func (repo *feedbackRepository) QuerySubmissions(_ context.Context, filter feedback.SubmissionFilter) ([]feedback.Submission, error) {
	repo.submission.mutex.RLock()
	defer repo.submission.mutex.RUnlock()

	mods := make(map[string]bool, len(filter.ModNames))
	for _, m := range filter.ModNames {
		mods[m] = true
	}
	since, until := filter.Since.Unix(), filter.Until.Unix()

	subs := make([]feedback.Submission, 0)
	for _, sub := range repo.submission.table {
		if sub.UserID == filter.UserID && mods[sub.ModName] && sub.LastModified >= since && sub.LastModified <= until {
			subs = append(subs, sub)
		}
	}

	sort.Slice(subs, func(i, j int) bool {
		if subs[i].LastModified != subs[j].LastModified {
			return subs[i].LastModified > subs[j].LastModified
		}
		return subs[i].GradeID > subs[j].GradeID
	})
	if filter.Limit > 0 && len(subs) > filter.Limit {
		subs = subs[:filter.Limit]
	}
	return subs, nil
}
