package feedback

import (
	"context"
	"fmt"
	"html/template"
	"io"
	"strings"
	"sync"

	"github.com/pkg/errors"

	appfs "github.com/trezcool/myfeedback/fs"
)

var (
	blockTmpl     *template.Template
	blockTmplOnce sync.Once
	blockTmplErr  error

	// applicableFormats lists the page formats the block can be added to.
	applicableFormats = map[string]bool{
		FormatAdmin:      false,
		FormatSiteIndex:  true,
		FormatCourseView: false,
		FormatMod:        false,
		FormatMy:         true,
	}
)

// ApplicableFormats returns in which page formats the block can be added.
func ApplicableFormats() map[string]bool {
	formats := make(map[string]bool, len(applicableFormats))
	for f, ok := range applicableFormats {
		formats[f] = ok
	}
	return formats
}

// IsApplicable reports whether the block can be added to a page of the given type.
// Page types match their most specific registered format: "mod-assign-view" matches "mod".
func IsApplicable(pageType string) bool {
	for pt := pageType; pt != ""; {
		if ok, found := applicableFormats[pt]; found {
			return ok
		}
		i := strings.LastIndexByte(pt, '-')
		if i < 0 {
			break
		}
		pt = pt[:i]
	}
	return false
}

// Title returns the block title for the given user.
func Title(usr User, marker bool) string {
	if marker {
		return StrMarkingFor + " " + usr.FirstName
	}
	return StrFeedbackFor + " " + usr.FirstName
}

// Block is an instance of the block for a given user. Its content is computed once.
type Block struct {
	svc     Service
	usr     User
	report  string
	content *Content
}

func (svc *service) NewBlock(usr User) *Block {
	return &Block{
		svc:    svc,
		usr:    usr,
		report: svc.opts.WWWRoot + svc.opts.FeedbackReportPath,
	}
}

func (b *Block) User() User { return b.usr }

// Content returns the block content: the marking workload for markers, the recent feedback otherwise.
func (b *Block) Content(ctx context.Context) (Content, error) {
	if b.content != nil {
		return *b.content, nil
	}

	marker, err := b.svc.IsMarker(ctx, b.usr)
	if err != nil {
		return Content{}, err
	}

	c := Content{
		Title:          Title(b.usr, marker),
		AllFeedbackURL: b.report,
	}
	if marker {
		if c.Marking, err = b.svc.FetchMarking(ctx, b.usr); err != nil {
			return Content{}, errors.Wrap(err, "fetching marking")
		}
		c.ShowMarking = true
		c.NoMarking = len(c.Marking) == 0
	} else {
		if c.Feedback, err = b.svc.FetchFeedback(ctx, b.usr); err != nil {
			return Content{}, errors.Wrap(err, "fetching feedback")
		}
		c.ShowFeedback = true
		c.NoFeedback = len(c.Feedback) == 0
	}

	b.content = &c
	return c, nil
}

// Render writes the HTML rendition of the block content to w.
func Render(w io.Writer, c Content) error {
	blockTmplOnce.Do(func() {
		blockTmpl, blockTmplErr = template.New("content.gohtml").Funcs(template.FuncMap{
			"str": func(name string) string { return langStrings[name] },
		}).ParseFS(appfs.FS, "assets/templates/block/content.gohtml")
	})
	if blockTmplErr != nil {
		return errors.Wrap(blockTmplErr, "parsing block template")
	}
	return blockTmpl.Execute(w, c)
}

// Text returns a plain text rendition of the block content.
func (c Content) Text() string {
	var b strings.Builder
	b.WriteString(c.Title + "\n")
	switch {
	case c.ShowMarking && c.NoMarking:
		b.WriteString(StrNoMarking + "\n")
	case c.ShowMarking:
		for _, m := range c.Marking {
			fmt.Fprintf(&b, "- %s (%s): %d to mark, due %s\n  %s\n", m.Name, m.CourseName, m.Required, m.DueDate, m.Link)
		}
	case c.ShowFeedback && c.NoFeedback:
		b.WriteString(StrNoRecentFeedback + "\n")
	case c.ShowFeedback:
		for _, f := range c.Feedback {
			by := ""
			if f.TutorName != "" {
				by = " by " + f.TutorName
			}
			fmt.Fprintf(&b, "- %s (%s): feedback%s on %s\n  %s\n", f.ActivityName, f.CourseName, by, f.Date, f.Link)
		}
	}
	fmt.Fprintf(&b, "%s: %s\n", StrFeedbackReport, c.AllFeedbackURL)
	return b.String()
}
