package emailsvc

import (
	"bytes"
	"net/mail"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/myfeedback/core"
	"github.com/trezcool/myfeedback/core/feedback"
	appfs "github.com/trezcool/myfeedback/fs"
)

func newTestConfig() *core.Config {
	return &core.Config{Env: "TEST", Debug: true, TestMode: true, AppName: "My Feedback"}
}

func TestConsoleService_SendMessages(t *testing.T) {
	ada := mail.Address{Name: "Ada Lovelace", Address: "ada@example.com"}

	tests := []struct {
		name     string
		msg      core.EmailMessage
		wantSent bool
		contains []string
	}{
		{
			name:     "plain body",
			msg:      core.EmailMessage{To: []mail.Address{ada}, Subject: "Hello", BodyStr: "Hi Ada"},
			wantSent: true,
			contains: []string{
				"Subject: [My Feedback] Hello\r\n",
				`To: "Ada Lovelace" <ada@example.com>`,
				"Content-Type: text/plain; charset=utf-8",
				"Hi Ada",
			},
		},
		{
			name:     "cc and bcc",
			msg:      core.EmailMessage{To: []mail.Address{ada}, Cc: []mail.Address{ada}, Bcc: []mail.Address{ada}, BodyStr: "x"},
			wantSent: true,
			contains: []string{"CC: ", "BCC: "},
		},
		{
			name: "no recipients",
			msg:  core.EmailMessage{Subject: "Hello", BodyStr: "Hi"},
		},
		{
			name: "no content",
			msg:  core.EmailMessage{To: []mail.Address{ada}, Subject: "Hello"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			svc := NewConsoleService(newTestConfig(), &out)

			msg := tt.msg
			require.NoError(t, svc.SendMessages(&msg))

			if !tt.wantSent {
				assert.Empty(t, svc.SentMessages())
				assert.Zero(t, out.Len())
				return
			}
			assert.Len(t, svc.SentMessages(), 1)
			for _, s := range tt.contains {
				assert.Contains(t, out.String(), s)
			}
		})
	}
}

func TestConsoleService_digestTemplate(t *testing.T) {
	require.NoError(t, core.ParseEmailTemplates(appfs.FS))

	var out bytes.Buffer
	svc := NewConsoleService(newTestConfig(), &out)

	content := feedback.Content{
		Title:        "Feedback for Ada",
		ShowFeedback: true,
		Feedback: []feedback.Feedback{{
			ID:           3,
			Date:         "2nd March",
			ActivityName: "Essay",
			Link:         "https://platform.test/mod/assign/view.php?id=3",
			CourseName:   "Physics",
			TutorName:    "Marie Curie",
		}},
		AllFeedbackURL: "https://platform.test/report/myfeedback/index.php",
	}
	err := svc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: "Ada Lovelace", Address: "ada@example.com"}},
		Subject:      content.Title,
		TemplateName: "digest",
		TemplateData: content,
		PlatformURL:  "https://platform.test",
	})
	require.NoError(t, err)

	sent := svc.SentMessages()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].TextContent, "- Essay (Physics) by Marie Curie, 2nd March")
	assert.Contains(t, sent[0].TextContent, "Feedback tracker: https://platform.test/report/myfeedback/index.php")
	assert.Contains(t, sent[0].TextContent, "You are receiving this email from https://platform.test")
	assert.Contains(t, sent[0].HTMLContent, "Essay")
	assert.NotContains(t, sent[0].TextContent, "will show here")
	assert.Contains(t, out.String(), "text/html; charset=utf-8")
}

func Test_sendAll(t *testing.T) {
	errBoom := errors.New("boom")
	msgs := []*core.EmailMessage{{Subject: "a"}, {Subject: "b"}, {Subject: "c"}}

	err := sendAll(msgs, func(msg *core.EmailMessage) error {
		if msg.Subject == "b" {
			return errBoom
		}
		return nil
	})
	assert.Equal(t, errBoom, err)

	assert.NoError(t, sendAll(msgs, func(*core.EmailMessage) error { return nil }))
	assert.NoError(t, sendAll(nil, func(*core.EmailMessage) error { return errBoom }))
}

func TestConsoleService_unknownTemplate(t *testing.T) {
	var out bytes.Buffer
	svc := NewConsoleService(newTestConfig(), &out)

	err := svc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: "Ada Lovelace", Address: "ada@example.com"}},
		Subject:      "Hello",
		TemplateName: "no-such-template",
	})
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), `email template "no-such-template" not found`)
	}
	assert.Empty(t, svc.SentMessages())
	assert.Zero(t, out.Len())
}
