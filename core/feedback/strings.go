package feedback

// Language strings.
const (
	StrFeedbackFor               = "Feedback for"
	StrMarkingFor                = "Marking for"
	StrNoRecentFeedback          = "Recent feedback you've received will show here."
	StrNoMarking                 = "Marking you need to do will show here."
	StrFeedbackReport            = "Feedback tracker"
	StrFeedbackReportDescription = "Assessments, feedback, and marks from your courses."
)

var langStrings = map[string]string{
	"feedbackfor":               StrFeedbackFor,
	"markingfor":                StrMarkingFor,
	"norecentfeedback":          StrNoRecentFeedback,
	"nomarking":                 StrNoMarking,
	"feedbackreport":            StrFeedbackReport,
	"feedbackreportdescription": StrFeedbackReportDescription,
}
