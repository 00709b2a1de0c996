// Package notify carries the typed notification catalogue and the
// sqlite-backed dispatcher. Delivery is fire-and-forget: failures are
// logged, never propagated into the workflow.
package notify

// Type enumerates the notification kinds emitted by the workflow.
type Type string

const (
	IntakeShared           Type = "intake_shared"
	IntakeSubmitted        Type = "intake_submitted"
	AkkoordRequested       Type = "akkoord_requested"
	AkkoordGiven           Type = "akkoord_given"
	StakeholderReviewStart Type = "stakeholder_review_start"
	CommentAdded           Type = "comment_added"
	CommentResolved        Type = "comment_resolved"
	RoutedToBA             Type = "routed_to_ba"
	RoutedToFB             Type = "routed_to_fb"
	IntakeArchived         Type = "intake_archived"
)

// Template is the human-readable rendering of a notification type.
type Template struct {
	Title   string
	Message string
	Icon    string
	Color   string
}

var templates = map[Type]Template{
	IntakeShared:           {Title: "Nieuwe intake gedeeld", Message: "Er is een intake met je gedeeld voor invoer", Icon: "share", Color: "info"},
	IntakeSubmitted:        {Title: "Intake ingediend", Message: "De klant heeft de intake ingediend", Icon: "inbox", Color: "success"},
	AkkoordRequested:       {Title: "Akkoord gevraagd", Message: "Je akkoord wordt gevraagd op een intake", Icon: "thumbs-up", Color: "warning"},
	AkkoordGiven:           {Title: "Akkoord gegeven", Message: "De klant heeft akkoord gegeven", Icon: "check", Color: "success"},
	StakeholderReviewStart: {Title: "Review gestart", Message: "Een intake is gedeeld voor stakeholder review", Icon: "users", Color: "info"},
	CommentAdded:           {Title: "Nieuwe opmerking", Message: "Er is een opmerking geplaatst", Icon: "message-circle", Color: "info"},
	CommentResolved:        {Title: "Opmerking verwerkt", Message: "Een opmerking is verwerkt", Icon: "check-circle", Color: "success"},
	RoutedToBA:             {Title: "Intake ontvangen", Message: "Een nieuwe intake staat in je werkvoorraad", Icon: "arrow-right", Color: "primary"},
	RoutedToFB:             {Title: "Change ontvangen", Message: "Een nieuwe change staat op de backlog", Icon: "list", Color: "primary"},
	IntakeArchived:         {Title: "Intake gearchiveerd", Message: "Een intake is gearchiveerd", Icon: "archive", Color: "secondary"},
}

// TemplateFor returns the rendering for a type, with a generic fallback.
func TemplateFor(t Type) Template {
	if tpl, ok := templates[t]; ok {
		return tpl
	}
	return Template{Title: "Notificatie", Icon: "bell", Color: "info"}
}

// Data is the contextual payload attached to a notification.
type Data struct {
	FormID     string
	FormType   string
	FormTitle  string
	SenderID   string
	SenderName string
	// Message overrides the template message when set.
	Message string
}

// Intent is the engine's declaration that a notification should go out.
// TargetUserID nil means broadcast. The engine returns intents; a
// dispatcher consumes them after the transition has committed.
type Intent struct {
	Type         Type
	TargetUserID *string
	Data         Data
}

// Target is shorthand for an intent aimed at one user.
func Target(t Type, userID string, data Data) Intent {
	return Intent{Type: t, TargetUserID: &userID, Data: data}
}

// Broadcast is shorthand for an intent aimed at everyone.
func Broadcast(t Type, data Data) Intent {
	return Intent{Type: t, Data: data}
}
