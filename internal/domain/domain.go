package domain

// Status is the canonical intake workflow status. Older stored records carry
// the value in a legacy field; see NormalizeStatus.
type Status string

const (
	StatusDraft             Status = "draft"
	StatusKlantInvoer       Status = "klant_invoer"
	StatusIMAanvullen       Status = "im_aanvullen"
	StatusKlantAkkoord      Status = "klant_akkoord"
	StatusStakeholderReview Status = "stakeholder_review"
	StatusIMRoutering       Status = "im_routering"
	StatusBijBA             Status = "bij_ba"
	StatusFBBacklog         Status = "fb_backlog"
	StatusGearchiveerd      Status = "gearchiveerd"
)

// NormalizeStatus resolves the dual status representation found in stored
// forms: later generations write intakeStatus, earlier ones only status.
func NormalizeStatus(intakeStatus, legacy Status) Status {
	if intakeStatus != "" {
		return intakeStatus
	}
	if legacy != "" {
		return legacy
	}
	return StatusDraft
}

// Role identifies a workflow participant kind.
type Role string

const (
	RoleInformatiemanager    Role = "informatiemanager"
	RoleBusinessAnalist      Role = "business_analist"
	RoleFunctioneelBeheerder Role = "functioneel_beheerder"
	RolePMO                  Role = "pmo"
	RoleKlant                Role = "klant"
	RoleStakeholder          Role = "stakeholder"
)

// RouteType is the routing decision taken during im_routering.
type RouteType string

const (
	RouteProject RouteType = "project"
	RouteChange  RouteType = "change"
)

// FormType discriminates the four supported form kinds.
type FormType string

const (
	FormIntake              FormType = "intakeformulier"
	FormKleinProjectMandaat FormType = "klein_project_mandaat"
	FormICTProjectMandaat   FormType = "ict_project_mandaat"
	FormImpactanalyse       FormType = "impactanalyse"
)

// Valid reports whether t is one of the known form kinds.
func (t FormType) Valid() bool {
	switch t {
	case FormIntake, FormKleinProjectMandaat, FormICTProjectMandaat, FormImpactanalyse:
		return true
	}
	return false
}

// FormTypes lists all known form kinds.
func FormTypes() []FormType {
	return []FormType{FormIntake, FormKleinProjectMandaat, FormICTProjectMandaat, FormImpactanalyse}
}

// User is the acting session context supplied by the caller on every
// engine operation. The engine trusts it; authentication lives elsewhere.
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role Role   `json:"role"`
}

// StatusChange is one append-only audit entry. Entries are never mutated
// or reordered after insertion.
type StatusChange struct {
	From      Status     `json:"from"`
	To        Status     `json:"to"`
	By        string     `json:"by"`
	ByID      string     `json:"byId"`
	Role      Role       `json:"role"`
	At        string     `json:"at" format:"date-time"`
	Reason    *string    `json:"reason,omitempty"`
	RouteType *RouteType `json:"routeType,omitempty"`
}

// Comment statuses.
const (
	CommentOpen      = "open"
	CommentVerwerkt  = "verwerkt"
	CommentAfgewezen = "afgewezen"
)

type Comment struct {
	ID              string  `json:"id"`
	ParentCommentID *string `json:"parentCommentId,omitempty"`
	Type            string  `json:"type" enum:"section,field,inline"`
	SectionID       string  `json:"sectionId"`
	FieldPath       *string `json:"fieldPath,omitempty"`
	Text            string  `json:"text"`
	Status          string  `json:"status" enum:"open,verwerkt,afgewezen"`
	StatusChangedAt *string `json:"statusChangedAt,omitempty" format:"date-time"`
	StatusChangedBy *string `json:"statusChangedBy,omitempty"`
	StatusReason    *string `json:"statusReason,omitempty"`
	Author          string  `json:"author"`
	AuthorID        string  `json:"authorId"`
	AuthorRole      Role    `json:"authorRole"`
	CreatedAt       string  `json:"createdAt" format:"date-time"`
	UpdatedAt       string  `json:"updatedAt" format:"date-time"`
}

// Track change statuses.
const (
	ChangePending  = "pending"
	ChangeAccepted = "accepted"
	ChangeRejected = "rejected"
)

type TrackChange struct {
	ID            string  `json:"id"`
	FieldPath     string  `json:"fieldPath"`
	ChangeType    string  `json:"changeType" enum:"insert,delete,replace"`
	OriginalValue string  `json:"originalValue"`
	NewValue      string  `json:"newValue"`
	Status        string  `json:"status" enum:"pending,accepted,rejected"`
	Author        string  `json:"author"`
	AuthorRole    Role    `json:"authorRole"`
	CreatedAt     string  `json:"createdAt" format:"date-time"`
	ReviewedAt    *string `json:"reviewedAt,omitempty" format:"date-time"`
	ReviewedBy    *string `json:"reviewedBy,omitempty"`
}

// Stakeholder is a role-oriented reviewer attached to a form. Akkoord is
// tri-state: nil means undecided, distinct from an explicit false.
type Stakeholder struct {
	Rol           string `json:"rol"`
	PersoonID     string `json:"persoonId"`
	Naam          string `json:"naam"`
	Email         string `json:"email"`
	Betrokkenheid string `json:"betrokkenheid" enum:"Akkoord,Adviseren,Informeren"`
	Geinformeerd  bool   `json:"geinformeerd"`
	Akkoord       *bool  `json:"akkoord"`
	Feedback      string `json:"feedback,omitempty"`
}

// DefaultStakeholders returns the fixed I-domein reviewer slots a new
// intake starts with.
func DefaultStakeholders() []Stakeholder {
	rows := []struct {
		rol, betrokkenheid string
	}{
		{"Opdrachtgever", "Akkoord"},
		{"Aanvrager", "Informeren"},
		{"Architectuur", "Adviseren"},
		{"ISO/Privacy", "Adviseren"},
		{"InformatieBeheer", "Adviseren"},
		{"Servicemanagement", "Informeren"},
		{"Functioneel Beheer", "Informeren"},
		{"ITB", "Adviseren"},
		{"BICC/Productowner", "Informeren"},
	}
	out := make([]Stakeholder, 0, len(rows))
	for _, r := range rows {
		out = append(out, Stakeholder{Rol: r.rol, Betrokkenheid: r.betrokkenheid})
	}
	return out
}

// Notification is one delivered in-app message. TargetUserID nil means
// it was broadcast to everyone.
type Notification struct {
	ID           string  `json:"id"`
	Type         string  `json:"type"`
	Title        string  `json:"title"`
	Message      string  `json:"message"`
	Icon         string  `json:"icon"`
	Color        string  `json:"color"`
	TargetUserID *string `json:"targetUserId,omitempty"`
	FormID       string  `json:"relatedFormId,omitempty"`
	FormType     string  `json:"relatedFormType,omitempty"`
	FormTitle    string  `json:"relatedFormTitle,omitempty"`
	SenderName   string  `json:"senderName,omitempty"`
	SenderID     string  `json:"senderId,omitempty"`
	IsRead       bool    `json:"isRead"`
	CreatedAt    string  `json:"createdAt" format:"date-time"`
	ReadAt       *string `json:"readAt,omitempty" format:"date-time"`
}

// Form is the aggregate the workflow mutates. Status is canonical in
// memory; both legacy fields are written at the storage and JSON
// boundaries for compatibility with older form generations.
type Form struct {
	ID         string   `json:"id"`
	FormType   FormType `json:"formType"`
	Title      string   `json:"title"`
	Status     Status   `json:"-"`
	KlantID    string   `json:"klantId,omitempty"`
	KlantNaam  string   `json:"klantNaam,omitempty"`
	KlantToken string   `json:"klantToken,omitempty"`
	// Eigenaar is the internal owner (informatiemanager) who created the form.
	Eigenaar   string     `json:"eigenaar,omitempty"`
	AssignedTo *string    `json:"assignedTo,omitempty"`
	RouteType  *RouteType `json:"routeType,omitempty"`
	// Sections holds the form-kind-specific field groups as raw JSON;
	// rendering of those fields is outside this module.
	Sections      map[string]any `json:"sections,omitempty"`
	StatusHistory []StatusChange `json:"statusHistory,omitempty"`
	Comments      []Comment      `json:"comments,omitempty"`
	TrackChanges  []TrackChange  `json:"trackChanges,omitempty"`
	Stakeholders  []Stakeholder  `json:"stakeholders,omitempty"`
	CreatedAt     string         `json:"createdAt" format:"date-time"`
	UpdatedAt     string         `json:"updatedAt" format:"date-time"`
	ImportedAt    *string        `json:"importedAt,omitempty" format:"date-time"`
}

// EffectiveStatus falls back to draft for forms that never recorded one.
func (f Form) EffectiveStatus() Status {
	return NormalizeStatus(f.Status, "")
}

// KlantTokenUsable reports whether the client token grants access in the
// form's current status. Tokens survive transitions but only work while
// the form sits in a client-facing state.
func (f Form) KlantTokenUsable() bool {
	s := f.EffectiveStatus()
	return f.KlantToken != "" && (s == StatusKlantInvoer || s == StatusKlantAkkoord)
}
