package server

import (
	"intakeflow/internal/domain"
	"intakeflow/internal/status"
)

type CreateFormRequest struct {
	FormType  string         `json:"formType" example:"intakeformulier"`
	Title     string         `json:"title" example:"Nieuw zaaksysteem"`
	KlantID   string         `json:"klantId,omitempty"`
	KlantNaam string         `json:"klantNaam,omitempty"`
	Sections  map[string]any `json:"sections,omitempty"`
}

type TransitionRequest struct {
	Status     string `json:"status" example:"klant_invoer"`
	Reason     string `json:"reason,omitempty"`
	AssignedTo string `json:"assignedTo,omitempty"`
}

type ActionResponse struct {
	To        string `json:"to"`
	Label     string `json:"label"`
	Icon      string `json:"icon,omitempty"`
	RouteType string `json:"routeType,omitempty"`
}

func actionResponses(actions []status.Action) []ActionResponse {
	out := make([]ActionResponse, 0, len(actions))
	for _, a := range actions {
		out = append(out, ActionResponse{
			To:        string(a.To),
			Label:     a.Label,
			Icon:      a.Icon,
			RouteType: string(a.RouteType),
		})
	}
	return out
}

type StatusInfoResponse struct {
	Status      string `json:"status"`
	Label       string `json:"label"`
	BadgeClass  string `json:"badgeClass"`
	Icon        string `json:"icon"`
	Description string `json:"description,omitempty"`
}

func statusInfoResponse(s domain.Status) StatusInfoResponse {
	info := status.InfoFor(s)
	return StatusInfoResponse{
		Status:      string(s),
		Label:       info.Label,
		BadgeClass:  info.BadgeClass,
		Icon:        info.Icon,
		Description: info.Description,
	}
}

type CommentRequest struct {
	ParentCommentID string `json:"parentCommentId,omitempty"`
	Type            string `json:"type,omitempty" enum:"section,field,inline"`
	SectionID       string `json:"sectionId,omitempty"`
	FieldPath       string `json:"fieldPath,omitempty"`
	Text            string `json:"text"`
}

type CommentStatusRequest struct {
	Status string `json:"status" enum:"open,verwerkt,afgewezen"`
	Reason string `json:"reason,omitempty"`
}

type ChangeRequest struct {
	FieldPath     string `json:"fieldPath"`
	ChangeType    string `json:"changeType,omitempty" enum:"insert,delete,replace"`
	OriginalValue string `json:"originalValue,omitempty"`
	NewValue      string `json:"newValue,omitempty"`
}

type ReviewRequest struct {
	Verdict string `json:"verdict" enum:"accepted,rejected"`
}

type AdviceRequest struct {
	Akkoord  *bool  `json:"akkoord"`
	Feedback string `json:"feedback,omitempty"`
}

type AssignStakeholderRequest struct {
	PersoonID string `json:"persoonId"`
	Naam      string `json:"naam"`
	Email     string `json:"email,omitempty"`
}

type WorkqueueResponse struct {
	Role   string         `json:"role"`
	Label  string         `json:"label"`
	Counts map[string]int `json:"counts"`
	Forms  []domain.Form  `json:"forms"`
}

func countsByString(counts map[domain.Status]int) map[string]int {
	out := make(map[string]int, len(counts))
	for s, n := range counts {
		out[string(s)] = n
	}
	return out
}
