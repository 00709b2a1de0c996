package workflow

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"intakeflow/internal/config"
	"intakeflow/internal/domain"
	"intakeflow/internal/notify"
	"intakeflow/internal/repo"
	"intakeflow/internal/status"
)

// Engine executes the intake status workflow: it validates transitions
// against the registry, appends the audit history atomically with the
// status mutation, and computes the notification intents each arrival
// status triggers. It never delivers notifications itself.
type Engine struct {
	DB     *sql.DB
	Repo   repo.Repo
	Config *config.Config
	Now    func() time.Time
}

func New(db *sql.DB, cfg *config.Config) Engine {
	return Engine{
		DB:     db,
		Repo:   repo.Repo{DB: db},
		Config: cfg,
		Now:    time.Now,
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// CanTransition checks the registry: the target must be in the current
// status's next-set AND an action on that edge must carry the acting
// role. Any missing piece fails closed.
func CanTransition(current, next domain.Status, role domain.Role) bool {
	tr := status.TransitionsFor(current)
	found := false
	for _, n := range tr.Next {
		if n == next {
			found = true
			break
		}
	}
	if !found {
		return false
	}
	for _, a := range tr.Actions {
		if a.To == next && a.Role == role {
			return true
		}
	}
	return false
}

// AvailableActions lists the transitions a role may trigger on a form.
func AvailableActions(form domain.Form, role domain.Role) []status.Action {
	var out []status.Action
	for _, a := range status.TransitionsFor(form.EffectiveStatus()).Actions {
		if a.Role == role {
			out = append(out, a)
		}
	}
	return out
}

// TransitionOptions carries the optional transition context.
type TransitionOptions struct {
	Reason     string
	AssignedTo string
}

// Transition moves a form to newStatus on behalf of actor. On success it
// returns the updated form plus the notification intents keyed by the
// arrival status; dispatching those is the caller's concern. The status
// mutation and the history append commit in one transaction: either both
// are visible to subsequent reads or neither is.
func (e Engine) Transition(ctx context.Context, formID string, newStatus domain.Status, actor domain.User, opts TransitionOptions) (domain.Form, []notify.Intent, error) {
	form, err := e.Repo.GetForm(ctx, formID)
	if err != nil {
		return domain.Form{}, nil, err
	}
	current := form.EffectiveStatus()
	if !CanTransition(current, newStatus, actor.Role) {
		return domain.Form{}, nil, TransitionDeniedError{From: current, To: newStatus, Role: actor.Role}
	}

	now := e.now().UTC().Format(time.RFC3339)
	entry := domain.StatusChange{
		From: current,
		To:   newStatus,
		By:   actor.Name,
		ByID: actor.ID,
		Role: actor.Role,
		At:   now,
	}
	if opts.Reason != "" {
		entry.Reason = &opts.Reason
	}

	form.Status = newStatus
	form.UpdatedAt = now
	switch newStatus {
	case domain.StatusKlantInvoer:
		// Sharing issues the client's bearer token; it only works while
		// the form sits in a client-facing status.
		if form.KlantToken == "" {
			form.KlantToken = uuid.New().String()
		}
	case domain.StatusBijBA, domain.StatusFBBacklog:
		route := routeTypeFor(current, newStatus, actor.Role)
		if route != "" {
			form.RouteType = &route
			entry.RouteType = &route
		}
		if opts.AssignedTo != "" {
			form.AssignedTo = &opts.AssignedTo
		}
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Form{}, nil, PersistenceError{Op: "begin", Err: err}
	}
	defer tx.Rollback()
	if err := e.Repo.UpdateForm(ctx, tx, form); err != nil {
		return domain.Form{}, nil, PersistenceError{Op: "update form", Err: err}
	}
	if err := e.Repo.AppendStatusHistory(ctx, tx, form.ID, entry); err != nil {
		return domain.Form{}, nil, PersistenceError{Op: "append history", Err: err}
	}
	if err := tx.Commit(); err != nil {
		return domain.Form{}, nil, PersistenceError{Op: "commit", Err: err}
	}
	form.StatusHistory = append(form.StatusHistory, entry)

	return form, e.transitionIntents(form, current, newStatus, actor, opts), nil
}

// routeTypeFor reads the route semantics off the registry action.
func routeTypeFor(from, to domain.Status, role domain.Role) domain.RouteType {
	for _, a := range status.TransitionsFor(from).Actions {
		if a.To == to && a.Role == role {
			return a.RouteType
		}
	}
	return ""
}

// transitionIntents maps the arrival status to its audience.
func (e Engine) transitionIntents(form domain.Form, from, to domain.Status, actor domain.User, opts TransitionOptions) []notify.Intent {
	title := displayTitle(form)
	data := notify.Data{
		FormID:     form.ID,
		FormType:   string(form.FormType),
		FormTitle:  title,
		SenderID:   actor.ID,
		SenderName: actor.Name,
	}
	var intents []notify.Intent
	switch to {
	case domain.StatusKlantInvoer:
		if form.KlantID != "" {
			data.Message = fmt.Sprintf("%s heeft de intake %q met je gedeeld", actor.Name, title)
			intents = append(intents, notify.Target(notify.IntakeShared, form.KlantID, data))
		}
	case domain.StatusIMAanvullen:
		if form.Eigenaar != "" {
			klantNaam := form.KlantNaam
			if klantNaam == "" {
				klantNaam = "Klant"
			}
			data.SenderName = klantNaam
			data.Message = fmt.Sprintf("%s heeft de intake %q ingediend", klantNaam, title)
			intents = append(intents, notify.Target(notify.IntakeSubmitted, form.Eigenaar, data))
		}
	case domain.StatusKlantAkkoord:
		if form.KlantID != "" {
			data.Message = fmt.Sprintf("%s vraagt je akkoord op de intake %q", actor.Name, title)
			intents = append(intents, notify.Target(notify.AkkoordRequested, form.KlantID, data))
		}
	case domain.StatusStakeholderReview:
		if from == domain.StatusKlantAkkoord && form.Eigenaar != "" {
			given := data
			given.Message = fmt.Sprintf("%s heeft akkoord gegeven op de intake %q", actor.Name, title)
			intents = append(intents, notify.Target(notify.AkkoordGiven, form.Eigenaar, given))
		}
		for _, sh := range form.Stakeholders {
			if sh.PersoonID == "" {
				continue
			}
			d := data
			d.Message = fmt.Sprintf("%s vraagt je review op de intake %q", actor.Name, title)
			intents = append(intents, notify.Target(notify.StakeholderReviewStart, sh.PersoonID, d))
		}
	case domain.StatusBijBA:
		if opts.AssignedTo != "" {
			data.Message = fmt.Sprintf("%s heeft de intake %q naar je werkvoorraad gezet", actor.Name, title)
			intents = append(intents, notify.Target(notify.RoutedToBA, opts.AssignedTo, data))
		}
	case domain.StatusFBBacklog:
		if opts.AssignedTo != "" {
			data.Message = fmt.Sprintf("%s heeft de change %q op de backlog gezet", actor.Name, title)
			intents = append(intents, notify.Target(notify.RoutedToFB, opts.AssignedTo, data))
		}
	case domain.StatusGearchiveerd:
		data.Message = fmt.Sprintf("De intake %q is gearchiveerd", title)
		intents = append(intents, notify.Broadcast(notify.IntakeArchived, data))
	}
	return intents
}

func displayTitle(form domain.Form) string {
	if form.Title != "" {
		return form.Title
	}
	return "Intake"
}

// CreateOptions are parameters for creating a form.
type CreateOptions struct {
	FormType  domain.FormType
	Title     string
	KlantID   string
	KlantNaam string
	Sections  map[string]any
}

// CreateForm inserts a new draft owned by the acting user. Intakes start
// with the fixed I-domein stakeholder slots.
func (e Engine) CreateForm(ctx context.Context, opts CreateOptions, actor domain.User) (domain.Form, error) {
	if !opts.FormType.Valid() {
		return domain.Form{}, fmt.Errorf("onbekend formuliertype %q", opts.FormType)
	}
	if opts.Title == "" {
		return domain.Form{}, errors.New("titel is verplicht")
	}
	now := e.now().UTC().Format(time.RFC3339)
	form := domain.Form{
		ID:        uuid.New().String(),
		FormType:  opts.FormType,
		Title:     opts.Title,
		Status:    domain.StatusDraft,
		KlantID:   opts.KlantID,
		KlantNaam: opts.KlantNaam,
		Eigenaar:  actor.ID,
		Sections:  opts.Sections,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if opts.FormType == domain.FormIntake {
		form.Stakeholders = domain.DefaultStakeholders()
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Form{}, PersistenceError{Op: "begin", Err: err}
	}
	defer tx.Rollback()
	if err := e.Repo.InsertForm(ctx, tx, form); err != nil {
		return domain.Form{}, PersistenceError{Op: "insert form", Err: err}
	}
	if len(form.Stakeholders) > 0 {
		if err := e.Repo.ReplaceStakeholders(ctx, tx, form.ID, form.Stakeholders); err != nil {
			return domain.Form{}, PersistenceError{Op: "insert stakeholders", Err: err}
		}
	}
	if err := tx.Commit(); err != nil {
		return domain.Form{}, PersistenceError{Op: "commit", Err: err}
	}
	return form, nil
}
