// Package server exposes the intake workflow over HTTP using huma on a
// chi router. All errors travel in a single JSON envelope.
package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	"intakeflow/internal/domain"
	"intakeflow/internal/notify"
	"intakeflow/internal/repo"
	"intakeflow/internal/status"
	"intakeflow/internal/workflow"
	"intakeflow/internal/workqueue"
)

// Config for the HTTP API handler.
type Config struct {
	Engine   workflow.Engine
	Notify   notify.Service
	BasePath string
	Auth     AuthConfig
}

type apiErrorBody struct {
	Code    string         `json:"code" example:"transition_denied"`
	Message string         `json:"message" example:"transitie niet toegestaan"`
	Details map[string]any `json:"details,omitempty" jsonschema:"type=object,additionalProperties=true"`
}

// apiError models the error envelope.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

// New returns an HTTP handler exposing the intake API.
func New(cfg Config) (http.Handler, error) {
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/v1"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	huma.DefaultArrayNullable = false
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, "", msg, nil)
	}

	router := chi.NewRouter()
	router.Use(newAuthMiddleware(basePath, cfg.Auth, cfg.Engine.Repo))
	hcfg := huma.DefaultConfig("Intakeflow API", "0.1.0")
	hcfg.OpenAPIPath = "/openapi"
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	registerHealth(group)
	registerForms(group, cfg.Engine)
	registerTransitions(group, cfg.Engine, cfg.Notify)
	registerStatusInfo(group, cfg.Engine)
	registerWorkqueues(group, cfg.Engine)
	registerComments(group, cfg.Engine, cfg.Notify)
	registerChanges(group, cfg.Engine)
	registerStakeholders(group, cfg.Engine)
	registerNotifications(group, cfg.Notify)

	return router, nil
}

func newAPIError(status int, code, message string, details map[string]any) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{
		status: status,
		Body: apiErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	var td workflow.TransitionDeniedError
	if errors.As(err, &td) {
		return newAPIError(http.StatusUnprocessableEntity, "transition_denied", err.Error(), map[string]any{
			"from": string(td.From),
			"to":   string(td.To),
			"role": string(td.Role),
		})
	}
	var pd workflow.PermissionDeniedError
	if errors.As(err, &pd) {
		return newAPIError(http.StatusForbidden, "forbidden", err.Error(), map[string]any{
			"capability": pd.Capability,
			"role":       string(pd.Role),
		})
	}
	var mi workflow.MalformedImportError
	if errors.As(err, &mi) {
		return newAPIError(http.StatusBadRequest, "malformed_import", err.Error(), nil)
	}
	if errors.Is(err, repo.ErrNotFound) {
		return newAPIError(http.StatusNotFound, "not_found", err.Error(), nil)
	}
	var pe workflow.PersistenceError
	if errors.As(err, &pe) {
		return newAPIError(http.StatusInternalServerError, "internal_error", "internal error", map[string]any{"error": err.Error()})
	}
	msg := err.Error()
	lowered := strings.ToLower(msg)
	switch {
	case strings.Contains(lowered, "onbekend") || strings.Contains(lowered, "verplicht") || strings.Contains(lowered, "ontbreekt"):
		return newAPIError(http.StatusBadRequest, "bad_request", msg, nil)
	case strings.Contains(lowered, "al beoordeeld"):
		return newAPIError(http.StatusConflict, "conflict", msg, nil)
	default:
		return newAPIError(http.StatusInternalServerError, "internal_error", "internal error", map[string]any{"error": msg})
	}
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusUnprocessableEntity:
		return "validation_failed"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

// klantMayAccess restricts klant-token sessions to the single form their
// token resolved to.
func klantMayAccess(ctx context.Context, formID string) huma.StatusError {
	p, ok := principalFromContext(ctx)
	if !ok {
		return newAPIError(http.StatusUnauthorized, "unauthorized", "authentication required", nil)
	}
	if p.Source == "klant_token" && p.KlantFormID != formID {
		return newAPIError(http.StatusForbidden, "forbidden", "token geeft geen toegang tot dit formulier", nil)
	}
	return nil
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok"}}, nil
	})
}

func registerForms(api huma.API, e workflow.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-form",
		Method:        http.MethodPost,
		Path:          "/forms",
		Summary:       "Create form",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusUnauthorized},
	}, func(ctx context.Context, input *struct {
		Body CreateFormRequest `json:"body"`
	}) (*struct {
		Body domain.Form `json:"body"`
	}, error) {
		actor, authErr := userFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		form, err := e.CreateForm(ctx, workflow.CreateOptions{
			FormType:  domain.FormType(input.Body.FormType),
			Title:     input.Body.Title,
			KlantID:   input.Body.KlantID,
			KlantNaam: input.Body.KlantNaam,
			Sections:  input.Body.Sections,
		}, actor)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Form `json:"body"`
		}{Body: form}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-forms",
		Method:      http.MethodGet,
		Path:        "/forms",
		Summary:     "List forms",
	}, func(ctx context.Context, input *struct {
		FormType   string `query:"formType"`
		Status     string `query:"status"`
		KlantID    string `query:"klantId"`
		AssignedTo string `query:"assignedTo"`
	}) (*struct {
		Body []domain.Form `json:"body"`
	}, error) {
		if _, authErr := userFromContext(ctx); authErr != nil {
			return nil, authErr
		}
		forms, err := e.Repo.ListForms(ctx, repo.FormFilters{
			FormType:   domain.FormType(input.FormType),
			Status:     domain.Status(input.Status),
			KlantID:    input.KlantID,
			AssignedTo: input.AssignedTo,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Form `json:"body"`
		}{Body: forms}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-form",
		Method:      http.MethodGet,
		Path:        "/forms/{form_id}",
		Summary:     "Get form",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		FormID string `path:"form_id"`
	}) (*struct {
		Body domain.Form `json:"body"`
	}, error) {
		if err := klantMayAccess(ctx, input.FormID); err != nil {
			return nil, err
		}
		form, err := e.Repo.GetForm(ctx, input.FormID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Form `json:"body"`
		}{Body: form}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-form",
		Method:      http.MethodDelete,
		Path:        "/forms/{form_id}",
		Summary:     "Delete form",
		Errors:      []int{http.StatusNotFound, http.StatusForbidden},
	}, func(ctx context.Context, input *struct {
		FormID string `path:"form_id"`
	}) (*struct{}, error) {
		actor, authErr := userFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if actor.Role != domain.RoleInformatiemanager {
			return nil, newAPIError(http.StatusForbidden, "forbidden", "alleen de informatiemanager kan formulieren verwijderen", nil)
		}
		if err := e.Repo.DeleteForm(ctx, input.FormID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "export-form",
		Method:      http.MethodGet,
		Path:        "/forms/{form_id}/export",
		Summary:     "Export form as JSON",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		FormID string `path:"form_id"`
	}) (*struct {
		ContentType string `header:"Content-Type"`
		Body        []byte
	}, error) {
		if _, authErr := userFromContext(ctx); authErr != nil {
			return nil, authErr
		}
		data, err := e.ExportJSON(ctx, input.FormID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			ContentType string `header:"Content-Type"`
			Body        []byte
		}{ContentType: "application/json", Body: data}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "import-form",
		Method:        http.MethodPost,
		Path:          "/forms/import",
		Summary:       "Import a previously exported form",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		RawBody []byte
	}) (*struct {
		Body domain.Form `json:"body"`
	}, error) {
		actor, authErr := userFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		form, err := e.ImportJSON(ctx, input.RawBody, actor)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Form `json:"body"`
		}{Body: form}, nil
	})
}

func registerTransitions(api huma.API, e workflow.Engine, n notify.Service) {
	huma.Register(api, huma.Operation{
		OperationID: "transition-form",
		Method:      http.MethodPost,
		Path:        "/forms/{form_id}/transition",
		Summary:     "Transition form status",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusNotFound,
			http.StatusUnprocessableEntity,
		},
	}, func(ctx context.Context, input *struct {
		FormID string            `path:"form_id"`
		Body   TransitionRequest `json:"body"`
	}) (*struct {
		Body domain.Form `json:"body"`
	}, error) {
		actor, authErr := userFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if err := klantMayAccess(ctx, input.FormID); err != nil {
			return nil, err
		}
		target := domain.Status(input.Body.Status)
		if !status.Known(target) {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "onbekende status "+input.Body.Status, nil)
		}
		form, intents, err := e.Transition(ctx, input.FormID, target, actor, workflow.TransitionOptions{
			Reason:     input.Body.Reason,
			AssignedTo: input.Body.AssignedTo,
		})
		if err != nil {
			return nil, handleError(err)
		}
		n.Dispatch(ctx, intents)
		return &struct {
			Body domain.Form `json:"body"`
		}{Body: form}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "form-actions",
		Method:      http.MethodGet,
		Path:        "/forms/{form_id}/actions",
		Summary:     "Available transitions for the caller",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		FormID string `path:"form_id"`
	}) (*struct {
		Body []ActionResponse `json:"body"`
	}, error) {
		actor, authErr := userFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		form, err := e.Repo.GetForm(ctx, input.FormID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []ActionResponse `json:"body"`
		}{Body: actionResponses(workflow.AvailableActions(form, actor.Role))}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "form-history",
		Method:      http.MethodGet,
		Path:        "/forms/{form_id}/history",
		Summary:     "Status history",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		FormID string `path:"form_id"`
	}) (*struct {
		Body []domain.StatusChange `json:"body"`
	}, error) {
		if _, authErr := userFromContext(ctx); authErr != nil {
			return nil, authErr
		}
		if _, err := e.Repo.GetForm(ctx, input.FormID); err != nil {
			return nil, handleError(err)
		}
		history, err := e.Repo.ListStatusHistory(ctx, input.FormID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.StatusChange `json:"body"`
		}{Body: history}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "form-durations",
		Method:      http.MethodGet,
		Path:        "/forms/{form_id}/durations",
		Summary:     "Time spent per status",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		FormID string `path:"form_id"`
	}) (*struct {
		Body []workqueue.StatusDuration `json:"body"`
	}, error) {
		if _, authErr := userFromContext(ctx); authErr != nil {
			return nil, authErr
		}
		if _, err := e.Repo.GetForm(ctx, input.FormID); err != nil {
			return nil, handleError(err)
		}
		history, err := e.Repo.ListStatusHistory(ctx, input.FormID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []workqueue.StatusDuration `json:"body"`
		}{Body: workqueue.DurationsFor(history)}, nil
	})
}

func registerStatusInfo(api huma.API, e workflow.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-statuses",
		Method:      http.MethodGet,
		Path:        "/statuses",
		Summary:     "Workflow statuses",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []StatusInfoResponse `json:"body"`
	}, error) {
		all := status.All()
		out := make([]StatusInfoResponse, 0, len(all))
		for _, s := range all {
			out = append(out, statusInfoResponse(s))
		}
		return &struct {
			Body []StatusInfoResponse `json:"body"`
		}{Body: out}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "status-counts",
		Method:      http.MethodGet,
		Path:        "/statuses/counts",
		Summary:     "Form counts per status",
	}, func(ctx context.Context, input *struct {
		FormType string `query:"formType"`
	}) (*struct {
		Body map[string]int `json:"body"`
	}, error) {
		if _, authErr := userFromContext(ctx); authErr != nil {
			return nil, authErr
		}
		counts, err := e.Repo.CountFormsByStatus(ctx, domain.FormType(input.FormType))
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body map[string]int `json:"body"`
		}{Body: countsByString(counts)}, nil
	})
}

func registerWorkqueues(api huma.API, e workflow.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "my-workqueue",
		Method:      http.MethodGet,
		Path:        "/workqueue",
		Summary:     "Forms in the caller's work view",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body WorkqueueResponse `json:"body"`
	}, error) {
		actor, authErr := userFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		proj := workqueue.New(e.Config)
		wq, ok := proj.QueueFor(actor.Role)
		if !ok {
			return &struct {
				Body WorkqueueResponse `json:"body"`
			}{Body: WorkqueueResponse{Role: string(actor.Role), Counts: map[string]int{}, Forms: []domain.Form{}}}, nil
		}
		forms, err := e.Repo.ListForms(ctx, repo.FormFilters{})
		if err != nil {
			return nil, handleError(err)
		}
		visible := proj.Project(forms, actor.Role, actor.ID)
		if visible == nil {
			visible = []domain.Form{}
		}
		return &struct {
			Body WorkqueueResponse `json:"body"`
		}{Body: WorkqueueResponse{
			Role:   string(actor.Role),
			Label:  wq.Label,
			Counts: countsByString(workqueue.CountByStatus(visible)),
			Forms:  visible,
		}}, nil
	})
}

func registerComments(api huma.API, e workflow.Engine, n notify.Service) {
	huma.Register(api, huma.Operation{
		OperationID:   "add-comment",
		Method:        http.MethodPost,
		Path:          "/forms/{form_id}/comments",
		Summary:       "Add comment or reply",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		FormID string         `path:"form_id"`
		Body   CommentRequest `json:"body"`
	}) (*struct {
		Body domain.Comment `json:"body"`
	}, error) {
		actor, authErr := userFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if err := klantMayAccess(ctx, input.FormID); err != nil {
			return nil, err
		}
		if input.Body.Text == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "tekst is verplicht", nil)
		}
		c, intents, err := e.AddComment(ctx, input.FormID, workflow.CommentInput{
			ParentCommentID: input.Body.ParentCommentID,
			Type:            input.Body.Type,
			SectionID:       input.Body.SectionID,
			FieldPath:       input.Body.FieldPath,
			Text:            input.Body.Text,
		}, actor)
		if err != nil {
			return nil, handleError(err)
		}
		n.Dispatch(ctx, intents)
		return &struct {
			Body domain.Comment `json:"body"`
		}{Body: c}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-comments",
		Method:      http.MethodGet,
		Path:        "/forms/{form_id}/comments",
		Summary:     "List comments",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		FormID string `path:"form_id"`
	}) (*struct {
		Body []domain.Comment `json:"body"`
	}, error) {
		if _, authErr := userFromContext(ctx); authErr != nil {
			return nil, authErr
		}
		if err := klantMayAccess(ctx, input.FormID); err != nil {
			return nil, err
		}
		if _, err := e.Repo.GetForm(ctx, input.FormID); err != nil {
			return nil, handleError(err)
		}
		comments, err := e.Repo.ListComments(ctx, input.FormID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Comment `json:"body"`
		}{Body: comments}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "set-comment-status",
		Method:      http.MethodPatch,
		Path:        "/forms/{form_id}/comments/{comment_id}",
		Summary:     "Resolve, reject or reopen a comment",
		Errors:      []int{http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		FormID    string               `path:"form_id"`
		CommentID string               `path:"comment_id"`
		Body      CommentStatusRequest `json:"body"`
	}) (*struct {
		Body domain.Comment `json:"body"`
	}, error) {
		actor, authErr := userFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		c, intents, err := e.SetCommentStatus(ctx, input.FormID, input.CommentID, input.Body.Status, input.Body.Reason, actor)
		if err != nil {
			return nil, handleError(err)
		}
		n.Dispatch(ctx, intents)
		return &struct {
			Body domain.Comment `json:"body"`
		}{Body: c}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-comment",
		Method:      http.MethodDelete,
		Path:        "/forms/{form_id}/comments/{comment_id}",
		Summary:     "Delete a comment",
		Errors:      []int{http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		FormID    string `path:"form_id"`
		CommentID string `path:"comment_id"`
	}) (*struct{}, error) {
		actor, authErr := userFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if err := e.DeleteComment(ctx, input.FormID, input.CommentID, actor); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})
}

func registerChanges(api huma.API, e workflow.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "propose-change",
		Method:        http.MethodPost,
		Path:          "/forms/{form_id}/changes",
		Summary:       "Propose a tracked edit",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		FormID string        `path:"form_id"`
		Body   ChangeRequest `json:"body"`
	}) (*struct {
		Body domain.TrackChange `json:"body"`
	}, error) {
		actor, authErr := userFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if err := klantMayAccess(ctx, input.FormID); err != nil {
			return nil, err
		}
		if input.Body.FieldPath == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "fieldPath is verplicht", nil)
		}
		tc, err := e.ProposeChange(ctx, input.FormID, workflow.ChangeInput{
			FieldPath:     input.Body.FieldPath,
			ChangeType:    input.Body.ChangeType,
			OriginalValue: input.Body.OriginalValue,
			NewValue:      input.Body.NewValue,
		}, actor)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.TrackChange `json:"body"`
		}{Body: tc}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-changes",
		Method:      http.MethodGet,
		Path:        "/forms/{form_id}/changes",
		Summary:     "List tracked edits",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		FormID string `path:"form_id"`
	}) (*struct {
		Body []domain.TrackChange `json:"body"`
	}, error) {
		if _, authErr := userFromContext(ctx); authErr != nil {
			return nil, authErr
		}
		if _, err := e.Repo.GetForm(ctx, input.FormID); err != nil {
			return nil, handleError(err)
		}
		changes, err := e.Repo.ListTrackChanges(ctx, input.FormID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.TrackChange `json:"body"`
		}{Body: changes}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "review-change",
		Method:      http.MethodPatch,
		Path:        "/forms/{form_id}/changes/{change_id}",
		Summary:     "Accept or reject a tracked edit",
		Errors:      []int{http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *struct {
		FormID   string        `path:"form_id"`
		ChangeID string        `path:"change_id"`
		Body     ReviewRequest `json:"body"`
	}) (*struct {
		Body domain.TrackChange `json:"body"`
	}, error) {
		actor, authErr := userFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		tc, err := e.ReviewChange(ctx, input.FormID, input.ChangeID, input.Body.Verdict, actor)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.TrackChange `json:"body"`
		}{Body: tc}, nil
	})
}

func registerStakeholders(api huma.API, e workflow.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-stakeholders",
		Method:      http.MethodGet,
		Path:        "/forms/{form_id}/stakeholders",
		Summary:     "List stakeholder slots",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		FormID string `path:"form_id"`
	}) (*struct {
		Body []domain.Stakeholder `json:"body"`
	}, error) {
		if _, authErr := userFromContext(ctx); authErr != nil {
			return nil, authErr
		}
		if _, err := e.Repo.GetForm(ctx, input.FormID); err != nil {
			return nil, handleError(err)
		}
		list, err := e.Repo.ListStakeholders(ctx, input.FormID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Stakeholder `json:"body"`
		}{Body: list}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "assign-stakeholder",
		Method:      http.MethodPut,
		Path:        "/forms/{form_id}/stakeholders/{rol}",
		Summary:     "Bind a person to a stakeholder slot",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		FormID string                   `path:"form_id"`
		Rol    string                   `path:"rol"`
		Body   AssignStakeholderRequest `json:"body"`
	}) (*struct {
		Body domain.Stakeholder `json:"body"`
	}, error) {
		if _, authErr := userFromContext(ctx); authErr != nil {
			return nil, authErr
		}
		if input.Body.PersoonID == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "persoonId is verplicht", nil)
		}
		sh, err := e.AssignStakeholder(ctx, input.FormID, input.Rol, input.Body.PersoonID, input.Body.Naam, input.Body.Email)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Stakeholder `json:"body"`
		}{Body: sh}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "stakeholder-advice",
		Method:      http.MethodPost,
		Path:        "/forms/{form_id}/stakeholders/{rol}/advice",
		Summary:     "Record stakeholder advice",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		FormID string        `path:"form_id"`
		Rol    string        `path:"rol"`
		Body   AdviceRequest `json:"body"`
	}) (*struct {
		Body domain.Stakeholder `json:"body"`
	}, error) {
		actor, authErr := userFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		sh, err := e.SetStakeholderAdvice(ctx, input.FormID, input.Rol, workflow.AdviceInput{
			Akkoord:  input.Body.Akkoord,
			Feedback: input.Body.Feedback,
		}, actor)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Stakeholder `json:"body"`
		}{Body: sh}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "stakeholder-informed",
		Method:      http.MethodPost,
		Path:        "/forms/{form_id}/stakeholders/{rol}/informed",
		Summary:     "Mark stakeholder as informed",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		FormID string `path:"form_id"`
		Rol    string `path:"rol"`
	}) (*struct {
		Body domain.Stakeholder `json:"body"`
	}, error) {
		if _, authErr := userFromContext(ctx); authErr != nil {
			return nil, authErr
		}
		sh, err := e.MarkStakeholderInformed(ctx, input.FormID, input.Rol)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Stakeholder `json:"body"`
		}{Body: sh}, nil
	})
}

func registerNotifications(api huma.API, n notify.Service) {
	huma.Register(api, huma.Operation{
		OperationID: "list-notifications",
		Method:      http.MethodGet,
		Path:        "/notifications",
		Summary:     "List the caller's notifications",
	}, func(ctx context.Context, input *struct {
		UnreadOnly bool `query:"unread"`
	}) (*struct {
		Body []domain.Notification `json:"body"`
	}, error) {
		actor, authErr := userFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		items, err := n.List(ctx, actor.ID, input.UnreadOnly)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Notification `json:"body"`
		}{Body: items}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "unread-count",
		Method:      http.MethodGet,
		Path:        "/notifications/unread",
		Summary:     "Unread notification count",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]int `json:"body"`
	}, error) {
		actor, authErr := userFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		count, err := n.CountUnread(ctx, actor.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body map[string]int `json:"body"`
		}{Body: map[string]int{"unread": count}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "mark-notification-read",
		Method:      http.MethodPost,
		Path:        "/notifications/{notification_id}/read",
		Summary:     "Mark one notification read",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		NotificationID string `path:"notification_id"`
	}) (*struct{}, error) {
		if _, authErr := userFromContext(ctx); authErr != nil {
			return nil, authErr
		}
		if err := n.MarkRead(ctx, input.NotificationID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "mark-all-read",
		Method:      http.MethodPost,
		Path:        "/notifications/read-all",
		Summary:     "Mark all notifications read",
	}, func(ctx context.Context, _ *struct{}) (*struct{}, error) {
		actor, authErr := userFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if err := n.MarkAllRead(ctx, actor.ID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-notification",
		Method:      http.MethodDelete,
		Path:        "/notifications/{notification_id}",
		Summary:     "Delete a notification",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		NotificationID string `path:"notification_id"`
	}) (*struct{}, error) {
		if _, authErr := userFromContext(ctx); authErr != nil {
			return nil, authErr
		}
		if err := n.Delete(ctx, input.NotificationID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})
}
