package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"intakeflow/internal/config"
	"intakeflow/internal/db"
	"intakeflow/internal/domain"
	"intakeflow/internal/migrate"
	"intakeflow/internal/notify"
	"intakeflow/internal/repo"
	"intakeflow/internal/server"
	"intakeflow/internal/status"
	"intakeflow/internal/workflow"
	"intakeflow/internal/workqueue"
)

var rootCmd = &cobra.Command{
	Use:   "ifl",
	Short: "Intakeflow CLI",
	Long: `Intakeflow begeleidt projectintakes door een vaste statusflow.
Een formulier start als draft, gaat naar de klant voor invoer, terug naar
de informatiemanager, langs klant-akkoord en stakeholder review, en wordt
vanuit im_routering als project naar een business analist of als change
naar functioneel beheer gerouteerd. Elke overgang is rolgebonden en wordt
vastgelegd in een onveranderlijke statushistorie.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("INTAKEFLOW")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("user-id", "local-user", "acting user id")
	rootCmd.PersistentFlags().String("user-name", "", "acting user name")
	rootCmd.PersistentFlags().String("role", "informatiemanager", "acting user role")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("user-id", rootCmd.PersistentFlags().Lookup("user-id"))
	_ = viper.BindPFlag("user-name", rootCmd.PersistentFlags().Lookup("user-name"))
	_ = viper.BindPFlag("role", rootCmd.PersistentFlags().Lookup("role"))
}

func registerCommands() {
	rootCmd.AddCommand(formCmd())
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(workqueueCmd())
	rootCmd.AddCommand(commentCmd())
	rootCmd.AddCommand(changeCmd())
	rootCmd.AddCommand(stakeholderCmd())
	rootCmd.AddCommand(notifyCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(serveCmd())
}

func currentUser() domain.User {
	name := viper.GetString("user-name")
	if name == "" {
		name = viper.GetString("user-id")
	}
	return domain.User{
		ID:   viper.GetString("user-id"),
		Name: name,
		Role: domain.Role(viper.GetString("role")),
	}
}

// --- form ---

func formCmd() *cobra.Command {
	form := &cobra.Command{Use: "form", Short: "Manage forms"}
	form.AddCommand(formCreateCmd())
	form.AddCommand(formListCmd())
	form.AddCommand(formShowCmd())
	form.AddCommand(formDeleteCmd())
	form.AddCommand(formExportCmd())
	form.AddCommand(formImportCmd())
	return form
}

func formCreateCmd() *cobra.Command {
	var formType, title, klantID, klantNaam string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a form",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e workflow.Engine, _ notify.Service) error {
				f, err := e.CreateForm(ctx, workflow.CreateOptions{
					FormType:  domain.FormType(formType),
					Title:     title,
					KlantID:   klantID,
					KlantNaam: klantNaam,
				}, currentUser())
				if err != nil {
					return err
				}
				return printJSON(f)
			})
		},
	}
	cmd.Flags().StringVar(&formType, "type", string(domain.FormIntake), "form type")
	cmd.Flags().StringVar(&title, "title", "", "title")
	cmd.Flags().StringVar(&klantID, "klant-id", "", "klant user id")
	cmd.Flags().StringVar(&klantNaam, "klant-naam", "", "klant display name")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func formListCmd() *cobra.Command {
	var f repo.FormFilters
	var formType, statusFilter string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List forms",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				f.FormType = domain.FormType(formType)
				f.Status = domain.Status(statusFilter)
				forms, err := r.ListForms(ctx, f)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(forms)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Type", "Title", "Status", "Klant", "Assigned"})
				for _, fm := range forms {
					assigned := ""
					if fm.AssignedTo != nil {
						assigned = *fm.AssignedTo
					}
					tw.AppendRow(table.Row{fm.ID, fm.FormType, fm.Title, fm.EffectiveStatus(), fm.KlantNaam, assigned})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&formType, "type", "", "form type filter")
	cmd.Flags().StringVar(&statusFilter, "status", "", "status filter")
	cmd.Flags().StringVar(&f.KlantID, "klant-id", "", "klant filter")
	cmd.Flags().StringVar(&f.AssignedTo, "assigned-to", "", "assignee filter")
	return cmd
}

func formShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <form-id>",
		Short: "Show a form with history and feedback",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				f, err := r.GetForm(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSON(f)
			})
		},
	}
	return cmd
}

func formDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <form-id>",
		Short: "Delete a form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				if err := r.DeleteForm(ctx, args[0]); err != nil {
					return err
				}
				fmt.Println("deleted", args[0])
				return nil
			})
		},
	}
	return cmd
}

func formExportCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export <form-id>",
		Short: "Export a form as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e workflow.Engine, _ notify.Service) error {
				data, err := e.ExportJSON(ctx, args[0])
				if err != nil {
					return err
				}
				if out == "" {
					fmt.Println(string(data))
					return nil
				}
				return os.WriteFile(out, data, 0o644)
			})
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "write to file instead of stdout")
	return cmd
}

func formImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a previously exported form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e workflow.Engine, _ notify.Service) error {
				f, err := e.ImportJSON(ctx, data, currentUser())
				if err != nil {
					return err
				}
				return printJSON(f)
			})
		},
	}
	return cmd
}

// --- status ---

func statusCmd() *cobra.Command {
	st := &cobra.Command{Use: "status", Short: "Workflow statuses and transitions"}
	st.AddCommand(statusTransitionCmd())
	st.AddCommand(statusHistoryCmd())
	st.AddCommand(statusDurationsCmd())
	st.AddCommand(statusActionsCmd())
	st.AddCommand(statusInfoCmd())
	st.AddCommand(statusCountsCmd())
	return st
}

func statusTransitionCmd() *cobra.Command {
	var reason, assignedTo string
	cmd := &cobra.Command{
		Use:   "transition <form-id> <status>",
		Short: "Move a form to a new status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e workflow.Engine, n notify.Service) error {
				f, intents, err := e.Transition(ctx, args[0], domain.Status(args[1]), currentUser(), workflow.TransitionOptions{
					Reason:     reason,
					AssignedTo: assignedTo,
				})
				if err != nil {
					return err
				}
				n.Dispatch(ctx, intents)
				return printJSON(f)
			})
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "reason for the transition")
	cmd.Flags().StringVar(&assignedTo, "assigned-to", "", "route target user id")
	return cmd
}

func statusHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history <form-id>",
		Short: "Show the status history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				history, err := r.ListStatusHistory(ctx, args[0])
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(history)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"From", "To", "By", "Role", "At", "Reason"})
				for _, h := range history {
					reason := ""
					if h.Reason != nil {
						reason = *h.Reason
					}
					tw.AppendRow(table.Row{h.From, h.To, h.By, h.Role, h.At, reason})
				}
				tw.Render()
				return nil
			})
		},
	}
	return cmd
}

func statusDurationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "durations <form-id>",
		Short: "Time spent per status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				history, err := r.ListStatusHistory(ctx, args[0])
				if err != nil {
					return err
				}
				durations := workqueue.DurationsFor(history)
				if viper.GetBool("json") {
					return printJSON(durations)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Status", "Hours", "From", "To"})
				for _, d := range durations {
					tw.AppendRow(table.Row{d.Status, d.Hours, d.From, d.To})
				}
				tw.Render()
				return nil
			})
		},
	}
	return cmd
}

func statusActionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "actions <form-id>",
		Short: "Transitions available to your role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				f, err := r.GetForm(ctx, args[0])
				if err != nil {
					return err
				}
				actions := workflow.AvailableActions(f, currentUser().Role)
				if viper.GetBool("json") {
					return printJSON(actions)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"To", "Label", "Route"})
				for _, a := range actions {
					tw.AppendRow(table.Row{a.To, a.Label, a.RouteType})
				}
				tw.Render()
				return nil
			})
		},
	}
	return cmd
}

func statusInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info",
		Short: "List the workflow statuses",
		RunE: func(cmd *cobra.Command, args []string) error {
			all := status.All()
			if viper.GetBool("json") {
				out := make([]map[string]string, 0, len(all))
				for _, s := range all {
					info := status.InfoFor(s)
					out = append(out, map[string]string{
						"status": string(s),
						"label":  info.Label,
						"icon":   info.Icon,
					})
				}
				return printJSON(out)
			}
			tw := table.NewWriter()
			tw.SetOutputMirror(os.Stdout)
			tw.AppendHeader(table.Row{"Status", "Label", "Next"})
			for _, s := range all {
				next := make([]string, 0)
				for _, n := range status.TransitionsFor(s).Next {
					next = append(next, string(n))
				}
				tw.AppendRow(table.Row{s, status.InfoFor(s).Label, strings.Join(next, ", ")})
			}
			tw.Render()
			return nil
		},
	}
	return cmd
}

func statusCountsCmd() *cobra.Command {
	var formType string
	cmd := &cobra.Command{
		Use:   "counts",
		Short: "Form counts per status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				counts, err := r.CountFormsByStatus(ctx, domain.FormType(formType))
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(counts)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Status", "Count"})
				for _, s := range status.All() {
					if counts[s] > 0 {
						tw.AppendRow(table.Row{s, counts[s]})
					}
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&formType, "type", "", "form type filter")
	return cmd
}

// --- workqueue ---

func workqueueCmd() *cobra.Command {
	wq := &cobra.Command{Use: "workqueue", Short: "Role-scoped work views"}
	wq.AddCommand(workqueueListCmd())
	return wq
}

func workqueueListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Forms in your work view",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e workflow.Engine, _ notify.Service) error {
				user := currentUser()
				proj := workqueue.New(e.Config)
				forms, err := e.Repo.ListForms(ctx, repo.FormFilters{})
				if err != nil {
					return err
				}
				visible := proj.Project(forms, user.Role, user.ID)
				if viper.GetBool("json") {
					return printJSON(visible)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Title", "Status", "Klant"})
				for _, f := range visible {
					tw.AppendRow(table.Row{f.ID, f.Title, f.EffectiveStatus(), f.KlantNaam})
				}
				tw.Render()
				return nil
			})
		},
	}
	return cmd
}

// --- comment ---

func commentCmd() *cobra.Command {
	c := &cobra.Command{Use: "comment", Short: "Form feedback"}
	c.AddCommand(commentAddCmd())
	c.AddCommand(commentListCmd())
	c.AddCommand(commentSetStatusCmd("resolve", domain.CommentVerwerkt, "Mark a comment verwerkt"))
	c.AddCommand(commentSetStatusCmd("reject", domain.CommentAfgewezen, "Mark a comment afgewezen"))
	c.AddCommand(commentSetStatusCmd("reopen", domain.CommentOpen, "Reopen a comment"))
	c.AddCommand(commentDeleteCmd())
	return c
}

func commentAddCmd() *cobra.Command {
	var parent, sectionID, fieldPath, text string
	cmd := &cobra.Command{
		Use:   "add <form-id>",
		Short: "Add a comment or reply",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e workflow.Engine, n notify.Service) error {
				c, intents, err := e.AddComment(ctx, args[0], workflow.CommentInput{
					ParentCommentID: parent,
					SectionID:       sectionID,
					FieldPath:       fieldPath,
					Text:            text,
				}, currentUser())
				if err != nil {
					return err
				}
				n.Dispatch(ctx, intents)
				return printJSON(c)
			})
		},
	}
	cmd.Flags().StringVar(&parent, "reply-to", "", "parent comment id")
	cmd.Flags().StringVar(&sectionID, "section", "", "section id")
	cmd.Flags().StringVar(&fieldPath, "field", "", "field path")
	cmd.Flags().StringVar(&text, "text", "", "comment text")
	_ = cmd.MarkFlagRequired("text")
	return cmd
}

func commentListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list <form-id>",
		Short: "List comments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				comments, err := r.ListComments(ctx, args[0])
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(comments)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Author", "Status", "Text"})
				for _, c := range comments {
					tw.AppendRow(table.Row{c.ID, c.Author, c.Status, c.Text})
				}
				tw.Render()
				return nil
			})
		},
	}
	return cmd
}

func commentSetStatusCmd(use, target, short string) *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   use + " <form-id> <comment-id>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e workflow.Engine, n notify.Service) error {
				c, intents, err := e.SetCommentStatus(ctx, args[0], args[1], target, reason, currentUser())
				if err != nil {
					return err
				}
				n.Dispatch(ctx, intents)
				return printJSON(c)
			})
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "status reason")
	return cmd
}

func commentDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <form-id> <comment-id>",
		Short: "Delete a comment",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e workflow.Engine, _ notify.Service) error {
				if err := e.DeleteComment(ctx, args[0], args[1], currentUser()); err != nil {
					return err
				}
				fmt.Println("deleted", args[1])
				return nil
			})
		},
	}
	return cmd
}

// --- change ---

func changeCmd() *cobra.Command {
	c := &cobra.Command{Use: "change", Short: "Tracked edits"}
	c.AddCommand(changeProposeCmd())
	c.AddCommand(changeReviewCmd("accept", domain.ChangeAccepted))
	c.AddCommand(changeReviewCmd("reject", domain.ChangeRejected))
	c.AddCommand(changeListCmd())
	return c
}

func changeProposeCmd() *cobra.Command {
	var fieldPath, changeType, original, next string
	cmd := &cobra.Command{
		Use:   "propose <form-id>",
		Short: "Propose a tracked edit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e workflow.Engine, _ notify.Service) error {
				tc, err := e.ProposeChange(ctx, args[0], workflow.ChangeInput{
					FieldPath:     fieldPath,
					ChangeType:    changeType,
					OriginalValue: original,
					NewValue:      next,
				}, currentUser())
				if err != nil {
					return err
				}
				return printJSON(tc)
			})
		},
	}
	cmd.Flags().StringVar(&fieldPath, "field", "", "field path")
	cmd.Flags().StringVar(&changeType, "type", "replace", "insert, delete or replace")
	cmd.Flags().StringVar(&original, "from", "", "original value")
	cmd.Flags().StringVar(&next, "to", "", "new value")
	_ = cmd.MarkFlagRequired("field")
	return cmd
}

func changeReviewCmd(use, verdict string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use + " <form-id> <change-id>",
		Short: use + " a tracked edit",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e workflow.Engine, _ notify.Service) error {
				tc, err := e.ReviewChange(ctx, args[0], args[1], verdict, currentUser())
				if err != nil {
					return err
				}
				return printJSON(tc)
			})
		},
	}
	return cmd
}

func changeListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list <form-id>",
		Short: "List tracked edits",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				changes, err := r.ListTrackChanges(ctx, args[0])
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(changes)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Field", "Type", "Status", "Author"})
				for _, tc := range changes {
					tw.AppendRow(table.Row{tc.ID, tc.FieldPath, tc.ChangeType, tc.Status, tc.Author})
				}
				tw.Render()
				return nil
			})
		},
	}
	return cmd
}

// --- stakeholder ---

func stakeholderCmd() *cobra.Command {
	s := &cobra.Command{Use: "stakeholder", Short: "Stakeholder review"}
	s.AddCommand(stakeholderListCmd())
	s.AddCommand(stakeholderAssignCmd())
	s.AddCommand(stakeholderAdviceCmd())
	s.AddCommand(stakeholderInformedCmd())
	return s
}

func stakeholderListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list <form-id>",
		Short: "List stakeholder slots",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				list, err := r.ListStakeholders(ctx, args[0])
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(list)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Rol", "Naam", "Betrokkenheid", "Akkoord", "Geinformeerd"})
				for _, sh := range list {
					akkoord := "-"
					if sh.Akkoord != nil {
						akkoord = fmt.Sprintf("%t", *sh.Akkoord)
					}
					tw.AppendRow(table.Row{sh.Rol, sh.Naam, sh.Betrokkenheid, akkoord, sh.Geinformeerd})
				}
				tw.Render()
				return nil
			})
		},
	}
	return cmd
}

func stakeholderAssignCmd() *cobra.Command {
	var persoonID, naam, email string
	cmd := &cobra.Command{
		Use:   "assign <form-id> <rol>",
		Short: "Bind a person to a stakeholder slot",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e workflow.Engine, _ notify.Service) error {
				sh, err := e.AssignStakeholder(ctx, args[0], args[1], persoonID, naam, email)
				if err != nil {
					return err
				}
				return printJSON(sh)
			})
		},
	}
	cmd.Flags().StringVar(&persoonID, "persoon-id", "", "person id")
	cmd.Flags().StringVar(&naam, "naam", "", "person name")
	cmd.Flags().StringVar(&email, "email", "", "person email")
	_ = cmd.MarkFlagRequired("persoon-id")
	return cmd
}

func stakeholderAdviceCmd() *cobra.Command {
	var feedback string
	var akkoord, bezwaar bool
	cmd := &cobra.Command{
		Use:   "advice <form-id> <rol>",
		Short: "Record stakeholder advice",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if akkoord && bezwaar {
				return errors.New("--akkoord and --bezwaar are mutually exclusive")
			}
			var verdict *bool
			if akkoord {
				v := true
				verdict = &v
			} else if bezwaar {
				v := false
				verdict = &v
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e workflow.Engine, _ notify.Service) error {
				sh, err := e.SetStakeholderAdvice(ctx, args[0], args[1], workflow.AdviceInput{
					Akkoord:  verdict,
					Feedback: feedback,
				}, currentUser())
				if err != nil {
					return err
				}
				return printJSON(sh)
			})
		},
	}
	cmd.Flags().BoolVar(&akkoord, "akkoord", false, "record approval")
	cmd.Flags().BoolVar(&bezwaar, "bezwaar", false, "record objection")
	cmd.Flags().StringVar(&feedback, "feedback", "", "free-form feedback")
	return cmd
}

func stakeholderInformedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "informed <form-id> <rol>",
		Short: "Mark a stakeholder as informed",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e workflow.Engine, _ notify.Service) error {
				sh, err := e.MarkStakeholderInformed(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				return printJSON(sh)
			})
		},
	}
	return cmd
}

// --- notify ---

func notifyCmd() *cobra.Command {
	n := &cobra.Command{Use: "notify", Short: "In-app notifications"}
	n.AddCommand(notifyListCmd())
	n.AddCommand(notifyUnreadCmd())
	n.AddCommand(notifyReadCmd())
	n.AddCommand(notifyReadAllCmd())
	n.AddCommand(notifyCleanupCmd())
	return n
}

func notifyListCmd() *cobra.Command {
	var unread bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, _ workflow.Engine, n notify.Service) error {
				items, err := n.List(ctx, currentUser().ID, unread)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Type", "Message", "Read", "At"})
				for _, it := range items {
					tw.AppendRow(table.Row{it.ID, it.Type, it.Message, it.IsRead, it.CreatedAt})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&unread, "unread", false, "only unread")
	return cmd
}

func notifyUnreadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unread",
		Short: "Unread notification count",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, _ workflow.Engine, n notify.Service) error {
				count, err := n.CountUnread(ctx, currentUser().ID)
				if err != nil {
					return err
				}
				fmt.Println(count)
				return nil
			})
		},
	}
	return cmd
}

func notifyReadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "read <notification-id>",
		Short: "Mark one notification read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, _ workflow.Engine, n notify.Service) error {
				return n.MarkRead(ctx, args[0])
			})
		},
	}
	return cmd
}

func notifyReadAllCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "read-all",
		Short: "Mark all notifications read",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, _ workflow.Engine, n notify.Service) error {
				return n.MarkAllRead(ctx, currentUser().ID)
			})
		},
	}
	return cmd
}

func notifyCleanupCmd() *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete notifications older than the retention window",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e workflow.Engine, n notify.Service) error {
				if days == 0 {
					days = e.Config.Notifications.RetentionDays
				}
				removed, err := n.CleanupOlderThan(ctx, days)
				if err != nil {
					return err
				}
				fmt.Printf("removed %d notifications older than %d days\n", removed, days)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&days, "days", 0, "retention in days (default from config)")
	return cmd
}

// --- config ---

func configCmd() *cobra.Command {
	c := &cobra.Command{Use: "config", Short: "Workspace configuration"}
	c.AddCommand(configInitCmd())
	c.AddCommand(configShowCmd())
	return c
}

func configInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			path := config.Path(workspace)
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s exists, use --force to overwrite", path)
			}
			if err := os.WriteFile(path, []byte(config.GenerateDefault()), 0o644); err != nil {
				return err
			}
			fmt.Println("wrote", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing config")
	return cmd
}

func configShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the active configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOptional(viper.GetString("workspace"))
			if err != nil {
				return err
			}
			return printJSON(cfg)
		},
	}
	return cmd
}

// --- serve ---

func serveCmd() *cobra.Command {
	var addr, basePath string
	var allowLegacy bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			conn, err := db.Open(db.Config{Workspace: workspace})
			if err != nil {
				return err
			}
			defer conn.Close()
			if err := migrate.Migrate(conn); err != nil {
				return err
			}
			cfg, err := config.LoadOptional(workspace)
			if err != nil {
				return err
			}
			e := workflow.New(conn, cfg)
			n := notify.Service{DB: conn}
			authCfg := server.AuthConfig{
				JWTSecret:               os.Getenv("INTAKEFLOW_JWT_SECRET"),
				AllowLegacyActorHeaders: allowLegacy,
			}
			if authCfg.JWTSecret == "" && !allowLegacy {
				return fmt.Errorf("INTAKEFLOW_JWT_SECRET is required for bearer auth")
			}
			handler, err := server.New(server.Config{Engine: e, Notify: n, BasePath: basePath, Auth: authCfg})
			if err != nil {
				return err
			}
			srv := &http.Server{Addr: addr, Handler: handler}
			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			}()
			fmt.Printf("Serving Intakeflow API on http://%s%s\n", addr, basePath)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().StringVar(&basePath, "base-path", "/v1", "API base path")
	cmd.Flags().BoolVar(&allowLegacy, "allow-legacy-headers", false, "accept X-User-Id headers without a token")
	return cmd
}

// --- helpers ---

func withEngine(ctx context.Context, fn func(context.Context, workflow.Engine, notify.Service) error) error {
	workspace := viper.GetString("workspace")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	cfg, err := config.LoadOptional(workspace)
	if err != nil {
		return err
	}
	return fn(ctx, workflow.New(conn, cfg), notify.Service{DB: conn})
}

func withRepo(ctx context.Context, fn func(context.Context, repo.Repo) error) error {
	workspace := viper.GetString("workspace")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	return fn(ctx, repo.Repo{DB: conn})
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
