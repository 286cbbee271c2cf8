package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/phrazzld/medinodus/internal/domain"
	"github.com/phrazzld/medinodus/internal/state"
)

func usageErr(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", errUsage, fmt.Sprintf(format, args...))
}

// argsExactly is cobra.ExactArgs with a usage error the caller can classify.
func argsExactly(n int, msg string) cobra.PositionalArgs {
	return func(_ *cobra.Command, args []string) error {
		if len(args) != n {
			return usageErr("%s", msg)
		}
		return nil
	}
}

func argsAtLeast(n int, msg string) cobra.PositionalArgs {
	return func(_ *cobra.Command, args []string) error {
		if len(args) < n {
			return usageErr("%s", msg)
		}
		return nil
	}
}

func newLoginCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "login <email> <password>",
		Short: "Log in and pull the medical profile",
		Args:  argsExactly(2, "login takes an email and a password"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd, opts, func(ctx context.Context, c *state.Container) error {
				if err := c.Login(ctx, args[0], args[1]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "logged in as %s\n", c.Snapshot().Profile.Name)
				return nil
			})
		},
	}
}

func newRegisterCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "register <email> <password> <full name>",
		Short: "Create an account and log in",
		Args:  argsAtLeast(3, "register takes an email, a password and a full name"),
		RunE: func(cmd *cobra.Command, args []string) error {
			fullName := strings.Join(args[2:], " ")
			return withContainer(cmd, opts, func(ctx context.Context, c *state.Container) error {
				if err := c.Register(ctx, args[0], args[1], fullName); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "registered and logged in as %s\n", c.Snapshot().Profile.Name)
				return nil
			})
		},
	}
}

func newLogoutCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and clear session data",
		Args:  argsExactly(0, "logout takes no arguments"),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withContainer(cmd, opts, func(ctx context.Context, c *state.Container) error {
				c.Logout(ctx)
				fmt.Fprintln(cmd.OutOrStdout(), "logged out")
				return nil
			})
		},
	}
}

func newThemeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "theme light|dark|system",
		Short: "Set the theme mode",
		Args:  argsExactly(1, "theme takes exactly one mode"),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := domain.ParseThemeMode(args[0])
			if err != nil {
				return err
			}
			return withContainer(cmd, opts, func(_ context.Context, c *state.Container) error {
				if err := c.SetTheme(mode); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "theme set to %s\n", mode)
				return nil
			})
		},
	}
}

func newContrastCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "contrast on|off",
		Short: "Toggle high contrast",
		Args:  argsExactly(1, "contrast takes on or off"),
		RunE: func(cmd *cobra.Command, args []string) error {
			var on bool
			switch strings.ToLower(args[0]) {
			case "on", "true":
				on = true
			case "off", "false":
			default:
				return usageErr("contrast takes on or off, got %q", args[0])
			}
			return withContainer(cmd, opts, func(_ context.Context, c *state.Container) error {
				c.SetHighContrast(on)
				if on {
					fmt.Fprintln(cmd.OutOrStdout(), "high contrast on")
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), "high contrast off")
				}
				return nil
			})
		},
	}
}

func newProfileCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "profile <display name>",
		Short: "Change the display name of the logged-in user",
		Args:  argsAtLeast(1, "profile takes a display name"),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.Join(args, " ")
			return withContainer(cmd, opts, func(ctx context.Context, c *state.Container) error {
				if err := c.UpdateProfile(ctx, name); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "display name set to %s\n", c.Snapshot().Profile.Name)
				return nil
			})
		},
	}
}

// newMedicalCmd only patches the fields whose flags were given, so an
// explicit empty value clears a field while an absent flag leaves it alone.
func newMedicalCmd(opts *rootOptions) *cobra.Command {
	var conditions, allergies, medications string

	cmd := &cobra.Command{
		Use:   "medical",
		Short: "Update the medical profile and push it when logged in",
		Args:  argsExactly(0, "medical takes flags only"),
		RunE: func(cmd *cobra.Command, _ []string) error {
			var patch domain.MedicalPatch
			flags := cmd.Flags()
			if flags.Changed("conditions") {
				patch.Conditions = &conditions
			}
			if flags.Changed("allergies") {
				patch.Allergies = &allergies
			}
			if flags.Changed("medications") {
				patch.Medications = &medications
			}
			if patch.Empty() {
				return usageErr("medical needs at least one of --conditions, --allergies, --medications")
			}

			return withContainer(cmd, opts, func(ctx context.Context, c *state.Container) error {
				c.UpdateMedicalInfo(ctx, patch)
				return writeJSON(cmd.OutOrStdout(), c.Snapshot().Medical)
			})
		},
	}

	cmd.Flags().StringVar(&conditions, "conditions", "", "chronic conditions")
	cmd.Flags().StringVar(&allergies, "allergies", "", "allergies")
	cmd.Flags().StringVar(&medications, "medications", "", "current medications")
	return cmd
}

func newReportCmd(opts *rootOptions) *cobra.Command {
	var (
		title, status, summary string
		details, images        []string
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Save an analysis report to the local log",
		Args:  argsExactly(0, "report takes flags only"),
		RunE: func(cmd *cobra.Command, _ []string) error {
			draft := domain.ReportDraft{
				Title:   title,
				Status:  domain.ReportStatus(status),
				Summary: summary,
				Images:  images,
			}
			for _, d := range details {
				if !json.Valid([]byte(d)) {
					return usageErr("detail is not valid JSON: %s", d)
				}
				draft.Details = append(draft.Details, json.RawMessage(d))
			}

			return withContainer(cmd, opts, func(ctx context.Context, c *state.Container) error {
				report, err := c.SaveReport(ctx, draft)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), report)
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&title, "title", "", "report title")
	f.StringVar(&status, "status", "", "safe, warning or danger")
	f.StringVar(&summary, "summary", "", "short summary")
	f.StringArrayVar(&details, "detail", nil, "JSON detail entry (repeatable)")
	f.StringArrayVar(&images, "image", nil, "image reference (repeatable)")
	return cmd
}

// view is the JSON shape printed by show. The session token is left out.
type view struct {
	LoggedIn    bool                  `json:"loggedIn"`
	Profile     *domain.UserProfile   `json:"profile"`
	Preferences domain.Preferences    `json:"preferences"`
	Medical     domain.MedicalProfile `json:"medical"`
	Reports     []domain.Report       `json:"reports"`
}

func newShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the restored state as JSON",
		Args:  argsExactly(0, "show takes no arguments"),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withContainer(cmd, opts, func(_ context.Context, c *state.Container) error {
				snap := c.Snapshot()
				return writeJSON(cmd.OutOrStdout(), view{
					LoggedIn:    snap.Session.IsLoggedIn,
					Profile:     snap.Profile,
					Preferences: snap.Preferences,
					Medical:     snap.Medical,
					Reports:     snap.Reports,
				})
			})
		},
	}
}

func writeJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
