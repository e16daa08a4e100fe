package main

import (
	"fmt"

	"github.com/petnames/reminders/cmd"
	"github.com/petnames/reminders/internal/app"
	"github.com/spf13/cobra"
)

// NewAppointmentCmd creates the appointment command group with explicit dependencies.
func NewAppointmentCmd(open appointmentOpener) *cobra.Command {
	if open == nil {
		panic("NewAppointmentCmd: client dependency cannot be nil")
	}
	var tz string
	c := &cobra.Command{
		Use:     "appointment",
		Aliases: []string{"appt"},
		Short:   "Manage pet appointments",
	}
	c.PersistentFlags().StringVar(&tz, "tz", "", "IANA time zone for due times (default: timezone setting)")

	// withUseCase resolves the user and opens the store around fn.
	withUseCase := func(fn func(c *cobra.Command, uc *app.AppointmentsUseCase, userID string, args []string) error) func(*cobra.Command, []string) error {
		return func(c *cobra.Command, args []string) error {
			userID, err := cmd.UserID()
			if err != nil {
				return err
			}
			client, closeFn, err := open(c.Context())
			if err != nil {
				return err
			}
			defer closeFn()
			return fn(c, app.NewAppointmentsUseCase(client), userID, args)
		}
	}

	var petID, title, description, due string
	add := &cobra.Command{
		Use:   "add",
		Short: "Schedule an appointment",
		Example: `  reminders appointment add --pet 3f2a... --title "Rabies shot" --due "2026-04-01 10:30"`,
		Args: cobra.NoArgs,
		RunE: withUseCase(func(c *cobra.Command, uc *app.AppointmentsUseCase, userID string, args []string) error {
			loc, err := cmd.Location(tz)
			if err != nil {
				return err
			}
			_, err = uc.AddAppointment(c.Context(), app.AddAppointmentInput{
				OwnerID:     userID,
				PetID:       petID,
				Title:       title,
				Description: description,
				Due:         due,
				Location:    loc,
			})
			return err
		}),
	}
	add.Flags().StringVar(&petID, "pet", "", "pet id (required)")
	add.Flags().StringVar(&title, "title", "", "title (required)")
	add.Flags().StringVar(&description, "description", "", "description")
	add.Flags().StringVar(&due, "due", "", "due time, RFC3339 or YYYY-MM-DD HH:MM (required)")
	_ = add.MarkFlagRequired("pet")
	_ = add.MarkFlagRequired("title")
	_ = add.MarkFlagRequired("due")

	complete := &cobra.Command{
		Use:   "complete <appointment-id>",
		Short: "Mark an appointment completed",
		Args:  cobra.ExactArgs(1),
		RunE: withUseCase(func(c *cobra.Command, uc *app.AppointmentsUseCase, userID string, args []string) error {
			return uc.Complete(c.Context(), userID, args[0])
		}),
	}

	var newDue string
	reschedule := &cobra.Command{
		Use:   "reschedule <appointment-id>",
		Short: "Move an appointment to a new due time",
		Args:  cobra.ExactArgs(1),
		RunE: withUseCase(func(c *cobra.Command, uc *app.AppointmentsUseCase, userID string, args []string) error {
			loc, err := cmd.Location(tz)
			if err != nil {
				return err
			}
			return uc.Reschedule(c.Context(), userID, args[0], newDue, loc)
		}),
	}
	reschedule.Flags().StringVar(&newDue, "due", "", "new due time (required)")
	_ = reschedule.MarkFlagRequired("due")

	list := &cobra.Command{
		Use:   "list",
		Short: "List appointments with their read state",
		Args:  cobra.NoArgs,
		RunE: withUseCase(func(c *cobra.Command, uc *app.AppointmentsUseCase, userID string, args []string) error {
			loc, err := cmd.Location(tz)
			if err != nil {
				return err
			}
			return uc.List(c.Context(), c.OutOrStdout(), userID, loc)
		}),
	}

	state := &cobra.Command{
		Use:   "state <appointment-id>",
		Short: "Show whether an appointment is unread, read or dismissed",
		Args:  cobra.ExactArgs(1),
		RunE: withUseCase(func(c *cobra.Command, uc *app.AppointmentsUseCase, userID string, args []string) error {
			st, err := uc.AckState(c.Context(), userID, args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(c.OutOrStdout(), st)
			return err
		}),
	}

	c.AddCommand(add, complete, reschedule, list, state)
	return c
}
