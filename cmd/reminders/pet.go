package main

import (
	"github.com/petnames/reminders/cmd"
	"github.com/petnames/reminders/internal/app"
	"github.com/spf13/cobra"
)

// NewPetCmd creates the pet command group with explicit dependencies.
func NewPetCmd(open appointmentOpener) *cobra.Command {
	if open == nil {
		panic("NewPetCmd: client dependency cannot be nil")
	}
	c := &cobra.Command{
		Use:   "pet",
		Short: "Manage pets",
	}

	var imageURL string
	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Register a pet",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			userID, err := cmd.UserID()
			if err != nil {
				return err
			}
			client, closeFn, err := open(c.Context())
			if err != nil {
				return err
			}
			defer closeFn()
			_, err = app.NewAppointmentsUseCase(client).AddPet(c.Context(), userID, args[0], imageURL)
			return err
		},
	}
	add.Flags().StringVar(&imageURL, "image", "", "image URL")

	list := &cobra.Command{
		Use:   "list",
		Short: "List your pets",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			userID, err := cmd.UserID()
			if err != nil {
				return err
			}
			client, closeFn, err := open(c.Context())
			if err != nil {
				return err
			}
			defer closeFn()
			return app.NewAppointmentsUseCase(client).ListPets(c.Context(), c.OutOrStdout(), userID)
		},
	}

	c.AddCommand(add, list)
	return c
}
