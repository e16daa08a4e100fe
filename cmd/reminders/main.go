package main

import (
	"os"

	"github.com/petnames/reminders/cmd"
	"github.com/petnames/reminders/internal/colors"
)

func init() {
	cmd.RootCmd.AddCommand(
		NewServeCmd(openService),
		NewListCmd(openNotifications),
		NewDismissCmd(openNotifications),
		NewMarkReadCmd(openNotifications),
		NewStatusCmd(openNotifications),
		NewTUICmd(openNotifications),
		NewPetCmd(openAppointments),
		NewAppointmentCmd(openAppointments),
		NewMigrateCmd(),
		NewVersionCmd(),
	)
}

func main() {
	colors.StructuredInfo("startup", "main", "started", nil, "", nil)
	if err := cmd.Execute(); err != nil {
		colors.StructuredError("startup", "main", "failed", err, "", nil)
		os.Exit(1)
	}
	colors.StructuredInfo("startup", "main", "completed", nil, "", nil)
}
