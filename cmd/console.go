package cmd

import (
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"plantsync/internal/bootstrap"
	"plantsync/internal/bootstrap/logging"
	"plantsync/internal/errs"
	"plantsync/internal/usecase/equipconsole"
	syncuc "plantsync/internal/usecase/sync"
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Terminal console commands",
}

var consoleEquipmentCmd = &cobra.Command{
	Use:   "equipment",
	Short: "Browse the merged equipment store with live refresh",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *syncuc.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		status, _ := cmd.Flags().GetString("status")
		location, _ := cmd.Flags().GetString("location")
		refreshInterval, _ := cmd.Flags().GetDuration("refresh-interval")
		if refreshInterval <= 0 {
			refreshInterval = 5 * time.Second
		}

		model := equipconsole.NewModel(ctx, svc, equipconsole.Options{
			StatusFilter:    status,
			LocationFilter:  location,
			RefreshInterval: refreshInterval,
		})

		program := tea.NewProgram(model, tea.WithAltScreen())
		if _, err := program.Run(); err != nil {
			return errs.Wrap(err, "run equipment console")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(consoleCmd)
	consoleCmd.AddCommand(consoleEquipmentCmd)
	consoleEquipmentCmd.Flags().String("status", "", "Filter by lifecycle status")
	consoleEquipmentCmd.Flags().String("location", "", "Filter by plant location")
	consoleEquipmentCmd.Flags().Duration("refresh-interval", 5*time.Second, "List refresh interval")
}
