package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"plantsync/internal/bootstrap"
	"plantsync/internal/bootstrap/logging"
	"plantsync/internal/domain/entity"
	"plantsync/internal/errs"
	"plantsync/internal/ports"
	syncuc "plantsync/internal/usecase/sync"
)

var equipmentCmd = &cobra.Command{
	Use:   "equipment",
	Short: "Manage merged equipment records",
}

var equipmentSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Record an inventory contribution for a business code",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *syncuc.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		code, _ := cmd.Flags().GetString("code")
		name, _ := cmd.Flags().GetString("name")
		specification, _ := cmd.Flags().GetString("spec")
		modelName, _ := cmd.Flags().GetString("model")
		manufacturer, _ := cmd.Flags().GetString("manufacturer")
		quantity, _ := cmd.Flags().GetInt("quantity")
		power, _ := cmd.Flags().GetFloat64("power")
		status, _ := cmd.Flags().GetString("status")
		location, _ := cmd.Flags().GetString("location")
		tags, _ := cmd.Flags().GetStringSlice("tag")
		notes, _ := cmd.Flags().GetString("notes")

		uidValue, err := svc.SaveFromInventory(ctx, syncuc.InventoryInput{
			Code:          code,
			Name:          name,
			Specification: specification,
			Model:         modelName,
			Manufacturer:  manufacturer,
			Quantity:      quantity,
			Power:         power,
			Status:        status,
			Location:      location,
			Tags:          tags,
			Notes:         notes,
		})
		if err != nil {
			logging.Error(ctx, "save equipment failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "save equipment")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "saved equipment: %s\n", uidValue); err != nil {
			return errs.Wrap(err, "write save output")
		}
		return nil
	}),
}

var equipmentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List equipment records",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *syncuc.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		status, _ := cmd.Flags().GetString("status")
		location, _ := cmd.Flags().GetString("location")

		items, err := svc.ListEquipment(ctx, ports.EquipmentFilter{Status: status, Location: location})
		if err != nil {
			logging.Error(ctx, "list equipment failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "list equipment")
		}

		if len(items) == 0 {
			if _, err := fmt.Fprintln(cmd.OutOrStdout(), "no equipment"); err != nil {
				return errs.Wrap(err, "write list output")
			}
			return nil
		}

		for _, item := range items {
			statusValue := item.Status
			if statusValue == "" {
				statusValue = "-"
			}
			if _, err := fmt.Fprintf(
				cmd.OutOrStdout(),
				"%s code=%s v%d status=%s name=%s\n",
				item.UID,
				item.Code,
				item.Version,
				statusValue,
				item.Name,
			); err != nil {
				return errs.Wrap(err, "write list item")
			}
		}
		return nil
	}),
}

var equipmentShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show one equipment record with its revision history",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *syncuc.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		eq, err := resolveEquipment(cmd, svc)
		if err != nil {
			logging.Error(ctx, "show equipment failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "show equipment")
		}

		out := cmd.OutOrStdout()
		if _, err := fmt.Fprintf(out, "UID: %s\n", eq.UID); err != nil {
			return errs.Wrap(err, "write show output")
		}
		if _, err := fmt.Fprintf(out, "Code: %s\n", eq.Code); err != nil {
			return errs.Wrap(err, "write show output")
		}
		if _, err := fmt.Fprintf(out, "Name: %s\n", eq.Name); err != nil {
			return errs.Wrap(err, "write show output")
		}
		if _, err := fmt.Fprintf(out, "Version: %d (source: %s)\n", eq.Version, eq.SourceModule); err != nil {
			return errs.Wrap(err, "write show output")
		}
		if eq.Manufacturer != "" || eq.Model != "" {
			if _, err := fmt.Fprintf(out, "Make: %s %s\n", eq.Manufacturer, eq.Model); err != nil {
				return errs.Wrap(err, "write show output")
			}
		}
		if eq.Position != (entity.Position{}) || eq.Size != (entity.Size{}) {
			if _, err := fmt.Fprintf(
				out,
				"Diagram: pos=(%.1f, %.1f) size=%.0fx%.0f\n",
				eq.Position.X, eq.Position.Y, eq.Size.Width, eq.Size.Height,
			); err != nil {
				return errs.Wrap(err, "write show output")
			}
		}
		if eq.HazardClass != "" || eq.CASNumber != "" {
			if _, err := fmt.Fprintf(out, "Safety: hazard=%s cas=%s doc=%s\n", eq.HazardClass, eq.CASNumber, eq.SafetyDocUID); err != nil {
				return errs.Wrap(err, "write show output")
			}
		}
		if len(eq.Tags) > 0 {
			if _, err := fmt.Fprintf(out, "Tags: %s\n", strings.Join(eq.Tags, ",")); err != nil {
				return errs.Wrap(err, "write show output")
			}
		}
		if len(eq.CorruptFields) > 0 {
			if _, err := fmt.Fprintf(out, "Corrupt fields reset to defaults: %s\n", strings.Join(eq.CorruptFields, ",")); err != nil {
				return errs.Wrap(err, "write show output")
			}
		}

		if len(eq.Revisions) == 0 {
			if _, err := fmt.Fprintln(out, "\nRevisions: none"); err != nil {
				return errs.Wrap(err, "write show revisions")
			}
			return nil
		}
		if _, err := fmt.Fprintln(out, "\nRevisions:"); err != nil {
			return errs.Wrap(err, "write show revisions")
		}
		for _, rev := range eq.Revisions {
			if _, err := fmt.Fprintf(out, "- v%d by %s at %s\n", rev.Version, rev.SourceModule, rev.Timestamp.Format("2006-01-02 15:04:05")); err != nil {
				return errs.Wrap(err, "write show revision")
			}
		}
		return nil
	}),
}

var equipmentSearchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search equipment by term across chosen fields",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *syncuc.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		term, _ := cmd.Flags().GetString("term")
		fields, _ := cmd.Flags().GetStringSlice("field")

		items, err := svc.SearchEquipment(ctx, term, fields)
		if err != nil {
			logging.Error(ctx, "search equipment failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "search equipment")
		}

		if len(items) == 0 {
			if _, err := fmt.Fprintln(cmd.OutOrStdout(), "no matches"); err != nil {
				return errs.Wrap(err, "write search output")
			}
			return nil
		}
		for _, item := range items {
			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s code=%s name=%s\n", item.UID, item.Code, item.Name); err != nil {
				return errs.Wrap(err, "write search item")
			}
		}
		return nil
	}),
}

var equipmentDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete an equipment record by UID",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *syncuc.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		uidValue, _ := cmd.Flags().GetString("uid")
		actor, _ := cmd.Flags().GetString("actor")

		deleted, err := svc.DeleteEquipment(ctx, uidValue, actor)
		if err != nil {
			logging.Error(ctx, "delete equipment failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "delete equipment")
		}

		if !deleted {
			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "no equipment with uid: %s\n", uidValue); err != nil {
				return errs.Wrap(err, "write delete output")
			}
			return nil
		}
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "deleted equipment: %s\n", uidValue); err != nil {
			return errs.Wrap(err, "write delete output")
		}
		return nil
	}),
}

var equipmentScoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Show the completeness breakdown for a record",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *syncuc.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		eq, err := resolveEquipment(cmd, svc)
		if err != nil {
			logging.Error(ctx, "score equipment failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "score equipment")
		}

		report, err := svc.Completeness(ctx, eq.UID)
		if err != nil {
			logging.Error(ctx, "score equipment failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "score equipment")
		}

		out := cmd.OutOrStdout()
		if _, err := fmt.Fprintf(out, "%s v%d overall=%.0f%%\n", report.UID, report.Version, report.Overall*100); err != nil {
			return errs.Wrap(err, "write score output")
		}
		for _, cat := range entity.Categories() {
			missing := report.MissingByCategory[cat]
			missingValue := "-"
			if len(missing) > 0 {
				missingValue = strings.Join(missing, ",")
			}
			if _, err := fmt.Fprintf(out, "- %s: %.0f%% missing=%s\n", cat, report.ByCategory[cat]*100, missingValue); err != nil {
				return errs.Wrap(err, "write score category")
			}
		}
		return nil
	}),
}

var equipmentAuditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Show the audit trail, newest first",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *syncuc.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		uidValue, _ := cmd.Flags().GetString("uid")
		limit, _ := cmd.Flags().GetInt("limit")

		entries, err := svc.ListAudit(ctx, uidValue, limit)
		if err != nil {
			logging.Error(ctx, "list audit failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "list audit")
		}

		if len(entries) == 0 {
			if _, err := fmt.Fprintln(cmd.OutOrStdout(), "no audit entries"); err != nil {
				return errs.Wrap(err, "write audit output")
			}
			return nil
		}
		for _, entry := range entries {
			if _, err := fmt.Fprintf(
				cmd.OutOrStdout(),
				"%s %s %s by=%s at=%s changes=%s\n",
				entry.Operation,
				entry.ObjectType,
				entry.ObjectUID,
				entry.ChangedBy,
				entry.ChangedAt,
				entry.Changes,
			); err != nil {
				return errs.Wrap(err, "write audit entry")
			}
		}
		return nil
	}),
}

// resolveEquipment looks up by --uid when given, otherwise by --code.
func resolveEquipment(cmd *cobra.Command, svc *syncuc.Service) (entity.Equipment, error) {
	uidValue, _ := cmd.Flags().GetString("uid")
	code, _ := cmd.Flags().GetString("code")

	ctx := cmd.Context()
	if uidValue != "" {
		return svc.GetEquipment(ctx, uidValue)
	}
	if code != "" {
		return svc.GetEquipmentByCode(ctx, code)
	}
	return entity.Equipment{}, fmt.Errorf("either --uid or --code is required")
}

func init() {
	rootCmd.AddCommand(equipmentCmd)
	equipmentCmd.AddCommand(equipmentSaveCmd)
	equipmentCmd.AddCommand(equipmentListCmd)
	equipmentCmd.AddCommand(equipmentShowCmd)
	equipmentCmd.AddCommand(equipmentSearchCmd)
	equipmentCmd.AddCommand(equipmentDeleteCmd)
	equipmentCmd.AddCommand(equipmentScoreCmd)
	equipmentCmd.AddCommand(equipmentAuditCmd)

	equipmentSaveCmd.Flags().String("code", "", "Business code, e.g. EQ-001")
	equipmentSaveCmd.Flags().String("name", "", "Equipment name")
	equipmentSaveCmd.Flags().String("spec", "", "Specification")
	equipmentSaveCmd.Flags().String("model", "", "Model")
	equipmentSaveCmd.Flags().String("manufacturer", "", "Manufacturer")
	equipmentSaveCmd.Flags().Int("quantity", 0, "Quantity")
	equipmentSaveCmd.Flags().Float64("power", 0, "Rated power in kW")
	equipmentSaveCmd.Flags().String("status", "", "Lifecycle status")
	equipmentSaveCmd.Flags().String("location", "", "Plant location")
	equipmentSaveCmd.Flags().StringSlice("tag", nil, "Tag (repeatable)")
	equipmentSaveCmd.Flags().String("notes", "", "Free-form notes")
	_ = equipmentSaveCmd.MarkFlagRequired("code")

	equipmentListCmd.Flags().String("status", "", "Filter by status")
	equipmentListCmd.Flags().String("location", "", "Filter by location")

	equipmentShowCmd.Flags().String("uid", "", "Equipment UID")
	equipmentShowCmd.Flags().String("code", "", "Business code")

	equipmentSearchCmd.Flags().String("term", "", "Search term")
	equipmentSearchCmd.Flags().StringSlice("field", nil, "Field to search (repeatable, default code and name)")
	_ = equipmentSearchCmd.MarkFlagRequired("term")

	equipmentDeleteCmd.Flags().String("uid", "", "Equipment UID")
	equipmentDeleteCmd.Flags().String("actor", "cli", "Who performs the delete")
	_ = equipmentDeleteCmd.MarkFlagRequired("uid")

	equipmentScoreCmd.Flags().String("uid", "", "Equipment UID")
	equipmentScoreCmd.Flags().String("code", "", "Business code")

	equipmentAuditCmd.Flags().String("uid", "", "Filter by object UID, empty for all")
	equipmentAuditCmd.Flags().Int("limit", 20, "Maximum entries")
}
