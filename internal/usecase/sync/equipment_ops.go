package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"plantsync/internal/bootstrap/logging"
	"plantsync/internal/domain/entity"
	"plantsync/internal/errs"
	"plantsync/internal/ports"
)

// SaveFromInventory records the inventory module's contribution, merging
// into an existing record with the same business code if one exists.
func (s *Service) SaveFromInventory(ctx context.Context, input InventoryInput) (string, error) {
	status, err := entity.NormalizeStatus(input.Status)
	if err != nil {
		return "", err
	}

	patch := entity.Patch{Code: strings.TrimSpace(input.Code)}
	if input.Name != "" {
		patch.Name = entity.Ptr(input.Name)
	}
	if input.Specification != "" {
		patch.Specification = entity.Ptr(input.Specification)
	}
	if input.Model != "" {
		patch.Model = entity.Ptr(input.Model)
	}
	if input.Manufacturer != "" {
		patch.Manufacturer = entity.Ptr(input.Manufacturer)
	}
	if input.DesignPressure != 0 {
		patch.DesignPressure = entity.Ptr(input.DesignPressure)
	}
	if input.DesignTemperature != 0 {
		patch.DesignTemperature = entity.Ptr(input.DesignTemperature)
	}
	if input.Quantity != 0 {
		patch.Quantity = entity.Ptr(input.Quantity)
	}
	if input.Power != 0 {
		patch.Power = entity.Ptr(input.Power)
	}
	if input.Weight != 0 {
		patch.Weight = entity.Ptr(input.Weight)
	}
	if input.Price != 0 {
		patch.Price = entity.Ptr(input.Price)
	}
	if status != "" {
		patch.Status = entity.Ptr(status)
	}
	if input.Location != "" {
		patch.Location = entity.Ptr(input.Location)
	}
	if len(input.Tags) > 0 {
		patch.Tags = input.Tags
	}
	if input.Notes != "" {
		patch.Notes = entity.Ptr(input.Notes)
	}

	return s.saveContribution(ctx, patch, ModuleInventory)
}

// SaveFromDiagram records the flow-diagram module's contribution: position,
// size, free-form properties and connections, nothing the other modules own.
func (s *Service) SaveFromDiagram(ctx context.Context, input DiagramInput) (string, error) {
	patch := entity.Patch{Code: strings.TrimSpace(input.Code)}
	if input.Name != "" {
		patch.Name = entity.Ptr(input.Name)
	}
	if input.Position != (entity.Position{}) {
		patch.Position = entity.Ptr(input.Position)
	}
	if input.Size != (entity.Size{}) {
		patch.Size = entity.Ptr(input.Size)
	}
	if len(input.Properties) > 0 {
		patch.Properties = input.Properties
	}
	if len(input.Connections) > 0 {
		patch.Connections = input.Connections
	}

	return s.saveContribution(ctx, patch, ModuleDiagram)
}

// SaveFromSafety records the safety-document module's contribution.
func (s *Service) SaveFromSafety(ctx context.Context, input SafetyInput) (string, error) {
	patch := entity.Patch{Code: strings.TrimSpace(input.Code)}
	if input.Name != "" {
		patch.Name = entity.Ptr(input.Name)
	}
	if input.SafetyDocUID != "" {
		patch.SafetyDocUID = entity.Ptr(input.SafetyDocUID)
	}
	if input.HazardClass != "" {
		patch.HazardClass = entity.Ptr(input.HazardClass)
	}
	if input.CASNumber != "" {
		patch.CASNumber = entity.Ptr(input.CASNumber)
	}

	return s.saveContribution(ctx, patch, ModuleSafety)
}

// saveContribution is the shared merge-or-create path: resolve by business
// code, apply the patch or create, persist with audit inside one
// transaction, then notify every module except the writer.
func (s *Service) saveContribution(ctx context.Context, patch entity.Patch, sourceModule string) (string, error) {
	if patch.Code == "" {
		return "", entity.ErrCodeRequired
	}

	now := s.now().UTC()
	var saved entity.Equipment
	changeType := ports.ChangeUpdated

	err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		existing, err := s.equipment.GetByCode(txCtx, patch.Code)
		switch {
		case err == nil:
			saved = entity.ApplyPatch(existing, patch, sourceModule, now)
		case errors.Is(err, ports.ErrNotFound):
			name := ""
			if patch.Name != nil {
				name = *patch.Name
			}
			if err := entity.ValidateIdentity(patch.Code, name); err != nil {
				return err
			}
			saved = entity.NewFromPatch(patch, sourceModule, now)
			saved.UID = s.uids.Generate("EQ")
			changeType = ports.ChangeCreated
		default:
			return err
		}

		_, err = s.equipment.Save(txCtx, saved, sourceModule)
		return err
	})
	if err != nil {
		logging.Error(ctx, "save equipment contribution failed",
			slog.String("code", patch.Code),
			slog.String("module", sourceModule),
			slog.Any("err", errs.Loggable(err)),
		)
		return "", errs.Wrap(err, "save equipment contribution")
	}

	s.publishEquipmentChange(ctx, saved, sourceModule, changeType)
	return saved.UID, nil
}

// SaveMergedRecord reconciles a whole equipment record against the stored
// one under the legacy non-empty-wins policy. Import-style producers that
// hold a complete record use this instead of a patch.
func (s *Service) SaveMergedRecord(ctx context.Context, incoming entity.Equipment, sourceModule string) (string, error) {
	if incoming.Code == "" {
		return "", entity.ErrCodeRequired
	}

	now := s.now().UTC()
	var saved entity.Equipment
	changeType := ports.ChangeUpdated

	err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		existing, err := s.equipment.GetByCode(txCtx, incoming.Code)
		switch {
		case err == nil:
			saved = entity.Merge(existing, incoming, sourceModule, now)
		case errors.Is(err, ports.ErrNotFound):
			if err := entity.ValidateIdentity(incoming.Code, incoming.Name); err != nil {
				return err
			}
			saved = incoming.Clone()
			saved.UID = s.uids.Generate("EQ")
			saved.CreatedAt = now
			saved.UpdatedAt = now
			saved.Version = 1
			saved.Revisions = nil
			saved.SourceModule = sourceModule
			changeType = ports.ChangeCreated
		default:
			return err
		}

		_, err = s.equipment.Save(txCtx, saved, sourceModule)
		return err
	})
	if err != nil {
		return "", errs.Wrap(err, "save merged record")
	}

	s.publishEquipmentChange(ctx, saved, sourceModule, changeType)
	return saved.UID, nil
}

// ResolveConflict applies a partial update against the currently stored
// record without a prior read by the producer. Submitted fields win even
// when zero, which is how a module deliberately clears a value.
func (s *Service) ResolveConflict(ctx context.Context, uidValue string, patch entity.Patch, sourceModule string) (entity.Equipment, error) {
	now := s.now().UTC()
	var resolved entity.Equipment

	err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		existing, err := s.equipment.Get(txCtx, uidValue)
		if err != nil {
			return err
		}

		resolved = entity.ApplyPatch(existing, patch, sourceModule, now)
		_, err = s.equipment.Save(txCtx, resolved, sourceModule)
		return err
	})
	if err != nil {
		return entity.Equipment{}, errs.Wrap(err, "resolve conflict")
	}

	s.publishEquipmentChange(ctx, resolved, sourceModule, ports.ChangeUpdated)
	return resolved, nil
}

func (s *Service) publishEquipmentChange(ctx context.Context, eq entity.Equipment, sourceModule string, changeType ports.ChangeType) {
	s.bus.Publish(ctx, ports.Change{
		UID:        eq.UID,
		ObjectType: "equipment",
		ChangedBy:  sourceModule,
		Type:       changeType,
		Payload: map[string]any{
			"code":    eq.Code,
			"name":    eq.Name,
			"version": eq.Version,
		},
	})
}

func (s *Service) GetEquipment(ctx context.Context, uidValue string) (entity.Equipment, error) {
	return s.equipment.Get(ctx, uidValue)
}

func (s *Service) GetEquipmentByCode(ctx context.Context, code string) (entity.Equipment, error) {
	return s.equipment.GetByCode(ctx, code)
}

func (s *Service) ListEquipment(ctx context.Context, filter ports.EquipmentFilter) ([]entity.Equipment, error) {
	return s.equipment.List(ctx, filter)
}

func (s *Service) SearchEquipment(ctx context.Context, term string, fields []string) ([]entity.Equipment, error) {
	return s.equipment.Search(ctx, term, fields)
}

// DeleteEquipment removes the record. The audit trail captures the prior
// state; subscribers are deliberately not notified of deletes.
func (s *Service) DeleteEquipment(ctx context.Context, uidValue string, changedBy string) (bool, error) {
	return s.equipment.Delete(ctx, uidValue, changedBy)
}

func (s *Service) ListAudit(ctx context.Context, objectUID string, limit int) ([]ports.AuditEntry, error) {
	return s.audit.ListAudit(ctx, objectUID, limit)
}

// DiagramView projects the diagram-owned subset of every equipment record
// plus a read-only inventory summary. No storage handles leak out.
func (s *Service) DiagramView(ctx context.Context) ([]DiagramItem, error) {
	records, err := s.equipment.List(ctx, ports.EquipmentFilter{})
	if err != nil {
		return nil, err
	}

	items := make([]DiagramItem, 0, len(records))
	for _, eq := range records {
		items = append(items, DiagramItem{
			UID:              eq.UID,
			Code:             eq.Code,
			Name:             eq.Name,
			Position:         eq.Position,
			Size:             eq.Size,
			Properties:       eq.Properties,
			Connections:      eq.Connections,
			InventorySummary: inventorySummary(eq),
		})
	}
	return items, nil
}

func inventorySummary(eq entity.Equipment) string {
	parts := make([]string, 0, 4)
	if eq.Manufacturer != "" {
		parts = append(parts, eq.Manufacturer)
	}
	if eq.Model != "" {
		parts = append(parts, eq.Model)
	}
	if eq.Quantity != 0 {
		parts = append(parts, fmt.Sprintf("qty %d", eq.Quantity))
	}
	if eq.Power != 0 {
		parts = append(parts, fmt.Sprintf("%.1f kW", eq.Power))
	}
	return strings.Join(parts, ", ")
}

// Completeness scores a record for UI badges. Reports are memoized per
// stored version, so a version bump naturally invalidates the cache.
func (s *Service) Completeness(ctx context.Context, uidValue string) (ScoreReport, error) {
	eq, err := s.equipment.Get(ctx, uidValue)
	if err != nil {
		return ScoreReport{}, err
	}

	cacheKey := fmt.Sprintf("score:%s:%d", eq.UID, eq.Version)
	if cached, found, err := s.cache.Get(ctx, cacheKey); err == nil && found {
		var report ScoreReport
		if err := json.Unmarshal([]byte(cached), &report); err == nil {
			return report, nil
		}
		// Unreadable cache entry: recompute and overwrite.
	}

	breakdown := entity.Score(eq, s.weights)
	report := ScoreReport{
		UID:               eq.UID,
		Version:           eq.Version,
		Overall:           breakdown.Overall,
		ByCategory:        breakdown.ByCategory,
		MissingByCategory: make(map[entity.Category][]string, len(breakdown.ByCategory)),
	}
	for _, cat := range entity.Categories() {
		missing, err := entity.EmptyFields(eq, cat)
		if err != nil {
			return ScoreReport{}, err
		}
		report.MissingByCategory[cat] = missing
	}

	if raw, err := json.Marshal(report); err == nil {
		if err := s.cache.Set(ctx, cacheKey, string(raw), 0); err != nil {
			logging.Warn(ctx, "cache score report failed",
				slog.String("uid", eq.UID),
				slog.Any("err", errs.Loggable(err)),
			)
		}
	}
	return report, nil
}
