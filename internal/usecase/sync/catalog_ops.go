package sync

import (
	"context"
	"errors"

	"plantsync/internal/domain/entity"
	"plantsync/internal/errs"
	"plantsync/internal/ports"
)

// The single-owner entities never merge: saving resolves the business
// identifier, keeps the stored UID and creation time when the record
// already exists, and overwrites the rest.

func (s *Service) SaveMaterial(ctx context.Context, m entity.Material, changedBy string) (string, error) {
	if err := entity.ValidateIdentity(m.Code, m.Name); err != nil {
		return "", err
	}

	now := s.now().UTC()
	err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		existing, err := s.catalog.GetMaterialByCode(txCtx, m.Code)
		switch {
		case err == nil:
			m.UID = existing.UID
			m.CreatedAt = existing.CreatedAt
		case errors.Is(err, ports.ErrNotFound):
			m.UID = s.uids.Generate("MAT")
			m.CreatedAt = now
		default:
			return err
		}
		m.UpdatedAt = now

		_, err = s.catalog.SaveMaterial(txCtx, m, changedBy)
		return err
	})
	if err != nil {
		return "", errs.Wrap(err, "save material")
	}
	return m.UID, nil
}

func (s *Service) GetMaterial(ctx context.Context, uidValue string) (entity.Material, error) {
	return s.catalog.GetMaterial(ctx, uidValue)
}

func (s *Service) ListMaterials(ctx context.Context) ([]entity.Material, error) {
	return s.catalog.ListMaterials(ctx)
}

func (s *Service) DeleteMaterial(ctx context.Context, uidValue string, changedBy string) (bool, error) {
	return s.catalog.DeleteMaterial(ctx, uidValue, changedBy)
}

func (s *Service) SaveProcessRoute(ctx context.Context, route entity.ProcessRoute, changedBy string) (string, error) {
	if err := entity.ValidateIdentity(route.Code, route.Name); err != nil {
		return "", err
	}

	now := s.now().UTC()
	err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		routes, err := s.catalog.ListProcessRoutes(txCtx)
		if err != nil {
			return err
		}

		route.UID = ""
		for _, existing := range routes {
			if existing.Code == route.Code {
				route.UID = existing.UID
				route.CreatedAt = existing.CreatedAt
				break
			}
		}
		if route.UID == "" {
			route.UID = s.uids.Generate("RT")
			route.CreatedAt = now
		}
		route.UpdatedAt = now

		_, err = s.catalog.SaveProcessRoute(txCtx, route, changedBy)
		return err
	})
	if err != nil {
		return "", errs.Wrap(err, "save process route")
	}
	return route.UID, nil
}

func (s *Service) GetProcessRoute(ctx context.Context, uidValue string) (entity.ProcessRoute, error) {
	return s.catalog.GetProcessRoute(ctx, uidValue)
}

func (s *Service) ListProcessRoutes(ctx context.Context) ([]entity.ProcessRoute, error) {
	return s.catalog.ListProcessRoutes(ctx)
}

func (s *Service) DeleteProcessRoute(ctx context.Context, uidValue string, changedBy string) (bool, error) {
	return s.catalog.DeleteProcessRoute(ctx, uidValue, changedBy)
}

func (s *Service) SaveSafetyDocument(ctx context.Context, doc entity.SafetyDocument, changedBy string) (string, error) {
	if err := entity.ValidateIdentity(doc.DocNumber, doc.Title); err != nil {
		return "", err
	}

	now := s.now().UTC()
	err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		existing, err := s.catalog.GetSafetyDocumentByNumber(txCtx, doc.DocNumber)
		switch {
		case err == nil:
			doc.UID = existing.UID
			doc.CreatedAt = existing.CreatedAt
		case errors.Is(err, ports.ErrNotFound):
			doc.UID = s.uids.Generate("SD")
			doc.CreatedAt = now
		default:
			return err
		}
		doc.UpdatedAt = now

		_, err = s.catalog.SaveSafetyDocument(txCtx, doc, changedBy)
		return err
	})
	if err != nil {
		return "", errs.Wrap(err, "save safety document")
	}
	return doc.UID, nil
}

func (s *Service) GetSafetyDocument(ctx context.Context, uidValue string) (entity.SafetyDocument, error) {
	return s.catalog.GetSafetyDocument(ctx, uidValue)
}

func (s *Service) ListSafetyDocuments(ctx context.Context) ([]entity.SafetyDocument, error) {
	return s.catalog.ListSafetyDocuments(ctx)
}

func (s *Service) DeleteSafetyDocument(ctx context.Context, uidValue string, changedBy string) (bool, error) {
	return s.catalog.DeleteSafetyDocument(ctx, uidValue, changedBy)
}

func (s *Service) SaveFlowDiagram(ctx context.Context, diagram entity.FlowDiagram, changedBy string) (string, error) {
	if err := entity.ValidateIdentity(diagram.Code, diagram.Name); err != nil {
		return "", err
	}

	now := s.now().UTC()
	err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		diagrams, err := s.catalog.ListFlowDiagrams(txCtx)
		if err != nil {
			return err
		}

		diagram.UID = ""
		for _, existing := range diagrams {
			if existing.Code == diagram.Code {
				diagram.UID = existing.UID
				diagram.CreatedAt = existing.CreatedAt
				break
			}
		}
		if diagram.UID == "" {
			diagram.UID = s.uids.Generate("FD")
			diagram.CreatedAt = now
		}
		diagram.UpdatedAt = now

		_, err = s.catalog.SaveFlowDiagram(txCtx, diagram, changedBy)
		return err
	})
	if err != nil {
		return "", errs.Wrap(err, "save flow diagram")
	}
	return diagram.UID, nil
}

func (s *Service) GetFlowDiagram(ctx context.Context, uidValue string) (entity.FlowDiagram, error) {
	return s.catalog.GetFlowDiagram(ctx, uidValue)
}

func (s *Service) ListFlowDiagrams(ctx context.Context) ([]entity.FlowDiagram, error) {
	return s.catalog.ListFlowDiagrams(ctx)
}

func (s *Service) DeleteFlowDiagram(ctx context.Context, uidValue string, changedBy string) (bool, error) {
	return s.catalog.DeleteFlowDiagram(ctx, uidValue, changedBy)
}

func (s *Service) SaveProject(ctx context.Context, project entity.Project, changedBy string) (string, error) {
	if err := entity.ValidateIdentity(project.Code, project.Name); err != nil {
		return "", err
	}

	now := s.now().UTC()
	err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		projects, err := s.catalog.ListProjects(txCtx)
		if err != nil {
			return err
		}

		project.UID = ""
		for _, existing := range projects {
			if existing.Code == project.Code {
				project.UID = existing.UID
				project.CreatedAt = existing.CreatedAt
				break
			}
		}
		if project.UID == "" {
			project.UID = s.uids.Generate("PRJ")
			project.CreatedAt = now
		}
		project.UpdatedAt = now

		_, err = s.catalog.SaveProject(txCtx, project, changedBy)
		return err
	})
	if err != nil {
		return "", errs.Wrap(err, "save project")
	}
	return project.UID, nil
}

func (s *Service) GetProject(ctx context.Context, uidValue string) (entity.Project, error) {
	return s.catalog.GetProject(ctx, uidValue)
}

func (s *Service) ListProjects(ctx context.Context) ([]entity.Project, error) {
	return s.catalog.ListProjects(ctx)
}

func (s *Service) DeleteProject(ctx context.Context, uidValue string, changedBy string) (bool, error) {
	return s.catalog.DeleteProject(ctx, uidValue, changedBy)
}
