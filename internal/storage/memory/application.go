package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/rryowa/backoffice/internal/models"
	"github.com/rryowa/backoffice/internal/storage"
)

type applicationRepo struct{ *repositories }

func (r applicationRepo) Add(_ context.Context, app *models.Application) error {
	defer r.lock()()
	for _, a := range r.s.st.applications {
		if a.Reference == app.Reference {
			return fmt.Errorf("%w: application reference %s", storage.ErrConflict, app.Reference)
		}
	}
	r.s.st.applications[app.ID] = *app
	return nil
}

func (r applicationRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Application, error) {
	defer r.lock()()
	a, ok := r.s.st.applications[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &a, nil
}

func (r applicationRepo) GetByReference(_ context.Context, reference string) (*models.Application, error) {
	defer r.lock()()
	for _, a := range r.s.st.applications {
		if a.Reference == reference {
			return &a, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (r applicationRepo) Find(context.Context) ([]models.Application, error) {
	defer r.lock()()
	apps := make([]models.Application, 0, len(r.s.st.applications))
	for _, a := range r.s.st.applications {
		apps = append(apps, a)
	}
	slices.SortFunc(apps, func(a, b models.Application) int { return strings.Compare(a.Name, b.Name) })
	return apps, nil
}

type menuRepo struct{ *repositories }

func (r menuRepo) Add(_ context.Context, menu *models.Menu) error {
	defer r.lock()()
	for _, m := range r.s.st.menus {
		if m.ApplicationID == menu.ApplicationID && m.Reference == menu.Reference {
			return fmt.Errorf("%w: menu reference %s", storage.ErrConflict, menu.Reference)
		}
	}
	r.s.st.menus[menu.ID] = *menu
	return nil
}

func (r menuRepo) Update(_ context.Context, menus ...*models.Menu) error {
	defer r.lock()()
	for _, menu := range menus {
		stored, ok := r.s.st.menus[menu.ID]
		if !ok || stored.Version != menu.Version-1 {
			return fmt.Errorf("update menu %s: %w", menu.Reference, storage.ErrStaleRecord)
		}
		r.s.st.menus[menu.ID] = *menu
	}
	return nil
}

func (r menuRepo) GetByReference(_ context.Context, applicationID uuid.UUID, reference string) (*models.Menu, error) {
	defer r.lock()()
	for _, m := range r.s.st.menus {
		if m.ApplicationID == applicationID && m.Reference == reference {
			return &m, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (r menuRepo) FindByApplication(_ context.Context, applicationID uuid.UUID) ([]models.Menu, error) {
	defer r.lock()()
	var menus []models.Menu
	for _, m := range r.s.st.menus {
		if m.ApplicationID == applicationID {
			menus = append(menus, m)
		}
	}
	slices.SortFunc(menus, func(a, b models.Menu) int {
		return cmp.Or(cmp.Compare(a.Position, b.Position), strings.Compare(a.Reference, b.Reference))
	})
	return menus, nil
}
