package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/rryowa/backoffice/internal/models"
	"github.com/rryowa/backoffice/internal/storage"
)

const (
	auditColumns       = `ch1, ch2, ch3, ch4, ch5`
	applicationColumns = `id, cf1, cf2, cf3, cf4, ` + auditColumns
	menuColumns        = `id, cf1, cf2, cf3, cf4, cf5, cf6, cf7, cf8, ` + auditColumns
)

type ApplicationRepository struct {
	db storage.DBTX
}

func NewApplicationRepository(db storage.DBTX) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

func (r *ApplicationRepository) Add(ctx context.Context, app *models.Application) error {
	query := `INSERT INTO applications (` + applicationColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.db.ExecContext(
		ctx,
		query,
		app.ID,
		app.Reference,
		app.Name,
		app.Description,
		app.IsActif,
		app.CreatedAt,
		app.CreatedBy,
		app.UpdatedAt,
		app.UpdatedBy,
		app.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to insert application: %w", mapError(err))
	}
	return nil
}

func (r *ApplicationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE id = $1`
	app, err := scanApplication(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("get application: %w", mapError(err))
	}
	return app, nil
}

func (r *ApplicationRepository) GetByReference(ctx context.Context, reference string) (*models.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE cf1 = $1`
	app, err := scanApplication(r.db.QueryRowContext(ctx, query, reference))
	if err != nil {
		return nil, fmt.Errorf("get application by reference: %w", mapError(err))
	}
	return app, nil
}

func (r *ApplicationRepository) Find(ctx context.Context) ([]models.Application, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+applicationColumns+` FROM applications ORDER BY cf2`)
	if err != nil {
		return nil, fmt.Errorf("find applications: %w", err)
	}
	defer rows.Close()

	var apps []models.Application
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("scan application: %w", err)
		}
		apps = append(apps, *app)
	}
	return apps, rows.Err()
}

func scanApplication(row scanner) (*models.Application, error) {
	var app models.Application
	err := row.Scan(
		&app.ID,
		&app.Reference,
		&app.Name,
		&app.Description,
		&app.IsActif,
		&app.CreatedAt,
		&app.CreatedBy,
		&app.UpdatedAt,
		&app.UpdatedBy,
		&app.Version,
	)
	if err != nil {
		return nil, err
	}
	return &app, nil
}

type MenuRepository struct {
	db storage.DBTX
}

func NewMenuRepository(db storage.DBTX) *MenuRepository {
	return &MenuRepository{db: db}
}

func (r *MenuRepository) Add(ctx context.Context, menu *models.Menu) error {
	query := `INSERT INTO menus (` + menuColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.db.ExecContext(
		ctx,
		query,
		menu.ID,
		menu.ApplicationID,
		menu.Reference,
		menu.Label,
		menu.Route,
		menu.Icon,
		menu.Position,
		menu.ParentReference,
		menu.IsActif,
		menu.CreatedAt,
		menu.CreatedBy,
		menu.UpdatedAt,
		menu.UpdatedBy,
		menu.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to insert menu: %w", mapError(err))
	}
	return nil
}

// Update writes each menu only if its stored version is the one it was read at.
func (r *MenuRepository) Update(ctx context.Context, menus ...*models.Menu) error {
	query := `UPDATE menus SET cf3 = $2, cf4 = $3, cf5 = $4, cf6 = $5, cf7 = $6, cf8 = $7, ch3 = $8, ch4 = $9, ch5 = $10
		WHERE id = $1 AND ch5 = $10 - 1`
	for _, menu := range menus {
		res, err := r.db.ExecContext(
			ctx,
			query,
			menu.ID,
			menu.Label,
			menu.Route,
			menu.Icon,
			menu.Position,
			menu.ParentReference,
			menu.IsActif,
			menu.UpdatedAt,
			menu.UpdatedBy,
			menu.Version,
		)
		if err != nil {
			return fmt.Errorf("failed to update menu %s: %w", menu.Reference, err)
		}
		if err := expectOneRow(res); err != nil {
			return fmt.Errorf("update menu %s: %w", menu.Reference, err)
		}
	}
	return nil
}

func (r *MenuRepository) GetByReference(ctx context.Context, applicationID uuid.UUID, reference string) (*models.Menu, error) {
	query := `SELECT ` + menuColumns + ` FROM menus WHERE cf1 = $1 AND cf2 = $2`
	menu, err := scanMenu(r.db.QueryRowContext(ctx, query, applicationID, reference))
	if err != nil {
		return nil, fmt.Errorf("get menu: %w", mapError(err))
	}
	return menu, nil
}

func (r *MenuRepository) FindByApplication(ctx context.Context, applicationID uuid.UUID) ([]models.Menu, error) {
	query := `SELECT ` + menuColumns + ` FROM menus WHERE cf1 = $1 ORDER BY cf6, cf2`
	rows, err := r.db.QueryContext(ctx, query, applicationID)
	if err != nil {
		return nil, fmt.Errorf("find menus: %w", err)
	}
	defer rows.Close()

	var menus []models.Menu
	for rows.Next() {
		menu, err := scanMenu(rows)
		if err != nil {
			return nil, fmt.Errorf("scan menu: %w", err)
		}
		menus = append(menus, *menu)
	}
	return menus, rows.Err()
}

func scanMenu(row scanner) (*models.Menu, error) {
	var menu models.Menu
	err := row.Scan(
		&menu.ID,
		&menu.ApplicationID,
		&menu.Reference,
		&menu.Label,
		&menu.Route,
		&menu.Icon,
		&menu.Position,
		&menu.ParentReference,
		&menu.IsActif,
		&menu.CreatedAt,
		&menu.CreatedBy,
		&menu.UpdatedAt,
		&menu.UpdatedBy,
		&menu.Version,
	)
	if err != nil {
		return nil, err
	}
	return &menu, nil
}
