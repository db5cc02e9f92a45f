package store

import (
	"context"

	"carbonledger/internal/models"
)

// ApplicationStore backs the source application resolver consulted at
// mint time.
type ApplicationStore struct {
	db DB
}

func NewApplicationStore(db DB) *ApplicationStore {
	return &ApplicationStore{db: db}
}

func (s *ApplicationStore) GetByIDAndUser(ctx context.Context, applicationID, userID string) (models.ProjectApplication, error) {
	var row models.ProjectApplication
	err := s.db.GetContext(ctx, &row, `
		SELECT id, user_id, full_name, company_name, project_type, status,
		       latitude, longitude, area_hectares, panel_count, panel_wattage, created_at
		FROM project_applications
		WHERE id = $1 AND user_id = $2
	`, applicationID, userID)
	if err != nil {
		return models.ProjectApplication{}, err
	}
	return row, nil
}

func (s *ApplicationStore) Create(ctx context.Context, tx Execer, app models.ProjectApplication) error {
	query := `
		INSERT INTO project_applications
			(id, user_id, full_name, company_name, project_type, status, latitude, longitude, area_hectares, panel_count, panel_wattage)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := tx.ExecContext(ctx, query,
		app.ID, app.UserID, app.FullName, app.CompanyName, app.ProjectType, app.Status,
		app.Latitude, app.Longitude, app.AreaHectares, app.PanelCount, app.PanelWattage,
	)
	return err
}
