package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noriskclient/launcherd/internal/profile/models"
)

// SQLRepository stores profiles in SQLite or PostgreSQL through sqlx.
type SQLRepository struct {
	db *sqlx.DB
}

// Ensure SQLRepository implements Repository interface
var _ Repository = (*SQLRepository)(nil)

// profileRow is the stored form of a profile; list fields are JSON text.
type profileRow struct {
	models.Profile
	JVMArgs  string `db:"jvm_args"`
	GameArgs string `db:"game_args"`
	Env      string `db:"env"`
}

// NewSQLRepository creates the schema if needed and returns the repository.
func NewSQLRepository(db *sqlx.DB) (*SQLRepository, error) {
	repo := &SQLRepository{db: db}
	if err := repo.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return repo, nil
}

func (r *SQLRepository) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS profiles (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		game_version TEXT NOT NULL,
		loader TEXT NOT NULL DEFAULT 'vanilla',
		loader_version TEXT NOT NULL DEFAULT '',
		game_dir TEXT NOT NULL DEFAULT '',
		java_path TEXT NOT NULL DEFAULT '',
		main_class TEXT NOT NULL DEFAULT '',
		jvm_args TEXT NOT NULL DEFAULT '[]',
		game_args TEXT NOT NULL DEFAULT '[]',
		env TEXT NOT NULL DEFAULT '{}',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`
	if _, err := r.db.Exec(schema); err != nil {
		return err
	}
	_, err := r.db.Exec(`CREATE INDEX IF NOT EXISTS idx_profiles_name ON profiles(name)`)
	return err
}

// Close closes the database connection
func (r *SQLRepository) Close() error {
	return r.db.Close()
}

func toRow(p *models.Profile) (*profileRow, error) {
	jvm, err := json.Marshal(nonNil(p.JVMArgs))
	if err != nil {
		return nil, err
	}
	game, err := json.Marshal(nonNil(p.GameArgs))
	if err != nil {
		return nil, err
	}
	env := p.Env
	if env == nil {
		env = map[string]string{}
	}
	envJSON, err := json.Marshal(env)
	if err != nil {
		return nil, err
	}
	return &profileRow{Profile: *p, JVMArgs: string(jvm), GameArgs: string(game), Env: string(envJSON)}, nil
}

func (row *profileRow) toModel() *models.Profile {
	p := row.Profile
	_ = json.Unmarshal([]byte(row.JVMArgs), &p.JVMArgs)
	_ = json.Unmarshal([]byte(row.GameArgs), &p.GameArgs)
	_ = json.Unmarshal([]byte(row.Env), &p.Env)
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return &p
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

const selectColumns = `id, name, game_version, loader, loader_version, game_dir, java_path, main_class,
	jvm_args, game_args, env, created_at, updated_at`

// Create inserts a new profile
func (r *SQLRepository) Create(ctx context.Context, profile *models.Profile) error {
	if profile.ID == "" {
		profile.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	profile.CreatedAt = now
	profile.UpdatedAt = now

	row, err := toRow(profile)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}

	_, err = r.db.NamedExecContext(ctx, `
		INSERT INTO profiles (`+selectColumns+`)
		VALUES (:id, :name, :game_version, :loader, :loader_version, :game_dir, :java_path, :main_class,
			:jvm_args, :game_args, :env, :created_at, :updated_at)
	`, row)
	return err
}

// Get retrieves a profile by ID
func (r *SQLRepository) Get(ctx context.Context, id string) (*models.Profile, error) {
	var row profileRow
	err := r.db.GetContext(ctx, &row, r.db.Rebind(`SELECT `+selectColumns+` FROM profiles WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return row.toModel(), nil
}

// Update updates an existing profile
func (r *SQLRepository) Update(ctx context.Context, profile *models.Profile) error {
	profile.UpdatedAt = time.Now().UTC()

	row, err := toRow(profile)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}

	result, err := r.db.NamedExecContext(ctx, `
		UPDATE profiles SET name = :name, game_version = :game_version, loader = :loader,
			loader_version = :loader_version, game_dir = :game_dir, java_path = :java_path,
			main_class = :main_class, jvm_args = :jvm_args, game_args = :game_args, env = :env,
			updated_at = :updated_at
		WHERE id = :id
	`, row)
	if err != nil {
		return err
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, profile.ID)
	}
	return nil
}

// Delete deletes a profile by ID
func (r *SQLRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM profiles WHERE id = ?`), id)
	if err != nil {
		return err
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// List returns all profiles ordered by name
func (r *SQLRepository) List(ctx context.Context) ([]*models.Profile, error) {
	var rows []profileRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT `+selectColumns+` FROM profiles ORDER BY name`); err != nil {
		return nil, err
	}

	result := make([]*models.Profile, 0, len(rows))
	for i := range rows {
		result = append(result, rows[i].toModel())
	}
	return result, nil
}
