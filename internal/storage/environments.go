package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/vedsharma/pingforge/internal/model"
)

// =============================================================================
// Environment Operations
// =============================================================================

const environmentColumns = `id, name, description, variables, remote_id`

func scanEnvironment(row rowScanner) (model.Environment, error) {
	var e model.Environment
	var vars string
	if err := row.Scan(&e.ID, &e.Name, &e.Description, &vars, &e.RemoteID); err != nil {
		return e, err
	}
	if err := json.Unmarshal([]byte(vars), &e.Variables); err != nil {
		return e, fmt.Errorf("environment %s variables: %w", e.Name, err)
	}
	if e.Variables == nil {
		e.Variables = []model.Variable{}
	}
	return e, nil
}

// ListEnvironments returns every environment by name.
func (s *SQLiteStorage) ListEnvironments() ([]model.Environment, error) {
	rows, err := s.db.Query(`SELECT ` + environmentColumns + ` FROM environments ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	envs := []model.Environment{}
	for rows.Next() {
		e, err := scanEnvironment(rows)
		if err != nil {
			return nil, err
		}
		envs = append(envs, e)
	}
	return envs, rows.Err()
}

func (s *SQLiteStorage) getEnvironment(where string, arg any) (*model.Environment, error) {
	e, err := scanEnvironment(s.db.QueryRow(`SELECT `+environmentColumns+` FROM environments WHERE `+where+` = ?`, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// GetEnvironment returns the environment called name, or nil.
func (s *SQLiteStorage) GetEnvironment(name string) (*model.Environment, error) {
	return s.getEnvironment("name", name)
}

// GetEnvironmentByID returns the environment with id, or nil.
func (s *SQLiteStorage) GetEnvironmentByID(id string) (*model.Environment, error) {
	if id == "" {
		return nil, nil
	}
	return s.getEnvironment("id", id)
}

func (s *SQLiteStorage) getEnvironmentByRemoteID(remoteID string) (*model.Environment, error) {
	if remoteID == "" {
		return nil, nil
	}
	return s.getEnvironment("remote_id", remoteID)
}

// CreateEnvironment stores a new environment, assigning an id when empty.
func (s *SQLiteStorage) CreateEnvironment(e model.Environment) (*model.Environment, error) {
	e.Name = strings.TrimSpace(e.Name)
	if e.Name == "" {
		return nil, errors.New("environment name is required")
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Variables == nil {
		e.Variables = []model.Variable{}
	}
	vars, err := json.Marshal(e.Variables)
	if err != nil {
		return nil, err
	}

	_, err = s.db.Exec(`INSERT INTO environments (`+environmentColumns+`) VALUES (?, ?, ?, ?, ?)`,
		e.ID, e.Name, e.Description, string(vars), e.RemoteID)
	if err != nil {
		if existing, _ := s.GetEnvironment(e.Name); existing != nil {
			return nil, fmt.Errorf("environment %q: %w", e.Name, ErrExists)
		}
		return nil, err
	}
	return &e, nil
}

// SaveEnvironment overwrites the environment with e.ID.
func (s *SQLiteStorage) SaveEnvironment(e model.Environment) error {
	if e.Variables == nil {
		e.Variables = []model.Variable{}
	}
	vars, err := json.Marshal(e.Variables)
	if err != nil {
		return err
	}
	res, err := s.db.Exec(`UPDATE environments SET name = ?, description = ?, variables = ?, remote_id = ? WHERE id = ?`,
		e.Name, e.Description, string(vars), e.RemoteID, e.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("environment %q not found", e.Name)
	}
	return nil
}

// DeleteEnvironment removes the environment called name and returns its id,
// or "" when there was none.
func (s *SQLiteStorage) DeleteEnvironment(name string) (string, error) {
	e, err := s.GetEnvironment(name)
	if err != nil || e == nil {
		return "", err
	}
	if _, err := s.db.Exec("DELETE FROM environments WHERE id = ?", e.ID); err != nil {
		return "", err
	}
	return e.ID, nil
}

// UpsertEnvironment merges an environment fetched from the backend. It is
// matched by remote id first, then by name; otherwise a new local
// environment is created. The local id never changes.
func (s *SQLiteStorage) UpsertEnvironment(remote model.Environment) (*model.Environment, bool, error) {
	local, err := s.getEnvironmentByRemoteID(remote.ID)
	if err != nil {
		return nil, false, err
	}
	if local == nil {
		if local, err = s.GetEnvironment(remote.Name); err != nil {
			return nil, false, err
		}
	}

	if local == nil {
		e := remote
		e.ID = ""
		e.RemoteID = remote.ID
		created, err := s.CreateEnvironment(e)
		return created, true, err
	}

	local.Name = remote.Name
	local.Description = remote.Description
	local.Variables = remote.Variables
	local.RemoteID = remote.ID
	if err := s.SaveEnvironment(*local); err != nil {
		return nil, false, err
	}
	return local, false, nil
}
