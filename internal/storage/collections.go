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
// Collection Operations
// =============================================================================

// ListCollections returns every collection with its requests, by name.
func (s *SQLiteStorage) ListCollections() ([]model.Collection, error) {
	rows, err := s.db.Query(`SELECT id, name, description, environment_id, remote_id FROM collections ORDER BY name`)
	if err != nil {
		return nil, err
	}

	var cols []model.Collection
	for rows.Next() {
		var c model.Collection
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.EnvironmentID, &c.RemoteID); err != nil {
			rows.Close()
			return nil, err
		}
		cols = append(cols, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range cols {
		reqs, err := s.loadSavedRequests(cols[i].ID)
		if err != nil {
			return nil, err
		}
		cols[i].Requests = reqs
	}
	return cols, nil
}

// GetCollection returns the collection called name, or nil.
func (s *SQLiteStorage) GetCollection(name string) (*model.Collection, error) {
	var c model.Collection
	err := s.db.QueryRow(`SELECT id, name, description, environment_id, remote_id FROM collections WHERE name = ?`, name).
		Scan(&c.ID, &c.Name, &c.Description, &c.EnvironmentID, &c.RemoteID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	c.Requests, err = s.loadSavedRequests(c.ID)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *SQLiteStorage) loadSavedRequests(collectionID string) ([]model.SavedRequest, error) {
	rows, err := s.db.Query(`
		SELECT id, name, request
		FROM saved_requests
		WHERE collection_id = ?
		ORDER BY position`, collectionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reqs := []model.SavedRequest{}
	for rows.Next() {
		var r model.SavedRequest
		var data string
		if err := rows.Scan(&r.ID, &r.Name, &data); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(data), &r.Request); err != nil {
			return nil, fmt.Errorf("saved request %s: %w", r.ID, err)
		}
		reqs = append(reqs, r)
	}
	return reqs, rows.Err()
}

// CreateCollection creates an empty collection. It fails with ErrExists when
// the name is taken.
func (s *SQLiteStorage) CreateCollection(c model.Collection) (*model.Collection, error) {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return nil, errors.New("collection name is required")
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}

	_, err := s.db.Exec(`INSERT INTO collections (id, name, description, environment_id, remote_id) VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Description, c.EnvironmentID, c.RemoteID)
	if err != nil {
		if existing, _ := s.GetCollection(c.Name); existing != nil {
			return nil, fmt.Errorf("collection %q: %w", c.Name, ErrExists)
		}
		return nil, err
	}
	c.Requests = []model.SavedRequest{}
	return &c, nil
}

// DeleteCollection deletes a collection and its requests, reporting whether
// it existed.
func (s *SQLiteStorage) DeleteCollection(name string) (bool, error) {
	res, err := s.db.Exec("DELETE FROM collections WHERE name = ?", name)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// SetCollectionRemoteID records the backend id of a pushed collection.
func (s *SQLiteStorage) SetCollectionRemoteID(id, remoteID string) error {
	_, err := s.db.Exec("UPDATE collections SET remote_id = ? WHERE id = ?", remoteID, id)
	return err
}

// AddToCollection appends req to the named collection, creating the
// collection when needed.
func (s *SQLiteStorage) AddToCollection(collectionName string, req model.SavedRequest) (*model.SavedRequest, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var colID string
	err = tx.QueryRow("SELECT id FROM collections WHERE name = ?", collectionName).Scan(&colID)
	if errors.Is(err, sql.ErrNoRows) {
		colID = uuid.NewString()
		if _, err := tx.Exec("INSERT INTO collections (id, name) VALUES (?, ?)", colID, collectionName); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	var maxPos sql.NullInt64
	if err := tx.QueryRow("SELECT MAX(position) FROM saved_requests WHERE collection_id = ?", colID).Scan(&maxPos); err != nil {
		return nil, err
	}
	nextPos := int64(0)
	if maxPos.Valid {
		nextPos = maxPos.Int64 + 1
	}

	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	data, err := json.Marshal(req.Request)
	if err != nil {
		return nil, err
	}
	_, err = tx.Exec(`
		INSERT INTO saved_requests (id, collection_id, name, request, position)
		VALUES (?, ?, ?, ?, ?)`,
		req.ID, colID, req.Name, string(data), nextPos)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &req, nil
}

// ImportCollection stores c under its name, replacing the requests of an
// existing collection with the same name.
func (s *SQLiteStorage) ImportCollection(c model.Collection) (*model.Collection, error) {
	existing, err := s.GetCollection(c.Name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if _, err := s.DeleteCollection(c.Name); err != nil {
			return nil, err
		}
		c.ID = existing.ID
	}
	requests := c.Requests
	created, err := s.CreateCollection(c)
	if err != nil {
		return nil, err
	}
	for _, r := range requests {
		r.ID = ""
		saved, err := s.AddToCollection(created.Name, r)
		if err != nil {
			return nil, err
		}
		created.Requests = append(created.Requests, *saved)
	}
	return created, nil
}
