package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vedsharma/pingforge/internal/model"
)

func TestBundleRoundTrip(t *testing.T) {
	t.Parallel()

	bundle := Bundle{
		Environments: []model.Environment{{
			Name:      "staging",
			Variables: []model.Variable{{Key: "host", Value: "api.test", Enabled: true}, {Key: "off", Value: "x", Enabled: false}},
		}},
		Collections: []model.Collection{{
			Name: "smoke",
			Requests: []model.SavedRequest{{
				Name:    "health",
				Request: model.RequestModel{Method: model.MethodGet, URL: "https://{{host}}/health"},
			}},
		}},
	}

	for _, name := range []string{"bundle.yaml", "bundle.json"} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, WriteBundle(path, bundle))

			got, err := ReadBundle(path)
			require.NoError(t, err)
			require.Len(t, got.Environments, 1)
			assert.Equal(t, bundle.Environments[0].Variables, got.Environments[0].Variables)
			require.Len(t, got.Collections, 1)
			assert.Equal(t, "https://{{host}}/health", got.Collections[0].Requests[0].Request.URL)
		})
	}
}

func TestImportBundle(t *testing.T) {
	t.Parallel()
	s := newTestStorage(t)

	existing, err := s.CreateEnvironment(model.Environment{Name: "staging"})
	require.NoError(t, err)
	_, err = s.AddToCollection("smoke", model.SavedRequest{Name: "stale", Request: model.RequestModel{Method: model.MethodGet, URL: "https://old.test"}})
	require.NoError(t, err)

	envs, cols, err := s.ImportBundle(&Bundle{
		Environments: []model.Environment{
			{ID: "ignored", Name: "staging", Variables: []model.Variable{{Key: "host", Value: "new.test", Enabled: true}}},
			{Name: "dev"},
		},
		Collections: []model.Collection{{
			Name:     "smoke",
			Requests: []model.SavedRequest{{Name: "health", Request: model.RequestModel{Method: model.MethodGet, URL: "https://new.test"}}},
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, envs)
	assert.Equal(t, 1, cols)

	staging, err := s.GetEnvironment("staging")
	require.NoError(t, err)
	assert.Equal(t, existing.ID, staging.ID)
	v, _ := staging.Lookup("host")
	assert.Equal(t, "new.test", v)

	smoke, err := s.GetCollection("smoke")
	require.NoError(t, err)
	require.Len(t, smoke.Requests, 1)
	assert.Equal(t, "health", smoke.Requests[0].Name)
}
