package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, "SERVICE_NAME: titanic\nAPI_VERSION: 0.0.1\n"))
	require.NoError(t, err)
	assert.Equal(t, "titanic", cfg.ServiceName)
	assert.Equal(t, "0.0.1", cfg.APIVersion)
	assert.Equal(t, "/titanic/v0.0.1", cfg.BasePath())
	assert.Equal(t, "/titanic/v0.0.1/predict", cfg.PredictPath())
}

func TestLoadRepositoryConfig(t *testing.T) {
	cfg, err := Load("../../config.yaml")
	require.NoError(t, err)
	assert.Equal(t, "/titanic/v0.0.1/predict", cfg.PredictPath())
}

func TestLoadNumericVersion(t *testing.T) {
	cfg, err := Load(writeConfig(t, "SERVICE_NAME: titanic\nAPI_VERSION: 2\n"))
	require.NoError(t, err)
	assert.Equal(t, "/titanic/v2/predict", cfg.PredictPath())
}

func TestLoadVersionIsLiteral(t *testing.T) {
	cfg, err := Load(writeConfig(t, "SERVICE_NAME: titanic\nAPI_VERSION: v1\n"))
	require.NoError(t, err)
	assert.Equal(t, "/titanic/vv1/predict", cfg.PredictPath())
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "SERVICE_NAME: [titanic\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "API_VERSION: 0.0.1\n"))
	assert.ErrorIs(t, err, ErrMissingServiceName)

	_, err = Load(writeConfig(t, "SERVICE_NAME: titanic\n"))
	assert.ErrorIs(t, err, ErrMissingAPIVersion)
}
