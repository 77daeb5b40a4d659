package config

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// staticSecretManager is a fixed-answer SecretManager for testing
type staticSecretManager struct {
	uri string
	err error
}

func (s *staticSecretManager) GetSecret(key string) (string, error) {
	return s.uri, s.err
}

func (s *staticSecretManager) GetMongoURI() (string, error) {
	return s.GetSecret(MongoURISecretKey)
}

func TestEnvSecretManager(t *testing.T) {
	manager := &EnvSecretManager{}

	t.Setenv("STREAMINGAPP_MONGODB_URI", "mongodb://envhost/db")
	uri, err := manager.GetMongoURI()
	require.NoError(t, err)
	assert.Equal(t, "mongodb://envhost/db", uri)

	t.Setenv("STREAMINGAPP_MONGODB_URI", "")
	_, err = manager.GetMongoURI()
	assert.ErrorIs(t, err, ErrSecretNotFound)
}

func TestNewSecretManager(t *testing.T) {
	c := newTestConfig()

	c.Secrets.Provider = ""
	manager, err := NewSecretManager(&c)
	require.NoError(t, err)
	assert.IsType(t, &EnvSecretManager{}, manager)

	c.Secrets.Provider = "vault"
	c.Secrets.Vault.Address = "http://127.0.0.1:8200"
	manager, err = NewSecretManager(&c)
	require.NoError(t, err)
	assert.IsType(t, &VaultSecretManager{}, manager)

	c.Secrets.Provider = "aws"
	c.Secrets.AWS.Region = "us-east-1"
	manager, err = NewSecretManager(&c)
	require.NoError(t, err)
	assert.IsType(t, &AWSSecretManager{}, manager)

	c.Secrets.Provider = "gcp"
	_, err = NewSecretManager(&c)
	assert.Error(t, err)
}

func TestVaultSecretManager_GetMongoURI(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-token", r.Header.Get("X-Vault-Token"))
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v1/secret/streamingapp":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"data": map[string]any{
					"data": map[string]any{MongoURISecretKey: "mongodb://vaulthost/db"},
				},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"errors":[]}`))
		}
	}))
	defer server.Close()

	c := newTestConfig()
	c.Secrets.Provider = "vault"
	c.Secrets.Vault.Address = server.URL
	c.Secrets.Vault.Token = "test-token"

	manager, err := NewVaultSecretManager(&c)
	require.NoError(t, err)

	uri, err := manager.GetMongoURI()
	require.NoError(t, err)
	assert.Equal(t, "mongodb://vaulthost/db", uri)

	_, err = manager.GetSecret("missing_key")
	assert.ErrorIs(t, err, ErrSecretNotFound)

	c.Secrets.Vault.Path = "secret/other"
	_, err = manager.GetMongoURI()
	assert.ErrorIs(t, err, ErrSecretNotFound)
}

func TestAWSSecretManager_GetMongoURI(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secretsmanager.GetSecretValue", r.Header.Get("X-Amz-Target"))

		var input struct {
			SecretId string
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&input))
		assert.Equal(t, "streamingapp/secrets", input.SecretId)

		payload, _ := json.Marshal(map[string]string{MongoURISecretKey: "mongodb+srv://app:pw@awshost/db"})
		w.Header().Set("Content-Type", "application/x-amz-json-1.1")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"Name":         input.SecretId,
			"SecretString": string(payload),
		})
	}))
	defer server.Close()

	c := newTestConfig()
	c.Secrets.Provider = "aws"
	c.Secrets.AWS.Region = "us-east-1"
	c.Secrets.AWS.AccessKey = "test"
	c.Secrets.AWS.SecretKey = "test"
	c.Secrets.AWS.Endpoint = server.URL

	manager, err := NewAWSSecretManager(&c)
	require.NoError(t, err)

	uri, err := manager.GetMongoURI()
	require.NoError(t, err)
	assert.Equal(t, "mongodb+srv://app:pw@awshost/db", uri)

	_, err = manager.GetSecret("missing_key")
	assert.ErrorIs(t, err, ErrSecretNotFound)
}

func TestApplySecrets(t *testing.T) {
	t.Run("secret overrides configured uri", func(t *testing.T) {
		c := newTestConfig()
		err := applySecrets(&c, &staticSecretManager{uri: "  mongodb://secrethost/db  "})
		require.NoError(t, err)
		assert.Equal(t, "mongodb://secrethost/db", c.MongoDB.URI)
	})

	t.Run("missing secret keeps configured uri", func(t *testing.T) {
		c := newTestConfig()
		err := applySecrets(&c, &staticSecretManager{err: ErrSecretNotFound})
		require.NoError(t, err)
		assert.Equal(t, "mongodb://localhost:27017/streamingapp", c.MongoDB.URI)
	})

	t.Run("provider failure is reported", func(t *testing.T) {
		c := newTestConfig()
		err := applySecrets(&c, &staticSecretManager{err: errors.New("permission denied")})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to load MongoDB URI")
	})

	t.Run("non mongodb secret is rejected", func(t *testing.T) {
		c := newTestConfig()
		err := applySecrets(&c, &staticSecretManager{uri: "postgres://db"})
		require.Error(t, err)
		assert.Equal(t, "mongodb://localhost:27017/streamingapp", c.MongoDB.URI)
	})
}

func TestLoadSecrets_EnvProvider(t *testing.T) {
	t.Setenv("STREAMINGAPP_MONGODB_URI", "mongodb://envhost/db")

	c := newTestConfig()
	c.MongoDB.URI = ""
	require.NoError(t, LoadSecrets(&c))
	assert.Equal(t, "mongodb://envhost/db", c.MongoDB.URI)
}
