package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Env:             "development",
		Port:            "3000",
		JWTSecret:       "secure-secret-at-least-32-chars-long",
		DBDriver:        "postgres",
		DBPassword:      "secure-password",
		DBSSLMode:       "require",
		StorageDriver:   "local",
		UploadDir:       "uploads",
		UploadMaxFiles:  5,
		UploadMaxSizeMB: 5,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		expectError bool
	}{
		{"Valid development config", func(c *Config) {}, false},
		{"Missing port", func(c *Config) { c.Port = "" }, true},
		{"Missing secret", func(c *Config) { c.JWTSecret = "" }, true},
		{"Zero upload files", func(c *Config) { c.UploadMaxFiles = 0 }, true},
		{"Zero upload size", func(c *Config) { c.UploadMaxSizeMB = 0 }, true},
		{"Unknown DB driver", func(c *Config) { c.DBDriver = "mysql" }, true},
		{"SQLite driver", func(c *Config) { c.DBDriver = "sqlite" }, false},
		{"Unknown storage driver", func(c *Config) { c.StorageDriver = "ftp" }, true},
		{"S3 without bucket", func(c *Config) { c.StorageDriver = "s3" }, true},
		{"S3 without public URL", func(c *Config) {
			c.StorageDriver = "s3"
			c.S3Bucket = "listings"
		}, true},
		{"S3 complete", func(c *Config) {
			c.StorageDriver = "s3"
			c.S3Bucket = "listings"
			c.S3PublicBaseURL = "https://cdn.example.com"
		}, false},
		{"Production default secret", func(c *Config) {
			c.Env = "production"
			c.JWTSecret = defaultJWTSecret
		}, true},
		{"Production short secret", func(c *Config) {
			c.Env = "production"
			c.JWTSecret = "short"
		}, true},
		{"Production weak DB password", func(c *Config) {
			c.Env = "prod"
			c.DBPassword = "password"
		}, true},
		{"Production with disabled SSL", func(c *Config) {
			c.Env = "production"
			c.DBSSLMode = "disable"
		}, true},
		{"Production with sqlite ignores DB checks", func(c *Config) {
			c.Env = "production"
			c.DBDriver = "sqlite"
			c.DBPassword = ""
			c.DBSSLMode = ""
		}, false},
		{"Production complete", func(c *Config) { c.Env = "production" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_TokenTTL(t *testing.T) {
	c := &Config{}
	assert.Equal(t, 7*24*time.Hour, c.TokenTTL())

	c.TokenTTLHours = 2
	assert.Equal(t, 2*time.Hour, c.TokenTTL())
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("DB_SSLMODE", "  DISABLE  ")
	t.Setenv("STORAGE_DRIVER", "Local")
	t.Setenv("PUBLIC_BASE_URL", "http://localhost:3000/")
	t.Setenv("UPLOAD_MAX_FILES", "4")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "test", c.Env)
	assert.Equal(t, "disable", c.DBSSLMode)
	assert.Equal(t, "local", c.StorageDriver)
	assert.Equal(t, "http://localhost:3000", c.PublicBaseURL)
	assert.Equal(t, 4, c.UploadMaxFiles)
	assert.Equal(t, int64(5*1024*1024), c.UploadMaxSizeBytes())
}
