package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_AddsContextValues(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "production")

	ctx := context.WithValue(context.Background(), RequestIDKey, "req-1")
	ctx = context.WithValue(ctx, UserIDKey, uint(42))
	logger.InfoContext(ctx, "hello")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "hello", record["msg"])
	assert.Equal(t, "req-1", record["request_id"])
	assert.EqualValues(t, 42, record["user_id"])
}

func TestNewLogger_DebugOnlyInDevelopment(t *testing.T) {
	var dev, prod bytes.Buffer
	newLogger(&dev, "development").Debug("dev debug")
	newLogger(&prod, "production").Debug("prod debug")

	assert.Contains(t, dev.String(), "dev debug")
	assert.Empty(t, prod.String())
}

func TestStructuredLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "production")

	app := fiber.New()
	app.Use(requestid.New())
	app.Use(ContextMiddleware())
	app.Use(StructuredLogger(logger))
	app.Get("/ok", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ok", nil))
	require.NoError(t, err)
	resp.Body.Close()

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "request processed", record["msg"])
	assert.EqualValues(t, 200, record["status"])
	assert.Equal(t, "/ok", record["path"])
	assert.Equal(t, resp.Header.Get(fiber.HeaderXRequestID), record["request_id"])
}
