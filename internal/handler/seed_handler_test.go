package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/insight-go-api/internal/handler"
	"github.com/noah-isme/insight-go-api/internal/models"
	"github.com/noah-isme/insight-go-api/internal/service"
)

type mockSeedService struct {
	lastToken string
	lastItems []models.Achievement
	affected  int64
	err       error
}

func (m *mockSeedService) SeedAchievements(_ context.Context, token string, entries []models.Achievement) (int64, error) {
	m.lastToken = token
	m.lastItems = entries
	if m.err != nil {
		return 0, m.err
	}
	return m.affected, nil
}

func newSeedApp(svc *mockSeedService) *fiber.App {
	app := fiber.New()
	handler.NewSeedHandler(svc, zerolog.New(io.Discard)).Register(app.Group("/api/v1/seed"))
	return app
}

func seedRequest(t *testing.T, token string) *http.Request {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{
		"items": []models.Achievement{
			{Code: "ten_reports", Name: "Ten Reports", Condition: models.ConditionReportCount, Active: true},
		},
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/seed/achievements", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("X-Seed-Token", token)
	}
	return req
}

func TestSeedHandler_Achievements(t *testing.T) {
	svc := &mockSeedService{affected: 1}
	app := newSeedApp(svc)

	resp, err := app.Test(seedRequest(t, "secret"))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "secret", svc.lastToken)
	require.Len(t, svc.lastItems, 1)

	var response struct {
		Success bool             `json:"success"`
		Data    map[string]int64 `json:"data"`
		Message string           `json:"message"`
	}
	decodeResponse(t, resp, &response)
	require.True(t, response.Success)
	require.Equal(t, int64(1), response.Data["affected"])
}

func TestSeedHandler_Forbidden(t *testing.T) {
	cases := []struct {
		name string
		err  error
	}{
		{name: "disabled", err: service.ErrSeedDisabled},
		{name: "bad token", err: service.ErrSeedUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newSeedApp(&mockSeedService{err: tc.err})

			resp, err := app.Test(seedRequest(t, "wrong"))
			require.NoError(t, err)
			require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
		})
	}
}
