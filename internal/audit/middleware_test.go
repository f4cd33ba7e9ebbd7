package audit

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCorrelationMiddlewareAssignsFreshBatchPerRequest(t *testing.T) {
	var seen []RequestInfo

	app := fiber.New()
	app.Use(CorrelationMiddleware())
	app.Get("/probe", func(c *fiber.Ctx) error {
		info, ok := RequestInfoFromContext(c.UserContext())
		require.True(t, ok)
		seen = append(seen, info)
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest("GET", "/probe?x=1", nil)
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) Firefox/130.0")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/probe", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	require.Len(t, seen, 2)
	assert.NotEmpty(t, seen[0].BatchID)
	assert.NotEmpty(t, seen[1].BatchID)
	assert.NotEqual(t, seen[0].BatchID, seen[1].BatchID)

	assert.Equal(t, "/probe?x=1", seen[0].RequestURL)
	assert.Equal(t, "Mozilla/5.0 (X11; Linux x86_64) Firefox/130.0", seen[0].ClientAgent)
	assert.NotEmpty(t, seen[0].ClientIP)
	assert.Nil(t, seen[0].ActorID)
}

func TestWithActorWithoutExistingScope(t *testing.T) {
	ctx := WithActor(context.Background(), 5)
	info, ok := RequestInfoFromContext(ctx)
	require.True(t, ok)
	require.NotNil(t, info.ActorID)
	assert.Equal(t, int64(5), *info.ActorID)
	assert.NotEmpty(t, info.BatchID)
}
