package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"

	"github.com/labstack/echo/v4"

	"github.com/rryowa/backoffice/internal/models"
	"github.com/rryowa/backoffice/internal/util"
)

// Receives API key rotation events posted by the backoffice, for local testing.
func main() {
	log := util.NewZapLogger()

	addr := os.Getenv("WEBHOOK_RECEIVER_ADDR")
	if addr == "" {
		addr = ":9090"
	}

	e := echo.New()
	e.HideBanner = true
	e.POST("/", func(c echo.Context) error {
		var event models.APIKeyRotatedEvent
		if err := json.NewDecoder(c.Request().Body).Decode(&event); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Error parsing JSON")
		}

		log.Infow("Received webhook",
			"event", event.Event,
			"applicationID", event.ApplicationID,
			"oldKeyID", event.OldKeyID,
			"newKeyID", event.NewKeyID,
			"oldKeyValidTo", event.OldKeyValidTo,
		)
		return c.String(http.StatusOK, "Webhook received!")
	})

	log.Infof("Webhook receiver listening on %s", addr)
	if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Failed to start server: %v", err)
	}
}
