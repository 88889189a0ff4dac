package routes

import (
	"net/http"
	"os"

	"github.com/labstack/echo/v4"

	"github.com/apexguild/guildops/internal/app/ports"
)

// OpsRoutes exposes health and status endpoints for the orchestration layer.
type OpsRoutes struct {
	settings        ports.SettingsStore
	credentialsFile string
	version         string
}

// NewOpsRoutes constructs the ops route group.
func NewOpsRoutes(settings ports.SettingsStore, credentialsFile, version string) *OpsRoutes {
	return &OpsRoutes{settings: settings, credentialsFile: credentialsFile, version: version}
}

// RegisterRoutes attaches the ops endpoints.
func (r *OpsRoutes) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", r.health)
	e.GET("/status", r.status)
}

func (r *OpsRoutes) health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func (r *OpsRoutes) status(c echo.Context) error {
	configured, err := r.settings.CountConfiguredGuilds(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	_, statErr := os.Stat(r.credentialsFile)

	return c.JSON(http.StatusOK, map[string]any{
		"version":            r.version,
		"configured_guilds":  configured,
		"sheets_credentials": statErr == nil,
	})
}
