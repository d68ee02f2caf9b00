package guard

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/arcadenet/voteguard/app/guard/controller"
	"github.com/arcadenet/voteguard/app/guard/types"
	"github.com/arcadenet/voteguard/pkg/utils"
)

// NewServer builds the router and attaches the HTTP server to the app.
func NewServer(app *types.App) error {
	ctler := controller.NewController(app)
	router, err := ctler.NewRouter()
	if err != nil {
		return err
	}

	// use <ip>:<port> to bind to a specific interface or :<port> to bind to all interfaces
	addr := utils.Env("ADDR", ":3004")

	app.Server = &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: utils.EnvDuration("HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
		IdleTimeout:       utils.EnvDuration("HTTP_IDLE_TIMEOUT", time.Minute),
	}
	app.Logger.Info("Starting server", zap.String("addr", addr))

	return nil
}
