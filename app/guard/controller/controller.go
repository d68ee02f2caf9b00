package controller

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/arcadenet/voteguard/app/guard/types"
	enginetypes "github.com/arcadenet/voteguard/pkg/engine/types"
	"github.com/arcadenet/voteguard/pkg/utils"
)

type Controller struct {
	App *types.App

	// Ops-surface auth.
	AdminToken string
	AdminUser  string
	AdminHash  []byte
	JWTSecret  []byte

	hub *wsHub
}

// NewController returns a new controller and registers the websocket hub as
// a notification subscriber.
func NewController(app *types.App) *Controller {
	c := &Controller{
		App:        app,
		AdminToken: utils.Env("ADMIN_TOKEN", ""),
		AdminUser:  utils.Env("ADMIN_USER", "admin"),
		AdminHash:  []byte(utils.Env("ADMIN_PASSWORD_HASH", "")),
		JWTSecret:  []byte(utils.Env("JWT_SECRET", "voteguard-dev-secret")),
		hub:        newWsHub(),
	}
	app.Engine.Subscribe(enginetypes.KindAny, c.hub.broadcast)
	return c
}

// NewRouter returns a new router with all the routes defined in this file.
func (c *Controller) NewRouter() (*mux.Router, error) {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", c.HandleHealth).Methods("GET")
	r.HandleFunc("/readyz", c.HandleReady).Methods("GET")

	r.HandleFunc("/votes", c.HandleVote).Methods("POST")
	r.HandleFunc("/ws", c.HandleWebSocket)

	r.Handle("/metrics", c.RequireAuth(http.HandlerFunc(c.HandleMetrics))).Methods("GET")
	r.Handle("/config", c.RequireAuth(http.HandlerFunc(c.HandleConfig))).Methods("GET")
	r.HandleFunc("/admin/login", c.HandleLogin).Methods("POST")

	return r, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
