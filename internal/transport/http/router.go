package http

import (
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter configures API routes and static downloads serving.
func NewRouter(handler *Handler, downloadsDir string) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", handler.Health).Methods("GET")
	r.HandleFunc("/api/requests", handler.SubmitURL).Methods("POST")
	r.HandleFunc("/api/requests/{requester}/type", handler.ChooseType).Methods("POST")
	r.HandleFunc("/api/requests/{requester}/quality", handler.ChooseQuality).Methods("POST")
	r.HandleFunc("/api/requests/{requester}/events", handler.Events).Methods("GET")
	r.PathPrefix("/downloads/").Handler(http.StripPrefix("/downloads/", http.FileServer(http.Dir(downloadsDir))))
	return r
}
