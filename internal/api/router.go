package api

import (
	"github.com/gorilla/mux"

	"github.com/bayviewassociation/memberdb/internal/api/recovery"
)

// NewRouter wires all handlers onto a mux router with the shared middleware
// chain (panic recovery outermost, then request IDs and access logging).
func NewRouter(manager Manager, mirror WorkflowMirror) *mux.Router {
	r := mux.NewRouter()
	r.Use(recovery.Middleware, RequestID, AccessLog)

	memorial := NewMemorialHandler(manager, mirror)
	chapel := NewChapelHandler(manager, mirror)
	person := NewPersonHandler(manager)
	migration := NewMigrationHandler(manager)
	healthHandler := NewHealthHandler()

	r.HandleFunc("/api/memorial/submit-garden", memorial.SubmitGarden).Methods("POST")
	r.HandleFunc("/api/chapel/submit-service", chapel.SubmitService).Methods("POST")
	r.HandleFunc("/api/chapel/availability", chapel.CheckAvailability).Methods("GET")
	r.HandleFunc("/api/chapel/applications/{id}", chapel.UpdateApplication).Methods("PUT")

	r.HandleFunc("/api/persons/{id}", person.GetUnifiedView).Methods("GET")
	r.HandleFunc("/api/search", person.Search).Methods("GET")

	r.HandleFunc("/api/migration/progress", migration.GetProgress).Methods("GET")
	r.HandleFunc("/api/migration/consistency", migration.GetConsistency).Methods("GET")
	r.HandleFunc("/api/migration/memorials/{id}", migration.MigrateMemorial).Methods("POST")
	r.HandleFunc("/api/migration/batch", migration.BatchMigrate).Methods("POST")

	r.HandleFunc("/api/health", healthHandler.CheckHealth).Methods("GET")

	return r
}
