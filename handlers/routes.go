package handlers

import "net/http"

// Routes registers the problem API on a new mux.
func (db *DBHandler) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/problems", db.ListProblems)
	mux.HandleFunc("GET /api/problems/count", db.CountProblems)
	mux.HandleFunc("POST /api/problems", db.CreateProblem)
	mux.HandleFunc("PUT /api/problems", db.UpdateProblem)
	mux.HandleFunc("DELETE /api/problems", db.DeleteProblem)

	return mux
}
