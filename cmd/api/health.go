package main

import "net/http"

func (app *application) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	app.successResponse(w, http.StatusOK, envelope{
		"status":         "available",
		"env":            app.cfg.env,
		"storage_driver": app.cfg.storage.driver,
	})
}
