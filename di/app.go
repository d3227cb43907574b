package di

import (
	"slotbook/internal/jobs"
	"slotbook/transport/http"
)

// App bundles the long-running pieces of the service: the HTTP transport
// and the background retention job.
type App struct {
	HTTP      *http.HTTP
	Retention *jobs.Retention
}
