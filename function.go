// Package meetingsummarizer exposes the HTTP API as a Cloud Function.
package meetingsummarizer

import (
	"context"
	"net/http"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"

	"github.com/pep299/meeting-summarizer/internal/application"
	"github.com/pep299/meeting-summarizer/internal/config"
	"github.com/pep299/meeting-summarizer/internal/logging"
)

var (
	handlerOnce sync.Once
	handler     http.Handler
	handlerErr  error

	// newApplication is swapped in tests
	newApplication = func(ctx context.Context) (*application.Application, error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		logging.Init(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
		return application.New(ctx, cfg)
	}
)

func init() {
	// Register HTTP function for summaries, uploads and schema requests
	functions.HTTP("SummarizeMeeting", SummarizeMeeting)
}

// SummarizeMeeting serves the same routes as the standalone server. The
// application is built once per instance and reused across invocations.
func SummarizeMeeting(w http.ResponseWriter, r *http.Request) {
	handlerOnce.Do(func() {
		app, err := newApplication(context.Background())
		if err != nil {
			handlerErr = err
			return
		}
		handler = app.Handler()
	})

	if handlerErr != nil {
		logging.NewLogger("function").WithError(handlerErr).Error("Failed to initialize application")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	handler.ServeHTTP(w, r)
}
