package main

import (
	"os"

	"github.com/GoogleCloudPlatform/functions-framework-go/funcframework"

	"github.com/pep299/meeting-summarizer/internal/logging"

	// Registers the SummarizeMeeting function
	_ "github.com/pep299/meeting-summarizer"
)

func main() {
	logger := logging.NewLogger("function")

	port := "8080"
	if envPort := os.Getenv("PORT"); envPort != "" {
		port = envPort
	}
	if os.Getenv("FUNCTION_TARGET") == "" {
		os.Setenv("FUNCTION_TARGET", "SummarizeMeeting")
	}

	logger.WithField("port", port).Info("Starting functions framework")
	if err := funcframework.Start(port); err != nil {
		logger.WithError(err).Fatal("funcframework.Start failed")
	}
}
