package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mindhaven/companion/internal/api"
	"github.com/mindhaven/companion/internal/config"
	"github.com/mindhaven/companion/internal/core"
	"github.com/mindhaven/companion/internal/llm"
	"github.com/mindhaven/companion/internal/report"
	"github.com/mindhaven/companion/internal/store"
)

func main() {
	// Load configuration
	config.LoadConfig()

	// Setup logging
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if config.AppConfig.LogLevel == "DEBUG" {
		log.Println("Service starting in DEBUG mode")
	}

	// Command line override for the inference backend
	providerFlag := flag.String("provider", "", "Override LLM_PROVIDER (gemini or openai)")
	flag.Parse()
	if *providerFlag != "" {
		config.AppConfig.LLMProvider = *providerFlag
	}

	// Initialize the inference client
	ctx := context.Background()
	llmClient, err := llm.NewClient(ctx, llm.Options{
		Provider:     config.AppConfig.LLMProvider,
		GeminiAPIKey: config.AppConfig.GeminiAPIKey,
		OpenAIAPIKey: config.AppConfig.OpenAIAPIKey,
		Model:        config.AppConfig.ModelName,
	})
	if err != nil {
		log.Fatalf("Failed to initialize LLM client: %v", err)
	}
	if closer, ok := llmClient.(interface{ Close() error }); ok {
		defer closer.Close()
	}
	log.Printf("Using %s inference backend", config.AppConfig.LLMProvider)

	// Initialize report archive
	dbStore, err := store.NewSQLiteStore(config.AppConfig.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer dbStore.Close()

	// Optional on-disk export of report documents
	var saver report.Saver
	if config.AppConfig.ExportDir != "" {
		saver = report.NewFileSaver(config.AppConfig.ExportDir)
		log.Printf("Exporting report documents to %s", config.AppConfig.ExportDir)
	}

	// Initialize session manager
	manager := core.NewManager(llmClient, dbStore, saver, core.OrchestratorConfig{
		GreetingDelay: time.Duration(config.AppConfig.GreetingDelayMS) * time.Millisecond,
		CallTimeout:   time.Duration(config.AppConfig.LLMTimeoutSec) * time.Second,
	})

	// Initialize API Handler and Router
	apiHandler := api.NewAPIHandler(manager, dbStore)
	router := api.NewRouter(apiHandler)

	// Start HTTP server
	serverAddr := fmt.Sprintf(":%s", config.AppConfig.HTTPPort)

	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second, // Adjusted for potentially slower LLM handshakes
		WriteTimeout: 90 * time.Second, // LLM calls can take time
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown handling
	go func() {
		log.Printf("Starting server on %s. Press Ctrl+C to quit.", serverAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v\n", serverAddr, err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Give active connections (including in-flight LLM calls) time to finish.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting gracefully")
}
