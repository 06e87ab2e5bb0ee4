package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"spam-classifier/internal/handler"
	"spam-classifier/internal/inference"
	"spam-classifier/internal/model"
	"spam-classifier/internal/repository"
	"spam-classifier/internal/service"
)

func newServeCommand(a *app) *cobra.Command {
	var port, kindName string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the prediction HTTP service",
		RunE: func(cmd *cobra.Command, args []string) error {
			if port == "" {
				port = a.cfg.Server.Port
			}
			if kindName == "" {
				kindName = a.cfg.Server.Model
			}
			kind, err := model.ParseKind(kindName)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), a, port, kind)
		},
	}
	cmd.Flags().StringVarP(&port, "port", "p", "", "listen port (default server.port)")
	cmd.Flags().StringVarP(&kindName, "model", "m", "", "model to serve: svm|xgb (default server.model)")
	return cmd
}

// CORS lets the browser frontend call the API from another origin.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

func serve(ctx context.Context, a *app, port string, kind model.Kind) error {
	logger := a.logger
	logger.Info("Starting Spam Classifier Service...")

	// Artifacts must load completely before the port is opened
	predictor, err := inference.Load(a.cfg.Artifacts.Dir, kind, logger)
	if err != nil {
		logger.Fatal("Failed to load artifacts", zap.String("dir", a.cfg.Artifacts.Dir), zap.Error(err))
	}

	db, err := repository.NewSQLiteDB(a.cfg.Database.Path, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	if err := repository.MigrateDB(db, logger); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}

	spamService := service.NewSpamService(predictor, repository.NewPromptRepository(db, logger), logger)
	apiHandler := handler.NewHandler(spamService, handler.ModelInfo{
		Model:   string(predictor.Kind()),
		Version: predictor.Version(),
	}, logger)

	gin.SetMode(gin.ReleaseMode)
	router := gin.Default()
	router.Use(CORS())
	apiHandler.RegisterRoutes(router)

	serverAddr := fmt.Sprintf(":%s", port)
	srv := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting", zap.String("address", serverAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	logger.Info("Spam Classifier Service is running",
		zap.String("port", port),
		zap.String("model", string(kind)),
		zap.String("artifact_version", predictor.Version()))

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	}

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("Server exited")
	return nil
}
