package main

import (
	_ "progressboard/docs"
	"progressboard/internal/config"
	"progressboard/internal/server"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// @title           Progress Board API
// @version         1.0
// @description     Four-column task board with drag-and-drop moves.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @schemes http
func main() {
	cfg := config.Load()
	cfg.SetupLogging(log.StandardLogger())
	if log.GetLevel() < log.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	s, err := server.Init(cfg)
	if err != nil {
		log.Fatalf("❌ Server initialization failed: %v", err)
	}

	s.Run()
}
