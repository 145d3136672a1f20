package main

import (
	"log"
	"strconv"

	"github.com/beego/beego/v2/server/web"
	"go.uber.org/zap"

	"github.com/hrhub/backend-go/app/bootstrap"
	"github.com/hrhub/backend-go/app/router"
	"github.com/hrhub/backend-go/internal/config"
	"github.com/hrhub/backend-go/internal/logger"
)

func main() {
	app, err := bootstrap.Init()
	if err != nil {
		log.Fatalf("failed to bootstrap application: %v", err)
	}
	defer app.Shutdown()

	router.Init()

	web.BConfig.AppName = "HR Policy Hub"
	web.BConfig.CopyRequestBody = true
	web.BConfig.MaxMemory = 64 << 20

	if port, err := strconv.Atoi(config.AppConfig.Server.Port); err == nil {
		web.BConfig.Listen.HTTPPort = port
	} else {
		web.BConfig.Listen.HTTPPort = 8000
	}

	logger.Info("🚀 Starting HR Policy Hub",
		zap.Int("port", web.BConfig.Listen.HTTPPort),
		zap.String("env", config.AppConfig.Server.Env))
	web.Run()
}
