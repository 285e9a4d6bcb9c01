package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"fintrack/config"
	"fintrack/database"
	"fintrack/logger"
	"fintrack/middleware"
	"fintrack/router"
)

// @title 个人记账本 API
// @version 1.0
// @description 账户、类别、交易、预算、统计、导入导出和 AI 财务分析接口
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

var (
	configFile  string
	port        string
	showVersion bool
)

func init() {
	flag.StringVar(&configFile, "config", "", "外部配置文件路径（可选）")
	flag.StringVar(&configFile, "c", "", "外部配置文件路径（简写）")
	flag.StringVar(&port, "port", "", "监听端口，如: 8080 或 :8080")
	flag.StringVar(&port, "p", "", "监听端口（简写）")
	flag.BoolVar(&showVersion, "version", false, "显示版本信息")
	flag.BoolVar(&showVersion, "v", false, "显示版本信息（简写）")
}

func main() {
	flag.Parse()

	if showVersion {
		fmt.Println("fintrack v1.0.0")
		return
	}

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	// 命令行参数覆盖端口配置
	if port != "" {
		if !strings.HasPrefix(port, ":") {
			port = ":" + port
		}
		cfg.Server.Port = port
	}

	appLog := logger.New(cfg.Log, nil)
	logger.SetDefault(appLog)
	config.PrintConfig()

	if err := database.Init(cfg); err != nil {
		appLog.Error("数据库初始化失败", logger.FieldError, err)
		os.Exit(1)
	}

	middleware.InitJWT(cfg)

	r := router.SetupRouter(cfg, appLog)

	appLog.Info("服务已启动",
		"addr", cfg.Server.Port,
		"swagger", fmt.Sprintf("http://localhost%s/swagger/index.html", cfg.Server.Port),
		"api", fmt.Sprintf("http://localhost%s/api/v1/", cfg.Server.Port),
	)

	if err := r.Run(cfg.Server.Port); err != nil {
		appLog.Error("服务器启动失败", logger.FieldError, err)
		os.Exit(1)
	}
}
