package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"pixel-earth/internal/bootstrap"
	"pixel-earth/internal/service"
)

func main() {
	// -hash-password 用于生成 OPERATOR_PASSWORD_HASH 的值
	hashPassword := flag.String("hash-password", "", "print the bcrypt hash of the given operator password and exit")
	flag.Parse()
	if *hashPassword != "" {
		hash, err := service.HashPassword(*hashPassword)
		if err != nil {
			logrus.Fatalf("Failed to hash password: %v", err)
		}
		fmt.Println(hash)
		return
	}

	// 初始化并运行 App
	app, err := bootstrap.NewApp(context.Background())
	if err != nil {
		logrus.Fatalf("Failed to initialize application: %v", err)
	}

	app.Start()

	// 设置优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutdown signal received...")

	app.Shutdown()
}
