package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/fortunecrack/server/internal/app"
)

func main() {
	// .envはローカル開発用。存在しない場合は環境変数をそのまま使う。
	_ = godotenv.Load()

	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "fortunecrack: %v\n", err)
		os.Exit(1)
	}
}
