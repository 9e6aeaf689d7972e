package main

import (
	"os"

	"github.com/xzemt/omnialpha/cmd/omnialpha/commands"
)

// main is the entry point for the omnialpha CLI
// ⭐ 统一 CLI 入口: go run ./cmd/omnialpha [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
