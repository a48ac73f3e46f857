package main

import (
	"escriba/cmd"
	"escriba/internal/logger"
)

func main() {
	logger.Init()
	cmd.Execute()
}
