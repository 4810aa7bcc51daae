package main

import "github.com/RomanPilyushin/Backtesting-Engine/internal/cli"

func main() {
	cli.Execute()
}
