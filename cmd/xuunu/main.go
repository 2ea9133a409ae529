// Package main provides the entry point for the xuunu service.
package main

import (
	"Xuunu.homeostasis/internal/cli"
)

func main() {
	cli.Execute()
}
