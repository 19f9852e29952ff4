// Package main is the careboard CLI entry point.
package main

import "github.com/careops-labs/careboard/internal/cli"

func main() {
	cli.Execute()
}
