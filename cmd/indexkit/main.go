/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package main

import (
	"github.com/ssargent/indexkit/cmd/indexkit/cmd"
)

func main() {
	cmd.Execute()
}
