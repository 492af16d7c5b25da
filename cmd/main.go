package main

import (
	"fmt"
	"os"

	"github.com/ostafen/findcrypt/cmd/cmd"
	"github.com/ostafen/findcrypt/internal/env"
)

func main() {
	PrintBanner()

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func PrintBanner() {
	fmt.Println("findcrypt - crypto constant finder")
	fmt.Println("Original idea by Ilfak Guilfanov, Ghidra edition by d3vil401")
	fmt.Println()
	fmt.Printf("Version:    %s\n", env.Version)
	fmt.Printf("Commit:     %s\n", env.CommitHash)
	fmt.Printf("Build Time: %s\n", env.BuildTime)
	fmt.Println()
}
