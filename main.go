package main

import (
	"os"

	"github.com/BobTheBuidler/mypycify/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
