package main

import "github.com/mkessler/strum/internal/cli"

func main() {
	cli.Execute()
}
