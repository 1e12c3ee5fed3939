package main

import "tagchain/internal/cli"

func main() {
	cli.Execute()
}
