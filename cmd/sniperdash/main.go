package main

import "sniperdash/internal/cli"

func main() {
	cli.Execute()
}
