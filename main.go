package main

import "stocktrack/cli"

func main() {
	cli.Execute()
}
