package main

import "sprintrag/internal/cli"

func main() {
	cli.Execute()
}
