package main

import "cravecart/internal/cli"

func main() {
	cli.Execute()
}
