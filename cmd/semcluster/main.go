package main

import "semcluster/internal/cli"

func main() {
	cli.Execute()
}
