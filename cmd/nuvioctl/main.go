package main

import "github.com/soaringjerry/Nuvio/internal/cli"

func main() {
	cli.Execute()
}
