package main

import "github.com/shintakezou/xrefgraph/internal/cli"

func main() {
	cli.Execute()
}
