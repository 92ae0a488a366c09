package main

import "go.treestore/internal/cli"

func main() {
	cli.Execute()
}
