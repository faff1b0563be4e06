package main

import "github.com/vedsharma/pingforge/cmd"

func main() {
	cmd.Execute()
}
