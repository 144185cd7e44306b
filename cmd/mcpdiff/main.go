package main

import "mcpdiff/cmd/mcpdiff/cmd"

func main() {
	cmd.Execute()
}
