package main

import "github.com/redeslab/lsr/cmd"

func main() {
	cmd.Execute()
}
