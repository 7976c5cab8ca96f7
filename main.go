package main

import "github.com/baysim/oilspill/cmd"

func main() {
	cmd.Execute()
}
