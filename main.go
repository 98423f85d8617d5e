package main

import "github.com/reloquent/kvpview/cmd"

func main() {
	cmd.Execute()
}
