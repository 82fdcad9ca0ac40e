package main

import "github.com/maxvaer/dirprobe/cmd"

func main() {
	cmd.Execute()
}
