package main

import "github.com/cdgriffith/pi-streaming-setup/cmd"

func main() {
	cmd.Execute()
}
