package main

import "Atlas/cmd"

func main() {
	cmd.Execute()
}
