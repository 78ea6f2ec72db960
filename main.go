package main

import "loam/cmd"

func main() {
	cmd.Execute()
}
