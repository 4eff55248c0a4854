package main

import "proptag/cmd"

func main() {
	cmd.Execute()
}
