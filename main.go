package main

import "github.com/CDR-Shepard/removal-app/cmd"

func main() {
	cmd.Execute()
}
