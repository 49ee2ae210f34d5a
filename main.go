package main

import "github.com/Its-me-GK/FaceMark/cmd"

func main() {
	cmd.Execute()
}
