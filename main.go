package main

import "github.com/linkdepth/linkdepth/cmd"

func main() {
	cmd.Execute()
}
