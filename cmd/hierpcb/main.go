package main

import "github.com/OpenTraceLab/hierpcb/cmd/hierpcb/cmd"

func main() {
	cmd.Execute()
}
