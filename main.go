package main

import "github.com/SZPU-RoboMaster-Embedded-Team/install/internal/cli"

func main() {
	cli.Execute()
}
