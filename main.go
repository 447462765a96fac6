package main

import "github.com/meta-dds/meta-dds/cmd"

func main() {
	cmd.Execute()
}
