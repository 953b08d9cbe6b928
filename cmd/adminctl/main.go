package main

import "github.com/antonkuzmin/adminctl/cmd/adminctl/cmd"

func main() {
	cmd.Execute()
}
