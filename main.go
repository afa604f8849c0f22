package main

import "github.com/bobotcho/wacommerce/cmd"

func main() {
	cmd.Execute()
}
