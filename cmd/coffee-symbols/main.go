package main

import "github.com/mvp-joe/coffee-symbols/internal/cli"

func main() {
	cli.Execute()
}
