package main

import "github.com/meysamhadeli/reviewmentor/cmd"

func main() {
	cmd.Execute()
}
