package main

import "github.com/input-output-hk/catalyst-forge-libs/aws/multipart/cmd/mpupload/cmd"

func main() {
	cmd.Execute()
}
