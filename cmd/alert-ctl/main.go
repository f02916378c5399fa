package main

import "github.com/oshokin/job-alert/cmd/alert-ctl/cmd"

func main() {
	cmd.Execute()
}
