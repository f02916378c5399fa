package main

import "github.com/oshokin/job-alert/cmd/alert-host/cmd"

func main() {
	cmd.Execute()
}
