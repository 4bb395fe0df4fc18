package main

import "jobboard-gateway/cmd/jobsctl/cmd"

func main() {
	cmd.Execute()
}
