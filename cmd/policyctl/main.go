package main

import (
	"os"

	"github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/policyctl"
)

func main() {
	os.Exit(policyctl.Execute())
}
