package main

import (
	"fmt"
	"os"

	"github.com/globalmod/globalmod/pkg/api"
)

// Rewrites each file named on the command line for the runtime phase and
// prints the results. Every file is registered under its path.
func main() {
	service, err := api.NewService(0)
	if err != nil {
		fmt.Println("[ERROR] ", err)
		os.Exit(1)
	}

	for _, path := range os.Args[1:] {
		contents, err := os.ReadFile(path)
		if err != nil {
			fmt.Println("[ERROR] ", err)
			os.Exit(1)
		}

		result := service.Transform(string(contents), api.TransformOptions{
			ModuleID:   path,
			Phase:      api.PhaseRuntime,
			Sourcefile: path,
		})
		for _, warn := range result.Warnings {
			fmt.Println("[WARN] ", warn.Text)
		}
		for _, err := range result.Errors {
			fmt.Println("[ERROR] ", err.Text)
		}
		fmt.Println(string(result.Code))
	}
}
