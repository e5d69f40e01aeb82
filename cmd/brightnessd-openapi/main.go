// Command brightnessd-openapi prints the OpenAPI document of the brightnessd
// HTTP API. Routes are registered against stub handlers, so no daemon or
// brightness service is needed.
//
// Usage:
//
//	brightnessd-openapi > openapi.json
//	brightnessd-openapi --yaml -o openapi.yaml
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/brightnessd/internal/http/routes"
)

var version = "dev"

func main() {
	flags := pflag.NewFlagSet("brightnessd-openapi", pflag.ExitOnError)
	output := flags.StringP("output", "o", "", "Output file path (default: stdout)")
	asYAML := flags.Bool("yaml", false, "Output as YAML instead of JSON")
	baseURL := flags.String("base-url", "", "Base URL for the API server")
	showVersion := flags.Bool("version", false, "Print version and exit")
	_ = flags.Parse(os.Args[1:])

	if *showVersion {
		fmt.Println(version)
		return
	}

	var w io.Writer = os.Stdout
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error creating %s: %v\n", *output, err)
			os.Exit(1)
		}
		defer f.Close()
		w = f
	}

	if err := generate(w, *baseURL, *asYAML); err != nil {
		fmt.Fprintf(os.Stderr, "error generating OpenAPI document: %v\n", err)
		os.Exit(1)
	}
	if *output != "" {
		fmt.Fprintf(os.Stderr, "OpenAPI document written to %s\n", *output)
	}
}

// generate writes the OpenAPI document for the API routes to w.
func generate(w io.Writer, baseURL string, asYAML bool) error {
	api := humachi.New(chi.NewRouter(), routes.NewHumaConfig(version, baseURL))
	routes.Register(api, routes.StubHandlers())
	doc := api.OpenAPI()

	if asYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
