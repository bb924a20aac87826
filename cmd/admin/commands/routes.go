package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"postshare/internal/config"
	"postshare/internal/server"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var docsPath string

var supportedMethods = map[string]struct{}{
	"get":    {},
	"put":    {},
	"post":   {},
	"delete": {},
	"patch":  {},
}

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "API route tooling",
}

var routesCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the swagger document declares every served /api route",
	Long: `Build the router exactly as the server does and compare its /api routes
with the paths in the swagger document. Routes the document is missing and
documented operations nothing serves are both reported.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// #nosec G304: path comes from CLI flags in an operator tool
		raw, err := os.ReadFile(docsPath)
		if err != nil {
			return fmt.Errorf("read %s: %w", docsPath, err)
		}
		doc, err := parseSwagger(raw)
		if err != nil {
			return fmt.Errorf("parse %s: %w", docsPath, err)
		}
		served, err := servedRoutes()
		if err != nil {
			return err
		}
		return reportRouteDiff(cmd.OutOrStdout(), compareRoutes(served, doc))
	},
}

func init() {
	rootCmd.AddCommand(routesCmd)
	routesCmd.AddCommand(routesCheckCmd)
	routesCheckCmd.Flags().StringVar(&docsPath, "docs", "docs/swagger.yaml", "Swagger document to check")
}

// routeSet maps a swagger-style path ("/post/{id}") to its lower-case methods.
type routeSet map[string]map[string]struct{}

func (r routeSet) add(path, method string) {
	if r[path] == nil {
		r[path] = make(map[string]struct{})
	}
	r[path][method] = struct{}{}
}

// parseSwagger reads the operations of a swagger 2.0 document, with paths prefixed by its basePath.
func parseSwagger(raw []byte) (routeSet, error) {
	var doc struct {
		BasePath string                    `yaml:"basePath"`
		Paths    map[string]map[string]any `yaml:"paths"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	if doc.Paths == nil {
		return nil, errors.New("missing top-level paths field")
	}

	base := strings.TrimRight(doc.BasePath, "/")
	out := make(routeSet)
	for path, ops := range doc.Paths {
		for method := range ops {
			m := strings.ToLower(strings.TrimSpace(method))
			if _, ok := supportedMethods[m]; ok {
				out.add(base+path, m)
			}
		}
	}
	return out, nil
}

// servedRoutes builds the server's router without a database and lists its /api routes.
func servedRoutes() (routeSet, error) {
	cfg := &config.Config{JWTSecret: "routes-check", ImageMaxUploadSizeMB: 1, RateLimitPerMinute: 1}
	srv, err := server.NewServerWithDeps(cfg, nil, nil)
	if err != nil {
		return nil, err
	}
	return fiberRoutes(srv.App().GetRoutes(true)), nil
}

func fiberRoutes(routes []fiber.Route) routeSet {
	out := make(routeSet)
	for _, r := range routes {
		m := strings.ToLower(r.Method)
		if _, ok := supportedMethods[m]; !ok || !strings.HasPrefix(r.Path, "/api/") {
			continue
		}
		out.add(swaggerPath(r.Path), m)
	}
	return out
}

// swaggerPath rewrites Fiber params (":id") into swagger form ("{id}").
func swaggerPath(path string) string {
	parts := strings.Split(path, "/")
	for i, p := range parts {
		if strings.HasPrefix(p, ":") {
			parts[i] = "{" + strings.TrimSuffix(p[1:], "?") + "}"
		}
	}
	return strings.Join(parts, "/")
}

type routeDiff struct {
	Undocumented []string `json:"undocumented"`
	Unserved     []string `json:"unserved"`
}

func compareRoutes(served, documented routeSet) routeDiff {
	diff := routeDiff{Undocumented: []string{}, Unserved: []string{}}
	for path, methods := range served {
		for m := range methods {
			if _, ok := documented[path][m]; !ok {
				diff.Undocumented = append(diff.Undocumented, strings.ToUpper(m)+" "+path)
			}
		}
	}
	for path, methods := range documented {
		for m := range methods {
			if _, ok := served[path][m]; !ok {
				diff.Unserved = append(diff.Unserved, strings.ToUpper(m)+" "+path)
			}
		}
	}
	sort.Strings(diff.Undocumented)
	sort.Strings(diff.Unserved)
	return diff
}

func reportRouteDiff(w io.Writer, diff routeDiff) error {
	if jsonOutput {
		if err := printJSON(w, diff); err != nil {
			return err
		}
	} else {
		for _, r := range diff.Undocumented {
			_, _ = fmt.Fprintf(w, "- undocumented route: %s\n", r)
		}
		for _, r := range diff.Unserved {
			_, _ = fmt.Fprintf(w, "- documented but not served: %s\n", r)
		}
	}
	if len(diff.Undocumented)+len(diff.Unserved) > 0 {
		return errors.New("route check failed")
	}
	_, err := fmt.Fprintln(w, "route check passed")
	return err
}
