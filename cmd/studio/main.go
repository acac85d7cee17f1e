// Command studio runs the editing core against local files: compile a
// mockup spec, export a scene, apply patches, validate a document. The same
// packages back the HTTP server; this is the offline workflow.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/brandlane/brandlane/studio-go/internal/export"
	"github.com/brandlane/brandlane/studio-go/internal/intent"
	"github.com/brandlane/brandlane/studio-go/internal/patch"
	"github.com/brandlane/brandlane/studio-go/internal/scene"
	"github.com/brandlane/brandlane/studio-go/internal/schema"
)

func main() {
	root := &cobra.Command{
		Use:           "studio",
		Short:         "Design studio editing core",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(compileCmd())
	root.AddCommand(exportCmd())
	root.AddCommand(applyCmd())
	root.AddCommand(validateCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func compileCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "compile <spec.json>",
		Short: "Compile a mockup spec into a scene",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var spec intent.Spec
			if err := readJSON(args[0], &spec); err != nil {
				return err
			}

			s, res := intent.Compile(spec)
			for _, w := range res.Warnings {
				fmt.Fprintln(os.Stderr, "warning:", w)
			}
			fmt.Fprintf(os.Stderr, "compiled %d sections, skipped %d\n", res.Sections, res.Skipped)

			return writeJSON(out, s)
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}

func exportCmd() *cobra.Command {
	var format, outDir, title string

	cmd := &cobra.Command{
		Use:   "export <scene.json>",
		Short: "Export a scene to markup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := readScene(args[0])
			if err != nil {
				return err
			}
			opts := export.Options{Title: title}

			var files []export.File
			switch format {
			case "standalone":
				file, err := export.StandaloneMarkup(s, opts)
				if err != nil {
					return err
				}
				files = []export.File{file}
			case "component":
				files, err = export.ComponentMarkup(s, opts)
				if err != nil {
					return err
				}
			default:
				return fmt.Errorf("unknown format %q: use standalone or component", format)
			}

			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return err
			}
			for _, f := range files {
				path := filepath.Join(outDir, f.Name)
				if err := os.WriteFile(path, f.Content, 0o644); err != nil {
					return err
				}
				fmt.Fprintln(os.Stderr, "wrote", path)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "standalone", "output format: standalone or component")
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "output directory")
	cmd.Flags().StringVar(&title, "title", "", "document title")
	return cmd
}

func applyCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "apply <scene.json> <patches.json>",
		Short: "Apply a patch file to a scene",
		Long: `Apply reads a JSON array of patches and applies them in order.
A rejected patch stops the run; the scene written out includes only the
patches applied before the rejection.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := readScene(args[0])
			if err != nil {
				return err
			}

			var patches []patch.Patch
			if err := readJSON(args[1], &patches); err != nil {
				return err
			}

			applied := 0
			for i, p := range patches {
				next, _, err := patch.Apply(s, p)
				if err != nil {
					if werr := writeJSON(out, s); werr != nil {
						return werr
					}
					return fmt.Errorf("patch %d rejected after %d applied: %w", i, applied, err)
				}
				s = next
				applied++
			}

			fmt.Fprintf(os.Stderr, "applied %d patches\n", applied)
			return writeJSON(out, s)
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}

func validateCmd() *cobra.Command {
	var out string
	var maxDepth int

	cmd := &cobra.Command{
		Use:   "validate <document.json>",
		Short: "Validate and normalize a document input",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in schema.DocumentInput
			if err := readJSON(args[0], &in); err != nil {
				return err
			}

			doc, err := schema.Validate(&in, schema.Options{MaxDepth: maxDepth})
			if err != nil {
				return err
			}
			return writeJSON(out, doc)
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	cmd.Flags().IntVar(&maxDepth, "max-depth", 0, "maximum group nesting depth (0 = default)")
	return cmd
}

func readScene(path string) (*scene.Scene, error) {
	var s scene.Scene
	if err := readJSON(path, &s); err != nil {
		return nil, err
	}
	if s.Nodes == nil {
		s.Nodes = map[string]scene.Node{}
	}
	return &s, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	if path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
