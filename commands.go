package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"deepmap_research/export"
	"deepmap_research/store"
	"deepmap_research/tree"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

var (
	promptFlag   string
	branchesFlag int
	idFlag       string
	fileFlag     string
	saveFlag     bool
	htmlFlag     bool
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build a level one tree for a prompt and print it as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := setup(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		if saveFlag {
			rec, err := rt.maps.Create(cmd.Context(), promptFlag, branchesFlag)
			if err != nil {
				return err
			}
			return printJSON(cmd, rec)
		}
		root, err := rt.maps.Build(cmd.Context(), promptFlag, branchesFlag)
		if err != nil {
			return err
		}
		return printJSON(cmd, root)
	},
}

var deeperCmd = &cobra.Command{
	Use:   "deeper",
	Short: "Expand every leaf of a stored map (--id) or a tree file (--file)",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := setup(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		if idFlag != "" {
			rec, err := rt.maps.Deeper(cmd.Context(), idFlag, branchesFlag)
			if err != nil {
				return err
			}
			return printJSON(cmd, rec)
		}
		t, err := readTreeFile(fileFlag)
		if err != nil {
			return err
		}
		out, err := rt.maps.Expand(cmd.Context(), t, branchesFlag)
		if err != nil {
			return err
		}
		return printJSON(cmd, out)
	},
}

var pathsCmd = &cobra.Command{
	Use:   "paths",
	Short: "Print every root-to-leaf path of a map, one per line",
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := resolveTree(cmd)
		if err != nil {
			return err
		}
		for _, p := range tree.TracePaths(t, nil) {
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(p, " > "))
		}
		return nil
	},
}

var outlineCmd = &cobra.Command{
	Use:   "outline",
	Short: "Print a map as a markdown (or --html) outline",
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := resolveTree(cmd)
		if err != nil {
			return err
		}
		if htmlFlag {
			html, err := export.HTML(t)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), html)
			return nil
		}
		fmt.Fprint(cmd.OutOrStdout(), export.Markdown(t))
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored map ids, oldest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := setup(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()
		ids, err := rt.maps.List(cmd.Context())
		if err != nil {
			return err
		}
		for _, id := range ids {
			fmt.Fprintln(cmd.OutOrStdout(), id)
		}
		return nil
	},
}

func init() {
	buildCmd.Flags().StringVarP(&promptFlag, "prompt", "p", "", "root prompt")
	_ = buildCmd.MarkFlagRequired("prompt")

	for _, c := range []*cobra.Command{buildCmd, deeperCmd} {
		c.Flags().IntVarP(&branchesFlag, "branches", "n", 0, "max branches per generation (0 = config default)")
	}
	buildCmd.Flags().BoolVar(&saveFlag, "save", false, "store the tree and print the stored record")

	for _, c := range []*cobra.Command{deeperCmd, pathsCmd, outlineCmd} {
		c.Flags().StringVar(&idFlag, "id", "", "stored map id")
		c.Flags().StringVarP(&fileFlag, "file", "f", "", "tree JSON file ({\"prompt\", \"branches\"})")
		c.MarkFlagsMutuallyExclusive("id", "file")
		c.MarkFlagsOneRequired("id", "file")
	}
	outlineCmd.Flags().BoolVar(&htmlFlag, "html", false, "render HTML instead of markdown")

	rootCmd.AddCommand(buildCmd, deeperCmd, pathsCmd, outlineCmd, listCmd)
}

// resolveTree loads the tree named by --id or --file.
func resolveTree(cmd *cobra.Command) (*tree.Node, error) {
	if fileFlag != "" {
		return readTreeFile(fileFlag)
	}
	rt, err := setup(cmd)
	if err != nil {
		return nil, err
	}
	defer rt.Close()
	rec, err := rt.maps.Get(cmd.Context(), idFlag)
	if err != nil {
		return nil, err
	}
	return rec.Tree, nil
}

// readTreeFile accepts either a bare tree or a stored record with map_data.
func readTreeFile(path string) (*tree.Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rec store.Record
	if err := json.Unmarshal(data, &rec); err == nil && rec.Tree != nil {
		return rec.Tree, rec.Tree.Validate()
	}
	var t tree.Node
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, errors.Wrapf(err, "parse tree %s", path)
	}
	if err := t.Validate(); err != nil {
		return nil, errors.Wrapf(err, "tree %s", path)
	}
	return &t, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
