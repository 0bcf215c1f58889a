package cmd

import (
	"fmt"
	"os"
	"pagelab/core"
	"pagelab/database"
	"pagelab/logger"
	"pagelab/models"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	filterDescription string
	filterMode        string
	filterParts       []string
)

var filterCmd = &cobra.Command{
	Use:     "filter",
	Short:   "Manage saved URL filters",
	Aliases: []string{"filters"},
}

var listFiltersCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved filters",
	Run: func(cmd *cobra.Command, args []string) {
		logger.Info("Executing 'filter list' command")
		filters, err := database.ListFilters()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error listing filters: %v\n", err)
			os.Exit(1)
		}
		if len(filters) == 0 {
			fmt.Println("No filters found.")
			return
		}
		writer := new(tabwriter.Writer)
		writer.Init(os.Stdout, 0, 8, 1, '\t', 0)
		fmt.Fprintln(writer, "ID\tSLUG\tNAME\tMODE\tPARTS")
		fmt.Fprintln(writer, "--\t----\t----\t----\t-----")
		for _, f := range filters {
			fmt.Fprintf(writer, "%d\t%s\t%s\t%s\t%s\n", f.ID, f.Slug, f.Name, f.Mode, describeParts(f.Parts))
		}
		writer.Flush()
	},
}

var createFilterCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create a filter from --part prop=value or path_segment[@index]=value flags",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		logger.Info("Executing 'filter create' command for '%s'", args[0])
		req := models.URLFilterCreateRequest{Name: args[0], Description: filterDescription, Mode: strings.ToUpper(filterMode)}
		for _, raw := range filterParts {
			part, err := parsePartFlag(raw)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			req.Parts = append(req.Parts, part)
		}
		if len(req.Parts) == 0 {
			fmt.Fprintln(os.Stderr, "Error: at least one --part is required")
			os.Exit(1)
		}
		f, err := core.CreateFilter(req)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating filter: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Filter '%s' created with slug '%s'.\n", f.Name, f.Slug)
	},
}

var runFilterCmd = &cobra.Command{
	Use:   "run [slug]",
	Short: "List the URLs matched by a filter",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		logger.Info("Executing 'filter run' command for '%s'", args[0])
		f, err := database.GetFilterBySlug(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading filter '%s': %v\n", args[0], err)
			os.Exit(1)
		}
		urls, err := core.RunFilter(f)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error running filter: %v\n", err)
			os.Exit(1)
		}
		for _, u := range urls {
			fmt.Printf("%d\t%s\n", u.ID, u.URL)
		}
		fmt.Fprintf(os.Stderr, "%d URLs matched.\n", len(urls))
	},
}

// parsePartFlag reads "prop=value", "path_segment@1=value" or "search_key:key=value".
func parsePartFlag(raw string) (models.URLFilterPartRequest, error) {
	var part models.URLFilterPartRequest
	lhs, value, ok := strings.Cut(raw, "=")
	if !ok {
		return part, fmt.Errorf("invalid --part '%s', expected prop=value", raw)
	}
	part.Value = value
	if prop, idx, found := strings.Cut(lhs, "@"); found {
		n, err := strconv.Atoi(idx)
		if err != nil || n < 0 {
			return part, fmt.Errorf("invalid path index in --part '%s'", raw)
		}
		part.Prop = prop
		part.PathIndex = &n
		return part, nil
	}
	if prop, key, found := strings.Cut(lhs, ":"); found {
		part.Prop = prop
		part.Key = &key
		return part, nil
	}
	part.Prop = lhs
	return part, nil
}

func describeParts(parts []models.URLFilterPart) string {
	descs := make([]string, 0, len(parts))
	for _, p := range parts {
		switch {
		case p.PathIndex != nil:
			descs = append(descs, fmt.Sprintf("%s@%d=%s", p.Prop, *p.PathIndex, p.Value))
		case p.Key != nil:
			descs = append(descs, fmt.Sprintf("%s:%s=%s", p.Prop, *p.Key, p.Value))
		default:
			descs = append(descs, p.Prop+"="+p.Value)
		}
	}
	return strings.Join(descs, ", ")
}

func init() {
	rootCmd.AddCommand(filterCmd)

	createFilterCmd.Flags().StringVarP(&filterDescription, "description", "d", "", "Filter description")
	createFilterCmd.Flags().StringVarP(&filterMode, "mode", "m", models.FilterModeAnd, "How parts combine: AND or OR")
	createFilterCmd.Flags().StringArrayVarP(&filterParts, "part", "p", nil, "Filter part, repeatable")

	filterCmd.AddCommand(listFiltersCmd)
	filterCmd.AddCommand(createFilterCmd)
	filterCmd.AddCommand(runFilterCmd)
}
