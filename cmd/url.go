package cmd

import (
	"fmt"
	"os"
	"pagelab/core"
	"pagelab/database"
	"pagelab/logger"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	urlOwner           string
	urlSequence        int
	urlUser            string
	urlIncludeInactive bool
)

var urlCmd = &cobra.Command{
	Use:     "url",
	Short:   "Manage tracked URLs",
	Long:    `Add, list, import and (de)activate the URLs the crawler is asked to test.`,
	Aliases: []string{"urls"},
}

var addURLCmd = &cobra.Command{
	Use:   "add [address]",
	Short: "Track a new URL",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		logger.Info("Executing 'url add' command for %s", args[0])
		u, err := core.CreateURL(args[0], urlOwner, urlSequence, urlUser)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error adding URL: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("URL '%s' added with ID %d.\n", u.URL, u.ID)
	},
}

var listURLsCmd = &cobra.Command{
	Use:   "list",
	Short: "List tracked URLs",
	Run: func(cmd *cobra.Command, args []string) {
		logger.Info("Executing 'url list' command")
		urls, err := database.ListURLs(urlIncludeInactive)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error listing URLs: %v\n", err)
			os.Exit(1)
		}
		if len(urls) == 0 {
			fmt.Println("No URLs found.")
			return
		}

		writer := new(tabwriter.Writer)
		writer.Init(os.Stdout, 0, 8, 1, '\t', 0)
		fmt.Fprintln(writer, "ID\tURL\tOWNER\tSEQ\tACTIVE\tLATEST RUN")
		fmt.Fprintln(writer, "--\t---\t-----\t---\t------\t----------")
		for _, u := range urls {
			latest := "-"
			if u.LatestRunID != nil {
				latest = strconv.FormatInt(*u.LatestRunID, 10)
			}
			fmt.Fprintf(writer, "%d\t%s\t%s\t%d\t%t\t%s\n", u.ID, u.URL, u.OwnerName, u.Sequence, !u.Inactive, latest)
		}
		writer.Flush()
	},
}

var importURLsCmd = &cobra.Command{
	Use:   "import [csv-file]",
	Short: "Bulk import URLs from a headerless CSV (url,url2,views,hist,sequence)",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		logger.Info("Executing 'url import' command for %s", args[0])
		f, err := os.Open(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening import file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()

		res, err := core.ImportURLs(f, urlUser)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error importing URLs: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Imported %d URLs, skipped %d existing.\n", res.Created, res.Skipped)
		for _, e := range res.Errors {
			fmt.Fprintln(os.Stderr, "  "+e)
		}
	},
}

func setActiveCommand(use, short string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " [url_id]",
		Short: short,
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: invalid URL ID '%s'\n", args[0])
				os.Exit(1)
			}
			logger.Info("Executing 'url %s' command for ID %d", use, id)
			if err := core.SetURLActive(id, active, urlUser); err != nil {
				fmt.Fprintf(os.Stderr, "Error updating URL %d: %v\n", id, err)
				os.Exit(1)
			}
			fmt.Printf("URL %d %sd.\n", id, use)
		},
	}
}

func init() {
	rootCmd.AddCommand(urlCmd)

	urlCmd.PersistentFlags().StringVar(&urlUser, "user", "cli", "Name recorded as creator/editor")

	addURLCmd.Flags().StringVarP(&urlOwner, "owner", "o", "", "Owner name (created if missing)")
	addURLCmd.Flags().IntVarP(&urlSequence, "sequence", "s", 0, "Crawl sequence")
	urlCmd.AddCommand(addURLCmd)

	listURLsCmd.Flags().BoolVarP(&urlIncludeInactive, "all", "a", false, "Include inactive URLs")
	urlCmd.AddCommand(listURLsCmd)

	urlCmd.AddCommand(importURLsCmd)
	urlCmd.AddCommand(setActiveCommand("deactivate", "Remove a URL from the crawl queue", false))
	urlCmd.AddCommand(setActiveCommand("activate", "Return a URL to the crawl queue", true))
}
