package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roguegoose-dev/goose-guidance/internal/jobs"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Search jobs across the enabled providers",
	Run: func(cmd *cobra.Command, _ []string) {
		searchJobs(cmd)
	},
}

func init() {
	rootCmd.AddCommand(jobsCmd)

	jobsCmd.Flags().StringP("keywords", "k", "", "search keywords")
	jobsCmd.Flags().StringP("location", "l", "", "location to search in")
	jobsCmd.Flags().String("category", "", "job category, e.g. software, healthcare, trades")
	jobsCmd.Flags().String("sort", "", "relevance, newest or salary. Provider default when unset")
	jobsCmd.Flags().String("source", string(jobs.SourceAll), "all or a single provider: adzuna, careerjet, headhunter")
	jobsCmd.Flags().Bool("dump", false, "print listings as json instead of text")
}

func searchJobs(cmd *cobra.Command) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	logger, config := setup()
	defer logger.Sync()

	aggregator, err := newAggregator(config, logger)
	if err != nil {
		logger.Fatal("preparing the job search", zap.Error(err))
	}

	flag := func(name string) string {
		return strings.TrimSpace(cmd.Flag(name).Value.String())
	}

	query := jobs.Query{
		Keywords: flag("keywords"),
		Location: flag("location"),
		Category: jobs.ParseCategory(flag("category")),
		Sort:     jobs.ParseSort(flag("sort")),
		Source:   jobs.Source(strings.ToLower(flag("source"))),
	}

	logger.Info("starting the search", zap.String("keywords", query.Keywords), zap.String("source", string(query.Source)))

	result, err := aggregator.Search(ctx, query)
	if err != nil {
		logger.Fatal("searching jobs", zap.Error(err))
	}

	for _, o := range result.Outcomes {
		if o.OK() {
			logger.Info("provider answered", zap.String("source", string(o.Source)), zap.Int("count", len(o.Listings)))
		}
	}

	logger.Info("getting listings", zap.Int("count", len(result.Listings)))

	dump, _ := cmd.Flags().GetBool("dump")
	if dump {
		// do not bother error since listings are plain values
		pretty, _ := json.MarshalIndent(result.Listings, "", "  ")
		fmt.Println(string(pretty))
		return
	}

	printListings(os.Stdout, result.Listings)
}

func printListings(w io.Writer, listings []jobs.Listing) {
	for i, l := range listings {
		fmt.Fprintf(w, "%d. %s", i+1, l.Title)
		if l.Company != "" {
			fmt.Fprintf(w, " / %s", l.Company)
		}
		if l.Location != "" {
			fmt.Fprintf(w, " / %s", l.Location)
		}
		fmt.Fprintf(w, " [%s]\n", l.Source)

		if l.Salary != "" {
			fmt.Fprintf(w, "   salary: %s\n", l.Salary)
		}
		if l.PostedAt != nil {
			fmt.Fprintf(w, "   posted: %s\n", l.PostedAt.Format("2006-01-02"))
		}
		fmt.Fprintf(w, "   %s\n", l.URL)
	}
}
