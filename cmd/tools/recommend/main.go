package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"bizmatch-workers/internal/catalog"
	"bizmatch-workers/internal/recommendation"
	"bizmatch-workers/pkg/registry"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	if len(args) < 1 {
		help(out)
		return fmt.Errorf("missing command")
	}

	switch args[0] {
	case "score":
		return score(args[1:], out)
	case "catalog":
		if len(args) < 3 || args[1] != "validate" {
			return fmt.Errorf("usage: recommend catalog validate <file>")
		}
		return validateCatalog(args[2], out)
	case "registry":
		if len(args) < 3 || args[1] != "validate" {
			return fmt.Errorf("usage: recommend registry validate <file>")
		}
		return validateRegistry(args[2], out)
	case "help", "-h", "--help":
		help(out)
		return nil
	default:
		help(out)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func score(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("score", flag.ContinueOnError)
	fs.SetOutput(out)

	interests := fs.String("interests", "", "Comma separated interest categories (e.g. Technology,Retail)")
	budget := fs.String("budget", "", "Available budget (e.g. 150000 or ₱150,000)")
	location := fs.String("location", "", "Urban, Suburban, Rural or Online Only")
	experience := fs.String("experience", "", "none, some, moderate or experienced")
	category := fs.String("category", "", "Only keep businesses in this category")
	maxBudget := fs.String("max-budget", "", "Only keep businesses whose minimum startup cost fits")
	minMatch := fs.String("min-match", "", "Only keep matches at or above this percentage")
	limit := fs.Int("limit", 0, "Maximum number of results, 0 for all")
	catalogPath := fs.String("catalog", "", "Catalog file, defaults to the built-in catalog")
	asJSON := fs.Bool("json", false, "Print JSON instead of a table")
	breakdown := fs.Bool("breakdown", false, "Show the per-axis score breakdown")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cat := catalog.Default()
	if *catalogPath != "" {
		var err error
		if cat, err = catalog.LoadFile(*catalogPath); err != nil {
			return err
		}
	}

	form := map[string]interface{}{
		recommendation.FormInterests:  *interests,
		recommendation.FormLocation:   *location,
		recommendation.FormExperience: *experience,
		recommendation.FormFilters: map[string]interface{}{
			recommendation.FilterCategory:  *category,
			recommendation.FilterMaxBudget: *maxBudget,
			recommendation.FilterMinMatch:  *minMatch,
		},
	}
	if *budget != "" {
		form[recommendation.FormBudget] = *budget
	}

	profile, filters, err := recommendation.ParseForm(form)
	if err != nil {
		return err
	}
	if *limit < 0 {
		return fmt.Errorf("limit must not be negative")
	}

	engine := recommendation.NewEngine(cat)

	if *breakdown {
		scored := engine.Score(profile)
		if *asJSON {
			return writeJSON(out, scored)
		}
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "BUSINESS\tMATCH\tCATEGORY\tBUDGET\tLOCATION\tEXPERIENCE")
		for _, s := range scored {
			fmt.Fprintf(tw, "%s\t%d%%\t%d\t%d\t%d\t%d\n", s.Business.Title, s.MatchPercentage,
				s.Breakdown.Category, s.Breakdown.Budget, s.Breakdown.Location, s.Breakdown.Experience)
		}
		return tw.Flush()
	}

	recs := engine.RecommendWithFilters(profile, filters)
	if *limit > 0 && len(recs) > *limit {
		recs = recs[:*limit]
	}
	if *asJSON {
		return writeJSON(out, recs)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "BUSINESS\tMATCH\tSTARTUP COST\tRISK\tSLUG")
	for _, r := range recs {
		fmt.Fprintf(tw, "%s\t%d%%\t%s\t%s\t%s\n", r.Title, r.MatchPercentage, r.StartupCost, r.RiskLevel, r.Slug)
	}
	return tw.Flush()
}

func validateCatalog(path string, out io.Writer) error {
	c, err := catalog.LoadFile(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Catalog is valid: %d businesses, version %s\n", c.Len(), c.Version())
	return nil
}

func validateRegistry(path string, out io.Writer) error {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return err
	}
	if err := reg.Validate(); err != nil {
		return err
	}
	fmt.Fprintf(out, "Registry is valid: %d activities\n", len(reg.Activities))
	return nil
}

func writeJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func help(out io.Writer) {
	fmt.Fprintln(out, "Usage: recommend <command> [arguments]")
	fmt.Fprintln(out, "Commands:")
	fmt.Fprintln(out, "  score [flags]                 Rank the catalog for one profile")
	fmt.Fprintln(out, "  catalog validate <file>       Check a catalog document")
	fmt.Fprintln(out, "  registry validate <file>      Check an activity registry")
}
