package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/yukikurage/athlete-performance-api/internal/datagen"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "datagen",
		Short:        "Generate roster and measurement CSVs in the import format",
		SilenceUsage: true,
	}
	root.AddCommand(newRosterCmd(), newMeasurementsCmd())
	return root
}

func newRosterCmd() *cobra.Command {
	var (
		out      string
		ageGroup string
		opts     datagen.RosterOptions
	)

	cmd := &cobra.Command{
		Use:   "roster",
		Short: "Write a single-team roster CSV",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if ageGroup != "" {
				g, err := datagen.ParseAgeGroup(ageGroup)
				if err != nil {
					return err
				}
				opts.AgeGroup = g
			}

			roster, err := datagen.GenerateRoster(opts)
			if err != nil {
				return err
			}
			if err := writeFile(out, func(f *os.File) error {
				return datagen.WriteRoster(f, roster.Rows)
			}); err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Wrote roster: %s\n", out)
			fmt.Fprintf(w, "Team: %s | Players: %d | Gender: %s | Sport: %s\n", roster.TeamName, len(roster.Rows), roster.Gender, roster.Sport)
			fmt.Fprintf(w, "Competitive Level: %d (%s)\n", roster.CompetitiveLevel, datagen.CompetitiveLevelName(roster.CompetitiveLevel))
			group := ""
			if roster.AgeGroup != "" {
				group = " | Age group: " + string(roster.AgeGroup)
			}
			fmt.Fprintf(w, "Birth years: %d-%d%s\n", roster.BirthYearMin, roster.BirthYearMax, group)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&out, "out", "", "output CSV path")
	f.IntVar(&opts.Count, "num", 0, "number of players")
	f.StringVar(&opts.Gender, "gender", "", "Male, Female or Not Specified (default random)")
	f.StringVar(&opts.Sport, "sport", "", "sport name (default Soccer)")
	f.StringVar(&ageGroup, "age-group", "", "middle_school, high_school, college or pro (default random)")
	f.IntVar(&opts.BirthYearMin, "birth-year-min", 0, "min birth year, overrides --age-group")
	f.IntVar(&opts.BirthYearMax, "birth-year-max", 0, "max birth year, overrides --age-group")
	f.StringVar(&opts.TeamName, "team-name", "", "team name (default generated from level)")
	f.IntVar(&opts.CompetitiveLevel, "competitive-level", 0, "1 (Elite) to 5 (Beginner); default drawn from the age group")
	f.Uint64Var(&opts.Seed, "seed", 42, "random seed")
	f.IntVar(&opts.CurrentYear, "current-year", 2024, "year age groups are measured against")
	_ = cmd.MarkFlagRequired("out")
	_ = cmd.MarkFlagRequired("num")
	return cmd
}

func newMeasurementsCmd() *cobra.Command {
	var (
		rosterPath string
		out        string
		dates      []string
		start, end string
		opts       datagen.MeasurementOptions
	)

	cmd := &cobra.Command{
		Use:   "measurements",
		Short: "Write measurement trials for every athlete in a roster CSV",
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, raw := range dates {
				d, err := time.Parse(datagen.DateLayout, raw)
				if err != nil {
					return fmt.Errorf("--dates: %q is not YYYY-MM-DD", raw)
				}
				opts.Dates = append(opts.Dates, d)
			}
			var err error
			if opts.RandomStart, err = time.Parse(datagen.DateLayout, start); err != nil {
				return fmt.Errorf("--random-date-start: %q is not YYYY-MM-DD", start)
			}
			if opts.RandomEnd, err = time.Parse(datagen.DateLayout, end); err != nil {
				return fmt.Errorf("--random-date-end: %q is not YYYY-MM-DD", end)
			}

			f, err := os.Open(rosterPath)
			if err != nil {
				return err
			}
			roster, err := datagen.ReadRoster(f)
			f.Close()
			if err != nil {
				return err
			}

			rows, used, err := datagen.GenerateMeasurements(roster, opts)
			if err != nil {
				return err
			}
			if err := writeFile(out, func(f *os.File) error {
				return datagen.WriteMeasurements(f, rows)
			}); err != nil {
				return err
			}

			days := make([]string, len(used))
			for i, d := range used {
				days[i] = d.Format(datagen.DateLayout)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote measurements: %s\n", out)
			fmt.Fprintf(cmd.OutOrStdout(), "Dates used: %s\n", strings.Join(days, ", "))
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&rosterPath, "roster", "", "roster CSV path")
	f.StringVar(&out, "out", "", "output CSV path")
	f.IntVar(&opts.Trials, "trials", 3, "trials per metric per date")
	f.StringSliceVar(&dates, "dates", nil, "test dates YYYY-MM-DD; random dates are drawn when omitted")
	f.IntVar(&opts.RandomDates, "num-random-dates", 1, "how many random dates to draw without --dates")
	f.StringVar(&start, "random-date-start", "2025-01-01", "start of the random date window")
	f.StringVar(&end, "random-date-end", "2025-12-31", "end of the random date window")
	f.Uint64Var(&opts.Seed, "seed", 42, "random seed")
	_ = cmd.MarkFlagRequired("roster")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

// writeFile creates path, including missing parent directories.
func writeFile(path string, write func(*os.File) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
