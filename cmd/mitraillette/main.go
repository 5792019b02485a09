package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"text/tabwriter"
	"time"

	"github.com/golang/glog"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/timpalpant/go-mitraillette"
)

type Params struct {
	RulesPath   string
	Score       int
	MetricsAddr string
	Timeout     time.Duration
}

type row struct {
	stake int
	value float64
	gain  float64
}

func main() {
	var params Params
	flag.StringVar(&params.RulesPath, "rules", "", "Path to YAML rules (defaults if empty)")
	flag.IntVar(&params.Score, "score", 0, "Score banked in previous turns")
	flag.StringVar(&params.MetricsAddr, "metrics_addr", ":6069", "Address serving metrics and pprof")
	flag.DurationVar(&params.Timeout, "timeout", 10*time.Minute, "Time limit for solving all stakes")
	flag.Parse()

	rules := mitraillette.DefaultRules()
	if params.RulesPath != "" {
		var err error
		rules, err = mitraillette.LoadRules(params.RulesPath)
		if err != nil {
			glog.Errorf("Unable to load rules: %v", err)
			os.Exit(1)
		}
	}

	http.Handle("/metrics", promhttp.Handler())
	go http.ListenAndServe(params.MetricsAddr, nil)

	printRollTables()

	ctx, cancel := context.WithTimeout(context.Background(), params.Timeout)
	defer cancel()
	results, err := solveStakes(ctx, rules, params.Score)
	if err != nil {
		glog.Errorf("Error solving: %v", err)
		os.Exit(1)
	}

	printResults(results)
}

func printRollTables() {
	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "Dice\tRolls\tChoice sets\tP(bust)\tP(total)")
	for nDice := 1; nDice <= mitraillette.MaxNumDice; nDice++ {
		choices := mitraillette.EnumerateChoices(nDice)
		stats := mitraillette.StatsFor(nDice)
		fmt.Fprintf(w, "%d\t%d\t%d\t%.6f\t%.6f\n", nDice,
			pow6(nDice), len(stats.Choices), mitraillette.ProbabilityOfBust(nDice),
			mitraillette.TotalProbability(choices))
	}
	w.Flush()
	fmt.Println()
}

func pow6(n int) int {
	result := 1
	for i := 0; i < n; i++ {
		result *= 6
	}
	return result
}

// Each dice count is solved by its own solver, so workers never share a memo.
func solveStakes(ctx context.Context, rules mitraillette.Rules, score int) ([mitraillette.MaxNumDice + 1][]row, error) {
	var results [mitraillette.MaxNumDice + 1][]row
	g, ctx := errgroup.WithContext(ctx)
	for nDice := 1; nDice <= mitraillette.MaxNumDice; nDice++ {
		nDice := nDice
		g.Go(func() error {
			solver, err := mitraillette.NewSolver(rules, nil)
			if err != nil {
				return err
			}

			rows := make([]row, 0, len(rules.Stakes))
			for _, stake := range rules.Stakes {
				state := mitraillette.NewState(score, stake, nDice)
				sol, err := solver.ExpectedValueContext(ctx, state)
				if err != nil {
					return err
				}
				glog.V(1).Infof("%v: %v after %d rerolls", state, sol.Value, sol.Bound)
				rows = append(rows, row{
					stake: stake,
					value: sol.Value,
					gain:  sol.Value - float64(stake),
				})
			}

			glog.Infof("Solved %d stakes with %d dice, memo size %d",
				len(rows), nDice, solver.MemoSize())
			results[nDice] = rows
			return nil
		})
	}

	return results, g.Wait()
}

func printResults(results [mitraillette.MaxNumDice + 1][]row) {
	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', tabwriter.AlignRight)
	fmt.Fprint(w, "Stake\t")
	for nDice := 1; nDice <= mitraillette.MaxNumDice; nDice++ {
		fmt.Fprintf(w, "E[%dd]\tgain\t", nDice)
	}
	fmt.Fprintln(w)

	for i := range results[1] {
		fmt.Fprintf(w, "%d\t", results[1][i].stake)
		for nDice := 1; nDice <= mitraillette.MaxNumDice; nDice++ {
			r := results[nDice][i]
			fmt.Fprintf(w, "%.1f\t%+.1f\t", r.value, r.gain)
		}
		fmt.Fprintln(w)
	}
	w.Flush()
}
