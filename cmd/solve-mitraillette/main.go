package main

import (
	"context"
	"flag"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/golang/glog"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/timpalpant/go-mitraillette"
)

type Params struct {
	RulesPath string
	DBKind    string
	DBPath    string
	// Only solve this score, or every score if negative.
	Score int
}

func main() {
	var params Params
	flag.StringVar(&params.RulesPath, "rules", "", "Path to YAML rules (defaults if empty)")
	flag.StringVar(&params.DBKind, "db_kind", "file", "Database kind: file or pebble")
	flag.StringVar(&params.DBPath, "db", "mitraillette.db", "Path to solution database")
	flag.IntVar(&params.Score, "score", -1, "Only solve states with this score")
	flag.Parse()

	http.Handle("/metrics", promhttp.Handler())
	go http.ListenAndServe(":6069", nil)

	rules := mitraillette.DefaultRules()
	if params.RulesPath != "" {
		var err error
		rules, err = mitraillette.LoadRules(params.RulesPath)
		if err != nil {
			glog.Errorf("Unable to load rules: %v", err)
			os.Exit(1)
		}
	}
	if rules.TargetScore == 0 {
		glog.Errorf("Cannot enumerate the states of an uncapped game")
		os.Exit(1)
	}

	db, err := mitraillette.OpenDB(params.DBKind, params.DBPath, rules.TargetScore)
	if err != nil {
		glog.Errorf("Unable to open database: %v", err)
		os.Exit(1)
	}

	solveErr := solveAll(rules, db, params.Score)
	if err := db.Close(); err != nil {
		glog.Errorf("Error closing database: %v", err)
		os.Exit(1)
	}
	if solveErr != nil {
		glog.Errorf("Error solving: %v", solveErr)
		os.Exit(1)
	}
}

func solveAll(rules mitraillette.Rules, db mitraillette.DB, onlyScore int) error {
	for score := 0; score < rules.TargetScore; score += mitraillette.ScoreIncrement {
		if onlyScore >= 0 && score != onlyScore {
			continue
		}

		// A fresh solver per score keeps the memo from growing without bound.
		solver, err := mitraillette.NewSolver(rules, db)
		if err != nil {
			return err
		}

		for stake := 0; score+stake < rules.TargetScore; stake += mitraillette.ScoreIncrement {
			for nDice := 1; nDice <= mitraillette.MaxNumDice; nDice++ {
				state := mitraillette.NewState(score, stake, nDice)
				if _, err := solver.ExpectedValueContext(context.Background(), state); err != nil {
					return err
				}
			}
		}

		initial := solver.ExpectedValueAt(score, 0, mitraillette.MaxNumDice)
		glog.Infof("Solved score %d: expected turn value %.2f, memo size %d",
			score, initial, solver.MemoSize())
	}

	return nil
}
