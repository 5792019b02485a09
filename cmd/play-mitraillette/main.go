package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/golang/glog"
	"golang.org/x/exp/rand"

	"github.com/timpalpant/go-mitraillette"
)

type Params struct {
	RulesPath string
	DBKind    string
	DBPath    string
	// Read rolls from the terminal instead of rolling dice.
	Manual bool
}

func main() {
	var params Params
	flag.StringVar(&params.RulesPath, "rules", "", "Path to YAML rules (defaults if empty)")
	flag.StringVar(&params.DBKind, "db_kind", "memory", "Database kind: memory, file or pebble")
	flag.StringVar(&params.DBPath, "db", "mitraillette.db", "Path to solution database")
	flag.BoolVar(&params.Manual, "manual", false, "Enter rolls by hand")
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

	db, err := mitraillette.OpenDB(params.DBKind, params.DBPath, rules.TargetScore)
	if err != nil {
		glog.Errorf("Unable to initialize database: %v", err)
		os.Exit(1)
	}
	defer db.Close()

	solver, err := mitraillette.NewSolver(rules, db)
	if err != nil {
		glog.Errorf("Unable to initialize solver: %v", err)
		os.Exit(1)
	}

	rng := rand.New(rand.NewSource(uint64(time.Now().UnixNano())))
	playGame(solver, rng, params.Manual)
}

func playGame(solver *mitraillette.Solver, rng *rand.Rand, manual bool) {
	target := solver.Rules().TargetScore
	state := mitraillette.NewState(0, 0, mitraillette.MaxNumDice)
	rdr := bufio.NewReader(os.Stdin)

	for target == 0 || state.Score < target {
		var roll mitraillette.Roll
		if manual {
			roll = promptUserForRoll(rdr, state.NumDice)
		} else {
			roll = mitraillette.NewRandomRoll(state.NumDice, rng)
		}
		fmt.Printf("Rolled %s with stake %d\n", roll, state.Stake)

		hist := roll.Histogram()
		choices := mitraillette.EnumerateCombinations(hist)
		optimal, ok := solver.Advise(state, hist)
		if !ok {
			if choices.IsBust() {
				fmt.Printf("...bust! %d points lost\n\n", state.Stake)
			} else {
				fmt.Printf("...every combination goes over %d, %d points lost\n\n", target, state.Stake)
			}
			state = mitraillette.NewState(state.Score, 0, mitraillette.MaxNumDice)
			continue
		}

		canStop := solver.Rules().CanStop(state, choices.MaxValue())
		if !canStop {
			fmt.Printf("...best combination goes over %d, stopping would lose the stake\n", target)
		}
		options := mitraillette.NewOptions(state.NumDice, choices)
		for i, opt := range options {
			fmt.Printf("  %d: %v (%d pts, then %d dice)\n",
				i, opt.Combination, opt.Value, opt.RerollDice)
		}

		choice := promptUserForOption(rdr, len(options))
		reroll := promptUserToContinue(rdr)
		opt := options[choice]
		next := state.Apply(opt)
		if reroll && target > 0 && next.Total() >= target {
			fmt.Println("...target reached, no more rolling")
			reroll = false
		}

		if opt == optimal.Option && reroll == optimal.Reroll {
			fmt.Println("...selected action is optimal!")
		} else {
			fmt.Printf("...optimal action was to %v\n", optimal)
			selected := 0.0
			if canStop {
				selected = float64(next.Stake)
			}
			if reroll {
				selected = solver.ExpectedValueAt(next.Score, next.Stake, next.NumDice)
			}
			fmt.Printf("...selected action expects %.1f (%+.1f)\n",
				selected, selected-optimal.Value)
		}

		if reroll {
			state = next
			continue
		}

		if !canStop {
			fmt.Printf("...cannot stop on this roll, %d points lost\n\n", next.Stake)
			state = mitraillette.NewState(state.Score, 0, mitraillette.MaxNumDice)
			continue
		}

		state = mitraillette.NewState(next.Total(), 0, mitraillette.MaxNumDice)
		fmt.Printf("Banked %d points, score is now %d\n\n", next.Stake, state.Score)
	}

	fmt.Printf("Reached %d!\n", state.Score)
}

func promptUserForRoll(rdr *bufio.Reader, numDice int) mitraillette.Roll {
	for {
		fmt.Printf("...enter %d dice: ", numDice)
		line, err := rdr.ReadString('\n')
		if err != nil {
			fmt.Printf("......unable to read dice: %v\n", err)
			continue
		}

		roll, err := parseRoll(line, numDice)
		if err == nil {
			return roll
		}

		fmt.Printf("......unable to parse dice: %v\n", err)
	}
}

func promptUserForOption(rdr *bufio.Reader, numOptions int) int {
	for {
		fmt.Printf("...combination to bank (0-%d)? ", numOptions-1)
		line, err := rdr.ReadString('\n')
		if err != nil {
			fmt.Printf("......unable to read choice: %v\n", err)
			continue
		}

		choice, err := strconv.Atoi(strings.TrimSpace(line))
		if err == nil && choice >= 0 && choice < numOptions {
			return choice
		}

		fmt.Printf("......'%s' is not a valid choice\n", strings.TrimSpace(line))
	}
}

var yesNoResponses = map[string]bool{
	"Y":   true,
	"N":   false,
	"1":   true,
	"0":   false,
	"YES": true,
	"NO":  false,
}

func promptUserToContinue(rdr *bufio.Reader) bool {
	for {
		fmt.Printf("...continue rolling (Y/N)? ")
		line, err := rdr.ReadString('\n')
		if err != nil {
			fmt.Printf("......unable to read answer: %v\n", err)
			continue
		}

		yesNoStr := strings.ToUpper(strings.TrimSpace(line))
		continueRolling, ok := yesNoResponses[yesNoStr]
		if !ok {
			fmt.Printf("......don't understand '%s'\n", yesNoStr)
			continue
		}

		return continueRolling
	}
}

var charToDie = map[rune]uint8{
	'1': 1,
	'2': 2,
	'3': 3,
	'4': 4,
	'5': 5,
	'6': 6,
}

func parseRoll(s string, numDice int) (mitraillette.Roll, error) {
	dice := make([]uint8, 0, numDice)
	for _, c := range s {
		if c == ' ' || c == ',' || c == '\n' || c == '\r' || c == '\t' {
			continue
		}

		die, ok := charToDie[c]
		if !ok {
			return mitraillette.Roll{}, fmt.Errorf("not a valid die: '%c'", c)
		}
		dice = append(dice, die)
	}

	if len(dice) != numDice {
		return mitraillette.Roll{}, fmt.Errorf("got %d dice, expected %d", len(dice), numDice)
	}

	return mitraillette.NewRoll(dice...), nil
}
