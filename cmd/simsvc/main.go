package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"squadsim/internal/ai"
	"squadsim/internal/combat"
	"squadsim/internal/config"
	"squadsim/internal/logging"
	"squadsim/internal/util"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "simsvc:", err)
		os.Exit(1)
	}
}

func run() error {
	var cfgDir, out, logLevel string
	var seed int64
	var n int
	flag.StringVar(&cfgDir, "config", "assets", "config dir")
	flag.StringVar(&out, "out", "out.json", "output file (single) or summary file (batch)")
	flag.Int64Var(&seed, "seed", 12345, "seed")
	flag.IntVar(&n, "n", 1, "number of simulations")
	flag.StringVar(&logLevel, "log-level", "", "debug, info, warn or error (default from SQUADSIM_LOG_LEVEL)")
	flag.Parse()

	ec, err := config.ParseEnv()
	if err != nil {
		return err
	}
	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if !set["seed"] && ec.Seed != 0 {
		seed = ec.Seed
	}
	if logLevel == "" {
		logLevel = ec.LogLevel
	}

	logger, err := logging.New(logLevel, "")
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	squads, rules, err := config.LoadAll(cfgDir)
	if err != nil {
		return fmt.Errorf("load %s: %w", cfgDir, err)
	}
	ec.Apply(rules)
	base, err := combat.ConfigFromRules(rules)
	if err != nil {
		return err
	}
	logger.Info("config loaded",
		zap.String("dir", cfgDir),
		zap.String("mode", base.Mode.String()),
		zap.String("metric", base.Metric.String()),
		zap.Int("max_turns", base.MaxTurns),
		zap.Int64("seed", seed))

	if n <= 1 {
		res, err := runBattle(squads, base, seed, logger, true)
		if err != nil {
			return err
		}
		if err := os.WriteFile(out, combat.MarshalPretty(res), 0644); err != nil {
			return err
		}
		fmt.Printf("Single battle %s finished. Winner=%q, turns=%d -> %s\n", res.ID, res.Winner, res.Turns, out)
		return nil
	}

	sum := newSummary(squads)
	var firstErr error
	var mu sync.Mutex
	wg := sync.WaitGroup{}
	workers := 8
	jobs := make(chan int, n)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				res, err := runBattle(squads, base, util.Derive(seed, i), logger, false)
				mu.Lock()
				if err != nil {
					if firstErr == nil {
						firstErr = err
					}
				} else {
					sum.add(res)
				}
				mu.Unlock()
			}
		}()
	}
	for i := 0; i < n; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	if firstErr != nil {
		return firstErr
	}

	if err := os.WriteFile(out, combat.MarshalPretty(sum.report(n)), 0644); err != nil {
		return err
	}
	p := message.NewPrinter(language.English)
	for _, name := range sum.order {
		p.Printf("%s: %d wins (%.1f%%)\n", name, sum.Wins[name], 100*float64(sum.Wins[name])/float64(n))
	}
	p.Printf("Batch %d done, %d draws, %d turn caps, %d turns in total -> %s\n",
		n, sum.Draws, sum.TurnCaps, sum.Turns, filepath.Base(out))
	return nil
}

// runBattle builds both squads from their records and fights one battle.
func runBattle(squads *config.SquadsConfig, base combat.Config, seed int64, logger *zap.Logger, record bool) (combat.Result, error) {
	rng := util.New(seed)
	id := uuid.NewString()
	log := logger.With(zap.String("battle_id", id))

	var sides [2]combat.Side
	for i, def := range squads.Teams {
		team, err := combat.TeamFromRecord(def)
		if err != nil {
			return combat.Result{}, err
		}
		diff, err := ai.ParseDifficulty(def.Difficulty)
		if err != nil {
			return combat.Result{}, fmt.Errorf("team %s: %w", def.Name, err)
		}
		if team.Control == combat.ControlHuman {
			log.Warn("human control is not interactive, the AI plays this team",
				zap.String("team", team.Name), zap.String("difficulty", diff.String()))
		}
		sides[i] = combat.Side{Team: team, Decider: ai.New(diff, rng)}
	}

	cfg := base
	cfg.Rng = rng
	cfg.Logger = log
	bt, err := combat.NewBattle(sides[0], sides[1], cfg)
	if err != nil {
		return combat.Result{}, err
	}
	res, err := bt.Run()
	if err != nil {
		return combat.Result{}, err
	}
	res.ID = id
	res.Seed = seed
	if !record {
		res.Events = nil
		res.Lines = nil
	}
	return res, nil
}

type summary struct {
	order    []string
	Wins     map[string]int
	Draws    int
	TurnCaps int
	Turns    int
}

func newSummary(squads *config.SquadsConfig) *summary {
	s := &summary{Wins: map[string]int{}}
	for _, t := range squads.Teams {
		s.order = append(s.order, t.Name)
		s.Wins[t.Name] = 0
	}
	return s
}

func (s *summary) add(res combat.Result) {
	switch {
	case res.Winner != "":
		s.Wins[res.Winner]++
	case res.Draw:
		s.Draws++
	case res.TurnCap:
		s.TurnCaps++
	}
	s.Turns += res.Turns
}

func (s *summary) report(n int) map[string]any {
	rates := map[string]float64{}
	for name, w := range s.Wins {
		rates[name] = float64(w) / float64(n)
	}
	return map[string]any{
		"runs":      n,
		"wins":      s.Wins,
		"win_rate":  rates,
		"draws":     s.Draws,
		"turn_caps": s.TurnCaps,
		"avg_turns": float64(s.Turns) / float64(n),
	}
}
