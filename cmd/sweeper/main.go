// Command sweeper plays, records and replays Minesweeper games offline.
//
//	sweeper play    -preset tiny -games 1000 -oracle mlp:path=model.json
//	sweeper collect -preset tiny -games 500 -oracle random -out data.csv
//	sweeper replay  -spec game.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/sirupsen/logrus"

	"sweeper-lite/dataset"
	"sweeper-lite/mines"
	"sweeper-lite/mines/agent"
	"sweeper-lite/preset"
	"sweeper-lite/replay"
)

var log = logrus.WithField("component", "cli")

func usage() {
	fmt.Fprintf(os.Stderr, "usage: sweeper <play|collect|replay> [flags]\n")
	fmt.Fprintf(os.Stderr, "oracles: %s\n", strings.Join(agent.Names(), ", "))
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var err error
	switch os.Args[1] {
	case "play":
		err = runPlay(ctx, os.Args[2:], os.Stdout)
	case "collect":
		err = runCollect(ctx, os.Args[2:], os.Stdout)
	case "replay":
		err = runReplay(os.Args[2:], os.Stdout)
	case "-h", "-help", "--help", "help":
		usage()
		return
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.WithError(err).Error(os.Args[1] + " failed")
		os.Exit(1)
	}
}

// gameFlags are shared by play and collect.
type gameFlags struct {
	presets  *string
	preset   *string
	rows     *int
	cols     *int
	mines    *int
	seed     *int64
	games    *int
	oracle   *string
	logLevel *string
}

func addGameFlags(fs *flag.FlagSet, defaultGames int, defaultOracle string) *gameFlags {
	return &gameFlags{
		presets:  fs.String("presets", os.Getenv("PRESETS_FILE"), "YAML preset file"),
		preset:   fs.String("preset", preset.DefaultName, "board preset"),
		rows:     fs.Int("rows", 0, "override preset rows"),
		cols:     fs.Int("cols", 0, "override preset cols"),
		mines:    fs.Int("mines", -1, "override preset mine count"),
		seed:     fs.Int64("seed", 0, "RNG seed (0 => time-based)"),
		games:    fs.Int("games", defaultGames, "games to play"),
		oracle:   fs.String("oracle", defaultOracle, "oracle config, name:key=value,..."),
		logLevel: fs.String("log-level", "info", "debug|info|warn|error"),
	}
}

func (f *gameFlags) config() (mines.Config, error) {
	level, err := logrus.ParseLevel(*f.logLevel)
	if err != nil {
		return mines.Config{}, err
	}
	logrus.SetLevel(level)

	set, err := preset.Load(*f.presets)
	if err != nil {
		return mines.Config{}, err
	}
	p, ok := set.Get(*f.preset)
	if !ok {
		return mines.Config{}, fmt.Errorf("unknown preset %q (have %s)", *f.preset, strings.Join(set.Names(), ", "))
	}
	cfg := p.Config(*f.seed)
	if *f.rows > 0 {
		cfg.Rows = *f.rows
	}
	if *f.cols > 0 {
		cfg.Cols = *f.cols
	}
	if *f.mines >= 0 {
		cfg.Mines = *f.mines
	}
	return cfg, cfg.Validate()
}

func runPlay(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("play", flag.ContinueOnError)
	gf := addGameFlags(fs, 1000, agent.DefaultOracleConfig)
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := gf.config()
	if err != nil {
		return err
	}
	oracle, err := agent.New(*gf.oracle)
	if err != nil {
		return err
	}

	g, err := mines.NewGame(cfg)
	if err != nil {
		return err
	}
	stats, err := agent.NewDriver(oracle).RunBatch(ctx, g, *gf.games, nil)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Games played: %d\n", stats.Games)
	fmt.Fprintf(out, "Games won: %d\n", stats.Wins)
	fmt.Fprintf(out, "Win percentage: %.2f%%\n", stats.WinRate()*100)
	fmt.Fprintf(out, "Safe move percentage: %.2f%%\n", stats.SafeMoveRate()*100)
	return nil
}

func runCollect(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("collect", flag.ContinueOnError)
	gf := addGameFlags(fs, 500, "random")
	path := fs.String("out", "minesweeper_data.csv", "output file")
	format := fs.String("format", "csv", "csv|proto")
	cascade := fs.Bool("cascade", false, "also record cells opened by cascades")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := gf.config()
	if err != nil {
		return err
	}
	oracle, err := agent.New(*gf.oracle)
	if err != nil {
		return err
	}

	var sink interface {
		dataset.Sink
		io.Closer
	}
	switch *format {
	case "csv":
		sink, err = dataset.OpenCSV(*path)
	case "proto":
		sink, err = dataset.OpenStream(*path)
	default:
		return fmt.Errorf("unknown format %q", *format)
	}
	if err != nil {
		return err
	}
	defer sink.Close()

	g, err := mines.NewGame(cfg)
	if err != nil {
		return err
	}
	rec := dataset.NewRecorder()
	rec.Cascade = *cascade
	rec.Attach(g)
	written := 0
	stats, err := agent.NewDriver(oracle).RunBatch(ctx, g, *gf.games, func(int, *mines.Game, agent.PlayResult) error {
		n, err := rec.Flush(sink)
		written += n
		return err
	})
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{"examples": written, "path": *path}).Info("dataset written")
	fmt.Fprintf(out, "%s examples=%d\n", stats, written)
	return nil
}

func runReplay(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("replay", flag.ContinueOnError)
	specPath := fs.String("spec", "", "GameSpec JSON file (- for stdin)")
	events := fs.Bool("events", false, "print decoded events instead of the tape JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var (
		raw []byte
		err error
	)
	switch *specPath {
	case "":
		return fmt.Errorf("-spec is required")
	case "-":
		raw, err = io.ReadAll(os.Stdin)
	default:
		raw, err = os.ReadFile(*specPath)
	}
	if err != nil {
		return err
	}
	var spec replay.GameSpec
	if err := json.Unmarshal(raw, &spec); err != nil {
		return fmt.Errorf("parse spec: %w", err)
	}

	tape, err := replay.GenerateReplayTape(spec)
	if err != nil {
		return err
	}
	wt := tape.Wire()
	if !*events {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(wt)
	}
	for _, e := range wt.Events {
		env, err := e.Decode()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%3d %-8s %+v\n", e.Seq, e.Type, env.Payload)
	}
	return nil
}
