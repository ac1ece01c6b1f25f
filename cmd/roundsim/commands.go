package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/viper"

	"github.com/towerline/roundsim/internal/config"
	"github.com/towerline/roundsim/internal/database"
	"github.com/towerline/roundsim/internal/sim"
	gormstorage "github.com/towerline/roundsim/internal/storage/gorm"
	"github.com/towerline/roundsim/internal/worker"
	"github.com/towerline/roundsim/pkg/core"
)

// batchLine is one row of the batch report.
type batchLine struct {
	Index   int    `json:"index"`
	Label   string `json:"label,omitempty"`
	ID      string `json:"id,omitempty"`
	Outcome string `json:"outcome,omitempty"`
	Frames  int    `json:"frames"`
	Error   string `json:"error,omitempty"`
}

func runCommand(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("run", stderr)
	addStorageFlags(fs)
	framePath := fs.String("frame", "", "frame file (JSON)")
	testPath := fs.String("test", "", "test placement file (JSON)")
	outPath := fs.String("out", "", "write the result frame here instead of stdout")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *framePath == "" || *testPath == "" {
		return fmt.Errorf("%w: run needs --frame and --test", errUsage)
	}

	frame, err := readFrame(*framePath)
	if err != nil {
		return err
	}
	test, err := readTest(*testPath)
	if err != nil {
		return err
	}

	s, err := openSession(fs)
	if err != nil {
		return err
	}
	defer s.Close()

	sinks, err := s.openSinks()
	if err != nil {
		return err
	}
	workers, err := s.workers(sinks)
	if err != nil {
		_ = sinks.Close()
		return err
	}

	res, runErr := workers.RunOne(ctx, frame, test)
	closeErr := s.closeSinks(sinks, stderr)
	if runErr != nil {
		s.logger.Error("Round failed", "label", test.Label, "error", runErr)
		return errors.Join(runErr, closeErr)
	}

	s.logger.Info("Round finished",
		"id", res.ID,
		"label", res.Label,
		"frames", res.Frames,
		"outcome", res.Outcome())
	if err := writeJSONTo(*outPath, stdout, res.Summary); err != nil {
		return err
	}
	return closeErr
}

func batchCommand(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("batch", stderr)
	addStorageFlags(fs)
	fs.Int("workers", 0, "number of rounds replayed at once")
	framePath := fs.String("frame", "", "frame file (JSON)")
	testsPath := fs.String("tests", "", "file holding an array of test placements (JSON)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *framePath == "" || *testsPath == "" {
		return fmt.Errorf("%w: batch needs --frame and --tests", errUsage)
	}

	frame, err := readFrame(*framePath)
	if err != nil {
		return err
	}
	tests, err := readTests(*testsPath)
	if err != nil {
		return err
	}

	s, err := openSession(fs)
	if err != nil {
		return err
	}
	defer s.Close()

	sinks, err := s.openSinks()
	if err != nil {
		return err
	}
	workers, err := s.workers(sinks)
	if err != nil {
		_ = sinks.Close()
		return err
	}

	outcomes, batchErr := workers.RunBatch(ctx, frame, tests)
	closeErr := s.closeSinks(sinks, stderr)
	if batchErr != nil && !errors.Is(batchErr, context.Canceled) {
		return errors.Join(batchErr, closeErr)
	}

	report := make([]batchLine, len(outcomes))
	failed := 0
	for i, o := range outcomes {
		line := batchLine{Index: o.Index, Label: o.Label}
		if o.Result != nil {
			line.ID = o.Result.ID
			line.Outcome = o.Result.Outcome()
			line.Frames = o.Result.Frames
		}
		if o.Err != nil {
			line.Error = o.Err.Error()
			failed++
		}
		report[i] = line
	}
	if err := writeJSON(stdout, report); err != nil {
		return err
	}

	if batchErr != nil {
		return errors.Join(batchErr, closeErr)
	}
	if failed > 0 {
		return errors.Join(fmt.Errorf("%d of %d rounds failed: %w", failed, len(outcomes), worker.Errors(outcomes)), closeErr)
	}
	return closeErr
}

func pathCommand(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("path", stderr)
	framePath := fs.String("frame", "", "frame file (JSON)")
	x := fs.Int("x", 0, "start cell x")
	y := fs.Int("y", 0, "start cell y")
	player := fs.Int("player", 1, "owner of the unit, 1 or 2")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *framePath == "" || !fs.Changed("x") || !fs.Changed("y") {
		return fmt.Errorf("%w: path needs --frame, --x and --y", errUsage)
	}
	owner := core.Player(*player - 1)
	if !owner.Valid() {
		return fmt.Errorf("%w: --player must be 1 or 2, got %d", errUsage, *player)
	}

	frame, err := readFrame(*framePath)
	if err != nil {
		return err
	}

	s, err := openSession(fs)
	if err != nil {
		return err
	}
	defer s.Close()

	r, err := sim.New(frame, core.Placement{}, sim.WithTable(s.table), sim.WithLogger(s.logger))
	if err != nil {
		return fmt.Errorf("failed to load frame: %w", err)
	}
	start := core.Coordinate{X: *x, Y: *y}
	path, err := r.PreviewPath(start, owner)
	if err != nil {
		return err
	}
	s.logger.Debug("Path previewed", "start", start, "owner", owner.String(), "length", len(path))
	return writeJSON(stdout, path)
}

// showCommand prints stored rounds from a SQLite file or Postgres.
func showCommand(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("show", stderr)
	addStorageFlags(fs)
	label := fs.String("label", "", "only rounds with this label")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	s, err := openSession(fs)
	if err != nil {
		return err
	}
	defer s.Close()

	dbm := database.NewManager(s.zlog("database"))
	defer dbm.Close()

	sc := config.GetStorageConfig()
	switch {
	case fs.Changed("sqlite") || sc.Type == "sqlite":
		if err := dbm.OpenSqlite(viper.GetString("storage.sqlite.path")); err != nil {
			return err
		}
	case sc.Type == "postgres":
		if err := dbm.Connect(config.GetDBConfig()); err != nil {
			return err
		}
		if dbm.ShouldSaveLocal {
			return errors.New("postgres is unreachable, nothing to show")
		}
	default:
		return fmt.Errorf("%w: show reads sqlite or postgres storage, not %q", errUsage, sc.Type)
	}
	if err := dbm.Setup(); err != nil {
		return err
	}

	store := gormstorage.New(gormstorage.Dependencies{DB: dbm.DB, Logger: s.logger})
	ids := fs.Args()
	if len(ids) == 0 {
		ids, err = store.RoundIDs(*label)
		if err != nil {
			return err
		}
	}

	rounds := make([]core.RoundResult, 0, len(ids))
	for _, id := range ids {
		res, err := store.Round(id)
		if err != nil {
			return err
		}
		rounds = append(rounds, res)
	}
	s.logger.Info("Rounds loaded", "count", len(rounds), "label", *label)
	return writeJSON(stdout, rounds)
}
