package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/careband/pressure-monitor/internal/charts"
	"github.com/careband/pressure-monitor/internal/heatmap"
	"github.com/careband/pressure-monitor/internal/metrics"
	"github.com/careband/pressure-monitor/internal/notes"
	"github.com/careband/pressure-monitor/internal/player"
	"github.com/careband/pressure-monitor/internal/risk"
	"github.com/careband/pressure-monitor/internal/sensor"
	"github.com/careband/pressure-monitor/internal/session"
)

// Run loads the selected patient's sessions, prints the metrics summary
// and risk flags, handles notes, renders the playback sequence and
// writes the trend chart.
func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	index, err := session.LoadIndex(config.IndexFile)
	if err != nil {
		return err
	}

	patientID := config.PatientID
	if patientID == "" {
		id, ok := index.FindByEmail(config.Email)
		if !ok {
			return fmt.Errorf("no patient with email %s", config.Email)
		}
		patientID = id
	}

	source := newSource(config, logger)
	engine := metrics.New(config.Threshold)
	store := session.NewStore(index, source, engine, session.WithStoreLogger(logger))

	noteStore := notes.NewStore(config.NotesDB, notes.WithNotesLogger(logger))
	defer noteStore.Close()

	if config.Note != "" {
		note, err := noteStore.Append(patientID, config.Note)
		if err != nil {
			return fmt.Errorf("appending note: %w", err)
		}
		logger.Info("note recorded", slog.String("id", note.ID))
	}
	if config.ListNotes {
		printNotes(noteStore.ListForPatient(patientID))
	}

	pm, err := store.PatientMetrics(ctx, patientID)
	if err != nil {
		return err
	}

	if len(pm.Sessions) == 0 {
		fmt.Printf("no sessions found for %s (%s)\n", pm.PatientName, patientID)
		return nil
	}

	printSummary(pm)
	printFlags(risk.HighRisk(pm.Sessions))

	if err = charts.WriteTrend(config.ChartFile, pm, config.Range); err != nil {
		return err
	}
	logger.Info("trend chart written", slog.String("file", config.ChartFile))

	sess, err := pickSession(ctx, store, pm, patientID, config.DateKey)
	if err != nil {
		return err
	}

	return runPlayback(ctx, config, logger, sess)
}

func newSource(config *Config, logger *slog.Logger) sensor.Source {
	if config.Source.BaseURL != "" {
		return sensor.NewHTTPSource(config.Source.BaseURL, sensor.WithHTTPLogger(logger))
	}
	return sensor.NewDirSource(config.Source.DataDir, sensor.WithDirLogger(logger))
}

// pickSession resolves the playback session: an explicit date, or the
// patient's most recent one.
func pickSession(ctx context.Context, store *session.Store, pm *session.PatientMetrics, patientID, dateKey string) (*session.Session, error) {
	if dateKey != "" {
		return store.LoadSession(ctx, patientID, dateKey)
	}
	return pm.Sessions[len(pm.Sessions)-1], nil
}

// runPlayback renders the session through the player's real timer into
// a numbered PNG sequence, looping the configured number of times.
func runPlayback(ctx context.Context, config *Config, logger *slog.Logger, sess *session.Session) error {
	var options []func(*heatmap.PNGSequence)
	if config.Playback.FontFile != "" {
		ann, err := heatmap.NewAnnotator(config.Playback.FontFile)
		if err != nil {
			logger.Warn("annotations disabled", slog.Any("error", err))
		} else {
			defer ann.Close()
			options = append(options, heatmap.WithAnnotator(ann))
		}
	}

	seq, err := heatmap.NewPNGSequence(config.OutDir, options...)
	if err != nil {
		return err
	}

	frameDur := time.Duration(config.Playback.FrameDuration)
	pl := player.New(seq,
		player.WithFrameDuration(frameDur),
		player.WithPalette(heatmap.Theme(config.Playback.Palette)),
		player.WithLogger(logger))
	defer pl.Close()

	pl.SetSession(sess)

	loops := config.Playback.Loops
	if loops < 1 {
		loops = 1
	}
	total := len(sess.Frames) * loops

	logger.Info("starting playback",
		slog.String("patient", sess.PatientID),
		slog.String("date", sess.DateKey),
		slog.Int("frames", len(sess.Frames)),
		slog.Int("loops", loops),
		slog.String("palette", config.Playback.Palette))

	pl.Play()

	deadline := time.NewTimer(frameDur * time.Duration(total+1))
	defer deadline.Stop()

	select {
	case <-ctx.Done():
		logger.Info("playback interrupted")
	case <-deadline.C:
	}

	pl.Pause()
	logger.Info("playback finished",
		slog.Int("framesWritten", seq.Count()),
		slog.String("outDir", config.OutDir))
	return nil
}

func printSummary(pm *session.PatientMetrics) {
	fmt.Printf("%s (%s): %d session(s)\n", pm.PatientName, pm.PatientID, len(pm.Sessions))
	fmt.Printf("  peak PPI %.0f, mean PPI %.1f, mean contact %.1f%%, high-risk sessions %d\n",
		pm.Summary.PeakPPI, pm.Summary.MeanPPI, pm.Summary.MeanContact, pm.Summary.HighRiskCount)

	for _, sess := range pm.Sessions {
		fmt.Printf("  %s  frames %3d  ppi %6.1f  contact %5.1f%%  %s\n",
			sess.DateKey, len(sess.Frames), sess.PPI, sess.ContactArea, sess.Status)
	}
}

func printFlags(flags []risk.Flag) {
	if len(flags) == 0 {
		fmt.Println("no high-risk sessions")
		return
	}
	fmt.Println("high-risk sessions:")
	for _, f := range flags {
		marker := ""
		if f.Alert {
			marker = "  [alert]"
		}
		fmt.Printf("  %s  %s  ppi %6.1f  contact %5.1f%%%s\n",
			f.DateKey, f.PatientName, f.PPI, f.ContactArea, marker)
	}
}

func printNotes(list []notes.Note) {
	if len(list) == 0 {
		fmt.Println("no notes recorded")
		return
	}
	for _, n := range list {
		fmt.Printf("  %s  %s\n", n.CreatedAt.Format(time.DateTime), n.Text)
	}
}
