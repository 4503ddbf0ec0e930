package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/lead-finder/internal/model"
	"github.com/sells-group/lead-finder/internal/pipeline"
	"github.com/sells-group/lead-finder/internal/progress"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Run one lead search and print progress",
	Long:  "Runs a lead search in the foreground. The first interrupt stops the search after the current place; a second one aborts it.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		req, err := searchRequestFromFlags(cmd)
		if err != nil {
			return err
		}
		asJSON, _ := cmd.Flags().GetBool("json")

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		env, err := initPipeline(ctx, "search")
		if err != nil {
			return err
		}
		defer env.Close()

		run := pipeline.NewRun("", req)
		stopOnInterrupt(run, cancel)

		out := cmd.OutOrStdout()
		start := model.StatusEvent(env.Pipeline.Messages().SearchingPlaces)
		start.SearchID = run.ID
		printer := eventPrinter(out, asJSON)
		printer.Emit(start)

		records, err := env.Pipeline.Execute(ctx, run, progress.Fanout(printer, progress.NewAuditSink(env.Store)))
		if err != nil {
			return eris.Wrap(err, "search")
		}
		if !asJSON {
			fmt.Fprintln(out)
			formatLeadRecords(out, records)
		}
		return nil
	},
}

func searchRequestFromFlags(cmd *cobra.Command) (model.SearchRequest, error) {
	keywords, _ := cmd.Flags().GetString("keywords")
	titles, _ := cmd.Flags().GetStringSlice("titles")
	lat, _ := cmd.Flags().GetFloat64("lat")
	lng, _ := cmd.Flags().GetFloat64("lng")
	radiusKm, _ := cmd.Flags().GetFloat64("radius")
	limit, _ := cmd.Flags().GetInt("limit")

	req := model.SearchRequest{
		Keywords:     keywords,
		TargetTitles: titles,
		Location:     model.LatLng{Lat: lat, Lng: lng},
		RadiusMeters: radiusKm * 1000,
		ResultLimit:  limit,
	}
	if err := req.Validate(); err != nil {
		return req, eris.Wrap(err, "search flags")
	}
	return req, nil
}

// stopOnInterrupt stops run on the first SIGINT/SIGTERM and calls abort on
// the second.
func stopOnInterrupt(run *pipeline.Run, abort func()) {
	sigs := make(chan os.Signal, 2)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		zap.L().Info("interrupt received, stopping after the current place", zap.String("search_id", run.ID))
		run.Stop()
		<-sigs
		zap.L().Warn("second interrupt, aborting search", zap.String("search_id", run.ID))
		abort()
	}()
}

// eventPrinter renders events as JSON lines or as plain progress text.
func eventPrinter(w io.Writer, asJSON bool) progress.Sink {
	if asJSON {
		enc := json.NewEncoder(w)
		return progress.SinkFunc(func(ev model.Event) {
			_ = enc.Encode(ev)
		})
	}
	return progress.SinkFunc(func(ev model.Event) {
		switch ev.Type {
		case model.EventResult:
			if ev.Data != nil {
				fmt.Fprintf(w, "  -> %s | %s | %s | %s\n", ev.Data.CompanyName, ev.Data.LeadName, ev.Data.Email, ev.Data.Phone)
			}
		case model.EventStatus:
			if ev.Message != "" {
				fmt.Fprintln(w, ev.Message)
			}
		default:
			fmt.Fprintf(w, "[%s] %s\n", ev.Type, ev.Message)
		}
	})
}

func init() {
	f := searchCmd.Flags()
	f.String("keywords", "", "business keywords to search for (required)")
	f.StringSlice("titles", nil, "target contact titles, comma separated (required)")
	f.Float64("lat", 0, "latitude of the search center")
	f.Float64("lng", 0, "longitude of the search center")
	f.Float64("radius", 5, "search radius in kilometres")
	f.Int("limit", 10, "maximum number of places")
	f.Bool("json", false, "print events as JSON lines")
	_ = searchCmd.MarkFlagRequired("keywords")
	_ = searchCmd.MarkFlagRequired("titles")
	rootCmd.AddCommand(searchCmd)
}
