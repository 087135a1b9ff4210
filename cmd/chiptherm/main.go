// Command chiptherm solves the reference chip/heat-sink scenarios and
// reports the resulting temperatures, or serves the websocket monitor for a
// live view of the relaxation.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"strconv"

	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/chiptherm/scenario"
	"github.com/notargets/chiptherm/server"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to an ini config file (defaults apply when empty)")
		name       = flag.String("scenario", "finned", "scenario to solve: bare, sink or finned")
		serveAddr  = flag.String("serve", "", "serve the websocket monitor on this address instead of a one-shot solve")
		outPath    = flag.String("out", "", "write the solved fields to this CSV file")
		verbose    = flag.Bool("v", false, "enable debug logging")
	)
	flag.Parse()
	if *verbose {
		log.SetLevel(log.DebugLevel)
	}

	cfg, err := scenario.LoadConfig(*configPath)
	if err != nil {
		log.WithError(err).Warn("falling back to the default configuration")
	}

	if *serveAddr != "" {
		log.Fatal(server.NewServer(*serveAddr, cfg).Serve())
	}

	comp, err := scenario.Build(*name, cfg)
	if err != nil {
		log.WithError(err).Fatal("building scenario")
	}
	res, err := comp.Solve(cfg.MaxIterations, cfg.Tolerance)
	if err != nil {
		log.WithError(err).Fatal("solving")
	}

	log.WithFields(log.Fields{
		"scenario":   *name,
		"status":     res.Status,
		"iterations": res.Iterations,
		"delta":      res.FinalDelta,
	}).Info("solve finished")
	for i, field := range res.Fields {
		peak, mean := fieldStats(field)
		log.WithFields(log.Fields{
			"mesh": i,
			"peak": fmt.Sprintf("%.3f K", peak),
			"mean": fmt.Sprintf("%.3f K", mean),
		}).Info("temperatures")
	}

	if *outPath != "" {
		if err := writeCSV(*outPath, res.Fields); err != nil {
			log.WithError(err).Fatal("writing output")
		}
		log.WithField("path", *outPath).Info("fields written")
	}
}

// fieldStats returns the peak and mean interior temperature of a field
func fieldStats(field *mat.Dense) (peak, mean float64) {
	rows, cols := field.Dims()
	n := 0
	for i := 1; i < rows-1; i++ {
		row := field.RawRowView(i)
		for j := 1; j < cols-1; j++ {
			if row[j] > peak || n == 0 {
				peak = row[j]
			}
			mean += row[j]
			n++
		}
	}
	return peak, mean / float64(n)
}

// writeCSV dumps each field as a row-major block, blank-line separated
func writeCSV(path string, fields []*mat.Dense) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	for mi, field := range fields {
		rows, cols := field.Dims()
		if err := w.Write([]string{"mesh", strconv.Itoa(mi), strconv.Itoa(rows), strconv.Itoa(cols)}); err != nil {
			return err
		}
		record := make([]string, cols)
		for i := 0; i < rows; i++ {
			row := field.RawRowView(i)
			for j, v := range row {
				record[j] = strconv.FormatFloat(v, 'g', -1, 64)
			}
			if err := w.Write(record); err != nil {
				return err
			}
		}
	}
	w.Flush()
	return w.Error()
}
