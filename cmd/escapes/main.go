// Command escapes counts, per trajectory frame, the pedestrians that passed
// the wall and plots the result.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/crookler/crowd-dynamics/internal/escape"
	"github.com/crookler/crowd-dynamics/internal/trajectory"
	"github.com/tochemey/goakt/v3/log"
)

func main() {
	trajFile := flag.String("traj", "", "trajectory file written by crowdsim")
	fromTable := flag.String("from-table", "", "re-plot a table written by -table instead of reading a trajectory")
	wallX := flag.String("wall-x", "", "wall x coordinate; empty takes the first wall particle of frame 0")
	mobile := flag.String("mobile", "A", "pedestrian type name")
	wallType := flag.String("wall-type", "W", "wall type name")
	tableOut := flag.String("table", "", "write the counts as a two-column table")
	pngOut := flag.String("png", "", "save the escape curve as PNG")
	pyplotOut := flag.String("pyplot", "", "save the escape curve with matplotlib")
	height := flag.Int("height", 12, "height of the terminal chart, 0 disables it")
	flag.Parse()

	logger := log.New(log.InfoLevel, os.Stderr)

	var counts []int
	switch {
	case *fromTable != "":
		var err error
		if counts, err = escape.ReadTable(*fromTable); err != nil {
			logger.Fatal(err)
		}
	case *trajFile != "":
		frames, err := trajectory.ReadFile(*trajFile)
		if err != nil {
			logger.Fatal(err)
		}
		opts := escape.Options{MobileType: *mobile, WallType: *wallType}
		if *wallX != "" {
			x, err := strconv.ParseFloat(*wallX, 64)
			if err != nil {
				logger.Fatalf("-wall-x: %v", err)
			}
			opts.WallX = &x
		}
		if counts, err = escape.Count(frames, opts); err != nil {
			logger.Fatal(err)
		}
		logger.Infof("%s: %d frames", *trajFile, len(frames))
	default:
		flag.Usage()
		os.Exit(2)
	}

	if *tableOut != "" {
		if err := escape.SaveTable(*tableOut, counts); err != nil {
			logger.Fatal(err)
		}
	}
	title := "Escaped pedestrians"
	if *pngOut != "" {
		if err := escape.SavePNG(*pngOut, title, counts); err != nil {
			logger.Fatal(err)
		}
	}
	if *pyplotOut != "" {
		if err := escape.Pyplot(*pyplotOut, title, counts); err != nil {
			logger.Fatal(err)
		}
	}
	if *height > 0 {
		fmt.Println(escape.Chart(counts, *height))
	}
	if n := len(counts); n > 0 {
		fmt.Printf("escaped after %d frames: %d\n", n, counts[n-1])
	}
}
