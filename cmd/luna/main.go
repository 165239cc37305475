// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// The luna command drives a minimal command script over a single
// recording's stage vector and channel traces: HYPNO edits the
// hypnogram and reports sleep-architecture statistics, and TRANS
// synthesizes a signal or annotation from an expression (spec §4.5,
// §4.6). EDF loading and the full scripting grammar are out of scope
// (spec §1) and are represented here only through the plain interfaces
// the core consumes: a stage-label file and channel sample files.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/kortschak/luna/annot"
	"github.com/kortschak/luna/hypno"
	"github.com/kortschak/luna/internal/logging"
	"github.com/kortschak/luna/internal/params"
	"github.com/kortschak/luna/internal/writer"
	"github.com/kortschak/luna/timeline"
	"github.com/kortschak/luna/trans"
)

func main() {
	stagesPath := flag.String("stages", "", "specify a file of one sleep-stage label per epoch (required)")
	epochMins := flag.Float64("epoch-mins", 0.5, "specify the epoch duration in minutes")
	script := flag.String("cmd", "", `specify a ";"-separated command script, e.g. "HYPNO cut=50;TRANS sig=D,expr=C+1" (required)`)
	out := flag.String("out", "", "specify output file for stratified results (default stdout)")
	verbose := flag.Bool("verbose", false, "specify verbose logging")
	channels := channelFlags{}
	flag.Var(&channels, "channel", `specify a "name=rate=path" sample channel (may be given more than once)`)

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), `Usage of %[1]s:
  $ %[1]s -stages stages.txt -cmd "HYPNO lights-off=0:00:00" [options] >out.csv 2>out.log

Options:
`, os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if *stagesPath == "" || *script == "" {
		flag.Usage()
		os.Exit(2)
	}

	log.Println(os.Args)
	lg := logging.New(os.Stderr, *verbose)

	stages, err := readStages(*stagesPath)
	if err != nil {
		log.Fatal(err)
	}
	h := hypno.NewHypnogram(stages, *epochMins)

	tl := timeline.New()
	var knownChannels []string
	for _, c := range channels {
		data, err := readSamples(c.path)
		if err != nil {
			log.Fatal(err)
		}
		tl.SetRate(c.name, c.rate)
		tl.SetChannel(c.name, data)
		knownChannels = append(knownChannels, c.name)
	}
	set := annot.NewAnnotationSet()

	w := writer.New()
	for _, cmdText := range strings.Split(*script, ";") {
		cmdText = strings.TrimSpace(cmdText)
		if cmdText == "" {
			continue
		}
		if err := runCommand(cmdText, h, tl, set, knownChannels, lg, w); err != nil {
			log.Fatal(err)
		}
	}

	dst := os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			log.Fatal(err)
		}
		defer f.Close()
		dst = f
	}
	if err := w.Flush(dst); err != nil {
		log.Fatal(err)
	}
	if n := lg.Warnings(); n > 0 {
		log.Printf("completed with %d warnings", n)
	}
}

// runCommand dispatches one "NAME key=value,..." command-script token
// to the HYPNO or TRANS handler.
func runCommand(cmdText string, h *hypno.Hypnogram, tl *timeline.Timeline, set *annot.AnnotationSet, knownChannels []string, lg *logging.Context, w *writer.Context) error {
	name, rest, _ := strings.Cut(cmdText, " ")
	name = strings.ToUpper(strings.TrimSpace(name))
	p := params.Parse(rest)
	w.Command(name)

	switch name {
	case "HYPNO":
		return runHypno(p, h, w, lg)
	case "TRANS":
		var tp trans.Params
		if v, ok := p.String("sig"); ok {
			tp.Sig = v
		}
		if v, ok := p.String("annot"); ok {
			tp.Annot = v
		}
		if v, ok := p.String("expr"); ok {
			tp.Expr = v
		}
		tp.Verbose = p.Bool("verbose")
		return logging.Halt("TRANS", trans.Run(tp, tl, set, knownChannels))
	default:
		return fmt.Errorf("luna: unknown command %q", name)
	}
}

// runHypno applies the recognized HYPNO edit parameters (spec §6) in
// the fixed pipeline order from spec §4.5, then reports statistics
// through w.
func runHypno(p params.Set, h *hypno.Hypnogram, w *writer.Context, lg *logging.Context) error {
	var spec hypno.LightsSpec
	if v, err := p.Clock("lights-off"); err == nil {
		spec.HaveOff, spec.OffEpoch = true, int(v.Seconds()/60/h.EpochMins)
	}
	if v, err := p.Clock("lights-on"); err == nil {
		spec.HaveOn, spec.OnEpoch = true, int(v.Seconds()/60/h.EpochMins)
	}
	if spec.HaveOff || spec.HaveOn {
		h.ApplyLights(spec)
	}

	if p.Has("cut") {
		cut := hypno.DefaultCutParams()
		if v, err := p.Float("cut"); err == nil {
			cut.Threshold = v
		}
		h.ApplyCut(cut)
	}

	endWake, hasEndWake := floatParam(p, "end-wake")
	endSleep, hasEndSleep := floatParam(p, "end-sleep")
	if hasEndWake || hasEndSleep {
		h.ApplyEndWakeEndSleep(endWake, endSleep)
	}

	if len(h.Stages) == 0 {
		lg.Warnf("empty hypnogram, no statistics to report")
		return nil
	}

	st := h.Compute()
	if st.TST == 0 {
		lg.Warnf("no sleep epochs found")
		return nil
	}
	w.ValueF("TIB", st.TIB)
	w.ValueF("TST", st.TST)
	w.ValueF("TRT", st.TRT)
	w.ValueF("WASO", st.WASO)
	w.ValueF("SE", st.SE)
	w.ValueF("SOL", st.SOL)
	w.ValueF("REM_LAT", st.REMLat)
	return nil
}

func floatParam(p params.Set, key string) (float64, bool) {
	v, err := p.Float(key)
	return v, err == nil
}

// channelFlags accumulates repeated -channel flags of the form
// "name=rate=path".
type channelFlags []channelSpec

type channelSpec struct {
	name string
	rate float64
	path string
}

func (c *channelFlags) String() string {
	if c == nil {
		return ""
	}
	parts := make([]string, len(*c))
	for i, s := range *c {
		parts[i] = fmt.Sprintf("%s=%v=%s", s.name, s.rate, s.path)
	}
	return strings.Join(parts, ",")
}

func (c *channelFlags) Set(v string) error {
	fields := strings.SplitN(v, "=", 3)
	if len(fields) != 3 {
		return fmt.Errorf("luna: -channel must be name=rate=path, got %q", v)
	}
	rate, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return fmt.Errorf("luna: -channel rate: %w", err)
	}
	*c = append(*c, channelSpec{name: fields[0], rate: rate, path: fields[2]})
	return nil
}

// readStages reads one sleep-stage label per line from path.
func readStages(path string) ([]hypno.Stage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var stages []hypno.Stage
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		stages = append(stages, hypno.ParseStage(line))
	}
	return stages, sc.Err()
}

// readSamples reads one floating point sample per line from path.
func readSamples(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var data []float64
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		v, err := strconv.ParseFloat(line, 64)
		if err != nil {
			return nil, fmt.Errorf("luna: parsing sample %q: %w", line, err)
		}
		data = append(data, v)
	}
	return data, sc.Err()
}
