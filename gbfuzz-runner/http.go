// Copyright 2026 gbfuzz project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package main

import (
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/gbfuzz/gbfuzz/pkg/campaign"
	"github.com/gbfuzz/gbfuzz/pkg/log"
	"github.com/gbfuzz/gbfuzz/pkg/report"
	"github.com/gbfuzz/gbfuzz/pkg/stat"
	"github.com/gorilla/handlers"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (runner *Runner) initHTTP() {
	handle := func(pattern string, handler func(http.ResponseWriter, *http.Request)) {
		http.Handle(pattern, handlers.CompressHandler(http.HandlerFunc(handler)))
	}
	handle("/", runner.httpSummary)
	handle("/config", runner.httpConfig)
	handle("/stats", runner.httpStats)
	handle("/metrics", promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{}).ServeHTTP)
	handle("/population", runner.httpPopulation)
	handle("/coverage", runner.httpCoverage)
	handle("/callgraph", runner.httpCallGraph)
	// Browsers like to request this, without special handler this goes to / handler.
	handle("/favicon.ico", func(w http.ResponseWriter, r *http.Request) {})

	log.Logf(0, "serving http on http://%v", runner.cfg.HTTP)
	go func() {
		err := http.ListenAndServe(runner.cfg.HTTP, nil)
		if err != nil {
			log.Fatalf("failed to listen on %v: %v", runner.cfg.HTTP, err)
		}
	}()
}

type UISummaryData struct {
	Name    string
	RunID   string
	Uptime  time.Duration
	Fuzzers []UIFuzzer
	Reports []string
	Log     string
}

type UIFuzzer struct {
	Name  string
	Stats []stat.UI
}

func (runner *Runner) httpSummary(w http.ResponseWriter, r *http.Request) {
	data := &UISummaryData{
		Name:   runner.cfg.Name,
		RunID:  runner.runID,
		Uptime: time.Since(runner.started).Truncate(time.Second),
		Log:    log.CachedLogOutput(),
	}
	for _, inst := range runner.instances {
		data.Fuzzers = append(data.Fuzzers, UIFuzzer{
			Name:  inst.Name,
			Stats: inst.Stats.Collect(stat.Simple),
		})
	}
	runner.mu.Lock()
	for _, rep := range runner.reports {
		data.Reports = append(data.Reports, rep.String())
	}
	runner.mu.Unlock()
	executeTemplate(w, summaryTemplate, data)
}

func (runner *Runner) httpStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	for _, inst := range runner.instances {
		for _, v := range inst.Stats.Collect(stat.All) {
			fmt.Fprintf(w, "%-40v %v\n", v.Name, v.Value)
		}
	}
}

func (runner *Runner) httpConfig(w http.ResponseWriter, r *http.Request) {
	data, err := json.MarshalIndent(runner.cfg, "", "\t")
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to encode json: %v", err),
			http.StatusInternalServerError)
		return
	}
	w.Write(data)
}

func (runner *Runner) instance(w http.ResponseWriter, r *http.Request) *campaign.Instance {
	name := r.FormValue("fuzzer")
	for _, inst := range runner.instances {
		if inst.Name == name {
			return inst
		}
	}
	http.Error(w, fmt.Sprintf("unknown fuzzer %q", name), http.StatusBadRequest)
	return nil
}

func (runner *Runner) httpPopulation(w http.ResponseWriter, r *http.Request) {
	inst := runner.instance(w, r)
	if inst == nil {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	rep := report.Collect(inst.Name, inst.Fuzzer.Population().Seeds(), runner.target.Classifier)
	if err := rep.Write(w, true); err != nil {
		log.Logf(0, "failed to write population: %v", err)
	}
}

// httpCoverage lists the locations executed by a fuzzer, most frequently hit first,
// together with their distance to the target location if the target has a call graph.
func (runner *Runner) httpCoverage(w http.ResponseWriter, r *http.Request) {
	inst := runner.instance(w, r)
	if inst == nil {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	pop := inst.Fuzzer.Population().Stats()
	cov := inst.Fuzzer.Cover.Stats()
	fmt.Fprintf(w, "population: %v seeds, %v locations, %v paths\n", pop.Seeds, pop.Cover, pop.Paths)
	fmt.Fprintf(w, "executions: %v locations, %v paths\n", cov.Locs, cov.Paths)
	dist := runner.target.Distances
	if dist != nil {
		fmt.Fprintf(w, "target %v: %v hits\n", runner.target.Loc, inst.Fuzzer.Cover.Hits(runner.target.Loc))
	}
	fmt.Fprintf(w, "\n")
	for _, loc := range inst.Fuzzer.Cover.HotLocs() {
		if d, ok := dist.Of(loc.Loc); ok {
			fmt.Fprintf(w, "%-20v %8v  distance %v\n", loc.Loc, loc.Hits, d)
			continue
		}
		fmt.Fprintf(w, "%-20v %8v\n", loc.Loc, loc.Hits)
	}
}

func (runner *Runner) httpCallGraph(w http.ResponseWriter, r *http.Request) {
	if runner.target.Graph == nil {
		http.Error(w, "the target has no call graph", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/vnd.graphviz; charset=utf-8")
	if err := runner.target.Graph.WriteDOT(w, runner.target.Distances); err != nil {
		log.Logf(0, "failed to write call graph: %v", err)
	}
}

func executeTemplate(w http.ResponseWriter, templ *template.Template, data any) {
	if err := templ.Execute(w, data); err != nil {
		log.Logf(0, "failed to execute template: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

var summaryTemplate = template.Must(template.New("").Parse(`
<!doctype html>
<html>
<head>
	<title>{{.Name}} gbfuzz</title>
</head>
<body>
<b>{{.Name}}</b> run {{.RunID}}, up {{.Uptime}}
(<a href="/config">config</a>, <a href="/stats">stats</a>, <a href="/metrics">metrics</a>,
<a href="/callgraph">callgraph</a>)
<br>
{{range $f := .Fuzzers}}
<table>
	<caption><a href="/population?fuzzer={{$f.Name}}">{{$f.Name}}</a>
	(<a href="/coverage?fuzzer={{$f.Name}}">coverage</a>)</caption>
	{{range $s := $f.Stats}}
	<tr>
		<td title="{{$s.Desc}}">{{$s.Name}}</td>
		<td>{{$s.Value}}</td>
	</tr>
	{{end}}
</table>
{{end}}
{{if .Reports}}
<pre>{{range $r := .Reports}}{{$r}}
{{end}}</pre>
{{end}}
<textarea id="log_textarea" readonly rows="20" wrap=off style="width: 100%">{{.Log}}</textarea>
</body>
</html>
`))
