package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-agentviz/pkg/config"
	"github.com/dd0wney/cluso-agentviz/pkg/logging"
	"github.com/dd0wney/cluso-agentviz/pkg/render"
	"github.com/dd0wney/cluso-agentviz/pkg/transport"
	"github.com/dd0wney/cluso-agentviz/pkg/visualization"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

const snapshotJSON = `{
  "nodes": [
    {"id": "planner", "name": "Planner", "risk": 0.2, "activityCount": 4},
    {"id": "coder", "name": "Coder", "risk": 0.7, "activityCount": 12},
    {"id": "critic", "name": "Critic", "risk": 0.9}
  ],
  "links": [
    {"source": "planner", "target": "coder", "weight": 3},
    {"source": "coder", "target": "critic", "weight": 1},
    {"source": "critic", "target": "ghost", "weight": 1}
  ]
}`

const traceYAML = `chain:
  - id: goal
    label: Ship the feature
  - id: plan
    label: Write the plan
    status: ok
  - id: now
    label: Implementing
    current: true
left:
  - id: alt
    label: Rewrite instead
    anchor: plan
right:
  - id: risk
    label: Flaky tests
    status: fail
leaves:
  - id: doc
    label: design.md
`

func TestRenderWritesPNGAndExport(t *testing.T) {
	snap := writeFile(t, "agents.json", snapshotJSON)
	dir := t.TempDir()
	out := filepath.Join(dir, "graph.png")
	export := filepath.Join(dir, "layout.json")

	stdout, err := run(t, "render",
		"--snapshot", snap,
		"--ticks", "20",
		"--width", "320",
		"--height", "240",
		"--out", out,
		"--export", export,
	)
	require.NoError(t, err)
	assert.Contains(t, stdout, "3 nodes, 2 links")
	assert.Contains(t, stdout, "dropped 0 nodes, 1 links")

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 320, cfg.Width)
	assert.Equal(t, 240, cfg.Height)

	data, err := os.ReadFile(export)
	require.NoError(t, err)
	var exp visualization.Export
	require.NoError(t, json.Unmarshal(data, &exp))
	require.Len(t, exp.Nodes, 3)
	assert.Len(t, exp.Links, 2)
	for _, n := range exp.Nodes {
		assert.GreaterOrEqual(t, n.X, 0.0)
		assert.LessOrEqual(t, n.X, 320.0)
		assert.GreaterOrEqual(t, n.Y, 0.0)
		assert.LessOrEqual(t, n.Y, 240.0)
	}
}

func TestViewUsesCellStyleByDefault(t *testing.T) {
	a := &app{}
	opts := a.viewOptions(config.Default(), logging.NewNopLogger())
	assert.Equal(t, render.CellStyle(), opts.Style)
	assert.Equal(t, cellMinZoom, opts.Interaction.MinZoom)

	raster := a.engineOptions(config.Default(), render.DefaultStyle(), logging.NewNopLogger())
	assert.Equal(t, render.DefaultStyle(), raster.Style)
}

func TestViewAppliesConfiguredStyle(t *testing.T) {
	cfg := config.Default()
	radius := 2.0
	cfg.Render.NodeRadius = &radius

	opts := (&app{}).viewOptions(cfg, logging.NewNopLogger())
	assert.Equal(t, 2.0, opts.Style.NodeRadius)
	assert.Equal(t, render.CellStyle().NodeRadiusMax, opts.Style.NodeRadiusMax)
	assert.Equal(t, render.CellStyle().LabelThreshold, opts.Style.LabelThreshold)
}

func TestRenderNeedsSource(t *testing.T) {
	_, err := run(t, "render", "--out", filepath.Join(t.TempDir(), "x.png"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no snapshot source")
}

func TestRenderRejectsNegativeTicks(t *testing.T) {
	snap := writeFile(t, "agents.json", snapshotJSON)
	_, err := run(t, "render", "--snapshot", snap, "--ticks", "-1")
	require.Error(t, err)
}

func TestTraceSVG(t *testing.T) {
	in := writeFile(t, "trace.yaml", traceYAML)
	out := filepath.Join(t.TempDir(), "trace.svg")

	stdout, err := run(t, "trace", "--in", in, "--out", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "6 nodes, 5 connectors")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "<?xml"))
	assert.Contains(t, string(data), ">Implementing<")
}

func TestTracePNG(t *testing.T) {
	in := writeFile(t, "trace.yaml", traceYAML)
	out := filepath.Join(t.TempDir(), "trace.PNG")

	_, err := run(t, "trace", "--in", in, "--out", out)
	require.NoError(t, err)

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	_, err = png.DecodeConfig(f)
	assert.NoError(t, err)
}

func TestTraceErrors(t *testing.T) {
	_, err := run(t, "trace")
	assert.EqualError(t, err, "--in is required")

	in := writeFile(t, "trace.yaml", traceYAML)
	_, err = run(t, "trace", "--in", in, "--out", filepath.Join(t.TempDir(), "trace.gif"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output")
}

func TestInvalidLogLevel(t *testing.T) {
	_, err := run(t, "--log-level", "loud", "trace")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestConfigFileAndLogFile(t *testing.T) {
	cfgPath := writeFile(t, "agentviz.yaml", "trace:\n  nodeWidth: 200\n  nodeHeight: 60\n")
	logPath := filepath.Join(t.TempDir(), "agentviz.log")
	in := writeFile(t, "trace.yaml", traceYAML)
	out := filepath.Join(t.TempDir(), "trace.svg")

	_, err := run(t, "--config", cfgPath, "--log-file", logPath, "--log-level", "debug",
		"trace", "--in", in, "--out", out)
	require.NoError(t, err)

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "trace written")

	svg, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(svg), `width="200"`)
}

var emitSeq int

func TestEmitPublishes(t *testing.T) {
	emitSeq++
	addr := fmt.Sprintf("inproc://agentviz-emit-%d", emitSeq)

	sub, err := transport.Dial(addr, logging.NewNopLogger())
	require.NoError(t, err)
	defer sub.Close()

	done := make(chan error, 1)
	go func() {
		_, err := run(t, "emit",
			"--addr", addr,
			"--from", "planner",
			"--to", "coder",
			"--kind", "handoff",
			"--count", "10",
			"--interval", "20ms",
			"--wait", "300ms",
		)
		done <- err
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	evt, err := sub.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, "planner", evt.SourceID)
	assert.Equal(t, "coder", evt.DestinationID)
	assert.Equal(t, "handoff", evt.Kind)

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("emit did not finish")
	}
}

func TestEmitValidatesFlags(t *testing.T) {
	_, err := run(t, "emit", "--from", "planner")
	assert.EqualError(t, err, "--addr is required")

	_, err = run(t, "emit", "--addr", "inproc://agentviz-emit-flags")
	assert.EqualError(t, err, "--from is required")

	_, err = run(t, "emit", "--addr", "inproc://agentviz-emit-flags", "--from", "a", "--count", "0")
	require.Error(t, err)
}
