/*
Copyright 2022 The Kubernetes Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// `udisks-conformance` runs the filesystem conformance scenarios against a UDisks2 service
// and a fixture block device, and prints a JSON report to stdout.
// It exits with a non-zero code if any scenario failed.
//
// The same binary is re-executed as a privilege-drop worker for user mount scenarios.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"k8s.io/klog/v2"

	"github.com/awslabs/udisks-conformance/pkg/conformance"
	"github.com/awslabs/udisks-conformance/pkg/privdrop"
	"github.com/awslabs/udisks-conformance/pkg/scenario"
	"github.com/awslabs/udisks-conformance/pkg/version"
)

const (
	exitFailed = 1
	exitError  = 2
)

// A report is what gets printed to stdout after a run.
type report struct {
	Device  string                  `json:"device"`
	Summary map[scenario.Status]int `json:"summary"`
	Results []scenario.Result       `json:"results"`
}

func main() {
	// Must come first, workers never parse flags.
	privdrop.MaybeRunWorker(privdrop.Handle)

	cfg := conformance.DefaultConfig()
	cfg.AddFlags(pflag.CommandLine)
	printVersion := pflag.Bool("version", false, "Print the version and exit")

	klog.InitFlags(nil)
	// Set logging to stderr false otherwise klog won't call our logger set via
	// `klog.SetOutput` - which also logs to stderr after escaping newlines.
	flag.Set("logtostderr", "false")
	flag.Set("alsologtostderr", "false")
	pflag.CommandLine.AddGoFlagSet(flag.CommandLine)
	pflag.Parse()

	klog.SetOutput(&newlineEscapingStderrWriter{})

	if *printVersion {
		info, err := version.GetVersionJSON()
		if err != nil {
			klog.Fatalln(err)
		}
		fmt.Println(info)
		os.Exit(0)
	}

	if cfg.Device == "" {
		klog.Errorf("--device or %s is required", conformance.EnvDevice)
		os.Exit(exitError)
	}
	if os.Geteuid() != 0 {
		klog.Warning("Not running as root, most scenarios will fail")
	}

	h, err := conformance.Setup(cfg)
	if err != nil {
		klog.Errorf("Failed to set up: %v", err)
		os.Exit(exitError)
	}

	// Interrupting stops the run after the current scenario, whose releases still run.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	results := h.Run(ctx)
	stop()
	if err := h.Close(); err != nil {
		klog.Warningf("Failed to close UDisks2 connection: %v", err)
	}

	summary := scenario.Summary(results)
	klog.Infof("%d passed, %d failed, %d skipped",
		summary[scenario.StatusPassed], summary[scenario.StatusFailed], summary[scenario.StatusSkipped])

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report{Device: cfg.Device, Summary: summary, Results: results}); err != nil {
		klog.Errorf("Failed to write report: %v", err)
		os.Exit(exitError)
	}

	if scenario.Failed(results) {
		os.Exit(exitFailed)
	}
}

var (
	newline       = []byte("\n")
	newlineEscape = []byte("")
)

type newlineEscapingStderrWriter struct{}

// Write writes given log entry to `os.Stderr` after escaping newlines.
func (*newlineEscapingStderrWriter) Write(b []byte) (int, error) {
	// Since we escape newlines here, `len` of written bytes might be different from `len(b)`,
	// `os.Stderr.Write` returns an error when `writtenBytes != len(b)`, so, we should be fine to
	// just return `n = len(b)`.
	n := len(b)
	_, err := os.Stderr.Write(append(bytes.ReplaceAll(b, newline, newlineEscape), newline...))
	return n, err
}
