package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"

	"replog/internal/config"
	"replog/internal/node"
)

// Benchmark client: posts messages against a running cluster, measures
// per-request latency, and reports a per-node summary. With -converge
// it also polls all nodes until their message counts agree, which is
// the interesting number for gossip mode.

type options struct {
	targets     string
	iterations  int
	concurrency int
	timeout     time.Duration
	converge    time.Duration
}

type sample struct {
	target  string
	latency time.Duration
	ok      bool
}

func main() {
	var opts options
	flag.StringVar(&opts.targets, "targets", "localhost:5001,localhost:5002,localhost:5003",
		"comma-separated node base URLs")
	flag.IntVar(&opts.iterations, "n", 50, "number of messages to post")
	flag.IntVar(&opts.concurrency, "c", 5, "concurrent request workers")
	flag.DurationVar(&opts.timeout, "timeout", 10*time.Second, "per-request timeout")
	flag.DurationVar(&opts.converge, "converge", 0,
		"how long to wait for all nodes to hold the same message count (0 disables)")
	flag.Parse()

	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	targets := config.ParsePeers(opts.targets)
	if len(targets) == 0 {
		return fmt.Errorf("no targets given")
	}
	if opts.iterations <= 0 || opts.concurrency <= 0 {
		return fmt.Errorf("iterations and concurrency must be positive")
	}

	client := &http.Client{Timeout: opts.timeout}

	samples := post(client, targets, opts.iterations, opts.concurrency)
	report(samples, targets)

	if opts.converge > 0 {
		if err := waitForConvergence(client, targets, opts.converge); err != nil {
			return err
		}
	}
	return nil
}

// post fires iterations client writes round-robin across the targets
// with a bounded worker pool and collects one sample per request.
func post(client *http.Client, targets []string, iterations, concurrency int) []sample {
	jobs := make(chan int)
	results := make(chan sample, iterations)

	var wg sync.WaitGroup
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				target := targets[i%len(targets)]
				results <- postOne(client, target, i)
			}
		}()
	}

	go func() {
		for i := 0; i < iterations; i++ {
			jobs <- i
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	samples := make([]sample, 0, iterations)
	for s := range results {
		samples = append(samples, s)
	}
	return samples
}

func postOne(client *http.Client, target string, i int) sample {
	payload, _ := json.Marshal(node.PostMessageRequest{
		Text: fmt.Sprintf("benchmark_message_%d_%d", i, time.Now().UnixMilli()),
		User: "replog-bench",
	})

	start := time.Now()
	resp, err := client.Post(target+"/message", "application/json", bytes.NewReader(payload))
	latency := time.Since(start)

	ok := false
	if err == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		ok = resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusAccepted
	}
	return sample{target: target, latency: latency, ok: ok}
}

// report renders a per-target latency table over the successful samples.
func report(samples []sample, targets []string) {
	byTarget := lo.GroupBy(samples, func(s sample) string { return s.target })

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Target", "Requests", "OK", "Min (ms)", "Mean (ms)", "P50 (ms)", "P95 (ms)", "Max (ms)"})

	for _, target := range targets {
		group := byTarget[target]
		okSamples := lo.Filter(group, func(s sample, _ int) bool { return s.ok })
		latencies := lo.Map(okSamples, func(s sample, _ int) float64 {
			return float64(s.latency.Microseconds()) / 1000.0
		})
		sort.Float64s(latencies)

		row := []string{target, fmt.Sprintf("%d", len(group)), fmt.Sprintf("%d", len(okSamples))}
		if len(latencies) == 0 {
			row = append(row, "-", "-", "-", "-", "-")
		} else {
			row = append(row,
				fmt.Sprintf("%.1f", latencies[0]),
				fmt.Sprintf("%.1f", lo.Sum(latencies)/float64(len(latencies))),
				fmt.Sprintf("%.1f", percentile(latencies, 50)),
				fmt.Sprintf("%.1f", percentile(latencies, 95)),
				fmt.Sprintf("%.1f", latencies[len(latencies)-1]),
			)
		}
		table.Append(row)
	}
	table.Render()
}

// percentile returns the p-th percentile of sorted values.
func percentile(sorted []float64, p int) float64 {
	idx := (len(sorted) - 1) * p / 100
	return sorted[idx]
}

// waitForConvergence polls every target's message count until they all
// agree or the deadline passes.
func waitForConvergence(client *http.Client, targets []string, wait time.Duration) error {
	start := time.Now()
	deadline := start.Add(wait)

	for {
		counts, err := fetchCounts(client, targets)
		if err == nil && len(lo.Uniq(counts)) == 1 {
			fmt.Printf("Converged: all %d nodes hold %d messages (after %s)\n",
				len(targets), counts[0], time.Since(start).Round(time.Millisecond))
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("not converged after %s: counts=%v err=%v", wait, counts, err)
		}
		time.Sleep(500 * time.Millisecond)
	}
}

func fetchCounts(client *http.Client, targets []string) ([]int, error) {
	counts := make([]int, 0, len(targets))
	for _, target := range targets {
		resp, err := client.Get(target + "/messages")
		if err != nil {
			return counts, err
		}
		var payload node.MessagesResponse
		err = json.NewDecoder(resp.Body).Decode(&payload)
		resp.Body.Close()
		if err != nil {
			return counts, err
		}
		counts = append(counts, payload.Count)
	}
	return counts, nil
}
