// Command rollcalc is a thin, single-shot driver over the rolling engine.
// It runs one Plan call and prints the ranked recommendations. It is not
// an interactive session recorder; that is a separate collaborator's job.
// This just exercises the one entry point.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/janpfeifer/must"
	"golang.org/x/term"
	"k8s.io/klog/v2"

	"github.com/kriops/rollcalc/internal/parameters"
	"github.com/kriops/rollcalc/internal/rolling"
)

var (
	flagTotalMin   = flag.Float64("total_min", 1800, "Lower bound of the hole's total mass, in millions.")
	flagTotalMax   = flag.Float64("total_max", 2200, "Upper bound of the hole's total mass, in millions.")
	flagMassUsed   = flag.Float64("mass_used", 0, "Cumulative mass already used, in millions.")
	flagIterations = flag.Int("iterations", 100_000, "Number of POMCTS iterations to run.")
	flagWorkers    = flag.Int("workers", 1, "Number of goroutines to fan iterations across. 1 runs the single-threaded search.")
	flagConfig     = flag.String("config", "", "Comma-separated key=value overrides for shrink_threshold, crit_threshold, ucb_constant, max_depth, trip_decay, strict_action_filter, max_reasonable_trips.")
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	safeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	riskStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	if *flagTotalMin > *flagTotalMax {
		klog.Fatalf("Invalid range: --total_min=%v > --total_max=%v", *flagTotalMin, *flagTotalMax)
	}

	params := parameters.NewFromConfigString(*flagConfig)
	cfg := must.M1(rolling.NewConfigFromParams(params))
	catalog := rolling.DefaultCatalog()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	var pr *rolling.PlanResult
	if *flagWorkers > 1 {
		pr = must.M1(rolling.PlanParallel(catalog, cfg, *flagTotalMin, *flagTotalMax, *flagMassUsed, *flagIterations, *flagWorkers, nil))
	} else {
		pr = must.M1(rolling.Plan(catalog, cfg, *flagTotalMin, *flagTotalMax, *flagMassUsed, *flagIterations, rng))
	}

	printResults(pr)
	printTripDistribution(pr)
	printBestAction(pr)
}

func printResults(pr *rolling.PlanResult) {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		width = 100
	}

	fmt.Println(headerStyle.Render("Ranked actions"))
	results := rolling.ActionResults(pr)
	if len(results) == 0 {
		fmt.Println("  (no actions explored)")
		return
	}
	for _, res := range results {
		safety := riskStyle.Render("risky")
		if res.GuaranteedSafe {
			safety = safeStyle.Render("guaranteed safe")
		}
		line := fmt.Sprintf("  %-16s mass=%-6.0f success=%.1f%%  strategy=%.3f  avg_steps=%.2f  (%s)",
			res.Key, res.Mass, res.SuccessRate*100, res.StrategyScore, res.AvgSteps, safety)
		if len(line) > width {
			line = line[:width]
		}
		fmt.Println(line)
	}
}

func printTripDistribution(pr *rolling.PlanResult) {
	dist := rolling.TripDistribution(pr)
	if len(dist) == 0 {
		return
	}
	fmt.Println()
	fmt.Println(headerStyle.Render("Trip-count distribution"))
	for _, d := range dist {
		bar := strings.Repeat("#", int(d.Pct*40))
		fmt.Printf("  %2d trips  %-40s %.1f%%\n", d.Trips, bar, d.Pct*100)
	}
}

func printBestAction(pr *rolling.PlanResult) {
	best := rolling.BestAction(pr)
	if best == nil {
		return
	}
	fmt.Println()
	fmt.Printf("Recommended: %s (%s)\n", best.Key, best.Action.Label)

	seq := rolling.Sequence(pr)
	if len(seq) > 0 {
		fmt.Printf("Likely sequence: %s\n", strings.Join(seq, " -> "))
	}
}
