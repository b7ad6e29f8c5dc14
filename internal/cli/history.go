package cli

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/sidekick-screensaver/sidekick/internal/domain"
)

func init() {
	historyCmd.Flags().StringVar(&historyKind, "kind", "", "Only show events of this kind (launch, skip, stop, wake, regenerate, failure)")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of events")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "Output events as JSON")
	historyCmd.Flags().BoolVar(&historySummary, "summary", false, "Show event counts per kind")
	historyCmd.Flags().DurationVar(&historyPrune, "prune", 0, "Delete events older than this, e.g. 720h")
	rootCmd.AddCommand(historyCmd)
}

var (
	historyKind    string
	historyLimit   int
	historyJSON    bool
	historySummary bool
	historyPrune   time.Duration
)

var errNoHistory = errors.New("history database unavailable")

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent launches, stops, wakes and regenerations",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	d, err := openDaemon()
	if err != nil {
		return err
	}
	defer d.Close()
	if d.DB == nil {
		return errNoHistory
	}
	ctx := cmd.Context()

	if historyPrune > 0 {
		n, err := d.DB.PruneEvents(ctx, historyPrune)
		if err != nil {
			return err
		}
		fmt.Printf("Pruned %d event%s older than %s\n", n, plural(int(n)), historyPrune)
		return nil
	}

	if historySummary {
		counts, err := d.DB.CountEvents(ctx)
		if err != nil {
			return err
		}
		if historyJSON {
			return printJSON(counts)
		}
		kinds := make([]string, 0, len(counts))
		for k := range counts {
			kinds = append(kinds, string(k))
		}
		sort.Strings(kinds)
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "KIND\tCOUNT")
		for _, k := range kinds {
			fmt.Fprintf(w, "%s\t%d\n", k, counts[domain.EventKind(k)])
		}
		return w.Flush()
	}

	events, err := d.DB.ListEvents(ctx, domain.EventKind(historyKind), historyLimit)
	if err != nil {
		return err
	}
	if historyJSON {
		return printJSON(events)
	}
	if len(events) == 0 {
		fmt.Println("No events recorded.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tKIND\tWIDGET\tPID\tDETAIL")
	for _, ev := range events {
		pid := "-"
		if ev.PID > 0 {
			pid = fmt.Sprint(ev.PID)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			ev.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			ev.Kind,
			orDash(ev.Widget),
			pid,
			orDash(ev.Detail),
		)
	}
	return w.Flush()
}
