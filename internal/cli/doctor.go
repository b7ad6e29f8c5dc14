package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sidekick-screensaver/sidekick/internal/domain"
	"github.com/sidekick-screensaver/sidekick/internal/health"
	"github.com/sidekick-screensaver/sidekick/internal/infra/session"
)

func init() {
	doctorCmd.Flags().BoolVar(&doctorFix, "fix", false, "Regenerate out-of-date scripts")
	doctorCmd.Flags().BoolVar(&doctorJSON, "json", false, "Output the report as JSON")
	rootCmd.AddCommand(doctorCmd)
}

var (
	doctorFix  bool
	doctorJSON bool
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the session, installed widgets, helper tools and scripts",
	Args:  cobra.NoArgs,
	RunE:  runDoctor,
}

type doctorReport struct {
	Session    session.Info      `json:"session"`
	Resolution domain.Resolution `json:"resolution"`
	Checks     []health.Status   `json:"checks"`
}

func runDoctor(cmd *cobra.Command, args []string) error {
	d, err := openDaemon()
	if err != nil {
		return err
	}
	defer d.Close()
	ctx := cmd.Context()

	report := doctorReport{
		Session:    d.Session.Describe(ctx),
		Resolution: domain.Resolve(d.Store.Load()),
		Checks:     health.NewChecker(0, d.Checks(doctorFix)...).RunOnce(ctx),
	}
	failed := countFailed(report.Checks)

	if doctorJSON {
		if err := printJSON(report); err != nil {
			return err
		}
	} else if err := printDoctor(report); err != nil {
		return err
	}

	if failed > 0 {
		return fmt.Errorf("%d check%s failed", failed, plural(failed))
	}
	return nil
}

func printDoctor(r doctorReport) error {
	s := r.Session
	fmt.Println("Session")
	fmt.Printf("  DISPLAY:         %s\n", orDash(s.Display))
	fmt.Printf("  WAYLAND_DISPLAY: %s\n", orDash(s.WaylandDisplay))
	fmt.Printf("  Session type:    %s\n", orDash(s.SessionType))
	fmt.Printf("  Desktop:         %s\n", orDash(s.Desktop))
	fmt.Printf("  SSH:             %s\n", yesNo(s.SSH))
	fmt.Printf("  VNC:             %s\n", yesNo(s.VNC))
	switch {
	case s.Logind != nil:
		l := s.Logind
		fmt.Printf("  logind:          %s (%s, %s, remote=%t)\n", l.Path, l.Type, l.Class, l.Remote)
		fmt.Printf("  Idle:            %s", yesNo(l.Idle))
		if l.Idle && !l.IdleSince.IsZero() {
			fmt.Printf(" (since %s)", l.IdleSince.Local().Format("15:04:05"))
		}
		fmt.Printf(", locked: %s\n", yesNo(l.Locked))
	case s.LogindError != "":
		fmt.Printf("  logind:          unavailable (%s)\n", s.LogindError)
	}
	fmt.Printf("  Remote:          %s\n", yesNo(s.Remote))

	fmt.Println()
	fmt.Printf("Widget: %s (%s)\n", r.Resolution.Widget, r.Resolution.Rule)
	if r.Resolution.Warning != "" {
		fmt.Printf("  Warning: %s\n", r.Resolution.Warning)
	}

	fmt.Println()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CHECK\tSTATUS\tDETAIL")
	for _, st := range r.Checks {
		fmt.Fprintf(w, "%s\t%s\t%s\n", st.Name, checkState(st), orDash(st.Error))
	}
	return w.Flush()
}

func checkState(st health.Status) string {
	switch {
	case st.Healthy && st.Recovered:
		return "fixed"
	case st.Healthy:
		return "ok"
	case st.Advisory:
		return "warn"
	default:
		return "FAIL"
	}
}

// countFailed counts unhealthy checks that are not advisory.
func countFailed(statuses []health.Status) int {
	n := 0
	for _, st := range statuses {
		if !st.Healthy && !st.Advisory {
			n++
		}
	}
	return n
}
