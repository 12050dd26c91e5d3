package cmd

import (
	"fmt"
	"io"

	"github.com/Iron-Ham/lockable/internal/registry"
	"github.com/spf13/cobra"
)

var reserveCmd = &cobra.Command{
	Use:   "reserve <name>...",
	Short: "Reserve resources for a user",
	Long: `Reserve the named resources for a user. Resources that are already
reserved or locked are skipped; the others are reserved. Use --for to
reserve on behalf of someone else, or --multi to record the reservation as
made on the user's own behalf.

The batch stops at the first unknown name. Resources handled before it
stay reserved.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runReserve,
}

var unreserveCmd = &cobra.Command{
	Use:   "unreserve <name>...",
	Short: "Release reservations",
	Long: `Release reservations on the named resources.

With --user, only reservations made by that user can be released unless the
user is listed under "admins" in the configuration. If any named resource is
reserved by somebody else, nothing is released.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runUnreserve,
}

var lockCmd = &cobra.Command{
	Use:   "lock <name>...",
	Short: "Lock resources for a build",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runLock,
}

var unlockCmd = &cobra.Command{
	Use:   "unlock <name>...",
	Short: "Unlock resources",
	Long: `Unlock the named resources. Unlocking also drops any reservation on
them. --build is recorded in the logs; without it the unlock is anonymous.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runUnlock,
}

var resetCmd = &cobra.Command{
	Use:   "reset <name>...",
	Short: "Clear every claim and queue entry on resources",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runReset,
}

var (
	reserveUser     string
	reserveOnBehalf string
	reserveMulti    bool
	unreserveUser   string
	lockBuild       string
	lockProject     string
	unlockBuild     string
)

func init() {
	rootCmd.AddCommand(reserveCmd)
	rootCmd.AddCommand(unreserveCmd)
	rootCmd.AddCommand(lockCmd)
	rootCmd.AddCommand(unlockCmd)
	rootCmd.AddCommand(resetCmd)

	reserveCmd.Flags().StringVarP(&reserveUser, "user", "u", "", "user making the reservation (required)")
	reserveCmd.Flags().StringVar(&reserveOnBehalf, "for", "", "user the reservation is made for")
	reserveCmd.Flags().BoolVar(&reserveMulti, "multi", false, "reserve on the user's own behalf")
	_ = reserveCmd.MarkFlagRequired("user")
	reserveCmd.MarkFlagsMutuallyExclusive("for", "multi")

	unreserveCmd.Flags().StringVarP(&unreserveUser, "user", "u", "", "release as this user, enforcing ownership")

	lockCmd.Flags().StringVarP(&lockBuild, "build", "b", "", "build ID taking the lock (required)")
	lockCmd.Flags().StringVarP(&lockProject, "project", "p", "", "project the build belongs to")
	_ = lockCmd.MarkFlagRequired("build")

	unlockCmd.Flags().StringVarP(&unlockBuild, "build", "b", "", "build ID releasing the lock")
}

func runReserve(cmd *cobra.Command, args []string) error {
	return runBatch(cmd, func(s *session) (registry.Results, error) {
		if reserveMulti {
			return s.reg.MultiReserve(args, reserveUser)
		}
		return s.reg.Reserve(args, reserveUser, reserveOnBehalf)
	})
}

func runUnreserve(cmd *cobra.Command, args []string) error {
	return runBatch(cmd, func(s *session) (registry.Results, error) {
		if unreserveUser == "" {
			return s.reg.Unreserve(args)
		}
		return s.reg.UnreserveAs(args, unreserveUser, registry.AdminList(s.cfg.Admins))
	})
}

func runLock(cmd *cobra.Command, args []string) error {
	build := registry.Build{ID: lockBuild, ProjectName: lockProject}
	return runBatch(cmd, func(s *session) (registry.Results, error) {
		return s.reg.Lock(args, build)
	})
}

func runUnlock(cmd *cobra.Command, args []string) error {
	var build registry.BuildContext
	if unlockBuild != "" {
		build = registry.Build{ID: unlockBuild}
	}
	return runBatch(cmd, func(s *session) (registry.Results, error) {
		return s.reg.Unlock(args, build)
	})
}

func runReset(cmd *cobra.Command, args []string) error {
	return runBatch(cmd, func(s *session) (registry.Results, error) {
		return s.reg.Reset(args)
	})
}

// runBatch applies one batch operation to the persisted state and prints
// the per-resource outcomes, including those of an aborted batch.
func runBatch(cmd *cobra.Command, op func(*session) (registry.Results, error)) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	var results registry.Results
	err = s.update(cmd.Context(), func() error {
		var opErr error
		results, opErr = op(s)
		return opErr
	})
	printResults(cmd.OutOrStdout(), results)
	return err
}

func printResults(w io.Writer, results registry.Results) {
	for _, r := range results {
		fmt.Fprintf(w, "%-24s %s\n", r.Resource, r.Outcome)
	}
}
