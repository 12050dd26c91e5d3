package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/Iron-Ham/lockable/internal/allocation"
	"github.com/Iron-Ham/lockable/internal/config"
	"github.com/Iron-Ham/lockable/internal/errors"
	"github.com/Iron-Ham/lockable/internal/registry"
	"github.com/cenkalti/backoff/v4"
	"github.com/spf13/cobra"
)

var queueCmd = &cobra.Command{
	Use:   "queue <label-expr>",
	Short: "Acquire resources by label, waiting in line if none are free",
	Long: `Lock --count resources matching a label expression for a build.

If not enough matching resources are free, the build is queued on the busy
ones and the command retries with exponential backoff (see the queue.*
configuration keys) until the resources are granted, the retry budget runs
out or the command is interrupted. A build at the head of a resource's line
is served before newcomers. On give-up the build leaves every line it joined.

With --no-wait a single attempt is made and the build stays queued; use
"lockable dequeue" with the printed tickets to leave the line.`,
	Args: cobra.ExactArgs(1),
	RunE: runQueue,
}

var dequeueCmd = &cobra.Command{
	Use:   "dequeue <ticket>...",
	Short: "Leave queue lines by ticket",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runDequeue,
}

var (
	queueBuild    string
	queueProject  string
	queueClaimant string
	queueCount    int
	queueNoWait   bool
)

func init() {
	rootCmd.AddCommand(queueCmd)
	rootCmd.AddCommand(dequeueCmd)

	queueCmd.Flags().StringVarP(&queueBuild, "build", "b", "", "build ID the resources are locked for (required)")
	queueCmd.Flags().StringVarP(&queueProject, "project", "p", "", "project shown on queue markers")
	queueCmd.Flags().StringVar(&queueClaimant, "claimant", "", "name in the queue line (default: --build)")
	queueCmd.Flags().IntVarP(&queueCount, "count", "n", 1, "number of resources to acquire")
	queueCmd.Flags().BoolVar(&queueNoWait, "no-wait", false, "make one attempt and stay queued if it fails")
	_ = queueCmd.MarkFlagRequired("build")
}

func runQueue(cmd *cobra.Command, args []string) error {
	pred, err := allocation.ParsePredicate(args[0])
	if err != nil {
		return err
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	req := registry.Request{
		Predicate: pred,
		Count:     queueCount,
		Claimant:  queueClaimant,
		Project:   queueProject,
		Build:     registry.Build{ID: queueBuild, ProjectName: queueProject},
	}
	out := cmd.OutOrStdout()

	if queueNoWait {
		var grant registry.Grant
		err := s.update(cmd.Context(), func() error {
			var acqErr error
			grant, acqErr = s.reg.Acquire(req)
			return acqErr
		})
		if errors.Is(err, errors.ErrQueued) {
			fmt.Fprintf(out, "queued: %s\n", strings.Join(grant.Tickets(), " "))
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(out, strings.Join(grant.Resources, " "))
		return nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	grant, err := acquireShared(ctx, s, req, newQueueBackoff(&s.cfg.Queue), func(err error, wait time.Duration) {
		fmt.Fprintf(cmd.ErrOrStderr(), "waiting %s: %v\n", wait.Round(time.Millisecond), err)
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(out, strings.Join(grant.Resources, " "))
	return nil
}

func runDequeue(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	var left []string
	err = s.update(cmd.Context(), func() error {
		left = s.reg.CancelQueued(args...)
		return nil
	})
	if err != nil {
		return err
	}
	for _, name := range left {
		fmt.Fprintln(cmd.OutOrStdout(), name)
	}
	if len(left) == 0 {
		return fmt.Errorf("no queue entry matches %s", strings.Join(args, ", "))
	}
	return nil
}

// newQueueBackoff builds the retry policy for queued claims. A fresh
// BackOff is needed per acquisition because it carries elapsed-time state.
func newQueueBackoff(cfg *config.QueueConfig) backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = cfg.InitialInterval()
	bo.MaxInterval = cfg.MaxInterval()
	bo.MaxElapsedTime = cfg.MaxElapsed()
	return bo
}

// acquireShared is the cross-process counterpart of
// Registry.AcquireWithRetry: every attempt runs against the freshly loaded
// state file under the state lock, and the lock is released while waiting
// so other invocations can free resources. Queue entries collected along
// the way are cancelled when it gives up.
func acquireShared(ctx context.Context, s *session, req registry.Request, b backoff.BackOff, notify backoff.Notify) (registry.Grant, error) {
	var (
		grant   registry.Grant
		tickets []string
	)
	err := backoff.RetryNotify(func() error {
		var acqErr error
		if err := s.update(ctx, func() error {
			grant, acqErr = s.reg.Acquire(req)
			return nil
		}); err != nil {
			return backoff.Permanent(err)
		}
		switch {
		case acqErr == nil:
			return nil
		case errors.IsRetryable(acqErr):
			for _, t := range grant.Tickets() {
				if !slices.Contains(tickets, t) {
					tickets = append(tickets, t)
				}
			}
			return acqErr
		default:
			return backoff.Permanent(acqErr)
		}
	}, backoff.WithContext(b, ctx), notify)

	if err != nil && len(tickets) > 0 {
		// ctx may already be cancelled; leaving the line must still happen.
		cleanup, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if uerr := s.update(cleanup, func() error {
			s.reg.CancelQueued(tickets...)
			return nil
		}); uerr != nil {
			s.logger.Warn("failed to leave queue", "tickets", tickets, "error", uerr)
		}
	}
	return grant, err
}
