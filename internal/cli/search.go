package cli

import (
	"bufio"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/vietddude/storefront/internal/core/domain"
	"github.com/vietddude/storefront/internal/hooks"
)

func newSuggestCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "suggest <text>",
		Short: "Show search suggestions for text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.client.SearchSuggestions(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return failure(err)
			}
			return newPrinter(cmd, opts).suggestions(s)
		},
	}
}

// newSearchCmd reads successive input values from stdin, one per line, and
// prints suggestions once the input has settled.
func newSearchCmd(opts *options) *cobra.Command {
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search as you type, reading queries from stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("debounce") {
				debounce = opts.cfg.Search.Debounce
			}
			h := hooks.NewSuggestions(opts.client, debounce, opts.cfg.Search.MinQueryLength)
			defer h.Close()

			p := newPrinter(cmd, opts)
			var mu sync.Mutex
			var printed uint64
			unsubscribe := h.Subscribe(func(s hooks.State[*domain.Suggestions]) {
				if s.Loading || s.Phase == hooks.PhaseIdle {
					return
				}
				mu.Lock()
				defer mu.Unlock()
				if s.Version <= printed {
					return
				}
				printed = s.Version

				if s.Err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s\n", s.Message())
					return
				}
				_ = p.suggestions(s.Data)
			})
			defer unsubscribe()

			scanner := bufio.NewScanner(cmd.InOrStdin())
			for scanner.Scan() {
				h.SetQuery(scanner.Text())
			}
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("read input: %w", err)
			}

			// Let the last value settle before exiting.
			ticker := time.NewTicker(10 * time.Millisecond)
			defer ticker.Stop()
			for h.Pending() {
				select {
				case <-cmd.Context().Done():
					return failure(cmd.Context().Err())
				case <-ticker.C:
				}
			}
			_, err := h.Wait(cmd.Context())
			return failure(err)
		},
	}

	cmd.Flags().DurationVar(&debounce, "debounce", hooks.DefaultDebounce, "how long input must be stable before searching")
	return cmd
}
