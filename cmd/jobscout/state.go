package main

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"jobscout/internal/browse"
	"jobscout/internal/dedup"
	"jobscout/internal/runlock"
	"jobscout/internal/state"
)

var pruneOlderThan time.Duration

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Inspect and maintain the processed set",
}

var stateShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Summarize the processed set",
	Long:  "Prints totals and a per-source breakdown of the processed set.",
	RunE:  runStateShow,
}

var statePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Drop entries older than a cutoff",
	Long:  "Removes entries first seen longer ago than --older-than and persists the smaller set. Anything pruned can be notified again if it is still listed upstream, which is why this never happens automatically.",
	RunE:  runStatePrune,
}

var stateBrowseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse the processed set interactively (TUI)",
	Long:  "Shows the source picker, then a split list and detail view over the processed set.",
	RunE:  runStateBrowse,
}

func init() {
	rootCmd.AddCommand(stateCmd)
	stateCmd.AddCommand(stateShowCmd)
	stateCmd.AddCommand(statePruneCmd)
	stateCmd.AddCommand(stateBrowseCmd)
	statePruneCmd.Flags().DurationVar(&pruneOlderThan, "older-than", 0, "age threshold, e.g. 2160h for 90 days")
	_ = statePruneCmd.MarkFlagRequired("older-than")
}

// loadSet opens the configured store and loads the set. Corrupt state is
// reported on stderr and comes back as an empty set, mirroring what a run
// would do with it.
func loadSet(cfg *stateTarget) (*dedup.ProcessedSet, state.Store, error) {
	st, err := state.Open(cfg.backend, cfg.path)
	if err != nil {
		return nil, nil, err
	}

	set, err := st.Load()
	var corrupt *state.CorruptError
	if errors.As(err, &corrupt) {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	} else if err != nil {
		st.Close()
		return nil, nil, err
	}
	return set, st, nil
}

// stateTarget is the store half of the config, so the state subcommands can
// share one loading path.
type stateTarget struct {
	backend string
	path    string
	lock    bool
}

func loadStateTarget() (*stateTarget, error) {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return nil, err
	}
	return &stateTarget{
		backend: cfg.State.Backend,
		path:    cfg.State.Path,
		lock:    cfg.State.Lock,
	}, nil
}

func runStateShow(cmd *cobra.Command, args []string) error {
	target, err := loadStateTarget()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	set, st, err := loadSet(target)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load state: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	items := set.Items()
	links, hashes := 0, 0
	for _, it := range items {
		if dedup.IsTitleIdentity(it.ID) {
			hashes++
		} else {
			links++
		}
	}

	fmt.Printf("State: %s (%s)\n\n", target.path, target.backend)
	fmt.Printf("Processed postings: %d\n", len(items))
	fmt.Printf("  from links:       %d\n", links)
	fmt.Printf("  from title hashes: %d\n", hashes)

	if len(items) == 0 {
		return nil
	}

	type sourceStats struct {
		count  int
		oldest time.Time
		newest time.Time
	}
	stats := make(map[string]*sourceStats)
	var names []string
	for _, it := range items {
		s, ok := stats[it.Entry.Source]
		if !ok {
			s = &sourceStats{oldest: it.Entry.FirstSeen, newest: it.Entry.FirstSeen}
			stats[it.Entry.Source] = s
			names = append(names, it.Entry.Source)
		}
		s.count++
		if it.Entry.FirstSeen.Before(s.oldest) {
			s.oldest = it.Entry.FirstSeen
		}
		if it.Entry.FirstSeen.After(s.newest) {
			s.newest = it.Entry.FirstSeen
		}
	}

	sort.Slice(names, func(i, j int) bool {
		if stats[names[i]].count != stats[names[j]].count {
			return stats[names[i]].count > stats[names[j]].count
		}
		return names[i] < names[j]
	})

	fmt.Printf("\n%-25s %8s  %-10s  %s\n", "Source", "Entries", "Oldest", "Newest")
	fmt.Println(strings.Repeat("─", 58))
	for _, name := range names {
		s := stats[name]
		display := name
		if display == "" {
			display = "(no source)"
		}
		fmt.Printf("%-25s %8d  %-10s  %s\n",
			display, s.count,
			s.oldest.Local().Format("2006-01-02"),
			s.newest.Local().Format("2006-01-02"))
	}
	return nil
}

func runStatePrune(cmd *cobra.Command, args []string) error {
	if pruneOlderThan <= 0 {
		fmt.Fprintln(os.Stderr, "--older-than must be positive")
		os.Exit(1)
	}

	target, err := loadStateTarget()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if target.lock {
		lock, ok, err := runlock.Acquire(target.path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to acquire run lock: %v\n", err)
			os.Exit(1)
		}
		if !ok {
			fmt.Fprintln(os.Stderr, "another process holds the state lock, try again later")
			os.Exit(1)
		}
		defer lock.Release()
	}

	st, err := state.Open(target.backend, target.path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open state store: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	set, err := st.Load()
	var corrupt *state.CorruptError
	if errors.As(err, &corrupt) {
		// Rewriting unreadable state as an empty set would destroy whatever
		// is still recoverable in it, so prune refuses.
		fmt.Fprintf(os.Stderr, "state is corrupt, refusing to prune: %v\n", err)
		os.Exit(1)
	} else if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load state: %v\n", err)
		os.Exit(1)
	}

	cutoff := time.Now().Add(-pruneOlderThan)
	pruned, removed := set.Prune(cutoff)
	if removed == 0 {
		fmt.Printf("Nothing first seen before %s; %d entries kept.\n", cutoff.Local().Format("2006-01-02"), pruned.Len())
		return nil
	}

	if err := st.Save(pruned); err != nil {
		fmt.Fprintf(os.Stderr, "failed to persist pruned state: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Pruned %d entries first seen before %s; %d remain.\n", removed, cutoff.Local().Format("2006-01-02"), pruned.Len())
	return nil
}

func runStateBrowse(cmd *cobra.Command, args []string) error {
	target, err := loadStateTarget()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	set, st, err := loadSet(target)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load state: %v\n", err)
		os.Exit(1)
	}
	st.Close()

	items := set.Items()
	if len(items) == 0 {
		fmt.Println("The processed set is empty.")
		return nil
	}

	for {
		options := browse.SourceOptions(items)
		choice, err := browse.RunSourcePicker(options)
		if err != nil {
			fmt.Printf("Picker error: %v\n", err)
			return nil
		}
		if choice < 0 {
			return nil
		}
		opt := options[choice]

		shown := items
		if opt.Name != browse.AllSources {
			shown = nil
			for _, it := range items {
				if it.Entry.Source == opt.Name {
					shown = append(shown, it)
				}
			}
		}

		wantQuit, err := browse.RunStateTUI(shown, opt.Name)
		if err != nil {
			fmt.Printf("TUI error: %v\n", err)
		}
		if wantQuit {
			return nil
		}
		// else: loop → back to picker
	}
}
