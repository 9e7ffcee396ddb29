package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"SkinStore/internal/search"
	"SkinStore/internal/storefront"
)

const debounceInterval = 300 * time.Millisecond

func newSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search",
		Short: "Search the catalog as you type",
		Long: `Each line you enter replaces the current query and suggestions are
printed once the input settles. Commands:

  :go        open the full results page for the current query
  :open N    open suggestion number N
  :recent N  re-run recent search number N
  :clear     clear recent searches
  :quit      exit`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd)
		},
	}
}

type session struct {
	mu   sync.Mutex
	last search.View
	out  func(format string, a ...any)
}

func (s *session) render(v search.View) {
	s.mu.Lock()
	s.last = v
	s.mu.Unlock()

	if !v.Open {
		return
	}

	switch {
	case v.Loading:
		s.out("  ...\n")
	case strings.TrimSpace(v.Query) == "":
		if len(v.Recents) == 0 {
			s.out("  (no recent searches)\n")
			return
		}
		s.out("  Recent searches:\n")
		for i, e := range v.Recents {
			s.out("  %d. %s\n", i+1, e)
		}
	case v.NoResults:
		s.out("  No results for %q\n", v.Query)
	default:
		n := 0
		for _, b := range v.Brands {
			n++
			s.out("  %d. [brand]   %s\n", n, b.Name)
		}
		for _, p := range v.Products {
			n++
			s.out("  %d. [product] %s (%s) %s\n", n, p.Name, p.BrandName, formatCents(p.PriceCents))
		}
	}
}

func (s *session) view() search.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func runSearch(cmd *cobra.Command) error {
	store, err := recentsStore()
	if err != nil {
		return fmt.Errorf("recents store: %w", err)
	}

	snap := search.NewSnapshot()
	snap.Load(cmd.Context(), storefront.NewCatalogClient(serverURL), nil)
	if !snap.Loaded() || snap.Len() == 0 {
		fmt.Fprintln(os.Stderr, "warning: catalog unavailable, searching an empty catalog")
	}

	sess := &session{out: func(format string, a ...any) { fmt.Printf(format, a...) }}
	history := search.LoadHistory(store, search.DefaultOwner)

	panel := search.NewPanel(snap, history, debounceInterval, sess.render)
	defer panel.Close()
	panel.Focus()

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case line == ":quit":
			return nil

		case line == ":clear":
			panel.ClearRecents()
			fmt.Println("recent searches cleared")

		case line == ":go":
			if target, ok := panel.Submit(); ok {
				fmt.Println("-> " + serverURL + target)
			}
			panel.Focus()

		case strings.HasPrefix(line, ":open "):
			v := sess.view()
			all := append(append([]search.Suggestion{}, v.Brands...), v.Products...)
			i, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, ":open ")))
			if err != nil || i < 1 || i > len(all) {
				fmt.Println("no such suggestion")
				continue
			}
			if target, ok := panel.Select(all[i-1]); ok {
				fmt.Println("-> " + serverURL + target)
			}
			panel.Focus()

		case strings.HasPrefix(line, ":recent "):
			v := sess.view()
			i, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, ":recent ")))
			if err != nil || i < 1 || i > len(v.Recents) {
				fmt.Println("no such entry")
				continue
			}
			if target, ok := panel.SelectRecent(v.Recents[i-1]); ok {
				fmt.Println("-> " + serverURL + target)
			}
			panel.Focus()

		default:
			panel.Input(line)
			// Let the debounce settle so the suggestions print before
			// the next prompt.
			time.Sleep(debounceInterval + 50*time.Millisecond)
		}
	}
	return scanner.Err()
}

func formatCents(cents int64) string {
	return fmt.Sprintf("$%d.%02d", cents/100, cents%100)
}
