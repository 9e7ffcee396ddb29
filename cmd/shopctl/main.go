// Command shopctl is a terminal client for the storefront: incremental
// product search with the same suggestion behavior as the web widget,
// catalog listing, and recent-search management.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"SkinStore/internal/search"
)

var serverURL string

func main() {
	root := &cobra.Command{
		Use:           "shopctl",
		Short:         "SkinStore storefront client",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "storefront base URL")

	root.AddCommand(newSearchCmd(), newProductsCmd(), newRecentCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "shopctl:", err)
		os.Exit(1)
	}
}

// recentsStore keeps history in the user config dir so it survives runs.
func recentsStore() (search.Store, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return nil, err
	}
	return search.NewFileStore(filepath.Join(dir, "shopctl", "recents.json")), nil
}
