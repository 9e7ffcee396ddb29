package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"SkinStore/internal/storefront"
)

func newProductsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "products",
		Short: "List the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			products, err := storefront.NewCatalogClient(serverURL).FetchProducts(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tBRAND\tPRICE\tSTOCK")
			for _, p := range products {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n",
					p.ID, p.Name, p.Brand.Name, formatCents(p.PriceCents), p.Quantity)
			}
			return w.Flush()
		},
	}
}
