package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/safar/barrio-store/internal/models"
	"github.com/safar/barrio-store/internal/store"
	"github.com/spf13/cobra"
)

var (
	ordersCustomer string
	ordersStore    string
	notifyFor      string
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "List registered users",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		docs, err := openDocs(cmd)
		if err != nil {
			return err
		}
		defer docs.Close()

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "USERNAME\tROLE")
		for _, u := range store.ListUsers(cmd.Context(), docs) {
			fmt.Fprintf(tw, "%s\t%s\n", u.Username, u.Role)
		}
		return tw.Flush()
	},
}

var ordersCmd = &cobra.Command{
	Use:   "orders",
	Short: "List orders, optionally for one customer or store",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		docs, err := openDocs(cmd)
		if err != nil {
			return err
		}
		defer docs.Close()

		ctx := cmd.Context()
		var orders []models.Order
		switch {
		case ordersCustomer != "":
			orders = store.ListForCustomer(ctx, docs, ordersCustomer)
		case ordersStore != "":
			orders = store.ListForStore(ctx, docs, ordersStore)
		default:
			orders = store.ListOrders(ctx, docs)
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tCUSTOMER\tSTORE\tPRODUCT\tQTY\tSTATUS\tCREATED")
		for _, o := range orders {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%s\t%s\n",
				o.ID, o.Customer, o.Store, o.Product, o.Quantity, o.Status, o.CreatedAt.Format("2006-01-02 15:04:05"))
		}
		return tw.Flush()
	},
}

var notificationsCmd = &cobra.Command{
	Use:   "notifications",
	Short: "List notifications for a recipient, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		docs, err := openDocs(cmd)
		if err != nil {
			return err
		}
		defer docs.Close()

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "CREATED\tKIND\tREAD\tMESSAGE")
		for _, n := range store.ListFor(cmd.Context(), docs, notifyFor) {
			fmt.Fprintf(tw, "%s\t%s\t%t\t%s\n",
				n.CreatedAt.Format("2006-01-02 15:04:05"), n.Kind, n.Read, n.Message)
		}
		return tw.Flush()
	},
}

func init() {
	ordersCmd.Flags().StringVar(&ordersCustomer, "customer", "", "only orders placed by this customer")
	ordersCmd.Flags().StringVar(&ordersStore, "store", "", "only orders placed against this store")
	notificationsCmd.Flags().StringVar(&notifyFor, "for", models.AdminChannel, "recipient username, or the admin channel")
}
