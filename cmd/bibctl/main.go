// bibctl is the circulation desk's terminal front end: borrow, return and
// overdue listings straight against the database, without going through the
// HTTP API.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"biblio-backend/internal/catalog"
	"biblio-backend/internal/circulation"
	"biblio-backend/internal/platform/db"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:           "bibctl",
		Short:         "library circulation admin tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "config/config.yaml", "path to config file")

	root.AddCommand(borrowCmd(), returnCmd(), overdueCmd(), findCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func openServices() (*sql.DB, *circulation.Service, *catalog.Service, error) {
	cfg, err := db.LoadConfig(configPath)
	if err != nil {
		return nil, nil, nil, err
	}
	conn, err := db.Connect(cfg.DB)
	if err != nil {
		return nil, nil, nil, err
	}
	circ := circulation.NewService(conn, circulation.PolicyFromConfig(cfg.Circulation))
	cat := catalog.NewService(conn)
	return conn, circ, cat, nil
}

func borrowCmd() *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "borrow <card_no> <copy_id>",
		Short: "lend a copy to a reader",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, circ, _, err := openServices()
			if err != nil {
				return err
			}
			defer conn.Close()

			req := circulation.BorrowRequest{CardNo: args[0], CopyID: args[1]}
			if days > 0 {
				req.LoanPeriodDays = &days
			}
			res, err := circ.Borrow(context.Background(), req)
			if err != nil {
				return err
			}
			fmt.Printf("loan %d created, due %s\n", res.LoanID, res.DueDate.Format("2006-01-02"))
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 0, "loan period in days (default from config)")
	return cmd
}

func returnCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "return <loan_id>",
		Short: "return a copy and settle the fine",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loanID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("loan_id must be an integer: %q", args[0])
			}
			conn, circ, _, err := openServices()
			if err != nil {
				return err
			}
			defer conn.Close()

			res, err := circ.Return(context.Background(), loanID)
			if err != nil {
				return err
			}
			if res.FineAmount > 0 {
				fmt.Printf("loan %d returned, %d day(s) overdue, fine %.2f\n", res.LoanID, res.OverdueDays, res.FineAmount)
			} else {
				fmt.Printf("loan %d returned, no fine\n", res.LoanID)
			}
			return nil
		},
	}
}

func overdueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "overdue",
		Short: "list open loans past their due date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, circ, _, err := openServices()
			if err != nil {
				return err
			}
			defer conn.Close()

			res, err := circ.ListOverdue(context.Background())
			if err != nil {
				return err
			}
			if len(res) == 0 {
				fmt.Println("no overdue loans")
				return nil
			}
			for _, o := range res {
				fmt.Printf("%-8d %-12s %-20s %-12s due %s  %d day(s) late  fine %.2f\n",
					o.LoanID, o.CardNo, o.ReaderName, o.CopyID,
					o.DueDate.Format("2006-01-02"), o.OverdueDays, o.AccruedFine)
			}
			return nil
		},
	}
}

func findCmd() *cobra.Command {
	var name, author, category, isbn string
	cmd := &cobra.Command{
		Use:   "find",
		Short: "search titles with availability counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, _, cat, err := openServices()
			if err != nil {
				return err
			}
			defer conn.Close()

			f := catalog.TitleFilter{}
			if isbn != "" {
				f.ISBN = &isbn
			}
			if name != "" {
				f.Name = &name
			}
			if author != "" {
				f.Author = &author
			}
			if category != "" {
				f.Category = &category
			}

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			res, err := cat.FindTitles(ctx, f)
			if err != nil {
				return err
			}
			for _, t := range res {
				fmt.Printf("%-15s %-40s %-20s %d/%d available\n",
					t.ISBN, t.Name, t.Author, t.AvailableCopies, t.TotalCopies)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&isbn, "isbn", "", "exact isbn")
	cmd.Flags().StringVar(&name, "name", "", "title name substring")
	cmd.Flags().StringVar(&author, "author", "", "author substring")
	cmd.Flags().StringVar(&category, "category", "", "category substring")
	return cmd
}
