package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"CryptoGraph/internal/advisor"
	"CryptoGraph/internal/model"
	"CryptoGraph/internal/report"
	"CryptoGraph/internal/selection"
)

// withApp runs fn against a freshly wired app bounded by --timeout.
func withApp(fn func(ctx context.Context, a *app) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func runCoins(cmd *cobra.Command, args []string) error {
	query, _ := cmd.Flags().GetString("search")
	limit, _ := cmd.Flags().GetInt("limit")
	return withApp(func(ctx context.Context, a *app) error {
		if err := a.dash.RefreshCoins(ctx); err != nil {
			return err
		}
		a.dash.Search().Set(query)
		coins := a.dash.FilteredCoins()
		if limit > 0 && len(coins) > limit {
			coins = coins[:limit]
		}
		printCoins(cmd.OutOrStdout(), coins, a.dash.Selection())
		return nil
	})
}

func printCoins(out io.Writer, coins []model.Coin, selected []string) {
	if len(coins) == 0 {
		fmt.Fprintln(out, "No coins match.")
		return
	}
	isSelected := make(map[string]bool, len(selected))
	for _, id := range selected {
		isSelected[id] = true
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tID\tSYMBOL\tNAME\tPRICE\t24H\t")
	for _, c := range coins {
		mark := ""
		if isSelected[c.ID] {
			mark = "*"
		}
		fmt.Fprintf(w, "%d\t%s%s\t%s\t%s\t%s\t%s\t\n",
			c.MarketCapRank, c.ID, mark, strings.ToUpper(c.Symbol), c.Name,
			report.FormatCurrency(&c.CurrentPrice),
			report.FormatPercentage(&c.PriceChangePercentage24h, 2))
	}
	_ = w.Flush()
}

func printSelection(out io.Writer, ids []string) {
	if len(ids) == 0 {
		fmt.Fprintln(out, "No coins selected.")
		return
	}
	fmt.Fprintf(out, "Selected coins (%d/%d):\n", len(ids), selection.MaxSelected)
	for i, id := range ids {
		fmt.Fprintf(out, "  %d. %s\n", i+1, id)
	}
}

func runSelectList(cmd *cobra.Command, args []string) error {
	return withApp(func(_ context.Context, a *app) error {
		printSelection(cmd.OutOrStdout(), a.dash.Selection())
		return nil
	})
}

func runSelectToggle(cmd *cobra.Command, args []string) error {
	return withApp(func(_ context.Context, a *app) error {
		out := cmd.OutOrStdout()
		added, err := a.dash.Toggle(args[0])
		if errors.Is(err, selection.ErrOverflow) {
			printSelection(out, a.dash.Selection())
			return fmt.Errorf("%w: remove one with 'cryptograph select remove <id>' first", err)
		}
		if err != nil {
			return err
		}
		if added {
			fmt.Fprintf(out, "Now tracking %s\n", args[0])
		} else {
			fmt.Fprintf(out, "Stopped tracking %s\n", args[0])
		}
		printSelection(out, a.dash.Selection())
		return nil
	})
}

func runSelectRemove(cmd *cobra.Command, args []string) error {
	return withApp(func(_ context.Context, a *app) error {
		if !a.dash.Remove(args[0]) {
			return fmt.Errorf("%s is not selected", args[0])
		}
		printSelection(cmd.OutOrStdout(), a.dash.Selection())
		return nil
	})
}

func runSelectClear(cmd *cobra.Command, args []string) error {
	return withApp(func(_ context.Context, a *app) error {
		removed := a.dash.Clear()
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d coin(s).\n", len(removed))
		return nil
	})
}

func runPrice(cmd *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		p, err := a.dash.Price(ctx, args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s\n", args[0])
		fmt.Fprintf(out, "  USD  %s\n", report.FormatCurrency(&p.USD))
		fmt.Fprintf(out, "  EUR  €%s\n", report.FormatPrice(&p.EUR))
		fmt.Fprintf(out, "  ILS  ₪%s\n", report.FormatPrice(&p.ILS))
		return nil
	})
}

func runRecommend(cmd *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		data, rec, err := a.dash.Recommend(ctx, args[0])
		if errors.Is(err, advisor.ErrNotConfigured) {
			return errors.New("recommendations are not configured: set llm.api_key, OPENAI_API_KEY or GEMINI_API_KEY")
		}
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s: %s\n", data.Name, strings.ToUpper(string(rec.Decision)))
		fmt.Fprintf(out, "  price       %s\n", report.FormatCurrency(&data.CurrentPriceUSD))
		fmt.Fprintf(out, "  market cap  %s\n", report.FormatCurrency(&data.MarketCapUSD))
		fmt.Fprintf(out, "  30d / 60d / 200d  %s / %s / %s\n",
			report.FormatPercentage(&data.PriceChangePercent30d, 2),
			report.FormatPercentage(&data.PriceChangePercent60d, 2),
			report.FormatPercentage(&data.PriceChangePercent200, 2))
		fmt.Fprintf(out, "\n%s\n(via %s)\n", rec.Reason, rec.Provider)
		return nil
	})
}
