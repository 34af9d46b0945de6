package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/lipgloss"

	"github.com/feltmachine/holdem/internal/equity"
	"github.com/feltmachine/holdem/internal/randutil"
	"github.com/feltmachine/holdem/poker"
)

type CLI struct {
	Hole       string `arg:"" help:"Hole cards (e.g., 'AsKd')" required:"true"`
	Board      string `short:"b" help:"Community board cards (e.g., 'Td7s8h')"`
	Opponents  int    `short:"o" help:"Number of opponents holding random cards" default:"1"`
	Iterations int    `short:"i" help:"Number of Monte Carlo iterations" default:"10000"`
	Seed       *int64 `help:"Random seed for reproducible results"`
}

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15"))

	handStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("14"))

	winStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	tieStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))

	lossStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))
)

func main() {
	var cli CLI
	ctx := kong.Parse(&cli)

	var seed int64
	if cli.Seed != nil {
		seed = *cli.Seed
	} else {
		seed = time.Now().UnixNano()
	}
	rng := randutil.New(seed)

	hole, err := poker.ParseCards(cli.Hole)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing hole cards: %v\n", err)
		ctx.Exit(1)
	}
	if len(hole) != 2 {
		fmt.Fprintf(os.Stderr, "Need exactly 2 hole cards, got %d\n", len(hole))
		ctx.Exit(1)
	}

	var board []poker.Card
	if cli.Board != "" {
		board, err = poker.ParseCards(cli.Board)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing board: %v\n", err)
			ctx.Exit(1)
		}
	}

	if err := validateNoDuplicates(hole, board); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		ctx.Exit(1)
	}

	startTime := time.Now()
	result, err := equity.Estimate(hole, board, cli.Opponents, cli.Iterations, rng)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		ctx.Exit(1)
	}
	duration := time.Since(startTime)

	displayResult(hole, board, cli.Opponents, result, duration)
}

func validateNoDuplicates(hole, board []poker.Card) error {
	seen := make(map[poker.Card]bool)
	for _, card := range append(append([]poker.Card(nil), hole...), board...) {
		if seen[card] {
			return fmt.Errorf("duplicate card: %s", card)
		}
		seen[card] = true
	}
	return nil
}

func displayResult(hole, board []poker.Card, opponents int, result equity.Result, duration time.Duration) {
	if len(board) > 0 {
		fmt.Printf("%s\n", headerStyle.Render("board"))
		fmt.Printf("%s\n\n", formatCards(board))
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
		headerStyle.Render("hand"),
		headerStyle.Render("equity"),
		headerStyle.Render("win"),
		headerStyle.Render("tie"),
		headerStyle.Render("loss"))

	total := float64(result.Iterations)
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
		handStyle.Render(formatCards(hole)),
		winStyle.Render(fmt.Sprintf("%.1f%%", result.WinRate)),
		winStyle.Render(fmt.Sprintf("%.1f%%", float64(result.Wins)/total*100)),
		tieStyle.Render(fmt.Sprintf("%.1f%%", float64(result.Ties)/total*100)),
		lossStyle.Render(fmt.Sprintf("%.1f%%", float64(result.Losses)/total*100)))
	w.Flush()

	fmt.Printf("\n")
	fmt.Printf("%d iterations vs %d opponents in %v\n",
		result.Iterations, opponents, duration.Truncate(time.Millisecond))
}

func formatCards(cards []poker.Card) string {
	out := ""
	for i, card := range cards {
		if i > 0 {
			out += " "
		}
		out += card.String()
	}
	return out
}
